// Package lifecycle owns the listing state machine and the rules that
// gate visibility, mutability and quota: who may touch a listing, when
// its business fields are still editable, and how many concurrent
// listings and featured slots a seller's plan allows.
package lifecycle

import (
	"log"
	"time"

	"machinery-marketplace/internal/apperr"
	"machinery-marketplace/internal/entitlement"
	"machinery-marketplace/internal/models"
)

// ListingStore is the persistence surface the engine needs. All read
// methods exclude soft-deleted rows; GetByID returns (nil, nil) when
// no visible row exists.
type ListingStore interface {
	GetByID(id string) (*models.Listing, error)
	Create(l *models.Listing) error
	Update(l *models.Listing) error
	CountQuotaRelevant(accountID string) (int, error)
	CountFeatured(accountID string) (int, error)
}

// MediaCounter reports how many images a listing has attached. Used by
// the submit gate only.
type MediaCounter interface {
	CountImages(listingID string) (int, error)
}

// EntitlementSource resolves an account's plan quota numbers.
type EntitlementSource interface {
	Resolve(accountID string) (entitlement.Entitlement, error)
}

// EventRecorder persists one audit row per lifecycle transition.
// Failures are logged, never surfaced.
type EventRecorder interface {
	Record(e *models.ListingEvent) error
}

// Notifier receives fire-and-forget transition signals. Implementations
// must not block; delivery is never awaited.
type Notifier interface {
	ListingSubmitted(l *models.Listing)
	ListingApproved(l *models.Listing)
	ListingRejected(l *models.Listing, reason string)
}

// Refresher marks a listing's public view for refresh after a mutation.
// Best effort; errors are logged and ignored.
type Refresher interface {
	Upsert(l *models.Listing) error
	Remove(listingID string) error
}

// Service is the listing lifecycle engine.
type Service struct {
	listings     ListingStore
	media        MediaCounter
	entitlements EntitlementSource
	events       EventRecorder
	notifier     Notifier
	refresher    Refresher
}

// NewService creates the lifecycle engine. notifier and refresher may
// be nil when the caller has no use for the corresponding signal.
func NewService(listings ListingStore, media MediaCounter, entitlements EntitlementSource, events EventRecorder, notifier Notifier, refresher Refresher) *Service {
	return &Service{
		listings:     listings,
		media:        media,
		entitlements: entitlements,
		events:       events,
		notifier:     notifier,
		refresher:    refresher,
	}
}

// verifyOwnership loads the listing and confirms the actor owns it.
// Missing and not-owned both fail with NOT_FOUND so that the existence
// of other accounts' listings never leaks.
func (s *Service) verifyOwnership(actorID, listingID string) (*models.Listing, error) {
	l, err := s.listings.GetByID(listingID)
	if err != nil {
		log.Printf("[lifecycle] load listing %s failed: %v", listingID, err)
		return nil, apperr.Server(err)
	}
	if l == nil || l.AccountID != actorID {
		return nil, apperr.NotFound("listing not found")
	}
	return l, nil
}

// loadForReview loads a listing for an external reviewer. Reviewers are
// not owners; only existence is checked.
func (s *Service) loadForReview(listingID string) (*models.Listing, error) {
	l, err := s.listings.GetByID(listingID)
	if err != nil {
		log.Printf("[lifecycle] load listing %s failed: %v", listingID, err)
		return nil, apperr.Server(err)
	}
	if l == nil {
		return nil, apperr.NotFound("listing not found")
	}
	return l, nil
}

// checkFreshness rejects a write when the stored row changed after the
// caller last read it. A nil observed timestamp skips the check: the
// caller chose not to check, which is the create-then-save escape
// hatch, not a general bypass.
func checkFreshness(observed *time.Time, stored time.Time) error {
	if observed == nil {
		return nil
	}
	// MySQL DATETIME keeps second precision, so compare at seconds.
	if stored.Truncate(time.Second).After(observed.Truncate(time.Second)) {
		return apperr.Conflict("listing was modified by another session, reload and try again")
	}
	return nil
}

func (s *Service) record(listingID, actorID, eventType string, from, to models.ListingStatus, note string) {
	if s.events == nil {
		return
	}
	err := s.events.Record(&models.ListingEvent{
		ListingID:  listingID,
		ActorID:    actorID,
		EventType:  eventType,
		FromStatus: string(from),
		ToStatus:   string(to),
		Note:       note,
	})
	if err != nil {
		log.Printf("[lifecycle] record event %s for listing %s failed: %v", eventType, listingID, err)
	}
}

func (s *Service) refreshUpsert(l *models.Listing) {
	if s.refresher == nil {
		return
	}
	if err := s.refresher.Upsert(l); err != nil {
		log.Printf("[lifecycle] refresh listing %s failed: %v", l.ID, err)
	}
}

func (s *Service) refreshRemove(listingID string) {
	if s.refresher == nil {
		return
	}
	if err := s.refresher.Remove(listingID); err != nil {
		log.Printf("[lifecycle] remove listing %s from index failed: %v", listingID, err)
	}
}

func (s *Service) save(l *models.Listing) error {
	if err := s.listings.Update(l); err != nil {
		log.Printf("[lifecycle] save listing %s failed: %v", l.ID, err)
		return apperr.Server(err)
	}
	return nil
}

// QuotaStatus is the result of a quota pre-check, exposed directly so
// the UI can pre-empt a doomed create call.
type QuotaStatus struct {
	Allowed      bool `json:"allowed"`
	CurrentCount int  `json:"current_count"`
	Limit        int  `json:"limit"`
}

// CanCreate reports whether the account may hold one more non-terminal
// listing. Limit is UnlimitedQuota (-1) for unbounded plans.
func (s *Service) CanCreate(accountID string) (QuotaStatus, error) {
	ent, err := s.entitlements.Resolve(accountID)
	if err != nil {
		return QuotaStatus{}, apperr.Server(err)
	}
	count, err := s.listings.CountQuotaRelevant(accountID)
	if err != nil {
		return QuotaStatus{}, apperr.Server(err)
	}
	return QuotaStatus{
		Allowed:      ent.AllowsListings(count),
		CurrentCount: count,
		Limit:        ent.ListingLimit,
	}, nil
}

// enforceCreateQuota runs the quota check immediately before an insert.
// Deliberately not re-evaluated inside the insert transaction: two
// near-simultaneous creates from one account can transiently exceed the
// quota by one. Accepted tradeoff, see DESIGN.md.
func (s *Service) enforceCreateQuota(accountID string) error {
	status, err := s.CanCreate(accountID)
	if err != nil {
		return err
	}
	if !status.Allowed {
		return apperr.PlanLimit(status.CurrentCount, status.Limit)
	}
	return nil
}
