package lifecycle

import (
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"machinery-marketplace/internal/apperr"
	"machinery-marketplace/internal/models"
)

// ListingInput carries the mutable business fields of a listing. The
// same shape serves create and update; updates replace all business
// fields.
type ListingInput struct {
	Title          string `json:"title"`
	Description    string `json:"description"`
	Manufacturer   string `json:"manufacturer"`
	ModelName      string `json:"model_name"`
	Category       string `json:"category"`
	PriceCents     *int   `json:"price_cents"`
	Negotiable     bool   `json:"negotiable"`
	Condition      string `json:"condition"`
	YearBuilt      *int   `json:"year_built"`
	MeasuringRange string `json:"measuring_range"`
	Country        string `json:"country"`
	City           string `json:"city"`
	PostalCode     string `json:"postal_code"`
}

func (in *ListingInput) validate() error {
	if strings.TrimSpace(in.Title) == "" {
		return apperr.Validation("title is required")
	}
	if in.Condition != "" && !models.ValidCondition(in.Condition) {
		return apperr.Validation("unknown condition: " + in.Condition)
	}
	if in.PriceCents != nil && *in.PriceCents < 0 {
		return apperr.Validation("price must not be negative")
	}
	if in.YearBuilt != nil && (*in.YearBuilt < 1900 || *in.YearBuilt > time.Now().Year()+1) {
		return apperr.Validation("year_built is out of range")
	}
	return nil
}

func (in *ListingInput) apply(l *models.Listing) {
	l.Title = strings.TrimSpace(in.Title)
	l.Description = in.Description
	l.Manufacturer = in.Manufacturer
	l.ModelName = in.ModelName
	l.Category = in.Category
	l.PriceCents = in.PriceCents
	l.Negotiable = in.Negotiable
	l.Condition = in.Condition
	l.YearBuilt = in.YearBuilt
	l.MeasuringRange = in.MeasuringRange
	l.Country = in.Country
	l.City = in.City
	l.PostalCode = in.PostalCode
}

// Create inserts a new draft listing for the actor, subject to the
// plan's listing quota. The slug is generated once here and never
// changes afterwards.
func (s *Service) Create(actorID string, in ListingInput) (*models.Listing, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	if err := s.enforceCreateQuota(actorID); err != nil {
		return nil, err
	}

	l := &models.Listing{
		ID:        uuid.NewString(),
		AccountID: actorID,
		Status:    models.StatusDraft,
	}
	in.apply(l)
	l.Slug = generateSlug(l.Title)

	if err := s.listings.Create(l); err != nil {
		log.Printf("[lifecycle] create listing for account %s failed: %v", actorID, err)
		return nil, apperr.Server(err)
	}

	s.record(l.ID, actorID, models.EventCreated, "", l.Status, "")
	return l, nil
}

// Update replaces the business fields of a draft, pending or active
// listing. observed is the updated_at the caller saw when it last read
// the row; a stale value fails with CONFLICT, nil skips the check.
func (s *Service) Update(actorID, listingID string, in ListingInput, observed *time.Time) (*models.Listing, error) {
	l, err := s.verifyOwnership(actorID, listingID)
	if err != nil {
		return nil, err
	}
	if !l.IsEditable() {
		return nil, apperr.Forbidden("listing can no longer be edited")
	}
	if err := checkFreshness(observed, l.UpdatedAt); err != nil {
		return nil, err
	}
	if err := in.validate(); err != nil {
		return nil, err
	}

	in.apply(l)
	if err := s.save(l); err != nil {
		return nil, err
	}

	s.record(l.ID, actorID, models.EventUpdated, l.Status, l.Status, "")
	if l.Status == models.StatusActive {
		s.refreshUpsert(l)
	}
	return l, nil
}

// SubmitForReview moves a draft listing into the review queue. Requires
// at least one attached image. Prior rejection fields are cleared so a
// re-submission starts clean.
func (s *Service) SubmitForReview(actorID, listingID string) (*models.Listing, error) {
	l, err := s.verifyOwnership(actorID, listingID)
	if err != nil {
		return nil, err
	}
	if l.Status != models.StatusDraft {
		return nil, apperr.Validation("only draft listings can be submitted for review")
	}

	images, err := s.media.CountImages(l.ID)
	if err != nil {
		log.Printf("[lifecycle] count images for listing %s failed: %v", l.ID, err)
		return nil, apperr.Server(err)
	}
	if images == 0 {
		return nil, apperr.Validation("at least one image is required before submitting")
	}

	from := l.Status
	l.Status = models.StatusPendingReview
	l.RejectionReason = nil
	l.RejectedAt = nil
	l.RejectedBy = nil

	if err := s.save(l); err != nil {
		return nil, err
	}

	s.record(l.ID, actorID, models.EventSubmitted, from, l.Status, "")
	if s.notifier != nil {
		s.notifier.ListingSubmitted(l)
	}
	return l, nil
}

// Approve publishes a pending listing. Reviewer operation; the actor is
// not the owner.
func (s *Service) Approve(reviewerID, listingID string) (*models.Listing, error) {
	l, err := s.loadForReview(listingID)
	if err != nil {
		return nil, err
	}
	if l.Status != models.StatusPendingReview {
		return nil, apperr.Validation("only pending listings can be approved")
	}

	from := l.Status
	now := time.Now()
	l.Status = models.StatusActive
	l.PublishedAt = &now
	l.RejectionReason = nil
	l.RejectedAt = nil
	l.RejectedBy = nil

	if err := s.save(l); err != nil {
		return nil, err
	}

	s.record(l.ID, reviewerID, models.EventApproved, from, l.Status, "")
	if s.notifier != nil {
		s.notifier.ListingApproved(l)
	}
	s.refreshUpsert(l)
	return l, nil
}

// Reject returns a pending listing to draft with the reviewer's reason
// attached.
func (s *Service) Reject(reviewerID, listingID, reason string) (*models.Listing, error) {
	if strings.TrimSpace(reason) == "" {
		return nil, apperr.Validation("a rejection reason is required")
	}
	l, err := s.loadForReview(listingID)
	if err != nil {
		return nil, err
	}
	if l.Status != models.StatusPendingReview {
		return nil, apperr.Validation("only pending listings can be rejected")
	}

	from := l.Status
	now := time.Now()
	l.Status = models.StatusDraft
	l.RejectionReason = &reason
	l.RejectedAt = &now
	l.RejectedBy = &reviewerID

	if err := s.save(l); err != nil {
		return nil, err
	}

	s.record(l.ID, reviewerID, models.EventRejected, from, l.Status, reason)
	if s.notifier != nil {
		s.notifier.ListingRejected(l, reason)
	}
	return l, nil
}

// MarkSold closes an active listing. Terminal for business edits.
func (s *Service) MarkSold(actorID, listingID string) (*models.Listing, error) {
	l, err := s.verifyOwnership(actorID, listingID)
	if err != nil {
		return nil, err
	}
	if l.Status != models.StatusActive {
		return nil, apperr.Validation("only active listings can be marked as sold")
	}

	from := l.Status
	now := time.Now()
	l.Status = models.StatusSold
	l.SoldAt = &now
	l.Featured = false

	if err := s.save(l); err != nil {
		return nil, err
	}

	s.record(l.ID, actorID, models.EventSold, from, l.Status, "")
	s.refreshRemove(l.ID)
	return l, nil
}

// Archive hides a listing from public view. Reachable from any
// non-terminal state and frees the listing's quota slot.
func (s *Service) Archive(actorID, listingID string) (*models.Listing, error) {
	l, err := s.verifyOwnership(actorID, listingID)
	if err != nil {
		return nil, err
	}
	switch l.Status {
	case models.StatusDraft, models.StatusPendingReview, models.StatusActive:
	default:
		return nil, apperr.Validation("listing cannot be archived from its current state")
	}

	from := l.Status
	l.Status = models.StatusArchived
	l.Featured = false

	if err := s.save(l); err != nil {
		return nil, err
	}

	s.record(l.ID, actorID, models.EventArchived, from, l.Status, "")
	s.refreshRemove(l.ID)
	return l, nil
}

// SoftDelete hides the row from all normal queries without physically
// removing it. Non-terminal listings are forced to archived so the
// status column never reports a deleted row as live.
func (s *Service) SoftDelete(actorID, listingID string) error {
	l, err := s.verifyOwnership(actorID, listingID)
	if err != nil {
		return err
	}

	from := l.Status
	now := time.Now()
	l.DeletedAt = &now
	l.Featured = false
	if l.Status != models.StatusSold && l.Status != models.StatusArchived {
		l.Status = models.StatusArchived
	}

	if err := s.save(l); err != nil {
		return err
	}

	s.record(l.ID, actorID, models.EventDeleted, from, l.Status, "")
	s.refreshRemove(l.ID)
	return nil
}

// Duplicate creates a fresh draft copying the source's business fields
// only: no media, no timestamps, no moderation state. Subject to the
// same quota check as a fresh create.
func (s *Service) Duplicate(actorID, listingID string) (*models.Listing, error) {
	src, err := s.verifyOwnership(actorID, listingID)
	if err != nil {
		return nil, err
	}
	if err := s.enforceCreateQuota(actorID); err != nil {
		return nil, err
	}

	dup := &models.Listing{
		ID:             uuid.NewString(),
		AccountID:      actorID,
		Title:          src.Title + " (copy)",
		Description:    src.Description,
		Manufacturer:   src.Manufacturer,
		ModelName:      src.ModelName,
		Category:       src.Category,
		Negotiable:     src.Negotiable,
		Condition:      src.Condition,
		MeasuringRange: src.MeasuringRange,
		Country:        src.Country,
		City:           src.City,
		PostalCode:     src.PostalCode,
		Status:         models.StatusDraft,
	}
	if src.PriceCents != nil {
		price := *src.PriceCents
		dup.PriceCents = &price
	}
	if src.YearBuilt != nil {
		year := *src.YearBuilt
		dup.YearBuilt = &year
	}
	dup.Slug = generateSlug(dup.Title)

	if err := s.listings.Create(dup); err != nil {
		log.Printf("[lifecycle] duplicate listing %s failed: %v", src.ID, err)
		return nil, apperr.Server(err)
	}

	s.record(dup.ID, actorID, models.EventDuplicated, "", dup.Status, "source: "+src.ID)
	return dup, nil
}

// ToggleFeatured sets or clears the promotion flag. Featuring requires
// an active listing and a free featured slot on the plan; unfeaturing
// is never quota-checked.
func (s *Service) ToggleFeatured(actorID, listingID string, desired bool) (*models.Listing, error) {
	l, err := s.verifyOwnership(actorID, listingID)
	if err != nil {
		return nil, err
	}

	if !desired {
		if !l.Featured {
			return l, nil
		}
		l.Featured = false
		if err := s.save(l); err != nil {
			return nil, err
		}
		s.record(l.ID, actorID, models.EventUnfeatured, l.Status, l.Status, "")
		if l.Status == models.StatusActive {
			s.refreshUpsert(l)
		}
		return l, nil
	}

	if l.Status != models.StatusActive {
		return nil, apperr.Validation("only active listings can be featured")
	}
	if l.Featured {
		return l, nil
	}

	ent, err := s.entitlements.Resolve(actorID)
	if err != nil {
		return nil, apperr.Server(err)
	}
	count, err := s.listings.CountFeatured(actorID)
	if err != nil {
		log.Printf("[lifecycle] count featured for account %s failed: %v", actorID, err)
		return nil, apperr.Server(err)
	}
	if !ent.AllowsFeatured(count) {
		return nil, apperr.PlanLimit(count, ent.FeaturedPerMonth)
	}

	l.Featured = true
	if err := s.save(l); err != nil {
		return nil, err
	}

	s.record(l.ID, actorID, models.EventFeatured, l.Status, l.Status, "")
	s.refreshUpsert(l)
	return l, nil
}
