package lifecycle

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"machinery-marketplace/internal/apperr"
	"machinery-marketplace/internal/entitlement"
	"machinery-marketplace/internal/models"
)

// fakeListings is an in-memory ListingStore. Reads hide soft-deleted
// rows and return copies, the same contract the GORM store keeps.
type fakeListings struct {
	rows map[string]*models.Listing
}

func newFakeListings() *fakeListings {
	return &fakeListings{rows: make(map[string]*models.Listing)}
}

func (f *fakeListings) GetByID(id string) (*models.Listing, error) {
	l, ok := f.rows[id]
	if !ok || l.DeletedAt != nil {
		return nil, nil
	}
	cp := *l
	return &cp, nil
}

func (f *fakeListings) Create(l *models.Listing) error {
	now := time.Now()
	l.CreatedAt = now
	l.UpdatedAt = now
	cp := *l
	f.rows[l.ID] = &cp
	return nil
}

func (f *fakeListings) Update(l *models.Listing) error {
	l.UpdatedAt = time.Now()
	cp := *l
	f.rows[l.ID] = &cp
	return nil
}

func (f *fakeListings) CountQuotaRelevant(accountID string) (int, error) {
	count := 0
	for _, l := range f.rows {
		if l.AccountID == accountID && l.CountsAgainstQuota() {
			count++
		}
	}
	return count, nil
}

func (f *fakeListings) CountFeatured(accountID string) (int, error) {
	count := 0
	for _, l := range f.rows {
		if l.AccountID == accountID && l.Featured && l.Status == models.StatusActive && l.DeletedAt == nil {
			count++
		}
	}
	return count, nil
}

// put stores a listing directly, bypassing the engine.
func (f *fakeListings) put(l models.Listing) {
	if l.UpdatedAt.IsZero() {
		l.UpdatedAt = time.Now()
	}
	f.rows[l.ID] = &l
}

type fakeMedia struct {
	images map[string]int
}

func (f *fakeMedia) CountImages(listingID string) (int, error) {
	return f.images[listingID], nil
}

type fakeEntitlements struct {
	ent entitlement.Entitlement
}

func (f *fakeEntitlements) Resolve(accountID string) (entitlement.Entitlement, error) {
	return f.ent, nil
}

type fakeEvents struct {
	events []models.ListingEvent
}

func (f *fakeEvents) Record(e *models.ListingEvent) error {
	f.events = append(f.events, *e)
	return nil
}

func (f *fakeEvents) last() *models.ListingEvent {
	if len(f.events) == 0 {
		return nil
	}
	return &f.events[len(f.events)-1]
}

type fakeNotifier struct {
	submitted, approved, rejected int
	lastReason                    string
}

func (f *fakeNotifier) ListingSubmitted(l *models.Listing) { f.submitted++ }
func (f *fakeNotifier) ListingApproved(l *models.Listing)  { f.approved++ }
func (f *fakeNotifier) ListingRejected(l *models.Listing, reason string) {
	f.rejected++
	f.lastReason = reason
}

type fakeRefresher struct {
	upserts []string
	removes []string
}

func (f *fakeRefresher) Upsert(l *models.Listing) error {
	f.upserts = append(f.upserts, l.ID)
	return nil
}

func (f *fakeRefresher) Remove(listingID string) error {
	f.removes = append(f.removes, listingID)
	return nil
}

type fixture struct {
	service   *Service
	listings  *fakeListings
	media     *fakeMedia
	ents      *fakeEntitlements
	events    *fakeEvents
	notifier  *fakeNotifier
	refresher *fakeRefresher
}

func newFixture(ent entitlement.Entitlement) *fixture {
	f := &fixture{
		listings:  newFakeListings(),
		media:     &fakeMedia{images: make(map[string]int)},
		ents:      &fakeEntitlements{ent: ent},
		events:    &fakeEvents{},
		notifier:  &fakeNotifier{},
		refresher: &fakeRefresher{},
	}
	f.service = NewService(f.listings, f.media, f.ents, f.events, f.notifier, f.refresher)
	return f
}

func businessPlan() entitlement.Entitlement {
	return entitlement.Entitlement{PlanSlug: "business", ListingLimit: 10, FeaturedPerMonth: 2}
}

func validInput() ListingInput {
	price := 1250000
	year := 2019
	return ListingInput{
		Title:        "Zeiss Contura G2 CMM",
		Description:  "Well maintained coordinate measuring machine",
		Manufacturer: "Zeiss",
		ModelName:    "Contura G2",
		Category:     "cmm",
		PriceCents:   &price,
		Condition:    models.ConditionUsed,
		YearBuilt:    &year,
		Country:      "DE",
		City:         "Stuttgart",
	}
}

func TestCreateStartsAsDraft(t *testing.T) {
	f := newFixture(businessPlan())

	l, err := f.service.Create("acct-1", validInput())
	require.NoError(t, err)

	assert.Equal(t, models.StatusDraft, l.Status)
	assert.Equal(t, "acct-1", l.AccountID)
	assert.NotEmpty(t, l.ID)
	assert.NotEmpty(t, l.Slug)
	assert.Contains(t, l.Slug, "zeiss-contura-g2-cmm")

	ev := f.events.last()
	require.NotNil(t, ev)
	assert.Equal(t, models.EventCreated, ev.EventType)
	assert.Equal(t, string(models.StatusDraft), ev.ToStatus)
}

func TestCreateValidatesInput(t *testing.T) {
	f := newFixture(businessPlan())

	cases := []struct {
		name   string
		mutate func(*ListingInput)
	}{
		{"empty title", func(in *ListingInput) { in.Title = "   " }},
		{"unknown condition", func(in *ListingInput) { in.Condition = "mint" }},
		{"negative price", func(in *ListingInput) { p := -1; in.PriceCents = &p }},
		{"year too old", func(in *ListingInput) { y := 1850; in.YearBuilt = &y }},
		{"year in the future", func(in *ListingInput) { y := time.Now().Year() + 5; in.YearBuilt = &y }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			in := validInput()
			tc.mutate(&in)
			_, err := f.service.Create("acct-1", in)
			assert.True(t, apperr.Is(err, apperr.CodeValidation), "expected validation error, got %v", err)
		})
	}
}

func TestCreateEnforcesQuota(t *testing.T) {
	f := newFixture(entitlement.Entitlement{PlanSlug: "basic", ListingLimit: 1})

	_, err := f.service.Create("acct-1", validInput())
	require.NoError(t, err)

	_, err = f.service.Create("acct-1", validInput())
	require.Error(t, err)
	ae := apperr.From(err)
	assert.Equal(t, apperr.CodePlanLimitReached, ae.Code)
	assert.Equal(t, 1, ae.CurrentCount)
	assert.Equal(t, 1, ae.Limit)

	// Another account is unaffected.
	_, err = f.service.Create("acct-2", validInput())
	assert.NoError(t, err)
}

func TestSoldAndArchivedReleaseQuotaSlots(t *testing.T) {
	f := newFixture(entitlement.Entitlement{PlanSlug: "basic", ListingLimit: 1})

	f.listings.put(models.Listing{ID: "l-sold", AccountID: "acct-1", Status: models.StatusSold})
	f.listings.put(models.Listing{ID: "l-arch", AccountID: "acct-1", Status: models.StatusArchived})

	status, err := f.service.CanCreate("acct-1")
	require.NoError(t, err)
	assert.True(t, status.Allowed)
	assert.Equal(t, 0, status.CurrentCount)

	_, err = f.service.Create("acct-1", validInput())
	assert.NoError(t, err)
}

func TestUnlimitedPlanNeverHitsQuota(t *testing.T) {
	f := newFixture(entitlement.Entitlement{PlanSlug: "dealer", ListingLimit: models.UnlimitedQuota})

	for i := 0; i < 25; i++ {
		_, err := f.service.Create("acct-1", validInput())
		require.NoError(t, err)
	}

	status, err := f.service.CanCreate("acct-1")
	require.NoError(t, err)
	assert.True(t, status.Allowed)
	assert.Equal(t, 25, status.CurrentCount)
	assert.Equal(t, models.UnlimitedQuota, status.Limit)
}

func TestUpdateHidesOtherAccountsListings(t *testing.T) {
	f := newFixture(businessPlan())
	f.listings.put(models.Listing{ID: "l-1", AccountID: "owner", Status: models.StatusDraft})

	_, err := f.service.Update("intruder", "l-1", validInput(), nil)
	assert.True(t, apperr.Is(err, apperr.CodeNotFound))

	_, err = f.service.Update("owner", "no-such-id", validInput(), nil)
	assert.True(t, apperr.Is(err, apperr.CodeNotFound))
}

func TestUpdateRefusesImmutableStates(t *testing.T) {
	f := newFixture(businessPlan())
	f.listings.put(models.Listing{ID: "l-sold", AccountID: "acct-1", Status: models.StatusSold})
	f.listings.put(models.Listing{ID: "l-arch", AccountID: "acct-1", Status: models.StatusArchived})

	_, err := f.service.Update("acct-1", "l-sold", validInput(), nil)
	assert.True(t, apperr.Is(err, apperr.CodeForbidden))

	_, err = f.service.Update("acct-1", "l-arch", validInput(), nil)
	assert.True(t, apperr.Is(err, apperr.CodeForbidden))
}

func TestUpdateDetectsConcurrentModification(t *testing.T) {
	f := newFixture(businessPlan())
	stored := time.Now()
	f.listings.put(models.Listing{ID: "l-1", AccountID: "acct-1", Status: models.StatusDraft, UpdatedAt: stored})

	// Stale read: someone saved after the caller last loaded the row.
	stale := stored.Add(-2 * time.Minute)
	_, err := f.service.Update("acct-1", "l-1", validInput(), &stale)
	assert.True(t, apperr.Is(err, apperr.CodeConflict))

	// Fresh read passes.
	fresh := stored
	_, err = f.service.Update("acct-1", "l-1", validInput(), &fresh)
	assert.NoError(t, err)
}

func TestUpdateWithoutObservedTimestampSkipsCheck(t *testing.T) {
	f := newFixture(businessPlan())
	f.listings.put(models.Listing{ID: "l-1", AccountID: "acct-1", Status: models.StatusDraft, UpdatedAt: time.Now()})

	_, err := f.service.Update("acct-1", "l-1", validInput(), nil)
	assert.NoError(t, err)
}

func TestUpdateComparesAtSecondPrecision(t *testing.T) {
	// The store keeps DATETIME at second precision, so sub-second skew
	// between what the caller saw and what was stored must not conflict.
	stored := time.Date(2026, 8, 1, 12, 0, 0, 900_000_000, time.UTC)
	observed := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	assert.NoError(t, checkFreshness(&observed, stored))

	later := stored.Add(time.Second)
	assert.Error(t, checkFreshness(&observed, later))
}

func TestUpdateOfActiveListingRefreshesPublicView(t *testing.T) {
	f := newFixture(businessPlan())
	f.listings.put(models.Listing{ID: "l-1", AccountID: "acct-1", Status: models.StatusActive})

	_, err := f.service.Update("acct-1", "l-1", validInput(), nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"l-1"}, f.refresher.upserts)
}

func TestSubmitRequiresDraftAndImage(t *testing.T) {
	f := newFixture(businessPlan())
	f.listings.put(models.Listing{ID: "l-1", AccountID: "acct-1", Status: models.StatusDraft})

	_, err := f.service.SubmitForReview("acct-1", "l-1")
	assert.True(t, apperr.Is(err, apperr.CodeValidation), "submit without image must fail")

	f.media.images["l-1"] = 1
	l, err := f.service.SubmitForReview("acct-1", "l-1")
	require.NoError(t, err)
	assert.Equal(t, models.StatusPendingReview, l.Status)
	assert.Equal(t, 1, f.notifier.submitted)

	// Already pending: not a draft anymore.
	_, err = f.service.SubmitForReview("acct-1", "l-1")
	assert.True(t, apperr.Is(err, apperr.CodeValidation))
}

func TestResubmitClearsPriorRejection(t *testing.T) {
	f := newFixture(businessPlan())
	reason := "photos too dark"
	rejectedAt := time.Now().Add(-time.Hour)
	reviewer := "rev-1"
	f.listings.put(models.Listing{
		ID:              "l-1",
		AccountID:       "acct-1",
		Status:          models.StatusDraft,
		RejectionReason: &reason,
		RejectedAt:      &rejectedAt,
		RejectedBy:      &reviewer,
	})
	f.media.images["l-1"] = 2

	l, err := f.service.SubmitForReview("acct-1", "l-1")
	require.NoError(t, err)
	assert.Nil(t, l.RejectionReason)
	assert.Nil(t, l.RejectedAt)
	assert.Nil(t, l.RejectedBy)
}

func TestApprovePublishesListing(t *testing.T) {
	f := newFixture(businessPlan())
	f.listings.put(models.Listing{ID: "l-1", AccountID: "acct-1", Status: models.StatusPendingReview})

	l, err := f.service.Approve("rev-1", "l-1")
	require.NoError(t, err)
	assert.Equal(t, models.StatusActive, l.Status)
	require.NotNil(t, l.PublishedAt)
	assert.Equal(t, 1, f.notifier.approved)
	assert.Equal(t, []string{"l-1"}, f.refresher.upserts)

	ev := f.events.last()
	require.NotNil(t, ev)
	assert.Equal(t, models.EventApproved, ev.EventType)
	assert.Equal(t, "rev-1", ev.ActorID)
}

func TestApproveRequiresPendingState(t *testing.T) {
	f := newFixture(businessPlan())
	f.listings.put(models.Listing{ID: "l-1", AccountID: "acct-1", Status: models.StatusDraft})

	_, err := f.service.Approve("rev-1", "l-1")
	assert.True(t, apperr.Is(err, apperr.CodeValidation))
}

func TestRejectReturnsListingToDraft(t *testing.T) {
	f := newFixture(businessPlan())
	f.listings.put(models.Listing{ID: "l-1", AccountID: "acct-1", Status: models.StatusPendingReview})

	_, err := f.service.Reject("rev-1", "l-1", "  ")
	assert.True(t, apperr.Is(err, apperr.CodeValidation), "empty reason must fail")

	l, err := f.service.Reject("rev-1", "l-1", "missing calibration certificate")
	require.NoError(t, err)
	assert.Equal(t, models.StatusDraft, l.Status)
	require.NotNil(t, l.RejectionReason)
	assert.Equal(t, "missing calibration certificate", *l.RejectionReason)
	require.NotNil(t, l.RejectedBy)
	assert.Equal(t, "rev-1", *l.RejectedBy)
	assert.Equal(t, "missing calibration certificate", f.notifier.lastReason)
}

func TestMarkSoldClosesActiveListing(t *testing.T) {
	f := newFixture(businessPlan())
	f.listings.put(models.Listing{ID: "l-1", AccountID: "acct-1", Status: models.StatusActive, Featured: true})

	l, err := f.service.MarkSold("acct-1", "l-1")
	require.NoError(t, err)
	assert.Equal(t, models.StatusSold, l.Status)
	require.NotNil(t, l.SoldAt)
	assert.False(t, l.Featured, "sold listings must not stay featured")
	assert.Equal(t, []string{"l-1"}, f.refresher.removes)

	// Terminal: cannot be sold twice.
	_, err = f.service.MarkSold("acct-1", "l-1")
	assert.True(t, apperr.Is(err, apperr.CodeValidation))
}

func TestArchiveFromNonTerminalStates(t *testing.T) {
	f := newFixture(businessPlan())
	for _, status := range []models.ListingStatus{models.StatusDraft, models.StatusPendingReview, models.StatusActive} {
		id := "l-" + string(status)
		f.listings.put(models.Listing{ID: id, AccountID: "acct-1", Status: status, Featured: true})

		l, err := f.service.Archive("acct-1", id)
		require.NoError(t, err, "archive from %s", status)
		assert.Equal(t, models.StatusArchived, l.Status)
		assert.False(t, l.Featured)
	}

	f.listings.put(models.Listing{ID: "l-sold", AccountID: "acct-1", Status: models.StatusSold})
	_, err := f.service.Archive("acct-1", "l-sold")
	assert.True(t, apperr.Is(err, apperr.CodeValidation))
}

func TestSoftDeleteHidesListing(t *testing.T) {
	f := newFixture(businessPlan())
	f.listings.put(models.Listing{ID: "l-1", AccountID: "acct-1", Status: models.StatusActive, Featured: true})

	err := f.service.SoftDelete("acct-1", "l-1")
	require.NoError(t, err)

	// Hidden from all reads.
	got, err := f.listings.GetByID("l-1")
	require.NoError(t, err)
	assert.Nil(t, got)
	assert.Equal(t, []string{"l-1"}, f.refresher.removes)

	// The raw row was forced out of its live status.
	raw := f.listings.rows["l-1"]
	assert.Equal(t, models.StatusArchived, raw.Status)
	assert.False(t, raw.Featured)
	require.NotNil(t, raw.DeletedAt)
}

func TestSoftDeleteKeepsSoldStatus(t *testing.T) {
	f := newFixture(businessPlan())
	f.listings.put(models.Listing{ID: "l-1", AccountID: "acct-1", Status: models.StatusSold})

	err := f.service.SoftDelete("acct-1", "l-1")
	require.NoError(t, err)
	assert.Equal(t, models.StatusSold, f.listings.rows["l-1"].Status)
}

func TestDeletedListingFreesQuotaSlot(t *testing.T) {
	f := newFixture(entitlement.Entitlement{PlanSlug: "basic", ListingLimit: 1})

	l, err := f.service.Create("acct-1", validInput())
	require.NoError(t, err)

	_, err = f.service.Create("acct-1", validInput())
	require.True(t, apperr.Is(err, apperr.CodePlanLimitReached))

	require.NoError(t, f.service.SoftDelete("acct-1", l.ID))

	_, err = f.service.Create("acct-1", validInput())
	assert.NoError(t, err)
}

func TestArchivedListingFreesQuotaSlot(t *testing.T) {
	f := newFixture(entitlement.Entitlement{PlanSlug: "basic", ListingLimit: 1})

	a, err := f.service.Create("acct-1", validInput())
	require.NoError(t, err)

	_, err = f.service.Create("acct-1", validInput())
	require.True(t, apperr.Is(err, apperr.CodePlanLimitReached))

	_, err = f.service.Archive("acct-1", a.ID)
	require.NoError(t, err)

	_, err = f.service.Create("acct-1", validInput())
	assert.NoError(t, err)
}

func TestDuplicateCopiesBusinessFieldsOnly(t *testing.T) {
	f := newFixture(businessPlan())
	price := 500000
	now := time.Now()
	reason := "old rejection"
	f.listings.put(models.Listing{
		ID:              "l-src",
		AccountID:       "acct-1",
		Slug:            "original-slug",
		Title:           "Mitutoyo Crysta-Apex S",
		Manufacturer:    "Mitutoyo",
		Category:        "cmm",
		PriceCents:      &price,
		Condition:       models.ConditionUsed,
		Status:          models.StatusSold,
		Featured:        true,
		PublishedAt:     &now,
		SoldAt:          &now,
		RejectionReason: &reason,
	})

	dup, err := f.service.Duplicate("acct-1", "l-src")
	require.NoError(t, err)

	assert.Equal(t, "Mitutoyo Crysta-Apex S (copy)", dup.Title)
	assert.Equal(t, models.StatusDraft, dup.Status)
	assert.NotEqual(t, "l-src", dup.ID)
	assert.NotEqual(t, "original-slug", dup.Slug)
	assert.False(t, dup.Featured)
	assert.Nil(t, dup.PublishedAt)
	assert.Nil(t, dup.SoldAt)
	assert.Nil(t, dup.RejectionReason)

	// Price is copied by value, not shared.
	require.NotNil(t, dup.PriceCents)
	assert.Equal(t, 500000, *dup.PriceCents)
	*dup.PriceCents = 1
	assert.Equal(t, 500000, price)

	ev := f.events.last()
	require.NotNil(t, ev)
	assert.Equal(t, models.EventDuplicated, ev.EventType)
	assert.Equal(t, "source: l-src", ev.Note)
}

func TestDuplicateSubjectToQuota(t *testing.T) {
	f := newFixture(entitlement.Entitlement{PlanSlug: "basic", ListingLimit: 1})
	f.listings.put(models.Listing{ID: "l-src", AccountID: "acct-1", Status: models.StatusDraft})

	_, err := f.service.Duplicate("acct-1", "l-src")
	assert.True(t, apperr.Is(err, apperr.CodePlanLimitReached))
}

func TestFeatureRequiresActiveListing(t *testing.T) {
	f := newFixture(businessPlan())
	f.listings.put(models.Listing{ID: "l-1", AccountID: "acct-1", Status: models.StatusDraft})

	_, err := f.service.ToggleFeatured("acct-1", "l-1", true)
	assert.True(t, apperr.Is(err, apperr.CodeValidation))
}

func TestFeatureEnforcesPlanSlots(t *testing.T) {
	f := newFixture(entitlement.Entitlement{PlanSlug: "business", ListingLimit: 10, FeaturedPerMonth: 1})
	f.listings.put(models.Listing{ID: "l-1", AccountID: "acct-1", Status: models.StatusActive, Featured: true})
	f.listings.put(models.Listing{ID: "l-2", AccountID: "acct-1", Status: models.StatusActive})

	_, err := f.service.ToggleFeatured("acct-1", "l-2", true)
	require.Error(t, err)
	ae := apperr.From(err)
	assert.Equal(t, apperr.CodePlanLimitReached, ae.Code)
	assert.Equal(t, 1, ae.CurrentCount)
	assert.Equal(t, 1, ae.Limit)

	// Unfeaturing frees the slot.
	_, err = f.service.ToggleFeatured("acct-1", "l-1", false)
	require.NoError(t, err)

	l, err := f.service.ToggleFeatured("acct-1", "l-2", true)
	require.NoError(t, err)
	assert.True(t, l.Featured)
}

func TestFeatureWithoutPlanSlotsAlwaysRefused(t *testing.T) {
	f := newFixture(entitlement.Entitlement{PlanSlug: "basic", ListingLimit: 1, FeaturedPerMonth: 0})
	f.listings.put(models.Listing{ID: "l-1", AccountID: "acct-1", Status: models.StatusActive})

	_, err := f.service.ToggleFeatured("acct-1", "l-1", true)
	assert.True(t, apperr.Is(err, apperr.CodePlanLimitReached))
}

func TestToggleFeaturedIsIdempotent(t *testing.T) {
	f := newFixture(businessPlan())
	f.listings.put(models.Listing{ID: "l-1", AccountID: "acct-1", Status: models.StatusActive, Featured: true})

	before := len(f.events.events)
	l, err := f.service.ToggleFeatured("acct-1", "l-1", true)
	require.NoError(t, err)
	assert.True(t, l.Featured)
	assert.Len(t, f.events.events, before, "no-op toggle must not record an event")

	l, err = f.service.ToggleFeatured("acct-1", "l-1", false)
	require.NoError(t, err)
	assert.False(t, l.Featured)

	l, err = f.service.ToggleFeatured("acct-1", "l-1", false)
	require.NoError(t, err)
	assert.False(t, l.Featured)
}
