package media

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"machinery-marketplace/internal/apperr"
	"machinery-marketplace/internal/models"
)

type fakeStore struct {
	rows map[string]*models.ListingMedia
}

func newFakeStore() *fakeStore {
	return &fakeStore{rows: make(map[string]*models.ListingMedia)}
}

func (f *fakeStore) GetByID(id string) (*models.ListingMedia, error) {
	m, ok := f.rows[id]
	if !ok {
		return nil, nil
	}
	cp := *m
	return &cp, nil
}

func (f *fakeStore) ListByListing(listingID string) ([]models.ListingMedia, error) {
	var out []models.ListingMedia
	for _, m := range f.rows {
		if m.ListingID == listingID {
			out = append(out, *m)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SortOrder < out[j].SortOrder })
	return out, nil
}

func (f *fakeStore) CountImages(listingID string) (int, error) {
	count := 0
	for _, m := range f.rows {
		if m.ListingID == listingID && m.Kind == models.MediaKindImage {
			count++
		}
	}
	return count, nil
}

func (f *fakeStore) Create(m *models.ListingMedia) error {
	cp := *m
	f.rows[m.ID] = &cp
	return nil
}

func (f *fakeStore) Delete(id string) error {
	delete(f.rows, id)
	return nil
}

func (f *fakeStore) MakePrimary(listingID, mediaID string) error {
	for _, m := range f.rows {
		if m.ListingID == listingID {
			m.IsPrimary = m.ID == mediaID
		}
	}
	return nil
}

type fakeLookup struct {
	rows map[string]*models.Listing
}

func (f *fakeLookup) GetByID(id string) (*models.Listing, error) {
	l, ok := f.rows[id]
	if !ok || l.DeletedAt != nil {
		return nil, nil
	}
	cp := *l
	return &cp, nil
}

func newTestCoordinator(listings ...models.Listing) (*Coordinator, *fakeStore) {
	store := newFakeStore()
	lookup := &fakeLookup{rows: make(map[string]*models.Listing)}
	for i := range listings {
		lookup.rows[listings[i].ID] = &listings[i]
	}
	return NewCoordinator(store, lookup), store
}

func draftListing(id, accountID string) models.Listing {
	return models.Listing{ID: id, AccountID: accountID, Status: models.StatusDraft}
}

func TestAttachFirstImageBecomesPrimary(t *testing.T) {
	c, _ := newTestCoordinator(draftListing("l-1", "acct-1"))

	first, err := c.Attach("acct-1", "l-1", AttachInput{URL: "https://cdn.example.com/a.jpg"})
	require.NoError(t, err)
	assert.True(t, first.IsPrimary)
	assert.Equal(t, models.MediaKindImage, first.Kind, "kind defaults to image")
	assert.Equal(t, 0, first.SortOrder)

	second, err := c.Attach("acct-1", "l-1", AttachInput{URL: "https://cdn.example.com/b.jpg"})
	require.NoError(t, err)
	assert.False(t, second.IsPrimary)
	assert.Equal(t, 1, second.SortOrder)
}

func TestAttachDocumentNeverBecomesPrimary(t *testing.T) {
	c, _ := newTestCoordinator(draftListing("l-1", "acct-1"))

	doc, err := c.Attach("acct-1", "l-1", AttachInput{
		Kind:     models.MediaKindDocument,
		URL:      "https://cdn.example.com/manual.pdf",
		FileName: "manual.pdf",
	})
	require.NoError(t, err)
	assert.False(t, doc.IsPrimary)

	// The first image still becomes primary even after a document.
	img, err := c.Attach("acct-1", "l-1", AttachInput{URL: "https://cdn.example.com/a.jpg"})
	require.NoError(t, err)
	assert.True(t, img.IsPrimary)
	assert.Equal(t, 1, img.SortOrder)
}

func TestAttachValidation(t *testing.T) {
	c, _ := newTestCoordinator(draftListing("l-1", "acct-1"))

	_, err := c.Attach("acct-1", "l-1", AttachInput{URL: "  "})
	assert.True(t, apperr.Is(err, apperr.CodeValidation))

	_, err = c.Attach("acct-1", "l-1", AttachInput{Kind: "video", URL: "https://cdn.example.com/a.mp4"})
	assert.True(t, apperr.Is(err, apperr.CodeValidation))
}

func TestAttachToImmutableListingRefused(t *testing.T) {
	sold := models.Listing{ID: "l-1", AccountID: "acct-1", Status: models.StatusSold}
	c, _ := newTestCoordinator(sold)

	_, err := c.Attach("acct-1", "l-1", AttachInput{URL: "https://cdn.example.com/a.jpg"})
	assert.True(t, apperr.Is(err, apperr.CodeForbidden))
}

func TestAttachHidesOtherAccountsListings(t *testing.T) {
	c, _ := newTestCoordinator(draftListing("l-1", "owner"))

	_, err := c.Attach("intruder", "l-1", AttachInput{URL: "https://cdn.example.com/a.jpg"})
	assert.True(t, apperr.Is(err, apperr.CodeNotFound))

	_, err = c.Attach("owner", "no-such-listing", AttachInput{URL: "https://cdn.example.com/a.jpg"})
	assert.True(t, apperr.Is(err, apperr.CodeNotFound))
}

func TestDetachPrimaryPromotesNextImage(t *testing.T) {
	c, store := newTestCoordinator(draftListing("l-1", "acct-1"))

	first, err := c.Attach("acct-1", "l-1", AttachInput{URL: "https://cdn.example.com/a.jpg"})
	require.NoError(t, err)
	second, err := c.Attach("acct-1", "l-1", AttachInput{URL: "https://cdn.example.com/b.jpg"})
	require.NoError(t, err)

	require.NoError(t, c.Detach("acct-1", first.ID))

	promoted, err := store.GetByID(second.ID)
	require.NoError(t, err)
	require.NotNil(t, promoted)
	assert.True(t, promoted.IsPrimary, "remaining image must be promoted")
}

func TestDetachNonPrimaryLeavesPrimaryAlone(t *testing.T) {
	c, store := newTestCoordinator(draftListing("l-1", "acct-1"))

	first, err := c.Attach("acct-1", "l-1", AttachInput{URL: "https://cdn.example.com/a.jpg"})
	require.NoError(t, err)
	second, err := c.Attach("acct-1", "l-1", AttachInput{URL: "https://cdn.example.com/b.jpg"})
	require.NoError(t, err)

	require.NoError(t, c.Detach("acct-1", second.ID))

	kept, err := store.GetByID(first.ID)
	require.NoError(t, err)
	require.NotNil(t, kept)
	assert.True(t, kept.IsPrimary)
}

func TestDetachOwnershipThroughListing(t *testing.T) {
	c, store := newTestCoordinator(draftListing("l-1", "owner"))

	m, err := c.Attach("owner", "l-1", AttachInput{URL: "https://cdn.example.com/a.jpg"})
	require.NoError(t, err)

	err = c.Detach("intruder", m.ID)
	assert.True(t, apperr.Is(err, apperr.CodeNotFound))

	// The row survived the refused detach.
	kept, err := store.GetByID(m.ID)
	require.NoError(t, err)
	assert.NotNil(t, kept)
}

func TestSetPrimarySwitchesImages(t *testing.T) {
	c, store := newTestCoordinator(draftListing("l-1", "acct-1"))

	first, err := c.Attach("acct-1", "l-1", AttachInput{URL: "https://cdn.example.com/a.jpg"})
	require.NoError(t, err)
	second, err := c.Attach("acct-1", "l-1", AttachInput{URL: "https://cdn.example.com/b.jpg"})
	require.NoError(t, err)

	updated, err := c.SetPrimary("acct-1", second.ID)
	require.NoError(t, err)
	assert.True(t, updated.IsPrimary)

	old, err := store.GetByID(first.ID)
	require.NoError(t, err)
	assert.False(t, old.IsPrimary, "previous primary must be un-marked")
}

func TestSetPrimaryRefusesDocuments(t *testing.T) {
	c, _ := newTestCoordinator(draftListing("l-1", "acct-1"))

	doc, err := c.Attach("acct-1", "l-1", AttachInput{
		Kind: models.MediaKindDocument,
		URL:  "https://cdn.example.com/manual.pdf",
	})
	require.NoError(t, err)

	_, err = c.SetPrimary("acct-1", doc.ID)
	assert.True(t, apperr.Is(err, apperr.CodeValidation))
}

func TestSetPrimaryMissingMedia(t *testing.T) {
	c, _ := newTestCoordinator(draftListing("l-1", "acct-1"))

	_, err := c.SetPrimary("acct-1", "no-such-media")
	assert.True(t, apperr.Is(err, apperr.CodeNotFound))
}

func TestListForListingChecksOwnership(t *testing.T) {
	c, _ := newTestCoordinator(draftListing("l-1", "owner"))

	_, err := c.Attach("owner", "l-1", AttachInput{URL: "https://cdn.example.com/a.jpg"})
	require.NoError(t, err)

	items, err := c.ListForListing("owner", "l-1")
	require.NoError(t, err)
	assert.Len(t, items, 1)

	_, err = c.ListForListing("intruder", "l-1")
	assert.True(t, apperr.Is(err, apperr.CodeNotFound))
}
