package search

import (
	"machinery-marketplace/internal/models"

	"github.com/meilisearch/meilisearch-go"
)

// Client maintains the public listing index. The lifecycle engine
// signals it after every mutation; indexing is best effort and never
// part of a request's correctness.
type Client struct {
	client *meilisearch.Client
	index  string
}

func NewClient(host, apiKey string) *Client {
	client := meilisearch.NewClient(meilisearch.ClientConfig{
		Host:   host,
		APIKey: apiKey,
	})

	return &Client{
		client: client,
		index:  "listings",
	}
}

// ListingDocument is the indexed projection of an active listing.
type ListingDocument struct {
	ID           string `json:"id"`
	Slug         string `json:"slug"`
	Title        string `json:"title"`
	Description  string `json:"description,omitempty"`
	Manufacturer string `json:"manufacturer,omitempty"`
	ModelName    string `json:"model_name,omitempty"`
	Category     string `json:"category,omitempty"`
	Condition    string `json:"condition,omitempty"`
	PriceCents   *int   `json:"price_cents,omitempty"`
	Negotiable   bool   `json:"negotiable"`
	YearBuilt    *int   `json:"year_built,omitempty"`
	Country      string `json:"country,omitempty"`
	City         string `json:"city,omitempty"`
	Featured     bool   `json:"featured"`
	PublishedAt  int64  `json:"published_at,omitempty"`
}

func toDocument(l *models.Listing) ListingDocument {
	doc := ListingDocument{
		ID:           l.ID,
		Slug:         l.Slug,
		Title:        l.Title,
		Description:  l.Description,
		Manufacturer: l.Manufacturer,
		ModelName:    l.ModelName,
		Category:     l.Category,
		Condition:    l.Condition,
		PriceCents:   l.PriceCents,
		Negotiable:   l.Negotiable,
		YearBuilt:    l.YearBuilt,
		Country:      l.Country,
		City:         l.City,
		Featured:     l.Featured,
	}
	if l.PublishedAt != nil {
		doc.PublishedAt = l.PublishedAt.Unix()
	}
	return doc
}

// InitIndex initializes the Meilisearch index
func (c *Client) InitIndex() error {
	_, err := c.client.CreateIndex(&meilisearch.IndexConfig{
		Uid:        c.index,
		PrimaryKey: "id",
	})
	// Ignore error if index already exists
	if err != nil && err.Error() != "index already exists" {
		return err
	}

	_, err = c.client.Index(c.index).UpdateSearchableAttributes(&[]string{
		"title",
		"description",
		"manufacturer",
		"model_name",
		"category",
	})
	if err != nil {
		return err
	}

	_, err = c.client.Index(c.index).UpdateFilterableAttributes(&[]string{
		"id",
		"category",
		"condition",
		"manufacturer",
		"country",
		"price_cents",
		"year_built",
		"featured",
	})
	if err != nil {
		return err
	}

	_, err = c.client.Index(c.index).UpdateSortableAttributes(&[]string{
		"price_cents",
		"year_built",
		"published_at",
	})
	return err
}

// Upsert refreshes a listing's public view.
func (c *Client) Upsert(l *models.Listing) error {
	_, err := c.client.Index(c.index).AddDocuments([]ListingDocument{toDocument(l)})
	return err
}

// Remove drops a listing from the public view.
func (c *Client) Remove(listingID string) error {
	_, err := c.client.Index(c.index).DeleteDocument(listingID)
	return err
}

// ReindexAll replaces the index content with the given listings. Used
// by the nightly reconciliation and the admin reindex endpoint.
func (c *Client) ReindexAll(listings []models.Listing) error {
	if _, err := c.client.Index(c.index).DeleteAllDocuments(); err != nil {
		return err
	}
	if len(listings) == 0 {
		return nil
	}
	docs := make([]ListingDocument, 0, len(listings))
	for i := range listings {
		docs = append(docs, toDocument(&listings[i]))
	}
	_, err := c.client.Index(c.index).AddDocuments(docs)
	return err
}
