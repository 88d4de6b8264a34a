// Package notify carries fire-and-forget transition signals to the
// external notification dispatcher. Delivery is never awaited and
// failures never fail a request.
package notify

import (
	"log"

	"machinery-marketplace/internal/models"
)

// Notifier receives listing transition signals.
type Notifier interface {
	ListingSubmitted(l *models.Listing)
	ListingApproved(l *models.Listing)
	ListingRejected(l *models.Listing, reason string)
}

// LogNotifier writes the signals to the application log. Stands in for
// the real dispatcher in development and tests.
type LogNotifier struct{}

func NewLogNotifier() *LogNotifier {
	return &LogNotifier{}
}

func (n *LogNotifier) ListingSubmitted(l *models.Listing) {
	log.Printf("[notify] listing submitted id=%s account=%s title=%q", l.ID, l.AccountID, l.Title)
}

func (n *LogNotifier) ListingApproved(l *models.Listing) {
	log.Printf("[notify] listing approved id=%s account=%s slug=%s", l.ID, l.AccountID, l.Slug)
}

func (n *LogNotifier) ListingRejected(l *models.Listing, reason string) {
	log.Printf("[notify] listing rejected id=%s account=%s reason=%q", l.ID, l.AccountID, reason)
}
