package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestIsEditable(t *testing.T) {
	editable := []ListingStatus{StatusDraft, StatusPendingReview, StatusActive}
	for _, status := range editable {
		l := &Listing{Status: status}
		assert.True(t, l.IsEditable(), "status %s", status)
	}

	for _, status := range []ListingStatus{StatusSold, StatusArchived} {
		l := &Listing{Status: status}
		assert.False(t, l.IsEditable(), "status %s", status)
	}

	now := time.Now()
	deleted := &Listing{Status: StatusDraft, DeletedAt: &now}
	assert.False(t, deleted.IsEditable(), "soft-deleted rows are immutable")
}

func TestCountsAgainstQuota(t *testing.T) {
	counted := []ListingStatus{StatusDraft, StatusPendingReview, StatusActive}
	for _, status := range counted {
		l := &Listing{Status: status}
		assert.True(t, l.CountsAgainstQuota(), "status %s", status)
	}

	for _, status := range []ListingStatus{StatusSold, StatusArchived} {
		l := &Listing{Status: status}
		assert.False(t, l.CountsAgainstQuota(), "status %s", status)
	}

	now := time.Now()
	deleted := &Listing{Status: StatusActive, DeletedAt: &now}
	assert.False(t, deleted.CountsAgainstQuota())
}

func TestValidCondition(t *testing.T) {
	for _, c := range []string{ConditionNew, ConditionDemo, ConditionUsed, ConditionRefurbished, ConditionDefective} {
		assert.True(t, ValidCondition(c), "condition %s", c)
	}
	assert.False(t, ValidCondition("mint"))
	assert.False(t, ValidCondition(""))
}

func TestGrantsEntitlement(t *testing.T) {
	for _, status := range []SubscriptionStatus{SubscriptionActive, SubscriptionTrialing, SubscriptionPastDue} {
		s := &Subscription{Status: status}
		assert.True(t, s.GrantsEntitlement(), "status %s", status)
	}
	canceled := &Subscription{Status: SubscriptionCanceled}
	assert.False(t, canceled.GrantsEntitlement())
}
