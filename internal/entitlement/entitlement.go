// Package entitlement resolves an account's active plan into the
// quota numbers the listing engine enforces. Pure read, no side
// effects.
package entitlement

import (
	"encoding/json"
	"fmt"
	"log"

	"machinery-marketplace/internal/models"
)

// Unlimited marks a quota without a numeric ceiling.
const Unlimited = models.UnlimitedQuota

// Entitlement is the closed, resolved form of a plan's feature-flag
// map. Missing or unknown flags resolve to zero values here instead of
// being null-coalesced at call sites.
type Entitlement struct {
	PlanSlug         string `json:"plan_slug"`
	ListingLimit     int    `json:"listing_limit"`
	FeaturedPerMonth int    `json:"featured_per_month"`
}

// AllowsListings reports whether an account holding count non-terminal
// listings may create another.
func (e Entitlement) AllowsListings(count int) bool {
	return e.ListingLimit == Unlimited || count < e.ListingLimit
}

// AllowsFeatured reports whether an account with count featured
// listings may feature another.
func (e Entitlement) AllowsFeatured(count int) bool {
	if e.FeaturedPerMonth == Unlimited {
		return true
	}
	return e.FeaturedPerMonth > 0 && count < e.FeaturedPerMonth
}

// SubscriptionStore loads the most recent subscription for an account
// together with its plan. Returns (nil, nil, nil) when the account has
// no subscription at all.
type SubscriptionStore interface {
	SubscriptionWithPlan(accountID string) (*models.Subscription, *models.Plan, error)
}

// Resolver resolves accounts to entitlements.
type Resolver struct {
	store SubscriptionStore
}

// NewResolver creates a new entitlement resolver.
func NewResolver(store SubscriptionStore) *Resolver {
	return &Resolver{store: store}
}

// DefaultEntitlement applies when an account has no usable
// subscription: one listing, no featured slots.
func DefaultEntitlement() Entitlement {
	return Entitlement{PlanSlug: "none", ListingLimit: 1, FeaturedPerMonth: 0}
}

// planFeatures is the subset of the plan feature-flag map this service
// consumes. Billing may store more keys; they are ignored here.
type planFeatures struct {
	FeaturedPerMonth *int `json:"featured_per_month"`
}

// Resolve returns the effective entitlement for an account. Canceled
// subscriptions and accounts without one fall back to the defaults.
func (r *Resolver) Resolve(accountID string) (Entitlement, error) {
	sub, plan, err := r.store.SubscriptionWithPlan(accountID)
	if err != nil {
		return Entitlement{}, fmt.Errorf("resolve entitlement for account %s: %w", accountID, err)
	}
	if sub == nil || plan == nil || !sub.GrantsEntitlement() {
		return DefaultEntitlement(), nil
	}

	ent := Entitlement{
		PlanSlug:     plan.Slug,
		ListingLimit: plan.ListingLimit,
	}

	if len(plan.Features) > 0 {
		var feats planFeatures
		if err := json.Unmarshal(plan.Features, &feats); err != nil {
			// Malformed feature map: keep the plan's listing limit but
			// grant no feature flags.
			log.Printf("[entitlement] account=%s plan=%s malformed features: %v", accountID, plan.Slug, err)
		} else if feats.FeaturedPerMonth != nil {
			ent.FeaturedPerMonth = *feats.FeaturedPerMonth
		}
	}

	return ent, nil
}
