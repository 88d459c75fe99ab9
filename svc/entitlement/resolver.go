// Package entitlement answers access questions from a user's subscription.
//
// Feature access fails closed: paid features need the pro plan and an active
// status. Upload capacity follows the plan only, so a past-due pro user keeps
// unlimited storage while losing paid features.
package entitlement

import (
	"github.com/dmitrymomot/ndavault/svc/plan"
	"github.com/dmitrymomot/ndavault/svc/subscription"
)

// Resolver evaluates entitlements against a plan catalog. It is pure and
// safe for concurrent use.
type Resolver struct {
	catalog *plan.Catalog
}

func NewResolver(catalog *plan.Catalog) *Resolver {
	if catalog == nil {
		panic("entitlement: plan catalog is required")
	}
	return &Resolver{catalog: catalog}
}

// HasFeature reports whether sub grants f. A nil subscription is the free default.
func (r *Resolver) HasFeature(sub *subscription.Subscription, f plan.Feature) bool {
	sub = orDefault(sub)

	if r.catalog.Free().Grants(f) {
		return true
	}
	return sub.PlanType == plan.Pro && sub.Status == subscription.StatusActive && r.catalog.Pro().Grants(f)
}

// UploadLimit returns the maximum number of stored agreements, or plan.Unlimited.
func (r *Resolver) UploadLimit(sub *subscription.Subscription) int64 {
	sub = orDefault(sub)

	if sub.PlanType == plan.Free {
		return r.catalog.Free().UploadLimit
	}
	return plan.Unlimited
}

// CanUploadMore reports whether a user holding count agreements may add one.
func (r *Resolver) CanUploadMore(sub *subscription.Subscription, count int64) bool {
	limit := r.UploadLimit(sub)
	return limit == plan.Unlimited || count < limit
}

// Summary is the entitlement view rendered by the status endpoint.
type Summary struct {
	Plan        plan.ID         `json:"plan"`
	UploadLimit int64           `json:"uploadLimit"`
	Features    map[string]bool `json:"features"`
}

// Summarize evaluates every feature known to the catalog.
func (r *Resolver) Summarize(sub *subscription.Subscription) Summary {
	sub = orDefault(sub)

	features := make(map[string]bool)
	for _, p := range r.catalog.List() {
		for _, f := range p.Entitlements {
			features[string(f)] = r.HasFeature(sub, f)
		}
	}
	return Summary{
		Plan:        sub.PlanType,
		UploadLimit: r.UploadLimit(sub),
		Features:    features,
	}
}

func orDefault(sub *subscription.Subscription) *subscription.Subscription {
	if sub == nil {
		return subscription.Default("")
	}
	return sub
}
