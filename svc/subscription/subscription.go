package subscription

import (
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/ndavault/svc/plan"
)

// Status is the provider-driven lifecycle state of a subscription.
type Status string

const (
	StatusActive     Status = "active"
	StatusCanceled   Status = "canceled"
	StatusPastDue    Status = "past_due"
	StatusIncomplete Status = "incomplete"
)

func (s Status) Valid() bool {
	switch s {
	case StatusActive, StatusCanceled, StatusPastDue, StatusIncomplete:
		return true
	}
	return false
}

// NormalizeStatus maps a provider status string onto a local status.
// Trials count as active; paused and unpaid count as past due. Anything
// unrecognised is treated as incomplete.
func NormalizeStatus(s string) Status {
	switch s {
	case "active", "trialing":
		return StatusActive
	case "canceled", "cancelled":
		return StatusCanceled
	case "past_due", "unpaid", "paused":
		return StatusPastDue
	default:
		return StatusIncomplete
	}
}

// Subscription is the local copy of a user's subscription state.
// A user has at most one; rows are never deleted.
type Subscription struct {
	ID                 uuid.UUID  `json:"id"`
	UserID             string     `json:"user_id"`
	Email              string     `json:"-"`
	ExternalID         *string    `json:"external_id"`
	CustomerID         *string    `json:"-"`
	PlanType           plan.ID    `json:"plan_type"`
	Status             Status     `json:"status"`
	CurrentPeriodStart *time.Time `json:"current_period_start"`
	CurrentPeriodEnd   *time.Time `json:"current_period_end"`
	LastEventAt        *time.Time `json:"-"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`
}

// Default is the implicit subscription of a user without a record:
// free plan, active, never subscribed to a paid plan.
func Default(userID string) *Subscription {
	return &Subscription{
		UserID:   userID,
		PlanType: plan.Free,
		Status:   StatusActive,
	}
}

func (s *Subscription) HasExternalID() bool {
	return s != nil && s.ExternalID != nil && *s.ExternalID != ""
}

func (s *Subscription) IsActive() bool {
	return s != nil && s.Status == StatusActive
}

// InGracePeriod reports whether a canceled subscription is still inside the
// billing period it was paid for. Entitlements do not depend on it; it only
// feeds UI messaging.
func (s *Subscription) InGracePeriod(now time.Time) bool {
	if s == nil || s.Status != StatusCanceled || s.CurrentPeriodEnd == nil {
		return false
	}
	return now.Before(*s.CurrentPeriodEnd)
}

// Fields is a partial update. Nil pointers leave the stored value untouched.
type Fields struct {
	// UserID lets UpsertByExternalID create the row when no subscription
	// carries the external id yet.
	UserID string

	Email      *string
	ExternalID *string
	// ClearExternalID sets the external id to null, e.g. when a webhook
	// downgrades the user to the free plan.
	ClearExternalID    bool
	CustomerID         *string
	PlanType           *plan.ID
	Status             *Status
	CurrentPeriodStart *time.Time
	CurrentPeriodEnd   *time.Time

	// EventAt is the provider timestamp of the event that produced the update.
	// When set, the write is skipped if a newer event was already applied.
	EventAt *time.Time
}

// stale reports whether f comes from an event older than the last applied one.
func (f Fields) stale(sub *Subscription) bool {
	return f.EventAt != nil && sub.LastEventAt != nil && f.EventAt.Before(*sub.LastEventAt)
}

// apply merges f into sub. Shared by the in-memory store; the Postgres store
// expresses the same merge in SQL.
func (f Fields) apply(sub *Subscription) {
	if f.Email != nil && *f.Email != "" {
		sub.Email = *f.Email
	}
	if f.ClearExternalID {
		sub.ExternalID = nil
	} else if f.ExternalID != nil {
		sub.ExternalID = ptr(*f.ExternalID)
	}
	if f.CustomerID != nil {
		sub.CustomerID = ptr(*f.CustomerID)
	}
	if f.PlanType != nil {
		sub.PlanType = *f.PlanType
	}
	if f.Status != nil {
		sub.Status = *f.Status
	}
	if f.CurrentPeriodStart != nil {
		sub.CurrentPeriodStart = ptr(*f.CurrentPeriodStart)
	}
	if f.CurrentPeriodEnd != nil {
		sub.CurrentPeriodEnd = ptr(*f.CurrentPeriodEnd)
	}
	if f.EventAt != nil && (sub.LastEventAt == nil || f.EventAt.After(*sub.LastEventAt)) {
		sub.LastEventAt = ptr(*f.EventAt)
	}
}

func ptr[T any](v T) *T {
	return &v
}
