package webhook

import (
	"time"

	"github.com/shopspring/decimal"
)

// Event is a verified provider event in neutral form.
type Event struct {
	ID   string
	Kind Kind
	// Type is the provider's own event name, kept for logging.
	Type       string
	OccurredAt time.Time

	// SubscriptionID is the provider subscription id. Invoice events may
	// arrive without one.
	SubscriptionID string
	UserID         string
	CustomerID     string
	Status         string
	Amount         decimal.Decimal

	CurrentPeriodStart *time.Time
	CurrentPeriodEnd   *time.Time
}

func (e *Event) eventAt() *time.Time {
	if e.OccurredAt.IsZero() {
		return nil
	}
	t := e.OccurredAt.UTC()
	return &t
}
