package subscription

import (
	"context"
	"time"
)

// Provider is the payment provider client. Implementations wrap the
// provider SDK; the service receives one explicitly instead of reaching for
// a process-wide client.
type Provider interface {
	// CreateCustomer registers the user with the provider and returns its customer id.
	CreateCustomer(ctx context.Context, c Customer) (string, error)
	CreateSubscription(ctx context.Context, req CreateRequest) (*RemoteSubscription, error)
	GetSubscription(ctx context.Context, externalID string) (*RemoteSubscription, error)
	CancelSubscription(ctx context.Context, externalID string) (*RemoteSubscription, error)
}

// Customer carries the data the provider needs to create a customer record.
type Customer struct {
	UserID string
	Email  string
	Name   string
}

// CreateRequest describes a paid-plan purchase.
type CreateRequest struct {
	UserID          string
	CustomerID      string
	PriceID         string
	PaymentMethodID string
}

// RemoteSubscription is the provider's view of a subscription, already
// normalised to local statuses.
type RemoteSubscription struct {
	ID                 string
	Status             Status
	CurrentPeriodStart *time.Time
	CurrentPeriodEnd   *time.Time

	// Set on creation when the customer must complete a payment step,
	// e.g. a hosted checkout.
	ClientSecret   string
	RequiresAction bool
}
