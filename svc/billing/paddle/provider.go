package paddle

import (
	"context"
	"fmt"
	"net/http"
	"time"

	sdk "github.com/PaddleHQ/paddle-go-sdk/v4"

	"github.com/dmitrymomot/ndavault/svc/subscription"
)

// CustomersAPI is the part of the Paddle customers client used here.
type CustomersAPI interface {
	CreateCustomer(ctx context.Context, req *sdk.CreateCustomerRequest) (*sdk.Customer, error)
}

type TransactionsAPI interface {
	CreateTransaction(ctx context.Context, req *sdk.CreateTransactionRequest) (*sdk.Transaction, error)
}

type SubscriptionsAPI interface {
	GetSubscription(ctx context.Context, req *sdk.GetSubscriptionRequest) (*sdk.Subscription, error)
	CancelSubscription(ctx context.Context, req *sdk.CancelSubscriptionRequest) (*sdk.Subscription, error)
}

// Verifier checks the Paddle-Signature header of a webhook request.
type Verifier interface {
	Verify(req *http.Request) (bool, error)
}

// Clients groups the Paddle API surfaces the provider talks to.
type Clients struct {
	Customers     CustomersAPI
	Transactions  TransactionsAPI
	Subscriptions SubscriptionsAPI
	Verifier      Verifier
}

// Provider implements subscription.Provider and webhook.Parser on top of
// Paddle Billing.
type Provider struct {
	customers     CustomersAPI
	transactions  TransactionsAPI
	subscriptions SubscriptionsAPI
	verifier      Verifier
}

var _ subscription.Provider = (*Provider)(nil)

// New builds a Provider for the production or sandbox environment.
func New(cfg Config) (*Provider, error) {
	if cfg.APIKey == "" {
		return nil, ErrMissingAPIKey
	}
	if cfg.WebhookSecret == "" {
		return nil, ErrMissingWebhookSecret
	}

	var (
		client *sdk.SDK
		err    error
	)
	if cfg.Sandbox {
		client, err = sdk.NewSandbox(cfg.APIKey)
	} else {
		client, err = sdk.New(cfg.APIKey)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create paddle client: %w", err)
	}

	return NewWithClients(Clients{
		Customers:     client.CustomersClient,
		Transactions:  client.TransactionsClient,
		Subscriptions: client.SubscriptionsClient,
		Verifier:      sdk.NewWebhookVerifier(cfg.WebhookSecret),
	}), nil
}

// NewWithClients builds a Provider over explicit clients. It panics if any
// client is nil.
func NewWithClients(c Clients) *Provider {
	if c.Customers == nil || c.Transactions == nil || c.Subscriptions == nil || c.Verifier == nil {
		panic("paddle: all clients are required")
	}
	return &Provider{
		customers:     c.Customers,
		transactions:  c.Transactions,
		subscriptions: c.Subscriptions,
		verifier:      c.Verifier,
	}
}

func (p *Provider) CreateCustomer(ctx context.Context, c subscription.Customer) (string, error) {
	req := &sdk.CreateCustomerRequest{
		Email:      c.Email,
		CustomData: sdk.CustomData{"user_id": c.UserID},
	}
	if c.Name != "" {
		req.Name = sdk.PtrTo(c.Name)
	}

	customer, err := p.customers.CreateCustomer(ctx, req)
	if err != nil {
		return "", fmt.Errorf("failed to create paddle customer: %w", err)
	}
	return customer.ID, nil
}

// CreateSubscription opens a checkout transaction for the price. Paddle only
// creates the subscription once the checkout is paid, so the result is
// incomplete and requires the customer to act on the returned checkout.
// The user id travels in custom data and comes back on subscription webhooks.
func (p *Provider) CreateSubscription(ctx context.Context, req subscription.CreateRequest) (*subscription.RemoteSubscription, error) {
	if req.PriceID == "" {
		return nil, ErrMissingPriceID
	}
	if req.CustomerID == "" {
		return nil, ErrMissingCustomerID
	}

	item := sdk.NewCreateTransactionItemsTransactionItemFromCatalog(&sdk.TransactionItemFromCatalog{
		PriceID:  req.PriceID,
		Quantity: 1,
	})

	txn, err := p.transactions.CreateTransaction(ctx, &sdk.CreateTransactionRequest{
		Items:      []sdk.CreateTransactionItems{*item},
		CustomerID: sdk.PtrTo(req.CustomerID),
		CustomData: sdk.CustomData{"user_id": req.UserID},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create paddle transaction: %w", err)
	}

	remote := &subscription.RemoteSubscription{
		Status:         subscription.StatusIncomplete,
		RequiresAction: true,
		ClientSecret:   txn.ID,
	}
	if txn.SubscriptionID != nil {
		remote.ID = *txn.SubscriptionID
	}
	if txn.Checkout != nil && txn.Checkout.URL != nil && *txn.Checkout.URL != "" {
		remote.ClientSecret = *txn.Checkout.URL
	}
	if remote.ClientSecret == "" && remote.ID == "" {
		return nil, ErrNoCheckout
	}
	return remote, nil
}

func (p *Provider) GetSubscription(ctx context.Context, externalID string) (*subscription.RemoteSubscription, error) {
	sub, err := p.subscriptions.GetSubscription(ctx, &sdk.GetSubscriptionRequest{SubscriptionID: externalID})
	if err != nil {
		return nil, fmt.Errorf("failed to get paddle subscription: %w", err)
	}
	return toRemote(sub), nil
}

// CancelSubscription schedules cancellation at the end of the paid period.
func (p *Provider) CancelSubscription(ctx context.Context, externalID string) (*subscription.RemoteSubscription, error) {
	sub, err := p.subscriptions.CancelSubscription(ctx, &sdk.CancelSubscriptionRequest{
		SubscriptionID: externalID,
		EffectiveFrom:  sdk.PtrTo(sdk.EffectiveFromNextBillingPeriod),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to cancel paddle subscription: %w", err)
	}
	return toRemote(sub), nil
}

func toRemote(sub *sdk.Subscription) *subscription.RemoteSubscription {
	if sub == nil {
		return nil
	}
	remote := &subscription.RemoteSubscription{
		ID:     sub.ID,
		Status: subscription.NormalizeStatus(string(sub.Status)),
	}
	if period := sub.CurrentBillingPeriod; period != nil {
		remote.CurrentPeriodStart = parseTime(period.StartsAt)
		remote.CurrentPeriodEnd = parseTime(period.EndsAt)
	}
	return remote
}

func parseTime(s string) *time.Time {
	if s == "" {
		return nil
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return nil
	}
	t = t.UTC()
	return &t
}
