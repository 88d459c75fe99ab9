package subscription

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/dmitrymomot/ndavault/pkg/logger"
	"github.com/dmitrymomot/ndavault/svc/plan"
)

// User identifies the authenticated caller.
type User struct {
	ID    string
	Email string
	Name  string
}

// CreateResult is returned by Service.Create.
type CreateResult struct {
	SubscriptionID string
	ClientSecret   string
	RequiresAction bool
	Subscription   *Subscription
}

// Service reconciles the local store with the payment provider.
//
// Reads fail open: a provider outage degrades to the last known local state.
// Writes (create, cancel) fail closed and surface ErrProvider to the caller.
type Service struct {
	store    Store
	provider Provider
	catalog  *plan.Catalog
	log      *slog.Logger
	timeout  time.Duration
}

// NewService panics if a required dependency is nil.
func NewService(store Store, provider Provider, catalog *plan.Catalog, opts ...ServiceOption) *Service {
	if store == nil {
		panic("subscription: store is required")
	}
	if provider == nil {
		panic("subscription: provider is required")
	}
	if catalog == nil {
		panic("subscription: plan catalog is required")
	}

	s := &Service{
		store:    store,
		provider: provider,
		catalog:  catalog,
		log:      logger.Nop(),
		timeout:  10 * time.Second,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.log = s.log.With(logger.Component("subscription"))
	return s
}

// EnsureDefault makes sure the user has a local record.
func (s *Service) EnsureDefault(ctx context.Context, u User) (*Subscription, error) {
	return s.store.EnsureDefault(ctx, u.ID, u.Email)
}

// GetSynced returns the user's subscription refreshed from the provider.
// Users without a record get the free default; records without an external
// id are returned without contacting the provider. Provider failures are
// logged and the local record is returned.
func (s *Service) GetSynced(ctx context.Context, userID string) (*Subscription, error) {
	local, err := s.store.Get(ctx, userID)
	if errors.Is(err, ErrNotFound) {
		return Default(userID), nil
	}
	if err != nil {
		return nil, err
	}
	if !local.HasExternalID() {
		return local, nil
	}

	pctx, cancel := s.providerContext(ctx)
	remote, err := s.provider.GetSubscription(pctx, *local.ExternalID)
	cancel()
	if err == nil && remote == nil {
		err = errEmptyProviderResponse
	}
	if err != nil {
		s.log.WarnContext(ctx, "subscription sync degraded, using local state",
			logger.UserID(userID),
			logger.SubscriptionID(*local.ExternalID),
			logger.Error(err),
		)
		return local, nil
	}

	synced, err := s.store.UpsertByUser(ctx, userID, Fields{
		Status:             &remote.Status,
		CurrentPeriodStart: remote.CurrentPeriodStart,
		CurrentPeriodEnd:   remote.CurrentPeriodEnd,
	})
	if err != nil {
		s.log.ErrorContext(ctx, "failed to persist synced subscription",
			logger.UserID(userID),
			logger.SubscriptionID(*local.ExternalID),
			logger.Error(err),
		)
		return local, nil
	}
	return synced, nil
}

// Create purchases a paid plan. planRef may be a plan id or a provider price id.
func (s *Service) Create(ctx context.Context, u User, planRef, paymentMethodID string) (*CreateResult, error) {
	p, err := s.catalog.Resolve(planRef)
	if err != nil {
		return nil, errors.Join(ErrInvalidPlan, err)
	}
	if p.IsFree() {
		return nil, errors.Join(ErrInvalidPlan, errors.New("free plan cannot be purchased"))
	}

	sub, err := s.store.EnsureDefault(ctx, u.ID, u.Email)
	if err != nil {
		return nil, err
	}
	if sub.PlanType == p.ID && sub.IsActive() && sub.HasExternalID() {
		return nil, ErrAlreadySubscribed
	}

	customerID, err := s.ensureCustomer(ctx, u, sub)
	if err != nil {
		return nil, err
	}

	pctx, cancel := s.providerContext(ctx)
	remote, err := s.provider.CreateSubscription(pctx, CreateRequest{
		UserID:          u.ID,
		CustomerID:      customerID,
		PriceID:         p.PriceID,
		PaymentMethodID: paymentMethodID,
	})
	cancel()
	if err == nil && remote == nil {
		err = errEmptyProviderResponse
	}
	if err != nil {
		s.log.ErrorContext(ctx, "provider failed to create subscription",
			logger.UserID(u.ID),
			slog.String("price_id", p.PriceID),
			logger.Error(err),
		)
		return nil, errors.Join(ErrProvider, err)
	}

	fields := Fields{
		PlanType:           &p.ID,
		Status:             &remote.Status,
		CurrentPeriodStart: remote.CurrentPeriodStart,
		CurrentPeriodEnd:   remote.CurrentPeriodEnd,
	}
	if remote.ID != "" {
		fields.ExternalID = &remote.ID
	}

	sub, err = s.store.UpsertByUser(ctx, u.ID, fields)
	if err != nil {
		return nil, err
	}

	s.log.InfoContext(ctx, "subscription created",
		logger.UserID(u.ID),
		logger.SubscriptionID(remote.ID),
		slog.String("status", string(remote.Status)),
	)

	return &CreateResult{
		SubscriptionID: remote.ID,
		ClientSecret:   remote.ClientSecret,
		RequiresAction: remote.RequiresAction,
		Subscription:   sub,
	}, nil
}

func (s *Service) ensureCustomer(ctx context.Context, u User, sub *Subscription) (string, error) {
	if sub.CustomerID != nil && *sub.CustomerID != "" {
		return *sub.CustomerID, nil
	}

	name := u.Name
	if name == "" {
		name = u.Email
	}

	pctx, cancel := s.providerContext(ctx)
	customerID, err := s.provider.CreateCustomer(pctx, Customer{UserID: u.ID, Email: u.Email, Name: name})
	cancel()
	if err != nil {
		s.log.ErrorContext(ctx, "provider failed to create customer", logger.UserID(u.ID), logger.Error(err))
		return "", errors.Join(ErrProvider, err)
	}

	if _, err := s.store.UpsertByUser(ctx, u.ID, Fields{CustomerID: &customerID}); err != nil {
		return "", err
	}
	return customerID, nil
}

// Cancel cancels the user's paid subscription with the provider and marks the
// local record canceled. Fails with ErrNoActiveSubscription, without writing,
// when there is nothing to cancel.
func (s *Service) Cancel(ctx context.Context, userID string) (*Subscription, error) {
	local, err := s.store.Get(ctx, userID)
	if errors.Is(err, ErrNotFound) {
		return nil, ErrNoActiveSubscription
	}
	if err != nil {
		return nil, err
	}
	if !local.HasExternalID() {
		return nil, ErrNoActiveSubscription
	}

	pctx, cancel := s.providerContext(ctx)
	remote, err := s.provider.CancelSubscription(pctx, *local.ExternalID)
	cancel()
	if err != nil {
		s.log.ErrorContext(ctx, "provider failed to cancel subscription",
			logger.UserID(userID),
			logger.SubscriptionID(*local.ExternalID),
			logger.Error(err),
		)
		return nil, errors.Join(ErrProvider, err)
	}

	status := StatusCanceled
	fields := Fields{Status: &status}
	if remote != nil {
		fields.CurrentPeriodStart = remote.CurrentPeriodStart
		fields.CurrentPeriodEnd = remote.CurrentPeriodEnd
	}

	sub, err := s.store.UpsertByUser(ctx, userID, fields)
	if err != nil {
		return nil, err
	}

	s.log.InfoContext(ctx, "subscription canceled", logger.UserID(userID), logger.SubscriptionID(*local.ExternalID))
	return sub, nil
}

func (s *Service) providerContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.timeout)
}
