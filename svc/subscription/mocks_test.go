package subscription_test

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/dmitrymomot/ndavault/svc/subscription"
)

type mockProvider struct {
	mock.Mock
}

func (m *mockProvider) CreateCustomer(ctx context.Context, c subscription.Customer) (string, error) {
	args := m.Called(ctx, c)
	return args.String(0), args.Error(1)
}

func (m *mockProvider) CreateSubscription(ctx context.Context, req subscription.CreateRequest) (*subscription.RemoteSubscription, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*subscription.RemoteSubscription), args.Error(1)
}

func (m *mockProvider) GetSubscription(ctx context.Context, externalID string) (*subscription.RemoteSubscription, error) {
	args := m.Called(ctx, externalID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*subscription.RemoteSubscription), args.Error(1)
}

func (m *mockProvider) CancelSubscription(ctx context.Context, externalID string) (*subscription.RemoteSubscription, error) {
	args := m.Called(ctx, externalID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*subscription.RemoteSubscription), args.Error(1)
}

// countingStore records writes made through the Store interface.
type countingStore struct {
	*subscription.MemoryStore
	writes int
}

func (s *countingStore) EnsureDefault(ctx context.Context, userID, email string) (*subscription.Subscription, error) {
	s.writes++
	return s.MemoryStore.EnsureDefault(ctx, userID, email)
}

func (s *countingStore) UpsertByUser(ctx context.Context, userID string, f subscription.Fields) (*subscription.Subscription, error) {
	s.writes++
	return s.MemoryStore.UpsertByUser(ctx, userID, f)
}

func (s *countingStore) UpsertByExternalID(ctx context.Context, externalID string, f subscription.Fields) (*subscription.Subscription, error) {
	s.writes++
	return s.MemoryStore.UpsertByExternalID(ctx, externalID, f)
}

func strPtr(s string) *string { return &s }
