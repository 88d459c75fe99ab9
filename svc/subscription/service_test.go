package subscription_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/ndavault/svc/plan"
	"github.com/dmitrymomot/ndavault/svc/subscription"
)

var (
	periodStart = time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	periodEnd   = time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
)

func newService(store subscription.Store, provider subscription.Provider) *subscription.Service {
	return subscription.NewService(store, provider, plan.Default(), subscription.WithProviderTimeout(time.Second))
}

func seedPro(t *testing.T, store *subscription.MemoryStore, userID, externalID string) {
	t.Helper()
	pro := plan.Pro
	active := subscription.StatusActive
	_, err := store.UpsertByUser(context.Background(), userID, subscription.Fields{
		ExternalID: strPtr(externalID),
		CustomerID: strPtr("ctm_1"),
		PlanType:   &pro,
		Status:     &active,
	})
	require.NoError(t, err)
}

func TestNewServicePanicsOnMissingDependencies(t *testing.T) {
	t.Parallel()

	assert.Panics(t, func() { subscription.NewService(nil, &mockProvider{}, plan.Default()) })
	assert.Panics(t, func() { subscription.NewService(subscription.NewMemoryStore(), nil, plan.Default()) })
	assert.Panics(t, func() { subscription.NewService(subscription.NewMemoryStore(), &mockProvider{}, nil) })
}

func TestGetSynced(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("user without record gets free default without provider call", func(t *testing.T) {
		t.Parallel()
		provider := &mockProvider{}
		svc := newService(subscription.NewMemoryStore(), provider)

		sub, err := svc.GetSynced(ctx, "user-1")
		require.NoError(t, err)
		assert.Equal(t, plan.Free, sub.PlanType)
		assert.Equal(t, subscription.StatusActive, sub.Status)
		assert.Nil(t, sub.ExternalID)
		provider.AssertNotCalled(t, "GetSubscription", mock.Anything, mock.Anything)
	})

	t.Run("record without external id is returned unchanged", func(t *testing.T) {
		t.Parallel()
		store := subscription.NewMemoryStore()
		_, err := store.EnsureDefault(ctx, "user-1", "")
		require.NoError(t, err)
		provider := &mockProvider{}

		sub, err := newService(store, provider).GetSynced(ctx, "user-1")
		require.NoError(t, err)
		assert.Equal(t, plan.Free, sub.PlanType)
		provider.AssertNotCalled(t, "GetSubscription", mock.Anything, mock.Anything)
	})

	t.Run("provider state overwrites status and period", func(t *testing.T) {
		t.Parallel()
		store := subscription.NewMemoryStore()
		seedPro(t, store, "user-1", "sub_1")

		provider := &mockProvider{}
		provider.On("GetSubscription", mock.Anything, "sub_1").Return(&subscription.RemoteSubscription{
			ID:                 "sub_1",
			Status:             subscription.StatusPastDue,
			CurrentPeriodStart: &periodStart,
			CurrentPeriodEnd:   &periodEnd,
		}, nil)

		sub, err := newService(store, provider).GetSynced(ctx, "user-1")
		require.NoError(t, err)
		assert.Equal(t, subscription.StatusPastDue, sub.Status)
		require.NotNil(t, sub.CurrentPeriodEnd)
		assert.True(t, periodEnd.Equal(*sub.CurrentPeriodEnd))

		stored, err := store.Get(ctx, "user-1")
		require.NoError(t, err)
		assert.Equal(t, subscription.StatusPastDue, stored.Status)
		provider.AssertExpectations(t)
	})

	t.Run("provider failure falls back to local record", func(t *testing.T) {
		t.Parallel()
		store := subscription.NewMemoryStore()
		seedPro(t, store, "user-1", "sub_1")

		provider := &mockProvider{}
		provider.On("GetSubscription", mock.Anything, "sub_1").Return(nil, errors.New("503 service unavailable"))

		sub, err := newService(store, provider).GetSynced(ctx, "user-1")
		require.NoError(t, err)
		assert.Equal(t, plan.Pro, sub.PlanType)
		assert.Equal(t, subscription.StatusActive, sub.Status)
	})

	t.Run("empty provider response falls back to local record", func(t *testing.T) {
		t.Parallel()
		store := subscription.NewMemoryStore()
		seedPro(t, store, "user-1", "sub_1")

		provider := &mockProvider{}
		provider.On("GetSubscription", mock.Anything, "sub_1").Return(nil, nil)

		var sub *subscription.Subscription
		var err error
		require.NotPanics(t, func() {
			sub, err = newService(store, provider).GetSynced(ctx, "user-1")
		})
		require.NoError(t, err)
		assert.Equal(t, plan.Pro, sub.PlanType)
		assert.Equal(t, subscription.StatusActive, sub.Status)

		stored, err := store.Get(ctx, "user-1")
		require.NoError(t, err)
		assert.Equal(t, subscription.StatusActive, stored.Status)
		provider.AssertExpectations(t)
	})
}

func TestCreate(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	user := subscription.User{ID: "user-1", Email: "a@example.com"}

	t.Run("unknown plan", func(t *testing.T) {
		t.Parallel()
		svc := newService(subscription.NewMemoryStore(), &mockProvider{})
		_, err := svc.Create(ctx, user, "price_enterprise", "")
		assert.ErrorIs(t, err, subscription.ErrInvalidPlan)
	})

	t.Run("free plan cannot be purchased", func(t *testing.T) {
		t.Parallel()
		svc := newService(subscription.NewMemoryStore(), &mockProvider{})
		_, err := svc.Create(ctx, user, "price_free_plan", "")
		assert.ErrorIs(t, err, subscription.ErrInvalidPlan)
	})

	t.Run("creates customer once and stores subscription", func(t *testing.T) {
		t.Parallel()
		store := subscription.NewMemoryStore()
		provider := &mockProvider{}
		provider.On("CreateCustomer", mock.Anything, subscription.Customer{UserID: "user-1", Email: "a@example.com", Name: "a@example.com"}).
			Return("ctm_1", nil).Once()
		provider.On("CreateSubscription", mock.Anything, subscription.CreateRequest{
			UserID: "user-1", CustomerID: "ctm_1", PriceID: "price_pro_plan_monthly", PaymentMethodID: "pm_1",
		}).Return(&subscription.RemoteSubscription{
			ID:                 "sub_1",
			Status:             subscription.StatusIncomplete,
			CurrentPeriodStart: &periodStart,
			CurrentPeriodEnd:   &periodEnd,
			ClientSecret:       "https://checkout.example/txn_1",
			RequiresAction:     true,
		}, nil).Once()

		res, err := newService(store, provider).Create(ctx, user, "price_pro_plan_monthly", "pm_1")
		require.NoError(t, err)
		assert.Equal(t, "sub_1", res.SubscriptionID)
		assert.Equal(t, "https://checkout.example/txn_1", res.ClientSecret)
		assert.True(t, res.RequiresAction)

		stored, err := store.Get(ctx, "user-1")
		require.NoError(t, err)
		assert.Equal(t, plan.Pro, stored.PlanType)
		assert.Equal(t, subscription.StatusIncomplete, stored.Status)
		require.NotNil(t, stored.ExternalID)
		assert.Equal(t, "sub_1", *stored.ExternalID)
		require.NotNil(t, stored.CustomerID)
		assert.Equal(t, "ctm_1", *stored.CustomerID)
		provider.AssertExpectations(t)
	})

	t.Run("reuses stored customer", func(t *testing.T) {
		t.Parallel()
		store := subscription.NewMemoryStore()
		_, err := store.UpsertByUser(ctx, "user-1", subscription.Fields{CustomerID: strPtr("ctm_9")})
		require.NoError(t, err)

		provider := &mockProvider{}
		provider.On("CreateSubscription", mock.Anything, mock.MatchedBy(func(req subscription.CreateRequest) bool {
			return req.CustomerID == "ctm_9"
		})).Return(&subscription.RemoteSubscription{ID: "sub_2", Status: subscription.StatusActive}, nil)

		_, err = newService(store, provider).Create(ctx, user, "pro", "")
		require.NoError(t, err)
		provider.AssertNotCalled(t, "CreateCustomer", mock.Anything, mock.Anything)
	})

	t.Run("provider failure is surfaced", func(t *testing.T) {
		t.Parallel()
		store := subscription.NewMemoryStore()
		provider := &mockProvider{}
		provider.On("CreateCustomer", mock.Anything, mock.Anything).Return("ctm_1", nil)
		provider.On("CreateSubscription", mock.Anything, mock.Anything).Return(nil, errors.New("card declined"))

		_, err := newService(store, provider).Create(ctx, user, "pro", "")
		assert.ErrorIs(t, err, subscription.ErrProvider)

		stored, err := store.Get(ctx, "user-1")
		require.NoError(t, err)
		assert.Equal(t, plan.Free, stored.PlanType)
	})

	t.Run("empty provider response is surfaced", func(t *testing.T) {
		t.Parallel()
		store := subscription.NewMemoryStore()
		provider := &mockProvider{}
		provider.On("CreateCustomer", mock.Anything, mock.Anything).Return("ctm_1", nil)
		provider.On("CreateSubscription", mock.Anything, mock.Anything).Return(nil, nil)

		_, err := newService(store, provider).Create(ctx, user, "pro", "")
		assert.ErrorIs(t, err, subscription.ErrProvider)

		stored, err := store.Get(ctx, "user-1")
		require.NoError(t, err)
		assert.Equal(t, plan.Free, stored.PlanType)
	})

	t.Run("already subscribed", func(t *testing.T) {
		t.Parallel()
		store := subscription.NewMemoryStore()
		seedPro(t, store, "user-1", "sub_1")

		_, err := newService(store, &mockProvider{}).Create(ctx, user, "pro", "")
		assert.ErrorIs(t, err, subscription.ErrAlreadySubscribed)
	})
}

func TestCancel(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("no external id fails without writing", func(t *testing.T) {
		t.Parallel()
		mem := subscription.NewMemoryStore()
		_, err := mem.EnsureDefault(ctx, "user-1", "")
		require.NoError(t, err)
		store := &countingStore{MemoryStore: mem}
		provider := &mockProvider{}

		_, err = newService(store, provider).Cancel(ctx, "user-1")
		assert.ErrorIs(t, err, subscription.ErrNoActiveSubscription)
		assert.Zero(t, store.writes)
		provider.AssertNotCalled(t, "CancelSubscription", mock.Anything, mock.Anything)
	})

	t.Run("no record", func(t *testing.T) {
		t.Parallel()
		store := &countingStore{MemoryStore: subscription.NewMemoryStore()}
		_, err := newService(store, &mockProvider{}).Cancel(ctx, "ghost")
		assert.ErrorIs(t, err, subscription.ErrNoActiveSubscription)
		assert.Zero(t, store.writes)
	})

	t.Run("marks record canceled", func(t *testing.T) {
		t.Parallel()
		store := subscription.NewMemoryStore()
		seedPro(t, store, "user-1", "sub_1")

		provider := &mockProvider{}
		provider.On("CancelSubscription", mock.Anything, "sub_1").Return(&subscription.RemoteSubscription{
			ID:               "sub_1",
			Status:           subscription.StatusActive,
			CurrentPeriodEnd: &periodEnd,
		}, nil)

		sub, err := newService(store, provider).Cancel(ctx, "user-1")
		require.NoError(t, err)
		assert.Equal(t, subscription.StatusCanceled, sub.Status)
		assert.True(t, sub.InGracePeriod(periodEnd.Add(-time.Hour)))
		assert.False(t, sub.InGracePeriod(periodEnd.Add(time.Hour)))
	})

	t.Run("provider failure keeps local state", func(t *testing.T) {
		t.Parallel()
		store := subscription.NewMemoryStore()
		seedPro(t, store, "user-1", "sub_1")

		provider := &mockProvider{}
		provider.On("CancelSubscription", mock.Anything, "sub_1").Return(nil, errors.New("timeout"))

		_, err := newService(store, provider).Cancel(ctx, "user-1")
		assert.ErrorIs(t, err, subscription.ErrProvider)

		stored, err := store.Get(ctx, "user-1")
		require.NoError(t, err)
		assert.Equal(t, subscription.StatusActive, stored.Status)
	})
}

func TestNormalizeStatus(t *testing.T) {
	t.Parallel()

	tests := map[string]subscription.Status{
		"active":     subscription.StatusActive,
		"trialing":   subscription.StatusActive,
		"canceled":   subscription.StatusCanceled,
		"cancelled":  subscription.StatusCanceled,
		"past_due":   subscription.StatusPastDue,
		"paused":     subscription.StatusPastDue,
		"incomplete": subscription.StatusIncomplete,
		"mystery":    subscription.StatusIncomplete,
	}
	for in, want := range tests {
		assert.Equal(t, want, subscription.NormalizeStatus(in), in)
	}
}
