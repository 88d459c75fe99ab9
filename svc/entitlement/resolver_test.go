package entitlement_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dmitrymomot/ndavault/svc/entitlement"
	"github.com/dmitrymomot/ndavault/svc/plan"
	"github.com/dmitrymomot/ndavault/svc/subscription"
)

var paidFeatures = []plan.Feature{
	plan.FeatureAutomaticAlerts,
	plan.FeaturePrioritySupport,
	plan.FeatureAdvancedAnalytics,
	plan.FeatureCustomBranding,
	plan.FeatureAPIAccess,
}

var allStatuses = []subscription.Status{
	subscription.StatusActive,
	subscription.StatusCanceled,
	subscription.StatusPastDue,
	subscription.StatusIncomplete,
}

func sub(p plan.ID, s subscription.Status) *subscription.Subscription {
	return &subscription.Subscription{UserID: "user-1", PlanType: p, Status: s}
}

func TestHasFeature(t *testing.T) {
	t.Parallel()

	r := entitlement.NewResolver(plan.Default())

	t.Run("free plan never grants paid features", func(t *testing.T) {
		t.Parallel()
		for _, st := range allStatuses {
			for _, f := range paidFeatures {
				assert.False(t, r.HasFeature(sub(plan.Free, st), f), "%s/%s", st, f)
			}
		}
	})

	t.Run("non-active status never grants paid features", func(t *testing.T) {
		t.Parallel()
		for _, p := range []plan.ID{plan.Free, plan.Pro} {
			for _, st := range allStatuses[1:] {
				for _, f := range paidFeatures {
					assert.False(t, r.HasFeature(sub(p, st), f), "%s/%s/%s", p, st, f)
				}
			}
		}
	})

	t.Run("active pro grants paid features", func(t *testing.T) {
		t.Parallel()
		for _, f := range paidFeatures {
			assert.True(t, r.HasFeature(sub(plan.Pro, subscription.StatusActive), f), f)
		}
	})

	t.Run("free features always granted", func(t *testing.T) {
		t.Parallel()
		for _, st := range allStatuses {
			assert.True(t, r.HasFeature(sub(plan.Free, st), plan.FeatureMaxNDAs))
			assert.True(t, r.HasFeature(sub(plan.Pro, st), plan.FeatureMaxNDAs))
		}
		assert.True(t, r.HasFeature(nil, plan.FeatureMaxNDAs))
	})

	t.Run("unknown feature denied", func(t *testing.T) {
		t.Parallel()
		assert.False(t, r.HasFeature(sub(plan.Pro, subscription.StatusActive), plan.Feature("teleportation")))
	})

	t.Run("nil subscription is free default", func(t *testing.T) {
		t.Parallel()
		assert.False(t, r.HasFeature(nil, plan.FeatureAutomaticAlerts))
	})
}

func TestUploadLimit(t *testing.T) {
	t.Parallel()

	r := entitlement.NewResolver(plan.Default())

	for _, st := range allStatuses {
		assert.Equal(t, int64(10), r.UploadLimit(sub(plan.Free, st)))
		assert.Equal(t, plan.Unlimited, r.UploadLimit(sub(plan.Pro, st)))
	}
	assert.Equal(t, int64(10), r.UploadLimit(nil))
}

func TestCanUploadMore(t *testing.T) {
	t.Parallel()

	r := entitlement.NewResolver(plan.Default())

	tests := []struct {
		name  string
		sub   *subscription.Subscription
		count int64
		want  bool
	}{
		{name: "free below limit", sub: sub(plan.Free, subscription.StatusActive), count: 9, want: true},
		{name: "free at limit", sub: sub(plan.Free, subscription.StatusActive), count: 10, want: false},
		{name: "free above limit", sub: sub(plan.Free, subscription.StatusActive), count: 11, want: false},
		{name: "nil subscription at limit", sub: nil, count: 10, want: false},
		{name: "pro past due keeps storage", sub: sub(plan.Pro, subscription.StatusPastDue), count: 5000, want: true},
		{name: "pro active", sub: sub(plan.Pro, subscription.StatusActive), count: 10, want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, r.CanUploadMore(tt.sub, tt.count))
		})
	}
}

func TestSummarize(t *testing.T) {
	t.Parallel()

	r := entitlement.NewResolver(plan.Default())

	s := r.Summarize(sub(plan.Pro, subscription.StatusPastDue))
	assert.Equal(t, plan.Pro, s.Plan)
	assert.Equal(t, plan.Unlimited, s.UploadLimit)
	assert.True(t, s.Features["max_ndas"])
	assert.False(t, s.Features["automatic_alerts"])
	assert.Len(t, s.Features, 6)
}
