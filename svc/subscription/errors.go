package subscription

import "errors"

var (
	ErrNotFound             = errors.New("subscription not found")
	ErrStaleEvent           = errors.New("subscription event is older than the last applied event")
	ErrInvalidPlan          = errors.New("invalid subscription plan")
	ErrAlreadySubscribed    = errors.New("user already has an active paid subscription")
	ErrNoActiveSubscription = errors.New("no active subscription found")
	ErrProvider             = errors.New("payment provider error")
	ErrMissingUserID        = errors.New("user id is required")
	ErrFreePlanExternalID   = errors.New("free plan subscriptions cannot reference a provider subscription")
	ErrExternalIDConflict   = errors.New("provider subscription already belongs to another user")
)

// errEmptyProviderResponse stands in for a provider call that returned neither
// a subscription nor an error.
var errEmptyProviderResponse = errors.New("provider returned no subscription")
