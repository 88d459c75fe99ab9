package paddle

import "errors"

var (
	ErrMissingAPIKey        = errors.New("paddle API key is required")
	ErrMissingWebhookSecret = errors.New("paddle webhook secret is required")
	ErrMissingPriceID       = errors.New("paddle price id is required")
	ErrMissingCustomerID    = errors.New("paddle customer id is required")
	ErrNoCheckout           = errors.New("paddle returned neither a subscription nor a checkout")
)
