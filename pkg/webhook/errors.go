package webhook

import "errors"

var (
	ErrMissingSecret    = errors.New("webhook secret is required")
	ErrMissingSignature = errors.New("webhook signature is missing")
	ErrInvalidSignature = errors.New("webhook signature mismatch")
)
