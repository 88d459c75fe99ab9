package webhook

import "errors"

var (
	ErrUnauthorized   = errors.New("webhook signature is missing or invalid")
	ErrInvalidPayload = errors.New("webhook payload is malformed")
	ErrMissingUserID  = errors.New("webhook event does not identify a user")
	ErrNilStore       = errors.New("webhook: subscription store is required")
	ErrNilParser      = errors.New("webhook: parser is required")
)
