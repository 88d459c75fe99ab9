package alerts

import "errors"

var (
	ErrInvalidHorizon = errors.New("alert horizon must be positive")
	ErrInvalidRunAt   = errors.New("alert run time must be HH:MM")
	ErrDeliveryFailed = errors.New("failed to deliver some alert emails")
)
