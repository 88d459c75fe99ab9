package storage

import "errors"

var (
	ErrInvalidConfig      = errors.New("invalid storage configuration")
	ErrFailedToLoadConfig = errors.New("failed to load AWS config")
	ErrInvalidKey         = errors.New("invalid object key")
	ErrNilBody            = errors.New("object body is nil")

	ErrObjectNotFound     = errors.New("object not found")
	ErrBucketNotFound     = errors.New("bucket not found")
	ErrAccessDenied       = errors.New("access denied")
	ErrServiceUnavailable = errors.New("storage service temporarily unavailable")
	ErrOperationTimeout   = errors.New("storage operation timed out")
	ErrOperationCanceled  = errors.New("storage operation canceled")
)
