package binder

import "errors"

var (
	ErrUnsupportedMediaType = errors.New("unsupported media type")
	ErrMissingContentType   = errors.New("missing content type")
	ErrInvalidJSON          = errors.New("invalid JSON")
	ErrInvalidForm          = errors.New("invalid form data")
	ErrInvalidQuery         = errors.New("invalid query parameter")
	ErrInvalidPath          = errors.New("invalid path parameter")
	ErrMissingFile          = errors.New("missing file")
	ErrRequestTooLarge      = errors.New("request body too large")

	// ErrNotApplicable lets a binder opt out for a request; Wrap skips it.
	ErrNotApplicable = errors.New("binder not applicable")
)
