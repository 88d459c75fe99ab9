package binder

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
)

// DefaultMaxJSONSize caps JSON request bodies.
const DefaultMaxJSONSize = 1 << 20

// BindJSON decodes an application/json body strictly (unknown fields are
// rejected) and validates the result.
func BindJSON() func(r *http.Request, v any) error {
	return func(r *http.Request, v any) error {
		contentType := r.Header.Get("Content-Type")
		if contentType == "" {
			return fmt.Errorf("%w: expected application/json", ErrMissingContentType)
		}
		mediaType, _, err := mime.ParseMediaType(contentType)
		if err != nil || mediaType != "application/json" {
			return fmt.Errorf("%w: got %s, expected application/json", ErrUnsupportedMediaType, contentType)
		}

		dec := json.NewDecoder(io.LimitReader(r.Body, DefaultMaxJSONSize+1))
		dec.DisallowUnknownFields()

		if err := dec.Decode(v); err != nil {
			switch {
			case errors.Is(err, io.EOF):
				return fmt.Errorf("%w: empty body", ErrInvalidJSON)
			case errors.Is(err, io.ErrUnexpectedEOF) && r.ContentLength > DefaultMaxJSONSize:
				return fmt.Errorf("%w: max %d bytes", ErrRequestTooLarge, DefaultMaxJSONSize)
			default:
				return fmt.Errorf("%w: %v", ErrInvalidJSON, err)
			}
		}

		var extra json.RawMessage
		if err := dec.Decode(&extra); !errors.Is(err, io.EOF) {
			return fmt.Errorf("%w: unexpected data after JSON object", ErrInvalidJSON)
		}

		return Struct(v)
	}
}
