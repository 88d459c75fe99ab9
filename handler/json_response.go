package handler

import (
	"encoding/json"
	"net/http"
)

type jsonResponse struct {
	status  int
	headers http.Header
	body    any
}

func (j jsonResponse) Render(w http.ResponseWriter, _ *http.Request) error {
	for k, v := range j.headers {
		w.Header()[k] = v
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(j.status)
	return json.NewEncoder(w).Encode(j.body)
}

// JSONOption configures a JSON response.
type JSONOption func(*jsonResponse)

func WithStatus(status int) JSONOption {
	return func(r *jsonResponse) { r.status = status }
}

func WithHeader(key, value string) JSONOption {
	return func(r *jsonResponse) {
		if r.headers == nil {
			r.headers = http.Header{}
		}
		r.headers.Set(key, value)
	}
}

// JSON encodes v as the response body with status 200 unless overridden.
func JSON(v any, opts ...JSONOption) Response {
	r := &jsonResponse{status: http.StatusOK, body: v}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

type errorResponse struct {
	err error
}

// Render hands the error back to Wrap, which passes it to the ErrorHandler.
func (e errorResponse) Render(http.ResponseWriter, *http.Request) error {
	if e.err == nil {
		return ErrNilResponse
	}
	return e.err
}

// JSONError returns a Response that is rendered by the configured
// ErrorHandler.
func JSONError(err error) Response {
	return errorResponse{err: err}
}
