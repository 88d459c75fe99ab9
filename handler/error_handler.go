package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/dmitrymomot/ndavault/binder"
	"github.com/dmitrymomot/ndavault/pkg/logger"
	"github.com/dmitrymomot/ndavault/pkg/requestid"
)

// ErrorBody is the JSON body of every error response.
type ErrorBody struct {
	Error     string              `json:"error"`
	Code      string              `json:"code"`
	Details   map[string][]string `json:"details,omitempty"`
	RequestID string              `json:"requestId,omitempty"`
}

// ErrorInfo is the classification of an error.
type ErrorInfo struct {
	StatusCode int
	Key        string
	Message    string
	Details    map[string][]string
	LogLevel   slog.Level
}

// ErrorMapper translates domain errors into HTTPError values. It returns the
// input unchanged when it has no opinion.
type ErrorMapper func(error) error

// Classify maps err to a status code, key and client-facing message.
// Server errors never expose the underlying message.
func Classify(err error) ErrorInfo {
	info := ErrorInfo{
		StatusCode: http.StatusInternalServerError,
		Key:        ErrInternalServerError.Key,
		Message:    "An error occurred processing your request",
	}

	var (
		httpErr  HTTPError
		validErr validator.ValidationErrors
	)
	switch {
	case errors.As(err, &validErr):
		info.StatusCode = http.StatusBadRequest
		info.Key = "validation_error"
		info.Message = "Validation failed"
		info.Details = make(map[string][]string, len(validErr))
		for _, fe := range validErr {
			info.Details[fe.Field()] = append(info.Details[fe.Field()], fe.Tag())
		}
	case errors.As(err, &httpErr):
		info.StatusCode = httpErr.Code
		info.Key = httpErr.Key
		if httpErr.Code < http.StatusInternalServerError {
			info.Message = causeMessage(err, httpErr)
		}
	case errors.Is(err, binder.ErrUnsupportedMediaType), errors.Is(err, binder.ErrMissingContentType):
		info.StatusCode = http.StatusUnsupportedMediaType
		info.Key = ErrUnsupportedMediaType.Key
		info.Message = err.Error()
	case errors.Is(err, binder.ErrRequestTooLarge):
		info.StatusCode = http.StatusRequestEntityTooLarge
		info.Key = ErrRequestEntityTooLarge.Key
		info.Message = err.Error()
	case errors.Is(err, binder.ErrInvalidJSON),
		errors.Is(err, binder.ErrInvalidForm),
		errors.Is(err, binder.ErrInvalidQuery),
		errors.Is(err, binder.ErrInvalidPath),
		errors.Is(err, binder.ErrMissingFile):
		info.StatusCode = http.StatusBadRequest
		info.Key = ErrBadRequest.Key
		info.Message = err.Error()
	}

	info.LogLevel = slog.LevelError
	if info.StatusCode < http.StatusInternalServerError {
		info.LogLevel = slog.LevelWarn
	}
	return info
}

// causeMessage prefers the text of the domain error joined with the HTTPError.
func causeMessage(err error, httpErr HTTPError) string {
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		for _, e := range joined.Unwrap() {
			var he HTTPError
			if e != nil && !errors.As(e, &he) {
				return e.Error()
			}
		}
	}
	if text := http.StatusText(httpErr.Code); text != "" {
		return text
	}
	return httpErr.Key
}

// NewErrorHandler logs every error with request metadata and writes an
// ErrorBody. Mappers run in order before classification.
func NewErrorHandler(log *slog.Logger, mappers ...ErrorMapper) ErrorHandler[Context] {
	if log == nil {
		log = logger.Nop()
	}

	return func(ctx Context, err error) {
		r := ctx.Request()
		info := writeError(ctx, err, mappers)

		log.LogAttrs(r.Context(), info.LogLevel, "request error",
			logger.Error(err),
			slog.Int("status_code", info.StatusCode),
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			logger.Component("http"),
		)
	}
}

// WriteError renders err as a JSON error body. It is used by middleware that
// runs outside Wrap.
func WriteError(w http.ResponseWriter, r *http.Request, err error, mappers ...ErrorMapper) {
	writeError(NewContext(w, r), err, mappers)
}

func writeError(ctx Context, err error, mappers []ErrorMapper) ErrorInfo {
	for _, m := range mappers {
		err = m(err)
	}
	info := Classify(err)

	w := ctx.ResponseWriter()
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(info.StatusCode)
	_ = json.NewEncoder(w).Encode(ErrorBody{
		Error:     info.Message,
		Code:      info.Key,
		Details:   info.Details,
		RequestID: requestid.FromContext(ctx.Request().Context()),
	})
	return info
}
