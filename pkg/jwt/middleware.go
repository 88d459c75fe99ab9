package jwt

import (
	"net/http"
	"strings"
)

// TokenExtractorFunc pulls the raw token out of a request.
type TokenExtractorFunc func(r *http.Request) (string, error)

// ErrorFunc renders an authentication failure.
type ErrorFunc func(w http.ResponseWriter, r *http.Request, err error)

// MiddlewareOption configures Middleware.
type MiddlewareOption func(*middlewareConfig)

type middlewareConfig struct {
	extractor TokenExtractorFunc
	onError   ErrorFunc
}

// WithExtractor replaces the default bearer header extractor.
func WithExtractor(fn TokenExtractorFunc) MiddlewareOption {
	return func(c *middlewareConfig) {
		if fn != nil {
			c.extractor = fn
		}
	}
}

// WithErrorFunc sets the failure renderer. Defaults to a plain 401.
func WithErrorFunc(fn ErrorFunc) MiddlewareOption {
	return func(c *middlewareConfig) {
		if fn != nil {
			c.onError = fn
		}
	}
}

// Middleware rejects requests without a valid token and stores the claims in
// the request context.
func Middleware(svc *Service, opts ...MiddlewareOption) func(http.Handler) http.Handler {
	if svc == nil {
		panic("jwt: nil service")
	}

	cfg := &middlewareConfig{
		extractor: BearerTokenExtractor,
		onError: func(w http.ResponseWriter, _ *http.Request, _ error) {
			http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		},
	}
	for _, opt := range opts {
		opt(cfg)
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, err := cfg.extractor(r)
			if err != nil {
				cfg.onError(w, r, err)
				return
			}

			claims, err := svc.Parse(token)
			if err != nil {
				cfg.onError(w, r, err)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithClaims(r.Context(), claims)))
		})
	}
}

// BearerTokenExtractor reads "Authorization: Bearer <token>".
func BearerTokenExtractor(r *http.Request) (string, error) {
	scheme, token, ok := strings.Cut(r.Header.Get("Authorization"), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
		return "", ErrMissingToken
	}
	return strings.TrimSpace(token), nil
}
