package jwt

import (
	"context"
	"log/slog"
)

type claimsContextKey struct{}

// WithClaims stores verified claims in ctx.
func WithClaims(ctx context.Context, c *Claims) context.Context {
	return context.WithValue(ctx, claimsContextKey{}, c)
}

// FromContext returns the claims stored by Middleware.
func FromContext(ctx context.Context) (*Claims, bool) {
	c, ok := ctx.Value(claimsContextKey{}).(*Claims)
	return c, ok && c != nil
}

// UserIDFromContext returns the authenticated subject, or "" when the request
// is anonymous.
func UserIDFromContext(ctx context.Context) string {
	if c, ok := FromContext(ctx); ok {
		return c.Subject
	}
	return ""
}

// LoggerExtractor adds user_id to log records of authenticated requests.
func LoggerExtractor() func(ctx context.Context) (slog.Attr, bool) {
	return func(ctx context.Context) (slog.Attr, bool) {
		if id := UserIDFromContext(ctx); id != "" {
			return slog.String("user_id", id), true
		}
		return slog.Attr{}, false
	}
}
