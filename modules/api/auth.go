package api

import (
	"context"
	"net/http"

	"github.com/dmitrymomot/ndavault/handler"
	"github.com/dmitrymomot/ndavault/pkg/jwt"
	"github.com/dmitrymomot/ndavault/svc/subscription"
)

// RequireUser verifies the bearer token and answers 401 with a JSON body
// when it is missing or invalid.
func RequireUser(tokens *jwt.Service) func(http.Handler) http.Handler {
	return jwt.Middleware(tokens, jwt.WithErrorFunc(func(w http.ResponseWriter, r *http.Request, err error) {
		handler.WriteError(w, r, err, MapError)
	}))
}

// currentUser returns the caller identified by the verified token: the user
// id is the subject and the email comes from the email claim.
func currentUser(ctx context.Context) (subscription.User, error) {
	claims, ok := jwt.FromContext(ctx)
	if !ok || claims.UserID() == "" {
		return subscription.User{}, ErrInvalidToken
	}
	return subscription.User{ID: claims.UserID(), Email: claims.Email}, nil
}
