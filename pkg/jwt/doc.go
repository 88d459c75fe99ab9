// Package jwt verifies bearer tokens issued by the external identity provider
// and exposes the authenticated caller to HTTP handlers.
//
// Tokens are HS256-signed. The subject claim is the user identifier and the
// optional email claim is used as the alert recipient address.
//
// # Usage
//
//	svc, err := jwt.New(cfg)
//	if err != nil {
//		return err
//	}
//	r.With(jwt.Middleware(svc)).Get("/subscriptions/status", h)
//
//	// inside the handler
//	claims, ok := jwt.FromContext(r.Context())
package jwt
