package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/dmitrymomot/ndavault/handler"
	"github.com/dmitrymomot/ndavault/pkg/jwt"
	"github.com/dmitrymomot/ndavault/pkg/metrics"
	"github.com/dmitrymomot/ndavault/pkg/requestid"
)

// Mountable is a group of routes served under a prefix.
type Mountable interface {
	Handle() http.Handler
}

// RouterOptions configures which route groups are mounted. Each group is
// optional; Auth is required when Subscriptions or Agreements is set.
type RouterOptions struct {
	Auth    *jwt.Service
	Metrics *metrics.HTTP

	Health        Mountable
	Plans         Mountable
	Subscriptions Mountable
	Agreements    Mountable
	Webhooks      Mountable
	Alerts        Mountable
}

// Router builds the public API.
//
//	r := api.Router(api.RouterOptions{
//	    Auth:          tokens,
//	    Plans:         api.NewPlans(catalog, errorHandler),
//	    Subscriptions: api.NewSubscriptions(subs, resolver, errorHandler),
//	})
func Router(opts RouterOptions) chi.Router {
	if (opts.Subscriptions != nil || opts.Agreements != nil) && opts.Auth == nil {
		panic("api: token service is required for authenticated routes")
	}

	r := chi.NewRouter()
	r.Use(requestid.Middleware)
	r.Use(middleware.Recoverer)
	r.Use(opts.Metrics.Middleware)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		handler.WriteError(w, r, handler.ErrNotFound)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		handler.WriteError(w, r, handler.ErrMethodNotAllowed)
	})

	if opts.Health != nil {
		r.Mount("/health", opts.Health.Handle())
	}
	if opts.Plans != nil {
		r.Mount("/plans", opts.Plans.Handle())
	}
	if opts.Webhooks != nil {
		r.Mount("/webhooks", opts.Webhooks.Handle())
	}
	if opts.Alerts != nil {
		r.Mount("/alerts", opts.Alerts.Handle())
	}

	r.Group(func(r chi.Router) {
		if opts.Auth != nil {
			r.Use(RequireUser(opts.Auth))
		}
		if opts.Subscriptions != nil {
			r.Mount("/subscriptions", opts.Subscriptions.Handle())
		}
		if opts.Agreements != nil {
			r.Mount("/agreements", opts.Agreements.Handle())
		}
	})

	return r
}

func wrap[R any](h handler.HandlerFunc[handler.Context, R], eh handler.ErrorHandler[handler.Context], binders ...handler.Bind) http.HandlerFunc {
	return handler.Wrap(h,
		handler.WithBinders[handler.Context, R](binders...),
		handler.WithErrorHandler[handler.Context, R](eh),
	)
}
