package api

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/dmitrymomot/ndavault/binder"
	"github.com/dmitrymomot/ndavault/handler"
	"github.com/dmitrymomot/ndavault/svc/entitlement"
	"github.com/dmitrymomot/ndavault/svc/subscription"
)

// SubscriptionService is the part of subscription.Service used by the API.
type SubscriptionService interface {
	EnsureDefault(ctx context.Context, u subscription.User) (*subscription.Subscription, error)
	GetSynced(ctx context.Context, userID string) (*subscription.Subscription, error)
	Create(ctx context.Context, u subscription.User, planRef, paymentMethodID string) (*subscription.CreateResult, error)
	Cancel(ctx context.Context, userID string) (*subscription.Subscription, error)
}

// Summarizer renders the entitlements of a subscription.
type Summarizer interface {
	Summarize(sub *subscription.Subscription) entitlement.Summary
}

// Subscriptions serves the authenticated subscription routes.
type Subscriptions struct {
	subs         SubscriptionService
	entitlements Summarizer
	errorHandler handler.ErrorHandler[handler.Context]
}

func NewSubscriptions(subs SubscriptionService, entitlements Summarizer, eh handler.ErrorHandler[handler.Context]) *Subscriptions {
	if subs == nil || entitlements == nil {
		panic("api: subscription service and entitlement summarizer are required")
	}
	return &Subscriptions{subs: subs, entitlements: entitlements, errorHandler: eh}
}

func (s *Subscriptions) Handle() http.Handler {
	r := chi.NewRouter()
	r.Post("/create", wrap(s.create, s.errorHandler, binder.BindJSON()))
	r.Post("/cancel", wrap(s.cancel, s.errorHandler))
	r.Get("/status", wrap(s.status, s.errorHandler))
	return r
}

// CreateRequest selects the plan by price id (a plan id is accepted too).
type CreateRequest struct {
	PriceID         string `json:"priceId" validate:"required"`
	PaymentMethodID string `json:"paymentMethodId" validate:"required"`
}

type createResponse struct {
	SubscriptionID string `json:"subscriptionId"`
	ClientSecret   string `json:"clientSecret,omitempty"`
	RequiresAction bool   `json:"requiresAction"`
}

func (s *Subscriptions) create(ctx handler.Context, req CreateRequest) handler.Response {
	user, err := currentUser(ctx)
	if err != nil {
		return handler.JSONError(err)
	}

	res, err := s.subs.Create(ctx, user, req.PriceID, req.PaymentMethodID)
	if err != nil {
		return handler.JSONError(err)
	}
	return handler.JSON(createResponse{
		SubscriptionID: res.SubscriptionID,
		ClientSecret:   res.ClientSecret,
		RequiresAction: res.RequiresAction,
	})
}

type cancelResponse struct {
	Success bool `json:"success"`
}

func (s *Subscriptions) cancel(ctx handler.Context, _ struct{}) handler.Response {
	user, err := currentUser(ctx)
	if err != nil {
		return handler.JSONError(err)
	}
	if _, err := s.subs.Cancel(ctx, user.ID); err != nil {
		return handler.JSONError(err)
	}
	return handler.JSON(cancelResponse{Success: true})
}

type statusUser struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

type statusResponse struct {
	Subscription *subscription.Subscription `json:"subscription"`
	User         statusUser                 `json:"user"`
	Entitlements entitlement.Summary        `json:"entitlements"`
}

// status makes sure the caller has a record, then returns it refreshed from
// the provider. Sync failures degrade to the stored state.
func (s *Subscriptions) status(ctx handler.Context, _ struct{}) handler.Response {
	user, err := currentUser(ctx)
	if err != nil {
		return handler.JSONError(err)
	}

	if _, err := s.subs.EnsureDefault(ctx, user); err != nil {
		return handler.JSONError(err)
	}
	sub, err := s.subs.GetSynced(ctx, user.ID)
	if err != nil {
		return handler.JSONError(err)
	}

	return handler.JSON(statusResponse{
		Subscription: sub,
		User:         statusUser{ID: user.ID, Email: user.Email},
		Entitlements: s.entitlements.Summarize(sub),
	})
}
