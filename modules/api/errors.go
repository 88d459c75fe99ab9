package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/dmitrymomot/ndavault/handler"
	"github.com/dmitrymomot/ndavault/pkg/jwt"
	"github.com/dmitrymomot/ndavault/svc/agreement"
	"github.com/dmitrymomot/ndavault/svc/alerts"
	"github.com/dmitrymomot/ndavault/svc/subscription"
	"github.com/dmitrymomot/ndavault/svc/webhook"
)

var (
	ErrInvalidCronSecret = errors.New("invalid or missing cron secret")
	ErrInvalidAsOf       = errors.New("as_of must be a date in YYYY-MM-DD format")
	ErrInvalidDate       = errors.New("dates must be in YYYY-MM-DD format")
	ErrInvalidToken      = errors.New("invalid or expired token")
	ErrPayloadTooLarge   = errors.New("webhook payload is too large")
)

var (
	errUploadLimit       = handler.NewHTTPError(http.StatusPaymentRequired, "upload_limit_reached")
	errFeatureNotAllowed = handler.NewHTTPError(http.StatusForbidden, "feature_not_available")
	errProvider          = handler.NewHTTPError(http.StatusInternalServerError, "provider_error")
	errStorage           = handler.NewHTTPError(http.StatusInternalServerError, "storage_error")
	errAlreadySubscribed = handler.NewHTTPError(http.StatusConflict, "already_subscribed")
	errInvalidPlan       = handler.NewHTTPError(http.StatusBadRequest, "invalid_plan")
	errNoSubscription    = handler.NewHTTPError(http.StatusBadRequest, "no_active_subscription")
	errInvalidAgreement  = handler.NewHTTPError(http.StatusBadRequest, "invalid_agreement")
	errFileTooLarge      = handler.NewHTTPError(http.StatusRequestEntityTooLarge, "file_too_large")
)

type mapping struct {
	match  []error
	client error // message shown to the client
	status handler.HTTPError
}

// Order matters: the first mapping with a matching sentinel wins.
var mappings = []mapping{
	{match: []error{jwt.ErrInvalidToken, jwt.ErrExpiredToken, jwt.ErrMissingToken, jwt.ErrMissingSubject, ErrInvalidToken}, client: ErrInvalidToken, status: handler.ErrUnauthorized},
	{match: []error{ErrInvalidCronSecret}, status: handler.ErrUnauthorized},
	{match: []error{webhook.ErrUnauthorized}, status: handler.ErrUnauthorized},
	{match: []error{webhook.ErrInvalidPayload}, status: handler.ErrBadRequest},
	{match: []error{webhook.ErrMissingUserID}, status: handler.ErrBadRequest},
	{match: []error{ErrPayloadTooLarge}, status: handler.ErrRequestEntityTooLarge},
	{match: []error{alerts.ErrInvalidHorizon}, status: handler.ErrBadRequest},
	{match: []error{ErrInvalidAsOf}, status: handler.ErrBadRequest},
	{match: []error{ErrInvalidDate}, status: handler.ErrBadRequest},

	{match: []error{subscription.ErrInvalidPlan}, status: errInvalidPlan},
	{match: []error{subscription.ErrAlreadySubscribed}, status: errAlreadySubscribed},
	{match: []error{subscription.ErrNoActiveSubscription}, status: errNoSubscription},
	{match: []error{subscription.ErrNotFound}, status: handler.ErrNotFound},
	{match: []error{subscription.ErrProvider}, status: errProvider},

	{match: []error{agreement.ErrNotFound}, status: handler.ErrNotFound},
	{match: []error{agreement.ErrUploadLimitReached}, status: errUploadLimit},
	{match: []error{agreement.ErrAlertsRequirePro}, status: errFeatureNotAllowed},
	{match: []error{agreement.ErrFileTooLarge}, status: errFileTooLarge},
	{match: []error{agreement.ErrFailedToStoreFile}, status: errStorage},
	{match: []error{
		agreement.ErrCounterpartyRequired,
		agreement.ErrExpirationRequired,
		agreement.ErrEffectiveAfterExpiration,
		agreement.ErrInvalidConfidentialityPeriod,
		agreement.ErrFileRequired,
		agreement.ErrNotPDF,
	}, status: errInvalidAgreement},
}

// MapError translates domain sentinels into HTTP errors. The result joins
// the matched sentinel with its status, so 4xx bodies show the sentinel's
// message and never the wrapped cause.
func MapError(err error) error {
	var httpErr handler.HTTPError
	if err == nil || errors.As(err, &httpErr) {
		return err
	}

	for _, m := range mappings {
		for _, target := range m.match {
			if !errors.Is(err, target) {
				continue
			}
			client := m.client
			if client == nil {
				client = target
			}
			return errors.Join(client, m.status)
		}
	}
	return err
}

// NewErrorHandler returns the JSON error handler shared by all routes.
func NewErrorHandler(log *slog.Logger) handler.ErrorHandler[handler.Context] {
	return handler.NewErrorHandler(log, MapError)
}
