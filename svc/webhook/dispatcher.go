package webhook

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dmitrymomot/ndavault/pkg/logger"
	"github.com/dmitrymomot/ndavault/pkg/metrics"
	"github.com/dmitrymomot/ndavault/svc/plan"
	"github.com/dmitrymomot/ndavault/svc/subscription"
)

// Outcome describes what a dispatched event did to local state.
type Outcome string

const (
	OutcomeApplied   Outcome = "applied"
	OutcomeIgnored   Outcome = "ignored"
	OutcomeStale     Outcome = "stale"
	OutcomeUnmatched Outcome = "unmatched"
	OutcomeDuplicate Outcome = "duplicate"
	OutcomeRejected  Outcome = "rejected"
	OutcomeFailed    Outcome = "failed"
)

type handlerFunc func(ctx context.Context, e *Event) (Outcome, error)

// Dispatcher routes verified events to subscription state transitions.
type Dispatcher struct {
	store    subscription.Store
	handlers map[Kind]handlerFunc
	guard    *IdempotencyGuard
	metrics  *metrics.Webhook
	log      *slog.Logger
}

// DispatcherOption configures a Dispatcher.
type DispatcherOption func(*Dispatcher)

func WithLogger(l *slog.Logger) DispatcherOption {
	return func(d *Dispatcher) {
		if l != nil {
			d.log = l
		}
	}
}

// WithIdempotencyGuard skips events whose id was seen recently.
func WithIdempotencyGuard(g *IdempotencyGuard) DispatcherOption {
	return func(d *Dispatcher) { d.guard = g }
}

func WithMetrics(m *metrics.Webhook) DispatcherOption {
	return func(d *Dispatcher) { d.metrics = m }
}

// NewDispatcher panics if store is nil or if any Kind lacks a handler.
func NewDispatcher(store subscription.Store, opts ...DispatcherOption) *Dispatcher {
	if store == nil {
		panic(ErrNilStore)
	}
	d := &Dispatcher{store: store, log: logger.Nop()}
	for _, opt := range opts {
		opt(d)
	}
	d.log = d.log.With(logger.Component("webhook"))

	d.handlers = map[Kind]handlerFunc{
		KindSubscriptionCreated:     d.onCreated,
		KindSubscriptionUpdated:     d.onUpdated,
		KindSubscriptionCanceled:    d.forceStatus(subscription.StatusCanceled, true),
		KindPaymentSucceeded:        d.forceStatus(subscription.StatusActive, true),
		KindPaymentFailed:           d.forceStatus(subscription.StatusPastDue, true),
		KindInvoicePaymentSucceeded: d.forceStatus(subscription.StatusActive, false),
		KindInvoicePaymentFailed:    d.forceStatus(subscription.StatusPastDue, false),
	}
	for _, k := range Kinds() {
		if d.handlers[k] == nil {
			panic(fmt.Sprintf("webhook: no handler registered for %s", k))
		}
	}
	return d
}

// Handle verifies payload with p and dispatches the resulting event.
// Signature and decoding failures are returned untouched so callers can map
// ErrUnauthorized and ErrInvalidPayload to transport errors.
func (d *Dispatcher) Handle(ctx context.Context, p Parser, payload []byte, signature string) (Outcome, error) {
	if p == nil {
		return OutcomeRejected, ErrNilParser
	}
	e, err := p.ParseWebhook(ctx, payload, signature)
	if err != nil {
		d.metrics.Observe("", string(OutcomeRejected), 0)
		d.log.WarnContext(ctx, "webhook rejected", logger.Error(err))
		return OutcomeRejected, err
	}
	return d.Dispatch(ctx, e)
}

// Dispatch applies a verified event. Unknown kinds, stale events and events
// for subscriptions the service does not know are logged and reported as
// success so the provider stops redelivering them.
func (d *Dispatcher) Dispatch(ctx context.Context, e *Event) (Outcome, error) {
	start := time.Now()
	log := d.log.With(logger.EventID(e.ID), logger.EventType(e.Type))

	outcome, err := d.dispatch(ctx, e, log)

	d.metrics.Observe(e.Kind.String(), string(outcome), time.Since(start))
	switch {
	case err != nil:
		log.ErrorContext(ctx, "webhook processing failed", logger.Error(err))
	case outcome == OutcomeApplied:
		log.InfoContext(ctx, "webhook applied", logger.SubscriptionID(e.SubscriptionID))
	default:
		log.InfoContext(ctx, "webhook skipped",
			slog.String("outcome", string(outcome)),
			logger.SubscriptionID(e.SubscriptionID),
		)
	}
	return outcome, err
}

func (d *Dispatcher) dispatch(ctx context.Context, e *Event, log *slog.Logger) (Outcome, error) {
	h, ok := d.handlers[e.Kind]
	if !ok {
		return OutcomeIgnored, nil
	}

	if d.guard != nil && e.ID != "" {
		dup, err := d.guard.CheckAndMark(ctx, e.ID)
		switch {
		case err != nil:
			log.WarnContext(ctx, "webhook dedupe unavailable", logger.Error(err))
		case dup:
			return OutcomeDuplicate, nil
		}
	}

	outcome, err := h(ctx, e)
	if err != nil {
		if d.guard != nil && e.ID != "" {
			if delErr := d.guard.Delete(ctx, e.ID); delErr != nil {
				log.WarnContext(ctx, "failed to release webhook dedupe key", logger.Error(delErr))
			}
		}
		return OutcomeFailed, err
	}
	return outcome, nil
}

func (d *Dispatcher) onCreated(ctx context.Context, e *Event) (Outcome, error) {
	if e.SubscriptionID == "" {
		return OutcomeIgnored, nil
	}

	planID := plan.Free
	if e.Amount.IsPositive() {
		planID = plan.Pro
	}

	f := subscription.Fields{
		UserID:             e.UserID,
		PlanType:           &planID,
		CurrentPeriodStart: e.CurrentPeriodStart,
		CurrentPeriodEnd:   e.CurrentPeriodEnd,
		EventAt:            e.eventAt(),
	}
	if e.Status != "" {
		status := subscription.NormalizeStatus(e.Status)
		f.Status = &status
	}
	if e.CustomerID != "" {
		f.CustomerID = &e.CustomerID
	}
	// A free subscription never keeps a provider reference.
	if planID == plan.Free {
		f.ClearExternalID = true
	}

	_, err := d.store.UpsertByExternalID(ctx, e.SubscriptionID, f)
	return outcomeOf(err)
}

func (d *Dispatcher) onUpdated(ctx context.Context, e *Event) (Outcome, error) {
	if e.SubscriptionID == "" {
		return OutcomeIgnored, nil
	}
	f := subscription.Fields{
		CurrentPeriodStart: e.CurrentPeriodStart,
		CurrentPeriodEnd:   e.CurrentPeriodEnd,
		EventAt:            e.eventAt(),
	}
	if e.Status != "" {
		status := subscription.NormalizeStatus(e.Status)
		f.Status = &status
	}
	_, err := d.store.UpsertByExternalID(ctx, e.SubscriptionID, f)
	return outcomeOf(err)
}

// forceStatus sets status regardless of the payload's own status field.
// Subscription events also carry the billing period; invoice events do not.
func (d *Dispatcher) forceStatus(status subscription.Status, withPeriod bool) handlerFunc {
	return func(ctx context.Context, e *Event) (Outcome, error) {
		if e.SubscriptionID == "" {
			return OutcomeIgnored, nil
		}
		f := subscription.Fields{Status: &status, EventAt: e.eventAt()}
		if withPeriod {
			f.CurrentPeriodStart = e.CurrentPeriodStart
			f.CurrentPeriodEnd = e.CurrentPeriodEnd
		}
		_, err := d.store.UpsertByExternalID(ctx, e.SubscriptionID, f)
		return outcomeOf(err)
	}
}

func outcomeOf(err error) (Outcome, error) {
	switch {
	case err == nil:
		return OutcomeApplied, nil
	case errors.Is(err, subscription.ErrStaleEvent):
		return OutcomeStale, nil
	case errors.Is(err, subscription.ErrNotFound):
		return OutcomeUnmatched, nil
	default:
		return OutcomeFailed, err
	}
}
