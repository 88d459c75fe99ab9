package alerts

import (
	"context"
	"fmt"
	"log/slog"

	"go.uber.org/multierr"

	"github.com/dmitrymomot/ndavault/pkg/email"
	"github.com/dmitrymomot/ndavault/pkg/logger"
)

// Report counts delivery results.
type Report struct {
	Sent   int `json:"sent"`
	Failed int `json:"failed"`
}

// Deliverer sends planned alerts.
type Deliverer struct {
	sender email.Sender
	log    *slog.Logger
}

func NewDeliverer(sender email.Sender, log *slog.Logger) *Deliverer {
	if sender == nil {
		panic("alerts: email sender is required")
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Deliverer{sender: sender, log: log.With(logger.Component("alerts"))}
}

// Deliver sends every preview in res. A failed message does not stop the
// rest; all failures are returned together, wrapped in ErrDeliveryFailed.
func (d *Deliverer) Deliver(ctx context.Context, res *Result) (Report, error) {
	var (
		rep  Report
		errs error
	)
	if res == nil {
		return rep, nil
	}
	for _, p := range res.EmailPreviews {
		if err := ctx.Err(); err != nil {
			return rep, multierr.Append(errs, err)
		}
		err := d.sender.Send(ctx, email.Message{
			To:       p.To,
			Subject:  p.Subject,
			TextBody: p.Body,
			HTMLBody: p.HTML,
			Tag:      "nda-expiry",
		})
		if err != nil {
			rep.Failed++
			errs = multierr.Append(errs, fmt.Errorf("send to user %s: %w", p.UserID, err))
			d.log.ErrorContext(ctx, "alert email failed", logger.UserID(p.UserID), logger.Error(err))
			continue
		}
		rep.Sent++
	}
	if errs != nil {
		return rep, fmt.Errorf("%w: %w", ErrDeliveryFailed, errs)
	}
	return rep, nil
}
