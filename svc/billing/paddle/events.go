package paddle

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/dmitrymomot/ndavault/svc/webhook"
)

// SignatureHeader carries the Paddle webhook signature.
const SignatureHeader = "Paddle-Signature"

var eventKinds = map[string]webhook.Kind{
	"subscription.created":       webhook.KindSubscriptionCreated,
	"subscription.updated":       webhook.KindSubscriptionUpdated,
	"subscription.activated":     webhook.KindPaymentSucceeded,
	"subscription.resumed":       webhook.KindPaymentSucceeded,
	"subscription.canceled":      webhook.KindSubscriptionCanceled,
	"subscription.past_due":      webhook.KindPaymentFailed,
	"transaction.completed":      webhook.KindInvoicePaymentSucceeded,
	"transaction.paid":           webhook.KindInvoicePaymentSucceeded,
	"transaction.payment_failed": webhook.KindInvoicePaymentFailed,
}

var _ webhook.Parser = (*Provider)(nil)

// KindOf maps a Paddle event type to a dispatcher kind. Neutral kind names
// pass through unchanged.
func KindOf(eventType string) webhook.Kind {
	if k, ok := eventKinds[eventType]; ok {
		return k
	}
	return webhook.ParseKind(eventType)
}

type notification struct {
	EventID    string    `json:"event_id"`
	EventType  string    `json:"event_type"`
	OccurredAt time.Time `json:"occurred_at"`
	Data       struct {
		ID             string         `json:"id"`
		SubscriptionID string         `json:"subscription_id"`
		CustomerID     string         `json:"customer_id"`
		Status         string         `json:"status"`
		CustomData     map[string]any `json:"custom_data"`
		CurrentPeriod  *period        `json:"current_billing_period"`
		BillingPeriod  *period        `json:"billing_period"`
		Items          []item         `json:"items"`
		Details        *txnDetails    `json:"details"`
	} `json:"data"`
}

type period struct {
	StartsAt time.Time `json:"starts_at"`
	EndsAt   time.Time `json:"ends_at"`
}

type item struct {
	Quantity int `json:"quantity"`
	Price    struct {
		UnitPrice struct {
			Amount string `json:"amount"`
		} `json:"unit_price"`
	} `json:"price"`
}

type txnDetails struct {
	Totals struct {
		Total string `json:"total"`
	} `json:"totals"`
}

// ParseWebhook verifies the Paddle-Signature header and decodes the
// notification into a neutral event.
func (p *Provider) ParseWebhook(ctx context.Context, payload []byte, signature string) (*webhook.Event, error) {
	if signature == "" {
		return nil, errors.Join(webhook.ErrUnauthorized, errors.New("missing paddle signature"))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, "/webhooks/paddle", bytes.NewReader(payload))
	if err != nil {
		return nil, errors.Join(webhook.ErrInvalidPayload, err)
	}
	req.Header.Set(SignatureHeader, signature)

	valid, err := p.verifier.Verify(req)
	if err != nil {
		return nil, errors.Join(webhook.ErrUnauthorized, err)
	}
	if !valid {
		return nil, errors.Join(webhook.ErrUnauthorized, errors.New("paddle signature mismatch"))
	}

	return decode(payload)
}

func decode(payload []byte) (*webhook.Event, error) {
	var n notification
	if err := json.Unmarshal(payload, &n); err != nil {
		return nil, errors.Join(webhook.ErrInvalidPayload, err)
	}
	if n.EventType == "" {
		return nil, errors.Join(webhook.ErrInvalidPayload, errors.New("event_type is required"))
	}

	e := &webhook.Event{
		ID:         n.EventID,
		Kind:       KindOf(n.EventType),
		Type:       n.EventType,
		OccurredAt: n.OccurredAt,
		CustomerID: n.Data.CustomerID,
		Status:     n.Data.Status,
	}
	if uid, ok := n.Data.CustomData["user_id"].(string); ok {
		e.UserID = uid
	}

	switch {
	case strings.HasPrefix(n.EventType, "subscription."):
		e.SubscriptionID = n.Data.ID
		e.Amount = itemsTotal(n.Data.Items)
		if pr := n.Data.CurrentPeriod; pr != nil {
			e.CurrentPeriodStart = timePtr(pr.StartsAt)
			e.CurrentPeriodEnd = timePtr(pr.EndsAt)
		}
	default:
		// Transactions reference the subscription they bill, if any.
		e.SubscriptionID = n.Data.SubscriptionID
		if d := n.Data.Details; d != nil {
			e.Amount = parseAmount(d.Totals.Total)
		}
		if pr := n.Data.BillingPeriod; pr != nil {
			e.CurrentPeriodStart = timePtr(pr.StartsAt)
			e.CurrentPeriodEnd = timePtr(pr.EndsAt)
		}
	}
	return e, nil
}

// itemsTotal sums unit price times quantity, in the currency's minor unit.
func itemsTotal(items []item) decimal.Decimal {
	total := decimal.Zero
	for _, it := range items {
		qty := max(it.Quantity, 1)
		total = total.Add(parseAmount(it.Price.UnitPrice.Amount).Mul(decimal.NewFromInt(int64(qty))))
	}
	return total
}

func parseAmount(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

func timePtr(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	t = t.UTC()
	return &t
}
