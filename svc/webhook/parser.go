package webhook

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	webhooksig "github.com/dmitrymomot/ndavault/pkg/webhook"
)

// Parser verifies a raw webhook body and decodes it into an Event.
// Implementations return ErrUnauthorized for signature failures and
// ErrInvalidPayload for bodies that cannot be decoded.
type Parser interface {
	ParseWebhook(ctx context.Context, payload []byte, signature string) (*Event, error)
}

// HMACParser accepts the provider-neutral event format signed with a shared
// secret (hex HMAC-SHA256 of the raw body):
//
//	{"id":"evt_1","type":"subscription.created","created_at":1700000000,
//	 "data":{"id":"sub_1","status":"active","amount":"49.00",
//	         "current_period_start":1700000000,"current_period_end":1702592000,
//	         "metadata":{"user_id":"user_1"}}}
type HMACParser struct {
	secret string
}

func NewHMACParser(secret string) *HMACParser {
	return &HMACParser{secret: secret}
}

type neutralPayload struct {
	ID        string   `json:"id"`
	Type      string   `json:"type"`
	CreatedAt flexTime `json:"created_at"`
	Data      struct {
		ID                 string          `json:"id"`
		SubscriptionID     string          `json:"subscription_id"`
		Customer           string          `json:"customer"`
		Status             string          `json:"status"`
		Amount             decimal.Decimal `json:"amount"`
		CurrentPeriodStart flexTime        `json:"current_period_start"`
		CurrentPeriodEnd   flexTime        `json:"current_period_end"`
		Metadata           struct {
			UserID string `json:"user_id"`
		} `json:"metadata"`
	} `json:"data"`
}

func (p *HMACParser) ParseWebhook(_ context.Context, payload []byte, signature string) (*Event, error) {
	if err := webhooksig.Verify(p.secret, payload, signature); err != nil {
		return nil, errors.Join(ErrUnauthorized, err)
	}

	var raw neutralPayload
	if err := json.Unmarshal(payload, &raw); err != nil {
		return nil, errors.Join(ErrInvalidPayload, err)
	}
	if raw.Type == "" {
		return nil, errors.Join(ErrInvalidPayload, errors.New("event type is required"))
	}

	kind := ParseKind(raw.Type)
	e := &Event{
		ID:                 raw.ID,
		Kind:               kind,
		Type:               raw.Type,
		OccurredAt:         raw.CreatedAt.Time,
		SubscriptionID:     raw.Data.SubscriptionID,
		UserID:             raw.Data.Metadata.UserID,
		CustomerID:         raw.Data.Customer,
		Status:             raw.Data.Status,
		Amount:             raw.Data.Amount,
		CurrentPeriodStart: raw.Data.CurrentPeriodStart.ptr(),
		CurrentPeriodEnd:   raw.Data.CurrentPeriodEnd.ptr(),
	}
	// Subscription events carry the subscription as the data object itself.
	if e.SubscriptionID == "" && strings.HasPrefix(raw.Type, "subscription.") {
		e.SubscriptionID = raw.Data.ID
	}
	return e, nil
}

// flexTime decodes unix seconds, RFC 3339 strings or null.
type flexTime struct {
	time.Time
}

func (t *flexTime) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "null" {
		return nil
	}
	if secs, err := strconv.ParseInt(s, 10, 64); err == nil {
		t.Time = time.Unix(secs, 0).UTC()
		return nil
	}
	parsed, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return err
	}
	t.Time = parsed.UTC()
	return nil
}

func (t flexTime) ptr() *time.Time {
	if t.IsZero() {
		return nil
	}
	v := t.Time
	return &v
}
