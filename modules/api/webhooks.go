package api

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/dmitrymomot/ndavault/handler"
	"github.com/dmitrymomot/ndavault/svc/webhook"
)

// maxWebhookBody bounds inbound webhook payloads.
const maxWebhookBody = 1 << 20

// Dispatcher verifies and applies a raw webhook delivery.
type Dispatcher interface {
	Handle(ctx context.Context, p webhook.Parser, payload []byte, signature string) (webhook.Outcome, error)
}

// WebhookSource is one provider endpoint: the parser that verifies its
// deliveries and the header carrying the signature.
type WebhookSource struct {
	Name            string
	Parser          webhook.Parser
	SignatureHeader string
}

// Webhooks mounts POST /{name} for every configured source.
type Webhooks struct {
	dispatcher   Dispatcher
	sources      []WebhookSource
	errorHandler handler.ErrorHandler[handler.Context]
}

func NewWebhooks(d Dispatcher, eh handler.ErrorHandler[handler.Context], sources ...WebhookSource) *Webhooks {
	if d == nil {
		panic("api: webhook dispatcher is required")
	}
	for _, s := range sources {
		if s.Name == "" || s.Parser == nil || s.SignatureHeader == "" {
			panic("api: webhook source needs a name, a parser and a signature header")
		}
	}
	return &Webhooks{dispatcher: d, sources: sources, errorHandler: eh}
}

func (wh *Webhooks) Handle() http.Handler {
	r := chi.NewRouter()
	for _, src := range wh.sources {
		r.Post("/"+src.Name, wrap(wh.receive(src), wh.errorHandler))
	}
	return r
}

type receivedResponse struct {
	Received bool `json:"received"`
}

// receive answers 200 for every verified event, including ones that were
// ignored or stale, so the provider stops redelivering them. Store failures
// answer 500 to get a retry.
func (wh *Webhooks) receive(src WebhookSource) handler.HandlerFunc[handler.Context, struct{}] {
	return func(ctx handler.Context, _ struct{}) handler.Response {
		r := ctx.Request()
		payload, err := io.ReadAll(http.MaxBytesReader(ctx.ResponseWriter(), r.Body, maxWebhookBody))
		if err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				return handler.JSONError(errors.Join(ErrPayloadTooLarge, err))
			}
			return handler.JSONError(errors.Join(webhook.ErrInvalidPayload, err))
		}

		if _, err := wh.dispatcher.Handle(ctx, src.Parser, payload, r.Header.Get(src.SignatureHeader)); err != nil {
			return handler.JSONError(err)
		}
		return handler.JSON(receivedResponse{Received: true})
	}
}
