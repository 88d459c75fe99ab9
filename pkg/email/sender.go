package email

import (
	"context"
	"errors"
	"log/slog"

	"github.com/go-playground/validator/v10"
)

// Sender delivers a single message.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// Message is one outbound e-mail. At least one body is required.
type Message struct {
	To       string `json:"to" validate:"required,email"`
	Subject  string `json:"subject" validate:"required"`
	TextBody string `json:"text_body,omitempty" validate:"required_without=HTMLBody"`
	HTMLBody string `json:"html_body,omitempty" validate:"required_without=TextBody"`
	Tag      string `json:"tag,omitempty"`
}

var validate = validator.New()

// Validate reports ErrInvalidMessage when a field is missing or malformed.
func (m Message) Validate() error {
	if err := validate.Struct(m); err != nil {
		return errors.Join(ErrInvalidMessage, err)
	}
	return nil
}

// New returns the sender configured by cfg.
func New(cfg Config, log *slog.Logger) (Sender, error) {
	switch {
	case cfg.PostmarkServerToken != "":
		return NewPostmark(cfg)
	case cfg.DevDir != "":
		return NewDevSender(cfg.DevDir), nil
	default:
		return NewLogSender(log), nil
	}
}
