package email

import (
	"context"
	"errors"
	"fmt"

	"github.com/mrz1836/postmark"
)

// postmarkAPI is the slice of the Postmark client used by Postmark.
type postmarkAPI interface {
	SendEmail(ctx context.Context, email postmark.Email) (postmark.EmailResponse, error)
}

// Postmark sends through the Postmark transactional API.
type Postmark struct {
	client postmarkAPI
	from   string
	reply  string
}

// NewPostmark validates cfg and builds a Postmark sender.
func NewPostmark(cfg Config) (*Postmark, error) {
	if cfg.PostmarkServerToken == "" {
		return nil, fmt.Errorf("%w: POSTMARK_SERVER_TOKEN is required", ErrInvalidConfig)
	}
	if err := validate.Var(cfg.SenderEmail, "required,email"); err != nil {
		return nil, fmt.Errorf("%w: SENDER_EMAIL must be a valid address", ErrInvalidConfig)
	}
	if err := validate.Var(cfg.SupportEmail, "omitempty,email"); err != nil {
		return nil, fmt.Errorf("%w: SUPPORT_EMAIL must be a valid address", ErrInvalidConfig)
	}
	return newPostmark(postmark.NewClient(cfg.PostmarkServerToken, cfg.PostmarkAccountToken), cfg), nil
}

func newPostmark(client postmarkAPI, cfg Config) *Postmark {
	return &Postmark{client: client, from: cfg.SenderEmail, reply: cfg.SupportEmail}
}

// Send delivers msg. Replies go to the support address.
func (p *Postmark) Send(ctx context.Context, msg Message) error {
	if err := msg.Validate(); err != nil {
		return err
	}

	resp, err := p.client.SendEmail(ctx, postmark.Email{
		From:       p.from,
		ReplyTo:    p.reply,
		To:         msg.To,
		Subject:    msg.Subject,
		Tag:        msg.Tag,
		HTMLBody:   msg.HTMLBody,
		TextBody:   msg.TextBody,
		TrackOpens: true,
		TrackLinks: "HtmlOnly",
	})
	if err != nil {
		return errors.Join(ErrFailedToSendEmail, err)
	}
	if resp.ErrorCode > 0 {
		return errors.Join(
			ErrFailedToSendEmail,
			fmt.Errorf("postmark error: %d - %s", resp.ErrorCode, resp.Message),
		)
	}
	return nil
}
