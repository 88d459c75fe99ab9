package email

import (
	"context"
	"errors"
	"testing"

	"github.com/mrz1836/postmark"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePostmark struct {
	got  postmark.Email
	resp postmark.EmailResponse
	err  error
}

func (f *fakePostmark) SendEmail(_ context.Context, e postmark.Email) (postmark.EmailResponse, error) {
	f.got = e
	return f.resp, f.err
}

func TestPostmarkSend(t *testing.T) {
	t.Parallel()

	cfg := Config{SenderEmail: "alerts@example.com", SupportEmail: "support@example.com"}
	msg := Message{To: "a@example.com", Subject: "s", TextBody: "body", Tag: "nda-expiry"}

	t.Run("maps message", func(t *testing.T) {
		t.Parallel()
		fake := &fakePostmark{}
		require.NoError(t, newPostmark(fake, cfg).Send(context.Background(), msg))
		assert.Equal(t, "alerts@example.com", fake.got.From)
		assert.Equal(t, "support@example.com", fake.got.ReplyTo)
		assert.Equal(t, "a@example.com", fake.got.To)
		assert.Equal(t, "body", fake.got.TextBody)
		assert.Equal(t, "nda-expiry", fake.got.Tag)
	})

	t.Run("api error code", func(t *testing.T) {
		t.Parallel()
		fake := &fakePostmark{resp: postmark.EmailResponse{ErrorCode: 406, Message: "inactive recipient"}}
		err := newPostmark(fake, cfg).Send(context.Background(), msg)
		require.ErrorIs(t, err, ErrFailedToSendEmail)
		assert.Contains(t, err.Error(), "406")
	})

	t.Run("transport error", func(t *testing.T) {
		t.Parallel()
		fake := &fakePostmark{err: errors.New("timeout")}
		err := newPostmark(fake, cfg).Send(context.Background(), msg)
		require.ErrorIs(t, err, ErrFailedToSendEmail)
	})
}
