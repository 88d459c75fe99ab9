package email_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/ndavault/pkg/email"
	"github.com/dmitrymomot/ndavault/pkg/logger"
)

func TestMessageValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		msg     email.Message
		wantErr bool
	}{
		{"text body", email.Message{To: "a@example.com", Subject: "s", TextBody: "hi"}, false},
		{"html body", email.Message{To: "a@example.com", Subject: "s", HTMLBody: "<p>hi</p>"}, false},
		{"no body", email.Message{To: "a@example.com", Subject: "s"}, true},
		{"bad recipient", email.Message{To: "user_123", Subject: "s", TextBody: "hi"}, true},
		{"no subject", email.Message{To: "a@example.com", TextBody: "hi"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := tt.msg.Validate()
			if tt.wantErr {
				require.ErrorIs(t, err, email.ErrInvalidMessage)
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestNewSelectsSender(t *testing.T) {
	t.Parallel()

	s, err := email.New(email.Config{PostmarkServerToken: "tok", SenderEmail: "alerts@example.com"}, logger.Nop())
	require.NoError(t, err)
	assert.IsType(t, &email.Postmark{}, s)

	s, err = email.New(email.Config{DevDir: t.TempDir()}, logger.Nop())
	require.NoError(t, err)
	assert.IsType(t, &email.DevSender{}, s)

	s, err = email.New(email.Config{}, nil)
	require.NoError(t, err)
	assert.IsType(t, &email.LogSender{}, s)
}

func TestNewPostmarkInvalidConfig(t *testing.T) {
	t.Parallel()

	_, err := email.NewPostmark(email.Config{SenderEmail: "alerts@example.com"})
	require.ErrorIs(t, err, email.ErrInvalidConfig)

	_, err = email.NewPostmark(email.Config{PostmarkServerToken: "tok", SenderEmail: "not-an-address"})
	require.ErrorIs(t, err, email.ErrInvalidConfig)
}

func TestDevSender(t *testing.T) {
	t.Parallel()

	dir := filepath.Join(t.TempDir(), "mail")
	s := email.NewDevSender(dir)

	err := s.Send(context.Background(), email.Message{
		To:       "a@example.com",
		Subject:  "1 NDA expires in 30 days",
		TextBody: "Hi,",
		Tag:      "nda-expiry",
	})
	require.NoError(t, err)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	var txt string
	for _, e := range entries {
		if strings.HasSuffix(e.Name(), ".txt") {
			txt = e.Name()
		}
	}
	require.NotEmpty(t, txt)
	body, err := os.ReadFile(filepath.Join(dir, txt))
	require.NoError(t, err)
	assert.Equal(t, "Hi,", string(body))

	err = s.Send(context.Background(), email.Message{To: "bad", Subject: "x", TextBody: "y"})
	require.ErrorIs(t, err, email.ErrInvalidMessage)
}

func TestLogSender(t *testing.T) {
	t.Parallel()
	s := email.NewLogSender(logger.Nop())
	require.NoError(t, s.Send(context.Background(), email.Message{To: "a@example.com", Subject: "s", TextBody: "b"}))
}
