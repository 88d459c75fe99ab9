package logger_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/ndavault/pkg/logger"
)

type ctxKey struct{}

func decode(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	return entry
}

func TestNew(t *testing.T) {
	t.Parallel()

	t.Run("json by default", func(t *testing.T) {
		t.Parallel()
		buf := &bytes.Buffer{}
		log := logger.New(logger.WithOutput(buf))
		log.Info("hello")

		entry := decode(t, buf)
		assert.Equal(t, "INFO", entry["level"])
		assert.Equal(t, "hello", entry["msg"])
	})

	t.Run("text formatter", func(t *testing.T) {
		t.Parallel()
		buf := &bytes.Buffer{}
		log := logger.New(logger.WithOutput(buf), logger.WithTextFormatter())
		log.Info("hello")
		assert.Contains(t, buf.String(), "msg=hello")
	})

	t.Run("level filters records", func(t *testing.T) {
		t.Parallel()
		buf := &bytes.Buffer{}
		log := logger.New(logger.WithOutput(buf), logger.WithLevel(slog.LevelWarn))
		log.Info("dropped")
		assert.Empty(t, buf.String())
	})
}

func TestWithEnvironment(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		env      string
		wantJSON bool
		wantEnv  string
	}{
		{name: "production", env: "production", wantJSON: true, wantEnv: "production"},
		{name: "prod alias", env: "prod", wantJSON: true, wantEnv: "production"},
		{name: "staging", env: "staging", wantJSON: true, wantEnv: "staging"},
		{name: "unknown falls back to development", env: "local", wantJSON: false, wantEnv: "development"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			buf := &bytes.Buffer{}
			log := logger.New(logger.WithOutput(buf), logger.WithEnvironment(tt.env, "ndavault"))
			log.Warn("ping")

			if tt.wantJSON {
				entry := decode(t, buf)
				assert.Equal(t, "ndavault", entry["service"])
				assert.Equal(t, tt.wantEnv, entry["env"])
				return
			}
			out := buf.String()
			assert.True(t, strings.Contains(out, "env="+tt.wantEnv), out)
			assert.Contains(t, out, "service=ndavault")
		})
	}
}

func TestContextExtractors(t *testing.T) {
	t.Parallel()

	buf := &bytes.Buffer{}
	log := logger.New(
		logger.WithOutput(buf),
		logger.WithContextExtractors(func(ctx context.Context) (slog.Attr, bool) {
			v, ok := ctx.Value(ctxKey{}).(string)
			if !ok {
				return slog.Attr{}, false
			}
			return logger.RequestID(v), true
		}),
	)

	ctx := context.WithValue(context.Background(), ctxKey{}, "req-42")
	log.With(logger.Component("webhook")).InfoContext(ctx, "handled")

	entry := decode(t, buf)
	assert.Equal(t, "req-42", entry["request_id"])
	assert.Equal(t, "webhook", entry["component"])
}

func TestAttrs(t *testing.T) {
	t.Parallel()

	assert.Equal(t, slog.Attr{}, logger.Error(nil))
	assert.Equal(t, slog.Attr{}, logger.UserID(""))
	assert.Equal(t, "user_id", logger.UserID("u1").Key)
	assert.Equal(t, "external_id", logger.SubscriptionID("sub_1").Key)

	err := errors.New("boom")
	attr := logger.Error(err)
	assert.Equal(t, "error", attr.Key)
	assert.Equal(t, err, attr.Value.Any())
}
