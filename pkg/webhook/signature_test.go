package webhook_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dmitrymomot/ndavault/pkg/webhook"
)

func TestVerify(t *testing.T) {
	t.Parallel()

	secret := "whsec_test"
	payload := []byte(`{"type":"subscription.updated"}`)
	sig := webhook.Sign(secret, payload)

	tests := []struct {
		name      string
		secret    string
		payload   []byte
		signature string
		wantErr   error
	}{
		{name: "valid", secret: secret, payload: payload, signature: sig},
		{name: "valid with prefix", secret: secret, payload: payload, signature: "sha256=" + sig},
		{name: "missing signature", secret: secret, payload: payload, signature: "", wantErr: webhook.ErrMissingSignature},
		{name: "tampered payload", secret: secret, payload: []byte(`{"type":"subscription.canceled"}`), signature: sig, wantErr: webhook.ErrInvalidSignature},
		{name: "wrong secret", secret: "other", payload: payload, signature: sig, wantErr: webhook.ErrInvalidSignature},
		{name: "no secret configured", secret: "", payload: payload, signature: sig, wantErr: webhook.ErrMissingSecret},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := webhook.Verify(tt.secret, tt.payload, tt.signature)
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestSignIsDeterministic(t *testing.T) {
	t.Parallel()

	payload := []byte("hello")
	assert.Equal(t, webhook.Sign("k", payload), webhook.Sign("k", payload))
	assert.Len(t, webhook.Sign("k", payload), 64)
}
