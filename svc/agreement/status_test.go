package agreement_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/dmitrymomot/ndavault/svc/agreement"
)

func TestClassify(t *testing.T) {
	t.Parallel()

	asOf := time.Date(2026, 1, 15, 14, 30, 0, 0, time.UTC)

	tests := []struct {
		name   string
		offset int
		want   agreement.Status
	}{
		{name: "long expired", offset: -400, want: agreement.StatusExpired},
		{name: "expired yesterday", offset: -1, want: agreement.StatusExpired},
		{name: "expires today", offset: 0, want: agreement.StatusExpiringSoon},
		{name: "expires tomorrow", offset: 1, want: agreement.StatusExpiringSoon},
		{name: "exactly thirty days", offset: 30, want: agreement.StatusExpiringSoon},
		{name: "thirty one days", offset: 31, want: agreement.StatusActive},
		{name: "far future", offset: 3650, want: agreement.StatusActive},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			expiration := asOf.AddDate(0, 0, tt.offset)
			assert.Equal(t, tt.want, agreement.Classify(expiration, asOf))
		})
	}
}

func TestClassifyIgnoresTimeOfDay(t *testing.T) {
	t.Parallel()

	asOf := time.Date(2026, 1, 15, 23, 59, 0, 0, time.UTC)
	expiration := time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, agreement.StatusExpiringSoon, agreement.Classify(expiration, asOf))

	// Month and leap-year boundaries count calendar days.
	asOf = time.Date(2028, 2, 1, 8, 0, 0, 0, time.UTC)
	assert.Equal(t, agreement.StatusExpiringSoon, agreement.Classify(time.Date(2028, 3, 2, 0, 0, 0, 0, time.UTC), asOf))
	assert.Equal(t, agreement.StatusActive, agreement.Classify(time.Date(2028, 3, 3, 0, 0, 0, 0, time.UTC), asOf))
}

func TestClassifyProperty(t *testing.T) {
	t.Parallel()

	base := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	for offset := -60; offset <= 60; offset++ {
		e := base.AddDate(0, 0, offset)
		got := agreement.Classify(e, base)
		switch {
		case e.Before(base):
			assert.Equal(t, agreement.StatusExpired, got, offset)
		case e.After(base.AddDate(0, 0, 30)):
			assert.Equal(t, agreement.StatusActive, got, offset)
		default:
			assert.Equal(t, agreement.StatusExpiringSoon, got, offset)
		}
	}
}

func TestDaysBetween(t *testing.T) {
	t.Parallel()

	a := time.Date(2026, 3, 1, 23, 0, 0, 0, time.UTC)
	b := time.Date(2026, 3, 2, 1, 0, 0, 0, time.UTC)
	assert.Equal(t, 1, agreement.DaysBetween(a, b))
	assert.Equal(t, -1, agreement.DaysBetween(b, a))
	assert.Equal(t, 0, agreement.DaysBetween(a, a))
}
