package agreement

import (
	"time"

	"github.com/google/uuid"
)

// Agreement is an uploaded NDA with its tracking metadata.
type Agreement struct {
	ID                    uuid.UUID  `json:"id"`
	UserID                string     `json:"user_id"`
	FileName              string     `json:"file_name"`
	FilePath              string     `json:"file_path"`
	FileSize              int64      `json:"file_size"`
	CounterpartyName      string     `json:"counterparty_name"`
	EffectiveDate         *time.Time `json:"effective_date"`
	ExpirationDate        time.Time  `json:"expiration_date"`
	ConfidentialityPeriod *int       `json:"confidentiality_period"`
	Status                Status     `json:"status"`
	AlertEnabled          bool       `json:"alert_enabled"`
	CreatedAt             time.Time  `json:"created_at"`
	UpdatedAt             time.Time  `json:"updated_at"`
}

// Refresh recomputes the cached status and reports whether it changed.
func (a *Agreement) Refresh(asOf time.Time) bool {
	next := Classify(a.ExpirationDate, asOf)
	if next == a.Status {
		return false
	}
	a.Status = next
	return true
}

// Terms holds the editable metadata shared by uploads and edits.
type Terms struct {
	CounterpartyName      string
	EffectiveDate         *time.Time
	ExpirationDate        time.Time
	ConfidentialityPeriod *int
}

func (t Terms) validate() error {
	if t.CounterpartyName == "" {
		return ErrCounterpartyRequired
	}
	if t.ExpirationDate.IsZero() {
		return ErrExpirationRequired
	}
	if t.EffectiveDate != nil && !Date(*t.EffectiveDate).Before(Date(t.ExpirationDate)) {
		return ErrEffectiveAfterExpiration
	}
	if t.ConfidentialityPeriod != nil && *t.ConfidentialityPeriod <= 0 {
		return ErrInvalidConfidentialityPeriod
	}
	return nil
}

func (t Terms) applyTo(a *Agreement) {
	a.CounterpartyName = t.CounterpartyName
	a.ExpirationDate = Date(t.ExpirationDate)
	a.EffectiveDate = nil
	if t.EffectiveDate != nil {
		d := Date(*t.EffectiveDate)
		a.EffectiveDate = &d
	}
	a.ConfidentialityPeriod = t.ConfidentialityPeriod
}
