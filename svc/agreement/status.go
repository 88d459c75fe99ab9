package agreement

import "time"

// Status is the lifecycle state derived from an agreement's expiration date.
type Status string

const (
	StatusActive       Status = "active"
	StatusExpiringSoon Status = "expiring_soon"
	StatusExpired      Status = "expired"
)

// ExpiringSoonDays is the inclusive window, in days, in which an agreement is expiring soon.
const ExpiringSoonDays = 30

// Classify derives the status of an agreement expiring on expiration as of asOf.
// Both dates are compared as UTC calendar days. An agreement expiring today is
// expiring soon, not expired.
func Classify(expiration, asOf time.Time) Status {
	d := DaysBetween(asOf, expiration)
	switch {
	case d < 0:
		return StatusExpired
	case d <= ExpiringSoonDays:
		return StatusExpiringSoon
	default:
		return StatusActive
	}
}

// DaysBetween counts whole calendar days from a to b; negative when b is before a.
func DaysBetween(a, b time.Time) int {
	return int(Date(b).Sub(Date(a)).Hours() / 24)
}

// Date truncates t to midnight UTC of its UTC calendar day.
func Date(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
