package subscription

import "context"

// Store persists the authoritative local copy of each user's subscription.
// Uniqueness is enforced on both the user id and the external id.
type Store interface {
	// Get returns ErrNotFound when the user has no record.
	Get(ctx context.Context, userID string) (*Subscription, error)

	// EnsureDefault returns the user's record, creating a free/active one if
	// none exists. Concurrent calls for the same user yield one record.
	// A non-empty email refreshes the stored recipient address.
	EnsureDefault(ctx context.Context, userID, email string) (*Subscription, error)

	// UpsertByUser creates or updates the user's record.
	// Returns ErrStaleEvent, together with the current record, when f.EventAt is
	// older than the last applied event.
	UpsertByUser(ctx context.Context, userID string, f Fields) (*Subscription, error)

	// UpsertByExternalID updates the record carrying the external id. When no
	// record matches it creates one for f.UserID, or returns ErrNotFound if
	// f.UserID is empty. Staleness is handled as in UpsertByUser.
	UpsertByExternalID(ctx context.Context, externalID string, f Fields) (*Subscription, error)
}
