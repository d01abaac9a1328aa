package ports

// Package ports defines interfaces (hexagonal ports) for the external
// collaborators of the presence gateway. Implementations live in
// internal/adapters and internal/data; orchestration in internal/presence.

import (
	"context"

	"github.com/lumenplay/presenced/internal/domain/model"
)

// TokenVerifier checks a platform access token and returns the subject
// account id. Expired or malformed tokens must be rejected.
type TokenVerifier interface {
	Verify(ctx context.Context, token string) (accountID string, err error)
}

// AccountStore looks up platform accounts.
type AccountStore interface {
	// FindByID returns the account or data.ErrAccountNotFound.
	FindByID(ctx context.Context, accountID string) (model.Account, error)
}

// FriendsStore lists accepted friendships.
type FriendsStore interface {
	// ListAcceptedFriendIDs returns the union of both directions of
	// accepted friendships for the account.
	ListAcceptedFriendIDs(ctx context.Context, accountID string) ([]string, error)
}

// PresenceMirror publishes best-effort presence snapshots for sibling
// subsystems. Routing never reads from it.
type PresenceMirror interface {
	Publish(ctx context.Context, rec model.MirrorRecord) error
	Clear(ctx context.Context, accountID string) error
	Get(ctx context.Context, accountID string) (model.MirrorRecord, error)
}
