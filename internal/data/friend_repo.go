package data

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/lumenplay/presenced/internal/data/pgxutil"
)

// FriendRepo provides read-only database operations for friendships.
type FriendRepo struct {
	DB *sql.DB
}

// NewFriendRepo creates a new FriendRepo.
func NewFriendRepo(db *sql.DB) *FriendRepo {
	return &FriendRepo{DB: db}
}

// A friendship row exists once per pair; either side may be the requester,
// so the accepted set is the union of both directions.
const friendListAcceptedQuery = `
	SELECT CASE WHEN requester_id = $1 THEN addressee_id ELSE requester_id END AS friend_id
	FROM friendships
	WHERE status = 'accepted'
	  AND (requester_id = $1 OR addressee_id = $1)
`

// ListAcceptedFriendIDs returns the account ids of all accepted friends.
func (r *FriendRepo) ListAcceptedFriendIDs(ctx context.Context, accountID string) ([]string, error) {
	accountID = strings.TrimSpace(accountID)
	if accountID == "" {
		return nil, ErrAccountIDRequired
	}

	var ids []string
	if err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, friendListAcceptedQuery, accountID)
		if err != nil {
			return err
		}
		defer rows.Close()
		ids, err = pgx.CollectRows(rows, pgx.RowTo[string])
		return err
	}); err != nil {
		return nil, fmt.Errorf("failed to list accepted friends: %w", err)
	}

	return ids, nil
}
