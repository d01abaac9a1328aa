package data

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/lumenplay/presenced/internal/data/pgxutil"
	"github.com/lumenplay/presenced/internal/domain/model"
)

// AccountRepo provides read-only database operations for platform accounts.
// The presence gateway never writes account rows; account lifecycle belongs
// to the account service.
type AccountRepo struct {
	DB *sql.DB
}

// NewAccountRepo creates a new AccountRepo.
func NewAccountRepo(db *sql.DB) *AccountRepo {
	return &AccountRepo{DB: db}
}

const accountGetByIDQuery = `
	SELECT id, display_name, banned
	FROM accounts
	WHERE id = $1
`

type accountRow struct {
	ID          string `db:"id"`
	DisplayName string `db:"display_name"`
	Banned      bool   `db:"banned"`
}

// FindByID retrieves an account snapshot by id.
func (r *AccountRepo) FindByID(ctx context.Context, accountID string) (model.Account, error) {
	accountID = strings.TrimSpace(accountID)
	if accountID == "" {
		return model.Account{}, ErrAccountIDRequired
	}

	var row accountRow
	if err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, accountGetByIDQuery, accountID)
		if err != nil {
			return err
		}
		defer rows.Close()
		row, err = pgx.CollectOneRow(rows, pgx.RowToStructByName[accountRow])
		return err
	}); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Account{}, ErrAccountNotFound
		}
		return model.Account{}, fmt.Errorf("failed to get account by id: %w", err)
	}

	return model.Account{
		ID:          row.ID,
		DisplayName: row.DisplayName,
		Banned:      row.Banned,
	}, nil
}
