package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/m3rciful/searchbot/bot/domain"
)

// Commands persists per-user saved search commands. All lookups key on the
// owner's internal user id, never the chat identity.
type Commands struct {
	db *sqlx.DB
}

// NewCommands builds the command repository over an open connection pool.
func NewCommands(db *sqlx.DB) *Commands {
	return &Commands{db: db}
}

// Get loads one command by owner and command string.
func (r *Commands) Get(ctx context.Context, userID int64, command string) (*domain.SearchCommand, error) {
	var c domain.SearchCommand
	err := r.db.GetContext(ctx, &c,
		`SELECT id, user_id, command, keyword, description
		   FROM search_commands WHERE user_id = $1 AND command = $2`,
		userID, command)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrCommandNotFound
		}
		return nil, fmt.Errorf("get command %q: %w", command, err)
	}
	return &c, nil
}

// Exists reports whether the owner already saved this command string.
func (r *Commands) Exists(ctx context.Context, userID int64, command string) (bool, error) {
	var exists bool
	err := r.db.GetContext(ctx, &exists,
		`SELECT EXISTS(SELECT 1 FROM search_commands WHERE user_id = $1 AND command = $2)`,
		userID, command)
	if err != nil {
		return false, fmt.Errorf("command exists %q: %w", command, err)
	}
	return exists, nil
}

// Insert stores a new command. Description may be empty.
func (r *Commands) Insert(ctx context.Context, userID int64, command, keyword, description string) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO search_commands (user_id, command, keyword, description)
		 VALUES ($1, $2, $3, NULLIF($4, ''))`,
		userID, command, keyword, description)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrCommandAlreadyExists
		}
		return fmt.Errorf("insert command %q: %w", command, err)
	}
	return nil
}

// Delete removes one command.
func (r *Commands) Delete(ctx context.Context, userID int64, command string) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM search_commands WHERE user_id = $1 AND command = $2`,
		userID, command)
	if err != nil {
		return fmt.Errorf("delete command %q: %w", command, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete command %q: %w", command, err)
	}
	if affected == 0 {
		return domain.ErrCommandNotFound
	}
	return nil
}

// ListByUser returns the owner's commands ordered by command string.
func (r *Commands) ListByUser(ctx context.Context, userID int64) ([]domain.SearchCommand, error) {
	var commands []domain.SearchCommand
	err := r.db.SelectContext(ctx, &commands,
		`SELECT id, user_id, command, keyword, description
		   FROM search_commands WHERE user_id = $1 ORDER BY command`,
		userID)
	if err != nil {
		return nil, fmt.Errorf("list commands for user %d: %w", userID, err)
	}
	return commands, nil
}

// isUniqueViolation reports whether err is a Postgres unique constraint
// violation (class 23505).
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}
