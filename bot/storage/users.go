// Package storage implements the Postgres repositories behind the bot
// services.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/m3rciful/searchbot/bot/domain"
)

// Users persists user records.
type Users struct {
	db *sqlx.DB
}

// NewUsers builds the user repository over an open connection pool.
func NewUsers(db *sqlx.DB) *Users {
	return &Users{db: db}
}

// FindByTelegramID loads a user by chat identity.
func (r *Users) FindByTelegramID(ctx context.Context, telegramID int64) (*domain.User, error) {
	var u domain.User
	err := r.db.GetContext(ctx, &u,
		`SELECT id, telegram_id, full_name, username, verify_code, verified
		   FROM users WHERE telegram_id = $1`, telegramID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("find user %d: %w", telegramID, err)
	}
	return &u, nil
}

// Insert creates a new unverified user.
func (r *Users) Insert(ctx context.Context, telegramID int64, fullName, username, verifyCode string) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO users (telegram_id, full_name, username, verify_code, verified)
		 VALUES ($1, $2, NULLIF($3, ''), $4, FALSE)`,
		telegramID, fullName, username, verifyCode)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrUserAlreadyExists
		}
		return fmt.Errorf("insert user %d: %w", telegramID, err)
	}
	return nil
}

// UpdateProfile refreshes the display name and username captured at /start.
func (r *Users) UpdateProfile(ctx context.Context, telegramID int64, fullName, username string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE users SET full_name = $2, username = NULLIF($3, '')
		  WHERE telegram_id = $1`,
		telegramID, fullName, username)
	if err != nil {
		return fmt.Errorf("update profile %d: %w", telegramID, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update profile %d: %w", telegramID, err)
	}
	if affected == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

// SetVerified flips the verified flag.
func (r *Users) SetVerified(ctx context.Context, telegramID int64) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE users SET verified = TRUE WHERE telegram_id = $1`, telegramID)
	if err != nil {
		return fmt.Errorf("set verified %d: %w", telegramID, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("set verified %d: %w", telegramID, err)
	}
	if affected == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

// ListAll returns every registered user ordered by registration.
func (r *Users) ListAll(ctx context.Context) ([]domain.User, error) {
	var users []domain.User
	err := r.db.SelectContext(ctx, &users,
		`SELECT id, telegram_id, full_name, username, verify_code, verified
		   FROM users ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}
