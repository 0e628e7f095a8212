// Package service implements the application services the scenes talk to.
// Failure kinds from bot/domain cross the service boundary unchanged so
// handlers can branch on them.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/m3rciful/searchbot/bot/domain"
	"github.com/m3rciful/searchbot/core/logger"
)

// UserRepo is the persistence contract the user service needs.
type UserRepo interface {
	FindByTelegramID(ctx context.Context, telegramID int64) (*domain.User, error)
	Insert(ctx context.Context, telegramID int64, fullName, username, verifyCode string) error
	UpdateProfile(ctx context.Context, telegramID int64, fullName, username string) error
	SetVerified(ctx context.Context, telegramID int64) error
	ListAll(ctx context.Context) ([]domain.User, error)
}

// Users manages registration, verification and lookups.
type Users struct {
	repo UserRepo
}

// NewUsers builds the user service.
func NewUsers(repo UserRepo) *Users {
	return &Users{repo: repo}
}

// FindUser loads a user by chat identity.
func (s *Users) FindUser(ctx context.Context, telegramID int64) (*domain.User, error) {
	return s.repo.FindByTelegramID(ctx, telegramID)
}

// CreateUser registers a new unverified user and returns the generated
// verification code. The code is a dashless UUID.
func (s *Users) CreateUser(ctx context.Context, telegramID int64, fullName, username string) (string, error) {
	code := strings.ReplaceAll(uuid.NewString(), "-", "")
	if err := s.repo.Insert(ctx, telegramID, fullName, username, code); err != nil {
		return "", err
	}
	logger.Info(ctx, "service.users", "user.created",
		slog.Int64("user_id", telegramID),
		slog.String("username", logger.SanitizeLimit(username, 64)),
	)
	return code, nil
}

// UpdateProfile refreshes the stored display name and username. Fails
// ErrUserNotFound for unregistered identities.
func (s *Users) UpdateProfile(ctx context.Context, telegramID int64, fullName, username string) error {
	return s.repo.UpdateProfile(ctx, telegramID, fullName, username)
}

// MarkVerified checks the submitted code and activates the user. Activating
// an already-verified user is a no-op success regardless of the submitted
// code.
func (s *Users) MarkVerified(ctx context.Context, telegramID int64, submittedCode string) error {
	u, err := s.repo.FindByTelegramID(ctx, telegramID)
	if err != nil {
		return err
	}
	if u.Verified {
		return nil
	}
	if u.VerifyCode != strings.TrimSpace(submittedCode) {
		logger.Debug(ctx, "service.users", "verify.rejected",
			slog.Int64("user_id", telegramID),
		)
		return domain.ErrVerifyCodeWrong
	}
	if err := s.repo.SetVerified(ctx, telegramID); err != nil {
		return err
	}
	logger.Info(ctx, "service.users", "user.verified",
		slog.Int64("user_id", telegramID),
	)
	return nil
}

// RequireActive fails ErrUserNotFound for unknown identities and
// ErrUserNotActive for registered but unverified ones.
func (s *Users) RequireActive(ctx context.Context, telegramID int64) error {
	u, err := s.repo.FindByTelegramID(ctx, telegramID)
	if err != nil {
		return err
	}
	if !u.Verified {
		return domain.ErrUserNotActive
	}
	return nil
}

// ListUsers returns every registered user.
func (s *Users) ListUsers(ctx context.Context) ([]domain.User, error) {
	users, err := s.repo.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}
