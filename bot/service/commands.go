package service

import (
	"context"
	"log/slog"
	"strings"

	"github.com/m3rciful/searchbot/bot/domain"
	"github.com/m3rciful/searchbot/core/logger"
)

// CommandRepo is the persistence contract the command service needs. Lookups
// key on the internal user id resolved from the chat identity.
type CommandRepo interface {
	Get(ctx context.Context, userID int64, command string) (*domain.SearchCommand, error)
	Exists(ctx context.Context, userID int64, command string) (bool, error)
	Insert(ctx context.Context, userID int64, command, keyword, description string) error
	Delete(ctx context.Context, userID int64, command string) error
	ListByUser(ctx context.Context, userID int64) ([]domain.SearchCommand, error)
}

// UserLookup resolves chat identities to user records.
type UserLookup interface {
	FindByTelegramID(ctx context.Context, telegramID int64) (*domain.User, error)
}

// Commands manages per-user saved search commands. Command strings are
// normalized to lowercase on every operation.
type Commands struct {
	repo  CommandRepo
	users UserLookup
}

// NewCommands builds the command service.
func NewCommands(repo CommandRepo, users UserLookup) *Commands {
	return &Commands{repo: repo, users: users}
}

// NormalizeCommand lowercases and trims a command string.
func NormalizeCommand(command string) string {
	return strings.ToLower(strings.TrimSpace(command))
}

// CommandExists reports whether the identity already saved this command.
// Fails ErrUserNotFound for unregistered identities.
func (s *Commands) CommandExists(ctx context.Context, telegramID int64, command string) (bool, error) {
	u, err := s.users.FindByTelegramID(ctx, telegramID)
	if err != nil {
		return false, err
	}
	return s.repo.Exists(ctx, u.ID, NormalizeCommand(command))
}

// GetCommand loads one saved command. Fails ErrUserNotFound or
// ErrCommandNotFound.
func (s *Commands) GetCommand(ctx context.Context, telegramID int64, command string) (*domain.SearchCommand, error) {
	u, err := s.users.FindByTelegramID(ctx, telegramID)
	if err != nil {
		return nil, err
	}
	return s.repo.Get(ctx, u.ID, NormalizeCommand(command))
}

// AddCommand validates and stores a new command. The command must be
// non-empty and start with "/" (ErrWrongCommandFormat); a per-user duplicate
// fails ErrCommandAlreadyExists.
func (s *Commands) AddCommand(ctx context.Context, telegramID int64, command, keyword, description string) error {
	command = NormalizeCommand(command)
	if command == "" || !strings.HasPrefix(command, "/") {
		return domain.ErrWrongCommandFormat
	}
	u, err := s.users.FindByTelegramID(ctx, telegramID)
	if err != nil {
		return err
	}
	if err := s.repo.Insert(ctx, u.ID, command, keyword, description); err != nil {
		return err
	}
	logger.Info(ctx, "service.commands", "command.added",
		slog.Int64("user_id", telegramID),
		slog.String("command", logger.SanitizeLimit(command, 64)),
	)
	return nil
}

// RemoveCommand deletes one saved command. Fails ErrUserNotFound or
// ErrCommandNotFound.
func (s *Commands) RemoveCommand(ctx context.Context, telegramID int64, command string) error {
	u, err := s.users.FindByTelegramID(ctx, telegramID)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, u.ID, NormalizeCommand(command)); err != nil {
		return err
	}
	logger.Info(ctx, "service.commands", "command.removed",
		slog.Int64("user_id", telegramID),
		slog.String("command", logger.SanitizeLimit(command, 64)),
	)
	return nil
}

// ListCommands returns the identity's saved commands. Fails ErrUserNotFound.
func (s *Commands) ListCommands(ctx context.Context, telegramID int64) ([]domain.SearchCommand, error) {
	u, err := s.users.FindByTelegramID(ctx, telegramID)
	if err != nil {
		return nil, err
	}
	return s.repo.ListByUser(ctx, u.ID)
}
