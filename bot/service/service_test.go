package service

import (
	"context"
	"database/sql"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/m3rciful/searchbot/bot/domain"
)

type fakeUserRepo struct {
	users  map[int64]*domain.User
	nextID int64
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[int64]*domain.User)}
}

func (r *fakeUserRepo) FindByTelegramID(_ context.Context, telegramID int64) (*domain.User, error) {
	u, ok := r.users[telegramID]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	cp := *u
	return &cp, nil
}

func (r *fakeUserRepo) Insert(_ context.Context, telegramID int64, fullName, username, verifyCode string) error {
	if _, ok := r.users[telegramID]; ok {
		return domain.ErrUserAlreadyExists
	}
	r.nextID++
	r.users[telegramID] = &domain.User{
		ID:         r.nextID,
		TelegramID: telegramID,
		FullName:   fullName,
		Username:   sql.NullString{String: username, Valid: username != ""},
		VerifyCode: verifyCode,
	}
	return nil
}

func (r *fakeUserRepo) UpdateProfile(_ context.Context, telegramID int64, fullName, username string) error {
	u, ok := r.users[telegramID]
	if !ok {
		return domain.ErrUserNotFound
	}
	u.FullName = fullName
	u.Username = sql.NullString{String: username, Valid: username != ""}
	return nil
}

func (r *fakeUserRepo) SetVerified(_ context.Context, telegramID int64) error {
	u, ok := r.users[telegramID]
	if !ok {
		return domain.ErrUserNotFound
	}
	u.Verified = true
	return nil
}

func (r *fakeUserRepo) ListAll(_ context.Context) ([]domain.User, error) {
	out := make([]domain.User, 0, len(r.users))
	for _, u := range r.users {
		out = append(out, *u)
	}
	return out, nil
}

type cmdKey struct {
	userID  int64
	command string
}

type fakeCommandRepo struct {
	commands map[cmdKey]*domain.SearchCommand
	nextID   int64
}

func newFakeCommandRepo() *fakeCommandRepo {
	return &fakeCommandRepo{commands: make(map[cmdKey]*domain.SearchCommand)}
}

func (r *fakeCommandRepo) Get(_ context.Context, userID int64, command string) (*domain.SearchCommand, error) {
	c, ok := r.commands[cmdKey{userID, command}]
	if !ok {
		return nil, domain.ErrCommandNotFound
	}
	cp := *c
	return &cp, nil
}

func (r *fakeCommandRepo) Exists(_ context.Context, userID int64, command string) (bool, error) {
	_, ok := r.commands[cmdKey{userID, command}]
	return ok, nil
}

func (r *fakeCommandRepo) Insert(_ context.Context, userID int64, command, keyword, description string) error {
	key := cmdKey{userID, command}
	if _, ok := r.commands[key]; ok {
		return domain.ErrCommandAlreadyExists
	}
	r.nextID++
	r.commands[key] = &domain.SearchCommand{
		ID:          r.nextID,
		UserID:      userID,
		Command:     command,
		Keyword:     keyword,
		Description: sql.NullString{String: description, Valid: description != ""},
	}
	return nil
}

func (r *fakeCommandRepo) Delete(_ context.Context, userID int64, command string) error {
	key := cmdKey{userID, command}
	if _, ok := r.commands[key]; !ok {
		return domain.ErrCommandNotFound
	}
	delete(r.commands, key)
	return nil
}

func (r *fakeCommandRepo) ListByUser(_ context.Context, userID int64) ([]domain.SearchCommand, error) {
	var out []domain.SearchCommand
	for key, c := range r.commands {
		if key.userID == userID {
			out = append(out, *c)
		}
	}
	return out, nil
}

func TestCreateUserGeneratesDashlessCode(t *testing.T) {
	users := NewUsers(newFakeUserRepo())

	code, err := users.CreateUser(context.Background(), 42, "Jane Doe", "jane")
	require.NoError(t, err)
	require.Len(t, code, 32)
	require.NotContains(t, code, "-")
}

func TestMarkVerified(t *testing.T) {
	repo := newFakeUserRepo()
	users := NewUsers(repo)
	ctx := context.Background()

	code, err := users.CreateUser(ctx, 42, "Jane Doe", "jane")
	require.NoError(t, err)

	err = users.MarkVerified(ctx, 42, "nope")
	require.ErrorIs(t, err, domain.ErrVerifyCodeWrong)

	require.NoError(t, users.MarkVerified(ctx, 42, code))

	u, err := users.FindUser(ctx, 42)
	require.NoError(t, err)
	require.True(t, u.Verified)

	// Once verified, any submission is a no-op success.
	require.NoError(t, users.MarkVerified(ctx, 42, "stale-code"))

	err = users.MarkVerified(ctx, 99, code)
	require.ErrorIs(t, err, domain.ErrUserNotFound)
}

func TestRequireActive(t *testing.T) {
	repo := newFakeUserRepo()
	users := NewUsers(repo)
	ctx := context.Background()

	err := users.RequireActive(ctx, 42)
	require.ErrorIs(t, err, domain.ErrUserNotFound)

	code, err := users.CreateUser(ctx, 42, "Jane Doe", "jane")
	require.NoError(t, err)

	err = users.RequireActive(ctx, 42)
	require.ErrorIs(t, err, domain.ErrUserNotActive)

	require.NoError(t, users.MarkVerified(ctx, 42, code))
	require.NoError(t, users.RequireActive(ctx, 42))
}

func TestAddCommandValidation(t *testing.T) {
	userRepo := newFakeUserRepo()
	users := NewUsers(userRepo)
	commands := NewCommands(newFakeCommandRepo(), userRepo)
	ctx := context.Background()

	_, err := users.CreateUser(ctx, 42, "Jane Doe", "jane")
	require.NoError(t, err)

	err = commands.AddCommand(ctx, 42, "", "elvis", "")
	require.ErrorIs(t, err, domain.ErrWrongCommandFormat)

	err = commands.AddCommand(ctx, 42, "adele", "elvis", "")
	require.ErrorIs(t, err, domain.ErrWrongCommandFormat)

	err = commands.AddCommand(ctx, 99, "/adele", "elvis", "")
	require.ErrorIs(t, err, domain.ErrUserNotFound)

	require.NoError(t, commands.AddCommand(ctx, 42, "/Adele", "elvis", ""))

	// Stored lowercase, retrievable under any casing.
	cmd, err := commands.GetCommand(ctx, 42, "/ADELE")
	require.NoError(t, err)
	require.Equal(t, "/adele", cmd.Command)
	require.Equal(t, "elvis", cmd.Keyword)
	require.False(t, cmd.Description.Valid)

	err = commands.AddCommand(ctx, 42, "/adele", "other", "")
	require.ErrorIs(t, err, domain.ErrCommandAlreadyExists)

	list, err := commands.ListCommands(ctx, 42)
	require.NoError(t, err)
	require.Len(t, list, 1)
}

func TestRemoveCommand(t *testing.T) {
	userRepo := newFakeUserRepo()
	users := NewUsers(userRepo)
	commands := NewCommands(newFakeCommandRepo(), userRepo)
	ctx := context.Background()

	_, err := users.CreateUser(ctx, 42, "Jane Doe", "jane")
	require.NoError(t, err)

	err = commands.RemoveCommand(ctx, 42, "/adele")
	require.ErrorIs(t, err, domain.ErrCommandNotFound)

	require.NoError(t, commands.AddCommand(ctx, 42, "/adele", "elvis", "singer"))

	exists, err := commands.CommandExists(ctx, 42, "/adele")
	require.NoError(t, err)
	require.True(t, exists)

	require.NoError(t, commands.RemoveCommand(ctx, 42, "/adele"))

	_, err = commands.GetCommand(ctx, 42, "/adele")
	require.ErrorIs(t, err, domain.ErrCommandNotFound)
}

func TestNormalizeCommand(t *testing.T) {
	require.Equal(t, "/adele", NormalizeCommand("  /Adele "))
	require.Equal(t, "", NormalizeCommand("   "))
	require.True(t, strings.HasPrefix(NormalizeCommand("/X"), "/"))
}
