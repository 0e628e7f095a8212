package scenes

import (
	"context"
	"database/sql"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/m3rciful/searchbot/bot/domain"
	"github.com/m3rciful/searchbot/bot/search"
	"github.com/m3rciful/searchbot/bot/service"
	"github.com/m3rciful/searchbot/core/scene"
)

const testUserID int64 = 42

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

type fakeSearcher struct {
	results map[search.Profile][]search.Result
	err     error
}

func (s *fakeSearcher) Search(_ context.Context, _ string, profile search.Profile) ([]search.Result, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.results[profile], nil
}

type fakeNotifier struct {
	notices []string
}

func (n *fakeNotifier) NotifyAdmin(_ context.Context, text string) error {
	n.notices = append(n.notices, text)
	return nil
}

type recorder struct {
	messages []string
}

func (r *recorder) Send(text string, _ ...[]string) error {
	r.messages = append(r.messages, text)
	return nil
}

func (r *recorder) last() string {
	if len(r.messages) == 0 {
		return ""
	}
	return r.messages[len(r.messages)-1]
}

type fixture struct {
	t        *testing.T
	engine   *scene.Engine
	store    scene.Store
	rec      *recorder
	users    *service.Users
	commands *service.Commands
	searcher *fakeSearcher
	notifier *fakeNotifier
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	userRepo := newFakeUserRepo()
	users := service.NewUsers(userRepo)
	commands := service.NewCommands(newFakeCommandRepo(), userRepo)
	searcher := &fakeSearcher{results: make(map[search.Profile][]search.Result)}
	notifier := &fakeNotifier{}

	reg, err := Build(Deps{
		Users:    users,
		Commands: commands,
		Search:   searcher,
		Notify:   notifier,
	})
	require.NoError(t, err)

	store := scene.NewMemoryStore()
	engine, err := scene.NewEngine(reg, store, Default)
	require.NoError(t, err)

	return &fixture{
		t:        t,
		engine:   engine,
		store:    store,
		rec:      &recorder{},
		users:    users,
		commands: commands,
		searcher: searcher,
		notifier: notifier,
	}
}

func (f *fixture) turn(text string) {
	f.t.Helper()
	from := scene.User{ID: testUserID, FullName: "Jane Doe", Username: "jane"}
	require.NoError(f.t, f.engine.HandleTurn(context.Background(), from, text, f.rec))
}

func (f *fixture) session() *scene.Session {
	return f.store.GetOrCreate(testUserID, Default)
}

// startAndVerify walks the user through onboarding into the main menu.
func (f *fixture) startAndVerify() {
	f.t.Helper()
	f.turn("/start")
	require.Len(f.t, f.notifier.notices, 1)
	parts := strings.Split(f.notifier.notices[0], "\n")
	code := parts[len(parts)-1]
	f.turn(code)
	require.Equal(f.t, Main, f.session().Current)
}

func TestOnboarding(t *testing.T) {
	f := newFixture(t)

	f.turn("hello")
	require.Equal(t, "You need to /start first.", f.rec.last())
	require.Equal(t, Default, f.session().Current)

	f.turn("/start")
	require.Equal(t, Verify, f.session().Current)
	require.Len(t, f.notifier.notices, 1)
	require.Contains(t, f.notifier.notices[0], "@jane")
}

func TestVerifyWrongThenRight(t *testing.T) {
	f := newFixture(t)
	f.turn("/start")
	require.Equal(t, Verify, f.session().Current)

	f.turn("not-the-code")
	require.Equal(t, "Wrong code, try again:", f.rec.last())
	require.Equal(t, Verify, f.session().Current)

	parts := strings.Split(f.notifier.notices[0], "\n")
	f.turn(parts[len(parts)-1])
	require.Equal(t, Main, f.session().Current)

	u, err := f.users.FindUser(context.Background(), testUserID)
	require.NoError(t, err)
	require.True(t, u.Verified)
}

func TestAddCommandFlow(t *testing.T) {
	f := newFixture(t)
	f.startAndVerify()

	f.turn("/addcmd")
	require.Equal(t, AddCommand, f.session().Current)
	require.Equal(t, 0, f.session().Step())

	f.turn("adele")
	require.Equal(t, "The command must start with /", f.rec.last())
	require.Equal(t, 0, f.session().Step())

	f.turn("/search")
	require.Contains(t, f.rec.last(), "reserved")
	require.Equal(t, 0, f.session().Step())

	f.turn("/adele")
	require.Equal(t, 1, f.session().Step())

	f.turn("elvis")
	require.Equal(t, 2, f.session().Step())

	f.turn("➡️ Skip")
	require.Equal(t, 3, f.session().Step())
	require.Contains(t, f.rec.last(), "Save?")

	f.turn("whatever")
	require.Equal(t, "Unknown answer.", f.rec.last())
	require.Equal(t, 3, f.session().Step())

	f.turn("📔 Save")
	require.Equal(t, Main, f.session().Current)

	cmd, err := f.commands.GetCommand(context.Background(), testUserID, "/adele")
	require.NoError(t, err)
	require.Equal(t, "elvis", cmd.Keyword)
	require.False(t, cmd.Description.Valid)

	// A second attempt with the same command is rejected at the first step.
	f.turn("/addcmd")
	f.turn("/adele")
	require.Contains(t, f.rec.last(), "already exists")
	require.Equal(t, 0, f.session().Step())

	list, err := f.commands.ListCommands(context.Background(), testUserID)
	require.NoError(t, err)
	require.Len(t, list, 1)
}

func TestBackFromFirstStepLeavesFlow(t *testing.T) {
	f := newFixture(t)
	f.startAndVerify()

	f.turn("/addcmd")
	require.Equal(t, AddCommand, f.session().Current)

	f.turn("🔙 Back")
	require.Equal(t, Default, f.session().Current)
	require.Empty(t, f.session().History)
}

func TestRemoveCommandFlow(t *testing.T) {
	f := newFixture(t)
	f.startAndVerify()
	ctx := context.Background()
	require.NoError(t, f.commands.AddCommand(ctx, testUserID, "/adele", "elvis", ""))

	f.turn("/delcmd")
	require.Equal(t, RemoveCommand, f.session().Current)

	f.turn("/nope")
	require.Equal(t, "This command does not exist.", f.rec.last())
	require.Equal(t, 0, f.session().Step())

	f.turn("/adele")
	require.Equal(t, 1, f.session().Step())
	require.Contains(t, f.rec.last(), "remove /adele")

	f.turn("maybe")
	require.Equal(t, "Unknown answer.", f.rec.last())
	require.Equal(t, 1, f.session().Step())

	f.turn("🗑 Delete")
	require.Equal(t, Main, f.session().Current)

	_, err := f.commands.GetCommand(ctx, testUserID, "/adele")
	require.ErrorIs(t, err, domain.ErrCommandNotFound)
}

func TestSearchScene(t *testing.T) {
	f := newFixture(t)
	f.startAndVerify()

	f.turn("/search")
	require.Equal(t, Search, f.session().Current)

	f.turn("obscure query")
	require.Equal(t, "No results.", f.rec.last())
	require.Equal(t, Search, f.session().Current)

	f.searcher.results[search.ProfileMobile] = []search.Result{
		{Title: "Adele", Link: "https://example.com/adele"},
	}
	f.turn("adele")
	require.Contains(t, f.rec.last(), "Mobile results:")
	require.Contains(t, f.rec.last(), "Desktop results:")
	require.Equal(t, Search, f.session().Current)

	f.turn("✋ Stop ⏹")
	require.Equal(t, Main, f.session().Current)
}

func TestMainRunsSavedCommand(t *testing.T) {
	f := newFixture(t)
	f.startAndVerify()
	ctx := context.Background()
	require.NoError(t, f.commands.AddCommand(ctx, testUserID, "/adele", "elvis", ""))
	f.searcher.results[search.ProfileDesktop] = []search.Result{
		{Title: "Elvis", Link: "https://example.com/elvis"},
	}

	f.turn("/adele")
	require.Contains(t, f.rec.last(), "Desktop results:")
	require.Equal(t, Main, f.session().Current)

	f.turn("/unknowncmd")
	require.Equal(t, "Unknown command.", f.rec.last())
	require.Equal(t, Main, f.session().Current)

	f.turn("plain text")
	require.Equal(t, "Unknown command.", f.rec.last())
}

func TestUserListScene(t *testing.T) {
	f := newFixture(t)
	f.startAndVerify()

	f.turn("/users")
	require.Equal(t, UserList, f.session().Current)
	require.Contains(t, f.rec.last(), "Current users:")
	require.Contains(t, f.rec.last(), "Jane Doe")

	f.turn("Delete")
	require.Equal(t, "I don't understand.", f.rec.last())
	require.Equal(t, UserList, f.session().Current)

	f.turn("🔙 Back")
	require.Equal(t, Main, f.session().Current)
}
