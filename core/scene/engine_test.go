package scene

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"
)

type recorder struct {
	mu    sync.Mutex
	sent  []string
	rows  [][][]string
	delay time.Duration
}

func (r *recorder) Send(text string, rows ...[]string) error {
	if r.delay > 0 {
		time.Sleep(r.delay)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, text)
	r.rows = append(r.rows, rows)
	return nil
}

func (r *recorder) last() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.sent) == 0 {
		return ""
	}
	return r.sent[len(r.sent)-1]
}

func reply(text string, d Directive) HandlerFunc {
	return func(t *Turn) (Directive, error) {
		if err := t.Send(text); err != nil {
			return Stay(), err
		}
		return d, nil
	}
}

func newTestEngine(t *testing.T, scenes ...*Scene) (*Engine, Store) {
	t.Helper()
	reg := NewRegistry()
	if err := reg.Register(scenes...); err != nil {
		t.Fatalf("register: %v", err)
	}
	store := NewMemoryStore()
	eng, err := NewEngine(reg, store, scenes[0].ID)
	if err != nil {
		t.Fatalf("engine: %v", err)
	}
	return eng, store
}

func TestHandlerOrderAndFallback(t *testing.T) {
	home := &Scene{
		ID: "home",
		Handlers: []Handler{
			On(Exact("hello"), reply("first", Stay())),
			On(Prefix("hel"), reply("second", Stay())),
			On(Any(), reply("catchall", Stay())),
		},
	}
	eng, _ := newTestEngine(t, home)
	out := &recorder{}

	if err := eng.HandleTurn(context.Background(), User{ID: 1}, "HELLO", out); err != nil {
		t.Fatal(err)
	}
	if out.last() != "first" {
		t.Fatalf("expected first matcher to win, got %q", out.last())
	}

	if err := eng.HandleTurn(context.Background(), User{ID: 1}, "help", out); err != nil {
		t.Fatal(err)
	}
	if out.last() != "second" {
		t.Fatalf("expected prefix matcher, got %q", out.last())
	}

	if err := eng.HandleTurn(context.Background(), User{ID: 1}, "anything else", out); err != nil {
		t.Fatal(err)
	}
	if out.last() != "catchall" {
		t.Fatalf("expected catch-all, got %q", out.last())
	}
}

func TestUnmatchedInputLeavesStateUntouched(t *testing.T) {
	home := &Scene{
		ID:       "home",
		Handlers: []Handler{On(Exact("go"), reply("going", Goto("other")))},
	}
	other := &Scene{ID: "other"}
	eng, store := newTestEngine(t, home, other)
	out := &recorder{}

	if err := eng.HandleTurn(context.Background(), User{ID: 7}, "gibberish", out); err != nil {
		t.Fatal(err)
	}
	if out.last() != defaultUnknownReply {
		t.Fatalf("expected generic reply, got %q", out.last())
	}
	sess := store.GetOrCreate(7, "home")
	if sess.Current != "home" || len(sess.History) != 0 {
		t.Fatalf("session mutated by unmatched input: %+v", sess)
	}
}

func TestGotoPushesHistoryAndRunsEnter(t *testing.T) {
	entered := false
	home := &Scene{
		ID:       "home",
		Handlers: []Handler{On(Any(), reply("bye", Goto("form")))},
	}
	form := &Scene{
		ID: "form",
		OnEnter: func(t *Turn) (Directive, error) {
			entered = true
			return Stay(), nil
		},
	}
	eng, store := newTestEngine(t, home, form)

	if err := eng.HandleTurn(context.Background(), User{ID: 2}, "x", &recorder{}); err != nil {
		t.Fatal(err)
	}
	if !entered {
		t.Fatal("expected OnEnter to run on goto")
	}
	sess := store.GetOrCreate(2, "home")
	if sess.Current != "form" {
		t.Fatalf("current = %q", sess.Current)
	}
	if len(sess.History) != 1 || sess.History[0].Scene != "home" {
		t.Fatalf("history = %+v", sess.History)
	}
}

func TestResetFlagsOnEnter(t *testing.T) {
	home := &Scene{
		ID: "home",
		Handlers: []Handler{
			On(Exact("fill"), func(t *Turn) (Directive, error) {
				t.Session.SetAnswer("k", "v")
				return Goto("landing"), nil
			}),
		},
	}
	landing := &Scene{
		ID:                  "landing",
		ResetDataOnEnter:    true,
		ResetHistoryOnEnter: true,
	}
	eng, store := newTestEngine(t, home, landing)

	if err := eng.HandleTurn(context.Background(), User{ID: 3}, "fill", &recorder{}); err != nil {
		t.Fatal(err)
	}
	sess := store.GetOrCreate(3, "home")
	if len(sess.History) != 0 {
		t.Fatalf("expected history reset, got %+v", sess.History)
	}
	if len(sess.Data) != 1 { // only the step counter survives
		t.Fatalf("expected data reset, got %+v", sess.Data)
	}
}

func TestBackPopsCheckpointAndRestoresStep(t *testing.T) {
	var enterStep int
	home := &Scene{
		ID: "home",
		OnEnter: func(t *Turn) (Directive, error) {
			enterStep = t.Session.Step()
			return Stay(), nil
		},
		Handlers: []Handler{On(Exact("go"), func(t *Turn) (Directive, error) {
			t.Session.SetStep(2)
			return Goto("form"), nil
		})},
	}
	form := &Scene{
		ID:       "form",
		Handlers: []Handler{On(Exact("back"), reply("back", Back()))},
	}
	eng, store := newTestEngine(t, home, form)

	if err := eng.HandleTurn(context.Background(), User{ID: 4}, "go", &recorder{}); err != nil {
		t.Fatal(err)
	}
	if err := eng.HandleTurn(context.Background(), User{ID: 4}, "back", &recorder{}); err != nil {
		t.Fatal(err)
	}
	sess := store.GetOrCreate(4, "home")
	if sess.Current != "home" {
		t.Fatalf("current = %q", sess.Current)
	}
	if enterStep != 2 {
		t.Fatalf("expected restored step 2, got %d", enterStep)
	}
	if len(sess.History) != 0 {
		t.Fatalf("history not popped: %+v", sess.History)
	}
}

func TestBackWithEmptyHistoryEntersInitial(t *testing.T) {
	entered := false
	home := &Scene{
		ID: "home",
		OnEnter: func(t *Turn) (Directive, error) {
			entered = true
			return Stay(), nil
		},
		Handlers: []Handler{On(Exact("back"), reply("back", Back()))},
	}
	eng, store := newTestEngine(t, home)

	if err := eng.HandleTurn(context.Background(), User{ID: 5}, "back", &recorder{}); err != nil {
		t.Fatal(err)
	}
	sess := store.GetOrCreate(5, "home")
	if sess.Current != "home" || !entered {
		t.Fatalf("expected re-entry of initial scene, current=%q entered=%v", sess.Current, entered)
	}
}

func TestExitClearsHistoryAndData(t *testing.T) {
	home := &Scene{
		ID:       "home",
		Handlers: []Handler{On(Exact("go"), reply("", Goto("form")))},
	}
	form := &Scene{
		ID: "form",
		Handlers: []Handler{On(Exact("cancel"), func(t *Turn) (Directive, error) {
			t.Session.SetAnswer("cmd", "/x")
			return Exit(), nil
		})},
	}
	eng, store := newTestEngine(t, home, form)

	ctx := context.Background()
	if err := eng.HandleTurn(ctx, User{ID: 6}, "go", &recorder{}); err != nil {
		t.Fatal(err)
	}
	if err := eng.HandleTurn(ctx, User{ID: 6}, "cancel", &recorder{}); err != nil {
		t.Fatal(err)
	}
	sess := store.GetOrCreate(6, "home")
	if sess.Current != "home" {
		t.Fatalf("current = %q", sess.Current)
	}
	if len(sess.History) != 0 {
		t.Fatalf("history = %+v", sess.History)
	}
	if _, ok := sess.Data[keyAnswers]; ok {
		t.Fatal("expected answers cleared on exit")
	}
}

func TestRetakeAdvancesStepWithoutHistory(t *testing.T) {
	var prompts []int
	form := &Scene{
		ID: "form",
		OnEnter: func(t *Turn) (Directive, error) {
			prompts = append(prompts, t.Session.Step())
			return Stay(), nil
		},
		Handlers: []Handler{On(Any(), func(t *Turn) (Directive, error) {
			return Retake(t.Session.Step() + 1), nil
		})},
	}
	eng, store := newTestEngine(t, form)

	ctx := context.Background()
	for _, msg := range []string{"a", "b", "c"} {
		if err := eng.HandleTurn(ctx, User{ID: 8}, msg, &recorder{}); err != nil {
			t.Fatal(err)
		}
	}
	sess := store.GetOrCreate(8, "form")
	if sess.Step() != 3 {
		t.Fatalf("step = %d", sess.Step())
	}
	if len(sess.History) != 0 {
		t.Fatalf("retake must not push history: %+v", sess.History)
	}
	want := []int{1, 2, 3}
	for i, w := range want {
		if prompts[i] != w {
			t.Fatalf("prompt steps = %v, want %v", prompts, want)
		}
	}
}

func TestChainDepthExceededIsFatal(t *testing.T) {
	ping := &Scene{ID: "ping", OnEnter: reply("", Goto("pong"))}
	pong := &Scene{ID: "pong", OnEnter: reply("", Goto("ping"))}
	start := &Scene{ID: "start", Handlers: []Handler{On(Any(), reply("", Goto("ping")))}}
	eng, _ := newTestEngine(t, start, ping, pong)

	err := eng.HandleTurn(context.Background(), User{ID: 9}, "x", &recorder{})
	if err == nil || !strings.Contains(err.Error(), "navigation chain") {
		t.Fatalf("expected chain depth error, got %v", err)
	}
}

func TestGotoUnknownSceneFails(t *testing.T) {
	home := &Scene{ID: "home", Handlers: []Handler{On(Any(), reply("", Goto("nowhere")))}}
	eng, _ := newTestEngine(t, home)

	err := eng.HandleTurn(context.Background(), User{ID: 10}, "x", &recorder{})
	if err == nil {
		t.Fatal("expected error for unknown target scene")
	}
}

// Two concurrent turns for the same identity must not interleave their
// session read-modify-write. The handler sleeps between read and write so an
// unserialized engine would lose one increment.
func TestSameIdentityTurnsAreSerialized(t *testing.T) {
	counter := &Scene{
		ID: "counter",
		Handlers: []Handler{On(Any(), func(t *Turn) (Directive, error) {
			n := t.Session.Step()
			time.Sleep(20 * time.Millisecond)
			t.Session.SetStep(n + 1)
			return Stay(), nil
		})},
	}
	eng, store := newTestEngine(t, counter)

	const turns = 8
	var wg sync.WaitGroup
	for i := 0; i < turns; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = eng.HandleTurn(context.Background(), User{ID: 11}, "tick", &recorder{})
		}()
	}
	wg.Wait()

	sess := store.GetOrCreate(11, "counter")
	if sess.Step() != turns {
		t.Fatalf("lost updates: step = %d, want %d", sess.Step(), turns)
	}
}

func TestDistinctIdentitiesRunInParallel(t *testing.T) {
	slow := &Scene{
		ID: "slow",
		Handlers: []Handler{On(Any(), func(t *Turn) (Directive, error) {
			time.Sleep(50 * time.Millisecond)
			return Stay(), nil
		})},
	}
	eng, _ := newTestEngine(t, slow)

	start := time.Now()
	var wg sync.WaitGroup
	for id := int64(1); id <= 4; id++ {
		wg.Add(1)
		go func(id int64) {
			defer wg.Done()
			_ = eng.HandleTurn(context.Background(), User{ID: id}, "x", &recorder{})
		}(id)
	}
	wg.Wait()

	if elapsed := time.Since(start); elapsed > 150*time.Millisecond {
		t.Fatalf("independent identities appear serialized: %v", elapsed)
	}
}
