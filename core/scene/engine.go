package scene

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/m3rciful/searchbot/core/logger"
)

// maxChainDepth bounds chained on-enter transitions within a single turn.
// Exceeding it means two scenes forward to each other at registration time,
// which is a configuration bug, not a runtime condition.
const maxChainDepth = 10

const defaultUnknownReply = "I don't understand you :("

// Engine dispatches inbound messages to the handler registered for the
// user's current scene and applies the resulting navigation directives.
type Engine struct {
	registry     *Registry
	store        Store
	initial      ID
	unknownReply string
}

// Option customizes Engine construction.
type Option func(*Engine)

// WithUnknownReply overrides the generic reply sent when a scene has no
// matching handler and no fallback.
func WithUnknownReply(text string) Option {
	return func(e *Engine) { e.unknownReply = text }
}

// NewEngine builds an Engine over an immutable registry. The initial scene
// must be registered.
func NewEngine(reg *Registry, store Store, initial ID, opts ...Option) (*Engine, error) {
	if reg == nil {
		return nil, fmt.Errorf("scene: nil registry")
	}
	if store == nil {
		return nil, fmt.Errorf("scene: nil store")
	}
	if !reg.Has(initial) {
		return nil, fmt.Errorf("%w: initial scene %q", ErrUnknownScene, initial)
	}
	e := &Engine{
		registry:     reg,
		store:        store,
		initial:      initial,
		unknownReply: defaultUnknownReply,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Initial returns the engine's landing scene.
func (e *Engine) Initial() ID {
	return e.initial
}

// HandleTurn processes one inbound message for one identity. Turns for the
// same identity are serialized through the store's per-identity lock; the
// lock is released even when the turn errors.
func (e *Engine) HandleTurn(ctx context.Context, from User, text string, out Responder) error {
	unlock := e.store.Lock(from.ID)
	defer unlock()

	sess := e.store.GetOrCreate(from.ID, e.initial)
	sc, err := e.registry.Resolve(sess.Current)
	if err != nil {
		return err
	}

	t := &Turn{Ctx: ctx, From: from, Text: text, Session: sess, out: out}

	handle := e.selectHandler(sc, text)
	if handle == nil {
		// Unrecognized input with no fallback: reply and end the turn with
		// no state change.
		logger.Debug(ctx, "scene", "turn.unmatched",
			slog.Int64("user_id", from.ID),
			slog.String("scene", string(sess.Current)),
		)
		return t.Send(e.unknownReply)
	}

	before := sess.Current
	d, err := handle(t)
	if err != nil {
		return err
	}
	if err := e.apply(t, sc, d, 0); err != nil {
		return err
	}

	e.store.Save(sess)
	logger.Debug(ctx, "scene", "turn.handled",
		slog.Int64("user_id", from.ID),
		slog.String("scene", string(before)),
		slog.String("directive", d.String()),
		slog.String("scene_after", string(sess.Current)),
		slog.Int("step", sess.Step()),
	)
	return nil
}

func (e *Engine) selectHandler(sc *Scene, text string) HandlerFunc {
	for _, h := range sc.Handlers {
		if h.Match != nil && h.Handle != nil && h.Match(text) {
			return h.Handle
		}
	}
	return sc.Fallback
}

func (e *Engine) apply(t *Turn, current *Scene, d Directive, depth int) error {
	if depth > maxChainDepth {
		return fmt.Errorf("scene: navigation chain exceeded %d transitions starting at %q", maxChainDepth, t.Session.Current)
	}

	switch d.kind {
	case kindStay:
		return nil

	case kindRetake:
		t.Session.SetStep(d.step)
		return e.runEnter(t, current, depth)

	case kindGoto:
		return e.enter(t, current, d.target, 0, true, depth)

	case kindBack:
		sess := t.Session
		if len(sess.History) == 0 {
			return e.enter(t, current, e.initial, 0, false, depth)
		}
		cp := sess.History[len(sess.History)-1]
		sess.History = sess.History[:len(sess.History)-1]
		return e.enter(t, current, cp.Scene, cp.Step, false, depth)

	case kindExit:
		t.Session.History = nil
		t.Session.ClearData()
		return e.enter(t, current, e.initial, 0, false, depth)

	default:
		return fmt.Errorf("scene: unknown directive %v", d.kind)
	}
}

// enter performs the actual scene transition and runs the target's OnEnter,
// applying any chained directive it returns.
func (e *Engine) enter(t *Turn, from *Scene, target ID, step int, push bool, depth int) error {
	tsc, err := e.registry.Resolve(target)
	if err != nil {
		return err
	}
	sess := t.Session

	if tsc.ResetHistoryOnEnter {
		sess.History = nil
	} else if push && from != nil {
		sess.History = append(sess.History, Checkpoint{Scene: from.ID, Step: sess.Step()})
	}

	sess.Current = target
	if tsc.ResetDataOnEnter {
		sess.ClearData()
	}
	sess.SetStep(step)

	return e.runEnter(t, tsc, depth)
}

func (e *Engine) runEnter(t *Turn, sc *Scene, depth int) error {
	if sc.OnEnter == nil {
		return nil
	}
	d, err := sc.OnEnter(t)
	if err != nil {
		return err
	}
	return e.apply(t, sc, d, depth+1)
}
