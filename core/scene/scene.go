package scene

import (
	"context"
	"strings"
)

// ID identifies a scene within a Registry.
type ID string

// User describes the origin of a turn. FullName and Username come from the
// transport profile and are only read by onboarding flows.
type User struct {
	ID       int64
	FullName string
	Username string
}

// Responder delivers outbound messages for the current turn. Each call sends
// one message; rows are ordered groups of quick-reply option texts. A call
// without rows hides any previously shown quick replies.
type Responder interface {
	Send(text string, rows ...[]string) error
}

// Turn is the per-message view handlers operate on. Handlers may mutate
// Session.Data freely; the engine persists the session after the directive
// chain settles.
type Turn struct {
	Ctx     context.Context
	From    User
	Text    string
	Session *Session

	out Responder
}

// Send forwards text and optional quick-reply rows to the turn's responder.
func (t *Turn) Send(text string, rows ...[]string) error {
	if t.out == nil {
		return nil
	}
	return t.out.Send(text, rows...)
}

// HandlerFunc processes a turn and returns the next navigation directive.
type HandlerFunc func(t *Turn) (Directive, error)

// Match is a predicate over the incoming message text.
type Match func(text string) bool

// Exact matches text equal to s under case folding.
func Exact(s string) Match {
	return func(text string) bool {
		return strings.EqualFold(strings.TrimSpace(text), s)
	}
}

// Prefix matches text starting with p.
func Prefix(p string) Match {
	return func(text string) bool {
		return strings.HasPrefix(text, p)
	}
}

// Any matches every message. Declare it last: matchers run in order.
func Any() Match {
	return func(string) bool { return true }
}

// Handler couples a match predicate with its handler.
type Handler struct {
	Match  Match
	Handle HandlerFunc
}

// On is shorthand for building a Handler entry.
func On(m Match, h HandlerFunc) Handler {
	return Handler{Match: m, Handle: h}
}

// Scene declares one state of the dialogue machine. Scenes are immutable
// after registration; all per-user mutable state lives in the Session.
type Scene struct {
	ID ID

	// OnEnter runs once per transition into the scene (goto, back, exit,
	// retake). It may return a further directive, which the engine applies
	// before the turn completes.
	OnEnter HandlerFunc

	// Handlers are evaluated in declaration order; the first whose Match
	// accepts the incoming text wins.
	Handlers []Handler

	// Fallback runs when no handler matched. When nil the engine replies
	// with its generic unrecognized-input text and leaves the session
	// untouched.
	Fallback HandlerFunc

	// ResetDataOnEnter clears Session.Data when the scene is entered.
	ResetDataOnEnter bool
	// ResetHistoryOnEnter clears the navigation history instead of pushing
	// the departed scene onto it.
	ResetHistoryOnEnter bool
}
