// Package scene provides a per-user dialogue state machine for chat bots.
// A Scene is a named conversation state with ordered message matchers and an
// optional enter handler; the Engine routes every inbound text to the
// handler registered for the user's current scene and applies the navigation
// directive the handler returns. It is intentionally transport-agnostic so
// it can be reused across bots.
package scene
