package scene

import (
	"errors"
	"fmt"
)

// ErrUnknownScene reports a reference to a scene absent from the registry.
// It is a configuration error: fatal at startup, never recoverable per turn.
var ErrUnknownScene = errors.New("scene: unknown scene")

// Registry maps scene identifiers to their definitions. It is built once at
// startup and treated as immutable afterwards.
type Registry struct {
	scenes map[ID]*Scene
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{scenes: make(map[ID]*Scene)}
}

// Register adds scene definitions. Empty identifiers and duplicates are
// configuration errors.
func (r *Registry) Register(scenes ...*Scene) error {
	for _, sc := range scenes {
		if sc == nil || sc.ID == "" {
			return errors.New("scene: registration requires a scene with an id")
		}
		if _, exists := r.scenes[sc.ID]; exists {
			return fmt.Errorf("scene: duplicate scene %q", sc.ID)
		}
		r.scenes[sc.ID] = sc
	}
	return nil
}

// Resolve returns the definition for id or ErrUnknownScene.
func (r *Registry) Resolve(id ID) (*Scene, error) {
	sc, ok := r.scenes[id]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownScene, id)
	}
	return sc, nil
}

// Has reports whether id is registered.
func (r *Registry) Has(id ID) bool {
	_, ok := r.scenes[id]
	return ok
}
