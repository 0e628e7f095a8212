package scene

// Checkpoint marks a position in the navigation history: which scene the
// user was in and at which step. Checkpoints are opaque to scenes.
type Checkpoint struct {
	Scene ID
	Step  int
}

const (
	keyStep    = "step"
	keyAnswers = "answers"
)

// Session is the per-user record of the conversation: current scene,
// navigation history and the in-progress answer bag. Sessions are created
// lazily on first contact and owned exclusively by one in-flight turn at a
// time (see Store).
type Session struct {
	UserID  int64
	Current ID
	History []Checkpoint
	Data    map[string]any
}

func newSession(userID int64, initial ID) *Session {
	return &Session{
		UserID:  userID,
		Current: initial,
		Data:    make(map[string]any),
	}
}

// Step returns the current step counter for step-sequenced scenes, 0 when
// unset.
func (s *Session) Step() int {
	if v, ok := s.Data[keyStep]; ok {
		if n, ok := v.(int); ok && n >= 0 {
			return n
		}
	}
	return 0
}

// SetStep stores the step counter. Negative values reset to 0.
func (s *Session) SetStep(step int) {
	if step < 0 {
		step = 0
	}
	s.Data[keyStep] = step
}

// Answers returns the answer map for step-sequenced scenes, creating it on
// first use.
func (s *Session) Answers() map[string]string {
	if v, ok := s.Data[keyAnswers]; ok {
		if m, ok := v.(map[string]string); ok {
			return m
		}
	}
	m := make(map[string]string)
	s.Data[keyAnswers] = m
	return m
}

// SetAnswer records one answer under a step-specific key.
func (s *Session) SetAnswer(key, value string) {
	s.Answers()[key] = value
}

// ClearData drops all transient answers and the step counter.
func (s *Session) ClearData() {
	s.Data = make(map[string]any)
}
