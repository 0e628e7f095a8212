package scene

type directiveKind int

const (
	kindStay directiveKind = iota
	kindGoto
	kindBack
	kindExit
	kindRetake
)

// Directive is the instruction a handler returns to control the next state
// transition. Construct values through Stay, Goto, Back, Exit or Retake.
type Directive struct {
	kind   directiveKind
	target ID
	step   int
}

// Stay keeps the session in the current scene at the current step.
func Stay() Directive { return Directive{kind: kindStay} }

// Goto transitions to the named scene, pushing the current position onto the
// navigation history unless the target resets it.
func Goto(id ID) Directive { return Directive{kind: kindGoto, target: id} }

// Back pops the last history checkpoint and re-enters it. With empty history
// it behaves like Goto of the engine's initial scene.
func Back() Directive { return Directive{kind: kindBack} }

// Exit clears history and data and returns to the engine's initial scene.
func Exit() Directive { return Directive{kind: kindExit} }

// Retake stays in the current scene, moves to the given step and re-runs the
// scene's OnEnter so it can render the prompt for that step.
func Retake(step int) Directive { return Directive{kind: kindRetake, step: step} }

func (d Directive) String() string {
	switch d.kind {
	case kindGoto:
		return "goto:" + string(d.target)
	case kindBack:
		return "back"
	case kindExit:
		return "exit"
	case kindRetake:
		return "retake"
	default:
		return "stay"
	}
}
