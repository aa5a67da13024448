package eval

import (
	"fmt"

	"fortio.org/log"
	"grol.io/oneshot/object"
	"grol.io/oneshot/token"
)

// Stack is the execution stack of one evaluation: variable frames, the
// environment overlay ($env.X = ... assignments) and the current depth.
type Stack struct {
	env      *object.Environment
	overlay  object.Record
	calls    []string // names of the definitions and closures being run.
	depth    int
	maxDepth int
}

// NewStack starts an empty stack whose environment is a copy of the context's.
func NewStack(ctx *Context) *Stack {
	return &Stack{
		env:      object.NewRootEnvironment(),
		overlay:  ctx.Env(),
		maxDepth: ctx.MaxDepth,
	}
}

// Env is the environment as seen by this evaluation.
func (s *Stack) Env() object.Record {
	return s.overlay
}

func (s *Stack) SetEnv(name string, value object.Object) {
	s.overlay = s.overlay.With(name, value)
}

func (s *Stack) Depth() int {
	return s.depth
}

// MaxStackFrames is how many frames error stacks keep; the outer ones are
// summarized as a single "... N more" entry.
const MaxStackFrames = 50

// Names returns the call frames from the innermost one, at most MaxStackFrames of them.
func (s *Stack) Names() []string {
	n := min(len(s.calls), MaxStackFrames)
	stack := make([]string, 0, n+1)
	for i := len(s.calls) - 1; i >= len(s.calls)-n; i-- {
		stack = append(stack, s.calls[i])
	}
	if elided := len(s.calls) - n; elided > 0 {
		stack = append(stack, fmt.Sprintf("... %d more", elided))
	}
	log.Debugf("Stack() depth %d returning %v", s.depth, stack)
	return stack
}

// Error creates a new error object with the given kind, location and current stack.
func (s *Stack) Error(kind string, span token.Span, msg string) object.Error {
	return object.Error{Kind: kind, Msg: msg, Span: span, Stack: s.Names()}
}

func (s *Stack) Errorf(kind string, span token.Span, format string, args ...any) object.Error {
	return s.Error(kind, span, fmt.Sprintf(format, args...))
}

func (s *Stack) push(env *object.Environment) *object.Environment {
	prev := s.env
	s.env = env
	return prev
}

func (s *Stack) pop(prev *object.Environment) {
	s.env = prev
}

// enter starts a call frame, the returned func ends it.
func (s *Stack) enter(name string, env *object.Environment) func() {
	prev := s.push(env)
	s.calls = append(s.calls, name)
	return func() {
		s.calls = s.calls[:len(s.calls)-1]
		s.pop(prev)
	}
}
