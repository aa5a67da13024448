package eval

import (
	"fortio.org/sets"
	"grol.io/oneshot/object"
	"grol.io/oneshot/token"
)

// Call is what a command callback receives: evaluated arguments, flags and the
// piped input, plus access to the running evaluation.
type Call struct {
	Ctx   *Context
	Stack *Stack
	Name  string
	Input object.Object
	Args  []object.Object
	Flags sets.Set[string]
	Span  token.Span
}

func (c *Call) HasFlag(name string) bool {
	return c.Flags.Has(name)
}

// Arg returns the i-th argument or nil when not provided.
func (c *Call) Arg(i int) object.Object {
	if i < len(c.Args) {
		return c.Args[i]
	}
	return nil
}

// Errorf returns an error located at the call.
func (c *Call) Errorf(kind, format string, args ...any) object.Error {
	return c.Stack.Errorf(kind, c.Span, c.Name+": "+format, args...)
}

// TypeError is the common "wrong input or argument type" error.
func (c *Call) TypeError(what string, got object.Object, want ...object.Type) object.Error {
	expected := ""
	for i, w := range want {
		if i > 0 {
			expected += " or "
		}
		expected += w.String()
	}
	return c.Errorf(object.KindTypeMismatch, "%s: expected %s, got %s", what, expected, got.Type())
}

// CallClosure runs cl with input as $in and args bound to its parameters.
func (c *Call) CallClosure(cl object.Closure, input object.Object, args ...object.Object) object.Object {
	ev := evaluator{ctx: c.Ctx, st: c.Stack}
	return ev.applyClosure(cl, c.Span, input, args)
}
