// Package oneshot runs a single program in a freshly built interpreter context and
// reports the outcome as a JSON friendly {output, exit_code, error} result.
package oneshot

import (
	"io"
	"os"
	"runtime"

	"fortio.org/log"
	"github.com/google/uuid"
	"grol.io/oneshot/eval"
	"grol.io/oneshot/extensions"
	"grol.io/oneshot/object"
)

// Options tune the context built for an evaluation. The zero value is the default.
type Options struct {
	// Out receives what `print` writes. os.Stdout when nil.
	Out io.Writer
	// MaxDepth bounds evaluation nesting. eval.DefaultMaxDepth when 0.
	MaxDepth int
}

// BuildContext assembles a new context: the standard command groups in their fixed order,
// the custom commands, env as the environment, the standard library definitions.
// Errors are setup failures, not program failures. Contexts never share state.
func BuildContext(opts Options, env map[string]string) (*eval.Context, error) {
	ctx := eval.NewContext()
	if opts.Out != nil {
		ctx.Out = opts.Out
	}
	if opts.MaxDepth > 0 {
		ctx.MaxDepth = opts.MaxDepth
	}
	if err := extensions.RegisterGroups(ctx); err != nil {
		return nil, err
	}
	if err := extensions.RegisterCustom(ctx); err != nil {
		return nil, err
	}
	ctx.AddEnv(env)
	if err := extensions.LoadStdlib(ctx); err != nil {
		return nil, err
	}
	ctx.Flags = eval.Flags{Interactive: false, Login: false, HistoryEnabled: false}
	id := uuid.NewString()
	ctx.SetConstant("id", object.String{Value: id})
	ctx.SetConstant("os", object.String{Value: runtime.GOOS})
	ctx.SetConstant("pid", object.Integer{Value: int64(os.Getpid())})
	ctx.SetConstant("interactive", object.FALSE)
	ctx.SetConstant("login", object.FALSE)
	ctx.SetConstant("history_enabled", object.FALSE)
	log.LogVf("context %s: %d commands, %d definitions, %d env vars",
		id, len(ctx.Commands()), len(ctx.Decls()), ctx.Env().Len())
	return ctx, nil
}
