package extensions

import (
	"bytes"
	"context"
	"errors"
	"strings"

	"fortio.org/log"
	"grol.io/oneshot/eval"
	"grol.io/oneshot/object"
	"mvdan.cc/sh/v3/expand"
	"mvdan.cc/sh/v3/interp"
	"mvdan.cc/sh/v3/syntax"
)

// shellEnv is the evaluation's $env overlay in KEY=value form.
func shellEnv(env object.Record) []string {
	res := make([]string, 0, env.Len())
	for i, k := range env.Keys() {
		res = append(res, k+"="+object.ToString(env.Values()[i]))
	}
	return res
}

// runShell runs script with the in-process POSIX shell interpreter (no external /bin/sh).
// Only the exit status of the script is returned as code; err is for parse and interpreter failures.
func runShell(script string, stdin string, env []string, dir string, params []string,
) (stdout, stderr string, code int, err error) {
	prog, err := syntax.NewParser().Parse(strings.NewReader(script), "sh")
	if err != nil {
		return "", "", 0, err
	}
	var sout, serr bytes.Buffer
	opts := []interp.RunnerOption{
		interp.StdIO(strings.NewReader(stdin), &sout, &serr),
		interp.Env(expand.ListEnviron(env...)),
	}
	if dir != "" {
		opts = append(opts, interp.Dir(dir))
	}
	if len(params) > 0 {
		opts = append(opts, interp.Params(append([]string{"--"}, params...)...))
	}
	runner, err := interp.New(opts...)
	if err != nil {
		return "", "", 0, err
	}
	err = runner.Run(context.Background(), prog)
	if err != nil {
		var status interp.ExitStatus
		if !errors.As(err, &status) {
			return sout.String(), serr.String(), 0, err
		}
		code = int(status)
	}
	return sout.String(), serr.String(), code, nil
}

func shellCommands() []eval.Command {
	return []eval.Command{
		{
			Name:     "sh",
			Help:     "runs a POSIX shell script in process; the piped input is its stdin, extra arguments are $1...",
			MinArgs:  1,
			MaxArgs:  -1,
			ArgTypes: []object.Type{object.STRING},
			Callback: func(c *eval.Call) object.Object {
				params := make([]string, 0, len(c.Args)-1)
				for _, a := range c.Args[1:] {
					params = append(params, object.ToString(a))
				}
				stdin := ""
				if c.Input.Type() != object.NIL {
					stdin = object.ToString(c.Input)
				}
				env := c.Stack.Env()
				dir := ""
				if pwd, ok := env.Get("PWD"); ok {
					dir = object.ToString(pwd)
				}
				log.LogVf("sh: running %q with %d params in %q", argString(c, 0), len(params), dir)
				sout, serr, code, err := runShell(argString(c, 0), stdin, shellEnv(env), dir, params)
				if err != nil {
					return c.Errorf(object.KindCommandFailed, "%v", err)
				}
				res := object.NewRecord()
				res.Put("stdout", object.String{Value: sout})
				res.Put("stderr", object.String{Value: serr})
				res.Put("exit_code", object.Integer{Value: int64(code)})
				return res
			},
		},
	}
}

func extraCommands() []eval.Command {
	var cmds []eval.Command
	cmds = append(cmds, extraStringCommands()...)
	cmds = append(cmds, durationCommands()...)
	cmds = append(cmds, shellCommands()...)
	return cmds
}
