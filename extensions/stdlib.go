package extensions

import (
	_ "embed"
	"errors"
	"fmt"

	"fortio.org/log"
	"grol.io/oneshot/eval"
	"grol.io/oneshot/lexer"
	"grol.io/oneshot/parser"
)

//go:embed std/std.osh
var stdlib string

// ErrStdlib is wrapped by the errors of LoadStdlib.
var ErrStdlib = errors.New("standard library")

// LoadStdlib parses the embedded standard library definitions and merges them into ctx.
// A failure means a broken build or a name collision with a registered command.
func LoadStdlib(ctx *eval.Context) error {
	p := parser.New(lexer.New(stdlib), ctx)
	program := p.ParseProgram()
	if errs := p.Errors(); len(errs) > 0 {
		for _, e := range errs {
			log.Errf("std: %v", e)
		}
		return fmt.Errorf("%w: %d parse errors, first: %v", ErrStdlib, len(errs), errs[0])
	}
	if len(program.Statements) != len(program.Defs) {
		return fmt.Errorf("%w: only definitions are allowed", ErrStdlib)
	}
	if err := ctx.Merge(program.Defs); err != nil {
		return fmt.Errorf("%w: %w", ErrStdlib, err)
	}
	log.LogVf("standard library: %d definitions loaded", len(program.Defs))
	return nil
}
