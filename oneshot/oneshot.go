package oneshot

import (
	"bytes"
	"encoding/json"
	"errors"

	"fortio.org/log"
	"grol.io/oneshot/eval"
	"grol.io/oneshot/lexer"
	"grol.io/oneshot/object"
	"grol.io/oneshot/parser"
	"grol.io/oneshot/token"
)

type Kind uint8

const (
	Value Kind = iota
	EarlyReturn
	ExitRequested
	Failed
)

func (k Kind) String() string {
	switch k {
	case Value:
		return "Value"
	case EarlyReturn:
		return "EarlyReturn"
	case ExitRequested:
		return "ExitRequested"
	case Failed:
		return "Failed"
	}
	return "Kind(?)"
}

// Outcome is the result of running a program: a value (possibly from a top level return),
// an exit request or a failure.
type Outcome struct {
	Kind    Kind
	Value   object.Object // Value and EarlyReturn.
	Code    int           // ExitRequested.
	Span    token.Span    // ExitRequested: where exit was called.
	Failure *Failure      // Failed.
}

// Execute parses program against ctx, merges the definitions it declares and evaluates it
// with a fresh stack and no input.
func Execute(ctx *eval.Context, program string) Outcome {
	p := parser.New(lexer.New(program), ctx)
	unit := p.ParseProgram()
	if errs := p.Errors(); len(errs) > 0 {
		return Outcome{Kind: Failed, Failure: parseFailure(errs)}
	}
	if err := ctx.Merge(unit.Defs); err != nil {
		f := &Failure{Kind: ContextMergeError, Message: err.Error()}
		var me *eval.MergeError
		if errors.As(err, &me) {
			f.Span = newSpan(me.Span)
		}
		return Outcome{Kind: Failed, Failure: f}
	}
	log.LogVf("evaluating %d statements, %d definitions merged", len(unit.Statements), len(unit.Defs))
	res := eval.Run(ctx, eval.NewStack(ctx), unit, object.NULL)
	switch v := res.(type) {
	case object.ReturnValue:
		return Outcome{Kind: EarlyReturn, Value: v.Value}
	case object.Exit:
		return Outcome{Kind: ExitRequested, Code: v.Code, Span: v.Span}
	case object.Error:
		return Outcome{Kind: Failed, Failure: runtimeFailure(v)}
	}
	return Outcome{Kind: Value, Value: res}
}

func parseFailure(errs []*parser.Error) *Failure {
	first := errs[0]
	f := &Failure{
		Kind:        ParseError,
		Message:     "Parse error: " + first.Error(),
		Span:        newSpan(first.Span),
		Diagnostics: make([]string, 0, len(errs)),
	}
	for _, e := range errs {
		f.Diagnostics = append(f.Diagnostics, e.Error())
	}
	return f
}

func runtimeFailure(e object.Error) *Failure {
	return &Failure{
		Kind:      RuntimeError,
		Message:   e.Msg,
		Span:      newSpan(e.Span),
		ErrorKind: e.Kind,
		Stack:     e.Stack,
	}
}

// Serialize converts v to JSON with the context's own `to json` command, called with v as
// its input and no argument. The returned JSON is compacted.
func Serialize(ctx *eval.Context, v object.Object) (json.RawMessage, *Failure) {
	if _, ok := ctx.Lookup("to json"); !ok {
		return nil, &Failure{Kind: MissingCapability, Message: "could not find the 'to json' command"}
	}
	res := eval.Invoke(ctx, eval.NewStack(ctx), "to json", v)
	var text string
	switch r := res.(type) {
	case object.String:
		text = r.Value
	case object.Error:
		return nil, &Failure{Kind: ConversionError, Message: r.Msg, ErrorKind: r.Kind}
	default:
		return nil, &Failure{
			Kind:    UnexpectedType,
			Message: "expected a JSON string, got " + res.Type().String(),
			Type:    res.Type().String(),
		}
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, []byte(text)); err != nil {
		return nil, &Failure{Kind: JSONDecodeError, Message: err.Error()}
	}
	return buf.Bytes(), nil
}

// Run executes program in ctx and classifies the outcome.
func Run(ctx *eval.Context, program string) EvalResult {
	o := Execute(ctx, program)
	log.Debugf("outcome %v", o.Kind)
	if o.Kind != Value && o.Kind != EarlyReturn {
		return Classify(o, nil, nil)
	}
	out, f := Serialize(ctx, o.Value)
	return Classify(o, out, f)
}

// Evaluate runs program once in a new default context with env as its environment.
// The error is only for context setup failures, program failures are in the result.
func Evaluate(program string, env map[string]string) (EvalResult, error) {
	return EvaluateWith(Options{}, program, env)
}

func EvaluateWith(opts Options, program string, env map[string]string) (EvalResult, error) {
	ctx, err := BuildContext(opts, env)
	if err != nil {
		return EvalResult{}, err
	}
	return Run(ctx, program), nil
}
