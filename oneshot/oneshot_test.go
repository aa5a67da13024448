package oneshot_test

import (
	"bytes"
	"encoding/json"
	"math"
	"reflect"
	"strings"
	"testing"

	"grol.io/oneshot/eval"
	"grol.io/oneshot/object"
	"grol.io/oneshot/oneshot"
)

func evaluate(t *testing.T, program string, env map[string]string) oneshot.EvalResult {
	t.Helper()
	res, err := oneshot.Evaluate(program, env)
	if err != nil {
		t.Fatalf("setup error for %q: %v", program, err)
	}
	return res
}

func TestValues(t *testing.T) {
	tests := []struct {
		program  string
		expected string
	}{
		{"1 + 2", `3`},
		{"{a: 1, b: 2}", `{"a":1,"b":2}`},
		{"", `null`},
		{"# nothing", `null`},
		{`"x" | str upcase`, `"X"`},
		{"[1 2 3] | each {|x| $x * $x}", `[1,4,9]`},
		{"return 4; 5", `4`},
		{"def f [] { return 1; 2 }\nf", `1`},
		{"def double [x] { $x * 2 }\n21 | double $in", `42`},
		{`$env.HOME`, `"/home/test"`},
		{`$env.A = "b"; $env.A`, `"b"`},
		{"1..3", `[1,2,3]`},
		{`std clamp 20 0 10`, `10`},
		{`"1h" | into duration`, `3600000000000`},
		{`{b: 2, a: 1}`, `{"b":2,"a":1}`},
	}
	env := map[string]string{"HOME": "/home/test"}
	for _, tt := range tests {
		res := evaluate(t, tt.program, env)
		if res.ExitCode != 0 || res.Error != nil {
			t.Errorf("%q: unexpected failure %d %v", tt.program, res.ExitCode, res.Error)
			continue
		}
		if string(res.Output) != tt.expected {
			t.Errorf("%q: expected output %s, got %s", tt.program, tt.expected, res.Output)
		}
	}
}

func TestFailures(t *testing.T) {
	tests := []struct {
		program   string
		code      int
		kind      string
		errorKind string
	}{
		{"1 +", 2, oneshot.ParseError, ""},
		{"[1, 2", 2, oneshot.ParseError, ""},
		{"nosuchcommand 1", 2, oneshot.ParseError, ""},
		{"def echo [] { 1 }", 1, oneshot.ContextMergeError, ""},
		{"def f [] { 1 }\ndef f [] { 2 }", 1, oneshot.ContextMergeError, ""},
		{"def \"std abs\" [x] { $x }", 1, oneshot.ContextMergeError, ""},
		{"1 / 0", 1, oneshot.RuntimeError, object.KindDivisionByZero},
		{"$nope", 1, oneshot.RuntimeError, object.KindVariableNotFound},
		{`error make "custom"`, 1, oneshot.RuntimeError, object.KindUser},
		{"exit 300", 1, oneshot.RuntimeError, object.KindInvalidExitCode},
		{"def f [] { f }\nf", 1, oneshot.RuntimeError, object.KindMaxDepth},
		{"{|| 1}", 1, oneshot.ConversionError, object.KindCantConvert},
		{"exit 5", 5, oneshot.NonZeroExitCode, ""},
		{"def f [] { exit 3; 1 }\nf\n2", 3, oneshot.NonZeroExitCode, ""},
	}
	for _, tt := range tests {
		res, err := oneshot.EvaluateWith(oneshot.Options{MaxDepth: 200}, tt.program, nil)
		if err != nil {
			t.Fatalf("setup error: %v", err)
		}
		if res.ExitCode != tt.code {
			t.Errorf("%q: expected exit code %d, got %d (%v)", tt.program, tt.code, res.ExitCode, res.Error)
		}
		if res.Output != nil {
			t.Errorf("%q: expected no output, got %s", tt.program, res.Output)
		}
		if res.Error == nil {
			t.Errorf("%q: expected an error", tt.program)
			continue
		}
		if res.Error.Kind != tt.kind || res.Error.ErrorKind != tt.errorKind {
			t.Errorf("%q: expected %s/%s, got %s/%s: %s", tt.program, tt.kind, tt.errorKind,
				res.Error.Kind, res.Error.ErrorKind, res.Error.Message)
		}
		if res.Error.Message == "" {
			t.Errorf("%q: empty error message", tt.program)
		}
	}
}

func TestParseErrorDetail(t *testing.T) {
	res := evaluate(t, "1 +", nil)
	expected := "Parse error: expected expression, found end of input at 3..3"
	if res.Error.Message != expected {
		t.Errorf("expected %q, got %q", expected, res.Error.Message)
	}
	if res.Error.Span == nil || res.Error.Span.Start != 3 || res.Error.Span.End != 3 {
		t.Errorf("unexpected span %v", res.Error.Span)
	}
	if len(res.Error.Diagnostics) == 0 {
		t.Errorf("diagnostics should be kept")
	}
}

func TestRuntimeErrorDetail(t *testing.T) {
	res := evaluate(t, "def inner [] { 1 / 0 }\ndef outer [] { inner }\nouter", nil)
	if res.Error == nil || res.Error.Span == nil {
		t.Fatalf("expected located error, got %+v", res.Error)
	}
	if got := strings.Join(res.Error.Stack, ","); got != "inner,outer" {
		t.Errorf("expected stack inner,outer, got %q", got)
	}
	b, err := json.Marshal(res.Error)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	for _, part := range []string{`"kind":"RuntimeError"`, `"error_kind":"DivisionByZero"`, `"span":{"start":15,"end":20}`} {
		if !strings.Contains(string(b), part) {
			t.Errorf("expected %s in %s", part, b)
		}
	}
}

func TestDeepRecursionStackIsCapped(t *testing.T) {
	res, err := oneshot.EvaluateWith(oneshot.Options{MaxDepth: 5000}, "def f [] { f }\nf", nil)
	if err != nil {
		t.Fatalf("setup error: %v", err)
	}
	if res.Error == nil || res.Error.ErrorKind != object.KindMaxDepth {
		t.Fatalf("expected max depth error, got %+v", res.Error)
	}
	stack := res.Error.Stack
	if len(stack) != eval.MaxStackFrames+1 {
		t.Fatalf("expected %d stack entries, got %d", eval.MaxStackFrames+1, len(stack))
	}
	if stack[0] != "f" || stack[eval.MaxStackFrames-1] != "f" {
		t.Errorf("innermost frames should be kept: %v", stack[:3])
	}
	if last := stack[len(stack)-1]; !strings.HasPrefix(last, "... ") || !strings.HasSuffix(last, " more") {
		t.Errorf("expected an elided count last, got %q", last)
	}
}

func TestExitZero(t *testing.T) {
	for _, program := range []string{"exit", "exit 0", "1\nexit\n2", "[1 2] | each {|x| exit 0}"} {
		res := evaluate(t, program, nil)
		if !reflect.DeepEqual(res, oneshot.EvalResult{}) {
			t.Errorf("%q: expected all empty result, got %+v", program, res)
		}
	}
}

func TestExitScenario(t *testing.T) {
	res := evaluate(t, "exit 5", nil)
	b, err := json.Marshal(res)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	expected := `{"output":null,"exit_code":5,"error":{"kind":"NonZeroExitCode","message":"exit status 5",` +
		`"span":{"start":0,"end":6},"exit_code":5}}`
	if string(b) != expected {
		t.Errorf("expected\n%s\ngot\n%s", expected, b)
	}
}

func TestResultJSON(t *testing.T) {
	res := evaluate(t, "1 + 2", nil)
	b, err := json.Marshal(res)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(b) != `{"output":3,"exit_code":0,"error":null}` {
		t.Errorf("unexpected %s", b)
	}
}

func TestRoundTrip(t *testing.T) {
	res := evaluate(t, `[1, 2.5, "s\u0001é\"", true, null, {a: [1], "b c": "x"}, -0.5e10]`, nil)
	var got any
	if err := json.Unmarshal(res.Output, &got); err != nil {
		t.Fatalf("invalid JSON %s: %v", res.Output, err)
	}
	expected := []any{1., 2.5, "s\x01é\"", true, nil, map[string]any{"a": []any{1.}, "b c": "x"}, -0.5e10}
	if !reflect.DeepEqual(got, expected) {
		t.Errorf("expected %#v, got %#v", expected, got)
	}
}

func TestIdempotence(t *testing.T) {
	program := "def sq [x] { $x * $x }\n[1 2 3] | each {|v| sq $v} | math sum"
	r1 := evaluate(t, program, map[string]string{"A": "1"})
	r2 := evaluate(t, program, map[string]string{"A": "1"})
	if !reflect.DeepEqual(r1, r2) {
		t.Errorf("results differ: %+v vs %+v", r1, r2)
	}
	// the context identity is regenerated each time.
	id1 := evaluate(t, "$ctx.id", nil)
	id2 := evaluate(t, "$ctx.id", nil)
	if string(id1.Output) == string(id2.Output) || len(id1.Output) < 10 {
		t.Errorf("context ids should be distinct, got %s and %s", id1.Output, id2.Output)
	}
	flags := evaluate(t, "[$ctx.interactive $ctx.login $ctx.history_enabled]", nil)
	if string(flags.Output) != `[false,false,false]` {
		t.Errorf("unexpected flags %s", flags.Output)
	}
}

func TestEnvOverlayIsPerEvaluation(t *testing.T) {
	ctx, err := oneshot.BuildContext(oneshot.Options{}, map[string]string{"A": "host"})
	if err != nil {
		t.Fatal(err)
	}
	res := oneshot.Run(ctx, `$env.A = "changed"; $env.A`)
	if string(res.Output) != `"changed"` {
		t.Errorf("unexpected %s", res.Output)
	}
	res = oneshot.Run(ctx, `$env.A`)
	if string(res.Output) != `"host"` {
		t.Errorf("assignment leaked to the next evaluation: %s", res.Output)
	}
}

func TestPrintGoesToOut(t *testing.T) {
	var buf bytes.Buffer
	res, err := oneshot.EvaluateWith(oneshot.Options{Out: &buf}, "print hello; 1", nil)
	if err != nil {
		t.Fatal(err)
	}
	if string(res.Output) != "1" || buf.String() != "hello\n" {
		t.Errorf("unexpected output %s / print %q", res.Output, buf.String())
	}
}

func TestSerialize(t *testing.T) {
	bare := eval.NewContext()
	if _, f := oneshot.Serialize(bare, object.Integer{Value: 1}); f == nil || f.Kind != oneshot.MissingCapability {
		t.Errorf("expected MissingCapability, got %v", f)
	}
	wrongType := eval.NewContext()
	_ = wrongType.Register(eval.Command{Name: "to json", Callback: func(*eval.Call) object.Object {
		return object.Integer{Value: 42}
	}})
	if _, f := oneshot.Serialize(wrongType, object.NULL); f == nil || f.Kind != oneshot.UnexpectedType || f.Type != "int" {
		t.Errorf("expected UnexpectedType int, got %v", f)
	}
	badJSON := eval.NewContext()
	_ = badJSON.Register(eval.Command{Name: "to json", Callback: func(*eval.Call) object.Object {
		return object.String{Value: "{bad"}
	}})
	if _, f := oneshot.Serialize(badJSON, object.NULL); f == nil || f.Kind != oneshot.JSONDecodeError {
		t.Errorf("expected JSONDecodeError, got %v", f)
	}
	ctx, err := oneshot.BuildContext(oneshot.Options{}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if _, f := oneshot.Serialize(ctx, object.Float{Value: math.NaN()}); f == nil || f.Kind != oneshot.ConversionError {
		t.Errorf("expected ConversionError, got %v", f)
	}
	out, f := oneshot.Serialize(ctx, object.List{Elements: []object.Object{object.TRUE, object.NULL}})
	if f != nil || string(out) != "[true,null]" {
		t.Errorf("unexpected %s %v", out, f)
	}
}

func TestClassify(t *testing.T) {
	parseFailure := &oneshot.Failure{Kind: oneshot.ParseError, Message: "Parse error: x at 0..1"}
	runtimeFailure := &oneshot.Failure{Kind: oneshot.RuntimeError, Message: "boom"}
	serializeFailure := &oneshot.Failure{Kind: oneshot.JSONDecodeError, Message: "bad"}
	tests := []struct {
		name     string
		outcome  oneshot.Outcome
		output   json.RawMessage
		serErr   *oneshot.Failure
		code     int
		hasOut   bool
		hasError bool
	}{
		{"value", oneshot.Outcome{Kind: oneshot.Value}, json.RawMessage("1"), nil, 0, true, false},
		{"early return", oneshot.Outcome{Kind: oneshot.EarlyReturn}, json.RawMessage("1"), nil, 0, true, false},
		{"serialize failure", oneshot.Outcome{Kind: oneshot.Value}, nil, serializeFailure, 1, false, true},
		{"exit 0", oneshot.Outcome{Kind: oneshot.ExitRequested}, nil, nil, 0, false, false},
		{"exit 9", oneshot.Outcome{Kind: oneshot.ExitRequested, Code: 9}, nil, nil, 9, false, true},
		{"parse", oneshot.Outcome{Kind: oneshot.Failed, Failure: parseFailure}, nil, nil, 2, false, true},
		{"runtime", oneshot.Outcome{Kind: oneshot.Failed, Failure: runtimeFailure}, nil, nil, 1, false, true},
	}
	for _, tt := range tests {
		res := oneshot.Classify(tt.outcome, tt.output, tt.serErr)
		if res.ExitCode != tt.code || (res.Output != nil) != tt.hasOut || (res.Error != nil) != tt.hasError {
			t.Errorf("%s: unexpected %+v", tt.name, res)
		}
	}
}
