package extensions_test

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"fortio.org/log"
	"grol.io/oneshot/eval"
	"grol.io/oneshot/extensions"
	"grol.io/oneshot/lexer"
	"grol.io/oneshot/object"
	"grol.io/oneshot/parser"
)

func newContext(t *testing.T) *eval.Context {
	t.Helper()
	ctx := eval.NewContext()
	if err := extensions.RegisterGroups(ctx); err != nil {
		t.Fatalf("RegisterGroups: %v", err)
	}
	if err := extensions.RegisterCustom(ctx); err != nil {
		t.Fatalf("RegisterCustom: %v", err)
	}
	if err := extensions.LoadStdlib(ctx); err != nil {
		t.Fatalf("LoadStdlib: %v", err)
	}
	return ctx
}

func run(t *testing.T, ctx *eval.Context, input string) object.Object {
	t.Helper()
	p := parser.New(lexer.New(input), ctx)
	program := p.ParseProgram()
	if errs := p.Errors(); len(errs) > 0 {
		t.Fatalf("parse errors for %q: %v", input, errs)
	}
	if err := ctx.Merge(program.Defs); err != nil {
		t.Fatalf("merge for %q: %v", input, err)
	}
	return eval.Run(ctx, eval.NewStack(ctx), program, nil)
}

func TestCommands(t *testing.T) { //nolint:funlen // table of test cases.
	tests := []struct {
		input    string
		expected string
	}{
		{`[1] | describe`, `"list"`},
		{`{a: 1} | describe`, `"record"`},
		{`echo 1 2`, `[1, 2]`},
		{`echo`, `null`},
		{`42 | ignore`, `null`},
		{`do {|| 1 + 1}`, `2`},
		{`[1 2 3] | length`, `3`},
		{`{a: 1, b: 2} | length`, `2`},
		{`{a: 1} | get a`, `1`},
		{`[10 20] | get 1`, `20`},
		{`[{n: 1} {n: 2}] | get n`, `[1, 2]`},
		{`{a: {b: 1}} | get a.b`, `1`},
		{`{a: [{n: 5}]} | get a.0.n`, `5`},
		{`{a: [{n: 5} {n: 6}]} | get a.n`, `[5, 6]`},
		{`{"x.y": 2, x: {y: 3}} | get x.y`, `2`},
		{`echo foo.txt`, `"foo.txt"`},
		{`[1 2 3] | first`, `1`},
		{`[1 2 3] | first 2`, `[1, 2]`},
		{`[1 2 3] | last`, `3`},
		{`[1 2 3] | last 2`, `[2, 3]`},
		{`[1 2 3] | last 10`, `[1, 2, 3]`},
		{`[1 2 3] | reverse`, `[3, 2, 1]`},
		{`[3 1 2] | sort`, `[1, 2, 3]`},
		{`["b" "a"] | sort`, `["a", "b"]`},
		{`[3 1 2] | sort --reverse`, `[3, 2, 1]`},
		{`[1 2 2 1 3] | uniq`, `[1, 2, 3]`},
		{`[1 2 3] | each {|x| $x * 2}`, `[2, 4, 6]`},
		{`[1 2 3 4] | where {|x| $x % 2 == 0}`, `[2, 4]`},
		{`[1 2 3 4] | reduce {|it acc| $it + $acc}`, `10`},
		{`[1 2 3] | reduce {|it acc| $acc * 10 + $it} 0`, `123`},
		{`{a: 1, b: 2} | keys`, `["a", "b"]`},
		{`[{a: 1} {b: 2, a: 3}] | columns`, `["a", "b"]`},
		{`{a: 1, b: 2} | values`, `[1, 2]`},
		{`{a: 1} | insert b 2`, `{a: 1, b: 2}`},
		{`{a: 1, b: 2} | merge {b: 3, c: 4}`, `{a: 1, b: 3, c: 4}`},
		{`[1 2] | append 3`, `[1, 2, 3]`},
		{`[1] | append [2 3]`, `[1, 2, 3]`},
		{`'{"b": 1, "a": [true, null, 1.5]}' | from json`, `{b: 1, a: [true, null, 1.5]}`},
		{`"Hello" | str upcase`, `"HELLO"`},
		{`["A" "b"] | str downcase`, `["a", "b"]`},
		{`"  x " | str trim`, `"x"`},
		{`"héllo" | str length`, `5`},
		{`"héllo" | str length --bytes`, `6`},
		{`"Hello World" | str contains "World"`, `true`},
		{`"Hello World" | str contains "world"`, `false`},
		{`"Hello World" | str contains --ignore-case "world"`, `true`},
		{`"a,b,c" | split row ","`, `["a", "b", "c"]`},
		{`["a" "b" 1] | str join "-"`, `"a-b-1"`},
		{`[1 2 3] | str join`, `"123"`},
		{`[1 2 3] | math sum`, `6`},
		{`[1 2.5] | math sum`, `3.5`},
		{`[] | math sum`, `0`},
		{`[3 1 2] | math max`, `3`},
		{`[3 1 2] | math min`, `1`},
		{`[1 2] | math avg`, `1.5`},
		{`"0x1f" | into int`, `31`},
		{`"1_000" | into int`, `1000`},
		{`2.9 | into int`, `2`},
		{`-2.9 | into int`, `-2`},
		{`true | into int`, `1`},
		{`"1.5" | into float`, `1.5`},
		{`3 | into float`, `3.0`},
		{`42 | into string`, `"42"`},
		{`"90m" | into duration | into int`, `5400000000000`},
		{`"1d" | into duration | into int`, `86400000000000`},
		{`["1h" "30m"] | each {|d| $d | into duration} | math sum | into int`, `5400000000000`},
		{`"1d2h" | into duration | format duration | into duration | into int`, `93600000000000`},
		{`"1h30m15s" | into duration | format duration h | into duration | into int`, `3600000000000`},
		{`"hello wORLD" | str title-case`, `"Hello World"`},
		{`"日本" | str width`, `4`},
		{`"ab" | str width`, `2`},
		{`plugin list`, `[]`},
		{`commandline`, `""`},
		{`version | get interactive`, `false`},
		{`std abs -3`, `3`},
		{`std abs 3`, `3`},
		{`std max 1 2`, `2`},
		{`std min 1 2`, `1`},
		{`std clamp 15 0 10`, `10`},
		{`std clamp -5 0 10`, `0`},
		{`std inc 41`, `42`},
		{`std repeat "ab" 3`, `"ababab"`},
		{`std repeat "x" 0`, `""`},
		{`null | std default 5`, `5`},
		{`1 | std default 5`, `1`},
	}
	ctx := newContext(t)
	for _, tt := range tests {
		res := run(t, ctx, tt.input)
		if res.Inspect() != tt.expected {
			t.Errorf("for %q expected %s, got %s", tt.input, tt.expected, res.Inspect())
		}
	}
}

func TestErrors(t *testing.T) {
	tests := []struct {
		input string
		kind  string
	}{
		{`[] | first`, object.KindIndexOutOfRange},
		{`[1] | get 3`, object.KindIndexOutOfRange},
		{`{a: 1} | get b`, object.KindColumnNotFound},
		{`{a: {b: 1}} | get a.c`, object.KindColumnNotFound},
		{`{a: [1]} | get a.4`, object.KindIndexOutOfRange},
		{`{a: 1} | get a.b`, object.KindTypeMismatch},
		{`{a: 1} | insert a 2`, object.KindIncorrectArgs},
		{`"x" | into int`, object.KindCantConvert},
		{`1.5e300 | into int`, object.KindCantConvert},
		{`"x" | into duration`, object.KindCantConvert},
		{`{f: {|| 1}} | to json`, object.KindCantConvert},
		{`'{"a": ' | from json`, object.KindCantConvert},
		{`'a: [' | from yaml`, object.KindCantConvert},
		{`'a = ' | from toml`, object.KindCantConvert},
		{`{a: null} | to toml`, object.KindCantConvert},
		{`[1 "a"] | math sum`, object.KindTypeMismatch},
		{`[9223372036854775807 1] | math sum`, object.KindOverflow},
		{`[1 "a"] | math max`, object.KindTypeMismatch},
		{`1 | str upcase`, object.KindTypeMismatch},
		{`[1 2] | where {|x| $x}`, object.KindTypeMismatch},
		{`[1 2] | each {|x| error make "stop"}`, object.KindUser},
		{`error make {msg: "bad"}`, object.KindUser},
		{`plugin use foo`, object.KindNotSupported},
		{`history`, object.KindNotSupported},
		{`explore`, object.KindNotSupported},
		{`exit 256`, object.KindInvalidExitCode},
		{`exit -1`, object.KindInvalidExitCode},
		{`sh 'if'`, object.KindCommandFailed},
		{`std abs`, object.KindIncorrectArgs},
	}
	ctx := newContext(t)
	for _, tt := range tests {
		res := run(t, ctx, tt.input)
		errObj, ok := res.(object.Error)
		if !ok {
			t.Errorf("for %q expected a %s error, got %s", tt.input, tt.kind, res.Inspect())
			continue
		}
		if errObj.Kind != tt.kind {
			t.Errorf("for %q expected kind %s, got %s (%s)", tt.input, tt.kind, errObj.Kind, errObj.Msg)
		}
	}
}

func TestJSONConversion(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{`{a: [1, 2.5, "x", true, null]} | to json --raw`, `{"a":[1,2.5,"x",true,null]}`},
		{`{a: 1} | to json`, "{\n  \"a\": 1\n}"},
		{`[] | to json`, `[]`},
		{`"é\n" | to json`, `"é\n"`},
		{`{b: 1, a: 2} | to json --raw | from json | to json --raw`, `{"b":1,"a":2}`},
	}
	ctx := newContext(t)
	for _, tt := range tests {
		res := run(t, ctx, tt.input)
		if res.Type() != object.STRING || object.ToString(res) != tt.expected {
			t.Errorf("for %q expected %q, got %s", tt.input, tt.expected, res.Inspect())
		}
	}
}

func TestYAMLAndTOML(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{`{b: 1, a: [x, "true"], c: null} | to yaml`, "b: 1\na:\n  - x\n  - \"true\"\nc: null\n"},
		{`"b: 1\na: [2, 3.5]\nc: ~\nd: yes" | from yaml`, `{b: 1, a: [2, 3.5], c: null, d: "yes"}`},
		{`"" | from yaml`, `null`},
		{`{z: 1, a: {b: "x"}} | to yaml | from yaml`, `{z: 1, a: {b: "x"}}`},
		{`"a = 1\nb = \"x\"\n[t]\nc = true" | from toml`, `{a: 1, b: "x", t: {c: true}}`},
		{`{a: 1, b: [1 2]} | to toml | from toml`, `{a: 1, b: [1, 2]}`},
	}
	ctx := newContext(t)
	for _, tt := range tests {
		res := run(t, ctx, tt.input)
		got := res.Inspect()
		if res.Type() == object.STRING {
			got = object.ToString(res)
		}
		if got != tt.expected {
			t.Errorf("for %q expected %q, got %q", tt.input, tt.expected, got)
		}
	}
}

func TestShell(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{`sh 'echo hi' | get stdout`, `"hi\n"`},
		{`sh 'echo oops >&2; exit 3' | get stderr`, `"oops\n"`},
		{`sh 'exit 3' | get exit_code`, `3`},
		{`"abc" | sh 'read x; echo "got $x"' | get stdout`, `"got abc\n"`},
		{`sh 'echo $1-$2' a b | get stdout`, `"a-b\n"`},
		{`$env.FOO = "bar"; sh 'echo $FOO' | get stdout`, `"bar\n"`},
		{`sh 'echo x' | keys`, `["stdout", "stderr", "exit_code"]`},
	}
	ctx := newContext(t)
	for _, tt := range tests {
		res := run(t, ctx, tt.input)
		if res.Inspect() != tt.expected {
			t.Errorf("for %q expected %s, got %s", tt.input, tt.expected, res.Inspect())
		}
	}
}

func TestExit(t *testing.T) {
	ctx := newContext(t)
	cmd, ok := ctx.Lookup("exit")
	if !ok || cmd.Category != extensions.CategoryCustom {
		t.Fatalf("exit should be the custom one, got %+v", cmd)
	}
	tests := []struct {
		input string
		code  int
	}{
		{`exit`, 0},
		{`exit 0`, 0},
		{`exit 7`, 7},
		{`exit 255`, 255},
		{"def f [] { exit 3; 1 }\nf\n2", 3},
		{`[1 2] | each {|x| exit $x}`, 1},
	}
	for _, tt := range tests {
		res := run(t, ctx, tt.input)
		ex, isExit := res.(object.Exit)
		if !isExit {
			t.Errorf("for %q expected exit %d, got %s", tt.input, tt.code, res.Inspect())
			continue
		}
		if ex.Code != tt.code {
			t.Errorf("for %q expected exit %d, got %d", tt.input, tt.code, ex.Code)
		}
	}
}

func TestPrint(t *testing.T) {
	ctx := newContext(t)
	var buf bytes.Buffer
	ctx.Out = &buf
	res := run(t, ctx, `print a 1; [x y] | print; print --no-newline "z"; 5`)
	if res.Inspect() != "5" {
		t.Errorf("unexpected result %s", res.Inspect())
	}
	if got := buf.String(); got != "a 1\nx y\nz" {
		t.Errorf("unexpected print output %q", got)
	}
}

func TestHighlight(t *testing.T) {
	ctx := newContext(t)
	colors := log.ANSIColors
	res := run(t, ctx, `"let x = 1 # one" | highlight`)
	got := object.ToString(res)
	expected := colors.Purple + "let" + colors.Reset + " x = " + colors.Cyan + "1" + colors.Reset + " # one"
	if got != expected {
		t.Errorf("expected %q, got %q", expected, got)
	}
	got = extensions.Highlight(ctx, `to json --raw $x "s"`)
	parts := []string{
		colors.Blue + "to" + colors.Reset + " json ",
		colors.Gray + "--raw" + colors.Reset,
		colors.Yellow + "$x" + colors.Reset,
		colors.Green + `"s"` + colors.Reset,
	}
	for _, part := range parts {
		if !strings.Contains(got, part) {
			t.Errorf("expected %q in %q", part, got)
		}
	}
}

func TestRegistration(t *testing.T) {
	ctx := newContext(t)
	err := extensions.RegisterGroups(ctx)
	if !errors.Is(err, eval.ErrDuplicateCommand) {
		t.Errorf("registering twice should fail with a duplicate error, got %v", err)
	}
	err = extensions.LoadStdlib(ctx)
	if !errors.Is(err, extensions.ErrStdlib) {
		t.Errorf("loading the standard library twice should fail, got %v", err)
	}
	cmd, _ := ctx.Lookup("to json")
	if cmd.Category != extensions.CategoryBuiltins {
		t.Errorf("to json category = %q", cmd.Category)
	}
	if !slicesContain(ctx.Decls(), "std clamp") {
		t.Errorf("std clamp not in %v", ctx.Decls())
	}
	// independent contexts don't share definitions.
	other := newContext(t)
	_ = run(t, ctx, "def mine [] { 1 }")
	if other.HasCommand("mine") {
		t.Errorf("definitions leaked across contexts")
	}
}

func slicesContain(l []string, s string) bool {
	for _, e := range l {
		if e == s {
			return true
		}
	}
	return false
}
