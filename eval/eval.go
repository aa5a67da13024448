// Package eval runs parsed programs against an interpreter [Context].
package eval

import (
	"math"
	"slices"
	"strings"

	"fortio.org/log"
	"fortio.org/sets"
	"grol.io/oneshot/ast"
	"grol.io/oneshot/object"
	"grol.io/oneshot/token"
)

const KindCommandNotFound = "CommandNotFound"

type evaluator struct {
	ctx *Context
	st  *Stack
}

// Run evaluates the program's statements with input as $in. The result is the last
// statement's value or one of the control values: ReturnValue (a top level return),
// Exit or Error. Definitions must have been merged into ctx already.
// Panics are recovered into an Error.
func Run(ctx *Context, st *Stack, program *ast.Program, input object.Object) (res object.Object) {
	if input == nil {
		input = object.NULL
	}
	defer func() {
		if r := recover(); r != nil {
			log.Errf("Caught panic during evaluation: %v", r)
			res = st.Errorf(object.KindPanic, token.Span{}, "internal error: %v", r)
		}
	}()
	ev := evaluator{ctx: ctx, st: st}
	return ev.evalStatements(program.Statements, input)
}

// Invoke runs the registered capability name with input piped to it.
func Invoke(ctx *Context, st *Stack, name string, input object.Object, args ...object.Object) (res object.Object) {
	cmd, ok := ctx.Lookup(name)
	if !ok {
		return st.Errorf(KindCommandNotFound, token.Span{}, "command %q not found", name)
	}
	if input == nil {
		input = object.NULL
	}
	defer func() {
		if r := recover(); r != nil {
			log.Errf("Caught panic in %q: %v", name, r)
			res = st.Errorf(object.KindPanic, token.Span{}, "internal error in %s: %v", name, r)
		}
	}()
	ev := evaluator{ctx: ctx, st: st}
	return ev.invoke(cmd, token.Span{}, input, args, sets.New[string]())
}

func (e *evaluator) eval(node ast.Node, input object.Object) object.Object {
	if e.st.depth >= e.st.maxDepth {
		log.LogVf("max depth %d reached", e.st.maxDepth)
		return e.st.Errorf(object.KindMaxDepth, node.Span(), "max depth %d reached", e.st.maxDepth)
	}
	e.st.depth++
	defer func() { e.st.depth-- }()
	switch node := node.(type) {
	case *ast.Pipeline:
		return e.evalPipeline(node, input)
	case *ast.Call:
		return e.evalCall(node, input)
	case *ast.Let:
		v := e.eval(node.Value, input)
		if object.IsControl(v) {
			return v
		}
		e.st.env.Set(node.Name, v)
		return object.NULL
	case *ast.EnvAssign:
		v := e.eval(node.Value, input)
		if object.IsControl(v) {
			return v
		}
		e.st.SetEnv(node.Name, v)
		return object.NULL
	case *ast.Def:
		return object.NULL // merged before evaluation.
	case *ast.Return:
		var v object.Object = object.NULL
		if node.Value != nil {
			v = e.eval(node.Value, input)
			if object.IsControl(v) {
				return v
			}
		}
		return object.ReturnValue{Value: v}
	case *ast.Block:
		return e.evalBlock(node, input)
	case *ast.IntegerLiteral:
		return object.Integer{Value: node.Val}
	case *ast.FloatLiteral:
		return object.Float{Value: node.Val}
	case *ast.StringLiteral:
		return object.String{Value: node.Val}
	case *ast.Boolean:
		return object.NativeBoolToBooleanObject(node.Val)
	case *ast.Null:
		return object.NULL
	case *ast.Variable:
		return e.evalVariable(node, input)
	case *ast.CellPath:
		return e.evalCellPath(node, input)
	case *ast.ListLiteral:
		return e.evalList(node, input)
	case *ast.RecordLiteral:
		return e.evalRecord(node, input)
	case *ast.Range:
		return e.evalRange(node, input)
	case *ast.PrefixExpression:
		return e.evalPrefix(node, input)
	case *ast.InfixExpression:
		return e.evalInfix(node, input)
	case *ast.IfExpression:
		return e.evalIf(node, input)
	case *ast.Closure:
		return object.Closure{Params: node.Params, Body: node.Body, Env: e.st.env}
	}
	return e.st.Errorf(object.KindNotSupported, node.Span(), "unknown node type %T", node)
}

func (e *evaluator) evalStatements(stmts []ast.Node, input object.Object) object.Object {
	var result object.Object = object.NULL // no crash when empty program.
	for _, statement := range stmts {
		result = e.eval(statement, input)
		if object.IsControl(result) {
			return result
		}
	}
	return result
}

func (e *evaluator) evalBlock(block *ast.Block, input object.Object) object.Object {
	prev := e.st.push(object.NewEnclosedEnvironment(e.st.env))
	defer e.st.pop(prev)
	return e.evalStatements(block.Statements, input)
}

func (e *evaluator) evalPipeline(node *ast.Pipeline, input object.Object) object.Object {
	cur := input
	for _, elem := range node.Elements {
		cur = e.eval(elem, cur)
		if object.IsControl(cur) {
			return cur
		}
	}
	return cur
}

func (e *evaluator) evalArgs(nodes []ast.Node, input object.Object) ([]object.Object, object.Object) {
	args := make([]object.Object, 0, len(nodes))
	for _, n := range nodes {
		v := e.eval(n, input)
		if object.IsControl(v) {
			return nil, v
		}
		args = append(args, v)
	}
	return args, nil
}

func (e *evaluator) evalCall(node *ast.Call, input object.Object) object.Object {
	if fn, ok := e.ctx.Decl(node.Name); ok {
		return e.callDecl(fn, node, input)
	}
	cmd, ok := e.ctx.Lookup(node.Name)
	if !ok {
		return e.st.Errorf(KindCommandNotFound, node.Span(), "command %q not found", node.Name)
	}
	args, ctrl := e.evalArgs(node.Args, input)
	if ctrl != nil {
		return ctrl
	}
	flags := sets.New[string]()
	for _, f := range node.Flags {
		if !slices.Contains(cmd.Flags, f) {
			return e.st.Errorf(object.KindIncorrectArgs, node.Span(), "%s: unknown flag --%s", node.Name, f)
		}
		flags.Add(f)
	}
	return e.invoke(cmd, node.Span(), input, args, flags)
}

func typeOk(want object.Type, got object.Object) bool {
	return want == object.ANY || want == got.Type() || (want == object.FLOAT && got.Type() == object.INTEGER)
}

func (e *evaluator) invoke(cmd *Command, span token.Span, input object.Object, args []object.Object,
	flags sets.Set[string],
) object.Object {
	n := len(args)
	if n < cmd.MinArgs || (cmd.MaxArgs >= 0 && n > cmd.MaxArgs) {
		return e.st.Errorf(object.KindIncorrectArgs, span, "%s: expected %s, got %d", cmd.Name, arity(cmd), n)
	}
	for i, t := range cmd.ArgTypes {
		if i >= n {
			break
		}
		if !typeOk(t, args[i]) {
			return e.st.Errorf(object.KindTypeMismatch, span, "%s: argument %d must be %s, got %s",
				cmd.Name, i+1, t, args[i].Type())
		}
	}
	log.Debugf("invoking %q with %d args, input %s", cmd.Name, n, input.Type())
	res := cmd.Callback(&Call{
		Ctx:   e.ctx,
		Stack: e.st,
		Name:  cmd.Name,
		Input: input,
		Args:  args,
		Flags: flags,
		Span:  span,
	})
	switch r := res.(type) {
	case nil:
		return object.NULL
	case object.Error:
		if r.Span == (token.Span{}) {
			r.Span = span
		}
		if r.Stack == nil {
			r.Stack = e.st.Names()
		}
		return r
	case object.Exit:
		if r.Span == (token.Span{}) {
			r.Span = span
		}
		return r
	}
	return res
}

func arity(cmd *Command) string {
	switch {
	case cmd.MaxArgs < 0:
		return "at least " + plural(cmd.MinArgs)
	case cmd.MinArgs == cmd.MaxArgs:
		return plural(cmd.MinArgs)
	default:
		return "between " + object.Integer{Value: int64(cmd.MinArgs)}.Inspect() + " and " + plural(cmd.MaxArgs)
	}
}

func plural(n int) string {
	s := object.Integer{Value: int64(n)}.Inspect() + " argument"
	if n != 1 {
		s += "s"
	}
	return s
}

func (e *evaluator) callDecl(fn *object.Function, node *ast.Call, input object.Object) object.Object {
	if len(node.Flags) > 0 {
		return e.st.Errorf(object.KindIncorrectArgs, node.Span(), "%s: unknown flag --%s", fn.Name, node.Flags[0])
	}
	args, ctrl := e.evalArgs(node.Args, input)
	if ctrl != nil {
		return ctrl
	}
	if len(args) != len(fn.Params) {
		return e.st.Errorf(object.KindIncorrectArgs, node.Span(), "%s: expected %s, got %d",
			fn.Name, plural(len(fn.Params)), len(args))
	}
	// Definitions only see their parameters, not the caller's variables.
	env := object.NewEnclosedEnvironment(nil)
	for i, p := range fn.Params {
		env.Set(p, args[i])
	}
	done := e.st.enter(fn.Name, env)
	defer done()
	return unwrapReturn(e.evalStatements(fn.Body.Statements, input))
}

func (e *evaluator) applyClosure(cl object.Closure, span token.Span, input object.Object, args []object.Object) object.Object {
	if cl.Body == nil {
		return e.st.Errorf(object.KindNotSupported, span, "invalid closure")
	}
	env := object.NewEnclosedEnvironment(cl.Env)
	for i, p := range cl.Params {
		var v object.Object = object.NULL
		if i < len(args) {
			v = args[i]
		}
		env.Set(p, v)
	}
	done := e.st.enter("closure", env)
	defer done()
	return unwrapReturn(e.evalStatements(cl.Body.Statements, input))
}

// return stops at the command boundary, exit and errors keep going.
func unwrapReturn(res object.Object) object.Object {
	if rv, ok := res.(object.ReturnValue); ok {
		return rv.Value
	}
	return res
}

func (e *evaluator) evalVariable(node *ast.Variable, input object.Object) object.Object {
	switch node.Name {
	case "in":
		return input
	case "env":
		return e.st.Env()
	case "ctx":
		return e.ctx.Constants()
	}
	if v, ok := e.st.env.Get(node.Name); ok {
		return v
	}
	if known := e.st.env.Names(); len(known) > 0 {
		return e.st.Errorf(object.KindVariableNotFound, node.Span(), "variable $%s not found (in scope: %s)",
			node.Name, strings.Join(known, ", "))
	}
	return e.st.Errorf(object.KindVariableNotFound, node.Span(), "variable $%s not found", node.Name)
}

func (e *evaluator) evalCellPath(node *ast.CellPath, input object.Object) object.Object {
	v := e.eval(node.Left, input)
	if object.IsControl(v) {
		return v
	}
	for _, m := range node.Members {
		v = e.follow(v, m, node.Span())
		if v.Type() == object.ERROR {
			return v
		}
	}
	return v
}

func (e *evaluator) follow(v object.Object, m ast.Member, span token.Span) object.Object {
	switch v := v.(type) {
	case object.List:
		if m.IsIndex {
			if m.Index >= len(v.Elements) {
				return e.st.Errorf(object.KindIndexOutOfRange, span, "index %d out of range (length %d)",
					m.Index, len(v.Elements))
			}
			return v.Elements[m.Index]
		}
		// field of every row.
		res := make([]object.Object, 0, len(v.Elements))
		for _, row := range v.Elements {
			r := e.follow(row, m, span)
			if r.Type() == object.ERROR {
				return r
			}
			res = append(res, r)
		}
		return object.List{Elements: res}
	case object.Record:
		name := m.String()
		if r, ok := v.Get(name); ok {
			return r
		}
		return e.st.Errorf(object.KindColumnNotFound, span, "column %q not found", name)
	}
	return e.st.Errorf(object.KindTypeMismatch, span, "can't access %q of %s", m.String(), v.Type())
}

func (e *evaluator) evalList(node *ast.ListLiteral, input object.Object) object.Object {
	elems, ctrl := e.evalArgs(node.Elements, input)
	if ctrl != nil {
		return ctrl
	}
	return object.List{Elements: elems}
}

func (e *evaluator) evalRecord(node *ast.RecordLiteral, input object.Object) object.Object {
	rec := object.NewRecord()
	for i, k := range node.Keys {
		v := e.eval(node.Values[i], input)
		if object.IsControl(v) {
			return v
		}
		rec.Put(k, v)
	}
	return rec
}

func (e *evaluator) evalRange(node *ast.Range, input object.Object) object.Object {
	from := e.eval(node.From, input)
	if object.IsControl(from) {
		return from
	}
	to := e.eval(node.To, input)
	if object.IsControl(to) {
		return to
	}
	f, ok1 := from.(object.Integer)
	t, ok2 := to.(object.Integer)
	if !ok1 || !ok2 {
		return e.st.Errorf(object.KindTypeMismatch, node.Span(), "range bounds must be int, got %s..%s",
			from.Type(), to.Type())
	}
	step := int64(1)
	lo, hi := f.Value, t.Value
	if lo > hi {
		step = -1
		lo, hi = hi, lo
	}
	diff := uint64(hi) - uint64(lo) //nolint:gosec // wraps correctly for hi >= lo.
	if diff >= object.MaxObjects {
		return e.st.Errorf(object.KindResourceExhausted, node.Span(), "range of %d elements is too large", diff)
	}
	elems, err := object.MakeObjectSlice(int(diff) + 1)
	if err != nil {
		return e.st.Error(object.KindResourceExhausted, node.Span(), err.Error())
	}
	for i, v := uint64(0), f.Value; i <= diff; i, v = i+1, v+step {
		elems = append(elems, object.Integer{Value: v})
	}
	return object.List{Elements: elems}
}

func (e *evaluator) evalPrefix(node *ast.PrefixExpression, input object.Object) object.Object {
	right := e.eval(node.Right, input)
	if object.IsControl(right) {
		return right
	}
	switch node.Operator { //nolint:exhaustive // only 2 prefix operators.
	case token.NOT:
		b, ok := right.(object.Boolean)
		if !ok {
			return e.st.Errorf(object.KindTypeMismatch, node.Span(), "not: expected bool, got %s", right.Type())
		}
		return object.NativeBoolToBooleanObject(!b.Value)
	case token.MINUS:
		switch r := right.(type) {
		case object.Integer:
			if r.Value == math.MinInt64 {
				return e.st.Errorf(object.KindOverflow, node.Span(), "integer overflow negating %d", r.Value)
			}
			return object.Integer{Value: -r.Value}
		case object.Float:
			return object.Float{Value: -r.Value}
		case object.Duration:
			return object.Duration{Value: -r.Value}
		}
		return e.st.Errorf(object.KindTypeMismatch, node.Span(), "can't negate %s", right.Type())
	}
	return e.st.Errorf(object.KindUnsupportedOp, node.Span(), "unknown prefix operator %s", node.Operator)
}

func (e *evaluator) evalIf(node *ast.IfExpression, input object.Object) object.Object {
	cond := e.eval(node.Condition, input)
	if object.IsControl(cond) {
		return cond
	}
	b, ok := cond.(object.Boolean)
	if !ok {
		return e.st.Errorf(object.KindTypeMismatch, node.Condition.Span(), "if condition must be a bool, got %s",
			cond.Type())
	}
	if b.Value {
		return e.evalBlock(node.Consequence, input)
	}
	if node.Alternative != nil {
		return e.eval(node.Alternative, input)
	}
	return object.NULL
}
