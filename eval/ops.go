package eval

import (
	"math"
	"strings"
	"time"

	"grol.io/oneshot/ast"
	"grol.io/oneshot/object"
	"grol.io/oneshot/token"
)

func (e *evaluator) evalInfix(node *ast.InfixExpression, input object.Object) object.Object {
	left := e.eval(node.Left, input)
	if object.IsControl(left) {
		return left
	}
	if node.Operator == token.AND || node.Operator == token.OR {
		return e.evalLogical(node, left, input)
	}
	right := e.eval(node.Right, input)
	if object.IsControl(right) {
		return right
	}
	return e.binary(node.Operator, left, right, node.Span())
}

// and/or short circuit.
func (e *evaluator) evalLogical(node *ast.InfixExpression, left, input object.Object) object.Object {
	l, ok := left.(object.Boolean)
	if !ok {
		return e.st.Errorf(object.KindTypeMismatch, node.Left.Span(), "%s: expected bool, got %s",
			node.Operator, left.Type())
	}
	if (node.Operator == token.AND && !l.Value) || (node.Operator == token.OR && l.Value) {
		return l
	}
	right := e.eval(node.Right, input)
	if object.IsControl(right) {
		return right
	}
	r, ok := right.(object.Boolean)
	if !ok {
		return e.st.Errorf(object.KindTypeMismatch, node.Right.Span(), "%s: expected bool, got %s",
			node.Operator, right.Type())
	}
	return r
}

func (e *evaluator) binary(op token.Type, left, right object.Object, span token.Span) object.Object {
	switch op { //nolint:exhaustive // arithmetic handled below.
	case token.EQ:
		return object.NativeBoolToBooleanObject(object.Equals(left, right))
	case token.NOTEQ:
		return object.NativeBoolToBooleanObject(!object.Equals(left, right))
	case token.LT, token.LTEQ, token.GT, token.GTEQ:
		c, ok := object.Compare(left, right)
		if !ok {
			return e.st.Errorf(object.KindTypeMismatch, span, "can't compare %s and %s", left.Type(), right.Type())
		}
		return object.NativeBoolToBooleanObject(compareResult(op, c))
	case token.IN:
		return e.evalIn(left, right, span)
	case token.CONCAT:
		return e.evalConcat(left, right, span)
	}
	switch l := left.(type) {
	case object.Integer:
		switch r := right.(type) {
		case object.Integer:
			return e.integerOp(op, l.Value, r.Value, span)
		case object.Float:
			return e.floatOp(op, float64(l.Value), r.Value, span)
		case object.Duration:
			if op == token.ASTERISK {
				return e.durationScale(r.Value, float64(l.Value), span)
			}
		}
	case object.Float:
		switch r := right.(type) {
		case object.Integer:
			return e.floatOp(op, l.Value, float64(r.Value), span)
		case object.Float:
			return e.floatOp(op, l.Value, r.Value, span)
		case object.Duration:
			if op == token.ASTERISK {
				return e.durationScale(r.Value, l.Value, span)
			}
		}
	case object.String:
		if r, ok := right.(object.String); ok && op == token.PLUS {
			return object.String{Value: l.Value + r.Value}
		}
	case object.Duration:
		switch r := right.(type) {
		case object.Duration:
			switch op { //nolint:exhaustive // only + and -.
			case token.PLUS:
				return e.durationResult(addInt(int64(l.Value), int64(r.Value)), span)
			case token.MINUS:
				return e.durationResult(subInt(int64(l.Value), int64(r.Value)), span)
			}
		case object.Integer, object.Float:
			switch op { //nolint:exhaustive // only * and /.
			case token.ASTERISK:
				return e.durationScale(l.Value, object.AsFloat(r), span)
			case token.SLASH:
				d := object.AsFloat(r)
				if d == 0 {
					return e.st.Errorf(object.KindDivisionByZero, span, "division by zero")
				}
				return e.durationScale(l.Value, 1/d, span)
			}
		}
	}
	return e.st.Errorf(object.KindUnsupportedOp, span, "operator %s not supported between %s and %s",
		op, left.Type(), right.Type())
}

func compareResult(op token.Type, c int) bool {
	switch op { //nolint:exhaustive // only comparisons.
	case token.LT:
		return c < 0
	case token.LTEQ:
		return c <= 0
	case token.GT:
		return c > 0
	default:
		return c >= 0
	}
}

func (e *evaluator) evalIn(left, right object.Object, span token.Span) object.Object {
	switch r := right.(type) {
	case object.List:
		for _, el := range r.Elements {
			if object.Equals(left, el) {
				return object.TRUE
			}
		}
		return object.FALSE
	case object.String:
		if l, ok := left.(object.String); ok {
			return object.NativeBoolToBooleanObject(strings.Contains(r.Value, l.Value))
		}
	case object.Record:
		if l, ok := left.(object.String); ok {
			_, found := r.Get(l.Value)
			return object.NativeBoolToBooleanObject(found)
		}
	}
	return e.st.Errorf(object.KindUnsupportedOp, span, "operator in not supported between %s and %s",
		left.Type(), right.Type())
}

func (e *evaluator) evalConcat(left, right object.Object, span token.Span) object.Object {
	switch l := left.(type) {
	case object.String:
		if r, ok := right.(object.String); ok {
			return object.String{Value: l.Value + r.Value}
		}
	case object.List:
		elems := make([]object.Object, 0, len(l.Elements)+1)
		elems = append(elems, l.Elements...)
		if r, ok := right.(object.List); ok {
			elems = append(elems, r.Elements...)
		} else {
			elems = append(elems, right)
		}
		return object.List{Elements: elems}
	}
	return e.st.Errorf(object.KindUnsupportedOp, span, "operator ++ not supported between %s and %s",
		left.Type(), right.Type())
}

type intResult struct {
	value int64
	ok    bool
}

func addInt(a, b int64) intResult {
	s := a + b
	return intResult{s, !((a > 0 && b > 0 && s < 0) || (a < 0 && b < 0 && s >= 0))}
}

func subInt(a, b int64) intResult {
	s := a - b
	return intResult{s, !((a >= 0 && b < 0 && s < 0) || (a < 0 && b > 0 && s >= 0))}
}

func mulInt(a, b int64) intResult {
	if a == 0 || b == 0 {
		return intResult{0, true}
	}
	p := a * b
	ok := p/b == a && !(a == -1 && b == math.MinInt64) && !(b == -1 && a == math.MinInt64)
	return intResult{p, ok}
}

func (e *evaluator) durationResult(r intResult, span token.Span) object.Object {
	if !r.ok {
		return e.st.Errorf(object.KindOverflow, span, "duration overflow")
	}
	return object.Duration{Value: time.Duration(r.value)}
}

func (e *evaluator) integerOp(op token.Type, a, b int64, span token.Span) object.Object {
	var r intResult
	switch op { //nolint:exhaustive // default is the error.
	case token.PLUS:
		r = addInt(a, b)
	case token.MINUS:
		r = subInt(a, b)
	case token.ASTERISK:
		r = mulInt(a, b)
	case token.SLASH:
		if b == 0 {
			return e.st.Errorf(object.KindDivisionByZero, span, "division by zero")
		}
		if a%b != 0 {
			return object.Float{Value: float64(a) / float64(b)}
		}
		r = intResult{a / b, !(a == math.MinInt64 && b == -1)}
	case token.FLOORDIV:
		if b == 0 {
			return e.st.Errorf(object.KindDivisionByZero, span, "division by zero")
		}
		q := a / b
		if a%b != 0 && (a < 0) != (b < 0) {
			q--
		}
		r = intResult{q, !(a == math.MinInt64 && b == -1)}
	case token.PERCENT:
		if b == 0 {
			return e.st.Errorf(object.KindDivisionByZero, span, "division by zero")
		}
		r = intResult{a % b, true}
	default:
		return e.st.Errorf(object.KindUnsupportedOp, span, "operator %s not supported between int and int", op)
	}
	if !r.ok {
		return e.st.Errorf(object.KindOverflow, span, "integer overflow: %d %s %d", a, op, b)
	}
	return object.Integer{Value: r.value}
}

func (e *evaluator) floatOp(op token.Type, a, b float64, span token.Span) object.Object {
	switch op { //nolint:exhaustive // default is the error.
	case token.PLUS:
		return object.Float{Value: a + b}
	case token.MINUS:
		return object.Float{Value: a - b}
	case token.ASTERISK:
		return object.Float{Value: a * b}
	case token.SLASH, token.FLOORDIV, token.PERCENT:
		if b == 0 {
			return e.st.Errorf(object.KindDivisionByZero, span, "division by zero")
		}
		switch op { //nolint:exhaustive // the 3 above.
		case token.SLASH:
			return object.Float{Value: a / b}
		case token.FLOORDIV:
			return object.Float{Value: math.Floor(a / b)}
		default:
			return object.Float{Value: math.Mod(a, b)}
		}
	}
	return e.st.Errorf(object.KindUnsupportedOp, span, "operator %s not supported between float and float", op)
}

func (e *evaluator) durationScale(d time.Duration, f float64, span token.Span) object.Object {
	v := float64(d) * f
	if math.IsNaN(v) || v > math.MaxInt64 || v < math.MinInt64 {
		return e.st.Errorf(object.KindOverflow, span, "duration overflow")
	}
	return object.Duration{Value: time.Duration(v)}
}
