// Package object defines the runtime values of the oneshot language.
package object

import (
	"sort"
	"strconv"
	"strings"
	"time"

	"fortio.org/duration"
	"fortio.org/log"
	"grol.io/oneshot/ast"
	"grol.io/oneshot/token"
)

type Type uint8

type Object interface {
	Type() Type
	Inspect() string
}

const (
	UNKNOWN Type = iota
	INTEGER
	FLOAT
	BOOLEAN
	NIL
	STRING
	LIST
	RECORD
	CLOSURE
	DURATION
	ERROR
	RETURN
	EXIT
	ANY // only used for argument type checks.
	LAST
)

// Names as shown by `describe`.
var typeNames = [...]string{
	UNKNOWN:  "unknown",
	INTEGER:  "int",
	FLOAT:    "float",
	BOOLEAN:  "bool",
	NIL:      "nothing",
	STRING:   "string",
	LIST:     "list",
	RECORD:   "record",
	CLOSURE:  "closure",
	DURATION: "duration",
	ERROR:    "error",
	RETURN:   "return",
	EXIT:     "exit",
	ANY:      "any",
}

var _ = typeNames[LAST-1] // compile error if a type is added without a name.

func (t Type) String() string {
	if t < LAST {
		return typeNames[t]
	}
	return "Type(" + strconv.Itoa(int(t)) + ")"
}

var (
	NULL  = Null{}
	TRUE  = Boolean{Value: true}
	FALSE = Boolean{Value: false}
)

func NativeBoolToBooleanObject(input bool) Boolean {
	if input {
		return TRUE
	}
	return FALSE
}

type Integer struct {
	Value int64
}

func (i Integer) Inspect() string {
	return strconv.FormatInt(i.Value, 10)
}

func (i Integer) Type() Type {
	return INTEGER
}

type Float struct {
	Value float64
}

func (f Float) Type() Type {
	return FLOAT
}

// Floats always show a decimal point (or exponent) so they don't read as integers.
func (f Float) Inspect() string {
	s := strconv.FormatFloat(f.Value, 'g', -1, 64)
	if !strings.ContainsAny(s, ".eIN") {
		s += ".0"
	}
	return s
}

type Boolean struct {
	Value bool
}

func (b Boolean) Type() Type {
	return BOOLEAN
}

func (b Boolean) Inspect() string {
	return strconv.FormatBool(b.Value)
}

type String struct {
	Value string
}

func (s String) Type() Type {
	return STRING
}

func (s String) Inspect() string {
	return strconv.Quote(s.Value)
}

type Null struct{}

func (n Null) Type() Type      { return NIL }
func (n Null) Inspect() string { return "null" }

type Duration struct {
	Value time.Duration
}

func (d Duration) Type() Type { return DURATION }

// Inspect uses the days aware fortio duration format (e.g. 1d2h).
func (d Duration) Inspect() string {
	return duration.Duration(d.Value).String()
}

type List struct {
	Elements []Object
}

func (l List) Type() Type { return LIST }
func (l List) Inspect() string {
	out := strings.Builder{}
	out.WriteString("[")
	for i, e := range l.Elements {
		if i > 0 {
			out.WriteString(", ")
		}
		out.WriteString(e.Inspect())
	}
	out.WriteString("]")
	return out.String()
}

// Record is an insertion ordered string keyed map.
// Values are treated as immutable once built: use With() to derive a modified copy.
type Record struct {
	keys   []string
	values []Object
}

func NewRecord() Record {
	return Record{}
}

func (r Record) Type() Type { return RECORD }

func (r Record) Len() int {
	return len(r.keys)
}

func (r Record) Keys() []string {
	return r.keys
}

func (r Record) Values() []Object {
	return r.values
}

func (r Record) index(key string) int {
	for i, k := range r.keys {
		if k == key {
			return i
		}
	}
	return -1
}

func (r Record) Get(key string) (Object, bool) {
	if i := r.index(key); i >= 0 {
		return r.values[i], true
	}
	return nil, false
}

// Put sets key in place (replacing the value if present), for use while building a record.
func (r *Record) Put(key string, value Object) {
	if i := r.index(key); i >= 0 {
		r.values[i] = value
		return
	}
	r.keys = append(r.keys, key)
	r.values = append(r.values, value)
}

// With returns a copy of the record with key set to value.
func (r Record) With(key string, value Object) Record {
	res := Record{
		keys:   append(make([]string, 0, len(r.keys)+1), r.keys...),
		values: append(make([]Object, 0, len(r.values)+1), r.values...),
	}
	res.Put(key, value)
	return res
}

func (r Record) Inspect() string {
	out := strings.Builder{}
	out.WriteString("{")
	for i, k := range r.keys {
		if i != 0 {
			out.WriteString(", ")
		}
		out.WriteString(k)
		out.WriteString(": ")
		out.WriteString(r.values[i].Inspect())
	}
	out.WriteString("}")
	return out.String()
}

// Closure is an anonymous block with parameters capturing its defining environment.
type Closure struct {
	Params []string
	Body   *ast.Block
	Env    *Environment
}

func (c Closure) Type() Type { return CLOSURE }
func (c Closure) Inspect() string {
	return "closure {|" + strings.Join(c.Params, ", ") + "| ...}"
}

// Function is a command declared with def, stored in the interpreter context.
type Function struct {
	Name   string
	Params []string
	Body   *ast.Block
	Span   token.Span
}

// Error is a runtime failure. It unwinds evaluation like a return does.
type Error struct {
	Kind  string
	Msg   string
	Span  token.Span
	Stack []string
}

func (e Error) Type() Type      { return ERROR }
func (e Error) Inspect() string { return "<err: " + e.Msg + ">" }
func (e Error) Error() string   { return e.Kind + ": " + e.Msg }

// Error kinds.
const (
	KindTypeMismatch      = "TypeMismatch"
	KindUnsupportedOp     = "UnsupportedOperator"
	KindDivisionByZero    = "DivisionByZero"
	KindVariableNotFound  = "VariableNotFound"
	KindColumnNotFound    = "ColumnNotFound"
	KindIndexOutOfRange   = "IndexOutOfRange"
	KindIncorrectArgs     = "IncorrectArguments"
	KindCommandFailed     = "CommandFailed"
	KindCantConvert       = "CantConvert"
	KindOverflow          = "Overflow"
	KindMaxDepth          = "MaxDepthExceeded"
	KindUser              = "UserError"
	KindNotSupported      = "NotSupported"
	KindPanic             = "Panic"
	KindInvalidExitCode   = "InvalidExitCode"
	KindResourceExhausted = "ResourceExhausted"
)

// ReturnValue carries the value of a `return` up to the enclosing command or program.
type ReturnValue struct {
	Value Object
}

func (rv ReturnValue) Type() Type      { return RETURN }
func (rv ReturnValue) Inspect() string { return rv.Value.Inspect() }

// Exit is the typed request to terminate the whole program with Code.
// Its presence, not its code, is what signals the request: Exit{Code: 0} is a
// valid request distinct from no exit at all.
type Exit struct {
	Code int
	Span token.Span
}

func (e Exit) Type() Type      { return EXIT }
func (e Exit) Inspect() string { return "<exit " + strconv.Itoa(e.Code) + ">" }

// IsControl is true for the values that unwind evaluation (error, return, exit).
func IsControl(o Object) bool {
	switch o.Type() { //nolint:exhaustive // only the 3 control ones.
	case ERROR, RETURN, EXIT:
		return true
	}
	return false
}

// ToString is the plain text rendering: strings unquoted, everything else Inspect()ed.
func ToString(o Object) string {
	if s, ok := o.(String); ok {
		return s.Value
	}
	return o.Inspect()
}

func Equals(left, right Object) bool {
	if lf, rf, ok := numbers(left, right); ok {
		return lf == rf
	}
	if left.Type() != right.Type() {
		return false
	}
	switch left := left.(type) {
	case Integer:
		return left.Value == right.(Integer).Value
	case String:
		return left.Value == right.(String).Value
	case Boolean:
		return left.Value == right.(Boolean).Value
	case Null:
		return true
	case Duration:
		return left.Value == right.(Duration).Value
	case List:
		r := right.(List)
		if len(left.Elements) != len(r.Elements) {
			return false
		}
		for i, l := range left.Elements {
			if !Equals(l, r.Elements[i]) {
				return false
			}
		}
		return true
	case Record:
		r := right.(Record)
		if left.Len() != r.Len() {
			return false
		}
		for i, k := range left.keys {
			v, ok := r.Get(k)
			if !ok || !Equals(left.values[i], v) {
				return false
			}
		}
		return true
	default: // closure, error, control values.
		return false
	}
}

// numbers returns both operands as floats when at least one is a float and the other a number.
func numbers(left, right Object) (float64, float64, bool) {
	lt, rt := left.Type(), right.Type()
	if lt == INTEGER && rt == INTEGER {
		return 0, 0, false
	}
	if (lt != INTEGER && lt != FLOAT) || (rt != INTEGER && rt != FLOAT) {
		return 0, 0, false
	}
	return AsFloat(left), AsFloat(right), true
}

// AsFloat converts an Integer or Float to float64 (0 for anything else).
func AsFloat(o Object) float64 {
	switch v := o.(type) {
	case Integer:
		return float64(v.Value)
	case Float:
		return v.Value
	}
	return 0
}

// Compare orders two values of compatible types; ok is false when they can't be ordered.
func Compare(left, right Object) (int, bool) {
	if lf, rf, ok := numbers(left, right); ok {
		return cmpOrdered(lf, rf), true
	}
	if left.Type() != right.Type() {
		return 0, false
	}
	switch l := left.(type) {
	case Integer:
		return cmpOrdered(l.Value, right.(Integer).Value), true
	case String:
		return strings.Compare(l.Value, right.(String).Value), true
	case Duration:
		return cmpOrdered(l.Value, right.(Duration).Value), true
	case Boolean:
		r := right.(Boolean).Value
		switch {
		case l.Value == r:
			return 0, true
		case r:
			return -1, true
		default:
			return 1, true
		}
	case Null:
		return 0, true
	}
	return 0, false
}

func cmpOrdered[T int64 | float64 | time.Duration](a, b T) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

// SortObjects sorts in place, values that can't be compared keep their relative order
// after the ones that can.
func SortObjects(list []Object) {
	sort.SliceStable(list, func(i, j int) bool {
		c, ok := Compare(list[i], list[j])
		if !ok {
			log.Debugf("can't compare %s and %s", list[i].Type(), list[j].Type())
			return list[i].Type() < list[j].Type()
		}
		return c < 0
	})
}
