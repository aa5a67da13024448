// Package ast holds the parsed representation of oneshot programs.
package ast

import (
	"strconv"
	"strings"

	"grol.io/oneshot/token"
)

type Node interface {
	Span() token.Span
	// String is the normalized (fully parenthesized) representation of the node.
	String() string
}

// Base is common to all nodes: the first token of the node and the end offset of its last one.
type Base struct {
	*token.Token
	Stop int
}

func (b *Base) Span() token.Span {
	end := b.Token.End
	if b.Stop > end {
		end = b.Stop
	}
	return token.Span{Start: b.Token.Start, End: end}
}

// Program is the parsed unit: statements plus the definitions declared while parsing.
// Definitions must be merged into the interpreter context before evaluation.
type Program struct {
	Statements []Node
	Defs       []*Def
}

func (p *Program) Span() token.Span {
	if len(p.Statements) == 0 {
		return token.Span{}
	}
	return token.Span{Start: p.Statements[0].Span().Start, End: p.Statements[len(p.Statements)-1].Span().End}
}

func (p *Program) String() string {
	if len(p.Statements) == 0 {
		return "<empty>"
	}
	return joinNodes(p.Statements, "\n")
}

type Block struct {
	Base       // the '{'
	Statements []Node
}

func (b *Block) String() string {
	if len(b.Statements) == 0 {
		return "{}"
	}
	return "{ " + joinNodes(b.Statements, "; ") + " }"
}

type Let struct {
	Base
	Name  string
	Value Node
}

func (l *Let) String() string {
	return "let " + l.Name + " = " + l.Value.String()
}

// EnvAssign is `$env.NAME = value`, scoped to the rest of the current evaluation.
type EnvAssign struct {
	Base
	Name  string
	Value Node
}

func (e *EnvAssign) String() string {
	return "$env." + e.Name + " = " + e.Value.String()
}

// Def declares a named command implemented in the language itself.
type Def struct {
	Base
	Name   string
	Params []string
	Body   *Block
}

func (d *Def) String() string {
	return "def " + quoteIfNeeded(d.Name) + " [" + strings.Join(d.Params, " ") + "] " + d.Body.String()
}

type Return struct {
	Base
	Value Node // nil for a bare return.
}

func (r *Return) String() string {
	if r.Value == nil {
		return "return"
	}
	return "return " + r.Value.String()
}

type Pipeline struct {
	Base
	Elements []Node
}

func (p *Pipeline) String() string {
	return joinNodes(p.Elements, " | ")
}

// Call is the invocation of a named command (registered capability or declared definition).
type Call struct {
	Base
	Name  string
	Args  []Node
	Flags []string
}

func (c *Call) String() string {
	out := strings.Builder{}
	out.WriteString(c.Name)
	for _, f := range c.Flags {
		out.WriteString(" --")
		out.WriteString(f)
	}
	for _, a := range c.Args {
		out.WriteString(" ")
		out.WriteString(a.String())
	}
	return out.String()
}

type IntegerLiteral struct {
	Base
	Val int64
}

func (i *IntegerLiteral) String() string {
	return strconv.FormatInt(i.Val, 10)
}

type FloatLiteral struct {
	Base
	Val float64
}

func (f *FloatLiteral) String() string {
	return strconv.FormatFloat(f.Val, 'g', -1, 64)
}

type StringLiteral struct {
	Base
	Val  string
	Bare bool // bare word used as a string (command argument, list element).
}

func (s *StringLiteral) String() string {
	if s.Bare {
		return s.Val
	}
	return strconv.Quote(s.Val)
}

type Boolean struct {
	Base
	Val bool
}

func (b *Boolean) String() string {
	return strconv.FormatBool(b.Val)
}

type Null struct {
	Base
}

func (n *Null) String() string {
	return "null"
}

type Variable struct {
	Base
	Name string
}

func (v *Variable) String() string {
	return "$" + v.Name
}

// Member is one step of a cell path: a record field or a list index.
type Member struct {
	Name    string
	Index   int
	IsIndex bool
}

func (m Member) String() string {
	if m.IsIndex {
		return strconv.Itoa(m.Index)
	}
	return m.Name
}

type CellPath struct {
	Base
	Left    Node
	Members []Member
}

func (c *CellPath) String() string {
	out := strings.Builder{}
	out.WriteString(c.Left.String())
	for _, m := range c.Members {
		out.WriteString(".")
		out.WriteString(m.String())
	}
	return out.String()
}

type ListLiteral struct {
	Base
	Elements []Node
}

func (l *ListLiteral) String() string {
	return "[" + joinNodes(l.Elements, ", ") + "]"
}

type RecordLiteral struct {
	Base
	Keys   []string
	Values []Node
}

func (r *RecordLiteral) String() string {
	out := strings.Builder{}
	out.WriteString("{")
	for i, k := range r.Keys {
		if i > 0 {
			out.WriteString(", ")
		}
		out.WriteString(quoteIfNeeded(k))
		out.WriteString(": ")
		out.WriteString(r.Values[i].String())
	}
	out.WriteString("}")
	return out.String()
}

type Range struct {
	Base
	From Node
	To   Node
}

func (r *Range) String() string {
	return "(" + r.From.String() + ".." + r.To.String() + ")"
}

type PrefixExpression struct {
	Base
	Operator token.Type
	Right    Node
}

func (p *PrefixExpression) String() string {
	op := p.Operator.String()
	if p.Operator == token.NOT {
		op += " "
	}
	return "(" + op + p.Right.String() + ")"
}

type InfixExpression struct {
	Base
	Left     Node
	Operator token.Type
	Right    Node
}

func (i *InfixExpression) String() string {
	return "(" + i.Left.String() + " " + i.Operator.String() + " " + i.Right.String() + ")"
}

type IfExpression struct {
	Base
	Condition   Node
	Consequence *Block
	Alternative Node // nil, *Block or *IfExpression.
}

func (ie *IfExpression) String() string {
	out := "if " + ie.Condition.String() + " " + ie.Consequence.String()
	if ie.Alternative != nil {
		out += " else " + ie.Alternative.String()
	}
	return out
}

type Closure struct {
	Base
	Params []string
	Body   *Block
}

func (c *Closure) String() string {
	if len(c.Body.Statements) == 0 {
		return "{|" + strings.Join(c.Params, ", ") + "| }"
	}
	return "{|" + strings.Join(c.Params, ", ") + "| " + strings.TrimPrefix(c.Body.String(), "{ ")
}

func joinNodes[T Node](list []T, sep string) string {
	out := strings.Builder{}
	for i, n := range list {
		if i > 0 {
			out.WriteString(sep)
		}
		out.WriteString(n.String())
	}
	return out.String()
}

func quoteIfNeeded(s string) string {
	for i := range len(s) {
		c := s[i]
		if !(c == '-' || c == '_' || ('a' <= c && c <= 'z') || ('A' <= c && c <= 'Z') || ('0' <= c && c <= '9')) {
			return strconv.Quote(s)
		}
	}
	if s == "" {
		return `""`
	}
	return s
}
