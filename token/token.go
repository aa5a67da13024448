// Package token defines the lexical tokens of the oneshot language.
package token

import (
	"strconv"

	"fortio.org/log"
)

type Type uint8

// Span is a byte offset range in the source, End is exclusive.
type Span struct {
	Start int
	End   int
}

func (s Span) String() string {
	return strconv.Itoa(s.Start) + ".." + strconv.Itoa(s.End)
}

type Token struct {
	Type    Type
	Literal string
	Span
	// NewlineBefore is set when at least one newline separates this token from the previous one.
	NewlineBefore bool
}

const (
	ILLEGAL Type = iota
	EOF

	// Identifiers + literals.
	IDENT    // echo, to, json, title-case...
	VARIABLE // $x (literal is "x")
	FLAG     // --raw (literal is "raw")
	INT      // 1343456
	FLOAT    // 1.5
	STRING   // "foo" or 'foo'

	// Operators.
	ASSIGN
	PLUS
	MINUS
	ASTERISK
	SLASH
	FLOORDIV
	PERCENT
	CONCAT

	LT
	LTEQ
	GT
	GTEQ
	EQ
	NOTEQ

	DOT
	DOTDOT
	PIPE

	// Delimiters.
	COMMA
	COLON
	SEMICOLON

	LPAREN
	RPAREN
	LBRACKET
	RBRACKET
	LBRACE
	RBRACE

	// Keywords.
	startKeywords
	LET
	DEF
	IF
	ELSE
	RETURN
	TRUE
	FALSE
	NULL
	AND
	OR
	NOT
	IN
	endKeywords
)

var names = [...]string{
	ILLEGAL:   "ILLEGAL",
	EOF:       "EOF",
	IDENT:     "IDENT",
	VARIABLE:  "VARIABLE",
	FLAG:      "FLAG",
	INT:       "INT",
	FLOAT:     "FLOAT",
	STRING:    "STRING",
	ASSIGN:    "=",
	PLUS:      "+",
	MINUS:     "-",
	ASTERISK:  "*",
	SLASH:     "/",
	FLOORDIV:  "//",
	PERCENT:   "%",
	CONCAT:    "++",
	LT:        "<",
	LTEQ:      "<=",
	GT:        ">",
	GTEQ:      ">=",
	EQ:        "==",
	NOTEQ:     "!=",
	DOT:       ".",
	DOTDOT:    "..",
	PIPE:      "|",
	COMMA:     ",",
	COLON:     ":",
	SEMICOLON: ";",
	LPAREN:    "(",
	RPAREN:    ")",
	LBRACKET:  "[",
	RBRACKET:  "]",
	LBRACE:    "{",
	RBRACE:    "}",
	LET:       "let",
	DEF:       "def",
	IF:        "if",
	ELSE:      "else",
	RETURN:    "return",
	TRUE:      "true",
	FALSE:     "false",
	NULL:      "null",
	AND:       "and",
	OR:        "or",
	NOT:       "not",
	IN:        "in",
}

func (t Type) String() string {
	if int(t) < len(names) && names[t] != "" {
		return names[t]
	}
	return "Type(" + strconv.Itoa(int(t)) + ")"
}

// IsKeyword is true for reserved words (which can still be used as record keys).
func (t Type) IsKeyword() bool {
	return t > startKeywords && t < endKeywords
}

var keywords = map[string]Type{}

func init() {
	for t := startKeywords + 1; t < endKeywords; t++ {
		keywords[names[t]] = t
		info.Keywords.Add(names[t])
	}
	for t := ASSIGN; t <= RBRACE; t++ {
		info.Tokens.Add(names[t])
	}
}

func LookupIdent(ident string) Type {
	if tok, ok := keywords[ident]; ok {
		log.Debugf("LookupIdent(%s) found %s", ident, tok)
		return tok
	}
	return IDENT
}

// Describe returns a short human description of the token for error messages.
func (t *Token) Describe() string {
	switch t.Type { //nolint:exhaustive // only the ones needing special wording.
	case EOF:
		return "end of input"
	case IDENT:
		return "word " + strconv.Quote(t.Literal)
	case VARIABLE:
		return "variable $" + t.Literal
	case FLAG:
		return "flag --" + t.Literal
	case INT, FLOAT:
		return "number " + t.Literal
	case STRING:
		return "string " + strconv.Quote(t.Literal)
	case ILLEGAL:
		return "illegal input " + strconv.Quote(t.Literal)
	}
	return strconv.Quote(t.Type.String())
}
