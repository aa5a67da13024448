// Package lexer turns program text into tokens with their source spans.
package lexer

import (
	"strings"
	"unicode/utf8"

	"grol.io/oneshot/token"
)

type Lexer struct {
	input       []byte
	pos         int
	hadNewline  bool       // newline was seen before current token
	lastType    token.Type // type of the previously returned token
	lastNewLine int        // position just after most recent newline
	lineNumber  int
	errSpan     *token.Span // narrower span for the ILLEGAL token being returned
}

func New(input string) *Lexer {
	return NewBytes([]byte(input))
}

func NewBytes(input []byte) *Lexer {
	return &Lexer{input: input, lineNumber: 1, lastType: token.ILLEGAL}
}

func (l *Lexer) Pos() int {
	return l.pos
}

func (l *Lexer) Input() []byte {
	return l.input
}

// Tokenize returns all the tokens until EOF (included).
func Tokenize(input string) []*token.Token {
	l := New(input)
	var res []*token.Token
	for {
		t := l.NextToken()
		res = append(res, t)
		if t.Type == token.EOF {
			return res
		}
	}
}

func (l *Lexer) NextToken() *token.Token {
	l.skipWhitespaceAndComments()
	start := l.pos
	t := l.next()
	t.Start = start
	t.End = l.pos
	if l.errSpan != nil {
		t.Start, t.End = l.errSpan.Start, l.errSpan.End
		l.errSpan = nil
	}
	t.NewlineBefore = l.hadNewline
	l.lastType = t.Type
	return t
}

func (l *Lexer) newToken(t token.Type, literal string) *token.Token {
	return &token.Token{Type: t, Literal: literal}
}

func (l *Lexer) constant(t token.Type) *token.Token {
	return l.newToken(t, t.String())
}

func (l *Lexer) next() *token.Token {
	afterDot := l.lastType == token.DOT
	ch := l.readChar()
	nextChar := l.peekChar()
	switch ch {
	case 0:
		if l.pos > len(l.input) {
			l.pos = len(l.input)
		}
		return l.newToken(token.EOF, "")
	case '=':
		if nextChar == '=' {
			l.pos++
			return l.constant(token.EQ)
		}
		return l.constant(token.ASSIGN)
	case '!':
		if nextChar == '=' {
			l.pos++
			return l.constant(token.NOTEQ)
		}
		return l.newToken(token.ILLEGAL, "!")
	case '<', '>':
		eq := nextChar == '='
		if eq {
			l.pos++
		}
		switch {
		case ch == '<' && eq:
			return l.constant(token.LTEQ)
		case ch == '<':
			return l.constant(token.LT)
		case eq:
			return l.constant(token.GTEQ)
		default:
			return l.constant(token.GT)
		}
	case '+':
		if nextChar == '+' {
			l.pos++
			return l.constant(token.CONCAT)
		}
		return l.constant(token.PLUS)
	case '-':
		if nextChar == '-' && isLetter(l.peekCharAt(1)) {
			l.pos++
			l.pos++
			return l.newToken(token.FLAG, l.readIdentifier())
		}
		return l.constant(token.MINUS)
	case '*':
		return l.constant(token.ASTERISK)
	case '/':
		if nextChar == '/' {
			l.pos++
			return l.constant(token.FLOORDIV)
		}
		return l.constant(token.SLASH)
	case '%':
		return l.constant(token.PERCENT)
	case '|':
		return l.constant(token.PIPE)
	case ',':
		return l.constant(token.COMMA)
	case ':':
		return l.constant(token.COLON)
	case ';':
		return l.constant(token.SEMICOLON)
	case '(':
		return l.constant(token.LPAREN)
	case ')':
		return l.constant(token.RPAREN)
	case '[':
		return l.constant(token.LBRACKET)
	case ']':
		return l.constant(token.RBRACKET)
	case '{':
		return l.constant(token.LBRACE)
	case '}':
		return l.constant(token.RBRACE)
	case '.':
		if nextChar == '.' {
			l.pos++
			return l.constant(token.DOTDOT)
		}
		return l.constant(token.DOT)
	case '$':
		if !isLetter(nextChar) {
			return l.newToken(token.ILLEGAL, "$")
		}
		l.pos++
		return l.newToken(token.VARIABLE, l.readVariableName())
	case '"', '\'', '`':
		str, problem := l.readString(ch, ch == '"')
		if problem != "" {
			return l.newToken(token.ILLEGAL, problem)
		}
		return l.newToken(token.STRING, str)
	default:
		switch {
		case isLetter(ch):
			word := l.readIdentifier()
			return l.newToken(token.LookupIdent(word), word)
		case isDigit(ch):
			if afterDot {
				// cell path member: $x.0.1 is two integer members, not a float.
				return l.newToken(token.INT, l.readDigits())
			}
			return l.newToken(l.readNumber(ch))
		default:
			return l.newToken(token.ILLEGAL, string(ch))
		}
	}
}

func isWhiteSpace(ch byte) bool {
	return ch == ' ' || ch == '\t' || ch == '\n' || ch == '\r'
}

func (l *Lexer) skipWhitespaceAndComments() {
	l.hadNewline = false
	for {
		ch := l.peekChar()
		if ch == '#' {
			for notEOL(l.peekChar()) {
				l.pos++
			}
			continue
		}
		if !isWhiteSpace(ch) {
			return
		}
		if ch == '\n' {
			l.hadNewline = true
			l.lastNewLine = l.pos + 1
			l.lineNumber++
		}
		l.pos++
	}
}

func (l *Lexer) readChar() byte {
	ch := l.peekChar()
	l.pos++
	return ch
}

func (l *Lexer) peekChar() byte {
	return l.peekCharAt(0)
}

func (l *Lexer) peekCharAt(offset int) byte {
	p := l.pos + offset
	if p < 0 {
		panic("Lexer position is negative")
	}
	if p >= len(l.input) {
		return 0
	}
	return l.input[p]
}

func hexCharToHex(ch byte) (byte, bool) {
	switch {
	case '0' <= ch && ch <= '9':
		return ch - '0', true
	case 'a' <= ch && ch <= 'f':
		return ch - 'a' + 10, true
	case 'A' <= ch && ch <= 'F':
		return ch - 'A' + 10, true
	}
	return 0, false
}

// readHexRune reads exactly n hex digits, or 1 to 6 of them between braces
// when the next character is '{'.
func (l *Lexer) readHexRune(n int) (rune, bool) {
	braces := l.peekChar() == '{'
	if braces {
		l.pos++
		n = 6
	}
	var r rune
	digits := 0
	for ; digits < n; digits++ {
		v, ok := hexCharToHex(l.peekChar())
		if !ok {
			break
		}
		l.pos++
		r = r<<4 | rune(v)
	}
	if braces {
		if digits == 0 || l.peekChar() != '}' {
			return 0, false
		}
		l.pos++
	} else if digits != n {
		return 0, false
	}
	return r, utf8.ValidRune(r)
}

// readEscape decodes the escape sequence after a backslash into buf.
func (l *Lexer) readEscape(buf *strings.Builder) bool {
	ch := l.readChar()
	switch ch {
	case 'r':
		buf.WriteByte('\r')
	case 'n':
		buf.WriteByte('\n')
	case 't':
		buf.WriteByte('\t')
	case '0':
		buf.WriteByte(0)
	case '\\', '"', '\'', '$', '(', ')', '{', '}', '[', ']', '/':
		buf.WriteByte(ch)
	case 'u':
		r, ok := l.readHexRune(4)
		if !ok {
			return false
		}
		buf.WriteRune(r)
	case 'U':
		r, ok := l.readHexRune(8)
		if !ok {
			return false
		}
		buf.WriteRune(r)
	default:
		if ch == 0 && l.pos > len(l.input) {
			l.pos = len(l.input)
		}
		return false
	}
	return true
}

// readString reads up to the closing sep. The returned problem is empty on
// success; on an invalid escape the rest of the string is still consumed and
// errSpan locates the first bad sequence.
func (l *Lexer) readString(sep byte, escapes bool) (string, string) {
	buf := strings.Builder{}
	var badEscape *token.Span
	for {
		ch := l.readChar()
		switch {
		case ch == 0 && l.pos > len(l.input):
			l.pos = len(l.input)
			return buf.String(), "unterminated string"
		case ch == sep:
			if badEscape != nil {
				l.errSpan = badEscape
				return buf.String(), "invalid escape sequence"
			}
			return buf.String(), ""
		case escapes && ch == '\\':
			start := l.pos - 1
			if !l.readEscape(&buf) && badEscape == nil {
				badEscape = &token.Span{Start: start, End: l.pos}
			}
			continue
		case ch == '\n':
			l.lineNumber++
			l.lastNewLine = l.pos
		}
		buf.WriteByte(ch)
	}
}

// Identifiers (command words, bare strings) can contain dashes: title-case.
func (l *Lexer) readIdentifier() string {
	pos := l.pos - 1
	for {
		ch := l.peekChar()
		if IsAlphaNum(ch) || (ch == '-' && isLetter(l.peekCharAt(1))) {
			l.pos++
			continue
		}
		break
	}
	return string(l.input[pos:l.pos])
}

func (l *Lexer) readVariableName() string {
	pos := l.pos - 1
	for IsAlphaNum(l.peekChar()) {
		l.pos++
	}
	return string(l.input[pos:l.pos])
}

func (l *Lexer) readDigits() string {
	pos := l.pos - 1
	for isDigit(l.peekChar()) {
		l.pos++
	}
	return string(l.input[pos:l.pos])
}

func notEOL(ch byte) bool {
	return ch != '\n' && ch != 0
}

func (l *Lexer) readNumber(ch byte) (token.Type, string) {
	t := token.INT
	pos := l.pos - 1
	if ch == '0' && (l.peekChar() == 'x' || l.peekChar() == 'X') {
		l.pos++
		for isHexDigit(l.peekChar()) {
			l.pos++
		}
		return t, string(l.input[pos:l.pos])
	}
	if ch == '0' && (l.peekChar() == 'b' || l.peekChar() == 'B') {
		l.pos++
		for isBinaryDigit(l.peekChar()) {
			l.pos++
		}
		return t, string(l.input[pos:l.pos])
	}
	for isDigitOrUnderscore(l.peekChar()) {
		l.pos++
	}
	// Fractional part, only when a digit follows so 1..5 stays a range.
	if l.peekChar() == '.' && isDigit(l.peekCharAt(1)) {
		t = token.FLOAT
		l.pos++
		for isDigitOrUnderscore(l.peekChar()) {
			l.pos++
		}
	}
	// Exponent part
	peek := l.peekChar()
	if peek != 'e' && peek != 'E' {
		return t, string(l.input[pos:l.pos])
	}
	errPos := l.pos
	l.pos++
	peek = l.peekChar()
	if peek == '+' || peek == '-' {
		l.pos++
	}
	if !isDigit(l.peekChar()) {
		// Invalid exponent, stop before the 'e'.
		l.pos = errPos
		return t, string(l.input[pos:errPos])
	}
	t = token.FLOAT
	for isDigitOrUnderscore(l.peekChar()) {
		l.pos++
	}
	return t, string(l.input[pos:l.pos])
}

func isHexDigit(ch byte) bool {
	_, ok := hexCharToHex(ch)
	return ok || ch == '_'
}

func isBinaryDigit(ch byte) bool {
	return ch == '0' || ch == '1' || ch == '_'
}

func isLetter(ch byte) bool {
	return ('a' <= ch && ch <= 'z') || ('A' <= ch && ch <= 'Z') || ch == '_'
}

func IsAlphaNum(ch byte) bool {
	return isLetter(ch) || isDigit(ch)
}

func isDigit(ch byte) bool {
	return '0' <= ch && ch <= '9'
}

func isDigitOrUnderscore(ch byte) bool {
	return isDigit(ch) || ch == '_'
}

// LineCol converts a byte offset into a 1 based line and column.
func LineCol(input string, offset int) (int, int) {
	offset = min(max(offset, 0), len(input))
	line := 1 + strings.Count(input[:offset], "\n")
	col := offset - strings.LastIndexByte(input[:offset], '\n')
	return line, col
}
