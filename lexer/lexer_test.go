package lexer

import (
	"testing"

	"grol.io/oneshot/token"
)

func TestNextToken(t *testing.T) { //nolint:funlen // this is a test function with many cases back to back.
	input := `let x = 5; $x + 1.5
def "str twice" [s] { $s ++ $s }   # comment
echo --raw 'single' "a\tbA"
[1, 2] | each {|v| $v * 2 }
{a: 1}.a == 1 != 2 <= 3 >= 4 < 5 > 6
1..5 // 2 % 3 - 4 / 5
$r.0.1
title-case not true and false or null in x
`
	tests := []struct {
		expectedType    token.Type
		expectedLiteral string
	}{
		{token.LET, "let"},
		{token.IDENT, "x"},
		{token.ASSIGN, "="},
		{token.INT, "5"},
		{token.SEMICOLON, ";"},
		{token.VARIABLE, "x"},
		{token.PLUS, "+"},
		{token.FLOAT, "1.5"},
		{token.DEF, "def"},
		{token.STRING, "str twice"},
		{token.LBRACKET, "["},
		{token.IDENT, "s"},
		{token.RBRACKET, "]"},
		{token.LBRACE, "{"},
		{token.VARIABLE, "s"},
		{token.CONCAT, "++"},
		{token.VARIABLE, "s"},
		{token.RBRACE, "}"},
		{token.IDENT, "echo"},
		{token.FLAG, "raw"},
		{token.STRING, "single"},
		{token.STRING, "a\tbA"},
		{token.LBRACKET, "["},
		{token.INT, "1"},
		{token.COMMA, ","},
		{token.INT, "2"},
		{token.RBRACKET, "]"},
		{token.PIPE, "|"},
		{token.IDENT, "each"},
		{token.LBRACE, "{"},
		{token.PIPE, "|"},
		{token.IDENT, "v"},
		{token.PIPE, "|"},
		{token.VARIABLE, "v"},
		{token.ASTERISK, "*"},
		{token.INT, "2"},
		{token.RBRACE, "}"},
		{token.LBRACE, "{"},
		{token.IDENT, "a"},
		{token.COLON, ":"},
		{token.INT, "1"},
		{token.RBRACE, "}"},
		{token.DOT, "."},
		{token.IDENT, "a"},
		{token.EQ, "=="},
		{token.INT, "1"},
		{token.NOTEQ, "!="},
		{token.INT, "2"},
		{token.LTEQ, "<="},
		{token.INT, "3"},
		{token.GTEQ, ">="},
		{token.INT, "4"},
		{token.LT, "<"},
		{token.INT, "5"},
		{token.GT, ">"},
		{token.INT, "6"},
		{token.INT, "1"},
		{token.DOTDOT, ".."},
		{token.INT, "5"},
		{token.FLOORDIV, "//"},
		{token.INT, "2"},
		{token.PERCENT, "%"},
		{token.INT, "3"},
		{token.MINUS, "-"},
		{token.INT, "4"},
		{token.SLASH, "/"},
		{token.INT, "5"},
		{token.VARIABLE, "r"},
		{token.DOT, "."},
		{token.INT, "0"},
		{token.DOT, "."},
		{token.INT, "1"},
		{token.IDENT, "title-case"},
		{token.NOT, "not"},
		{token.TRUE, "true"},
		{token.AND, "and"},
		{token.FALSE, "false"},
		{token.OR, "or"},
		{token.NULL, "null"},
		{token.IN, "in"},
		{token.IDENT, "x"},
		{token.EOF, ""},
	}

	l := New(input)

	for i, tt := range tests {
		tok := l.NextToken()

		if tok.Type != tt.expectedType {
			t.Fatalf("tests[%d] - tokentype wrong. expected=%q and %q, got=%v",
				i, tt.expectedType, tt.expectedLiteral, tok)
		}

		if tok.Literal != tt.expectedLiteral {
			t.Fatalf("tests[%d] - literal wrong. expected=%q, got=%q",
				i, tt.expectedLiteral, tok.Literal)
		}
	}
}

func TestSpansAndNewlines(t *testing.T) {
	toks := Tokenize("ab  cd\n  ef")
	tests := []struct {
		literal string
		start   int
		end     int
		newline bool
	}{
		{"ab", 0, 2, false},
		{"cd", 4, 6, false},
		{"ef", 9, 11, true},
		{"", 11, 11, false},
	}
	if len(toks) != len(tests) {
		t.Fatalf("got %d tokens, want %d", len(toks), len(tests))
	}
	for i, tt := range tests {
		tok := toks[i]
		if tok.Literal != tt.literal || tok.Start != tt.start || tok.End != tt.end || tok.NewlineBefore != tt.newline {
			t.Errorf("tests[%d] got %q %v newline=%v, want %q %d..%d newline=%v",
				i, tok.Literal, tok.Span, tok.NewlineBefore, tt.literal, tt.start, tt.end, tt.newline)
		}
	}
}

func TestIllegal(t *testing.T) {
	tests := []struct {
		input    string
		expected string
		start    int
		end      int
	}{
		{`"abc`, "unterminated string", 0, 4},
		{`'abc`, "unterminated string", 0, 4},
		{`"abc\`, "unterminated string", 0, 5},
		{`"\u12"`, "invalid escape sequence", 1, 5},
		{`"a\qb"`, "invalid escape sequence", 2, 4},
		{`"\u{zz}"`, "invalid escape sequence", 1, 4},
		{`"\u{110000}"`, "invalid escape sequence", 1, 11},
		{`"ok\x \q"`, "invalid escape sequence", 3, 5},
		{"$1", "$", 0, 1},
		{"!", "!", 0, 1},
		{"@", "@", 0, 1},
	}
	for _, tt := range tests {
		l := New(tt.input)
		tok := l.NextToken()
		if tok.Type != token.ILLEGAL || tok.Literal != tt.expected {
			t.Errorf("input: %q, expected ILLEGAL %q, got %v %q", tt.input, tt.expected, tok.Type, tok.Literal)
			continue
		}
		if tok.Start != tt.start || tok.End != tt.end {
			t.Errorf("input: %q, expected span %d..%d, got %v", tt.input, tt.start, tt.end, tok.Span)
		}
		if next := l.NextToken(); next.Type != token.EOF {
			t.Errorf("input: %q, the whole string should be consumed, got %v", tt.input, next)
		}
	}
}

func TestStringEscapes(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{`"a\tb\nc"`, "a\tb\nc"},
		{`"q\"q\\"`, `q"q\`},
		{`"\u00e9\U0001F600"`, "\u00e9\U0001F600"},
		{`"\u{e9}\u{1F600}"`, "\u00e9\U0001F600"},
		{`"\$x \(y\)"`, "$x (y)"},
		{`'\q'`, `\q`},
	}
	for _, tt := range tests {
		tok := New(tt.input).NextToken()
		if tok.Type != token.STRING || tok.Literal != tt.expected {
			t.Errorf("input: %q, expected STRING %q, got %v %q", tt.input, tt.expected, tok.Type, tok.Literal)
		}
	}
}

func TestReadNumber(t *testing.T) {
	tests := []struct {
		input    string
		expected string
		typ      token.Type
	}{
		{"1_2_3", "1_2_3", token.INT},
		{"5", "5", token.INT},
		{"100abc", "100", token.INT},
		{"1000_000", "1000_000", token.INT},
		{"0xe_f1Ag", "0xe_f1A", token.INT},
		{"0b1010_11112", "0b1010_1111", token.INT},
		{"123.", "123", token.INT},
		{"1..23", "1", token.INT},
		{"100.56", "100.56", token.FLOAT},
		{"1e3", "1e3", token.FLOAT},
		{"1.23e-3", "1.23e-3", token.FLOAT},
		{"1.23E+3", "1.23E+3", token.FLOAT},
		{"1.23e", "1.23", token.FLOAT},
		{"1.23e-abc", "1.23", token.FLOAT},
		{"1000_000.5_6", "1000_000.5_6", token.FLOAT},
		{"1.23e1_000", "1.23e1_000", token.FLOAT}, // too big for float64, but "lexable".
	}

	for _, tt := range tests {
		l := New(tt.input)
		tok := l.NextToken()
		if tok.Type != tt.typ {
			t.Errorf("input: %q, expected a %v number, got: %v", tt.input, tt.typ, tok.Type)
		}
		if tok.Literal != tt.expected {
			t.Errorf("input: %q, expected: %q, got: %q", tt.input, tt.expected, tok.Literal)
		}
	}
}

func TestLineCol(t *testing.T) {
	input := "ab\ncd\n"
	tests := []struct {
		offset, line, col int
	}{
		{0, 1, 1},
		{1, 1, 2},
		{3, 2, 1},
		{4, 2, 2},
		{6, 3, 1},
		{100, 3, 1},
	}
	for _, tt := range tests {
		line, col := LineCol(input, tt.offset)
		if line != tt.line || col != tt.col {
			t.Errorf("LineCol(%d) = %d:%d, want %d:%d", tt.offset, line, col, tt.line, tt.col)
		}
	}
}
