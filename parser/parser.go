// Package parser builds an [ast.Program] from program text.
// Command names are recognized against a read-only [Scope] (the interpreter context)
// plus the definitions declared so far in the same program; those definitions are
// returned in the program and must be merged into the context before evaluation.
package parser

import (
	"fmt"
	"strconv"
	"strings"

	"fortio.org/log"
	"grol.io/oneshot/ast"
	"grol.io/oneshot/lexer"
	"grol.io/oneshot/token"
	"grol.io/oneshot/trie"
)

type Priority int8

const (
	_ Priority = iota
	LOWEST
	OR      // or
	AND     // and
	NOT     // not X
	EQUALS  // == != < <= > >= in
	RANGE   // ..
	SUM     // + - ++
	PRODUCT // * / // %
	PREFIX  // -X
	MEMBER  // $x.field
)

// MaxErrors after which parsing gives up (the first one is the one that matters).
const MaxErrors = 10

var precedences = map[token.Type]Priority{
	token.OR:       OR,
	token.AND:      AND,
	token.EQ:       EQUALS,
	token.NOTEQ:    EQUALS,
	token.LT:       EQUALS,
	token.LTEQ:     EQUALS,
	token.GT:       EQUALS,
	token.GTEQ:     EQUALS,
	token.IN:       EQUALS,
	token.DOTDOT:   RANGE,
	token.PLUS:     SUM,
	token.MINUS:    SUM,
	token.CONCAT:   SUM,
	token.ASTERISK: PRODUCT,
	token.SLASH:    PRODUCT,
	token.FLOORDIV: PRODUCT,
	token.PERCENT:  PRODUCT,
	token.DOT:      MEMBER,
}

// Scope is the read view of the interpreter context the parser needs.
type Scope interface {
	HasCommand(name string) bool
	// HasCommandPrefix is true when a longer command name starts with the words of prefix.
	HasCommandPrefix(prefix string) bool
}

// Error is a parse diagnostic with its location in the source.
type Error struct {
	Msg  string
	Span token.Span
}

func (e *Error) Error() string {
	return e.Msg + " at " + e.Span.String()
}

type (
	prefixParseFn func() ast.Node
	infixParseFn  func(ast.Node) ast.Node
)

type Parser struct {
	l *lexer.Lexer

	scope   Scope
	defs    *trie.Trie // names declared by this program so far.
	program *ast.Program

	curToken  *token.Token
	peekToken *token.Token

	// newlines terminate statements and command arguments in the current nesting
	// (true at top level and in blocks, false inside (), [] and records).
	newlines bool

	errors []*Error

	prefixParseFns map[token.Type]prefixParseFn
	infixParseFns  map[token.Type]infixParseFn
}

type noScope struct{}

func (noScope) HasCommand(string) bool       { return false }
func (noScope) HasCommandPrefix(string) bool { return false }

func New(l *lexer.Lexer, scope Scope) *Parser {
	if scope == nil {
		scope = noScope{}
	}
	p := &Parser{
		l:        l,
		scope:    scope,
		defs:     trie.NewTrie(),
		newlines: true,
	}
	p.prefixParseFns = map[token.Type]prefixParseFn{
		token.IDENT:    p.parseBareWord,
		token.VARIABLE: p.parseVariable,
		token.INT:      p.parseIntegerLiteral,
		token.FLOAT:    p.parseFloatLiteral,
		token.STRING:   p.parseStringLiteral,
		token.TRUE:     p.parseBoolean,
		token.FALSE:    p.parseBoolean,
		token.NULL:     p.parseNull,
		token.MINUS:    p.parsePrefixExpression,
		token.NOT:      p.parsePrefixExpression,
		token.LPAREN:   p.parseGroupedExpression,
		token.LBRACKET: p.parseListLiteral,
		token.LBRACE:   p.parseBraceExpression,
		token.IF:       p.parseIfExpression,
	}
	p.infixParseFns = make(map[token.Type]infixParseFn)
	for t, prio := range precedences {
		switch prio { //nolint:exhaustive // only 3 special cases.
		case RANGE:
			p.infixParseFns[t] = p.parseRange
		case MEMBER:
			p.infixParseFns[t] = p.parseCellPath
		default:
			p.infixParseFns[t] = p.parseInfixExpression
		}
	}
	// Read two tokens, so curToken and peekToken are both set
	p.nextToken()
	p.nextToken()
	return p
}

// Errors returns all the diagnostics, in source order of detection.
func (p *Parser) Errors() []*Error {
	return p.errors
}

func (p *Parser) errorf(span token.Span, format string, args ...any) {
	e := &Error{Msg: fmt.Sprintf(format, args...), Span: span}
	log.LogVf("parse error: %v", e)
	p.errors = append(p.errors, e)
}

func (p *Parser) tooManyErrors() bool {
	return len(p.errors) >= MaxErrors
}

func (p *Parser) nextToken() {
	p.curToken = p.peekToken
	p.peekToken = p.l.NextToken()
}

type parserState struct {
	lexer     lexer.Lexer
	curToken  *token.Token
	peekToken *token.Token
}

func (p *Parser) save() parserState {
	return parserState{lexer: *p.l, curToken: p.curToken, peekToken: p.peekToken}
}

func (p *Parser) restore(s parserState) {
	*p.l = s.lexer
	p.curToken = s.curToken
	p.peekToken = s.peekToken
}

func (p *Parser) ParseProgram() *ast.Program {
	p.program = &ast.Program{}
	p.program.Statements = p.parseStatements(token.EOF)
	return p.program
}

func (p *Parser) curTokenIs(t token.Type) bool {
	return p.curToken.Type == t
}

func (p *Parser) peekTokenIs(t token.Type) bool {
	return p.peekToken.Type == t
}

func (p *Parser) expectPeek(t token.Type) bool {
	if p.peekTokenIs(t) {
		p.nextToken()
		return true
	}
	p.errorf(p.peekToken.Span, "expected %q, found %s", t.String(), p.peekToken.Describe())
	return false
}

func (p *Parser) peekPrecedence() Priority {
	if prio, ok := precedences[p.peekToken.Type]; ok {
		return prio
	}
	return LOWEST
}

func (p *Parser) curPrecedence() Priority {
	if prio, ok := precedences[p.curToken.Type]; ok {
		return prio
	}
	return LOWEST
}

// atElementEnd is true when the next token can't continue the current pipeline element.
func (p *Parser) atElementEnd() bool {
	switch p.peekToken.Type { //nolint:exhaustive // only terminators.
	case token.EOF, token.SEMICOLON, token.PIPE, token.RPAREN, token.RBRACE, token.RBRACKET:
		return true
	}
	return p.newlines && p.peekToken.NewlineBefore
}

// Skips tokens until what looks like the start of the next statement.
func (p *Parser) synchronize(end token.Type) {
	for {
		p.nextToken()
		if p.curTokenIs(token.EOF) || p.curTokenIs(end) || p.curTokenIs(token.SEMICOLON) || p.curToken.NewlineBefore {
			return
		}
	}
}

// parseStatements parses until the end token (EOF for the program, } for blocks) and
// leaves curToken on it.
func (p *Parser) parseStatements(end token.Type) []ast.Node {
	stmts := []ast.Node{}
	for !p.tooManyErrors() {
		for p.curTokenIs(token.SEMICOLON) {
			p.nextToken()
		}
		if p.curTokenIs(end) || p.curTokenIs(token.EOF) {
			break
		}
		errCount := len(p.errors)
		stmt := p.parseStatement()
		if len(p.errors) > errCount || stmt == nil {
			p.synchronize(end)
			continue
		}
		stmts = append(stmts, stmt)
		p.nextToken()
		if p.curTokenIs(token.SEMICOLON) || p.curTokenIs(end) || p.curTokenIs(token.EOF) || p.curToken.NewlineBefore {
			continue
		}
		p.errorf(p.curToken.Span, "expected end of statement, found %s", p.curToken.Describe())
		p.synchronize(end)
	}
	return stmts
}

func (p *Parser) parseStatement() ast.Node {
	switch p.curToken.Type { //nolint:exhaustive // the rest are pipelines.
	case token.LET:
		return p.parseLet()
	case token.DEF:
		return p.parseDef()
	case token.RETURN:
		return p.parseReturn()
	}
	n := p.parsePipeline()
	if n == nil {
		return nil
	}
	if p.peekTokenIs(token.ASSIGN) {
		return p.parseEnvAssign(n)
	}
	return n
}

func (p *Parser) parseLet() ast.Node {
	stmt := &ast.Let{Base: ast.Base{Token: p.curToken}}
	if !p.expectPeek(token.IDENT) {
		return nil
	}
	stmt.Name = p.curToken.Literal
	if !p.expectPeek(token.ASSIGN) {
		return nil
	}
	p.nextToken()
	stmt.Value = p.parsePipeline()
	if stmt.Value == nil {
		return nil
	}
	stmt.Stop = p.curToken.End
	return stmt
}

func (p *Parser) parseEnvAssign(target ast.Node) ast.Node {
	cp, ok := target.(*ast.CellPath)
	if ok {
		v, isVar := cp.Left.(*ast.Variable)
		ok = isVar && v.Name == "env" && len(cp.Members) == 1 && !cp.Members[0].IsIndex
	}
	if !ok {
		p.errorf(target.Span(), "only $env.NAME can be assigned, use let for variables")
		return nil
	}
	stmt := &ast.EnvAssign{Base: ast.Base{Token: cp.Token}, Name: cp.Members[0].Name}
	p.nextToken() // the =
	p.nextToken()
	stmt.Value = p.parsePipeline()
	if stmt.Value == nil {
		return nil
	}
	stmt.Stop = p.curToken.End
	return stmt
}

func (p *Parser) parseDef() ast.Node {
	def := &ast.Def{Base: ast.Base{Token: p.curToken}}
	p.nextToken()
	if !p.curTokenIs(token.IDENT) && !p.curTokenIs(token.STRING) {
		p.errorf(p.curToken.Span, "expected command name after def, found %s", p.curToken.Describe())
		return nil
	}
	def.Name = strings.Join(strings.Fields(p.curToken.Literal), " ")
	if def.Name == "" {
		p.errorf(p.curToken.Span, "empty command name")
		return nil
	}
	if !p.expectPeek(token.LBRACKET) {
		return nil
	}
	seen := make(map[string]bool)
	for {
		p.nextToken()
		for p.curTokenIs(token.COMMA) {
			p.nextToken()
		}
		if p.curTokenIs(token.RBRACKET) {
			break
		}
		if !p.curTokenIs(token.IDENT) {
			p.errorf(p.curToken.Span, "expected parameter name, found %s", p.curToken.Describe())
			return nil
		}
		name := p.curToken.Literal
		if seen[name] {
			p.errorf(p.curToken.Span, "duplicate parameter %q", name)
			return nil
		}
		seen[name] = true
		def.Params = append(def.Params, name)
	}
	if !p.expectPeek(token.LBRACE) {
		return nil
	}
	// Declared before the body so it can recurse.
	p.defs.Insert(def.Name)
	def.Body = p.parseBlock()
	if def.Body == nil {
		return nil
	}
	def.Stop = p.curToken.End
	p.program.Defs = append(p.program.Defs, def)
	return def
}

func (p *Parser) parseReturn() ast.Node {
	stmt := &ast.Return{Base: ast.Base{Token: p.curToken}}
	if p.atElementEnd() {
		return stmt
	}
	p.nextToken()
	stmt.Value = p.parsePipeline()
	if stmt.Value == nil {
		return nil
	}
	stmt.Stop = p.curToken.End
	return stmt
}

func (p *Parser) parsePipeline() ast.Node {
	first := p.curToken
	elem := p.parseElement()
	if elem == nil {
		return nil
	}
	if !p.peekTokenIs(token.PIPE) {
		return elem
	}
	pipe := &ast.Pipeline{Base: ast.Base{Token: first}, Elements: []ast.Node{elem}}
	for p.peekTokenIs(token.PIPE) {
		p.nextToken()
		p.nextToken()
		elem = p.parseElement()
		if elem == nil {
			return nil
		}
		pipe.Elements = append(pipe.Elements, elem)
	}
	pipe.Stop = p.curToken.End
	return pipe
}

func (p *Parser) parseElement() ast.Node {
	if p.curTokenIs(token.IDENT) {
		return p.parseCall()
	}
	return p.parseExpression(LOWEST)
}

func (p *Parser) knows(name string) bool {
	return p.defs.Contains(name) || p.scope.HasCommand(name)
}

func (p *Parser) knowsPrefix(prefix string) bool {
	return p.defs.HasPrefix(prefix) || p.scope.HasCommandPrefix(prefix)
}

// resolveCommand finds the longest command name made of the words starting at curToken
// and leaves curToken on its last word.
func (p *Parser) resolveCommand() (string, bool) {
	name := p.curToken.Literal
	best := ""
	var bestState parserState
	if p.knows(name) {
		best = name
		bestState = p.save()
	}
	for p.peekTokenIs(token.IDENT) && !p.peekToken.NewlineBefore && p.knowsPrefix(name) {
		p.nextToken()
		name += " " + p.curToken.Literal
		if p.knows(name) {
			best = name
			bestState = p.save()
		}
	}
	if best == "" {
		return "", false
	}
	p.restore(bestState)
	return best, true
}

func (p *Parser) parseCall() ast.Node {
	start := p.curToken
	saved := p.save()
	name, ok := p.resolveCommand()
	if !ok {
		p.restore(saved)
		p.errorf(start.Span, "unknown command %q", start.Literal)
		return nil
	}
	log.Debugf("command %q at %v", name, start.Span)
	call := &ast.Call{Base: ast.Base{Token: start}, Name: name}
	for !p.atElementEnd() {
		p.nextToken()
		if p.curTokenIs(token.FLAG) {
			call.Flags = append(call.Flags, p.curToken.Literal)
			continue
		}
		arg := p.parseExpression(PREFIX)
		if arg == nil {
			return nil
		}
		call.Args = append(call.Args, arg)
	}
	call.Stop = p.curToken.End
	return call
}

func (p *Parser) parseExpression(precedence Priority) ast.Node {
	prefix := p.prefixParseFns[p.curToken.Type]
	if prefix == nil {
		p.noPrefixParseFnError(p.curToken)
		return nil
	}
	left := prefix()
	if left == nil {
		return nil
	}
	for !(p.newlines && p.peekToken.NewlineBefore) && precedence < p.peekPrecedence() {
		infix := p.infixParseFns[p.peekToken.Type]
		if infix == nil {
			return left
		}
		p.nextToken()
		left = infix(left)
		if left == nil {
			return nil
		}
	}
	return left
}

func (p *Parser) noPrefixParseFnError(t *token.Token) {
	switch t.Type { //nolint:exhaustive // default covers the rest.
	case token.EOF:
		p.errorf(t.Span, "expected expression, found end of input")
	case token.ILLEGAL:
		p.errorf(t.Span, "%s", t.Describe())
	default:
		p.errorf(t.Span, "unexpected %s", t.Describe())
	}
}

// parseBareWord reads a bare string. Dots and words written right after it
// (no spaces) are part of it: foo.txt, a.b.0.
func (p *Parser) parseBareWord() ast.Node {
	word := &ast.StringLiteral{Base: ast.Base{Token: p.curToken}, Val: p.curToken.Literal, Bare: true}
	for p.peekTokenIs(token.DOT) && p.peekToken.Start == p.curToken.End {
		p.nextToken()
		word.Val += "."
		if (p.peekTokenIs(token.IDENT) || p.peekTokenIs(token.INT)) && p.peekToken.Start == p.curToken.End {
			p.nextToken()
			word.Val += p.curToken.Literal
		}
	}
	word.Stop = p.curToken.End
	return word
}

func (p *Parser) parseVariable() ast.Node {
	return &ast.Variable{Base: ast.Base{Token: p.curToken}, Name: p.curToken.Literal}
}

func (p *Parser) parseIntegerLiteral() ast.Node {
	lit := strings.ReplaceAll(p.curToken.Literal, "_", "")
	value, err := strconv.ParseInt(lit, 0, 64)
	if err != nil {
		p.errorf(p.curToken.Span, "could not parse %q as integer", p.curToken.Literal)
		return nil
	}
	return &ast.IntegerLiteral{Base: ast.Base{Token: p.curToken}, Val: value}
}

func (p *Parser) parseFloatLiteral() ast.Node {
	lit := strings.ReplaceAll(p.curToken.Literal, "_", "")
	value, err := strconv.ParseFloat(lit, 64)
	if err != nil {
		p.errorf(p.curToken.Span, "could not parse %q as float", p.curToken.Literal)
		return nil
	}
	return &ast.FloatLiteral{Base: ast.Base{Token: p.curToken}, Val: value}
}

func (p *Parser) parseStringLiteral() ast.Node {
	return &ast.StringLiteral{Base: ast.Base{Token: p.curToken}, Val: p.curToken.Literal}
}

func (p *Parser) parseBoolean() ast.Node {
	return &ast.Boolean{Base: ast.Base{Token: p.curToken}, Val: p.curTokenIs(token.TRUE)}
}

func (p *Parser) parseNull() ast.Node {
	return &ast.Null{Base: ast.Base{Token: p.curToken}}
}

// negativeInteger folds "-" and the integer literal after it into one literal,
// so the most negative int64 can be written.
func (p *Parser) negativeInteger() ast.Node {
	minus := p.curToken
	p.nextToken()
	lit := "-" + strings.ReplaceAll(p.curToken.Literal, "_", "")
	value, err := strconv.ParseInt(lit, 0, 64)
	if err != nil {
		p.errorf(token.Span{Start: minus.Start, End: p.curToken.End}, "could not parse %q as integer", "-"+p.curToken.Literal)
		return nil
	}
	return &ast.IntegerLiteral{Base: ast.Base{Token: minus, Stop: p.curToken.End}, Val: value}
}

func (p *Parser) parsePrefixExpression() ast.Node {
	if p.curTokenIs(token.MINUS) && p.peekTokenIs(token.INT) {
		return p.negativeInteger()
	}
	expression := &ast.PrefixExpression{Base: ast.Base{Token: p.curToken}, Operator: p.curToken.Type}
	prio := PREFIX
	if p.curTokenIs(token.NOT) {
		prio = NOT
	}
	p.nextToken()
	expression.Right = p.parseExpression(prio)
	if expression.Right == nil {
		return nil
	}
	expression.Stop = p.curToken.End
	return expression
}

func (p *Parser) parseInfixExpression(left ast.Node) ast.Node {
	expression := &ast.InfixExpression{
		Base:     ast.Base{Token: p.curToken},
		Operator: p.curToken.Type,
		Left:     left,
	}
	precedence := p.curPrecedence()
	p.nextToken()
	expression.Right = p.parseExpression(precedence)
	if expression.Right == nil {
		return nil
	}
	// Span covers both operands, anchored at the operator token for messages.
	expression.Token = withStart(expression.Token, left.Span().Start)
	expression.Stop = p.curToken.End
	return expression
}

// withStart returns a copy of tok whose span starts at start.
func withStart(tok *token.Token, start int) *token.Token {
	t := *tok
	t.Start = start
	return &t
}

func (p *Parser) parseRange(left ast.Node) ast.Node {
	r := &ast.Range{Base: ast.Base{Token: withStart(p.curToken, left.Span().Start)}, From: left}
	p.nextToken()
	r.To = p.parseExpression(RANGE)
	if r.To == nil {
		return nil
	}
	r.Stop = p.curToken.End
	return r
}

func (p *Parser) parseCellPath(left ast.Node) ast.Node {
	p.nextToken()
	var m ast.Member
	switch {
	case p.curTokenIs(token.INT):
		idx, err := strconv.Atoi(p.curToken.Literal)
		if err != nil {
			p.errorf(p.curToken.Span, "invalid index %q", p.curToken.Literal)
			return nil
		}
		m = ast.Member{Index: idx, IsIndex: true}
	case p.curTokenIs(token.IDENT), p.curTokenIs(token.STRING), p.curToken.Type.IsKeyword():
		m = ast.Member{Name: p.curToken.Literal}
	default:
		p.errorf(p.curToken.Span, "expected field name or index after '.', found %s", p.curToken.Describe())
		return nil
	}
	cp, ok := left.(*ast.CellPath)
	if !ok {
		cp = &ast.CellPath{Base: ast.Base{Token: withStart(p.curToken, left.Span().Start)}, Left: left}
	}
	cp.Members = append(cp.Members, m)
	cp.Stop = p.curToken.End
	return cp
}

func (p *Parser) parseGroupedExpression() ast.Node {
	saved := p.newlines
	p.newlines = false
	defer func() { p.newlines = saved }()
	p.nextToken()
	exp := p.parsePipeline()
	if exp == nil {
		return nil
	}
	if !p.expectPeek(token.RPAREN) {
		return nil
	}
	return exp
}

func (p *Parser) parseListLiteral() ast.Node {
	saved := p.newlines
	p.newlines = false
	defer func() { p.newlines = saved }()
	list := &ast.ListLiteral{Base: ast.Base{Token: p.curToken}, Elements: []ast.Node{}}
	for {
		p.nextToken()
		for p.curTokenIs(token.COMMA) {
			p.nextToken()
		}
		if p.curTokenIs(token.RBRACKET) {
			break
		}
		if p.curTokenIs(token.EOF) {
			p.errorf(p.curToken.Span, "unclosed list, expected \"]\"")
			return nil
		}
		elem := p.parseExpression(LOWEST)
		if elem == nil {
			return nil
		}
		list.Elements = append(list.Elements, elem)
	}
	list.Stop = p.curToken.End
	return list
}

// { is either a closure {|x| ...} or a record {a: 1}.
func (p *Parser) parseBraceExpression() ast.Node {
	if p.peekTokenIs(token.PIPE) {
		return p.parseClosure()
	}
	return p.parseRecordLiteral()
}

func (p *Parser) parseRecordLiteral() ast.Node {
	saved := p.newlines
	p.newlines = false
	defer func() { p.newlines = saved }()
	rec := &ast.RecordLiteral{Base: ast.Base{Token: p.curToken}}
	seen := make(map[string]bool)
	for {
		p.nextToken()
		for p.curTokenIs(token.COMMA) {
			p.nextToken()
		}
		if p.curTokenIs(token.RBRACE) {
			break
		}
		var key string
		switch {
		case p.curTokenIs(token.IDENT), p.curTokenIs(token.STRING), p.curTokenIs(token.INT), p.curToken.Type.IsKeyword():
			key = p.curToken.Literal
		case p.curTokenIs(token.EOF):
			p.errorf(p.curToken.Span, "unclosed record, expected \"}\"")
			return nil
		default:
			p.errorf(p.curToken.Span, "expected record key, found %s", p.curToken.Describe())
			return nil
		}
		if seen[key] {
			p.errorf(p.curToken.Span, "duplicate record key %q", key)
			return nil
		}
		seen[key] = true
		if !p.expectPeek(token.COLON) {
			return nil
		}
		p.nextToken()
		value := p.parseExpression(LOWEST)
		if value == nil {
			return nil
		}
		rec.Keys = append(rec.Keys, key)
		rec.Values = append(rec.Values, value)
	}
	rec.Stop = p.curToken.End
	return rec
}

func (p *Parser) parseClosure() ast.Node {
	closure := &ast.Closure{Base: ast.Base{Token: p.curToken}}
	open := p.curToken
	p.nextToken() // the opening |
	for {
		p.nextToken()
		for p.curTokenIs(token.COMMA) {
			p.nextToken()
		}
		if p.curTokenIs(token.PIPE) {
			break
		}
		if !p.curTokenIs(token.IDENT) {
			p.errorf(p.curToken.Span, "expected closure parameter name, found %s", p.curToken.Describe())
			return nil
		}
		closure.Params = append(closure.Params, p.curToken.Literal)
	}
	closure.Body = p.parseBlockBody(open)
	if closure.Body == nil {
		return nil
	}
	closure.Stop = p.curToken.End
	return closure
}

// parseBlock expects curToken to be the opening {.
func (p *Parser) parseBlock() *ast.Block {
	return p.parseBlockBody(p.curToken)
}

func (p *Parser) parseBlockBody(open *token.Token) *ast.Block {
	saved := p.newlines
	p.newlines = true
	defer func() { p.newlines = saved }()
	block := &ast.Block{Base: ast.Base{Token: open}}
	p.nextToken()
	errCount := len(p.errors)
	block.Statements = p.parseStatements(token.RBRACE)
	if len(p.errors) > errCount {
		return nil
	}
	if !p.curTokenIs(token.RBRACE) {
		p.errorf(p.curToken.Span, "unclosed block, expected \"}\"")
		return nil
	}
	block.Stop = p.curToken.End
	return block
}

func (p *Parser) parseIfExpression() ast.Node {
	expression := &ast.IfExpression{Base: ast.Base{Token: p.curToken}}
	p.nextToken()
	expression.Condition = p.parseExpression(LOWEST)
	if expression.Condition == nil {
		return nil
	}
	if !p.expectPeek(token.LBRACE) {
		return nil
	}
	expression.Consequence = p.parseBlock()
	if expression.Consequence == nil {
		return nil
	}
	if p.peekTokenIs(token.ELSE) {
		p.nextToken()
		if p.peekTokenIs(token.IF) {
			p.nextToken()
			alt := p.parseIfExpression()
			if alt == nil {
				return nil
			}
			expression.Alternative = alt
		} else {
			if !p.expectPeek(token.LBRACE) {
				return nil
			}
			alt := p.parseBlock()
			if alt == nil {
				return nil
			}
			expression.Alternative = alt
		}
	}
	expression.Stop = p.curToken.End
	return expression
}
