package parser

import (
	"fmt"
	"loquora/internal/ast"
	"loquora/internal/lexer"
	"loquora/internal/token"
	"loquora/internal/util"
	"strconv"
	"strings"
	"unicode/utf8"
)

// binaryTiers lists the binary operator tiers from lowest to highest
// precedence. Every tier is left associative and parsed by the same loop.
var binaryTiers = [][]token.TokenType{
	{token.LOGICAL_OR},
	{token.LOGICAL_AND},
	{token.BITWISE_OR},
	{token.BITWISE_XOR},
	{token.BITWISE_AND},
	{token.EQ, token.NOT_EQ},
	{token.LT, token.GT, token.LT_EQ, token.GT_EQ},
	{token.SHIFT_LEFT, token.SHIFT_RIGHT},
	{token.PLUS, token.MINUS},
	{token.ASTERISK, token.SLASH, token.PERCENT, token.AT},
}

// SyntaxError is the first error found while parsing. Parsing stops there.
type SyntaxError struct {
	Message  string
	Expected string
	Found    token.Token
	Line     int
	Column   int
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("[%3d:%2d] %s", e.Line, e.Column, e.Message)
}

func (e *SyntaxError) Span() token.Span { return e.Found.Span }

type Parser struct {
	l   *lexer.Lexer
	src string

	curToken  token.Token
	peekToken token.Token
	lastEnd   int // end offset of the last consumed token

	// noInit > 0 while parsing a control-flow header, where `x {` opens the
	// body instead of an object literal.
	noInit int
}

func New(l *lexer.Lexer) *Parser {
	p := &Parser{l: l, src: l.Input()}

	// Read two tokens, so curToken and peekToken are both set
	p.nextToken()
	p.nextToken()

	return p
}

// Parse parses a complete source text.
func Parse(src string) (*ast.Program, error) {
	return New(lexer.New(src)).ParseProgram()
}

func (p *Parser) nextToken() {
	p.curToken = p.peekToken
	p.peekToken = p.l.NextToken()
}

// advance consumes the current token and returns it.
func (p *Parser) advance() token.Token {
	tok := p.curToken
	p.lastEnd = tok.Span.End
	p.nextToken()
	return tok
}

func (p *Parser) curTokenIs(t token.TokenType) bool {
	return p.curToken.Type == t
}

func (p *Parser) peekTokenIs(t token.TokenType) bool {
	return p.peekToken.Type == t
}

// peekTwo returns the token after peekToken without consuming anything.
func (p *Parser) peekTwo() token.Token {
	saved := p.l.Save()
	defer p.l.Restore(saved)
	return p.l.NextToken()
}

func (p *Parser) spanFrom(start int) token.Span {
	return token.Span{Start: start, End: p.lastEnd}
}

func (p *Parser) fail(expected string) {
	found := p.curToken
	line, col := util.GetLineAndColumn(p.src, found.Span.Start)
	panic(&SyntaxError{
		Message:  fmt.Sprintf("expected %s, found %s", expected, describe(found)),
		Expected: expected,
		Found:    found,
		Line:     line,
		Column:   col,
	})
}

func (p *Parser) failf(format string, args ...any) {
	found := p.curToken
	line, col := util.GetLineAndColumn(p.src, found.Span.Start)
	panic(&SyntaxError{
		Message: fmt.Sprintf(format, args...),
		Found:   found,
		Line:    line,
		Column:  col,
	})
}

func describe(tok token.Token) string {
	switch tok.Type {
	case token.EOF:
		return "end of input"
	case token.IDENT:
		return fmt.Sprintf("identifier %q", tok.Literal)
	case token.INT, token.FLOAT:
		return fmt.Sprintf("number %s", tok.Literal)
	case token.STRING, token.HEREDOC:
		return "string literal"
	case token.CHAR:
		return "char literal"
	default:
		return fmt.Sprintf("%q", tok.Literal)
	}
}

func (p *Parser) expect(t token.TokenType) token.Token {
	if !p.curTokenIs(t) {
		p.fail(fmt.Sprintf("%q", string(t)))
	}
	return p.advance()
}

func (p *Parser) expectIdent(what string) token.Token {
	if !p.curTokenIs(token.IDENT) {
		p.fail(what)
	}
	return p.advance()
}

// expectTerminator requires a ';'. At the very end of the input it may be
// omitted.
func (p *Parser) expectTerminator() {
	if p.curTokenIs(token.SEMICOLON) {
		p.advance()
		return
	}
	if p.curTokenIs(token.EOF) {
		return
	}
	p.fail(`";"`)
}

func (p *Parser) skipOptionalSemicolon() {
	if p.curTokenIs(token.SEMICOLON) {
		p.advance()
	}
}

func (p *Parser) ParseProgram() (program *ast.Program, err error) {
	defer func() {
		if r := recover(); r != nil {
			se, ok := r.(*SyntaxError)
			if !ok {
				panic(r)
			}
			program, err = nil, se
		}
	}()

	program = &ast.Program{}
	program.Statements = []ast.Statement{}

	for !p.curTokenIs(token.EOF) {
		program.Statements = append(program.Statements, p.parseStatement())
	}
	program.Pos = token.Span{Start: 0, End: len(p.src)}

	return program, nil
}

func (p *Parser) parseStatement() ast.Statement {
	switch p.curToken.Type {
	case token.IMPORT, token.LOAD, token.LOAD_AND_RUN:
		return p.parseLoadStatement()
	case token.EXPORT:
		return p.parseExportStatement()
	case token.TOOL:
		return p.parseToolDeclaration()
	case token.STRUCT:
		return p.parseStructDeclaration()
	case token.SCHEMA:
		return p.parseSchemaDeclaration()
	case token.MODEL:
		return p.parseModelDeclaration()
	case token.TEMPLATE:
		return p.parseTemplateDeclaration()
	case token.WITH:
		return p.parseWithStatement()
	case token.LOOP:
		return p.parseLoopStatement()
	case token.WHILE:
		return p.parseWhileStatement()
	case token.FOR:
		return p.parseForStatement()
	case token.IF:
		return p.parseIfStatement()
	case token.RETURN:
		return p.parseReturnStatement()
	case token.BREAK:
		tok := p.advance()
		p.expectTerminator()
		return &ast.BreakStatement{Token: tok, Pos: p.spanFrom(tok.Span.Start)}
	case token.CONTINUE:
		tok := p.advance()
		p.expectTerminator()
		return &ast.ContinueStatement{Token: tok, Pos: p.spanFrom(tok.Span.Start)}
	default:
		if p.isAssignment() {
			return p.parseAssignStatement()
		}
		return p.parseExpressionStatement()
	}
}

// isAssignment scans ahead over ident(.ident)* looking for '='. Nothing is
// consumed.
func (p *Parser) isAssignment() bool {
	if !p.curTokenIs(token.IDENT) {
		return false
	}
	if p.peekTokenIs(token.ASSIGN) {
		return true
	}
	if !p.peekTokenIs(token.PERIOD) {
		return false
	}

	saved := p.l.Save()
	defer p.l.Restore(saved)
	for {
		if p.l.NextToken().Type != token.IDENT {
			return false
		}
		switch p.l.NextToken().Type {
		case token.ASSIGN:
			return true
		case token.PERIOD:
			continue
		default:
			return false
		}
	}
}

func (p *Parser) parseAssignStatement() *ast.AssignStatement {
	first := p.advance()
	stmt := &ast.AssignStatement{Token: first, Target: []string{first.Literal}}
	for p.curTokenIs(token.PERIOD) {
		p.advance()
		stmt.Target = append(stmt.Target, p.expectIdent("field name").Literal)
	}
	p.expect(token.ASSIGN)
	stmt.Value = p.parseExpression()
	p.expectTerminator()
	stmt.Pos = p.spanFrom(first.Span.Start)
	return stmt
}

func (p *Parser) parseExpressionStatement() *ast.ExpressionStatement {
	first := p.curToken
	stmt := &ast.ExpressionStatement{Token: first}
	stmt.Expression = p.parseExpression()
	p.expectTerminator()
	stmt.Pos = p.spanFrom(first.Span.Start)
	return stmt
}

func (p *Parser) parseBlockStatement() *ast.BlockStatement {
	block := &ast.BlockStatement{Token: p.expect(token.LBRACE)}
	block.Statements = []ast.Statement{}

	saved := p.noInit
	p.noInit = 0
	for !p.curTokenIs(token.RBRACE) && !p.curTokenIs(token.EOF) {
		block.Statements = append(block.Statements, p.parseStatement())
	}
	p.noInit = saved

	p.expect(token.RBRACE)
	block.Pos = p.spanFrom(block.Token.Span.Start)
	return block
}

// parseHeader parses the expression of a control-flow header.
func (p *Parser) parseHeader() ast.Expression {
	p.noInit++
	defer func() { p.noInit-- }()
	return p.parseExpression()
}

func (p *Parser) parseLoadStatement() *ast.LoadStatement {
	tok := p.advance()
	stmt := &ast.LoadStatement{Token: tok, Run: tok.Type == token.LOAD_AND_RUN}

	stmt.Path = append(stmt.Path, p.expectIdent("module path").Literal)
	for p.curTokenIs(token.SLASH) || p.curTokenIs(token.PERIOD) {
		p.advance()
		stmt.Path = append(stmt.Path, p.expectIdent("module path segment").Literal)
	}
	if p.curTokenIs(token.AS) {
		p.advance()
		stmt.Alias = p.expectIdent("module alias").Literal
	}
	p.expectTerminator()
	stmt.Pos = p.spanFrom(tok.Span.Start)
	return stmt
}

func (p *Parser) parseExportStatement() *ast.ExportStatement {
	tok := p.advance()
	stmt := &ast.ExportStatement{Token: tok}
	switch p.curToken.Type {
	case token.TOOL:
		stmt.Decl = p.parseToolDeclaration()
	case token.STRUCT:
		stmt.Decl = p.parseStructDeclaration()
	case token.TEMPLATE:
		stmt.Decl = p.parseTemplateDeclaration()
	default:
		p.fail("tool, struct or template after export")
	}
	stmt.Pos = p.spanFrom(tok.Span.Start)
	return stmt
}

func (p *Parser) parseToolDeclaration() *ast.ToolDeclaration {
	tok := p.expect(token.TOOL)
	decl := &ast.ToolDeclaration{Token: tok}
	decl.Name = p.expectIdent("tool name").Literal
	decl.Params = p.parseParams()
	if p.curTokenIs(token.ARROW) {
		p.advance()
		decl.ReturnType = p.parseType()
	}
	decl.Body = p.parseBlockStatement()
	p.skipOptionalSemicolon()
	decl.Pos = p.spanFrom(tok.Span.Start)
	return decl
}

func (p *Parser) parseParams() []*ast.Param {
	p.expect(token.LPAREN)
	params := []*ast.Param{}
	for !p.curTokenIs(token.RPAREN) {
		nameTok := p.expectIdent("parameter name")
		param := &ast.Param{Token: nameTok, Name: nameTok.Literal}
		if p.curTokenIs(token.COLON) {
			p.advance()
			param.Type = p.parseType()
		}
		params = append(params, param)
		if !p.curTokenIs(token.COMMA) {
			break
		}
		p.advance()
	}
	p.expect(token.RPAREN)
	return params
}

// parseType parses Name or Name<T, ...>.
func (p *Parser) parseType() *ast.TypeExpr {
	tok := p.expectIdent("type name")
	te := &ast.TypeExpr{Token: tok, Name: tok.Literal}
	if p.curTokenIs(token.LT) {
		p.advance()
		for {
			te.Params = append(te.Params, p.parseType())
			if !p.curTokenIs(token.COMMA) {
				break
			}
			p.advance()
		}
		p.expectCloseAngle()
	}
	te.Pos = p.spanFrom(tok.Span.Start)
	return te
}

// expectCloseAngle consumes one '>'; a '>>' token is split so nested generic
// types close correctly.
func (p *Parser) expectCloseAngle() {
	switch p.curToken.Type {
	case token.GT:
		p.advance()
	case token.SHIFT_RIGHT:
		start := p.curToken.Span.Start
		p.lastEnd = start + 1
		p.curToken = token.Token{
			Type:    token.GT,
			Literal: ">",
			Span:    token.Span{Start: start + 1, End: p.curToken.Span.End},
		}
	default:
		p.fail(`">"`)
	}
}

func (p *Parser) parseFieldDecl() *ast.FieldDecl {
	nameTok := p.expectIdent("field name")
	field := &ast.FieldDecl{Token: nameTok, Name: nameTok.Literal}
	p.expect(token.COLON)
	field.Type = p.parseType()
	if p.curTokenIs(token.QUESTION) {
		p.advance()
		field.Suffix = "?"
		if p.curTokenIs(token.BANG) {
			p.advance()
			field.Suffix = "?!"
		}
	} else if p.curTokenIs(token.BANG) {
		p.advance()
		field.Suffix = "!"
	}
	if p.curTokenIs(token.COMMA) || p.curTokenIs(token.SEMICOLON) {
		p.advance()
	}
	return field
}

func (p *Parser) parseStructDeclaration() *ast.StructDeclaration {
	tok := p.expect(token.STRUCT)
	decl := &ast.StructDeclaration{Token: tok}
	decl.Name = p.expectIdent("struct name").Literal
	p.expect(token.LBRACE)
	for !p.curTokenIs(token.RBRACE) {
		if p.curTokenIs(token.TOOL) {
			decl.Tools = append(decl.Tools, p.parseToolDeclaration())
			continue
		}
		decl.Fields = append(decl.Fields, p.parseFieldDecl())
	}
	p.expect(token.RBRACE)
	p.skipOptionalSemicolon()
	decl.Pos = p.spanFrom(tok.Span.Start)
	return decl
}

func (p *Parser) parseSchemaDeclaration() *ast.SchemaDeclaration {
	tok := p.expect(token.SCHEMA)
	decl := &ast.SchemaDeclaration{Token: tok}
	decl.Name = p.expectIdent("schema name").Literal
	p.expect(token.LBRACE)
	for !p.curTokenIs(token.RBRACE) {
		decl.Fields = append(decl.Fields, p.parseFieldDecl())
	}
	p.expect(token.RBRACE)
	p.skipOptionalSemicolon()
	decl.Pos = p.spanFrom(tok.Span.Start)
	return decl
}

func (p *Parser) parseModelDeclaration() *ast.ModelDeclaration {
	tok := p.expect(token.MODEL)
	decl := &ast.ModelDeclaration{Token: tok}
	decl.Name = p.expectIdent("model name").Literal
	if p.curTokenIs(token.COLON) {
		p.advance()
		decl.Base = p.expectIdent("base type name").Literal
	}
	p.expect(token.LBRACE)
	for !p.curTokenIs(token.RBRACE) {
		switch {
		case p.curTokenIs(token.TOOL):
			decl.Tools = append(decl.Tools, p.parseToolDeclaration())
		case p.curTokenIs(token.IDENT) && p.peekTokenIs(token.ASSIGN):
			decl.Defaults = append(decl.Defaults, p.parseAssignStatement())
		default:
			p.fail("tool or field assignment in model body")
		}
	}
	p.expect(token.RBRACE)
	p.skipOptionalSemicolon()
	decl.Pos = p.spanFrom(tok.Span.Start)
	return decl
}

func (p *Parser) parseTemplateDeclaration() *ast.TemplateDeclaration {
	tok := p.expect(token.TEMPLATE)
	decl := &ast.TemplateDeclaration{Token: tok, Params: []*ast.Param{}}
	decl.Name = p.expectIdent("template name").Literal
	if p.curTokenIs(token.LPAREN) {
		decl.Params = p.parseParams()
	}
	p.expect(token.LBRACE)
	switch p.curToken.Type {
	case token.STRING:
		decl.Body = decodeString(p.advance().Literal)
	case token.HEREDOC:
		decl.Body = decodeHeredoc(p.advance().Literal)
	default:
		p.fail("template body string")
	}
	p.skipOptionalSemicolon()
	p.expect(token.RBRACE)
	p.skipOptionalSemicolon()
	decl.Pos = p.spanFrom(tok.Span.Start)
	return decl
}

func (p *Parser) parseWithStatement() *ast.WithStatement {
	tok := p.advance()
	stmt := &ast.WithStatement{Token: tok}
	stmt.Value = p.parseHeader()
	if p.curTokenIs(token.AS) {
		p.advance()
		stmt.Alias = p.expectIdent("binding name").Literal
	}
	stmt.Body = p.parseBlockStatement()
	p.skipOptionalSemicolon()
	stmt.Pos = p.spanFrom(tok.Span.Start)
	return stmt
}

func (p *Parser) parseLoopStatement() *ast.LoopStatement {
	tok := p.advance()
	stmt := &ast.LoopStatement{Token: tok}
	stmt.Body = p.parseBlockStatement()
	p.skipOptionalSemicolon()
	stmt.Pos = p.spanFrom(tok.Span.Start)
	return stmt
}

func (p *Parser) parseWhileStatement() *ast.WhileStatement {
	tok := p.advance()
	stmt := &ast.WhileStatement{Token: tok}
	stmt.Condition = p.parseHeader()
	stmt.Body = p.parseBlockStatement()
	p.skipOptionalSemicolon()
	stmt.Pos = p.spanFrom(tok.Span.Start)
	return stmt
}

func (p *Parser) parseForStatement() *ast.ForStatement {
	tok := p.advance()
	stmt := &ast.ForStatement{Token: tok}
	stmt.Variable = p.expectIdent("loop variable").Literal
	p.expect(token.IN)
	stmt.Iterable = p.parseHeader()
	stmt.Body = p.parseBlockStatement()
	p.skipOptionalSemicolon()
	stmt.Pos = p.spanFrom(tok.Span.Start)
	return stmt
}

func (p *Parser) parseIfStatement() *ast.IfStatement {
	tok := p.advance()
	stmt := &ast.IfStatement{Token: tok}
	stmt.Arms = append(stmt.Arms, p.parseConditionalArm())

	for {
		if p.curTokenIs(token.ELIF) {
			p.advance()
			stmt.Arms = append(stmt.Arms, p.parseConditionalArm())
			continue
		}
		if p.curTokenIs(token.ELSE) {
			p.advance()
			if p.curTokenIs(token.IF) {
				p.advance()
				stmt.Arms = append(stmt.Arms, p.parseConditionalArm())
				continue
			}
			stmt.Else = p.parseBlockStatement()
		}
		break
	}

	p.skipOptionalSemicolon()
	stmt.Pos = p.spanFrom(tok.Span.Start)
	return stmt
}

func (p *Parser) parseConditionalArm() *ast.ConditionalArm {
	cond := p.parseHeader()
	return &ast.ConditionalArm{Condition: cond, Body: p.parseBlockStatement()}
}

func (p *Parser) parseReturnStatement() *ast.ReturnStatement {
	tok := p.advance()
	stmt := &ast.ReturnStatement{Token: tok}
	if !p.curTokenIs(token.SEMICOLON) && !p.curTokenIs(token.EOF) && !p.curTokenIs(token.RBRACE) {
		stmt.ReturnValue = p.parseExpression()
	}
	p.expectTerminator()
	stmt.Pos = p.spanFrom(tok.Span.Start)
	return stmt
}

// Expressions

func (p *Parser) parseExpression() ast.Expression {
	return p.parseQuaternary()
}

// parseQuaternary handles `c ?? t :: f !! n`. Without a `::` clause, `a ?? b`
// is null coalescing.
func (p *Parser) parseQuaternary() ast.Expression {
	cond := p.parseTernary()
	if !p.curTokenIs(token.COALESCE) {
		return cond
	}
	opTok := p.advance()
	onTrue := p.parseExpression()
	if !p.curTokenIs(token.ON_FALSE) {
		return &ast.InfixExpression{
			Token:    opTok,
			Left:     cond,
			Operator: opTok.Literal,
			Right:    onTrue,
			Pos:      cond.Span().Join(onTrue.Span()),
		}
	}
	p.advance()
	onFalse := p.parseExpression()
	p.expect(token.ON_NULL)
	onNull := p.parseQuaternary()
	return &ast.QuaternaryExpression{
		Token:     opTok,
		Condition: cond,
		OnTrue:    onTrue,
		OnFalse:   onFalse,
		OnNull:    onNull,
		Pos:       cond.Span().Join(onNull.Span()),
	}
}

func (p *Parser) parseTernary() ast.Expression {
	cond := p.parseBinary(0)
	if !p.curTokenIs(token.QUESTION) {
		return cond
	}
	opTok := p.advance()
	consequence := p.parseExpression()
	p.expect(token.COLON)
	alternative := p.parseTernary()
	return &ast.TernaryExpression{
		Token:       opTok,
		Condition:   cond,
		Consequence: consequence,
		Alternative: alternative,
		Pos:         cond.Span().Join(alternative.Span()),
	}
}

func (p *Parser) parseBinary(level int) ast.Expression {
	if level == len(binaryTiers) {
		return p.parseUnary()
	}
	left := p.parseBinary(level + 1)
	for p.curIn(binaryTiers[level]) {
		opTok := p.advance()
		right := p.parseBinary(level + 1)
		left = &ast.InfixExpression{
			Token:    opTok,
			Left:     left,
			Operator: opTok.Literal,
			Right:    right,
			Pos:      left.Span().Join(right.Span()),
		}
	}
	return left
}

func (p *Parser) curIn(types []token.TokenType) bool {
	for _, t := range types {
		if p.curToken.Type == t {
			return true
		}
	}
	return false
}

func (p *Parser) parseUnary() ast.Expression {
	switch p.curToken.Type {
	case token.MINUS, token.PLUS, token.BANG, token.COMPLEMENT:
		opTok := p.advance()
		right := p.parseUnary()
		return &ast.PrefixExpression{
			Token:    opTok,
			Operator: opTok.Literal,
			Right:    right,
			Pos:      opTok.Span.Join(right.Span()),
		}
	}
	return p.parsePostfix()
}

func (p *Parser) parsePostfix() ast.Expression {
	expr := p.parsePrimary()
	for {
		switch p.curToken.Type {
		case token.PERIOD:
			dot := p.advance()
			name := p.expectIdent("property name")
			expr = &ast.PropertyExpression{
				Token:    dot,
				Object:   expr,
				Property: name.Literal,
				Pos:      expr.Span().Join(name.Span),
			}
			if p.atObjectInit() {
				expr = p.parseObjectInit(expr)
			}
		case token.LPAREN:
			expr = p.parseCallExpression(expr)
		default:
			return expr
		}
	}
}

// atObjectInit decides whether a '{' after a type name opens an object
// literal: it must be followed by '}' or by `name :`.
func (p *Parser) atObjectInit() bool {
	if p.noInit > 0 || !p.curTokenIs(token.LBRACE) {
		return false
	}
	if p.peekTokenIs(token.RBRACE) {
		return true
	}
	return p.peekTokenIs(token.IDENT) && p.peekTwo().Type == token.COLON
}

func (p *Parser) parseObjectInit(typeExpr ast.Expression) *ast.ObjectInitExpression {
	lbrace := p.expect(token.LBRACE)
	init := &ast.ObjectInitExpression{Token: lbrace, TypeExpr: typeExpr, Fields: []*ast.FieldInit{}}
	for !p.curTokenIs(token.RBRACE) {
		name := p.expectIdent("field name")
		p.expect(token.COLON)
		init.Fields = append(init.Fields, &ast.FieldInit{Name: name.Literal, Value: p.parseExpression()})
		if !p.curTokenIs(token.COMMA) {
			break
		}
		p.advance()
	}
	p.expect(token.RBRACE)
	init.Pos = p.spanFrom(typeExpr.Span().Start)
	return init
}

func (p *Parser) parseCallExpression(function ast.Expression) *ast.CallExpression {
	lparen := p.expect(token.LPAREN)
	call := &ast.CallExpression{Token: lparen, Function: function, Arguments: []ast.Expression{}}

	saved := p.noInit
	p.noInit = 0
	for !p.curTokenIs(token.RPAREN) {
		call.Arguments = append(call.Arguments, p.parseExpression())
		if !p.curTokenIs(token.COMMA) {
			break
		}
		p.advance()
	}
	p.noInit = saved

	p.expect(token.RPAREN)
	call.Pos = p.spanFrom(function.Span().Start)
	return call
}

func (p *Parser) parsePrimary() ast.Expression {
	tok := p.curToken
	switch tok.Type {
	case token.INT:
		p.advance()
		value, err := strconv.ParseInt(tok.Literal, 10, 64)
		if err != nil {
			p.curToken = tok
			p.failf("integer literal %s out of range", tok.Literal)
		}
		return &ast.IntegerLiteral{Token: tok, Value: value, Pos: tok.Span}
	case token.FLOAT:
		p.advance()
		value, err := strconv.ParseFloat(tok.Literal, 64)
		if err != nil {
			p.curToken = tok
			p.failf("invalid float literal %s", tok.Literal)
		}
		return &ast.FloatLiteral{Token: tok, Value: value, Pos: tok.Span}
	case token.STRING:
		p.advance()
		return &ast.StringLiteral{Token: tok, Value: decodeString(tok.Literal), Pos: tok.Span}
	case token.HEREDOC:
		p.advance()
		return &ast.StringLiteral{Token: tok, Value: decodeHeredoc(tok.Literal), Pos: tok.Span}
	case token.CHAR:
		p.advance()
		value, ok := decodeChar(tok.Literal)
		if !ok {
			p.curToken = tok
			p.failf("invalid char literal %s", tok.Literal)
		}
		return &ast.CharLiteral{Token: tok, Value: value, Pos: tok.Span}
	case token.TRUE, token.FALSE:
		p.advance()
		return &ast.Boolean{Token: tok, Value: tok.Type == token.TRUE, Pos: tok.Span}
	case token.NULL:
		p.advance()
		return &ast.Null{Token: tok, Pos: tok.Span}
	case token.IDENT:
		p.advance()
		ident := &ast.Identifier{Token: tok, Value: tok.Literal, Pos: tok.Span}
		if p.atObjectInit() {
			return p.parseObjectInit(ident)
		}
		return ident
	case token.LPAREN:
		p.advance()
		saved := p.noInit
		p.noInit = 0
		expr := p.parseExpression()
		p.noInit = saved
		p.expect(token.RPAREN)
		return expr
	}
	p.fail("expression")
	return nil
}

// decodeString strips the surrounding quotes and resolves escapes. The
// closing quote is the first unescaped '"'; an unterminated literal runs to
// the end of the token.
func decodeString(lit string) string {
	return unescape(strings.TrimPrefix(lit, `"`), '"')
}

// decodeHeredoc drops the line break that precedes the terminator line.
func decodeHeredoc(lit string) string {
	lit = strings.TrimSuffix(lit, "\n")
	return strings.TrimSuffix(lit, "\r")
}

func decodeChar(lit string) (rune, bool) {
	s := unescape(strings.TrimPrefix(lit, "'"), '\'')
	if utf8.RuneCountInString(s) != 1 {
		return 0, false
	}
	r, _ := utf8.DecodeRuneInString(s)
	return r, true
}

// unescape resolves backslash escapes, stopping at the first unescaped quote.
func unescape(s string, quote rune) string {
	var sb strings.Builder
	escaped := false
	for _, r := range s {
		if !escaped {
			switch r {
			case '\\':
				escaped = true
			case quote:
				return sb.String()
			default:
				sb.WriteRune(r)
			}
			continue
		}
		escaped = false
		switch r {
		case 'n':
			sb.WriteByte('\n')
		case 't':
			sb.WriteByte('\t')
		case 'r':
			sb.WriteByte('\r')
		case '0':
			sb.WriteByte(0)
		default:
			sb.WriteRune(r)
		}
	}
	return sb.String()
}
