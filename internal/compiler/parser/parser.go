// Package parser implements Arcana's recursive-descent parser: a fixed
// statement/section grammar enforcing the program skeleton, plus a
// precedence-climbing expression grammar embedded inside it. Unlike a
// general Pratt parser with an open, registrable operator table, the
// operator set here is closed and several levels carry grammar-specific
// restrictions (at most one comparison per chain, only "non" as a
// prefix unary) that don't fit a generic infix-table design, so each
// precedence level gets its own method — grounded on the reference
// parser's parse_or/parse_and/parse_unary/.../parse_primary chain,
// translated into the teacher's cur/peek/eat token-buffer idiom.
package parser

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/Yusuke-1986/project-arcana/internal/compiler/ast"
	"github.com/Yusuke-1986/project-arcana/internal/compiler/errors"
	"github.com/Yusuke-1986/project-arcana/internal/compiler/lexer"
	"github.com/Yusuke-1986/project-arcana/internal/compiler/token"
)

// lookahead is how many tokens the widest grammar decision needs:
// distinguishing a call statement (IDENT ( ) <- ...) from a move
// (IDENT <- IDENT) requires checking three tokens past the identifier.
const lookahead = 4

// Parser is a sticky-error recursive-descent parser: once Err() is
// non-nil every further parse method returns its zero value
// immediately, matching the "first error aborts" policy without a
// panic/recover pair.
type Parser struct {
	l   *lexer.Lexer
	buf [lookahead]token.Token
	err error
}

func New(l *lexer.Lexer) *Parser {
	p := &Parser{l: l}
	for i := range p.buf {
		p.buf[i] = l.NextToken()
	}
	return p
}

// Err returns the first parse error encountered, or nil.
func (p *Parser) Err() error { return p.err }

func (p *Parser) cur() token.Token { return p.buf[0] }

func (p *Parser) peek(n int) token.Token {
	if n < len(p.buf) {
		return p.buf[n]
	}
	return token.Token{Kind: token.EOF}
}

func (p *Parser) advance() token.Token {
	t := p.buf[0]
	copy(p.buf[:], p.buf[1:])
	p.buf[len(p.buf)-1] = p.l.NextToken()
	return t
}

func (p *Parser) span(tok token.Token) ast.Span {
	return ast.Span{Line: tok.Pos.Line, Col: tok.Pos.Column}
}

func (p *Parser) fail(code errors.Code, message string, tok token.Token) {
	if p.err != nil {
		return
	}
	p.err = errors.NewParseError(code, message, p.span(tok))
}

// is reports whether the current token matches kind (and, if non-empty,
// the exact literal) without consuming it.
func (p *Parser) is(kind token.Kind, literal string) bool {
	t := p.cur()
	if t.Kind != kind {
		return false
	}
	return literal == "" || t.Literal == literal
}

// eat consumes the current token if it matches, else records
// P0001_EXPECTED_TOKEN and returns the zero Token.
func (p *Parser) eat(kind token.Kind, literal string) token.Token {
	if p.err != nil {
		return token.Token{}
	}
	if !p.is(kind, literal) {
		want := string(kind)
		if literal != "" {
			want = fmt.Sprintf("%s:%s", kind, literal)
		}
		p.fail(errors.PExpectedToken,
			fmt.Sprintf("exspectavi %s, accepi %s:%q", want, p.cur().Kind, p.cur().Literal),
			p.cur())
		return token.Token{}
	}
	return p.advance()
}

// skipCmt discards any run of "<cmt>...</cmt>" comment-block tokens
// sitting at the current position; the lexer tokenizes them but they
// carry no parser or emitter semantics.
func (p *Parser) skipCmt() {
	for p.err == nil && p.cur().Kind == token.SECTION && strings.HasPrefix(p.cur().Literal, "<cmt>") {
		p.advance()
	}
}

// ---------- entry ----------

// ParseProgram parses a complete source file into a Program, or
// returns the first error encountered.
func ParseProgram(l *lexer.Lexer) (*ast.Program, error) {
	p := New(l)
	fons := p.parseFons()
	intro := p.parseIntroductio()
	doctrina := p.parseDoctrina()
	p.eat(token.EOF, "")
	if p.err != nil {
		return nil, p.err
	}
	return &ast.Program{Fons: fons, Introductio: intro, Doctrina: doctrina}, nil
}

// ---------- sections ----------

func (p *Parser) parseFons() ast.FonsSection {
	p.eat(token.SECTION, "<FONS>")
	// ImportStmt has no grammar production yet (reserved), so the
	// section must be empty.
	p.eat(token.SECTION, "</FONS>")
	return ast.FonsSection{}
}

func (p *Parser) parseIntroductio() ast.IntroSection {
	p.eat(token.SECTION, "<INTRODUCTIO>")
	stmts := p.parseStmtList(func() bool { return p.is(token.SECTION, "</INTRODUCTIO>") })
	p.eat(token.SECTION, "</INTRODUCTIO>")
	return ast.IntroSection{Stmts: stmts}
}

func (p *Parser) parseDoctrina() ast.DoctrinaSection {
	p.eat(token.SECTION, "<DOCTRINA>")
	main := p.parseMain()
	p.eat(token.SECTION, "</DOCTRINA>")
	return ast.DoctrinaSection{Main: main}
}

// parseStmtList parses statements until closer() reports true,
// transparently discarding <cmt> blocks before (and between) them.
func (p *Parser) parseStmtList(closer func() bool) []ast.Statement {
	stmts := []ast.Statement{}
	for {
		p.skipCmt()
		if p.err != nil || closer() {
			break
		}
		stmts = append(stmts, p.parseStmt())
	}
	return stmts
}

// ---------- main ----------

func (p *Parser) parseMain() ast.MainFunction {
	p.eat(token.KW, "FCON")
	nameTok := p.eat(token.IDENT, "")
	if p.err == nil && nameTok.Literal != "subjecto" {
		p.fail(errors.PMainSubjectoRequired, "the entry function must be named subjecto", nameTok)
	}
	p.eat(token.COLON, "")
	if p.err == nil && !p.is(token.SP, "nihil") {
		p.fail(errors.PMainNihilRequired, "subjecto must declare a nihil return type", p.cur())
	} else {
		p.eat(token.SP, "nihil")
	}
	p.eat(token.LPAREN, "")
	p.eat(token.RPAREN, "")
	p.eat(token.ARROW, "")
	p.eat(token.LBRACE, "")
	body := p.parseStmtList(func() bool { return p.is(token.RBRACE, "") })
	p.eat(token.RBRACE, "")
	p.eat(token.SEMICOLON, "")
	return ast.MainFunction{Body: body}
}

// ---------- statements ----------

func (p *Parser) parseStmt() ast.Statement {
	if p.err != nil {
		return nil
	}

	start := p.cur()

	switch {
	case p.is(token.SP, "nihil"):
		p.eat(token.SP, "nihil")
		p.eat(token.SEMICOLON, "")
		return &ast.NihilStmt{Span: p.span(start)}

	case p.is(token.CTRL, "effigium"):
		p.eat(token.CTRL, "effigium")
		p.eat(token.SEMICOLON, "")
		return &ast.BreakStmt{Span: p.span(start)}

	case p.is(token.CTRL, "proximum"):
		p.eat(token.CTRL, "proximum")
		p.eat(token.SEMICOLON, "")
		return &ast.ContinueStmt{Span: p.span(start)}

	case p.is(token.KW, "VCON"):
		return p.parseVarDecl()

	case p.is(token.KW, "SI"):
		return p.parseIf()

	case p.is(token.KW, "RECURSIO"):
		return p.parseLoop()

	case p.is(token.IDENT, ""):
		return p.parseIdentLeadStmt(start)
	}

	p.fail(errors.PUnexpectedToken,
		fmt.Sprintf("unexpected token %s:%q", p.cur().Kind, p.cur().Literal), p.cur())
	return nil
}

func (p *Parser) parseIdentLeadStmt(start token.Token) ast.Statement {
	// Legacy "+=" is explicitly unsupported.
	if p.peek(1).Kind == token.PLUS && p.peek(2).Kind == token.ASSIGN {
		p.fail(errors.PUnsupportedSyntax, "'+=' is not supported; write 'i = i + 1;'", start)
		return nil
	}

	// call: IDENT ( ) <- ( args... ) ;
	if p.peek(1).Kind == token.LPAREN && p.peek(2).Kind == token.RPAREN && p.peek(3).Kind == token.FLOW {
		call := p.parseCallExpr()
		p.eat(token.SEMICOLON, "")
		return &ast.CallStmt{Call: call, Span: p.span(start)}
	}

	// move: IDENT <- IDENT ;
	if p.peek(1).Kind == token.FLOW {
		dst := p.eat(token.IDENT, "").Literal
		p.eat(token.FLOW, "")
		if !p.is(token.IDENT, "") {
			p.fail(errors.PInvalidMove, "move source must be a bare identifier", p.cur())
			return nil
		}
		src := p.eat(token.IDENT, "").Literal
		p.eat(token.SEMICOLON, "")
		return &ast.Move{Dst: dst, Src: src, Span: p.span(start)}
	}

	// assign: IDENT = expr ;
	if p.peek(1).Kind == token.ASSIGN {
		name := p.eat(token.IDENT, "").Literal
		p.eat(token.ASSIGN, "")
		value := p.parseExpr()
		p.eat(token.SEMICOLON, "")
		return &ast.Assign{Name: name, Value: value, Span: p.span(start)}
	}

	// fallback: expr ;
	expr := p.parseExpr()
	p.eat(token.SEMICOLON, "")
	return &ast.ExprStmt{Expr: expr, Span: p.span(start)}
}

func (p *Parser) parseVarDecl() ast.Statement {
	start := p.cur()
	p.eat(token.KW, "VCON")
	name := p.eat(token.IDENT, "").Literal
	p.eat(token.COLON, "")
	typTok := p.eat(token.TYPE, "")

	var init ast.Expression
	if p.is(token.ASSIGN, "") {
		p.eat(token.ASSIGN, "")
		init = p.parseExpr()
	}
	p.eat(token.SEMICOLON, "")
	return &ast.VarDecl{Name: name, Type: ast.TypeName(typTok.Literal), Init: init, Span: p.span(start)}
}

// parseCallExpr parses "name ( ) <- ( args )". The name is an IDENT or,
// for the cast built-ins and ordinata, a TYPE word; callers check the
// "( ) <-" lookahead before calling.
func (p *Parser) parseCallExpr() *ast.CallExpr {
	start := p.cur()
	name := p.advance().Literal
	p.eat(token.LPAREN, "")
	p.eat(token.RPAREN, "")
	p.eat(token.FLOW, "")
	args := p.parseArgsTupleRequired()
	return &ast.CallExpr{Name: name, Args: args, Span: p.span(start)}
}

// parseArgsTupleRequired parses "( expr (, expr)* (,)? )" — the outer
// parentheses are mandatory even for a single argument, and a trailing
// comma after the last argument is tolerated.
func (p *Parser) parseArgsTupleRequired() []ast.Expression {
	p.eat(token.LPAREN, "")
	args := []ast.Expression{}
	if !p.is(token.RPAREN, "") {
		args = append(args, p.parseExpr())
		for p.is(token.COMMA, "") {
			p.eat(token.COMMA, "")
			if p.is(token.RPAREN, "") {
				break
			}
			args = append(args, p.parseExpr())
		}
	}
	p.eat(token.RPAREN, "")
	return args
}

func (p *Parser) parseIf() ast.Statement {
	start := p.cur()
	p.eat(token.KW, "SI")
	cond := p.parsePropositioClause()

	p.eat(token.LBRACE, "")
	p.eat(token.KW, "VERUM")
	thenBody := p.parseBlockStmts()

	p.eat(token.KW, "FALSUM")
	elseBody := p.parseBlockStmts()

	p.eat(token.RBRACE, "")
	p.eat(token.SEMICOLON, "")
	return &ast.IfStmt{Cond: cond, ThenBody: thenBody, ElseBody: elseBody, Span: p.span(start)}
}

func (p *Parser) parseBlockStmts() []ast.Statement {
	p.eat(token.LBRACE, "")
	stmts := p.parseStmtList(func() bool { return p.is(token.RBRACE, "") })
	p.eat(token.RBRACE, "")
	return stmts
}

func (p *Parser) parsePropositioClause() ast.Expression {
	p.eat(token.CTRL, "propositio")
	p.eat(token.COLON, "")
	p.eat(token.LPAREN, "")
	cond := p.parseExpr()
	p.eat(token.RPAREN, "")
	return cond
}

func (p *Parser) parseLoop() ast.Statement {
	start := p.cur()
	p.eat(token.KW, "RECURSIO")
	p.eat(token.LPAREN, "")

	var cond, quota, step ast.Expression
	haveCond := false

	first := true
	for p.err == nil && !p.is(token.RPAREN, "") {
		if !first {
			p.eat(token.COMMA, "")
		}
		first = false

		keyTok := p.eat(token.CTRL, "")
		if p.err != nil {
			break
		}
		p.eat(token.COLON, "")

		switch keyTok.Literal {
		case "propositio":
			p.eat(token.LPAREN, "")
			cond = p.parseExpr()
			p.eat(token.RPAREN, "")
			haveCond = true
		case "quota":
			quota = p.parseExpr()
		case "acceleratio":
			step = p.parseExpr()
		default:
			p.fail(errors.PUnknownLoopHeader,
				fmt.Sprintf("unknown loop header key %q", keyTok.Literal), keyTok)
		}
	}

	p.eat(token.RPAREN, "")
	p.eat(token.ARROW, "")
	p.eat(token.LBRACE, "")
	body := p.parseStmtList(func() bool { return p.is(token.RBRACE, "") })
	p.eat(token.RBRACE, "")
	p.eat(token.SEMICOLON, "")

	if p.err == nil && !haveCond {
		p.fail(errors.PLoopPropositioReq, "loop header requires a propositio clause", start)
		return nil
	}
	if p.err != nil {
		return nil
	}
	return &ast.LoopStmt{Cond: cond, Quota: quota, Step: step, Body: body, Span: p.span(start)}
}

// ---------- expressions ----------
// Precedence (low -> high): aut < et < non(unary) < comparison
// (==,><,<,>,<=,>=, at most one per chain) < +,- < *,/,% < ** (right
// associative) < primary.

func (p *Parser) parseExpr() ast.Expression { return p.parseOr() }

func (p *Parser) parseOr() ast.Expression {
	left := p.parseAnd()
	for p.err == nil && p.is(token.CTRL, "aut") {
		opTok := p.eat(token.CTRL, "aut")
		right := p.parseAnd()
		left = &ast.BinaryOp{Op: "aut", Left: left, Right: right, Span: p.span(opTok)}
	}
	return left
}

func (p *Parser) parseAnd() ast.Expression {
	left := p.parseUnaryNon()
	for p.err == nil && p.is(token.CTRL, "et") {
		opTok := p.eat(token.CTRL, "et")
		right := p.parseUnaryNon()
		left = &ast.BinaryOp{Op: "et", Left: left, Right: right, Span: p.span(opTok)}
	}
	return left
}

func (p *Parser) parseUnaryNon() ast.Expression {
	if p.is(token.CTRL, "non") {
		opTok := p.eat(token.CTRL, "non")
		operand := p.parseUnaryNon()
		return &ast.UnaryOp{Op: "non", Expr: operand, Span: p.span(opTok)}
	}
	return p.parseComparison()
}

var comparisonOps = map[token.Kind]string{
	token.EQ:     "==",
	token.NOT_EQ: "><",
	token.LT:     "<",
	token.GT:     ">",
	token.LT_EQ:  "<=",
	token.GT_EQ:  ">=",
}

func (p *Parser) parseComparison() ast.Expression {
	left := p.parseAdd()
	if op, ok := comparisonOps[p.cur().Kind]; ok && p.err == nil {
		opTok := p.advance()
		right := p.parseAdd()
		return &ast.BinaryOp{Op: op, Left: left, Right: right, Span: p.span(opTok)}
	}
	return left
}

func (p *Parser) parseAdd() ast.Expression {
	left := p.parseMul()
	for p.err == nil && (p.cur().Kind == token.PLUS || p.cur().Kind == token.MINUS) {
		opTok := p.advance()
		right := p.parseMul()
		left = &ast.BinaryOp{Op: opTok.Literal, Left: left, Right: right, Span: p.span(opTok)}
	}
	return left
}

func (p *Parser) parseMul() ast.Expression {
	left := p.parsePow()
	for p.err == nil && (p.cur().Kind == token.ASTERISK || p.cur().Kind == token.SLASH || p.cur().Kind == token.PERCENT) {
		opTok := p.advance()
		right := p.parsePow()
		left = &ast.BinaryOp{Op: opTok.Literal, Left: left, Right: right, Span: p.span(opTok)}
	}
	return left
}

// parsePow recurses on itself (not on parsePrimary) for the right
// operand, giving ** right-associativity — the one place this grammar deliberately departs from the reference
// parser's left-grouping while-loop, whose actual behavior contradicts
// its own stated intent.
func (p *Parser) parsePow() ast.Expression {
	left := p.parsePrimary()
	if p.err == nil && p.cur().Kind == token.POW {
		opTok := p.advance()
		right := p.parsePow()
		return &ast.BinaryOp{Op: "**", Left: left, Right: right, Span: p.span(opTok)}
	}
	return left
}

func (p *Parser) parsePrimary() ast.Expression {
	if p.err != nil {
		return nil
	}

	start := p.cur()

	// call-expression as a primary: IDENT ( ) <- ( args ), where a TYPE
	// word (inte, real, filum, verum, ordinata) also names a built-in
	if (p.is(token.IDENT, "") || p.is(token.TYPE, "")) && p.peek(1).Kind == token.LPAREN && p.peek(2).Kind == token.RPAREN && p.peek(3).Kind == token.FLOW {
		return p.parseCallExpr()
	}

	switch {
	case p.is(token.IDENT, ""):
		tok := p.advance()
		return &ast.Name{ID: tok.Literal, Span: p.span(tok)}

	case p.cur().Kind == token.INT:
		tok := p.advance()
		v, _ := strconv.ParseInt(tok.Literal, 10, 64)
		return &ast.IntLit{Value: v, Span: p.span(tok)}

	case p.cur().Kind == token.REAL:
		tok := p.advance()
		v, _ := strconv.ParseFloat(tok.Literal, 64)
		return &ast.RealLit{Value: v, Span: p.span(tok)}

	case p.cur().Kind == token.STRING:
		tok := p.advance()
		return &ast.StringLit{Value: tok.Literal, Span: p.span(tok)}

	case p.cur().Kind == token.LPAREN:
		p.eat(token.LPAREN, "")
		inner := p.parseExpr()
		p.eat(token.RPAREN, "")
		return &ast.Paren{Inner: inner, Span: p.span(start)}

	case p.is(token.SP, "nihil"):
		p.fail(errors.PNihilNotExpr, "nihil cannot be used as an expression", start)
		return nil
	}

	p.fail(errors.PUnexpectedToken,
		fmt.Sprintf("unexpected token in expression: %s:%q", p.cur().Kind, p.cur().Literal), p.cur())
	return nil
}
