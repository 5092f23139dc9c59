package parser

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/Yusuke-1986/project-arcana/internal/compiler/ast"
	"github.com/Yusuke-1986/project-arcana/internal/compiler/errors"
	"github.com/Yusuke-1986/project-arcana/internal/compiler/lexer"
)

// ignoreSpans lets AST-shape comparisons focus on structure rather than
// exact line/column bookkeeping, which every other test in this file
// already checks directly where it matters (TestParseErrorsCarrySpan).
var ignoreSpans = cmpopts.IgnoreFields(errors.Span{}, "Line", "Col")

func mustParse(t *testing.T, src string) *ast.Program {
	t.Helper()
	prog, err := ParseProgram(lexer.New(src))
	if err != nil {
		t.Fatalf("unexpected parse error: %v", err)
	}
	return prog
}

func wrap(mainBody string) string {
	return "<FONS></FONS>\n<INTRODUCTIO></INTRODUCTIO>\n<DOCTRINA>\n" +
		"FCON subjecto: nihil () -> {\n" + mainBody + "\n};\n</DOCTRINA>"
}

func TestParseEmptyProgram(t *testing.T) {
	prog := mustParse(t, wrap(""))
	if len(prog.Doctrina.Main.Body) != 0 {
		t.Fatalf("expected empty main body, got %d statements", len(prog.Doctrina.Main.Body))
	}
}

func TestParseVarDecl(t *testing.T) {
	prog := mustParse(t, wrap(`VCON x: inte = 5;`))
	stmts := prog.Doctrina.Main.Body
	if len(stmts) != 1 {
		t.Fatalf("expected 1 statement, got %d", len(stmts))
	}
	vd, ok := stmts[0].(*ast.VarDecl)
	if !ok {
		t.Fatalf("expected *ast.VarDecl, got %T", stmts[0])
	}
	if vd.Name != "x" || vd.Type != ast.TypeInte {
		t.Errorf("got name=%q type=%q", vd.Name, vd.Type)
	}
	lit, ok := vd.Init.(*ast.IntLit)
	if !ok || lit.Value != 5 {
		t.Errorf("expected init IntLit(5), got %#v", vd.Init)
	}
}

func TestParseVarDeclWithoutInit(t *testing.T) {
	prog := mustParse(t, wrap(`VCON x: inte;`))
	vd := prog.Doctrina.Main.Body[0].(*ast.VarDecl)
	if vd.Init != nil {
		t.Errorf("expected nil Init, got %#v", vd.Init)
	}
}

func TestParseAssign(t *testing.T) {
	prog := mustParse(t, wrap(`VCON x: inte = 1;
x = x + 1;`))
	assign, ok := prog.Doctrina.Main.Body[1].(*ast.Assign)
	if !ok {
		t.Fatalf("expected *ast.Assign, got %T", prog.Doctrina.Main.Body[1])
	}
	if assign.Name != "x" {
		t.Errorf("expected name x, got %q", assign.Name)
	}
	bin, ok := assign.Value.(*ast.BinaryOp)
	if !ok || bin.Op != "+" {
		t.Fatalf("expected BinaryOp(+), got %#v", assign.Value)
	}
}

func TestParseMove(t *testing.T) {
	prog := mustParse(t, wrap(`VCON a: inte = 1;
VCON b: inte;
b <- a;`))
	mv, ok := prog.Doctrina.Main.Body[2].(*ast.Move)
	if !ok {
		t.Fatalf("expected *ast.Move, got %T", prog.Doctrina.Main.Body[2])
	}
	if mv.Dst != "b" || mv.Src != "a" {
		t.Errorf("got dst=%q src=%q", mv.Dst, mv.Src)
	}
}

func TestParseMoveRejectsNonIdentSource(t *testing.T) {
	_, err := ParseProgram(lexer.New(wrap(`VCON a: inte;
a <- 5;`)))
	if err == nil {
		t.Fatal("expected error for non-ident move source")
	}
	pe, ok := err.(*errors.ParseError)
	if !ok || pe.Code != errors.PInvalidMove {
		t.Fatalf("expected PInvalidMove, got %v", err)
	}
}

func TestParseCallStmtRequiresParens(t *testing.T) {
	prog := mustParse(t, wrap(`indicant() <- ("hello arkhe");`))
	cs, ok := prog.Doctrina.Main.Body[0].(*ast.CallStmt)
	if !ok {
		t.Fatalf("expected *ast.CallStmt, got %T", prog.Doctrina.Main.Body[0])
	}
	if cs.Call.Name != "indicant" || len(cs.Call.Args) != 1 {
		t.Fatalf("got call %+v", cs.Call)
	}
}

func TestParseCallStmtAllowsTrailingComma(t *testing.T) {
	prog := mustParse(t, wrap(`indicant() <- (1, 2, 3,);`))
	cs := prog.Doctrina.Main.Body[0].(*ast.CallStmt)
	if len(cs.Call.Args) != 3 {
		t.Fatalf("expected 3 args, got %d", len(cs.Call.Args))
	}
}

func TestParseCallExprAsPrimary(t *testing.T) {
	prog := mustParse(t, wrap(`VCON n: inte = longitudo() <- ("hi");`))
	vd := prog.Doctrina.Main.Body[0].(*ast.VarDecl)
	call, ok := vd.Init.(*ast.CallExpr)
	if !ok || call.Name != "longitudo" {
		t.Fatalf("expected CallExpr(longitudo), got %#v", vd.Init)
	}
}

func TestParseLegacyPlusAssignRejected(t *testing.T) {
	_, err := ParseProgram(lexer.New(wrap(`VCON i: inte = 0;
i += 1;`)))
	if err == nil {
		t.Fatal("expected error for '+='")
	}
	pe, ok := err.(*errors.ParseError)
	if !ok || pe.Code != errors.PUnsupportedSyntax {
		t.Fatalf("expected PUnsupportedSyntax, got %v", err)
	}
}

func TestParseIfBothBranchesRequired(t *testing.T) {
	prog := mustParse(t, wrap(`SI propositio:(1 < 2) {
VERUM {
VCON x: inte = 1;
}
FALSUM {
}
};`))
	ifs, ok := prog.Doctrina.Main.Body[0].(*ast.IfStmt)
	if !ok {
		t.Fatalf("expected *ast.IfStmt, got %T", prog.Doctrina.Main.Body[0])
	}
	if len(ifs.ThenBody) != 1 {
		t.Errorf("expected 1 then-statement, got %d", len(ifs.ThenBody))
	}
	if ifs.ElseBody == nil || len(ifs.ElseBody) != 0 {
		t.Errorf("expected non-nil empty else body, got %#v", ifs.ElseBody)
	}
	bin, ok := ifs.Cond.(*ast.BinaryOp)
	if !ok || bin.Op != "<" {
		t.Fatalf("expected comparison condition, got %#v", ifs.Cond)
	}
}

func TestParseIfMissingFalsumErrors(t *testing.T) {
	_, err := ParseProgram(lexer.New(wrap(`SI propositio:(1 < 2) {
VERUM {
}
};`)))
	if err == nil {
		t.Fatal("expected error for missing FALSUM clause")
	}
}

func TestParseLoopAllHeaderItems(t *testing.T) {
	prog := mustParse(t, wrap(`RECURSIO(propositio:(1 < 2), quota: 10, acceleratio: 2) -> {
nihil;
};`))
	loop, ok := prog.Doctrina.Main.Body[0].(*ast.LoopStmt)
	if !ok {
		t.Fatalf("expected *ast.LoopStmt, got %T", prog.Doctrina.Main.Body[0])
	}
	if loop.Cond == nil || loop.Quota == nil || loop.Step == nil {
		t.Fatalf("expected all three loop header items set, got %+v", loop)
	}
	if len(loop.Body) != 1 {
		t.Errorf("expected 1 body statement, got %d", len(loop.Body))
	}
}

func TestParseLoopPropositioOnlyIsValid(t *testing.T) {
	prog := mustParse(t, wrap(`RECURSIO(propositio:(1 < 2)) -> {
nihil;
};`))
	loop := prog.Doctrina.Main.Body[0].(*ast.LoopStmt)
	if loop.Quota != nil || loop.Step != nil {
		t.Errorf("expected nil quota/step when omitted, got %+v", loop)
	}
}

func TestParseLoopMissingPropositioErrors(t *testing.T) {
	_, err := ParseProgram(lexer.New(wrap(`RECURSIO(quota: 10) -> {
nihil;
};`)))
	if err == nil {
		t.Fatal("expected error for missing propositio")
	}
	pe, ok := err.(*errors.ParseError)
	if !ok || pe.Code != errors.PLoopPropositioReq {
		t.Fatalf("expected PLoopPropositioReq, got %v", err)
	}
}

func TestParseLoopUnknownHeaderKeyErrors(t *testing.T) {
	_, err := ParseProgram(lexer.New(wrap(`RECURSIO(propositio:(1 < 2), et: 1) -> {
nihil;
};`)))
	if err == nil {
		t.Fatal("expected error for unknown loop header key")
	}
	pe, ok := err.(*errors.ParseError)
	if !ok || pe.Code != errors.PUnknownLoopHeader {
		t.Fatalf("expected PUnknownLoopHeader, got %v", err)
	}
}

func TestParseBreakAndContinue(t *testing.T) {
	prog := mustParse(t, wrap(`RECURSIO(propositio:(1 < 2)) -> {
effigium;
proximum;
};`))
	loop := prog.Doctrina.Main.Body[0].(*ast.LoopStmt)
	if _, ok := loop.Body[0].(*ast.BreakStmt); !ok {
		t.Errorf("expected BreakStmt, got %T", loop.Body[0])
	}
	if _, ok := loop.Body[1].(*ast.ContinueStmt); !ok {
		t.Errorf("expected ContinueStmt, got %T", loop.Body[1])
	}
}

func TestParseCmtBlocksAreDiscarded(t *testing.T) {
	prog := mustParse(t, wrap(`<cmt> this is dropped </cmt>
VCON x: inte = 1;
<cmt> also dropped </cmt>`))
	if len(prog.Doctrina.Main.Body) != 1 {
		t.Fatalf("expected cmt blocks discarded, got %d statements", len(prog.Doctrina.Main.Body))
	}
}

func TestParseBareNihilAsExpressionRejected(t *testing.T) {
	_, err := ParseProgram(lexer.New(wrap(`VCON x: inte = nihil;`)))
	if err == nil {
		t.Fatal("expected error for nihil used as an expression")
	}
	pe, ok := err.(*errors.ParseError)
	if !ok || pe.Code != errors.PNihilNotExpr {
		t.Fatalf("expected PNihilNotExpr, got %v", err)
	}
}

func TestParseMainRequiresSubjecto(t *testing.T) {
	src := "<FONS></FONS>\n<INTRODUCTIO></INTRODUCTIO>\n<DOCTRINA>\n" +
		"FCON aliud: nihil () -> {\n};\n</DOCTRINA>"
	_, err := ParseProgram(lexer.New(src))
	if err == nil {
		t.Fatal("expected error for wrong main function name")
	}
	pe, ok := err.(*errors.ParseError)
	if !ok || pe.Code != errors.PMainSubjectoRequired {
		t.Fatalf("expected PMainSubjectoRequired, got %v", err)
	}
}

func TestParseIntroductioStatementsCollected(t *testing.T) {
	src := "<FONS></FONS>\n<INTRODUCTIO>\nVCON g: inte = 1;\n</INTRODUCTIO>\n<DOCTRINA>\n" +
		"FCON subjecto: nihil () -> {\n};\n</DOCTRINA>"
	prog := mustParse(t, src)
	if len(prog.Introductio.Stmts) != 1 {
		t.Fatalf("expected 1 introductio statement, got %d", len(prog.Introductio.Stmts))
	}
}

// ---------- expression precedence ----------

func exprOf(t *testing.T, expr string) ast.Expression {
	t.Helper()
	prog := mustParse(t, wrap("VCON r: verum = "+expr+";"))
	return prog.Doctrina.Main.Body[0].(*ast.VarDecl).Init
}

func TestExprAtMostOneComparisonPerChain(t *testing.T) {
	_, err := ParseProgram(lexer.New(wrap(`VCON r: verum = 1 < 2 < 3;`)))
	if err == nil {
		t.Fatal("expected error chaining two comparisons")
	}
}

func TestExprOrBindsLooserThanAnd(t *testing.T) {
	// "1 aut 0 et 0" parses as "1 aut (0 et 0)"
	bin := exprOf(t, `1 aut 0 et 0`).(*ast.BinaryOp)
	if bin.Op != "aut" {
		t.Fatalf("expected top-level aut, got %q", bin.Op)
	}
	right, ok := bin.Right.(*ast.BinaryOp)
	if !ok || right.Op != "et" {
		t.Fatalf("expected et nested on the right, got %#v", bin.Right)
	}
}

func TestExprAddIsLeftAssociative(t *testing.T) {
	// "1 - 2 - 3" parses as "(1 - 2) - 3"
	bin := exprOf(t, `1 - 2 - 3`).(*ast.BinaryOp)
	if bin.Op != "-" {
		t.Fatalf("expected top-level -, got %q", bin.Op)
	}
	left, ok := bin.Left.(*ast.BinaryOp)
	if !ok || left.Op != "-" {
		t.Fatalf("expected - nested on the left, got %#v", bin.Left)
	}
	if _, ok := bin.Right.(*ast.IntLit); !ok {
		t.Fatalf("expected plain literal on the right, got %#v", bin.Right)
	}
}

func TestExprMulBindsTighterThanAdd(t *testing.T) {
	// "1 + 2 * 3" parses as "1 + (2 * 3)"
	bin := exprOf(t, `1 + 2 * 3`).(*ast.BinaryOp)
	if bin.Op != "+" {
		t.Fatalf("expected top-level +, got %q", bin.Op)
	}
	right, ok := bin.Right.(*ast.BinaryOp)
	if !ok || right.Op != "*" {
		t.Fatalf("expected * nested on the right, got %#v", bin.Right)
	}
}

func TestExprPowIsRightAssociative(t *testing.T) {
	// "2 ** 3 ** 2" parses as "2 ** (3 ** 2)"
	bin := exprOf(t, `2 ** 3 ** 2`).(*ast.BinaryOp)
	if bin.Op != "**" {
		t.Fatalf("expected top-level **, got %q", bin.Op)
	}
	if _, ok := bin.Left.(*ast.IntLit); !ok {
		t.Fatalf("expected plain literal on the left, got %#v", bin.Left)
	}
	right, ok := bin.Right.(*ast.BinaryOp)
	if !ok || right.Op != "**" {
		t.Fatalf("expected ** nested on the right, got %#v", bin.Right)
	}
}

func TestExprPowBindsTighterThanMul(t *testing.T) {
	// "2 * 3 ** 2" parses as "2 * (3 ** 2)"
	bin := exprOf(t, `2 * 3 ** 2`).(*ast.BinaryOp)
	if bin.Op != "*" {
		t.Fatalf("expected top-level *, got %q", bin.Op)
	}
	right, ok := bin.Right.(*ast.BinaryOp)
	if !ok || right.Op != "**" {
		t.Fatalf("expected ** nested on the right, got %#v", bin.Right)
	}
}

func TestExprNonIsPrefixUnary(t *testing.T) {
	un := exprOf(t, `non 1 < 2`)
	u, ok := un.(*ast.UnaryOp)
	if !ok || u.Op != "non" {
		t.Fatalf("expected UnaryOp(non), got %#v", un)
	}
	if _, ok := u.Expr.(*ast.BinaryOp); !ok {
		t.Fatalf("expected non to wrap the comparison, got %#v", u.Expr)
	}
}

func TestExprParenGrouping(t *testing.T) {
	bin := exprOf(t, `(1 + 2) * 3`).(*ast.BinaryOp)
	if bin.Op != "*" {
		t.Fatalf("expected top-level *, got %q", bin.Op)
	}
	paren, ok := bin.Left.(*ast.Paren)
	if !ok {
		t.Fatalf("expected Paren on the left, got %#v", bin.Left)
	}
	if inner, ok := paren.Inner.(*ast.BinaryOp); !ok || inner.Op != "+" {
		t.Fatalf("expected + inside parens, got %#v", paren.Inner)
	}
}

func TestExprStringLiteral(t *testing.T) {
	lit := exprOf(t, `"hello arkhe"`).(*ast.StringLit)
	if lit.Value != "hello arkhe" {
		t.Errorf("got %q", lit.Value)
	}
}

func TestExprRealLiteral(t *testing.T) {
	lit := exprOf(t, `3.5`).(*ast.RealLit)
	if lit.Value != 3.5 {
		t.Errorf("got %v", lit.Value)
	}
}

func TestParseErrorsCarrySpan(t *testing.T) {
	_, err := ParseProgram(lexer.New(wrap(`VCON x: inte = nihil;`)))
	pe := err.(*errors.ParseError)
	if !pe.HasSpan || pe.Span.Line == 0 {
		t.Fatalf("expected a populated span, got %+v", pe.Span)
	}
	if !strings.Contains(pe.Error(), string(errors.PNihilNotExpr)) {
		t.Errorf("expected formatted error to contain the code, got %q", pe.Error())
	}
}

// TestParseLoopShapeMatchesExpectedAST diffs a full loop statement's
// tree against an expected shape with go-cmp, the deep-struct-diffing
// tool SPEC_FULL.md calls for in place of one field assertion per node
// once a tree has more than a couple of levels.
func TestParseLoopShapeMatchesExpectedAST(t *testing.T) {
	prog := mustParse(t, wrap(`RECURSIO(propositio:(1 < 2), quota: 5, acceleratio: 1) -> {
effigium;
};`))

	got := prog.Doctrina.Main.Body[0]
	want := &ast.LoopStmt{
		Cond: &ast.BinaryOp{
			Op:    "<",
			Left:  &ast.IntLit{Value: 1},
			Right: &ast.IntLit{Value: 2},
		},
		Quota: &ast.IntLit{Value: 5},
		Step:  &ast.IntLit{Value: 1},
		Body:  []ast.Statement{&ast.BreakStmt{}},
	}

	if diff := cmp.Diff(want, got, ignoreSpans); diff != "" {
		t.Errorf("loop AST shape mismatch (-want +got):\n%s", diff)
	}
}
