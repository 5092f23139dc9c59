// Package emitter walks a semantically-normalized Program and produces
// Go source text. One type-switch case handles each concrete node kind;
// there are no isinstance-style cascades. Go does not check a type
// switch for exhaustiveness, so a variant without a case reaches the
// switch's default branch, which panics at emission time.
package emitter

import (
	"fmt"
	"go/format"
	"strconv"
	"strings"

	"github.com/Yusuke-1986/project-arcana/internal/compiler/ast"
)

// zeroValue is the Go zero-value literal a Move clears its source to,
// keyed by the declared TypeName of that source (see SPEC_FULL.md §0's
// type-mapping table). A name whose declared type is unknown falls back
// to nil, which is valid for any interface-shaped emitted variable.
var zeroValue = map[ast.TypeName]string{
	ast.TypeInte:      "0",
	ast.TypeReal:      "0.0",
	ast.TypeVerum:     "false",
	ast.TypeFilum:     `""`,
	ast.TypeOrdinata:  "nil",
	ast.TypeCatalogus: "nil",
}

// builtinNames maps an Arcana built-in to the Go identifier that
// implements it in the runtime prologue or the standard library.
// Names absent from this table pass through unchanged (user
// identifiers, e.g. a call to a not-yet-supported user function).
var builtinNames = map[string]string{
	"indicant":  "arcanaPrint",
	"accipere":  "arcanaInput",
	"longitudo": "arcanaLen",
	"figura":    "arcanaFigura",
	"verum":     "arcanaVerum",
	"inte":      "arcanaInte",
	"real":      "arcanaReal",
	"filum":     "arcanaFilum",
}

// binaryOps maps an Arcana operator spelling to its Go equivalent.
var binaryOps = map[string]string{
	"et": "&&", "aut": "||",
	"==": "==", "><": "!=", "<": "<", ">": ">", "<=": "<=", ">=": ">=",
	"+": "+", "-": "-", "*": "*", "/": "/", "%": "%",
}

// arithOps is the subset of binaryOps that compute a numeric result.
// Go requires their int64/float64 operands to share a type, and the
// same holds for the ordering and equality comparisons (see
// arithCoercion); the logical et/aut take bool operands and are never
// coerced.
var arithOps = map[string]bool{
	"+": true, "-": true, "*": true, "/": true, "%": true,
}

// builtinResultType mirrors the semantic analyzer's builtinReturn
// table, kept local here rather than imported so the emitter's
// lightweight type inference (exprType) doesn't need a dependency on
// the semantic package for a handful of constant mappings.
var builtinResultType = map[string]ast.TypeName{
	"accipere":  ast.TypeFilum,
	"longitudo": ast.TypeInte,
	"figura":    ast.TypeFilum,
	"inte":      ast.TypeInte,
	"real":      ast.TypeReal,
	"filum":     ast.TypeFilum,
	"verum":     ast.TypeVerum,
	"ordinata":  ast.TypeOrdinata,
	"indicant":  ast.TypeNihil,
}

// comparisonOps always produce a verum, regardless of operand type.
var comparisonOps = map[string]bool{
	"et": true, "aut": true,
	"==": true, "><": true, "<": true, ">": true, "<=": true, ">=": true,
}

// Emitter holds the per-compilation state a visitor needs: the output
// buffer and a counter handing out unique per-loop variable suffixes.
type Emitter struct {
	buf       strings.Builder
	loopCount int
	// declType tracks the declared Arcana type of every VCON'd name seen
	// so far, so Move emission knows which zero value to clear a source
	// to and exprType can resolve a Name's type for operand coercion. The
	// semantic analyzer has already validated types; this is
	// bookkeeping, not re-validation.
	declType map[string]ast.TypeName
}

// New returns a ready-to-use Emitter.
func New() *Emitter {
	return &Emitter{declType: map[string]ast.TypeName{}}
}

// Emit walks prog and returns gofmt-formatted Go source implementing it,
// or a formatting error if the generated text is not valid Go (a
// compiler-internal bug, since every construct below is hand-verified
// against the grammar it emits for).
func Emit(prog *ast.Program) (string, error) {
	e := New()
	e.emitProgram(prog)
	formatted, err := format.Source([]byte(e.buf.String()))
	if err != nil {
		return e.buf.String(), fmt.Errorf("emitter produced unformattable Go source: %w", err)
	}
	return string(formatted), nil
}

func (e *Emitter) writef(format string, args ...any) {
	fmt.Fprintf(&e.buf, format, args...)
}

func (e *Emitter) emitProgram(prog *ast.Program) {
	e.writef("package main\n\n")
	e.writef("import (\n\t\"fmt\"\n\t\"strconv\"\n\t\"strings\"\n)\n\n")
	e.emitPrologue()

	if len(prog.Introductio.Stmts) > 0 {
		e.writef("func init() {\n")
		for _, s := range prog.Introductio.Stmts {
			e.emitStmt(s)
		}
		e.writef("}\n\n")
	}

	e.writef("func subjecto() {\n")
	for _, s := range prog.Doctrina.Main.Body {
		e.emitStmt(s)
	}
	e.writef("}\n\n")

	e.writef("func main() {\n\tsubjecto()\n}\n")
}

// emitPrologue writes the runtime support embedded in every emission:
// the runtime error type, the raise and assert-positive helpers, the
// figura/verum helpers, and the print/input/len and inte/real/filum
// helpers the built-in calls map to. Names are prefixed "arcana" so they
// cannot collide with any user identifier, which in this grammar is
// always a bare lowercase Latin-flavored word without that prefix. The
// text is written verbatim, not through writef, because it contains a
// literal %T verb meant for the emitted program.
func (e *Emitter) emitPrologue() {
	e.buf.WriteString(`type ArcanaRuntimeError struct {
	Code    string
	Message string
}

func (e *ArcanaRuntimeError) Error() string {
	return "[" + e.Code + "] " + e.Message
}

func arcanaRaise(code, message string) {
	panic(&ArcanaRuntimeError{Code: code, Message: message})
}

func arcanaAssertPositive(code string, value float64) {
	if value <= 0 {
		arcanaRaise(code, "stationarius accelerationis")
	}
}

func arcanaPrint(args ...any) {
	fmt.Println(args...)
}

func arcanaInput(prompt ...any) string {
	if len(prompt) > 0 {
		fmt.Print(prompt[0])
	}
	var line string
	fmt.Scanln(&line)
	return line
}

func arcanaLen(v any) int64 {
	switch x := v.(type) {
	case string:
		return int64(len(x))
	case []any:
		return int64(len(x))
	case map[any]any:
		return int64(len(x))
	default:
		return 0
	}
}

func arcanaFigura(v any) string {
	switch v.(type) {
	case int64:
		return "inte"
	case float64:
		return "real"
	case string:
		return "filum"
	case bool:
		return "verum"
	case []any:
		return "ordinata"
	case map[any]any:
		return "catalogus"
	case nil:
		return "nihil"
	default:
		return fmt.Sprintf("%T_python_originis", v)
	}
}

func arcanaVerum(v any) bool {
	switch x := v.(type) {
	case bool:
		return x
	case string:
		switch strings.ToLower(x) {
		case "verum", "true", "1", "yes", "y":
			return true
		case "falsum", "false", "0", "no", "n", "":
			return false
		default:
			return x != ""
		}
	case int64:
		return x != 0
	case float64:
		return x != 0
	default:
		return v != nil
	}
}

func arcanaInte(v any) int64 {
	switch x := v.(type) {
	case int64:
		return x
	case float64:
		return int64(x)
	case string:
		n, _ := strconv.ParseInt(x, 10, 64)
		return n
	case bool:
		if x {
			return 1
		}
		return 0
	default:
		return 0
	}
}

func arcanaReal(v any) float64 {
	switch x := v.(type) {
	case float64:
		return x
	case int64:
		return float64(x)
	case string:
		f, _ := strconv.ParseFloat(x, 64)
		return f
	default:
		return 0
	}
}

func arcanaFilum(v any) string {
	return fmt.Sprint(v)
}

`)
}

func (e *Emitter) emitStmt(s ast.Statement) {
	switch n := s.(type) {
	case *ast.NihilStmt:
		e.writef("_ = 0\n")

	case *ast.BreakStmt:
		e.writef("break\n")

	case *ast.ContinueStmt:
		e.writef("continue\n")

	case *ast.VarDecl:
		e.declType[n.Name] = n.Type
		if n.Init != nil {
			e.writef("%s := ", n.Name)
			e.emitExpr(n.Init)
			e.writef("\n")
		} else {
			e.writef("var %s %s\n", n.Name, goType(n.Type))
		}

	case *ast.Assign:
		e.writef("%s = ", n.Name)
		e.emitExpr(n.Value)
		e.writef("\n")

	case *ast.Move:
		e.writef("%s = %s\n", n.Dst, n.Src)
		e.writef("%s = %s\n", n.Src, e.zeroValueFor(n.Src))

	case *ast.CallStmt:
		e.emitExpr(n.Call)
		e.writef("\n")

	case *ast.ExprStmt:
		e.writef("_ = ")
		e.emitExpr(n.Expr)
		e.writef("\n")

	case *ast.IfStmt:
		e.writef("if ")
		e.emitExpr(n.Cond)
		e.writef(" {\n")
		for _, st := range n.ThenBody {
			e.emitStmt(st)
		}
		e.writef("} else {\n")
		for _, st := range n.ElseBody {
			e.emitStmt(st)
		}
		e.writef("}\n")

	case *ast.LoopStmt:
		e.emitLoop(n)

	default:
		panic(fmt.Sprintf("emitter: unhandled statement type %T", s))
	}
}

// zeroValueFor looks up the declared type of a Move source; names with
// no recorded declaration (e.g. an undeclared identifier the semantic
// analyzer did not see) fall back to nil.
func (e *Emitter) zeroValueFor(name string) string {
	if t, ok := e.declType[name]; ok {
		if z, ok := zeroValue[t]; ok {
			return z
		}
	}
	return "nil"
}

// exprType is a lightweight static type inference over the same
// grammar the semantic analyzer already validated, used only to decide
// where emitArithOperand must insert an arcanaReal coercion. An empty
// result means "unknown" and never triggers a coercion.
func (e *Emitter) exprType(expr ast.Expression) ast.TypeName {
	switch n := expr.(type) {
	case *ast.IntLit:
		return ast.TypeInte
	case *ast.RealLit:
		return ast.TypeReal
	case *ast.StringLit, *ast.CantusLit:
		return ast.TypeFilum
	case *ast.Name:
		return e.declType[n.ID]
	case *ast.Paren:
		return e.exprType(n.Inner)
	case *ast.UnaryOp:
		if n.Op == "non" {
			return ast.TypeVerum
		}
		return e.exprType(n.Expr)
	case *ast.CallExpr:
		return builtinResultType[n.Name]
	case *ast.DictLit:
		return ast.TypeCatalogus
	case *ast.BinaryOp:
		if comparisonOps[n.Op] {
			return ast.TypeVerum
		}
		lt, rt := e.exprType(n.Left), e.exprType(n.Right)
		if lt == ast.TypeReal || rt == ast.TypeReal {
			return ast.TypeReal
		}
		if lt == ast.TypeInte && rt == ast.TypeInte {
			return ast.TypeInte
		}
		return ""
	default:
		return ""
	}
}

// arithCoercion reports which side of an arithmetic or comparison
// BinaryOp (if either) needs wrapping in arcanaReal so both Go operands
// share a type. Mixing inte and real is valid Arcana (the semantic
// analyzer permits it, matching the original's dynamic arithmetic), but
// Go requires int64 and float64 operands to match, so the narrower side
// is promoted here the same way emitLoop already promotes loop
// counters.
func (e *Emitter) arithCoercion(n *ast.BinaryOp) (left, right bool) {
	numericCompare := comparisonOps[n.Op] && n.Op != "et" && n.Op != "aut"
	if !arithOps[n.Op] && !numericCompare {
		return false, false
	}
	lt, rt := e.exprType(n.Left), e.exprType(n.Right)
	if lt == ast.TypeInte && rt == ast.TypeReal {
		return true, false
	}
	if lt == ast.TypeReal && rt == ast.TypeInte {
		return false, true
	}
	return false, false
}

func (e *Emitter) emitArithOperand(expr ast.Expression, coerce bool) {
	if coerce {
		e.writef("arcanaReal(")
		e.emitExpr(expr)
		e.writef(")")
		return
	}
	e.emitExpr(expr)
}

func goType(t ast.TypeName) string {
	switch t {
	case ast.TypeInte:
		return "int64"
	case ast.TypeReal:
		return "float64"
	case ast.TypeVerum:
		return "bool"
	case ast.TypeFilum:
		return "string"
	case ast.TypeOrdinata:
		return "[]any"
	case ast.TypeCatalogus:
		return "map[any]any"
	default:
		return "any"
	}
}

// emitLoop implements spec.md §4.5's loop-emission algorithm verbatim,
// substituting Go control flow for the pseudocode's while/raise: a
// negative quota or non-positive step is detected before the loop body
// ever runs, and the counter increments at the start of each iteration,
// after the condition succeeds and before the user's statements run.
func (e *Emitter) emitLoop(n *ast.LoopStmt) {
	i := e.loopCount
	e.loopCount++

	ctr := fmt.Sprintf("ctr%d", i)
	quota := fmt.Sprintf("quota%d", i)
	step := fmt.Sprintf("step%d", i)

	e.writef("%s := float64(0)\n", ctr)
	e.writef("%s := arcanaReal(", quota)
	e.emitExpr(n.Quota)
	e.writef(")\n")
	e.writef("%s := arcanaReal(", step)
	e.emitExpr(n.Step)
	e.writef(")\n")
	e.writef("if %s < 0 {\n\tarcanaRaise(\"R0100_VERITATEM_NON_ATTIGI\", \"stationarius accelerationis\")\n}\n", quota)
	e.writef("arcanaAssertPositive(\"E0110_LOOP_STEP_NOT_POSITIVE\", %s)\n", step)
	e.writef("for ")
	e.emitExpr(n.Cond)
	e.writef(" {\n")
	e.writef("if %s >= %s {\n\tarcanaRaise(\"R0100_VERITATEM_NON_ATTIGI\", \"Veritatem non attigi.\")\n}\n", ctr, quota)
	e.writef("%s += %s\n", ctr, step)
	for _, st := range n.Body {
		e.emitStmt(st)
	}
	e.writef("}\n")
}

// emitExpr parenthesizes every binary and unary expression so Arcana's
// fixed-precedence grammar is preserved regardless of Go's own
// precedence table.
func (e *Emitter) emitExpr(expr ast.Expression) {
	switch n := expr.(type) {
	case *ast.IntLit:
		e.writef("int64(%d)", n.Value)

	case *ast.RealLit:
		e.writef("%s", strconv.FormatFloat(n.Value, 'g', -1, 64))

	case *ast.StringLit:
		e.writef("%q", n.Value)

	case *ast.CantusLit:
		e.writef("%q", n.Template)

	case *ast.Name:
		e.writef("%s", n.ID)

	case *ast.Paren:
		e.writef("(")
		e.emitExpr(n.Inner)
		e.writef(")")

	case *ast.UnaryOp:
		op := n.Op
		if op == "non" {
			op = "!"
		}
		e.writef("(%s", op)
		e.emitExpr(n.Expr)
		e.writef(")")

	case *ast.BinaryOp:
		goOp, ok := binaryOps[n.Op]
		if !ok {
			goOp = n.Op
		}
		coerceLeft, coerceRight := e.arithCoercion(n)
		e.writef("(")
		e.emitArithOperand(n.Left, coerceLeft)
		e.writef(" %s ", goOp)
		e.emitArithOperand(n.Right, coerceRight)
		e.writef(")")

	case *ast.CallExpr:
		e.emitCall(n)

	case *ast.DictLit:
		e.writef("map[any]any{")
		for i, pair := range n.Pairs {
			if i > 0 {
				e.writef(", ")
			}
			e.emitExpr(pair.Key)
			e.writef(": ")
			e.emitExpr(pair.Value)
		}
		e.writef("}")

	case *ast.IndexExpr:
		e.emitExpr(n.Target)
		e.writef("[")
		e.emitExpr(n.Key)
		e.writef("]")

	default:
		panic(fmt.Sprintf("emitter: unhandled expression type %T", expr))
	}
}

// emitCall special-cases ordinata() into a slice literal (spec.md §4.5:
// the original's single-element-tuple trailing-comma concern does not
// apply to a Go slice literal, so every arity emits the same shape) and
// otherwise renames built-ins through builtinNames, passing unmapped
// names through unchanged.
func (e *Emitter) emitCall(call *ast.CallExpr) {
	if call.Name == "ordinata" {
		e.writef("[]any{")
		for i, a := range call.Args {
			if i > 0 {
				e.writef(", ")
			}
			e.emitExpr(a)
		}
		e.writef("}")
		return
	}

	name := call.Name
	if mapped, ok := builtinNames[name]; ok {
		name = mapped
	}
	e.writef("%s(", name)
	for i, a := range call.Args {
		if i > 0 {
			e.writef(", ")
		}
		e.emitExpr(a)
	}
	e.writef(")")
}
