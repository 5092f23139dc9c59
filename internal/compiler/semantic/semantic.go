// Package semantic walks a parsed Program once, checking the rules
// spec.md §4.4 lists and normalizing loop headers in place. It is the
// only stage in the pipeline allowed to mutate the AST it is given —
// every other stage treats its input as immutable.
package semantic

import (
	"github.com/Yusuke-1986/project-arcana/internal/compiler/ast"
	"github.com/Yusuke-1986/project-arcana/internal/compiler/errors"
)

// MaxLoopDepth is the default nesting ceiling; callers may override it
// via Options for a given Analyze call.
const MaxLoopDepth = 3

// DefaultQuota and DefaultStep are the loop-header defaults a caller's
// Options can override, e.g. from internal/config's .arcana.yaml/
// ARCANA_ env layer.
const (
	DefaultQuota int64 = 100
	DefaultStep  int64 = 1
)

// builtinArity is the fixed min/max table from spec.md §4.4. A max of
// -1 means unbounded.
var builtinArity = map[string][2]int{
	"accipere":  {0, 1},
	"longitudo": {1, 1},
	"figura":    {1, 1},
	"indicant":  {0, -1},
	"inte":      {1, 1},
	"real":      {1, 1},
	"filum":     {1, 1},
	"verum":     {1, 1},
	"ordinata":  {0, -1},
}

// builtinReturn maps a built-in call to its inferred result type, used
// by VarDecl/Assign type-mismatch checking.
var builtinReturn = map[string]ast.TypeName{
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

// Options configures a single Analyze call. A zero field falls back to
// the matching package default (MaxLoopDepth, DefaultQuota, DefaultStep).
type Options struct {
	MaxLoopDepth int
	DefaultQuota int64
	DefaultStep  int64
}

// Result is what Analyze returns: the (possibly mutated) program plus
// a warnings slot that no current rule populates, reserved for future
// non-fatal findings.
type Result struct {
	Program  *ast.Program
	Warnings []string
}

type context struct {
	loopDepth    int
	maxLoopDepth int
	defaultQuota int64
	defaultStep  int64
	env          map[string]ast.TypeName
	warnings     []string
}

// Analyze checks prog against every rule in spec.md §4.4 and returns on
// the first violation. Within a single loop header, nesting depth is
// checked before quota/step defaulting and literal-range validation
// (see context.loop); quota/step defaulting itself always runs before
// the literal-range check for that same loop.
func Analyze(prog *ast.Program, opts Options) (Result, error) {
	maxDepth := opts.MaxLoopDepth
	if maxDepth == 0 {
		maxDepth = MaxLoopDepth
	}
	defaultQuota := opts.DefaultQuota
	if defaultQuota == 0 {
		defaultQuota = DefaultQuota
	}
	defaultStep := opts.DefaultStep
	if defaultStep == 0 {
		defaultStep = DefaultStep
	}
	ctx := &context{
		maxLoopDepth: maxDepth,
		defaultQuota: defaultQuota,
		defaultStep:  defaultStep,
		env:          map[string]ast.TypeName{},
	}

	if err := ctx.stmts(prog.Introductio.Stmts); err != nil {
		return Result{}, err
	}
	if err := ctx.stmts(prog.Doctrina.Main.Body); err != nil {
		return Result{}, err
	}
	return Result{Program: prog, Warnings: ctx.warnings}, nil
}

func (c *context) stmts(list []ast.Statement) error {
	for _, s := range list {
		if err := c.stmt(s); err != nil {
			return err
		}
	}
	return nil
}

func (c *context) stmt(s ast.Statement) error {
	switch n := s.(type) {
	case *ast.NihilStmt:
		return nil

	case *ast.BreakStmt:
		if c.loopDepth == 0 {
			return errors.NewSemanticError(errors.EBreakOutsideLoop, "effigium outside a loop", n.Span)
		}
		return nil

	case *ast.ContinueStmt:
		if c.loopDepth == 0 {
			return errors.NewSemanticError(errors.EContinueOutsideLoop, "proximum outside a loop", n.Span)
		}
		return nil

	case *ast.VarDecl:
		if n.Init != nil {
			initType, err := c.inferType(n.Init)
			if err != nil {
				return err
			}
			if initType != "" && initType != n.Type {
				return errors.NewSemanticError(errors.ETypeMismatch,
					"declared type "+string(n.Type)+" does not match initializer type "+string(initType), n.Span)
			}
		}
		c.env[n.Name] = n.Type
		return nil

	case *ast.Assign:
		valType, err := c.inferType(n.Value)
		if err != nil {
			return err
		}
		if declared, known := c.env[n.Name]; known && valType != "" && valType != declared {
			return errors.NewSemanticError(errors.ETypeMismatch,
				"assignment to "+n.Name+" does not match its declared type "+string(declared), n.Span)
		}
		return nil

	case *ast.Move:
		return nil

	case *ast.CallStmt:
		return c.checkArity(n.Call)

	case *ast.ExprStmt:
		_, err := c.inferType(n.Expr)
		return err

	case *ast.IfStmt:
		if _, err := c.inferType(n.Cond); err != nil {
			return err
		}
		if err := c.stmts(n.ThenBody); err != nil {
			return err
		}
		return c.stmts(n.ElseBody)

	case *ast.LoopStmt:
		return c.loop(n)

	default:
		return nil
	}
}

// loop checks nesting depth first, unconditionally, before touching
// cond/quota/step — matching original_source/src/arcana/semantic.py's
// _sem_loop_stmt, so a loop that is both over-nested and has an invalid
// literal quota/step reports ELoopNestTooDeep, not a quota/step error.
func (c *context) loop(n *ast.LoopStmt) error {
	c.loopDepth++
	if c.loopDepth > c.maxLoopDepth {
		c.loopDepth--
		return errors.NewSemanticError(errors.ELoopNestTooDeep, "loop nesting exceeds the configured maximum", n.Span)
	}
	defer func() { c.loopDepth-- }()

	if n.Quota == nil {
		n.Quota = &ast.IntLit{Value: c.defaultQuota, Span: n.Span}
	}
	if n.Step == nil {
		n.Step = &ast.IntLit{Value: c.defaultStep, Span: n.Span}
	}

	if lit, ok := n.Quota.(*ast.IntLit); ok && lit.Value < 0 {
		return errors.NewSemanticError(errors.ELoopQuotaInvalid, "loop quota must be non-negative", n.Span)
	}
	switch lit := n.Step.(type) {
	case *ast.IntLit:
		if lit.Value <= 0 {
			return errors.NewSemanticError(errors.ELoopStepNotPositive, "loop step must be positive", n.Span)
		}
	case *ast.RealLit:
		if lit.Value <= 0 {
			return errors.NewSemanticError(errors.ELoopStepNotPositive, "loop step must be positive", n.Span)
		}
	}

	if _, err := c.inferType(n.Cond); err != nil {
		return err
	}

	return c.stmts(n.Body)
}

func (c *context) checkArity(call *ast.CallExpr) error {
	if bounds, ok := builtinArity[call.Name]; ok {
		min, max := bounds[0], bounds[1]
		n := len(call.Args)
		if n < min || (max >= 0 && n > max) {
			return errors.NewSemanticError(errors.EArgCountMismatch,
				"wrong number of arguments to "+call.Name, call.Span)
		}
	}
	for _, arg := range call.Args {
		if _, err := c.inferType(arg); err != nil {
			return err
		}
	}
	return nil
}

// inferType implements the table from spec.md §4.4, rule 6. An empty
// return means "unknown" (no error raised).
func (c *context) inferType(e ast.Expression) (ast.TypeName, error) {
	switch n := e.(type) {
	case *ast.IntLit:
		return ast.TypeInte, nil
	case *ast.RealLit:
		return ast.TypeReal, nil
	case *ast.StringLit:
		return ast.TypeFilum, nil
	case *ast.Name:
		return c.env[n.ID], nil
	case *ast.CallExpr:
		if err := c.checkArity(n); err != nil {
			return "", err
		}
		return builtinReturn[n.Name], nil
	case *ast.Paren:
		return c.inferType(n.Inner)
	case *ast.UnaryOp:
		_, err := c.inferType(n.Expr)
		return "", err
	case *ast.BinaryOp:
		// Operand types are checked only for the errors a bad operand
		// itself raises (e.g. a builtin arity mismatch nested inside an
		// arithmetic expression); mixing inte and real across + - * / %
		// is not a TYPE_MISMATCH here, matching the original's dynamic
		// arithmetic. The emitter coerces the narrower operand to real
		// with arcanaReal so the generated Go still type-checks.
		if _, err := c.inferType(n.Left); err != nil {
			return "", err
		}
		if _, err := c.inferType(n.Right); err != nil {
			return "", err
		}
		return "", nil
	default:
		return "", nil
	}
}
