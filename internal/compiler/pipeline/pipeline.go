// Package pipeline composes lex, parse, and semantic analysis behind a
// single entry point, following spec.md §4.6: any ArcanaError surfaces
// untouched, and anything else (a parser/lexer panic, a programming
// bug) is recovered and wrapped into P0099_INTERNAL with the original
// message preserved, never silently swallowed.
package pipeline

import (
	"fmt"
	"os"

	"github.com/pkg/errors"
	compilererrors "github.com/Yusuke-1986/project-arcana/internal/compiler/errors"
	"github.com/Yusuke-1986/project-arcana/internal/compiler/ast"
	"github.com/Yusuke-1986/project-arcana/internal/compiler/lexer"
	"github.com/Yusuke-1986/project-arcana/internal/compiler/parser"
	"github.com/Yusuke-1986/project-arcana/internal/compiler/semantic"
	"github.com/rs/zerolog"
)

// Options configures a single compilation. A zero MaxLoopDepth/
// DefaultQuota/DefaultStep means "use the matching semantic package
// default" — see internal/config for where these are usually sourced
// from (.arcana.yaml / ARCANA_* env vars).
type Options struct {
	MaxLoopDepth int
	DefaultQuota int64
	DefaultStep  int64
	// Logger receives one trace-level event per stage when non-nil,
	// gated by the CLI's --vestigium flag upstream. A nil Logger emits
	// no trace events.
	Logger *zerolog.Logger
}

func (o Options) trace(stage string) *zerolog.Event {
	if o.Logger == nil {
		return nil
	}
	return o.Logger.Trace().Str("stage", stage)
}

// Result is what a successful compilation produces: the analyzed
// program plus any (currently always empty) warnings.
type Result struct {
	Program  *ast.Program
	Warnings []string
}

// CompileSource runs lex → parse → semantic-analyze over text and
// returns the result, or the first error any stage raised.
func CompileSource(text string, opts Options) (res Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = wrapInternal(fmt.Errorf("%v", r))
		}
	}()

	l := lexer.New(text)
	opts.trace("lex").Msg("lexer ready")

	prog, perr := parser.ParseProgram(l)
	if perr != nil {
		return Result{}, classify(perr)
	}
	opts.trace("parse").Msg("parse complete")

	sres, serr := semantic.Analyze(prog, semantic.Options{
		MaxLoopDepth: opts.MaxLoopDepth,
		DefaultQuota: opts.DefaultQuota,
		DefaultStep:  opts.DefaultStep,
	})
	if serr != nil {
		return Result{}, classify(serr)
	}
	opts.trace("semantic").Int("warnings", len(sres.Warnings)).Msg("semantic analysis complete")

	return Result{Program: sres.Program, Warnings: sres.Warnings}, nil
}

// CompileFile reads path as UTF-8 and delegates to CompileSource,
// supplementing spec.md §4.6's compile_source with the convenience
// wrapper original_source/src/arcana/pipeline.py exposes as
// compile_file.
func CompileFile(path string, opts Options) (Result, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Result{}, wrapInternal(err)
	}
	return CompileSource(string(data), opts)
}

// classify passes ArcanaError instances through untouched and wraps
// anything else into P0099_INTERNAL.
func classify(err error) error {
	if _, ok := err.(compilererrors.ArcanaError); ok {
		return err
	}
	return wrapInternal(err)
}

func wrapInternal(err error) error {
	wrapped := errors.Wrap(err, "internal compiler error")
	return compilererrors.NewParseErrorNoSpan(compilererrors.PInternal, wrapped.Error())
}
