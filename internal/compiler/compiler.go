// Package compiler orchestrates the full spec.md §1 pipeline: strip
// comments, parse, fold/organize, type-check, lower to IR, and emit LLVM
// textual IR. It owns nothing about the domain itself -- every stage's
// logic lives in its own package -- this is glue plus the §7 error
// reporting contract, grounded on _examples/original_source/src/main.rs's
// process_file/main shape.
package compiler

import (
	stdcontext "context"
	"fmt"
	"os"
	"strings"

	"github.com/kowaalczyk/latte-sub000/internal/check"
	"github.com/kowaalczyk/latte-sub000/internal/context"
	"github.com/kowaalczyk/latte-sub000/internal/emit"
	cerrors "github.com/kowaalczyk/latte-sub000/internal/errors"
	"github.com/kowaalczyk/latte-sub000/internal/fold"
	"github.com/kowaalczyk/latte-sub000/internal/ir"
	"github.com/kowaalczyk/latte-sub000/internal/irbuild"
	"github.com/kowaalczyk/latte-sub000/internal/parser"
	"github.com/kowaalczyk/latte-sub000/internal/srcmap"
)

// Result is a successful compilation's output.
type Result struct {
	IR string
	// Debug holds a pretty-printed dump of the typed AST, the lowered
	// module, and each class/array layout's estimated size, populated
	// only when LATTE_DEBUG=1 is set.
	Debug string
}

// Compile runs every stage in turn over filename's contents, short-
// circuiting between stages but never within one (§7 "Failure
// semantics"). Diagnostics come back with file/line/column already
// resolved against the ORIGINAL source, not the comment-stripped text
// any individual stage actually parsed. Parallel per-function lowering
// (§5) activates when LATTE_PARALLEL=1 is set; the serial path is the
// default.
func Compile(filename, src string) (*Result, cerrors.List) {
	stripped, smap := srcmap.Strip(src)

	prog, errs := parser.Parse(filename, stripped)
	if errs.HasErrors() {
		return nil, resolve(errs, filename, src, smap)
	}

	prog = fold.Program(prog)

	tprog, errs := check.Check(prog)
	if errs.HasErrors() {
		return nil, resolve(errs, filename, src, smap)
	}

	var mod *ir.Module
	var gctx *context.GlobalContext
	if os.Getenv("LATTE_PARALLEL") == "1" {
		m, g, err := irbuild.BuildModuleParallel(stdcontext.Background(), tprog)
		if err != nil {
			return nil, cerrors.List{cerrors.Wrap(err, "parallel lowering failed")}
		}
		mod, gctx = m, g
	} else {
		mod, gctx = irbuild.BuildModule(tprog)
	}

	result := &Result{IR: emit.Emit(mod, gctx)}
	if os.Getenv("LATTE_DEBUG") == "1" {
		result.Debug = debugDump(tprog, mod, gctx)
	}
	return result, nil
}

// resolve translates every error's stripped-text byte offset back to a
// file/line/column in the ORIGINAL source and attaches the offending line
// for Explain, per §7's "secondary mapper to (file, line, column)".
func resolve(errs cerrors.List, filename, original string, smap *srcmap.Map) cerrors.List {
	lines := strings.Split(original, "\n")
	for _, e := range errs {
		orig := smap.Translate(e.Loc.Offset)
		pos := srcmap.Resolve(original, orig)
		e.WithPosition(cerrors.Position{File: filename, Line: pos.Line, Col: pos.Col})
		if pos.Line >= 1 && pos.Line <= len(lines) {
			e.WithSource(lines[pos.Line-1])
		}
	}
	return errs
}

// Render renders the accumulated diagnostics as spec.md §6's one-line
// "file:line:col: Kind: message" form, one per line.
func Render(errs cerrors.List) string {
	lines := make([]string, len(errs))
	for i, e := range errs {
		lines[i] = e.Error()
	}
	return fmt.Sprintf("%s\n", strings.Join(lines, "\n"))
}
