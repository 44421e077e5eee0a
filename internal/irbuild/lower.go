package irbuild

import (
	"fmt"

	"github.com/kowaalczyk/latte-sub000/internal/context"
	"github.com/kowaalczyk/latte-sub000/internal/ir"
	"github.com/kowaalczyk/latte-sub000/internal/tast"
	"github.com/kowaalczyk/latte-sub000/internal/types"
)

// Lowerer walks one function's typed AST body and emits basic blocks,
// per spec.md §4.7-4.8. A fresh Lowerer is created per function; the
// GlobalContext it reads (string pool, struct layouts, label counter) is
// shared across the whole compilation.
type Lowerer struct {
	gctx  *context.GlobalContext
	fctx  *context.FunctionContext
	scope *context.Scope[ir.Entity]
	cur   *BlockBuilder

	retType types.Type
	blocks  []*ir.BasicBlock
}

func newLowerer(gctx *context.GlobalContext) *Lowerer {
	return &Lowerer{gctx: gctx, fctx: context.NewFunctionContext()}
}

func (l *Lowerer) label(base string) string {
	return fmt.Sprintf("%s__%d", base, l.gctx.NextLabelSuffix())
}

func (l *Lowerer) startBlock(label string) {
	l.cur = NewBlockBuilder(label, l.fctx)
}

// finishBlock closes the current block builder (resolving any phis per
// §4.6), appends it to the function's block list, and folds the
// resulting post-phi bindings back into scope. The returned patch
// closure reapplies this block's substitution to another already-closed
// block; lowerLoop (stmt.go) uses it to fix up the body's blocks once the
// cond block's phis are known.
func (l *Lowerer) finishBlock() (*ir.BasicBlock, func(*ir.BasicBlock) *ir.BasicBlock) {
	blk, env, patch := l.cur.Build()
	l.blocks = append(l.blocks, blk)
	for name, ent := range env {
		l.scope.Rebind(name, ent)
	}
	return blk, patch
}

// LowerFunction lowers one typed function/method body into an
// ir.FunctionDef. fn.OwnerClass is non-empty for methods, in which case the
// function gains a leading NamedRegister "self" argument.
func LowerFunction(gctx *context.GlobalContext, fn *tast.FuncDecl) *ir.FunctionDef {
	l := newLowerer(gctx)
	l.scope = context.NewScope[ir.Entity](nil)
	l.retType = fn.Ret

	var args []ir.FuncArg
	if fn.OwnerClass != "" {
		selfType := types.NewClass(fn.OwnerClass)
		args = append(args, ir.FuncArg{Name: "self", Typ: selfType})
		l.scope.Declare("self", ir.NamedRegister{Name: "self", Typ: selfType})
	}
	for _, p := range fn.Params {
		args = append(args, ir.FuncArg{Name: p.Name, Typ: p.Type})
		l.scope.Declare(p.Name, ir.NamedRegister{Name: p.Name, Typ: p.Type})
	}

	name := context.FuncMangledName(fn.Name)
	if fn.OwnerClass != "" {
		name = MethodMangledName(fn.OwnerClass, fn.Name)
	}

	l.startBlock("entry")
	l.lowerBlock(fn.Body)
	if !l.cur.Terminated() {
		if fn.Ret.Kind == types.Void {
			l.cur.Emit(ir.Instruction{Kind: ir.RetVoid})
		}
	}
	l.finishBlock()

	return &ir.FunctionDef{Name: name, Ret: fn.Ret, Args: args, Blocks: l.blocks}
}

// lowerBlock lowers a typed block's statements in order into the current
// block builder, possibly starting new blocks along the way (if/while).
func (l *Lowerer) lowerBlock(blk *tast.Block) {
	for _, s := range blk.Stmts {
		l.lowerStmt(s)
	}
}

// MethodMangledName names a class method's direct-call implementation;
// dynamic dispatch is out of scope per spec.md §1/§9, so every call site
// resolves statically to this symbol.
func MethodMangledName(class, method string) string {
	return fmt.Sprintf("__method__%s__%s", class, method)
}
