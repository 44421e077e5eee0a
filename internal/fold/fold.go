// Package fold implements spec.md §4.2-§4.3: the constant folder (trivial
// if(true)/if(false) reduction) and the block organizer (every path
// through a function body ends in return). Both are single bottom-up
// AST->AST passes over internal/ast, grounded on
// _examples/original_source/src/frontend/preprocessor/ast_optimizer.rs and
// block_organizer.rs, reimplemented idiomatically rather than translated.
package fold

import "github.com/kowaalczyk/latte-sub000/internal/ast"

// Program runs the constant folder followed by the block organizer over
// every function and method body in prog, returning the rewritten
// program. Class/field declarations are untouched.
func Program(prog *ast.Program) *ast.Program {
	for _, fn := range prog.Functions {
		foldFunc(fn)
	}
	for _, cls := range prog.Classes {
		for _, m := range cls.Methods {
			foldFunc(m)
		}
	}
	return prog
}

func foldFunc(fn *ast.FuncDecl) {
	fn.Body = foldBlock(fn.Body)
	organizeFuncBody(fn)
}

// foldBlock applies constant folding to every statement, dropping
// EmptyStmt children left behind by a fold (§4.2 "Blocks drop all
// empty-statement children after folding").
func foldBlock(b *ast.Block) *ast.Block {
	out := &ast.Block{Pos: b.Pos}
	for _, s := range b.Stmts {
		folded := foldStmt(s)
		if _, empty := folded.(*ast.EmptyStmt); empty {
			continue
		}
		out.Stmts = append(out.Stmts, folded)
	}
	return out
}

func foldStmt(s ast.Stmt) ast.Stmt {
	switch st := s.(type) {
	case *ast.BlockStmt:
		return &ast.BlockStmt{StmtBase: st.StmtBase, Block: foldBlock(st.Block)}
	case *ast.IfStmt:
		then := foldStmt(st.Then)
		var els ast.Stmt
		if st.Else != nil {
			els = foldStmt(st.Else)
		}
		if lit, ok := st.Cond.(*ast.BoolLit); ok {
			if lit.Value {
				return then
			}
			if els != nil {
				return els
			}
			return &ast.EmptyStmt{StmtBase: st.StmtBase}
		}
		return &ast.IfStmt{StmtBase: st.StmtBase, Cond: st.Cond, Then: then, Else: els}
	case *ast.WhileStmt:
		return &ast.WhileStmt{StmtBase: st.StmtBase, Cond: st.Cond, Body: foldStmt(st.Body)}
	case *ast.ForEachStmt:
		return &ast.ForEachStmt{StmtBase: st.StmtBase, ElemType: st.ElemType, Var: st.Var, Array: st.Array, Body: foldStmt(st.Body)}
	default:
		return s
	}
}

// organizeFuncBody enforces spec.md §4.3's return-completion invariant on
// a function's top-level body block, recursing into nested blocks and
// if/else branches.
func organizeFuncBody(fn *ast.FuncDecl) {
	voidReturn := fn.Ret.Name == "void" && !fn.Ret.Array
	fn.Body = organizeBlock(fn.Body, voidReturn)
}

// organizeBlock truncates at the first top-level return, recurses into
// nested control flow, and appends a synthetic return if the block does
// not already end in one (rule 2: a missing non-void return is left for
// the type checker to report, since only it knows the declared type vs.
// the synthesized Void return's type).
func organizeBlock(b *ast.Block, voidReturn bool) *ast.Block {
	out := &ast.Block{Pos: b.Pos}
	terminated := false
	for _, s := range b.Stmts {
		out.Stmts = append(out.Stmts, organizeStmt(s, voidReturn))
		if isReturn(s) {
			terminated = true
			break
		}
	}
	if !terminated && (len(out.Stmts) == 0 || !stmtReturns(out.Stmts[len(out.Stmts)-1])) {
		var val ast.Expr
		if voidReturn {
			val = nil
		}
		out.Stmts = append(out.Stmts, &ast.ReturnStmt{StmtBase: ast.StmtBase{Pos: b.Pos}, Value: val})
	}
	return out
}

func organizeStmt(s ast.Stmt, voidReturn bool) ast.Stmt {
	switch st := s.(type) {
	case *ast.BlockStmt:
		return &ast.BlockStmt{StmtBase: st.StmtBase, Block: organizeBlock(st.Block, voidReturn)}
	case *ast.IfStmt:
		then := organizeBranch(st.Then, voidReturn)
		var els ast.Stmt
		if st.Else != nil {
			e := organizeBranch(st.Else, voidReturn)
			els = e
		}
		return &ast.IfStmt{StmtBase: st.StmtBase, Cond: st.Cond, Then: then, Else: els}
	case *ast.WhileStmt:
		return &ast.WhileStmt{StmtBase: st.StmtBase, Cond: st.Cond, Body: organizeNonReturningBranch(st.Body, voidReturn)}
	case *ast.ForEachStmt:
		return &ast.ForEachStmt{StmtBase: st.StmtBase, ElemType: st.ElemType, Var: st.Var, Array: st.Array, Body: organizeNonReturningBranch(st.Body, voidReturn)}
	default:
		return s
	}
}

// organizeBranch recurses into an if/else branch per rule 3: a standalone
// statement becomes a block of itself followed by a synthetic return.
func organizeBranch(s ast.Stmt, voidReturn bool) ast.Stmt {
	if blk, ok := s.(*ast.BlockStmt); ok {
		return &ast.BlockStmt{StmtBase: blk.StmtBase, Block: organizeBlock(blk.Block, voidReturn)}
	}
	wrapped := &ast.Block{Pos: s.Position(), Stmts: []ast.Stmt{s}}
	return &ast.BlockStmt{StmtBase: ast.StmtBase{Pos: s.Position()}, Block: organizeBlock(wrapped, voidReturn)}
}

// organizeNonReturningBranch recurses into a loop body, which is not
// subject to the return-completion requirement (a loop need not return on
// every iteration), but whose nested if/else branches still are.
func organizeNonReturningBranch(s ast.Stmt, voidReturn bool) ast.Stmt {
	return organizeStmt(s, voidReturn)
}

func isReturn(s ast.Stmt) bool {
	_, ok := s.(*ast.ReturnStmt)
	return ok
}

// stmtReturns reports whether s is itself a return, or an if/else whose
// both branches return (§4.3 rule 2).
func stmtReturns(s ast.Stmt) bool {
	switch st := s.(type) {
	case *ast.ReturnStmt:
		return true
	case *ast.IfStmt:
		if st.Else == nil {
			return false
		}
		return blockReturns(st.Then) && blockReturns(st.Else)
	case *ast.BlockStmt:
		return blockReturns(st)
	default:
		return false
	}
}

func blockReturns(s ast.Stmt) bool {
	if blk, ok := s.(*ast.BlockStmt); ok {
		if len(blk.Block.Stmts) == 0 {
			return false
		}
		return stmtReturns(blk.Block.Stmts[len(blk.Block.Stmts)-1])
	}
	return stmtReturns(s)
}
