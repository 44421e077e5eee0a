package check

import (
	"github.com/kowaalczyk/latte-sub000/internal/ast"
	"github.com/kowaalczyk/latte-sub000/internal/context"
	cerrors "github.com/kowaalczyk/latte-sub000/internal/errors"
	"github.com/kowaalczyk/latte-sub000/internal/tast"
	"github.com/kowaalczyk/latte-sub000/internal/types"
)

// checkBlock opens a fresh nested scope (§4.4 "a per-block declared-names
// set to forbid redeclaration in the same lexical block") and checks each
// statement, reporting the block's exit type as its last statement's type
// (§4.4 "Control-flow typing"), Void for an empty block.
func (c *checker) checkBlock(b *ast.Block, parent *context.Scope[types.Type], retType types.Type) *tast.Block {
	scope := context.NewScope(parent)
	out := &tast.Block{Typ: types.T(types.Void)}
	for _, s := range b.Stmts {
		ts := c.checkStmt(s, scope, retType)
		out.Stmts = append(out.Stmts, ts)
		out.Typ = ts.ExitType()
	}
	return out
}

func (c *checker) checkStmt(s ast.Stmt, scope *context.Scope[types.Type], retType types.Type) tast.Stmt {
	switch st := s.(type) {
	case *ast.EmptyStmt:
		return &tast.EmptyStmt{StmtBase: tast.StmtBase{Typ: types.T(types.Void)}}

	case *ast.BlockStmt:
		blk := c.checkBlock(st.Block, scope, retType)
		return &tast.BlockStmt{StmtBase: tast.StmtBase{Typ: blk.Typ}, Block: blk}

	case *ast.DeclStmt:
		declType := astTypeToType(st.Type)
		out := &tast.DeclStmt{StmtBase: tast.StmtBase{Typ: types.T(types.Void)}, Type: declType}
		for _, item := range st.Items {
			var init tast.Expr
			if item.Init != nil {
				init = c.checkExpr(item.Init, scope)
				if !types.IsAssignable(c.classes, init.Type(), declType) {
					c.errs.Add(cerrors.NewTypeError(loc(item.Init.Position()), declType, init.Type()))
				}
			}
			if !scope.Declare(item.Name, declType) {
				c.errs.Add(cerrors.New(cerrors.EnvErrorKind, loc(st.Pos), "redeclaration of %q in the same block", item.Name))
			}
			out.Items = append(out.Items, tast.DeclItem{Name: item.Name, Init: init})
		}
		return out

	case *ast.AssignStmt:
		target := c.checkRef(st.Target, scope)
		value := c.checkExpr(st.Value, scope)
		if !types.IsAssignable(c.classes, value.Type(), target.Type()) {
			c.errs.Add(cerrors.NewTypeError(loc(st.Value.Position()), target.Type(), value.Type()))
		}
		return &tast.AssignStmt{StmtBase: tast.StmtBase{Typ: types.T(types.Void)}, Target: target, Value: value}

	case *ast.IncDecStmt:
		target := c.checkRef(st.Target, scope)
		if !target.Type().Equal(types.T(types.Int)) {
			c.errs.Add(cerrors.NewTypeError(loc(st.Pos), types.T(types.Int), target.Type()))
		}
		return &tast.IncDecStmt{StmtBase: tast.StmtBase{Typ: types.T(types.Void)}, Target: target, Inc: st.Inc}

	case *ast.ReturnStmt:
		if st.Value == nil {
			return &tast.ReturnStmt{StmtBase: tast.StmtBase{Typ: types.T(types.Void)}}
		}
		v := c.checkExpr(st.Value, scope)
		return &tast.ReturnStmt{StmtBase: tast.StmtBase{Typ: v.Type()}, Value: v}

	case *ast.IfStmt:
		cond := c.checkExpr(st.Cond, scope)
		if !cond.Type().Equal(types.T(types.Bool)) {
			c.errs.Add(cerrors.NewTypeError(loc(st.Cond.Position()), types.T(types.Bool), cond.Type()))
		}
		then := c.checkStmt(st.Then, scope, retType)
		if st.Else == nil {
			return &tast.IfStmt{StmtBase: tast.StmtBase{Typ: types.T(types.Void)}, Cond: cond, Then: then}
		}
		els := c.checkStmt(st.Else, scope, retType)
		exitType, ok := types.LCA(c.classes, then.ExitType(), els.ExitType())
		if !ok {
			c.errs.Add(cerrors.NewTypeError(loc(st.Else.Position()), then.ExitType(), els.ExitType()))
			exitType = types.T(types.Error)
		}
		return &tast.IfStmt{StmtBase: tast.StmtBase{Typ: exitType}, Cond: cond, Then: then, Else: els}

	case *ast.WhileStmt:
		cond := c.checkExpr(st.Cond, scope)
		if !cond.Type().Equal(types.T(types.Bool)) {
			c.errs.Add(cerrors.NewTypeError(loc(st.Cond.Position()), types.T(types.Bool), cond.Type()))
		}
		body := c.checkStmt(st.Body, scope, retType)
		return &tast.WhileStmt{StmtBase: tast.StmtBase{Typ: types.T(types.Void)}, Cond: cond, Body: body}

	case *ast.ForEachStmt:
		arr := c.checkExpr(st.Array, scope)
		elemType := astTypeToType(st.ElemType)
		if arr.Type().Kind != types.Array || !arr.Type().Item.Equal(elemType) {
			c.errs.Add(cerrors.NewTypeError(loc(st.Array.Position()), types.NewArray(elemType), arr.Type()))
		}
		inner := context.NewScope(scope)
		inner.Declare(st.Var, elemType)
		body := c.checkStmtInScope(st.Body, inner, retType)
		return &tast.ForEachStmt{StmtBase: tast.StmtBase{Typ: types.T(types.Void)}, ElemType: elemType, Var: st.Var, Array: arr, Body: body}

	case *ast.ExprStmt:
		e := c.checkExpr(st.Expr, scope)
		return &tast.ExprStmt{StmtBase: tast.StmtBase{Typ: types.T(types.Void)}, Expr: e}

	default:
		c.errs.Add(cerrors.New(cerrors.SystemErrorKind, loc(s.Position()), "internal: unhandled statement kind %T", s))
		return &tast.EmptyStmt{StmtBase: tast.StmtBase{Typ: types.T(types.Void)}}
	}
}

// checkStmtInScope is checkStmt but reusing an already-opened scope
// (the for-each induction variable's), rather than opening a new nested
// one for a bare (non-Block) body statement.
func (c *checker) checkStmtInScope(s ast.Stmt, scope *context.Scope[types.Type], retType types.Type) tast.Stmt {
	if blk, ok := s.(*ast.BlockStmt); ok {
		out := &tast.Block{Typ: types.T(types.Void)}
		for _, inner := range blk.Block.Stmts {
			ts := c.checkStmt(inner, scope, retType)
			out.Stmts = append(out.Stmts, ts)
			out.Typ = ts.ExitType()
		}
		return &tast.BlockStmt{StmtBase: tast.StmtBase{Typ: out.Typ}, Block: out}
	}
	return c.checkStmt(s, scope, retType)
}
