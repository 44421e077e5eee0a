package check

import (
	"github.com/kowaalczyk/latte-sub000/internal/ast"
	"github.com/kowaalczyk/latte-sub000/internal/context"
	cerrors "github.com/kowaalczyk/latte-sub000/internal/errors"
	"github.com/kowaalczyk/latte-sub000/internal/tast"
	"github.com/kowaalczyk/latte-sub000/internal/types"
)

func (c *checker) checkExpr(e ast.Expr, scope *context.Scope[types.Type]) tast.Expr {
	switch ex := e.(type) {
	case *ast.IntLit:
		return &tast.IntLit{ExprBase: tast.ExprBase{Typ: types.T(types.Int)}, Value: ex.Value}
	case *ast.BoolLit:
		return &tast.BoolLit{ExprBase: tast.ExprBase{Typ: types.T(types.Bool)}, Value: ex.Value}
	case *ast.StringLit:
		return &tast.StringLit{ExprBase: tast.ExprBase{Typ: types.T(types.Str)}, Value: ex.Value}
	case *ast.NullLit:
		return &tast.NullLit{ExprBase: tast.ExprBase{Typ: types.T(types.Null)}}
	case *ast.RefExpr:
		ref := c.checkRef(ex.Ref, scope)
		return &tast.RefExpr{ExprBase: tast.ExprBase{Typ: ref.Type()}, Ref: ref}
	case *ast.UnaryExpr:
		return c.checkUnary(ex, scope)
	case *ast.BinaryExpr:
		return c.checkBinary(ex, scope)
	case *ast.CallExpr:
		return c.checkCall(ex, scope)
	case *ast.NewObjectExpr:
		if !c.classes.Exists(ex.Class) {
			c.errs.Add(cerrors.New(cerrors.EnvErrorKind, loc(ex.Pos), "unknown class %q", ex.Class))
			return &tast.NewObjectExpr{ExprBase: tast.ExprBase{Typ: types.T(types.Error)}, Class: ex.Class}
		}
		return &tast.NewObjectExpr{ExprBase: tast.ExprBase{Typ: types.NewClass(ex.Class)}, Class: ex.Class}
	case *ast.NewArrayExpr:
		size := c.checkExpr(ex.Size, scope)
		if !size.Type().Equal(types.T(types.Int)) {
			c.errs.Add(cerrors.NewTypeError(loc(ex.Size.Position()), types.T(types.Int), size.Type()))
		}
		elem := astTypeToType(ex.ElemType)
		return &tast.NewArrayExpr{ExprBase: tast.ExprBase{Typ: types.NewArray(elem)}, ElemType: elem, Size: size}
	case *ast.CastNullExpr:
		t := astTypeToType(ex.Type)
		if t.Kind == types.Class && !c.classes.Exists(t.ClassName) {
			c.errs.Add(cerrors.New(cerrors.EnvErrorKind, loc(ex.Pos), "unknown class %q", t.ClassName))
		} else if t.Kind != types.Class && t.Kind != types.Array {
			c.errs.Add(cerrors.New(cerrors.ArgumentErrorKind, loc(ex.Pos), "(T)null requires a class or array type, got %s", t))
		}
		return &tast.CastNullExpr{ExprBase: tast.ExprBase{Typ: t}}
	default:
		c.errs.Add(cerrors.New(cerrors.SystemErrorKind, loc(e.Position()), "internal: unhandled expression kind %T", e))
		return &tast.IntLit{ExprBase: tast.ExprBase{Typ: types.T(types.Error)}}
	}
}

func (c *checker) checkUnary(ex *ast.UnaryExpr, scope *context.Scope[types.Type]) tast.Expr {
	arg := c.checkExpr(ex.Arg, scope)
	switch ex.Op {
	case ast.UnaryNeg:
		if !arg.Type().Equal(types.T(types.Int)) {
			c.errs.Add(cerrors.New(cerrors.ArgumentErrorKind, loc(ex.Arg.Position()), "unary - requires int, got %s", arg.Type()))
		}
		return &tast.UnaryExpr{ExprBase: tast.ExprBase{Typ: types.T(types.Int)}, Op: tast.UnaryNeg, Arg: arg}
	default:
		if !arg.Type().Equal(types.T(types.Bool)) {
			c.errs.Add(cerrors.New(cerrors.ArgumentErrorKind, loc(ex.Arg.Position()), "unary ! requires boolean, got %s", arg.Type()))
		}
		return &tast.UnaryExpr{ExprBase: tast.ExprBase{Typ: types.T(types.Bool)}, Op: tast.UnaryNot, Arg: arg}
	}
}

var astToTastBinOp = map[ast.BinOp]tast.BinOp{
	ast.BinAdd: tast.BinAdd, ast.BinSub: tast.BinSub, ast.BinMul: tast.BinMul,
	ast.BinDiv: tast.BinDiv, ast.BinMod: tast.BinMod,
	ast.BinLt: tast.BinLt, ast.BinLe: tast.BinLe, ast.BinGt: tast.BinGt, ast.BinGe: tast.BinGe,
	ast.BinEq: tast.BinEq, ast.BinNe: tast.BinNe, ast.BinAnd: tast.BinAnd, ast.BinOr: tast.BinOr,
}

func (c *checker) checkBinary(ex *ast.BinaryExpr, scope *context.Scope[types.Type]) tast.Expr {
	l := c.checkExpr(ex.Left, scope)
	r := c.checkExpr(ex.Right, scope)
	op := astToTastBinOp[ex.Op]
	mkErr := func(expected types.Type) {
		c.errs.Add(cerrors.NewTypeError(loc(ex.Right.Position()), expected, r.Type()))
	}

	switch ex.Op {
	case ast.BinAdd:
		if l.Type().Equal(types.T(types.Int)) {
			if !r.Type().Equal(types.T(types.Int)) {
				mkErr(types.T(types.Int))
			}
			return &tast.BinaryExpr{ExprBase: tast.ExprBase{Typ: types.T(types.Int)}, Op: op, Left: l, Right: r}
		}
		if l.Type().Equal(types.T(types.Str)) {
			if !r.Type().Equal(types.T(types.Str)) {
				mkErr(types.T(types.Str))
			}
			return &tast.BinaryExpr{ExprBase: tast.ExprBase{Typ: types.T(types.Str)}, Op: op, Left: l, Right: r}
		}
		c.errs.Add(cerrors.New(cerrors.ArgumentErrorKind, loc(ex.Left.Position()), "+ requires int or string operands, got %s", l.Type()))
		return &tast.BinaryExpr{ExprBase: tast.ExprBase{Typ: types.T(types.Error)}, Op: op, Left: l, Right: r}
	case ast.BinSub, ast.BinMul, ast.BinDiv, ast.BinMod:
		if !l.Type().Equal(types.T(types.Int)) {
			c.errs.Add(cerrors.New(cerrors.ArgumentErrorKind, loc(ex.Left.Position()), "arithmetic requires int, got %s", l.Type()))
		}
		if !r.Type().Equal(types.T(types.Int)) {
			mkErr(types.T(types.Int))
		}
		return &tast.BinaryExpr{ExprBase: tast.ExprBase{Typ: types.T(types.Int)}, Op: op, Left: l, Right: r}
	case ast.BinLt, ast.BinLe, ast.BinGt, ast.BinGe:
		if !l.Type().Equal(types.T(types.Int)) {
			c.errs.Add(cerrors.New(cerrors.ArgumentErrorKind, loc(ex.Left.Position()), "relational comparison requires int, got %s", l.Type()))
		}
		if !r.Type().Equal(types.T(types.Int)) {
			mkErr(types.T(types.Int))
		}
		return &tast.BinaryExpr{ExprBase: tast.ExprBase{Typ: types.T(types.Bool)}, Op: op, Left: l, Right: r}
	case ast.BinEq, ast.BinNe:
		if !l.Type().Equal(r.Type()) {
			mkErr(l.Type())
		}
		return &tast.BinaryExpr{ExprBase: tast.ExprBase{Typ: types.T(types.Bool)}, Op: op, Left: l, Right: r}
	default: // BinAnd, BinOr
		if !l.Type().Equal(types.T(types.Bool)) {
			c.errs.Add(cerrors.New(cerrors.ArgumentErrorKind, loc(ex.Left.Position()), "logical operator requires boolean, got %s", l.Type()))
		}
		if !r.Type().Equal(types.T(types.Bool)) {
			mkErr(types.T(types.Bool))
		}
		return &tast.BinaryExpr{ExprBase: tast.ExprBase{Typ: types.T(types.Bool)}, Op: op, Left: l, Right: r}
	}
}

func (c *checker) checkCall(ex *ast.CallExpr, scope *context.Scope[types.Type]) tast.Expr {
	args := make([]tast.Expr, len(ex.Args))
	for i, a := range ex.Args {
		args[i] = c.checkExpr(a, scope)
	}

	var sig types.Type
	var params []ast.Param
	owner := ""
	if bsig, ok := builtinSigs[ex.Func]; ok {
		sig = bsig
	} else if fn, ok := c.funcs[ex.Func]; ok {
		sig = c.funcSigs[ex.Func]
		params = fn.Params
	} else if c.curClass != "" {
		if declClass, msig, mparams, ok := c.classes.lookupMethod(c.curClass, ex.Func); ok {
			sig, params, owner = msig, mparams, declClass
		}
	}

	if sig.Kind == types.Invalid {
		c.errs.Add(cerrors.New(cerrors.EnvErrorKind, loc(ex.Pos), "call to undefined function %q", ex.Func))
		return &tast.CallExpr{ExprBase: tast.ExprBase{Typ: types.T(types.Error)}, Func: ex.Func, Args: args}
	}

	if len(sig.ArgTypes) != len(args) {
		c.errs.Add(cerrors.New(cerrors.ArgumentErrorKind, loc(ex.Pos), "%q expects %d argument(s), got %d", ex.Func, len(sig.ArgTypes), len(args)))
	} else {
		for i, a := range args {
			if !types.IsAssignable(c.classes, a.Type(), sig.ArgTypes[i]) {
				argPos := ex.Args[i].Position()
				c.errs.Add(cerrors.NewTypeError(loc(argPos), sig.ArgTypes[i], a.Type()))
			}
		}
	}
	_ = params
	return &tast.CallExpr{ExprBase: tast.ExprBase{Typ: *sig.Ret}, Func: ex.Func, Args: args, OwnerClass: owner}
}

// selfIdentExpr synthesizes the implicit `self` reference used when a
// TypedObject is produced from a bare Ident or ObjectSelf rewrite.
func selfIdentExpr(cls string) tast.Expr {
	t := types.NewClass(cls)
	return &tast.RefExpr{ExprBase: tast.ExprBase{Typ: t}, Ref: &tast.Ident{RefBase: tast.RefBase{Typ: t}, Name: "self"}}
}

func (c *checker) checkRef(r ast.Ref, scope *context.Scope[types.Type]) tast.Ref {
	switch rf := r.(type) {
	case *ast.Ident:
		if t, ok := scope.Lookup(rf.Name); ok {
			return &tast.Ident{RefBase: tast.RefBase{Typ: t}, Name: rf.Name}
		}
		if c.curClass != "" {
			if declClass, ft, ok := c.classes.lookupField(c.curClass, rf.Name); ok {
				return &tast.TypedObject{RefBase: tast.RefBase{Typ: ft}, Obj: selfIdentExpr(c.curClass), Class: declClass, Field: rf.Name}
			}
		}
		c.errs.Add(cerrors.New(cerrors.EnvErrorKind, loc(rf.Pos), "undefined name %q", rf.Name))
		return &tast.Ident{RefBase: tast.RefBase{Typ: types.T(types.Error)}, Name: rf.Name}

	case *ast.ObjectSelf:
		if c.curClass == "" {
			c.errs.Add(cerrors.New(cerrors.EnvErrorKind, loc(rf.Pos), "self used outside a method"))
			return &tast.TypedObject{RefBase: tast.RefBase{Typ: types.T(types.Error)}, Field: rf.Field}
		}
		declClass, ft, ok := c.classes.lookupField(c.curClass, rf.Field)
		if !ok {
			c.errs.Add(cerrors.New(cerrors.EnvErrorKind, loc(rf.Pos), "class %q has no field %q", c.curClass, rf.Field))
			return &tast.TypedObject{RefBase: tast.RefBase{Typ: types.T(types.Error)}, Obj: selfIdentExpr(c.curClass), Field: rf.Field}
		}
		return &tast.TypedObject{RefBase: tast.RefBase{Typ: ft}, Obj: selfIdentExpr(c.curClass), Class: declClass, Field: rf.Field}

	case *ast.Object:
		obj := c.checkExpr(rf.Obj, scope)
		if obj.Type().Kind == types.Array && rf.Field == "length" {
			return &tast.ArrayLen{RefBase: tast.RefBase{Typ: types.T(types.Int)}, Arr: obj}
		}
		if obj.Type().Kind == types.Class {
			declClass, ft, ok := c.classes.lookupField(obj.Type().ClassName, rf.Field)
			if !ok {
				c.errs.Add(cerrors.New(cerrors.EnvErrorKind, loc(rf.Pos), "class %q has no field %q", obj.Type().ClassName, rf.Field))
				return &tast.TypedObject{RefBase: tast.RefBase{Typ: types.T(types.Error)}, Obj: obj, Field: rf.Field}
			}
			return &tast.TypedObject{RefBase: tast.RefBase{Typ: ft}, Obj: obj, Class: declClass, Field: rf.Field}
		}
		c.errs.Add(cerrors.NewTypeError(loc(rf.Pos), types.T(types.Object), obj.Type()))
		return &tast.TypedObject{RefBase: tast.RefBase{Typ: types.T(types.Error)}, Obj: obj, Field: rf.Field}

	case *ast.ArrayRef:
		arr := c.checkExpr(rf.Arr, scope)
		idx := c.checkExpr(rf.Index, scope)
		if !idx.Type().Equal(types.T(types.Int)) {
			c.errs.Add(cerrors.NewTypeError(loc(rf.Index.Position()), types.T(types.Int), idx.Type()))
		}
		if arr.Type().Kind != types.Array {
			c.errs.Add(cerrors.NewTypeError(loc(rf.Pos), types.T(types.Any), arr.Type()))
			return &tast.Array{RefBase: tast.RefBase{Typ: types.T(types.Error)}, Arr: arr, Index: idx}
		}
		return &tast.Array{RefBase: tast.RefBase{Typ: *arr.Type().Item}, Arr: arr, Index: idx}

	default:
		c.errs.Add(cerrors.New(cerrors.SystemErrorKind, loc(r.Position()), "internal: unhandled reference kind %T", r))
		return &tast.Ident{RefBase: tast.RefBase{Typ: types.T(types.Error)}, Name: "?"}
	}
}
