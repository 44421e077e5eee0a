package irbuild

import (
	"github.com/kowaalczyk/latte-sub000/internal/context"
	"github.com/kowaalczyk/latte-sub000/internal/ir"
	"github.com/kowaalczyk/latte-sub000/internal/tast"
	"github.com/kowaalczyk/latte-sub000/internal/types"
)

// arrayLayout returns (or lazily registers) the two-field struct layout
// `{length: Int, data: Ref<T>}` for array-of-item, per §4.5 "Each array
// element type T gets a synthesized struct ... registered on first use".
func (l *Lowerer) arrayLayout(item types.Type) *context.StructLayout {
	name := context.ArrayLayoutName(item)
	if lay, ok := l.gctx.Layout(name); ok {
		return lay
	}
	lay := &context.StructLayout{
		Name: name,
		Fields: []context.StructField{
			{Name: "length", Type: types.T(types.Int)},
			{Name: "data", Type: types.NewReference(item)},
		},
		SizeSymbol: "@size." + name,
	}
	l.gctx.RegisterLayout(lay)
	return lay
}

func (l *Lowerer) newReg(t types.Type) ir.Register {
	return ir.Register{N: l.fctx.NewRegister(), Typ: t}
}

// coerceTo inserts a widening BitCast when val's own lowered type differs
// from target, e.g. a subclass value (dynamically produced by `new B`)
// being bound to a supertype-declared location, parameter, or return slot
// (§3 "Subtyping" -- the checker accepts the assignment via subtype
// widening, but the lowered SSA value still carries its own, more derived,
// concrete type until something bitcasts it up). Only classes participate
// in Latte's subtype hierarchy, so any other mismatch is left alone.
func (l *Lowerer) coerceTo(val ir.Entity, target types.Type) ir.Entity {
	if target.Kind != types.Class || val.Type().Equal(target) {
		return val
	}
	reg := l.newReg(target)
	l.cur.Emit(ir.Instruction{Kind: ir.BitCast, Result: &reg, ElemType: target, Operand: val})
	return reg
}

// zeroValue produces the zero entity for a freshly declared variable or
// object field of type t without an initializer (§4.8 "Decl without
// initializer").
func (l *Lowerer) zeroValue(t types.Type) ir.Entity {
	switch t.Kind {
	case types.Int:
		return ir.IntConst{Value: 0, UUID: l.fctx.NewUUID()}
	case types.Bool:
		return ir.BoolConst{Value: false, UUID: l.fctx.NewUUID()}
	case types.Str:
		reg := l.newReg(types.T(types.Str))
		l.cur.Emit(ir.Instruction{Kind: ir.Call, Result: &reg, Callee: "__builtin_method__str__init__",
			Args: []ir.Entity{ir.IntConst{Value: 0, UUID: l.fctx.NewUUID()}}})
		return reg
	case types.Class:
		reg := l.newReg(t)
		l.cur.Emit(ir.Instruction{Kind: ir.Call, Result: &reg, Callee: context.ClassInitName(t.ClassName)})
		return reg
	case types.Array:
		return ir.Null{UUID: l.fctx.NewUUID(), Typ: t}
	default:
		return ir.Null{UUID: l.fctx.NewUUID(), Typ: t}
	}
}

func (l *Lowerer) lowerExpr(e tast.Expr) ir.Entity {
	switch ex := e.(type) {
	case *tast.IntLit:
		return ir.IntConst{Value: ex.Value, UUID: l.fctx.NewUUID()}
	case *tast.BoolLit:
		return ir.BoolConst{Value: ex.Value, UUID: l.fctx.NewUUID()}
	case *tast.StringLit:
		c := l.gctx.InternString(ex.Value)
		reg := l.newReg(types.T(types.Str))
		l.cur.Emit(ir.Instruction{Kind: ir.LoadConst, Result: &reg, ConstName: c.Name})
		return reg
	case *tast.NullLit:
		return ir.Null{UUID: l.fctx.NewUUID(), Typ: ex.Typ}
	case *tast.RefExpr:
		return l.lowerRef(ex.Ref)
	case *tast.UnaryExpr:
		return l.lowerUnary(ex)
	case *tast.BinaryExpr:
		return l.lowerBinary(ex)
	case *tast.CallExpr:
		return l.lowerCall(ex)
	case *tast.NewObjectExpr:
		reg := l.newReg(ex.Typ)
		l.cur.Emit(ir.Instruction{Kind: ir.Call, Result: &reg, Callee: context.ClassInitName(ex.Class)})
		return reg
	case *tast.NewArrayExpr:
		return l.lowerNewArray(ex)
	case *tast.CastNullExpr:
		reg := l.newReg(ex.Typ)
		l.cur.Emit(ir.Instruction{Kind: ir.BitCast, Result: &reg, ElemType: ex.Typ, Operand: ir.Null{UUID: l.fctx.NewUUID(), Typ: types.T(types.Null)}})
		return reg
	default:
		return ir.IntConst{Value: 0, UUID: l.fctx.NewUUID()}
	}
}

func (l *Lowerer) lowerUnary(ex *tast.UnaryExpr) ir.Entity {
	arg := l.lowerExpr(ex.Arg)
	reg := l.newReg(ex.Typ)
	op := ir.OpNeg
	if ex.Op == tast.UnaryNot {
		op = ir.OpNot
	}
	l.cur.Emit(ir.Instruction{Kind: ir.UnaryOp, Result: &reg, UnaryOp: op, Operand: arg})
	return reg
}

var tastToIRBinOp = map[tast.BinOp]ir.BinaryOperator{
	tast.BinAdd: ir.OpAdd, tast.BinSub: ir.OpSub, tast.BinMul: ir.OpMul, tast.BinDiv: ir.OpDiv, tast.BinMod: ir.OpMod,
	tast.BinLt: ir.OpLt, tast.BinLe: ir.OpLe, tast.BinGt: ir.OpGt, tast.BinGe: ir.OpGe,
	tast.BinEq: ir.OpEq, tast.BinNe: ir.OpNe,
}

func (l *Lowerer) lowerBinary(ex *tast.BinaryExpr) ir.Entity {
	switch ex.Op {
	case tast.BinAnd, tast.BinOr:
		return l.lowerLazyBool(ex)
	case tast.BinAdd:
		if ex.Left.Type().Equal(types.T(types.Str)) {
			lhs := l.lowerExpr(ex.Left)
			rhs := l.lowerExpr(ex.Right)
			reg := l.newReg(types.T(types.Str))
			l.cur.Emit(ir.Instruction{Kind: ir.Call, Result: &reg, Callee: "__builtin_method__str__concat__", Args: []ir.Entity{lhs, rhs}})
			return reg
		}
	}
	lhs := l.lowerExpr(ex.Left)
	rhs := l.lowerExpr(ex.Right)
	reg := l.newReg(ex.Typ)
	l.cur.Emit(ir.Instruction{Kind: ir.BinaryOp, Result: &reg, BinaryOp: tastToIRBinOp[ex.Op], Lhs: lhs, Rhs: rhs})
	return reg
}

// lowerLazyBool implements §4.7's phi-based short-circuit evaluation: no
// allocas, the merged value comes from a phi over the short-circuit edge
// (left side) and the continuation edge (right side).
func (l *Lowerer) lowerLazyBool(ex *tast.BinaryExpr) ir.Entity {
	shortCircuitOnTrue := ex.Op == tast.BinOr

	left := l.lowerExpr(ex.Left)
	entryLabel := l.cur.Label()

	contLabel := l.label("__lazy_cont__")
	endLabel := l.label("__lazy_end__")

	trueLabel, falseLabel := endLabel, contLabel
	if !shortCircuitOnTrue {
		trueLabel, falseLabel = contLabel, endLabel
	}
	l.cur.Emit(ir.Instruction{Kind: ir.JumpCond, Cond: left, TrueLabel: trueLabel, FalseLabel: falseLabel})
	l.finishBlock()

	l.startBlock(contLabel)
	right := l.lowerExpr(ex.Right)
	contExitLabel := l.cur.Label()
	l.cur.Emit(ir.Instruction{Kind: ir.Jump, TargetLabel: endLabel})
	l.finishBlock()

	l.startBlock(endLabel)
	reg := l.newReg(types.T(types.Bool))
	l.cur.Emit(ir.Instruction{Kind: ir.Phi, Result: &reg, Incoming: []ir.PhiIncoming{
		{Value: left, Label: entryLabel},
		{Value: right, Label: contExitLabel},
	}})
	return reg
}

func (l *Lowerer) lowerCall(ex *tast.CallExpr) ir.Entity {
	var args []ir.Entity
	callee := ex.Func
	if ex.OwnerClass != "" {
		self, _ := l.scope.Lookup("self")
		args = append(args, self)
		callee = MethodMangledName(ex.OwnerClass, ex.Func)
	} else if _, builtin := builtinNames[ex.Func]; !builtin {
		callee = context.FuncMangledName(ex.Func)
	}
	sig, hasSig := l.gctx.FuncSig(callee)
	for i, a := range ex.Args {
		val := l.lowerExpr(a)
		if hasSig && i < len(sig.Params) {
			val = l.coerceTo(val, sig.Params[i])
		}
		args = append(args, val)
	}
	if ex.Typ.Kind == types.Void {
		l.cur.Emit(ir.Instruction{Kind: ir.Call, Callee: callee, Args: args})
		return ir.IntConst{Value: 0, UUID: l.fctx.NewUUID()}
	}
	reg := l.newReg(ex.Typ)
	l.cur.Emit(ir.Instruction{Kind: ir.Call, Result: &reg, Callee: callee, Args: args})
	return reg
}

var builtinNames = map[string]bool{"printInt": true, "printString": true, "error": true, "readInt": true, "readString": true}

// lowerNewArray implements §4.7's array allocation sequence: raw bytes ->
// struct bytes -> populate length/data fields.
func (l *Lowerer) lowerNewArray(ex *tast.NewArrayExpr) ir.Entity {
	n := l.lowerExpr(ex.Size)
	elemSize := elementByteSize(ex.ElemType)

	bytesReg := l.newReg(types.T(types.Int))
	l.cur.Emit(ir.Instruction{Kind: ir.BinaryOp, Result: &bytesReg, BinaryOp: ir.OpMul, Lhs: n, Rhs: ir.IntConst{Value: elemSize, UUID: l.fctx.NewUUID()}})

	rawReg := l.newReg(types.T(types.Str))
	l.cur.Emit(ir.Instruction{Kind: ir.Call, Result: &rawReg, Callee: "__builtin_method__array__init__", Args: []ir.Entity{bytesReg}})

	dataReg := l.newReg(types.NewReference(ex.ElemType))
	l.cur.Emit(ir.Instruction{Kind: ir.BitCast, Result: &dataReg, ElemType: types.NewReference(ex.ElemType), Operand: rawReg})

	lay := l.arrayLayout(ex.ElemType)
	structBytes := l.newReg(types.T(types.Int))
	l.cur.Emit(ir.Instruction{Kind: ir.Call, Result: &structBytes, Callee: "__builtin_method__array__init__",
		Args: []ir.Entity{ir.GlobalConstInt{Name: lay.SizeSymbol}}})

	arrReg := l.newReg(types.NewClass(lay.Name))
	l.cur.Emit(ir.Instruction{Kind: ir.BitCast, Result: &arrReg, ElemType: types.NewClass(lay.Name), Operand: structBytes})

	lenPtr := l.newReg(types.NewReference(types.T(types.Int)))
	l.cur.Emit(ir.Instruction{Kind: ir.GetStructElementPtr, Result: &lenPtr, ElemType: types.NewClass(lay.Name), Base: arrReg, FieldIndex: 0})
	l.cur.Emit(ir.Instruction{Kind: ir.Store, Dest: lenPtr, Operand: n})

	dataPtr := l.newReg(types.NewReference(types.NewReference(ex.ElemType)))
	l.cur.Emit(ir.Instruction{Kind: ir.GetStructElementPtr, Result: &dataPtr, ElemType: types.NewClass(lay.Name), Base: arrReg, FieldIndex: 1})
	l.cur.Emit(ir.Instruction{Kind: ir.Store, Dest: dataPtr, Operand: dataReg})

	return arrReg
}

// elementByteSize returns the per-element size used to size an array's
// raw data buffer. Values mirror the runtime's expected LLVM type widths
// (§4.9): Int/Bool -> 4/1 widened to register-friendly units, Str and
// class/array references -> pointer width. The exact constant is supplied
// by the runtime at link time for classes via GlobalConstInt elsewhere;
// here we only need the primitive cases actually reachable from `new T[n]`.
func elementByteSize(t types.Type) int32 {
	switch t.Kind {
	case types.Int:
		return 4
	case types.Bool:
		return 1
	default:
		return 8
	}
}

func (l *Lowerer) lowerRef(r tast.Ref) ir.Entity {
	switch rf := r.(type) {
	case *tast.Ident:
		ent, _ := l.scope.Lookup(rf.Name)
		return ent
	case *tast.TypedObject:
		obj := l.lowerExpr(rf.Obj)
		idx, lay := l.fieldIndex(rf.Obj.Type(), rf.Field)
		ptrReg := l.newReg(types.NewReference(rf.Typ))
		l.cur.Emit(ir.Instruction{Kind: ir.GetStructElementPtr, Result: &ptrReg, ElemType: types.NewClass(lay.Name), Base: obj, FieldIndex: idx})
		valReg := l.newReg(rf.Typ)
		l.cur.Emit(ir.Instruction{Kind: ir.Load, Result: &valReg, Operand: ptrReg})
		return valReg
	case *tast.ArrayLen:
		arr := l.lowerExpr(rf.Arr)
		return l.loadArrayLength(arr, *rf.Arr.Type().Item)
	case *tast.Array:
		elemPtr := l.arrayElemPtr(rf, rf.Typ)
		valReg := l.newReg(rf.Typ)
		l.cur.Emit(ir.Instruction{Kind: ir.Load, Result: &valReg, Operand: elemPtr})
		return valReg
	default:
		return ir.IntConst{Value: 0, UUID: l.fctx.NewUUID()}
	}
}

// fieldIndex resolves a field's flattened struct index using the static
// (most-derived) class of the object expression, per spec.md §9's
// resolution of the inherited-field open question.
func (l *Lowerer) fieldIndex(objType types.Type, field string) (int, *context.StructLayout) {
	lay, ok := l.gctx.Layout(objType.ClassName)
	if !ok {
		return 0, &context.StructLayout{}
	}
	idx, ok := lay.FieldIndex(field)
	if !ok {
		return 0, lay
	}
	return idx, lay
}
