// Package emit implements spec.md §4.9: translating a lowered
// internal/ir.Module into LLVM textual IR via github.com/llir/llvm,
// which owns the concrete instruction/type syntax so this package only
// has to decide *which* llir constructs a given ir.Instruction becomes.
// External assembly and linking stay out of scope (handled by
// cmd/latte shelling out to llvm-as/llvm-link).
package emit

import (
	"strings"

	llvmir "github.com/llir/llvm/ir"
	llconstant "github.com/llir/llvm/ir/constant"
	llenum "github.com/llir/llvm/ir/enum"
	lltypes "github.com/llir/llvm/ir/types"
	llvalue "github.com/llir/llvm/ir/value"

	"github.com/kowaalczyk/latte-sub000/internal/context"
	myir "github.com/kowaalczyk/latte-sub000/internal/ir"
	"github.com/kowaalczyk/latte-sub000/internal/types"
)

// runtimeSigs declares every builtin and `__builtin_method__*` symbol
// internal/irbuild's lowering emits calls to, per spec.md §4.5/§4.7; the
// actual definitions live in the external runtime linked in later by
// cmd/latte.
var runtimeSigs = []struct {
	name   string
	ret    lltypes.Type
	params []lltypes.Type
}{
	{"printInt", lltypes.Void, []lltypes.Type{lltypes.I32}},
	{"printString", lltypes.Void, []lltypes.Type{lltypes.NewPointer(lltypes.I8)}},
	{"error", lltypes.Void, nil},
	{"readInt", lltypes.I32, nil},
	{"readString", lltypes.NewPointer(lltypes.I8), nil},
	{"__builtin_method__str__init__", lltypes.NewPointer(lltypes.I8), []lltypes.Type{lltypes.I32}},
	{"__builtin_method__str__concat__", lltypes.NewPointer(lltypes.I8), []lltypes.Type{lltypes.NewPointer(lltypes.I8), lltypes.NewPointer(lltypes.I8)}},
	{"__builtin_method__array__init__", lltypes.NewPointer(lltypes.I8), []lltypes.Type{lltypes.I32}},
}

type emitter struct {
	gctx    *context.GlobalContext
	m       *llvmir.Module
	structs map[string]*lltypes.StructType
	globals map[string]*llvmir.Global
	strs    map[string]*llvmir.Global
	funcs   map[string]*llvmir.Func

	regVals map[int]llvalue.Value
	argVals map[string]llvalue.Value
}

// Emit produces the LLVM textual IR for a fully lowered module.
func Emit(mod *myir.Module, gctx *context.GlobalContext) string {
	e := &emitter{
		gctx:    gctx,
		m:       llvmir.NewModule(),
		structs: map[string]*lltypes.StructType{},
		globals: map[string]*llvmir.Global{},
		strs:    map[string]*llvmir.Global{},
		funcs:   map[string]*llvmir.Func{},
	}
	e.declareStructs()
	e.declareRuntime()
	e.declareStrings(mod.Strings)
	for _, fn := range mod.Functions {
		e.declareFunc(fn)
	}
	for _, fn := range mod.Functions {
		e.defineFunc(fn)
	}
	return e.m.String()
}

func (e *emitter) structType(name string) *lltypes.StructType {
	if st, ok := e.structs[name]; ok {
		return st
	}
	st := lltypes.NewStruct()
	st.TypeName = "struct." + name
	e.structs[name] = st
	e.m.TypeDefs = append(e.m.TypeDefs, st)
	return st
}

// llType maps a Latte type to its LLVM representation. Class and Array
// values are always pointers to a named struct, per §4.5's flattened
// layouts -- never embedded by value -- so struct field types never
// create a definition-order dependency between classes.
func (e *emitter) llType(t types.Type) lltypes.Type {
	switch t.Kind {
	case types.Int:
		return lltypes.I32
	case types.Bool:
		return lltypes.I1
	case types.Void:
		return lltypes.Void
	case types.Str, types.Null:
		return lltypes.NewPointer(lltypes.I8)
	case types.Class:
		return lltypes.NewPointer(e.structType(t.ClassName))
	case types.Array:
		return lltypes.NewPointer(e.structType(context.ArrayLayoutName(*t.Item)))
	case types.Reference:
		return lltypes.NewPointer(e.llType(*t.Item))
	default:
		return lltypes.I32
	}
}

func (e *emitter) declareStructs() {
	for _, lay := range e.gctx.AllLayouts() {
		st := e.structType(lay.Name)
		fields := make([]lltypes.Type, len(lay.Fields))
		for i, f := range lay.Fields {
			fields[i] = e.llType(f.Type)
		}
		st.Fields = fields
	}
}

func (e *emitter) declareRuntime() {
	for _, sig := range runtimeSigs {
		params := make([]*llvmir.Param, len(sig.params))
		for i, p := range sig.params {
			params[i] = llvmir.NewParam("", p)
		}
		e.funcs[sig.name] = e.m.NewFunc(sig.name, sig.ret, params...)
	}
}

// globalInt returns (declaring on first use) the external i32 symbol a
// GlobalConstInt entity names -- e.g. a class's `@size.C` constant,
// bound at link time by the runtime per §4.5.
func (e *emitter) globalInt(name string) *llvmir.Global {
	if g, ok := e.globals[name]; ok {
		return g
	}
	g := e.m.NewGlobal(strings.TrimPrefix(name, "@"), lltypes.I32)
	e.globals[name] = g
	return g
}

func (e *emitter) declareStrings(decls []myir.StringDecl) {
	for _, d := range decls {
		data := llconstant.NewCharArrayFromString(d.Literal + "\x00")
		g := e.m.NewGlobalDef(d.Name, data)
		g.Immutable = true
		e.strs[d.Name] = g
	}
}

func (e *emitter) declareFunc(fn *myir.FunctionDef) {
	params := make([]*llvmir.Param, len(fn.Args))
	for i, a := range fn.Args {
		params[i] = llvmir.NewParam(a.Name, e.llType(a.Typ))
	}
	e.funcs[fn.Name] = e.m.NewFunc(fn.Name, e.llType(fn.Ret), params...)
}

func (e *emitter) defineFunc(fn *myir.FunctionDef) {
	f := e.funcs[fn.Name]
	e.regVals = map[int]llvalue.Value{}
	e.argVals = map[string]llvalue.Value{}
	for i, a := range fn.Args {
		e.argVals[a.Name] = f.Params[i]
	}

	blocks := make(map[string]*llvmir.Block, len(fn.Blocks))
	for _, b := range fn.Blocks {
		blocks[b.Label] = f.NewBlock(b.Label)
	}

	for _, blk := range fn.Blocks {
		lb := blocks[blk.Label]
		for _, instr := range blk.Instr {
			e.emitInstr(lb, blocks, instr)
		}
	}
}

// read resolves an ir.Entity operand to an llir value, emitting a load
// instruction into b when the entity is a runtime-provided global
// constant (the only Entity kind that isn't already directly usable as
// an SSA value or literal constant).
func (e *emitter) read(b *llvmir.Block, ent myir.Entity) llvalue.Value {
	switch x := ent.(type) {
	case myir.IntConst:
		return llconstant.NewInt(lltypes.I32, int64(x.Value))
	case myir.BoolConst:
		if x.Value {
			return llconstant.NewInt(lltypes.I1, 1)
		}
		return llconstant.NewInt(lltypes.I1, 0)
	case myir.Register:
		return e.regVals[x.N]
	case myir.NamedRegister:
		return e.argVals[x.Name]
	case myir.GlobalConstInt:
		return b.NewLoad(lltypes.I32, e.globalInt(x.Name))
	case myir.Null:
		pt, ok := e.llType(x.Typ).(*lltypes.PointerType)
		if !ok {
			pt = lltypes.NewPointer(lltypes.I8)
		}
		return llconstant.NewNull(pt)
	default:
		return llconstant.NewInt(lltypes.I32, 0)
	}
}

func (e *emitter) binOp(b *llvmir.Block, op myir.BinaryOperator, lhs, rhs llvalue.Value) llvalue.Value {
	switch op {
	case myir.OpAdd:
		return b.NewAdd(lhs, rhs)
	case myir.OpSub:
		return b.NewSub(lhs, rhs)
	case myir.OpMul:
		return b.NewMul(lhs, rhs)
	case myir.OpDiv:
		return b.NewSDiv(lhs, rhs)
	case myir.OpMod:
		return b.NewSRem(lhs, rhs)
	case myir.OpLt:
		return b.NewICmp(llenum.IPredSLT, lhs, rhs)
	case myir.OpLe:
		return b.NewICmp(llenum.IPredSLE, lhs, rhs)
	case myir.OpGt:
		return b.NewICmp(llenum.IPredSGT, lhs, rhs)
	case myir.OpGe:
		return b.NewICmp(llenum.IPredSGE, lhs, rhs)
	case myir.OpEq:
		return b.NewICmp(llenum.IPredEQ, lhs, rhs)
	case myir.OpNe:
		return b.NewICmp(llenum.IPredNE, lhs, rhs)
	default:
		return b.NewAdd(lhs, rhs)
	}
}

func (e *emitter) emitInstr(lb *llvmir.Block, blocks map[string]*llvmir.Block, instr myir.Instruction) {
	switch instr.Kind {
	case myir.LoadConst:
		g := e.strs[instr.ConstName]
		zero := llconstant.NewInt(lltypes.I32, 0)
		gep := llconstant.NewGetElementPtr(g.ContentType, g, zero, zero)
		e.regVals[instr.Result.N] = gep

	case myir.BitCast:
		src := e.read(lb, instr.Operand)
		e.regVals[instr.Result.N] = lb.NewBitCast(src, e.llType(instr.ElemType))

	case myir.UnaryOp:
		x := e.read(lb, instr.Operand)
		if instr.UnaryOp == myir.OpNeg {
			e.regVals[instr.Result.N] = lb.NewSub(llconstant.NewInt(lltypes.I32, 0), x)
		} else {
			e.regVals[instr.Result.N] = lb.NewXor(x, llconstant.NewInt(lltypes.I1, 1))
		}

	case myir.BinaryOp:
		lhs := e.read(lb, instr.Lhs)
		rhs := e.read(lb, instr.Rhs)
		e.regVals[instr.Result.N] = e.binOp(lb, instr.BinaryOp, lhs, rhs)

	case myir.Call:
		callee := e.funcs[instr.Callee]
		args := make([]llvalue.Value, len(instr.Args))
		for i, a := range instr.Args {
			args[i] = e.read(lb, a)
		}
		call := lb.NewCall(callee, args...)
		if instr.Result != nil {
			e.regVals[instr.Result.N] = call
		}

	case myir.RetVal:
		lb.NewRet(e.read(lb, instr.RetValue))

	case myir.RetVoid:
		lb.NewRet(nil)

	case myir.Jump:
		lb.NewBr(blocks[instr.TargetLabel])

	case myir.JumpCond:
		lb.NewCondBr(e.read(lb, instr.Cond), blocks[instr.TrueLabel], blocks[instr.FalseLabel])

	case myir.Phi:
		incs := make([]*llvmir.Incoming, len(instr.Incoming))
		for i, in := range instr.Incoming {
			pred := blocks[in.Label]
			incs[i] = llvmir.NewIncoming(e.read(pred, in.Value), pred)
		}
		e.regVals[instr.Result.N] = lb.NewPhi(incs...)

	case myir.GetStructElementPtr:
		base := e.read(lb, instr.Base)
		st := e.structType(instr.ElemType.ClassName)
		idxs := []llvalue.Value{llconstant.NewInt(lltypes.I32, 0), llconstant.NewInt(lltypes.I32, int64(instr.FieldIndex))}
		e.regVals[instr.Result.N] = lb.NewGetElementPtr(st, base, idxs...)

	case myir.GetArrayElementPtr:
		base := e.read(lb, instr.Base)
		idx := e.read(lb, instr.Index)
		e.regVals[instr.Result.N] = lb.NewGetElementPtr(e.llType(instr.ElemType), base, idx)

	case myir.Load:
		ptr := e.read(lb, instr.Operand)
		e.regVals[instr.Result.N] = lb.NewLoad(e.llType(instr.Result.Typ), ptr)

	case myir.Store:
		dst := e.read(lb, instr.Dest)
		src := e.read(lb, instr.Operand)
		lb.NewStore(src, dst)
	}
}
