package irbuild

import (
	stdcontext "context"

	"golang.org/x/sync/errgroup"

	"github.com/kowaalczyk/latte-sub000/internal/context"
	"github.com/kowaalczyk/latte-sub000/internal/ir"
	"github.com/kowaalczyk/latte-sub000/internal/tast"
	"github.com/kowaalczyk/latte-sub000/internal/types"
)

// BuildModule lowers a fully type-checked program into a complete
// ir.Module, per spec.md §4.5: struct layouts are registered before any
// function body is lowered, each class gets a synthesized __init__
// constructor, then every top-level function and method is lowered in
// turn. The GlobalContext returned alongside carries the struct layouts
// internal/emit needs to declare `%struct.C` types and size constants.
func BuildModule(prog *tast.Program) (*ir.Module, *context.GlobalContext) {
	gctx := context.NewGlobalContext()
	registerClassLayouts(gctx, prog.Classes)
	registerFuncSigs(gctx, prog)

	mod := &ir.Module{}
	for _, cls := range prog.Classes {
		mod.Functions = append(mod.Functions, buildClassInit(gctx, cls))
	}
	for _, fn := range prog.Functions {
		mod.Functions = append(mod.Functions, LowerFunction(gctx, fn))
	}
	for _, cls := range prog.Classes {
		for _, m := range cls.Methods {
			mod.Functions = append(mod.Functions, LowerFunction(gctx, m))
		}
	}
	mod.Strings = stringDecls(gctx)
	return mod, gctx
}

// registerClassLayouts flattens each class's fields (parent's, in
// declared order, then its own) and registers the parent-link table, per
// §4.5 "classes are topologically sorted by parent relation ... a struct
// declaration is built by concatenating the parent's fields with the
// class's own fields". Recursing into the parent lazily avoids needing an
// explicit topological sort pass; the checker already rejects cycles
// before lowering ever runs.
func registerClassLayouts(gctx *context.GlobalContext, classes []*tast.ClassDecl) {
	byName := make(map[string]*tast.ClassDecl, len(classes))
	for _, c := range classes {
		byName[c.Name] = c
	}

	var visit func(c *tast.ClassDecl) []context.StructField
	visit = func(c *tast.ClassDecl) []context.StructField {
		if lay, ok := gctx.Layout(c.Name); ok {
			return lay.Fields
		}
		var fields []context.StructField
		if c.Parent != "" {
			gctx.SetParent(c.Name, c.Parent)
			if parent, ok := byName[c.Parent]; ok {
				fields = append(fields, visit(parent)...)
			}
		}
		for _, f := range c.Fields {
			fields = append(fields, context.StructField{Name: f.Name, Type: f.Type})
		}
		lay := &context.StructLayout{Name: c.Name, Fields: fields, SizeSymbol: "@size." + c.Name}
		gctx.RegisterLayout(lay)
		return fields
	}
	for _, c := range classes {
		visit(c)
	}
}

// registerFuncSigs records every top-level function's and method's
// declared parameter/return types under its mangled symbol name, before
// any body is lowered, so lowerCall (expr.go) can widen a subtype
// argument up to the callee's declared parameter type (§3 "Subtyping").
// ReturnStmt lowering (stmt.go) widens against Lowerer.retType instead.
func registerFuncSigs(gctx *context.GlobalContext, prog *tast.Program) {
	for _, fn := range prog.Functions {
		gctx.RegisterFuncSig(context.FuncMangledName(fn.Name), funcSig(fn))
	}
	for _, cls := range prog.Classes {
		for _, m := range cls.Methods {
			gctx.RegisterFuncSig(MethodMangledName(cls.Name, m.Name), funcSig(m))
		}
	}
}

func funcSig(fn *tast.FuncDecl) context.FuncSig {
	params := make([]types.Type, len(fn.Params))
	for i, p := range fn.Params {
		params[i] = p.Type
	}
	return context.FuncSig{Params: params, Ret: fn.Ret}
}

// buildClassInit synthesizes `__init__C` (§4.5): allocate sizeof(C) raw
// bytes through the same generic byte allocator `new T[n]` uses
// (§4.7's `__builtin_method__array__init__`), bitcast to the class's
// struct type, store each field's typed zero value (§4.8), and return the
// object pointer.
func buildClassInit(gctx *context.GlobalContext, cls *tast.ClassDecl) *ir.FunctionDef {
	lay, _ := gctx.Layout(cls.Name)
	objType := types.NewClass(cls.Name)

	l := newLowerer(gctx)
	l.scope = context.NewScope[ir.Entity](nil)
	l.startBlock("entry")

	rawReg := l.newReg(types.T(types.Str))
	l.cur.Emit(ir.Instruction{Kind: ir.Call, Result: &rawReg, Callee: "__builtin_method__array__init__",
		Args: []ir.Entity{ir.GlobalConstInt{Name: lay.SizeSymbol}}})

	objReg := l.newReg(objType)
	l.cur.Emit(ir.Instruction{Kind: ir.BitCast, Result: &objReg, ElemType: objType, Operand: rawReg})

	for i, f := range lay.Fields {
		zero := l.zeroValue(f.Type)
		ptrReg := l.newReg(types.NewReference(f.Type))
		l.cur.Emit(ir.Instruction{Kind: ir.GetStructElementPtr, Result: &ptrReg, ElemType: objType, Base: objReg, FieldIndex: i})
		l.cur.Emit(ir.Instruction{Kind: ir.Store, Dest: ptrReg, Operand: zero})
	}

	l.cur.Emit(ir.Instruction{Kind: ir.RetVal, RetValue: objReg})
	l.finishBlock()

	return &ir.FunctionDef{Name: context.ClassInitName(cls.Name), Ret: objType, Blocks: l.blocks}
}

// BuildModuleParallel is BuildModule's concurrent counterpart (§5): class
// layouts are registered serially first (every GEP/size-constant decision
// a function body lowers depends on them), then one goroutine per
// function/method/constructor fans out via errgroup, writing into a
// pre-sized slice indexed by declaration order so functions keep their
// declaration order regardless of completion order. internal/context.GlobalContext's
// string pool and label-suffix counters are mutex-guarded for exactly this
// caller; goroutines draw from them in scheduling order, so with more than
// one function the `.str.N` numbering and label suffixes can differ from
// BuildModule's and from one run to the next.
func BuildModuleParallel(ctx stdcontext.Context, prog *tast.Program) (*ir.Module, *context.GlobalContext, error) {
	gctx := context.NewGlobalContext()
	registerClassLayouts(gctx, prog.Classes)
	registerFuncSigs(gctx, prog)

	total := len(prog.Classes) + len(prog.Functions)
	for _, c := range prog.Classes {
		total += len(c.Methods)
	}
	results := make([]*ir.FunctionDef, total)

	g, _ := errgroup.WithContext(ctx)
	idx := 0
	for _, cls := range prog.Classes {
		i, c := idx, cls
		idx++
		g.Go(func() error {
			results[i] = buildClassInit(gctx, c)
			return nil
		})
	}
	for _, fn := range prog.Functions {
		i, f := idx, fn
		idx++
		g.Go(func() error {
			results[i] = LowerFunction(gctx, f)
			return nil
		})
	}
	for _, cls := range prog.Classes {
		for _, m := range cls.Methods {
			i, method := idx, m
			idx++
			g.Go(func() error {
				results[i] = LowerFunction(gctx, method)
				return nil
			})
		}
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	mod := &ir.Module{Functions: results, Strings: stringDecls(gctx)}
	return mod, gctx, nil
}

func stringDecls(gctx *context.GlobalContext) []ir.StringDecl {
	entries := gctx.Strings()
	out := make([]ir.StringDecl, len(entries))
	for i, e := range entries {
		out[i] = ir.StringDecl{Name: e.Const.Name, Literal: e.Literal, Len: e.Const.Len}
	}
	return out
}
