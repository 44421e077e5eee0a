package irbuild

import (
	"fmt"

	"github.com/kowaalczyk/latte-sub000/internal/context"
	"github.com/kowaalczyk/latte-sub000/internal/ir"
	"github.com/kowaalczyk/latte-sub000/internal/tast"
	"github.com/kowaalczyk/latte-sub000/internal/types"
)

// flatScope builds a single-level scope pre-populated from a snapshot, used
// whenever a branch (if/else arm, loop body, loop cond) must be lowered
// against a fixed set of bindings without mutating the real enclosing
// scope chain in place -- Scope.Rebind walks up to whichever ancestor
// declared a name and mutates it there, so two sibling branches sharing
// the same chain would otherwise clobber each other (§4.6/§4.7).
func flatScope(base map[string]ir.Entity) *context.Scope[ir.Entity] {
	s := context.NewScope[ir.Entity](nil)
	for name, ent := range base {
		s.Declare(name, ent)
	}
	return s
}

func (l *Lowerer) lowerStmt(s tast.Stmt) {
	switch st := s.(type) {
	case *tast.EmptyStmt:
		// nothing to emit

	case *tast.BlockStmt:
		parent := l.scope
		l.scope = context.NewScope[ir.Entity](parent)
		l.lowerBlock(st.Block)
		l.scope = parent

	case *tast.DeclStmt:
		for _, item := range st.Items {
			var val ir.Entity
			if item.Init != nil {
				val = l.coerceTo(l.lowerExpr(item.Init), st.Type)
			} else {
				val = l.zeroValue(st.Type)
			}
			l.scope.Declare(item.Name, val)
		}

	case *tast.AssignStmt:
		val := l.lowerExpr(st.Value)
		l.assign(st.Target, val)

	case *tast.IncDecStmt:
		cur := l.lowerRef(st.Target)
		delta := int32(1)
		if !st.Inc {
			delta = -1
		}
		reg := l.newReg(types.T(types.Int))
		l.cur.Emit(ir.Instruction{Kind: ir.BinaryOp, Result: &reg, BinaryOp: ir.OpAdd, Lhs: cur, Rhs: ir.IntConst{Value: delta, UUID: l.fctx.NewUUID()}})
		l.assign(st.Target, reg)

	case *tast.ReturnStmt:
		if st.Value == nil {
			l.cur.Emit(ir.Instruction{Kind: ir.RetVoid})
			return
		}
		v := l.coerceTo(l.lowerExpr(st.Value), l.retType)
		l.cur.Emit(ir.Instruction{Kind: ir.RetVal, RetValue: v})

	case *tast.IfStmt:
		l.lowerIf(st)

	case *tast.WhileStmt:
		l.lowerLoop(
			func() ir.Entity { return l.lowerExpr(st.Cond) },
			func() { l.lowerStmt(st.Body) },
		)

	case *tast.ForEachStmt:
		l.lowerForEach(st)

	case *tast.ExprStmt:
		l.lowerExpr(st.Expr)
	}
}

// assign writes value through an assignable reference (§4.8): a local
// rebinds its scope entry to the new SSA entity; a field or array element
// is written through a GEP+Store. value is first coerced to the
// reference's own declared type, widening a subclass value up to a
// supertype-typed target when the two differ (§3 "Subtyping").
func (l *Lowerer) assign(ref tast.Ref, value ir.Entity) {
	value = l.coerceTo(value, ref.Type())
	switch rf := ref.(type) {
	case *tast.Ident:
		l.scope.Rebind(rf.Name, value)
	case *tast.TypedObject:
		obj := l.lowerExpr(rf.Obj)
		idx, lay := l.fieldIndex(rf.Obj.Type(), rf.Field)
		ptrReg := l.newReg(types.NewReference(rf.Typ))
		l.cur.Emit(ir.Instruction{Kind: ir.GetStructElementPtr, Result: &ptrReg, ElemType: types.NewClass(lay.Name), Base: obj, FieldIndex: idx})
		l.cur.Emit(ir.Instruction{Kind: ir.Store, Dest: ptrReg, Operand: value})
	case *tast.Array:
		item := rf.Typ
		elemPtr := l.arrayElemPtr(rf, item)
		l.cur.Emit(ir.Instruction{Kind: ir.Store, Dest: elemPtr, Operand: value})
	}
}

// arrayElemPtr computes the pointer to arr[idx] for an Array ref, shared
// between the read path (lowerRef, via a trailing Load) and assign's write
// path (via a trailing Store).
func (l *Lowerer) arrayElemPtr(rf *tast.Array, item types.Type) ir.Entity {
	arr := l.lowerExpr(rf.Arr)
	dataPtr := l.loadArrayData(arr, item)
	idx := l.lowerExpr(rf.Index)
	elemPtr := l.newReg(types.NewReference(item))
	l.cur.Emit(ir.Instruction{Kind: ir.GetArrayElementPtr, Result: &elemPtr, ElemType: item, Base: dataPtr, Index: idx})
	return elemPtr
}

// loadArrayData loads the `data` pointer field out of an array struct.
func (l *Lowerer) loadArrayData(arr ir.Entity, item types.Type) ir.Entity {
	lay := l.arrayLayout(item)
	dataPtrPtr := l.newReg(types.NewReference(types.NewReference(item)))
	l.cur.Emit(ir.Instruction{Kind: ir.GetStructElementPtr, Result: &dataPtrPtr, ElemType: types.NewClass(lay.Name), Base: arr, FieldIndex: 1})
	dataPtr := l.newReg(types.NewReference(item))
	l.cur.Emit(ir.Instruction{Kind: ir.Load, Result: &dataPtr, Operand: dataPtrPtr})
	return dataPtr
}

// loadArrayLength loads the `length` field out of an array struct.
func (l *Lowerer) loadArrayLength(arr ir.Entity, item types.Type) ir.Entity {
	lay := l.arrayLayout(item)
	ptrReg := l.newReg(types.NewReference(types.T(types.Int)))
	l.cur.Emit(ir.Instruction{Kind: ir.GetStructElementPtr, Result: &ptrReg, ElemType: types.NewClass(lay.Name), Base: arr, FieldIndex: 0})
	valReg := l.newReg(types.T(types.Int))
	l.cur.Emit(ir.Instruction{Kind: ir.Load, Result: &valReg, Operand: ptrReg})
	return valReg
}

// loadArrayElem loads arr[idx] given an already-lowered index entity
// (used by for-each, which maintains its own induction variable rather
// than lowering an index expression).
func (l *Lowerer) loadArrayElem(arr ir.Entity, item types.Type, idx ir.Entity) ir.Entity {
	dataPtr := l.loadArrayData(arr, item)
	elemPtr := l.newReg(types.NewReference(item))
	l.cur.Emit(ir.Instruction{Kind: ir.GetArrayElementPtr, Result: &elemPtr, ElemType: item, Base: dataPtr, Index: idx})
	valReg := l.newReg(item)
	l.cur.Emit(ir.Instruction{Kind: ir.Load, Result: &valReg, Operand: elemPtr})
	return valReg
}

// lowerIf implements §4.7 if/else lowering. Each arm is lowered against a
// flat snapshot of the pre-branch bindings so that Scope.Rebind in one arm
// never mutates the other's view; the two arms' exit bindings (or the
// fallthrough entry bindings, when there's no else) become the join
// block's predecessor environments. Subsequent code emitted into the join
// block references a representative (pre-phi) entity per variable; the
// join block's own eventual Build() call substitutes it for the real phi
// register, since those references live among its own instructions.
func (l *Lowerer) lowerIf(st *tast.IfStmt) {
	cond := l.lowerExpr(st.Cond)
	thenLabel := l.label("if_then")
	joinLabel := l.label("if_end")
	hasElse := st.Else != nil
	elseLabel := joinLabel
	if hasElse {
		elseLabel = l.label("if_else")
	}
	l.cur.Emit(ir.Instruction{Kind: ir.JumpCond, Cond: cond, TrueLabel: thenLabel, FalseLabel: elseLabel})
	entryLabel := l.cur.Label()
	l.finishBlock()

	outerScope := l.scope
	base := outerScope.Snapshot()

	type branch struct {
		label string
		env   map[string]ir.Entity
	}
	var preds []branch

	l.scope = flatScope(base)
	l.startBlock(thenLabel)
	l.lowerStmt(st.Then)
	if !l.cur.Terminated() {
		l.cur.Emit(ir.Instruction{Kind: ir.Jump, TargetLabel: joinLabel})
		tail := l.cur.Label()
		l.finishBlock()
		preds = append(preds, branch{tail, l.scope.Snapshot()})
	} else {
		l.finishBlock()
	}

	if hasElse {
		l.scope = flatScope(base)
		l.startBlock(elseLabel)
		l.lowerStmt(st.Else)
		if !l.cur.Terminated() {
			l.cur.Emit(ir.Instruction{Kind: ir.Jump, TargetLabel: joinLabel})
			tail := l.cur.Label()
			l.finishBlock()
			preds = append(preds, branch{tail, l.scope.Snapshot()})
		} else {
			l.finishBlock()
		}
	} else {
		preds = append(preds, branch{entryLabel, base})
	}

	l.scope = outerScope
	l.startBlock(joinLabel)
	if len(preds) == 0 {
		// Both arms returned: this join is unreachable dead code, per
		// §4.3 the organizer should prevent anything meaningful from
		// following it, but lowering stays defensive rather than crash.
		return
	}
	merged := map[string]ir.Entity{}
	for _, p := range preds {
		l.cur.AddPredecessor(p.label, p.env)
		for name, ent := range p.env {
			merged[name] = ent
		}
	}
	for name, ent := range merged {
		l.scope.Rebind(name, ent)
	}
}

// lowerLoop implements §4.6's loop join: the body is lowered first,
// optimistically against the pre-loop bindings, since its own register
// numbers must precede the cond block's. The cond block is then built as
// a join of the entry and body-exit environments, producing real phis;
// the body's provisional references to pre-loop entities are then patched
// (via the cond block's own Build() substitution) into references to the
// new phi registers, reusing the same renumbering machinery per §4.6's
// closing paragraph.
func (l *Lowerer) lowerLoop(lowerCond func() ir.Entity, lowerBody func()) {
	entryLabel := l.cur.Label()
	condLabel := l.label("loop_cond")
	bodyLabel := l.label("loop_body")
	endLabel := l.label("loop_end")

	l.cur.Emit(ir.Instruction{Kind: ir.Jump, TargetLabel: condLabel})
	l.finishBlock()

	outerScope := l.scope
	base := outerScope.Snapshot()

	l.scope = flatScope(base)
	l.startBlock(bodyLabel)
	bodyBlocksStart := len(l.blocks)
	lowerBody()
	bodyExitLabel := l.cur.Label()
	bodyReachesCond := !l.cur.Terminated()
	if bodyReachesCond {
		l.cur.Emit(ir.Instruction{Kind: ir.Jump, TargetLabel: condLabel})
	}
	l.finishBlock()
	bodyBlocksEnd := len(l.blocks)
	var bodyEnv map[string]ir.Entity
	if bodyReachesCond {
		bodyEnv = l.scope.Snapshot()
	}

	l.scope = flatScope(base)
	l.startBlock(condLabel)
	l.cur.AddPredecessor(entryLabel, base)
	if bodyReachesCond {
		l.cur.AddPredecessor(bodyExitLabel, bodyEnv)
	}
	cond := lowerCond()
	l.cur.Emit(ir.Instruction{Kind: ir.JumpCond, Cond: cond, TrueLabel: bodyLabel, FalseLabel: endLabel})
	_, condEnv, condPatch := l.finishBlock()

	if bodyReachesCond {
		for i := bodyBlocksStart; i < bodyBlocksEnd; i++ {
			l.blocks[i] = condPatch(l.blocks[i])
		}
	}

	l.scope = outerScope
	for name, ent := range condEnv {
		l.scope.Rebind(name, ent)
	}
	l.startBlock(endLabel)
}

// lowerForEach desugars a for-each loop into an index-based while loop
// over a dot-prefixed synthetic induction variable (§4.8), scoped to a
// fresh block so the induction variable never leaks past the loop.
func (l *Lowerer) lowerForEach(st *tast.ForEachStmt) {
	parent := l.scope
	l.scope = context.NewScope[ir.Entity](parent)

	arr := l.lowerExpr(st.Array)
	length := l.loadArrayLength(arr, st.ElemType)

	idxName := fmt.Sprintf(".idx%d", l.gctx.NextLabelSuffix())
	l.scope.Declare(idxName, ir.IntConst{Value: 0, UUID: l.fctx.NewUUID()})

	l.lowerLoop(
		func() ir.Entity {
			idx, _ := l.scope.Lookup(idxName)
			reg := l.newReg(types.T(types.Bool))
			l.cur.Emit(ir.Instruction{Kind: ir.BinaryOp, Result: &reg, BinaryOp: ir.OpLt, Lhs: idx, Rhs: length})
			return reg
		},
		func() {
			idx, _ := l.scope.Lookup(idxName)
			elem := l.loadArrayElem(arr, st.ElemType, idx)
			l.scope.Declare(st.Var, elem)
			l.lowerStmt(st.Body)

			idx2, _ := l.scope.Lookup(idxName)
			next := l.newReg(types.T(types.Int))
			l.cur.Emit(ir.Instruction{Kind: ir.BinaryOp, Result: &next, BinaryOp: ir.OpAdd, Lhs: idx2, Rhs: ir.IntConst{Value: 1, UUID: l.fctx.NewUUID()}})
			l.scope.Rebind(idxName, next)
		},
	)

	l.scope = parent
}
