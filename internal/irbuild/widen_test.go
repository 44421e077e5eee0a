package irbuild

import (
	"testing"

	"github.com/kowaalczyk/latte-sub000/internal/context"
	"github.com/kowaalczyk/latte-sub000/internal/ir"
	"github.com/kowaalczyk/latte-sub000/internal/tast"
	"github.com/kowaalczyk/latte-sub000/internal/types"
)

// newTestLowerer builds a bare Lowerer with a single open block, enough to
// exercise coerceTo/assign without going through LowerFunction.
func newTestLowerer(gctx *context.GlobalContext) *Lowerer {
	l := newLowerer(gctx)
	l.scope = context.NewScope[ir.Entity](nil)
	l.startBlock("entry")
	return l
}

// TestCoerceToLeavesMatchingTypeUntouched covers the common case: binding
// a value whose type already equals the target should never synthesize a
// spurious BitCast.
func TestCoerceToLeavesMatchingTypeUntouched(t *testing.T) {
	l := newTestLowerer(context.NewGlobalContext())
	reg := ir.Register{N: 1, Typ: types.NewClass("A")}
	got := l.coerceTo(reg, types.NewClass("A"))
	if !got.Equal(reg) {
		t.Fatalf("expected value to pass through unchanged, got %+v", got)
	}
	if len(l.cur.instrs) != 0 {
		t.Fatalf("expected no BitCast to be emitted, got %+v", l.cur.instrs)
	}
}

// TestCoerceToWidensSubclassToDeclaredSupertype covers the maintainer-
// reported gap: binding a `new B()` value (class B extends A) to an
// A-declared location must insert a BitCast to %struct.A* before the value
// is used, so a later GEP against A's layout reads a pointer of the right
// static type rather than B's.
func TestCoerceToWidensSubclassToDeclaredSupertype(t *testing.T) {
	l := newTestLowerer(context.NewGlobalContext())
	bVal := ir.Register{N: 1, Typ: types.NewClass("B")}

	got := l.coerceTo(bVal, types.NewClass("A"))

	if len(l.cur.instrs) != 1 || l.cur.instrs[0].Kind != ir.BitCast {
		t.Fatalf("expected exactly one BitCast instruction, got %+v", l.cur.instrs)
	}
	cast := l.cur.instrs[0]
	if !cast.ElemType.Equal(types.NewClass("A")) {
		t.Fatalf("expected the BitCast's target type to be A, got %+v", cast.ElemType)
	}
	if !cast.Operand.Equal(bVal) {
		t.Fatalf("expected the BitCast to operate on the original B value, got %+v", cast.Operand)
	}
	if !got.Type().Equal(types.NewClass("A")) {
		t.Fatalf("expected coerceTo's result to carry the widened type A, got %+v", got.Type())
	}
}

// TestAssignToIdentWidensBeforeRebinding exercises the full assign() path:
// rebinding a variable declared A to a freshly constructed B value must
// widen it first, so every later read of that variable sees an A-typed
// entity.
func TestAssignToIdentWidensBeforeRebinding(t *testing.T) {
	l := newTestLowerer(context.NewGlobalContext())
	l.scope.Declare("a", ir.Register{N: 1, Typ: types.NewClass("A")})

	bVal := ir.Register{N: 2, Typ: types.NewClass("B")}
	ref := &tast.Ident{RefBase: tast.RefBase{Typ: types.NewClass("A")}, Name: "a"}
	l.assign(ref, bVal)

	if len(l.cur.instrs) != 1 || l.cur.instrs[0].Kind != ir.BitCast {
		t.Fatalf("expected assign to widen the value via BitCast before rebinding, got %+v", l.cur.instrs)
	}
	bound, _ := l.scope.Lookup("a")
	if !bound.Type().Equal(types.NewClass("A")) {
		t.Fatalf("expected the rebound entity to carry the declared type A, got %+v", bound.Type())
	}
}
