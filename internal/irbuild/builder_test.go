package irbuild

import (
	"testing"

	"github.com/kowaalczyk/latte-sub000/internal/context"
	"github.com/kowaalczyk/latte-sub000/internal/ir"
	"github.com/kowaalczyk/latte-sub000/internal/types"
)

// TestBuildNoPhiWhenPredecessorsAgree mirrors the simplest case: two
// predecessors bind the same variable to equal entities, so Build should
// forward that binding untouched rather than insert a phi.
func TestBuildNoPhiWhenPredecessorsAgree(t *testing.T) {
	fctx := context.NewFunctionContext()
	b := NewBlockBuilder("join", fctx)

	val := ir.Register{N: 1, Typ: types.T(types.Int)}
	b.AddPredecessor("then", map[string]ir.Entity{"x": val})
	b.AddPredecessor("else", map[string]ir.Entity{"x": val})

	blk, env, _ := b.Build()
	if len(blk.Instr) != 0 {
		t.Fatalf("expected no phi instructions when predecessors agree, got %d", len(blk.Instr))
	}
	if got, ok := env["x"]; !ok || !got.Equal(val) {
		t.Fatalf("expected x to forward to %v unchanged, got %v", val, got)
	}
}

// TestBuildInsertsPhiWhenPredecessorsDisagree covers §4.6's core case: two
// incoming edges bind a variable to distinct entities, so a phi must be
// created with one incoming pair per predecessor, in predecessor order.
func TestBuildInsertsPhiWhenPredecessorsDisagree(t *testing.T) {
	fctx := context.NewFunctionContext()
	b := NewBlockBuilder("join", fctx)

	thenVal := ir.Register{N: 1, Typ: types.T(types.Int)}
	elseVal := ir.Register{N: 2, Typ: types.T(types.Int)}
	b.AddPredecessor("then", map[string]ir.Entity{"x": thenVal})
	b.AddPredecessor("else", map[string]ir.Entity{"x": elseVal})

	blk, env, _ := b.Build()
	if len(blk.Instr) != 1 || blk.Instr[0].Kind != ir.Phi {
		t.Fatalf("expected exactly one phi instruction, got %+v", blk.Instr)
	}
	phi := blk.Instr[0]
	if len(phi.Incoming) != 2 {
		t.Fatalf("expected two incoming values, got %d", len(phi.Incoming))
	}
	if phi.Incoming[0].Label != "then" || phi.Incoming[1].Label != "else" {
		t.Fatalf("expected incoming pairs in predecessor-registration order, got %+v", phi.Incoming)
	}
	result, ok := env["x"].(ir.Register)
	if !ok {
		t.Fatalf("expected x to rebind to the phi's result register, got %T", env["x"])
	}
	if phi.Result == nil || !phi.Result.Equal(result) {
		t.Fatalf("env binding must be exactly the phi's declared result register")
	}
}

// TestBuildShiftsBodyRegistersAroundReservedPhiSlots covers the cyclic
// renumbering that a loop join needs: instructions already emitted into
// the block (the loop body re-entering its own cond block) must have
// their register numbers shifted up to make room for the phi(s) claiming
// the low numbers, and any operand referencing a substituted predecessor
// value must be rewritten to read the phi result instead.
func TestBuildShiftsBodyRegistersAroundReservedPhiSlots(t *testing.T) {
	fctx := context.NewFunctionContext()
	b := NewBlockBuilder("cond", fctx)

	initVal := ir.Register{N: 1, Typ: types.T(types.Int)}
	incVal := ir.Register{N: 2, Typ: types.T(types.Int)}

	// Simulate the body's own arithmetic on i, emitted before the back
	// edge's predecessor binding is known, the way a while-loop body
	// lowers before its own cond block is closed.
	b.Emit(ir.Instruction{
		Kind:     ir.BinaryOp,
		Result:   &ir.Register{N: 3, Typ: types.T(types.Int)},
		BinaryOp: ir.OpAdd,
		Lhs:      incVal,
		Rhs:      ir.IntConst{Value: 1},
	})

	b.AddPredecessor("entry", map[string]ir.Entity{"i": initVal})
	b.AddPredecessor("body", map[string]ir.Entity{"i": incVal})

	blk, _, _ := b.Build()
	if len(blk.Instr) != 2 {
		t.Fatalf("expected the phi plus the one pre-existing instruction, got %d instrs", len(blk.Instr))
	}
	phi := blk.Instr[0]
	if phi.Kind != ir.Phi {
		t.Fatalf("expected the phi to be hoisted to the front of the block")
	}
	shiftedAdd := blk.Instr[1]
	if shiftedAdd.Result == nil || shiftedAdd.Result.N != 4 {
		t.Fatalf("expected the pre-existing instruction's result register to shift from 3 to 4, got %+v", shiftedAdd.Result)
	}
	if !shiftedAdd.Lhs.Equal(*phi.Result) {
		t.Fatalf("expected the body instruction's reference to incVal to be rewritten to the phi's result, got %+v", shiftedAdd.Lhs)
	}
}

func TestBuildSinglePredecessorForwardsBindingsDirectly(t *testing.T) {
	fctx := context.NewFunctionContext()
	b := NewBlockBuilder("next", fctx)
	val := ir.Register{N: 7, Typ: types.T(types.Bool)}
	b.AddPredecessor("only", map[string]ir.Entity{"flag": val})

	blk, env, patch := b.Build()
	if len(blk.Instr) != 0 {
		t.Fatalf("a single-predecessor block needs no phi")
	}
	if !env["flag"].Equal(val) {
		t.Fatalf("expected single predecessor's binding to forward unchanged")
	}
	if patch == nil {
		t.Fatalf("Build must always return a non-nil patch closure, even the identity one")
	}
}
