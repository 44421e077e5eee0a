package ir

import (
	"testing"

	"github.com/google/uuid"

	"github.com/kowaalczyk/latte-sub000/internal/types"
)

func TestEntityEqualityByContent(t *testing.T) {
	r1 := Register{N: 3, Typ: types.T(types.Int)}
	r2 := Register{N: 3, Typ: types.T(types.Int)}
	if !r1.Equal(r2) {
		t.Fatalf("registers with the same N and type should be equal")
	}
	if r1.Equal(Register{N: 4, Typ: types.T(types.Int)}) {
		t.Fatalf("registers with different N must not be equal")
	}
}

func TestConstantsWithDifferentUUIDsAreDistinct(t *testing.T) {
	a := IntConst{Value: 1, UUID: uuid.New()}
	b := IntConst{Value: 1, UUID: uuid.New()}
	if a.Equal(b) {
		t.Fatalf("two IntConst values with distinct uuids must never be Equal, even with the same literal value (see §9 Constant uuids)")
	}
	if !a.Equal(a) {
		t.Fatalf("a constant must equal itself")
	}
}

func TestNamedRegisterEqualityByName(t *testing.T) {
	a := NamedRegister{Name: "self", Typ: types.NewClass("A")}
	b := NamedRegister{Name: "self", Typ: types.NewClass("A")}
	if !a.Equal(b) {
		t.Fatalf("named registers with the same name should be equal")
	}
}

func TestBasicBlockTermination(t *testing.T) {
	blk := &BasicBlock{Label: "entry"}
	if blk.IsTerminated() {
		t.Fatalf("an empty block must not be considered terminated")
	}
	blk.Instr = append(blk.Instr, Instruction{Kind: Alloc})
	if blk.IsTerminated() {
		t.Fatalf("a block ending in a non-terminator must not be considered terminated")
	}
	blk.Instr = append(blk.Instr, Instruction{Kind: RetVoid})
	if !blk.IsTerminated() {
		t.Fatalf("a block ending in RetVoid must be considered terminated")
	}
}
