package context

import "testing"

func TestScopeDeclareRejectsRedeclarationInSameBlock(t *testing.T) {
	s := NewScope[int](nil)
	if !s.Declare("x", 1) {
		t.Fatalf("first declaration of x should succeed")
	}
	if s.Declare("x", 2) {
		t.Fatalf("redeclaring x in the same block must fail")
	}
}

func TestScopeNestedBlockMayShadow(t *testing.T) {
	outer := NewScope[int](nil)
	outer.Declare("x", 1)
	inner := NewScope[int](outer)
	if !inner.Declare("x", 2) {
		t.Fatalf("a nested block must be allowed to shadow an outer binding")
	}
	if v, _ := inner.Lookup("x"); v != 2 {
		t.Fatalf("inner lookup should see the shadowing value, got %d", v)
	}
	if v, _ := outer.Lookup("x"); v != 1 {
		t.Fatalf("outer binding must be unaffected by the inner shadow, got %d", v)
	}
}

func TestScopeRebindWalksToDeclaringAncestor(t *testing.T) {
	outer := NewScope[int](nil)
	outer.Declare("x", 1)
	inner := NewScope[int](outer)

	if !inner.Rebind("x", 9) {
		t.Fatalf("rebind should find x declared in an ancestor block")
	}
	if v, _ := outer.Lookup("x"); v != 9 {
		t.Fatalf("rebind through a child scope must mutate the declaring ancestor, got %d", v)
	}
	if inner.Rebind("never_declared", 1) {
		t.Fatalf("rebinding an undeclared name must fail")
	}
}

func TestScopeSnapshotInnermostWins(t *testing.T) {
	outer := NewScope[int](nil)
	outer.Declare("x", 1)
	outer.Declare("y", 2)
	inner := NewScope[int](outer)
	inner.Declare("x", 3)

	snap := inner.Snapshot()
	if snap["x"] != 3 {
		t.Fatalf("snapshot must prefer the innermost binding for x, got %d", snap["x"])
	}
	if snap["y"] != 2 {
		t.Fatalf("snapshot must still include outer-only bindings, got %d", snap["y"])
	}
}
