package compiler

import (
	"strings"
	"testing"
)

// TestCompileScenarios exercises spec.md §8's S1-S6 at the package level,
// below the CLI -- see cmd/latte/testdata/script for the same scenarios
// driven end-to-end through the compiled binary.
func TestCompileScenarios(t *testing.T) {
	cases := []struct {
		name     string
		src      string
		contains []string
	}{
		{
			name:     "S1 print arithmetic",
			src:      `int main() { printInt(1+2); return 0; }`,
			contains: []string{"declare void @printInt", "define i32 @main"},
		},
		{
			name:     "S2 while loop produces a phi",
			src:      `int main() { int i = 0; while (i < 3) { printInt(i); i++; } return 0; }`,
			contains: []string{"= phi "},
		},
		{
			name:     "S3 string concatenation",
			src:      `int main() { string s = "a" + "b"; printString(s); return 0; }`,
			contains: []string{"@__builtin_method__str__concat__", "declare void @printString"},
		},
		{
			name:     "S5 inherited field layout",
			src:      `class A { int x; } class B extends A { int y; } int main() { B b = new B; b.x = 7; printInt(b.x); return 0; }`,
			contains: []string{"%struct.A = type", "%struct.B = type"},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			result, errs := Compile("t.lat", tc.src)
			if errs.HasErrors() {
				t.Fatalf("unexpected compile errors: %v", errs)
			}
			for _, want := range tc.contains {
				if !strings.Contains(result.IR, want) {
					t.Errorf("expected emitted IR to contain %q\n--- IR ---\n%s", want, result.IR)
				}
			}
		})
	}
}

// TestCompileWidensSubclassAssignmentToSupertypeField covers the
// subtype-widening case §3 "Subtyping" permits the checker to accept:
// assigning a `new B` value (B extends A) to an A-typed variable, then
// reading a field A itself declares. Without a widening BitCast the
// emitted `getelementptr`'s declared source type (A's struct) would
// mismatch the base pointer's actual type (B's struct).
func TestCompileWidensSubclassAssignmentToSupertypeField(t *testing.T) {
	src := `class A { int x; }
class B extends A { int y; }
int main() { A a; a = new B; printInt(a.x); return 0; }`
	result, errs := Compile("t.lat", src)
	if errs.HasErrors() {
		t.Fatalf("unexpected compile errors: %v", errs)
	}
	if !strings.Contains(result.IR, "bitcast") {
		t.Errorf("expected a widening bitcast from %%struct.B* to %%struct.A*, got:\n%s", result.IR)
	}
	if strings.Contains(result.IR, "getelementptr %struct.A, %struct.B*") {
		t.Errorf("expected the GEP's base pointer to be bitcast to %%struct.A* first, got:\n%s", result.IR)
	}
}

// TestCompileWidensSubclassArgumentToSupertypeParam covers the same
// widening rule at a call site: a subtype argument passed to a
// supertype-declared parameter (internal/check's checkCall accepts this
// via the same IsAssignable rule) must be bitcast to the parameter's
// declared type before the call, or the emitted call's argument type
// would mismatch the callee's declared parameter type.
func TestCompileWidensSubclassArgumentToSupertypeParam(t *testing.T) {
	src := `class A { int x; }
class B extends A { int y; }
void show(A a) { printInt(a.x); }
int main() { B b = new B; show(b); return 0; }`
	result, errs := Compile("t.lat", src)
	if errs.HasErrors() {
		t.Fatalf("unexpected compile errors: %v", errs)
	}
	if !strings.Contains(result.IR, "bitcast") {
		t.Errorf("expected the call argument to be widened via bitcast, got:\n%s", result.IR)
	}
}

// TestCompileConstantFoldsDeadBranch covers S4: after constant folding,
// an `if (true) ... else ...` collapses to its taken branch, so the
// emitted function should contain no conditional branch at all.
func TestCompileConstantFoldsDeadBranch(t *testing.T) {
	result, errs := Compile("t.lat", `int main() { if (true) return 1; else return 2; }`)
	if errs.HasErrors() {
		t.Fatalf("unexpected compile errors: %v", errs)
	}
	if strings.Contains(result.IR, "br i1") {
		t.Errorf("expected the dead else-branch to be folded away, got:\n%s", result.IR)
	}
}

// TestCompileRejectsBareReturnInIntFunction covers S6: `return;` inside a
// function declared to return Int is a TypeError, reported at the
// function's own location once file/line/col resolution runs.
func TestCompileRejectsBareReturnInIntFunction(t *testing.T) {
	_, errs := Compile("t.lat", "int f() { return; }\nint main() { return 0; }\n")
	if !errs.HasErrors() {
		t.Fatalf("expected a TypeError")
	}
	if !strings.Contains(Render(errs), "TypeError") {
		t.Errorf("expected TypeError in rendered diagnostics, got %q", Render(errs))
	}
	for _, e := range errs {
		if e.Pos.File != "t.lat" || e.Pos.Line == 0 {
			t.Errorf("expected the diagnostic's position to be resolved against the original file, got %+v", e.Pos)
		}
	}
}

func TestCompileParallelMatchesSerialOutput(t *testing.T) {
	src := `int main() { int i = 0; while (i < 3) { printInt(i); i++; } return 0; }`
	serial, errs := Compile("t.lat", src)
	if errs.HasErrors() {
		t.Fatalf("unexpected compile errors: %v", errs)
	}
	t.Setenv("LATTE_PARALLEL", "1")
	parallel, errs := Compile("t.lat", src)
	if errs.HasErrors() {
		t.Fatalf("unexpected compile errors under LATTE_PARALLEL=1: %v", errs)
	}
	if serial.IR != parallel.IR {
		t.Errorf("expected serial and parallel lowering to produce identical IR for a single-function program\nserial:\n%s\nparallel:\n%s", serial.IR, parallel.IR)
	}
}
