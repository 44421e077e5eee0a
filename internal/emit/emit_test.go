package emit

import (
	"strings"
	"testing"

	"github.com/kowaalczyk/latte-sub000/internal/check"
	"github.com/kowaalczyk/latte-sub000/internal/fold"
	"github.com/kowaalczyk/latte-sub000/internal/irbuild"
	"github.com/kowaalczyk/latte-sub000/internal/parser"
)

func buildModule(t *testing.T, src string) string {
	t.Helper()
	prog, errs := parser.Parse("t.lat", src)
	if errs.HasErrors() {
		t.Fatalf("parse errors: %v", errs)
	}
	prog = fold.Program(prog)
	tprog, errs := check.Check(prog)
	if errs.HasErrors() {
		t.Fatalf("check errors: %v", errs)
	}
	mod, gctx := irbuild.BuildModule(tprog)
	return Emit(mod, gctx)
}

func TestEmitDeclaresEveryBuiltin(t *testing.T) {
	ir := buildModule(t, `int main() { return 0; }`)
	for _, want := range []string{
		"declare void @printInt(i32)",
		"declare void @printString(i8*)",
		"declare void @error()",
		"declare i32 @readInt()",
		"declare i8* @readString()",
	} {
		if !strings.Contains(ir, want) {
			t.Errorf("expected runtime declaration %q in emitted IR:\n%s", want, ir)
		}
	}
}

func TestEmitVoidFunctionHasVoidReturn(t *testing.T) {
	ir := buildModule(t, `void noop() { } int main() { noop(); return 0; }`)
	if !strings.Contains(ir, "ret void") {
		t.Errorf("expected a bare `ret void` terminator for a Void function, got:\n%s", ir)
	}
}

func TestEmitIntLiteralArithmetic(t *testing.T) {
	ir := buildModule(t, `int main() { printInt(1+2); return 0; }`)
	if !strings.Contains(ir, "add i32") {
		t.Errorf("expected an `add i32` instruction for 1+2, got:\n%s", ir)
	}
}

func TestEmitClassLayoutPlacesParentFieldsFirst(t *testing.T) {
	ir := buildModule(t, `class A { int x; } class B extends A { int y; } int main() { B b = new B; return 0; }`)
	idxA := strings.Index(ir, "%struct.A = type")
	idxB := strings.Index(ir, "%struct.B = type")
	if idxA == -1 || idxB == -1 {
		t.Fatalf("expected both struct types to be declared, got:\n%s", ir)
	}
	bLine := ir[idxB:strings.Index(ir[idxB:], "\n")+idxB]
	if !strings.Contains(bLine, "i32, i32") {
		t.Errorf("expected B's layout to carry both A's field and its own (two i32 fields), got: %s", bLine)
	}
}
