package check

import (
	"testing"

	"github.com/kowaalczyk/latte-sub000/internal/ast"
	cerrors "github.com/kowaalczyk/latte-sub000/internal/errors"
	"github.com/kowaalczyk/latte-sub000/internal/parser"
)

func mustParse(t *testing.T, src string) *ast.Program {
	t.Helper()
	prog, errs := parser.Parse("t.lat", src)
	if errs.HasErrors() {
		t.Fatalf("unexpected parse errors: %v", errs)
	}
	return prog
}

func TestCheckBareReturnInIntFunctionIsTypeError(t *testing.T) {
	prog := mustParse(t, `int f() { return; } int main() { return 0; }`)
	_, errs := Check(prog)
	if !errs.HasErrors() {
		t.Fatalf("expected a TypeError for a bare return in a function declared to return Int")
	}
	found := false
	for _, e := range errs {
		if e.Kind == cerrors.TypeErrorKind {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected at least one TypeErrorKind diagnostic, got %v", errs)
	}
}

func TestCheckAcceptsValidProgram(t *testing.T) {
	prog := mustParse(t, `int main() { printInt(1+2); return 0; }`)
	tprog, errs := Check(prog)
	if errs.HasErrors() {
		t.Fatalf("unexpected errors: %v", errs)
	}
	if len(tprog.Functions) != 1 || tprog.Functions[0].Name != "main" {
		t.Fatalf("expected a single main function in the typed program")
	}
}

func TestCheckRejectsMissingMain(t *testing.T) {
	prog := mustParse(t, `int f() { return 1; }`)
	_, errs := Check(prog)
	if !errs.HasErrors() {
		t.Fatalf("expected an EnvError for a program without int main()")
	}
}

func TestCheckRejectsDuplicateFieldInClass(t *testing.T) {
	prog := mustParse(t, `class A { int x; int x; } int main() { return 0; }`)
	_, errs := Check(prog)
	if !errs.HasErrors() {
		t.Fatalf("expected an EnvError for a class with a duplicate field name")
	}
}

func TestCheckRejectsFunctionShadowingBuiltin(t *testing.T) {
	prog := mustParse(t, `void printInt(int n) { } int main() { return 0; }`)
	_, errs := Check(prog)
	if !errs.HasErrors() {
		t.Fatalf("expected an EnvError for a user function named like a builtin")
	}
}
