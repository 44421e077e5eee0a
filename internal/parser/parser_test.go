package parser

import (
	"testing"

	"github.com/kowaalczyk/latte-sub000/internal/ast"
)

func TestParseMain(t *testing.T) {
	src := `int main() { printInt(1+2); return 0; }`
	prog, errs := Parse("t.lat", src)
	if errs.HasErrors() {
		t.Fatalf("unexpected errors: %v", errs)
	}
	if len(prog.Functions) != 1 {
		t.Fatalf("expected 1 function, got %d", len(prog.Functions))
	}
	main := prog.Functions[0]
	if main.Name != "main" || main.Ret.Name != "int" {
		t.Fatalf("unexpected main signature: %+v", main)
	}
	if len(main.Body.Stmts) != 2 {
		t.Fatalf("expected 2 statements, got %d", len(main.Body.Stmts))
	}
}

func TestParseClassHierarchy(t *testing.T) {
	src := `class A { int x; }
class B extends A { int y; }
int main() { B b = new B; b.x = 7; printInt(b.x); return 0; }`
	prog, errs := Parse("t.lat", src)
	if errs.HasErrors() {
		t.Fatalf("unexpected errors: %v", errs)
	}
	if len(prog.Classes) != 2 {
		t.Fatalf("expected 2 classes, got %d", len(prog.Classes))
	}
	if prog.Classes[1].Parent != "A" {
		t.Fatalf("expected B to extend A, got %q", prog.Classes[1].Parent)
	}
	decl, ok := prog.Functions[0].Body.Stmts[0].(*ast.DeclStmt)
	if !ok {
		t.Fatalf("expected decl statement, got %T", prog.Functions[0].Body.Stmts[0])
	}
	if decl.Type.Name != "B" {
		t.Fatalf("expected declared type B, got %q", decl.Type.Name)
	}
}

func TestParseWhileLoop(t *testing.T) {
	src := `int main() { int i = 0; while (i < 3) { printInt(i); i++; } return 0; }`
	prog, errs := Parse("t.lat", src)
	if errs.HasErrors() {
		t.Fatalf("unexpected errors: %v", errs)
	}
	_, ok := prog.Functions[0].Body.Stmts[1].(*ast.WhileStmt)
	if !ok {
		t.Fatalf("expected while statement, got %T", prog.Functions[0].Body.Stmts[1])
	}
}

func TestParseLazyBoolAndStringConcat(t *testing.T) {
	src := `int main() { string s = "a" + "b"; boolean b = true && false || true; printString(s); return 0; }`
	_, errs := Parse("t.lat", src)
	if errs.HasErrors() {
		t.Fatalf("unexpected errors: %v", errs)
	}
}

func TestParseForEach(t *testing.T) {
	src := `int main() { int[] a = new int[3]; for (int x : a) printInt(x); return 0; }`
	prog, errs := Parse("t.lat", src)
	if errs.HasErrors() {
		t.Fatalf("unexpected errors: %v", errs)
	}
	_, ok := prog.Functions[0].Body.Stmts[1].(*ast.ForEachStmt)
	if !ok {
		t.Fatalf("expected for-each statement, got %T", prog.Functions[0].Body.Stmts[1])
	}
}
