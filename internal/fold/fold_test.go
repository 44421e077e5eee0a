package fold

import (
	"testing"

	"github.com/kowaalczyk/latte-sub000/internal/ast"
	"github.com/kowaalczyk/latte-sub000/internal/parser"
)

func parseFold(t *testing.T, src string) *ast.Program {
	t.Helper()
	prog, errs := parser.Parse("t.lat", src)
	if errs.HasErrors() {
		t.Fatalf("parse errors: %v", errs)
	}
	return Program(prog)
}

func TestFoldIfTrue(t *testing.T) {
	prog := parseFold(t, `int main() { if (true) return 1; else return 2; return 0; }`)
	body := prog.Functions[0].Body
	ret, ok := body.Stmts[0].(*ast.ReturnStmt)
	if !ok {
		t.Fatalf("expected folded return, got %T", body.Stmts[0])
	}
	lit, ok := ret.Value.(*ast.IntLit)
	if !ok || lit.Value != 1 {
		t.Fatalf("expected return 1, got %+v", ret.Value)
	}
	if len(body.Stmts) != 1 {
		t.Fatalf("expected dead code after terminating return truncated, got %d stmts", len(body.Stmts))
	}
}

func TestOrganizerAppendsVoidReturn(t *testing.T) {
	prog := parseFold(t, `void f() { int x = 1; }`)
	body := prog.Functions[0].Body
	last := body.Stmts[len(body.Stmts)-1]
	ret, ok := last.(*ast.ReturnStmt)
	if !ok {
		t.Fatalf("expected synthesized return appended, got %T", last)
	}
	if ret.Value != nil {
		t.Fatalf("expected void return, got %+v", ret.Value)
	}
}

func TestOrganizerIfElseBothReturn(t *testing.T) {
	prog := parseFold(t, `int f() { if (readInt() > 0) { return 1; } else { return 2; } }`)
	body := prog.Functions[0].Body
	if len(body.Stmts) != 1 {
		t.Fatalf("expected no synthetic return appended after exhaustive if/else, got %d stmts", len(body.Stmts))
	}
}
