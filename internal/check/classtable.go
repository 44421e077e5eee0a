package check

import (
	"github.com/kowaalczyk/latte-sub000/internal/ast"
	"github.com/kowaalczyk/latte-sub000/internal/types"
)

// classInfo is the checker's resolved view of one class: its own fields
// and methods (not yet flattened with ancestors -- layout flattening is
// internal/context's job per §4.5; the checker only needs lookup, not the
// final struct shape).
type classInfo struct {
	decl   *ast.ClassDecl
	parent string
}

// ClassTable answers field/method lookup and implements types.Hierarchy
// so the checker can reuse types.IsSubclass/LCA directly.
type ClassTable struct {
	classes map[string]*classInfo
}

func newClassTable() *ClassTable {
	return &ClassTable{classes: make(map[string]*classInfo)}
}

func (t *ClassTable) Parent(cls string) (string, bool) {
	c, ok := t.classes[cls]
	if !ok || c.parent == "" {
		return "", false
	}
	return c.parent, true
}

func (t *ClassTable) Exists(cls string) bool {
	_, ok := t.classes[cls]
	return ok
}

// hasCycle reports whether following parent links from cls ever revisits
// a class, per §9 "abort with an EnvError if parent links form a cycle".
func (t *ClassTable) hasCycle(cls string) bool {
	seen := map[string]bool{}
	cur := cls
	for {
		seen[cur] = true
		p, ok := t.Parent(cur)
		if !ok {
			return false
		}
		if seen[p] {
			return true
		}
		cur = p
	}
}

// lookupField walks cls and its ancestors (closest first) for the nearest
// declaration of field, returning the class that declares it -- this is
// the "resolved, possibly an ancestor" class §4.4 asks TypedObject to
// carry.
func (t *ClassTable) lookupField(cls, field string) (declClass string, ft types.Type, ok bool) {
	for cur := cls; cur != ""; {
		c, exists := t.classes[cur]
		if !exists {
			return "", types.Type{}, false
		}
		for _, f := range c.decl.Fields {
			if f.Name == field {
				return cur, astTypeToType(f.Type), true
			}
		}
		cur = c.parent
	}
	return "", types.Type{}, false
}

// lookupMethod walks cls and its ancestors for the nearest declaration of
// a method named name (most-derived override wins), returning its
// declared signature.
func (t *ClassTable) lookupMethod(cls, name string) (declClass string, sig types.Type, params []ast.Param, ok bool) {
	for cur := cls; cur != ""; {
		c, exists := t.classes[cur]
		if !exists {
			return "", types.Type{}, nil, false
		}
		for _, m := range c.decl.Methods {
			if m.Name == name {
				return cur, funcSigType(m), m.Params, true
			}
		}
		cur = c.parent
	}
	return "", types.Type{}, nil, false
}

func funcSigType(f *ast.FuncDecl) types.Type {
	args := make([]types.Type, len(f.Params))
	for i, p := range f.Params {
		args[i] = astTypeToType(p.Type)
	}
	return types.NewFunction(args, astTypeToType(f.Ret))
}

func astTypeToType(t ast.Type) types.Type {
	var base types.Type
	switch t.Name {
	case "int":
		base = types.T(types.Int)
	case "string":
		base = types.T(types.Str)
	case "boolean":
		base = types.T(types.Bool)
	case "void":
		base = types.T(types.Void)
	default:
		base = types.NewClass(t.Name)
	}
	if t.Array {
		return types.NewArray(base)
	}
	return base
}
