// Package context implements spec.md §4.5: the global, function, and
// block-scope contexts shared across one compilation — fresh-name sources
// (registers, label suffixes, uuids), the string constant pool, struct
// layouts, and the lexically scoped variable environment. Grounded on
// _examples/original_source/src/backend/context/{global,function,block}.rs.
package context

import (
	"fmt"
	"sort"
	"sync"

	"github.com/kowaalczyk/latte-sub000/internal/types"
)

// StructField is one flattened field of a class or array struct layout.
type StructField struct {
	Name string
	Type types.Type
}

// StructLayout is the flattened (inheritance-expanded) field list for a
// class, or the fixed two-field layout for an array element type, plus
// its size-constant symbol (§4.5 "size constant ... GlobalConstInt").
type StructLayout struct {
	Name       string
	Fields     []StructField
	SizeSymbol string // e.g. "@size.C" -- bound at runtime per §4.5
}

func (l *StructLayout) FieldIndex(name string) (int, bool) {
	for i, f := range l.Fields {
		if f.Name == name {
			return i, true
		}
	}
	return 0, false
}

// StringConst is one entry of the process-wide string pool.
type StringConst struct {
	Name string // ".str.N", clang-compatible naming per SPEC_FULL.md §3.2
	Len  int    // byte length of the literal, including the trailing NUL
}

// FuncSig is a user function or method's declared parameter/return types,
// keyed by its mangled LLVM symbol name. Lowering a call site consults
// this to coerce a subtype argument up to its parameter's declared
// supertype (§3 "Subtyping"; spec.md line 49 "checks assignment
// compatibility with subtype widening") -- the checker permits the call,
// but only the declared signature tells the IR builder what the callee
// actually expects to receive.
type FuncSig struct {
	Params []types.Type
	Ret    types.Type
}

// GlobalContext is process-wide within one compilation; per §9 "Global
// mutable state" it must never be retained across compilations.
// GlobalContext's mutable counters (string pool, label suffixes) are
// guarded by mu so that internal/compiler's LATTE_PARALLEL path -- one
// goroutine per function, fanned out via errgroup -- can intern string
// literals and mint fresh label suffixes concurrently without racing.
// Class layouts are registered serially before lowering starts; array
// layouts are registered on first use during lowering, through
// RegisterLayout under the write side of mu. Layout/AllLayouts take the
// read side.
type GlobalContext struct {
	mu sync.RWMutex

	strings     map[string]StringConst
	nextStrID   int
	layouts     map[string]*StructLayout
	parents     map[string]string
	labelSuffix int
	funcSigs    map[string]FuncSig
}

func NewGlobalContext() *GlobalContext {
	return &GlobalContext{
		strings:  make(map[string]StringConst),
		layouts:  make(map[string]*StructLayout),
		parents:  make(map[string]string),
		funcSigs: make(map[string]FuncSig),
	}
}

// InternString returns the pool entry for s, minting a fresh `.str.N`
// entry (len = byte length + 1 for the trailing NUL) the first time s is
// requested, matching SPEC_FULL.md's supplemented naming convention.
func (g *GlobalContext) InternString(s string) StringConst {
	g.mu.Lock()
	defer g.mu.Unlock()
	if c, ok := g.strings[s]; ok {
		return c
	}
	c := StringConst{Name: fmt.Sprintf(".str.%d", g.nextStrID), Len: len(s) + 1}
	g.nextStrID++
	g.strings[s] = c
	return c
}

// Strings returns the pool's entries paired with their literal, in
// insertion order, for deterministic emission.
func (g *GlobalContext) Strings() []struct {
	Literal string
	Const   StringConst
} {
	// preserve insertion order via nextStrID-indexed reconstruction
	ordered := make([]struct {
		Literal string
		Const   StringConst
	}, g.nextStrID)
	for lit, c := range g.strings {
		var n int
		fmt.Sscanf(c.Name, ".str.%d", &n)
		ordered[n] = struct {
			Literal string
			Const   StringConst
		}{Literal: lit, Const: c}
	}
	return ordered
}

// RegisterLayout stores the flattened struct layout for a class name or a
// synthesized array-element struct name.
func (g *GlobalContext) RegisterLayout(l *StructLayout) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.layouts[l.Name] = l
}

func (g *GlobalContext) Layout(name string) (*StructLayout, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	l, ok := g.layouts[name]
	return l, ok
}

// AllLayouts returns every registered struct layout (classes and
// synthesized array-element structs), sorted by name for deterministic
// emission order.
func (g *GlobalContext) AllLayouts() []*StructLayout {
	g.mu.RLock()
	defer g.mu.RUnlock()
	out := make([]*StructLayout, 0, len(g.layouts))
	for _, l := range g.layouts {
		out = append(out, l)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// RegisterFuncSig stores a function or method's declared signature under
// its mangled symbol name, registered serially for every declaration
// before any body is lowered (module.go), mirroring RegisterLayout.
func (g *GlobalContext) RegisterFuncSig(name string, sig FuncSig) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.funcSigs[name] = sig
}

// FuncSig looks up a previously registered signature by mangled name.
// Builtins are never registered here -- they take only primitive
// parameters, so no call site needs to widen an argument to call one.
func (g *GlobalContext) FuncSig(name string) (FuncSig, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	sig, ok := g.funcSigs[name]
	return sig, ok
}

// SetParent records class C's direct parent, for types.Hierarchy.
func (g *GlobalContext) SetParent(class, parent string) {
	if parent != "" {
		g.parents[class] = parent
	}
}

// Parent implements types.Hierarchy.
func (g *GlobalContext) Parent(cls string) (string, bool) {
	p, ok := g.parents[cls]
	return p, ok
}

// ArrayLayoutName deterministically names the synthesized struct for
// array-of-T, per §4.5 "registered on first use and named deterministically
// from T".
func ArrayLayoutName(item types.Type) string {
	return fmt.Sprintf("__array__%s", item.String())
}

// FuncMangledName implements §4.5's mangling rule: every user function
// except main is prefixed __func__.
func FuncMangledName(name string) string {
	if name == "main" {
		return "main"
	}
	return "__func__" + name
}

// ClassInitName is the generated constructor for class C.
func ClassInitName(class string) string {
	return "__init__" + class
}

// NextLabelSuffix mints a fresh, globally unique integer suffix for
// synthesized names (`loop_cond__N`, `if_then__N`, `__lazy_cont____N`,
// the for-each index variable `.idxN`, ...).
// Safe to call concurrently from the LATTE_PARALLEL per-function lowering
// path (§5).
func (g *GlobalContext) NextLabelSuffix() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	n := g.labelSuffix
	g.labelSuffix++
	return n
}
