package types

// Hierarchy answers single-inheritance parent queries so that subtyping
// and LCA computation (§3, §4.4) don't need to know about internal/ast
// or internal/check's class tables.
type Hierarchy interface {
	// Parent returns the direct parent class name of cls, if any.
	Parent(cls string) (string, bool)
}

// ancestors returns cls and every ancestor of cls, closest first.
func ancestors(h Hierarchy, cls string) []string {
	chain := []string{cls}
	seen := map[string]bool{cls: true}
	cur := cls
	for {
		p, ok := h.Parent(cur)
		if !ok || seen[p] {
			return chain
		}
		chain = append(chain, p)
		seen[p] = true
		cur = p
	}
}

// IsSubclass reports whether c is d or a descendant of d, per §4.4
// "Subtyping": "C is assignable to D iff C == D or a chain of parent
// links leads from C to D."
func IsSubclass(h Hierarchy, c, d string) bool {
	if c == d {
		return true
	}
	for _, a := range ancestors(h, c) {
		if a == d {
			return true
		}
	}
	return false
}

// IsAssignable reports whether a value of type `from` may be assigned to
// a location of type `to`, per §4.4. Null is assignable to any class or
// array type only through an explicit (T)null cast, modeled elsewhere as
// an equality between the cast's declared type and the target — this
// function handles only the implicit cases: identical types, and
// single-inheritance widening between classes.
func IsAssignable(h Hierarchy, from, to Type) bool {
	if from.Equal(to) {
		return true
	}
	if from.Kind == Class && to.Kind == Class {
		return IsSubclass(h, from.ClassName, to.ClassName)
	}
	return false
}

// LCA computes the lowest common ancestor of two class types in the
// single-inheritance hierarchy, used to type if/else (§4.4 "Control-flow
// typing"). Returns (type, true) on success.
func LCA(h Hierarchy, a, b Type) (Type, bool) {
	if a.Equal(b) {
		return a, true
	}
	if a.Kind != Class || b.Kind != Class {
		return Type{}, false
	}
	aChain := ancestors(h, a.ClassName)
	bSet := map[string]int{}
	for i, n := range ancestors(h, b.ClassName) {
		bSet[n] = i
	}
	// aChain is ordered closest-first; the first name also present in
	// bChain is, by construction of a tree, their unique closest common
	// ancestor.
	for _, n := range aChain {
		if _, ok := bSet[n]; ok {
			return NewClass(n), true
		}
	}
	return Type{}, false
}
