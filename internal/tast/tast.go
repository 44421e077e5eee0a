// Package tast is the typed AST: the output of internal/check, structurally
// mirroring internal/ast but carrying a types.Type metadata slot on every
// expression/reference/statement instead of a byte Location, per spec.md
// §3 "three payloads are used in sequence: Location, Type, and implicitly
// () on immutable helpers". Reference kinds are narrowed to the four
// canonical forms the checker produces (Ident, TypedObject, ArrayLen,
// Array) -- the IR builder never sees an Object/ObjectSelf node.
package tast

import "github.com/kowaalczyk/latte-sub000/internal/types"

type Program struct {
	Classes   []*ClassDecl
	Functions []*FuncDecl
}

type Param struct {
	Type types.Type
	Name string
}

type FuncDecl struct {
	Name     string
	Ret      types.Type
	Params   []Param
	Body     *Block
	// OwnerClass is non-empty for methods, naming the declaring class.
	OwnerClass string
}

type FieldDecl struct {
	Type types.Type
	Name string
}

type ClassDecl struct {
	Name    string
	Parent  string
	Fields  []*FieldDecl
	Methods []*FuncDecl
}

type Block struct {
	Stmts []Stmt
	// Typ is the block's exit type: the type of its last statement,
	// per §4.4 "Control-flow typing".
	Typ types.Type
}

type Stmt interface {
	stmtNode()
	ExitType() types.Type
}

type StmtBase struct{ Typ types.Type }

func (StmtBase) stmtNode()              {}
func (s StmtBase) ExitType() types.Type { return s.Typ }

type EmptyStmt struct{ StmtBase }

type BlockStmt struct {
	StmtBase
	Block *Block
}

type DeclItem struct {
	Name string
	Init Expr // nil if no initializer
}

type DeclStmt struct {
	StmtBase
	Type  types.Type
	Items []DeclItem
}

type AssignStmt struct {
	StmtBase
	Target Ref
	Value  Expr
}

type IncDecStmt struct {
	StmtBase
	Target Ref
	Inc    bool
}

type ReturnStmt struct {
	StmtBase
	Value Expr // nil for bare return
}

type IfStmt struct {
	StmtBase
	Cond Expr
	Then Stmt
	Else Stmt
}

type WhileStmt struct {
	StmtBase
	Cond Expr
	Body Stmt
}

// ForEachStmt is type-checked here but desugared into the index-based
// while loop only during IR lowering (§4.8), since that rewrite needs a
// fresh synthetic induction-variable name scoped to the function being
// lowered, which is internal/context's concern, not the checker's.
type ForEachStmt struct {
	StmtBase
	ElemType types.Type
	Var      string
	Array    Expr
	Body     Stmt
}

type ExprStmt struct {
	StmtBase
	Expr Expr
}

// Ref is the checker's canonical reference-kind union (§3 "Reference
// kinds", post-rewrite): Ident, TypedObject, ArrayLen, Array.
type Ref interface {
	refNode()
	Type() types.Type
}

type RefBase struct{ Typ types.Type }

func (RefBase) refNode()            {}
func (r RefBase) Type() types.Type { return r.Typ }

// Ident is a local variable or function parameter.
type Ident struct {
	RefBase
	Name string
}

// TypedObject is `obj.field` or `self.field`, resolved to the declaring
// class (possibly an ancestor) per §4.4's rewrite rules.
type TypedObject struct {
	RefBase
	Obj   Expr
	Class string // the resolved, possibly-ancestor class that declares Field
	Field string
}

// ArrayLen is `arr.length`, rewritten from Object{obj,"length"}.
type ArrayLen struct {
	RefBase
	Arr Expr
}

// Array is `arr[idx]`.
type Array struct {
	RefBase
	Arr   Expr
	Index Expr
}

type Expr interface {
	exprNode()
	Type() types.Type
}

type ExprBase struct{ Typ types.Type }

func (ExprBase) exprNode()           {}
func (e ExprBase) Type() types.Type { return e.Typ }

type IntLit struct {
	ExprBase
	Value int32
}

type BoolLit struct {
	ExprBase
	Value bool
}

type StringLit struct {
	ExprBase
	Value string
}

// NullLit is a bare `null`; the checker always gives it the Null type.
// A null of class or array type is a CastNullExpr instead.
type NullLit struct {
	ExprBase
}

type RefExpr struct {
	ExprBase
	Ref Ref
}

type UnaryOp int

const (
	UnaryNeg UnaryOp = iota
	UnaryNot
)

type UnaryExpr struct {
	ExprBase
	Op  UnaryOp
	Arg Expr
}

type BinOp int

const (
	BinAdd BinOp = iota
	BinSub
	BinMul
	BinDiv
	BinMod
	BinLt
	BinLe
	BinGt
	BinGe
	BinEq
	BinNe
	BinAnd
	BinOr
)

type BinaryExpr struct {
	ExprBase
	Op    BinOp
	Left  Expr
	Right Expr
}

type CallExpr struct {
	ExprBase
	Func string
	Args []Expr
	// OwnerClass is non-empty for method calls resolved via self.
	OwnerClass string
}

type NewObjectExpr struct {
	ExprBase
	Class string
}

type NewArrayExpr struct {
	ExprBase
	ElemType types.Type
	Size     Expr
}

type CastNullExpr struct {
	ExprBase
}
