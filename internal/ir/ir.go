// Package ir defines the SSA-form intermediate representation of spec.md
// §3: entities, instructions, basic blocks, and function/string
// declarations. internal/irbuild constructs these from the typed AST;
// internal/emit translates them to github.com/llir/llvm and prints them.
//
// Grounded on _examples/original_source/src/backend/ir/ir.rs and
// display.rs for the authoritative shapes (the repo's two earlier,
// allocation-based IR designs in latte_lib/ are the "partial rewrite
// cruft" spec.md §9 tells implementers to discard).
package ir

import (
	"github.com/google/uuid"

	"github.com/kowaalczyk/latte-sub000/internal/types"
)

// Entity is the carrier of an SSA value (§3 "IR entities").
type Entity interface {
	entityNode()
	Type() types.Type
	// Equal implements the content-equality the block builder (§4.6) uses
	// to decide whether two predecessors disagree on a variable's value.
	// Two constants with different uuids are never equal, even if their
	// literal value and type match (§9 "Constant uuids").
	Equal(Entity) bool
}

type Null struct {
	UUID uuid.UUID
	Typ  types.Type
}

func (Null) entityNode()       {}
func (n Null) Type() types.Type { return n.Typ }
func (n Null) Equal(o Entity) bool {
	on, ok := o.(Null)
	return ok && on.UUID == n.UUID
}

type IntConst struct {
	Value int32
	UUID  uuid.UUID
}

func (IntConst) entityNode()       {}
func (IntConst) Type() types.Type  { return types.T(types.Int) }
func (c IntConst) Equal(o Entity) bool {
	oc, ok := o.(IntConst)
	return ok && oc.UUID == c.UUID
}

type BoolConst struct {
	Value bool
	UUID  uuid.UUID
}

func (BoolConst) entityNode()      {}
func (BoolConst) Type() types.Type { return types.T(types.Bool) }
func (c BoolConst) Equal(o Entity) bool {
	oc, ok := o.(BoolConst)
	return ok && oc.UUID == c.UUID
}

// Register is an SSA value produced by some instruction within the
// current function.
type Register struct {
	N   int
	Typ types.Type
}

func (Register) entityNode()        {}
func (r Register) Type() types.Type { return r.Typ }
func (r Register) Equal(o Entity) bool {
	or, ok := o.(Register)
	return ok && or.N == r.N && or.Typ.Equal(r.Typ)
}

// NamedRegister is a function argument, bound by name rather than number.
type NamedRegister struct {
	Name string
	Typ  types.Type
}

func (NamedRegister) entityNode()        {}
func (r NamedRegister) Type() types.Type { return r.Typ }
func (r NamedRegister) Equal(o Entity) bool {
	or, ok := o.(NamedRegister)
	return ok && or.Name == r.Name
}

// GlobalConstInt names a runtime-provided integer symbol, e.g. a class's
// size constant (§4.5).
type GlobalConstInt struct {
	Name string
}

func (GlobalConstInt) entityNode()       {}
func (GlobalConstInt) Type() types.Type  { return types.T(types.Int) }
func (c GlobalConstInt) Equal(o Entity) bool {
	oc, ok := o.(GlobalConstInt)
	return ok && oc.Name == c.Name
}

// InstrKind tags an Instruction (§3 "Instruction").
type InstrKind int

const (
	Alloc InstrKind = iota
	Load
	Store
	LoadConst
	BitCast
	UnaryOp
	BinaryOp
	Call
	RetVal
	RetVoid
	JumpCond
	Jump
	Phi
	GetStructElementPtr
	GetArrayElementPtr
)

type UnaryOperator int

const (
	OpNeg UnaryOperator = iota
	OpNot
)

type BinaryOperator int

const (
	OpAdd BinaryOperator = iota
	OpSub
	OpMul
	OpDiv
	OpMod
	OpLt
	OpLe
	OpGt
	OpGe
	OpEq
	OpNe
)

// PhiIncoming is one (value, predecessor label) pair of a Phi instruction.
type PhiIncoming struct {
	Value Entity
	Label string
}

// Instruction is a tagged union; only the fields relevant to Kind are
// populated. Result is the register an instruction's value is bound to,
// nil for void instructions (Store, RetVal, RetVoid, Jump, JumpCond, Call
// to a void function).
type Instruction struct {
	Kind   InstrKind
	Result *Register

	// Alloc / GEP / BitCast operand type
	ElemType types.Type

	// Load/Store/BitCast/UnaryOp operand
	Operand Entity
	// Store destination (the pointer being written through)
	Dest Entity

	// LoadConst
	ConstName string

	UnaryOp  UnaryOperator
	BinaryOp BinaryOperator
	Lhs, Rhs Entity

	// Call
	Callee string
	Args   []Entity

	// RetVal
	RetValue Entity

	// Jump / JumpCond
	Cond        Entity
	TrueLabel   string
	FalseLabel  string
	TargetLabel string

	// Phi
	Incoming []PhiIncoming

	// GetStructElementPtr / GetArrayElementPtr
	Base       Entity
	FieldIndex int
	Index      Entity
}

// BasicBlock is a label plus an ordered instruction list, whose last
// instruction must be a terminator (§3 "Basic block").
type BasicBlock struct {
	Label string
	Instr []Instruction
}

func (b *BasicBlock) IsTerminated() bool {
	if len(b.Instr) == 0 {
		return false
	}
	switch b.Instr[len(b.Instr)-1].Kind {
	case RetVal, RetVoid, Jump, JumpCond:
		return true
	default:
		return false
	}
}

// FuncArg is one declared parameter of a FunctionDef.
type FuncArg struct {
	Name string
	Typ  types.Type
}

// FunctionDef is a fully lowered function or method (§3 "Function
// definition").
type FunctionDef struct {
	Name    string
	Ret     types.Type
	Args    []FuncArg
	Blocks  []*BasicBlock
}

// StringDecl is one entry of the string constant pool, ready for emission.
type StringDecl struct {
	Name    string
	Literal string
	Len     int
}

// Module is the whole lowered program: struct layouts are carried
// separately by internal/context.GlobalContext, which internal/emit
// consults alongside this Module when pretty-printing.
type Module struct {
	Strings   []StringDecl
	Functions []*FunctionDef
}
