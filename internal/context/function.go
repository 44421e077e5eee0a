package context

import "github.com/google/uuid"

// FunctionContext owns the fresh-name sources scoped to one function
// lowering: the SSA register counter (starts at 1) and the constant-uuid
// source. §9 "Constant uuids" asks for a per-function monotonic id
// stamped on every constant at creation and re-stamped on every
// bind/assign; SPEC_FULL.md's domain-stack wiring realizes that id as a
// real github.com/google/uuid.UUID rather than a bare counter, since two
// uuid.New() values are exactly as distinguishable as two monotonic ints
// for the builder's entity-equality test in §4.6.
type FunctionContext struct {
	nextReg int
}

func NewFunctionContext() *FunctionContext {
	return &FunctionContext{nextReg: 1}
}

// NewRegister allocates the next SSA register number.
func (f *FunctionContext) NewRegister() int {
	n := f.nextReg
	f.nextReg++
	return n
}

// PeekRegister reports the next register number that NewRegister would
// return, without consuming it — used by the block builder (§4.6) to
// decide whether the block's first non-phi instruction already claimed
// the register a phi would otherwise reuse.
func (f *FunctionContext) PeekRegister() int { return f.nextReg }

// SkipRegisters reserves n register numbers (used when the block builder
// shifts a block's body upward by cyclic_shift).
func (f *FunctionContext) SkipRegisters(n int) { f.nextReg += n }

// NewUUID mints a fresh identity for a constant entity. Every call,
// for literals and zero values alike, returns a newly generated random
// uuid.
func (f *FunctionContext) NewUUID() uuid.UUID {
	return uuid.New()
}
