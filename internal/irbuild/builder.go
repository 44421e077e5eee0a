// Package irbuild implements spec.md §4.6-4.8: the block builder (phi
// insertion and register renumbering, the hardest subsystem per §2) and
// the expression/statement/function/class lowering built on top of it.
//
// Grounded on _examples/original_source/src/backend/builder.rs (the
// IncrementMapper / MapEntities machinery and its
// block_entities_are_mapped unit test) and
// _examples/original_source/src/backend/compiler/function.rs (the
// FunctionCompiler's expression/statement lowering).
package irbuild

import (
	"sort"

	"github.com/kowaalczyk/latte-sub000/internal/context"
	"github.com/kowaalczyk/latte-sub000/internal/ir"
)

// BlockBuilder accumulates one basic block's instructions while lowering
// visits blocks in emission order, then resolves phi insertion when the
// block is closed (§4.6).
type BlockBuilder struct {
	label string
	fctx  *context.FunctionContext

	predOrder []string
	preds     map[string]map[string]ir.Entity // predecessor label -> var name -> entity
	instrs    []ir.Instruction
}

func NewBlockBuilder(label string, fctx *context.FunctionContext) *BlockBuilder {
	return &BlockBuilder{label: label, fctx: fctx, preds: make(map[string]map[string]ir.Entity)}
}

func (b *BlockBuilder) Label() string { return b.label }

// AddPredecessor registers one incoming edge's variable environment. Per
// §4.6, this must be called once per incoming edge before any instruction
// that may read a variable is pushed.
func (b *BlockBuilder) AddPredecessor(label string, env map[string]ir.Entity) {
	if _, ok := b.preds[label]; !ok {
		b.predOrder = append(b.predOrder, label)
	}
	b.preds[label] = env
}

func (b *BlockBuilder) Emit(instr ir.Instruction) {
	b.instrs = append(b.instrs, instr)
}

func (b *BlockBuilder) Terminated() bool {
	if len(b.instrs) == 0 {
		return false
	}
	switch b.instrs[len(b.instrs)-1].Kind {
	case ir.RetVal, ir.RetVoid, ir.Jump, ir.JumpCond:
		return true
	default:
		return false
	}
}

// phiVar is one variable requiring a phi, with its deterministic ordering
// key and its per-predecessor incoming values.
type phiVar struct {
	name     string
	typ      ir.Entity // any one of the incoming entities, to read its Type()
	incoming []ir.PhiIncoming
}

// identityPatch is returned by Build when no phi was inserted, so callers
// that unconditionally reuse the third return value (e.g. while-loop
// lowering patching its body block) don't need a nil check.
func identityPatch(blk *ir.BasicBlock) *ir.BasicBlock { return blk }

// Build resolves phi insertion (§4.6 steps 1-5) and returns: the finished
// block; the post-build variable bindings a caller should fold back into
// its scope (phi results for multi-predecessor variables, or the single
// predecessor's values when there was only one edge); and a patch
// function that reapplies this same substitution to another block. The
// third return exists for loops: §4.6's closing paragraph describes
// reusing "the same renumbering machinery... to patch the previous block
// (a loop's body)" once the cond block's phis are known.
func (b *BlockBuilder) Build() (*ir.BasicBlock, map[string]ir.Entity, func(*ir.BasicBlock) *ir.BasicBlock) {
	if len(b.predOrder) < 2 {
		out := &ir.BasicBlock{Label: b.label, Instr: b.instrs}
		var env map[string]ir.Entity
		if len(b.predOrder) == 1 {
			env = b.preds[b.predOrder[0]]
		}
		return out, env, identityPatch
	}

	// Step 2: collect every variable seen in any predecessor, and decide
	// whether it needs a phi (distinct entities, compared by content).
	varNames := map[string]bool{}
	for _, env := range b.preds {
		for name := range env {
			varNames[name] = true
		}
	}
	var names []string
	for n := range varNames {
		names = append(names, n)
	}
	sort.Strings(names) // deterministic order, per §4.6 step 3 "in deterministic order"

	var phis []phiVar
	for _, name := range names {
		var incoming []ir.PhiIncoming
		distinct := map[int]ir.Entity{} // dedup index -> representative, by content-equality scan
		for _, predLabel := range b.predOrder {
			env, ok := b.preds[predLabel]
			if !ok {
				continue
			}
			ent, ok := env[name]
			if !ok {
				continue
			}
			incoming = append(incoming, ir.PhiIncoming{Value: ent, Label: predLabel})
			isNew := true
			for _, d := range distinct {
				if d.Equal(ent) {
					isNew = false
					break
				}
			}
			if isNew {
				distinct[len(distinct)] = ent
			}
		}
		if len(distinct) >= 2 {
			phis = append(phis, phiVar{name: name, typ: incoming[0].Value, incoming: incoming})
		}
	}

	if len(phis) == 0 {
		// No disagreement: forward the union of predecessor bindings
		// (they all agree on content, so any one representative works).
		merged := map[string]ir.Entity{}
		for _, predLabel := range b.predOrder {
			for name, ent := range b.preds[predLabel] {
				merged[name] = ent
			}
		}
		return &ir.BasicBlock{Label: b.label, Instr: b.instrs}, merged, identityPatch
	}

	cyclicShift := len(phis)

	// Determine first_body_reg: the lowest register number already
	// claimed by an instruction emitted into this block before Build was
	// called (loops and forward edges mean the body is often emitted
	// before the join's predecessors are all known).
	firstBodyReg, hasBodyReg := 0, false
	for _, instr := range b.instrs {
		if instr.Result != nil {
			if !hasBodyReg || instr.Result.N < firstBodyReg {
				firstBodyReg = instr.Result.N
				hasBodyReg = true
			}
		}
	}

	phiResultRegs := make([]int, len(phis))
	if hasBodyReg {
		for i := range phis {
			phiResultRegs[i] = firstBodyReg + i
		}
		b.fctx.SkipRegisters(cyclicShift)
	} else {
		for i := range phis {
			phiResultRegs[i] = b.fctx.NewRegister()
		}
	}

	// Step 4a: increment mapper -- shift every register >= first_body_reg
	// up by cyclic_shift, so the reserved low numbers belong to the phis.
	shiftEntity := func(e ir.Entity) ir.Entity {
		if r, ok := e.(ir.Register); ok && hasBodyReg && r.N >= firstBodyReg {
			return ir.Register{N: r.N + cyclicShift, Typ: r.Typ}
		}
		return e
	}

	// Step 4b: direct mapping -- predecessor entity -> phi result register.
	// Matching is by content-equality (Entity.Equal), so substitution
	// naturally stops applying once a variable is reassigned within the
	// block: the reassigned value is a distinct entity that no longer
	// matches any recorded predecessor entity.
	type sub struct {
		from ir.Entity
		to   ir.Entity
	}
	var subs []sub
	for i, p := range phis {
		reg := ir.Register{N: phiResultRegs[i], Typ: p.typ.Type()}
		for _, in := range p.incoming {
			subs = append(subs, sub{from: in.Value, to: reg})
		}
	}
	substitute := func(e ir.Entity) ir.Entity {
		if e == nil {
			return e
		}
		shifted := shiftEntity(e)
		for _, s := range subs {
			if s.from.Equal(e) {
				return s.to
			}
		}
		return shifted
	}

	newInstrs := make([]ir.Instruction, len(b.instrs))
	for i, instr := range b.instrs {
		newInstrs[i] = mapInstrEntities(instr, substitute, shiftEntity)
	}

	phiInstrs := make([]ir.Instruction, len(phis))
	for i, p := range phis {
		reg := ir.Register{N: phiResultRegs[i], Typ: p.typ.Type()}
		phiInstrs[i] = ir.Instruction{Kind: ir.Phi, Result: &reg, Incoming: p.incoming}
	}

	finalInstrs := append(phiInstrs, newInstrs...)

	outEnv := map[string]ir.Entity{}
	for _, predLabel := range b.predOrder {
		for name, ent := range b.preds[predLabel] {
			outEnv[name] = ent
		}
	}
	for i, p := range phis {
		outEnv[p.name] = ir.Register{N: phiResultRegs[i], Typ: p.typ.Type()}
	}

	patch := func(blk *ir.BasicBlock) *ir.BasicBlock {
		patched := make([]ir.Instruction, len(blk.Instr))
		for i, instr := range blk.Instr {
			patched[i] = mapInstrEntities(instr, substitute, shiftEntity)
		}
		return &ir.BasicBlock{Label: blk.Label, Instr: patched}
	}

	return &ir.BasicBlock{Label: b.label, Instr: finalInstrs}, outEnv, patch
}

// mapInstrEntities applies substitute to every entity-valued operand
// field of instr, and shiftResult to its result register, if any. This is
// the Go shape of the Rust original's MapEntities trait impl for
// Instruction.
func mapInstrEntities(instr ir.Instruction, substitute func(ir.Entity) ir.Entity, shiftResult func(ir.Entity) ir.Entity) ir.Instruction {
	out := instr
	if instr.Result != nil {
		if shifted, ok := shiftResult(*instr.Result).(ir.Register); ok {
			out.Result = &shifted
		}
	}
	out.Operand = mapMaybe(instr.Operand, substitute)
	out.Dest = mapMaybe(instr.Dest, substitute)
	out.Lhs = mapMaybe(instr.Lhs, substitute)
	out.Rhs = mapMaybe(instr.Rhs, substitute)
	out.Cond = mapMaybe(instr.Cond, substitute)
	out.RetValue = mapMaybe(instr.RetValue, substitute)
	out.Base = mapMaybe(instr.Base, substitute)
	out.Index = mapMaybe(instr.Index, substitute)
	if instr.Args != nil {
		args := make([]ir.Entity, len(instr.Args))
		for i, a := range instr.Args {
			args[i] = mapMaybe(a, substitute)
		}
		out.Args = args
	}
	if instr.Incoming != nil {
		inc := make([]ir.PhiIncoming, len(instr.Incoming))
		for i, in := range instr.Incoming {
			inc[i] = ir.PhiIncoming{Value: mapMaybe(in.Value, substitute), Label: in.Label}
		}
		out.Incoming = inc
	}
	return out
}

func mapMaybe(e ir.Entity, f func(ir.Entity) ir.Entity) ir.Entity {
	if e == nil {
		return nil
	}
	return f(e)
}
