package compiler

import (
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/kr/pretty"

	"github.com/kowaalczyk/latte-sub000/internal/context"
	"github.com/kowaalczyk/latte-sub000/internal/ir"
	"github.com/kowaalczyk/latte-sub000/internal/tast"
	"github.com/kowaalczyk/latte-sub000/internal/types"
)

// debugDump builds the LATTE_DEBUG=1 dump: the typed AST and lowered
// module via kr/pretty (richer than %+v's single-line dumps), plus a
// human-legible size next to every class/array layout so a multi-field
// class's footprint is legible at a glance rather than a raw byte count.
func debugDump(tprog *tast.Program, mod *ir.Module, gctx *context.GlobalContext) string {
	var sb strings.Builder

	sb.WriteString("=== typed program ===\n")
	fmt.Fprintf(&sb, "%# v\n\n", pretty.Formatter(tprog))

	sb.WriteString("=== struct layouts ===\n")
	for _, lay := range gctx.AllLayouts() {
		size := estimateSize(lay)
		fmt.Fprintf(&sb, "%-24s %3d field(s)  ~%s\n", lay.Name, len(lay.Fields), humanize.Bytes(size))
	}
	sb.WriteString("\n=== lowered module ===\n")
	fmt.Fprintf(&sb, "%# v\n", pretty.Formatter(mod))

	return sb.String()
}

// estimateSize renders an indicative (not authoritative -- the real
// layout is computed by the external runtime and bound through the
// @size.* symbol per §4.5) byte footprint for a struct layout, assuming a
// 32-bit word per value field and a 64-bit pointer per reference field.
func estimateSize(lay *context.StructLayout) uint64 {
	var n uint64
	for _, f := range lay.Fields {
		if f.Type.IsReference() || f.Type.Kind == types.Str {
			n += 8
		} else {
			n += 4
		}
	}
	return n
}
