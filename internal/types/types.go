// Package types defines the closed set of Latte type tags shared by the
// checker, the IR builder, and the pretty-printer.
package types

import "fmt"

// Kind distinguishes the members of the closed type tag set from §3.
type Kind int

const (
	Invalid Kind = iota
	Int
	Str
	Bool
	Void
	Null
	Class
	Array
	Function
	Reference

	// Any and Object are matcher-only: the checker never assigns them to
	// an expression, it only uses them to render "expected" types in
	// diagnostics (eg. "expected any, actual Int").
	Any
	Object

	// Error is a propagation sentinel permitted only inside error paths.
	// Reaching it during IR lowering is a bug, not a user-facing error.
	Error
)

// Type is a value type: two Types are equal iff their Kind and payload
// fields match, per §3 "value-equality tag set".
type Type struct {
	Kind Kind

	// ClassName is set when Kind == Class.
	ClassName string

	// Item is set when Kind == Array or Kind == Reference.
	Item *Type

	// ArgTypes/Ret are set when Kind == Function.
	ArgTypes []Type
	Ret      *Type
}

func T(k Kind) Type { return Type{Kind: k} }

func NewClass(name string) Type { return Type{Kind: Class, ClassName: name} }

func NewArray(item Type) Type { return Type{Kind: Array, Item: &item} }

func NewReference(item Type) Type { return Type{Kind: Reference, Item: &item} }

func NewFunction(args []Type, ret Type) Type {
	return Type{Kind: Function, ArgTypes: args, Ret: &ret}
}

// Equal implements the value-equality required by §3: constants and
// registers of differing types must never compare equal even if their
// Kind matches (eg. two different class names).
func (t Type) Equal(o Type) bool {
	if t.Kind != o.Kind {
		return false
	}
	switch t.Kind {
	case Class:
		return t.ClassName == o.ClassName
	case Array, Reference:
		return t.Item.Equal(*o.Item)
	case Function:
		if t.Ret == nil || o.Ret == nil || !t.Ret.Equal(*o.Ret) {
			return false
		}
		if len(t.ArgTypes) != len(o.ArgTypes) {
			return false
		}
		for i := range t.ArgTypes {
			if !t.ArgTypes[i].Equal(o.ArgTypes[i]) {
				return false
			}
		}
		return true
	default:
		return true
	}
}

func (t Type) IsReference() bool {
	switch t.Kind {
	case Class, Array, Reference:
		return true
	default:
		return false
	}
}

// AsReference wraps t in one level of pointer indirection, mirroring the
// Rust original's `Type::reference()` helper used when computing GEP
// result types.
func (t Type) AsReference() Type { return NewReference(t) }

func (t Type) String() string {
	switch t.Kind {
	case Int:
		return "Int"
	case Str:
		return "Str"
	case Bool:
		return "Bool"
	case Void:
		return "Void"
	case Null:
		return "Null"
	case Class:
		return t.ClassName
	case Array:
		return fmt.Sprintf("%s[]", t.Item)
	case Function:
		return fmt.Sprintf("function(...)->%s", t.Ret)
	case Reference:
		return fmt.Sprintf("%s*", t.Item)
	case Any:
		return "any"
	case Object:
		return "object"
	case Error:
		return "<error>"
	default:
		return "<invalid>"
	}
}
