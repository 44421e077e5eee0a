// Package errors implements the tagged, location-carrying error model of
// spec.md §7: every stage accumulates errors rather than failing fast, and
// the whole program is rejected atomically once any stage produced one.
package errors

import (
	"fmt"
	"strings"

	"github.com/kowaalczyk/latte-sub000/internal/types"
	pkgerrors "github.com/pkg/errors"
)

// Kind is one of the five tagged error kinds from §7.
type Kind string

const (
	ParseErrorKind    Kind = "ParseError"
	EnvErrorKind      Kind = "EnvError"
	TypeErrorKind     Kind = "TypeError"
	ArgumentErrorKind Kind = "ArgumentError"
	SystemErrorKind   Kind = "SystemError"
)

// Location is a byte offset into the (possibly comment-stripped) source,
// translated to a Position by internal/srcmap before final rendering.
type Location struct {
	Offset int
}

// Position is a resolved file/line/column, ready for §6's one-line
// "file:line:col: Kind: message" form.
type Position struct {
	File string
	Line int
	Col  int
}

// CompileError is a single diagnostic. Expected/Actual are populated only
// for TypeErrorKind. Source holds the offending line, used only by the
// optional caret rendering (WithSource / Explain).
type CompileError struct {
	Kind     Kind
	Message  string
	Loc      Location
	Expected *types.Type
	Actual   *types.Type

	Pos    Position
	Source string
}

func (e *CompileError) Error() string {
	if e.Pos.File == "" {
		return fmt.Sprintf("%s: %s", e.Kind, e.Message)
	}
	return fmt.Sprintf("%s:%d:%d: %s: %s", e.Pos.File, e.Pos.Line, e.Pos.Col, e.Kind, e.Message)
}

// Explain renders the caret-style multi-line diagnostic: the one-line
// form, then the offending source line (when WithSource attached one)
// with a caret under the column. Neither internal/compiler nor cmd/latte
// calls it; the CLI prints only the one-line form.
func (e *CompileError) Explain() string {
	var sb strings.Builder
	sb.WriteString(e.Error())
	if e.Source != "" {
		sb.WriteByte('\n')
		prefix := fmt.Sprintf("  %d | ", e.Pos.Line)
		sb.WriteString(prefix)
		sb.WriteString(e.Source)
		sb.WriteByte('\n')
		sb.WriteString(strings.Repeat(" ", len(prefix)))
		if e.Pos.Col > 0 {
			sb.WriteString(strings.Repeat(" ", e.Pos.Col-1))
		}
		sb.WriteString("^\n")
	}
	return sb.String()
}

func New(kind Kind, loc Location, format string, args ...interface{}) *CompileError {
	return &CompileError{Kind: kind, Message: fmt.Sprintf(format, args...), Loc: loc}
}

// NewTypeError builds the canonical "expected X, actual Y" diagnostic used
// throughout §4.4.
func NewTypeError(loc Location, expected, actual types.Type) *CompileError {
	e, a := expected, actual
	return &CompileError{
		Kind:     TypeErrorKind,
		Message:  fmt.Sprintf("expected %s, actual %s", expected, actual),
		Loc:      loc,
		Expected: &e,
		Actual:   &a,
	}
}

// WithPosition stamps the final file/line/column onto an error, once its
// byte offset has been translated (see internal/srcmap.Resolve).
func (e *CompileError) WithPosition(pos Position) *CompileError {
	e.Pos = pos
	return e
}

// WithSource attaches the offending source line for Explain.
func (e *CompileError) WithSource(line string) *CompileError {
	e.Source = line
	return e
}

// Wrap adapts an external failure (file I/O, subprocess invocation) into a
// SystemError, preserving the underlying cause via pkg/errors so callers
// can still unwrap down to the root cause with pkgerrors.Cause.
func Wrap(err error, format string, args ...interface{}) *CompileError {
	wrapped := pkgerrors.Wrapf(err, format, args...)
	return &CompileError{Kind: SystemErrorKind, Message: wrapped.Error()}
}

// List is an accumulator of errors shared by every stage (§7: "do not
// short-circuit within a stage, only between stages").
type List []*CompileError

func (l List) Error() string {
	if len(l) == 0 {
		return ""
	}
	s := l[0].Error()
	for _, e := range l[1:] {
		s += "\n" + e.Error()
	}
	return s
}

func (l List) HasErrors() bool { return len(l) > 0 }

func (l *List) Add(e *CompileError) {
	*l = append(*l, e)
}

func (l *List) AddAll(other List) {
	*l = append(*l, other...)
}
