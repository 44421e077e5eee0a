// Package lexer defines the token scanner that feeds internal/parser's
// participle grammar. spec.md §1 explicitly treats "the grammar and
// concrete parser generator" as an external collaborator, so this package
// is a thin wrapper around participle/v2's stateless lexer rather than the
// teacher's hand-rolled scanner.go — the pack's own precedent for this
// technique is kanso-lang-kanso/grammar/lexer.go, which drives a real
// third-party grammar library with a token table shaped like this one.
package lexer

import (
	"github.com/alecthomas/participle/v2/lexer"
)

// Definition is the token set shared by every Latte source file. Order
// matters: participle tries rules top to bottom, so keywords must be
// matched by the identifier rule (participle's lexer doesn't special-case
// keywords; the grammar distinguishes them via literal string matches on
// the Ident token).
var Definition = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Comment", Pattern: `//[^\n]*|#[^\n]*|/\*[\s\S]*?\*/`},
	{Name: "Whitespace", Pattern: `\s+`},
	{Name: "Float", Pattern: `\d+\.\d+`},
	{Name: "Int", Pattern: `\d+`},
	{Name: "String", Pattern: `"(\\.|[^"\\])*"`},
	{Name: "Ident", Pattern: `[a-zA-Z_][a-zA-Z0-9_]*`},
	{Name: "Punct", Pattern: `<=|>=|==|!=|&&|\|\||\+\+|--|[-+*/%<>=!(){}\[\];,.]`},
})
