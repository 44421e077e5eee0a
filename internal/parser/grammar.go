// Package parser builds internal/ast trees from comment-stripped Latte
// source, using github.com/alecthomas/participle/v2 as the grammar/parser
// generator that spec.md §1 calls out as an external collaborator. The
// struct-tag grammar and Pos-field convention below are grounded on
// kanso-lang-kanso/grammar/shared.go's `Pos lexer.Position` pattern, the
// one pack repo that drives this exact third-party library.
package parser

import (
	"github.com/alecthomas/participle/v2"
	plexer "github.com/alecthomas/participle/v2/lexer"

	"github.com/kowaalczyk/latte-sub000/internal/lexer"
)

// grammarProgram is the participle-tagged concrete syntax produced by
// parsing; Parse (build.go) walks it into the clean internal/ast tree so the rest of
// the compiler never depends on participle's types.
type grammarProgram struct {
	Pos   plexer.Position
	Items []*grammarTopItem `@@*`
}

type grammarTopItem struct {
	Pos   plexer.Position
	Class *grammarClass `  @@`
	Func  *grammarFunc  `| @@`
}

type grammarType struct {
	Pos   plexer.Position
	Name  string `@("int" | "string" | "boolean" | "void" | Ident)`
	Array bool   `@("[" "]")?`
}

type grammarParam struct {
	Pos  plexer.Position
	Type *grammarType `@@`
	Name string       `@Ident`
}

type grammarFunc struct {
	Pos    plexer.Position
	Ret    *grammarType     `@@`
	Name   string           `@Ident`
	Params []*grammarParam  `"(" (@@ ("," @@)*)? ")"`
	Body   *grammarBlock    `@@`
}

type grammarField struct {
	Pos  plexer.Position
	Type *grammarType `@@`
	Name string       `@Ident ";"`
}

type grammarClassMember struct {
	Pos    plexer.Position
	Method *grammarFunc  `  @@`
	Field  *grammarField `| @@`
}

type grammarClass struct {
	Pos     plexer.Position
	Name    string                 `"class" @Ident`
	Parent  string                 `("extends" @Ident)?`
	Members []*grammarClassMember  `"{" @@* "}"`
}

type grammarBlock struct {
	Pos   plexer.Position
	Stmts []*grammarStmt `"{" @@* "}"`
}

// grammarStmt covers every statement form as optional alternatives;
// exactly one field is non-nil after a successful parse.
type grammarStmt struct {
	Pos Pos

	Block    *grammarBlock    `  @@`
	Decl     *grammarDecl     `| @@`
	If       *grammarIf       `| @@`
	While    *grammarWhile    `| @@`
	ForEach  *grammarForEach  `| @@`
	Return   *grammarReturn   `| @@`
	IncDec   *grammarIncDec   `| @@`
	Assign   *grammarAssign   `| @@`
	ExprStmt *grammarExprStmt `| @@`
	Empty    *grammarEmpty    `| @@`
}

type Pos = plexer.Position

type grammarEmpty struct {
	Pos plexer.Position
	Semi bool `@";"`
}

type grammarDeclItem struct {
	Pos  plexer.Position
	Name string       `@Ident`
	Init *grammarExpr `("=" @@)?`
}

type grammarDecl struct {
	Pos   plexer.Position
	Type  *grammarType       `@@`
	Items []*grammarDeclItem `@@ ("," @@)* ";"`
}

type grammarIf struct {
	Pos  plexer.Position
	Cond *grammarExpr `"if" "(" @@ ")"`
	Then *grammarStmt  `@@`
	Else *grammarStmt  `("else" @@)?`
}

type grammarWhile struct {
	Pos  plexer.Position
	Cond *grammarExpr `"while" "(" @@ ")"`
	Body *grammarStmt  `@@`
}

type grammarForEach struct {
	Pos      plexer.Position
	ElemType *grammarType `"for" "(" @@`
	Var      string       `@Ident ":"`
	Array    *grammarExpr `@@ ")"`
	Body     *grammarStmt  `@@`
}

type grammarReturn struct {
	Pos   plexer.Position
	Value *grammarExpr `"return" @@? ";"`
}

type grammarIncDec struct {
	Pos    plexer.Position
	Target *grammarRef `@@`
	Op     string      `@("++" | "--") ";"`
}

type grammarAssign struct {
	Pos    plexer.Position
	Target *grammarRef  `@@ "="`
	Value  *grammarExpr `@@ ";"`
}

type grammarExprStmt struct {
	Pos  plexer.Position
	Expr *grammarExpr `@@ ";"`
}

// grammarRef is a restricted expression grammar for assignment/incdec
// targets: Ident, Object (a.b), ObjectSelf (self.b, via "self" "." Ident),
// Array (a[i]). It reuses grammarPrimary's postfix-chain parsing by
// parsing a primary expression and requiring it reduce to a Ref.
type grammarRef struct {
	Pos    plexer.Position
	Target *grammarPostfix `@@`
}

// Binary expression precedence, lowest to highest: Or, And, Equality,
// Relational, Additive, Multiplicative, Unary, Postfix, Primary.
type grammarExpr struct {
	Pos   plexer.Position
	Left  *grammarAnd   `@@`
	Rest  []*grammarOrRest `@@*`
}

type grammarOrRest struct {
	Pos  plexer.Position
	Op   string      `@"||"`
	Rhs  *grammarAnd `@@`
}

type grammarAnd struct {
	Pos  plexer.Position
	Left *grammarEquality   `@@`
	Rest []*grammarAndRest  `@@*`
}

type grammarAndRest struct {
	Pos plexer.Position
	Op  string          `@"&&"`
	Rhs *grammarEquality `@@`
}

type grammarEquality struct {
	Pos  plexer.Position
	Left *grammarRelational  `@@`
	Rest []*grammarEqRest    `@@*`
}

type grammarEqRest struct {
	Pos plexer.Position
	Op  string            `@("==" | "!=")`
	Rhs *grammarRelational `@@`
}

type grammarRelational struct {
	Pos  plexer.Position
	Left *grammarAdditive  `@@`
	Rest []*grammarRelRest `@@*`
}

type grammarRelRest struct {
	Pos plexer.Position
	Op  string           `@("<=" | ">=" | "<" | ">")`
	Rhs *grammarAdditive `@@`
}

type grammarAdditive struct {
	Pos  plexer.Position
	Left *grammarMultiplicative `@@`
	Rest []*grammarAddRest      `@@*`
}

type grammarAddRest struct {
	Pos plexer.Position
	Op  string                 `@("+" | "-")`
	Rhs *grammarMultiplicative `@@`
}

type grammarMultiplicative struct {
	Pos  plexer.Position
	Left *grammarUnary     `@@`
	Rest []*grammarMulRest `@@*`
}

type grammarMulRest struct {
	Pos plexer.Position
	Op  string        `@("*" | "/" | "%")`
	Rhs *grammarUnary `@@`
}

type grammarUnary struct {
	Pos     plexer.Position
	Op      string          `@("-" | "!")?`
	Operand *grammarPostfix `@@`
}

// grammarPostfix chains `.field`, `[index]`, and bare identifiers/calls
// onto a primary expression.
type grammarPostfix struct {
	Pos     plexer.Position
	Primary *grammarPrimary       `@@`
	Suffix  []*grammarPostfixPart `@@*`
}

type grammarPostfixPart struct {
	Pos   plexer.Position
	Field string       `  "." @Ident`
	Index *grammarExpr `| "[" @@ "]"`
}

type grammarPrimary struct {
	Pos plexer.Position

	Int     *int64       `  @Int`
	Str     *string      `| @String`
	True    bool         `| @"true"`
	False   bool         `| @"false"`
	Null    bool         `| @"null"`
	Self    bool         `| @"self"`
	New     *grammarNew  `| "new" @@`
	Cast    *grammarCast `| "(" @@`
	Call    *grammarCall `| @@`
	Ident   string       `| @Ident`
	Paren   *grammarExpr `| "(" @@ ")"`
}

type grammarNew struct {
	Pos   plexer.Position
	Type  *grammarType `@@`
	Size  *grammarExpr `("[" @@ "]")?`
}

type grammarCast struct {
	Pos  plexer.Position
	Type *grammarType `@@ ")" "null"`
}

type grammarCall struct {
	Pos  plexer.Position
	Name string          `@Ident "("`
	Args []*grammarExpr  `(@@ ("," @@)*)? ")"`
}

// Parser is the participle-built parser for a whole Latte compilation
// unit, reused across files.
var Parser = participle.MustBuild[grammarProgram](
	participle.Lexer(lexer.Definition),
	participle.Elide("Whitespace", "Comment"),
	participle.UseLookahead(2),
)
