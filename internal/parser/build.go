package parser

import (
	"strconv"

	"github.com/kowaalczyk/latte-sub000/internal/ast"
	cerrors "github.com/kowaalczyk/latte-sub000/internal/errors"
)

// Parse parses comment-stripped Latte source into an internal/ast.Program.
// offset, not line/col: locations are byte offsets into the text actually
// fed to the parser, matching spec.md §3's "metadata slot ... Location
// (byte offset)". Callers translate offsets back through internal/srcmap
// before rendering.
func Parse(filename, src string) (*ast.Program, cerrors.List) {
	var errs cerrors.List
	g, err := Parser.ParseString(filename, src)
	if err != nil {
		errs.Add(cerrors.New(cerrors.ParseErrorKind, cerrors.Location{}, "%s", err.Error()))
		return nil, errs
	}
	prog := &ast.Program{}
	for _, item := range g.Items {
		switch {
		case item.Class != nil:
			prog.Classes = append(prog.Classes, buildClass(item.Class))
		case item.Func != nil:
			prog.Functions = append(prog.Functions, buildFunc(item.Func))
		}
	}
	return prog, errs
}

func buildType(t *grammarType) ast.Type {
	return ast.Type{Pos: ast.Pos(t.Pos.Offset), Name: t.Name, Array: t.Array}
}

func buildClass(c *grammarClass) *ast.ClassDecl {
	decl := &ast.ClassDecl{
		Pos:    ast.Pos(c.Pos.Offset),
		Name:   c.Name,
		Parent: c.Parent,
	}
	for _, m := range c.Members {
		switch {
		case m.Field != nil:
			decl.Fields = append(decl.Fields, &ast.FieldDecl{
				Pos:  ast.Pos(m.Field.Pos.Offset),
				Type: buildType(m.Field.Type),
				Name: m.Field.Name,
			})
		case m.Method != nil:
			decl.Methods = append(decl.Methods, buildFunc(m.Method))
		}
	}
	return decl
}

func buildFunc(f *grammarFunc) *ast.FuncDecl {
	decl := &ast.FuncDecl{
		Pos:  ast.Pos(f.Pos.Offset),
		Ret:  buildType(f.Ret),
		Name: f.Name,
		Body: buildBlock(f.Body),
	}
	for _, p := range f.Params {
		decl.Params = append(decl.Params, ast.Param{
			Pos:  ast.Pos(p.Pos.Offset),
			Type: buildType(p.Type),
			Name: p.Name,
		})
	}
	return decl
}

func buildBlock(b *grammarBlock) *ast.Block {
	blk := &ast.Block{Pos: ast.Pos(b.Pos.Offset)}
	for _, s := range b.Stmts {
		blk.Stmts = append(blk.Stmts, buildStmt(s))
	}
	return blk
}

func buildStmt(s *grammarStmt) ast.Stmt {
	base := ast.StmtBase{Pos: ast.Pos(s.Pos.Offset)}
	switch {
	case s.Block != nil:
		return &ast.BlockStmt{StmtBase: base, Block: buildBlock(s.Block)}
	case s.Decl != nil:
		d := &ast.DeclStmt{StmtBase: base, Type: buildType(s.Decl.Type)}
		for _, it := range s.Decl.Items {
			item := ast.DeclItem{Name: it.Name}
			if it.Init != nil {
				item.Init = buildExpr(it.Init)
			}
			d.Items = append(d.Items, item)
		}
		return d
	case s.If != nil:
		st := &ast.IfStmt{StmtBase: base, Cond: buildExpr(s.If.Cond), Then: buildStmt(s.If.Then)}
		if s.If.Else != nil {
			st.Else = buildStmt(s.If.Else)
		}
		return st
	case s.While != nil:
		return &ast.WhileStmt{StmtBase: base, Cond: buildExpr(s.While.Cond), Body: buildStmt(s.While.Body)}
	case s.ForEach != nil:
		return &ast.ForEachStmt{
			StmtBase: base,
			ElemType: buildType(s.ForEach.ElemType),
			Var:      s.ForEach.Var,
			Array:    buildExpr(s.ForEach.Array),
			Body:     buildStmt(s.ForEach.Body),
		}
	case s.Return != nil:
		r := &ast.ReturnStmt{StmtBase: base}
		if s.Return.Value != nil {
			r.Value = buildExpr(s.Return.Value)
		}
		return r
	case s.IncDec != nil:
		return &ast.IncDecStmt{StmtBase: base, Target: buildRef(s.IncDec.Target), Inc: s.IncDec.Op == "++"}
	case s.Assign != nil:
		return &ast.AssignStmt{StmtBase: base, Target: buildRef(s.Assign.Target), Value: buildExpr(s.Assign.Value)}
	case s.ExprStmt != nil:
		return &ast.ExprStmt{StmtBase: base, Expr: buildExpr(s.ExprStmt.Expr)}
	default:
		return &ast.EmptyStmt{StmtBase: base}
	}
}

// buildRef converts a restricted postfix chain (parsed for assignment and
// ++/-- targets) into an ast.Ref. Only Ident, Object/ObjectSelf ("."), and
// Array ("[") suffixes are legal references; a trailing call suffix cannot
// occur because grammarPostfixPart never parses "(".
func buildRef(r *grammarRef) ast.Ref {
	return postfixToRef(r.Target)
}

func postfixToRef(p *grammarPostfix) ast.Ref {
	var cur ast.Ref
	var curExpr ast.Expr
	base := postfixPrimaryRef(p.Primary)
	cur = base
	curExpr = refToExpr(base)
	for _, suf := range p.Suffix {
		if suf.Field != "" {
			if id, ok := cur.(*ast.Ident); ok && id.Name == "self" {
				cur = &ast.ObjectSelf{RefBase: ast.RefBase{Pos: ast.Pos(suf.Pos.Offset)}, Field: suf.Field}
			} else {
				cur = &ast.Object{RefBase: ast.RefBase{Pos: ast.Pos(suf.Pos.Offset)}, Obj: curExpr, Field: suf.Field}
			}
		} else if suf.Index != nil {
			cur = &ast.ArrayRef{RefBase: ast.RefBase{Pos: ast.Pos(suf.Pos.Offset)}, Arr: curExpr, Index: buildExpr(suf.Index)}
		}
		curExpr = refToExpr(cur)
	}
	return cur
}

func postfixPrimaryRef(p *grammarPrimary) ast.Ref {
	pp := ast.Pos(p.Pos.Offset)
	if p.Self {
		return &ast.Ident{RefBase: ast.RefBase{Pos: pp}, Name: "self"}
	}
	return &ast.Ident{RefBase: ast.RefBase{Pos: pp}, Name: p.Ident}
}

func refToExpr(r ast.Ref) ast.Expr {
	return &ast.RefExpr{ExprBase: ast.ExprBase{Pos: r.Position()}, Ref: r}
}

func buildExpr(e *grammarExpr) ast.Expr {
	left := buildAnd(e.Left)
	for _, r := range e.Rest {
		left = &ast.BinaryExpr{ExprBase: ast.ExprBase{Pos: ast.Pos(r.Pos.Offset)}, Op: ast.BinOr, Left: left, Right: buildAnd(r.Rhs)}
	}
	return left
}

func buildAnd(e *grammarAnd) ast.Expr {
	left := buildEquality(e.Left)
	for _, r := range e.Rest {
		left = &ast.BinaryExpr{ExprBase: ast.ExprBase{Pos: ast.Pos(r.Pos.Offset)}, Op: ast.BinAnd, Left: left, Right: buildEquality(r.Rhs)}
	}
	return left
}

func buildEquality(e *grammarEquality) ast.Expr {
	left := buildRelational(e.Left)
	for _, r := range e.Rest {
		op := ast.BinEq
		if r.Op == "!=" {
			op = ast.BinNe
		}
		left = &ast.BinaryExpr{ExprBase: ast.ExprBase{Pos: ast.Pos(r.Pos.Offset)}, Op: op, Left: left, Right: buildRelational(r.Rhs)}
	}
	return left
}

func buildRelational(e *grammarRelational) ast.Expr {
	left := buildAdditive(e.Left)
	for _, r := range e.Rest {
		var op ast.BinOp
		switch r.Op {
		case "<":
			op = ast.BinLt
		case "<=":
			op = ast.BinLe
		case ">":
			op = ast.BinGt
		default:
			op = ast.BinGe
		}
		left = &ast.BinaryExpr{ExprBase: ast.ExprBase{Pos: ast.Pos(r.Pos.Offset)}, Op: op, Left: left, Right: buildAdditive(r.Rhs)}
	}
	return left
}

func buildAdditive(e *grammarAdditive) ast.Expr {
	left := buildMultiplicative(e.Left)
	for _, r := range e.Rest {
		op := ast.BinAdd
		if r.Op == "-" {
			op = ast.BinSub
		}
		left = &ast.BinaryExpr{ExprBase: ast.ExprBase{Pos: ast.Pos(r.Pos.Offset)}, Op: op, Left: left, Right: buildMultiplicative(r.Rhs)}
	}
	return left
}

func buildMultiplicative(e *grammarMultiplicative) ast.Expr {
	left := buildUnary(e.Left)
	for _, r := range e.Rest {
		var op ast.BinOp
		switch r.Op {
		case "*":
			op = ast.BinMul
		case "/":
			op = ast.BinDiv
		default:
			op = ast.BinMod
		}
		left = &ast.BinaryExpr{ExprBase: ast.ExprBase{Pos: ast.Pos(r.Pos.Offset)}, Op: op, Left: left, Right: buildUnary(r.Rhs)}
	}
	return left
}

func buildUnary(e *grammarUnary) ast.Expr {
	operand := buildPostfix(e.Operand)
	switch e.Op {
	case "-":
		return &ast.UnaryExpr{ExprBase: ast.ExprBase{Pos: ast.Pos(e.Pos.Offset)}, Op: ast.UnaryNeg, Arg: operand}
	case "!":
		return &ast.UnaryExpr{ExprBase: ast.ExprBase{Pos: ast.Pos(e.Pos.Offset)}, Op: ast.UnaryNot, Arg: operand}
	default:
		return operand
	}
}

func buildPostfix(p *grammarPostfix) ast.Expr {
	cur := buildPrimary(p.Primary)
	for _, suf := range p.Suffix {
		pp := ast.Pos(suf.Pos.Offset)
		if suf.Field != "" {
			if re, ok := cur.(*ast.RefExpr); ok {
				if id, ok := re.Ref.(*ast.Ident); ok && id.Name == "self" {
					cur = refToExpr(&ast.ObjectSelf{RefBase: ast.RefBase{Pos: pp}, Field: suf.Field})
					continue
				}
			}
			cur = refToExpr(&ast.Object{RefBase: ast.RefBase{Pos: pp}, Obj: cur, Field: suf.Field})
		} else if suf.Index != nil {
			cur = refToExpr(&ast.ArrayRef{RefBase: ast.RefBase{Pos: pp}, Arr: cur, Index: buildExpr(suf.Index)})
		}
	}
	return cur
}

func buildPrimary(p *grammarPrimary) ast.Expr {
	pp := ast.Pos(p.Pos.Offset)
	switch {
	case p.Int != nil:
		return &ast.IntLit{ExprBase: ast.ExprBase{Pos: pp}, Value: int32(*p.Int)}
	case p.Str != nil:
		return &ast.StringLit{ExprBase: ast.ExprBase{Pos: pp}, Value: unquote(*p.Str)}
	case p.True:
		return &ast.BoolLit{ExprBase: ast.ExprBase{Pos: pp}, Value: true}
	case p.False:
		return &ast.BoolLit{ExprBase: ast.ExprBase{Pos: pp}, Value: false}
	case p.Null:
		return &ast.NullLit{ExprBase: ast.ExprBase{Pos: pp}}
	case p.Self:
		return refToExpr(&ast.Ident{RefBase: ast.RefBase{Pos: pp}, Name: "self"})
	case p.New != nil:
		if p.New.Size != nil {
			return &ast.NewArrayExpr{ExprBase: ast.ExprBase{Pos: pp}, ElemType: buildType(p.New.Type), Size: buildExpr(p.New.Size)}
		}
		return &ast.NewObjectExpr{ExprBase: ast.ExprBase{Pos: pp}, Class: p.New.Type.Name}
	case p.Cast != nil:
		return &ast.CastNullExpr{ExprBase: ast.ExprBase{Pos: pp}, Type: buildType(p.Cast.Type)}
	case p.Call != nil:
		call := &ast.CallExpr{ExprBase: ast.ExprBase{Pos: pp}, Func: p.Call.Name}
		for _, a := range p.Call.Args {
			call.Args = append(call.Args, buildExpr(a))
		}
		return call
	case p.Paren != nil:
		return buildExpr(p.Paren)
	default:
		return refToExpr(&ast.Ident{RefBase: ast.RefBase{Pos: pp}, Name: p.Ident})
	}
}

// unquote strips the surrounding quotes and resolves escape sequences from
// a raw string-literal lexeme, e.g. `"a\nb"` -> `a` + newline + `b`.
func unquote(raw string) string {
	s, err := strconv.Unquote(raw)
	if err != nil {
		return raw[1 : len(raw)-1]
	}
	return s
}
