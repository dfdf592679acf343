package parse

import (
	"strconv"

	"github.com/slowlang/exprc/compiler/ast"
	"github.com/slowlang/exprc/compiler/tp"
)

// Binary operator precedence levels, lowest first.
// Assignment is handled separately because it is right associative.
var levels = [][]string{
	{"or"},
	{"and"},
	{"==", "!=", "<", "<=", ">", ">="},
	{"+", "-"},
	{"*", "/", "%"},
}

func (s *State) peek() token {
	return s.toks[s.pos]
}

func (s *State) prev() token {
	if s.pos == 0 {
		return token{}
	}

	return s.toks[s.pos-1]
}

func (s *State) next() token {
	t := s.toks[s.pos]

	if t.Kind != tEnd {
		s.pos++
	}

	return t
}

func (s *State) is(text string) bool {
	t := s.peek()

	return t.Kind != tEnd && t.Text == text
}

func (s *State) expect(text string) (token, error) {
	t := s.peek()

	if t.Kind == tEnd || t.Text != text {
		return t, s.unexpected(t, "%q", text)
	}

	return s.next(), nil
}

func (s *State) unexpected(t token, wantf string, args ...any) error {
	args = append(args, describe(t))

	return newSyntaxError(t.Loc, "expected "+wantf+", got %v", args...)
}

func describe(t token) string {
	if t.Kind == tEnd {
		return t.Kind.String()
	}

	return strconv.Quote(t.Text)
}

func (s *State) program() (*ast.Program, error) {
	p := &ast.Program{
		Base: ast.Base{Loc: s.peek().Loc},
	}

	for s.peek().Kind != tEnd {
		x, err := s.statement()
		if err != nil {
			return nil, err
		}

		p.Stmts = append(p.Stmts, x)

		switch {
		case s.is(";"):
			s.next()

			p.Trailing = false
		case s.peek().Kind == tEnd:
			p.Trailing = true
		case s.prev().Text == "}":
			p.Trailing = false
		default:
			return nil, s.unexpected(s.peek(), "%q", ";")
		}
	}

	return p, nil
}

func (s *State) statement() (ast.Node, error) {
	if s.is("var") {
		return s.varDecl()
	}

	return s.expr()
}

// stmtList parses statements up to the closing brace.
func (s *State) stmtList() (l []ast.Node, err error) {
	for !s.is("}") {
		if s.peek().Kind == tEnd {
			return nil, s.unexpected(s.peek(), "%q", "}")
		}

		x, err := s.statement()
		if err != nil {
			return nil, err
		}

		l = append(l, x)

		switch {
		case s.is(";"):
			s.next()
		case s.is("}"):
		case s.prev().Text == "}":
		default:
			return nil, s.unexpected(s.peek(), "%q or %q", ";", "}")
		}
	}

	s.next()

	return l, nil
}

func (s *State) varDecl() (ast.Node, error) {
	t := s.next()

	name := s.next()
	if name.Kind != tIdent || keywords[name.Text] {
		return nil, newSyntaxError(name.Loc, "expected variable name, got %v", describe(name))
	}

	x := &ast.VarDecl{
		Base: ast.Base{Loc: t.Loc},
		Name: name.Text,
	}

	if s.is(":") {
		s.next()
	}

	if t := s.peek(); t.Kind == tIdent {
		typ, ok := tp.Named(t.Text)
		if !ok {
			return nil, newSyntaxError(t.Loc, "unknown type: %v", t.Text)
		}

		s.next()

		x.Declared = typ
	}

	_, err := s.expect("=")
	if err != nil {
		return nil, err
	}

	x.Init, err = s.expr()
	if err != nil {
		return nil, err
	}

	return x, nil
}

func (s *State) expr() (ast.Node, error) {
	left, err := s.binary(0)
	if err != nil {
		return nil, err
	}

	if !s.is("=") {
		return left, nil
	}

	t := s.next()

	right, err := s.expr()
	if err != nil {
		return nil, err
	}

	return &ast.BinaryOp{
		Base:  ast.Base{Loc: t.Loc},
		Left:  left,
		Op:    "=",
		Right: right,
	}, nil
}

func (s *State) binary(level int) (ast.Node, error) {
	if level == len(levels) {
		return s.unary()
	}

	left, err := s.binary(level + 1)
	if err != nil {
		return nil, err
	}

	for {
		t := s.peek()
		if !isOp(t, levels[level]) {
			return left, nil
		}

		s.next()

		right, err := s.binary(level + 1)
		if err != nil {
			return nil, err
		}

		left = &ast.BinaryOp{
			Base:  ast.Base{Loc: t.Loc},
			Left:  left,
			Op:    t.Text,
			Right: right,
		}
	}
}

func isOp(t token, ops []string) bool {
	if t.Kind != tOp && t.Kind != tIdent {
		return false
	}

	for _, op := range ops {
		if t.Text == op {
			return true
		}
	}

	return false
}

func (s *State) unary() (ast.Node, error) {
	if !s.is("-") && !s.is("not") {
		return s.primary()
	}

	t := s.next()

	x, err := s.unary()
	if err != nil {
		return nil, err
	}

	return &ast.UnaryOp{
		Base: ast.Base{Loc: t.Loc},
		Op:   t.Text,
		X:    x,
	}, nil
}

var keywords = map[string]bool{
	"var": true, "if": true, "then": true, "else": true, "while": true, "do": true,
	"and": true, "or": true, "not": true, "true": true, "false": true,
}

func (s *State) primary() (ast.Node, error) {
	t := s.peek()

	switch {
	case t.Kind == tInt:
		s.next()

		v, err := strconv.ParseInt(t.Text, 10, 64)
		if err != nil {
			return nil, newSyntaxError(t.Loc, "integer literal out of range: %v", t.Text)
		}

		return ast.Int(t.Loc, v), nil
	case s.is("true"), s.is("false"):
		s.next()

		return ast.Bool(t.Loc, t.Text == "true"), nil
	case s.is("("):
		s.next()

		x, err := s.expr()
		if err != nil {
			return nil, err
		}

		_, err = s.expect(")")
		if err != nil {
			return nil, err
		}

		return x, nil
	case s.is("{"):
		s.next()

		l, err := s.stmtList()
		if err != nil {
			return nil, err
		}

		return &ast.Block{
			Base:  ast.Base{Loc: t.Loc},
			Stmts: l,
		}, nil
	case s.is("if"):
		return s.ifExpr()
	case s.is("while"):
		return s.while()
	case t.Kind == tIdent && !keywords[t.Text]:
		s.next()

		id := &ast.Ident{
			Base: ast.Base{Loc: t.Loc},
			Name: t.Text,
		}

		if !s.is("(") {
			return id, nil
		}

		return s.call(id)
	}

	return nil, s.unexpected(t, "expression")
}

func (s *State) ifExpr() (ast.Node, error) {
	t := s.next()

	x := &ast.IfExpr{
		Base: ast.Base{Loc: t.Loc},
	}

	var err error

	x.Cond, err = s.expr()
	if err != nil {
		return nil, err
	}

	_, err = s.expect("then")
	if err != nil {
		return nil, err
	}

	x.Then, err = s.expr()
	if err != nil {
		return nil, err
	}

	if !s.is("else") {
		return x, nil
	}

	s.next()

	x.Else, err = s.expr()
	if err != nil {
		return nil, err
	}

	return x, nil
}

func (s *State) while() (ast.Node, error) {
	t := s.next()

	x := &ast.While{
		Base: ast.Base{Loc: t.Loc},
	}

	var err error

	x.Cond, err = s.expr()
	if err != nil {
		return nil, err
	}

	_, err = s.expect("do")
	if err != nil {
		return nil, err
	}

	_, err = s.expect("{")
	if err != nil {
		return nil, err
	}

	x.Body, err = s.stmtList()
	if err != nil {
		return nil, err
	}

	return x, nil
}

func (s *State) call(id *ast.Ident) (ast.Node, error) {
	s.next()

	x := &ast.Call{
		Base: ast.Base{Loc: id.Loc},
		Func: id,
	}

	for !s.is(")") {
		if len(x.Args) != 0 {
			_, err := s.expect(",")
			if err != nil {
				return nil, err
			}
		}

		a, err := s.expr()
		if err != nil {
			return nil, err
		}

		x.Args = append(x.Args, a)
	}

	s.next()

	return x, nil
}
