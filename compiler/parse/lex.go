package parse

import (
	"github.com/slowlang/exprc/compiler/ast"
)

type (
	tokenKind int

	token struct {
		Kind tokenKind
		Text string
		Loc  ast.Loc
	}
)

const (
	tEnd tokenKind = iota
	tIdent
	tInt
	tOp
	tPunct
)

var kindNames = [...]string{
	tEnd:   "end of input",
	tIdent: "identifier",
	tInt:   "integer literal",
	tOp:    "operator",
	tPunct: "punctuation",
}

func (k tokenKind) String() string {
	return kindNames[k]
}

func (s *State) tokenize() (err error) {
	line, lineStart := 1, 0

	loc := func(i int) ast.Loc {
		return ast.Loc{Line: line, Col: i - lineStart + 1}
	}

	for i := 0; i < len(s.b); {
		c := s.b[i]

		switch {
		case c == '\n':
			i++
			line, lineStart = line+1, i

			continue
		case c == ' ' || c == '\t' || c == '\r':
			i++

			continue
		case c == '#' || c == '/' && i+1 < len(s.b) && s.b[i+1] == '/':
			i = skipLine(s.b, i)

			continue
		}

		st := i
		kind := tEnd

		switch {
		case isLetter(c):
			i = skipIdent(s.b, i+1)
			kind = tIdent
		case isDigit(c):
			for i < len(s.b) && isDigit(s.b[i]) {
				i++
			}

			if i < len(s.b) && isLetter(s.b[i]) {
				return newSyntaxError(loc(st), "malformed number: %q", s.b[st:skipIdent(s.b, i)])
			}

			kind = tInt
		case c == '=' || c == '!' || c == '<' || c == '>':
			i++

			if i < len(s.b) && s.b[i] == '=' {
				i++
			} else if c == '!' {
				return newSyntaxError(loc(st), "unexpected character: %q", c)
			}

			kind = tOp
		case c == '+' || c == '-' || c == '*' || c == '/' || c == '%':
			i++
			kind = tOp
		case c == '(' || c == ')' || c == '{' || c == '}' || c == ',' || c == ';' || c == ':':
			i++
			kind = tPunct
		default:
			return newSyntaxError(loc(st), "unexpected character: %q", c)
		}

		s.toks = append(s.toks, token{
			Kind: kind,
			Text: string(s.b[st:i]),
			Loc:  loc(st),
		})
	}

	s.toks = append(s.toks, token{
		Kind: tEnd,
		Loc:  loc(len(s.b)),
	})

	return nil
}

func isLetter(c byte) bool {
	return c >= 'A' && c <= 'Z' || c >= 'a' && c <= 'z' || c == '_'
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

func skipIdent(b []byte, i int) int {
	for i < len(b) && (isLetter(b[i]) || isDigit(b[i])) {
		i++
	}

	return i
}

func skipLine(b []byte, i int) int {
	for i < len(b) && b[i] != '\n' {
		i++
	}

	return i
}
