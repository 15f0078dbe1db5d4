// Copyright 2023 Paolo Fabio Zaino
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package expr

import (
	"fmt"
	"strconv"
	"strings"
)

// binding powers, higher binds tighter
const (
	bpConditional = 5
	bpUnary       = 80
)

func lbp(t tokenType) (int, bool) {
	switch t {
	case tokQuestion:
		return bpConditional, true
	case tokOr:
		return 20, true
	case tokAnd:
		return 30, true
	case tokEq, tokNeq:
		return 40, true
	case tokLess, tokLessEq, tokGreater, tokGreaterEq:
		return 50, true
	case tokPlus, tokMinus:
		return 60, true
	case tokMult, tokDiv, tokMod:
		return 70, true
	}
	return 0, false
}

type parser struct {
	toks []token
	i    int
}

// Parse compiles src into an expression tree.
func Parse(src string) (Node, error) {
	if strings.TrimSpace(src) == "" {
		return nil, &SyntaxError{Pos: 0, Msg: "empty expression"}
	}
	toks, err := lex(src)
	if err != nil {
		return nil, err
	}
	p := &parser{toks: toks}
	n, err := p.expr(0)
	if err != nil {
		return nil, err
	}
	if t := p.peek(); t.Type != tokEOF {
		return nil, &SyntaxError{Pos: t.Pos, Msg: fmt.Sprintf("unexpected %q", t.Lit)}
	}
	return n, nil
}

// MustParse is like Parse but panics on error. Meant for constants and tests.
func MustParse(src string) Node {
	n, err := Parse(src)
	if err != nil {
		panic(err)
	}
	return n
}

func (p *parser) peek() token { return p.toks[p.i] }

func (p *parser) next() token {
	t := p.toks[p.i]
	if t.Type != tokEOF {
		p.i++
	}
	return t
}

func (p *parser) need(tt tokenType, msg string) (token, error) {
	t := p.peek()
	if t.Type != tt {
		if t.Type == tokEOF {
			return t, &SyntaxError{Pos: t.Pos, Msg: msg + ", got end of expression"}
		}
		return t, &SyntaxError{Pos: t.Pos, Msg: fmt.Sprintf("%s, got %q", msg, t.Lit)}
	}
	return p.next(), nil
}

func (p *parser) expr(minBP int) (Node, error) {
	left, err := p.prefix()
	if err != nil {
		return nil, err
	}

	for {
		t := p.peek()
		bp, ok := lbp(t.Type)
		if !ok || bp < minBP {
			return left, nil
		}
		p.next()

		if t.Type == tokQuestion {
			then, err := p.expr(0)
			if err != nil {
				return nil, err
			}
			if _, err := p.need(tokColon, "expected ':' in conditional expression"); err != nil {
				return nil, err
			}
			// right associative: a ? b : c ? d : e
			els, err := p.expr(bpConditional)
			if err != nil {
				return nil, err
			}
			left = &Conditional{Cond: left, Then: then, Else: els}
			continue
		}

		right, err := p.expr(bp + 1)
		if err != nil {
			return nil, err
		}
		left = &Binary{Op: t.Lit, L: left, R: right}
	}
}

func (p *parser) prefix() (Node, error) {
	t := p.next()
	switch t.Type {
	case tokNumber:
		v, err := strconv.ParseFloat(t.Lit, 64)
		if err != nil {
			return nil, &SyntaxError{Pos: t.Pos, Msg: fmt.Sprintf("invalid number %q", t.Lit)}
		}
		return &Number{Value: v, Text: t.Lit}, nil

	case tokIdent:
		if p.peek().Type == tokLParen {
			p.next()
			return p.callAfterOpen(t.Lit)
		}
		return &Ident{Name: t.Lit}, nil

	case tokMinus, tokPlus, tokNot:
		x, err := p.expr(bpUnary)
		if err != nil {
			return nil, err
		}
		return &Unary{Op: t.Lit, X: x}, nil

	case tokLParen:
		x, err := p.expr(0)
		if err != nil {
			return nil, err
		}
		if _, err := p.need(tokRParen, "expected ')'"); err != nil {
			return nil, err
		}
		return &Group{X: x}, nil

	case tokEOF:
		return nil, &SyntaxError{Pos: t.Pos, Msg: "unexpected end of expression"}
	}
	return nil, &SyntaxError{Pos: t.Pos, Msg: fmt.Sprintf("unexpected %q", t.Lit)}
}

func (p *parser) callAfterOpen(name string) (Node, error) {
	call := &Call{Name: name}
	if p.peek().Type == tokRParen {
		p.next()
		return call, nil
	}
	for {
		arg, err := p.expr(0)
		if err != nil {
			return nil, err
		}
		call.Args = append(call.Args, arg)

		t, err := p.need2(tokComma, tokRParen, "expected ',' or ')' in argument list")
		if err != nil {
			return nil, err
		}
		if t.Type == tokRParen {
			return call, nil
		}
	}
}

func (p *parser) need2(a, b tokenType, msg string) (token, error) {
	if tt := p.peek().Type; tt == a || tt == b {
		return p.next(), nil
	}
	return p.need(a, msg)
}
