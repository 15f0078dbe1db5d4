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

// Package expr implements the small expression language used by recurrence
// formulas: numbers, identifiers, calls, arithmetic, comparisons, logical
// operators and the conditional operator. Expressions are compiled once into
// an immutable tree and evaluated by walking it against an Env.
package expr

import (
	"fmt"
	"strings"
	"unicode"
)

// tokenType represents a type of a token.
type tokenType int

// token types.
const (
	tokEOF       tokenType = iota // End of input
	tokNumber                     // Numeric literal
	tokIdent                      // Identifier
	tokPlus                       // +
	tokMinus                      // -
	tokMult                       // *
	tokDiv                        // /
	tokMod                        // %
	tokEq                         // ==
	tokNeq                        // !=
	tokLess                       // <
	tokLessEq                     // <=
	tokGreater                    // >
	tokGreaterEq                  // >=
	tokAnd                        // &&
	tokOr                         // ||
	tokNot                        // !
	tokLParen                     // (
	tokRParen                     // )
	tokComma                      // ,
	tokQuestion                   // ?
	tokColon                      // :
)

// token represents a lexical token of an expression.
type token struct {
	Lit  string    // Literal text of the token
	Type tokenType // Type of the token
	Pos  int       // Byte offset of the token in the source
}

// SyntaxError reports a problem found while tokenizing or parsing.
type SyntaxError struct {
	Pos int    // Byte offset where the problem was detected
	Msg string // Human readable description
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("syntax error at offset %d: %s", e.Pos, e.Msg)
}

// operators maps operator spellings to their token types, two-character
// operators are matched before single-character ones.
var operators = []struct {
	lit string
	typ tokenType
}{
	{"==", tokEq},
	{"!=", tokNeq},
	{"<=", tokLessEq},
	{">=", tokGreaterEq},
	{"&&", tokAnd},
	{"||", tokOr},
	{"+", tokPlus},
	{"-", tokMinus},
	{"*", tokMult},
	{"/", tokDiv},
	{"%", tokMod},
	{"<", tokLess},
	{">", tokGreater},
	{"!", tokNot},
	{"(", tokLParen},
	{")", tokRParen},
	{",", tokComma},
	{"?", tokQuestion},
	{":", tokColon},
}

// lex splits src into tokens, the last token is always tokEOF.
func lex(src string) ([]token, error) {
	var toks []token
	i := 0
	for i < len(src) {
		ch := rune(src[i])

		switch {
		case unicode.IsSpace(ch):
			i++
			continue

		case isDigit(ch) || (ch == '.' && i+1 < len(src) && isDigit(rune(src[i+1]))):
			start := i
			seenDot := false
			for i < len(src) && (isDigit(rune(src[i])) || (src[i] == '.' && !seenDot)) {
				if src[i] == '.' {
					seenDot = true
				}
				i++
			}
			// optional exponent
			if i < len(src) && (src[i] == 'e' || src[i] == 'E') {
				j := i + 1
				if j < len(src) && (src[j] == '+' || src[j] == '-') {
					j++
				}
				if j < len(src) && isDigit(rune(src[j])) {
					for j < len(src) && isDigit(rune(src[j])) {
						j++
					}
					i = j
				}
			}
			toks = append(toks, token{Lit: src[start:i], Type: tokNumber, Pos: start})
			continue

		case isIdentStart(ch):
			start := i
			for i < len(src) && isIdentPart(rune(src[i])) {
				i++
			}
			toks = append(toks, token{Lit: src[start:i], Type: tokIdent, Pos: start})
			continue
		}

		matched := false
		for _, op := range operators {
			if strings.HasPrefix(src[i:], op.lit) {
				toks = append(toks, token{Lit: op.lit, Type: op.typ, Pos: i})
				i += len(op.lit)
				matched = true
				break
			}
		}
		if !matched {
			if ch == '=' || ch == '&' || ch == '|' {
				return nil, &SyntaxError{Pos: i, Msg: fmt.Sprintf("unexpected %q (did you mean %q?)", ch, strings.Repeat(string(ch), 2))}
			}
			return nil, &SyntaxError{Pos: i, Msg: fmt.Sprintf("unexpected character %q", src[i])}
		}
	}
	toks = append(toks, token{Type: tokEOF, Pos: len(src)})
	return toks, nil
}

func isDigit(ch rune) bool { return ch >= '0' && ch <= '9' }

func isIdentStart(ch rune) bool { return ch == '_' || (ch < 128 && unicode.IsLetter(ch)) }

func isIdentPart(ch rune) bool { return isIdentStart(ch) || isDigit(ch) }
