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
	"strings"

	cmn "github.com/pzaino/recviz/pkg/common"
)

// Rewriter lets callers replace parts of the rendered text. A nil func, or
// one returning false, keeps the default rendering.
type Rewriter struct {
	Ident func(name string) (string, bool)
	Call  func(c *Call) (string, bool)
}

// String renders n in canonical form: binary operators surrounded by
// spaces, call arguments joined with ",".
func String(n Node) string {
	return Render(n, Rewriter{})
}

// Render renders n, consulting rw for identifiers and calls.
func Render(n Node, rw Rewriter) string {
	var b strings.Builder
	render(&b, n, rw)
	return b.String()
}

func render(b *strings.Builder, n Node, rw Rewriter) {
	switch n := n.(type) {
	case *Number:
		if n.Text != "" {
			b.WriteString(n.Text)
		} else {
			b.WriteString(cmn.FormatNumber(n.Value))
		}
	case *Ident:
		if rw.Ident != nil {
			if s, ok := rw.Ident(n.Name); ok {
				b.WriteString(s)
				return
			}
		}
		b.WriteString(n.Name)
	case *Group:
		b.WriteByte('(')
		render(b, n.X, rw)
		b.WriteByte(')')
	case *Unary:
		b.WriteString(n.Op)
		render(b, n.X, rw)
	case *Binary:
		render(b, n.L, rw)
		b.WriteString(" " + n.Op + " ")
		render(b, n.R, rw)
	case *Conditional:
		render(b, n.Cond, rw)
		b.WriteString(" ? ")
		render(b, n.Then, rw)
		b.WriteString(" : ")
		render(b, n.Else, rw)
	case *Call:
		if rw.Call != nil {
			if s, ok := rw.Call(n); ok {
				b.WriteString(s)
				return
			}
		}
		b.WriteString(n.Name)
		b.WriteByte('(')
		for i, a := range n.Args {
			if i > 0 {
				b.WriteByte(',')
			}
			render(b, a, rw)
		}
		b.WriteByte(')')
	}
}
