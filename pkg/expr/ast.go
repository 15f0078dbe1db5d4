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

// Node is an element of a compiled expression tree. Trees are never
// mutated after Parse returns them.
type Node interface {
	node()
}

// Number is a numeric literal.
type Number struct {
	Value float64
	Text  string // literal as written
}

// Ident is a reference to a variable.
type Ident struct {
	Name string
}

// Unary is a prefix operation: -x, +x or !x.
type Unary struct {
	Op string
	X  Node
}

// Binary is an infix operation.
type Binary struct {
	Op   string
	L, R Node
}

// Conditional is cond ? then : else.
type Conditional struct {
	Cond, Then, Else Node
}

// Call is a function application such as F(n-1, k).
type Call struct {
	Name string
	Args []Node
}

// Group is a parenthesized expression, kept so rendering preserves the
// user's grouping.
type Group struct {
	X Node
}

func (*Number) node()      {}
func (*Ident) node()       {}
func (*Unary) node()       {}
func (*Binary) node()      {}
func (*Conditional) node() {}
func (*Call) node()        {}
func (*Group) node()       {}

// Walk visits n and its children depth-first, in source order. When visit
// returns false the children of that node are skipped.
func Walk(n Node, visit func(Node) bool) {
	if n == nil || !visit(n) {
		return
	}
	switch n := n.(type) {
	case *Unary:
		Walk(n.X, visit)
	case *Binary:
		Walk(n.L, visit)
		Walk(n.R, visit)
	case *Conditional:
		Walk(n.Cond, visit)
		Walk(n.Then, visit)
		Walk(n.Else, visit)
	case *Call:
		for _, a := range n.Args {
			Walk(a, visit)
		}
	case *Group:
		Walk(n.X, visit)
	}
}

// Calls returns every call node of the tree in source order.
func Calls(n Node) []*Call {
	var calls []*Call
	Walk(n, func(n Node) bool {
		if c, ok := n.(*Call); ok {
			calls = append(calls, c)
		}
		return true
	})
	return calls
}

// Identifiers returns the distinct variable names referenced by the tree,
// in order of first appearance. Call names are not included.
func Identifiers(n Node) []string {
	var names []string
	seen := make(map[string]bool)
	Walk(n, func(n Node) bool {
		if id, ok := n.(*Ident); ok && !seen[id.Name] {
			seen[id.Name] = true
			names = append(names, id.Name)
		}
		return true
	})
	return names
}

// HasCalls reports whether the tree contains at least one call.
func HasCalls(n Node) bool {
	found := false
	Walk(n, func(n Node) bool {
		if _, ok := n.(*Call); ok {
			found = true
		}
		return !found
	})
	return found
}
