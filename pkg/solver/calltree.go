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

package solver

import (
	"errors"
	"fmt"

	cmn "github.com/pzaino/recviz/pkg/common"

	"github.com/m1gwings/treedrawer/tree"
)

// maxDrawnCalls bounds RenderCallTree, wider trees are unreadable as text
const maxDrawnCalls = 512

var errNotTopDownTrace = errors.New("not a top-down trace")

// CallNode is one call of the recursion tree.
type CallNode struct {
	Call       string      `json:"call"`
	Value      float64     `json:"value"`
	Resolution string      `json:"resolution"`
	Children   []*CallNode `json:"children,omitempty"`
}

// Size returns the number of calls in the subtree rooted at n.
func (n *CallNode) Size() int {
	size := 1
	for _, c := range n.Children {
		size += c.Size()
	}
	return size
}

// BuildCallTree rebuilds the recursion tree of a top-down trace from its
// push and pop steps.
func BuildCallTree(steps []Step) (*CallNode, error) {
	var root *CallNode
	var open []*CallNode

	for i, s := range steps {
		st, ok := s.(*StackStep)
		if !ok {
			return nil, fmt.Errorf("%w: step %d is a %s", errNotTopDownTrace, i, s.StepAction())
		}
		switch st.Action {
		case ActionPush:
			if len(st.Stack) == 0 {
				return nil, fmt.Errorf("push step %d has an empty stack", i)
			}
			node := &CallNode{Call: st.Stack[len(st.Stack)-1].Concrete}
			if len(open) == 0 {
				if root != nil {
					return nil, fmt.Errorf("step %d starts a second root call", i)
				}
				root = node
			} else {
				parent := open[len(open)-1]
				parent.Children = append(parent.Children, node)
			}
			open = append(open, node)
		case ActionPop:
			if len(open) == 0 {
				return nil, fmt.Errorf("pop step %d without a matching push", i)
			}
			node := open[len(open)-1]
			open = open[:len(open)-1]
			if st.ResolvedValue != nil {
				node.Value = *st.ResolvedValue
			}
			node.Resolution = st.Resolution
		default:
			return nil, fmt.Errorf("%w: step %d is a %s", errNotTopDownTrace, i, st.Action)
		}
	}

	if root == nil {
		return nil, fmt.Errorf("%w: no calls recorded", errNotTopDownTrace)
	}
	if len(open) != 0 {
		return nil, fmt.Errorf("trace ends with %d unfinished calls", len(open))
	}
	return root, nil
}

// RenderCallTree draws the tree as text.
func RenderCallTree(root *CallNode) (string, error) {
	if size := root.Size(); size > maxDrawnCalls {
		return "", fmt.Errorf("call tree has %d calls, drawing is limited to %d", size, maxDrawnCalls)
	}
	t := tree.NewTree(tree.NodeString(callLabel(root)))
	addCalls(t, root)
	return t.String(), nil
}

func addCalls(t *tree.Tree, n *CallNode) {
	for _, c := range n.Children {
		addCalls(t.AddChild(tree.NodeString(callLabel(c))), c)
	}
}

func callLabel(n *CallNode) string {
	label := n.Call + "=" + cmn.FormatNumber(n.Value)
	if n.Resolution == ResolvedByMemo {
		label += " (memo)"
	}
	return label
}
