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
	"fmt"

	cmn "github.com/pzaino/recviz/pkg/common"
	expr "github.com/pzaino/recviz/pkg/expr"
	formula "github.com/pzaino/recviz/pkg/formula"
)

// Program is a recurrence ready to be evaluated: the parsed spans compiled
// into expression trees plus the shape the bottom-up evaluator sees in it.
// A Program is immutable and may be shared by concurrent solves.
type Program struct {
	Formula   formula.ParsedFormula
	Condition expr.Node
	Value     expr.Node
	Recursive expr.Node
	shape     Shape
}

// CompileFormula parses and compiles recurrence text.
func CompileFormula(text string) (*Program, error) {
	parsed, err := formula.Parse(text)
	if err != nil {
		return nil, err
	}
	return Compile(parsed)
}

// Compile builds the expression trees of a parsed formula. Every call in
// the trees must target F with one argument per variable.
func Compile(parsed formula.ParsedFormula) (*Program, error) {
	p := &Program{Formula: parsed}

	spans := []struct {
		name string
		src  string
		dst  *expr.Node
	}{
		{"stopping condition", parsed.StoppingCondition, &p.Condition},
		{"stopping value", parsed.StoppingValue, &p.Value},
		{"recursive expression", parsed.RecursiveExpression, &p.Recursive},
	}
	for _, s := range spans {
		n, err := expr.Parse(s.src)
		if err != nil {
			return nil, fmt.Errorf("%w: %s %q: %v", ErrEvaluation, s.name, s.src, err)
		}
		for _, c := range expr.Calls(n) {
			if c.Name != formula.FuncName {
				return nil, fmt.Errorf("%w: %s %q calls unknown function %s", ErrEvaluation, s.name, s.src, c.Name)
			}
			if len(c.Args) != parsed.Arity() {
				return nil, fmt.Errorf("%w: %s %q calls %s with %d arguments, expected %d",
					ErrEvaluation, s.name, s.src, c.Name, len(c.Args), parsed.Arity())
			}
		}
		*s.dst = n
	}

	p.shape = RecognizeShape(parsed)
	cmn.DebugMsg(cmn.DbgLvlDebug2, "Compiled %s with shape %s", parsed.SymbolicCall(), p.shape)
	return p, nil
}

// Shape returns the recurrence shape the bottom-up evaluator dispatches on.
func (p *Program) Shape() Shape {
	return p.shape
}

// Variables returns the recurrence variables in order.
func (p *Program) Variables() []string {
	return p.Formula.Variables
}

// arguments returns the initial call arguments taken from params.
func (p *Program) arguments(params map[string]int) ([]float64, error) {
	args := make([]float64, len(p.Formula.Variables))
	for i, name := range p.Formula.Variables {
		v, ok := params[name]
		if !ok {
			return nil, fmt.Errorf("%w: missing value for parameter %q", ErrEvaluation, name)
		}
		args[i] = float64(v)
	}
	return args, nil
}

// bind maps the variables to args.
func (p *Program) bind(args []float64) expr.Vars {
	vars := make(expr.Vars, len(args))
	for i, name := range p.Formula.Variables {
		vars[name] = args[i]
	}
	return vars
}
