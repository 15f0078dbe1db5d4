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
	"context"
	"fmt"
	"strconv"
	"strings"
	"unicode"

	cmn "github.com/pzaino/recviz/pkg/common"
	expr "github.com/pzaino/recviz/pkg/expr"
	formula "github.com/pzaino/recviz/pkg/formula"
)

// Shape is a recurrence family the bottom-up evaluator knows how to fill.
type Shape int

const (
	// ShapeUnrecognized is filled with a best-effort sum of the previous cells
	ShapeUnrecognized Shape = iota
	// ShapeFibonacci is F(n-1) + F(n-2)
	ShapeFibonacci
	// ShapeFactorial is n * F(n-1)
	ShapeFactorial
	// ShapePascal is F(n-1,k-1) + F(n-1,k)
	ShapePascal
)

func (s Shape) String() string {
	switch s {
	case ShapeFibonacci:
		return "fibonacci"
	case ShapeFactorial:
		return "factorial"
	case ShapePascal:
		return "pascal"
	default:
		return "unrecognized"
	}
}

// BottomUpOptions bound a bottom-up solve.
type BottomUpOptions struct {
	// StrictShapes rejects unrecognised shapes instead of guessing
	StrictShapes bool
	// MaxTableCells caps the table size, 0 or anything above
	// TableCellsCeiling means TableCellsCeiling
	MaxTableCells int
}

// TableCellsCeiling is the largest table ever allocated.
const TableCellsCeiling = 1 << 26

func (o BottomUpOptions) cellLimit() int {
	if o.MaxTableCells <= 0 || o.MaxTableCells > TableCellsCeiling {
		return TableCellsCeiling
	}
	return o.MaxTableCells
}

func stripSpaces(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
}

// RecognizeShape classifies the recursive expression of p. Matching is
// done on the whole expression with whitespace removed, using the
// formula's own variable names, and accepts either operand order.
func RecognizeShape(p formula.ParsedFormula) Shape {
	e := stripSpaces(p.RecursiveExpression)
	for len(e) > 2 && e[0] == '(' && e[len(e)-1] == ')' && balanced(e[1:len(e)-1]) {
		e = e[1 : len(e)-1]
	}
	call := func(args ...string) string {
		return formula.FuncName + "(" + strings.Join(args, ",") + ")"
	}
	either := func(l, op, r string) bool {
		return e == l+op+r || e == r+op+l
	}

	switch p.Arity() {
	case 1:
		n := p.Variables[0]
		if either(call(n+"-1"), "+", call(n+"-2")) {
			return ShapeFibonacci
		}
		if either(n, "*", call(n+"-1")) {
			return ShapeFactorial
		}
	case 2:
		n, k := p.Variables[0], p.Variables[1]
		if either(call(n+"-1", k+"-1"), "+", call(n+"-1", k)) {
			return ShapePascal
		}
	}
	return ShapeUnrecognized
}

func balanced(s string) bool {
	depth := 0
	for _, r := range s {
		switch r {
		case '(':
			depth++
		case ')':
			depth--
			if depth < 0 {
				return false
			}
		}
	}
	return depth == 0
}

// EvaluateBottomUp fills a DP table for 1 or 2 variable recurrences,
// recording a step per filled cell.
func EvaluateBottomUp(ctx context.Context, program *Program, baseCases formula.BaseCaseTable, params map[string]int, opts BottomUpOptions, trace *Trace) (float64, error) {
	if baseCases == nil {
		baseCases = formula.BaseCaseTable{}
	}
	if trace == nil {
		trace = NewTrace(0)
	}
	args, err := program.arguments(params)
	if err != nil {
		return 0, err
	}
	limit := opts.cellLimit()
	for i, a := range args {
		name := program.Formula.Variables[i]
		if a < 0 {
			return 0, fmt.Errorf("%w: parameter %q must not be negative, got %.0f", ErrEvaluation, name, a)
		}
		// a+1 cells along this side, checked before converting back to int
		if a >= float64(limit) {
			return 0, fmt.Errorf("%w: the table for %s = %.0f exceeds the limit of %d cells", ErrEvaluation, name, a, limit)
		}
	}

	switch program.Formula.Arity() {
	case 1:
		t := &table1D{ctx: ctx, program: program, baseCases: baseCases, opts: opts, trace: trace}
		return t.solve(int(args[0]))
	case 2:
		t := &table2D{ctx: ctx, program: program, baseCases: baseCases, opts: opts, trace: trace}
		return t.solve(int(args[0]), int(args[1]))
	default:
		return 0, fmt.Errorf("%w (got %d)", ErrUnsupportedArity, program.Formula.Arity())
	}
}

// tableEnv evaluates stopping values during a fill. Calls read the cells
// that are already resolved.
type tableEnv struct {
	vars expr.Vars
	cell func(args []float64) (Cell, bool)
}

func (e tableEnv) Lookup(name string) (float64, bool) {
	return e.vars.Lookup(name)
}

func (e tableEnv) Call(c *expr.Call, args []float64) (float64, error) {
	cell, ok := e.cell(args)
	if !ok || !cell.Resolved {
		return 0, fmt.Errorf("%s(%s) is not available in the table yet", c.Name, formula.ArgsKey(args))
	}
	return cell.Value, nil
}

// stoppingValue returns the stopping value for the cell at args, when the
// stopping condition holds there.
func stoppingValue(program *Program, env tableEnv, where string) (float64, bool, error) {
	cond, err := expr.Eval(program.Condition, env)
	if err != nil {
		return 0, false, evalError(err, "stopping condition at %s", where)
	}
	if !expr.Truthy(cond) {
		return 0, false, nil
	}
	v, err := expr.Eval(program.Value, env)
	if err != nil {
		return 0, false, evalError(err, "stopping value at %s", where)
	}
	return v, true, nil
}

type table1D struct {
	ctx       context.Context
	program   *Program
	baseCases formula.BaseCaseTable
	opts      BottomUpOptions
	trace     *Trace
	dp        []Cell
}

func (t *table1D) fill(i int, v float64, explanation string) error {
	if err := t.trace.Reserve(len(t.dp)); err != nil {
		return err
	}
	t.dp[i] = resolvedCell(v)
	snapshot := make([]Cell, len(t.dp))
	copy(snapshot, t.dp)
	return t.trace.Record(&FillStep{
		Action:      ActionFill,
		Index:       i,
		DPSnapshot:  snapshot,
		Explanation: explanation,
	})
}

func (t *table1D) get(i int) Cell {
	if i < 0 || i >= len(t.dp) {
		return Cell{}
	}
	return t.dp[i]
}

func (t *table1D) solve(n int) (float64, error) {
	shape := t.program.Shape()
	if t.opts.StrictShapes && shape != ShapeFibonacci && shape != ShapeFactorial {
		return 0, fmt.Errorf("%w: %s", ErrUnsupportedRecurrenceShape, t.program.Formula.RecursiveExpression)
	}
	name := t.program.Formula.Variables[0]
	t.dp = make([]Cell, n+1)

	for i := 0; i <= n; i++ {
		base, ok := t.baseCases.Lookup(strconv.Itoa(i))
		if !ok {
			continue
		}
		v, err := base.Resolve()
		if err != nil {
			return 0, evalError(err, "base case F(%d)", i)
		}
		if err := t.fill(i, v, fmt.Sprintf("Base case: dp[%d] = %s", i, cmn.FormatNumber(v))); err != nil {
			return 0, err
		}
	}

	for i := 0; i <= n; i++ {
		if t.dp[i].Resolved {
			continue
		}
		if err := t.ctx.Err(); err != nil {
			return 0, err
		}

		env := tableEnv{
			vars: expr.Vars{name: float64(i)},
			cell: func(args []float64) (Cell, bool) {
				j := int(args[0])
				return t.get(j), float64(j) == args[0]
			},
		}
		v, stop, err := stoppingValue(t.program, env, fmt.Sprintf("%s = %d", name, i))
		if err != nil {
			return 0, err
		}
		if stop {
			explanation := fmt.Sprintf("dp[%d] = %s (stopping condition %s)", i, cmn.FormatNumber(v),
				formula.Substitute(t.program.Formula.StoppingCondition, env.vars))
			if err := t.fill(i, v, explanation); err != nil {
				return 0, err
			}
			continue
		}

		var explanation string
		switch shape {
		case ShapeFactorial:
			if i == 0 {
				v = 1
				explanation = "dp[0] = 1"
				break
			}
			prev := t.get(i - 1).Value
			v = float64(i) * prev
			explanation = fmt.Sprintf("dp[%d] = %d * dp[%d] => %d*%s => %s",
				i, i, i-1, i, cmn.FormatNumber(prev), cmn.FormatNumber(v))
		default:
			// Fibonacci, and the best-effort guess for anything else
			a, b := t.get(i-1).Value, t.get(i-2).Value
			v = a + b
			explanation = fmt.Sprintf("dp[%d] = dp[%d] + dp[%d] => %s+%s => %s",
				i, i-1, i-2, cmn.FormatNumber(a), cmn.FormatNumber(b), cmn.FormatNumber(v))
		}
		if err := t.fill(i, v, explanation); err != nil {
			return 0, err
		}
	}

	return t.dp[n].Value, nil
}

type table2D struct {
	ctx       context.Context
	program   *Program
	baseCases formula.BaseCaseTable
	opts      BottomUpOptions
	trace     *Trace
	dp        [][]Cell
}

func (t *table2D) fill(i, j int, v float64, explanation string) error {
	if err := t.trace.Reserve(len(t.dp) * len(t.dp[0])); err != nil {
		return err
	}
	t.dp[i][j] = resolvedCell(v)
	snapshot := make([][]Cell, len(t.dp))
	for r := range t.dp {
		snapshot[r] = make([]Cell, len(t.dp[r]))
		copy(snapshot[r], t.dp[r])
	}
	return t.trace.Record(&Fill2DStep{
		Action:      ActionFill2D,
		I:           i,
		J:           j,
		DPSnapshot:  snapshot,
		Explanation: explanation,
	})
}

func (t *table2D) get(i, j int) Cell {
	if i < 0 || i >= len(t.dp) || j < 0 || j >= len(t.dp[i]) {
		return Cell{}
	}
	return t.dp[i][j]
}

func (t *table2D) solve(n, k int) (float64, error) {
	shape := t.program.Shape()
	if t.opts.StrictShapes && shape != ShapePascal {
		return 0, fmt.Errorf("%w: %s", ErrUnsupportedRecurrenceShape, t.program.Formula.RecursiveExpression)
	}
	nName, kName := t.program.Formula.Variables[0], t.program.Formula.Variables[1]
	// n and k are below the limit, dividing keeps rows*cols from overflowing
	limit := t.opts.cellLimit()
	rows, cols := n+1, max(n, k)+1
	if rows > limit/cols {
		return 0, fmt.Errorf("%w: the table for %s = %d, %s = %d exceeds the limit of %d cells",
			ErrEvaluation, nName, n, kName, k, limit)
	}
	t.dp = make([][]Cell, rows)
	for i := range t.dp {
		t.dp[i] = make([]Cell, cols)
	}

	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			base, ok := t.baseCases.Lookup(strconv.Itoa(i) + "," + strconv.Itoa(j))
			if !ok {
				continue
			}
			v, err := base.Resolve()
			if err != nil {
				return 0, evalError(err, "base case F(%d,%d)", i, j)
			}
			if err := t.fill(i, j, v, fmt.Sprintf("Base case: dp[%d][%d] = %s", i, j, cmn.FormatNumber(v))); err != nil {
				return 0, err
			}
		}
	}

	for i := 0; i <= n; i++ {
		for j := 0; j <= i && j < cols; j++ {
			if t.dp[i][j].Resolved {
				continue
			}
			if err := t.ctx.Err(); err != nil {
				return 0, err
			}

			env := tableEnv{
				vars: expr.Vars{nName: float64(i), kName: float64(j)},
				cell: func(args []float64) (Cell, bool) {
					r, c := int(args[0]), int(args[1])
					return t.get(r, c), float64(r) == args[0] && float64(c) == args[1]
				},
			}
			v, stop, err := stoppingValue(t.program, env, fmt.Sprintf("%s = %d, %s = %d", nName, i, kName, j))
			if err != nil {
				return 0, err
			}
			var explanation string
			switch {
			case stop:
				explanation = fmt.Sprintf("dp[%d][%d] = %s (stopping condition %s)", i, j, cmn.FormatNumber(v),
					formula.Substitute(t.program.Formula.StoppingCondition, env.vars))
			case j == 0 || j == i:
				v = 1
				explanation = fmt.Sprintf("dp[%d][%d] = 1 (edge of the triangle)", i, j)
			default:
				a, b := t.get(i-1, j-1).Value, t.get(i-1, j).Value
				v = a + b
				explanation = fmt.Sprintf("dp[%d][%d] = dp[%d][%d] + dp[%d][%d] => %s+%s => %s",
					i, j, i-1, j-1, i-1, j, cmn.FormatNumber(a), cmn.FormatNumber(b), cmn.FormatNumber(v))
			}
			if err := t.fill(i, j, v, explanation); err != nil {
				return 0, err
			}
		}
	}

	return t.dp[n][k].Value, nil
}
