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
	"encoding/json"
	"errors"
	"math"
	"strings"
	"testing"

	formula "github.com/pzaino/recviz/pkg/formula"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	fibonacci = "n <= 1 ? n : F(n-1) + F(n-2)"
	factorial = "n <= 1 ? 1 : n * F(n-1)"
	pascal    = "k == 0 || k == n ? 1 : F(n-1,k-1) + F(n-1,k)"
)

func intPtr(v int) *int { return &v }

func solve(t *testing.T, req Request, opts Options) *Result {
	t.Helper()
	res, err := Solve(context.Background(), req, opts)
	require.NoError(t, err)
	require.NotNil(t, res)
	return res
}

func stackSteps(t *testing.T, steps []Step) []*StackStep {
	t.Helper()
	out := make([]*StackStep, 0, len(steps))
	for _, s := range steps {
		st, ok := s.(*StackStep)
		require.True(t, ok, "unexpected step %T", s)
		out = append(out, st)
	}
	return out
}

func TestScenarios(t *testing.T) {
	tests := []struct {
		name   string
		req    Request
		result float64
	}{
		{"fibonacci top-down", Request{Formula: fibonacci, Parameters: map[string]int{"n": 6}, Mode: ModeTopDown}, 8},
		{"fibonacci bottom-up", Request{Formula: fibonacci, Parameters: map[string]int{"n": 6}, Mode: ModeBottomUp}, 8},
		{"factorial top-down", Request{Formula: factorial, Parameters: map[string]int{"n": 5}, Mode: ModeTopDown}, 120},
		{"factorial bottom-up", Request{Formula: factorial, Parameters: map[string]int{"n": 5}, Mode: ModeBottomUp}, 120},
		{"pascal top-down", Request{Formula: pascal, Parameters: map[string]int{"n": 4, "k": 2}, Mode: ModeTopDown}, 6},
		{"pascal bottom-up", Request{Formula: pascal, Parameters: map[string]int{"n": 4, "k": 2}, Mode: ModeBottomUp}, 6},
		{"stopping condition wins over base case", Request{Formula: fibonacci, BaseCases: "F(0)=5", Parameters: map[string]int{"n": 2}, Mode: ModeTopDown}, 1},
		{"base case overrides recursion", Request{Formula: fibonacci, BaseCases: "F(2)=5", Parameters: map[string]int{"n": 3}, Mode: ModeTopDown}, 6},
		{"base case overrides recursion bottom-up", Request{Formula: fibonacci, BaseCases: "F(2)=5", Parameters: map[string]int{"n": 3}, Mode: ModeBottomUp}, 6},
		{"limit large enough", Request{Formula: fibonacci, Parameters: map[string]int{"n": 6}, Mode: ModeTopDown, MaxRecursions: intPtr(11)}, 8},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := solve(t, tt.req, Options{})
			assert.Equal(t, tt.result, res.Result)
			assert.Equal(t, tt.req.Mode, res.Mode)
		})
	}
}

func TestTopDownTrace(t *testing.T) {
	res := solve(t, Request{Formula: fibonacci, Parameters: map[string]int{"n": 6}, Mode: ModeTopDown}, Options{})
	steps := stackSteps(t, res.Steps)

	// 7 distinct calls and 4 memo hits
	require.Len(t, steps, 22)

	first := steps[0]
	assert.Equal(t, ActionPush, first.Action)
	assert.Nil(t, first.ResolvedValue)
	assert.Equal(t, []FrameSnapshot{{Symbolic: "F(n)", Concrete: "F(6)", PartialExpression: "F(5) + F(4)"}}, first.Stack)

	last := steps[len(steps)-1]
	assert.Equal(t, ActionPop, last.Action)
	assert.Empty(t, last.Stack)
	require.NotNil(t, last.ResolvedValue)
	assert.Equal(t, 8.0, *last.ResolvedValue)
	assert.Equal(t, "Resolved F(6) = 5 + 3 => 8", last.EvaluationDetail)
	assert.Equal(t, ResolvedByRecursion, last.Resolution)

	// the first pop is F(1), folded into the F(2) frame
	var firstPop *StackStep
	for _, s := range steps {
		if s.Action == ActionPop {
			firstPop = s
			break
		}
	}
	require.NotNil(t, firstPop)
	assert.Equal(t, "Resolved F(1) => [stopping condition 1 <= 1] => 1", firstPop.EvaluationDetail)
	top := firstPop.Stack[len(firstPop.Stack)-1]
	assert.Equal(t, "F(2)", top.Concrete)
	assert.Equal(t, "1 + F(0)", top.PartialExpression)
}

func TestTopDownPushPopBalance(t *testing.T) {
	for _, f := range []string{fibonacci, factorial} {
		res := solve(t, Request{Formula: f, Parameters: map[string]int{"n": 9}, Mode: ModeTopDown}, Options{})
		depth := 0
		for _, s := range stackSteps(t, res.Steps) {
			if s.Action == ActionPush {
				depth++
			} else {
				depth--
			}
			assert.GreaterOrEqual(t, depth, 0)
			assert.Len(t, s.Stack, depth)
		}
		assert.Equal(t, 0, depth, f)
	}
}

func TestTopDownMemoizesEachKeyOnce(t *testing.T) {
	res := solve(t, Request{Formula: fibonacci, Parameters: map[string]int{"n": 12}, Mode: ModeTopDown}, Options{})

	resolved := map[string]int{}
	hits := 0
	for _, s := range stackSteps(t, res.Steps) {
		if s.Action != ActionPop {
			continue
		}
		if s.Resolution == ResolvedByMemo {
			assert.True(t, strings.HasPrefix(s.EvaluationDetail, "Reusing F("), s.EvaluationDetail)
			hits++
			continue
		}
		key := strings.Fields(s.EvaluationDetail)[1]
		resolved[key]++
	}
	assert.Len(t, resolved, 13)
	for key, count := range resolved {
		assert.Equal(t, 1, count, key)
	}
	assert.Equal(t, 10, hits)
}

func TestRecursionLimit(t *testing.T) {
	_, err := Solve(context.Background(), Request{
		Formula:       fibonacci,
		Parameters:    map[string]int{"n": 30},
		Mode:          ModeTopDown,
		MaxRecursions: intPtr(5),
	}, Options{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrRecursionLimitExceeded))
	assert.Contains(t, err.Error(), "max recursion depth exceeded")

	// exactly as many calls as the limit allows
	program, err := CompileFormula(fibonacci)
	require.NoError(t, err)
	ec, err := NewEvaluationContext(context.Background(), program, nil, intPtr(10), nil)
	require.NoError(t, err)
	_, err = ec.Evaluate(map[string]int{"n": 6})
	assert.ErrorIs(t, err, ErrRecursionLimitExceeded)
	assert.Equal(t, 10, ec.Calls())
}

func TestSolveErrors(t *testing.T) {
	tests := []struct {
		name string
		req  Request
		opts Options
		want error
	}{
		{"malformed formula", Request{Formula: "F(n-1)", Mode: ModeTopDown}, Options{}, formula.ErrMalformedFormula},
		{"no variables", Request{Formula: "x < 1 ? 1 : 2", Mode: ModeTopDown}, Options{}, formula.ErrNoVariablesFound},
		{"invalid mode", Request{Formula: fibonacci, Parameters: map[string]int{"n": 3}, Mode: "sideways"}, Options{}, ErrInvalidMode},
		{"negative limit", Request{Formula: fibonacci, Parameters: map[string]int{"n": 3}, Mode: ModeTopDown, MaxRecursions: intPtr(-1)}, Options{}, ErrInvalidRecursionLimit},
		{"missing parameter", Request{Formula: fibonacci, Parameters: map[string]int{"m": 3}, Mode: ModeTopDown}, Options{}, ErrEvaluation},
		{"division by zero", Request{Formula: "n <= 0 ? 1 / 0 : F(n-1)", Parameters: map[string]int{"n": 2}, Mode: ModeTopDown}, Options{}, ErrEvaluation},
		{"wrong arity", Request{Formula: "n <= 0 ? 0 : F(n-1, 2)", Parameters: map[string]int{"n": 2}, Mode: ModeTopDown}, Options{}, ErrEvaluation},
		{"three variables bottom-up", Request{Formula: "n + k + m == 0 ? 0 : F(n-1,k,m)", Parameters: map[string]int{"n": 1, "k": 0, "m": 0}, Mode: ModeBottomUp}, Options{}, ErrUnsupportedArity},
		{"negative bound bottom-up", Request{Formula: fibonacci, Parameters: map[string]int{"n": -1}, Mode: ModeBottomUp}, Options{}, ErrEvaluation},
		{"strict shapes", Request{Formula: "n <= 0 ? 1 : 2 * F(n-1)", Parameters: map[string]int{"n": 3}, Mode: ModeBottomUp}, Options{StrictShapes: true}, ErrUnsupportedRecurrenceShape},
		{"strict shapes 2-D", Request{Formula: "n == 0 ? 1 : F(n-1,k) * 2", Parameters: map[string]int{"n": 3, "k": 1}, Mode: ModeBottomUp}, Options{StrictShapes: true}, ErrUnsupportedRecurrenceShape},
		{"step cap", Request{Formula: fibonacci, Parameters: map[string]int{"n": 10}, Mode: ModeTopDown}, Options{MaxSteps: 5}, ErrStepLimitExceeded},
		{"table cap", Request{Formula: fibonacci, Parameters: map[string]int{"n": 10}, Mode: ModeBottomUp}, Options{MaxTableCells: 5}, ErrEvaluation},
		{"snapshot budget top-down", Request{Formula: fibonacci, Parameters: map[string]int{"n": 10}, Mode: ModeTopDown}, Options{MaxSnapshotCells: 20}, ErrStepLimitExceeded},
		{"snapshot budget bottom-up", Request{Formula: fibonacci, Parameters: map[string]int{"n": 10}, Mode: ModeBottomUp}, Options{MaxSnapshotCells: 120}, ErrStepLimitExceeded},
		{"unrecognised shape that fails", Request{Formula: "n <= 0 ? 1 / 0 : 2 * F(n-1)", Parameters: map[string]int{"n": 3}, Mode: ModeBottomUp}, Options{}, ErrEvaluation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := Solve(context.Background(), tt.req, tt.opts)
			assert.Nil(t, res)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestTableSizeLimits(t *testing.T) {
	tests := []struct {
		name   string
		req    Request
		limit  int
		cells  int
		failed bool
	}{
		{"1-D largest int", Request{Formula: fibonacci, Parameters: map[string]int{"n": math.MaxInt}}, 1000000, 0, true},
		{"1-D largest int without limit", Request{Formula: fibonacci, Parameters: map[string]int{"n": math.MaxInt}}, 0, 0, true},
		{"1-D above the ceiling", Request{Formula: fibonacci, Parameters: map[string]int{"n": TableCellsCeiling}}, 0, 0, true},
		{"1-D exactly at the limit", Request{Formula: fibonacci, Parameters: map[string]int{"n": 9}}, 10, 10, false},
		{"1-D one over the limit", Request{Formula: fibonacci, Parameters: map[string]int{"n": 10}}, 10, 0, true},
		{"2-D largest int rows", Request{Formula: pascal, Parameters: map[string]int{"n": math.MaxInt, "k": 1}}, 1000000, 0, true},
		{"2-D largest int columns", Request{Formula: pascal, Parameters: map[string]int{"n": 1, "k": math.MaxInt}}, 0, 0, true},
		{"2-D product over the limit", Request{Formula: pascal, Parameters: map[string]int{"n": 5000, "k": 2}}, 1000000, 0, true},
		{"2-D exactly at the limit", Request{Formula: pascal, Parameters: map[string]int{"n": 3, "k": 1}}, 16, 16, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.req.Mode = ModeBottomUp
			assert.NotPanics(t, func() {
				res, err := Solve(context.Background(), tt.req, Options{MaxTableCells: tt.limit})
				if tt.failed {
					assert.Nil(t, res)
					assert.ErrorIs(t, err, ErrEvaluation)
					assert.Contains(t, err.Error(), "exceeds the limit")
					return
				}
				require.NoError(t, err)
				last := res.Steps[len(res.Steps)-1]
				switch s := last.(type) {
				case *FillStep:
					assert.Len(t, s.DPSnapshot, tt.cells)
				case *Fill2DStep:
					assert.Equal(t, tt.cells, len(s.DPSnapshot)*len(s.DPSnapshot[0]))
				}
			})
		})
	}
}

func TestTraceSnapshotBudget(t *testing.T) {
	trace := NewBudgetTrace(0, 5)
	require.NoError(t, trace.Record(&StackStep{Action: ActionPush, Stack: make([]FrameSnapshot, 3)}))
	assert.Equal(t, 3, trace.Cells())
	assert.ErrorIs(t, trace.Reserve(3), ErrStepLimitExceeded)
	require.NoError(t, trace.Record(&FillStep{Action: ActionFill, DPSnapshot: make([]Cell, 2)}))
	err := trace.Record(&Fill2DStep{Action: ActionFill2D, DPSnapshot: [][]Cell{make([]Cell, 1)}})
	assert.ErrorIs(t, err, ErrStepLimitExceeded)
	assert.Equal(t, 2, trace.Len())
	assert.Equal(t, 5, trace.Cells())

	// a wide table stops before its snapshots pile up
	program, err := CompileFormula(pascal)
	require.NoError(t, err)
	trace = NewBudgetTrace(0, 200000)
	_, err = EvaluateBottomUp(context.Background(), program, nil, map[string]int{"n": 299, "k": 150},
		BottomUpOptions{MaxTableCells: 1000000}, trace)
	assert.ErrorIs(t, err, ErrStepLimitExceeded)
	assert.Equal(t, 2, trace.Len())
	assert.Equal(t, 180000, trace.Cells())

	// a budget that fits the whole trace changes nothing
	res := solve(t, Request{Formula: fibonacci, Parameters: map[string]int{"n": 10}, Mode: ModeBottomUp}, Options{MaxSnapshotCells: 121})
	assert.Equal(t, 55.0, res.Result)
}

func TestOverflowingResult(t *testing.T) {
	for _, mode := range []Mode{ModeTopDown, ModeBottomUp} {
		t.Run(string(mode), func(t *testing.T) {
			res := solve(t, Request{Formula: factorial, Parameters: map[string]int{"n": 171}, Mode: mode}, Options{})
			assert.True(t, math.IsInf(res.Result, 1))

			data, err := json.Marshal(res)
			require.NoError(t, err)
			var body map[string]json.RawMessage
			require.NoError(t, json.Unmarshal(data, &body))
			assert.Equal(t, "null", string(body["result"]))
			assert.Equal(t, `"`+string(mode)+`"`, string(body["mode"]))

			last, err := json.Marshal(res.Steps[len(res.Steps)-1])
			require.NoError(t, err)
			if mode == ModeTopDown {
				assert.Contains(t, string(last), `"resolvedValue":null`)
			} else {
				assert.Contains(t, string(last), `,null]`)
			}
		})
	}

	cell, err := json.Marshal(Cell{Value: math.NaN(), Resolved: true})
	require.NoError(t, err)
	assert.Equal(t, "null", string(cell))

	cmp, err := Compare(context.Background(), Request{Formula: factorial, Parameters: map[string]int{"n": 171}}, Options{})
	require.NoError(t, err)
	_, err = json.Marshal(cmp)
	assert.NoError(t, err)
}

func TestSolveCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	for _, mode := range []Mode{ModeTopDown, ModeBottomUp} {
		_, err := Solve(ctx, Request{Formula: fibonacci, Parameters: map[string]int{"n": 5}, Mode: mode}, Options{})
		assert.ErrorIs(t, err, context.Canceled, mode)
	}
}

func TestBottomUpFills(t *testing.T) {
	res := solve(t, Request{Formula: fibonacci, Parameters: map[string]int{"n": 6}, Mode: ModeBottomUp}, Options{})
	require.Len(t, res.Steps, 7)
	assert.Equal(t, "fibonacci", res.Shape)
	assert.False(t, res.BestEffort)

	for i, s := range res.Steps {
		fill, ok := s.(*FillStep)
		require.True(t, ok)
		assert.Equal(t, ActionFill, fill.Action)
		assert.Equal(t, i, fill.Index)
		require.Len(t, fill.DPSnapshot, 7)
		// snapshots are copies: later cells are still empty
		for j, c := range fill.DPSnapshot {
			assert.Equal(t, j <= i, c.Resolved, "step %d cell %d", i, j)
		}
	}
	assert.Equal(t, "dp[0] = 0 (stopping condition 0 <= 1)", res.Steps[0].(*FillStep).Explanation)
	assert.Equal(t, "dp[6] = dp[5] + dp[4] => 5+3 => 8", res.Steps[6].(*FillStep).Explanation)
}

func TestBottomUpBaseCasesSeedFirst(t *testing.T) {
	res := solve(t, Request{Formula: fibonacci, BaseCases: "F(3)=10", Parameters: map[string]int{"n": 5}, Mode: ModeBottomUp}, Options{})
	first := res.Steps[0].(*FillStep)
	assert.Equal(t, 3, first.Index)
	assert.Equal(t, "Base case: dp[3] = 10", first.Explanation)
	// dp = 0 1 1 10 11 21
	assert.Equal(t, 21.0, res.Result)
}

func TestBottomUpPascalTable(t *testing.T) {
	res := solve(t, Request{Formula: pascal, Parameters: map[string]int{"n": 4, "k": 2}, Mode: ModeBottomUp}, Options{})
	assert.Equal(t, "pascal", res.Shape)
	// triangle rows 0..4
	require.Len(t, res.Steps, 15)

	last := res.Steps[len(res.Steps)-1].(*Fill2DStep)
	assert.Equal(t, ActionFill2D, last.Action)
	assert.Equal(t, 4, last.I)
	assert.Equal(t, 4, last.J)
	require.Len(t, last.DPSnapshot, 5)
	require.Len(t, last.DPSnapshot[4], 5)
	row := make([]float64, 0, 5)
	for _, c := range last.DPSnapshot[4] {
		row = append(row, c.Value)
	}
	assert.Equal(t, []float64{1, 4, 6, 4, 1}, row)
	assert.False(t, last.DPSnapshot[1][2].Resolved)

	first := res.Steps[0].(*Fill2DStep)
	assert.False(t, first.DPSnapshot[4][2].Resolved)
}

func TestBottomUpBestEffort(t *testing.T) {
	res := solve(t, Request{Formula: "n <= 0 ? 1 : 2 * F(n-1)", Parameters: map[string]int{"n": 3}, Mode: ModeBottomUp}, Options{})
	assert.True(t, res.BestEffort)
	assert.Equal(t, "unrecognized", res.Shape)
	// sum of priors: 1 1 2 3
	assert.Equal(t, 3.0, res.Result)
}

func TestCrossModeEquivalence(t *testing.T) {
	tests := []struct {
		formula string
		params  map[string]int
	}{
		{fibonacci, map[string]int{"n": 0}},
		{fibonacci, map[string]int{"n": 1}},
		{fibonacci, map[string]int{"n": 15}},
		{factorial, map[string]int{"n": 0}},
		{factorial, map[string]int{"n": 10}},
		{pascal, map[string]int{"n": 6, "k": 3}},
		{pascal, map[string]int{"n": 7, "k": 0}},
	}

	for _, tt := range tests {
		cmp, err := Compare(context.Background(), Request{Formula: tt.formula, Parameters: tt.params}, Options{})
		require.NoError(t, err, tt.formula)
		assert.True(t, cmp.Agree, "%s %v: %v vs %v", tt.formula, tt.params, cmp.TopDown.Result, cmp.BottomUp.Result)
		assert.Equal(t, ModeTopDown, cmp.TopDown.Mode)
		assert.Equal(t, ModeBottomUp, cmp.BottomUp.Mode)
	}
}

func TestCompareFailure(t *testing.T) {
	_, err := Compare(context.Background(), Request{
		Formula:       fibonacci,
		Parameters:    map[string]int{"n": 20},
		MaxRecursions: intPtr(3),
	}, Options{})
	assert.ErrorIs(t, err, ErrRecursionLimitExceeded)
}

func TestRecognizeShape(t *testing.T) {
	tests := []struct {
		formula string
		want    Shape
	}{
		{fibonacci, ShapeFibonacci},
		{"n < 2 ? n : F(n-2)+F(n-1)", ShapeFibonacci},
		{"x < 2 ? x : (F(x - 1) + F(x - 2))", ShapeFibonacci},
		{factorial, ShapeFactorial},
		{"n <= 1 ? 1 : F(n-1) * n", ShapeFactorial},
		{pascal, ShapePascal},
		{"b == 0 || a == b ? 1 : F(a-1,b) + F(a-1,b-1)", ShapePascal},
		{"n <= 1 ? n : F(n-1) + F(n-2) + 1", ShapeUnrecognized},
		{"n <= 1 ? n : F(n-1) - F(n-2)", ShapeUnrecognized},
		{"n == 0 ? 1 : F(n-1,k) * 2", ShapeUnrecognized},
	}

	for _, tt := range tests {
		parsed, err := formula.Parse(tt.formula)
		require.NoError(t, err)
		assert.Equal(t, tt.want, RecognizeShape(parsed), tt.formula)
	}
}

func TestParseRecursionLimit(t *testing.T) {
	tests := []struct {
		in      string
		want    *int
		wantErr bool
	}{
		{"", nil, false},
		{"  ", nil, false},
		{"0", nil, false},
		{"5", intPtr(5), false},
		{" 12 ", intPtr(12), false},
		{"-1", nil, true},
		{"lots", nil, true},
	}

	for _, tt := range tests {
		got, err := ParseRecursionLimit(tt.in)
		if tt.wantErr {
			assert.ErrorIs(t, err, ErrInvalidRecursionLimit, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}

func TestParseMode(t *testing.T) {
	m, err := ParseMode("bottom-up")
	require.NoError(t, err)
	assert.Equal(t, ModeBottomUp, m)

	_, err = ParseMode("dynamic")
	assert.ErrorIs(t, err, ErrInvalidMode)
}

func TestStepJSON(t *testing.T) {
	res := solve(t, Request{Formula: fibonacci, Parameters: map[string]int{"n": 2}, Mode: ModeBottomUp}, Options{})
	data, err := json.Marshal(res.Steps[0])
	require.NoError(t, err)
	assert.JSONEq(t, `{"action":"fill","index":0,"dpSnapshot":[0,null,null],"explanation":"dp[0] = 0 (stopping condition 0 <= 1)"}`, string(data))

	td := solve(t, Request{Formula: fibonacci, Parameters: map[string]int{"n": 1}, Mode: ModeTopDown}, Options{})
	data, err = json.Marshal(td.Steps)
	require.NoError(t, err)
	assert.JSONEq(t, `[
		{"action":"push","stack":[{"symbolic":"F(n)","concrete":"F(1)","partialExpression":"F(0) + F(-1)"}],"resolvedValue":null,"evaluationDetail":"Calling F(1)"},
		{"action":"pop","stack":[],"resolvedValue":1,"evaluationDetail":"Resolved F(1) => [stopping condition 1 <= 1] => 1","resolution":"stopping-condition"}
	]`, string(data))

	var raw []json.RawMessage
	require.NoError(t, json.Unmarshal(data, &raw))
	decoded := make([]Step, 0, len(raw))
	for _, r := range raw {
		s, err := DecodeStep(r)
		require.NoError(t, err)
		decoded = append(decoded, s)
	}
	if diff := cmp.Diff(td.Steps, decoded); diff != "" {
		t.Errorf("decoded steps mismatch (-want +got):\n%s", diff)
	}

	_, err = DecodeStep([]byte(`{"action":"jump"}`))
	assert.Error(t, err)
}

func TestCallTree(t *testing.T) {
	res := solve(t, Request{Formula: fibonacci, Parameters: map[string]int{"n": 3}, Mode: ModeTopDown}, Options{IncludeCallTree: true})

	root, err := BuildCallTree(res.Steps)
	require.NoError(t, err)
	assert.Equal(t, 5, root.Size())
	assert.Equal(t, "F(3)", root.Call)
	assert.Equal(t, 2.0, root.Value)
	require.Len(t, root.Children, 2)
	assert.Equal(t, "F(2)", root.Children[0].Call)
	assert.Equal(t, ResolvedByMemo, root.Children[1].Resolution)

	assert.Contains(t, res.CallTree, "F(3)=2")
	assert.Contains(t, res.CallTree, "F(1)=1 (memo)")

	bu := solve(t, Request{Formula: fibonacci, Parameters: map[string]int{"n": 3}, Mode: ModeBottomUp}, Options{IncludeCallTree: true})
	assert.Empty(t, bu.CallTree)
	_, err = BuildCallTree(bu.Steps)
	assert.Error(t, err)

	_, err = BuildCallTree(res.Steps[:len(res.Steps)-1])
	assert.Error(t, err)
}
