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
	"fmt"
	"strconv"
	"strings"

	cmn "github.com/pzaino/recviz/pkg/common"
	formula "github.com/pzaino/recviz/pkg/formula"
)

// Mode selects the solving method.
type Mode string

const (
	// ModeTopDown solves recursively with memoization
	ModeTopDown Mode = "top-down"
	// ModeBottomUp fills a DP table
	ModeBottomUp Mode = "bottom-up"
)

// Request is one solve request.
type Request struct {
	Formula    string
	BaseCases  string
	Parameters map[string]int
	Mode       Mode
	// MaxRecursions bounds the number of top-down calls, nil = unbounded
	MaxRecursions *int
}

// Options tune how a request is served.
type Options struct {
	StrictShapes  bool
	MaxSteps      int
	MaxTableCells int
	// MaxSnapshotCells bounds the table cells and stack frames copied
	// into the trace over the whole solve (0 = unlimited)
	MaxSnapshotCells int
	IncludeCallTree  bool
}

// Result is a successful solve.
type Result struct {
	Result     float64  `json:"result"`
	Steps      []Step   `json:"steps"`
	Mode       Mode     `json:"mode"`
	Shape      string   `json:"shape,omitempty"`
	BestEffort bool     `json:"bestEffort,omitempty"`
	CallTree   string   `json:"callTree,omitempty"`
	Warnings   []string `json:"warnings,omitempty"`
}

// MarshalJSON implements json.Marshaler, a result that is not finite
// (an overflowing factorial for instance) encodes as null.
func (r Result) MarshalJSON() ([]byte, error) {
	type plain Result
	return json.Marshal(struct {
		plain
		Result *float64 `json:"result"`
	}{plain(r), Finite(r.Result)})
}

// ParseMode validates a solving method name.
func ParseMode(s string) (Mode, error) {
	switch m := Mode(strings.TrimSpace(s)); m {
	case ModeTopDown, ModeBottomUp:
		return m, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidMode, s)
	}
}

// ParseRecursionLimit reads a textual recursion limit. Empty text and "0"
// mean no limit.
func ParseRecursionLimit(s string) (*int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidRecursionLimit, s)
	}
	if v < 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidRecursionLimit, v)
	}
	if v == 0 {
		return nil, nil
	}
	return &v, nil
}

// Solve parses, compiles and solves a request.
func Solve(ctx context.Context, req Request, opts Options) (*Result, error) {
	program, err := CompileFormula(req.Formula)
	if err != nil {
		return nil, err
	}
	return SolveProgram(ctx, program, req, opts)
}

// SolveProgram solves a request against an already compiled program;
// req.Formula is ignored.
func SolveProgram(ctx context.Context, program *Program, req Request, opts Options) (*Result, error) {
	baseCases, warnings := formula.ParseBaseCases(req.BaseCases)
	res := &Result{Mode: req.Mode}
	for _, w := range warnings {
		cmn.DebugMsg(cmn.DbgLvlDebug1, "Skipping base case: %v", w)
		res.Warnings = append(res.Warnings, w.Error())
	}

	if req.MaxRecursions != nil && *req.MaxRecursions < 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidRecursionLimit, *req.MaxRecursions)
	}

	trace := NewBudgetTrace(opts.MaxSteps, opts.MaxSnapshotCells)
	var err error
	switch req.Mode {
	case ModeTopDown:
		res.Result, err = EvaluateTopDown(ctx, program, baseCases, req.Parameters, req.MaxRecursions, trace)
	case ModeBottomUp:
		res.Result, err = EvaluateBottomUp(ctx, program, baseCases, req.Parameters, BottomUpOptions{
			StrictShapes:  opts.StrictShapes,
			MaxTableCells: opts.MaxTableCells,
		}, trace)
	default:
		return nil, fmt.Errorf("%w: %q", ErrInvalidMode, req.Mode)
	}
	if err != nil {
		cmn.DebugMsg(cmn.DbgLvlDebug, "Solving %s (%s) failed after %d steps: %v",
			program.Formula.SymbolicCall(), req.Mode, trace.Len(), err)
		return nil, err
	}
	res.Steps = trace.Steps()
	if req.Mode == ModeBottomUp {
		res.Shape = program.Shape().String()
		res.BestEffort = program.Shape() == ShapeUnrecognized
	}

	if opts.IncludeCallTree && req.Mode == ModeTopDown {
		root, err := BuildCallTree(res.Steps)
		if err == nil {
			res.CallTree, err = RenderCallTree(root)
		}
		if err != nil {
			// the tree is a convenience, the solve itself succeeded
			cmn.DebugMsg(cmn.DbgLvlDebug, "Call tree not available: %v", err)
		}
	}

	cmn.DebugMsg(cmn.DbgLvlDebug1, "Solved %s (%s) = %s in %d steps",
		program.Formula.SymbolicCall(), req.Mode, cmn.FormatNumber(res.Result), len(res.Steps))
	return res, nil
}
