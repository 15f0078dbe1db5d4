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

	"golang.org/x/sync/errgroup"
)

// Comparison holds the results of both solving methods for one request.
type Comparison struct {
	TopDown  *Result `json:"topDown"`
	BottomUp *Result `json:"bottomUp"`
	Agree    bool    `json:"agree"`
}

// Compare solves the request top-down and bottom-up concurrently. The
// request mode is ignored. If either method fails the other one is
// cancelled and the first error is returned.
func Compare(ctx context.Context, req Request, opts Options) (*Comparison, error) {
	program, err := CompileFormula(req.Formula)
	if err != nil {
		return nil, err
	}
	return CompareProgram(ctx, program, req, opts)
}

// CompareProgram is Compare for an already compiled program.
func CompareProgram(ctx context.Context, program *Program, req Request, opts Options) (*Comparison, error) {
	var cmp Comparison
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		r := req
		r.Mode = ModeTopDown
		res, err := SolveProgram(gctx, program, r, opts)
		cmp.TopDown = res
		return err
	})
	g.Go(func() error {
		r := req
		r.Mode = ModeBottomUp
		// the recursion limit does not apply to table filling
		r.MaxRecursions = nil
		res, err := SolveProgram(gctx, program, r, opts)
		cmp.BottomUp = res
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	cmp.Agree = cmp.TopDown.Result == cmp.BottomUp.Result
	return &cmp, nil
}
