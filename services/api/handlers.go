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

package main

import (
	"net/http"

	cmn "github.com/pzaino/recviz/pkg/common"
	formula "github.com/pzaino/recviz/pkg/formula"
	solver "github.com/pzaino/recviz/pkg/solver"
)

// parseHandler splits a formula into its parts
func parseHandler(w http.ResponseWriter, r *http.Request) {
	body, code, err := readBody(w, r)
	if err != nil {
		handleErrorAndRespond(w, err, nil, "Invalid parse request: %v", code, http.StatusOK)
		return
	}
	var req ParseRequest
	if err := validateBody(r.Context(), parseSchema, body, &req); err != nil {
		handleErrorAndRespond(w, err, nil, "Invalid parse request: %v", http.StatusBadRequest, http.StatusOK)
		return
	}

	parsed, err := formula.Parse(req.Formula)
	if err != nil {
		handleErrorAndRespond(w, err, nil, "Error parsing formula: %v", http.StatusBadRequest, http.StatusOK)
		return
	}
	res := ParseResponse{
		StoppingCondition:   parsed.StoppingCondition,
		StoppingValue:       parsed.StoppingValue,
		RecursiveExpression: parsed.RecursiveExpression,
		Variables:           parsed.Variables,
	}

	// the split is valid even when the parts cannot be solved
	if program, err := compileFormula(req.Formula); err != nil {
		cmn.DebugMsg(cmn.DbgLvlDebug2, "[%s] formula parsed but does not compile: %v", requestID(r), err)
		res.CompileError = err.Error()
	} else {
		res.Shape = program.Shape().String()
	}

	totalSuccess.Add(1)
	handleErrorAndRespond(w, nil, res, "", http.StatusBadRequest, http.StatusOK)
}

// solveHandler solves a recurrence and returns the result with its full trace
func solveHandler(w http.ResponseWriter, r *http.Request) {
	body, code, err := decodeSolveRequest(w, r)
	if err != nil {
		handleErrorAndRespond(w, err, nil, "Invalid solve request: %v", code, http.StatusOK)
		return
	}

	res, err := runSolve(r, body)
	if err != nil {
		handleErrorAndRespond(w, err, nil, "Error solving recurrence: %v", http.StatusInternalServerError, http.StatusOK)
		return
	}

	totalSuccess.Add(1)
	handleErrorAndRespond(w, nil, res, "", http.StatusInternalServerError, http.StatusOK)
}

func runSolve(r *http.Request, body SolveRequest) (*solver.Result, error) {
	req, opts, err := toSolverRequest(body)
	if err != nil {
		return nil, err
	}
	program, err := compileFormula(req.Formula)
	if err != nil {
		return nil, err
	}
	res, err := solver.SolveProgram(r.Context(), program, req, opts)
	if err != nil {
		return nil, err
	}
	countSolve(res.Mode)
	cmn.DebugMsg(cmn.DbgLvlDebug2, "[%s] %s (%s) = %v", requestID(r), req.Formula, req.Mode, res.Result)
	return res, nil
}

// compareHandler solves a recurrence with both methods
func compareHandler(w http.ResponseWriter, r *http.Request) {
	body, code, err := decodeSolveRequest(w, r)
	if err != nil {
		handleErrorAndRespond(w, err, nil, "Invalid compare request: %v", code, http.StatusOK)
		return
	}

	req, opts, err := toSolverRequest(body)
	if err != nil {
		handleErrorAndRespond(w, err, nil, "Error comparing solving methods: %v", http.StatusInternalServerError, http.StatusOK)
		return
	}
	program, err := compileFormula(req.Formula)
	if err != nil {
		handleErrorAndRespond(w, err, nil, "Error comparing solving methods: %v", http.StatusInternalServerError, http.StatusOK)
		return
	}
	cmp, err := solver.CompareProgram(r.Context(), program, req, opts)
	if err != nil {
		handleErrorAndRespond(w, err, nil, "Error comparing solving methods: %v", http.StatusInternalServerError, http.StatusOK)
		return
	}

	countSolve(solver.ModeTopDown)
	countSolve(solver.ModeBottomUp)
	totalSuccess.Add(1)
	handleErrorAndRespond(w, nil, cmp, "", http.StatusInternalServerError, http.StatusOK)
}
