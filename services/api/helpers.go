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
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"strconv"
	"strings"

	cmn "github.com/pzaino/recviz/pkg/common"
	formula "github.com/pzaino/recviz/pkg/formula"
	solver "github.com/pzaino/recviz/pkg/solver"

	"github.com/qri-io/jsonschema"
	"golang.org/x/time/rate"
)

var (
	errInvalidRequest   = errors.New("invalid request")
	errBodyTooLarge     = errors.New("request body too large")
	errMethodNotAllowed = errors.New("method not allowed")
)

// handleErrorAndRespond encapsulates common error handling and JSON response logic.
func handleErrorAndRespond(w http.ResponseWriter, err error, results interface{}, errMsg string, errCode int, successCode int) {
	var response interface{}
	status := successCode

	if status == 0 || status == http.StatusNoContent {
		status = http.StatusOK
	}

	if err != nil {
		// Log the error and prepare an error response
		cmn.DebugMsg(cmn.DbgLvlDebug3, errMsg, err)
		totalErrors.Add(1)
		response = map[string]interface{}{
			"error":   err.Error(),
			"message": strings.TrimSpace(strings.TrimSuffix(errMsg, "%v")),
		}
		status = errCode
	} else {
		response = results
	}

	// Encode before the header goes out, so a failure still gets a 500
	data, encErr := json.Marshal(response)
	if encErr != nil {
		cmn.DebugMsg(cmn.DbgLvlDebug3, "Error encoding JSON response: %v", encErr)
		cmn.DebugMsg(cmn.DbgLvlDebug3, "Original Results: %+v", results)
		if err == nil {
			totalErrors.Add(1)
		}
		status = http.StatusInternalServerError
		data, _ = json.Marshal(map[string]string{"error": "Internal Server Error"})
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(append(data, '\n'))
}

// readBody reads a POST body, enforcing the configured size limit.
func readBody(w http.ResponseWriter, r *http.Request) ([]byte, int, error) {
	if r.Method != http.MethodPost {
		return nil, http.StatusMethodNotAllowed, fmt.Errorf("%w: %s", errMethodNotAllowed, r.Method)
	}
	if size := currentConfig().API.MaxBodySize; size > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, size)
	}
	body, err := io.ReadAll(r.Body)
	defer r.Body.Close() //nolint:errcheck // Don't lint for error not checked, this is a defer statement
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, http.StatusRequestEntityTooLarge, fmt.Errorf("%w (limit %d bytes)", errBodyTooLarge, tooLarge.Limit)
		}
		return nil, http.StatusBadRequest, err
	}
	return body, http.StatusOK, nil
}

// validateBody checks a JSON document against schema and decodes it into v.
func validateBody(ctx context.Context, schema *jsonschema.Schema, body []byte, v interface{}) error {
	if !json.Valid(body) {
		return fmt.Errorf("%w: body is not valid JSON", errInvalidRequest)
	}
	keyErrors, err := schema.ValidateBytes(ctx, body)
	if err != nil {
		return fmt.Errorf("%w: %v", errInvalidRequest, err)
	}
	if len(keyErrors) > 0 {
		msgs := make([]string, 0, len(keyErrors))
		for _, ke := range keyErrors {
			msgs = append(msgs, strings.TrimSpace(ke.PropertyPath+" "+ke.Message))
		}
		return fmt.Errorf("%w: %s", errInvalidRequest, strings.Join(msgs, "; "))
	}
	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("%w: %v", errInvalidRequest, err)
	}
	return nil
}

// decodeSolveRequest reads and validates a solve request body.
func decodeSolveRequest(w http.ResponseWriter, r *http.Request) (SolveRequest, int, error) {
	var req SolveRequest
	body, code, err := readBody(w, r)
	if err != nil {
		return req, code, err
	}
	if err := validateBody(r.Context(), solveSchema, body, &req); err != nil {
		return req, http.StatusBadRequest, err
	}
	return req, http.StatusOK, nil
}

// toSolverRequest converts the wire request, applying the configured defaults.
func toSolverRequest(body SolveRequest) (solver.Request, solver.Options, error) {
	req := solver.Request{
		Formula:   body.Formula,
		BaseCases: body.BaseCases,
		Mode:      solver.Mode(strings.TrimSpace(body.SolvingMethod)),
	}
	settings := currentConfig().Solver
	opts := solver.Options{
		StrictShapes:     settings.StrictShapes,
		MaxSteps:         settings.MaxSteps,
		MaxTableCells:    settings.MaxTableCells,
		MaxSnapshotCells: settings.MaxSnapshotCells,
		IncludeCallTree:  body.IncludeCallTree,
	}
	if req.Mode == "" {
		req.Mode = solver.Mode(settings.DefaultMode)
	}

	params, err := parseParameters(body.Parameters)
	if err != nil {
		return req, opts, err
	}
	req.Parameters = params

	limit, err := parseMaxRecursions(body.MaxRecursions)
	if err != nil {
		return req, opts, err
	}
	if limit == nil && settings.DefaultMaxRecursions > 0 {
		v := settings.DefaultMaxRecursions
		limit = &v
	}
	req.MaxRecursions = limit
	return req, opts, nil
}

// parseParameters accepts integers and integer strings.
func parseParameters(raw map[string]interface{}) (map[string]int, error) {
	params := make(map[string]int, len(raw))
	for name, v := range raw {
		switch v := v.(type) {
		case float64:
			if v != math.Trunc(v) || math.Abs(v) > math.MaxInt32 {
				return nil, fmt.Errorf("%w: parameter %q must be an integer", solver.ErrEvaluation, name)
			}
			params[name] = int(v)
		case string:
			i, err := strconv.Atoi(strings.TrimSpace(v))
			if err != nil {
				return nil, fmt.Errorf("%w: parameter %q must be an integer", solver.ErrEvaluation, name)
			}
			params[name] = i
		default:
			return nil, fmt.Errorf("%w: parameter %q must be an integer", solver.ErrEvaluation, name)
		}
	}
	return params, nil
}

// parseMaxRecursions reads the optional recursion limit; absent, null,
// "" and 0 all mean no limit.
func parseMaxRecursions(raw interface{}) (*int, error) {
	switch v := raw.(type) {
	case nil:
		return nil, nil
	case float64:
		if v != math.Trunc(v) || v < 0 || v > math.MaxInt32 {
			return nil, fmt.Errorf("%w: %v", solver.ErrInvalidRecursionLimit, v)
		}
		if v == 0 {
			return nil, nil
		}
		i := int(v)
		return &i, nil
	case string:
		return solver.ParseRecursionLimit(v)
	default:
		return nil, fmt.Errorf("%w: %v", solver.ErrInvalidRecursionLimit, v)
	}
}

// compileFormula returns the compiled program of text, from the cache when possible.
func compileFormula(text string) (*solver.Program, error) {
	cache := currentFormulaCache()
	if cache == nil {
		return solver.CompileFormula(text)
	}
	return cache.GetOrCreate(text, solver.CompileFormula)
}

func newFormulaCache(size int) *formula.Cache[*solver.Program] {
	return formula.NewCache[*solver.Program](size)
}

// newRateLimiter builds a limiter from a "rate,burst" string, missing or
// invalid parts default to 10.
func newRateLimiter(limits string) *rate.Limiter {
	if strings.TrimSpace(limits) == "" {
		limits = "10,10"
	}
	if !strings.Contains(limits, ",") {
		limits += ",10"
	}
	parts := strings.SplitN(limits, ",", 2)

	rl, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil || rl <= 0 {
		rl = 10
	}
	bl, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil || bl <= 0 {
		bl = 10
	}
	return rate.NewLimiter(rate.Limit(rl), bl)
}
