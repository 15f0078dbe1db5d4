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
	"errors"
	"fmt"
)

var (
	// ErrRecursionLimitExceeded is returned when the configured call budget is used up
	ErrRecursionLimitExceeded = errors.New("max recursion depth exceeded")
	// ErrEvaluation is returned when a condition, value or expression cannot be evaluated
	ErrEvaluation = errors.New("evaluation error")
	// ErrUnsupportedArity is returned by the bottom-up evaluator for 0 or 3+ variables
	ErrUnsupportedArity = errors.New("bottom-up solving supports one or two variables only")
	// ErrUnsupportedRecurrenceShape is returned in strict mode for shapes the
	// bottom-up evaluator does not recognise
	ErrUnsupportedRecurrenceShape = errors.New("unsupported recurrence shape for bottom-up solving")
	// ErrInvalidMode is returned for solving methods other than top-down and bottom-up
	ErrInvalidMode = errors.New("invalid solving method chosen")
	// ErrInvalidRecursionLimit is returned for negative or non-numeric limits
	ErrInvalidRecursionLimit = errors.New("invalid maximum recursion depth")
	// ErrStepLimitExceeded is returned when the trace grows past its cap
	ErrStepLimitExceeded = errors.New("too many steps recorded")
)

// solverErrors are passed through untouched when they bubble up through
// nested evaluations.
var solverErrors = []error{
	ErrRecursionLimitExceeded,
	ErrEvaluation,
	ErrUnsupportedArity,
	ErrUnsupportedRecurrenceShape,
	ErrStepLimitExceeded,
	context.Canceled,
	context.DeadlineExceeded,
}

func isSolverError(err error) bool {
	for _, target := range solverErrors {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// evalError classifies err as an evaluation error unless it already carries
// a more specific meaning.
func evalError(err error, format string, args ...interface{}) error {
	if isSolverError(err) {
		return err
	}
	return fmt.Errorf("%w: %s: %v", ErrEvaluation, fmt.Sprintf(format, args...), err)
}
