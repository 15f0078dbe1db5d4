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

// Package formula turns the ternary recurrence notation
// ("cond ? base : F(n-1) + F(n-2)") into its parts, substitutes
// concrete values into expression templates and reads user base cases.
package formula

import "errors"

var (
	// ErrMalformedFormula is returned when the "?" / ":" pair is missing
	ErrMalformedFormula = errors.New(`invalid formula, expected something like "n <= 1 ? n : F(n-1) + F(n-2)"`)
	// ErrNoVariablesFound is returned when the formula has no F(...) call with a variable
	ErrNoVariablesFound = errors.New("no variables found, use calls like F(n-1) or F(n,k-1)")
	// ErrInvalidBaseCaseSyntax marks a base case entry that could not be read.
	// It is only ever reported as a warning, the rest of the table is kept.
	ErrInvalidBaseCaseSyntax = errors.New("invalid base case syntax")
)
