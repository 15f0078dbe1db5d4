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

package formula

import (
	"fmt"
	"regexp"
	"strings"

	cmn "github.com/pzaino/recviz/pkg/common"
)

// FuncName is the name recurrences use to refer to themselves.
const FuncName = "F"

var (
	// callPattern finds F(...) calls, the argument list stops at the first ')'
	callPattern = regexp.MustCompile(`\bF\(([^)]+)\)`)
	// argNoise are the characters stripped from an argument to reveal its variable
	argNoise = regexp.MustCompile(`[\d+\-*/%().\s]`)
	// bareIdent is what must be left once the noise is gone
	bareIdent = regexp.MustCompile(`^[A-Za-z_]+$`)
)

// ParsedFormula holds the three spans of a recurrence and its variables.
type ParsedFormula struct {
	StoppingCondition   string   `json:"stoppingCondition"`
	StoppingValue       string   `json:"stoppingValue"`
	RecursiveExpression string   `json:"recursiveExpression"`
	Variables           []string `json:"variables"`
}

// Parse splits formula on its first "?" and the first ":" after it and
// collects the variable names used as F(...) arguments anywhere in the text.
func Parse(formula string) (ParsedFormula, error) {
	q := strings.Index(formula, "?")
	if q < 0 {
		return ParsedFormula{}, ErrMalformedFormula
	}
	c := strings.Index(formula[q+1:], ":")
	if c < 0 {
		return ParsedFormula{}, ErrMalformedFormula
	}
	c += q + 1

	parsed := ParsedFormula{
		StoppingCondition:   strings.TrimSpace(formula[:q]),
		StoppingValue:       strings.TrimSpace(formula[q+1 : c]),
		RecursiveExpression: strings.TrimSpace(formula[c+1:]),
	}
	if parsed.StoppingCondition == "" || parsed.StoppingValue == "" || parsed.RecursiveExpression == "" {
		return ParsedFormula{}, fmt.Errorf("%w (empty condition, base value or expression)", ErrMalformedFormula)
	}

	parsed.Variables = extractVariables(formula)
	if len(parsed.Variables) == 0 {
		return ParsedFormula{}, ErrNoVariablesFound
	}

	cmn.DebugMsg(cmn.DbgLvlDebug3, "Parsed formula '%s': variables %v", formula, parsed.Variables)
	return parsed, nil
}

// extractVariables returns the identifiers found in F(...) arguments, in
// order of first appearance and without duplicates.
func extractVariables(formula string) []string {
	vars := make([]string, 0, 2)
	for _, m := range callPattern.FindAllStringSubmatch(formula, -1) {
		for _, arg := range strings.Split(m[1], ",") {
			name := argNoise.ReplaceAllString(arg, "")
			if name == "" || !bareIdent.MatchString(name) {
				continue
			}
			if !cmn.SliceContains(vars, name) {
				vars = append(vars, name)
			}
		}
	}
	return vars
}

// SymbolicCall returns the templated call shape, e.g. "F(n,k)".
func (p ParsedFormula) SymbolicCall() string {
	return FuncName + "(" + strings.Join(p.Variables, ",") + ")"
}

// Arity returns the number of variables of the recurrence.
func (p ParsedFormula) Arity() int {
	return len(p.Variables)
}
