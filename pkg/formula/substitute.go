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
	"sort"
	"strings"

	"github.com/Knetic/govaluate"
	cmn "github.com/pzaino/recviz/pkg/common"
)

// concreteCallPattern matches F(...) once identifiers have been replaced
var concreteCallPattern = regexp.MustCompile(`\bF\(\s*([^)]+?)\s*\)`)

// Substitute renders expression with concrete values: every identifier in
// bindings is replaced (longest names first, so "nn" is never clobbered by
// "n"), then each F(...) argument is folded to a number when it is plain
// arithmetic. Arguments that do not evaluate are left as they are.
//
//	Substitute("F(n-1) + F(n-2)", map[string]float64{"n": 5}) == "F(4) + F(3)"
func Substitute(expression string, bindings map[string]float64) string {
	names := make([]string, 0, len(bindings))
	for name := range bindings {
		if name != "" {
			names = append(names, name)
		}
	}
	sort.Slice(names, func(i, j int) bool {
		if len(names[i]) != len(names[j]) {
			return len(names[i]) > len(names[j])
		}
		return names[i] < names[j]
	})

	result := expression
	for _, name := range names {
		result = strings.ReplaceAll(result, name, cmn.FormatNumber(bindings[name]))
	}

	return concreteCallPattern.ReplaceAllStringFunc(result, func(call string) string {
		inner := concreteCallPattern.FindStringSubmatch(call)[1]
		args := strings.Split(inner, ",")
		for i, arg := range args {
			args[i] = foldArithmetic(strings.TrimSpace(arg))
		}
		return FuncName + "(" + strings.Join(args, ",") + ")"
	})
}

// foldArithmetic evaluates a constant arithmetic span, returning it
// unchanged when it cannot be evaluated.
func foldArithmetic(span string) string {
	if span == "" {
		return span
	}
	compiled, err := govaluate.NewEvaluableExpression(span)
	if err != nil {
		return span
	}
	value, err := compiled.Evaluate(nil)
	if err != nil {
		return span
	}
	switch v := value.(type) {
	case float64:
		return cmn.FormatNumber(v)
	case bool, string:
		return fmt.Sprint(v)
	}
	return span
}
