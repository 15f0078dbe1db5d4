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
	"sort"
	"strconv"
	"strings"

	cmn "github.com/pzaino/recviz/pkg/common"
	"github.com/pzaino/recviz/pkg/expr"
)

// BaseValue is the right-hand side of a base case. Numeric text is parsed
// eagerly, anything else is kept raw and evaluated on use.
type BaseValue struct {
	Raw     string
	Value   float64
	Numeric bool
}

// Resolve returns the numeric value of the base case.
func (b BaseValue) Resolve() (float64, error) {
	if b.Numeric {
		return b.Value, nil
	}
	n, err := expr.Parse(b.Raw)
	if err != nil {
		return 0, fmt.Errorf("base value %q is not a number: %w", b.Raw, err)
	}
	v, err := expr.Eval(n, expr.Vars{})
	if err != nil {
		return 0, fmt.Errorf("base value %q is not a number: %w", b.Raw, err)
	}
	return v, nil
}

// BaseCaseTable maps an argument key ("0", "0,0") to its base value.
type BaseCaseTable map[string]BaseValue

// Lookup returns the base case for key, if any.
func (t BaseCaseTable) Lookup(key string) (BaseValue, bool) {
	v, ok := t[key]
	return v, ok
}

// Keys returns the table keys sorted, handy for logs and tests.
func (t BaseCaseTable) Keys() []string {
	keys := make([]string, 0, len(t))
	for k := range t {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// ArgsKey builds the table key for a list of arguments.
func ArgsKey(args []float64) string {
	return cmn.Float64SliceToString(args, ",")
}

// ParseBaseCases reads a comma-separated list of "F(key)=value" pairs.
// Reading is best-effort: entries that cannot be understood are skipped
// and reported in the returned warnings (each wrapping
// ErrInvalidBaseCaseSyntax), the rest of the table is still returned.
func ParseBaseCases(text string) (BaseCaseTable, []error) {
	table := make(BaseCaseTable)
	var warnings []error

	for _, entry := range splitTopLevel(text) {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}

		eq := strings.Index(entry, "=")
		if eq < 0 {
			warnings = append(warnings, fmt.Errorf("%w: %q has no '='", ErrInvalidBaseCaseSyntax, entry))
			continue
		}

		key, ok := baseCaseKey(entry[:eq])
		if !ok {
			warnings = append(warnings, fmt.Errorf("%w: %q is not of the form F(x)=y", ErrInvalidBaseCaseSyntax, entry))
			continue
		}

		raw := strings.TrimSpace(entry[eq+1:])
		if raw == "" {
			warnings = append(warnings, fmt.Errorf("%w: %q has no value", ErrInvalidBaseCaseSyntax, entry))
			continue
		}

		table[key] = parseBaseValue(raw)
	}

	for _, w := range warnings {
		cmn.DebugMsg(cmn.DbgLvlDebug2, "Base cases: %v", w)
	}
	return table, warnings
}

// splitTopLevel splits on commas that are not inside parentheses, so that
// "F(0,0)=1, F(1,1)=1" yields two entries.
func splitTopLevel(text string) []string {
	var parts []string
	depth, start := 0, 0
	for i, ch := range text {
		switch ch {
		case '(':
			depth++
		case ')':
			if depth > 0 {
				depth--
			}
		case ',':
			if depth == 0 {
				parts = append(parts, text[start:i])
				start = i + 1
			}
		}
	}
	return append(parts, text[start:])
}

// baseCaseKey strips the F( ) wrapper and all whitespace from a key.
func baseCaseKey(lhs string) (string, bool) {
	key := strings.TrimSpace(lhs)
	if strings.HasPrefix(key, FuncName+"(") {
		if !strings.HasSuffix(key, ")") {
			return "", false
		}
		key = key[len(FuncName)+1 : len(key)-1]
	}
	key = strings.Join(strings.Fields(key), "")
	if key == "" || strings.ContainsAny(key, "()=") {
		return "", false
	}
	// numeric arguments are written the same way ArgsKey writes them
	parts := strings.Split(key, ",")
	for i, part := range parts {
		if cmn.IsNumber(part) {
			f, _ := strconv.ParseFloat(part, 64)
			parts[i] = cmn.FormatNumber(f)
		}
	}
	return strings.Join(parts, ","), true
}

func parseBaseValue(raw string) BaseValue {
	if i, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return BaseValue{Raw: raw, Value: float64(i), Numeric: true}
	}
	if cmn.IsNumber(raw) {
		f, _ := strconv.ParseFloat(raw, 64)
		return BaseValue{Raw: raw, Value: f, Numeric: true}
	}
	return BaseValue{Raw: raw}
}
