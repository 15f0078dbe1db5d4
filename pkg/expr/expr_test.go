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

package expr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTree(t *testing.T) {
	got, err := Parse("n <= 1 ? n : F(n-1) + F(n-2)")
	require.NoError(t, err)

	want := &Conditional{
		Cond: &Binary{Op: "<=", L: &Ident{Name: "n"}, R: &Number{Value: 1, Text: "1"}},
		Then: &Ident{Name: "n"},
		Else: &Binary{
			Op: "+",
			L:  &Call{Name: "F", Args: []Node{&Binary{Op: "-", L: &Ident{Name: "n"}, R: &Number{Value: 1, Text: "1"}}}},
			R:  &Call{Name: "F", Args: []Node{&Binary{Op: "-", L: &Ident{Name: "n"}, R: &Number{Value: 2, Text: "2"}}}},
		},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Parse() mismatch (-want +got):\n%s", diff)
	}
}

func TestParseString(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{"precedence", "1+2*3", "1 + 2 * 3"},
		{"grouping kept", "(1+2)*3", "(1 + 2) * 3"},
		{"left assoc", "a-b-c", "a - b - c"},
		{"unary", "-n*2", "-n * 2"},
		{"logical", "k == 0 || k == n", "k == 0 || k == n"},
		{"nested conditional", "a ? b : c ? d : e", "a ? b : c ? d : e"},
		{"two args", "F(n-1,k-1)", "F(n - 1,k - 1)"},
		{"no args", "G()", "G()"},
		{"decimal", "0.5 * .25", "0.5 * .25"},
		{"exponent", "1e3 + x", "1e3 + x"},
		{"not", "!(a && b)", "!(a && b)"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n, err := Parse(tt.src)
			require.NoError(t, err)
			assert.Equal(t, tt.want, String(n))
		})
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		src string
		pos int
	}{
		{"", 0},
		{"   ", 0},
		{"1 +", 3},
		{"(1 + 2", 6},
		{"F(1,", 4},
		{"a = 1", 2},
		{"a & b", 2},
		{"1 2", 2},
		{"a ? b", 5},
		{"#", 0},
		{")", 0},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("%q", tt.src), func(t *testing.T) {
			_, err := Parse(tt.src)
			require.Error(t, err)
			var se *SyntaxError
			require.True(t, errors.As(err, &se), "expected *SyntaxError, got %T", err)
			assert.Equal(t, tt.pos, se.Pos)
		})
	}
}

func TestEval(t *testing.T) {
	vars := Vars{"n": 5, "k": 2, "zero": 0}
	tests := []struct {
		src  string
		want float64
	}{
		{"n * 2 + 1", 11},
		{"n - k - 1", 2},
		{"(n - k) * 2", 6},
		{"n / 2", 2.5},
		{"n % 2", 1},
		{"-n + 1", -4},
		{"n <= 1", 0},
		{"n >= 5", 1},
		{"n == 5 && k == 2", 1},
		{"n != 5", 0},
		{"!zero", 1},
		{"zero || 7", 7},
		{"k && 3", 3},
		{"zero && undefined", 0},
		{"n || undefined", 5},
		{"n > 3 ? 10 : undefined", 10},
		{"n < 3 ? undefined : k < 1 ? 1 : 2", 2},
	}
	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			got, err := Eval(MustParse(tt.src), vars)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEvalErrors(t *testing.T) {
	vars := Vars{"n": 5}

	_, err := Eval(MustParse("n + m"), vars)
	assert.ErrorIs(t, err, ErrUnknownIdentifier)

	_, err = Eval(MustParse("n / (n - 5)"), vars)
	assert.ErrorIs(t, err, ErrDivisionByZero)

	_, err = Eval(MustParse("n % 0"), vars)
	assert.ErrorIs(t, err, ErrDivisionByZero)

	_, err = Eval(MustParse("F(n - 1)"), vars)
	assert.ErrorIs(t, err, ErrUnknownFunction)
}

// countingEnv dispatches F(x) = x * 10 and remembers every call.
type countingEnv struct {
	Vars
	calls []float64
}

func (e *countingEnv) Call(c *Call, args []float64) (float64, error) {
	e.calls = append(e.calls, args...)
	return args[0] * 10, nil
}

func TestEvalCallsAreLazy(t *testing.T) {
	env := &countingEnv{Vars: Vars{"n": 1}}
	got, err := Eval(MustParse("n <= 1 ? n : F(n - 1) + F(n - 2)"), env)
	require.NoError(t, err)
	assert.Equal(t, float64(1), got)
	assert.Empty(t, env.calls, "the untaken branch must not be evaluated")

	env = &countingEnv{Vars: Vars{"n": 4}}
	got, err = Eval(MustParse("n <= 1 ? n : F(n - 1) + F(n - 2)"), env)
	require.NoError(t, err)
	assert.Equal(t, float64(50), got)
	assert.Equal(t, []float64{3, 2}, env.calls)
}

func TestCallsAndIdentifiers(t *testing.T) {
	n := MustParse("k == 0 || k == n ? 1 : F(n-1,k-1) + F(n-1,k)")

	calls := Calls(n)
	require.Len(t, calls, 2)
	assert.Equal(t, "F(n - 1,k - 1)", String(calls[0]))
	assert.Equal(t, "F(n - 1,k)", String(calls[1]))

	assert.Equal(t, []string{"k", "n"}, Identifiers(n))
	assert.True(t, HasCalls(n))
	assert.False(t, HasCalls(MustParse("n <= 1")))
}

func TestRenderRewriter(t *testing.T) {
	n := MustParse("n * F(n-1)")
	got := Render(n, Rewriter{
		Ident: func(name string) (string, bool) {
			if name == "n" {
				return "5", true
			}
			return "", false
		},
		Call: func(c *Call) (string, bool) {
			return "24", true
		},
	})
	assert.Equal(t, "5 * 24", got)

	// no rewrite for calls keeps the argument rendering
	got = Render(n, Rewriter{Ident: func(string) (string, bool) { return "5", true }})
	assert.Equal(t, "5 * F(5 - 1)", got)
}

func TestMustParsePanics(t *testing.T) {
	assert.Panics(t, func() { MustParse("1 +") })
}
