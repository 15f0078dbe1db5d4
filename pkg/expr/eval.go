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
	"math"
)

var (
	// ErrUnknownIdentifier is returned when a variable has no binding
	ErrUnknownIdentifier = errors.New("unknown identifier")
	// ErrUnknownFunction is returned by environments that cannot dispatch a call
	ErrUnknownFunction = errors.New("unknown function")
	// ErrDivisionByZero is returned for x/0 and x%0
	ErrDivisionByZero = errors.New("division by zero")
)

// Env supplies variable values and call dispatch during evaluation.
type Env interface {
	// Lookup returns the value bound to name.
	Lookup(name string) (float64, bool)
	// Call evaluates a call node whose arguments have already been
	// evaluated, left to right.
	Call(c *Call, args []float64) (float64, error)
}

// Vars is an Env made of plain variable bindings, it does not dispatch calls.
type Vars map[string]float64

// Lookup implements Env
func (v Vars) Lookup(name string) (float64, bool) {
	val, ok := v[name]
	return val, ok
}

// Call implements Env
func (v Vars) Call(c *Call, _ []float64) (float64, error) {
	return 0, fmt.Errorf("%w: %s", ErrUnknownFunction, c.Name)
}

// Truthy reports whether a value counts as true: every non-zero number.
func Truthy(v float64) bool {
	return v != 0 && !math.IsNaN(v)
}

func boolValue(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

// Eval evaluates the tree against env. Comparisons and logical negation
// yield 1 or 0; && and || short-circuit and yield the deciding operand.
func Eval(n Node, env Env) (float64, error) {
	switch n := n.(type) {
	case *Number:
		return n.Value, nil

	case *Ident:
		v, ok := env.Lookup(n.Name)
		if !ok {
			return 0, fmt.Errorf("%w: %s", ErrUnknownIdentifier, n.Name)
		}
		return v, nil

	case *Group:
		return Eval(n.X, env)

	case *Unary:
		x, err := Eval(n.X, env)
		if err != nil {
			return 0, err
		}
		switch n.Op {
		case "-":
			return -x, nil
		case "+":
			return x, nil
		case "!":
			return boolValue(!Truthy(x)), nil
		}
		return 0, fmt.Errorf("unsupported unary operator %q", n.Op)

	case *Conditional:
		c, err := Eval(n.Cond, env)
		if err != nil {
			return 0, err
		}
		if Truthy(c) {
			return Eval(n.Then, env)
		}
		return Eval(n.Else, env)

	case *Call:
		args := make([]float64, len(n.Args))
		for i, a := range n.Args {
			v, err := Eval(a, env)
			if err != nil {
				return 0, err
			}
			args[i] = v
		}
		return env.Call(n, args)

	case *Binary:
		return evalBinary(n, env)
	}
	return 0, fmt.Errorf("unsupported expression node %T", n)
}

func evalBinary(n *Binary, env Env) (float64, error) {
	l, err := Eval(n.L, env)
	if err != nil {
		return 0, err
	}

	// short-circuit operators must not evaluate the right side eagerly,
	// it may contain calls
	switch n.Op {
	case "&&":
		if !Truthy(l) {
			return l, nil
		}
		return Eval(n.R, env)
	case "||":
		if Truthy(l) {
			return l, nil
		}
		return Eval(n.R, env)
	}

	r, err := Eval(n.R, env)
	if err != nil {
		return 0, err
	}

	switch n.Op {
	case "+":
		return l + r, nil
	case "-":
		return l - r, nil
	case "*":
		return l * r, nil
	case "/":
		if r == 0 {
			return 0, ErrDivisionByZero
		}
		return l / r, nil
	case "%":
		if r == 0 {
			return 0, ErrDivisionByZero
		}
		return math.Mod(l, r), nil
	case "==":
		return boolValue(l == r), nil
	case "!=":
		return boolValue(l != r), nil
	case "<":
		return boolValue(l < r), nil
	case "<=":
		return boolValue(l <= r), nil
	case ">":
		return boolValue(l > r), nil
	case ">=":
		return boolValue(l >= r), nil
	}
	return 0, fmt.Errorf("unsupported binary operator %q", n.Op)
}
