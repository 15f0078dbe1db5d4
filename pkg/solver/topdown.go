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
	"fmt"

	cmn "github.com/pzaino/recviz/pkg/common"
	expr "github.com/pzaino/recviz/pkg/expr"
	formula "github.com/pzaino/recviz/pkg/formula"
)

// callFrame is one activation of the recurrence.
type callFrame struct {
	symbolic string
	concrete string
	partial  string
	bindings expr.Vars
	// resolved holds the values of the child calls that already returned
	resolved map[*expr.Call]float64
}

// callSite tells a child frame where its value has to be folded back.
type callSite struct {
	parent *callFrame
	call   *expr.Call
}

// EvaluationContext is the state of one top-down solve. It is not safe for
// concurrent use and must not be reused across solves.
type EvaluationContext struct {
	ctx       context.Context
	program   *Program
	baseCases formula.BaseCaseTable
	limit     *int
	calls     int
	memo      map[string]float64
	stack     []*callFrame
	trace     *Trace
}

// NewEvaluationContext prepares a top-down solve. A nil limit leaves the
// number of calls unbounded.
func NewEvaluationContext(ctx context.Context, program *Program, baseCases formula.BaseCaseTable, limit *int, trace *Trace) (*EvaluationContext, error) {
	if limit != nil && *limit < 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidRecursionLimit, *limit)
	}
	if baseCases == nil {
		baseCases = formula.BaseCaseTable{}
	}
	if trace == nil {
		trace = NewTrace(0)
	}
	return &EvaluationContext{
		ctx:       ctx,
		program:   program,
		baseCases: baseCases,
		limit:     limit,
		memo:      make(map[string]float64),
		trace:     trace,
	}, nil
}

// Calls returns how many calls have been entered so far.
func (ec *EvaluationContext) Calls() int {
	return ec.calls
}

// Memo returns the memoized value of an argument key.
func (ec *EvaluationContext) Memo(key string) (float64, bool) {
	v, ok := ec.memo[key]
	return v, ok
}

// EvaluateTopDown solves the recurrence recursively with memoization,
// recording a push and a pop step per call.
func EvaluateTopDown(ctx context.Context, program *Program, baseCases formula.BaseCaseTable, params map[string]int, limit *int, trace *Trace) (float64, error) {
	ec, err := NewEvaluationContext(ctx, program, baseCases, limit, trace)
	if err != nil {
		return 0, err
	}
	return ec.Evaluate(params)
}

// Evaluate runs the top-level call with the given parameters.
func (ec *EvaluationContext) Evaluate(params map[string]int) (float64, error) {
	args, err := ec.program.arguments(params)
	if err != nil {
		return 0, err
	}
	return ec.invoke(args, nil)
}

// frameEnv evaluates expressions of one frame. Calls recurse through the
// evaluation context and report back to this frame.
type frameEnv struct {
	ec    *EvaluationContext
	frame *callFrame
}

func (e frameEnv) Lookup(name string) (float64, bool) {
	return e.frame.bindings.Lookup(name)
}

func (e frameEnv) Call(c *expr.Call, args []float64) (float64, error) {
	if c.Name != formula.FuncName || len(args) != e.ec.program.Formula.Arity() {
		return 0, fmt.Errorf("%w: %s", expr.ErrUnknownFunction, c.Name)
	}
	return e.ec.invoke(args, &callSite{parent: e.frame, call: c})
}

func (ec *EvaluationContext) invoke(args []float64, site *callSite) (float64, error) {
	key := formula.ArgsKey(args)
	frame := &callFrame{
		symbolic: ec.program.Formula.SymbolicCall(),
		concrete: formula.FuncName + "(" + key + ")",
		bindings: ec.program.bind(args),
		resolved: make(map[*expr.Call]float64),
	}
	frame.partial = ec.renderPartial(frame)

	ec.stack = append(ec.stack, frame)
	if err := ec.trace.Record(&StackStep{
		Action:           ActionPush,
		Stack:            ec.snapshot(),
		EvaluationDetail: "Calling " + frame.concrete,
	}); err != nil {
		return 0, err
	}

	if err := ec.ctx.Err(); err != nil {
		return 0, err
	}
	if ec.limit != nil && ec.calls >= *ec.limit {
		cmn.DebugMsg(cmn.DbgLvlDebug1, "Recursion limit %d reached at %s", *ec.limit, frame.concrete)
		return 0, fmt.Errorf("%w (limit %d, at %s)", ErrRecursionLimitExceeded, *ec.limit, frame.concrete)
	}
	ec.calls++

	env := frameEnv{ec: ec, frame: frame}

	if v, ok := ec.memo[key]; ok {
		detail := fmt.Sprintf("Reusing %s=%s", frame.concrete, cmn.FormatNumber(v))
		return ec.resolve(frame, site, v, ResolvedByMemo, detail)
	}

	cond, err := expr.Eval(ec.program.Condition, env)
	if err != nil {
		return 0, evalError(err, "stopping condition of %s", frame.concrete)
	}
	if expr.Truthy(cond) {
		v, err := expr.Eval(ec.program.Value, env)
		if err != nil {
			return 0, evalError(err, "stopping value of %s", frame.concrete)
		}
		v = ec.memoize(key, v)
		detail := fmt.Sprintf("Resolved %s => [stopping condition %s] => %s", frame.concrete,
			formula.Substitute(ec.program.Formula.StoppingCondition, frame.bindings), cmn.FormatNumber(v))
		return ec.resolve(frame, site, v, ResolvedByStop, detail)
	}

	if base, ok := ec.baseCases.Lookup(key); ok {
		v, err := base.Resolve()
		if err != nil {
			return 0, evalError(err, "base case of %s", frame.concrete)
		}
		v = ec.memoize(key, v)
		detail := fmt.Sprintf("Resolved %s => [base case] => %s", frame.concrete, cmn.FormatNumber(v))
		return ec.resolve(frame, site, v, ResolvedByBaseCase, detail)
	}

	v, err := expr.Eval(ec.program.Recursive, env)
	if err != nil {
		return 0, evalError(err, "recursive expression of %s", frame.concrete)
	}
	v = ec.memoize(key, v)
	detail := fmt.Sprintf("Resolved %s = %s => %s", frame.concrete, frame.partial, cmn.FormatNumber(v))
	return ec.resolve(frame, site, v, ResolvedByRecursion, detail)
}

// memoize stores v under key unless a value is already there, in which
// case the first one is kept.
func (ec *EvaluationContext) memoize(key string, v float64) float64 {
	if old, ok := ec.memo[key]; ok {
		cmn.DebugMsg(cmn.DbgLvlDebug3, "Memo entry F(%s) already set to %s, keeping it", key, cmn.FormatNumber(old))
		return old
	}
	ec.memo[key] = v
	return v
}

// resolve pops frame, hands v to the caller frame and records the pop.
func (ec *EvaluationContext) resolve(frame *callFrame, site *callSite, v float64, how, detail string) (float64, error) {
	ec.stack = ec.stack[:len(ec.stack)-1]
	if site != nil {
		site.parent.resolved[site.call] = v
		site.parent.partial = ec.renderPartial(site.parent)
	}

	value := v
	if err := ec.trace.Record(&StackStep{
		Action:           ActionPop,
		Stack:            ec.snapshot(),
		ResolvedValue:    &value,
		EvaluationDetail: detail,
		Resolution:       how,
	}); err != nil {
		return 0, err
	}
	return v, nil
}

// renderPartial renders the recursive expression of frame with variables
// replaced by their values, resolved calls by their results and the other
// calls by their concrete form.
func (ec *EvaluationContext) renderPartial(frame *callFrame) string {
	return expr.Render(ec.program.Recursive, expr.Rewriter{
		Ident: func(name string) (string, bool) {
			v, ok := frame.bindings[name]
			if !ok {
				return "", false
			}
			return cmn.FormatNumber(v), true
		},
		Call: func(c *expr.Call) (string, bool) {
			if v, ok := frame.resolved[c]; ok {
				return cmn.FormatNumber(v), true
			}
			args := make([]float64, len(c.Args))
			for i, a := range c.Args {
				v, err := expr.Eval(a, frame.bindings)
				if err != nil {
					return "", false
				}
				args[i] = v
			}
			return c.Name + "(" + formula.ArgsKey(args) + ")", true
		},
	})
}

func (ec *EvaluationContext) snapshot() []FrameSnapshot {
	frames := make([]FrameSnapshot, len(ec.stack))
	for i, f := range ec.stack {
		frames[i] = FrameSnapshot{
			Symbolic:          f.symbolic,
			Concrete:          f.concrete,
			PartialExpression: f.partial,
		}
	}
	return frames
}
