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
	"bytes"
	"encoding/json"
	"fmt"
	"math"
)

// Action identifies the kind of a recorded step.
type Action string

const (
	// ActionPush is recorded when a top-down call is entered
	ActionPush Action = "push"
	// ActionPop is recorded when a top-down call returns
	ActionPop Action = "pop"
	// ActionFill is recorded when a 1-D table cell is filled
	ActionFill Action = "fill"
	// ActionFill2D is recorded when a 2-D table cell is filled
	ActionFill2D Action = "fill2D"
)

// Step is one event of a solve trace: a *StackStep, *FillStep or *Fill2DStep.
type Step interface {
	StepAction() Action
}

// How a popped call got its value
const (
	ResolvedByMemo      = "memo"
	ResolvedByStop      = "stopping-condition"
	ResolvedByBaseCase  = "base-case"
	ResolvedByRecursion = "recursion"
)

// FrameSnapshot is the copy of a call frame stored in a step.
type FrameSnapshot struct {
	Symbolic          string `json:"symbolic"`
	Concrete          string `json:"concrete"`
	PartialExpression string `json:"partialExpression"`
}

// StackStep records a top-down push or pop together with the call stack as
// it was right after the event.
type StackStep struct {
	Action           Action          `json:"action"`
	Stack            []FrameSnapshot `json:"stack"`
	ResolvedValue    *float64        `json:"resolvedValue"`
	EvaluationDetail string          `json:"evaluationDetail"`
	Resolution       string          `json:"resolution,omitempty"`
}

// StepAction implements Step
func (s *StackStep) StepAction() Action { return s.Action }

// MarshalJSON implements json.Marshaler, a value that is not finite
// encodes as null.
func (s StackStep) MarshalJSON() ([]byte, error) {
	type plain StackStep
	p := plain(s)
	if p.ResolvedValue != nil {
		p.ResolvedValue = Finite(*p.ResolvedValue)
	}
	return json.Marshal(p)
}

// Finite returns a pointer to v, or nil when v is NaN or infinite since
// JSON has no encoding for those.
func Finite(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

// Cell is a table slot, unresolved cells and values that are not finite
// encode as JSON null.
type Cell struct {
	Value    float64
	Resolved bool
}

// MarshalJSON implements json.Marshaler
func (c Cell) MarshalJSON() ([]byte, error) {
	v := Finite(c.Value)
	if !c.Resolved || v == nil {
		return []byte("null"), nil
	}
	return json.Marshal(*v)
}

// UnmarshalJSON implements json.Unmarshaler
func (c *Cell) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*c = Cell{}
		return nil
	}
	if err := json.Unmarshal(data, &c.Value); err != nil {
		return err
	}
	c.Resolved = true
	return nil
}

func resolvedCell(v float64) Cell { return Cell{Value: v, Resolved: true} }

// FillStep records a 1-D table fill.
type FillStep struct {
	Action      Action `json:"action"`
	Index       int    `json:"index"`
	DPSnapshot  []Cell `json:"dpSnapshot"`
	Explanation string `json:"explanation"`
}

// StepAction implements Step
func (s *FillStep) StepAction() Action { return s.Action }

// Fill2DStep records a 2-D table fill.
type Fill2DStep struct {
	Action      Action   `json:"action"`
	I           int      `json:"i"`
	J           int      `json:"j"`
	DPSnapshot  [][]Cell `json:"dpSnapshot"`
	Explanation string   `json:"explanation"`
}

// StepAction implements Step
func (s *Fill2DStep) StepAction() Action { return s.Action }

// DecodeStep decodes one JSON encoded step, choosing the concrete type
// from its "action" field.
func DecodeStep(data []byte) (Step, error) {
	var head struct {
		Action Action `json:"action"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return nil, err
	}

	var step Step
	switch head.Action {
	case ActionPush, ActionPop:
		step = &StackStep{}
	case ActionFill:
		step = &FillStep{}
	case ActionFill2D:
		step = &Fill2DStep{}
	default:
		return nil, fmt.Errorf("unknown step action %q", head.Action)
	}
	if err := json.Unmarshal(data, step); err != nil {
		return nil, err
	}
	return step, nil
}

// Trace is the append-only step sink of one solve.
type Trace struct {
	steps    []Step
	max      int
	maxCells int
	cells    int
}

// NewTrace returns a trace accepting at most max steps (0 = unlimited).
func NewTrace(max int) *Trace {
	return &Trace{max: max}
}

// NewBudgetTrace returns a trace accepting at most maxSteps steps whose
// snapshots hold at most maxCells table cells or stack frames altogether
// (0 = unlimited).
func NewBudgetTrace(maxSteps, maxCells int) *Trace {
	return &Trace{max: maxSteps, maxCells: maxCells}
}

// Reserve reports whether one more step with a snapshot of the given
// size would still fit. Callers check it before copying large snapshots.
func (t *Trace) Reserve(cells int) error {
	if t.max > 0 && len(t.steps) >= t.max {
		return fmt.Errorf("%w (limit %d)", ErrStepLimitExceeded, t.max)
	}
	if t.maxCells > 0 && cells > t.maxCells-t.cells {
		return fmt.Errorf("%w (snapshots would hold more than %d cells)", ErrStepLimitExceeded, t.maxCells)
	}
	return nil
}

// Record appends a step.
func (t *Trace) Record(s Step) error {
	n := snapshotSize(s)
	if err := t.Reserve(n); err != nil {
		return err
	}
	t.steps = append(t.steps, s)
	t.cells += n
	return nil
}

// Cells returns the number of snapshot cells and frames recorded so far.
func (t *Trace) Cells() int {
	return t.cells
}

func snapshotSize(s Step) int {
	switch s := s.(type) {
	case *StackStep:
		return len(s.Stack)
	case *FillStep:
		return len(s.DPSnapshot)
	case *Fill2DStep:
		n := 0
		for _, row := range s.DPSnapshot {
			n += len(row)
		}
		return n
	default:
		return 0
	}
}

// Steps returns the recorded steps in order.
func (t *Trace) Steps() []Step {
	return t.steps
}

// Len returns the number of recorded steps.
func (t *Trace) Len() int {
	return len(t.steps)
}
