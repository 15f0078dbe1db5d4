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
	cfg "github.com/pzaino/recviz/pkg/config"
	solver "github.com/pzaino/recviz/pkg/solver"
)

var (
	config cfg.Config // Global variable to store the configuration
)

// HealthCheck is a struct that holds the health status of the application.
type HealthCheck struct {
	Status string `json:"status"`
}

// ReadyCheck is a struct that holds the readiness status of the application.
type ReadyCheck struct {
	Status string `json:"status"`
}

// ParseRequest is the body of /v1/parse
type ParseRequest struct {
	Formula string `json:"formula"`
}

// ParseResponse is a parsed formula plus what the solver makes of it.
// CompileError is set when the parts split fine but cannot be solved
// (unknown functions, wrong arity, bad operators), Shape is then empty.
type ParseResponse struct {
	StoppingCondition   string   `json:"stoppingCondition"`
	StoppingValue       string   `json:"stoppingValue"`
	RecursiveExpression string   `json:"recursiveExpression"`
	Variables           []string `json:"variables"`
	Shape               string   `json:"shape,omitempty"`
	CompileError        string   `json:"compileError,omitempty"`
}

// SolveRequest is the body of /v1/solve, /v1/compare and of the first
// message on /v1/solve/stream.
type SolveRequest struct {
	Formula         string                 `json:"formula"`
	BaseCases       string                 `json:"baseCases"`
	Parameters      map[string]interface{} `json:"parameters"`
	SolvingMethod   string                 `json:"solvingMethod"`
	MaxRecursions   interface{}            `json:"maxRecursions"` // integer, numeric string or null
	IncludeCallTree bool                   `json:"includeCallTree"`
}

// StreamMessage is sent by the server on /v1/solve/stream
type StreamMessage struct {
	Type   string         `json:"type"` // "step", "result" or "error"
	Index  *int           `json:"index,omitempty"`
	Step   solver.Step    `json:"step,omitempty"`
	Result *StreamSummary `json:"result,omitempty"`
	Error  string         `json:"error,omitempty"`
}

// StreamSummary is the final message of a stream, the steps have
// already been sent one by one.
type StreamSummary struct {
	Result     *float64    `json:"result"` // null when not finite
	Mode       solver.Mode `json:"mode"`
	Shape      string      `json:"shape,omitempty"`
	BestEffort bool        `json:"bestEffort,omitempty"`
	CallTree   string      `json:"callTree,omitempty"`
	Warnings   []string    `json:"warnings,omitempty"`
	Steps      int         `json:"steps"`
}

// stream control messages sent by the client
const (
	streamPause  = "pause"
	streamResume = "resume"
	streamStop   = "stop"
)
