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


// Package main (recsolve) is a command line that solves a recurrence
// formula and prints its result, optionally with the step trace.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	cmn "github.com/pzaino/recviz/pkg/common"
	cfg "github.com/pzaino/recviz/pkg/config"
	solver "github.com/pzaino/recviz/pkg/solver"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	flags := flag.NewFlagSet("recsolve", flag.ContinueOnError)
	flags.SetOutput(stderr)
	configFile := flags.String("config", "", "Path to the configuration file")
	formulaText := flags.String("formula", "", "Recurrence, e.g. \"n <= 1 ? n : F(n-1) + F(n-2)\"")
	baseCases := flags.String("base", "", "Base cases, e.g. \"F(0)=0, F(1)=1\"")
	params := flags.String("params", "", "Parameters, e.g. \"n=6\" or \"n=4,k=2\"")
	mode := flags.String("mode", "", "Solving method: top-down or bottom-up")
	maxRec := flags.String("max", "", "Maximum number of recursive calls (top-down)")
	showSteps := flags.Bool("steps", false, "Print every recorded step")
	showTree := flags.Bool("tree", false, "Draw the call tree (top-down)")
	asJSON := flags.Bool("json", false, "Print the full result as JSON")
	compare := flags.Bool("compare", false, "Solve with both methods and compare")
	debug := flags.String("debug", "", "Log level: info, debug, debug1 .. debug5")
	if err := flags.Parse(args); err != nil {
		return 2
	}

	config := cfg.NewConfig()
	if *configFile != "" {
		var err error
		config, err = cfg.LoadConfig(*configFile)
		if err != nil {
			fmt.Fprintf(stderr, "Error reading config file: %v\n", err)
			return 1
		}
	}
	cmn.SetDebugLevel(cmn.DbgLevel(config.DebugLevel))
	if *debug != "" && !cmn.SetDebugLevelFromString(*debug) {
		fmt.Fprintf(stderr, "Unknown log level '%s'\n", *debug)
		return 2
	}
	// logs stay on stderr, stdout carries the result
	cmn.UpdateLoggerConfig()

	if strings.TrimSpace(*formulaText) == "" {
		fmt.Fprintln(stderr, "A formula is required (-formula)")
		flags.Usage()
		return 2
	}

	parameters, err := parseParams(*params)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 2
	}
	limit, err := solver.ParseRecursionLimit(*maxRec)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 2
	}
	if limit == nil && config.Solver.DefaultMaxRecursions > 0 {
		v := config.Solver.DefaultMaxRecursions
		limit = &v
	}
	if *mode == "" {
		*mode = config.Solver.DefaultMode
	}

	req := solver.Request{
		Formula:       *formulaText,
		BaseCases:     *baseCases,
		Parameters:    parameters,
		Mode:          solver.Mode(*mode),
		MaxRecursions: limit,
	}
	opts := solver.Options{
		StrictShapes:     config.Solver.StrictShapes,
		MaxSteps:         config.Solver.MaxSteps,
		MaxTableCells:    config.Solver.MaxTableCells,
		MaxSnapshotCells: config.Solver.MaxSnapshotCells,
		IncludeCallTree:  *showTree,
	}

	if *compare {
		cmp, err := solver.Compare(context.Background(), req, opts)
		if err != nil {
			fmt.Fprintf(stderr, "Error: %v\n", err)
			return 1
		}
		fmt.Fprintf(stdout, "top-down:  %s (%d steps)\n", cmn.FormatNumber(cmp.TopDown.Result), len(cmp.TopDown.Steps))
		fmt.Fprintf(stdout, "bottom-up: %s (%d steps, %s)\n", cmn.FormatNumber(cmp.BottomUp.Result), len(cmp.BottomUp.Steps), cmp.BottomUp.Shape)
		if !cmp.Agree {
			fmt.Fprintln(stdout, "results differ")
			return 1
		}
		return 0
	}

	res, err := solver.Solve(context.Background(), req, opts)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	if *asJSON {
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(res); err != nil {
			fmt.Fprintf(stderr, "Error: %v\n", err)
			return 1
		}
		return 0
	}

	for _, w := range res.Warnings {
		fmt.Fprintf(stderr, "Warning: %s\n", w)
	}
	if *showSteps {
		for i, s := range res.Steps {
			fmt.Fprintf(stdout, "%4d %s\n", i, describeStep(s))
		}
	}
	if res.CallTree != "" {
		fmt.Fprintln(stdout, res.CallTree)
	}
	if res.BestEffort {
		fmt.Fprintln(stderr, "Warning: recurrence shape not recognised, the bottom-up result is a best-effort guess")
	}
	fmt.Fprintln(stdout, cmn.FormatNumber(res.Result))
	return 0
}

// parseParams reads "n=6,k=2".
func parseParams(text string) (map[string]int, error) {
	params := make(map[string]int)
	for _, part := range strings.Split(text, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		name, value, ok := strings.Cut(part, "=")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			return nil, fmt.Errorf("invalid parameter '%s', expected name=value", part)
		}
		v, err := strconv.Atoi(strings.TrimSpace(value))
		if err != nil {
			return nil, fmt.Errorf("parameter '%s' must be an integer", name)
		}
		params[name] = v
	}
	if len(params) == 0 {
		return nil, errors.New("no parameters given (-params)")
	}
	return params, nil
}

func describeStep(s solver.Step) string {
	switch s := s.(type) {
	case *solver.StackStep:
		return fmt.Sprintf("%-4s depth %-3d %s", s.Action, len(s.Stack), s.EvaluationDetail)
	case *solver.FillStep:
		return fmt.Sprintf("fill %s", s.Explanation)
	case *solver.Fill2DStep:
		return fmt.Sprintf("fill %s", s.Explanation)
	default:
		return string(s.StepAction())
	}
}
