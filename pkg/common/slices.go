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

// Package common package is used to store common functions and variables
package common

import (
	"math"
	"strconv"
	"strings"
)

// SliceContains checks if a slice contains a specific item.
func SliceContains(slice []string, item string) bool {
	// After some benchmarking tests, this is the fastest way to check if a slice contains an item.
	// the performance resulted better than using "range" and pre-unrolled loops.
	for i := 0; i < len(slice); i++ {
		if slice[i] == item {
			return true
		}
	}
	return false
}

// Float64SliceToString converts a slice of float64 to a string.
func Float64SliceToString(slice []float64, joinStr string) string {
	strSlice := make([]string, len(slice))
	for i, v := range slice {
		strSlice[i] = FormatNumber(v)
	}
	return strings.Join(strSlice, joinStr)
}

// FormatNumber renders a number the shortest way that round-trips,
// integral values never carry a fractional part.
func FormatNumber(v float64) string {
	if math.IsInf(v, 1) {
		return "Infinity"
	}
	if math.IsInf(v, -1) {
		return "-Infinity"
	}
	if math.IsNaN(v) {
		return "NaN"
	}
	if v == 0 {
		v = 0 // drop the sign of -0
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// IsNumber checks if the given string is a (signed) decimal number.
func IsNumber(str string) bool {
	str = strings.TrimSpace(str)
	if str == "" {
		return false
	}
	// ParseFloat also accepts "Inf", "NaN" and hex floats, none of which
	// are numbers as far as user input is concerned.
	if strings.ContainsAny(str, "iInNxXpP_") {
		return false
	}
	_, err := strconv.ParseFloat(str, 64)
	return err == nil
}
