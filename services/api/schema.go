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
	"github.com/qri-io/jsonschema"
)

const parseSchemaJSON = `{
	"$schema": "http://json-schema.org/draft-07/schema#",
	"title": "parse request",
	"type": "object",
	"properties": {
		"formula": { "type": "string" }
	},
	"required": ["formula"]
}`

const solveSchemaJSON = `{
	"$schema": "http://json-schema.org/draft-07/schema#",
	"title": "solve request",
	"type": "object",
	"properties": {
		"formula":         { "type": "string" },
		"baseCases":       { "type": "string" },
		"parameters": {
			"type": "object",
			"additionalProperties": { "type": ["integer", "string"] }
		},
		"solvingMethod":   { "type": "string" },
		"maxRecursions":   { "type": ["integer", "string", "null"] },
		"includeCallTree": { "type": "boolean" }
	},
	"required": ["formula"]
}`

var (
	parseSchema = jsonschema.Must(parseSchemaJSON)
	solveSchema = jsonschema.Must(solveSchemaJSON)
)
