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

// DbgLevel is an enum to represent the debug level type
type DbgLevel int

const (
	// DbgLvlFatal is the fatal debug level (this will also exit the program!)
	DbgLvlFatal DbgLevel = -3
	// DbgLvlError is the error debug level
	DbgLvlError DbgLevel = -2
	// DbgLvlWarn is the warning debug level
	DbgLvlWarn DbgLevel = -1
	// DbgLvlInfo is the info debug level (default)
	DbgLvlInfo DbgLevel = 0
	// DbgLvlDebug is the first debug level
	DbgLvlDebug DbgLevel = 1
	// DbgLvlDebug1 is an alias of DbgLvlDebug
	DbgLvlDebug1 DbgLevel = 1
	// DbgLvlDebug2 is the second debug level
	DbgLvlDebug2 DbgLevel = 2
	// DbgLvlDebug3 is the third debug level
	DbgLvlDebug3 DbgLevel = 3
	// DbgLvlDebug4 is the fourth debug level
	DbgLvlDebug4 DbgLevel = 4
	// DbgLvlDebug5 is the most verbose debug level
	DbgLvlDebug5 DbgLevel = 5
)

var (
	// DebugLevel is the debug level for logging
	debugLevel DbgLevel

	// loggerPrefix is prepended to every log line
	loggerPrefix string

	// exitFunc is called by DebugMsg on fatal messages
	exitFunc = defaultExit
)
