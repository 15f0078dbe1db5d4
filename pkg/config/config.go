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

// Package config contains the configuration file parsing logic.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"

	cmn "github.com/pzaino/recviz/pkg/common"

	"gopkg.in/yaml.v2"
)

const (
	// ModeTopDown is the memoized recursive solving method
	ModeTopDown = "top-down"
	// ModeBottomUp is the tabulating solving method
	ModeBottomUp = "bottom-up"
)

var (
	envVarPattern  = regexp.MustCompile(`\$\{?(\w+)\}?`)
	includePattern = regexp.MustCompile(`include:\s*["']?([^"'\s]+)["']?`)
)

// fileExists checks if a file exists at the given filename.
// It returns true if the file exists and is not a directory, and false otherwise.
func fileExists(filename string) bool {
	info, err := os.Stat(filename)
	if os.IsNotExist(err) {
		return false
	}
	return err == nil && !info.IsDir()
}

// interpolateEnvVars replaces occurrences of `${VAR}` or `$VAR` in the input string
// with the value of the VAR environment variable.
func interpolateEnvVars(input string) string {
	return envVarPattern.ReplaceAllStringFunc(input, func(varName string) string {
		// Trim ${ and } from varName
		trimmedVarName := strings.TrimPrefix(varName, "${")
		trimmedVarName = strings.TrimPrefix(trimmedVarName, "$")
		trimmedVarName = strings.TrimSuffix(trimmedVarName, "}")

		// Return the environment variable value
		return os.Getenv(trimmedVarName)
	})
}

// recursiveInclude processes the "include" directives in YAML files.
// It supports environment variable interpolation in file paths.
func recursiveInclude(yamlContent string, baseDir string, depth int) (string, error) {
	if depth > 8 {
		return "", fmt.Errorf("include nesting too deep")
	}
	matches := includePattern.FindAllStringSubmatch(yamlContent, -1)

	for _, match := range matches {
		includePath := interpolateEnvVars(match[1])
		includePath = filepath.Join(baseDir, includePath)

		includedContentBytes, err := os.ReadFile(includePath) //nolint:gosec // paths come from the operator's config
		if err != nil {
			return "", err
		}

		includedContent := string(includedContentBytes)
		if strings.Contains(includedContent, "include:") {
			includedContent, err = recursiveInclude(includedContent, filepath.Dir(includePath), depth+1)
			if err != nil {
				return "", err
			}
		}

		yamlContent = strings.Replace(yamlContent, match[0], includedContent, 1)
	}

	return yamlContent, nil
}

// ParseConfig unmarshals raw YAML into a Config struct (no defaults applied).
func ParseConfig(data []byte) (Config, error) {
	var config Config
	content := strings.TrimSpace(string(data))
	if content == "" {
		return config, nil
	}
	err := yaml.Unmarshal([]byte(content), &config)
	return config, err
}

// getConfigFile reads and unmarshals a configuration file with the given name.
// It checks if the file exists, reads its contents, and unmarshals it into a Config struct.
// If the file does not exist or an error occurs during reading or unmarshaling, an error is returned.
func getConfigFile(confName string) (Config, error) {

	// Check if the configuration file exists
	if !fileExists(confName) {
		return Config{}, fmt.Errorf("file does not exist: %s", confName)
	}

	// Read the configuration file
	data, err := os.ReadFile(confName) //nolint:gosec // the config path is an operator flag
	if err != nil {
		return Config{}, err
	}

	baseDir := filepath.Dir(confName)

	// Interpolate environment variables and process includes
	interpolatedData := interpolateEnvVars(string(data))

	finalData, err := recursiveInclude(interpolatedData, baseDir, 0)
	if err != nil {
		return Config{}, err
	}

	return ParseConfig([]byte(finalData))
}

// NewConfig returns a Config populated with the default values
func NewConfig() Config {
	var config Config
	setDefaults(&config)
	return config
}

// setDefaults fills every zero-valued field that has a sensible default
func setDefaults(config *Config) {
	// Set the OS variable
	config.OS = runtime.GOOS

	if config.API.Host == "" {
		config.API.Host = "localhost"
	}

	if config.API.Port == 0 {
		config.API.Port = 8080
	}

	if config.API.Timeout == 0 {
		config.API.Timeout = 60
	}

	if config.API.ReadHeaderTimeout == 0 {
		config.API.ReadHeaderTimeout = 15
	}

	if config.API.ReadTimeout == 0 {
		config.API.ReadTimeout = 15
	}

	if config.API.WriteTimeout == 0 {
		config.API.WriteTimeout = 30
	}

	if strings.TrimSpace(config.API.SSLMode) == "" {
		config.API.SSLMode = cmn.DisableStr
	}

	if strings.TrimSpace(config.API.RateLimit) == "" {
		config.API.RateLimit = "10,10"
	}

	if config.API.MaxBodySize == 0 {
		config.API.MaxBodySize = 64 * 1024
	}

	if config.API.StreamStepDelay == 0 {
		config.API.StreamStepDelay = 250
	}

	config.Solver.DefaultMode = strings.ToLower(strings.TrimSpace(config.Solver.DefaultMode))
	if config.Solver.DefaultMode != ModeBottomUp {
		config.Solver.DefaultMode = ModeTopDown
	}

	if config.Solver.MaxSteps == 0 {
		config.Solver.MaxSteps = 100000
	}

	if config.Solver.MaxTableCells == 0 {
		config.Solver.MaxTableCells = 1000000
	}

	if config.Solver.MaxSnapshotCells == 0 {
		config.Solver.MaxSnapshotCells = 5000000
	}

	if config.Solver.CacheSize == 0 {
		config.Solver.CacheSize = 256
	}

	if config.Prometheus.Host == "" {
		config.Prometheus.Host = "localhost"
	}

	if config.Prometheus.Port == 0 {
		config.Prometheus.Port = 9091
	}
}

// LoadConfig is responsible for loading the configuration file
// and return the Config struct
func LoadConfig(confName string) (Config, error) {

	// Get the configuration file
	config, err := getConfigFile(confName)

	// Set default values
	setDefaults(&config)

	return config, err
}

// IsEmpty checks if the given config is empty.
// It returns true if the config is empty, false otherwise.
func IsEmpty(config Config) bool {
	return config == Config{}
}
