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

package config

// API represents the HTTP API configuration
type API struct {
	Host              string `yaml:"host"`               // Hostname or IP the API server binds to
	Port              int    `yaml:"port"`               // Port the API server listens on
	Timeout           int    `yaml:"timeout"`            // Idle timeout in seconds
	ReadHeaderTimeout int    `yaml:"readheader_timeout"` // Request headers read timeout in seconds
	ReadTimeout       int    `yaml:"read_timeout"`       // Request read timeout in seconds
	WriteTimeout      int    `yaml:"write_timeout"`      // Response write timeout in seconds
	SSLMode           string `yaml:"sslmode"`            // "enable" to serve TLS
	CertFile          string `yaml:"cert_file"`          // TLS certificate file
	KeyFile           string `yaml:"key_file"`           // TLS key file
	RateLimit         string `yaml:"rate_limit"`         // "requests_per_second,burst"
	MaxBodySize       int64  `yaml:"max_body_size"`      // Max request body in bytes
	StreamStepDelay   int    `yaml:"stream_step_delay_ms"`
	EnableCORS        bool   `yaml:"enable_cors"`
}

// Solver represents the solving engine configuration
type Solver struct {
	DefaultMode          string `yaml:"default_mode"`           // "top-down" or "bottom-up"
	DefaultMaxRecursions int    `yaml:"default_max_recursions"` // 0 means no default limit
	MaxSteps             int    `yaml:"max_steps"`              // Max recorded steps per solve, 0 = unlimited
	MaxTableCells        int    `yaml:"max_table_cells"`        // Max bottom-up table cells
	MaxSnapshotCells     int    `yaml:"max_snapshot_cells"`     // Max cells and frames copied into one trace
	StrictShapes         bool   `yaml:"strict_shapes"`          // Fail on unrecognised bottom-up shapes
	CacheSize            int    `yaml:"cache_size"`             // Compiled formulas kept in memory
}

// Prometheus represents the Prometheus push-gateway configuration
type Prometheus struct {
	Enabled bool   `yaml:"enabled"`
	Host    string `yaml:"host"`
	Port    int    `yaml:"port"`
}

// Config represents the structure of the configuration file
type Config struct {
	API        API        `yaml:"api"`
	Solver     Solver     `yaml:"solver"`
	Prometheus Prometheus `yaml:"prometheus"`
	OS         string     `yaml:"os"`
	DebugLevel int        `yaml:"debug_level"`
}
