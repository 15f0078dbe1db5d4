//go:build go1.22
// +build go1.22

// Package config contains the configuration file parsing logic.
package config

import (
	"testing"
)

func FuzzParseConfig(f *testing.F) {
	// Add some initial seed inputs to start the fuzzing process
	f.Add([]byte(`
api:
  host: "api.example.com"
  port: 8080
  timeout: 10
  sslmode: "disable"
  rate_limit: "10,5"
  readheader_timeout: 5
  read_timeout: 10
  write_timeout: 15
  max_body_size: 65536
  stream_step_delay_ms: 250
  enable_cors: true
solver:
  default_mode: "top-down"
  default_max_recursions: 1000
  max_steps: 50000
  max_table_cells: 250000
  strict_shapes: false
  cache_size: 128
prometheus:
  enabled: false
  host: "localhost"
  port: 9091
os: "linux"
debug_level: 3
`))
	f.Add([]byte("solver: [1, 2"))

	f.Fuzz(func(t *testing.T, data []byte) {
		_, err := ParseConfig(data)
		if err != nil {
			t.Skip()
		}
	})
}
