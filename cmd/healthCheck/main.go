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


// Package main (healthCheck) is a command line that checks the solver API
// is reachable and, with -ready, that it is ready to serve requests.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	cmn "github.com/pzaino/recviz/pkg/common"
	cfg "github.com/pzaino/recviz/pkg/config"
)

func genHealthURL(config cfg.Config, endpoint string) string {
	rval := fmt.Sprintf("%s:%d/v1/%s", config.API.Host, config.API.Port, endpoint)
	if strings.ToLower(strings.TrimSpace(config.API.SSLMode)) == cmn.EnableStr {
		return "https://" + rval
	}
	return "http://" + rval
}

// check returns nil when url answers 200 and, for readiness, reports READY.
func check(client *http.Client, url string, ready bool) error {
	resp, err := client.Get(url) //nolint:gosec // This is usually a localhost connection
	if err != nil {
		return err
	}
	defer resp.Body.Close() //nolint:errcheck // Don't lint for error not checked, this is a defer statement

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	if !ready {
		return nil
	}

	var status struct {
		Status string `json:"status"`
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, &status); err != nil {
		return err
	}
	if status.Status != "READY" {
		return fmt.Errorf("service is %s", status.Status)
	}
	return nil
}

func main() {
	configFile := flag.String("config", "config.yaml", "Path to the configuration file")
	ready := flag.Bool("ready", false, "Check readiness instead of liveness")
	timeout := flag.Duration("timeout", 5*time.Second, "Request timeout")

	cmn.InitLogger("healthCheck")

	// Parse the command line arguments
	flag.Parse()

	// Load the configuration file
	config, err := cfg.LoadConfig(*configFile)
	if err != nil {
		cmn.DebugMsg(cmn.DbgLvlError, "Health check failed to load %s: %v", *configFile, err)
		os.Exit(1)
	}

	endpoint := "health"
	if *ready {
		endpoint = "ready"
	}

	// If there's an error or the status is not 200, exit with a non-zero status
	if err := check(&http.Client{Timeout: *timeout}, genHealthURL(config, endpoint), *ready); err != nil {
		cmn.DebugMsg(cmn.DbgLvlError, "Health check failed: %v", err)
		os.Exit(1)
	}

	// If successful, exit with zero (healthy)
	os.Exit(0)
}
