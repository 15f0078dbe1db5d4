package main

import (
	"net/http"
	"net/http/httptest"
	"testing"

	cfg "github.com/pzaino/recviz/pkg/config"

	"github.com/stretchr/testify/assert"
)

func TestGenHealthURL(t *testing.T) {
	config := cfg.NewConfig()
	config.API.Host = "solver"
	config.API.Port = 9000
	assert.Equal(t, "http://solver:9000/v1/health", genHealthURL(config, "health"))

	config.API.SSLMode = "enable"
	assert.Equal(t, "https://solver:9000/v1/ready", genHealthURL(config, "ready"))
}

func TestCheck(t *testing.T) {
	status := "READY"
	code := http.StatusOK
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(code)
		_, _ = w.Write([]byte(`{"status":"` + status + `"}`))
	}))
	defer srv.Close()

	assert.NoError(t, check(srv.Client(), srv.URL, false))
	assert.NoError(t, check(srv.Client(), srv.URL, true))

	status = "STARTING UP"
	assert.NoError(t, check(srv.Client(), srv.URL, false))
	assert.Error(t, check(srv.Client(), srv.URL, true))

	code = http.StatusServiceUnavailable
	assert.Error(t, check(srv.Client(), srv.URL, false))

	assert.Error(t, check(srv.Client(), "http://127.0.0.1:1/v1/health", false))
}
