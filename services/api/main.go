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


// Package main (API) implements the API server for the recurrence solver.
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	cmn "github.com/pzaino/recviz/pkg/common"
	cfg "github.com/pzaino/recviz/pkg/config"
	formula "github.com/pzaino/recviz/pkg/formula"
	solver "github.com/pzaino/recviz/pkg/solver"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"
	"golang.org/x/time/rate"
)

const (
	errTooManyRequests = "Too Many Requests"
	errRateLimitExceed = "Rate limit exceeded"

	headerRequestID = "X-Request-ID"
	appName         = "RecVizAPI"
)

type requestIDKey struct{}

var (
	limiter      *rate.Limiter
	configMutex  sync.RWMutex // guards config, limiter and formulaCache after start-up
	configFile   *string
	formulaCache *formula.Cache[*solver.Program]

	sysReadyMtx sync.RWMutex // Mutex to protect the SysReady variable
	sysReady    int          // System readiness status variable 0 = not ready, 1 = starting up, 2 = ready

	// Counters for monitoring (atomic)
	totalRequests  atomic.Int64
	totalErrors    atomic.Int64
	totalSuccess   atomic.Int64
	solvesTopDown  atomic.Int64
	solvesBottomUp atomic.Int64
)

func setSysReady(newStatus int) {
	if newStatus < 0 || newStatus > 2 {
		return
	}
	sysReadyMtx.Lock()
	defer sysReadyMtx.Unlock()
	sysReady = newStatus
}

func getSysReady() int {
	sysReadyMtx.RLock()
	defer sysReadyMtx.RUnlock()
	return sysReady
}

// currentConfig returns a copy of the configuration in use
func currentConfig() cfg.Config {
	configMutex.RLock()
	defer configMutex.RUnlock()
	return config
}

func currentLimiter() *rate.Limiter {
	configMutex.RLock()
	defer configMutex.RUnlock()
	return limiter
}

func currentFormulaCache() *formula.Cache[*solver.Program] {
	configMutex.RLock()
	defer configMutex.RUnlock()
	return formulaCache
}

// reloadConfig re-reads the configuration file while requests are being served
func reloadConfig() error {
	configMutex.Lock()
	defer configMutex.Unlock()
	return initAll(configFile, &config, &limiter)
}

func initAll(configFile *string, config *cfg.Config, lmt **rate.Limiter) error {
	// Reading the configuration file
	var err error
	currentSysReady := getSysReady()
	setSysReady(1) // Indicate system is starting up or being restarted

	*config, err = cfg.LoadConfig(*configFile)
	if err != nil {
		if _, statErr := os.Stat(*configFile); statErr == nil {
			return fmt.Errorf("reading config file '%s': %w", *configFile, err)
		}
		cmn.DebugMsg(cmn.DbgLvlWarn, "Config file '%s' not found, using defaults", *configFile)
	}

	// Set the OS variable
	config.OS = runtime.GOOS

	cmn.SetDebugLevel(cmn.DbgLevel(config.DebugLevel))

	// Set the rate limiter
	*lmt = newRateLimiter(config.API.RateLimit)

	// Compiled formulas are dropped on reload, the solver settings may have changed
	formulaCache = newFormulaCache(config.Solver.CacheSize)

	setSysReady(currentSysReady) // Restore previous system ready state
	return nil
}

func main() {
	setSysReady(1) // Indicate system is starting

	// Parse the command line arguments
	configFile = flag.String("config", "./config.yaml", "Path to the configuration file")
	flag.Parse()

	// Initialize the logger
	cmn.InitLogger(appName)
	cmn.DebugMsg(cmn.DbgLvlInfo, "The recurrence solver API is starting...")

	// Setting up a channel to listen for termination signals
	cmn.DebugMsg(cmn.DbgLvlInfo, "Setting up termination signals listener...")
	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT, syscall.SIGHUP)

	// Initialize the configuration
	err := initAll(configFile, &config, &limiter)
	if err != nil {
		cmn.DebugMsg(cmn.DbgLvlFatal, "Error initializing the API: %v", err)
	}

	// listener settings are read once, a reload does not rebind the server
	startup := currentConfig()

	mux := http.NewServeMux()
	initAPIv1(mux)

	srv := &http.Server{
		Addr:    startup.API.Host + ":" + fmt.Sprintf("%d", startup.API.Port),
		Handler: mux,

		// ReadHeaderTimeout is the amount of time allowed to read
		// request headers.
		ReadHeaderTimeout: time.Duration(startup.API.ReadHeaderTimeout) * time.Second,

		// ReadTimeout is the maximum duration for reading the entire
		// request, including the body.
		ReadTimeout: time.Duration(startup.API.ReadTimeout) * time.Second,

		// WriteTimeout is the maximum duration before timing out
		// writes of the response. Streams clear it once upgraded.
		WriteTimeout: time.Duration(startup.API.WriteTimeout) * time.Second,

		// IdleTimeout is the maximum amount of time to wait for the
		// next request when keep-alive are enabled.
		IdleTimeout: time.Duration(startup.API.Timeout) * time.Second,
	}

	// Define signal handling
	go func() {
		for {
			sig := <-signals
			switch sig {
			case syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT:
				cmn.DebugMsg(cmn.DbgLvlInfo, "%v received, shutting down...", sig)
				updateMetrics()
				setSysReady(0)
				ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				if err := srv.Shutdown(ctx); err != nil {
					cmn.DebugMsg(cmn.DbgLvlError, "Error shutting down the server: %v", err)
				}
				cancel()
				return

			case syscall.SIGHUP:
				cmn.DebugMsg(cmn.DbgLvlInfo, "SIGHUP received, reloading configuration...")
				updateMetrics()
				if err := reloadConfig(); err != nil {
					cmn.DebugMsg(cmn.DbgLvlError, "Error reloading the configuration: %v", err)
				}
			}
		}
	}()

	// ---------------------------------------------------------
	// Start Prometheus metrics updater
	// ---------------------------------------------------------
	if startup.Prometheus.Enabled {
		// Init immediate metrics update
		updateMetrics()
		// Start periodic metrics update
		go func() {
			ticker := time.NewTicker(15 * time.Second)
			defer ticker.Stop()

			for range ticker.C {
				updateMetrics()
			}
		}()
	}

	cmn.DebugMsg(cmn.DbgLvlInfo, "Starting server on %s:%d", startup.API.Host, startup.API.Port)
	cmn.DebugMsg(cmn.DbgLvlInfo, "Awaiting for requests...")
	setSysReady(2) // Indicate system is ready
	if strings.ToLower(strings.TrimSpace(startup.API.SSLMode)) == cmn.EnableStr {
		err = srv.ListenAndServeTLS(startup.API.CertFile, startup.API.KeyFile)
	} else {
		err = srv.ListenAndServe()
	}
	setSysReady(0) // Indicate system is NOT ready
	if err != nil && err != http.ErrServerClosed {
		cmn.DebugMsg(cmn.DbgLvlFatal, "Server return: %v", err)
	}
	cmn.DebugMsg(cmn.DbgLvlInfo, "Server stopped")
}

// -------------------------------------------
// Handle Prometheus Push-Gateway Metrics
//--------------------------------------------

var (
	gaugeTotalRequests = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "recviz_api_total_requests",
			Help: "Total number of API requests",
		},
		[]string{"engine"},
	)

	gaugeTotalErrors = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "recviz_api_total_errors",
			Help: "Total number of failed API requests",
		},
		[]string{"engine"},
	)

	gaugeTotalSuccess = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "recviz_api_total_success",
			Help: "Total number of successful API requests",
		},
		[]string{"engine"},
	)

	gaugeSolves = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "recviz_api_solves",
			Help: "Number of successful solves per solving method",
		},
		[]string{"engine", "mode"},
	)
)

func init() {
	prometheus.MustRegister(
		gaugeTotalRequests,
		gaugeTotalErrors,
		gaugeTotalSuccess,
		gaugeSolves,
	)
}

func countSolve(mode solver.Mode) {
	switch mode {
	case solver.ModeTopDown:
		solvesTopDown.Add(1)
	case solver.ModeBottomUp:
		solvesBottomUp.Add(1)
	}
}

// collectMetrics copies the counters into the gauges
func collectMetrics(engine string) {
	labels := prometheus.Labels{
		"engine": engine,
	}

	gaugeTotalRequests.With(labels).Set(float64(totalRequests.Load()))
	gaugeTotalErrors.With(labels).Set(float64(totalErrors.Load()))
	gaugeTotalSuccess.With(labels).Set(float64(totalSuccess.Load()))
	gaugeSolves.With(prometheus.Labels{"engine": engine, "mode": string(solver.ModeTopDown)}).Set(float64(solvesTopDown.Load()))
	gaugeSolves.With(prometheus.Labels{"engine": engine, "mode": string(solver.ModeBottomUp)}).Set(float64(solvesBottomUp.Load()))
}

func updateMetrics() {
	prom := currentConfig().Prometheus
	if !prom.Enabled {
		return
	}

	engine := appName
	url := "http://" + prom.Host + ":" + strconv.Itoa(prom.Port)
	collectMetrics(engine)

	p := push.New(url, "recviz_api").
		Collector(gaugeTotalRequests).
		Collector(gaugeTotalErrors).
		Collector(gaugeTotalSuccess).
		Collector(gaugeSolves)

	if err := p.Push(); err != nil {
		cmn.DebugMsg(cmn.DbgLvlError, "API: Could not push metrics: %v", err)
	} else {
		cmn.DebugMsg(cmn.DbgLvlDebug3, "API: Metrics pushed for engine=%s", engine)
	}
}

// -------------------------------------------
// API v1 Handlers and Middlewares
//--------------------------------------------

// initAPIv1 initializes the API v1 handlers
func initAPIv1(mux *http.ServeMux) {
	// Health check
	healthCheckWithMiddlewares := RequestIDMiddleware(SecurityHeadersMiddleware(RateLimitMiddleware(http.HandlerFunc(healthCheckHandler))))
	readyCheckWithMiddlewares := RequestIDMiddleware(SecurityHeadersMiddleware(RateLimitMiddleware(http.HandlerFunc(readyCheckHandler))))

	mux.Handle("/v1/health", healthCheckWithMiddlewares)
	mux.Handle("/v1/health/", healthCheckWithMiddlewares)
	mux.Handle("/v1/ready", readyCheckWithMiddlewares)
	mux.Handle("/v1/ready/", readyCheckWithMiddlewares)

	// Solver handlers
	mux.Handle("/v1/parse", withPublicMiddlewares(parseHandler))
	mux.Handle("/v1/solve", withPublicMiddlewares(solveHandler))
	mux.Handle("/v1/compare", withPublicMiddlewares(compareHandler))
	mux.Handle("/v1/solve/stream", withPublicMiddlewares(streamHandler))
}

func withPublicMiddlewares(h http.HandlerFunc) http.Handler {
	return RecoverMiddleware(
		RequestIDMiddleware(
			CORSHeadersMiddleware(
				SecurityHeadersMiddleware(
					RateLimitMiddleware(h),
				),
			),
		),
	)
}

// RequestIDMiddleware tags every request with an id, reusing the
// client's X-Request-ID when it sent one.
func RequestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		totalRequests.Add(1)
		id := strings.TrimSpace(r.Header.Get(headerRequestID))
		if id == "" || len(id) > 128 {
			id = uuid.NewString()
		}
		w.Header().Set(headerRequestID, id)
		cmn.DebugMsg(cmn.DbgLvlDebug5, "[%s] %s %s", id, r.Method, r.URL.Path)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), requestIDKey{}, id)))
	})
}

func requestID(r *http.Request) string {
	id, _ := r.Context().Value(requestIDKey{}).(string)
	return id
}

// CORSHeadersMiddleware enables CORS for requests
func CORSHeadersMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !currentConfig().API.EnableCORS {
			next.ServeHTTP(w, r)
			return
		}
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, "+headerRequestID)

		// For preflight requests
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// RecoverMiddleware recovers from panics and returns a 500 error
func RecoverMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				totalErrors.Add(1)
				cmn.DebugMsg(cmn.DbgLvlError, "Recovered from panic: %v", rec)
				http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// RateLimitMiddleware is a middleware for rate limiting
func RateLimitMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !currentLimiter().Allow() {
			totalErrors.Add(1)
			cmn.DebugMsg(cmn.DbgLvlDebug, errRateLimitExceed)
			http.Error(w, errTooManyRequests, http.StatusTooManyRequests)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// SecurityHeadersMiddleware adds security-related headers to responses
func SecurityHeadersMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Add various security headers here
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Content-Security-Policy", "default-src 'self'")

		next.ServeHTTP(w, r)
	})
}

func healthCheckHandler(w http.ResponseWriter, _ *http.Request) {
	// Create a JSON document with the health status
	healthStatus := HealthCheck{
		Status: "OK",
	}

	// Respond with the health status
	handleErrorAndRespond(w, nil, healthStatus, "Error in health Check: ", http.StatusInternalServerError, http.StatusOK)
}

func readyCheckHandler(w http.ResponseWriter, _ *http.Request) {
	msg := ""
	switch getSysReady() {
	case 1: // Starting up
		msg = "STARTING UP"
	case 2: // Ready
		msg = "READY"
	default:
		msg = "NOT READY"
	}

	// Create a JSON document with the readiness status
	readyStatus := ReadyCheck{
		Status: msg,
	}

	// Respond with the readiness status
	handleErrorAndRespond(w, nil, readyStatus, "Error in ready Check: ", http.StatusInternalServerError, http.StatusOK)
}
