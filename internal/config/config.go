// Package config loads the run engine's startup configuration exactly
// once, following the teacher's server/app.ConfigFromFlags pattern:
// flag.*Var calls whose defaults fall back to os.Getenv, parsed once at
// process start and frozen thereafter — no component re-reads the
// environment after Load returns.
package config

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/runforge/arc/common/logger"
)

const (
	DefaultJobTimeoutMinutes      = 120
	DefaultCleanupIntervalSeconds = 60
	DefaultDataDir                = "./data"
	DefaultAPIAddress             = "0.0.0.0:8080"
	DefaultRegistryOverlayPath    = ""
)

// Config is the run engine's frozen startup configuration (spec.md §6,
// "Environment variables").
type Config struct {
	// RedisURL is the Job Queue/cache backend address. Required.
	RedisURL string
	// JobTimeout is how long a `running` job may go without a heartbeat
	// before the sweeper fails it (spec.md §4.3).
	JobTimeout time.Duration
	// CleanupInterval is how often the timeout sweeper polls (spec.md §4.3).
	CleanupInterval time.Duration
	// DataDir is the Artifact Store's root directory.
	DataDir string
	// APIAddress is the interface and port the HTTP API binds to.
	APIAddress string
	// RegistryOverlayPath, if set, points at a YAML step-registry overlay
	// (spec.md §4.5's "on-disk override file").
	RegistryOverlayPath string
	// LogLevels configures the LogRegistry (teacher: --log_levels).
	LogLevels logger.LogLevelConfig
	// RunTokenSigningKey signs the run_token embedded in orchestrator_state
	// (internal/orchestrator/token.go). Empty disables run_token issuance.
	RunTokenSigningKey string
}

// Load parses flags (falling back to environment variables for defaults)
// into a frozen Config. It calls flag.Parse(), so it must be called at
// most once per process, before any other flag is registered.
func Load() (*Config, error) {
	config := &Config{}

	var (
		jobTimeoutMinutes      int
		cleanupIntervalSeconds int
		logLevels              string
	)

	flag.StringVar(&config.RedisURL, "redis_url",
		envOr("REDIS_URL", ""), "The Redis connection URL backing the Job Queue (required).")
	flag.IntVar(&jobTimeoutMinutes, "job_timeout_minutes",
		envOrInt("JOB_TIMEOUT_MINUTES", DefaultJobTimeoutMinutes), "Minutes a running job may go without a heartbeat before the sweeper fails it.")
	flag.IntVar(&cleanupIntervalSeconds, "cleanup_interval_seconds",
		envOrInt("CLEANUP_INTERVAL_SECONDS", DefaultCleanupIntervalSeconds), "Seconds between timeout-sweeper polls.")
	flag.StringVar(&config.DataDir, "data_dir",
		envOr("DATA_DIR", DefaultDataDir), "The root directory the Artifact Store writes run data under.")
	flag.StringVar(&config.APIAddress, "api_server_address",
		envOr("API_SERVER_ADDRESS", DefaultAPIAddress), "The interface and port to bind the HTTP API to.")
	flag.StringVar(&config.RegistryOverlayPath, "registry_overlay_path",
		envOr("REGISTRY_OVERLAY_PATH", DefaultRegistryOverlayPath), "Path to a YAML step-registry overlay file, if any.")
	flag.StringVar(&logLevels, "log_levels",
		envOr("LOG_LEVELS", ""), fmt.Sprintf("A comma separated list of name=level pairs where level is one of: %s", logger.ListLogLevels()))
	flag.StringVar(&config.RunTokenSigningKey, "run_token_signing_key",
		envOr("RUN_TOKEN_SIGNING_KEY", ""), "HMAC key used to sign run_token; empty disables run_token issuance.")
	flag.Parse()

	if config.RedisURL == "" {
		return nil, fmt.Errorf("--redis_url (or REDIS_URL) must be set")
	}

	config.JobTimeout = time.Duration(jobTimeoutMinutes) * time.Minute
	config.CleanupInterval = time.Duration(cleanupIntervalSeconds) * time.Second
	config.LogLevels = logger.LogLevelConfig(logLevels)

	return config, nil
}

func envOr(name, def string) string {
	if v, ok := os.LookupEnv(name); ok {
		return v
	}
	return def
}

func envOrInt(name string, def int) int {
	v, ok := os.LookupEnv(name)
	if !ok {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}
