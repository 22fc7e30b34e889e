// Package app wires the run engine's services together from a frozen
// config.Config, the way the teacher's server/app.New constructs a Server
// from a ServerConfig — simplified to plain constructor calls since this
// module has no dependency-injection code generation in its stack.
package app

import (
	"github.com/redis/go-redis/v9"

	"github.com/runforge/arc/common/logger"
	"github.com/runforge/arc/internal/config"
	"github.com/runforge/arc/internal/drivers"
	"github.com/runforge/arc/internal/manifest"
	"github.com/runforge/arc/internal/orchestrator"
	"github.com/runforge/arc/internal/queue"
	"github.com/runforge/arc/internal/registry"
	"github.com/runforge/arc/internal/report"
	"github.com/runforge/arc/internal/store"
)

// App bundles every service a cmd/ entrypoint needs, already wired.
type App struct {
	Config       *config.Config
	LogRegistry  *logger.LogRegistry
	LogFactory   logger.LogFactory
	Store        *store.Store
	Queue        *queue.Queue
	Sweeper      *queue.TimeoutSweeper
	Manifest     *manifest.Service
	Registry     *registry.Registry
	Dispatcher   drivers.Dispatcher
	Enforcer     *report.Enforcer
	Orchestrator *orchestrator.Orchestrator
}

// New builds every service from cfg. Nothing is started: callers decide
// which long-lived loops (timeout sweeper, worker, HTTP server) to run.
func New(cfg *config.Config) (*App, error) {
	logRegistry, err := logger.NewLogRegistry(cfg.LogLevels)
	if err != nil {
		return nil, err
	}
	logFactory := logger.MakeLogrusLogFactoryStdOut(logRegistry)

	artifactStore, err := store.New(cfg.DataDir, logFactory("store"))
	if err != nil {
		return nil, err
	}

	rdb := redis.NewClient(parseRedisOptions(cfg.RedisURL))
	jobQueue := queue.New(rdb, logFactory)
	sweeper := queue.NewTimeoutSweeper(jobQueue, logFactory, cfg.CleanupInterval, cfg.JobTimeout)

	manifestService := manifest.NewService(artifactStore, logFactory)

	reg, err := registry.LoadWithOverlay(cfg.RegistryOverlayPath)
	if err != nil {
		return nil, err
	}

	dispatcher := drivers.NewDefault(artifactStore, logFactory)
	enforcer := report.NewEnforcer(artifactStore, logFactory)

	var signingKey []byte
	if cfg.RunTokenSigningKey != "" {
		signingKey = []byte(cfg.RunTokenSigningKey)
	}
	orch := orchestrator.New(artifactStore, manifestService, jobQueue, reg, dispatcher, enforcer, logFactory, signingKey)

	return &App{
		Config:       cfg,
		LogRegistry:  logRegistry,
		LogFactory:   logFactory,
		Store:        artifactStore,
		Queue:        jobQueue,
		Sweeper:      sweeper,
		Manifest:     manifestService,
		Registry:     reg,
		Dispatcher:   dispatcher,
		Enforcer:     enforcer,
		Orchestrator: orch,
	}, nil
}

// parseRedisOptions accepts both a bare "host:port" and a full redis:// URL,
// since spec.md §6 only requires "REDIS_URL (or equivalent)" without
// mandating a URL scheme.
func parseRedisOptions(redisURL string) *redis.Options {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return &redis.Options{Addr: redisURL}
	}
	return opts
}
