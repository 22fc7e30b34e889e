// Command runapi serves the HTTP surface spec.md §6 describes: submit,
// get_job, list_jobs, get_state, get_artifact, get_manifest. Grounded on
// the teacher's bb-server main.go: parse flags, wire the app, start
// long-lived services, wait for a shutdown signal.
package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/runforge/arc/common/util"
	"github.com/runforge/arc/internal/api"
	"github.com/runforge/arc/internal/app"
	"github.com/runforge/arc/internal/config"
)

// logSafeFlags mirrors the teacher's LogSafeFlags: startup args safe to
// print verbatim (no secrets among them).
var logSafeFlags = []string{
	"data_dir", "api_server_address", "log_levels", "registry_overlay_path",
	"job_timeout_minutes", "cleanup_interval_seconds",
}

func main() {
	log.Printf("runapi starting with args: %v", util.FilterOSArgs(os.Args, logSafeFlags))

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("error parsing flags: %s", err)
	}

	a, err := app.New(cfg)
	if err != nil {
		log.Fatalf("error creating app: %s", err)
	}

	a.Sweeper.Start(context.Background())
	defer a.Sweeper.Stop()

	run := api.NewRunAPI(a.Queue, a.Store, a.Manifest, a.LogFactory)
	router := api.NewRouter(run, a.LogFactory)

	server := &http.Server{
		Addr:    cfg.APIAddress,
		Handler: router,
	}
	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("error serving HTTP API: %s", err)
		}
	}()
	log.Printf("runapi listening on %s", cfg.APIAddress)

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	<-done

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("error shutting down HTTP API: %s", err)
	}
	log.Print("runapi shutdown complete")
}
