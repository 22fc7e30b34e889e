// Command runworker implements the worker loop of spec.md §4.10: dequeue a
// job, drive it through the Orchestrator, record its terminal status.
// Grounded on the teacher's bb-server main.go shutdown-signal wiring.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/runforge/arc/common/util"
	"github.com/runforge/arc/internal/app"
	"github.com/runforge/arc/internal/config"
	"github.com/runforge/arc/internal/worker"
)

var logSafeFlags = []string{
	"data_dir", "log_levels", "registry_overlay_path",
	"job_timeout_minutes", "cleanup_interval_seconds",
}

func main() {
	log.Printf("runworker starting with args: %v", util.FilterOSArgs(os.Args, logSafeFlags))

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("error parsing flags: %s", err)
	}

	a, err := app.New(cfg)
	if err != nil {
		log.Fatalf("error creating app: %s", err)
	}

	ctx := context.Background()
	a.Sweeper.Start(ctx)
	defer a.Sweeper.Stop()

	w := worker.New(a.Queue, a.Orchestrator, a.LogFactory)
	w.Start(ctx)
	defer w.Stop()

	log.Print("runworker started")

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	<-done
	log.Print("runworker shutdown complete")
}
