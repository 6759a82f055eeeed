package main

import (
	"context"
	"log"
	"log/slog"
	"os"

	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/worker"

	natsadapter "github.com/mahi13singh2004/AIKYAM/internal/adapters/nats"
	"github.com/mahi13singh2004/AIKYAM/internal/adapters/pinata"
	"github.com/mahi13singh2004/AIKYAM/internal/adapters/postgres"
	"github.com/mahi13singh2004/AIKYAM/internal/pkg/config"
	"github.com/mahi13singh2004/AIKYAM/internal/pkg/logging"
	"github.com/mahi13singh2004/AIKYAM/internal/workflows"
)

// Pins every reported unsafe location to IPFS. Report events from NATS start
// one Temporal workflow each; this process also runs the worker executing them.
func main() {
	cfg, err := config.Load("aikyam-archiver")
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logLevel := os.Getenv("LOG_LEVEL")
	if logLevel == "" {
		logLevel = "info"
	}
	logging.Setup("aikyam-archiver", logLevel, "json")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db, err := postgres.New(ctx, cfg.Database.DSN())
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	// Connect to Temporal
	c, err := client.Dial(client.Options{
		HostPort:  cfg.Temporal.HostPort,
		Namespace: cfg.Temporal.Namespace,
		Logger:    slog.Default(),
	})
	if err != nil {
		log.Fatalf("temporal client: %v", err)
	}
	defer c.Close()

	w := worker.New(c, cfg.Temporal.TaskQueue, worker.Options{})

	// Register workflow & activities
	w.RegisterWorkflow(workflows.ArchiveUnsafeLocationWorkflow)
	w.RegisterActivity(&workflows.ArchiveActivities{
		Store:     pinata.NewClient(cfg.Pinata.APIKey, cfg.Pinata.APISecret, cfg.Pinata.BaseURL, cfg.Pinata.Gateway),
		Locations: postgres.NewUnsafeLocationRepo(db),
	})

	sub, err := natsadapter.NewSubscriber(cfg.NATS.URL, "unsafe-archiver")
	if err != nil {
		log.Fatalf("nats: %v", err)
	}
	defer sub.Close()

	archiver := workflows.NewArchiver(c, cfg.Temporal.TaskQueue)
	if err := sub.SubscribeUnsafeReported(ctx, archiver.HandleUnsafeReported); err != nil {
		log.Fatalf("subscribe: %v", err)
	}

	slog.Info("archiver worker started", "task_queue", cfg.Temporal.TaskQueue)
	if err := w.Run(worker.InterruptCh()); err != nil {
		log.Fatalf("worker: %v", err)
	}
}
