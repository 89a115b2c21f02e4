package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/medtrack/medtrack-cli/internal/api"
	"github.com/medtrack/medtrack-cli/internal/config"
	"github.com/medtrack/medtrack-cli/internal/health"
	"github.com/medtrack/medtrack-cli/internal/notify"
	"github.com/medtrack/medtrack-cli/internal/storage"
	"go.uber.org/zap"
)

var (
	configPath = flag.String("config", "", "Path to config file")
	dataDir    = flag.String("data", "", "Path to data directory")
	version    = "dev"
)

func main() {
	// Handle subcommands before flag parsing
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "help", "--help", "-h":
			printHelp()
			return
		case "version", "--version", "-v":
			fmt.Printf("medtrack version %s\n", version)
			return
		}
	}

	command, args := parseCommand(os.Args[1:])
	flag.CommandLine.Parse(args)

	// Initialize logger
	logger, err := zap.NewDevelopment()
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	cfg, err := config.Load(*configPath, *dataDir)
	if err != nil {
		logger.Fatal("Failed to load config", zap.Error(err))
	}

	kv, err := storage.Open(cfg.Storage.BadgerPath)
	if err != nil {
		logger.Fatal("Failed to open storage", zap.Error(err))
	}
	defer kv.Close()

	db := health.NewDatabase(kv, logger)
	ctx := context.Background()

	if err := db.Initialize(ctx); err != nil {
		logger.Fatal("Failed to initialize health database", zap.Error(err))
	}

	// Best-effort legacy import; a no-op once the legacy key is gone.
	db.MigrateFromOldStorage(ctx)

	switch command {
	case "serve":
		runServer(ctx, cfg, db, logger)
	case "summary":
		printSummary(ctx, db, logger)
	case "migrate":
		// Already ran above; report the resulting state.
		meds, err := db.Medications(ctx)
		if err != nil {
			logger.Fatal("Failed to load medications", zap.Error(err))
		}
		fmt.Printf("Database holds %d medication(s)\n", len(meds))
	default:
		fmt.Printf("Unknown command: %s\n\n", command)
		printHelp()
		os.Exit(1)
	}
}

// parseCommand splits a leading subcommand off the argument list. Empty and
// flag-like first arguments leave the default command in place.
func parseCommand(args []string) (string, []string) {
	if len(args) > 0 && len(args[0]) > 0 && args[0][0] != '-' {
		return args[0], args[1:]
	}
	return "serve", args
}

func runServer(ctx context.Context, cfg *config.Config, db *health.Database, logger *zap.Logger) {
	var scheduler notify.Scheduler = notify.Noop{}
	if cfg.Notifications.Enabled {
		cronSched := notify.NewCronScheduler(logger, nil)
		cronSched.Start()
		defer cronSched.Stop()
		scheduler = cronSched
	}

	server := api.New(cfg, db, scheduler, logger)

	go func() {
		if err := server.Start(); err != nil {
			logger.Error("API server stopped", zap.Error(err))
		}
	}()

	logger.Info("medtrack running",
		zap.String("version", version),
		zap.String("data_dir", cfg.Storage.DataDir))

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down")
	if err := server.Shutdown(); err != nil {
		logger.Error("Failed to shut down API server", zap.Error(err))
	}
}

func printSummary(ctx context.Context, db *health.Database, logger *zap.Logger) {
	summary, err := db.HealthSummary(ctx, time.Now())
	if err != nil {
		logger.Fatal("Failed to compute summary", zap.Error(err))
	}

	out, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		logger.Fatal("Failed to render summary", zap.Error(err))
	}
	fmt.Println(string(out))
}

func printHelp() {
	fmt.Println(`medtrack - local health tracking

Usage:
  medtrack [command] [flags]

Commands:
  serve     Run the local API server (default)
  summary   Print the current health summary
  migrate   Import legacy medication data and report
  version   Print version
  help      Show this help

Flags:
  -config   Path to config file (default: <data>/medtrack.yaml)
  -data     Path to data directory`)
}
