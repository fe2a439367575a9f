package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/metronon/likewise/internal/cache"
	"github.com/metronon/likewise/internal/config"
	"github.com/metronon/likewise/internal/ops"
	"github.com/metronon/likewise/internal/reactions"
	"github.com/metronon/likewise/internal/store"
)

var (
	version = "dev"
	commit  = "unknown"
)

func main() {
	if len(os.Args) > 1 && os.Args[1] == "init" {
		handleInit()
		return
	}

	var (
		showVersion = flag.Bool("version", false, "Show version information")
		configPath  = flag.String("config", "", "Path to configuration file")
	)
	flag.Parse()

	if *showVersion {
		fmt.Printf("likewise %s\n", version)
		fmt.Printf("  commit: %s\n", commit)
		os.Exit(0)
	}

	if *configPath == "" {
		fmt.Println("likewise - reaction cache and write-behind sync engine")
		fmt.Println()
		fmt.Println("No configuration file specified. Use --config <path> to specify config.")
		fmt.Println()
		fmt.Println("Commands:")
		fmt.Println("  likewise init              Generate example configuration")
		fmt.Println("  likewise --version         Show version information")
		fmt.Println("  likewise --config <path>   Start with configuration file")
		os.Exit(1)
	}

	// A local .env may carry LIKEWISE_* overrides; absence is fine
	_ = godotenv.Load()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading configuration: %v\n", err)
		os.Exit(1)
	}

	if err := run(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	logger := ops.NewLogger(&cfg.Logging)
	ops.SetDefault(logger)
	logger.LogStartup(version, commit)

	st, err := store.Open(ctx, &cfg.Store)
	if err != nil {
		return fmt.Errorf("failed to initialize store: %w", err)
	}
	defer st.Close()
	logger.Info("store initialized", "driver", cfg.Store.Driver, "path", cfg.Store.SQLitePath)

	c, err := openCache(ctx, &cfg.Cache)
	if err != nil {
		return fmt.Errorf("failed to initialize cache: %w", err)
	}
	defer c.Close()
	logger.Info("cache initialized", "engine", cfg.Cache.Engine, "ttl_days", cfg.Cache.TTLDays)

	metrics := ops.NewMetrics()
	engine := reactions.New(cfg, st, c, logger, metrics)
	if err := engine.Start(ctx); err != nil {
		return fmt.Errorf("failed to start engine: %w", err)
	}
	defer engine.Stop()

	var opsServer *ops.Server
	if cfg.Ops.Enabled {
		opsServer = ops.NewServer(&cfg.Ops, metrics, logger)
		opsServer.Start()
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.LogShutdown("signal")

	if opsServer != nil {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		if err := opsServer.Stop(shutdownCtx); err != nil {
			logger.Error("ops endpoint shutdown failed", "error", err)
		}
	}

	return nil
}

func openCache(ctx context.Context, cfg *config.Cache) (cache.Cache, error) {
	switch cfg.Engine {
	case "redis":
		c, err := cache.NewRedis(cfg.RedisURL, cfg.TTL())
		if err != nil {
			return nil, err
		}
		if err := c.Ping(ctx); err != nil {
			return nil, err
		}
		return c, nil
	case "memory":
		return cache.NewMemory(cfg.TTL()), nil
	default:
		return nil, fmt.Errorf("unsupported cache engine: %s", cfg.Engine)
	}
}

func handleInit() {
	exampleConfig, err := config.GetExampleConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading example config: %v\n", err)
		os.Exit(1)
	}

	fmt.Print(string(exampleConfig))
}
