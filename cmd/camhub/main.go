package main

//	@title						CamHub API
//	@version					0.1.0
//	@description				Camera fleet management and streaming hub API.
//	@BasePath					/api
//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				Static API token. Format: "Bearer {token}"

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/camhub/camhub/api/swagger"
	"github.com/camhub/camhub/internal/config"
	"github.com/camhub/camhub/internal/event"
	"github.com/camhub/camhub/internal/fleet"
	"github.com/camhub/camhub/internal/overview"
	"github.com/camhub/camhub/internal/registry"
	"github.com/camhub/camhub/internal/server"
	"github.com/camhub/camhub/internal/store"
	"github.com/camhub/camhub/internal/stream"
	"github.com/camhub/camhub/internal/version"
	"github.com/camhub/camhub/internal/webhook"
	"github.com/camhub/camhub/internal/ws"
	"github.com/camhub/camhub/pkg/plugin"
	"go.uber.org/zap"
)

func main() {
	if len(os.Args) > 1 && os.Args[1] == "version" {
		fmt.Println(version.Info())
		return
	}

	configPath := flag.String("config", "", "path to configuration file")
	showVersion := flag.Bool("version", false, "print version information and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println(version.Info())
		os.Exit(0)
	}

	// Load configuration (before logger, so log level/format can be configured).
	viperCfg, err := server.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	cfg := config.New(viperCfg)

	logger, err := config.NewLogger(viperCfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("CamHub server starting", zap.String("version", version.Short()))

	if f := viperCfg.ConfigFileUsed(); f != "" {
		logger.Info("configuration loaded", zap.String("source", f))
	} else {
		logger.Warn("no configuration file found, using defaults")
	}

	// Open database.
	dbPath := viperCfg.GetString("database.path")
	if dbPath == "" {
		dbPath = "camhub.db"
	}
	db, err := store.New(dbPath)
	if err != nil {
		logger.Fatal("failed to open database", zap.Error(err))
	}
	defer db.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := db.CheckVersion(ctx, "v"+version.Short()); err != nil {
		logger.Fatal("database schema check failed", zap.Error(err))
	}
	logger.Info("database initialized", zap.String("path", dbPath))

	// Shared services.
	bus := event.NewBus(logger.Named("event"))
	reg := registry.New(logger.Named("registry"))

	// Register all plugins (compile-time composition).
	modules := []plugin.Plugin{
		fleet.New(),
		overview.New(),
		stream.New(nil),
		ws.New(),
		webhook.New(),
	}
	for _, m := range modules {
		if err := reg.Register(m); err != nil {
			logger.Fatal("failed to register plugin", zap.Error(err))
		}
	}

	// Validate dependency graph and API versions.
	if err := reg.Validate(); err != nil {
		logger.Fatal("plugin validation failed", zap.Error(err))
	}

	if err := reg.InitAll(ctx, func(name string) plugin.Dependencies {
		return plugin.Dependencies{
			Config:  cfg.Sub("plugins." + name),
			Logger:  logger.Named(name),
			Store:   db,
			Bus:     bus,
			Plugins: reg,
		}
	}); err != nil {
		logger.Fatal("failed to initialize plugins", zap.Error(err))
	}

	if err := reg.StartAll(ctx); err != nil {
		logger.Fatal("failed to start plugins", zap.Error(err))
	}

	// Create and start the HTTP server.
	addr := viperCfg.GetString("server.host") + ":" + viperCfg.GetString("server.port")
	if addr == ":" {
		addr = "0.0.0.0:8000"
	}
	readyCheck := server.ReadinessChecker(func(ctx context.Context) error {
		return db.DB().PingContext(ctx)
	})
	srv := server.New(addr, reg, logger.Named("http"), readyCheck, server.Options{
		APIToken: viperCfg.GetString("server.api_token"),
		DevMode:  viperCfg.GetBool("server.dev_mode"),
	})

	go func() {
		if err := srv.Start(); err != nil {
			logger.Fatal("server error", zap.Error(err))
		}
	}()

	logger.Info("CamHub server ready", zap.String("addr", addr))

	// Wait for shutdown signal.
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh

	logger.Info("received shutdown signal", zap.String("signal", sig.String()))

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	reg.StopAll(shutdownCtx)

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", zap.Error(err))
	}

	logger.Info("CamHub server stopped")
}
