package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"go.uber.org/zap"

	"github.com/a3tai/casedocs/internal/config"
	"github.com/a3tai/casedocs/internal/logging"
	"github.com/a3tai/casedocs/internal/mcp"
)

var (
	version   = "dev"     // This will be set by build flags
	buildTime = "unknown" // This will be set by build flags
	gitCommit = "unknown" // This will be set by build flags
)

// runServerMode handles server mode execution with signal handling
func runServerMode(ctx context.Context, cancel context.CancelFunc, server *mcp.Server, logger *zap.Logger) int {
	signalCh := make(chan os.Signal, 1)
	signal.Notify(signalCh, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)

	serverErrCh := make(chan error, 1)
	go func() {
		serverErrCh <- server.Run(ctx)
	}()

	select {
	case sig := <-signalCh:
		logger.Info("received signal, shutting down", zap.String("signal", sig.String()))
		cancel()

		if err := <-serverErrCh; err != nil {
			logger.Error("server shutdown with error", zap.Error(err))
			return 1
		}

	case err := <-serverErrCh:
		if err != nil {
			logger.Error("server error", zap.Error(err))
			return 1
		}
	}

	logger.Info("server stopped")
	return 0
}

// runStdioMode handles stdio mode execution. The parent process controls
// our lifecycle; we exit when stdin closes.
func runStdioMode(ctx context.Context, server *mcp.Server, logger *zap.Logger) int {
	if err := server.Run(ctx); err != nil {
		logger.Error("server error", zap.Error(err))
		return 1
	}
	return 0
}

func main() {
	os.Exit(run())
}

func run() int {
	for _, arg := range os.Args[1:] {
		if arg == "-version" || arg == "--version" || arg == "-v" {
			printVersion()
			return 0
		}
	}

	cfg, err := config.LoadFromFlags()
	if err != nil {
		log.Printf("Failed to load configuration: %v", err)
		return 2
	}
	if version != "dev" {
		cfg.Version = version
	}

	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat, cfg.ServerName)
	if err != nil {
		log.Printf("Failed to create logger: %v", err)
		return 1
	}
	defer logger.Sync() //nolint:errcheck

	logger.Debug("starting", zap.String("config", cfg.String()))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	fetcher, closeStore, err := openStore(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to open case store", zap.Error(err))
		return 1
	}
	defer closeStore()

	svc, provisioner := newService(cfg, fetcher, logger)

	// Provisioning failures are not fatal: the form renderer falls back to
	// the base template.
	if res, err := provisioner.Ensure(ctx); err != nil {
		logger.Warn("template provisioning failed", zap.Error(err))
	} else {
		logger.Info("template provisioning", zap.String("result", res.String()))
	}

	server, err := mcp.NewServer(cfg, svc, logger)
	if err != nil {
		logger.Error("failed to create MCP server", zap.Error(err))
		return 1
	}

	if cfg.IsServerMode() {
		return runServerMode(ctx, cancel, server, logger)
	}
	return runStdioMode(ctx, server, logger)
}

// printVersion prints version information
func printVersion() {
	fmt.Printf("casedocs\n")
	fmt.Printf("Version: %s\n", version)
	fmt.Printf("Build Time: %s\n", buildTime)
	fmt.Printf("Git Commit: %s\n", gitCommit)
	fmt.Printf("Built with: %s\n", runtime.Version())
}
