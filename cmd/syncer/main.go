package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"

	"notesync/internal/syncer/app"
	"notesync/internal/syncer/client"
	"notesync/internal/syncer/config"
	"notesync/internal/syncer/extractor"
	"notesync/internal/syncer/resilience"
	"notesync/internal/syncer/watcher"
	"notesync/pkg/logger"
	"notesync/pkg/shutdown"
)

// Константы для переменных окружения.
const (
	EnvLoggerMode  = "SYNC_LOGGER_MODE"
	EnvLoggerLevel = "SYNC_LOGGER_LEVEL"
)

// Константы для сообщений об ошибках.
const (
	ErrInitLogger           = "failed to initialize logger"
	ErrSyncLogger           = "failed to sync logger"
	ErrLoadConfig           = "failed to load configuration"
	ErrInitLoggerWithConfig = "failed to initialize logger with configuration settings"
	ErrBackendUnhealthy     = "store service is unavailable, sync disabled for this session"
	ErrInitWatcher          = "failed to watch vault"
	ErrCloseWatcher         = "failed to close vault watcher"
)

// Константы для игнорируемых ошибок.
const (
	ErrSyncStderr = "sync /dev/stderr: invalid argument"
	ErrSyncStdout = "sync /dev/stdout: invalid argument"
)

// Константы для сообщений сервиса.
const (
	LogServiceStarted      = "syncer started"
	LogServiceShutdownDone = "syncer shutdown complete"
	LogStoppingWatcher     = "stopping vault watcher"
	LogShutdownHookFailed  = "shutdown hook failed"
)

func main() {
	configPath := flag.String("config", "", "path to YAML configuration file")
	vaultRoot := flag.String("vault", "", "vault directory, overrides SYNC_VAULT_ROOT")
	flag.Parse()

	env := logger.Development
	if strings.ToLower(os.Getenv(EnvLoggerMode)) == string(logger.Production) {
		env = logger.Production
	}

	log, err := logger.NewLogger(env, os.Getenv(EnvLoggerLevel))
	if err != nil {
		panic(ErrInitLogger + ": " + err.Error())
	}
	logger.SetGlobalLogger(log)

	ctx := logger.NewRequestIDContext(context.Background(), "")

	var exitCode int

	func() {
		defer func() {
			if err := log.Sync(); err != nil {
				errMsg := err.Error()
				if strings.Contains(errMsg, ErrSyncStderr) || strings.Contains(errMsg, ErrSyncStdout) {
					return
				}
				if _, writeErr := fmt.Fprintf(os.Stderr, "%s: %v\n", ErrSyncLogger, err); writeErr != nil {
					panic(writeErr)
				}
			}
		}()

		cfg, err := config.Load(ctx, *configPath)
		if err != nil {
			log.Error(ctx, ErrLoadConfig, zap.Error(err))
			exitCode = 1
			return
		}
		if *vaultRoot != "" {
			cfg.Vault.Root = *vaultRoot
		}

		finalLogger, err := logger.NewLogger(cfg.Logging.GetEnvironment(), cfg.Logging.Level)
		if err != nil {
			log.Error(ctx, ErrInitLoggerWithConfig, zap.Error(err))
			exitCode = 1
			return
		}
		logger.SetGlobalLogger(finalLogger)
		log = finalLogger

		log.Info(ctx, LogServiceStarted,
			zap.String("environment", string(cfg.Logging.GetEnvironment())),
			zap.String("backend_url", cfg.Backend.URL),
			zap.String("startup_time", time.Now().Format(time.RFC3339)))

		vault, err := watcher.New(cfg.Vault.Root, watcher.Options{
			Ignore:        cfg.Vault.Ignore,
			PairingWindow: cfg.Vault.PairingWindow,
		})
		if err != nil {
			log.Error(ctx, ErrInitWatcher, zap.Error(err))
			exitCode = 1
			return
		}

		store := client.New(cfg.Backend.URL, cfg.Backend.RequestTimeout)
		syncer := app.New(store, extractor.New(vault.Root()), app.Options{
			RequestTimeout: cfg.Backend.RequestTimeout,
			Retry: resilience.Policy{
				Attempts:       cfg.Retry.Attempts,
				InitialBackoff: cfg.Retry.InitialBackoff,
				MaxBackoff:     cfg.Retry.MaxBackoff,
				BackoffFactor:  2.0,
			},
		})

		if !syncer.CheckHealth(ctx) {
			log.Error(ctx, ErrBackendUnhealthy, zap.String("backend_url", cfg.Backend.URL))
			_ = vault.Close()
			exitCode = 1
			return
		}

		runCtx, cancel := context.WithCancel(ctx)
		if err := vault.Start(runCtx); err != nil {
			log.Error(ctx, ErrInitWatcher, zap.Error(err))
			cancel()
			_ = vault.Close()
			exitCode = 1
			return
		}

		done := make(chan struct{})
		go func() {
			defer close(done)
			syncer.Run(runCtx, vault)
		}()

		errs := shutdown.Wait(ctx, cfg.Shutdown.GetTimeout(),
			func(ctx context.Context) error {
				log.Info(ctx, LogStoppingWatcher)
				cancel()
				if err := vault.Close(); err != nil {
					return fmt.Errorf("%s: %w", ErrCloseWatcher, err)
				}
				select {
				case <-done:
					return nil
				case <-ctx.Done():
					return ctx.Err()
				}
			},
		)
		for _, err := range errs {
			log.Warn(ctx, LogShutdownHookFailed, zap.Error(err))
		}

		log.Info(ctx, LogServiceShutdownDone)
	}()

	if exitCode != 0 {
		os.Exit(exitCode)
	}
}
