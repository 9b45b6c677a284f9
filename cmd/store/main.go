package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/gofiber/fiber/v3"
	"go.uber.org/zap"

	storehttp "notesync/internal/store/adapters/http"
	"notesync/internal/store/adapters/postgres"
	storeredis "notesync/internal/store/adapters/redis"
	"notesync/internal/store/adapters/storage"
	"notesync/internal/store/adapters/websocket"
	"notesync/internal/store/app"
	"notesync/internal/store/config"
	"notesync/internal/store/db"
	"notesync/internal/store/domain/entities"
	"notesync/internal/store/ports/broadcast"
	pkgredis "notesync/pkg/db/redis"
	"notesync/pkg/logger"
	"notesync/pkg/shutdown"
)

// Константы для переменных окружения.
const (
	EnvLoggerMode  = "STORE_LOGGER_MODE"
	EnvLoggerLevel = "STORE_LOGGER_LEVEL"
)

// Константы для сообщений об ошибках.
const (
	ErrInitLogger           = "failed to initialize logger"
	ErrSyncLogger           = "failed to sync logger"
	ErrLoadConfig           = "failed to load configuration"
	ErrInitLoggerWithConfig = "failed to initialize logger with configuration settings"
	ErrInitDatabase         = "failed to initialize database"
	ErrInitImages           = "failed to initialize image storage"
	ErrInitRedis            = "failed to connect to Redis"
	ErrStartRelay           = "failed to start change relay"
	ErrStartHTTPServer      = "failed to start HTTP server"
)

// Константы для игнорируемых ошибок.
const (
	ErrSyncStderr = "sync /dev/stderr: invalid argument"
	ErrSyncStdout = "sync /dev/stdout: invalid argument"
)

// Константы для сообщений сервиса.
const (
	LogServiceStarted      = "store service started"
	LogServiceShutdownDone = "store service shutdown complete"
	LogInitDatabase        = "initializing database"
	LogInitBroadcast       = "initializing broadcast channel"
	LogInitHTTPServer      = "initializing HTTP server"
	LogStartingHTTP        = "starting HTTP server"
	LogStoppingHTTP        = "stopping HTTP server"
	LogClosingViewers      = "closing viewer sessions"
	LogShutdownHookFailed  = "shutdown hook failed"
)

func main() {
	configPath := flag.String("config", "", "path to YAML configuration file")
	migrationsDir := flag.String("migrations", "migrations/store", "path to SQL migrations")
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
			zap.String("log_level", cfg.Logging.Level),
			zap.String("startup_time", time.Now().Format(time.RFC3339)))

		log.Info(ctx, LogInitDatabase)
		database, err := db.New(ctx, &cfg.Postgres, *migrationsDir)
		if err != nil {
			log.Error(ctx, ErrInitDatabase, zap.Error(err))
			exitCode = 1
			return
		}

		images, err := storage.NewFileStorage(cfg.Images.Dir)
		if err != nil {
			log.Error(ctx, ErrInitImages, zap.Error(err))
			database.Close(ctx)
			exitCode = 1
			return
		}

		repos := postgres.NewRepositoryFactory(database.Pool())
		noteRepo := repos.NoteRepository()

		log.Info(ctx, LogInitBroadcast)
		snapshotTimeout := cfg.Broadcast.SnapshotTimeout
		hub := websocket.NewHub(broadcast.SnapshotFunc(func(ctx context.Context) (entities.Snapshot, error) {
			ctx, cancel := context.WithTimeout(ctx, snapshotTimeout)
			defer cancel()
			return noteRepo.List(ctx)
		}))

		var (
			broadcaster broadcast.Broadcaster = hub
			relay       *storeredis.Relay
			redisClient *pkgredis.Client
		)
		if cfg.Redis.Enabled {
			redisClient, err = pkgredis.NewClient(ctx, pkgredis.Config{
				Addr:         cfg.Redis.GetAddressString(),
				Password:     cfg.Redis.Password,
				DB:           cfg.Redis.DB,
				PoolSize:     cfg.Redis.PoolSize,
				DialTimeout:  cfg.Redis.DialTimeout,
				ReadTimeout:  cfg.Redis.ReadTimeout,
				WriteTimeout: cfg.Redis.WriteTimeout,
			})
			if err != nil {
				log.Error(ctx, ErrInitRedis, zap.Error(err))
				database.Close(ctx)
				exitCode = 1
				return
			}

			relay = storeredis.NewRelay(hub, redisClient, cfg.Redis.Channel)
			if err := relay.Start(ctx); err != nil {
				log.Error(ctx, ErrStartRelay, zap.Error(err))
				_ = redisClient.Close(ctx)
				database.Close(ctx)
				exitCode = 1
				return
			}
			broadcaster = relay
		}

		notesUseCase := app.NewNoteUseCase(noteRepo, broadcaster)
		imagesUseCase := app.NewImageUseCase(images)

		log.Info(ctx, LogInitHTTPServer)
		server := fiber.New(fiber.Config{
			AppName:      "notesync-store",
			ReadTimeout:  cfg.HTTP.ReadTimeout,
			WriteTimeout: cfg.HTTP.WriteTimeout,
			BodyLimit:    cfg.HTTP.GetBodyLimit(),
		})

		storehttp.SetupRouter(server, storehttp.Routes{
			Notes:       notesUseCase,
			Images:      imagesUseCase,
			ImagesDir:   imagesUseCase.ImagesDir(),
			ImageMaxAge: cfg.Images.MaxAge,
			CORSOrigins: cfg.HTTP.CORSOrigins,
			Broadcast: hub.Handler(websocket.Options{
				HandshakeTimeout: cfg.Broadcast.HandshakeTimeout,
				WriteTimeout:     cfg.Broadcast.WriteTimeout,
			}),
		})

		log.Info(ctx, LogStartingHTTP, zap.String("address", cfg.HTTP.GetAddress()))
		go func() {
			if err := server.Listen(cfg.HTTP.GetAddress(), fiber.ListenConfig{DisableStartupMessage: true}); err != nil {
				log.Error(ctx, ErrStartHTTPServer, zap.Error(err))
			}
		}()

		errs := shutdown.Wait(ctx, cfg.Shutdown.GetTimeout(),
			func(ctx context.Context) error {
				log.Info(ctx, LogStoppingHTTP)
				if err := server.ShutdownWithContext(ctx); err != nil {
					return fmt.Errorf("%s: %w", LogStoppingHTTP, err)
				}
				log.Info(ctx, LogClosingViewers)
				if err := hub.Close(ctx); err != nil {
					return err
				}
				if relay != nil {
					if err := relay.Close(ctx); err != nil {
						return err
					}
					if err := redisClient.Close(ctx); err != nil {
						return err
					}
				}
				database.Close(ctx)
				return nil
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
