// Package main is the entry point of the application
package main

import (
	"context"
	"flag"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/joho/godotenv"
	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/tatami-games/goban-server/internal/auth"
	"github.com/tatami-games/goban-server/pkg/config"
	"github.com/tatami-games/goban-server/pkg/engine"
	"github.com/tatami-games/goban-server/pkg/events"
	"github.com/tatami-games/goban-server/pkg/manager"
	"github.com/tatami-games/goban-server/pkg/repository"
	"github.com/tatami-games/goban-server/pkg/server"
)

// application encapsulates global dependencies
type application struct {
	Auth      *auth.APIKeyAuth
	Logger    *zap.Logger
	Config    *config.Config
	Publisher *events.Publisher
	Hub       *server.Hub
	Server    *http.Server

	upgrader websocket.Upgrader

	enginePool *engine.Pool
	archive    *repository.RedisArchive

	StartTime time.Time
}

func main() {
	cfgPath := flag.String("config", "", "optional config file path")
	flag.Parse()

	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger := initLogger(cfg.Debug)
	defer logger.Sync()

	publisher := events.NewPublisher()
	repo := repository.NewInMemoryRepository(logger)

	app := &application{
		Auth:      auth.NewAPIKeyAuth(cfg.Keys()),
		Logger:    logger,
		Config:    cfg,
		Publisher: publisher,
		StartTime: time.Now(),
	}

	app.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			return cfg.AllowedOrigin == "" || cfg.AllowedOrigin == r.Header.Get("Origin")
		},
	}

	var archive repository.Archive
	if cfg.RedisAddr != "" {
		redisArchive, err := repository.NewRedisArchive(context.Background(), cfg.RedisAddr, logger)
		if err != nil {
			logger.Fatal("redis connection error", zap.Error(err))
		}
		app.archive = redisArchive
		archive = redisArchive
	}

	if cfg.EnginePath != "" {
		app.enginePool = engine.NewEnginePool(cfg.EnginePath, cfg.EnginePoolSize, logger)
		if err := app.enginePool.Initialize(); err != nil {
			logger.Fatal("initialize engine error", zap.Error(err))
		}
	}

	gm := manager.NewManager(repo, archive, app.enginePool, publisher, logger, clockwork.NewRealClock())
	app.Hub = server.NewHub(gm, publisher, logger)

	go app.Hub.Run()

	if err := app.serve(); err != nil {
		logger.Fatal("error serving", zap.Error(err))
	}
}

func initLogger(debug bool) *zap.Logger {
	var cfg zap.Config
	if debug {
		cfg = zap.NewDevelopmentConfig()
		cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	} else {
		cfg = zap.NewProductionConfig()
		cfg.Level = zap.NewAtomicLevelAt(zapcore.InfoLevel)
	}

	logger, err := cfg.Build()
	if err != nil {
		panic("failed to initialize logger: " + err.Error())
	}

	return logger
}

// Shutdown cleans up resources
func (app *application) Shutdown() {
	if app.Hub != nil {
		app.Hub.Shutdown()
	}
	if app.enginePool != nil {
		app.enginePool.Shutdown()
	}
	if app.archive != nil {
		_ = app.archive.Close()
	}

	app.Logger.Info("all components shut down")
}
