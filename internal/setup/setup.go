// Package setup bootstraps the application's shared state in dependency
// order and owns its lifecycle. The ledger, metrics accumulator, and
// stores are constructed once here and handed to the event-consumer and
// request-responder contexts by reference — no package-level singletons.
package setup

import (
	"time"

	"github.com/aura-ops/aura/internal/ledger"
	"github.com/aura-ops/aura/internal/metrics"
	"github.com/aura-ops/aura/internal/setup/config"
	"github.com/aura-ops/aura/internal/storage"
	"go.uber.org/zap"
)

// App bundles the core dependencies shared by the event consumer and the
// web responder.
type App struct {
	Config    *config.Config
	Logger    *zap.Logger
	WebLogger *zap.Logger
	Ledger    *ledger.Ledger
	Metrics   *metrics.Accumulator
	StartTime time.Time
}

// InitializeApp loads configuration, starts the loggers, and opens the
// durable stores.
func InitializeApp() (*App, error) {
	cfg, configDir, err := config.LoadConfig()
	if err != nil {
		return nil, err
	}

	logger, webLogger, err := GetLoggers(cfg.Logging.Dir, cfg.Logging.Level, cfg.Logging.MaxLogsToKeep)
	if err != nil {
		return nil, err
	}

	logger.Info("Configuration loaded", zap.String("config_dir", configDir))

	ledgerStore := storage.New(cfg.Storage.LedgerFile, logger)
	metricsStore := storage.New(cfg.Storage.MetricsFile, logger)

	app := &App{
		Config:    cfg,
		Logger:    logger,
		WebLogger: webLogger,
		Ledger:    ledger.Open(ledgerStore, logger),
		Metrics: metrics.NewAccumulator(
			metricsStore,
			time.Duration(cfg.Metrics.ChatterWindow())*time.Second,
			logger,
		),
		StartTime: time.Now(),
	}

	return app, nil
}

// Uptime reports how long the process has been running.
func (a *App) Uptime() time.Duration {
	return time.Since(a.StartTime)
}

// CleanupApp flushes pending state and releases resources.
func (a *App) CleanupApp() {
	if err := a.Metrics.Checkpoint(); err != nil {
		a.Logger.Error("Failed to flush metrics during shutdown", zap.Error(err))
	}
	a.Metrics.Close()

	_ = a.Logger.Sync()
	_ = a.WebLogger.Sync()
}
