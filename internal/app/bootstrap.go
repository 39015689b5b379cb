package app

import (
	"context"
	"fmt"
	"os"

	"vmflow/internal/config"
	"vmflow/pkg/logging"
)

// Application bootstraps and runs the vmflow engine. Initialization is
// two-phase: configuration and logging first, then service wiring; Run
// blocks until shutdown.
type Application struct {
	config   *Config
	services *Services
}

// Config carries the command-line level settings for one application run.
type Config struct {
	// Debug enables verbose logging across all subsystems.
	Debug bool

	// ConfigPath overrides the default configuration directory.
	ConfigPath string

	// StoreBackend overrides the configured store backend when non-empty.
	StoreBackend string

	// EngineConfig is populated during bootstrap.
	EngineConfig *config.Config
}

// NewConfig creates the application configuration from CLI flags.
func NewConfig(debug bool, configPath, storeBackend string) *Config {
	return &Config{
		Debug:        debug,
		ConfigPath:   configPath,
		StoreBackend: storeBackend,
	}
}

// NewApplication performs the bootstrap sequence: logging, engine
// configuration, then service wiring.
func NewApplication(cfg *Config) (*Application, error) {
	appLogLevel := logging.LevelInfo
	if cfg.Debug {
		appLogLevel = logging.LevelDebug
	}
	logging.Init(appLogLevel, os.Stdout)

	configPath := cfg.ConfigPath
	if configPath == "" {
		configPath = config.GetDefaultConfigPathOrPanic()
	}
	engineCfg, err := config.LoadConfig(configPath)
	if err != nil {
		logging.Error("Bootstrap", err, "Failed to load configuration from %s", configPath)
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	if cfg.StoreBackend != "" {
		engineCfg.Store.Backend = config.StoreBackend(cfg.StoreBackend)
	}
	cfg.EngineConfig = &engineCfg

	services, err := InitializeServices(cfg)
	if err != nil {
		logging.Error("Bootstrap", err, "Failed to initialize services")
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}

	return &Application{
		config:   cfg,
		services: services,
	}, nil
}

// Run executes the engine until the context is cancelled.
func (a *Application) Run(ctx context.Context) error {
	return a.services.Run(ctx)
}
