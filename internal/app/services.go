package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"vmflow/internal/config"
	"vmflow/internal/executor"
	"vmflow/internal/gateway"
	"vmflow/internal/history"
	"vmflow/internal/notify"
	"vmflow/internal/orchestrator"
	"vmflow/internal/plan"
	"vmflow/internal/store"
	"vmflow/pkg/logging"
)

// eventSweepInterval bounds how stale a broadcast can get for events the
// executors append between orchestrator state transitions.
const eventSweepInterval = 5 * time.Second

// Services holds the wired engine components.
type Services struct {
	Store        store.Store
	Orchestrator *orchestrator.Orchestrator
	Gateway      *gateway.Gateway
	Catalog      *plan.Catalog
}

// InitializeServices wires the engine: store, analyzer, executors,
// notifier, audit recorder, orchestrator, plan catalog and gateway.
func InitializeServices(cfg *Config) (*Services, error) {
	engineCfg := cfg.EngineConfig

	var st store.Store
	switch engineCfg.Store.Backend {
	case config.StoreBackendMemory:
		logging.Warn("Bootstrap", "Using the in-memory store; workflow state is invisible to other instances")
		st = store.NewMemoryStore()
	case config.StoreBackendRedis, "":
		st = store.NewRedisStore(engineCfg.Store)
	default:
		return nil, fmt.Errorf("unknown store backend %q", engineCfg.Store.Backend)
	}

	keys := store.NewKeys(engineCfg.Store.KeyPrefix)
	catalog := plan.NewCatalog(engineCfg.Plans.Directory)

	orch := orchestrator.New(orchestrator.Config{
		Store:         st,
		Keys:          keys,
		Analyzer:      plan.NewAnalyzer(nil),
		MigrateRunner: executor.NewCommandRunner(engineCfg.Executor.MigratePath, engineCfg.Executor.Timeout),
		RestartRunner: executor.NewCommandRunner(engineCfg.Executor.RestartPath, engineCfg.Executor.Timeout),
		Notifier:      notify.NewChannelNotifier(st, engineCfg.Notify.Channel),
		Recorder:      history.NewRecorder(st, keys),
	})

	gw := gateway.New(engineCfg.Gateway, orch, catalog)

	return &Services{
		Store:        st,
		Orchestrator: orch,
		Gateway:      gw,
		Catalog:      catalog,
	}, nil
}

// Run starts the gateway, the orchestrator's event sweep and the plan
// catalog, then blocks until the context is cancelled or a component
// fails.
func (s *Services) Run(ctx context.Context) error {
	defer s.Store.Close()

	if err := s.Catalog.Start(ctx); err != nil {
		logging.Warn("Bootstrap", "Plan catalog unavailable: %v", err)
	}

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		return s.Gateway.Run(groupCtx)
	})
	group.Go(func() error {
		return s.Orchestrator.Run(groupCtx, eventSweepInterval)
	})

	err := group.Wait()
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
