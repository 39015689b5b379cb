package cmd

import (
	"io"
	"os"

	"github.com/mattn/go-isatty"

	"vmflow/internal/config"
	"vmflow/internal/orchestrator"
	"vmflow/internal/plan"
	"vmflow/internal/store"
	"vmflow/pkg/logging"
)

// loadEngineConfig initializes quiet logging for one-shot commands and
// loads the engine configuration.
func loadEngineConfig(configPath string) (config.Config, error) {
	// One-shot commands keep their stdout clean for command output.
	logging.Init(logging.LevelWarn, io.Discard)

	if configPath == "" {
		configPath = config.GetDefaultConfigPathOrPanic()
	}
	return config.LoadConfig(configPath)
}

// newStoreClient builds the store client one-shot commands read through.
func newStoreClient(cfg config.Config) (store.Store, store.Keys) {
	return store.NewRedisStore(cfg.Store), store.NewKeys(cfg.Store.KeyPrefix)
}

// newReadOnlyOrchestrator wires an orchestrator without executors, for
// commands that only query or clear workflow state.
func newReadOnlyOrchestrator(st store.Store, keys store.Keys) *orchestrator.Orchestrator {
	return orchestrator.New(orchestrator.Config{
		Store:    st,
		Keys:     keys,
		Analyzer: plan.NewAnalyzer(nil),
	})
}

func isTerminal(f *os.File) bool {
	return isatty.IsTerminal(f.Fd())
}
