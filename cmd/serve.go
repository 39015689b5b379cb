package cmd

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"vmflow/internal/app"

	"github.com/spf13/cobra"
)

// serveDebug enables verbose logging across the application.
var serveDebug bool

// serveConfigPath specifies a custom configuration directory path.
var serveConfigPath string

// serveStore overrides the configured store backend (redis or memory).
var serveStore string

// serveCmd starts the migration orchestration engine: the realtime
// gateway, the event sweep and the plan catalog.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the vmflow migration orchestration engine",
	Long: `Starts the vmflow engine: the WebSocket realtime gateway, the workflow
orchestrator and the plan catalog.

Multiple vmflow instances may serve simultaneously against the same
shared store; they all observe the same global workflow state. The
engine runs until interrupted (SIGINT/SIGTERM).

Configuration is read from config.yaml in the configuration directory
(default: ~/.config/vmflow, override with --config-path).`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := app.NewConfig(serveDebug, serveConfigPath, serveStore)

	application, err := app.NewApplication(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize application: %w", err)
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return application.Run(ctx)
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().BoolVar(&serveDebug, "debug", false, "Enable general debug logging")
	serveCmd.Flags().StringVar(&serveConfigPath, "config-path", "", "Custom configuration directory path")
	serveCmd.Flags().StringVar(&serveStore, "store", "", "Override the store backend (redis or memory)")
}
