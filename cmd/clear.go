package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var clearConfigPath string

var clearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Wipe all persisted migration workflow data",
	Long: `Deletes the global workflow state, event log, timestamps and error
from the shared store. Clearing an already empty workflow succeeds;
the operation is idempotent.`,
	Args: cobra.NoArgs,
	RunE: runClear,
}

func runClear(cmd *cobra.Command, args []string) error {
	cfg, err := loadEngineConfig(clearConfigPath)
	if err != nil {
		return err
	}

	st, keys := newStoreClient(cfg)
	defer st.Close()

	if err := newReadOnlyOrchestrator(st, keys).ClearMigrationData(cmd.Context()); err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), "Migration data cleared.")
	return nil
}

func init() {
	rootCmd.AddCommand(clearCmd)
	clearCmd.Flags().StringVar(&clearConfigPath, "config-path", "", "Custom configuration directory path")
}
