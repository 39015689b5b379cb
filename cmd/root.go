package cmd

import (
	"errors"
	"os"

	"vmflow/internal/orchestrator"

	"github.com/spf13/cobra"
)

// Exit codes for CLI commands.
const (
	// ExitCodeSuccess indicates successful execution.
	ExitCodeSuccess = 0
	// ExitCodeError indicates a general error (command failed, invalid arguments).
	ExitCodeError = 1
	// ExitCodeValidation indicates the command was rejected without touching
	// workflow state and is safe to retry after fixing the input.
	ExitCodeValidation = 2
)

// rootCmd represents the base command for the vmflow application.
var rootCmd = &cobra.Command{
	Use:   "vmflow",
	Short: "Migration orchestration engine for virtualization estates",
	Long: `vmflow drives multi-host VM migration, bulk shutdown and bulk restart
workflows against a virtualization estate. It keeps one global workflow
state in a shared store, streams normalized execution events to realtime
subscribers, and delegates the actual hypervisor work to external
executor programs.`,
	// SilenceUsage prevents Cobra from printing the usage message on errors
	// that are handled by the application.
	SilenceUsage: true,
}

// SetVersion sets the version for the root command. Called from main to
// inject the build version.
func SetVersion(v string) {
	rootCmd.Version = v
}

// GetVersion returns the current version of the application.
func GetVersion() string {
	return rootCmd.Version
}

// Execute is the main entry point for the CLI application.
func Execute() {
	rootCmd.SetVersionTemplate(`{{printf "vmflow version %s\n" .Version}}`)

	err := rootCmd.Execute()
	if err != nil {
		os.Exit(getExitCode(err))
	}
}

// getExitCode maps error types onto semantic exit codes for scripting.
func getExitCode(err error) int {
	var verr *orchestrator.ValidationError
	if errors.As(err, &verr) {
		return ExitCodeValidation
	}
	return ExitCodeError
}

func init() {
	rootCmd.AddCommand(newVersionCmd())
}
