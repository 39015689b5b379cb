package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/briandowns/spinner"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"vmflow/internal/events"
	"vmflow/internal/orchestrator"
)

var statusConfigPath string

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the current workflow state and recent events",
	Long: `Reads the shared store and prints the global workflow state, its
timestamps and error, and the most recent execution events. The output
reflects what every vmflow instance currently observes.`,
	Args: cobra.NoArgs,
	RunE: runStatus,
}

func runStatus(cmd *cobra.Command, args []string) error {
	cfg, err := loadEngineConfig(statusConfigPath)
	if err != nil {
		return err
	}

	var s *spinner.Spinner
	if isTerminal(os.Stdout) {
		s = spinner.New(spinner.CharSets[14], 100*time.Millisecond)
		s.Suffix = " reading workflow state..."
		s.Start()
	}

	st, keys := newStoreClient(cfg)
	defer st.Close()
	status := newReadOnlyOrchestrator(st, keys).Status(cmd.Context())

	if s != nil {
		s.Stop()
	}

	renderStatus(cmd, status)
	return nil
}

func renderStatus(cmd *cobra.Command, status orchestrator.Status) {
	t := table.NewWriter()
	t.SetOutputMirror(cmd.OutOrStdout())
	t.AppendRow(table.Row{"State", status.State})
	if status.CurrentOperation != "" {
		t.AppendRow(table.Row{"Operation", status.CurrentOperation})
	}
	if status.StartTime != nil {
		t.AppendRow(table.Row{"Started", status.StartTime.Format(time.RFC3339)})
	}
	if status.EndTime != nil {
		t.AppendRow(table.Row{"Ended", status.EndTime.Format(time.RFC3339)})
	}
	if status.Error != "" {
		t.AppendRow(table.Row{"Error", status.Error})
	}
	t.Render()

	if len(status.Events) == 0 {
		return
	}

	// Only the trailing window counts as "current" for reporting; the
	// stored log itself is unbounded.
	recent := status.Events
	if len(recent) > events.RecentWindow {
		recent = recent[len(recent)-events.RecentWindow:]
	}

	fmt.Fprintf(cmd.OutOrStdout(), "\nRecent events (%d of %d):\n", len(recent), len(status.Events))
	et := table.NewWriter()
	et.SetOutputMirror(cmd.OutOrStdout())
	et.AppendHeader(table.Row{"Time", "Type", "Subject", "OK", "Detail"})
	for _, ev := range recent {
		et.AppendRow(table.Row{
			ev.Timestamp.Format(time.TimeOnly),
			ev.Type,
			eventSubject(ev),
			ev.Success,
			eventDetail(ev),
		})
	}
	et.Render()
}

func eventSubject(ev events.MigrationEvent) string {
	switch {
	case ev.VMName != "":
		return ev.VMName
	case ev.VMMoid != "":
		return ev.VMMoid
	case ev.ServerName != "":
		return ev.ServerName
	case ev.ServerMoid != "":
		return ev.ServerMoid
	}
	return ""
}

func eventDetail(ev events.MigrationEvent) string {
	if ev.Error != "" {
		return ev.Error
	}
	if ev.Type == events.EventVMMigration && ev.SourceMoid != "" {
		return fmt.Sprintf("%s -> %s", ev.SourceMoid, ev.DestinationMoid)
	}
	return ev.Message
}

func init() {
	rootCmd.AddCommand(statusCmd)
	statusCmd.Flags().StringVar(&statusConfigPath, "config-path", "", "Custom configuration directory path")
}
