package cmd

import (
	"context"
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"vmflow/internal/plan"
)

var plansConfigPath string

var plansCmd = &cobra.Command{
	Use:   "plans",
	Short: "List the plan documents available to the engine",
	Long: `Lists the migration plan documents found in the configured plans
directory, together with their analyzed type and VM count.`,
	Args: cobra.NoArgs,
	RunE: runPlans,
}

func runPlans(cmd *cobra.Command, args []string) error {
	cfg, err := loadEngineConfig(plansConfigPath)
	if err != nil {
		return err
	}

	catalog := plan.NewCatalog(cfg.Plans.Directory)
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()
	if err := catalog.Start(ctx); err != nil {
		return err
	}

	names := catalog.Plans()
	if len(names) == 0 {
		fmt.Fprintf(cmd.OutOrStdout(), "No plan documents in %s\n", cfg.Plans.Directory)
		return nil
	}

	analyzer := plan.NewAnalyzer(nil)
	t := table.NewWriter()
	t.SetOutputMirror(cmd.OutOrStdout())
	t.AppendHeader(table.Row{"Plan", "Type", "VMs", "Sources", "Destinations"})
	for _, name := range names {
		summary, err := analyzer.Analyze(ctx, catalog.Resolve(name))
		if err != nil {
			t.AppendRow(table.Row{name, "unreadable", "", "", ""})
			continue
		}
		t.AppendRow(table.Row{
			name,
			summary.MigrationType,
			summary.TotalVMsCount,
			len(summary.SourceServers),
			len(summary.DestinationServers),
		})
	}
	t.Render()
	return nil
}

func init() {
	rootCmd.AddCommand(plansCmd)
	plansCmd.Flags().StringVar(&plansConfigPath, "config-path", "", "Custom configuration directory path")
}
