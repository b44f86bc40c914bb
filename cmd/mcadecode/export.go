package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/mscrnt/mcadecode/pkg/db"
	"github.com/spf13/cobra"
)

var (
	exportRunID  int64
	exportOutput string
	exportAll    bool
)

func exportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export decode results",
		Long:  "Export decoded events in various formats",
	}

	cmd.AddCommand(exportCSVCmd())
	cmd.AddCommand(exportJSONCmd())

	return cmd
}

func exportCSVCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "csv",
		Short: "Export events to CSV format",
		Long: `Export decoded events to CSV format.

Examples:
  # Export a specific run to a file
  mcadecode export csv --run 42 --out events.csv

  # Export a specific run to stdout
  mcadecode export csv --run 42

  # Export all runs
  mcadecode export csv --all --out all-events.csv`,
		RunE: runExportCSV,
	}

	cmd.Flags().Int64Var(&exportRunID, "run", 0, "Run ID to export")
	cmd.Flags().StringVarP(&exportOutput, "out", "o", "", "Output file (default: stdout)")
	cmd.Flags().BoolVar(&exportAll, "all", false, "Export all runs")

	return cmd
}

func exportJSONCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "json",
		Short: "Export events to JSON format",
		Long: `Export decoded events to JSON format.

Examples:
  # Export a specific run to a file
  mcadecode export json --run 42 --out events.json

  # Export a specific run to stdout
  mcadecode export json --run 42`,
		RunE: runExportJSON,
	}

	cmd.Flags().Int64Var(&exportRunID, "run", 0, "Run ID to export")
	cmd.Flags().StringVarP(&exportOutput, "out", "o", "", "Output file (default: stdout)")

	return cmd
}

func openExportOutput() (*os.File, error) {
	if exportOutput == "" {
		return os.Stdout, nil
	}
	out, err := os.Create(exportOutput) // #nosec G304 -- exportOutput is a user-specified output file path from a CLI flag
	if err != nil {
		return nil, fmt.Errorf("failed to create output file: %w", err)
	}
	return out, nil
}

func runExportCSV(_ *cobra.Command, _ []string) error {
	if !exportAll && exportRunID == 0 {
		return fmt.Errorf("either --run or --all must be specified")
	}

	database, err := db.Open(getDBPath())
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer func() { _ = database.Close() }()

	out, err := openExportOutput()
	if err != nil {
		return err
	}
	if out != os.Stdout {
		defer func() { _ = out.Close() }()
	}

	if exportAll {
		if err := database.ExportAllCSV(out); err != nil {
			return fmt.Errorf("failed to export CSV: %w", err)
		}
		if exportOutput != "" {
			fmt.Printf("Exported all runs to %s\n", exportOutput)
		}
		return nil
	}

	if _, err := database.GetRun(exportRunID); err != nil {
		return fmt.Errorf("run %d not found", exportRunID)
	}

	if err := database.ExportCSV(out, exportRunID); err != nil {
		return fmt.Errorf("failed to export CSV: %w", err)
	}
	if exportOutput != "" {
		fmt.Printf("Exported run %d to %s\n", exportRunID, exportOutput)
	}

	return nil
}

func runExportJSON(_ *cobra.Command, _ []string) error {
	if exportRunID == 0 {
		return fmt.Errorf("--run must be specified")
	}

	database, err := db.Open(getDBPath())
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer func() { _ = database.Close() }()

	if _, err := database.GetRun(exportRunID); err != nil {
		return fmt.Errorf("run %d not found", exportRunID)
	}

	out, err := openExportOutput()
	if err != nil {
		return err
	}
	if out != os.Stdout {
		defer func() { _ = out.Close() }()
	}

	if err := database.ExportJSON(out, exportRunID); err != nil {
		return fmt.Errorf("failed to export JSON: %w", err)
	}

	if exportOutput != "" {
		fmt.Printf("Exported run %d to %s\n", exportRunID, exportOutput)
	}

	return nil
}

func listCmd() *cobra.Command {
	var (
		listSource string
		listLimit  int
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List decode runs",
		Long: `List decode runs from the database.

Examples:
  # List all runs
  mcadecode list

  # List runs from a specific source
  mcadecode list --source /var/log/vmkernel.log

  # List last 10 runs
  mcadecode list --limit 10`,
		RunE: func(_ *cobra.Command, _ []string) error {
			database, err := db.Open(getDBPath())
			if err != nil {
				return fmt.Errorf("failed to open database: %w", err)
			}
			defer func() { _ = database.Close() }()

			runs, err := database.ListRuns(db.RunFilter{Source: listSource, Limit: listLimit})
			if err != nil {
				return fmt.Errorf("failed to list runs: %w", err)
			}

			if len(runs) == 0 {
				fmt.Println("No runs found")
				return nil
			}

			fmt.Printf("%-6s %-30s %-20s %-20s %-8s %-6s %-6s\n",
				"ID", "Source", "Start Time", "End Time", "Status", "Events", "Warns")
			fmt.Println(strings.Repeat("-", 100))

			for _, run := range runs {
				endTime := "running"
				status := "running"

				if run.EndTime != nil {
					endTime = run.EndTime.Format("2006-01-02 15:04:05")
					if run.Error == "" {
						status = "ok"
					} else {
						status = "error"
					}
				}

				fmt.Printf("%-6d %-30s %-20s %-20s %-8s %-6d %-6d\n",
					run.ID,
					truncate(run.Source, 30),
					run.StartTime.Format("2006-01-02 15:04:05"),
					endTime,
					status,
					run.EventCount,
					run.WarningCount,
				)
			}

			return nil
		},
	}

	cmd.Flags().StringVarP(&listSource, "source", "s", "", "Filter by source")
	cmd.Flags().IntVarP(&listLimit, "limit", "n", 50, "Maximum number of runs to show")

	return cmd
}

func showCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show [run-id]",
		Short: "Show detailed run information",
		Long: `Show detailed information about a specific decode run.

Examples:
  mcadecode show 42
  mcadecode show 42 -v`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			runID, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid run ID: %s", args[0])
			}

			database, err := db.Open(getDBPath())
			if err != nil {
				return fmt.Errorf("failed to open database: %w", err)
			}
			defer func() { _ = database.Close() }()

			run, err := database.GetRun(runID)
			if err != nil {
				return fmt.Errorf("run %d not found", runID)
			}

			events, err := database.ListEvents(db.EventFilter{RunID: &runID})
			if err != nil {
				return fmt.Errorf("failed to get events: %w", err)
			}

			fmt.Printf("Run ID: %d\n", run.ID)
			fmt.Printf("Source: %s\n", run.Source)
			fmt.Printf("Start Time: %s\n", run.StartTime.Format("2006-01-02 15:04:05"))

			if run.EndTime != nil {
				fmt.Printf("End Time: %s\n", run.EndTime.Format("2006-01-02 15:04:05"))
				fmt.Printf("Duration: %.2f seconds\n", run.Duration().Seconds())
			} else {
				fmt.Printf("End Time: (still running)\n")
			}

			if run.Error != "" {
				fmt.Printf("Error: %s\n", run.Error)
			}

			fmt.Printf("Events: %d\n", run.EventCount)
			fmt.Printf("Warnings: %d\n", run.WarningCount)

			verbose, _ := cmd.Flags().GetBool("verbose")
			if len(events) > 0 {
				fmt.Printf("\nEvents:\n")
				for _, ev := range events {
					fmt.Printf("  #%d bank%d %s %s\n", ev.ID, ev.Bank, ev.UCRClass, ev.MCACode)
					if verbose {
						fmt.Printf("      status=%s addr=%s misc=%s meaning=%s\n", ev.Status, ev.Addr, ev.Misc, ev.Meaning)
					}
				}
			}

			return nil
		},
	}

	cmd.Flags().BoolP("verbose", "v", false, "Show per-event register values")

	return cmd
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}
