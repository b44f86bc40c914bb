package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/mscrnt/mcadecode/pkg/db"
	"github.com/mscrnt/mcadecode/pkg/report"
	"github.com/spf13/cobra"
)

func reportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Generate decode reports",
		Long:  "Generate HTML and PDF reports from decode runs",
	}

	cmd.AddCommand(reportGenerateCmd())
	cmd.AddCommand(reportListCmd())

	return cmd
}

func reportGenerateCmd() *cobra.Command {
	var (
		format    string
		output    string
		runID     int64
		latest    bool
		source    string
		landscape bool
		pageSize  string
	)

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate a report",
		Long: `Generate an HTML or PDF report from a decode run.

Examples:
  mcadecode report generate --latest
  mcadecode report generate --run 42 --format pdf --output report.pdf
  mcadecode report generate --latest --source /var/log/vmkernel.log
  mcadecode report generate --run 10 --format pdf --landscape --page-size A4`,
		RunE: func(_ *cobra.Command, _ []string) error {
			if !latest && runID == 0 {
				return fmt.Errorf("either --latest or --run must be specified")
			}

			if format != "html" && format != "pdf" {
				return fmt.Errorf("format must be either 'html' or 'pdf'")
			}

			database, err := db.Open(getDBPath())
			if err != nil {
				return fmt.Errorf("failed to open database: %w", err)
			}
			defer func() { _ = database.Close() }()

			if latest {
				runs, err := database.ListRuns(db.RunFilter{Source: source, Limit: 1})
				if err != nil {
					return fmt.Errorf("failed to list runs: %w", err)
				}
				if len(runs) == 0 {
					return fmt.Errorf("no runs found")
				}
				runID = runs[0].ID
			}

			run, err := database.GetRun(runID)
			if err != nil {
				return fmt.Errorf("run %d not found", runID)
			}

			generator := report.NewGenerator(database)

			if output == "" {
				timestamp := time.Now().Format("20060102_150405")
				output = fmt.Sprintf("mcadecode_report_%d_%s.%s", runID, timestamp, format)
			}

			switch format {
			case "html":
				html, err := generator.GenerateHTML(runID)
				if err != nil {
					return fmt.Errorf("failed to generate HTML report: %w", err)
				}

				if err := os.WriteFile(output, []byte(html), 0o600); err != nil {
					return fmt.Errorf("failed to write HTML file: %w", err)
				}

			case "pdf":
				options := report.DefaultPDFOptions()
				options.Landscape = landscape

				if pageSize != "" {
					switch strings.ToUpper(pageSize) {
					case "A4":
						options.PaperWidth = 8.27
						options.PaperHeight = 11.69
					case "A3":
						options.PaperWidth = 11.69
						options.PaperHeight = 16.54
					case "LETTER":
						// Default is already Letter
					case "LEGAL":
						options.PaperWidth = 8.5
						options.PaperHeight = 14.0
					default:
						return fmt.Errorf("unsupported page size: %s", pageSize)
					}
				}

				if err := generator.GeneratePDF(runID, output, &options); err != nil {
					return fmt.Errorf("failed to generate PDF report: %w", err)
				}
			}

			absPath, _ := filepath.Abs(output)

			status := "OK"
			if run.Error != "" {
				status = "ERROR"
			}

			fmt.Printf("Generated %s report for run #%d\n", strings.ToUpper(format), runID)
			fmt.Printf("Source: %s\n", run.Source)
			fmt.Printf("Date: %s\n", run.StartTime.Format("2006-01-02 15:04:05"))
			fmt.Printf("Status: %s\n", status)
			fmt.Printf("Output: %s\n", absPath)

			return nil
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "html", "Output format (html or pdf)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file path")
	cmd.Flags().Int64Var(&runID, "run", 0, "Run ID to generate report for")
	cmd.Flags().BoolVar(&latest, "latest", false, "Use latest run")
	cmd.Flags().StringVarP(&source, "source", "s", "", "Filter by source when using --latest")
	cmd.Flags().BoolVar(&landscape, "landscape", false, "Generate PDF in landscape mode")
	cmd.Flags().StringVar(&pageSize, "page-size", "LETTER", "PDF page size (A3, A4, LETTER, LEGAL)")

	return cmd
}

func reportListCmd() *cobra.Command {
	var (
		source string
		limit  int
		since  string
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List available runs for reporting",
		Long: `List decode runs that can be used to generate reports.

Examples:
  mcadecode report list
  mcadecode report list --source /var/log/vmkernel.log
  mcadecode report list --since 24h`,
		RunE: func(_ *cobra.Command, _ []string) error {
			database, err := db.Open(getDBPath())
			if err != nil {
				return fmt.Errorf("failed to open database: %w", err)
			}
			defer func() { _ = database.Close() }()

			filter := db.RunFilter{Source: source, Limit: limit}

			if since != "" {
				duration, err := parseDuration(since)
				if err != nil {
					return fmt.Errorf("invalid duration: %w", err)
				}
				sinceTime := time.Now().Add(-duration)
				filter.StartTime = &sinceTime
			}

			runs, err := database.ListRuns(filter)
			if err != nil {
				return fmt.Errorf("failed to list runs: %w", err)
			}

			if len(runs) == 0 {
				fmt.Println("No runs found")
				return nil
			}

			fmt.Printf("%-6s %-30s %-20s %-20s %-8s %-10s\n",
				"ID", "Source", "Start Time", "End Time", "Status", "Duration")
			fmt.Println(strings.Repeat("-", 100))

			for _, run := range runs {
				endTime := "Running"
				duration := "N/A"
				status := "running"
				if run.EndTime != nil {
					endTime = run.EndTime.Format("2006-01-02 15:04:05")
					duration = formatDuration(run.EndTime.Sub(run.StartTime))
					if run.Error == "" {
						status = "ok"
					} else {
						status = "error"
					}
				}

				fmt.Printf("%-6d %-30s %-20s %-20s %-8s %-10s\n",
					run.ID,
					truncate(run.Source, 30),
					run.StartTime.Format("2006-01-02 15:04:05"),
					endTime,
					status,
					duration,
				)
			}

			fmt.Printf("\nTotal: %d runs\n", len(runs))

			return nil
		},
	}

	cmd.Flags().StringVarP(&source, "source", "s", "", "Filter by source")
	cmd.Flags().IntVar(&limit, "limit", 50, "Maximum number of runs to show")
	cmd.Flags().StringVar(&since, "since", "", "Show runs since duration (e.g., 24h, 7d)")

	return cmd
}

func formatDuration(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%.1fs", d.Seconds())
	} else if d < time.Hour {
		return fmt.Sprintf("%.1fm", d.Minutes())
	}
	return fmt.Sprintf("%.1fh", d.Hours())
}

func parseDuration(s string) (time.Duration, error) {
	if strings.HasSuffix(s, "d") {
		days, err := strconv.Atoi(strings.TrimSuffix(s, "d"))
		if err != nil {
			return 0, err
		}
		return time.Duration(days) * 24 * time.Hour, nil
	}

	return time.ParseDuration(s)
}
