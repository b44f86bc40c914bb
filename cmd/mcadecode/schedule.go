package main

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/mscrnt/mcadecode/pkg/db"
	"github.com/mscrnt/mcadecode/pkg/mca"
	"github.com/mscrnt/mcadecode/pkg/scan"
	"github.com/mscrnt/mcadecode/pkg/schedule"
	"github.com/spf13/cobra"
)

func scheduleCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "schedule",
		Short: "Manage recurring decode scans",
		Long:  "Create, manage, and run cron-scheduled recurring scans over log files",
	}

	cmd.AddCommand(scheduleAddCmd())
	cmd.AddCommand(scheduleListCmd())
	cmd.AddCommand(scheduleRemoveCmd())
	cmd.AddCommand(scheduleEnableCmd())
	cmd.AddCommand(scheduleDisableCmd())
	cmd.AddCommand(scheduleStartCmd())
	cmd.AddCommand(scheduleShowCmd())

	return cmd
}

func scheduleAddCmd() *cobra.Command {
	var (
		name        string
		description string
		cronExpr    string
		path        string
		enabled     bool
	)

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a new schedule",
		Long: `Add a new recurring scan with cron-style timing.

Cron expression format:
  ┌───────────── minute (0 - 59)
  │ ┌───────────── hour (0 - 23)
  │ │ ┌───────────── day of month (1 - 31)
  │ │ │ ┌───────────── month (1 - 12)
  │ │ │ │ ┌───────────── day of week (0 - 6) (Sunday to Saturday)
  │ │ │ │ │
  * * * * *

Examples:
  # Scan a log every hour
  mcadecode schedule add --name "Hourly vmkernel" --cron "0 * * * *" --path /var/log/vmkernel.log

  # Scan nightly at 2 AM
  mcadecode schedule add --name "Nightly scan" --cron "0 2 * * *" --path /var/log/mce.log`,
		RunE: func(_ *cobra.Command, _ []string) error {
			if name == "" {
				return fmt.Errorf("schedule name is required")
			}
			if cronExpr == "" {
				return fmt.Errorf("cron expression is required")
			}
			if path == "" {
				return fmt.Errorf("path is required")
			}
			if _, err := os.Stat(path); err != nil {
				return fmt.Errorf("path %s is not accessible: %w", path, err)
			}

			database, err := db.Open(getDBPath())
			if err != nil {
				return fmt.Errorf("failed to open database: %w", err)
			}
			defer func() { _ = database.Close() }()

			store := schedule.NewStore(database)

			sched := &schedule.Schedule{
				Name:        name,
				Description: description,
				CronExpr:    cronExpr,
				Path:        path,
				Enabled:     enabled,
			}

			if err := store.Create(sched); err != nil {
				return fmt.Errorf("failed to create schedule: %w", err)
			}

			fmt.Printf("Created schedule '%s' (ID: %d)\n", sched.Name, sched.ID)
			fmt.Printf("Cron: %s\n", sched.CronExpr)
			fmt.Printf("Path: %s\n", sched.Path)
			if sched.NextRunTime != nil {
				fmt.Printf("Next run: %s\n", sched.NextRunTime.Format("2006-01-02 15:04:05"))
			}

			return nil
		},
	}

	cmd.Flags().StringVarP(&name, "name", "n", "", "Schedule name (required)")
	cmd.Flags().StringVarP(&description, "desc", "d", "", "Schedule description")
	cmd.Flags().StringVar(&cronExpr, "cron", "", "Cron expression (required)")
	cmd.Flags().StringVarP(&path, "path", "p", "", "Log file to scan (required)")
	cmd.Flags().BoolVar(&enabled, "enabled", true, "Enable schedule immediately")

	if err := cmd.MarkFlagRequired("name"); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to mark flag 'name' as required: %v\n", err)
	}
	if err := cmd.MarkFlagRequired("cron"); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to mark flag 'cron' as required: %v\n", err)
	}
	if err := cmd.MarkFlagRequired("path"); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to mark flag 'path' as required: %v\n", err)
	}

	return cmd
}

func scheduleListCmd() *cobra.Command {
	var (
		all      bool
		disabled bool
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List schedules",
		Long: `List all configured schedules.

Examples:
  mcadecode schedule list
  mcadecode schedule list --all`,
		RunE: func(_ *cobra.Command, _ []string) error {
			database, err := db.Open(getDBPath())
			if err != nil {
				return fmt.Errorf("failed to open database: %w", err)
			}
			defer func() { _ = database.Close() }()

			store := schedule.NewStore(database)

			filter := schedule.ScheduleFilter{}
			if !all && !disabled {
				enabled := true
				filter.Enabled = &enabled
			} else if disabled {
				enabled := false
				filter.Enabled = &enabled
			}

			schedules, err := store.List(filter)
			if err != nil {
				return fmt.Errorf("failed to list schedules: %w", err)
			}

			if len(schedules) == 0 {
				fmt.Println("No schedules found")
				return nil
			}

			fmt.Printf("%-4s %-20s %-30s %-20s %-8s %-20s\n",
				"ID", "Name", "Path", "Cron", "Enabled", "Next Run")
			fmt.Println(strings.Repeat("-", 105))

			for _, sched := range schedules {
				nextRun := "N/A"
				if sched.NextRunTime != nil {
					if sched.IsOverdue() {
						nextRun = fmt.Sprintf("%s (overdue)", sched.NextRunTime.Format("2006-01-02 15:04"))
					} else {
						nextRun = sched.NextRunTime.Format("2006-01-02 15:04")
					}
				}

				fmt.Printf("%-4d %-20s %-30s %-20s %-8v %-20s\n",
					sched.ID,
					truncate(sched.Name, 20),
					truncate(sched.Path, 30),
					sched.CronExpr,
					sched.Enabled,
					nextRun,
				)
			}

			return nil
		},
	}

	cmd.Flags().BoolVarP(&all, "all", "a", false, "Show all schedules")
	cmd.Flags().BoolVar(&disabled, "disabled", false, "Show only disabled schedules")

	return cmd
}

func scheduleRemoveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "remove [id|name]",
		Short: "Remove a schedule",
		Long: `Remove a schedule by ID or name.

Examples:
  mcadecode schedule remove 1
  mcadecode schedule remove "Nightly scan"`,
		Args: cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			database, err := db.Open(getDBPath())
			if err != nil {
				return fmt.Errorf("failed to open database: %w", err)
			}
			defer func() { _ = database.Close() }()

			store := schedule.NewStore(database)

			sched, err := lookupSchedule(store, args[0])
			if err != nil {
				return err
			}

			fmt.Printf("Delete schedule '%s' (ID: %d)? [y/N] ", sched.Name, sched.ID)
			var confirm string
			if _, err := fmt.Scanln(&confirm); err != nil {
				confirm = "n"
			}
			if !strings.EqualFold(confirm, "y") {
				fmt.Println("Cancelled")
				return nil
			}

			if err := store.Delete(sched.ID); err != nil {
				return fmt.Errorf("failed to delete schedule: %w", err)
			}

			fmt.Printf("Deleted schedule '%s'\n", sched.Name)
			return nil
		},
	}

	return cmd
}

func scheduleEnableCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "enable [id|name]",
		Short: "Enable a schedule",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			return toggleSchedule(args[0], true)
		},
	}
}

func scheduleDisableCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "disable [id|name]",
		Short: "Disable a schedule",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			return toggleSchedule(args[0], false)
		},
	}
}

func lookupSchedule(store *schedule.Store, identifier string) (*schedule.Schedule, error) {
	if id, err := parseInt64(identifier); err == nil {
		sched, err := store.Get(id)
		if err != nil {
			return nil, fmt.Errorf("schedule with ID %d not found", id)
		}
		return sched, nil
	}

	sched, err := store.GetByName(identifier)
	if err != nil {
		return nil, fmt.Errorf("schedule '%s' not found", identifier)
	}
	return sched, nil
}

func toggleSchedule(identifier string, enable bool) error {
	database, err := db.Open(getDBPath())
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer func() { _ = database.Close() }()

	store := schedule.NewStore(database)

	sched, err := lookupSchedule(store, identifier)
	if err != nil {
		return err
	}

	if enable {
		if err := store.Enable(sched.ID); err != nil {
			return fmt.Errorf("failed to enable schedule: %w", err)
		}
		fmt.Printf("Enabled schedule '%s'\n", sched.Name)
	} else {
		if err := store.Disable(sched.ID); err != nil {
			return fmt.Errorf("failed to disable schedule: %w", err)
		}
		fmt.Printf("Disabled schedule '%s'\n", sched.Name)
	}

	return nil
}

func scheduleStartCmd() *cobra.Command {
	var (
		checkInterval time.Duration
		logFile       string
		signature     string
	)

	cmd := &cobra.Command{
		Use:   "start",
		Short: "Start the scheduler daemon",
		Long: `Start the scheduler daemon to run scans automatically.

The scheduler will:
- Load all enabled schedules
- Decode their log paths according to their cron expressions
- Save runs, events, and warnings to the database
- Continue running until interrupted

Examples:
  mcadecode schedule start
  mcadecode schedule start --check-interval 30s
  mcadecode schedule start --log scheduler.log`,
		RunE: func(_ *cobra.Command, _ []string) error {
			logger := log.New(os.Stdout, "[scheduler] ", log.LstdFlags)
			if logFile != "" {
				f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644) // #nosec G304 -- logFile is an operator-supplied CLI flag
				if err != nil {
					return fmt.Errorf("failed to open log file: %w", err)
				}
				defer func() { _ = f.Close() }()
				logger = log.New(f, "[scheduler] ", log.LstdFlags)
			}

			database, err := db.Open(getDBPath())
			if err != nil {
				return fmt.Errorf("failed to open database: %w", err)
			}
			defer func() { _ = database.Close() }()

			scanOpts := scan.Options{
				ProcessorSignature: signature,
				DecodeOptions:      mca.DefaultOptions(),
				Logger:             logger,
			}

			runner := schedule.NewRunner(database, scanOpts, logger)
			if err := runner.Start(); err != nil {
				return fmt.Errorf("failed to start scheduler: %w", err)
			}

			sigChan := make(chan os.Signal, 1)
			signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

			ticker := time.NewTicker(checkInterval)
			defer ticker.Stop()

			fmt.Println("Scheduler started. Press Ctrl+C to stop.")
			logger.Println("Scheduler daemon started")

			for {
				select {
				case <-sigChan:
					logger.Println("Received shutdown signal")
					runner.Stop()
					return nil

				case <-ticker.C:
					if err := runner.CheckDue(); err != nil {
						logger.Printf("Error checking due schedules: %v", err)
					}
				}
			}
		},
	}

	cmd.Flags().DurationVar(&checkInterval, "check-interval", 60*time.Second, "Interval to check for overdue schedules")
	cmd.Flags().StringVar(&logFile, "log", "", "Log file path (default: stdout)")
	cmd.Flags().StringVar(&signature, "signature", "", "Processor Signature applied to every scheduled scan")

	return cmd
}

func scheduleShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show [id|name]",
		Short: "Show schedule details",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			database, err := db.Open(getDBPath())
			if err != nil {
				return fmt.Errorf("failed to open database: %w", err)
			}
			defer func() { _ = database.Close() }()

			store := schedule.NewStore(database)

			sched, err := lookupSchedule(store, args[0])
			if err != nil {
				return err
			}

			fmt.Printf("Schedule: %s (ID: %d)\n", sched.Name, sched.ID)
			if sched.Description != "" {
				fmt.Printf("Description: %s\n", sched.Description)
			}
			fmt.Printf("Path: %s\n", sched.Path)
			fmt.Printf("Cron Expression: %s\n", sched.CronExpr)
			fmt.Printf("Enabled: %v\n", sched.Enabled)
			fmt.Printf("Created: %s\n", sched.CreatedAt.Format("2006-01-02 15:04:05"))
			fmt.Printf("Updated: %s\n", sched.UpdatedAt.Format("2006-01-02 15:04:05"))

			if sched.LastRunTime != nil {
				fmt.Printf("\nLast Run: %s\n", sched.LastRunTime.Format("2006-01-02 15:04:05"))
				if sched.LastRunID != nil {
					fmt.Printf("Last Run ID: %d\n", *sched.LastRunID)
				}
			} else {
				fmt.Printf("\nLast Run: Never\n")
			}

			if sched.NextRunTime != nil {
				fmt.Printf("Next Run: %s", sched.NextRunTime.Format("2006-01-02 15:04:05"))
				if sched.IsOverdue() {
					fmt.Printf(" (OVERDUE)")
				}
				fmt.Println()
			}

			return nil
		},
	}
}

func parseInt64(s string) (int64, error) {
	var id int64
	_, err := fmt.Sscanf(s, "%d", &id)
	return id, err
}
