package main

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/mscrnt/mcadecode/pkg/db"
	"github.com/mscrnt/mcadecode/pkg/mca"
	"github.com/mscrnt/mcadecode/pkg/mca/family"
	"github.com/mscrnt/mcadecode/pkg/mcalog"
	"github.com/mscrnt/mcadecode/pkg/mcgcap"
	"github.com/mscrnt/mcadecode/pkg/watch"
	"github.com/spf13/cobra"
)

func watchCmd() *cobra.Command {
	var (
		signature string
		mcgCapHex string
		logFile   string
	)

	cmd := &cobra.Command{
		Use:   "watch [directory]",
		Short: "Watch a directory for new MCE records",
		Long: `Watch tails every log file in a directory, decoding and
persisting new MCE records as they're appended. It runs until interrupted.

Since IA32_MCG_CAP is not re-derived per appended line, pass --mcg-cap
once at startup if the watched logs don't carry their own MCG_CAP line.

Examples:
  mcadecode watch /var/log --signature 06_55H
  mcadecode watch /var/log --mcg-cap 0x1c09`,
		Args: cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			dir := args[0]

			var cap mcgcap.Capability
			if mcgCapHex != "" {
				raw, err := strconv.ParseUint(mcgCapHex, 0, 64)
				if err != nil {
					return fmt.Errorf("invalid --mcg-cap value %q: %w", mcgCapHex, err)
				}
				cap = mcgcap.Decode(raw)
			}

			logger := log.New(os.Stdout, "[watch] ", log.LstdFlags)
			if logFile != "" {
				f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644) // #nosec G304 -- logFile is an operator-supplied CLI flag
				if err != nil {
					return fmt.Errorf("failed to open log file: %w", err)
				}
				defer func() { _ = f.Close() }()
				logger = log.New(f, "[watch] ", log.LstdFlags)
			}

			database, err := db.Open(getDBPath())
			if err != nil {
				return fmt.Errorf("failed to open database: %w", err)
			}
			defer func() { _ = database.Close() }()

			run, err := database.CreateRun("watch:" + dir)
			if err != nil {
				return fmt.Errorf("failed to create run: %w", err)
			}

			eventCount, warningCount := 0, 0
			handler := func(path string, parsed mcalog.Line) {
				identity := mca.Identity{ID: parsed.RecordID, Timestamp: parsed.Timestamp, CPU: parsed.CPU}
				decoded := mca.Decode(cap, parsed.Bank, parsed.Status, parsed.Addr, parsed.Misc, identity, mca.DefaultOptions())
				if signature != "" {
					family.Dispatch(signature, &decoded, mca.DefaultOptions())
				}

				ev, warnings := db.NewEvent(run.ID, signature, decoded)
				if _, err := database.CreateEvent(ev, warnings); err != nil {
					logger.Printf("failed to persist event from %s: %v", path, err)
					return
				}
				eventCount++
				warningCount += len(warnings)
				code := "invalid"
				if decoded.MCAError != nil {
					code = decoded.MCAError.Code
				}
				fmt.Printf("%s bank%d %s %s\n", path, decoded.Bank, decoded.UCRClass, code)
			}

			w, err := watch.New(dir, handler, logger)
			if err != nil {
				return fmt.Errorf("failed to create watcher: %w", err)
			}

			if err := w.Start(); err != nil {
				return fmt.Errorf("failed to start watcher: %w", err)
			}

			sigChan := make(chan os.Signal, 1)
			signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

			fmt.Printf("Watching %s (run #%d). Press Ctrl+C to stop.\n", dir, run.ID)
			<-sigChan

			w.Stop()

			end := time.Now()
			run.EndTime = &end
			run.EventCount = eventCount
			run.WarningCount = warningCount
			if err := database.UpdateRun(run); err != nil {
				return fmt.Errorf("failed to finalize run: %w", err)
			}

			fmt.Printf("\nStopped. Run #%d: %d event(s), %d warning(s)\n", run.ID, eventCount, warningCount)
			return nil
		},
	}

	cmd.Flags().StringVar(&signature, "signature", "", "Processor Signature in FF_MMH form (e.g. 06_55H), enables family-specific enrichment")
	cmd.Flags().StringVar(&mcgCapHex, "mcg-cap", "", "IA32_MCG_CAP value in hex, applied to every record seen this session")
	cmd.Flags().StringVar(&logFile, "log", "", "Log file path for watcher diagnostics (default: stdout)")

	return cmd
}
