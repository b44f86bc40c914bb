// Package scan ties together pkg/mcalog, pkg/mca, pkg/mca/family, and
// pkg/db: given a log file, it parses every MCE record, decodes it, and
// persists the run as one unit of work. It is the shared engine behind the
// decode CLI subcommand and the cron-scheduled recurring scan; the watch
// subcommand decodes and persists each line itself.
package scan

import (
	"bufio"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/mscrnt/mcadecode/pkg/db"
	"github.com/mscrnt/mcadecode/pkg/mca"
	"github.com/mscrnt/mcadecode/pkg/mca/family"
	"github.com/mscrnt/mcadecode/pkg/mcalog"
	"github.com/mscrnt/mcadecode/pkg/mcgcap"
)

// Options configures how File decodes each record it finds.
type Options struct {
	// Capability is used until a "MCG_CAP MSR:" line is seen in the log,
	// at which point it is replaced by the value decoded from that line.
	Capability mcgcap.Capability
	// ProcessorSignature selects the family.Dispatch handler, in the
	// "FF_MMH" form (e.g. "06_1AH"). Empty disables family enrichment.
	ProcessorSignature string
	DecodeOptions       mca.Options
	// Logger receives per-event persistence failures. Defaults to
	// log.Default() when nil.
	Logger *log.Logger
}

// File decodes every MCE record in path, persisting a Run, its Events, and
// their Warnings to database under the given source label.
func File(database *db.DB, source, path string, opts Options) (*db.Run, error) {
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}

	run, err := database.CreateRun(source)
	if err != nil {
		return nil, fmt.Errorf("scan: create run: %w", err)
	}

	eventCount, warningCount, scanErr := scanFile(database, run.ID, path, opts)

	end := time.Now()
	run.EndTime = &end
	run.EventCount = eventCount
	run.WarningCount = warningCount
	if scanErr != nil {
		run.Error = scanErr.Error()
	}
	if err := database.UpdateRun(run); err != nil {
		return run, fmt.Errorf("scan: update run: %w", err)
	}

	return run, scanErr
}

func scanFile(database *db.DB, runID int64, path string, opts Options) (eventCount, warningCount int, err error) {
	f, err := os.Open(path) // #nosec G304 -- path is operator-supplied via CLI flag or schedule config
	if err != nil {
		return 0, 0, fmt.Errorf("scan: open %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	cap := opts.Capability
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Text()

		if raw, ok := mcalog.ParseMCGCap(line); ok {
			cap = mcgcap.Decode(raw)
			continue
		}

		parsed, err := mcalog.ParseLine(line)
		if err != nil {
			continue
		}

		n, w := decodeAndStore(database, runID, cap, parsed, opts)
		eventCount += n
		warningCount += w
	}

	if err := scanner.Err(); err != nil {
		return eventCount, warningCount, fmt.Errorf("scan: read %s: %w", path, err)
	}

	return eventCount, warningCount, nil
}

func decodeAndStore(database *db.DB, runID int64, cap mcgcap.Capability, parsed mcalog.Line, opts Options) (eventCount, warningCount int) {
	identity := mca.Identity{ID: parsed.RecordID, Timestamp: parsed.Timestamp, CPU: parsed.CPU}
	decoded := mca.Decode(cap, parsed.Bank, parsed.Status, parsed.Addr, parsed.Misc, identity, opts.DecodeOptions)

	if opts.ProcessorSignature != "" {
		family.Dispatch(opts.ProcessorSignature, &decoded, opts.DecodeOptions)
	}

	ev, warnings := db.NewEvent(runID, opts.ProcessorSignature, decoded)
	if _, err := database.CreateEvent(ev, warnings); err != nil {
		opts.Logger.Printf("scan: record %s: failed to persist event: %v", parsed.RecordID, err)
		return 0, 0
	}

	return 1, len(warnings)
}
