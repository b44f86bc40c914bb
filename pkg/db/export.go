package db

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
)

// ExportCSV exports one run's events to CSV format.
func (db *DB) ExportCSV(w io.Writer, runID int64) error {
	run, err := db.GetRun(runID)
	if err != nil {
		return fmt.Errorf("failed to get run: %w", err)
	}

	events, err := db.ListEvents(EventFilter{RunID: &runID})
	if err != nil {
		return fmt.Errorf("failed to get events: %w", err)
	}

	csvWriter := csv.NewWriter(w)
	defer csvWriter.Flush()

	headers := []string{
		"Run ID", "Source", "Record ID", "Timestamp", "CPU", "Bank",
		"Processor Signature", "Status", "Addr", "Misc", "Valid",
		"UCR Class", "MCA Type", "MCA Code", "Meaning", "Incremental Decoded",
	}
	if err := csvWriter.Write(headers); err != nil {
		return fmt.Errorf("failed to write headers: %w", err)
	}

	for _, ev := range events {
		if err := csvWriter.Write(eventRow(run, ev)); err != nil {
			return fmt.Errorf("failed to write row: %w", err)
		}
	}

	return nil
}

// ExportJSON exports one run, its events, and their warnings to JSON.
func (db *DB) ExportJSON(w io.Writer, runID int64) error {
	run, err := db.GetRun(runID)
	if err != nil {
		return fmt.Errorf("failed to get run: %w", err)
	}

	events, err := db.ListEvents(EventFilter{RunID: &runID})
	if err != nil {
		return fmt.Errorf("failed to get events: %w", err)
	}

	type eventWithWarnings struct {
		*Event
		Warnings []*Warning `json:"warnings,omitempty"`
	}

	exportEvents := make([]eventWithWarnings, 0, len(events))
	for _, ev := range events {
		warnings, err := db.GetWarnings(ev.ID)
		if err != nil {
			return fmt.Errorf("failed to get warnings for event %d: %w", ev.ID, err)
		}
		exportEvents = append(exportEvents, eventWithWarnings{Event: ev, Warnings: warnings})
	}

	export := struct {
		Run    *Run                `json:"run"`
		Events []eventWithWarnings `json:"events"`
	}{
		Run:    run,
		Events: exportEvents,
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(export); err != nil {
		return fmt.Errorf("failed to encode JSON: %w", err)
	}

	return nil
}

// ExportAllCSV exports every run's events to CSV format.
func (db *DB) ExportAllCSV(w io.Writer) error {
	runs, err := db.ListRuns(RunFilter{})
	if err != nil {
		return fmt.Errorf("failed to list runs: %w", err)
	}

	csvWriter := csv.NewWriter(w)
	defer csvWriter.Flush()

	headers := []string{
		"Run ID", "Source", "Record ID", "Timestamp", "CPU", "Bank",
		"Processor Signature", "Status", "Addr", "Misc", "Valid",
		"UCR Class", "MCA Type", "MCA Code", "Meaning", "Incremental Decoded",
	}
	if err := csvWriter.Write(headers); err != nil {
		return fmt.Errorf("failed to write headers: %w", err)
	}

	for _, run := range runs {
		events, err := db.ListEvents(EventFilter{RunID: &run.ID})
		if err != nil {
			return fmt.Errorf("failed to get events for run %d: %w", run.ID, err)
		}

		for _, ev := range events {
			if err := csvWriter.Write(eventRow(run, ev)); err != nil {
				return fmt.Errorf("failed to write row: %w", err)
			}
		}
	}

	return nil
}

func eventRow(run *Run, ev *Event) []string {
	return []string{
		strconv.FormatInt(run.ID, 10),
		run.Source,
		ev.RecordID,
		ev.Timestamp,
		strconv.Itoa(ev.CPU),
		strconv.Itoa(ev.Bank),
		ev.ProcessorSignature,
		ev.Status,
		ev.Addr,
		ev.Misc,
		strconv.FormatBool(ev.Valid),
		ev.UCRClass,
		ev.MCAType,
		ev.MCACode,
		ev.Meaning,
		strconv.FormatBool(ev.IncrementalDecoded),
	}
}
