package db

import (
	"fmt"

	"github.com/mscrnt/mcadecode/pkg/mca"
)

// fieldsToJSON converts an ordered mca.Fields slice into JSONData. Field
// ordering and any duplicate names (e.g. the UECC/CECC pair emitted by the
// Nehalem memory-controller handler) collapse into a single map key on
// this conversion, since JSONData is a plain map; ExportJSON's Fields-typed
// callers should read the original DecodedMcaEvent when order or
// duplication matters. Storage in SQLite deliberately trades one of these
// for queryability by name.
func fieldsToJSON(fields mca.Fields) JSONData {
	if len(fields) == 0 {
		return nil
	}
	out := make(JSONData, len(fields))
	for _, f := range fields {
		out[f.Name] = f.Value
	}
	return out
}

// NewEvent converts a decoded MCA event into its persisted form, along with
// its warnings ready for CreateEvent. Only Category and Detail are set on
// each Warning; the rest are filled in by CreateEvent/GetWarnings.
func NewEvent(runID int64, processorSignature string, ev mca.DecodedMcaEvent) (*Event, []Warning) {
	out := &Event{
		RunID:              runID,
		RecordID:           ev.ID,
		Timestamp:          ev.Timestamp,
		CPU:                ev.CPU,
		Bank:               ev.Bank,
		ProcessorSignature: processorSignature,
		Status:             fmt.Sprintf("%#016x", ev.Status),
		Addr:               fmt.Sprintf("%#016x", ev.Addr),
		Misc:               fmt.Sprintf("%#016x", ev.Misc),
		Valid:              ev.Validity.VAL,
		UCRClass:           string(ev.UCRClass),
		IncrementalDecoded: ev.IncrementalDecoded,
		ModelSpecific:      fieldsToJSON(ev.ModelSpecificErrors),
		ReservedOther:      fieldsToJSON(ev.ReservedOther),
	}

	if ev.MCAError != nil {
		out.MCAType = string(ev.MCAError.Type)
		out.MCACode = ev.MCAError.Code
		out.Meaning = ev.MCAError.Meaning
	}

	warnings := make([]Warning, 0, len(ev.Warnings))
	for _, w := range ev.Warnings {
		warnings = append(warnings, Warning{Category: string(w.Category), Detail: w.Detail})
	}

	return out, warnings
}
