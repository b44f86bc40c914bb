package db

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// Run represents one decode scan: a single invocation of the decoder over
// a log file, a directory watch session, or an interactive one-off decode.
type Run struct {
	ID           int64      `json:"id"`
	Source       string     `json:"source"` // file path, "watch:<dir>", or "manual"
	StartTime    time.Time  `json:"start_time"`
	EndTime      *time.Time `json:"end_time"`
	EventCount   int        `json:"event_count"`
	WarningCount int        `json:"warning_count"`
	Error        string     `json:"error,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// Event represents one persisted DecodedMcaEvent (pkg/mca).
type Event struct {
	ID                 int64     `json:"id"`
	RunID              int64     `json:"run_id"`
	RecordID           string    `json:"record_id"`
	Timestamp          string    `json:"timestamp"`
	CPU                int       `json:"cpu"`
	Bank               int       `json:"bank"`
	ProcessorSignature string    `json:"processor_signature"`
	Status             string    `json:"status"` // hex, e.g. "0x9020000f0120100e"
	Addr               string    `json:"addr"`
	Misc               string    `json:"misc"`
	Valid              bool      `json:"valid"`
	UCRClass           string    `json:"ucr_class"`
	MCAType            string    `json:"mca_type,omitempty"`
	MCACode            string    `json:"mca_code,omitempty"`
	Meaning            string    `json:"meaning,omitempty"`
	IncrementalDecoded bool      `json:"incremental_decoded"`
	ModelSpecific      JSONData  `json:"model_specific,omitempty"`
	ReservedOther      JSONData  `json:"reserved_other,omitempty"`
	CreatedAt          time.Time `json:"created_at"`
}

// Warning represents one diagnostic attached to an Event.
type Warning struct {
	ID        int64     `json:"id"`
	EventID   int64     `json:"event_id"`
	Category  string    `json:"category"`
	Detail    string    `json:"detail"`
	CreatedAt time.Time `json:"created_at"`
}

// JSONData is a custom type for storing arbitrary JSON in SQLite.
type JSONData map[string]interface{}

// Value implements the driver.Valuer interface.
func (j JSONData) Value() (driver.Value, error) {
	if j == nil {
		return nil, nil
	}
	return json.Marshal(j)
}

// Scan implements the sql.Scanner interface.
func (j *JSONData) Scan(value interface{}) error {
	if value == nil {
		*j = nil
		return nil
	}

	var data []byte
	switch v := value.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("cannot scan type %T into JSONData", value)
	}

	return json.Unmarshal(data, j)
}

// Duration returns the wall-clock duration of the run, or 0 if it hasn't
// finished.
func (r *Run) Duration() time.Duration {
	if r.EndTime == nil {
		return 0
	}
	return r.EndTime.Sub(r.StartTime)
}

// RunFilter represents filters for querying runs.
type RunFilter struct {
	Source    string
	StartTime *time.Time
	EndTime   *time.Time
	Limit     int
	Offset    int
}

// EventFilter represents filters for querying events.
type EventFilter struct {
	RunID    *int64
	UCRClass string
	Limit    int
	Offset   int
}

// ExportFormat represents the format for exporting data.
type ExportFormat string

const (
	ExportFormatCSV  ExportFormat = "csv"
	ExportFormatJSON ExportFormat = "json"
)
