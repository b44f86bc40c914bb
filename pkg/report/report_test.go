package report_test

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/mscrnt/mcadecode/pkg/db"
	"github.com/mscrnt/mcadecode/pkg/mca"
	"github.com/mscrnt/mcadecode/pkg/report"
)

func TestGenerateHTMLGroupsByUCRClass(t *testing.T) {
	d, err := db.Open(filepath.Join(t.TempDir(), "mcadecode.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer func() { _ = d.Close() }()

	run, err := d.CreateRun("manual")
	if err != nil {
		t.Fatalf("CreateRun: %v", err)
	}

	corrected := mca.DecodedMcaEvent{
		Identity: mca.Identity{ID: "1", CPU: 0},
		Bank:     3,
		Status:   0x9020000f0120100e,
		Validity: mca.Validity{VAL: true, EN: true},
		MCAError: &mca.MCAError{Type: mca.MCAErrorCompound, Code: "Generic Cache Hierarchy", Meaning: "Generic Cache Hierarchy / Level 2"},
		UCRClass: mca.UCRCorrected,
	}
	ev, warnings := db.NewEvent(run.ID, "06_1AH", corrected)
	if _, err := d.CreateEvent(ev, warnings); err != nil {
		t.Fatalf("CreateEvent: %v", err)
	}

	run.EventCount = 1
	if err := d.UpdateRun(run); err != nil {
		t.Fatalf("UpdateRun: %v", err)
	}

	gen := report.NewGenerator(d)
	html, err := gen.GenerateHTML(run.ID)
	if err != nil {
		t.Fatalf("GenerateHTML: %v", err)
	}

	if !strings.Contains(html, "Corrected") {
		t.Error("expected report to contain a Corrected event group")
	}
	if !strings.Contains(html, "Generic Cache Hierarchy") {
		t.Error("expected report to contain the decoded MCA code")
	}
}
