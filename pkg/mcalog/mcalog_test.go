package mcalog_test

import (
	"testing"

	"github.com/mscrnt/mcadecode/pkg/mcalog"
)

func TestParseLineScenario3(t *testing.T) {
	t.Parallel()

	line := `2017-07-07T18:25:27.441Z cpu2:36681)MCE: 190: cpu1: bank3: status=0x9020000f0120100e: ..., Addr:0x0 (invalid), Misc:0x0 (invalid)`

	got, err := mcalog.ParseLine(line)
	if err != nil {
		t.Fatalf("ParseLine: %v", err)
	}

	want := mcalog.Line{
		Timestamp: "2017-07-07T18:25:27.441Z",
		RecordID:  "190",
		CPU:       1,
		Bank:      3,
		Status:    0x9020000f0120100e,
		Addr:      0x0,
		Misc:      0x0,
	}
	if got != want {
		t.Errorf("ParseLine = %+v, want %+v", got, want)
	}
}

func TestParseLineNoMatch(t *testing.T) {
	t.Parallel()

	_, err := mcalog.ParseLine("this is not an MCE line at all")
	if err != mcalog.ErrNoMatch {
		t.Errorf("err = %v, want ErrNoMatch", err)
	}
}

func TestParseMCGCap(t *testing.T) {
	t.Parallel()

	v, ok := mcalog.ParseMCGCap("Detected 9 MCE banks. MCG_CAP MSR:0x1c09")
	if !ok || v != 0x1c09 {
		t.Errorf("ParseMCGCap = %#x, %v, want 0x1c09, true", v, ok)
	}

	_, ok = mcalog.ParseMCGCap("unrelated line")
	if ok {
		t.Error("expected ok=false for a non-matching line")
	}
}
