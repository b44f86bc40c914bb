package mca

import "testing"

func TestClassifyUCR(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		v    Validity
		serP bool
		want UCRClass
	}{
		{"not classified without SER_P", Validity{VAL: true, UC: true, PCC: true, EN: true}, false, UCRUnclassified},
		{"UC (PCC=1 overrides S/AR)", Validity{VAL: true, UC: true, EN: true, PCC: true, S: true, AR: true}, true, UCRUncorrected},
		{"SRAR", Validity{VAL: true, UC: true, EN: true, S: true, AR: true}, true, UCRSRAR},
		{"SRAO", Validity{VAL: true, UC: true, EN: true, S: true, AR: false}, true, UCRSRAO},
		{"SRAO/UCNA", Validity{VAL: true, UC: true, EN: true}, true, UCRSRAOUCNA},
		{"CE", Validity{VAL: true, UC: false}, true, UCRCorrected},
		{"unclassified pattern", Validity{VAL: true, UC: true, EN: true, AR: true}, true, UCRUnclassified},
	}
	for _, c := range cases {
		got, warn := classifyUCR(c.v, c.serP)
		if got != c.want {
			t.Errorf("%s: got %q, want %q (warn=%v)", c.name, got, c.want, warn)
		}
		if c.want == UCRUnclassified && c.serP && got == UCRUnclassified && warn == nil {
			t.Errorf("%s: expected a warning for an unmatched bit pattern", c.name)
		}
	}
}

func TestApplySRAOverrideMemoryScrubbing(t *testing.T) {
	t.Parallel()

	ev := &DecodedMcaEvent{
		UCRClass:    UCRUnclassified,
		AddressMode: "Physical Address",
		Validity:    Validity{UC: true, MISCV: true, ADDRV: true},
		MCAError: &MCAError{
			Code:    "Memory Controller Errors",
			Meaning: "Memory Controller Errors / MS / channel 3",
			Fields:  Fields{{Name: "MMM", Value: "MS"}, {Name: "CCCC", Value: "3"}},
		},
	}
	applySRAOverride(ev)

	if ev.UCRClass != UCRSRAO {
		t.Errorf("UCRClass = %q, want SRAO", ev.UCRClass)
	}
	want := "Architecturally Defined SRAO Errors / Memory Scrubbing / 3"
	if ev.MCAError.Meaning != want {
		t.Errorf("Meaning = %q, want %q", ev.MCAError.Meaning, want)
	}
	if len(ev.Warnings) != 0 {
		t.Errorf("unexpected warnings %+v", ev.Warnings)
	}
}

func TestApplySRAOverrideL3ExplicitWriteback(t *testing.T) {
	t.Parallel()

	ev := &DecodedMcaEvent{
		AddressMode: "Physical Address",
		Validity:    Validity{UC: true, MISCV: true, ADDRV: true},
		MCAError: &MCAError{
			Code:   "Cache Hierarchy Errors",
			Fields: Fields{{Name: "RRRR", Value: "EVICT"}, {Name: "TT", Value: "G"}, {Name: "LL", Value: "L2"}},
		},
	}
	applySRAOverride(ev)

	if ev.UCRClass != UCRSRAO {
		t.Errorf("UCRClass = %q, want SRAO", ev.UCRClass)
	}
	if ev.MCAError.Meaning != "Architecturally Defined SRAO Errors / L3 Explicit Writeback" {
		t.Errorf("Meaning = %q", ev.MCAError.Meaning)
	}
}

func TestApplySRAOverrideDataLoad(t *testing.T) {
	t.Parallel()

	ev := &DecodedMcaEvent{
		AddressMode: "Physical Address",
		Validity:    Validity{UC: true, EN: true, MISCV: true, ADDRV: true, S: true, AR: true},
		MCAError: &MCAError{
			Code:   "Cache Hierarchy Errors",
			Fields: Fields{{Name: "RRRR", Value: "DRD"}, {Name: "TT", Value: "D"}, {Name: "LL", Value: "L0"}},
		},
	}
	applySRAOverride(ev)

	if ev.UCRClass != UCRSRAR {
		t.Errorf("UCRClass = %q, want SRAR", ev.UCRClass)
	}
	if ev.MCAError.Meaning != "SRAR/Data Load" {
		t.Errorf("Meaning = %q, want SRAR/Data Load", ev.MCAError.Meaning)
	}
}

func TestApplySRAOverrideInstructionFetchWarnsOnWrongAddressMode(t *testing.T) {
	t.Parallel()

	ev := &DecodedMcaEvent{
		AddressMode: "Linear Address",
		Validity:    Validity{UC: true, EN: true, MISCV: true, ADDRV: true, S: true, AR: true},
		MCAError: &MCAError{
			Code:   "Cache Hierarchy Errors",
			Fields: Fields{{Name: "RRRR", Value: "IRD"}, {Name: "TT", Value: "I"}, {Name: "LL", Value: "L0"}},
		},
	}
	applySRAOverride(ev)

	if ev.UCRClass != UCRSRAR {
		t.Errorf("UCRClass = %q, want SRAR despite the address-mode warning", ev.UCRClass)
	}
	if ev.MCAError.Meaning != "SRAR/Instruction Fetch" {
		t.Errorf("Meaning = %q, want SRAR/Instruction Fetch", ev.MCAError.Meaning)
	}
	if len(ev.Warnings) != 1 || ev.Warnings[0].Category != WarnPhysicalAddressExpected {
		t.Errorf("Warnings = %+v, want a physical-address-expected warning", ev.Warnings)
	}
}

func TestApplySRAOverrideNoOpForOrdinaryCode(t *testing.T) {
	t.Parallel()

	ev := &DecodedMcaEvent{
		UCRClass: UCRCorrected,
		Validity: Validity{UC: false},
		MCAError: &MCAError{
			Code:    "TLB Errors",
			Meaning: "TLB Errors / D / Level 0",
			Fields:  Fields{{Name: "TT", Value: "D"}, {Name: "LL", Value: "L0"}},
		},
	}
	applySRAOverride(ev)

	if ev.UCRClass != UCRCorrected || ev.MCAError.Meaning != "TLB Errors / D / Level 0" {
		t.Errorf("expected no-op for an unrelated code, got UCRClass=%q Meaning=%q", ev.UCRClass, ev.MCAError.Meaning)
	}
	if len(ev.Warnings) != 0 {
		t.Errorf("unexpected warnings %+v", ev.Warnings)
	}
}

func TestApplySRAOverrideNilMCAError(t *testing.T) {
	t.Parallel()

	ev := &DecodedMcaEvent{}
	applySRAOverride(ev)

	if ev.UCRClass != UCRUnclassified || len(ev.Warnings) != 0 {
		t.Errorf("expected a pure no-op when MCAError is nil, got %+v", ev)
	}
}
