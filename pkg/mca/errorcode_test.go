package mca

import "testing"

func TestDecodeMCAErrorCodeSimple(t *testing.T) {
	t.Parallel()

	cases := []struct {
		status uint64
		want   string
	}{
		{0x0000, "No Error"},
		{0x0001, "Unclassified"},
		{0x0400, "Internal Timer Error"},
		{0x0E0B, "I/O Error"},
	}
	for _, c := range cases {
		err, warnings := decodeMCAErrorCode(c.status)
		if err.Code != c.want || err.Type != MCAErrorSimple {
			t.Errorf("status=%#x: Code=%q Type=%q, want %q Simple", c.status, err.Code, err.Type, c.want)
		}
		if len(warnings) != 0 {
			t.Errorf("status=%#x: unexpected warnings %+v", c.status, warnings)
		}
	}
}

func TestDecodeMCAErrorCodeInternalUnclassified(t *testing.T) {
	t.Parallel()

	err, _ := decodeMCAErrorCode(0b000001_0000000001)
	if err.Code != "Internal Unclassified" {
		t.Errorf("Code = %q, want Internal Unclassified", err.Code)
	}
}

func TestDecodeMCAErrorCodeTLB(t *testing.T) {
	t.Parallel()

	// TT=01(I), LL=10(L2): 0000 0000 0001 0110 = 0x0016.
	err, warnings := decodeMCAErrorCode(0x0016)
	if err.Code != "TLB Errors" {
		t.Fatalf("Code = %q, want TLB Errors", err.Code)
	}
	if v, _ := err.Fields.Get("TT"); v != "I" {
		t.Errorf("TT = %q, want I", v)
	}
	if v, _ := err.Fields.Get("LL"); v != "L2" {
		t.Errorf("LL = %q, want L2", v)
	}
	if len(warnings) != 0 {
		t.Errorf("unexpected warnings %+v", warnings)
	}
}

func TestDecodeMCAErrorCodeBusAndInterconnect(t *testing.T) {
	t.Parallel()

	// bit11=1(form), PP=01(RES), T=0, RRRR=0001(RD), II=10(IO), LL=01(L1)
	// = 0000 1010 0001 1001 = 0x0A19 (bits[15:13] stay 000).
	var code uint16
	code |= 1 << 11  // form bit
	code |= 1 << 9   // PP=01
	code |= 0 << 8   // T=0
	code |= 1 << 4   // RRRR=0001 (RD)
	code |= 2 << 2   // II=10 (IO)
	code |= 1 << 0   // LL=01 (L1)

	err, warnings := decodeMCAErrorCode(uint64(code))
	if err.Code != "Bus and Interconnect Errors" {
		t.Fatalf("Code = %q, want Bus and Interconnect Errors (code=%#04x)", err.Code, code)
	}
	if v, _ := err.Fields.Get("PP"); v != "RES" {
		t.Errorf("PP = %q, want RES", v)
	}
	if v, _ := err.Fields.Get("RRRR"); v != "RD" {
		t.Errorf("RRRR = %q, want RD", v)
	}
	if v, _ := err.Fields.Get("II"); v != "IO" {
		t.Errorf("II = %q, want IO", v)
	}
	if len(warnings) != 0 {
		t.Errorf("unexpected warnings %+v", warnings)
	}
}

func TestDecodeMCAErrorCodeUnknown(t *testing.T) {
	t.Parallel()

	// bits[15:13] != 000, not a valid simple or compound form.
	err, warnings := decodeMCAErrorCode(0xF000)
	if err.Type != MCAErrorUnknown {
		t.Errorf("Type = %q, want Unknown", err.Type)
	}
	if len(warnings) != 1 || warnings[0].Category != WarnMCACodeNotIdentified {
		t.Errorf("warnings = %+v, want single MCA-code-not-identified warning", warnings)
	}
}

func TestCorrectionReportFilteringBit(t *testing.T) {
	t.Parallel()

	if v := correctionReportFilteringBit(1 << 12); v != "corrected" {
		t.Errorf("F=1: got %q, want corrected", v)
	}
	if v := correctionReportFilteringBit(0); v != "not corrected" {
		t.Errorf("F=0: got %q, want not corrected", v)
	}
}
