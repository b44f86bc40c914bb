package mcgcap_test

import (
	"testing"

	"github.com/mscrnt/mcadecode/pkg/mcgcap"
)

func TestDecodeScenario1(t *testing.T) {
	t.Parallel()

	c := mcgcap.Decode(0x1c09)

	want := mcgcap.Capability{
		BankCount: 9,
		CmciP:     true,
		TesP:      true,
	}

	if c.BankCount != want.BankCount {
		t.Errorf("BankCount = %d, want %d", c.BankCount, want.BankCount)
	}
	if c.CtlP {
		t.Error("CtlP = true, want false")
	}
	if c.ExtP {
		t.Error("ExtP = true, want false")
	}
	if !c.CmciP {
		t.Error("CmciP = false, want true")
	}
	if !c.TesP {
		t.Error("TesP = false, want true")
	}
	if c.SerP || c.EmcP || c.ElogP || c.LmceP {
		t.Error("expected SerP/EmcP/ElogP/LmceP all false")
	}
	if c.ExtCntValid() {
		t.Error("ExtCntValid() = true, want false when ExtP is unset")
	}
}

func TestDecodeExtCnt(t *testing.T) {
	t.Parallel()

	// ExtP set (bit 9), ExtCnt = 0x2a in bits [23:16].
	mcgCap := uint64(1<<9) | (uint64(0x2a) << 16)
	c := mcgcap.Decode(mcgCap)

	if !c.ExtP {
		t.Fatal("ExtP = false, want true")
	}
	if !c.ExtCntValid() {
		t.Fatal("ExtCntValid() = false, want true")
	}
	if c.ExtCnt != 0x2a {
		t.Errorf("ExtCnt = %#x, want 0x2a", c.ExtCnt)
	}
}

func TestRoundTrip(t *testing.T) {
	t.Parallel()

	inputs := []uint64{0x1c09, 0xfffffff, 0, 1<<9 | 0xff0000, 1 << 27}

	for _, in := range inputs {
		low28 := in & 0xfffffff
		c := mcgcap.Decode(in)
		if got := c.Encode(); got != low28 {
			t.Errorf("Decode(%#x).Encode() = %#x, want %#x", in, got, low28)
		}
	}
}
