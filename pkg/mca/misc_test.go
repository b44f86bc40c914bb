package mca

import (
	"fmt"
	"testing"
)

func TestDecodeMiscAddressGiBScenario6(t *testing.T) {
	t.Parallel()

	ev := &DecodedMcaEvent{
		Validity: Validity{ADDRV: true},
		Misc:     uint64(2)<<6 | 6, // mode=Physical Address, LSB=6
		Addr:     0x123456789,
		MCAError: &MCAError{Code: "Memory Controller Errors"},
	}
	decodeMisc(ev)

	if ev.AddressMode != "Physical Address" {
		t.Errorf("AddressMode = %q, want Physical Address", ev.AddressMode)
	}
	if ev.RecoverableAddressLSB == nil || *ev.RecoverableAddressLSB != 6 {
		t.Fatalf("RecoverableAddressLSB = %v, want 6", ev.RecoverableAddressLSB)
	}
	want := ev.Addr &^ uint64(0x3F)
	if ev.AddressValid == nil || *ev.AddressValid != want {
		t.Fatalf("AddressValid = %v, want %#x", ev.AddressValid, want)
	}
	if ev.AddressGiB == nil {
		t.Fatal("AddressGiB should be set for Memory Controller Errors")
	}
}

func TestDecodeMiscNoAddressValidWhenLSBZero(t *testing.T) {
	t.Parallel()

	ev := &DecodedMcaEvent{
		Validity: Validity{ADDRV: true},
		Misc:     uint64(2) << 6, // LSB=0
		Addr:     0xdeadbeef,
	}
	decodeMisc(ev)

	if ev.AddressValid != nil {
		t.Error("AddressValid should be nil when LSB=0")
	}
}

func TestDecodeMiscNoGiBForNonMemoryController(t *testing.T) {
	t.Parallel()

	ev := &DecodedMcaEvent{
		Validity: Validity{ADDRV: true},
		Misc:     uint64(2)<<6 | 6,
		Addr:     0x123456789,
		MCAError: &MCAError{Code: "TLB Errors"},
	}
	decodeMisc(ev)

	if ev.AddressGiB != nil {
		t.Error("AddressGiB should only be set for Memory Controller Errors")
	}
}

func TestDecodeMiscGiBFallsBackToAddrWhenLSBZero(t *testing.T) {
	t.Parallel()

	ev := &DecodedMcaEvent{
		Validity: Validity{ADDRV: true},
		Misc:     uint64(2) << 6, // mode=Physical Address, LSB=0
		Addr:     0x123456789,
		MCAError: &MCAError{Code: "Memory Controller Errors"},
	}
	decodeMisc(ev)

	if ev.AddressValid != nil {
		t.Error("AddressValid should stay nil when LSB=0")
	}
	if ev.AddressGiB == nil {
		t.Fatal("AddressGiB should be present iff ADDRV=1 and code is Memory Controller Errors, regardless of LSB")
	}
	want := fmt.Sprintf("%.2f", float64(ev.Addr)/(1<<30))
	if *ev.AddressGiB != want {
		t.Errorf("AddressGiB = %q, want %q (addr/2^30 fallback)", *ev.AddressGiB, want)
	}
}

func TestDecodeMiscNoGiBWithoutADDRV(t *testing.T) {
	t.Parallel()

	ev := &DecodedMcaEvent{
		Validity: Validity{ADDRV: false},
		Misc:     uint64(2)<<6 | 6,
		Addr:     0x123456789,
		MCAError: &MCAError{Code: "Memory Controller Errors"},
	}
	decodeMisc(ev)

	if ev.AddressGiB != nil {
		t.Error("AddressGiB requires ADDRV=1")
	}
}

func TestAddressModeTable(t *testing.T) {
	t.Parallel()

	cases := []struct {
		mode uint64
		want string
	}{
		{0b000, "Segment Offset"},
		{0b001, "Linear Address"},
		{0b010, "Physical Address"},
		{0b011, "Memory/IO Address"},
		{0b100, "Reserved (4)"},
		{0b101, "Reserved (5)"},
		{0b110, "Reserved (6)"},
		{0b111, "Generic"},
	}
	for _, c := range cases {
		ev := &DecodedMcaEvent{Misc: c.mode << 6}
		decodeMisc(ev)
		if ev.AddressMode != c.want {
			t.Errorf("mode=%03b: AddressMode = %q, want %q", c.mode, ev.AddressMode, c.want)
		}
	}
}
