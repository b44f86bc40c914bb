package mca_test

import (
	"fmt"
	"testing"

	"github.com/mscrnt/mcadecode/pkg/mca"
	"github.com/mscrnt/mcadecode/pkg/mcgcap"
)

func TestDecodeStatusNotValid(t *testing.T) {
	t.Parallel()

	ev := mca.Decode(mcgcap.Capability{}, 3, 0x0, 0x0, 0x0, mca.Identity{ID: "1"}, mca.DefaultOptions())

	if ev.Validity.VAL {
		t.Fatal("VAL should be false for status=0")
	}
	if len(ev.Warnings) != 1 || ev.Warnings[0].Category != mca.WarnStatusNotValid {
		t.Fatalf("expected a single status-not-valid warning, got %+v", ev.Warnings)
	}
	if ev.MCAError != nil {
		t.Error("MCAError should be nil when VAL=0")
	}
}

func TestDecodeGenericCacheHierarchyScenario3(t *testing.T) {
	t.Parallel()

	cap := mcgcap.Decode(0x1c09)
	ev := mca.Decode(cap, 3, 0x9020000f0120100e, 0x0, 0x0, mca.Identity{ID: "190", CPU: 1}, mca.DefaultOptions())

	if !ev.Validity.VAL || ev.Validity.OVER || ev.Validity.UC || !ev.Validity.EN ||
		ev.Validity.MISCV || ev.Validity.ADDRV || ev.Validity.PCC {
		t.Fatalf("unexpected validity flags: %+v", ev.Validity)
	}
	if ev.MCAError == nil || ev.MCAError.Code != "Generic Cache Hierarchy" {
		t.Fatalf("MCAError.Code = %+v, want Generic Cache Hierarchy", ev.MCAError)
	}
	if ev.MCAError.Meaning != "Generic Cache Hierarchy / Level 2" {
		t.Errorf("Meaning = %q, want %q", ev.MCAError.Meaning, "Generic Cache Hierarchy / Level 2")
	}
	if ev.MCAError.CorrectionReportFiltering == nil || *ev.MCAError.CorrectionReportFiltering != "corrected" {
		t.Errorf("CorrectionReportFiltering = %v, want \"corrected\"", ev.MCAError.CorrectionReportFiltering)
	}
	if ev.IncrementalDecoded {
		t.Error("IncrementalDecoded should be false without family dispatch")
	}
}

func TestDecodeIOErrorSimpleCode(t *testing.T) {
	t.Parallel()

	status := uint64(1)<<63 | 0x0E0B
	ev := mca.Decode(mcgcap.Capability{}, 0, status, 0, 0, mca.Identity{}, mca.DefaultOptions())

	if ev.MCAError == nil || ev.MCAError.Code != "I/O Error" || ev.MCAError.Type != mca.MCAErrorSimple {
		t.Fatalf("MCAError = %+v, want simple I/O Error", ev.MCAError)
	}
}

func TestDecodeMemoryControllerAddressScenario6(t *testing.T) {
	t.Parallel()

	cap := mcgcap.Decode(0x1000000) // SER_P set (bit 24)

	// status: VAL, EN, MISCV, ADDRV set; low16 selects Memory Controller
	// Errors with MMM=RD(001), CCCC unspecified(1111).
	status := uint64(1)<<63 | uint64(1)<<60 | uint64(1)<<59 | uint64(1)<<58 | 0x009F
	misc := uint64(2)<<6 | 6 // mode=Physical Address, LSB=6
	addr := uint64(0x123456789)

	ev := mca.Decode(cap, 5, status, addr, misc, mca.Identity{}, mca.DefaultOptions())

	if ev.RecoverableAddressLSB == nil || *ev.RecoverableAddressLSB != 6 {
		t.Fatalf("RecoverableAddressLSB = %v, want 6", ev.RecoverableAddressLSB)
	}
	wantValid := addr &^ uint64(0x3F)
	if ev.AddressValid == nil || *ev.AddressValid != wantValid {
		t.Fatalf("AddressValid = %v, want %#x", ev.AddressValid, wantValid)
	}
	if ev.AddressGiB == nil {
		t.Fatal("AddressGiB should be set for a Memory Controller Errors event")
	}
	wantGiB := fmt.Sprintf("%.2f", float64(wantValid)/(1<<30))
	if *ev.AddressGiB != wantGiB {
		t.Errorf("AddressGiB = %q, want %q", *ev.AddressGiB, wantGiB)
	}
	if ev.AddressMode != "Physical Address" {
		t.Errorf("AddressMode = %q, want %q", ev.AddressMode, "Physical Address")
	}
}

func TestDecodeMemoryScrubbingArchitecturalOverride(t *testing.T) {
	t.Parallel()

	cap := mcgcap.Decode(0x1000000) // SER_P set (bit 24)

	// low16: bit7=1, MMM=100(MS), CCCC=0011(3) -> Memory Controller
	// Errors / Memory Scrubbing / channel 3.
	code := uint64(1)<<7 | 0b100<<4 | 3
	status := uint64(1)<<63 | uint64(1)<<61 | uint64(1)<<60 | uint64(1)<<59 | uint64(1)<<58 | code
	misc := uint64(2)<<6 | 6 // mode=Physical Address, LSB=6
	addr := uint64(0x40000000)

	ev := mca.Decode(cap, 9, status, addr, misc, mca.Identity{}, mca.DefaultOptions())

	if ev.MCAError == nil || ev.MCAError.Code != "Memory Controller Errors" {
		t.Fatalf("MCAError = %+v, want Memory Controller Errors", ev.MCAError)
	}
	if ev.UCRClass != mca.UCRSRAO {
		t.Errorf("UCRClass = %q, want SRAO", ev.UCRClass)
	}
	want := "Architecturally Defined SRAO Errors / Memory Scrubbing / 3"
	if ev.MCAError.Meaning != want {
		t.Errorf("Meaning = %q, want %q", ev.MCAError.Meaning, want)
	}
}

func TestDecodeArchitecturalStatusFields(t *testing.T) {
	t.Parallel()

	cap := mcgcap.Decode(uint64(1)<<10 | uint64(1)<<11 | uint64(1)<<24 | uint64(1)<<25) // CMCI_P, TES_P, SER_P, EMC_P

	// UC=0 so threshold status and corrected-error-count both apply.
	status := uint64(1)<<63 | uint64(1)<<53 | uint64(5)<<38 | uint64(1)<<37

	ev := mca.Decode(cap, 2, status, 0, 0, mca.Identity{}, mca.DefaultOptions())

	if ev.ThresholdStatus != "Green" {
		t.Errorf("ThresholdStatus = %q, want Green", ev.ThresholdStatus)
	}
	if ev.CorrectedErrorCount != "5" {
		t.Errorf("CorrectedErrorCount = %q, want 5", ev.CorrectedErrorCount)
	}
	if ev.FirmwareUpdatedErrorStatus == nil || !*ev.FirmwareUpdatedErrorStatus {
		t.Errorf("FirmwareUpdatedErrorStatus = %v, want true", ev.FirmwareUpdatedErrorStatus)
	}
	if len(ev.ReservedOther) != 0 {
		t.Errorf("ReservedOther = %+v, want empty when EMC_P=1", ev.ReservedOther)
	}
}

func TestDecodeCorrectedErrorCountOverflow(t *testing.T) {
	t.Parallel()

	cap := mcgcap.Decode(uint64(1) << 10) // CMCI_P only
	status := uint64(1)<<63 | uint64(1)<<52

	ev := mca.Decode(cap, 2, status, 0, 0, mca.Identity{}, mca.DefaultOptions())

	if ev.CorrectedErrorCount != "Overflow" {
		t.Errorf("CorrectedErrorCount = %q, want Overflow", ev.CorrectedErrorCount)
	}
}

func TestDecodeReservedOtherWithoutEMCP(t *testing.T) {
	t.Parallel()

	status := uint64(1)<<63 | uint64(0x2A)<<32

	ev := mca.Decode(mcgcap.Capability{}, 2, status, 0, 0, mca.Identity{}, mca.DefaultOptions())

	if ev.FirmwareUpdatedErrorStatus != nil {
		t.Error("FirmwareUpdatedErrorStatus should be nil when EMC_P=0")
	}
	if v, ok := ev.ReservedOther.Get("Other Information"); !ok || v != "0x2a" {
		t.Errorf("ReservedOther[Other Information] = %q, ok=%v, want 0x2a", v, ok)
	}
}
