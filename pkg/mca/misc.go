package mca

import (
	"fmt"

	"github.com/mscrnt/mcadecode/pkg/bitslice"
)

// addressModeNames maps misc[8:6] per spec.md §4.4.7. Only these five
// encodings are defined; every other value is Reserved.
var addressModeNames = map[uint64]string{
	0b000: "Segment Offset",
	0b001: "Linear Address",
	0b010: "Physical Address",
	0b011: "Memory/IO Address",
	0b111: "Generic",
}

// decodeMisc implements the IA32_MCi_MISC decode of spec.md §4.4.7. It only
// runs when Validity.MISCV is set; callers gate the call on that flag.
func decodeMisc(ev *DecodedMcaEvent) {
	mode := bitslice.MustRead64(ev.Misc, 8, 6)
	lsb := uint8(bitslice.MustRead64(ev.Misc, 5, 0))

	if name, ok := addressModeNames[mode]; ok {
		ev.AddressMode = name
	} else {
		ev.AddressMode = fmt.Sprintf("Reserved (%d)", mode)
	}
	ev.RecoverableAddressLSB = &lsb

	if !ev.Validity.ADDRV {
		return
	}

	var valid uint64
	haveValid := false
	if lsb > 0 {
		mask := ^uint64(0)
		if lsb < 64 {
			mask = ^((uint64(1) << lsb) - 1)
		} else {
			mask = 0
		}
		valid = ev.Addr & mask
		ev.AddressValid = &valid
		haveValid = true
	}

	if ev.MCAError == nil || ev.MCAError.Code != "Memory Controller Errors" {
		return
	}

	base := ev.Addr
	if haveValid {
		base = valid
	}
	gib := float64(base) / (1 << 30)
	s := fmt.Sprintf("%.2f", gib)
	ev.AddressGiB = &s
}
