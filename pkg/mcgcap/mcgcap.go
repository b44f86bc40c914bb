// Package mcgcap decodes the IA32_MCG_CAP model-specific register into the
// capability flags that gate how pkg/mca interprets IA32_MCi_STATUS.
package mcgcap

import "github.com/mscrnt/mcadecode/pkg/bitslice"

// Capability is the decoded IA32_MCG_CAP value.
type Capability struct {
	BankCount uint8
	CtlP      bool
	ExtP      bool
	CmciP     bool
	TesP      bool
	SerP      bool
	EmcP      bool
	ElogP     bool
	LmceP     bool

	// ExtCnt is only meaningful when ExtP is true.
	ExtCnt    uint8
	extCntSet bool

	// reserved holds the bits of [27:0] that no field above covers.
	reserved uint64
}

// ExtCntValid reports whether ExtCnt was present in the source register.
func (c Capability) ExtCntValid() bool {
	return c.extCntSet
}

// Decode reads IA32_MCG_CAP into a Capability. All bits outside the mapped
// fields are reserved and ignored; unknown reserved bits never fail
// decoding. Reserved bits within [27:0] are kept only so Encode can
// reproduce them.
func Decode(mcgCap uint64) Capability {
	c := Capability{
		BankCount: uint8(bitslice.MustRead64(mcgCap, 7, 0)),
		CtlP:      bitslice.Bit64(mcgCap, 8) == 1,
		ExtP:      bitslice.Bit64(mcgCap, 9) == 1,
		CmciP:     bitslice.Bit64(mcgCap, 10) == 1,
		TesP:      bitslice.Bit64(mcgCap, 11) == 1,
		SerP:      bitslice.Bit64(mcgCap, 24) == 1,
		EmcP:      bitslice.Bit64(mcgCap, 25) == 1,
		ElogP:     bitslice.Bit64(mcgCap, 26) == 1,
		LmceP:     bitslice.Bit64(mcgCap, 27) == 1,
	}

	if c.ExtP {
		c.ExtCnt = uint8(bitslice.MustRead64(mcgCap, 23, 16))
		c.extCntSet = true
	}

	mapped := uint64(0x0f000fff)
	if c.ExtP {
		mapped |= 0xff0000
	}
	c.reserved = mcgCap & 0x0fffffff &^ mapped

	return c
}

// Encode reproduces the 28 low bits of the original IA32_MCG_CAP value that
// Decode consumed (bits [27:0]), for round-trip verification. Reserved bits
// above [27:0] are not reproduced since Decode never captured them.
func (c Capability) Encode() uint64 {
	var v uint64
	v |= uint64(c.BankCount) & 0xff
	if c.CtlP {
		v |= 1 << 8
	}
	if c.ExtP {
		v |= 1 << 9
	}
	if c.CmciP {
		v |= 1 << 10
	}
	if c.TesP {
		v |= 1 << 11
	}
	if c.extCntSet {
		v |= uint64(c.ExtCnt) << 16
	}
	if c.SerP {
		v |= 1 << 24
	}
	if c.EmcP {
		v |= 1 << 25
	}
	if c.ElogP {
		v |= 1 << 26
	}
	if c.LmceP {
		v |= 1 << 27
	}
	v |= c.reserved
	return v
}
