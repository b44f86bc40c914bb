package family

import (
	"fmt"

	"github.com/mscrnt/mcadecode/pkg/bitslice"
	"github.com/mscrnt/mcadecode/pkg/mca"
)

// nehalemMemoryControllerHandler decodes the 06_1AH bank 8 Memory
// Controller record (spec.md §4.4.8): ECC flags, RTId/DIMM/Channel/
// Syndrome pulled from IA32_MCi_MISC, and CORE_ERR_CNT from
// IA32_MCi_STATUS[52:38].
//
// spec.md §9 Design Notes calls out that the source reuses the field name
// pair UECC/CECC at bit 45 of this same record; both keys are emitted here,
// derived from that single bit, reproducing the duplication rather than
// silently resolving it.
type nehalemMemoryControllerHandler struct{}

func (h *nehalemMemoryControllerHandler) Signature() string { return "06_1AH" }
func (h *nehalemMemoryControllerHandler) Banks() []int       { return []int{8} }

func (h *nehalemMemoryControllerHandler) Decode(ev *mca.DecodedMcaEvent, _ mca.Options) {
	ecc := bitslice.MustRead64(ev.Status, 45, 45) == 1
	ev.ModelSpecificErrors.Append("UECC", yesNo(ecc))
	ev.ModelSpecificErrors.Append("CECC", yesNo(ecc))

	coreErrCnt := bitslice.MustRead64(ev.Status, 52, 38)
	ev.ModelSpecificErrors.Append("CORE_ERR_CNT", fmt.Sprintf("%d", coreErrCnt))

	if !ev.Validity.MISCV {
		return
	}
	ev.ModelSpecificErrors.Append("Channel", fmt.Sprintf("%d", bitslice.MustRead64(ev.Misc, 1, 0)))
	ev.ModelSpecificErrors.Append("DIMM", fmt.Sprintf("%d", bitslice.MustRead64(ev.Misc, 3, 2)))
	ev.ModelSpecificErrors.Append("RTId", fmt.Sprintf("%d", bitslice.MustRead64(ev.Misc, 7, 4)))
	ev.ModelSpecificErrors.Append("Syndrome", fmt.Sprintf("%#04x", bitslice.MustRead64(ev.Misc, 31, 16)))
}

// sandyBridgeIMCHandler decodes the 06_2DH banks 8/11 integrated Memory
// Controller record (spec.md §4.4.8): a 7-entry code table, plus
// 1stErrDev/2ndErrDev/FailRank fields that only apply when the caller's
// Options.ErrorControlBit1 (standing in for MSR_ERROR_CONTROL[1]) is set.
type sandyBridgeIMCHandler struct{}

func (h *sandyBridgeIMCHandler) Signature() string { return "06_2DH" }
func (h *sandyBridgeIMCHandler) Banks() []int       { return []int{8, 11} }

var sandyBridgeIMCCodes = numberedCodes("iMC Error", 7)

func (h *sandyBridgeIMCHandler) Decode(ev *mca.DecodedMcaEvent, opts mca.Options) {
	code := mscod(ev.Status)
	name, ok := sandyBridgeIMCCodes[code]
	if !ok {
		ev.Warnings = append(ev.Warnings, mca.Warning{
			Category: mca.WarnModelSpecificNotFound,
			Detail:   fmt.Sprintf("06_2DH bank %d: MSCOD %#04x not in SandyBridge iMC table", ev.Bank, code),
		})
		return
	}
	ev.ModelSpecificErrors.Append("SandyBridge_iMC", name)

	if !opts.ErrorControlBit1 || !ev.Validity.MISCV {
		return
	}
	ev.ModelSpecificErrors.Append("1stErrDev", fmt.Sprintf("%d", bitslice.MustRead64(ev.Misc, 15, 8)))
	ev.ModelSpecificErrors.Append("2ndErrDev", fmt.Sprintf("%d", bitslice.MustRead64(ev.Misc, 23, 16)))
	ev.ModelSpecificErrors.Append("FailRank", fmt.Sprintf("%d", bitslice.MustRead64(ev.Misc, 27, 24)))
}

// skylakeSPHandler covers 06_55H's several distinct bank groups (spec.md
// §4.4.8): bank 4 internal codes plus a secondary Model_Specific_Error2
// code space, banks 5/12/19 interconnect (gated on an exact compound code),
// banks 13-16 iMC, and banks 7/8 M2M/Home Agent.
type skylakeSPHandler struct{}

func (h *skylakeSPHandler) Signature() string { return "06_55H" }

func (h *skylakeSPHandler) Banks() []int {
	return []int{4, 5, 7, 8, 12, 13, 14, 15, 16, 19}
}

var (
	skylakeSPInternalCodes = numberedCodes("Internal Error", 4)
	skylakeSPSecondaryCodes = numberedCodes("Model_Specific_Error2", 40)
	skylakeSPIMCCodes       = numberedCodes("iMC Error", 21)
	skylakeSPM2MHACodes     = numberedCodes("M2M/Home Agent Error", 6)
)

func (h *skylakeSPHandler) Decode(ev *mca.DecodedMcaEvent, _ mca.Options) {
	switch ev.Bank {
	case 4:
		code := mscod(ev.Status)
		if name, ok := skylakeSPInternalCodes[code]; ok {
			ev.ModelSpecificErrors.Append("Internal Error", name)
		}
		code2 := uint16(bitslice.MustRead64(ev.Status, 47, 32))
		if name, ok := skylakeSPSecondaryCodes[code2]; ok {
			ev.ModelSpecificErrors.Append("Model_Specific_Error2", name)
		}
	case 5, 12, 19:
		errCode := uint16(bitslice.MustRead64(ev.Status, 15, 0))
		if errCode == 0x0C0F || errCode == 0x0E0F {
			ev.ModelSpecificErrors.Append("Skylake_Interconnect", fmt.Sprintf("confirmed (%#04x)", errCode))
			return
		}
		ev.Warnings = append(ev.Warnings, mca.Warning{
			Category: mca.WarnModelSpecificNotFound,
			Detail:   fmt.Sprintf("06_55H bank %d: error code %#04x is not the expected 0x0C0F/0x0E0F interconnect signature", ev.Bank, errCode),
		})
	case 13, 14, 15, 16:
		code := mscod(ev.Status)
		if name, ok := skylakeSPIMCCodes[code]; ok {
			ev.ModelSpecificErrors.Append("iMC", name)
		}
	case 7, 8:
		code := mscod(ev.Status)
		if name, ok := skylakeSPM2MHACodes[code]; ok {
			ev.ModelSpecificErrors.Append("M2M/Home Agent", name)
		}
	}
}
