package mca

import (
	"fmt"

	"github.com/mscrnt/mcadecode/pkg/bitslice"
	"github.com/mscrnt/mcadecode/pkg/mcgcap"
)

// Decode implements the generic, family-agnostic MCEDecoder pipeline of
// spec.md §4.4: the validity gate, architectural status fields, the MCA
// error-code grammar, UCR classification, the SRAO/SRAR architectural
// override, and the IA32_MCi_MISC decode. Family-specific incremental
// decoding (spec.md §4.4.8) is layered on top by pkg/mca/family: callers
// run Decode first and then pass the result to family.Dispatch, which
// enriches it in place.
func Decode(cap mcgcap.Capability, bank int, status, addr, misc uint64, identity Identity, opts Options) DecodedMcaEvent {
	ev := DecodedMcaEvent{
		Identity: identity,
		Bank:     bank,
		Status:   status,
		Addr:     addr,
		Misc:     misc,
	}

	ev.Validity = Validity{
		VAL:   bitslice.MustRead64(status, 63, 63) == 1,
		OVER:  bitslice.MustRead64(status, 62, 62) == 1,
		UC:    bitslice.MustRead64(status, 61, 61) == 1,
		EN:    bitslice.MustRead64(status, 60, 60) == 1,
		MISCV: bitslice.MustRead64(status, 59, 59) == 1,
		ADDRV: bitslice.MustRead64(status, 58, 58) == 1,
		PCC:   bitslice.MustRead64(status, 57, 57) == 1,
	}

	if !ev.Validity.VAL {
		ev.Warnings = append(ev.Warnings, Warning{
			Category: WarnStatusNotValid,
			Detail:   "IA32_MCi_STATUS.VAL is 0; register contents are not meaningful",
		})
		return ev
	}

	applyArchitecturalStatusFields(&ev, cap, status)

	mcaErr, warnings := decodeMCAErrorCode(status)
	ev.MCAError = mcaErr
	ev.Warnings = append(ev.Warnings, warnings...)

	ucr, ucrWarn := classifyUCR(ev.Validity, cap.SerP)
	ev.UCRClass = ucr
	if ucrWarn != nil {
		ev.Warnings = append(ev.Warnings, *ucrWarn)
	}

	// MISC must be decoded (it sets AddressMode) before the SRAO/SRAR
	// override, which checks AddressMode against Physical Address.
	if ev.Validity.MISCV {
		decodeMisc(&ev)
	}

	applySRAOverride(&ev)

	// The F bit (Correction Report Filtering) only applies to a Compound
	// code with UC=0 that was not already reclassified by the SRAR/SRAO
	// architectural override (spec.md §4.4.5, §4.4.6).
	if ev.MCAError != nil && ev.MCAError.Type == MCAErrorCompound && !ev.Validity.UC &&
		ev.UCRClass != UCRSRAR && ev.UCRClass != UCRSRAO {
		f := correctionReportFilteringBit(status)
		ev.MCAError.CorrectionReportFiltering = &f
	}

	_ = opts // reserved for family handlers layered on top of this decode

	return ev
}

// applyArchitecturalStatusFields implements spec.md §4.4.3: the status
// fields whose presence and meaning depend on IA32_MCG_CAP rather than
// being unconditionally architectural.
func applyArchitecturalStatusFields(ev *DecodedMcaEvent, cap mcgcap.Capability, status uint64) {
	if cap.TesP {
		if cap.SerP {
			ev.Validity.S = bitslice.MustRead64(status, 56, 56) == 1
			ev.Validity.AR = bitslice.MustRead64(status, 55, 55) == 1
		}
		if !ev.Validity.UC {
			ev.ThresholdStatus = thresholdStatusName(bitslice.MustRead64(status, 54, 53))
		}
	}

	if cap.CmciP && !ev.Validity.UC {
		if bitslice.MustRead64(status, 52, 52) == 0 {
			ev.CorrectedErrorCount = fmt.Sprintf("%d", bitslice.MustRead64(status, 51, 38))
		} else {
			ev.CorrectedErrorCount = "Overflow"
		}
	}

	if cap.EmcP {
		fw := bitslice.MustRead64(status, 37, 37) == 1
		ev.FirmwareUpdatedErrorStatus = &fw
	} else {
		other := bitslice.MustRead64(status, 37, 32)
		ev.ReservedOther.Set("Other Information", fmt.Sprintf("%#02x", other))
	}
}

// thresholdStatusName maps status[54:53] per spec.md §4.4.3.
func thresholdStatusName(bits uint64) string {
	switch bits {
	case 0b00:
		return "No tracking"
	case 0b01:
		return "Green"
	case 0b10:
		return "Yellow"
	default:
		return "Reserved"
	}
}
