package mca

import (
	"fmt"

	"github.com/mscrnt/mcadecode/pkg/bitslice"
)

// simpleCodes is the exact 16-bit match table of spec.md §4.4.5.
var simpleCodes = map[uint16]string{
	0x0000: "No Error",
	0x0001: "Unclassified",
	0x0002: "Microcode ROM Parity Error",
	0x0003: "External Error",
	0x0004: "FRC Error",
	0x0005: "Internal Parity Error",
	0x0006: "SMM Handler Code Access Violation",
	0x0400: "Internal Timer Error",
	0x0E0B: "I/O Error",
}

// ttNames, llNames, mmmNames, rrrrNames, ppNames, tNames, iiNames enumerate
// the compound-code sub-fields of spec.md §4.4.5/GLOSSARY.
var (
	ttNames   = []string{"D", "I", "G", ""}
	llNames   = []string{"L0", "L1", "L2", "LG"}
	mmmNames  = []string{"GEN", "RD", "WR", "AC", "MS", "RSVD", "RSVD", "RSVD"}
	rrrrNames = []string{"ERR", "RD", "WR", "DRD", "DWR", "IRD", "PREFETCH", "EVICT", "SNOOP"}
	ppNames   = []string{"SRC", "RES", "OBS", "GEN"}
	tNames    = []string{"NOTIMEOUT", "TIMEOUT"}
	iiNames   = []string{"M", "RSVD", "IO", "OTR"}
)

func lookupOrWarn(names []string, idx uint32, warnCat WarningCategory, fieldName string) (string, *Warning) {
	if int(idx) < len(names) && names[idx] != "" {
		return names[idx], nil
	}
	return "", &Warning{
		Category: warnCat,
		Detail:   fmt.Sprintf("%s value %d not recognized", fieldName, idx),
	}
}

// decodeMCAErrorCode decodes status[15:0] per the simple and compound
// grammars of spec.md §4.4.5. It never fails outright: an unrecognized
// 16-bit value produces an MCAError of type Unknown plus a warning, per
// the fatal-tier rule of spec.md §7 (unrecognized top-level MCA error code
// stops family-specific decoding but the generic record is still emitted).
func decodeMCAErrorCode(status uint64) (*MCAError, []Warning) {
	code := uint16(bitslice.MustRead64(status, 15, 0))

	if name, ok := simpleCodes[code]; ok {
		return &MCAError{Type: MCAErrorSimple, Code: name, Meaning: name}, nil
	}

	// Internal Unclassified: 000001xxxxxxxxxx with at least one 1 in [9:0].
	if code>>10 == 0b000001 && code&0x3FF != 0 {
		return &MCAError{Type: MCAErrorSimple, Code: "Internal Unclassified", Meaning: "Internal Unclassified"}, nil
	}

	if mca, warnings := decodeCompoundCode(code); mca != nil {
		return mca, warnings
	}

	return &MCAError{Type: MCAErrorUnknown, Code: "Unknown"},
		[]Warning{{Category: WarnMCACodeNotIdentified, Detail: fmt.Sprintf("status[15:0]=%#04x", code)}}
}

func decodeCompoundCode(code uint16) (*MCAError, []Warning) {
	var warnings []Warning

	// All compound forms share bits[15:13]=000; bit12 is the F (Correction
	// Report Filtering) flag and is excluded from every fixed-bit match.
	if code>>13 != 0b000 {
		return nil, nil
	}

	c := uint32(code)

	switch {
	case c&0x0FFC == 0x000C: // bits[11:4]=00000000, bits[3:2]=11 -> Generic Cache Hierarchy
		ll := bitslice.MustRead32(c, 1, 0)
		name, w := lookupOrWarn(llNames, ll, WarnMCACodeNotIdentified, "LL")
		fields := Fields{{Name: "LL", Value: name}}
		if w != nil {
			warnings = append(warnings, *w)
		}
		return &MCAError{
			Type:    MCAErrorCompound,
			Code:    "Generic Cache Hierarchy",
			Fields:  fields,
			Meaning: fmt.Sprintf("Generic Cache Hierarchy / Level %s", levelMeaning(name)),
		}, warnings

	case c&0x0FF0 == 0x0010: // bits[11:4]=00000001 -> TLB Errors
		tt := bitslice.MustRead32(c, 3, 2)
		ll := bitslice.MustRead32(c, 1, 0)
		ttName, w1 := lookupOrWarn(ttNames, tt, WarnTransactionTypeNotFound, "TT")
		llName, w2 := lookupOrWarn(llNames, ll, WarnMCACodeNotIdentified, "LL")
		if w1 != nil {
			warnings = append(warnings, *w1)
		}
		if w2 != nil {
			warnings = append(warnings, *w2)
		}
		return &MCAError{
			Type:    MCAErrorCompound,
			Code:    "TLB Errors",
			Fields:  Fields{{Name: "TT", Value: ttName}, {Name: "LL", Value: llName}},
			Meaning: fmt.Sprintf("TLB Errors / %s / Level %s", ttName, levelMeaning(llName)),
		}, warnings

	case c&0x0F80 == 0x0080: // bits[11:7]=00001 -> Memory Controller Errors
		mmm := bitslice.MustRead32(c, 6, 4)
		cccc := bitslice.MustRead32(c, 3, 0)
		mmmName, w := lookupOrWarn(mmmNames, mmm, WarnMCACodeNotIdentified, "MMM")
		if w != nil {
			warnings = append(warnings, *w)
		}
		channel := "not specified"
		if cccc != 15 {
			channel = fmt.Sprintf("%d", cccc)
		}
		return &MCAError{
			Type:   MCAErrorCompound,
			Code:   "Memory Controller Errors",
			Fields: Fields{{Name: "MMM", Value: mmmName}, {Name: "CCCC", Value: fmt.Sprintf("%d", cccc)}},
			Meaning: fmt.Sprintf("Memory Controller Errors / %s / channel %s",
				mmmName, channel),
		}, warnings

	case c&0x0F00 == 0x0100: // bits[11:8]=0001 -> Cache Hierarchy Errors
		rrrr := bitslice.MustRead32(c, 7, 4)
		tt := bitslice.MustRead32(c, 3, 2)
		ll := bitslice.MustRead32(c, 1, 0)
		rName, w1 := lookupOrWarn(rrrrNames, rrrr, WarnRequestNotIdentified, "RRRR")
		ttName, w2 := lookupOrWarn(ttNames, tt, WarnTransactionTypeNotFound, "TT")
		llName, w3 := lookupOrWarn(llNames, ll, WarnMCACodeNotIdentified, "LL")
		for _, w := range []*Warning{w1, w2, w3} {
			if w != nil {
				warnings = append(warnings, *w)
			}
		}
		return &MCAError{
			Type: MCAErrorCompound,
			Code: "Cache Hierarchy Errors",
			Fields: Fields{
				{Name: "RRRR", Value: rName},
				{Name: "TT", Value: ttName},
				{Name: "LL", Value: llName},
			},
			Meaning: fmt.Sprintf("Cache Hierarchy Errors / %s / %s / Level %s", rName, ttName, levelMeaning(llName)),
		}, warnings

	case c&0x0800 == 0x0800: // bit[11]=1 -> Bus and Interconnect Errors
		pp := bitslice.MustRead32(c, 10, 9)
		tt := bitslice.MustRead32(c, 8, 8)
		rrrr := bitslice.MustRead32(c, 7, 4)
		ii := bitslice.MustRead32(c, 3, 2)
		ll := bitslice.MustRead32(c, 1, 0)

		ppName, w1 := lookupOrWarn(ppNames, pp, WarnMCACodeNotIdentified, "PP")
		tName, w2 := lookupOrWarn(tNames, tt, WarnMCACodeNotIdentified, "T")
		rName, w3 := lookupOrWarn(rrrrNames, rrrr, WarnRequestNotIdentified, "RRRR")
		iiName, w4 := lookupOrWarn(iiNames, ii, WarnMCACodeNotIdentified, "II")
		llName, w5 := lookupOrWarn(llNames, ll, WarnMCACodeNotIdentified, "LL")
		for _, w := range []*Warning{w1, w2, w3, w4, w5} {
			if w != nil {
				warnings = append(warnings, *w)
			}
		}
		return &MCAError{
			Type: MCAErrorCompound,
			Code: "Bus and Interconnect Errors",
			Fields: Fields{
				{Name: "PP", Value: ppName},
				{Name: "T", Value: tName},
				{Name: "RRRR", Value: rName},
				{Name: "II", Value: iiName},
				{Name: "LL", Value: llName},
			},
			Meaning: fmt.Sprintf("Bus and Interconnect Errors / %s / %s / %s / %s / Level %s",
				ppName, tName, rName, iiName, levelMeaning(llName)),
		}, warnings
	}

	return nil, nil
}

func levelMeaning(ll string) string {
	switch ll {
	case "L0":
		return "0"
	case "L1":
		return "1"
	case "L2":
		return "2"
	case "LG":
		return "Generic"
	default:
		return ll
	}
}

// correctionReportFilteringBit extracts bit 12 of the 16-bit MCA error code
// as "corrected" (1) or "not corrected" (0). Only meaningful for Compound
// codes with UC=0 that are not an architectural SRAR/SRAO override — the F
// bit is ignored otherwise (spec.md §4.4.5); callers must check that
// exclusion themselves and only call this when it does not apply.
func correctionReportFilteringBit(status uint64) string {
	f := bitslice.MustRead64(status, 12, 12)
	if f == 1 {
		return "corrected"
	}
	return "not corrected"
}
