package mca

import "fmt"

// classifyUCR implements the literal 5-bit UC|EN|PCC|S|AR bit-pattern
// table of spec.md §4.4.4. S and AR only carry architectural meaning
// once TesP&&SerP gated them in Decode; when that gate didn't fire they
// read as false, which is exactly the "." wildcard position the table
// never distinguishes from an explicit 0 anyway.
func classifyUCR(v Validity, serP bool) (UCRClass, *Warning) {
	if !serP || !v.VAL {
		return UCRUnclassified, nil
	}

	var code uint8
	if v.UC {
		code |= 0b10000
	}
	if v.EN {
		code |= 0b01000
	}
	if v.PCC {
		code |= 0b00100
	}
	if v.S {
		code |= 0b00010
	}
	if v.AR {
		code |= 0b00001
	}

	switch {
	case code&0b11100 == 0b11100: // 111..
		return UCRUncorrected, nil
	case code == 0b11011:
		return UCRSRAR, nil
	case code == 0b11010:
		return UCRSRAO, nil
	case code&0b10111 == 0b10000: // 1.000
		return UCRSRAOUCNA, nil
	case code&0b10000 == 0: // 0....
		return UCRCorrected, nil
	}

	return UCRUnclassified, &Warning{
		Category: WarnUCRNotIdentified,
		Detail:   fmt.Sprintf("UC|EN|PCC|S|AR=%05b did not match any UCR classification", code),
	}
}

// applySRAOverride implements the four literal per-code architectural
// overrides of spec.md §4.4.6. Each one both reclassifies UCRClass and
// rewrites MCAError.Meaning; none of them apply outside the exact
// validity/sub-field pattern given, so an event that merely resembles
// one (e.g. any other Memory Controller Errors event) is left alone.
func applySRAOverride(ev *DecodedMcaEvent) {
	if ev.MCAError == nil {
		return
	}

	v := ev.Validity

	switch ev.MCAError.Code {
	case "Memory Controller Errors":
		if v.OVER || !v.UC || !v.MISCV || !v.ADDRV || v.PCC || v.AR {
			return
		}
		if mmm, ok := ev.MCAError.Fields.Get("MMM"); ok && mmm == "MS" {
			channel, _ := ev.MCAError.Fields.Get("CCCC")
			ev.MCAError.Meaning = fmt.Sprintf("Architecturally Defined SRAO Errors / Memory Scrubbing / %s", channel)
			ev.UCRClass = UCRSRAO
			checkPhysicalAddressMode(ev)
		}

	case "Cache Hierarchy Errors":
		rrrr, _ := ev.MCAError.Fields.Get("RRRR")
		tt, _ := ev.MCAError.Fields.Get("TT")
		ll, _ := ev.MCAError.Fields.Get("LL")

		if !v.OVER && v.UC && v.MISCV && v.ADDRV && !v.PCC && !v.AR &&
			rrrr == "EVICT" && tt == "G" && ll == "L2" {
			ev.MCAError.Meaning = "Architecturally Defined SRAO Errors / L3 Explicit Writeback"
			ev.UCRClass = UCRSRAO
			checkPhysicalAddressMode(ev)
			return
		}

		if !v.OVER && v.UC && v.EN && v.MISCV && v.ADDRV && !v.PCC && v.S && v.AR {
			switch {
			case rrrr == "DRD" && tt == "D" && ll == "L0":
				ev.MCAError.Meaning = "SRAR/Data Load"
				ev.UCRClass = UCRSRAR
				checkPhysicalAddressMode(ev)
			case rrrr == "IRD" && tt == "I" && ll == "L0":
				ev.MCAError.Meaning = "SRAR/Instruction Fetch"
				ev.UCRClass = UCRSRAR
				checkPhysicalAddressMode(ev)
			}
		}
	}
}

// checkPhysicalAddressMode implements the closing line of spec.md
// §4.4.6: every SRAO/SRAR architectural override expects Physical
// Address mode, but a mismatch is a warning, not a reason to discard
// the reclassification.
func checkPhysicalAddressMode(ev *DecodedMcaEvent) {
	if ev.AddressMode != "Physical Address" {
		ev.Warnings = append(ev.Warnings, Warning{
			Category: WarnPhysicalAddressExpected,
			Detail:   fmt.Sprintf("SRAO/SRAR architectural override expects Physical Address, got %q", ev.AddressMode),
		})
	}
}
