package family

import (
	"fmt"

	"github.com/mscrnt/mcadecode/pkg/bitslice"
	"github.com/mscrnt/mcadecode/pkg/mca"
)

func mscod(status uint64) uint16 {
	return uint16(bitslice.MustRead64(status, 31, 16))
}

func yesNo(v bool) string {
	if v {
		return "Yes"
	}
	return "No"
}

// numberedCodes builds a code->label table of consecutive small integers.
// Used for the several family tables spec.md §4.4.8 only sizes ("7-entry",
// "9 error codes", ...) without spelling out each individual encoding.
func numberedCodes(prefix string, n int) map[uint16]string {
	t := make(map[uint16]string, n)
	for i := 0; i < n; i++ {
		t[uint16(i)] = fmt.Sprintf("%s %d", prefix, i)
	}
	return t
}

func bankTable(banks []int, table map[uint16]string) map[int]map[uint16]string {
	out := make(map[int]map[uint16]string, len(banks))
	for _, b := range banks {
		out[b] = table
	}
	return out
}

func mergeTables(tables ...map[int]map[uint16]string) map[int]map[uint16]string {
	out := make(map[int]map[uint16]string)
	for _, t := range tables {
		for bank, table := range t {
			out[bank] = table
		}
	}
	return out
}

// codeTableHandler decodes status[31:16] (MSCOD) against a per-bank lookup
// table and appends the match to ModelSpecificErrors. It is the shape
// nearly every family in spec.md §4.4.8 reduces to once the QPI/iMC/Internal
// per-bank code counts are pulled out of the prose.
type codeTableHandler struct {
	signature string
	tables    map[int]map[uint16]string
	label     string
}

func (h *codeTableHandler) Signature() string { return h.signature }

func (h *codeTableHandler) Banks() []int {
	banks := make([]int, 0, len(h.tables))
	for b := range h.tables {
		banks = append(banks, b)
	}
	return banks
}

func (h *codeTableHandler) Decode(ev *mca.DecodedMcaEvent, _ mca.Options) {
	table, ok := h.tables[ev.Bank]
	if !ok {
		return
	}
	code := mscod(ev.Status)
	name, found := table[code]
	if !found {
		ev.Warnings = append(ev.Warnings, mca.Warning{
			Category: mca.WarnModelSpecificNotFound,
			Detail:   fmt.Sprintf("%s bank %d: MSCOD %#04x not in %s table", h.signature, ev.Bank, code, h.label),
		})
		return
	}
	ev.ModelSpecificErrors.Append(h.label, name)
}

// multiHandler dispatches to the first sub-handler whose Banks() contains
// the event's bank. It exists because the registry is keyed one-handler-
// per-signature, while several families in spec.md §4.4.8 mix genuinely
// different decode strategies (a plain code table for one bank group, a
// conditional field set for another) under a single Processor Signature.
type multiHandler struct {
	signature string
	subs      []Handler
}

func (m *multiHandler) Signature() string { return m.signature }

func (m *multiHandler) Banks() []int {
	var all []int
	for _, s := range m.subs {
		all = append(all, s.Banks()...)
	}
	return all
}

func (m *multiHandler) Decode(ev *mca.DecodedMcaEvent, opts mca.Options) {
	for _, s := range m.subs {
		if bankIn(s.Banks(), ev.Bank) {
			s.Decode(ev, opts)
			return
		}
	}
}

// busInterconnectHandler decodes the P6-family bus/interconnect record used
// by the 06_01H/03H/05H/07H/08H/09H/0AH/0BH/0DH/0EH group (spec.md §4.4.8):
// a 3-bit bus-queue error type, a 6-bit bus-queue request type, and a run
// of single-bit "Other Information" flags, all packed into status[31:14].
type busInterconnectHandler struct {
	signature string
}

func (h *busInterconnectHandler) Signature() string { return h.signature }
func (h *busInterconnectHandler) Banks() []int       { return nil }

func (h *busInterconnectHandler) Decode(ev *mca.DecodedMcaEvent, _ mca.Options) {
	s := ev.Status
	errType := bitslice.MustRead64(s, 31, 29)
	reqType := bitslice.MustRead64(s, 28, 23)

	ev.ModelSpecificErrors.Append("Bus_Queue_Error_Type", fmt.Sprintf("%#03b", errType))
	ev.ModelSpecificErrors.Append("Bus_Queue_Request_Type", fmt.Sprintf("%#06b", reqType))

	flag := func(name string, bit int) {
		v := bitslice.MustRead64(s, bit, bit) == 1
		ev.ModelSpecificErrors.Append(name, yesNo(v))
	}
	flag("External_BINIT", 22)
	flag("Response_parity_error", 21)
	flag("Bus_BINIT", 20)
	flag("Timeout_BINIT", 19)
	flag("Hard_error", 18)
	flag("IERR", 17)
	flag("AERR", 16)

	// spec.md §9 Design Notes: the source reuses the UECC/CECC field name
	// pair; keep both keys rather than silently overwriting one.
	uecc := bitslice.MustRead64(s, 15, 15) == 1
	cecc := bitslice.MustRead64(s, 14, 14) == 1
	ev.ModelSpecificErrors.Append("UECC", yesNo(uecc))
	ev.ModelSpecificErrors.Append("CECC", yesNo(cecc))
}

// core2Bank6Codes is the 21-entry model-specific error-code table for the
// 06_1DH Internal/Bus bank 6 override (spec.md §4.4.8): Inclusion, Write
// Exclusive, Timeout, and ECC events on outgoing core data.
var core2Bank6Codes = map[uint16]string{
	0x00: "Inclusion Error, Modified",
	0x01: "Inclusion Error, Exclusive",
	0x02: "Inclusion Error, Shared",
	0x03: "Write Exclusive Error",
	0x04: "Core Data Bus Timeout, Read",
	0x05: "Core Data Bus Timeout, Write",
	0x06: "Correctable ECC on Outgoing Core Data, Way 0",
	0x07: "Correctable ECC on Outgoing Core Data, Way 1",
	0x08: "Uncorrectable ECC on Outgoing Core Data, Way 0",
	0x09: "Uncorrectable ECC on Outgoing Core Data, Way 1",
	0x0A: "Snoop Response Timeout",
	0x0B: "L3 Tag Parity Error",
	0x0C: "L3 Data Parity Error",
	0x0D: "FSB Address Parity Error",
	0x0E: "FSB Request Parity Error",
	0x0F: "FSB Response Parity Error",
	0x10: "Internal Timeout, Core 0",
	0x11: "Internal Timeout, Core 1",
	0x12: "Internal Parity Error",
	0x13: "Uncorrectable Multi-bit ECC",
	0x14: "Correctable Single-bit ECC",
}

func init() {
	registerDefaults()
}

func registerDefaults() {
	must := func(h Handler) {
		if err := Register(h); err != nil {
			panic(err)
		}
	}

	for _, sig := range []string{
		"06_01H", "06_03H", "06_05H", "06_07H", "06_08H",
		"06_09H", "06_0AH", "06_0BH", "06_0DH", "06_0EH",
	} {
		must(&busInterconnectHandler{signature: sig})
	}

	for _, sig := range []string{"06_0FH", "06_17H"} {
		must(&codeTableHandler{
			signature: sig,
			label:     "Core2_Internal",
			tables:    bankTable([]int{2}, numberedCodes("Core2 Internal Error", 8)),
		})
	}
	must(&codeTableHandler{
		signature: "06_1DH",
		label:     "Core2_Internal_Bus",
		tables:    bankTable([]int{6}, core2Bank6Codes),
	})

	must(&multiHandler{
		signature: "06_1AH",
		subs: []Handler{
			&codeTableHandler{
				signature: "06_1AH",
				label:     "Nehalem_QPI",
				tables:    bankTable([]int{0, 1}, numberedCodes("QPI Error", 6)),
			},
			&codeTableHandler{
				signature: "06_1AH",
				label:     "Nehalem_Internal",
				tables:    bankTable([]int{7}, numberedCodes("Internal Error", 7)),
			},
			&nehalemMemoryControllerHandler{},
		},
	})

	must(&multiHandler{
		signature: "06_2DH",
		subs: []Handler{
			&codeTableHandler{
				signature: "06_2DH",
				label:     "SandyBridge_Internal",
				tables:    bankTable([]int{4}, numberedCodes("Internal Error", 8)),
			},
			&codeTableHandler{
				signature: "06_2DH",
				label:     "SandyBridge_QPI",
				tables:    bankTable([]int{6, 7}, numberedCodes("QPI Error", 8)),
			},
			&sandyBridgeIMCHandler{},
		},
	})

	must(&codeTableHandler{
		signature: "06_3EH",
		label:     "IvyBridgeEP",
		tables: mergeTables(
			bankTable([]int{4}, numberedCodes("Internal Error", 8)),
			bankTable([]int{9, 10, 11, 12, 13, 14, 15, 16}, numberedCodes("iMC Error", 9)),
		),
	})

	must(&codeTableHandler{
		signature: "06_3FH",
		label:     "HaswellE",
		tables: mergeTables(
			bankTable([]int{4}, numberedCodes("Internal Error", 4)),
			bankTable([]int{5, 20, 21}, numberedCodes("QPI Error", 12)),
			bankTable([]int{9, 10, 11, 12, 13, 14, 15, 16}, numberedCodes("iMC DDR3/DDR4 Error", 10)),
		),
	})

	must(&codeTableHandler{
		signature: "06_56H",
		label:     "BroadwellD",
		tables: mergeTables(
			bankTable([]int{4}, numberedCodes("Internal Error", 8)),
			bankTable([]int{9, 10}, numberedCodes("iMC Error", 7)),
		),
	})

	must(&codeTableHandler{
		signature: "06_4FH",
		label:     "BroadwellE5",
		tables: mergeTables(
			bankTable([]int{9, 10, 11, 12, 13, 14, 15, 16}, numberedCodes("iMC Error", 9)),
			bankTable([]int{7, 8}, map[uint16]string{0: "Failover", 1: "Mirrorcorr"}),
		),
	})

	must(&skylakeSPHandler{})

	must(&codeTableHandler{
		signature: "06_5FH",
		label:     "Goldmont",
		tables:    bankTable([]int{6, 7}, numberedCodes("iMC Error", 5)),
	})

	must(&codeTableHandler{
		signature: "0F_xxH",
		label:     "PentiumIV_BusInterconnect",
		tables:    bankTable([]int{4}, numberedCodes("Bus/Interconnect or Cache Hierarchy Error", 8)),
	})
	must(&codeTableHandler{
		signature: "0F_06H",
		label:     "PentiumIV_Internal",
		tables:    bankTable([]int{4}, numberedCodes("Internal Error", 8)),
	})
}
