// Package cpuid decodes CPUID leaves supplied by a caller into the feature
// record and Processor Signature that pkg/mca's family dispatch keys off
// of. It does not execute the CPUID instruction itself: fetching leaves
// from a running host is an external collaborator, out of scope here (see
// pkg/hostsig for one best-effort implementation of that collaborator).
package cpuid

import (
	"fmt"

	"github.com/mscrnt/mcadecode/pkg/bitslice"
)

// Leaf holds the four 32-bit words CPUID returns for one function/index.
type Leaf struct {
	EAX, EBX, ECX, EDX uint32
}

// Leaves holds the four leaves the decoder consumes. A nil pointer means
// that leaf was not supplied; the corresponding sub-record is left unset
// rather than raising an error.
type Leaves struct {
	Leaf01H       *Leaf
	Leaf80000000H *Leaf
	Leaf80000001H *Leaf
	Leaf80000008H *Leaf
}

// Feature names a single feature bit for display purposes.
type Feature struct {
	Name string
	Bit  int
}

// Leaf01H ECX/EDX feature tables (Intel SDM Vol 2, CPUID.01H).
var (
	ECXFeaturesLeaf1 = []Feature{
		{"SSE3", 0}, {"PCLMULQDQ", 1}, {"DTES64", 2}, {"MONITOR", 3},
		{"DS-CPL", 4}, {"VMX", 5}, {"SMX", 6}, {"EIST", 7}, {"TM2", 8},
		{"SSSE3", 9}, {"CNXT-ID", 10}, {"SDBG", 11}, {"FMA", 12},
		{"CX16", 13}, {"XTPR", 14}, {"PDCM", 15}, {"PCID", 17},
		{"DCA", 18}, {"SSE4_1", 19}, {"SSE4_2", 20}, {"X2APIC", 21},
		{"MOVBE", 22}, {"POPCNT", 23}, {"TSC-DEADLINE", 24}, {"AESNI", 25},
		{"XSAVE", 26}, {"OSXSAVE", 27}, {"AVX", 28}, {"F16C", 29},
		{"RDRAND", 30},
	}

	EDXFeaturesLeaf1 = []Feature{
		{"FPU", 0}, {"VME", 1}, {"DE", 2}, {"PSE", 3}, {"TSC", 4},
		{"MSR", 5}, {"PAE", 6}, {"MCE", 7}, {"CX8", 8}, {"APIC", 9},
		{"SEP", 11}, {"MTRR", 12}, {"PGE", 13}, {"MCA", 14}, {"CMOV", 15},
		{"PAT", 16}, {"PSE-36", 17}, {"PSN", 18}, {"CLFSH", 19},
		{"DS", 21}, {"ACPI", 22}, {"MMX", 23}, {"FXSR", 24}, {"SSE", 25},
		{"SSE2", 26}, {"SS", 27}, {"HTT", 28}, {"TM", 29}, {"IA64", 30},
		{"PBE", 31},
	}
)

// ExtendedFeature identifies a leaf 80000001H feature bit.
type ExtendedFeature struct {
	Name string
	Reg  string // "ECX" or "EDX"
	Bit  int
}

var ExtendedFeaturesLeaf80000001H = []ExtendedFeature{
	{"LAHF/SAHF", "ECX", 0},
	{"LZCNT", "ECX", 5},
	{"PREFETCHW", "ECX", 8},
	{"SYSCALL/SYSRET", "EDX", 11},
	{"XD", "EDX", 20},
	{"1-GByte pages", "EDX", 26},
	{"RDTSCP and IA32_TSC_AUX", "EDX", 27},
	{"Intel 64 Architecture", "EDX", 29},
}

// brandIndexTable is the static 00h-17h mapping from CPUID.01H:EBX[7:0]
// (Intel SDM Vol 2, Table 3-24). Entries 03h and 0Eh are overridden when the
// full leaf 01H EAX equals one of the exception signatures below.
var brandIndexTable = map[uint8]string{
	0x00: "Unsupported",
	0x01: "Intel(R) Celeron(R) processor",
	0x02: "Intel(R) Pentium(R) III processor",
	0x03: "Intel(R) Pentium(R) III Xeon(R) processor",
	0x04: "Intel(R) Pentium(R) III processor",
	0x06: "Mobile Intel(R) Pentium(R) III processor-M",
	0x07: "Mobile Intel(R) Celeron(R) processor",
	0x08: "Intel(R) Pentium(R) 4 processor",
	0x09: "Intel(R) Pentium(R) 4 processor",
	0x0A: "Intel(R) Celeron(R) processor",
	0x0B: "Intel(R) Pentium(R) 4 processor",
	0x0C: "Intel(R) Xeon(R) MP processor",
	0x0E: "Mobile Intel(R) Pentium(R) 4 processor-M",
	0x0F: "Mobile Intel(R) Celeron(R) processor",
	0x11: "Mobile Genuine Intel(R) processor",
	0x12: "Intel(R) Celeron(R) M processor",
	0x13: "Mobile Intel(R) Celeron(R) processor",
	0x14: "Intel(R) Celeron(R) processor",
	0x15: "Mobile Genuine Intel(R) processor",
	0x16: "Intel(R) Pentium(R) M processor",
	0x17: "Mobile Intel(R) Celeron(R) processor",
}

// brandIndexExceptions overrides the table above when the full 32-bit EAX
// of leaf 01H matches one of these signatures exactly, per spec.md §4.3.
var brandIndexExceptions = map[uint32]map[uint8]string{
	0x000006B1: {0x03: "Intel(R) Celeron(R) processor"},
	0x00000F13: {
		0x0B: "Intel(R) Xeon(R) processor MP",
		0x0E: "Intel(R) Xeon(R) processor",
	},
}

// ProcessorType is CPUID.01H:EAX[13:12].
type ProcessorType uint8

const (
	ProcessorTypeOriginalOEM     ProcessorType = 0
	ProcessorTypeIntelOverDrive  ProcessorType = 1
	ProcessorTypeDualProcessor   ProcessorType = 2
	ProcessorTypeIntelReserved   ProcessorType = 3
)

func (p ProcessorType) String() string {
	switch p {
	case ProcessorTypeOriginalOEM:
		return "Original OEM"
	case ProcessorTypeIntelOverDrive:
		return "Intel OverDrive"
	case ProcessorTypeDualProcessor:
		return "Dual processor"
	default:
		return "Intel reserved"
	}
}

// SignatureFields is the decomposition of CPUID.01H:EAX, mirroring the
// mask/shift decomposition gvisor's pkg/cpuid uses for the same register.
type SignatureFields struct {
	SteppingID       uint8
	ModelID          uint8
	FamilyID         uint8
	ProcessorType    ProcessorType
	ExtendedModelID  uint8
	ExtendedFamilyID uint8
}

func splitSignature(eax uint32) SignatureFields {
	return SignatureFields{
		SteppingID:       uint8(bitslice.MustRead32(eax, 3, 0)),
		ModelID:          uint8(bitslice.MustRead32(eax, 7, 4)),
		FamilyID:         uint8(bitslice.MustRead32(eax, 11, 8)),
		ProcessorType:    ProcessorType(bitslice.MustRead32(eax, 13, 12)),
		ExtendedModelID:  uint8(bitslice.MustRead32(eax, 19, 16)),
		ExtendedFamilyID: uint8(bitslice.MustRead32(eax, 27, 20)),
	}
}

// DisplayFamily returns the DisplayFamily component of the Processor
// Signature per spec.md §4.3.
func (f SignatureFields) DisplayFamily() uint16 {
	if f.FamilyID != 0x0F {
		return uint16(f.FamilyID)
	}
	return uint16(f.ExtendedFamilyID)<<4 + uint16(f.FamilyID)
}

// DisplayModel returns the DisplayModel component of the Processor
// Signature per spec.md §4.3.
func (f SignatureFields) DisplayModel() uint16 {
	if f.FamilyID == 0x06 || f.FamilyID == 0x0F {
		return uint16(f.ExtendedModelID)<<4 | uint16(f.ModelID)
	}
	return uint16(f.ModelID)
}

// Signature renders the canonical "FF_MMH" Processor Signature string.
// Both components render as hex, zero-padded to a minimum of two digits
// (the worked example in spec.md §8 scenario 2, EAX=0x000006F6 →
// "06_0FH", pads the model nibble to "0F" even though FamilyID is 06H;
// this implementation follows that concrete example rather than the
// looser zero-padding qualifier in spec.md §3 — see DESIGN.md).
func (f SignatureFields) Signature() string {
	return fmt.Sprintf("%02X_%02XH", f.DisplayFamily(), f.DisplayModel())
}

// FeatureInfo is the decode of CPUID.01H.
type FeatureInfo struct {
	Signature SignatureFields

	BrandIndex             uint8
	BrandIndexName         string
	CflushLineSize         uint8 // count of 8-byte units
	MaxAddressableLogicals uint8
	MaxAddressableValid    bool // depends on EDX.HTT
	InitialAPICID          uint8

	ECXFeatures map[string]bool
	EDXFeatures map[string]bool
}

// ExtendedInfo is the decode of leaves 80000000H/80000001H/80000008H.
type ExtendedInfo struct {
	MaxExtendedFunction uint32 // leaf 80000000H EAX, "8-digit hex" per spec.md
	Features            map[string]bool
	PhysicalAddressBits uint8
	LinearAddressBits   uint8
}

// Info is the full CpuidDecoder output.
type Info struct {
	Feature            *FeatureInfo
	Extended           *ExtendedInfo
	ProcessorSignature string
}

// Decode implements the CpuidDecoder of spec.md §4.3. Any leaf left unset in
// Leaves leaves the corresponding sub-record nil; no error is raised.
func Decode(l Leaves) Info {
	var info Info

	if l.Leaf01H != nil {
		info.Feature = decodeLeaf01H(*l.Leaf01H)
		info.ProcessorSignature = info.Feature.Signature.Signature()
	}

	if l.Leaf80000000H != nil || l.Leaf80000001H != nil || l.Leaf80000008H != nil {
		info.Extended = decodeExtended(l)
	}

	return info
}

func decodeLeaf01H(leaf Leaf) *FeatureInfo {
	sig := splitSignature(leaf.EAX)

	htt := bitslice.Bit32(leaf.EDX, 28) == 1

	brandIdx := uint8(bitslice.MustRead32(leaf.EBX, 7, 0))
	name := brandIndexTable[brandIdx]
	if exceptions, ok := brandIndexExceptions[leaf.EAX]; ok {
		if override, ok := exceptions[brandIdx]; ok {
			name = override
		}
	}

	fi := &FeatureInfo{
		Signature:              sig,
		BrandIndex:             brandIdx,
		BrandIndexName:         name,
		CflushLineSize:         uint8(bitslice.MustRead32(leaf.EBX, 15, 8)),
		MaxAddressableLogicals: uint8(bitslice.MustRead32(leaf.EBX, 23, 16)),
		MaxAddressableValid:    htt,
		InitialAPICID:          uint8(bitslice.MustRead32(leaf.EBX, 31, 24)),
		ECXFeatures:            featureMap(leaf.ECX, ECXFeaturesLeaf1),
		EDXFeatures:            featureMap(leaf.EDX, EDXFeaturesLeaf1),
	}

	return fi
}

func decodeExtended(l Leaves) *ExtendedInfo {
	ei := &ExtendedInfo{
		Features: make(map[string]bool),
	}

	if l.Leaf80000000H != nil {
		ei.MaxExtendedFunction = l.Leaf80000000H.EAX
	}

	if l.Leaf80000001H != nil {
		for _, f := range ExtendedFeaturesLeaf80000001H {
			reg := l.Leaf80000001H.ECX
			if f.Reg == "EDX" {
				reg = l.Leaf80000001H.EDX
			}
			ei.Features[f.Name] = bitslice.Bit32(reg, f.Bit) == 1
		}
	}

	if l.Leaf80000008H != nil {
		ei.PhysicalAddressBits = uint8(bitslice.MustRead32(l.Leaf80000008H.EAX, 7, 0))
		ei.LinearAddressBits = uint8(bitslice.MustRead32(l.Leaf80000008H.EAX, 15, 8))
	}

	return ei
}

func featureMap(reg uint32, features []Feature) map[string]bool {
	m := make(map[string]bool, len(features))
	for _, f := range features {
		m[f.Name] = bitslice.Bit32(reg, f.Bit) == 1
	}
	return m
}

// YesNo renders a feature presence bool the way spec.md §4.3 asks for
// display: "Yes" or "No".
func YesNo(present bool) string {
	if present {
		return "Yes"
	}
	return "No"
}
