package cpuid_test

import (
	"testing"

	"github.com/mscrnt/mcadecode/pkg/cpuid"
)

func TestProcessorSignatureScenario2(t *testing.T) {
	t.Parallel()

	info := cpuid.Decode(cpuid.Leaves{
		Leaf01H: &cpuid.Leaf{EAX: 0x000006F6},
	})

	if info.ProcessorSignature != "06_0FH" {
		t.Errorf("ProcessorSignature = %q, want %q", info.ProcessorSignature, "06_0FH")
	}
}

func TestProcessorSignatureDependsOnlyOnEAX(t *testing.T) {
	t.Parallel()

	a := cpuid.Decode(cpuid.Leaves{Leaf01H: &cpuid.Leaf{EAX: 0x000006F6, EBX: 1, ECX: 2, EDX: 3}})
	b := cpuid.Decode(cpuid.Leaves{Leaf01H: &cpuid.Leaf{EAX: 0x000006F6, EBX: 0xffffffff, ECX: 0, EDX: 0}})

	if a.ProcessorSignature != b.ProcessorSignature {
		t.Errorf("signature changed with EBX/ECX/EDX: %q vs %q", a.ProcessorSignature, b.ProcessorSignature)
	}
}

func TestFamily0FDisplayFamily(t *testing.T) {
	t.Parallel()

	// FamilyID=0x0F, ExtendedFamilyID=0x01 -> DisplayFamily = (1<<4)+0x0F = 0x1F.
	eax := uint32(0x0F) << 8
	eax |= uint32(0x01) << 20
	info := cpuid.Decode(cpuid.Leaves{Leaf01H: &cpuid.Leaf{EAX: eax}})

	if info.Feature.Signature.DisplayFamily() != 0x1F {
		t.Errorf("DisplayFamily = %#x, want 0x1f", info.Feature.Signature.DisplayFamily())
	}
}

func TestBrandIndexException(t *testing.T) {
	t.Parallel()

	info := cpuid.Decode(cpuid.Leaves{
		Leaf01H: &cpuid.Leaf{EAX: 0x000006B1, EBX: 0x03},
	})

	if info.Feature.BrandIndexName != "Intel(R) Celeron(R) processor" {
		t.Errorf("BrandIndexName = %q, want exception override", info.Feature.BrandIndexName)
	}
}

func TestBrandIndexNoExceptionForDifferentSignature(t *testing.T) {
	t.Parallel()

	info := cpuid.Decode(cpuid.Leaves{
		Leaf01H: &cpuid.Leaf{EAX: 0x00000001, EBX: 0x03},
	})

	if info.Feature.BrandIndexName != "Intel(R) Pentium(R) III Xeon(R) processor" {
		t.Errorf("BrandIndexName = %q, want table default", info.Feature.BrandIndexName)
	}
}

func TestMaxAddressableValidDependsOnHTT(t *testing.T) {
	t.Parallel()

	withHTT := cpuid.Decode(cpuid.Leaves{Leaf01H: &cpuid.Leaf{EDX: 1 << 28}})
	if !withHTT.Feature.MaxAddressableValid {
		t.Error("MaxAddressableValid = false, want true when EDX.HTT=1")
	}

	withoutHTT := cpuid.Decode(cpuid.Leaves{Leaf01H: &cpuid.Leaf{EDX: 0}})
	if withoutHTT.Feature.MaxAddressableValid {
		t.Error("MaxAddressableValid = true, want false when EDX.HTT=0")
	}
}

func TestMissingLeafLeavesSubrecordUnset(t *testing.T) {
	t.Parallel()

	info := cpuid.Decode(cpuid.Leaves{})
	if info.Feature != nil {
		t.Error("Feature should be nil when leaf 01H is absent")
	}
	if info.Extended != nil {
		t.Error("Extended should be nil when no extended leaves are supplied")
	}
	if info.ProcessorSignature != "" {
		t.Error("ProcessorSignature should be empty when leaf 01H is absent")
	}
}

func TestExtendedAddressBits(t *testing.T) {
	t.Parallel()

	info := cpuid.Decode(cpuid.Leaves{
		Leaf80000008H: &cpuid.Leaf{EAX: 0x00003028}, // Linear=0x30, Physical=0x28
	})

	if info.Extended.PhysicalAddressBits != 0x28 {
		t.Errorf("PhysicalAddressBits = %#x, want 0x28", info.Extended.PhysicalAddressBits)
	}
	if info.Extended.LinearAddressBits != 0x30 {
		t.Errorf("LinearAddressBits = %#x, want 0x30", info.Extended.LinearAddressBits)
	}
}

func TestExtendedFeatureBits(t *testing.T) {
	t.Parallel()

	info := cpuid.Decode(cpuid.Leaves{
		Leaf80000001H: &cpuid.Leaf{
			ECX: 1<<0 | 1<<5, // LAHF/SAHF, LZCNT
			EDX: 1 << 29,     // Intel 64
		},
	})

	if !info.Extended.Features["LAHF/SAHF"] {
		t.Error("expected LAHF/SAHF set")
	}
	if !info.Extended.Features["LZCNT"] {
		t.Error("expected LZCNT set")
	}
	if info.Extended.Features["PREFETCHW"] {
		t.Error("expected PREFETCHW unset")
	}
	if !info.Extended.Features["Intel 64 Architecture"] {
		t.Error("expected Intel 64 Architecture set")
	}
}

func TestYesNo(t *testing.T) {
	t.Parallel()

	if cpuid.YesNo(true) != "Yes" || cpuid.YesNo(false) != "No" {
		t.Error("YesNo did not render expected strings")
	}
}
