// Package hostsig produces a best-effort Processor Signature for the host
// this process is running on, for operators who don't have a raw CPUID.01H
// EAX value handy. Fetching CPUID from a running host is explicitly out of
// scope for the decoder itself (spec.md §1); this package is the one place
// that ambient concern is allowed to live, and it never feeds pkg/mca
// directly. Its result does not go through pkg/cpuid either:
// Signature.ProcessorSignature renders the "FF_MMH" form itself.
package hostsig

import (
	"fmt"
	"strconv"

	"github.com/shirou/gopsutil/v3/cpu"
)

// Signature is a best-effort host identification, assembled from whatever
// gopsutil's platform backend reports. Any field may be zero-valued if the
// host didn't report it.
type Signature struct {
	VendorID string
	Family   int
	Model    int
	Stepping int
	ModelName string
}

// Detect queries the local host's first reported logical CPU. It never
// returns an error: a host that can't be queried yields a zero-valued
// Signature, since this is inherently best-effort operator convenience,
// not something pkg/mca's correctness depends on.
func Detect() Signature {
	infos, err := cpu.Info()
	if err != nil || len(infos) == 0 {
		return Signature{}
	}
	info := infos[0]

	family, _ := strconv.Atoi(info.Family)
	model, _ := strconv.Atoi(info.Model)

	return Signature{
		VendorID:  info.VendorID,
		Family:    family,
		Model:     model,
		Stepping:  int(info.Stepping),
		ModelName: info.ModelName,
	}
}

// ProcessorSignature renders the "FF_MMH" form pkg/cpuid.SignatureFields
// would compute from a real CPUID.01H EAX, using the plain (non-extended)
// Family and Model gopsutil reports. It is only as accurate as the host's
// own /proc/cpuinfo-equivalent reporting, and does not attempt to recover
// ExtendedFamilyID/ExtendedModelID the way a real EAX decode would.
func (s Signature) ProcessorSignature() string {
	return fmt.Sprintf("%02X_%02XH", s.Family, s.Model)
}
