//go:build linux && amd64

// Package msrread reads IA32 Model-Specific Registers directly off a
// running host through the Linux msr driver (/dev/cpu/N/msr), for
// operators who want live MCG_CAP/IA32_MCi_* values instead of a parsed
// log line. This is ambient convenience only: pkg/mca never imports this
// package, and every value it returns still flows through the same public
// Decode entry point a log-derived value would.
package msrread

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

// Reader reads MSRs off a single logical CPU via /dev/cpu/N/msr. The msr
// kernel module must be loaded and the caller must have permission to open
// the device node (typically root).
type Reader struct {
	f   *os.File
	cpu int
}

// Open opens the MSR device node for the given logical CPU index.
func Open(cpuIndex int) (*Reader, error) {
	path := fmt.Sprintf("/dev/cpu/%d/msr", cpuIndex)
	f, err := os.OpenFile(path, os.O_RDONLY, 0)
	if err != nil {
		return nil, fmt.Errorf("msrread: open %s: %w", path, err)
	}
	return &Reader{f: f, cpu: cpuIndex}, nil
}

// Read returns the 64-bit value of the MSR at the given address.
func (r *Reader) Read(address uint32) (uint64, error) {
	buf := make([]byte, 8)
	n, err := unix.Pread(int(r.f.Fd()), buf, int64(address))
	if err != nil {
		return 0, fmt.Errorf("msrread: pread cpu%d msr %#x: %w", r.cpu, address, err)
	}
	if n != 8 {
		return 0, fmt.Errorf("msrread: short read (%d bytes) for cpu%d msr %#x", n, r.cpu, address)
	}
	var v uint64
	for i := 7; i >= 0; i-- {
		v = v<<8 | uint64(buf[i])
	}
	return v, nil
}

// Close releases the underlying device handle.
func (r *Reader) Close() error {
	return r.f.Close()
}

// Well-known MSR addresses this package's callers read (Intel SDM Vol 4).
const (
	MSRIA32McgCap    = 0x179
	MSRIA32McgStatus = 0x17A
)

// BankMSRs returns the (STATUS, ADDR, MISC) MSR addresses for bank index n.
func BankMSRs(n int) (status, addr, misc uint32) {
	base := uint32(0x400 + n*4)
	return base, base + 1, base + 2
}
