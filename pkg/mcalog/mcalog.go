// Package mcalog implements the log-line parser collaborator described in
// spec.md §6: it extracts the six tokens pkg/mca needs (timestamp, cpu,
// bank, status, addr, misc) out of a raw MCE log line, and separately
// extracts the IA32_MCG_CAP value out of a boot log line. Neither the
// mechanism that produces these lines nor how they reach this package is
// this package's concern — it only tokenizes text it's handed.
package mcalog

import (
	"errors"
	"regexp"
	"strconv"
)

// ErrNoMatch is returned when a line does not match the MCE log-line
// pattern (spec.md §6: "MCE:*cpu*bank*status*[Addr|Misc]:*").
var ErrNoMatch = errors.New("mcalog: line does not match the MCE log pattern")

// lineRE captures, in order: the first whitespace-separated token as the
// timestamp, the record ID following "MCE:", the cpu/bank integers, the
// status hex value, and the Addr/Misc hex values. The lazy ".*?" before
// "MCE:" is deliberate: log lines commonly carry an unrelated "cpuN:pid)"
// prefix (as in the ESX-style vmkernel example in spec.md §8) before the
// actual "MCE:" marker, and that prefix's cpu number must not be mistaken
// for the field this parser reports.
var lineRE = regexp.MustCompile(
	`^(?P<timestamp>\S+).*?MCE:\s*(?P<id>\d+):\s*cpu(?P<cpu>\d+):\s*bank(?P<bank>\d+):\s*status=(?P<status>0x[0-9a-fA-F]+).*?Addr:(?P<addr>0x[0-9a-fA-F]+).*?Misc:(?P<misc>0x[0-9a-fA-F]+)`,
)

// mcgCapRE matches the boot log line format spec.md §6 gives for the
// MCG_CAP source collaborator: "Detected <N> MCE banks. MCG_CAP MSR:<hex>".
var mcgCapRE = regexp.MustCompile(`MCG_CAP\s+MSR:\s*(0x[0-9a-fA-F]+)`)

// Line is the tokenized result of a single parsed MCE log line.
type Line struct {
	Timestamp string
	RecordID  string
	CPU       int
	Bank      int
	Status    uint64
	Addr      uint64
	Misc      uint64
}

// ParseLine extracts the six fields spec.md §6 names from a raw log line.
// It returns ErrNoMatch, not a parse error, when the line simply isn't an
// MCE record — callers scanning a mixed log should treat that as "skip",
// not "fail".
func ParseLine(line string) (Line, error) {
	m := lineRE.FindStringSubmatch(line)
	if m == nil {
		return Line{}, ErrNoMatch
	}

	names := lineRE.SubexpNames()
	fields := make(map[string]string, len(names))
	for i, name := range names {
		if name != "" {
			fields[name] = m[i]
		}
	}

	status, err := strconv.ParseUint(fields["status"], 0, 64)
	if err != nil {
		return Line{}, err
	}
	addr, err := strconv.ParseUint(fields["addr"], 0, 64)
	if err != nil {
		return Line{}, err
	}
	misc, err := strconv.ParseUint(fields["misc"], 0, 64)
	if err != nil {
		return Line{}, err
	}
	cpu, err := strconv.Atoi(fields["cpu"])
	if err != nil {
		return Line{}, err
	}
	bank, err := strconv.Atoi(fields["bank"])
	if err != nil {
		return Line{}, err
	}

	return Line{
		Timestamp: fields["timestamp"],
		RecordID:  fields["id"],
		CPU:       cpu,
		Bank:      bank,
		Status:    status,
		Addr:      addr,
		Misc:      misc,
	}, nil
}

// ParseMCGCap extracts the IA32_MCG_CAP value from a boot log line of the
// form "Detected <N> MCE banks. MCG_CAP MSR:<hex>". ok is false when the
// line doesn't carry that marker.
func ParseMCGCap(line string) (value uint64, ok bool) {
	m := mcgCapRE.FindStringSubmatch(line)
	if m == nil {
		return 0, false
	}
	v, err := strconv.ParseUint(m[1], 0, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}
