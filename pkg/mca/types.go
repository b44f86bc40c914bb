// Package mca implements the primary MCEDecoder: given an IA32_MCG_CAP
// capability record, a Processor Signature, a bank index, and the
// IA32_MCi_{STATUS,ADDR,MISC} triple, it produces a structured,
// processor-family-aware DecodedMcaEvent. Decoding is pure and stateless;
// every call operates only on its own inputs and is safe to invoke
// concurrently from many goroutines.
package mca

// Field is one entry of an ordered name/value mapping. spec.md §9 singles
// out ModelSpecificErrors and ReservedOther as the only two sections that
// should remain open-ended maps rather than tagged fields, since their
// contents genuinely vary per processor family and bank.
type Field struct {
	Name  string
	Value string
}

// Fields is an ordered name/value mapping, preserving insertion order.
type Fields []Field

// Set appends name/value, or overwrites the value of the first existing
// entry with that name. Family tables intentionally reuse the same name
// twice in a few places (see UECC/CECC in DESIGN.md); use Append for those.
func (f *Fields) Set(name, value string) {
	for i := range *f {
		if (*f)[i].Name == name {
			(*f)[i].Value = value
			return
		}
	}
	f.Append(name, value)
}

// Append always adds a new entry, even if name is already present. Used
// where the source data is known to repeat a field name (spec.md §9's
// UECC/CECC bit-45 duplication note).
func (f *Fields) Append(name, value string) {
	*f = append(*f, Field{Name: name, Value: value})
}

// Get returns the value of the first entry with the given name.
func (f Fields) Get(name string) (string, bool) {
	for _, field := range f {
		if field.Name == name {
			return field.Value, true
		}
	}
	return "", false
}

// Validity holds the architectural validity flags extracted from
// IA32_MCi_STATUS[63:55]. S and AR are only meaningful when TesP and
// SerP are both set (spec.md §4.4.3); they read as false otherwise,
// which callers must not mistake for an architectural "unset" value.
type Validity struct {
	VAL   bool
	OVER  bool
	UC    bool
	EN    bool
	MISCV bool
	ADDRV bool
	PCC   bool
	S     bool
	AR    bool
}

// UCRClass is one of the five spec.md §4.4.4 classifications, or "" if the
// event was never classified (SER_P=0, or classification failed).
type UCRClass string

const (
	UCRUnclassified UCRClass = ""
	UCRCorrected    UCRClass = "CE"
	UCRUncorrected  UCRClass = "UC"
	UCRSRAR         UCRClass = "SRAR"
	UCRSRAO         UCRClass = "SRAO"
	UCRSRAOUCNA     UCRClass = "SRAO/UCNA"
)

// MCAErrorType distinguishes the two grammar shapes of spec.md §4.4.5.
type MCAErrorType string

const (
	MCAErrorSimple   MCAErrorType = "Simple"
	MCAErrorCompound MCAErrorType = "Compound"
	MCAErrorUnknown  MCAErrorType = "Unknown"
)

// MCAError is the decoded status[15:0] error code.
type MCAError struct {
	Type    MCAErrorType
	Code    string
	Fields  Fields // sub-field decode: LL, TT, MMM, RRRR, PP, T, II, channel...
	Meaning string

	// CorrectionReportFiltering is nil when absent: it's only meaningful
	// for Compound codes with UC=0 that are not classified as an
	// architectural SRAR/SRAO override (spec.md §4.4.5).
	CorrectionReportFiltering *string
}

// Identity carries the caller-supplied fields that are always emitted,
// even when VAL=0 stops all further decoding.
type Identity struct {
	ID        string
	Timestamp string
	CPU       int
}

// DecodedMcaEvent is the MCEDecoder output described in spec.md §3.
// Records are immutable once returned by Decode.
type DecodedMcaEvent struct {
	Identity
	Bank   int
	Status uint64
	Misc   uint64
	Addr   uint64

	Validity Validity

	MCAError            *MCAError
	ModelSpecificErrors Fields
	ReservedOther       Fields

	// Threshold-Based Error Status (status[54:53]), populated only when
	// TesP=1 and UC=0; model-specific otherwise (spec.md §4.4.3).
	ThresholdStatus string
	// Corrected_Error_Count (status[51:38], or "Overflow" if
	// status[52]=1), populated only when CmciP=1 and UC=0.
	CorrectedErrorCount string
	// Firmware_updated_error_status_indicator (status[37]), populated
	// only when EmcP=1. When EmcP=0, status[37:32] are model-specific
	// "Other Information" and are folded into ReservedOther instead.
	FirmwareUpdatedErrorStatus *bool

	UCRClass UCRClass

	// Populated only when Validity.MISCV is true.
	AddressMode           string
	RecoverableAddressLSB *uint8

	// Populated only when Validity.ADDRV is true and the LSB above is >0.
	AddressValid *uint64
	// Populated only for Memory Controller Errors with ADDRV=1.
	AddressGiB *string

	IncrementalDecoded bool

	Warnings []Warning
}

// WarningCategory names one of the stable warning categories of spec.md
// §4.4.9.
type WarningCategory string

const (
	WarnStatusNotValid           WarningCategory = "status not valid"
	WarnTransactionTypeNotFound  WarningCategory = "transaction type not found"
	WarnRequestNotIdentified     WarningCategory = "request could not be identified"
	WarnMCACodeNotIdentified     WarningCategory = "MCA error code could not be identified"
	WarnUCRNotIdentified         WarningCategory = "UCR error classification could not be identified"
	WarnModelSpecificNotFound    WarningCategory = "model-specific sub-code not found"
	WarnPhysicalAddressExpected  WarningCategory = "physical-address-mode expected for SRAO/SRAR"
)

// Warning is one diagnostic emitted during decoding. Warnings never abort
// decoding themselves; they accompany whatever partial result was produced.
type Warning struct {
	Category WarningCategory
	Detail   string
}

// Options carries the caller-overridable inputs the source code hard-codes.
type Options struct {
	// ErrorControlBit1 stands in for MSR_ERROR_CONTROL[1], which the
	// underlying platform cannot expose directly. Defaults to true to
	// match the upstream decoder's hard-coded assumption; callers that
	// know better may override it (spec.md §9 Design Notes).
	ErrorControlBit1 bool
}

// DefaultOptions returns the behavior-compatible default Options.
func DefaultOptions() Options {
	return Options{ErrorControlBit1: true}
}
