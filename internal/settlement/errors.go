package settlement

import "errors"

// Domain errors for settlement file processing

var (
	// Source text errors
	ErrEncoding    = errors.New("no candidate encoding decodes the source file")
	ErrEmptySource = errors.New("source file is empty")
	ErrNoRecords   = errors.New("no records could be parsed from the source file")

	// Spreadsheet and filesystem errors
	ErrRead         = errors.New("failed to read spreadsheet")
	ErrWrite        = errors.New("failed to write output file")
	ErrDuplicateKey = errors.New("duplicate identity key in spreadsheet")
)

// LineIssue describes a source line that was not processed.
// Issues are collected per invocation and never abort a batch.
type LineIssue struct {
	Line   int    `json:"line" yaml:"line"`
	Reason string `json:"reason" yaml:"reason"`
}

// Reasons recorded on LineIssue
const (
	ReasonFormatMismatch  = "format mismatch"
	ReasonFieldCount      = "field count is not 10"
	ReasonNoRemarkSpan    = "remark field is not 4 digits"
	ReasonNarrowPadding   = "not enough padding before remark field"
	ReasonUndecodableLine = "line cannot be decoded"
)
