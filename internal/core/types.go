package core

import (
	"reflect"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

// FieldType represents the target data type for a field when records are
// bound into a Bag. Typed records use the member's Go type instead.
type FieldType int

const (
	FieldText FieldType = iota
	FieldEnum
	FieldDate
	FieldNumeric
	FieldBool
	FieldInt
	FieldFloat
	FieldUUID
	FieldDuration
)

// goType returns the Go type a Bag stores for the field type.
func (ft FieldType) goType() reflect.Type {
	switch ft {
	case FieldDate:
		return reflect.TypeOf(time.Time{})
	case FieldNumeric:
		return reflect.TypeOf(pgtype.Numeric{})
	case FieldBool:
		return reflect.TypeOf(false)
	case FieldInt:
		return reflect.TypeOf(int64(0))
	case FieldFloat:
		return reflect.TypeOf(float64(0))
	case FieldUUID:
		return reflect.TypeOf(uuid.UUID{})
	case FieldDuration:
		return reflect.TypeOf(time.Duration(0))
	default:
		return reflect.TypeOf("")
	}
}

// String returns a human-readable name for a field type.
func (ft FieldType) String() string {
	switch ft {
	case FieldText:
		return "text"
	case FieldEnum:
		return "enum"
	case FieldDate:
		return "date"
	case FieldNumeric:
		return "numeric"
	case FieldBool:
		return "bool"
	case FieldInt:
		return "int"
	case FieldFloat:
		return "float"
	case FieldUUID:
		return "uuid"
	case FieldDuration:
		return "duration"
	default:
		return "value"
	}
}

// ErrorMode selects how a failed field or record is handled.
type ErrorMode int

const (
	// ErrorModeUnset makes a field inherit Config.ErrorMode.
	ErrorModeUnset ErrorMode = iota
	ThrowAndStop
	IgnoreAndContinue
	ReportAndContinue
)

func (m ErrorMode) String() string {
	switch m {
	case ThrowAndStop:
		return "throw"
	case IgnoreAndContinue:
		return "ignore"
	case ReportAndContinue:
		return "report"
	default:
		return "unset"
	}
}

// ParseErrorMode converts a mode name such as "throw" or "IgnoreAndContinue"
// to an ErrorMode. Matching ignores case.
func ParseErrorMode(s string) (ErrorMode, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "throw", "throwandstop":
		return ThrowAndStop, true
	case "ignore", "ignoreandcontinue":
		return IgnoreAndContinue, true
	case "report", "reportandcontinue":
		return ReportAndContinue, true
	}
	return ErrorModeUnset, false
}

// TrimOption controls whitespace trimming of field and header values.
// The zero value trims both ends.
type TrimOption int

const (
	Trim TrimOption = iota
	TrimNone
	TrimStart
	TrimEnd
)

// SplitOption modifies tokenization.
type SplitOption int

const (
	SplitNone SplitOption = 0
	// RemoveEmptyEntries drops empty tokens from a split line.
	RemoveEmptyEntries SplitOption = 1
)

// ValidationMode selects when declarative validation runs for typed records.
type ValidationMode int

const (
	ValidationOff ValidationMode = 0
	MemberLevel   ValidationMode = 1 << 0
	ObjectLevel   ValidationMode = 1 << 1
)

// IgnoreValueMode selects which cleaned values are not bound into the record.
type IgnoreValueMode int

const (
	IgnoreNone       IgnoreValueMode = 0
	IgnoreNull       IgnoreValueMode = 1 << 0
	IgnoreEmpty      IgnoreValueMode = 1 << 1
	IgnoreWhiteSpace IgnoreValueMode = 1 << 2
)

// Line is one logical line of input.
type Line struct {
	Number int    // 1-based logical line number
	Text   string // Raw text without the EOL delimiter
}

// Stats summarizes one parse pass.
type Stats struct {
	Lines     int   `json:"lines"`      // Logical lines read
	Skipped   int   `json:"skipped"`    // Blank, comment, directive and header lines
	Records   int   `json:"records"`    // Records yielded
	Dropped   int   `json:"dropped"`    // Records dropped by IgnoreAndContinue
	BytesRead int64 `json:"bytes_read"` // Bytes consumed from the source
}
