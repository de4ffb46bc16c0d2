package core

import (
	"errors"
	"fmt"
)

// Structural errors. These describe malformed input and always end the pass.
var (
	ErrEmptyLine         = errors.New("empty line")
	ErrMissingSeparator  = errors.New("missing separator directive line")
	ErrUnterminatedQuote = errors.New("unterminated quoted field")
	ErrFieldCount        = errors.New("wrong number of fields")
	ErrNoHeaders         = errors.New("no headers found")
	ErrEmptyHeader       = errors.New("at least one header is empty")
	ErrDuplicateHeader   = errors.New("duplicate header")
	ErrHeaderCount       = errors.New("wrong number of headers")
	ErrMissingHeaders    = errors.New("header names not found in file header")
	ErrMissingValue      = errors.New("missing field value")
	ErrFieldTooLong      = errors.New("field value exceeds max size")
)

// Binding errors. These are subject to the field and record error modes.
var (
	ErrMissingMember = errors.New("missing member")
	ErrConversion    = errors.New("conversion failed")
	ErrInvalidEnum   = errors.New("invalid enum")
)

// ErrInvalidConfig wraps every configuration validation failure.
var ErrInvalidConfig = errors.New("invalid configuration")

// ParseError reports a structural problem at a specific line.
type ParseError struct {
	Line int
	Err  error
}

func (e *ParseError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("csvload: parse error on line %d: %v", e.Line, e.Err)
}

func (e *ParseError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// parseErrorf builds a ParseError whose message adds detail to the sentinel.
func parseErrorf(line int, sentinel error, format string, args ...any) *ParseError {
	return &ParseError{Line: line, Err: fmt.Errorf("%w: "+format, append([]any{sentinel}, args...)...)}
}

// FieldError reports a failure to bind one field.
type FieldError struct {
	Line  int
	Field string
	Value string
	Err   error
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("csvload: line %d: field %q: %v", e.Line, e.Field, e.Err)
}

func (e *FieldError) Unwrap() error { return e.Err }

// RecordError reports a record that could not be materialized.
type RecordError struct {
	Line int
	Err  error
}

func (e *RecordError) Error() string {
	return fmt.Sprintf("csvload: line %d: record load failed: %v", e.Line, e.Err)
}

func (e *RecordError) Unwrap() error { return e.Err }

// IsStructural reports whether err is a structural parse error.
func IsStructural(err error) bool {
	var pe *ParseError
	return errors.As(err, &pe)
}

// isFatal reports whether err bypasses the field and record error modes.
func isFatal(err error) bool {
	if IsStructural(err) {
		return true
	}
	var fe *FieldError
	return errors.As(err, &fe) && errors.Is(fe.Err, ErrMissingMember)
}
