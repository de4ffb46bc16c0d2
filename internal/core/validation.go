package core

// validation.go provides record validation hooks for typed records.
//
// Validation happens at two levels:
//  1. Member level: after each field is bound, FieldConfig.Validate and the
//     record's FieldValidator run against the stored value (MemberLevel)
//  2. Object level: after all fields are bound, the record's Validator runs (ObjectLevel)
//
// Failures at either level are binding errors and go through the
// configured error modes.

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

// Validator is implemented by record types that check themselves after
// every field has been bound.
type Validator interface {
	Validate() error
}

// FieldValidator is implemented by record types that check one member
// right after it is bound.
type FieldValidator interface {
	ValidateField(name string) error
}

// ValidationError represents a single validation error for a field.
type ValidationError struct {
	Field   string // Field/column name
	Value   string // The invalid value
	Message string // Human-readable error message
}

func (e ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: %s", e.Field, e.Message)
	}
	return e.Message
}

// ValidationErrors collects several validation failures into one error.
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	msgs := make([]string, len(e))
	for i, ve := range e {
		msgs[i] = ve.Error()
	}
	return strings.Join(msgs, "; ")
}

// Err returns nil when there are no failures.
func (e ValidationErrors) Err() error {
	if len(e) == 0 {
		return nil
	}
	return e
}

// ErrRequired is reported by Required for missing values.
var ErrRequired = errors.New("required field is empty")

// Required returns a member rule that rejects zero values.
func Required() func(any) error {
	return func(v any) error {
		if isZero(v) {
			return ErrRequired
		}
		return nil
	}
}

// MaxLen returns a member rule that limits the length of text values.
func MaxLen(n int) func(any) error {
	return func(v any) error {
		if s, ok := v.(string); ok && len([]rune(s)) > n {
			return fmt.Errorf("must be at most %d characters", n)
		}
		return nil
	}
}

// Between returns a member rule that bounds numeric values, inclusive.
func Between(lo, hi float64) func(any) error {
	return func(v any) error {
		f, ok := asFloat(v)
		if !ok {
			return nil
		}
		if f < lo || f > hi {
			return fmt.Errorf("must be between %g and %g", lo, hi)
		}
		return nil
	}
}

func isZero(v any) bool {
	switch x := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(x) == ""
	case time.Time:
		return x.IsZero()
	case uuid.UUID:
		return x == uuid.Nil
	case pgtype.Numeric:
		return !x.Valid
	case pgtype.Text:
		return !x.Valid || x.String == ""
	case pgtype.Date:
		return !x.Valid
	}
	return false
}

func asFloat(v any) (float64, bool) {
	switch x := v.(type) {
	case int:
		return float64(x), true
	case int32:
		return float64(x), true
	case int64:
		return float64(x), true
	case float32:
		return float64(x), true
	case float64:
		return x, true
	case pgtype.Numeric:
		f, err := x.Float64Value()
		if err != nil || !f.Valid {
			return 0, false
		}
		return f.Float64, true
	}
	return 0, false
}
