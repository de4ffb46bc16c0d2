package core

// convert.go provides culture-aware conversion of cleaned field text to Go
// values, for both Bag fields (by FieldType) and typed record members (by
// the member's reflect.Type).
//
// These functions handle the messy reality of delimited exports:
//   - Multiple date formats (US, EU, ISO, etc.), ordered by the culture
//   - Culture-specific decimal and grouping separators
//   - Currency symbols and accounting negatives in numerics
//   - Various boolean representations (yes/no, true/false, 1/0)
//
// The ToPg* functions return pgtype values with Valid=false for empty or
// invalid input, so the target keeps a NULL rather than a bogus value.

import (
	"encoding"
	"fmt"
	"reflect"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"golang.org/x/text/language"
)

// numericRegex validates that a string is a valid numeric format after cleanup.
// Matches integers, decimals, and scientific notation.
var numericRegex = regexp.MustCompile(`^[+-]?(\d+(\.\d*)?|\.\d+)([eE][+-]?\d+)?$`)

// TwoDigitYearPivot defines how 2-digit years are interpreted.
// Years that would result in dates more than this many years in the future
// are assumed to be in the previous century.
var TwoDigitYearPivot = 20

// Date layouts split by year format for proper 2-digit year handling.
var (
	isoLayouts = []string{
		time.RFC3339, "2006-01-02T15:04:05", "2006-01-02 15:04:05",
		"2006-01-02", "2006/01/02", "2006.01.02", "20060102",
		"Jan 2, 2006", "2 Jan 2006",
	}
	monthFirstLayouts = []string{
		"1/2/2006", "01/02/2006", "1-2-2006", "01-02-2006", "1.2.2006", "01.02.2006",
	}
	dayFirstLayouts = []string{
		"2/1/2006", "02/01/2006", "2-1-2006", "02-01-2006", "2.1.2006", "02.01.2006",
	}
	monthFirstTwoDigit = []string{"1/2/06", "01/02/06", "1-2-06", "1.2.06", "01.02.06"}
	dayFirstTwoDigit   = []string{"2/1/06", "02/01/06", "2-1-06", "2.1.06", "02.01.06"}
)

var (
	timeType            = reflect.TypeOf(time.Time{})
	durationType        = reflect.TypeOf(time.Duration(0))
	uuidType            = reflect.TypeOf(uuid.UUID{})
	pgNumericType       = reflect.TypeOf(pgtype.Numeric{})
	pgDateType          = reflect.TypeOf(pgtype.Date{})
	pgTimestampType     = reflect.TypeOf(pgtype.Timestamp{})
	pgTextType          = reflect.TypeOf(pgtype.Text{})
	pgBoolType          = reflect.TypeOf(pgtype.Bool{})
	pgInt4Type          = reflect.TypeOf(pgtype.Int4{})
	pgInt8Type          = reflect.TypeOf(pgtype.Int8{})
	pgFloat8Type        = reflect.TypeOf(pgtype.Float8{})
	pgUUIDType          = reflect.TypeOf(pgtype.UUID{})
	textUnmarshalerType = reflect.TypeOf((*encoding.TextUnmarshaler)(nil)).Elem()
)

// Converter converts field text using the conventions of one culture.
type Converter struct {
	culture  language.Tag
	decimal  string
	group    string
	dayFirst bool
}

// NewConverter creates a Converter for the given culture.
func NewConverter(culture language.Tag) *Converter {
	c := &Converter{culture: culture, decimal: ".", group: ","}

	base, _ := culture.Base()
	region, _ := culture.Region()
	switch base.String() {
	case "de", "es", "it", "nl", "pt", "id", "tr", "da", "ro", "el", "hr", "sl":
		c.decimal, c.group = ",", "."
	case "fr", "ru", "pl", "sv", "nb", "no", "fi", "cs", "sk", "uk", "bg", "hu", "lt", "lv", "et":
		c.decimal, c.group = ",", " "
	}
	switch region.String() {
	case "US", "PH":
		c.dayFirst = false
	default:
		c.dayFirst = true
	}
	return c
}

// Convert converts a cleaned value to the Go type a Bag stores for ft.
// Absent values stay nil; empty values of non-text types become nil.
func (c *Converter) Convert(value *string, ft FieldType) (any, error) {
	if value == nil {
		return nil, nil
	}
	if ft == FieldText || ft == FieldEnum {
		return *value, nil
	}
	if strings.TrimSpace(*value) == "" {
		return nil, nil
	}
	v, err := c.ConvertTo(*value, ft.goType())
	if err != nil {
		return nil, err
	}
	return v.Interface(), nil
}

// ConvertTo converts value to a value of type t. Strings are parsed; other
// values are assigned or converted when Go allows it, otherwise formatted
// and parsed.
func (c *Converter) ConvertTo(value any, t reflect.Type) (reflect.Value, error) {
	if value == nil {
		return reflect.Zero(t), nil
	}
	rv := reflect.ValueOf(value)
	if rv.Type().AssignableTo(t) {
		out := reflect.New(t).Elem()
		out.Set(rv)
		return out, nil
	}

	s, ok := value.(string)
	if !ok {
		if isNumberKind(rv.Kind()) && isNumberKind(t.Kind()) {
			return rv.Convert(t), nil
		}
		s = fmt.Sprint(value)
	}
	return c.parse(s, t)
}

func (c *Converter) parse(s string, t reflect.Type) (reflect.Value, error) {
	trimmed := strings.TrimSpace(s)

	if t.Kind() == reflect.Pointer {
		if trimmed == "" {
			return reflect.Zero(t), nil
		}
		elem, err := c.parse(s, t.Elem())
		if err != nil {
			return reflect.Value{}, err
		}
		p := reflect.New(t.Elem())
		p.Elem().Set(elem)
		return p, nil
	}

	if t.Kind() == reflect.String {
		return reflect.ValueOf(s).Convert(t), nil
	}
	if trimmed == "" {
		return reflect.Zero(t), nil
	}

	var out any
	var ok bool
	switch t {
	case timeType:
		out, ok = c.parseDate(trimmed)
	case durationType:
		d, err := time.ParseDuration(trimmed)
		out, ok = d, err == nil
	case uuidType:
		u, err := uuid.Parse(trimmed)
		out, ok = u, err == nil
	case pgNumericType:
		n := ToPgNumeric(c.normalizeNumber(trimmed))
		out, ok = n, n.Valid
	case pgDateType:
		d, valid := c.parseDate(trimmed)
		out, ok = pgtype.Date{Time: d, Valid: valid}, valid
	case pgTimestampType:
		d, valid := c.parseDate(trimmed)
		out, ok = pgtype.Timestamp{Time: d, Valid: valid}, valid
	case pgTextType:
		out, ok = ToPgText(s), true
	case pgBoolType:
		b := ToPgBool(trimmed)
		out, ok = b, b.Valid
	case pgInt4Type:
		i, err := strconv.ParseInt(c.normalizeInteger(trimmed), 10, 32)
		out, ok = pgtype.Int4{Int32: int32(i), Valid: true}, err == nil
	case pgInt8Type:
		i, err := strconv.ParseInt(c.normalizeInteger(trimmed), 10, 64)
		out, ok = pgtype.Int8{Int64: i, Valid: true}, err == nil
	case pgFloat8Type:
		f, err := strconv.ParseFloat(c.normalizeNumber(trimmed), 64)
		out, ok = pgtype.Float8{Float64: f, Valid: true}, err == nil
	case pgUUIDType:
		u := ToPgUUID(trimmed)
		out, ok = u, u.Valid
	}
	if out != nil {
		if !ok {
			return reflect.Value{}, conversionError(s, t)
		}
		return reflect.ValueOf(out), nil
	}

	if reflect.PointerTo(t).Implements(textUnmarshalerType) {
		p := reflect.New(t)
		if err := p.Interface().(encoding.TextUnmarshaler).UnmarshalText([]byte(trimmed)); err != nil {
			return reflect.Value{}, fmt.Errorf("%w: %q to %s: %v", ErrConversion, s, t, err)
		}
		return p.Elem(), nil
	}

	v := reflect.New(t).Elem()
	switch t.Kind() {
	case reflect.Bool:
		b := ToPgBool(trimmed)
		if !b.Valid {
			return reflect.Value{}, conversionError(s, t)
		}
		v.SetBool(b.Bool)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		i, err := strconv.ParseInt(c.normalizeInteger(trimmed), 10, t.Bits())
		if err != nil {
			return reflect.Value{}, conversionError(s, t)
		}
		v.SetInt(i)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		u, err := strconv.ParseUint(c.normalizeInteger(trimmed), 10, t.Bits())
		if err != nil {
			return reflect.Value{}, conversionError(s, t)
		}
		v.SetUint(u)
	case reflect.Float32, reflect.Float64:
		f, err := strconv.ParseFloat(c.normalizeNumber(trimmed), t.Bits())
		if err != nil {
			return reflect.Value{}, conversionError(s, t)
		}
		v.SetFloat(f)
	case reflect.Interface:
		if t.NumMethod() != 0 {
			return reflect.Value{}, conversionError(s, t)
		}
		v.Set(reflect.ValueOf(s))
	default:
		return reflect.Value{}, fmt.Errorf("%w: unsupported target type %s", ErrConversion, t)
	}
	return v, nil
}

func conversionError(s string, t reflect.Type) error {
	return fmt.Errorf("%w: cannot convert %q to %s", ErrConversion, s, t)
}

func isNumberKind(k reflect.Kind) bool {
	return (k >= reflect.Int && k <= reflect.Uint64) || k == reflect.Float32 || k == reflect.Float64
}

// normalizeNumber rewrites a culture-formatted number into Go syntax.
func (c *Converter) normalizeNumber(s string) string {
	s = c.stripGroups(s)
	if c.decimal != "." {
		s = strings.ReplaceAll(s, c.decimal, ".")
	}
	return s
}

// normalizeInteger removes grouping separators from an integer.
func (c *Converter) normalizeInteger(s string) string {
	return c.stripGroups(s)
}

func (c *Converter) stripGroups(s string) string {
	if c.group == " " {
		return strings.NewReplacer(" ", "", "\u00a0", "", "\u202f", "").Replace(s)
	}
	return strings.ReplaceAll(s, c.group, "")
}

// parseDate tries ISO layouts first, then the culture's ordering, then
// two-digit years with the pivot adjustment.
func (c *Converter) parseDate(s string) (time.Time, bool) {
	fourDigit, twoDigit := monthFirstLayouts, monthFirstTwoDigit
	if c.dayFirst {
		fourDigit, twoDigit = dayFirstLayouts, dayFirstTwoDigit
	}

	for _, layouts := range [][]string{isoLayouts, fourDigit} {
		for _, layout := range layouts {
			if t, err := time.Parse(layout, s); err == nil {
				return t, true
			}
		}
	}

	pivotYear := time.Now().Year() + TwoDigitYearPivot
	for _, layout := range twoDigit {
		if t, err := time.Parse(layout, s); err == nil {
			// Go maps 00-68 to 2000-2068; apply our own pivot instead.
			if t.Year() > pivotYear {
				t = t.AddDate(-100, 0, 0)
			}
			return t, true
		}
	}
	return time.Time{}, false
}

// ToPgText converts a string to pgtype.Text.
// Returns invalid if the string is empty or only whitespace.
func ToPgText(s string) pgtype.Text {
	s = strings.TrimSpace(s)
	if s == "" {
		return pgtype.Text{Valid: false}
	}
	return pgtype.Text{String: s, Valid: true}
}

// ToPgDate converts a string to pgtype.Date using US month-first ordering.
func ToPgDate(s string) pgtype.Date {
	t, ok := NewConverter(language.AmericanEnglish).parseDate(strings.TrimSpace(s))
	return pgtype.Date{Time: t, Valid: ok}
}

// ToPgNumeric converts a string to pgtype.Numeric.
// Handles currency symbols, thousands separators, and accounting format (parentheses for negative).
func ToPgNumeric(s string) pgtype.Numeric {
	s = strings.TrimSpace(s)
	if s == "" {
		return pgtype.Numeric{Valid: false}
	}

	isNegative := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		isNegative = true
		s = strings.TrimSpace(s[1 : len(s)-1])
	}

	s = strings.ReplaceAll(s, "$", "")
	s = strings.ReplaceAll(s, "\u20ac", "") // Euro
	s = strings.ReplaceAll(s, "\u00a3", "") // Pound
	s = strings.ReplaceAll(s, ",", "")
	s = strings.TrimSpace(s)

	if isNegative {
		s = "-" + s
	}

	if !numericRegex.MatchString(s) {
		return pgtype.Numeric{Valid: false}
	}

	var n pgtype.Numeric
	if err := n.Scan(s); err != nil {
		return pgtype.Numeric{Valid: false}
	}
	return n
}

// ToPgBool converts a string to pgtype.Bool.
// Accepts various representations: true/false, yes/no, t/f, y/n, 1/0.
func ToPgBool(s string) pgtype.Bool {
	s = strings.TrimSpace(strings.ToLower(s))
	if s == "" {
		return pgtype.Bool{Valid: false}
	}

	switch s {
	case "true", "t", "yes", "y", "1":
		return pgtype.Bool{Bool: true, Valid: true}
	case "false", "f", "no", "n", "0":
		return pgtype.Bool{Bool: false, Valid: true}
	default:
		return pgtype.Bool{Valid: false}
	}
}

// ToPgUUID converts a string to pgtype.UUID.
// Returns invalid if the string is empty or not a valid UUID.
func ToPgUUID(s string) pgtype.UUID {
	if s == "" {
		return pgtype.UUID{Valid: false}
	}
	parsed, err := uuid.Parse(s)
	if err != nil {
		return pgtype.UUID{Valid: false}
	}
	return pgtype.UUID{Bytes: parsed, Valid: true}
}
