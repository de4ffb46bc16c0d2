package core

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Default parse settings. They match the conventions of spreadsheet exports.
const (
	DefaultDelimiter    = ","
	DefaultEOLDelimiter = "\n"
	DefaultQuoteChar    = '"'
	DefaultEncoding     = "UTF-8"
)

// DefaultComments are the comment prefixes used by NewConfig.
var DefaultComments = []string{"#", "//"}

// FieldConfig describes how one field is located, cleaned and bound.
type FieldConfig struct {
	Name       string    // Unique key; also the header name in header mode
	Position   int       // 1-based source position, used when there is no header
	Type       FieldType // Target type for Bag records
	EnumValues []string  // Valid values for FieldEnum

	Trim          TrimOption
	Size          int  // Max length in runes; 0 means unlimited
	Truncate      bool // Truncate instead of failing when Size is exceeded
	QuoteRequired bool // Always strip one layer of quotes

	ErrorMode    ErrorMode // ErrorModeUnset inherits Config.ErrorMode
	Fallback     any       // Assigned when binding fails; nil means none
	IgnoreMode   IgnoreValueMode
	IgnoreValues []string // Cleaned values that are never bound

	Normalizer func(string) string // Optional transformation after cleaning
	Validate   func(any) error     // Member-level rule for typed records
}

// errorMode returns the effective error mode for the field.
func (f *FieldConfig) errorMode(global ErrorMode) ErrorMode {
	if f.ErrorMode == ErrorModeUnset {
		return global
	}
	return f.ErrorMode
}

// ignoreValue reports whether value should not be bound.
func (f *FieldConfig) ignoreValue(value *string) bool {
	if value == nil {
		return f.IgnoreMode&IgnoreNull != 0
	}
	if f.IgnoreMode&IgnoreEmpty != 0 && *value == "" {
		return true
	}
	if f.IgnoreMode&IgnoreWhiteSpace != 0 && strings.TrimSpace(*value) == "" {
		return true
	}
	for _, v := range f.IgnoreValues {
		if v == *value {
			return true
		}
	}
	return false
}

// Config holds the settings for one parse session.
//
// A Config is validated eagerly by NewParser and then treated as read-only.
// The parser works on its own copy, so the separator directive never
// changes the caller's Config.
type Config struct {
	Delimiter    string
	EOLDelimiter string
	QuoteChar    rune
	Comments     []string
	Encoding     string       // IANA charset name of the source
	Culture      language.Tag // Used for case folding and number/date conversion

	IgnoreEmptyLine           bool
	ColumnCountStrict         bool
	HasHeader                 bool
	HeaderTrim                TrimOption
	QuoteAllFields            bool
	RequireSeparatorDirective bool
	SplitOptions              SplitOption

	ValidationMode             ValidationMode
	ErrorMode                  ErrorMode
	ThrowAndStopOnMissingField bool
	ApplyFallbackToBags        bool

	Fields []*FieldConfig
}

// NewConfig returns a Config with the default settings.
func NewConfig() *Config {
	return &Config{
		Delimiter:                  DefaultDelimiter,
		EOLDelimiter:               DefaultEOLDelimiter,
		QuoteChar:                  DefaultQuoteChar,
		Comments:                   append([]string(nil), DefaultComments...),
		Encoding:                   DefaultEncoding,
		Culture:                    language.AmericanEnglish,
		ColumnCountStrict:          true,
		QuoteAllFields:             true,
		ErrorMode:                  ThrowAndStop,
		ThrowAndStopOnMissingField: true,
	}
}

// AddField appends a field and returns it for further configuration.
func (c *Config) AddField(name string, position int, ft FieldType) *FieldConfig {
	f := &FieldConfig{Name: name, Position: position, Type: ft}
	c.Fields = append(c.Fields, f)
	return f
}

// Clone returns a deep copy of the configuration.
func (c *Config) Clone() *Config {
	out := *c
	out.Comments = append([]string(nil), c.Comments...)
	out.Fields = make([]*FieldConfig, len(c.Fields))
	for i, f := range c.Fields {
		fc := *f
		fc.EnumValues = append([]string(nil), f.EnumValues...)
		fc.IgnoreValues = append([]string(nil), f.IgnoreValues...)
		out.Fields[i] = &fc
	}
	return &out
}

// Validate fills unset settings with defaults and checks the configuration.
// Returns an error describing all validation failures.
func (c *Config) Validate() error {
	if c.Delimiter == "" {
		c.Delimiter = DefaultDelimiter
	}
	if c.EOLDelimiter == "" {
		c.EOLDelimiter = DefaultEOLDelimiter
	}
	if c.QuoteChar == 0 {
		c.QuoteChar = DefaultQuoteChar
	}
	if c.Encoding == "" {
		c.Encoding = DefaultEncoding
	}
	if c.Culture == language.Und {
		c.Culture = language.AmericanEnglish
	}
	if c.ErrorMode == ErrorModeUnset {
		c.ErrorMode = ThrowAndStop
	}

	var errs []string

	quote := string(c.QuoteChar)
	errs = append(errs, c.delimiterProblems(c.Delimiter)...)
	if strings.Contains(c.EOLDelimiter, quote) {
		errs = append(errs, "EOL delimiter must not contain the quote character")
	}
	for _, tok := range c.Comments {
		if strings.TrimSpace(tok) == "" {
			errs = append(errs, "comment tokens must not be blank")
		} else if tok == c.Delimiter {
			errs = append(errs, fmt.Sprintf("comment token %q must differ from the delimiter", tok))
		}
	}
	if _, err := lookupEncoding(c.Encoding); err != nil {
		errs = append(errs, err.Error())
	}

	errs = append(errs, c.validateFields()...)

	if len(errs) > 0 {
		return fmt.Errorf("%w:\n  - %s", ErrInvalidConfig, strings.Join(errs, "\n  - "))
	}
	return nil
}

// delimiterProblems describes why delim cannot be used with this quote
// character and EOL sequence.
func (c *Config) delimiterProblems(delim string) []string {
	var errs []string
	if strings.Contains(delim, string(c.QuoteChar)) {
		errs = append(errs, fmt.Sprintf("delimiter %q must not contain the quote character %q", delim, string(c.QuoteChar)))
	}
	if delim == c.EOLDelimiter {
		errs = append(errs, fmt.Sprintf("delimiter %q must differ from the EOL delimiter", delim))
	}
	return errs
}

// checkDelimiter validates a delimiter set after construction, such as one
// named by a "sep=" line.
func (c *Config) checkDelimiter(delim string) error {
	if errs := c.delimiterProblems(delim); len(errs) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidConfig, strings.Join(errs, "; "))
	}
	return nil
}

// validateFields checks field names and positions.
func (c *Config) validateFields() []string {
	var errs []string
	names := make(map[string]bool, len(c.Fields))
	positions := make(map[int]string, len(c.Fields))

	for i, f := range c.Fields {
		if f == nil {
			errs = append(errs, fmt.Sprintf("field %d is nil", i+1))
			continue
		}
		if strings.TrimSpace(f.Name) == "" {
			errs = append(errs, fmt.Sprintf("field %d has no name", i+1))
			continue
		}
		key := foldKey(f.Name)
		if names[key] {
			errs = append(errs, fmt.Sprintf("duplicate field name %q", f.Name))
		}
		names[key] = true

		if !c.HasHeader {
			if f.Position <= 0 {
				errs = append(errs, fmt.Sprintf("field %q must have a position > 0", f.Name))
			} else if other, ok := positions[f.Position]; ok {
				errs = append(errs, fmt.Sprintf("fields %q and %q share position %d", other, f.Name, f.Position))
			} else {
				positions[f.Position] = f.Name
			}
		}
		if f.Size < 0 {
			errs = append(errs, fmt.Sprintf("field %q size must be non-negative", f.Name))
		}
		if f.Type == FieldEnum && len(f.EnumValues) == 0 {
			errs = append(errs, fmt.Sprintf("enum field %q has no values", f.Name))
		}
		if f.ErrorMode < ErrorModeUnset || f.ErrorMode > ReportAndContinue {
			errs = append(errs, fmt.Sprintf("field %q has an invalid error mode", f.Name))
		}
	}
	return errs
}

// validateHeaders runs the one-time check against the first data-bearing
// line. When no fields are declared they are synthesized from names.
func (c *Config) validateHeaders(names []string) error {
	if len(c.Fields) == 0 {
		for i, name := range names {
			c.AddField(name, i+1, FieldText)
		}
	}
	if errs := c.validateFields(); len(errs) > 0 {
		return fmt.Errorf("%w:\n  - %s", ErrInvalidConfig, strings.Join(errs, "\n  - "))
	}
	return nil
}

// hasPrefixFold reports whether s starts with prefix, ignoring case under
// the configured culture.
func (c *Config) hasPrefixFold(s, prefix string) bool {
	lower := cases.Lower(c.Culture)
	return strings.HasPrefix(lower.String(s), lower.String(prefix))
}

// foldKey returns the case-insensitive comparison key for a name.
func foldKey(s string) string {
	return cases.Fold().String(s)
}
