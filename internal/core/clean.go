package core

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// trimValue applies a trim policy.
func trimValue(s string, opt TrimOption) string {
	switch opt {
	case Trim:
		return strings.TrimSpace(s)
	case TrimStart:
		return strings.TrimLeftFunc(s, unicode.IsSpace)
	case TrimEnd:
		return strings.TrimRightFunc(s, unicode.IsSpace)
	default:
		return s
	}
}

// unquote strips exactly one layer of quotes when s is wrapped in them.
func unquote(s string, quote rune) (string, bool) {
	q := string(quote)
	if len(s) >= 2*len(q) && strings.HasPrefix(s, q) && strings.HasSuffix(s, q) {
		return s[len(q) : len(s)-len(q)], true
	}
	return s, false
}

// CleanFieldValue applies the field's trim, size and quote policies to a raw
// token. A nil value passes through unchanged. line is only used for errors.
func (c *Config) CleanFieldValue(f *FieldConfig, value *string, line int) (*string, error) {
	if value == nil {
		return nil, nil
	}
	v := trimValue(*value, f.Trim)

	if f.Size > 0 {
		if n := utf8.RuneCountInString(v); n > f.Size {
			if !f.Truncate {
				return nil, parseErrorf(line, ErrFieldTooLong,
					"field %q [expected: %d, actual: %d]", f.Name, f.Size, n)
			}
			v = string([]rune(v)[:f.Size])
		}
	}

	if f.QuoteRequired || c.QuoteAllFields ||
		strings.Contains(v, c.Delimiter) || strings.Contains(v, c.EOLDelimiter) {
		v, _ = unquote(v, c.QuoteChar)
	}
	return &v, nil
}

// CleanHeaderValue trims and unquotes one header token. It repeats until
// the name is stable, so cleaning a cleaned name is a no-op.
func (c *Config) CleanHeaderValue(value string) string {
	v := trimValue(value, c.HeaderTrim)
	for c.QuoteAllFields {
		u, ok := unquote(v, c.QuoteChar)
		if !ok {
			break
		}
		v = trimValue(u, c.HeaderTrim)
	}
	return v
}
