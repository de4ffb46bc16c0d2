package core

import "strings"

// Split breaks one logical line into raw field tokens.
//
// A token is quoted when it starts with the quote rune. Inside a quoted span
// the delimiter and line breaks are literal content, and a doubled quote
// stands for one quote. Quoted tokens keep their outer quotes; removing them
// is the cleaner's job. A quote that does not start a token is literal.
func Split(line, delim string, quote rune, opts SplitOption) ([]string, error) {
	if delim == "" {
		delim = DefaultDelimiter
	}

	var (
		fields   []string
		field    strings.Builder
		inQuotes bool
		atStart  = true
	)

	flush := func() {
		if opts&RemoveEmptyEntries == 0 || field.Len() > 0 {
			fields = append(fields, field.String())
		}
		field.Reset()
		atStart = true
	}

	runes := []rune(line)
	delimRunes := []rune(delim)

	for i := 0; i < len(runes); i++ {
		c := runes[i]

		if inQuotes {
			if c == quote {
				if i+1 < len(runes) && runes[i+1] == quote {
					field.WriteRune(quote)
					i++
					continue
				}
				inQuotes = false
			}
			field.WriteRune(c)
			continue
		}

		if hasRunesAt(runes, i, delimRunes) {
			flush()
			i += len(delimRunes) - 1
			continue
		}

		switch {
		case c == quote && atStart:
			inQuotes = true
			atStart = false
		case c == ' ' || c == '\t':
			// Leading blanks before an opening quote are kept for the cleaner.
		default:
			atStart = false
		}
		field.WriteRune(c)
	}

	if inQuotes {
		return nil, ErrUnterminatedQuote
	}
	flush()
	return fields, nil
}

func hasRunesAt(s []rune, i int, sub []rune) bool {
	if i+len(sub) > len(s) {
		return false
	}
	for j, r := range sub {
		if s[i+j] != r {
			return false
		}
	}
	return true
}
