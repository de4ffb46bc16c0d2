package core

import (
	"bufio"
	"io"
	"strings"
)

const defaultBufferSize = 4096

// LineReader splits a character stream into logical lines. An EOL sequence
// inside an open quoted span does not end the line, so one logical line may
// cover several physical lines.
//
// Quoted spans are tracked the way Split sees them: a quote opens a span only
// at the start of a token (after the delimiter and any leading blanks), and a
// doubled quote inside a span is literal.
type LineReader struct {
	r     *bufio.Reader
	eol   []rune
	delim []rune
	quote rune
	line  int
	done  bool
	err   error
	buf   strings.Builder

	// per-line lexer state
	inQuotes bool
	atStart  bool
	runes    int // runes written to buf
	delimEnd int // rune offset just past the last delimiter
}

// NewLineReader creates a LineReader for the given EOL sequence, delimiter
// and quote rune.
func NewLineReader(r io.Reader, eol, delim string, quote rune) *LineReader {
	if eol == "" {
		eol = DefaultEOLDelimiter
	}
	lr := &LineReader{
		r:     bufio.NewReaderSize(r, defaultBufferSize),
		eol:   []rune(eol),
		quote: quote,
	}
	lr.SetDelimiter(delim)
	return lr
}

// SetDelimiter changes the delimiter used to find token starts. It applies
// from the next line on.
func (lr *LineReader) SetDelimiter(delim string) {
	if delim == "" {
		delim = DefaultDelimiter
	}
	lr.delim = []rune(delim)
}

// Next returns the next logical line, or io.EOF when the input is exhausted.
func (lr *LineReader) Next() (Line, error) {
	if lr.done {
		return Line{}, io.EOF
	}

	lr.buf.Reset()
	lr.inQuotes, lr.atStart = false, true
	lr.runes, lr.delimEnd = 0, 0

	// pending holds runes that match a prefix of the EOL sequence.
	var pending []rune

	for {
		c, err := lr.readRune()
		if err != nil {
			lr.done = true
			if err != io.EOF {
				return Line{}, err
			}
			for _, r := range pending {
				lr.write(r)
			}
			if lr.buf.Len() == 0 {
				return Line{}, io.EOF
			}
			return lr.emit(), nil
		}

		if lr.inQuotes {
			lr.quoted(c)
			continue
		}

		pending = append(pending, c)
		for len(pending) > 0 && !runesHavePrefix(lr.eol, pending) {
			lr.write(pending[0])
			pending = pending[1:]
		}
		if len(pending) == len(lr.eol) {
			return lr.emit(), nil
		}
	}
}

// quoted handles a rune inside a quoted span.
func (lr *LineReader) quoted(c rune) {
	lr.append(c)
	if c != lr.quote {
		return
	}
	next, err := lr.readRune()
	if err != nil {
		lr.inQuotes = false
		return
	}
	if next == lr.quote {
		lr.append(next)
		return
	}
	lr.inQuotes = false
	_ = lr.r.UnreadRune()
}

// write handles a rune outside a quoted span.
func (lr *LineReader) write(c rune) {
	lr.append(c)

	n := len(lr.delim)
	if lr.runes-n >= lr.delimEnd && strings.HasSuffix(lr.buf.String(), string(lr.delim)) {
		lr.delimEnd = lr.runes
		lr.atStart = true
		return
	}

	switch {
	case c == lr.quote && lr.atStart:
		lr.inQuotes = true
		lr.atStart = false
	case c == ' ' || c == '\t':
	default:
		lr.atStart = false
	}
}

func (lr *LineReader) append(c rune) {
	lr.buf.WriteRune(c)
	lr.runes++
}

func (lr *LineReader) readRune() (rune, error) {
	if lr.err != nil {
		return 0, lr.err
	}
	c, _, err := lr.r.ReadRune()
	if err != nil {
		lr.err = err
	}
	return c, err
}

// LineNumber returns the number of the last line returned by Next.
func (lr *LineReader) LineNumber() int {
	return lr.line
}

func (lr *LineReader) emit() Line {
	lr.line++
	text := lr.buf.String()
	if len(lr.eol) == 1 && lr.eol[0] == '\n' {
		text = strings.TrimSuffix(text, "\r")
	}
	return Line{Number: lr.line, Text: text}
}

func runesHavePrefix(s, prefix []rune) bool {
	if len(prefix) > len(s) {
		return false
	}
	for i, r := range prefix {
		if s[i] != r {
			return false
		}
	}
	return true
}
