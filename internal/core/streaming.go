package core

// streaming.go conditions the raw byte stream before lines are split.
//
// Every parse pass builds a fresh chain on top of the (rewound) source:
//
//   - countingReader: tracks bytes consumed from the source for Stats
//   - charset decoding: non-UTF-8 sources are decoded with golang.org/x/text
//   - bomSkippingReader: removes a UTF-8 BOM (0xEF 0xBB 0xBF)
//   - utf8Sanitizer: replaces invalid UTF-8 bytes with '?'
//
// Use wrapForStreaming to apply all transforms in the correct order.

import (
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/ianaindex"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// lookupEncoding resolves an IANA charset name. A nil encoding means the
// source is UTF-8 and needs no decoding.
func lookupEncoding(name string) (encoding.Encoding, error) {
	switch strings.ToLower(strings.ReplaceAll(name, "-", "")) {
	case "", "utf8":
		return nil, nil
	}
	enc, err := ianaindex.IANA.Encoding(name)
	if err != nil {
		return nil, fmt.Errorf("unknown encoding %q: %w", name, err)
	}
	if enc == nil {
		return nil, fmt.Errorf("unsupported encoding %q", name)
	}
	if enc == unicode.UTF8 {
		return nil, nil
	}
	return enc, nil
}

// utf8Sanitizer replaces invalid UTF-8 sequences with '?' on the fly.
// Incomplete sequences at the end of a read are held back for the next one.
type utf8Sanitizer struct {
	reader  io.Reader
	pending []byte
}

func newUTF8Sanitizer(r io.Reader) *utf8Sanitizer {
	return &utf8Sanitizer{reader: r, pending: make([]byte, 0, utf8.UTFMax)}
}

func (s *utf8Sanitizer) Read(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}

	offset := 0
	if len(s.pending) > 0 {
		offset = copy(p, s.pending)
		s.pending = s.pending[:0]
	}

	n, err := s.reader.Read(p[offset:])
	n += offset
	if n == 0 {
		return 0, err
	}
	if isAllASCII(p[:n]) {
		return n, err
	}
	return s.sanitize(p[:n], err == io.EOF), err
}

func isAllASCII(data []byte) bool {
	for _, b := range data {
		if b >= 0x80 {
			return false
		}
	}
	return true
}

// sanitize rewrites data in place and returns the number of usable bytes.
func (s *utf8Sanitizer) sanitize(data []byte, atEOF bool) int {
	write := 0
	for read := 0; read < len(data); {
		if !atEOF && !utf8.FullRune(data[read:]) {
			s.pending = append(s.pending, data[read:]...)
			return write
		}
		r, size := utf8.DecodeRune(data[read:])
		if r == utf8.RuneError && size == 1 {
			data[write] = '?'
			write++
			read++
			continue
		}
		copy(data[write:], data[read:read+size])
		write += size
		read += size
	}
	return write
}

// bomSkippingReader drops a leading UTF-8 BOM.
type bomSkippingReader struct {
	reader  io.Reader
	checked bool
	buf     []byte
}

func newBOMSkippingReader(r io.Reader) *bomSkippingReader {
	return &bomSkippingReader{reader: r}
}

func (r *bomSkippingReader) Read(p []byte) (int, error) {
	if !r.checked {
		r.checked = true
		head := make([]byte, 3)
		n, err := io.ReadFull(r.reader, head)
		head = head[:n]
		if n == 3 && head[0] == 0xEF && head[1] == 0xBB && head[2] == 0xBF {
			head = nil
		}
		r.buf = head
		if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
			return 0, err
		}
	}
	if len(r.buf) > 0 {
		n := copy(p, r.buf)
		r.buf = r.buf[n:]
		return n, nil
	}
	return r.reader.Read(p)
}

// countingReader tracks bytes read from the underlying source.
type countingReader struct {
	reader    io.Reader
	bytesRead int64
}

func (r *countingReader) Read(p []byte) (int, error) {
	n, err := r.reader.Read(p)
	r.bytesRead += int64(n)
	return n, err
}

// wrapForStreaming builds the reader chain for one pass.
//
// The order matters:
//  1. Counting wraps the raw source so Stats reports source bytes
//  2. Charset decoding produces UTF-8
//  3. The BOM is stripped before any line is read
//  4. UTF-8 sanitization happens last
func wrapForStreaming(r io.Reader, charset string) (io.Reader, *countingReader, error) {
	counter := &countingReader{reader: r}
	enc, err := lookupEncoding(charset)
	if err != nil {
		return nil, nil, err
	}
	var decoded io.Reader = counter
	if enc != nil {
		decoded = transform.NewReader(counter, enc.NewDecoder())
	}
	return newUTF8Sanitizer(newBOMSkippingReader(decoded)), counter, nil
}
