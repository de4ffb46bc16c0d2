package core

import (
	"bytes"
	"io"
	"strings"
	"testing"
)

func TestBOMSkippingReader(t *testing.T) {
	tests := []struct {
		name     string
		input    []byte
		expected string
	}{
		{"file with BOM", append([]byte{0xEF, 0xBB, 0xBF}, "hello,world"...), "hello,world"},
		{"file without BOM", []byte("hello,world"), "hello,world"},
		{"empty file", []byte{}, ""},
		{"only BOM", []byte{0xEF, 0xBB, 0xBF}, ""},
		{"partial BOM at start", []byte{0xEF, 0xBB, 'a'}, string([]byte{0xEF, 0xBB, 'a'})},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := io.ReadAll(newBOMSkippingReader(bytes.NewReader(tt.input)))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if string(result) != tt.expected {
				t.Errorf("got %q, want %q", string(result), tt.expected)
			}
		})
	}
}

func TestUTF8Sanitizer(t *testing.T) {
	tests := []struct {
		name     string
		input    []byte
		expected string
	}{
		{"valid ASCII", []byte("hello,world"), "hello,world"},
		{"valid multibyte", []byte("café"), "café"},
		{"invalid single byte replaced", []byte{'h', 'e', 0x80, 'l', 'o'}, "he?lo"},
		{"truncated rune at end", []byte{'a', 0xC3}, "a?"},
		{"empty input", []byte{}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := io.ReadAll(newUTF8Sanitizer(bytes.NewReader(tt.input)))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if string(result) != tt.expected {
				t.Errorf("got %q, want %q", string(result), tt.expected)
			}
		})
	}
}

func TestUTF8Sanitizer_SplitRune(t *testing.T) {
	// A two-byte rune split across reads must survive intact.
	input := []byte("xéy")
	r := newUTF8Sanitizer(io.MultiReader(bytes.NewReader(input[:2]), bytes.NewReader(input[2:])))
	result, err := io.ReadAll(r)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(result) != "xéy" {
		t.Errorf("got %q, want %q", result, "xéy")
	}
}

func TestCountingReader(t *testing.T) {
	input := strings.Repeat("x", 1000)
	reader := &countingReader{reader: strings.NewReader(input)}

	buf := make([]byte, 100)
	for {
		_, err := reader.Read(buf)
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if reader.bytesRead != int64(len(input)) {
		t.Errorf("bytesRead = %d, want %d", reader.bytesRead, len(input))
	}
}

func TestWrapForStreaming(t *testing.T) {
	input := append([]byte{0xEF, 0xBB, 0xBF}, 'h', 'e', 0x80, 'l', 'o')

	reader, counter, err := wrapForStreaming(bytes.NewReader(input), "UTF-8")
	if err != nil {
		t.Fatalf("wrapForStreaming: %v", err)
	}
	result, err := io.ReadAll(reader)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(result) != "he?lo" {
		t.Errorf("got %q, want %q", string(result), "he?lo")
	}
	if counter.bytesRead != int64(len(input)) {
		t.Errorf("bytesRead = %d, want %d", counter.bytesRead, len(input))
	}
}

func TestWrapForStreaming_Latin1(t *testing.T) {
	// "caf\xe9" is "café" in ISO-8859-1.
	reader, _, err := wrapForStreaming(bytes.NewReader([]byte("caf\xe9")), "ISO-8859-1")
	if err != nil {
		t.Fatalf("wrapForStreaming: %v", err)
	}
	result, err := io.ReadAll(reader)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(result) != "café" {
		t.Errorf("got %q, want %q", result, "café")
	}
}

func TestLookupEncoding(t *testing.T) {
	tests := []struct {
		name    string
		wantNil bool
		wantErr bool
	}{
		{"UTF-8", true, false},
		{"utf8", true, false},
		{"windows-1252", false, false},
		{"Shift_JIS", false, false},
		{"no-such-charset", true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			enc, err := lookupEncoding(tt.name)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if (enc == nil) != tt.wantNil {
				t.Errorf("enc nil = %v, want %v", enc == nil, tt.wantNil)
			}
		})
	}
}
