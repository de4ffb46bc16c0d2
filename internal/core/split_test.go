package core

import (
	"errors"
	"reflect"
	"strings"
	"testing"
)

func TestSplit(t *testing.T) {
	tests := []struct {
		name  string
		line  string
		delim string
		opts  SplitOption
		want  []string
	}{
		{"simple", "a,b,c", ",", SplitNone, []string{"a", "b", "c"}},
		{"empty fields kept", "a,,c,", ",", SplitNone, []string{"a", "", "c", ""}},
		{"empty fields removed", "a,,c,", ",", RemoveEmptyEntries, []string{"a", "c"}},
		{"quoted delimiter", `"a,b",c`, ",", SplitNone, []string{`"a,b"`, "c"}},
		{"doubled quote collapses", `"say ""hi""",x`, ",", SplitNone, []string{`"say "hi""`, "x"}},
		{"embedded newline", "\"a\nb\",c", ",", SplitNone, []string{"\"a\nb\"", "c"}},
		{"quote inside unquoted token is literal", `ab"c,d`, ",", SplitNone, []string{`ab"c`, "d"}},
		{"leading blanks before quote", `  "a,b" ,c`, ",", SplitNone, []string{`  "a,b" `, "c"}},
		{"multi-rune delimiter", "a||b||c", "||", SplitNone, []string{"a", "b", "c"}},
		{"semicolon", "1;2", ";", SplitNone, []string{"1", "2"}},
		{"empty line", "", ",", SplitNone, []string{""}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Split(tt.line, tt.delim, '"', tt.opts)
			if err != nil {
				t.Fatalf("Split(%q): %v", tt.line, err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Split(%q) = %q, want %q", tt.line, got, tt.want)
			}
		})
	}
}

func TestSplit_UnterminatedQuote(t *testing.T) {
	_, err := Split(`a,"bc`, ",", '"', SplitNone)
	if !errors.Is(err, ErrUnterminatedQuote) {
		t.Errorf("got %v, want ErrUnterminatedQuote", err)
	}
}

func TestSplit_RoundTrip(t *testing.T) {
	values := [][]string{
		{"1", "Alice", "alice@example.com"},
		{"", "x", ""},
		{"a b", " c ", "d"},
	}
	for _, delim := range []string{",", ";", "\t", "::"} {
		for _, want := range values {
			line := strings.Join(want, delim)
			got, err := Split(line, delim, '"', SplitNone)
			if err != nil {
				t.Fatalf("Split(%q): %v", line, err)
			}
			if !reflect.DeepEqual(got, want) {
				t.Errorf("delim %q: got %q, want %q", delim, got, want)
			}
		}
	}
}
