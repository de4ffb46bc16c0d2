package core

import (
	"strings"
	"testing"
)

func testLayout(key, group string) Layout {
	return Layout{
		Key:   key,
		Group: group,
		Label: strings.ToUpper(key),
		Config: func() *Config {
			cfg := NewConfig()
			cfg.HasHeader = true
			cfg.AddField("Id", 0, FieldInt)
			cfg.AddField("Name", 0, FieldText)
			return cfg
		},
	}
}

func TestRegistry(t *testing.T) {
	Clear()
	t.Cleanup(Clear)

	Register(testLayout("b", "Finance"))
	Register(testLayout("a", "Finance"))
	Register(testLayout("z", "CRM"))

	if LayoutCount() != 3 {
		t.Fatalf("LayoutCount = %d, want 3", LayoutCount())
	}
	var keys []string
	for _, l := range All() {
		keys = append(keys, l.Key)
	}
	if got := strings.Join(keys, ","); got != "z,a,b" {
		t.Errorf("All order = %s, want z,a,b", got)
	}
	if _, ok := Get("a"); !ok {
		t.Error("Get(a) not found")
	}
	if _, ok := Get("missing"); ok {
		t.Error("Get(missing) found")
	}
}

func TestRegister_Panics(t *testing.T) {
	Clear()
	t.Cleanup(Clear)
	Register(testLayout("dup", "X"))

	tests := []struct {
		name   string
		layout Layout
	}{
		{"duplicate key", testLayout("dup", "Y")},
		{"empty key", testLayout("", "X")},
		{"nil config", Layout{Key: "noconfig"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			defer func() {
				if recover() == nil {
					t.Error("expected panic")
				}
			}()
			Register(tt.layout)
		})
	}
}

func TestLayout_NewParser(t *testing.T) {
	l := testLayout("people", "X")

	if got := strings.Join(l.Columns(), ","); got != "Id,Name" {
		t.Errorf("Columns = %s", got)
	}

	p, err := l.NewParser(strings.NewReader("Id;Name\n1;Ann\n"), func(c *Config) { c.Delimiter = ";" })
	if err != nil {
		t.Fatalf("NewParser: %v", err)
	}
	recs, err := collect(t, p)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(recs) != 1 || get(t, recs[0], "Name") != "Ann" {
		t.Errorf("got %v", recs)
	}

	if l.Config().Delimiter != "," {
		t.Error("override leaked into the layout")
	}
}
