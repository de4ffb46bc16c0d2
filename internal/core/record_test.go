package core

import (
	"encoding/json"
	"strings"
	"testing"

	"golang.org/x/text/language"
)

func TestBag_PreservesOrder(t *testing.T) {
	b := NewBag(NewConverter(language.AmericanEnglish))
	for _, k := range []string{"zeta", "alpha", "mid"} {
		b.Add(k, k+"!")
	}

	if got := strings.Join(b.Keys(), ","); got != "zeta,alpha,mid" {
		t.Errorf("Keys = %s", got)
	}
	data, err := json.Marshal(b)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	want := `{"zeta":"zeta!","alpha":"alpha!","mid":"mid!"}`
	if string(data) != want {
		t.Errorf("got %s, want %s", data, want)
	}
	if b.Len() != 3 || len(b.Map()) != 3 {
		t.Errorf("Len = %d", b.Len())
	}
}

func TestBag_DuplicateKeyPanics(t *testing.T) {
	b := NewBag(NewConverter(language.AmericanEnglish))
	b.Add("a", 1)

	defer func() {
		if recover() == nil {
			t.Error("expected panic on duplicate key")
		}
	}()
	b.Add("a", 2)
}

func TestBag_SetValueConverts(t *testing.T) {
	b := NewBag(NewConverter(language.AmericanEnglish))
	got, err := b.SetValue(&FieldConfig{Name: "Paid", Type: FieldBool}, ptr("yes"))
	if err != nil {
		t.Fatalf("SetValue: %v", err)
	}
	if got != true {
		t.Errorf("got %v, want true", got)
	}
	if v, _ := b.Get("Paid"); v != true {
		t.Errorf("stored %v", v)
	}

	if _, err := b.SetValue(&FieldConfig{Name: "N", Type: FieldInt}, ptr("x")); err == nil {
		t.Error("expected conversion error")
	}
	if _, ok := b.Get("N"); ok {
		t.Error("failed conversion was stored")
	}
}

func TestNewTyped_RequiresStructPointer(t *testing.T) {
	conv := NewConverter(language.AmericanEnglish)
	for _, v := range []any{nil, 3, new(int), struct{}{}} {
		func() {
			defer func() {
				if recover() == nil {
					t.Errorf("NewTyped(%T) did not panic", v)
				}
			}()
			NewTyped(v, conv)
		}()
	}
}

func TestTyped_SetValue(t *testing.T) {
	type row struct {
		Count int64
		Name  string `csv:"full_name"`
	}
	r := &row{}
	typed := NewTyped(r, NewConverter(language.AmericanEnglish))

	if !typed.HasMember("FULL_NAME") || typed.HasMember("Name") {
		t.Errorf("member lookup ignores the csv tag")
	}
	if _, err := typed.SetValue(&FieldConfig{Name: "count"}, ptr("1,024")); err != nil {
		t.Fatalf("SetValue: %v", err)
	}
	if _, err := typed.SetValue(&FieldConfig{Name: "full_name"}, ptr("Ada")); err != nil {
		t.Fatalf("SetValue: %v", err)
	}
	if r.Count != 1024 || r.Name != "Ada" {
		t.Errorf("got %+v", r)
	}
	if typed.Value() != any(r) {
		t.Error("Value does not return the wrapped pointer")
	}
}
