package core

import (
	"bytes"
	"encoding/json"
	"fmt"
	"reflect"
	"strings"
)

// Record is the destination one data line is bound into.
//
// SetValue converts value for field, stores it and returns the stored
// (post-conversion) value. A nil value means the line had no value for the
// field.
type Record interface {
	SetValue(field *FieldConfig, value *string) (any, error)
}

// Bag is an open, order-preserving property bag keyed by field name.
type Bag struct {
	keys   []string
	values map[string]any
	conv   *Converter
}

// NewBag creates an empty Bag that converts values with conv.
func NewBag(conv *Converter) *Bag {
	return &Bag{values: make(map[string]any), conv: conv}
}

// SetValue converts value to the field's declared type and inserts it.
func (b *Bag) SetValue(field *FieldConfig, value *string) (any, error) {
	v, err := b.conv.Convert(value, field.Type)
	if err != nil {
		return nil, err
	}
	b.Add(field.Name, v)
	return v, nil
}

// Add inserts a value under key.
// Panics if key is already present: keys are validated unique up front.
func (b *Bag) Add(key string, value any) {
	if _, exists := b.values[key]; exists {
		panic(fmt.Sprintf("csvload: duplicate record key %q", key))
	}
	b.keys = append(b.keys, key)
	b.values[key] = value
}

// put inserts or replaces the value under key.
func (b *Bag) put(key string, value any) {
	if _, exists := b.values[key]; !exists {
		b.keys = append(b.keys, key)
	}
	b.values[key] = value
}

// Get returns the value stored under key.
func (b *Bag) Get(key string) (any, bool) {
	v, ok := b.values[key]
	return v, ok
}

// Keys returns the keys in insertion order.
func (b *Bag) Keys() []string {
	return append([]string(nil), b.keys...)
}

// Len returns the number of stored values.
func (b *Bag) Len() int {
	return len(b.keys)
}

// Map returns the values as a plain map.
func (b *Bag) Map() map[string]any {
	out := make(map[string]any, len(b.values))
	for k, v := range b.values {
		out[k] = v
	}
	return out
}

// MarshalJSON encodes the bag as a JSON object in insertion order.
func (b *Bag) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range b.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(b.values[k])
		if err != nil {
			return nil, fmt.Errorf("marshal %q: %w", k, err)
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Typed binds fields into the members of a struct.
//
// Members are matched to field names case-insensitively, by the `csv` tag
// when present, otherwise by the Go field name. A `csv:"-"` tag hides a
// member. A `fallback` tag supplies the fallback value for the member.
type Typed struct {
	ptr     reflect.Value
	members map[string]int
	conv    *Converter
}

// NewTyped wraps ptr, which must be a non-nil pointer to a struct.
func NewTyped(ptr any, conv *Converter) *Typed {
	rv := reflect.ValueOf(ptr)
	if rv.Kind() != reflect.Pointer || rv.IsNil() || rv.Elem().Kind() != reflect.Struct {
		panic(fmt.Sprintf("csvload: NewTyped requires a pointer to a struct, got %T", ptr))
	}
	return &Typed{ptr: rv, members: memberIndex(rv.Elem().Type()), conv: conv}
}

// memberIndex maps folded member names to struct field indexes.
func memberIndex(t reflect.Type) map[string]int {
	idx := make(map[string]int, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		if !sf.IsExported() {
			continue
		}
		name := sf.Name
		if tag, ok := sf.Tag.Lookup("csv"); ok {
			tag, _, _ = strings.Cut(tag, ",")
			if tag == "-" {
				continue
			}
			if tag != "" {
				name = tag
			}
		}
		idx[foldKey(name)] = i
	}
	return idx
}

// Value returns the wrapped struct pointer.
func (r *Typed) Value() any {
	return r.ptr.Interface()
}

// HasMember reports whether a member is bound to key.
func (r *Typed) HasMember(key string) bool {
	_, ok := r.members[foldKey(key)]
	return ok
}

func (r *Typed) member(key string) (reflect.Value, reflect.StructField, error) {
	i, ok := r.members[foldKey(key)]
	if !ok {
		return reflect.Value{}, reflect.StructField{}, fmt.Errorf("%w: %q in %s", ErrMissingMember, key, r.ptr.Elem().Type())
	}
	return r.ptr.Elem().Field(i), r.ptr.Elem().Type().Field(i), nil
}

// SetValue converts value to the member's type, assigns it, and returns the
// member's value read back after assignment.
func (r *Typed) SetValue(field *FieldConfig, value *string) (any, error) {
	var v any
	if value != nil {
		v = *value
	}
	return r.set(field.Name, v)
}

// set converts value to the member type for key and assigns it.
func (r *Typed) set(key string, value any) (any, error) {
	m, _, err := r.member(key)
	if err != nil {
		return nil, err
	}
	cv, err := r.conv.ConvertTo(value, m.Type())
	if err != nil {
		return nil, err
	}
	m.Set(cv)
	return m.Interface(), nil
}

// fallbackTag returns the `fallback` struct tag of the member for key.
func (r *Typed) fallbackTag(key string) (string, bool) {
	_, sf, err := r.member(key)
	if err != nil {
		return "", false
	}
	return sf.Tag.Lookup("fallback")
}

// validateMember runs member-level rules for key.
func (r *Typed) validateMember(field *FieldConfig, value any) error {
	if field.Validate != nil {
		if err := field.Validate(value); err != nil {
			return err
		}
	}
	if fv, ok := r.ptr.Interface().(FieldValidator); ok {
		return fv.ValidateField(field.Name)
	}
	return nil
}

// validateObject runs object-level rules.
func (r *Typed) validateObject() error {
	if v, ok := r.ptr.Interface().(Validator); ok {
		return v.Validate()
	}
	return nil
}
