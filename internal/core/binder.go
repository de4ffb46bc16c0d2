package core

import (
	"errors"
	"fmt"
	"strings"
)

// fillRecord binds one data line into rec.
//
// It returns false without an error when an AfterFieldLoad hook stops the
// pass. Structural errors are returned as *ParseError. A field error that
// neither a fallback nor the field's error mode recovers is returned as
// *FieldError for the record-level error mode to handle.
func (p *Parser) fillRecord(rec Record, line Line) (bool, error) {
	tokens, err := p.split(line)
	if err != nil {
		return false, err
	}
	if p.cfg.ColumnCountStrict && len(tokens) != len(p.cfg.Fields) {
		return false, parseErrorf(line.Number, ErrFieldCount,
			"[expected: %d, found: %d]", len(p.cfg.Fields), len(tokens))
	}

	for _, f := range p.cfg.Fields {
		var raw *string
		if p.cfg.HasHeader {
			raw, err = p.headerValue(tokens, f, line.Number)
		} else {
			raw, err = p.positionValue(tokens, f, line.Number)
		}
		if err != nil {
			return false, err
		}

		value, err := p.cfg.CleanFieldValue(f, raw, line.Number)
		if err != nil {
			return false, err
		}
		if f.Normalizer != nil && value != nil {
			v := f.Normalizer(*value)
			value = &v
		}

		proceed, value := p.hooks.beforeFieldLoad(rec, line.Number, f.Name, value)
		if !proceed {
			continue
		}

		stored, err := p.bindField(rec, f, value)
		if err == nil {
			if !p.hooks.afterFieldLoad(rec, line.Number, f.Name, stored) {
				return false, nil
			}
			continue
		}

		ferr := &FieldError{Line: line.Number, Field: f.Name, Value: deref(value), Err: err}
		if errors.Is(err, ErrMissingMember) {
			if p.cfg.ThrowAndStopOnMissingField {
				return false, ferr
			}
			p.logger.Debug("field skipped", "line", line.Number, "field", f.Name, "error", err)
			continue
		}

		if p.applyFallback(rec, f) {
			p.logger.Warn("fallback value applied", "line", line.Number, "field", f.Name, "error", err)
			continue
		}

		switch f.errorMode(p.cfg.ErrorMode) {
		case IgnoreAndContinue:
			p.logger.Warn("field error ignored", "line", line.Number, "field", f.Name, "error", err)
			continue
		case ReportAndContinue:
			if p.hooks.fieldLoadError(rec, line.Number, f.Name, valueOf(value), ferr) {
				continue
			}
			return false, ferr
		default:
			return false, ferr
		}
	}
	return true, nil
}

// bindField converts, stores and validates one cleaned value. Ignored values
// are not stored; the cleaned value is returned for the AfterFieldLoad hook.
func (p *Parser) bindField(rec Record, f *FieldConfig, value *string) (any, error) {
	if f.ignoreValue(value) {
		return valueOf(value), nil
	}

	if f.Type == FieldEnum && value != nil && *value != "" {
		canonical, err := matchEnum(f, *value)
		if err != nil {
			return nil, err
		}
		value = &canonical
	}

	stored, err := rec.SetValue(f, value)
	if err != nil {
		return nil, err
	}

	if p.cfg.ValidationMode&MemberLevel != 0 {
		if typed, ok := rec.(*Typed); ok {
			err = typed.validateMember(f, stored)
		} else if f.Validate != nil {
			err = f.Validate(stored)
		}
		if err != nil {
			return stored, err
		}
	}
	return stored, nil
}

// applyFallback assigns the field's fallback value. It reports whether a
// usable fallback was found and assigned.
func (p *Parser) applyFallback(rec Record, f *FieldConfig) bool {
	switch r := rec.(type) {
	case *Typed:
		fb := f.Fallback
		if fb == nil {
			if tag, ok := r.fallbackTag(f.Name); ok {
				fb = tag
			}
		}
		if fb == nil {
			return false
		}
		if _, err := r.set(f.Name, fb); err != nil {
			p.logger.Warn("fallback value rejected", "field", f.Name, "error", err)
			return false
		}
		return true

	case *Bag:
		if !p.cfg.ApplyFallbackToBags || f.Fallback == nil {
			return false
		}
		v := f.Fallback
		if s, ok := v.(string); ok {
			cv, err := r.conv.Convert(&s, f.Type)
			if err != nil {
				p.logger.Warn("fallback value rejected", "field", f.Name, "error", err)
				return false
			}
			v = cv
		}
		r.put(f.Name, v)
		return true
	}
	return false
}

// matchEnum returns the configured spelling of value.
func matchEnum(f *FieldConfig, value string) (string, error) {
	key := foldKey(value)
	for _, allowed := range f.EnumValues {
		if foldKey(allowed) == key {
			return allowed, nil
		}
	}
	return "", fmt.Errorf("%w: %q (allowed: %s)", ErrInvalidEnum, value, strings.Join(f.EnumValues, ", "))
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// valueOf returns s as an interface value, nil for an absent value.
func valueOf(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}
