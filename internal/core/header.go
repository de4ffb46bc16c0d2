package core

import (
	"fmt"
	"strings"
)

// headerNames tokenizes and cleans a header line.
func (p *Parser) headerNames(line Line) ([]string, error) {
	tokens, err := p.split(line)
	if err != nil {
		return nil, err
	}
	names := make([]string, len(tokens))
	for i, tok := range tokens {
		names[i] = p.cfg.CleanHeaderValue(tok)
	}
	return names, nil
}

// loadHeader derives the field names from the header line and fixes them
// for the rest of the pass.
func (p *Parser) loadHeader(line Line) error {
	if p.state.fieldNames != nil {
		return parseErrorf(line.Number, ErrDuplicateHeader, "header already loaded")
	}

	names, err := p.headerNames(line)
	if err != nil {
		return err
	}
	if len(names) == 0 {
		return &ParseError{Line: line.Number, Err: ErrNoHeaders}
	}

	index := make(map[string]int, len(names))
	for i, name := range names {
		if strings.TrimSpace(name) == "" {
			return parseErrorf(line.Number, ErrEmptyHeader, "column %d", i+1)
		}
		key := foldKey(name)
		if _, exists := index[key]; exists {
			return parseErrorf(line.Number, ErrDuplicateHeader, "%q", name)
		}
		index[key] = i
	}

	if p.cfg.ColumnCountStrict {
		if len(names) != len(p.cfg.Fields) {
			return parseErrorf(line.Number, ErrHeaderCount,
				"[expected: %d, actual: %d]", len(p.cfg.Fields), len(names))
		}
		var missing []string
		for _, f := range p.cfg.Fields {
			if _, ok := index[foldKey(f.Name)]; !ok {
				missing = append(missing, f.Name)
			}
		}
		if len(missing) > 0 {
			return parseErrorf(line.Number, ErrMissingHeaders, "[%s]", strings.Join(missing, ", "))
		}
	}

	p.state.fieldNames = names
	p.state.headerIndex = index
	return nil
}

// FieldNames returns the names derived from the header line, or nil before
// the header has been read.
func (p *Parser) FieldNames() []string {
	return append([]string(nil), p.state.fieldNames...)
}

// headerValue reads the token under the field's header column. Extra tokens
// are ignored; missing trailing tokens read as empty.
func (p *Parser) headerValue(tokens []string, f *FieldConfig, lineNo int) (*string, error) {
	idx, ok := p.state.headerIndex[foldKey(f.Name)]
	if !ok {
		if p.cfg.ColumnCountStrict {
			return nil, parseErrorf(lineNo, ErrMissingValue, "no matching %q field header found", f.Name)
		}
		return nil, nil
	}
	v := ""
	if idx < len(tokens) {
		v = tokens[idx]
	}
	return &v, nil
}

// positionValue reads the token at the field's 1-based position.
func (p *Parser) positionValue(tokens []string, f *FieldConfig, lineNo int) (*string, error) {
	if f.Position-1 < len(tokens) {
		v := tokens[f.Position-1]
		return &v, nil
	}
	if p.cfg.ColumnCountStrict {
		return nil, parseErrorf(lineNo, ErrMissingValue,
			"field %q [position: %d, found: %d]", f.Name, f.Position, len(tokens))
	}
	return nil, nil
}

// describeFields is used in debug logs.
func describeFields(fields []*FieldConfig) string {
	names := make([]string, len(fields))
	for i, f := range fields {
		names[i] = fmt.Sprintf("%s:%s", f.Name, f.Type)
	}
	return strings.Join(names, ",")
}
