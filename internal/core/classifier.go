package core

import (
	"fmt"
	"strings"
)

// lineKind is the classifier's verdict for one line.
type lineKind int

const (
	lineData lineKind = iota
	lineSkip          // blank, comment or separator directive
	lineHeader        // consumed as the header
)

// passState is the mutable state of one parse pass. Each flag flips once.
type passState struct {
	separatorChecked bool
	configChecked    bool
	headerFound      bool
	fieldNames       []string
	headerIndex      map[string]int // folded header name -> token index
}

// separatorPrefix introduces a separator directive line, e.g. "sep=;".
const separatorPrefix = "sep="

// classify decides what to do with one line. Checks run in a fixed order:
// blank, separator directive, comment, one-time configuration check, header.
func (p *Parser) classify(line Line) (lineKind, error) {
	if strings.TrimSpace(line.Text) == "" {
		if !p.cfg.IgnoreEmptyLine {
			return lineSkip, &ParseError{Line: line.Number, Err: ErrEmptyLine}
		}
		p.logger.Debug("empty line found", "line", line.Number)
		return lineSkip, nil
	}

	if line.Number == 1 && !p.state.separatorChecked {
		p.state.separatorChecked = true
		if delim, ok := separatorDirective(line.Text); ok {
			p.logger.Debug("separator directive found", "line", line.Number, "delimiter", delim)
			if delim == "" {
				return lineSkip, nil
			}
			if err := p.cfg.checkDelimiter(delim); err != nil {
				return lineSkip, &ParseError{Line: line.Number, Err: err}
			}
			p.cfg.Delimiter = delim
			p.lines.SetDelimiter(delim)
			return lineSkip, nil
		}
		if p.cfg.RequireSeparatorDirective {
			return lineSkip, &ParseError{Line: line.Number, Err: ErrMissingSeparator}
		}
	}

	for _, tok := range p.cfg.Comments {
		if tok != "" && p.cfg.hasPrefixFold(line.Text, tok) {
			p.logger.Debug("comment line found", "line", line.Number)
			return lineSkip, nil
		}
	}

	if !p.state.configChecked {
		names, err := p.columnNames(line)
		if err != nil {
			return lineSkip, err
		}
		if err := p.cfg.validateHeaders(names); err != nil {
			return lineSkip, err
		}
		p.state.configChecked = true
	}

	if p.cfg.HasHeader && !p.state.headerFound {
		p.logger.Debug("loading header line", "line", line.Number)
		if err := p.loadHeader(line); err != nil {
			return lineSkip, err
		}
		p.state.headerFound = true
		return lineHeader, nil
	}

	return lineData, nil
}

// separatorDirective reports whether text is a "sep=" line and returns the
// trimmed delimiter it names. A bare "sep=" names none.
func separatorDirective(text string) (string, bool) {
	t := strings.TrimSpace(text)
	if len(t) < len(separatorPrefix) || !strings.EqualFold(t[:len(separatorPrefix)], separatorPrefix) {
		return "", false
	}
	return strings.TrimSpace(t[len(separatorPrefix):]), true
}

// columnNames returns the column names the configuration is checked
// against: the cleaned header tokens, or Column1..N for headerless input.
func (p *Parser) columnNames(line Line) ([]string, error) {
	if p.cfg.HasHeader {
		return p.headerNames(line)
	}
	tokens, err := p.split(line)
	if err != nil {
		return nil, err
	}
	names := make([]string, len(tokens))
	for i := range tokens {
		names[i] = fmt.Sprintf("Column%d", i+1)
	}
	return names, nil
}

// split tokenizes a line with the pass-local delimiter.
func (p *Parser) split(line Line) ([]string, error) {
	tokens, err := Split(line.Text, p.cfg.Delimiter, p.cfg.QuoteChar, p.cfg.SplitOptions)
	if err != nil {
		return nil, &ParseError{Line: line.Number, Err: err}
	}
	return tokens, nil
}
