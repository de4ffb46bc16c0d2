package config

import (
	"fmt"

	"golang.org/x/text/language"

	"github.com/JonMunkholm/csvload/internal/core"
)

// Apply copies the non-empty parse defaults onto cfg.
func (p ParseConfig) Apply(cfg *core.Config) error {
	if p.Delimiter != "" {
		cfg.Delimiter = p.Delimiter
	}
	if len(p.Comments) > 0 {
		cfg.Comments = append([]string(nil), p.Comments...)
	}
	if p.Culture != "" {
		tag, err := language.Parse(p.Culture)
		if err != nil {
			return fmt.Errorf("PARSE_CULTURE (%q): %w", p.Culture, err)
		}
		cfg.Culture = tag
	}
	if p.Encoding != "" {
		cfg.Encoding = p.Encoding
	}
	if p.ErrorMode != "" {
		mode, ok := core.ParseErrorMode(p.ErrorMode)
		if !ok {
			return fmt.Errorf("PARSE_ERROR_MODE (%q) must be one of: throw, ignore, report", p.ErrorMode)
		}
		cfg.ErrorMode = mode
	}
	if p.IgnoreEmptyLines {
		cfg.IgnoreEmptyLine = true
	}
	return nil
}
