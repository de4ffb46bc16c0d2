package core

import (
	"fmt"
	"io"
	"sort"
	"sync"
)

// Layout is a named, reusable parse configuration.
type Layout struct {
	Key         string // URL-safe identifier, e.g. "contacts"
	Label       string
	Group       string
	Description string

	// Config returns a fresh configuration for one pass.
	Config func() *Config

	// Options returns extra parser options, such as WithRecordType.
	// May be nil.
	Options func() []Option
}

// NewParser creates a parser for src using the layout's configuration with
// override applied on top. override may be nil.
func (l Layout) NewParser(src io.Reader, override func(*Config), opts ...Option) (*Parser, error) {
	cfg := l.Config()
	if override != nil {
		override(cfg)
	}
	var all []Option
	if l.Options != nil {
		all = append(all, l.Options()...)
	}
	return NewParser(src, cfg, append(all, opts...)...)
}

// Columns returns the declared field names of the layout.
func (l Layout) Columns() []string {
	cfg := l.Config()
	cols := make([]string, len(cfg.Fields))
	for i, f := range cfg.Fields {
		cols[i] = f.Name
	}
	return cols
}

var (
	registry   = make(map[string]Layout)
	registryMu sync.RWMutex
)

// Register adds a layout to the registry.
// Panics if a layout with the same key is already registered.
func Register(l Layout) {
	registryMu.Lock()
	defer registryMu.Unlock()

	if l.Key == "" || l.Config == nil {
		panic(fmt.Sprintf("invalid layout: %q", l.Key))
	}
	if _, exists := registry[l.Key]; exists {
		panic(fmt.Sprintf("layout already registered: %s", l.Key))
	}
	registry[l.Key] = l
}

// Get returns a layout by key.
// Returns false if not found.
func Get(key string) (Layout, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()

	l, ok := registry[key]
	return l, ok
}

// All returns all registered layouts.
// Sorted by group then by key for consistent ordering.
func All() []Layout {
	registryMu.RLock()
	defer registryMu.RUnlock()

	result := make([]Layout, 0, len(registry))
	for _, l := range registry {
		result = append(result, l)
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].Group != result[j].Group {
			return result[i].Group < result[j].Group
		}
		return result[i].Key < result[j].Key
	})

	return result
}

// LayoutCount returns the number of registered layouts.
func LayoutCount() int {
	registryMu.RLock()
	defer registryMu.RUnlock()
	return len(registry)
}

// Clear removes all registered layouts.
// Primarily useful for testing.
func Clear() {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry = make(map[string]Layout)
}
