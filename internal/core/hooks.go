package core

import (
	"io"
	"log/slog"
)

// Hooks are optional callbacks invoked synchronously during a pass.
// A nil hook always proceeds.
//
// A hook that panics is treated as failed: the panic is logged at warn and
// the hook's default result is used. The default is "proceed" for every hook
// except RecordLoadError and FieldLoadError, whose default is to propagate
// the error.
type Hooks struct {
	// BeginLoad is called once before the first line is read. Returning
	// false produces an empty pass.
	BeginLoad func(src io.Reader) bool

	// EndLoad is called when the input is exhausted.
	EndLoad func(src io.Reader)

	// BeforeRecordLoad may rewrite the line text or veto the record.
	// A veto ends the pass.
	BeforeRecordLoad func(rec Record, line int, text string) (proceed bool, newText string)

	// AfterRecordLoad may veto emission of the record. A veto ends the pass.
	AfterRecordLoad func(rec Record, line int, text string) bool

	// RecordLoadError is called under ReportAndContinue. Returning true
	// keeps the pass going; false propagates err.
	RecordLoadError func(rec Record, line int, text string, err error) bool

	// BeforeFieldLoad may replace the cleaned value or veto the field.
	// A vetoed field is left untouched in the record.
	BeforeFieldLoad func(rec Record, line int, field string, value *string) (proceed bool, newValue *string)

	// AfterFieldLoad receives the stored value. Returning false ends the pass.
	AfterFieldLoad func(rec Record, line int, field string, value any) bool

	// FieldLoadError is called under ReportAndContinue. Returning true
	// skips the field; false propagates err.
	FieldLoadError func(rec Record, line int, field string, value any, err error) bool
}

// hookRunner calls hooks and recovers from hook panics.
type hookRunner struct {
	hooks  Hooks
	logger *slog.Logger
}

// guard calls fn and returns def if fn panics.
func guard[T any](logger *slog.Logger, name string, def T, fn func() T) (out T) {
	defer func() {
		if r := recover(); r != nil {
			logger.Warn("hook failed", "hook", name, "panic", r)
			out = def
		}
	}()
	return fn()
}

type textResult struct {
	proceed bool
	text    string
}

type valueResult struct {
	proceed bool
	value   *string
}

func (h *hookRunner) beginLoad(src io.Reader) bool {
	if h.hooks.BeginLoad == nil {
		return true
	}
	return guard(h.logger, "BeginLoad", true, func() bool {
		return h.hooks.BeginLoad(src)
	})
}

func (h *hookRunner) endLoad(src io.Reader) {
	if h.hooks.EndLoad == nil {
		return
	}
	guard(h.logger, "EndLoad", struct{}{}, func() struct{} {
		h.hooks.EndLoad(src)
		return struct{}{}
	})
}

func (h *hookRunner) beforeRecordLoad(rec Record, line int, text string) (bool, string) {
	if h.hooks.BeforeRecordLoad == nil {
		return true, text
	}
	res := guard(h.logger, "BeforeRecordLoad", textResult{true, text}, func() textResult {
		ok, t := h.hooks.BeforeRecordLoad(rec, line, text)
		return textResult{ok, t}
	})
	return res.proceed, res.text
}

func (h *hookRunner) afterRecordLoad(rec Record, line int, text string) bool {
	if h.hooks.AfterRecordLoad == nil {
		return true
	}
	return guard(h.logger, "AfterRecordLoad", true, func() bool {
		return h.hooks.AfterRecordLoad(rec, line, text)
	})
}

func (h *hookRunner) recordLoadError(rec Record, line int, text string, err error) bool {
	if h.hooks.RecordLoadError == nil {
		return true
	}
	return guard(h.logger, "RecordLoadError", false, func() bool {
		return h.hooks.RecordLoadError(rec, line, text, err)
	})
}

func (h *hookRunner) beforeFieldLoad(rec Record, line int, field string, value *string) (bool, *string) {
	if h.hooks.BeforeFieldLoad == nil {
		return true, value
	}
	res := guard(h.logger, "BeforeFieldLoad", valueResult{true, value}, func() valueResult {
		ok, v := h.hooks.BeforeFieldLoad(rec, line, field, value)
		return valueResult{ok, v}
	})
	return res.proceed, res.value
}

func (h *hookRunner) afterFieldLoad(rec Record, line int, field string, value any) bool {
	if h.hooks.AfterFieldLoad == nil {
		return true
	}
	return guard(h.logger, "AfterFieldLoad", true, func() bool {
		return h.hooks.AfterFieldLoad(rec, line, field, value)
	})
}

func (h *hookRunner) fieldLoadError(rec Record, line int, field string, value any, err error) bool {
	if h.hooks.FieldLoadError == nil {
		return true
	}
	return guard(h.logger, "FieldLoadError", false, func() bool {
		return h.hooks.FieldLoadError(rec, line, field, value, err)
	})
}
