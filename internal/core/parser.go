package core

import (
	"context"
	"errors"
	"fmt"
	"io"
	"iter"
	"log/slog"
	"os"
	"strings"
)

// ErrNotSeekable is returned by Reset when the source cannot be rewound.
var ErrNotSeekable = errors.New("csvload: source is not seekable")

// Parser turns delimited text into a lazy sequence of records.
//
// A Parser holds the state of one pass and must not be used from several
// goroutines at once. Nothing is read until Next is called, and only one
// line and one record are in flight at a time.
type Parser struct {
	src       io.Reader
	base      *Config // validated configuration; never mutated
	cfg       *Config // pass-local copy; the separator directive may change it
	conv      *Converter
	hooks     hookRunner
	logger    *slog.Logger
	newRecord func() Record

	lines   *LineReader
	counter *countingReader
	state   passState
	stats   Stats
	begun   bool
	done    bool
	err     error
}

// Option configures a Parser.
type Option func(*Parser)

// WithHooks installs observer hooks.
func WithHooks(h Hooks) Option {
	return func(p *Parser) { p.hooks.hooks = h }
}

// WithLogger sets the logger. The default is slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(p *Parser) {
		if l != nil {
			p.logger = l
		}
	}
}

// WithRecordFactory sets the function that creates an empty record for
// each data line. The default creates a *Bag.
func WithRecordFactory(fn func() Record) Option {
	return func(p *Parser) { p.newRecord = fn }
}

// WithRecordType binds every data line into a new *T.
func WithRecordType[T any]() Option {
	return func(p *Parser) {
		p.newRecord = func() Record { return NewTyped(new(T), p.conv) }
	}
}

// NewParser validates cfg and prepares a pass over src. A nil cfg uses
// NewConfig. The caller's cfg is not modified.
func NewParser(src io.Reader, cfg *Config, opts ...Option) (*Parser, error) {
	if cfg == nil {
		cfg = NewConfig()
	}
	base := cfg.Clone()
	if err := base.Validate(); err != nil {
		return nil, err
	}

	p := &Parser{
		src:    src,
		base:   base,
		conv:   NewConverter(base.Culture),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.hooks.logger = p.logger
	if p.newRecord == nil {
		p.newRecord = func() Record { return NewBag(p.conv) }
	}

	if err := p.start(); err != nil {
		return nil, err
	}
	return p, nil
}

// NewTypedParser is NewParser with every line bound into a new *T.
func NewTypedParser[T any](src io.Reader, cfg *Config, opts ...Option) (*Parser, error) {
	return NewParser(src, cfg, append(opts, WithRecordType[T]())...)
}

// start positions the source at its origin and clears the pass state.
func (p *Parser) start() error {
	if s, ok := p.src.(io.Seeker); ok {
		if _, err := s.Seek(0, io.SeekStart); err != nil {
			return fmt.Errorf("rewind source: %w", err)
		}
	}
	r, counter, err := wrapForStreaming(p.src, p.base.Encoding)
	if err != nil {
		return err
	}

	p.cfg = p.base.Clone()
	p.lines = NewLineReader(r, p.cfg.EOLDelimiter, p.cfg.Delimiter, p.cfg.QuoteChar)
	p.counter = counter
	p.state = passState{}
	p.stats = Stats{}
	p.begun, p.done, p.err = false, false, nil
	return nil
}

// Reset rewinds the source and starts a fresh pass.
func (p *Parser) Reset() error {
	if _, ok := p.src.(io.Seeker); !ok {
		return ErrNotSeekable
	}
	return p.start()
}

// Next returns the next record, or io.EOF when the pass has ended.
//
// An error ends the pass; later calls return the same error. A pass also
// ends early, without error, when a hook vetoes it.
func (p *Parser) Next() (Record, error) {
	if p.err != nil {
		return nil, p.err
	}
	if p.done {
		return nil, io.EOF
	}
	if !p.begun {
		p.begun = true
		p.logger.Debug("parse pass started", "fields", describeFields(p.cfg.Fields), "header", p.cfg.HasHeader)
		if !p.hooks.beginLoad(p.src) {
			p.logger.Debug("parse pass vetoed by BeginLoad")
			p.done = true
			return nil, io.EOF
		}
	}

	for {
		line, err := p.lines.Next()
		if err == io.EOF {
			p.done = true
			p.hooks.endLoad(p.src)
			p.logger.Debug("parse pass finished", "records", p.stats.Records, "lines", p.stats.Lines)
			return nil, io.EOF
		}
		if err != nil {
			return nil, p.fail(fmt.Errorf("read line %d: %w", p.lines.LineNumber()+1, err))
		}
		p.stats.Lines++

		kind, err := p.classify(line)
		if err != nil {
			return nil, p.fail(err)
		}
		if kind != lineData {
			p.stats.Skipped++
			continue
		}

		p.logger.Debug("loading line", "line", line.Number)
		rec, emit, stop, err := p.loadLine(line)
		if err != nil {
			return nil, p.fail(err)
		}
		if stop {
			p.logger.Debug("parse pass stopped by hook", "line", line.Number)
			p.done = true
			return nil, io.EOF
		}
		if !emit {
			p.stats.Dropped++
			continue
		}
		p.stats.Records++
		return rec, nil
	}
}

func (p *Parser) fail(err error) error {
	p.err = err
	p.done = true
	return err
}

// loadLine materializes one data line and applies the record error mode.
// emit reports whether rec should be yielded; stop reports a hook veto.
func (p *Parser) loadLine(line Line) (rec Record, emit, stop bool, err error) {
	rec = p.newRecord()

	proceed, text := p.hooks.beforeRecordLoad(rec, line.Number, line.Text)
	if !proceed {
		return nil, false, true, nil
	}
	line.Text = text

	if strings.TrimSpace(line.Text) != "" {
		ok, err := p.fillRecord(rec, line)
		if err == nil && !ok {
			return nil, false, true, nil
		}
		if err == nil && p.cfg.ValidationMode&ObjectLevel != 0 {
			if typed, isTyped := rec.(*Typed); isTyped {
				err = typed.validateObject()
			}
		}
		if err != nil {
			return p.recordFailed(rec, line, err)
		}
	}

	if !p.hooks.afterRecordLoad(rec, line.Number, line.Text) {
		return nil, false, true, nil
	}
	return rec, true, false, nil
}

// recordFailed applies the global error mode to a failed record.
// Structural errors and fatal missing members are returned unchanged.
func (p *Parser) recordFailed(rec Record, line Line, err error) (Record, bool, bool, error) {
	if isFatal(err) {
		return nil, false, false, err
	}
	rerr := &RecordError{Line: line.Number, Err: err}

	switch p.cfg.ErrorMode {
	case IgnoreAndContinue:
		p.logger.Warn("record dropped", "line", line.Number, "error", err)
		return nil, false, false, nil
	case ReportAndContinue:
		if p.hooks.recordLoadError(rec, line.Number, line.Text, rerr) {
			p.logger.Warn("record error reported", "line", line.Number, "error", err)
			return rec, true, false, nil
		}
		return nil, false, false, rerr
	default:
		return nil, false, false, rerr
	}
}

// All returns the remaining records as an iterator. Iteration stops after
// the first error is yielded.
func (p *Parser) All() iter.Seq2[Record, error] {
	return p.AllContext(context.Background())
}

// AllContext is All with cancellation checked before each record.
func (p *Parser) AllContext(ctx context.Context) iter.Seq2[Record, error] {
	return func(yield func(Record, error) bool) {
		for {
			if err := ctx.Err(); err != nil {
				yield(nil, err)
				return
			}
			rec, err := p.Next()
			if err == io.EOF {
				return
			}
			if !yield(rec, err) || err != nil {
				return
			}
		}
	}
}

// LineNumber returns the number of the last line read, which is the line
// of the most recent record or error.
func (p *Parser) LineNumber() int {
	return p.lines.LineNumber()
}

// Stats returns counters for the current pass.
func (p *Parser) Stats() Stats {
	s := p.stats
	if p.counter != nil {
		s.BytesRead = p.counter.bytesRead
	}
	return s
}

// Records adapts a typed parser to an iterator of *T.
func Records[T any](p *Parser) iter.Seq2[*T, error] {
	return func(yield func(*T, error) bool) {
		for rec, err := range p.All() {
			if err != nil {
				yield(nil, err)
				return
			}
			v, ok := typedValue[T](rec)
			if !ok {
				yield(nil, fmt.Errorf("csvload: record %T does not hold a *%T", rec, *new(T)))
				return
			}
			if !yield(v, nil) {
				return
			}
		}
	}
}

func typedValue[T any](rec Record) (*T, bool) {
	t, ok := rec.(*Typed)
	if !ok {
		return nil, false
	}
	v, ok := t.Value().(*T)
	return v, ok
}

// ParseFile parses the file at path. The file is closed when iteration
// ends, including when the caller stops early.
func ParseFile(path string, cfg *Config, opts ...Option) iter.Seq2[Record, error] {
	return func(yield func(Record, error) bool) {
		f, err := os.Open(path)
		if err != nil {
			yield(nil, err)
			return
		}
		defer f.Close()

		p, err := NewParser(f, cfg, opts...)
		if err != nil {
			yield(nil, err)
			return
		}
		for rec, err := range p.All() {
			if !yield(rec, err) {
				return
			}
		}
	}
}
