package web

import (
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/JonMunkholm/csvload/internal/core"
	"github.com/JonMunkholm/csvload/internal/logging"
)

// layoutInfo is the JSON view of a registered layout.
type layoutInfo struct {
	Key         string      `json:"key"`
	Label       string      `json:"label"`
	Group       string      `json:"group"`
	Description string      `json:"description,omitempty"`
	Delimiter   string      `json:"delimiter"`
	HasHeader   bool        `json:"has_header"`
	ErrorMode   string      `json:"error_mode"`
	Fields      []fieldInfo `json:"fields,omitempty"`
}

type fieldInfo struct {
	Name       string   `json:"name"`
	Position   int      `json:"position,omitempty"`
	Type       string   `json:"type"`
	EnumValues []string `json:"enum_values,omitempty"`
}

func describeLayout(l core.Layout, withFields bool) layoutInfo {
	cfg := l.Config()
	info := layoutInfo{
		Key:         l.Key,
		Label:       l.Label,
		Group:       l.Group,
		Description: l.Description,
		Delimiter:   cfg.Delimiter,
		HasHeader:   cfg.HasHeader,
		ErrorMode:   cfg.ErrorMode.String(),
	}
	if withFields {
		for _, f := range cfg.Fields {
			info.Fields = append(info.Fields, fieldInfo{
				Name:       f.Name,
				Position:   f.Position,
				Type:       f.Type.String(),
				EnumValues: f.EnumValues,
			})
		}
	}
	return info
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "ok",
		"passes": s.limiter.Status(),
	})
}

func (s *Server) handleListLayouts(w http.ResponseWriter, r *http.Request) {
	layouts := core.All()
	out := make([]layoutInfo, 0, len(layouts))
	for _, l := range layouts {
		out = append(out, describeLayout(l, false))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleGetLayout(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "layout")
	l, ok := core.Get(key)
	if !ok {
		respondError(w, r, fmt.Errorf("%w: %q", errUnknownLayout, key))
		return
	}
	writeJSON(w, http.StatusOK, describeLayout(l, true))
}

// handleParse streams the records of the uploaded file as NDJSON.
//
// The body is either a multipart form with a "file" part or the raw file.
// Each record is written as {"line":N,"record":{...}} as soon as it is
// parsed. A parse error is written as {"error":{...}} and ends the stream.
// The last line is always {"summary":{...}}.
func (s *Server) handleParse(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "layout")
	layout, ok := core.Get(key)
	if !ok {
		respondError(w, r, fmt.Errorf("%w: %q", errUnknownLayout, key))
		return
	}

	requestOverride, err := queryOverrides(r.URL.Query())
	if err != nil {
		respondError(w, r, err)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.Limits.MaxFileSize)
	src, err := requestSource(r)
	if err != nil {
		respondError(w, r, err)
		return
	}

	if err := s.limiter.Acquire(r.Context()); err != nil {
		respondError(w, r, err)
		return
	}
	defer s.limiter.Release()

	ctx, cancel := context.WithTimeout(r.Context(), s.cfg.Limits.PassTimeout)
	defer cancel()

	passID := uuid.NewString()
	logger := logging.WithFields(ctx, "pass_id", passID, "layout", key)

	var defaultsErr error
	p, err := layout.NewParser(src, func(c *core.Config) {
		if defaultsErr = s.cfg.Parse.Apply(c); defaultsErr != nil {
			logger.Warn("parse defaults not applied", "error", defaultsErr)
		}
		requestOverride(c)
	}, core.WithLogger(logger))
	if err == nil && defaultsErr != nil {
		err = fmt.Errorf("apply parse defaults: %w", defaultsErr)
	}
	if err != nil {
		respondError(w, r, err)
		return
	}

	logger.Info("parse started")
	start := time.Now()

	w.Header().Set("Content-Type", "application/x-ndjson")
	w.Header().Set("X-Pass-ID", passID)
	w.WriteHeader(http.StatusOK)
	out := newRecordStream(w)

	status := "ok"
	for rec, err := range p.AllContext(ctx) {
		if err != nil {
			status = "failed"
			logger.Warn("parse failed", "line", p.LineNumber(), "error", err)
			out.writeError(err, p.LineNumber())
			break
		}
		if !out.writeRecord(p.LineNumber(), rec) {
			status = "aborted"
			break
		}
	}

	stats := p.Stats()
	out.writeSummary(passSummary{
		PassID:     passID,
		Layout:     key,
		Status:     status,
		Stats:      stats,
		DurationMS: time.Since(start).Milliseconds(),
	})

	logger.Info("parse finished",
		"status", status,
		"records", stats.Records,
		"dropped", stats.Dropped,
		"lines", stats.Lines,
		"bytes", stats.BytesRead,
	)
}

// queryOverrides reads per-request settings from the query string.
func queryOverrides(q url.Values) (func(*core.Config), error) {
	var edits []func(*core.Config)

	if v := q.Get("delimiter"); v != "" {
		if v == "tab" || v == `\t` {
			v = "\t"
		}
		edits = append(edits, func(c *core.Config) { c.Delimiter = v })
	}
	if v := q.Get("has_header"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return nil, fmt.Errorf("%w: has_header %q is not a boolean", core.ErrInvalidConfig, v)
		}
		edits = append(edits, func(c *core.Config) { c.HasHeader = b })
	}
	if v := q.Get("error_mode"); v != "" {
		mode, ok := core.ParseErrorMode(v)
		if !ok {
			return nil, fmt.Errorf("%w: error_mode %q must be throw, ignore or report", core.ErrInvalidConfig, v)
		}
		edits = append(edits, func(c *core.Config) { c.ErrorMode = mode })
	}

	return func(c *core.Config) {
		for _, edit := range edits {
			edit(c)
		}
	}, nil
}

// requestSource returns the file content of the request without
// buffering it.
func requestSource(r *http.Request) (io.Reader, error) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType != "multipart/form-data" {
		return r.Body, nil
	}

	mr, err := r.MultipartReader()
	if err != nil {
		return nil, fmt.Errorf("read multipart form: %w", err)
	}
	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			return nil, errNoFile
		}
		if err != nil {
			return nil, fmt.Errorf("read multipart form: %w", err)
		}
		if part.FormName() == "file" {
			return part, nil
		}
	}
}
