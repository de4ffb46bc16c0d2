package web

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/JonMunkholm/csvload/internal/core"
)

// flushEvery is the number of records written between flushes.
const flushEvery = 64

type recordLine struct {
	Line   int `json:"line"`
	Record any `json:"record"`
}

type errorLine struct {
	Error ErrorResponse `json:"error"`
}

type passSummary struct {
	PassID     string     `json:"pass_id"`
	Layout     string     `json:"layout"`
	Status     string     `json:"status"` // ok, failed or aborted
	Stats      core.Stats `json:"stats"`
	DurationMS int64      `json:"duration_ms"`
}

type summaryLine struct {
	Summary passSummary `json:"summary"`
}

// recordStream writes NDJSON lines to a response.
type recordStream struct {
	enc     *json.Encoder
	rc      *http.ResponseController
	pending int
	err     error
}

func newRecordStream(w http.ResponseWriter) *recordStream {
	return &recordStream{enc: json.NewEncoder(w), rc: http.NewResponseController(w)}
}

// writeRecord reports false once the client can no longer be written to.
func (s *recordStream) writeRecord(line int, rec core.Record) bool {
	s.write(recordLine{Line: line, Record: recordPayload(rec)})
	s.pending++
	if s.pending >= flushEvery {
		s.flush()
	}
	return s.err == nil
}

func (s *recordStream) writeError(err error, line int) {
	s.write(errorLine{Error: newErrorResponse(err, line)})
	s.flush()
}

func (s *recordStream) writeSummary(sum passSummary) {
	s.write(summaryLine{Summary: sum})
	s.flush()
}

func (s *recordStream) write(v any) {
	if s.err != nil {
		return
	}
	if err := s.enc.Encode(v); err != nil {
		slog.Warn("ndjson write failed", "error", err)
		s.err = err
	}
}

func (s *recordStream) flush() {
	s.pending = 0
	if s.err != nil {
		return
	}
	// Writers without flush support buffer until the handler returns.
	_ = s.rc.Flush()
}

// recordPayload returns the value to encode for rec.
func recordPayload(rec core.Record) any {
	if t, ok := rec.(*core.Typed); ok {
		return t.Value()
	}
	return rec
}
