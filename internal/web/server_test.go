package web

import (
	"bufio"
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/JonMunkholm/csvload/internal/config"
	"github.com/JonMunkholm/csvload/internal/core"
)

func TestMain(m *testing.M) {
	core.Register(core.Layout{
		Key:   "people",
		Group: "Test",
		Label: "People",
		Config: func() *core.Config {
			cfg := core.NewConfig()
			cfg.HasHeader = true
			cfg.AddField("Id", 1, core.FieldInt)
			cfg.AddField("Name", 2, core.FieldText)
			return cfg
		},
	})
	os.Exit(m.Run())
}

func testConfig() *config.Config {
	return &config.Config{
		Limits: config.LimitsConfig{
			MaxFileSize:   1 << 20,
			MaxConcurrent: 2,
			MaxWaitTime:   50 * time.Millisecond,
			PassTimeout:   time.Minute,
		},
		Logging: config.LoggingConfig{Level: "info", Format: "text"},
	}
}

func newTestServer(cfg *config.Config, limiter *core.PassLimiter) *Server {
	if limiter == nil {
		limiter = core.NewPassLimiter(cfg.Limits.MaxConcurrent, cfg.Limits.MaxWaitTime)
	}
	return NewServer(cfg, limiter)
}

func serve(s *Server, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)
	return rec
}

// ndjsonLines decodes every line of an NDJSON body into a generic map.
func ndjsonLines(t *testing.T, body *bytes.Buffer) []map[string]any {
	t.Helper()
	var out []map[string]any
	sc := bufio.NewScanner(body)
	for sc.Scan() {
		var m map[string]any
		if err := json.Unmarshal(sc.Bytes(), &m); err != nil {
			t.Fatalf("invalid ndjson line %q: %v", sc.Text(), err)
		}
		out = append(out, m)
	}
	return out
}

func summaryOf(t *testing.T, lines []map[string]any) map[string]any {
	t.Helper()
	if len(lines) == 0 {
		t.Fatal("empty stream")
	}
	sum, ok := lines[len(lines)-1]["summary"].(map[string]any)
	if !ok {
		t.Fatalf("last line is not a summary: %v", lines[len(lines)-1])
	}
	return sum
}

func TestHealth(t *testing.T) {
	s := newTestServer(testConfig(), nil)
	rec := serve(s, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if rec.Header().Get("X-Content-Type-Options") != "nosniff" {
		t.Error("security headers missing")
	}
	if !strings.Contains(rec.Body.String(), `"status":"ok"`) {
		t.Errorf("body = %s", rec.Body.String())
	}
}

func TestListLayouts(t *testing.T) {
	s := newTestServer(testConfig(), nil)
	rec := serve(s, httptest.NewRequest(http.MethodGet, "/api/layouts", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var got []layoutInfo
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatal(err)
	}
	found := false
	for _, l := range got {
		if l.Key == "people" {
			found = true
			if len(l.Fields) != 0 {
				t.Error("list view should not include fields")
			}
		}
	}
	if !found {
		t.Errorf("people layout not listed: %+v", got)
	}
}

func TestGetLayout(t *testing.T) {
	s := newTestServer(testConfig(), nil)

	rec := serve(s, httptest.NewRequest(http.MethodGet, "/api/layouts/people", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var info layoutInfo
	if err := json.Unmarshal(rec.Body.Bytes(), &info); err != nil {
		t.Fatal(err)
	}
	if !info.HasHeader || len(info.Fields) != 2 || info.Fields[0].Name != "Id" || info.Fields[0].Type != core.FieldInt.String() {
		t.Errorf("unexpected layout info: %+v", info)
	}

	rec = serve(s, httptest.NewRequest(http.MethodGet, "/api/layouts/nope", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("unknown layout status = %d", rec.Code)
	}
	var resp ErrorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Code != "CFG002" {
		t.Errorf("code = %q, want CFG002", resp.Code)
	}
}

func TestParse_StreamsRecords(t *testing.T) {
	s := newTestServer(testConfig(), nil)
	req := httptest.NewRequest(http.MethodPost, "/api/parse/people", strings.NewReader("Id,Name\n1,Alice\n2,Bob\n"))
	req.Header.Set("Content-Type", "text/csv")

	rec := serve(s, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	if rec.Header().Get("Content-Type") != "application/x-ndjson" {
		t.Errorf("content type = %q", rec.Header().Get("Content-Type"))
	}
	passID := rec.Header().Get("X-Pass-ID")
	if passID == "" {
		t.Error("missing X-Pass-ID")
	}

	lines := ndjsonLines(t, rec.Body)
	if len(lines) != 3 {
		t.Fatalf("got %d lines, want 3: %v", len(lines), lines)
	}

	first := lines[0]["record"].(map[string]any)
	if first["Id"] != float64(1) || first["Name"] != "Alice" {
		t.Errorf("first record = %v", first)
	}
	if lines[0]["line"] != float64(2) {
		t.Errorf("first record line = %v, want 2", lines[0]["line"])
	}

	sum := summaryOf(t, lines)
	if sum["status"] != "ok" || sum["pass_id"] != passID || sum["layout"] != "people" {
		t.Errorf("summary = %v", sum)
	}
	stats := sum["stats"].(map[string]any)
	if stats["records"] != float64(2) {
		t.Errorf("stats = %v", stats)
	}
}

func TestParse_ErrorLineEndsStream(t *testing.T) {
	s := newTestServer(testConfig(), nil)
	req := httptest.NewRequest(http.MethodPost, "/api/parse/people", strings.NewReader("Id,Name\n1,Alice\nx,Bob\n3,Carol\n"))

	lines := ndjsonLines(t, serve(s, req).Body)
	if len(lines) != 3 {
		t.Fatalf("got %d lines, want record, error, summary: %v", len(lines), lines)
	}

	errObj, ok := lines[1]["error"].(map[string]any)
	if !ok {
		t.Fatalf("second line is not an error: %v", lines[1])
	}
	if errObj["code"] != "FLD001" || errObj["line"] != float64(3) {
		t.Errorf("error = %v", errObj)
	}
	if sum := summaryOf(t, lines); sum["status"] != "failed" {
		t.Errorf("summary status = %v", sum["status"])
	}
}

func TestParse_QueryOverrides(t *testing.T) {
	s := newTestServer(testConfig(), nil)

	req := httptest.NewRequest(http.MethodPost, "/api/parse/people?delimiter=tab&error_mode=ignore",
		strings.NewReader("Id\tName\n1\tAlice\nx\tBob\n"))
	lines := ndjsonLines(t, serve(s, req).Body)

	if len(lines) != 2 {
		t.Fatalf("got %d lines, want record and summary: %v", len(lines), lines)
	}
	stats := summaryOf(t, lines)["stats"].(map[string]any)
	if stats["records"] != float64(1) || stats["dropped"] != float64(1) {
		t.Errorf("stats = %v", stats)
	}
}

func TestParse_BadRequests(t *testing.T) {
	tests := []struct {
		name       string
		target     string
		wantStatus int
		wantCode   string
	}{
		{"unknown layout", "/api/parse/nope", http.StatusNotFound, "CFG002"},
		{"bad has_header", "/api/parse/people?has_header=maybe", http.StatusBadRequest, "CFG001"},
		{"bad error_mode", "/api/parse/people?error_mode=loud", http.StatusBadRequest, "CFG001"},
	}

	s := newTestServer(testConfig(), nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(s, httptest.NewRequest(http.MethodPost, tt.target, strings.NewReader("Id,Name\n")))
			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			var resp ErrorResponse
			if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
				t.Fatal(err)
			}
			if resp.Code != tt.wantCode {
				t.Errorf("code = %q, want %q", resp.Code, tt.wantCode)
			}
		})
	}
}

func TestParse_Multipart(t *testing.T) {
	build := func(field string) (*bytes.Buffer, string) {
		var buf bytes.Buffer
		mw := multipart.NewWriter(&buf)
		_ = mw.WriteField("note", "ignored")
		fw, _ := mw.CreateFormFile(field, "people.csv")
		_, _ = fw.Write([]byte("Id,Name\n7,Grace\n"))
		_ = mw.Close()
		return &buf, mw.FormDataContentType()
	}

	s := newTestServer(testConfig(), nil)

	t.Run("file part", func(t *testing.T) {
		body, ct := build("file")
		req := httptest.NewRequest(http.MethodPost, "/api/parse/people", body)
		req.Header.Set("Content-Type", ct)

		lines := ndjsonLines(t, serve(s, req).Body)
		if len(lines) != 2 {
			t.Fatalf("got %d lines: %v", len(lines), lines)
		}
		if got := lines[0]["record"].(map[string]any)["Name"]; got != "Grace" {
			t.Errorf("Name = %v", got)
		}
	})

	t.Run("missing file part", func(t *testing.T) {
		body, ct := build("upload")
		req := httptest.NewRequest(http.MethodPost, "/api/parse/people", body)
		req.Header.Set("Content-Type", ct)

		rec := serve(s, req)
		if rec.Code != http.StatusBadRequest || !strings.Contains(rec.Body.String(), "SRV004") {
			t.Errorf("status = %d, body = %s", rec.Code, rec.Body.String())
		}
	})
}

func TestParse_TooLarge(t *testing.T) {
	cfg := testConfig()
	cfg.Limits.MaxFileSize = 16
	s := newTestServer(cfg, nil)

	var body strings.Builder
	body.WriteString("Id,Name\n")
	for range 10 {
		body.WriteString("1,Alice\n")
	}
	req := httptest.NewRequest(http.MethodPost, "/api/parse/people", strings.NewReader(body.String()))

	lines := ndjsonLines(t, serve(s, req).Body)
	if sum := summaryOf(t, lines); sum["status"] != "failed" {
		t.Errorf("summary = %v", sum)
	}
	var sawLimit bool
	for _, l := range lines {
		if e, ok := l["error"].(map[string]any); ok && e["code"] == "SRV005" {
			sawLimit = true
		}
	}
	if !sawLimit {
		t.Errorf("no SRV005 error line: %v", lines)
	}
}

func TestParse_InvalidParseDefaults(t *testing.T) {
	cfg := testConfig()
	cfg.Parse.Culture = "not a culture"
	s := newTestServer(cfg, nil)

	rec := serve(s, httptest.NewRequest(http.MethodPost, "/api/parse/people", strings.NewReader("Id,Name\n1,Alice\n")))
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	if rec.Header().Get("X-Pass-ID") != "" {
		t.Error("stream started despite invalid parse defaults")
	}
}

func TestParse_Busy(t *testing.T) {
	cfg := testConfig()
	limiter := core.NewPassLimiter(1, 10*time.Millisecond)
	if !limiter.TryAcquire() {
		t.Fatal("could not take the only slot")
	}
	defer limiter.Release()

	s := newTestServer(cfg, limiter)
	rec := serve(s, httptest.NewRequest(http.MethodPost, "/api/parse/people", strings.NewReader("Id,Name\n")))

	if rec.Code != http.StatusServiceUnavailable || !strings.Contains(rec.Body.String(), "SRV001") {
		t.Errorf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
}

func TestAPIKeyRequired(t *testing.T) {
	cfg := testConfig()
	cfg.Security = config.SecurityConfig{RequireAPIKey: true, APIKeys: []string{"secret"}}
	s := newTestServer(cfg, nil)

	if rec := serve(s, httptest.NewRequest(http.MethodGet, "/healthz", nil)); rec.Code != http.StatusOK {
		t.Errorf("health should not need a key, got %d", rec.Code)
	}
	if rec := serve(s, httptest.NewRequest(http.MethodGet, "/api/layouts", nil)); rec.Code != http.StatusUnauthorized {
		t.Errorf("no key: status = %d", rec.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/layouts", nil)
	req.Header.Set("X-API-Key", "secret")
	if rec := serve(s, req); rec.Code != http.StatusOK {
		t.Errorf("valid key: status = %d", rec.Code)
	}
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{errUnknownLayout, http.StatusNotFound},
		{core.ErrTooManyPasses, http.StatusServiceUnavailable},
		{&http.MaxBytesError{Limit: 1}, http.StatusRequestEntityTooLarge},
		{core.ErrInvalidConfig, http.StatusBadRequest},
		{errNoFile, http.StatusBadRequest},
		{os.ErrClosed, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		if got := statusFor(tt.err); got != tt.want {
			t.Errorf("statusFor(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}
