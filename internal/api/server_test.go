package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/dgallion1/modmap/internal/config"
	"github.com/dgallion1/modmap/internal/extract"
	"github.com/dgallion1/modmap/internal/pipeline"
)

type stubClient struct {
	response string
}

func (s *stubClient) Extract(ctx context.Context, system, user string) (string, error) {
	return s.response, nil
}

func (s *stubClient) Name() string { return "stub" }
func (s *stubClient) Close()       {}

const manualText = `APPENDIX A MODBUS REGISTER MAP

Address    Name          Type
40001      Voltage L1    UINT16
40002      Voltage L2    UINT16
`

const stubResponse = `{"registers": [
	{"address": 40001, "name": "Voltage L1", "datatype": "uint16"},
	{"address": 40002, "name": "Voltage L2", "datatype": "uint16"}
]}`

func testServer(t *testing.T, apiKey string) (*Server, *pipeline.Orchestrator) {
	t.Helper()
	cfg := config.Config{
		Port:             "0",
		APIKey:           apiKey,
		WorkerCount:      2,
		MaxQueueSize:     8,
		PageAnalyzers:    2,
		MaxUploadBytes:   1 << 20,
		JobTTL:           time.Hour,
		MaxContextTokens: 10000,
		CharsPerToken:    3.5,
	}
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	client := &stubClient{response: stubResponse}
	stats := extract.NewStats(client.Name(), time.Hour)

	orch := pipeline.NewOrchestrator(cfg, client, stats, log)
	ctx, cancel := context.WithCancel(context.Background())
	orch.Start(ctx)
	t.Cleanup(cancel)

	return NewServer(orch, client, stats, log, cfg), orch
}

func uploadRequest(t *testing.T, url, filename, content string) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	fw, err := w.CreateFormFile("file", filename)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := io.WriteString(fw, content); err != nil {
		t.Fatal(err)
	}
	w.Close()

	req := httptest.NewRequest(http.MethodPost, url, &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

func TestHealthEndpoint(t *testing.T) {
	srv, _ := testServer(t, "")
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"status":"ok"`) {
		t.Fatalf("unexpected body: %s", rec.Body.String())
	}
}

func TestAuthMiddleware(t *testing.T) {
	srv, _ := testServer(t, "secret")

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/stats/llm", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", rec.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/stats/llm", nil)
	req.Header.Set("Authorization", "Bearer wrong")
	rec = httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 with bad token, got %d", rec.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/stats/llm", nil)
	req.Header.Set("Authorization", "Bearer secret")
	rec = httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 with valid token, got %d", rec.Code)
	}
}

func TestParseEndpoint(t *testing.T) {
	srv, _ := testServer(t, "")

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, uploadRequest(t, "/api/parse", "manual.txt", manualText))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		Success   bool   `json:"success"`
		CSVData   string `json:"csv_data"`
		Registers []struct {
			Address int `json:"address"`
		} `json:"registers"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid JSON response: %v", err)
	}
	if !resp.Success || len(resp.Registers) != 2 {
		t.Fatalf("unexpected response: %s", rec.Body.String())
	}
	if !strings.HasPrefix(resp.CSVData, "address,name,datatype") {
		t.Fatalf("unexpected csv: %q", resp.CSVData)
	}
}

func TestParseEndpointRejectsUnsupportedType(t *testing.T) {
	srv, _ := testServer(t, "")
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, uploadRequest(t, "/api/parse", "manual.exe", "MZ"))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestJobFlow(t *testing.T) {
	srv, orch := testServer(t, "")

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, uploadRequest(t, "/api/jobs", "manual.txt", manualText))
	if rec.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d: %s", rec.Code, rec.Body.String())
	}

	var created struct {
		JobID   string `json:"job_id"`
		PollURL string `json:"poll_url"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatal(err)
	}
	if created.JobID == "" || !strings.HasPrefix(created.PollURL, "/api/jobs/") {
		t.Fatalf("unexpected creation response: %s", rec.Body.String())
	}

	deadline := time.After(5 * time.Second)
	for {
		job := orch.GetJob(created.JobID)
		if job == nil {
			t.Fatal("job vanished from store")
		}
		snap := job.Snapshot()
		if snap.Status == pipeline.StatusCompleted {
			break
		}
		if snap.Status == pipeline.StatusFailed {
			t.Fatalf("job failed: %v", snap.Progress.Errors)
		}
		select {
		case <-deadline:
			t.Fatalf("job did not complete, status %s", snap.Status)
		case <-time.After(10 * time.Millisecond):
		}
	}

	rec = httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, created.PollURL, nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 polling job, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, created.PollURL+"/result?format=csv", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 for result, got %d: %s", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); ct != "text/csv" {
		t.Fatalf("expected text/csv, got %q", ct)
	}
	if !strings.HasPrefix(rec.Body.String(), "address,name,datatype") {
		t.Fatalf("unexpected csv body: %q", rec.Body.String())
	}

	rec = httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, created.PollURL+"/result?format=bogus", nil))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for bogus format, got %d", rec.Code)
	}
}

func TestJobNotFound(t *testing.T) {
	srv, _ := testServer(t, "")
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/jobs/unknown", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestSanitizeFilename(t *testing.T) {
	tests := []struct{ in, want string }{
		{"manual.pdf", "manual.pdf"},
		{"../../etc/passwd", "passwd"},
		{"dir/manual.pdf", "manual.pdf"},
		{"", "unnamed"},
		{".", "unnamed"},
	}
	for _, tt := range tests {
		if got := sanitizeFilename(tt.in); got != tt.want {
			t.Errorf("sanitizeFilename(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
