package pipeline

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/dgallion1/modmap/internal/assemble"
	"github.com/dgallion1/modmap/internal/document"
	"github.com/dgallion1/modmap/internal/extract"
)

// stubClient returns a canned extraction response.
type stubClient struct {
	response string
	err      error
	calls    int
}

func (s *stubClient) Extract(ctx context.Context, system, user string) (string, error) {
	s.calls++
	return s.response, s.err
}

func (s *stubClient) Name() string { return "stub" }
func (s *stubClient) Close()       {}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

const manualText = `APPENDIX A MODBUS REGISTER MAP

Address    Name          Type
40001      Voltage L1    UINT16
40002      Voltage L2    UINT16
`

func newTestWorker(client extract.Client) *Worker {
	return NewWorker(client, extract.NewStats("stub", time.Hour), discardLogger(), assemble.DefaultConfig(), 2)
}

func TestWorkerProcessCompletes(t *testing.T) {
	stub := &stubClient{response: `{"registers": [
		{"address": 40001, "name": "Voltage L1", "datatype": "uint16"},
		{"address": 40002, "name": "Voltage L2", "datatype": "uint16"},
		{"address": 40001, "name": "Voltage L1", "datatype": "uint16"}
	]}`}
	w := newTestWorker(stub)

	job := NewJob("manual.txt", "PM710", []byte(manualText))
	w.Process(context.Background(), job)

	if job.Status != StatusCompleted {
		t.Fatalf("expected completed, got %s (errors: %v)", job.Status, job.Progress.Errors)
	}
	res := job.Result()
	if res == nil {
		t.Fatal("expected a result")
	}
	if len(res.Registers) != 2 {
		t.Fatalf("expected 2 reconciled registers, got %d", len(res.Registers))
	}
	if !strings.HasPrefix(res.CSVData, "address,name,datatype") {
		t.Fatalf("unexpected csv: %q", res.CSVData)
	}
	if job.FileData() != nil {
		t.Fatal("expected file data released after processing")
	}
	if job.Progress.TotalPages != 1 {
		t.Fatalf("expected analysis recorded, got %+v", job.Progress)
	}
}

func TestWorkerProcessUnsupportedFormat(t *testing.T) {
	w := newTestWorker(&stubClient{})
	job := NewJob("manual.xyz", "", []byte("data"))
	w.Process(context.Background(), job)
	if job.Status != StatusFailed {
		t.Fatalf("expected failed, got %s", job.Status)
	}
	if len(job.Progress.Errors) == 0 {
		t.Fatal("expected an error recorded")
	}
}

func TestWorkerProcessExtractionError(t *testing.T) {
	stub := &stubClient{err: errors.New("api key rejected")}
	w := newTestWorker(stub)
	job := NewJob("manual.txt", "", []byte(manualText))
	w.Process(context.Background(), job)

	if job.Status != StatusFailed {
		t.Fatalf("expected failed, got %s", job.Status)
	}
	if stub.calls != 1 {
		t.Fatalf("expected no retries for a non-retryable error, got %d calls", stub.calls)
	}
}

func TestWorkerProcessMalformedResponse(t *testing.T) {
	stub := &stubClient{response: "I found no registers, sorry."}
	w := newTestWorker(stub)
	job := NewJob("manual.txt", "", []byte(manualText))
	w.Process(context.Background(), job)

	if job.Status != StatusFailed {
		t.Fatalf("expected failed, got %s", job.Status)
	}
}

func TestParseDocumentEmpty(t *testing.T) {
	_, err := ParseDocument(context.Background(), document.Document{}, &stubClient{}, extract.NewStats("stub", time.Hour), discardLogger(), assemble.DefaultConfig(), 1)
	if !IsEmptyDocument(err) {
		t.Fatalf("expected empty-document error, got %v", err)
	}
}
