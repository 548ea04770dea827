package ingest

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/dgallion1/modmap/internal/pipeline"
)

type captureSink struct {
	mu   sync.Mutex
	jobs []*pipeline.Job
}

func (s *captureSink) Submit(job *pipeline.Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs = append(s.jobs, job)
	return nil
}

func (s *captureSink) submitted() []*pipeline.Job {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*pipeline.Job(nil), s.jobs...)
}

func TestWatcherSubmitsDroppedManual(t *testing.T) {
	dir := t.TempDir()
	sink := &captureSink{}
	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	w := NewWatcher(sink, log, []string{dir})
	w.debounce = 50 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	// Give the watcher a moment to install its watches.
	time.Sleep(50 * time.Millisecond)

	path := filepath.Join(dir, "meter.txt")
	if err := os.WriteFile(path, []byte("modbus register map"), 0o644); err != nil {
		t.Fatal(err)
	}
	// Unsupported files must be ignored.
	if err := os.WriteFile(filepath.Join(dir, "notes.bin"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	deadline := time.After(3 * time.Second)
	for {
		jobs := sink.submitted()
		if len(jobs) == 1 {
			if jobs[0].Filename != "meter.txt" {
				t.Fatalf("unexpected filename: %q", jobs[0].Filename)
			}
			if string(jobs[0].FileData()) != "modbus register map" {
				t.Fatal("expected file contents carried into the job")
			}
			break
		}
		select {
		case <-deadline:
			t.Fatalf("expected 1 submitted job, got %d", len(jobs))
		case <-time.After(10 * time.Millisecond):
		}
	}

	cancel()
	if err := <-done; err != nil {
		t.Fatalf("unexpected watcher error: %v", err)
	}
}

// A flood of writes with a tiny debounce forces submissions to overlap
// new events arriving; run with -race to catch any shared state between
// the event loop and the debounce path.
func TestWatcherDebounceUnderEventFlood(t *testing.T) {
	dir := t.TempDir()
	sink := &captureSink{}
	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	w := NewWatcher(sink, log, []string{dir})
	w.debounce = time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	time.Sleep(50 * time.Millisecond)

	paths := make([]string, 5)
	for i := range paths {
		paths[i] = filepath.Join(dir, fmt.Sprintf("manual%d.txt", i))
	}
	stop := time.After(500 * time.Millisecond)
flood:
	for {
		for _, p := range paths {
			if err := os.WriteFile(p, []byte("register 40001 voltage"), 0o644); err != nil {
				t.Fatal(err)
			}
		}
		select {
		case <-stop:
			break flood
		case <-time.After(time.Millisecond):
		}
	}

	deadline := time.After(3 * time.Second)
	for {
		seen := map[string]bool{}
		for _, job := range sink.submitted() {
			seen[job.Filename] = true
		}
		if len(seen) == len(paths) {
			break
		}
		select {
		case <-deadline:
			t.Fatalf("expected all %d files submitted, saw %d", len(paths), len(seen))
		case <-time.After(10 * time.Millisecond):
		}
	}

	cancel()
	if err := <-done; err != nil {
		t.Fatalf("unexpected watcher error: %v", err)
	}
}

func TestWatcherRequiresDirectories(t *testing.T) {
	w := NewWatcher(&captureSink{}, slog.New(slog.NewTextHandler(io.Discard, nil)), nil)
	if err := w.Run(context.Background()); err == nil {
		t.Fatal("expected error with no directories")
	}
}
