package pipeline

import (
	"testing"
	"time"

	"github.com/dgallion1/modmap/internal/assemble"
	"github.com/dgallion1/modmap/internal/register"
)

func TestJobLifecycle(t *testing.T) {
	job := NewJob("meter.pdf", "PM710", []byte("data"))
	if job.ID == "" {
		t.Fatal("expected a job ID")
	}
	if job.Status != StatusQueued {
		t.Fatalf("expected queued, got %s", job.Status)
	}

	before := job.UpdatedAt
	time.Sleep(time.Millisecond)
	job.SetStatus(StatusExtracting)
	if job.Status != StatusExtracting {
		t.Fatalf("expected extracting, got %s", job.Status)
	}
	if !job.UpdatedAt.After(before) {
		t.Fatal("expected UpdatedAt to advance")
	}

	job.SetAnalysis(assemble.Summary{
		TotalPages:    12,
		HighCount:     2,
		IncludedPages: []int{3, 7},
		TotalChars:    5000,
	})
	job.SetResult(&Result{
		Registers: []register.Register{{Address: 40001, Name: "Voltage"}},
		CSVData:   "csv",
		JSONData:  "json",
	})
	job.SetStatus(StatusCompleted)

	snap := job.Snapshot()
	if snap.Progress.TotalPages != 12 || snap.Progress.RegistersFound != 1 {
		t.Fatalf("unexpected progress: %+v", snap.Progress)
	}
	if res := job.Result(); res == nil || res.CSVData != "csv" {
		t.Fatalf("unexpected result: %+v", res)
	}
}

func TestJobReleaseFileData(t *testing.T) {
	job := NewJob("meter.pdf", "", []byte("payload"))
	if string(job.FileData()) != "payload" {
		t.Fatal("expected file data retained until release")
	}
	job.ReleaseFileData()
	if job.FileData() != nil {
		t.Fatal("expected file data released")
	}
}

func TestJobSnapshotNeverNilSlices(t *testing.T) {
	snap := NewJob("a.pdf", "", nil).Snapshot()
	if snap.Progress.Errors == nil || snap.Progress.IncludedPages == nil {
		t.Fatal("expected empty slices in snapshot, got nil")
	}
}

func TestJobStoreCleanup(t *testing.T) {
	store := NewJobStore(10 * time.Millisecond)

	stale := NewJob("old.pdf", "", nil)
	store.Put(stale)
	if store.Get(stale.ID) == nil {
		t.Fatal("expected job retrievable before expiry")
	}

	time.Sleep(25 * time.Millisecond)
	fresh := NewJob("new.pdf", "", nil)
	store.Put(fresh)
	store.Cleanup()

	if store.Get(stale.ID) != nil {
		t.Fatal("expected stale job evicted")
	}
	if store.Get(fresh.ID) == nil {
		t.Fatal("expected fresh job retained")
	}
}
