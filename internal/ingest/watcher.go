package ingest

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/dgallion1/modmap/internal/docread"
	"github.com/dgallion1/modmap/internal/pipeline"
)

// Sink receives jobs for dropped files. The pipeline orchestrator is
// the usual implementation.
type Sink interface {
	Submit(job *pipeline.Job) error
}

// Watcher submits a parse job for every supported manual dropped into
// one of the watched directories. Writes are debounced so a file still
// being copied in is picked up once, after it settles.
type Watcher struct {
	sink     Sink
	log      *slog.Logger
	dirs     []string
	debounce time.Duration
}

func NewWatcher(sink Sink, log *slog.Logger, dirs []string) *Watcher {
	return &Watcher{
		sink:     sink,
		log:      log,
		dirs:     dirs,
		debounce: 2 * time.Second,
	}
}

// Run watches until ctx is cancelled. It returns an error only if the
// watcher cannot be set up; runtime errors are logged and survived.
func (w *Watcher) Run(ctx context.Context) error {
	if len(w.dirs) == 0 {
		return errors.New("no watch directories configured")
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer fsw.Close()

	for _, dir := range w.dirs {
		if err := addRecursive(fsw, dir); err != nil {
			return err
		}
		w.log.Info("watching directory", "dir", dir)
	}

	// The debounce timer fires back into this select loop, so pending is
	// only ever touched by this goroutine.
	timer := time.NewTimer(w.debounce)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()
	pending := map[string]struct{}{}

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-timer.C:
			for path := range pending {
				delete(pending, path)
				w.submit(path)
			}
		case ev, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if ev.Op.Has(fsnotify.Create) {
				// A new subdirectory needs its own watch. Add is a
				// no-op error for plain files.
				if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
					if err := addRecursive(fsw, ev.Name); err != nil {
						w.log.Warn("failed to watch new directory", "path", ev.Name, "error", err)
					}
					continue
				}
			}
			if !docread.IsSupportedExtension(ev.Name) {
				continue
			}
			if ev.Op.Has(fsnotify.Create) || ev.Op.Has(fsnotify.Write) || ev.Op.Has(fsnotify.Rename) {
				pending[ev.Name] = struct{}{}
				if !timer.Stop() {
					select {
					case <-timer.C:
					default:
					}
				}
				timer.Reset(w.debounce)
			}
		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			w.log.Error("watcher error", "error", err)
		}
	}
}

func (w *Watcher) submit(path string) {
	data, err := os.ReadFile(path)
	if err != nil {
		w.log.Error("failed to read dropped file", "path", path, "error", err)
		return
	}
	if len(data) == 0 {
		return
	}

	job := pipeline.NewJob(filepath.Base(path), "", data)
	if err := w.sink.Submit(job); err != nil {
		w.log.Error("failed to submit watched file", "path", path, "error", err)
		return
	}
	w.log.Info("submitted watched file", "path", path, "job_id", job.ID)
}

func addRecursive(fsw *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() {
			return fsw.Add(path)
		}
		return nil
	})
}
