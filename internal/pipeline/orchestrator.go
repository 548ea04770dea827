package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/dgallion1/modmap/internal/assemble"
	"github.com/dgallion1/modmap/internal/config"
	"github.com/dgallion1/modmap/internal/extract"
)

// Orchestrator manages the parse pipeline: a bounded job queue, a fixed
// worker pool, and TTL cleanup of finished jobs.
type Orchestrator struct {
	jobs   *JobStore
	queue  chan *Job
	client extract.Client
	stats  *extract.Stats
	log    *slog.Logger
	cfg    config.Config

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewOrchestrator creates the pipeline.
func NewOrchestrator(cfg config.Config, client extract.Client, stats *extract.Stats, log *slog.Logger) *Orchestrator {
	return &Orchestrator{
		jobs:   NewJobStore(cfg.JobTTL),
		queue:  make(chan *Job, cfg.MaxQueueSize),
		client: client,
		stats:  stats,
		log:    log,
		cfg:    cfg,
	}
}

// Start launches worker goroutines.
func (o *Orchestrator) Start(ctx context.Context) {
	workerCtx, cancel := context.WithCancel(ctx)
	o.cancel = cancel

	for range o.cfg.WorkerCount {
		o.wg.Add(1)
		go func() {
			defer o.wg.Done()
			w := NewWorker(o.client, o.stats, o.log, o.cfg.Assemble(), o.cfg.PageAnalyzers)
			for {
				select {
				case <-workerCtx.Done():
					return
				case job, ok := <-o.queue:
					if !ok {
						return
					}
					w.Process(workerCtx, job)
				}
			}
		}()
	}

	// Job store cleanup.
	o.wg.Add(1)
	go func() {
		defer o.wg.Done()
		ticker := time.NewTicker(5 * time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-workerCtx.Done():
				return
			case <-ticker.C:
				o.jobs.Cleanup()
			}
		}
	}()
}

// Stop gracefully shuts down the pipeline.
func (o *Orchestrator) Stop() {
	if o.cancel != nil {
		o.cancel()
	}
	close(o.queue)
	o.wg.Wait()
}

// Submit queues a new job for processing.
func (o *Orchestrator) Submit(job *Job) error {
	o.jobs.Put(job)
	select {
	case o.queue <- job:
		return nil
	default:
		job.AddError("job queue is full")
		job.SetStatus(StatusFailed)
		return fmt.Errorf("job queue is full (%d)", o.cfg.MaxQueueSize)
	}
}

// GetJob returns a job by ID.
func (o *Orchestrator) GetJob(id string) *Job {
	return o.jobs.Get(id)
}

// QueueDepth returns current queue depth.
func (o *Orchestrator) QueueDepth() int {
	return len(o.queue)
}

// AssembleConfig exposes the assembly parameters workers run with.
func (o *Orchestrator) AssembleConfig() assemble.Config {
	return o.cfg.Assemble()
}
