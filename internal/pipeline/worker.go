package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/avast/retry-go/v4"

	"github.com/dgallion1/modmap/internal/assemble"
	"github.com/dgallion1/modmap/internal/docread"
	"github.com/dgallion1/modmap/internal/document"
	"github.com/dgallion1/modmap/internal/extract"
	"github.com/dgallion1/modmap/internal/register"
	"github.com/dgallion1/modmap/internal/relevance"
)

const maxExtractAttempts = 3

// Worker runs the full parse pipeline for one job at a time:
// read pages → rank → assemble context → extract → reconcile.
type Worker struct {
	client      extract.Client
	stats       *extract.Stats
	log         *slog.Logger
	assembleCfg assemble.Config
	analyzers   int
}

func NewWorker(client extract.Client, stats *extract.Stats, log *slog.Logger, assembleCfg assemble.Config, analyzers int) *Worker {
	return &Worker{
		client:      client,
		stats:       stats,
		log:         log,
		assembleCfg: assembleCfg,
		analyzers:   analyzers,
	}
}

// Process runs the pipeline for a job, recording progress and errors on
// the job itself.
func (w *Worker) Process(ctx context.Context, job *Job) {
	log := w.log.With("job_id", job.ID, "filename", job.Filename)
	defer job.ReleaseFileData()

	job.SetStatus(StatusReading)
	reader, err := docread.ForFile(job.Filename)
	if err != nil {
		w.fail(job, log, "unsupported format", err)
		return
	}
	doc, err := reader.Read(bytes.NewReader(job.FileData()), job.Filename)
	if err != nil {
		w.fail(job, log, "read failed", err)
		return
	}
	if job.Title != "" {
		doc.Title = job.Title
	}

	job.SetStatus(StatusRanking)
	ranking, err := relevance.Rank(doc, w.analyzers)
	if err != nil {
		w.fail(job, log, "ranking failed", err)
		return
	}

	job.SetStatus(StatusAssembling)
	assembled := assemble.Assemble(ranking.Chunks, ranking.Hints, w.assembleCfg)
	job.SetAnalysis(assembled.Summary)
	log.Info("context assembled",
		"pages", assembled.Summary.TotalPages,
		"high", assembled.Summary.HighCount,
		"medium", assembled.Summary.MediumCount,
		"low", assembled.Summary.LowCount,
		"chars", assembled.Summary.TotalChars,
	)

	job.SetStatus(StatusExtracting)
	result, err := w.extract(ctx, assembled)
	if err != nil {
		w.fail(job, log, "extraction failed", err)
		return
	}

	job.SetStatus(StatusReconciling)
	registers := register.Reconcile(result.Registers)
	log.Info("registers reconciled", "raw", len(result.Registers), "kept", len(registers))

	csvData, err := register.ToCSV(registers)
	if err != nil {
		w.fail(job, log, "render csv", err)
		return
	}
	jsonData, err := register.ToJSON(registers)
	if err != nil {
		w.fail(job, log, "render json", err)
		return
	}

	job.SetResult(&Result{
		Registers: registers,
		CSVData:   csvData,
		JSONData:  jsonData,
		Metadata:  result.Metadata,
	})
	job.SetStatus(StatusCompleted)
}

// extract calls the model with retries on transient failures and parses
// the validated result.
func (w *Worker) extract(ctx context.Context, assembled assemble.Context) (*extract.Result, error) {
	prompt := extract.BuildPrompt(assembled.Text, assembled.Summary.String())

	var raw string
	err := retry.Do(
		func() error {
			start := time.Now()
			var callErr error
			raw, callErr = w.client.Extract(ctx, extract.SystemPrompt, prompt)
			w.stats.Record(time.Since(start), callErr != nil)
			return callErr
		},
		retry.Attempts(maxExtractAttempts),
		retry.RetryIf(extract.IsRetryable),
		retry.Context(ctx),
		retry.Delay(2*time.Second),
		retry.MaxDelay(30*time.Second),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(attempt uint, err error) {
			w.log.Warn("retrying extraction", "attempt", attempt, "error", err)
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("extract registers: %w", err)
	}

	result, err := extract.ParseResult(raw)
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (w *Worker) fail(job *Job, log *slog.Logger, msg string, err error) {
	log.Error(msg, "error", err)
	job.AddError(fmt.Sprintf("%s: %s", msg, err))
	job.SetStatus(StatusFailed)
}

// ParseDocument runs the pipeline synchronously for an already-read page
// set; the sync API path and the CLI share it.
func ParseDocument(ctx context.Context, doc document.Document, client extract.Client, stats *extract.Stats, log *slog.Logger, cfg assemble.Config, analyzers int) (*Result, error) {
	ranking, err := relevance.Rank(doc, analyzers)
	if err != nil {
		return nil, err
	}
	assembled := assemble.Assemble(ranking.Chunks, ranking.Hints, cfg)

	w := &Worker{client: client, stats: stats, log: log, assembleCfg: cfg, analyzers: analyzers}
	extracted, err := w.extract(ctx, assembled)
	if err != nil {
		return nil, err
	}

	registers := register.Reconcile(extracted.Registers)
	csvData, err := register.ToCSV(registers)
	if err != nil {
		return nil, fmt.Errorf("render csv: %w", err)
	}
	jsonData, err := register.ToJSON(registers)
	if err != nil {
		return nil, fmt.Errorf("render json: %w", err)
	}
	return &Result{
		Registers: registers,
		CSVData:   csvData,
		JSONData:  jsonData,
		Metadata:  extracted.Metadata,
	}, nil
}

// IsEmptyDocument reports whether err came from a manual with no pages.
func IsEmptyDocument(err error) bool {
	return errors.Is(err, relevance.ErrEmptyDocument)
}
