package pipeline

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dgallion1/modmap/internal/assemble"
	"github.com/dgallion1/modmap/internal/register"
)

// JobStatus represents the state of a parse job.
type JobStatus string

const (
	StatusQueued      JobStatus = "queued"
	StatusReading     JobStatus = "reading"
	StatusRanking     JobStatus = "ranking"
	StatusAssembling  JobStatus = "assembling"
	StatusExtracting  JobStatus = "extracting"
	StatusReconciling JobStatus = "reconciling"
	StatusCompleted   JobStatus = "completed"
	StatusFailed      JobStatus = "failed"
)

// Progress tracks how far a job has come and what the analysis saw.
type Progress struct {
	TotalPages     int      `json:"total_pages"`
	HighPages      int      `json:"high_pages"`
	MediumPages    int      `json:"medium_pages"`
	LowPages       int      `json:"low_pages"`
	IncludedPages  []int    `json:"included_pages"`
	ContextChars   int      `json:"context_chars"`
	RegistersFound int      `json:"registers_found"`
	Errors         []string `json:"errors"`
}

// Result holds a completed job's output, rendered once so repeated
// downloads cost nothing.
type Result struct {
	Registers []register.Register
	CSVData   string
	JSONData  string
	Metadata  map[string]any
}

// Job tracks the state of a single manual parse.
type Job struct {
	mu sync.Mutex

	ID       string    `json:"job_id"`
	Filename string    `json:"filename"`
	Title    string    `json:"title"`
	Status   JobStatus `json:"status"`

	Progress Progress `json:"progress"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Internal: not serialized.
	fileData []byte
	result   *Result
}

// NewJob creates a queued job for an uploaded manual.
func NewJob(filename, title string, data []byte) *Job {
	now := time.Now()
	return &Job{
		ID:        uuid.NewString(),
		Filename:  filename,
		Title:     title,
		Status:    StatusQueued,
		CreatedAt: now,
		UpdatedAt: now,
		fileData:  data,
	}
}

// SetStatus updates job status atomically.
func (j *Job) SetStatus(status JobStatus) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Status = status
	j.UpdatedAt = time.Now()
}

// AddError records an error.
func (j *Job) AddError(err string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Progress.Errors = append(j.Progress.Errors, err)
	j.UpdatedAt = time.Now()
}

// SetAnalysis records what the ranking and assembly stages observed.
func (j *Job) SetAnalysis(summary assemble.Summary) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Progress.TotalPages = summary.TotalPages
	j.Progress.HighPages = summary.HighCount
	j.Progress.MediumPages = summary.MediumCount
	j.Progress.LowPages = summary.LowCount
	j.Progress.IncludedPages = summary.IncludedPages
	j.Progress.ContextChars = summary.TotalChars
	j.UpdatedAt = time.Now()
}

// SetResult stores the completed output.
func (j *Job) SetResult(res *Result) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.result = res
	j.Progress.RegistersFound = len(res.Registers)
	j.UpdatedAt = time.Now()
}

// Result returns the completed output, or nil while processing.
func (j *Job) Result() *Result {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.result
}

// FileData returns the raw uploaded bytes.
func (j *Job) FileData() []byte {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.fileData
}

// ReleaseFileData drops the upload once processing is done.
func (j *Job) ReleaseFileData() {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.fileData = nil
}

// JobSnapshot is a read-only, JSON-safe copy of job state.
type JobSnapshot struct {
	ID        string    `json:"job_id"`
	Filename  string    `json:"filename"`
	Title     string    `json:"title"`
	Status    JobStatus `json:"status"`
	Progress  Progress  `json:"progress"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Snapshot returns a JSON-safe copy of the job state.
func (j *Job) Snapshot() JobSnapshot {
	j.mu.Lock()
	defer j.mu.Unlock()
	prog := j.Progress
	if prog.Errors == nil {
		prog.Errors = []string{}
	}
	if prog.IncludedPages == nil {
		prog.IncludedPages = []int{}
	}
	return JobSnapshot{
		ID:        j.ID,
		Filename:  j.Filename,
		Title:     j.Title,
		Status:    j.Status,
		Progress:  prog,
		CreatedAt: j.CreatedAt,
		UpdatedAt: j.UpdatedAt,
	}
}

// JobStore is a thread-safe in-memory job registry with TTL eviction.
type JobStore struct {
	mu   sync.Mutex
	jobs map[string]*Job
	ttl  time.Duration
}

func NewJobStore(ttl time.Duration) *JobStore {
	return &JobStore{
		jobs: make(map[string]*Job),
		ttl:  ttl,
	}
}

func (s *JobStore) Put(job *Job) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs[job.ID] = job
}

func (s *JobStore) Get(id string) *Job {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.jobs[id]
}

// Cleanup removes expired jobs.
func (s *JobStore) Cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	for id, job := range s.jobs {
		job.mu.Lock()
		expired := now.Sub(job.UpdatedAt) > s.ttl
		job.mu.Unlock()
		if expired {
			delete(s.jobs, id)
		}
	}
}
