package pipeline

import (
	"crypto/sha256"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// JobStatus represents the state of a batch job.
type JobStatus string

const (
	StatusQueued    JobStatus = "queued"
	StatusParsing   JobStatus = "parsing"
	StatusStoring   JobStatus = "storing"
	StatusCompleted JobStatus = "completed"
	StatusFailed    JobStatus = "failed"
	StatusPartial   JobStatus = "partial"
	StatusCancelled JobStatus = "cancelled"
)

// Job tracks one submitted batch of documents.
type Job struct {
	mu sync.Mutex

	ID     string    `json:"job_id"`
	Status JobStatus `json:"status"`
	Phase  string    `json:"phase"`

	Progress Progress `json:"progress"`

	ContentHash string    `json:"content_hash,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	// Internal: not serialized.
	docs   []Document
	batch  *Batch
	errors []string
}

// Progress tracks processing progress.
type Progress struct {
	TotalDocs     int      `json:"total_docs"`
	DocsProcessed int      `json:"docs_processed"`
	Succeeded     int      `json:"succeeded"`
	Failed        int      `json:"failed"`
	Skipped       int      `json:"skipped"`
	Excluded      int      `json:"excluded"`
	RecordsStored int      `json:"records_stored"`
	Errors        []string `json:"errors"`
}

// NewJob creates a queued job for docs. The content hash covers every
// identity and page so resubmissions of the same corpus are recognizable.
func NewJob(docs []Document) *Job {
	h := sha256.New()
	for _, d := range docs {
		h.Write([]byte(d.Identity))
		h.Write([]byte{0})
		h.Write(d.Data)
		h.Write([]byte{0})
	}
	now := time.Now()
	return &Job{
		ID:          uuid.NewString(),
		Status:      StatusQueued,
		Phase:       "queued",
		Progress:    Progress{TotalDocs: len(docs)},
		ContentHash: fmt.Sprintf("%x", h.Sum(nil)),
		CreatedAt:   now,
		UpdatedAt:   now,
		docs:        docs,
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

func (s *JobStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.jobs)
}

// Cleanup removes expired jobs.
func (s *JobStore) Cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	for id, job := range s.jobs {
		job.mu.Lock()
		updated := job.UpdatedAt
		job.mu.Unlock()
		if now.Sub(updated) > s.ttl {
			delete(s.jobs, id)
		}
	}
}

// SetStatus updates job status atomically.
func (j *Job) SetStatus(status JobStatus, phase string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Status = status
	j.Phase = phase
	j.UpdatedAt = time.Now()
}

// AddError records an error.
func (j *Job) AddError(err string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.errors = append(j.errors, err)
	j.Progress.Errors = j.errors
	j.UpdatedAt = time.Now()
}

// RecordResult counts one finished document.
func (j *Job) RecordResult(r Result) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Progress.DocsProcessed++
	switch r.Outcome {
	case OutcomeParsed:
		j.Progress.Succeeded++
	case OutcomeFailed:
		j.Progress.Failed++
	case OutcomeSkipped:
		j.Progress.Skipped++
	case OutcomeExcluded:
		j.Progress.Excluded++
	}
	j.UpdatedAt = time.Now()
}

// AddStored records how many records reached the sink.
func (j *Job) AddStored(n int) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Progress.RecordsStored += n
	j.UpdatedAt = time.Now()
}

// Documents returns the submitted documents.
func (j *Job) Documents() []Document {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.docs
}

// SetBatch stores the finished batch and releases the raw documents.
func (j *Job) SetBatch(b *Batch) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.batch = b
	j.docs = nil
	j.UpdatedAt = time.Now()
}

// Batch returns the finished batch, or nil while the job is running.
func (j *Job) Batch() *Batch {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.batch
}

// JobSnapshot is a read-only, JSON-safe copy of job state.
type JobSnapshot struct {
	ID        string    `json:"job_id"`
	Status    JobStatus `json:"status"`
	Phase     string    `json:"phase"`
	Progress  Progress  `json:"progress"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Snapshot returns a JSON-safe copy of the job state.
func (j *Job) Snapshot() JobSnapshot {
	j.mu.Lock()
	defer j.mu.Unlock()
	p := j.Progress
	p.Errors = append([]string{}, j.Progress.Errors...)
	return JobSnapshot{
		ID:        j.ID,
		Status:    j.Status,
		Phase:     j.Phase,
		Progress:  p,
		CreatedAt: j.CreatedAt,
		UpdatedAt: j.UpdatedAt,
	}
}
