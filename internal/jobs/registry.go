package jobs

import (
	"sync"
	"time"

	"podcast-summarizer/internal/models"
)

// Registry tracks in-flight jobs in memory. It exists for status
// queries and graceful shutdown; the durable record of a job is the
// result file the pipeline writes.
type Registry struct {
	mu   sync.RWMutex
	jobs map[string]*models.Job
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{jobs: make(map[string]*models.Job)}
}

// Add registers a new job as processing.
func (r *Registry) Add(job *models.Job) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	job.Status = models.JobStatusProcessing
	job.CreatedAt = now
	job.StartedAt = &now
	r.jobs[job.ID] = job
}

// Get returns a copy of the job, or false when unknown.
func (r *Registry) Get(id string) (models.Job, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	job, ok := r.jobs[id]
	if !ok {
		return models.Job{}, false
	}
	return *job, true
}

// Complete marks the job finished.
func (r *Registry) Complete(id string) {
	r.finish(id, models.JobStatusCompleted, "")
}

// Fail marks the job failed with a reason.
func (r *Registry) Fail(id string, reason string) {
	r.finish(id, models.JobStatusFailed, reason)
}

func (r *Registry) finish(id, status, reason string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	job, ok := r.jobs[id]
	if !ok {
		return
	}
	now := time.Now()
	job.Status = status
	job.Error = reason
	job.CompletedAt = &now
}

// Active counts jobs still processing.
func (r *Registry) Active() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	count := 0
	for _, job := range r.jobs {
		if job.Status == models.JobStatusProcessing {
			count++
		}
	}
	return count
}
