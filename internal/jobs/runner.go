package jobs

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"podcast-summarizer/internal/models"
)

// Processor runs the processing pipeline for one job. It writes its own
// terminal result and never returns an error to the runner.
type Processor interface {
	Process(ctx context.Context, jobID, filePath string, meta *models.AudioMetadata)
}

// Runner executes jobs in background goroutines, one per job, and
// drains them on shutdown. Stage deadlines inside the pipeline bound
// each job's runtime, so the runner does not impose its own.
type Runner struct {
	registry  *Registry
	processor Processor
	log       *logrus.Entry

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewRunner returns a Runner ready to accept jobs.
func NewRunner(registry *Registry, processor Processor, log *logrus.Entry) *Runner {
	ctx, cancel := context.WithCancel(context.Background())
	return &Runner{
		registry:  registry,
		processor: processor,
		log:       log,
		ctx:       ctx,
		cancel:    cancel,
	}
}

// Submit registers the job and starts processing it in the background.
func (r *Runner) Submit(job *models.Job, meta *models.AudioMetadata) {
	r.registry.Add(job)
	r.wg.Add(1)

	go func() {
		defer r.wg.Done()

		r.log.WithFields(logrus.Fields{
			"job_id": job.ID,
			"file":   job.FileName,
		}).Info("job started")

		r.processor.Process(r.ctx, job.ID, job.AudioPath, meta)
		r.registry.Complete(job.ID)
	}()
}

// Stop cancels the shared context and waits up to timeout for running
// jobs to finish. Returns false when the drain timed out.
func (r *Runner) Stop(timeout time.Duration) bool {
	r.cancel()

	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		r.log.Info("all jobs drained")
		return true
	case <-time.After(timeout):
		r.log.Warnf("shutdown timed out with %d jobs still active", r.registry.Active())
		return false
	}
}
