// internal/common/camunda/worker.go
package camunda

import (
	"context"
	"time"

	"ticket-routing-workers/internal/common/config"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"go.uber.org/zap"
)

// JobHandler processes one activated job. Handlers report failures to the
// broker themselves; the returned error is only logged here.
type JobHandler func(client worker.JobClient, job entities.Job) error

// Worker is one registered Zeebe job worker.
type Worker struct {
	taskType string
	worker   worker.JobWorker
	log      *zap.Logger
}

// NewWorker registers a job worker for taskType and starts polling.
func NewWorker(client *Client, taskType string, wcfg config.WorkerConfig, handler JobHandler, log *zap.Logger) *Worker {
	jobWorker := client.Raw().NewJobWorker().
		JobType(taskType).
		Handler(func(jobClient worker.JobClient, job entities.Job) {
			if err := handler(jobClient, job); err != nil {
				log.Error("job handler failed",
					zap.String("taskType", taskType),
					zap.Int64("jobKey", job.Key),
					zap.Error(err),
				)
			}
		}).
		MaxJobsActive(wcfg.MaxJobsActive).
		Timeout(time.Duration(wcfg.Timeout) * time.Millisecond).
		Open()

	log.Info("worker started",
		zap.String("taskType", taskType),
		zap.Int("maxJobsActive", wcfg.MaxJobsActive),
		zap.Int("timeout_ms", wcfg.Timeout),
	)

	return &Worker{
		taskType: taskType,
		worker:   jobWorker,
		log:      log,
	}
}

// TaskType returns the registered job type.
func (w *Worker) TaskType() string {
	return w.taskType
}

// Stop closes the worker, abandoning the wait when ctx expires.
func (w *Worker) Stop(ctx context.Context) {
	done := make(chan struct{})
	go func() {
		w.worker.Close()
		close(done)
	}()

	select {
	case <-done:
		w.log.Info("worker stopped", zap.String("taskType", w.taskType))
	case <-ctx.Done():
		w.log.Warn("worker close timed out", zap.String("taskType", w.taskType))
	}
}
