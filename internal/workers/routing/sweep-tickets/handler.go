// internal/workers/routing/sweep-tickets/handler.go
package sweeptickets

import (
	"context"
	"encoding/json"
	"time"

	"ticket-routing-workers/internal/common/errors"
	"ticket-routing-workers/internal/common/logger"
	"ticket-routing-workers/internal/common/metrics"
	"ticket-routing-workers/internal/routing"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const (
	TaskType = "sweep-tickets"
)

type Handler struct {
	config       *Config
	sweeper      *routing.Sweeper
	errorHandler *errors.ErrorHandler
	logger       logger.Logger
}

func NewHandler(config *Config, sweeper *routing.Sweeper, log logger.Logger) *Handler {
	return &Handler{
		config:       config,
		sweeper:      sweeper,
		errorHandler: errors.NewErrorHandler(log),
		logger:       log.WithFields(map[string]interface{}{"taskType": TaskType}),
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) error {
	start := time.Now()
	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	var input Input
	if len(job.Variables) > 0 {
		// Sweep input is optional; a parse failure just uses defaults.
		_ = json.Unmarshal([]byte(job.Variables), &input)
	}

	summary, err := h.sweeper.RunWithLimit(ctx, input.BatchSize)
	if err != nil {
		h.errorHandler.HandleJobError(ctx, client, job, err)
		code := "INTERNAL_ERROR"
		if stdErr, ok := err.(*errors.StandardError); ok {
			code = string(stdErr.Code)
		}
		metrics.WorkerJobsFailed.WithLabelValues(TaskType, code).Inc()
		return err
	}

	output := &Output{
		Scanned:    summary.Scanned,
		Routed:     summary.Routed,
		Skipped:    summary.Skipped,
		Unassigned: summary.Unassigned,
		Failed:     summary.Failed,
		FailedBy:   summary.FailedBy,
	}

	h.completeJob(ctx, client, job, output)
	metrics.WorkerJobsCompleted.WithLabelValues(TaskType).Inc()
	metrics.WorkerJobDuration.WithLabelValues(TaskType).Observe(time.Since(start).Seconds())
	return nil
}

func (h *Handler) completeJob(ctx context.Context, client worker.JobClient, job entities.Job, output *Output) {
	cmd, err := client.NewCompleteJobCommand().
		JobKey(job.Key).
		VariablesFromObject(output)
	if err != nil {
		h.logger.Error("failed to create complete job command", map[string]interface{}{
			"error": err,
		})
		return
	}
	_, err = cmd.Send(ctx)
	if err != nil {
		h.logger.Error("failed to send complete job command", map[string]interface{}{
			"error": err,
		})
	}
}
