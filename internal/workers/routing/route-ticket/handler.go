// internal/workers/routing/route-ticket/handler.go
package routeticket

import (
	"context"
	"encoding/json"
	"time"

	"ticket-routing-workers/internal/common/errors"
	"ticket-routing-workers/internal/common/logger"
	"ticket-routing-workers/internal/common/metrics"
	"ticket-routing-workers/internal/models"
	"ticket-routing-workers/internal/routing"
	"ticket-routing-workers/pkg/registry"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const (
	TaskType = "route-ticket"
)

type Handler struct {
	config       *Config
	router       *routing.TicketRouter
	activity     *registry.Activity
	errorHandler *errors.ErrorHandler
	logger       logger.Logger
}

func NewHandler(config *Config, router *routing.TicketRouter, activity *registry.Activity, log logger.Logger) *Handler {
	return &Handler{
		config:       config,
		router:       router,
		activity:     activity,
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

	input, err := h.parseInput(job)
	if err != nil {
		h.errorHandler.HandleJobError(ctx, client, job, err)
		metrics.WorkerJobsFailed.WithLabelValues(TaskType, string(errors.ErrCodeInvalidTicketPayload)).Inc()
		return err
	}

	output, err := h.execute(ctx, input)
	if err != nil {
		h.errorHandler.HandleJobError(ctx, client, job, err)
		code := "INTERNAL_ERROR"
		if stdErr, ok := err.(*errors.StandardError); ok {
			code = string(stdErr.Code)
		}
		metrics.WorkerJobsFailed.WithLabelValues(TaskType, code).Inc()
		return err
	}

	h.completeJob(ctx, client, job, output)
	metrics.WorkerJobsCompleted.WithLabelValues(TaskType).Inc()
	metrics.WorkerJobDuration.WithLabelValues(TaskType).Observe(time.Since(start).Seconds())
	return nil
}

func (h *Handler) parseInput(job entities.Job) (*Input, error) {
	var raw map[string]interface{}
	if err := json.Unmarshal([]byte(job.Variables), &raw); err != nil {
		return nil, errors.NewInvalidTicketPayloadError(err.Error())
	}

	if h.activity != nil {
		if err := h.activity.ValidateInput(raw); err != nil {
			return nil, errors.NewInvalidTicketPayloadError(err.Error())
		}
	}

	var input Input
	if err := json.Unmarshal([]byte(job.Variables), &input); err != nil {
		return nil, errors.NewInvalidTicketPayloadError(err.Error())
	}
	if input.TicketID == "" && input.Ticket == nil {
		return nil, errors.NewInvalidTicketPayloadError("either ticketId or ticket is required")
	}

	return &input, nil
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	var (
		result *routing.RouteResult
		err    error
	)
	if input.Ticket != nil {
		result, err = h.router.Route(ctx, input.Ticket)
	} else {
		result, err = h.router.RouteByID(ctx, input.TicketID)
	}
	if err != nil {
		return nil, err
	}

	output := &Output{Outcome: string(result.Outcome)}

	if result.Recommendation != nil && result.Outcome == models.OutcomeAssigned {
		rec := result.Recommendation
		output.AssigneeID = rec.AssigneeID
		output.AssigneeType = string(rec.AssigneeType)
		output.Confidence = rec.Confidence
		output.Factors = rec.Factors
		output.Alternatives = rec.Alternatives
		if rec.Factors != nil {
			output.SimilarTickets = rec.Factors.SimilarTicketIDs
		}
	}

	return output, nil
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
