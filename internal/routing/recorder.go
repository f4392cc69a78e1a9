// internal/routing/recorder.go
package routing

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"ticket-routing-workers/internal/common/database"
	"ticket-routing-workers/internal/common/errors"
	"ticket-routing-workers/internal/common/logger"
	"ticket-routing-workers/internal/models"
)

// DecisionRecorder persists routing decisions. Assignment and audit history
// are written in one transaction; a ticket is never assigned without a
// matching history row.
type DecisionRecorder struct {
	db          *database.PostgresClient
	logger      logger.Logger
	maxAttempts int
	baseDelay   time.Duration
}

func NewDecisionRecorder(db *database.PostgresClient, log logger.Logger) *DecisionRecorder {
	return &DecisionRecorder{
		db:          db,
		logger:      log,
		maxAttempts: 3,
		baseDelay:   100 * time.Millisecond,
	}
}

// RecordAssignment claims the ticket for the decision's assignee. The update
// is conditional on the ticket still being unassigned; losing the race to
// another writer surfaces as PERSISTENCE_CONFLICT and writes nothing.
// Transient commit failures are retried with exponential backoff.
func (r *DecisionRecorder) RecordAssignment(ctx context.Context, decision *models.RoutingDecision) error {
	var lastErr error
	for attempt := 0; attempt < r.maxAttempts; attempt++ {
		err := r.recordAssignmentOnce(ctx, decision)
		if err == nil {
			return nil
		}

		// Conflicts are terminal for this pass, not transient.
		if stdErr, ok := err.(*errors.StandardError); ok && stdErr.Code == errors.ErrCodePersistenceConflict {
			return err
		}

		lastErr = err
		delay := r.baseDelay * time.Duration(1<<attempt)
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return errors.NewQueryExecutionFailedError("record_assignment", ctx.Err())
		}
	}
	return lastErr
}

func (r *DecisionRecorder) recordAssignmentOnce(ctx context.Context, decision *models.RoutingDecision) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.NewDatabaseConnectionFailedError(err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx, `
		UPDATE tickets
		SET assignee_id = $2, assignee_type = $3
		WHERE id = $1 AND assignee_id IS NULL`,
		decision.TicketID, decision.AssigneeID, string(decision.AssigneeType),
	)
	if err != nil {
		return errors.NewQueryExecutionFailedError("assign_ticket", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return errors.NewQueryExecutionFailedError("assign_ticket", err)
	}
	if affected == 0 {
		return errors.NewPersistenceConflictError(decision.TicketID)
	}

	if err := insertHistory(ctx, tx, decision); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return errors.NewQueryExecutionFailedError("commit_assignment", err)
	}

	return nil
}

// Reassign moves a ticket from a known previous assignee to a new one with a
// compare-and-swap, appending a fresh decision record.
func (r *DecisionRecorder) Reassign(ctx context.Context, previousAssigneeID string, decision *models.RoutingDecision) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.NewDatabaseConnectionFailedError(err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx, `
		UPDATE tickets
		SET assignee_id = $2, assignee_type = $3
		WHERE id = $1 AND assignee_id = $4`,
		decision.TicketID, decision.AssigneeID, string(decision.AssigneeType), previousAssigneeID,
	)
	if err != nil {
		return errors.NewQueryExecutionFailedError("reassign_ticket", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return errors.NewQueryExecutionFailedError("reassign_ticket", err)
	}
	if affected == 0 {
		return errors.NewPersistenceConflictError(decision.TicketID)
	}

	if err := insertHistory(ctx, tx, decision); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return errors.NewQueryExecutionFailedError("commit_reassignment", err)
	}

	return nil
}

// RecordNoCandidates appends the terminal no-candidate outcome without
// touching the ticket row.
func (r *DecisionRecorder) RecordNoCandidates(ctx context.Context, decision *models.RoutingDecision) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.NewDatabaseConnectionFailedError(err)
	}
	defer tx.Rollback()

	if err := insertHistory(ctx, tx, decision); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return errors.NewQueryExecutionFailedError("commit_history", err)
	}

	return nil
}

func insertHistory(ctx context.Context, tx *sql.Tx, decision *models.RoutingDecision) error {
	var factorsJSON interface{}
	if decision.Factors != nil {
		data, err := json.Marshal(decision.Factors)
		if err != nil {
			return errors.NewQueryExecutionFailedError("marshal_factors", err)
		}
		factorsJSON = data
	}

	var assignedTo, assigneeType interface{}
	if decision.AssigneeID != "" {
		assignedTo = decision.AssigneeID
		assigneeType = string(decision.AssigneeType)
	}

	_, err := tx.ExecContext(ctx, `
		INSERT INTO ticket_routing_history
			(id, ticket_id, assigned_to, assignee_type, outcome, confidence_score, routing_factors, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		decision.ID, decision.TicketID, assignedTo, assigneeType,
		string(decision.Outcome), decision.Confidence, factorsJSON, decision.CreatedAt,
	)
	if err != nil {
		return errors.NewQueryExecutionFailedError("insert_routing_history", err)
	}
	return nil
}
