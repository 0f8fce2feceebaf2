// internal/workers/application/transition-application-status/handler.go
package transitionapplicationstatus

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"hrflow-workers/internal/common/logger"
	"hrflow-workers/internal/common/metrics"
	"hrflow-workers/internal/workflow"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const (
	TaskType = "transition-application-status"
)

var (
	ErrApplicationNotFound     = errors.New("APPLICATION_NOT_FOUND")
	ErrIllegalStatusTransition = errors.New("ILLEGAL_STATUS_TRANSITION")
	ErrInvalidTargetStatus     = errors.New("INVALID_TARGET_STATUS")
	ErrDatabaseInsertFailed    = errors.New("DATABASE_INSERT_FAILED")
)

type Handler struct {
	db     *sql.DB
	logger logger.Logger
}

func NewHandler(config *Config, db *sql.DB, log logger.Logger) *Handler {
	return &Handler{
		db:     db,
		logger: log.WithFields(map[string]interface{}{"taskType": TaskType}),
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})

	var input Input
	if err := json.Unmarshal([]byte(job.Variables), &input); err != nil {
		h.failJob(client, job, "PARSE_ERROR", fmt.Sprintf("parse input: %v", err), 0)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	output, err := h.execute(ctx, &input)
	if err != nil {
		errorCode := "UNKNOWN_ERROR"
		retries := int32(0)
		if errors.Is(err, ErrApplicationNotFound) {
			errorCode = "APPLICATION_NOT_FOUND"
		} else if errors.Is(err, ErrIllegalStatusTransition) {
			errorCode = "ILLEGAL_STATUS_TRANSITION"
		} else if errors.Is(err, ErrInvalidTargetStatus) {
			errorCode = "INVALID_TARGET_STATUS"
		} else if errors.Is(err, ErrDatabaseInsertFailed) {
			errorCode = "DATABASE_INSERT_FAILED"
			retries = 3
		}
		h.failJob(client, job, errorCode, err.Error(), retries)
		return
	}

	h.completeJob(client, job, output)
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	var currentRaw string
	var followupCount int
	err := h.db.QueryRowContext(ctx, `
		SELECT status, followup_count FROM applications
		WHERE id = $1 AND NOT is_deleted`, input.ApplicationID).
		Scan(&currentRaw, &followupCount)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: application %s", ErrApplicationNotFound, input.ApplicationID)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: application lookup failed: %v", ErrDatabaseInsertFailed, err)
	}

	current, err := workflow.ParseStatus(currentRaw)
	if err != nil {
		return nil, fmt.Errorf("%w: stored status: %v", ErrInvalidTargetStatus, err)
	}

	target, err := h.resolveTarget(input)
	if err != nil {
		return nil, err
	}

	newStatus, err := workflow.Transition(current, target)
	if err != nil {
		metrics.TransitionsRejected.WithLabelValues(string(current), string(target)).Inc()
		return nil, fmt.Errorf("%w: %v", ErrIllegalStatusTransition, err)
	}

	updatedAt := time.Now().UTC().Format(time.RFC3339)

	// Moving into FOLLOWED_UP records one more follow-up touch; a self loop
	// on FOLLOWED_UP counts too, that is how repeated relances are tracked.
	if newStatus == workflow.StatusFollowedUp {
		followupCount++
		_, err = h.db.ExecContext(ctx, `
			UPDATE applications
			SET status = $1, followup_count = $2, last_followup_at = $3, updated_at = $3
			WHERE id = $4 AND NOT is_deleted`,
			string(newStatus), followupCount, updatedAt, input.ApplicationID)
	} else {
		_, err = h.db.ExecContext(ctx, `
			UPDATE applications
			SET status = $1, updated_at = $2
			WHERE id = $3 AND NOT is_deleted`,
			string(newStatus), updatedAt, input.ApplicationID)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: status update failed: %v", ErrDatabaseInsertFailed, err)
	}

	metrics.StatusTransitions.WithLabelValues(string(current), string(newStatus)).Inc()

	// Create audit log entry (non-critical, log error but don't fail)
	auditDetailsJSON, err := json.Marshal(map[string]interface{}{
		"previousStatus": string(current),
		"newStatus":      string(newStatus),
		"action":         input.Action,
		"actorId":        input.ActorID,
		"note":           input.Note,
	})
	if err != nil {
		h.logger.Warn("failed to marshal audit log details", map[string]interface{}{
			"error": err,
		})
		auditDetailsJSON = []byte("{}")
	}

	_, err = h.db.ExecContext(ctx, `
		INSERT INTO audit_log (event_type, resource_type, resource_id, details, created_at)
		VALUES ($1, $2, $3, $4, $5)`,
		"application_status_changed",
		"application",
		input.ApplicationID,
		auditDetailsJSON,
		updatedAt,
	)
	if err != nil {
		h.logger.Warn("audit log insert failed", map[string]interface{}{
			"error":         err,
			"applicationId": input.ApplicationID,
		})
	}

	h.logger.Info("application status changed", map[string]interface{}{
		"applicationId":  input.ApplicationID,
		"previousStatus": string(current),
		"newStatus":      string(newStatus),
	})

	return &Output{
		ApplicationID:  input.ApplicationID,
		PreviousStatus: string(current),
		NewStatus:      string(newStatus),
		FollowupCount:  followupCount,
		UpdatedAt:      updatedAt,
	}, nil
}

func (h *Handler) resolveTarget(input *Input) (workflow.Status, error) {
	if input.Action != "" {
		target, err := workflow.ResolveQuickAction(workflow.QuickAction(input.Action))
		if err != nil {
			return "", fmt.Errorf("%w: %v", ErrInvalidTargetStatus, err)
		}
		return target, nil
	}
	target, err := workflow.ParseStatus(input.TargetStatus)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidTargetStatus, err)
	}
	return target, nil
}

func (h *Handler) completeJob(client worker.JobClient, job entities.Job, output *Output) {
	cmd, err := client.NewCompleteJobCommand().
		JobKey(job.Key).
		VariablesFromObject(output)
	if err != nil {
		h.logger.Error("failed to create complete job command", map[string]interface{}{
			"error": err,
		})
		return
	}
	_, err = cmd.Send(context.Background())
	if err != nil {
		h.logger.Error("failed to send complete job command", map[string]interface{}{
			"error": err,
		})
	} else {
		metrics.WorkerJobsCompleted.WithLabelValues(TaskType).Inc()
		h.logger.Info("job completed successfully", map[string]interface{}{
			"jobKey": job.Key,
		})
	}
}

func (h *Handler) failJob(client worker.JobClient, job entities.Job, errorCode, errorMessage string, retries int32) {
	h.logger.Error("job failed", map[string]interface{}{
		"jobKey":       job.Key,
		"errorCode":    errorCode,
		"errorMessage": errorMessage,
		"retries":      retries,
	})
	metrics.WorkerJobsFailed.WithLabelValues(TaskType, errorCode).Inc()

	_, err := client.NewThrowErrorCommand().
		JobKey(job.Key).
		ErrorCode(errorCode).
		ErrorMessage(errorMessage).
		Send(context.Background())
	if err != nil {
		h.logger.Error("failed to throw error", map[string]interface{}{
			"error": err,
		})
	}
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
