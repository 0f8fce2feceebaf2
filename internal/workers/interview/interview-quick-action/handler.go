// internal/workers/interview/interview-quick-action/handler.go
package interviewquickaction

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
	"github.com/google/uuid"
)

const (
	TaskType = "interview-quick-action"
)

var (
	ErrInterviewNotFound          = errors.New("INTERVIEW_NOT_FOUND")
	ErrIllegalInterviewTransition = errors.New("ILLEGAL_INTERVIEW_TRANSITION")
	ErrUnknownAction              = errors.New("UNKNOWN_INTERVIEW_ACTION")
	ErrCancelNoteRequired         = errors.New("CANCEL_NOTE_REQUIRED")
	ErrDatabaseInsertFailed       = errors.New("DATABASE_INSERT_FAILED")
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
		if errors.Is(err, ErrInterviewNotFound) {
			errorCode = "INTERVIEW_NOT_FOUND"
		} else if errors.Is(err, ErrIllegalInterviewTransition) {
			errorCode = "ILLEGAL_INTERVIEW_TRANSITION"
		} else if errors.Is(err, ErrUnknownAction) {
			errorCode = "UNKNOWN_INTERVIEW_ACTION"
		} else if errors.Is(err, ErrCancelNoteRequired) {
			errorCode = "CANCEL_NOTE_REQUIRED"
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
	action := workflow.InterviewAction(input.Action)
	target, err := workflow.ResolveInterviewAction(action)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnknownAction, err)
	}

	// Cancellation without an explanation leaves the candidate in the
	// dark, so the note is mandatory there.
	if action == workflow.InterviewActionCancel && input.Note == "" {
		return nil, fmt.Errorf("%w: interview %s", ErrCancelNoteRequired, input.InterviewID)
	}

	var currentRaw, applicationID string
	err = h.db.QueryRowContext(ctx, `
		SELECT status, application_id FROM interviews
		WHERE id = $1 AND NOT is_deleted`, input.InterviewID).
		Scan(&currentRaw, &applicationID)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: interview %s", ErrInterviewNotFound, input.InterviewID)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: interview lookup failed: %v", ErrDatabaseInsertFailed, err)
	}

	current, err := workflow.ParseInterviewStatus(currentRaw)
	if err != nil {
		return nil, fmt.Errorf("%w: stored status: %v", ErrIllegalInterviewTransition, err)
	}

	newStatus, err := workflow.TransitionInterview(current, target)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrIllegalInterviewTransition, err)
	}

	updatedAt := time.Now().UTC().Format(time.RFC3339)
	heldAt := ""

	switch newStatus {
	case workflow.InterviewDone:
		heldAt = updatedAt
		_, err = h.db.ExecContext(ctx, `
			UPDATE interviews
			SET status = $1, held_at = $2, updated_at = $2
			WHERE id = $3 AND NOT is_deleted`,
			string(newStatus), updatedAt, input.InterviewID)
	case workflow.InterviewCancelled:
		// The cancellation reason lands in internal_notes first so it stays
		// visible after the soft delete; the round is then handed back to
		// the application so a replacement can be scheduled.
		_, err = h.db.ExecContext(ctx, `
			INSERT INTO internal_notes (id, application_id, author_id, subject, body, urgency, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			uuid.New().String(), applicationID, input.ActorID,
			"Interview cancelled", input.Note, "medium", updatedAt)
		if err == nil {
			_, err = h.db.ExecContext(ctx, `
				UPDATE interviews
				SET status = $1, is_deleted = TRUE, deleted_at = $2, delete_reason = $3, updated_at = $2
				WHERE id = $4 AND NOT is_deleted`,
				string(newStatus), updatedAt, input.Note, input.InterviewID)
		}
		if err == nil {
			_, err = h.db.ExecContext(ctx, `
				UPDATE applications
				SET interview_round = GREATEST(interview_round - 1, 0), updated_at = $1
				WHERE id = $2 AND NOT is_deleted`,
				updatedAt, applicationID)
		}
	default:
		_, err = h.db.ExecContext(ctx, `
			UPDATE interviews
			SET status = $1, updated_at = $2
			WHERE id = $3 AND NOT is_deleted`,
			string(newStatus), updatedAt, input.InterviewID)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: interview update failed: %v", ErrDatabaseInsertFailed, err)
	}

	// Create audit log entry (non-critical, log error but don't fail)
	auditDetailsJSON, err := json.Marshal(map[string]interface{}{
		"applicationId":  applicationID,
		"action":         input.Action,
		"previousStatus": string(current),
		"newStatus":      string(newStatus),
		"note":           input.Note,
		"actorId":        input.ActorID,
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
		"interview_"+input.Action,
		"interview",
		input.InterviewID,
		auditDetailsJSON,
		updatedAt,
	)
	if err != nil {
		h.logger.Warn("audit log insert failed", map[string]interface{}{
			"error":       err,
			"interviewId": input.InterviewID,
		})
	}

	h.logger.Info("interview action applied", map[string]interface{}{
		"interviewId":    input.InterviewID,
		"action":         input.Action,
		"previousStatus": string(current),
		"newStatus":      string(newStatus),
	})

	return &Output{
		InterviewID:    input.InterviewID,
		PreviousStatus: string(current),
		NewStatus:      string(newStatus),
		HeldAt:         heldAt,
		UpdatedAt:      updatedAt,
	}, nil
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
