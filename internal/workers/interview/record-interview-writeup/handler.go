// internal/workers/interview/record-interview-writeup/handler.go
package recordinterviewwriteup

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"hrflow-workers/internal/common/logger"
	"hrflow-workers/internal/common/metrics"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const (
	TaskType = "record-interview-writeup"
)

var (
	ErrInterviewNotFound    = errors.New("INTERVIEW_NOT_FOUND")
	ErrInvalidScore         = errors.New("INVALID_SCORE")
	ErrEmptyWriteup         = errors.New("EMPTY_WRITEUP")
	ErrDatabaseInsertFailed = errors.New("DATABASE_INSERT_FAILED")
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
		} else if errors.Is(err, ErrInvalidScore) {
			errorCode = "INVALID_SCORE"
		} else if errors.Is(err, ErrEmptyWriteup) {
			errorCode = "EMPTY_WRITEUP"
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
	if input.Feedback == "" {
		return nil, fmt.Errorf("%w: interview %s", ErrEmptyWriteup, input.InterviewID)
	}
	if input.OverallScore != nil && (*input.OverallScore < 0 || *input.OverallScore > 10) {
		return nil, fmt.Errorf("%w: overallScore must be between 0 and 10, got %.1f",
			ErrInvalidScore, *input.OverallScore)
	}

	// The write-up is deliberately not gated on interview status: debrief
	// notes can land before the status catches up.
	var exists bool
	err := h.db.QueryRowContext(ctx, `
		SELECT EXISTS(
			SELECT 1 FROM interviews WHERE id = $1 AND NOT is_deleted
		)`, input.InterviewID).Scan(&exists)
	if err != nil {
		return nil, fmt.Errorf("%w: interview lookup failed: %v", ErrDatabaseInsertFailed, err)
	}
	if !exists {
		return nil, fmt.Errorf("%w: interview %s", ErrInterviewNotFound, input.InterviewID)
	}

	updatedAt := time.Now().UTC().Format(time.RFC3339)

	var scoreArg interface{}
	if input.OverallScore != nil {
		scoreArg = *input.OverallScore
	}
	var durationArg interface{}
	if input.ActualDurationMinutes != nil {
		durationArg = *input.ActualDurationMinutes
	}

	_, err = h.db.ExecContext(ctx, `
		UPDATE interviews
		SET feedback = $1, topics_covered = $2, questions_asked = $3,
		    positives = $4, improvement_areas = $5, next_steps = $6,
		    overall_score = COALESCE($7, overall_score),
		    actual_duration_minutes = COALESCE($8, actual_duration_minutes),
		    updated_at = $9
		WHERE id = $10 AND NOT is_deleted`,
		input.Feedback, input.TopicsCovered, input.QuestionsAsked,
		input.Positives, input.ImprovementAreas, input.NextSteps,
		scoreArg, durationArg, updatedAt, input.InterviewID)
	if err != nil {
		return nil, fmt.Errorf("%w: writeup update failed: %v", ErrDatabaseInsertFailed, err)
	}

	// Create audit log entry (non-critical, log error but don't fail)
	auditDetailsJSON, err := json.Marshal(map[string]interface{}{
		"actorId":  input.ActorID,
		"hasScore": input.OverallScore != nil,
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
		"interview_writeup_recorded",
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

	h.logger.Info("interview writeup recorded", map[string]interface{}{
		"interviewId": input.InterviewID,
		"hasScore":    input.OverallScore != nil,
	})

	return &Output{
		InterviewID:  input.InterviewID,
		OverallScore: input.OverallScore,
		UpdatedAt:    updatedAt,
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
