// internal/workers/interview/create-evaluation/handler.go
package createevaluation

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"hrflow-workers/internal/common/logger"
	"hrflow-workers/internal/common/metrics"
	"hrflow-workers/internal/common/validation"
	"hrflow-workers/internal/models"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/google/uuid"
	"github.com/lib/pq"
)

const (
	TaskType = "create-evaluation"
)

var (
	ErrInterviewNotFound    = errors.New("INTERVIEW_NOT_FOUND")
	ErrInvalidScore         = errors.New("INVALID_SCORE")
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
	scores := map[string]int{
		"technicalScore":     input.TechnicalScore,
		"communicationScore": input.CommunicationScore,
		"cultureFitScore":    input.CultureFitScore,
		"motivationScore":    input.MotivationScore,
	}
	for field, score := range scores {
		if err := validation.ValidateScoreRange(field, score, 1, 5); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidScore, err)
		}
	}

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

	// At most one evaluation per interview. A repeat request is not an
	// error: hand back the existing scorecard so retried workflow steps
	// stay idempotent.
	if output, found, err := h.findExisting(ctx, input.InterviewID); err != nil {
		return nil, err
	} else if found {
		return output, nil
	}

	evaluation := &models.Evaluation{
		ID:                 uuid.New().String(),
		InterviewID:        input.InterviewID,
		EvaluatorID:        input.EvaluatorID,
		TechnicalScore:     input.TechnicalScore,
		CommunicationScore: input.CommunicationScore,
		CultureFitScore:    input.CultureFitScore,
		MotivationScore:    input.MotivationScore,
		Recommend:          input.Recommend,
		Urgency:            input.Urgency,
		Strengths:          input.Strengths,
		ImprovementAreas:   input.ImprovementAreas,
		Recommendation:     input.Recommendation,
	}
	createdAt := time.Now().UTC().Format(time.RFC3339)

	_, err = h.db.ExecContext(ctx, `
		INSERT INTO evaluations (
			id, interview_id, evaluator_id,
			technical_score, communication_score, culture_fit_score, motivation_score,
			recommend, urgency, strengths, improvement_areas, recommendation,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $13)`,
		evaluation.ID,
		evaluation.InterviewID,
		evaluation.EvaluatorID,
		evaluation.TechnicalScore,
		evaluation.CommunicationScore,
		evaluation.CultureFitScore,
		evaluation.MotivationScore,
		evaluation.Recommend,
		evaluation.Urgency,
		evaluation.Strengths,
		evaluation.ImprovementAreas,
		evaluation.Recommendation,
		createdAt,
	)
	if err != nil {
		// Lost a race against a concurrent evaluation on the same
		// interview; the UNIQUE(interview_id) row that won is returned.
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			if output, found, ferr := h.findExisting(ctx, input.InterviewID); ferr == nil && found {
				return output, nil
			}
		}
		return nil, fmt.Errorf("%w: evaluation insert failed: %v", ErrDatabaseInsertFailed, err)
	}

	// Create audit log entry (non-critical, log error but don't fail)
	auditDetailsJSON, err := json.Marshal(map[string]interface{}{
		"interviewId":  input.InterviewID,
		"evaluatorId":  input.EvaluatorID,
		"averageScore": evaluation.AverageScore(),
		"recommend":    input.Recommend,
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
		"evaluation_created",
		"evaluation",
		evaluation.ID,
		auditDetailsJSON,
		createdAt,
	)
	if err != nil {
		h.logger.Warn("audit log insert failed", map[string]interface{}{
			"error":        err,
			"evaluationId": evaluation.ID,
		})
	}

	h.logger.Info("evaluation created", map[string]interface{}{
		"evaluationId": evaluation.ID,
		"interviewId":  input.InterviewID,
		"averageScore": evaluation.AverageScore(),
	})

	return &Output{
		EvaluationID:  evaluation.ID,
		InterviewID:   input.InterviewID,
		AverageScore:  evaluation.AverageScore(),
		AlreadyExists: false,
		CreatedAt:     createdAt,
	}, nil
}

func (h *Handler) findExisting(ctx context.Context, interviewID string) (*Output, bool, error) {
	var existing models.Evaluation
	err := h.db.QueryRowContext(ctx, `
		SELECT id, technical_score, communication_score, culture_fit_score, motivation_score
		FROM evaluations WHERE interview_id = $1`, interviewID).
		Scan(&existing.ID, &existing.TechnicalScore, &existing.CommunicationScore,
			&existing.CultureFitScore, &existing.MotivationScore)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("%w: evaluation lookup failed: %v", ErrDatabaseInsertFailed, err)
	}

	h.logger.Info("evaluation already exists", map[string]interface{}{
		"evaluationId": existing.ID,
		"interviewId":  interviewID,
	})

	return &Output{
		EvaluationID:  existing.ID,
		InterviewID:   interviewID,
		AverageScore:  existing.AverageScore(),
		AlreadyExists: true,
	}, true, nil
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
