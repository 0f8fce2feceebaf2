// internal/workers/application/submit-application/handler.go
package submitapplication

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"hrflow-workers/internal/common/logger"
	"hrflow-workers/internal/common/metrics"
	"hrflow-workers/internal/workflow"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/google/uuid"
	"github.com/lib/pq"
)

const (
	TaskType = "submit-application"
)

var (
	ErrEligibilityNotMet    = errors.New("ELIGIBILITY_NOT_MET")
	ErrOfferNotOpen         = errors.New("OFFER_NOT_OPEN")
	ErrDuplicateApplication = errors.New("DUPLICATE_APPLICATION")
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
		if errors.Is(err, ErrEligibilityNotMet) {
			errorCode = "ELIGIBILITY_NOT_MET"
		} else if errors.Is(err, ErrOfferNotOpen) {
			errorCode = "OFFER_NOT_OPEN"
		} else if errors.Is(err, ErrDuplicateApplication) {
			errorCode = "DUPLICATE_APPLICATION"
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
	// Eligibility gate: an active CV plus identity details on the profile.
	missing, err := h.checkEligibility(ctx, input.CandidateID)
	if err != nil {
		return nil, err
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: candidate %s is missing %s",
			ErrEligibilityNotMet, input.CandidateID, strings.Join(missing, ", "))
	}

	// Offer must be open, visible and not past its deadline.
	var offerStatus string
	var visible bool
	var deadline sql.NullTime
	err = h.db.QueryRowContext(ctx, `
		SELECT status, visible, deadline FROM job_offers
		WHERE id = $1 AND NOT is_deleted`, input.OfferID).
		Scan(&offerStatus, &visible, &deadline)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: offer %s not found", ErrOfferNotOpen, input.OfferID)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: offer lookup failed: %v", ErrDatabaseInsertFailed, err)
	}
	if offerStatus != "open" || !visible {
		return nil, fmt.Errorf("%w: offer %s is %s (visible=%t)",
			ErrOfferNotOpen, input.OfferID, offerStatus, visible)
	}
	if deadline.Valid && deadline.Time.Before(time.Now().UTC()) {
		return nil, fmt.Errorf("%w: offer %s deadline passed", ErrOfferNotOpen, input.OfferID)
	}

	// Check for an existing live application on the same offer
	var exists bool
	err = h.db.QueryRowContext(ctx, `
		SELECT EXISTS(
			SELECT 1 FROM applications
			WHERE candidate_id = $1 AND offer_id = $2 AND NOT is_deleted
		)`, input.CandidateID, input.OfferID).Scan(&exists)
	if err != nil {
		return nil, fmt.Errorf("%w: duplicate check failed: %v", ErrDatabaseInsertFailed, err)
	}
	if exists {
		return nil, fmt.Errorf("%w: candidate %s already applied to offer %s",
			ErrDuplicateApplication, input.CandidateID, input.OfferID)
	}

	channel := input.Channel
	if channel == "" {
		channel = "SITE"
	}

	appID := uuid.New().String()
	submittedAt := time.Now().UTC().Format(time.RFC3339)

	_, err = h.db.ExecContext(ctx, `
		INSERT INTO applications (
			id, candidate_id, offer_id, status, channel, motivation,
			resume_id, cover_letter_id, interview_round, followup_count,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, 0, 0, $9, $9)`,
		appID,
		input.CandidateID,
		input.OfferID,
		string(workflow.StatusSubmitted),
		channel,
		input.Motivation,
		nullString(input.ResumeID),
		nullString(input.CoverLetterID),
		submittedAt,
	)
	if err != nil {
		// The partial unique index on (candidate_id, offer_id) is the
		// authoritative duplicate guard; the EXISTS check above only
		// narrows the race window.
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return nil, fmt.Errorf("%w: candidate %s already applied to offer %s",
				ErrDuplicateApplication, input.CandidateID, input.OfferID)
		}
		return nil, fmt.Errorf("%w: insert failed: %v", ErrDatabaseInsertFailed, err)
	}

	// Create audit log entry (non-critical, log error but don't fail)
	auditDetailsJSON, err := json.Marshal(map[string]interface{}{
		"candidateId": input.CandidateID,
		"offerId":     input.OfferID,
		"channel":     channel,
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
		"application_submitted",
		"application",
		appID,
		auditDetailsJSON,
		submittedAt,
	)
	if err != nil {
		h.logger.Warn("audit log insert failed", map[string]interface{}{
			"error":         err,
			"applicationId": appID,
		})
	}

	metrics.StatusTransitions.WithLabelValues(
		string(workflow.StatusDraft), string(workflow.StatusSubmitted)).Inc()

	h.logger.Info("application submitted", map[string]interface{}{
		"applicationId": appID,
		"candidateId":   input.CandidateID,
		"offerId":       input.OfferID,
		"channel":       channel,
	})

	return &Output{
		ApplicationID:     appID,
		ApplicationStatus: string(workflow.StatusSubmitted),
		SubmittedAt:       submittedAt,
	}, nil
}

// checkEligibility returns the list of missing prerequisites, empty when the
// candidate may apply.
func (h *Handler) checkEligibility(ctx context.Context, candidateID string) ([]string, error) {
	var hasCV bool
	err := h.db.QueryRowContext(ctx, `
		SELECT EXISTS(
			SELECT 1 FROM documents
			WHERE owner_id = $1 AND doc_type = 'CV' AND is_active AND NOT is_deleted
		)`, candidateID).Scan(&hasCV)
	if err != nil {
		return nil, fmt.Errorf("%w: cv lookup failed: %v", ErrDatabaseInsertFailed, err)
	}

	var idType, idNumber sql.NullString
	err = h.db.QueryRowContext(ctx, `
		SELECT identity_doc_type, identity_doc_number FROM candidate_profiles
		WHERE candidate_id = $1`, candidateID).Scan(&idType, &idNumber)
	if err != nil && err != sql.ErrNoRows {
		return nil, fmt.Errorf("%w: profile lookup failed: %v", ErrDatabaseInsertFailed, err)
	}

	var missing []string
	if !hasCV {
		missing = append(missing, "active_cv")
	}
	if !idType.Valid || idType.String == "" {
		missing = append(missing, "identity_doc_type")
	}
	if !idNumber.Valid || idNumber.String == "" {
		missing = append(missing, "identity_doc_number")
	}
	return missing, nil
}

func nullString(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
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
