// internal/workers/interview/schedule-interview/handler.go
package scheduleinterview

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
	TaskType = "schedule-interview"
)

var (
	ErrInvalidInput            = errors.New("INVALID_INPUT")
	ErrApplicationNotFound     = errors.New("APPLICATION_NOT_FOUND")
	ErrIllegalStatusTransition = errors.New("ILLEGAL_STATUS_TRANSITION")
	ErrPastInterviewDate       = errors.New("PAST_INTERVIEW_DATE")
	ErrMaxRoundsReached        = errors.New("MAX_INTERVIEW_ROUNDS_REACHED")
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
		if errors.Is(err, ErrInvalidInput) {
			errorCode = "INVALID_INPUT"
		} else if errors.Is(err, ErrApplicationNotFound) {
			errorCode = "APPLICATION_NOT_FOUND"
		} else if errors.Is(err, ErrIllegalStatusTransition) {
			errorCode = "ILLEGAL_STATUS_TRANSITION"
		} else if errors.Is(err, ErrPastInterviewDate) {
			errorCode = "PAST_INTERVIEW_DATE"
		} else if errors.Is(err, ErrMaxRoundsReached) {
			errorCode = "MAX_INTERVIEW_ROUNDS_REACHED"
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
	slot, err := validateInput(input, time.Now().UTC())
	if err != nil {
		return nil, err
	}

	// Candidate and offer details feed the note payload handed to the
	// notification fan-out downstream.
	var currentRaw, candidateName, offerTitle string
	var round int
	err = h.db.QueryRowContext(ctx, `
		SELECT a.status, a.interview_round, c.first_name || ' ' || c.last_name, o.title
		FROM applications a
		JOIN candidates c ON c.id = a.candidate_id
		JOIN job_offers o ON o.id = a.offer_id
		WHERE a.id = $1 AND NOT a.is_deleted`, input.ApplicationID).
		Scan(&currentRaw, &round, &candidateName, &offerTitle)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: application %s", ErrApplicationNotFound, input.ApplicationID)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: application lookup failed: %v", ErrDatabaseInsertFailed, err)
	}

	current, err := workflow.ParseStatus(currentRaw)
	if err != nil {
		return nil, fmt.Errorf("%w: stored status: %v", ErrIllegalStatusTransition, err)
	}

	// Scheduling moves the application to INTERVIEW; an application
	// already in INTERVIEW stays there for later rounds.
	newStatus, err := workflow.Transition(current, workflow.StatusInterview)
	if err != nil {
		metrics.TransitionsRejected.WithLabelValues(
			string(current), string(workflow.StatusInterview)).Inc()
		return nil, fmt.Errorf("%w: %v", ErrIllegalStatusTransition, err)
	}

	if round >= workflow.MaxInterviewRounds {
		return nil, fmt.Errorf("%w: application %s already had %d rounds",
			ErrMaxRoundsReached, input.ApplicationID, round)
	}
	round++

	interviewID := uuid.New().String()
	now := time.Now().UTC().Format(time.RFC3339)
	scheduledAt := slot.Format(time.RFC3339)

	_, err = h.db.ExecContext(ctx, `
		INSERT INTO interviews (
			id, application_id, round, interview_type, status, scheduled_at,
			duration_minutes, location, video_link, access_codes, participants,
			agenda, interviewer_id, prep_notes, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $15)`,
		interviewID,
		input.ApplicationID,
		round,
		input.InterviewType,
		string(workflow.InterviewPlanned),
		scheduledAt,
		input.DurationMinutes,
		input.Location,
		input.VideoLink,
		input.AccessCodes,
		input.Participants,
		input.Agenda,
		nullString(input.InterviewerID),
		input.PrepNotes,
		now,
	)
	if err != nil {
		return nil, fmt.Errorf("%w: interview insert failed: %v", ErrDatabaseInsertFailed, err)
	}

	_, err = h.db.ExecContext(ctx, `
		UPDATE applications
		SET status = $1, interview_round = $2, updated_at = $3
		WHERE id = $4 AND NOT is_deleted`,
		string(newStatus), round, now, input.ApplicationID)
	if err != nil {
		return nil, fmt.Errorf("%w: application update failed: %v", ErrDatabaseInsertFailed, err)
	}

	if current != newStatus {
		metrics.StatusTransitions.WithLabelValues(string(current), string(newStatus)).Inc()
	}

	// Create audit log entry (non-critical, log error but don't fail)
	auditDetailsJSON, err := json.Marshal(map[string]interface{}{
		"applicationId": input.ApplicationID,
		"interviewType": input.InterviewType,
		"round":         round,
		"scheduledAt":   scheduledAt,
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
		"interview_scheduled",
		"interview",
		interviewID,
		auditDetailsJSON,
		now,
	)
	if err != nil {
		h.logger.Warn("audit log insert failed", map[string]interface{}{
			"error":       err,
			"interviewId": interviewID,
		})
	}

	h.logger.Info("interview scheduled", map[string]interface{}{
		"interviewId":   interviewID,
		"applicationId": input.ApplicationID,
		"round":         round,
		"scheduledAt":   scheduledAt,
	})

	noteSubject := fmt.Sprintf("Interview scheduled: %s / %s", candidateName, offerTitle)
	noteBody := fmt.Sprintf("Round %d %s interview with %s for %s, scheduled %s.",
		round, input.InterviewType, candidateName, offerTitle, scheduledAt)
	if input.VideoLink != "" {
		noteBody += " Video link: " + input.VideoLink
	} else if input.Location != "" {
		noteBody += " Location: " + input.Location
	}

	return &Output{
		InterviewID:       interviewID,
		InterviewStatus:   string(workflow.InterviewPlanned),
		Round:             round,
		ApplicationStatus: string(newStatus),
		ScheduledAt:       scheduledAt,
		NoteSubject:       noteSubject,
		NoteBody:          noteBody,
	}, nil
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
