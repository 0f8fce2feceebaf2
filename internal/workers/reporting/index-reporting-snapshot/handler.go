// internal/workers/reporting/index-reporting-snapshot/handler.go
package indexreportingsnapshot

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/elastic/go-elasticsearch/v8"

	"hrflow-workers/internal/common/logger"
	"hrflow-workers/internal/common/metrics"
)

const TaskType = "index-reporting-snapshot"

var (
	ErrApplicationNotFound           = errors.New("APPLICATION_NOT_FOUND")
	ErrDatabaseQueryFailed           = errors.New("DATABASE_QUERY_FAILED")
	ErrElasticsearchConnectionFailed = errors.New("ELASTICSEARCH_CONNECTION_FAILED")
	ErrIndexWriteFailed              = errors.New("INDEX_WRITE_FAILED")
)

type Handler struct {
	config *Config
	db     *sql.DB
	es     *elasticsearch.Client
	logger logger.Logger
}

func NewHandler(config *Config, db *sql.DB, es *elasticsearch.Client, log logger.Logger) *Handler {
	return &Handler{
		config: config,
		db:     db,
		es:     es,
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

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	output, err := h.execute(ctx, &input)
	if err != nil {
		errorCode := "UNKNOWN_ERROR"
		retries := int32(0)
		if errors.Is(err, ErrApplicationNotFound) {
			errorCode = "APPLICATION_NOT_FOUND"
		} else if errors.Is(err, ErrDatabaseQueryFailed) {
			errorCode = "DATABASE_QUERY_FAILED"
			retries = 3
		} else if errors.Is(err, ErrElasticsearchConnectionFailed) {
			errorCode = "ELASTICSEARCH_CONNECTION_FAILED"
			retries = 3
		} else if errors.Is(err, ErrIndexWriteFailed) {
			errorCode = "INDEX_WRITE_FAILED"
			retries = 3
		}
		h.failJob(client, job, errorCode, err.Error(), retries)
		return
	}

	h.completeJob(client, job, output)
}

// Execute refreshes the reporting document for one application.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	doc, err := h.buildSnapshot(ctx, input.ApplicationID)
	if err != nil {
		return nil, err
	}

	doc.IndexedAt = time.Now().UTC()

	body, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("%w: marshal snapshot: %v", ErrIndexWriteFailed, err)
	}

	res, err := h.es.Index(
		h.config.SnapshotIndex,
		bytes.NewReader(body),
		h.es.Index.WithDocumentID(input.ApplicationID),
		h.es.Index.WithContext(ctx),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrElasticsearchConnectionFailed, err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, fmt.Errorf("%w: index %s returned %s", ErrIndexWriteFailed, h.config.SnapshotIndex, res.Status())
	}

	h.logger.Info("snapshot indexed", map[string]interface{}{
		"applicationId": input.ApplicationID,
		"index":         h.config.SnapshotIndex,
		"status":        doc.Status,
	})

	return &Output{
		ApplicationID: input.ApplicationID,
		Index:         h.config.SnapshotIndex,
		IndexedAt:     doc.IndexedAt,
	}, nil
}

// buildSnapshot denormalizes one application row with its offer,
// candidate and evaluation aggregates. Soft-deleted applications are
// still indexed, the document carries the flag so dashboards can filter.
func (h *Handler) buildSnapshot(ctx context.Context, applicationID string) (*snapshot, error) {
	var doc snapshot
	err := h.db.QueryRowContext(ctx, `
		SELECT a.id, a.candidate_id, a.offer_id, a.status, a.channel,
		       a.interview_round, a.followup_count, a.is_deleted,
		       a.created_at, a.updated_at,
		       o.title, c.first_name || ' ' || c.last_name
		FROM applications a
		JOIN job_offers o ON o.id = a.offer_id
		JOIN candidates c ON c.id = a.candidate_id
		WHERE a.id = $1`, applicationID).Scan(
		&doc.ApplicationID, &doc.CandidateID, &doc.OfferID, &doc.Status, &doc.Channel,
		&doc.InterviewRound, &doc.FollowupCount, &doc.IsDeleted,
		&doc.CreatedAt, &doc.UpdatedAt,
		&doc.OfferTitle, &doc.CandidateName,
	)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: application %s", ErrApplicationNotFound, applicationID)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: load application: %v", ErrDatabaseQueryFailed, err)
	}

	var avgScore sql.NullFloat64
	err = h.db.QueryRowContext(ctx, `
		SELECT COUNT(i.id),
		       COUNT(e.id),
		       COUNT(e.id) FILTER (WHERE e.recommend),
		       AVG((e.technical_score + e.communication_score + e.culture_fit_score + e.motivation_score) / 4.0)
		FROM interviews i
		LEFT JOIN evaluations e ON e.interview_id = i.id
		WHERE i.application_id = $1 AND NOT i.is_deleted`, applicationID).Scan(
		&doc.InterviewCount, &doc.EvaluationCount, &doc.RecommendCount, &avgScore,
	)
	if err != nil {
		return nil, fmt.Errorf("%w: load aggregates: %v", ErrDatabaseQueryFailed, err)
	}
	doc.AverageScore = avgScore.Float64

	return &doc, nil
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
