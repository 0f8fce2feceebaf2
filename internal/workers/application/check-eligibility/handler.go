// internal/workers/application/check-eligibility/handler.go
package checkeligibility

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
	"github.com/redis/go-redis/v9"
)

const (
	TaskType = "check-eligibility"

	cacheKeyPrefix = "eligibility:"
)

var (
	ErrDatabaseQueryFailed = errors.New("DATABASE_QUERY_FAILED")
)

// cachedVerdict is the JSON shape stored in Redis.
type cachedVerdict struct {
	Eligible  bool     `json:"eligible"`
	Missing   []string `json:"missing"`
	CheckedAt string   `json:"checkedAt"`
}

type Handler struct {
	db       *sql.DB
	redis    *redis.Client
	cacheTTL time.Duration
	logger   logger.Logger
}

func NewHandler(config *Config, db *sql.DB, rdb *redis.Client, log logger.Logger) *Handler {
	return &Handler{
		db:       db,
		redis:    rdb,
		cacheTTL: config.CacheTTL,
		logger:   log.WithFields(map[string]interface{}{"taskType": TaskType}),
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
		if errors.Is(err, ErrDatabaseQueryFailed) {
			errorCode = "DATABASE_QUERY_FAILED"
			retries = 3
		}
		h.failJob(client, job, errorCode, err.Error(), retries)
		return
	}

	h.completeJob(client, job, output)
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	cacheKey := cacheKeyPrefix + input.CandidateID

	// Cache is an optimization only: any Redis failure falls back to the
	// database and the verdict is still authoritative.
	if !input.ForceRefresh && h.redis != nil {
		if raw, err := h.redis.Get(ctx, cacheKey).Result(); err == nil {
			var verdict cachedVerdict
			if err := json.Unmarshal([]byte(raw), &verdict); err == nil {
				h.logger.Debug("eligibility cache hit", map[string]interface{}{
					"candidateId": input.CandidateID,
				})
				return &Output{
					CandidateID: input.CandidateID,
					Eligible:    verdict.Eligible,
					Missing:     verdict.Missing,
					Cached:      true,
					CheckedAt:   verdict.CheckedAt,
				}, nil
			}
		} else if err != redis.Nil {
			h.logger.Warn("eligibility cache read failed", map[string]interface{}{
				"error":       err,
				"candidateId": input.CandidateID,
			})
		}
	}

	missing, err := h.checkEligibility(ctx, input.CandidateID)
	if err != nil {
		return nil, err
	}

	checkedAt := time.Now().UTC().Format(time.RFC3339)
	verdict := cachedVerdict{
		Eligible:  len(missing) == 0,
		Missing:   missing,
		CheckedAt: checkedAt,
	}

	if h.redis != nil {
		if raw, err := json.Marshal(verdict); err == nil {
			if err := h.redis.Set(ctx, cacheKey, raw, h.cacheTTL).Err(); err != nil {
				h.logger.Warn("eligibility cache write failed", map[string]interface{}{
					"error":       err,
					"candidateId": input.CandidateID,
				})
			}
		}
	}

	h.logger.Info("eligibility checked", map[string]interface{}{
		"candidateId": input.CandidateID,
		"eligible":    verdict.Eligible,
		"missing":     missing,
	})

	return &Output{
		CandidateID: input.CandidateID,
		Eligible:    verdict.Eligible,
		Missing:     missing,
		Cached:      false,
		CheckedAt:   checkedAt,
	}, nil
}

// checkEligibility returns the missing prerequisites, empty when the
// candidate may apply. The list is stable: active CV first, then the two
// identity fields.
func (h *Handler) checkEligibility(ctx context.Context, candidateID string) ([]string, error) {
	var hasCV bool
	err := h.db.QueryRowContext(ctx, `
		SELECT EXISTS(
			SELECT 1 FROM documents
			WHERE owner_id = $1 AND doc_type = 'CV' AND is_active AND NOT is_deleted
		)`, candidateID).Scan(&hasCV)
	if err != nil {
		return nil, fmt.Errorf("%w: cv lookup failed: %v", ErrDatabaseQueryFailed, err)
	}

	var idType, idNumber sql.NullString
	err = h.db.QueryRowContext(ctx, `
		SELECT identity_doc_type, identity_doc_number FROM candidate_profiles
		WHERE candidate_id = $1`, candidateID).Scan(&idType, &idNumber)
	if err != nil && err != sql.ErrNoRows {
		return nil, fmt.Errorf("%w: profile lookup failed: %v", ErrDatabaseQueryFailed, err)
	}

	missing := []string{}
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
