// internal/workers/reporting/query-postgresql/queries/application.go
package queries

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// PipelineByStatus counts live applications per status, optionally scoped
// to one offer.
func PipelineByStatus(ctx context.Context, db *sql.DB, params map[string]interface{}) (interface{}, int, int64, error) {
	start := time.Now()

	query := `
		SELECT status, COUNT(*)
		FROM applications
		WHERE NOT is_deleted`
	args := []interface{}{}
	if offerID, ok := params["offerId"].(string); ok && offerID != "" {
		query += ` AND offer_id = $1`
		args = append(args, offerID)
	}
	query += ` GROUP BY status`

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, 0, err
	}
	defer rows.Close()

	counts := map[string]int{}
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, 0, 0, err
		}
		counts[status] = count
	}
	if err := rows.Err(); err != nil {
		return nil, 0, 0, err
	}

	execTime := time.Since(start).Milliseconds()
	return counts, len(counts), execTime, nil
}

// ApplicationDetail returns one application with its interview and
// evaluation counts.
func ApplicationDetail(ctx context.Context, db *sql.DB, params map[string]interface{}) (interface{}, int, int64, error) {
	applicationID, ok := params["applicationId"].(string)
	if !ok || applicationID == "" {
		return nil, 0, 0, fmt.Errorf("%w: applicationId", ErrMissingParam)
	}

	start := time.Now()

	var id, candidateID, offerID, status, channel string
	var interviewRound, followupCount int
	var createdAt, updatedAt string

	err := db.QueryRowContext(ctx, `
		SELECT id, candidate_id, offer_id, status, channel,
		       interview_round, followup_count, created_at, updated_at
		FROM applications
		WHERE id = $1 AND NOT is_deleted`, applicationID).Scan(
		&id, &candidateID, &offerID, &status, &channel,
		&interviewRound, &followupCount, &createdAt, &updatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, 0, 0, fmt.Errorf("%w: application %s", ErrNotFound, applicationID)
	}
	if err != nil {
		return nil, 0, 0, err
	}

	var interviewCount, evaluationCount int
	err = db.QueryRowContext(ctx, `
		SELECT COUNT(i.id), COUNT(e.id)
		FROM interviews i
		LEFT JOIN evaluations e ON e.interview_id = i.id
		WHERE i.application_id = $1 AND NOT i.is_deleted`, applicationID).
		Scan(&interviewCount, &evaluationCount)
	if err != nil {
		return nil, 0, 0, err
	}

	result := map[string]interface{}{
		"id":              id,
		"candidateId":     candidateID,
		"offerId":         offerID,
		"status":          status,
		"channel":         channel,
		"interviewRound":  interviewRound,
		"followupCount":   followupCount,
		"interviewCount":  interviewCount,
		"evaluationCount": evaluationCount,
		"createdAt":       createdAt,
		"updatedAt":       updatedAt,
	}

	execTime := time.Since(start).Milliseconds()
	return result, 1, execTime, nil
}

// CandidateHistory lists every application a candidate has made, newest
// first, soft-deleted rows included so withdrawals stay visible.
func CandidateHistory(ctx context.Context, db *sql.DB, params map[string]interface{}) (interface{}, int, int64, error) {
	candidateID, ok := params["candidateId"].(string)
	if !ok || candidateID == "" {
		return nil, 0, 0, fmt.Errorf("%w: candidateId", ErrMissingParam)
	}

	start := time.Now()

	rows, err := db.QueryContext(ctx, `
		SELECT id, offer_id, status, channel, interview_round, is_deleted, created_at
		FROM applications
		WHERE candidate_id = $1
		ORDER BY created_at DESC`, candidateID)
	if err != nil {
		return nil, 0, 0, err
	}
	defer rows.Close()

	var history []map[string]interface{}
	for rows.Next() {
		var id, offerID, status, channel, createdAt string
		var interviewRound int
		var isDeleted bool
		if err := rows.Scan(&id, &offerID, &status, &channel, &interviewRound, &isDeleted, &createdAt); err != nil {
			return nil, 0, 0, err
		}
		history = append(history, map[string]interface{}{
			"id":             id,
			"offerId":        offerID,
			"status":         status,
			"channel":        channel,
			"interviewRound": interviewRound,
			"isDeleted":      isDeleted,
			"createdAt":      createdAt,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, 0, 0, err
	}

	execTime := time.Since(start).Milliseconds()
	return history, len(history), execTime, nil
}
