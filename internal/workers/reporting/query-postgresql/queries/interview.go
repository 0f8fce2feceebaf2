// internal/workers/reporting/query-postgresql/queries/interview.go
package queries

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// UpcomingInterviews lists interviews still ahead of us, soonest first.
func UpcomingInterviews(ctx context.Context, db *sql.DB, params map[string]interface{}) (interface{}, int, int64, error) {
	start := time.Now()

	limit := 50
	if filters, ok := params["filters"].(map[string]interface{}); ok {
		if l, ok := filters["limit"].(float64); ok && l > 0 {
			limit = int(l)
		}
	}

	rows, err := db.QueryContext(ctx, `
		SELECT id, application_id, round, interview_type, status, scheduled_at, location, video_link
		FROM interviews
		WHERE NOT is_deleted
		  AND status IN ('PLANNED', 'CONFIRMED')
		  AND scheduled_at > NOW()
		ORDER BY scheduled_at ASC
		LIMIT $1`, limit)
	if err != nil {
		return nil, 0, 0, err
	}
	defer rows.Close()

	var upcoming []map[string]interface{}
	for rows.Next() {
		var id, applicationID, interviewType, status, scheduledAt, location, videoLink string
		var round int
		if err := rows.Scan(&id, &applicationID, &round, &interviewType, &status, &scheduledAt, &location, &videoLink); err != nil {
			return nil, 0, 0, err
		}
		upcoming = append(upcoming, map[string]interface{}{
			"id":            id,
			"applicationId": applicationID,
			"round":         round,
			"interviewType": interviewType,
			"status":        status,
			"scheduledAt":   scheduledAt,
			"location":      location,
			"videoLink":     videoLink,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, 0, 0, err
	}

	execTime := time.Since(start).Milliseconds()
	return upcoming, len(upcoming), execTime, nil
}

// EvaluationSummary aggregates scorecards across all interviews of one
// application.
func EvaluationSummary(ctx context.Context, db *sql.DB, params map[string]interface{}) (interface{}, int, int64, error) {
	applicationID, ok := params["applicationId"].(string)
	if !ok || applicationID == "" {
		return nil, 0, 0, fmt.Errorf("%w: applicationId", ErrMissingParam)
	}

	start := time.Now()

	var count, recommendCount int
	var avgTechnical, avgCommunication, avgCultureFit, avgMotivation sql.NullFloat64

	err := db.QueryRowContext(ctx, `
		SELECT COUNT(e.id),
		       COUNT(e.id) FILTER (WHERE e.recommend),
		       AVG(e.technical_score),
		       AVG(e.communication_score),
		       AVG(e.culture_fit_score),
		       AVG(e.motivation_score)
		FROM evaluations e
		JOIN interviews i ON i.id = e.interview_id
		WHERE i.application_id = $1 AND NOT i.is_deleted`, applicationID).
		Scan(&count, &recommendCount, &avgTechnical, &avgCommunication, &avgCultureFit, &avgMotivation)
	if err != nil {
		return nil, 0, 0, err
	}

	overall := 0.0
	if count > 0 {
		overall = (avgTechnical.Float64 + avgCommunication.Float64 +
			avgCultureFit.Float64 + avgMotivation.Float64) / 4.0
	}

	result := map[string]interface{}{
		"applicationId":    applicationID,
		"evaluationCount":  count,
		"recommendCount":   recommendCount,
		"avgTechnical":     avgTechnical.Float64,
		"avgCommunication": avgCommunication.Float64,
		"avgCultureFit":    avgCultureFit.Float64,
		"avgMotivation":    avgMotivation.Float64,
		"overallAverage":   overall,
	}

	execTime := time.Since(start).Milliseconds()
	return result, count, execTime, nil
}
