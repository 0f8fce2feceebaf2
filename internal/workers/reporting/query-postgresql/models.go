// internal/workers/reporting/query-postgresql/models.go
package querypostgresql

import "hrflow-workers/internal/models"

type Input struct {
	QueryType     string                 `json:"queryType"`
	ApplicationID string                 `json:"applicationId,omitempty"`
	CandidateID   string                 `json:"candidateId,omitempty"`
	OfferID       string                 `json:"offerId,omitempty"`
	Filters       map[string]interface{} `json:"filters,omitempty"`
}

type Output struct {
	Data               interface{} `json:"data"`
	RowCount           int         `json:"rowCount"`
	QueryExecutionTime int64       `json:"queryExecutionTime"` // milliseconds
}

type QueryType = models.QueryType

// Export constants for external use
var (
	QueryTypePipelineByStatus   = models.QueryTypePipelineByStatus
	QueryTypeApplicationDetail  = models.QueryTypeApplicationDetail
	QueryTypeUpcomingInterviews = models.QueryTypeUpcomingInterviews
	QueryTypeEvaluationSummary  = models.QueryTypeEvaluationSummary
	QueryTypeCandidateHistory   = models.QueryTypeCandidateHistory
)
