// internal/models/query_types.go
package models

type QueryType string

const (
	QueryTypePipelineByStatus   QueryType = "pipeline_by_status"
	QueryTypeApplicationDetail  QueryType = "application_detail"
	QueryTypeUpcomingInterviews QueryType = "upcoming_interviews"
	QueryTypeEvaluationSummary  QueryType = "evaluation_summary"
	QueryTypeCandidateHistory   QueryType = "candidate_history"
)
