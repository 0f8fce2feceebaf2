// internal/workers/reporting/index-reporting-snapshot/models.go
package indexreportingsnapshot

import "time"

type Input struct {
	ApplicationID string `json:"applicationId"`
}

type Output struct {
	ApplicationID string    `json:"applicationId"`
	Index         string    `json:"index"`
	IndexedAt     time.Time `json:"indexedAt"`
}

// snapshot is the denormalized document written to the reporting index.
// One document per application, keyed by application id, overwritten on
// every refresh.
type snapshot struct {
	ApplicationID   string    `json:"applicationId"`
	CandidateID     string    `json:"candidateId"`
	CandidateName   string    `json:"candidateName"`
	OfferID         string    `json:"offerId"`
	OfferTitle      string    `json:"offerTitle"`
	Status          string    `json:"status"`
	Channel         string    `json:"channel"`
	InterviewRound  int       `json:"interviewRound"`
	FollowupCount   int       `json:"followupCount"`
	InterviewCount  int       `json:"interviewCount"`
	EvaluationCount int       `json:"evaluationCount"`
	AverageScore    float64   `json:"averageScore"`
	RecommendCount  int       `json:"recommendCount"`
	IsDeleted       bool      `json:"isDeleted"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
	IndexedAt       time.Time `json:"indexedAt"`
}
