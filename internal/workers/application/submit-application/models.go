// internal/workers/application/submit-application/models.go
package submitapplication

type Input struct {
	CandidateID   string `json:"candidateId"`
	OfferID       string `json:"offerId"`
	Channel       string `json:"channel,omitempty"`
	Motivation    string `json:"motivation,omitempty"`
	ResumeID      string `json:"resumeId,omitempty"`
	CoverLetterID string `json:"coverLetterId,omitempty"`
}

type Output struct {
	ApplicationID     string `json:"applicationId"`
	ApplicationStatus string `json:"applicationStatus"`
	SubmittedAt       string `json:"submittedAt"` // ISO 8601
}
