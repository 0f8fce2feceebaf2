// internal/models/interview.go
package models

// Interview types mirror the interviews.interview_type column.
const (
	InterviewTypePhone     = "PHONE"
	InterviewTypeVideo     = "VIDEO"
	InterviewTypeOnSite    = "ON_SITE"
	InterviewTypeTechnical = "TECHNICAL"
	InterviewTypeHR        = "HR"
	InterviewTypeFinal     = "FINAL"
)

type Interview struct {
	ID             string `json:"id"`
	ApplicationID  string `json:"applicationId"`
	InterviewType  string `json:"interviewType"`
	Status         string `json:"status"`
	ScheduledAt    string `json:"scheduledAt"`
	Duration       int    `json:"durationMinutes"`
	HeldAt         string `json:"heldAt,omitempty"`
	ActualDuration int    `json:"actualDurationMinutes,omitempty"`

	// logistics
	Location    string `json:"location,omitempty"`
	VideoLink   string `json:"videoLink,omitempty"`
	AccessCodes string `json:"accessCodes,omitempty"`

	// preparation
	Participants     string `json:"participants,omitempty"`
	ParticipantRoles string `json:"participantRoles,omitempty"`
	Agenda           string `json:"agenda,omitempty"`
	PrepNotes        string `json:"prepNotes,omitempty"`

	// write-up, filled after the fact
	Feedback         string   `json:"feedback,omitempty"`
	TopicsCovered    string   `json:"topicsCovered,omitempty"`
	QuestionsAsked   string   `json:"questionsAsked,omitempty"`
	OverallScore     *float64 `json:"overallScore,omitempty"` // 0..10, nil until scored
	Positives        string   `json:"positives,omitempty"`
	ImprovementAreas string   `json:"improvementAreas,omitempty"`
	NextSteps        string   `json:"nextSteps,omitempty"`

	CreatedAt string `json:"createdAt"`
	UpdatedAt string `json:"updatedAt"`
	SoftDelete
}

// Evaluation is the structured post-interview scorecard. At most one per
// interview; the average is computed, never stored.
type Evaluation struct {
	ID          string `json:"id"`
	InterviewID string `json:"interviewId"`
	EvaluatorID string `json:"evaluatorId"`

	TechnicalScore     int `json:"technicalScore"`     // 1..5
	CommunicationScore int `json:"communicationScore"` // 1..5
	MotivationScore    int `json:"motivationScore"`    // 1..5
	CultureFitScore    int `json:"cultureFitScore"`    // 1..5

	Strengths        string `json:"strengths,omitempty"`
	ImprovementAreas string `json:"improvementAreas,omitempty"`
	Recommendation   string `json:"recommendation,omitempty"`
	Recommend        bool   `json:"recommend"`
	Urgency          string `json:"urgency"` // "low", "medium", "high"

	CreatedAt string `json:"createdAt"`
	UpdatedAt string `json:"updatedAt"`
}

// AverageScore returns the mean of the four sub-scores.
func (e *Evaluation) AverageScore() float64 {
	return float64(e.TechnicalScore+e.CommunicationScore+e.MotivationScore+e.CultureFitScore) / 4.0
}
