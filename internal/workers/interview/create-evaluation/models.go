// internal/workers/interview/create-evaluation/models.go
package createevaluation

// Input scores range 1..5 inclusive.
type Input struct {
	InterviewID        string `json:"interviewId"`
	TechnicalScore     int    `json:"technicalScore"`
	CommunicationScore int    `json:"communicationScore"`
	CultureFitScore    int    `json:"cultureFitScore"`
	MotivationScore    int    `json:"motivationScore"`
	Recommend          bool   `json:"recommend"`
	Urgency            string `json:"urgency,omitempty"`
	Strengths          string `json:"strengths,omitempty"`
	ImprovementAreas   string `json:"improvementAreas,omitempty"`
	Recommendation     string `json:"recommendation,omitempty"`
	EvaluatorID        string `json:"evaluatorId,omitempty"`
}

type Output struct {
	EvaluationID  string  `json:"evaluationId"`
	InterviewID   string  `json:"interviewId"`
	AverageScore  float64 `json:"averageScore"`
	AlreadyExists bool    `json:"alreadyExists"`
	CreatedAt     string  `json:"createdAt,omitempty"`
}
