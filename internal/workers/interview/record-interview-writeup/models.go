// internal/workers/interview/record-interview-writeup/models.go
package recordinterviewwriteup

type Input struct {
	InterviewID string `json:"interviewId"`
	Feedback    string `json:"feedback"`

	TopicsCovered    string `json:"topicsCovered,omitempty"`
	QuestionsAsked   string `json:"questionsAsked,omitempty"`
	Positives        string `json:"positives,omitempty"`
	ImprovementAreas string `json:"improvementAreas,omitempty"`
	NextSteps        string `json:"nextSteps,omitempty"`

	// OverallScore is optional and ranges 0..10.
	OverallScore          *float64 `json:"overallScore,omitempty"`
	ActualDurationMinutes *int     `json:"actualDurationMinutes,omitempty"`
	ActorID               string   `json:"actorId,omitempty"`
}

type Output struct {
	InterviewID  string   `json:"interviewId"`
	OverallScore *float64 `json:"overallScore,omitempty"`
	UpdatedAt    string   `json:"updatedAt"`
}
