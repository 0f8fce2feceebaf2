// internal/workers/interview/interview-quick-action/models.go
package interviewquickaction

type Input struct {
	InterviewID string `json:"interviewId"`
	Action      string `json:"action"` // confirm, postpone, mark-done, cancel
	Note        string `json:"note,omitempty"`
	ActorID     string `json:"actorId,omitempty"`
}

type Output struct {
	InterviewID    string `json:"interviewId"`
	PreviousStatus string `json:"previousStatus"`
	NewStatus      string `json:"newStatus"`
	HeldAt         string `json:"heldAt,omitempty"`
	UpdatedAt      string `json:"updatedAt"`
}
