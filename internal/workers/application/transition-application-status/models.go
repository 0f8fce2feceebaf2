// internal/workers/application/transition-application-status/models.go
package transitionapplicationstatus

// Input names either an explicit target status or a quick action; when both
// are present the quick action wins.
type Input struct {
	ApplicationID string `json:"applicationId"`
	TargetStatus  string `json:"targetStatus,omitempty"`
	Action        string `json:"action,omitempty"`
	ActorID       string `json:"actorId,omitempty"`
	Note          string `json:"note,omitempty"`
}

type Output struct {
	ApplicationID  string `json:"applicationId"`
	PreviousStatus string `json:"previousStatus"`
	NewStatus      string `json:"newStatus"`
	FollowupCount  int    `json:"followupCount"`
	UpdatedAt      string `json:"updatedAt"`
}
