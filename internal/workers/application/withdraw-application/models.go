// internal/workers/application/withdraw-application/models.go
package withdrawapplication

type Input struct {
	ApplicationID string `json:"applicationId"`
	Reason        string `json:"reason,omitempty"`
	ActorID       string `json:"actorId,omitempty"`
}

type Output struct {
	ApplicationID  string `json:"applicationId"`
	PreviousStatus string `json:"previousStatus"`
	NewStatus      string `json:"newStatus"`
	WithdrawnAt    string `json:"withdrawnAt"`
}
