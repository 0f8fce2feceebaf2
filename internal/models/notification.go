// internal/models/notification.go
package models

// InternalNote is the message body fanned out to the recruiting team when
// something happens in the pipeline (new submission, interview scheduled,
// cancellation).
type InternalNote struct {
	ID        string `json:"id"`
	Subject   string `json:"subject"`
	Body      string `json:"body"`
	Urgency   string `json:"urgency"` // "low", "medium", "high"
	AuthorID  string `json:"authorId,omitempty"`
	CreatedAt string `json:"createdAt"`
}

// Notification is one delivery attempt of a note to one recipient over one
// channel. Rows are written before delivery and updated with the outcome.
type Notification struct {
	ID          string `json:"id"`
	NoteID      string `json:"noteId"`
	RecipientID string `json:"recipientId"`
	Channel     string `json:"channel"` // "email", "sms"
	Status      string `json:"status"`  // "pending", "sent", "failed"
	SentAt      string `json:"sentAt,omitempty"`
	CreatedAt   string `json:"createdAt"`
}
