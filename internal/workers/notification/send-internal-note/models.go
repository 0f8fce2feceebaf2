// internal/workers/notification/send-internal-note/models.go
package sendinternalnote

type Input struct {
	ApplicationID string `json:"applicationId"`
	Subject       string `json:"subject"`
	Body          string `json:"body"`
	Urgency       string `json:"urgency,omitempty"` // "low", "medium", "high"
	AuthorID      string `json:"authorId,omitempty"`
}

type Output struct {
	NoteID         string `json:"noteId"`
	RecipientCount int    `json:"recipientCount"`
	SentCount      int    `json:"sentCount"`
	FailedCount    int    `json:"failedCount"`
	CreatedAt      string `json:"createdAt"` // ISO 8601
}

// Urgency levels
const (
	UrgencyLow    = "low"
	UrgencyMedium = "medium"
	UrgencyHigh   = "high"
)

// Notification statuses
const (
	StatusPending = "pending"
	StatusSent    = "sent"
	StatusFailed  = "failed"
)

// Delivery channels. A recipient reached on both gets them joined with a
// comma; "none" marks a pending row that no channel could carry.
const (
	ChannelEmail = "email"
	ChannelSMS   = "sms"
	ChannelNone  = "none"
)
