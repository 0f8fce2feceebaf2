// internal/workers/interview/schedule-interview/models.go
package scheduleinterview

type Input struct {
	ApplicationID   string `json:"applicationId"`
	InterviewType   string `json:"interviewType"`
	ScheduledAt     string `json:"scheduledAt"` // RFC3339, must be in the future
	DurationMinutes int    `json:"durationMinutes,omitempty"`
	Location        string `json:"location,omitempty"`
	VideoLink       string `json:"videoLink,omitempty"`
	AccessCodes     string `json:"accessCodes,omitempty"`
	Participants    string `json:"participants,omitempty"`
	Agenda          string `json:"agenda,omitempty"`
	InterviewerID   string `json:"interviewerId,omitempty"`
	PrepNotes       string `json:"prepNotes,omitempty"`
}

// Output carries the scheduling result plus the internal-note payload the
// send-internal-note task consumes downstream.
type Output struct {
	InterviewID       string `json:"interviewId"`
	InterviewStatus   string `json:"interviewStatus"`
	Round             int    `json:"round"`
	ApplicationStatus string `json:"applicationStatus"`
	ScheduledAt       string `json:"scheduledAt"`
	NoteSubject       string `json:"noteSubject"`
	NoteBody          string `json:"noteBody"`
}
