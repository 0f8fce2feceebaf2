// internal/models/application.go
package models

// SoftDelete is embedded by every entity that hides rather than removes.
// Default queries must filter on IsDeleted; the row itself never goes away.
type SoftDelete struct {
	IsDeleted    bool   `json:"isDeleted"`
	DeletedAt    string `json:"deletedAt,omitempty"`
	DeleteReason string `json:"deleteReason,omitempty"`
}

// Channel values mirror the applications.channel column (where the
// candidate found the offer).
const (
	ChannelSite       = "SITE"
	ChannelLinkedIn   = "LINKEDIN"
	ChannelIndeed     = "INDEED"
	ChannelAPEC       = "APEC"
	ChannelPoleEmploi = "POLE_EMPLOI"
	ChannelReferral   = "REFERRAL"
	ChannelNetwork    = "NETWORK"
	ChannelOther      = "OTHER"
)

type Application struct {
	ID             string `json:"id"`
	CandidateID    string `json:"candidateId"`
	OfferID        string `json:"offerId"`
	Status         string `json:"status"`
	InterviewRound int    `json:"interviewRound"`
	Channel        string `json:"channel,omitempty"`
	Motivation     string `json:"motivation,omitempty"`
	Notes          string `json:"notes,omitempty"`
	Strengths      string `json:"strengths,omitempty"`
	Weaknesses     string `json:"weaknesses,omitempty"`
	ResumeID       string `json:"resumeId,omitempty"`
	CoverLetterID  string `json:"coverLetterId,omitempty"`
	FollowupCount  int    `json:"followupCount"`
	LastFollowupAt string `json:"lastFollowupAt,omitempty"`
	SubmittedAt    string `json:"submittedAt"`
	UpdatedAt      string `json:"updatedAt"`
	SoftDelete
}

type JobOffer struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Status      string `json:"status"` // "draft", "open", "expired"
	Visible     bool   `json:"visible"`
	Deadline    string `json:"deadline,omitempty"`
	PublishedAt string `json:"publishedAt,omitempty"`
}
