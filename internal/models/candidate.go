// internal/models/candidate.go
package models

// Document types mirror the documents.doc_type column.
const (
	DocTypeCV             = "CV"
	DocTypeCoverLetter    = "COVER_LETTER"
	DocTypeDiploma        = "DIPLOMA"
	DocTypeRecommendation = "RECOMMENDATION"
	DocTypePortfolio      = "PORTFOLIO"
	DocTypeCertificate    = "CERTIFICATE"
	DocTypeOther          = "OTHER"
)

type Document struct {
	ID          string `json:"id"`
	CandidateID string `json:"candidateId"`
	DocType     string `json:"docType"`
	Name        string `json:"name"`
	Language    string `json:"language,omitempty"`
	Version     int    `json:"version"`
	IsActive    bool   `json:"isActive"`
	UploadedAt  string `json:"uploadedAt"`
	SoftDelete
}

// CandidateProfile carries the identity fields the eligibility gate checks
// before a submission is accepted.
type CandidateProfile struct {
	CandidateID        string `json:"candidateId"`
	Phone              string `json:"phone,omitempty"`
	IdentityDocType    string `json:"identityDocType,omitempty"` // "CNI", "PASSPORT", "TITRE_SEJOUR"
	IdentityDocNumber  string `json:"identityDocNumber,omitempty"`
	IdentityIssueDate  string `json:"identityIssueDate,omitempty"`
	IdentityIssuePlace string `json:"identityIssuePlace,omitempty"`
}

// EligibilityResult is what the gate reports: eligible or the list of what
// is missing, so the caller can show a corrective message.
type EligibilityResult struct {
	Eligible bool     `json:"eligible"`
	Missing  []string `json:"missing,omitempty"`
}
