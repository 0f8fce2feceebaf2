// internal/workers/application/check-eligibility/models.go
package checkeligibility

type Input struct {
	CandidateID string `json:"candidateId"`

	// ForceRefresh bypasses the cached verdict, used right after a
	// candidate uploads a document.
	ForceRefresh bool `json:"forceRefresh,omitempty"`
}

type Output struct {
	CandidateID string   `json:"candidateId"`
	Eligible    bool     `json:"eligible"`
	Missing     []string `json:"missing"`
	Cached      bool     `json:"cached"`
	CheckedAt   string   `json:"checkedAt"`
}
