// internal/workers/candidate/reject-candidate/models.go
package rejectcandidate

type Input struct {
	CandidateID string `json:"candidateId"`
	Reason      string `json:"reason,omitempty"`
}

type Output struct {
	CandidateID string `json:"candidateId"`
	FromStage   string `json:"fromStage"`
	Stage       string `json:"stage"`
}
