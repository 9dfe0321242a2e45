// internal/workers/candidate/transition-candidate-stage/models.go
package transitioncandidatestage

type Input struct {
	CandidateID string `json:"candidateId"`
	ToStage     string `json:"toStage"`
	Reason      string `json:"reason,omitempty"`
}

type Output struct {
	CandidateID string `json:"candidateId"`
	FromStage   string `json:"fromStage"`
	Stage       string `json:"stage"`
}
