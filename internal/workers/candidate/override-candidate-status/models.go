// internal/workers/candidate/override-candidate-status/models.go
package overridecandidatestatus

type Input struct {
	CandidateID string `json:"candidateId"`
	Field       string `json:"field"`
	Value       string `json:"value"`
}

type Output struct {
	CandidateID string `json:"candidateId"`
	Field       string `json:"field"`
	Status      string `json:"status"`
	Locked      bool   `json:"locked"`
}
