// internal/workers/candidate/reference-check/models.go
package referencecheck

type Input struct {
	CandidateID string `json:"candidateId"`
	Result      string `json:"result"` // pending | passed | failed
}

type Output struct {
	CandidateID     string `json:"candidateId"`
	ReferenceStatus string `json:"referenceStatus"`
	// Applied is false when a manual override kept the automated result out.
	Applied bool `json:"applied"`
}
