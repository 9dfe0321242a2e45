// internal/workers/candidate/get-candidate-timeline/models.go
package getcandidatetimeline

import "recruiting-pipeline/internal/models"

type Input struct {
	CandidateID string `json:"candidateId"`
	Limit       int    `json:"limit,omitempty"`
}

type Output struct {
	CandidateID string         `json:"candidateId"`
	Events      []models.Event `json:"events"`
	EventCount  int            `json:"eventCount"`
}
