// internal/workers/candidate/create-candidate/models.go
package createcandidate

import "recruiting-pipeline/internal/pipeline/intake"

// Input is the intake record exactly as the process variables carry it.
type Input = intake.Application

type Output struct {
	CandidateID string `json:"candidateId"`
	Stage       string `json:"stage"`
}
