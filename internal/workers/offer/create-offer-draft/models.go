// internal/workers/offer/create-offer-draft/models.go
package createofferdraft

import (
	"time"

	"recruiting-pipeline/internal/models"
)

type Input struct {
	CandidateID string     `json:"candidateId"`
	Salary      *float64   `json:"salary,omitempty"`
	StartDate   *time.Time `json:"startDate,omitempty"`
	Notes       *string    `json:"notes,omitempty"`
	Content     *string    `json:"content,omitempty"`
}

func (in *Input) Fields() models.OfferFields {
	return models.OfferFields{Salary: in.Salary, StartDate: in.StartDate, Notes: in.Notes, Content: in.Content}
}

type Output struct {
	OfferID     string `json:"offerId"`
	OfferStatus string `json:"offerStatus"`
	OfferLocked bool   `json:"offerLocked"`
}
