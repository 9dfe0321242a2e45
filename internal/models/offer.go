// internal/models/offer.go
package models

import "time"

// OfferStatus is the position of an offer in its own lifecycle.
type OfferStatus string

const (
	OfferDraft    OfferStatus = "draft"
	OfferSent     OfferStatus = "sent"
	OfferAccepted OfferStatus = "accepted"
	OfferRejected OfferStatus = "rejected"
)

// Open reports whether the status still allows sending or a response.
func (s OfferStatus) Open() bool {
	return s == OfferDraft || s == OfferSent
}

// Offer is the job offer attached to a candidate. Locked is monotonic.
type Offer struct {
	ID          string      `json:"id"`
	CandidateID string      `json:"candidateId"`
	Salary      *float64    `json:"salary,omitempty"`
	StartDate   *time.Time  `json:"startDate,omitempty"`
	Notes       string      `json:"notes,omitempty"`
	Content     string      `json:"content,omitempty"`
	Status      OfferStatus `json:"status"`
	Locked      bool        `json:"locked"`
	Version     int64       `json:"version"`
	CreatedAt   time.Time   `json:"createdAt"`
	UpdatedAt   time.Time   `json:"updatedAt"`
}

// OfferFields is a partial set of draft fields; nil means "leave unchanged".
type OfferFields struct {
	Salary    *float64   `json:"salary,omitempty"`
	StartDate *time.Time `json:"startDate,omitempty"`
	Notes     *string    `json:"notes,omitempty"`
	Content   *string    `json:"content,omitempty"`
}

// Empty reports whether no field is set.
func (f OfferFields) Empty() bool {
	return f.Salary == nil && f.StartDate == nil && f.Notes == nil && f.Content == nil
}

// ApplyTo merges the provided fields into o and returns the names of the fields that changed.
func (f OfferFields) ApplyTo(o *Offer) []string {
	var changed []string
	if f.Salary != nil {
		v := *f.Salary
		o.Salary = &v
		changed = append(changed, "salary")
	}
	if f.StartDate != nil {
		t := *f.StartDate
		o.StartDate = &t
		changed = append(changed, "startDate")
	}
	if f.Notes != nil {
		o.Notes = *f.Notes
		changed = append(changed, "notes")
	}
	if f.Content != nil {
		o.Content = *f.Content
		changed = append(changed, "content")
	}
	return changed
}

// Open reports whether the offer still blocks a new draft for the same candidate.
// A locked offer is terminal regardless of its status.
func (o *Offer) Open() bool {
	return o.Status.Open() && !o.Locked
}

// Clone returns a deep copy of o.
func (o *Offer) Clone() *Offer {
	if o == nil {
		return nil
	}
	out := *o
	if o.Salary != nil {
		v := *o.Salary
		out.Salary = &v
	}
	if o.StartDate != nil {
		t := *o.StartDate
		out.StartDate = &t
	}
	return &out
}
