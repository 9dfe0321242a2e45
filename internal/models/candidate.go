// internal/models/candidate.go
package models

import "time"

// Stage is a discrete position in the hiring pipeline.
type Stage string

const (
	StageApplied       Stage = "applied"
	StageScreening     Stage = "screening"
	StageInterview     Stage = "interview"
	StageOffer         Stage = "offer"
	StageOfferAccepted Stage = "offer_accepted"
	StageRejected      Stage = "rejected"
)

// StatusSource records who last wrote a side-channel status field.
type StatusSource string

const (
	SourceSystem StatusSource = "system"
	SourceManual StatusSource = "manual"
)

// StatusField names one of the side-channel status fields on a candidate.
type StatusField string

const (
	FieldReference  StatusField = "reference"
	FieldOffer      StatusField = "offer"
	FieldOnboarding StatusField = "onboarding"
)

// StatusFields lists every side-channel field in display order.
var StatusFields = []StatusField{FieldReference, FieldOffer, FieldOnboarding}

// Valid reports whether f is a known side-channel field.
func (f StatusField) Valid() bool {
	switch f {
	case FieldReference, FieldOffer, FieldOnboarding:
		return true
	}
	return false
}

// StepStatus is the value, provenance and lock flag of one side-channel field.
type StepStatus struct {
	Status string       `json:"status,omitempty"`
	Source StatusSource `json:"source,omitempty"`
	Locked bool         `json:"locked"`
}

// Candidate is the fixed record kept for every person in the pipeline.
// Stage changes only through the transition engine; the step statuses change
// through the override path or an automated writer that honours Locked.
type Candidate struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Email     string `json:"email,omitempty"`
	Phone     string `json:"phone,omitempty"`
	Location  string `json:"location,omitempty"`
	LinkedIn  string `json:"linkedin,omitempty"`
	Portfolio string `json:"portfolio,omitempty"`
	Role      string `json:"role,omitempty"`
	JobID     string `json:"jobId,omitempty"`
	Source    string `json:"source,omitempty"`

	Stage Stage `json:"stage"`

	PreScore  *float64 `json:"preScore,omitempty"`
	PostScore *float64 `json:"postScore,omitempty"`

	Reference  StepStatus `json:"reference"`
	Offer      StepStatus `json:"offer"`
	Onboarding StepStatus `json:"onboarding"`

	LastStatusChangedAt *time.Time `json:"lastStatusChangedAt,omitempty"`
	CreatedAt           time.Time  `json:"createdAt"`
}

// Delta returns postScore - preScore when both scores are present.
func (c *Candidate) Delta() (float64, bool) {
	if c.PreScore == nil || c.PostScore == nil {
		return 0, false
	}
	return *c.PostScore - *c.PreScore, true
}

// Step returns the status triple for field.
func (c *Candidate) Step(field StatusField) StepStatus {
	switch field {
	case FieldReference:
		return c.Reference
	case FieldOffer:
		return c.Offer
	case FieldOnboarding:
		return c.Onboarding
	}
	return StepStatus{}
}

// SetStep replaces the status triple for field. Unknown fields are ignored.
func (c *Candidate) SetStep(field StatusField, step StepStatus) {
	switch field {
	case FieldReference:
		c.Reference = step
	case FieldOffer:
		c.Offer = step
	case FieldOnboarding:
		c.Onboarding = step
	}
}

// Clone returns a deep copy so callers never share score pointers.
func (c *Candidate) Clone() *Candidate {
	if c == nil {
		return nil
	}
	out := *c
	if c.PreScore != nil {
		v := *c.PreScore
		out.PreScore = &v
	}
	if c.PostScore != nil {
		v := *c.PostScore
		out.PostScore = &v
	}
	if c.LastStatusChangedAt != nil {
		t := *c.LastStatusChangedAt
		out.LastStatusChangedAt = &t
	}
	return &out
}
