// internal/models/event.go
package models

import "time"

// Event types written by the pipeline core.
const (
	EventStageChange        = "stage_change"
	EventRejected           = "rejected"
	EventOnboardingStarted  = "onboarding_started"
	EventInboundApplication = "inbound_application_received"
	EventOfferDraftCreated  = "offer_draft_created"
	EventOfferUpdated       = "offer_updated"
	EventOfferSent          = "offer_sent"
	EventOfferLocked        = "offer_locked"
	EventOfferAccepted      = "offer_accepted"
	EventOfferDeclined      = "offer_declined"
)

// Event sources.
const (
	EventSourceSystem     = "system"
	EventSourceManual     = "manual"
	EventSourceAutomation = "automation"
)

// Event is one immutable fact about a candidate. Events are append-only.
type Event struct {
	ID          string                 `json:"id"`
	CandidateID string                 `json:"candidateId"`
	EventType   string                 `json:"eventType"`
	Meta        map[string]interface{} `json:"meta"`
	Source      string                 `json:"source"`
	CreatedAt   time.Time              `json:"createdAt"`
}

// StatusEventType is the audit tag for a side-channel status write, e.g. "reference_passed".
func StatusEventType(field StatusField, value string) string {
	return string(field) + "_" + value
}
