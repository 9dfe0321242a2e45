// Package intake turns an already-structured inbound application into a
// candidate at the first stage of the pipeline.
package intake

import (
	"context"
	"fmt"
	"math"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"

	"recruiting-pipeline/internal/common/errors"
	"recruiting-pipeline/internal/common/logger"
	"recruiting-pipeline/internal/models"
	"recruiting-pipeline/internal/store"
)

// Application is the validated intake payload. Unknown fields are rejected by
// the transports before they reach this type.
type Application struct {
	Name      string   `json:"name"`
	Email     string   `json:"email,omitempty"`
	Phone     string   `json:"phone,omitempty"`
	Location  string   `json:"location,omitempty"`
	LinkedIn  string   `json:"linkedin,omitempty"`
	Portfolio string   `json:"portfolio,omitempty"`
	Role      string   `json:"role,omitempty"`
	JobID     string   `json:"jobId,omitempty"`
	Source    string   `json:"source,omitempty"`
	PreScore  *float64 `json:"preScore,omitempty"`
	PostScore *float64 `json:"postScore,omitempty"`
}

// Validate checks the fields the store relies on.
func (a Application) Validate() error {
	if strings.TrimSpace(a.Name) == "" {
		return errors.NewValidationError("name is required")
	}
	if a.Email != "" {
		if _, err := mail.ParseAddress(a.Email); err != nil {
			return errors.NewValidationError(fmt.Sprintf("invalid email %q", a.Email))
		}
	}
	for name, v := range map[string]*float64{"preScore": a.PreScore, "postScore": a.PostScore} {
		if v != nil && (math.IsNaN(*v) || math.IsInf(*v, 0)) {
			return errors.NewValidationError(name + " must be a finite number")
		}
	}
	return nil
}

type EventRecorder interface {
	Record(ctx context.Context, candidateID, eventType string, meta map[string]interface{}, source string)
}

// CreationNotifier fires the candidate-created automation.
type CreationNotifier interface {
	CandidateCreated(ctx context.Context, c *models.Candidate)
}

type Service struct {
	candidates store.CandidateStore
	recorder   EventRecorder
	notifier   CreationNotifier
	initial    models.Stage
	timeout    time.Duration
	now        func() time.Time
	newID      func() string
	log        logger.Logger
}

// NewService builds the intake service. notifier may be nil.
func NewService(candidates store.CandidateStore, recorder EventRecorder, notifier CreationNotifier, initial models.Stage, timeout time.Duration, log logger.Logger) *Service {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Service{
		candidates: candidates,
		recorder:   recorder,
		notifier:   notifier,
		initial:    initial,
		timeout:    timeout,
		now:        func() time.Time { return time.Now().UTC() },
		newID:      uuid.NewString,
		log:        log.WithFields(map[string]interface{}{"component": "intake"}),
	}
}

// CreateCandidate stores the application at the initial stage, records
// inbound_application_received and fires the candidate-created hooks.
func (s *Service) CreateCandidate(ctx context.Context, app Application) (*models.Candidate, error) {
	if err := app.Validate(); err != nil {
		return nil, err
	}

	source := app.Source
	if source == "" {
		source = "inbound"
	}

	c := &models.Candidate{
		ID:        s.newID(),
		Name:      strings.TrimSpace(app.Name),
		Email:     app.Email,
		Phone:     app.Phone,
		Location:  app.Location,
		LinkedIn:  app.LinkedIn,
		Portfolio: app.Portfolio,
		Role:      app.Role,
		JobID:     app.JobID,
		Source:    source,
		Stage:     s.initial,
		PreScore:  app.PreScore,
		PostScore: app.PostScore,
		CreatedAt: s.now(),
	}

	sctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	if err := s.candidates.CreateCandidate(sctx, c); err != nil {
		return nil, err
	}

	after := context.WithoutCancel(ctx)
	meta := map[string]interface{}{"source": source, "stage": string(s.initial)}
	if c.JobID != "" {
		meta["jobId"] = c.JobID
	}
	s.recorder.Record(after, c.ID, models.EventInboundApplication, meta, models.EventSourceSystem)

	if s.notifier != nil {
		s.notifier.CandidateCreated(after, c)
	}

	s.log.Info("Candidate created", map[string]interface{}{"candidateId": c.ID, "source": source})
	return c, nil
}
