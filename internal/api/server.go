// Package api exposes the pipeline core over HTTP: candidates, transitions,
// overrides, offers and the timeline, plus health, readiness and metrics.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"recruiting-pipeline/internal/common/logger"
	"recruiting-pipeline/internal/models"
	"recruiting-pipeline/internal/pipeline/engine"
	"recruiting-pipeline/internal/pipeline/intake"
	"recruiting-pipeline/internal/pipeline/stagegraph"
)

type TransitionService interface {
	Transition(ctx context.Context, candidateID string, to models.Stage, reason string) (*engine.Result, error)
	Reject(ctx context.Context, candidateID, reason string) (*engine.Result, error)
	GetCandidate(ctx context.Context, id string) (*models.Candidate, error)
	Timeline(ctx context.Context, candidateID string, limit int) ([]models.Event, error)
	Graph() *stagegraph.Graph
}

type OfferService interface {
	CreateDraft(ctx context.Context, candidateID string, fields models.OfferFields) (*models.Offer, error)
	UpdateDraft(ctx context.Context, offerID string, fields models.OfferFields) (*models.Offer, error)
	SendOffer(ctx context.Context, offerID string) (*models.Offer, error)
	LockOffer(ctx context.Context, offerID string) (*models.Offer, error)
	RespondToOffer(ctx context.Context, offerID string, accepted bool) (*models.Offer, error)
	GetOffer(ctx context.Context, offerID string) (*models.Offer, error)
}

type StatusService interface {
	Override(ctx context.Context, candidateID string, field models.StatusField, value string) (*models.Candidate, error)
}

type IntakeService interface {
	CreateCandidate(ctx context.Context, app intake.Application) (*models.Candidate, error)
}

// Pinger is a backing service checked by /ready.
type Pinger interface {
	Ping(ctx context.Context) error
}

type Deps struct {
	Engine TransitionService
	Offers OfferService
	Status StatusService
	Intake IntakeService
	// Ready maps a dependency name to its probe.
	Ready  map[string]Pinger
	Logger logger.Logger
}

type Server struct {
	engine TransitionService
	offers OfferService
	status StatusService
	intake IntakeService
	ready  map[string]Pinger
	log    logger.Logger
}

// NewRouter builds the chi router.
func NewRouter(deps Deps) http.Handler {
	s := &Server{
		engine: deps.Engine,
		offers: deps.Offers,
		status: deps.Status,
		intake: deps.Intake,
		ready:  deps.Ready,
		log:    deps.Logger.WithFields(map[string]interface{}{"component": "http-api"}),
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.requestLogger)

	r.Get("/health", s.health)
	r.Get("/ready", s.readiness)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(api chi.Router) {
		api.Get("/stages", s.stages)

		api.Post("/candidates", s.createCandidate)
		api.Route("/candidates/{candidateID}", func(c chi.Router) {
			c.Get("/", s.getCandidate)
			c.Post("/transitions", s.transition)
			c.Post("/reject", s.reject)
			c.Post("/overrides", s.override)
			c.Get("/timeline", s.timeline)
			c.Post("/offers", s.createDraft)
		})

		api.Route("/offers/{offerID}", func(o chi.Router) {
			o.Get("/", s.getOffer)
			o.Patch("/", s.updateDraft)
			o.Post("/send", s.sendOffer)
			o.Post("/lock", s.lockOffer)
			o.Post("/respond", s.respond)
		})
	})
	return r
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.log.Debug("HTTP request", map[string]interface{}{
			"method":     r.Method,
			"path":       r.URL.Path,
			"status":     ww.Status(),
			"durationMs": time.Since(start).Milliseconds(),
			"requestId":  middleware.GetReqID(r.Context()),
		})
	})
}

func (s *Server) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func (s *Server) readiness(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	checks := make(map[string]string, len(s.ready))
	status := http.StatusOK
	for name, p := range s.ready {
		if err := p.Ping(ctx); err != nil {
			checks[name] = err.Error()
			status = http.StatusServiceUnavailable
			continue
		}
		checks[name] = "ok"
	}

	state := "ready"
	if status != http.StatusOK {
		state = "not ready"
	}
	writeJSON(w, status, map[string]interface{}{"status": state, "checks": checks})
}
