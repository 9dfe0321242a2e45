package api

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"recruiting-pipeline/internal/common/errors"
	"recruiting-pipeline/internal/models"
	"recruiting-pipeline/internal/pipeline/intake"
)

const defaultTimelineLimit = 100

type candidateView struct {
	*models.Candidate
	Delta *float64 `json:"delta,omitempty"`
}

func viewOf(c *models.Candidate) candidateView {
	v := candidateView{Candidate: c}
	if d, ok := c.Delta(); ok {
		v.Delta = &d
	}
	return v
}

type transitionRequest struct {
	ToStage models.Stage `json:"toStage"`
	Reason  string       `json:"reason,omitempty"`
}

type rejectRequest struct {
	Reason string `json:"reason,omitempty"`
}

type overrideRequest struct {
	Field models.StatusField `json:"field"`
	Value string             `json:"value"`
}

type respondRequest struct {
	Accepted *bool `json:"accepted"`
}

type transitionResponse struct {
	Candidate candidateView `json:"candidate"`
	From      models.Stage  `json:"from"`
	To        models.Stage  `json:"to"`
}

type stagesResponse struct {
	Stages   []models.Stage                  `json:"stages"`
	Terminal []models.Stage                  `json:"terminal"`
	Edges    map[models.Stage][]models.Stage `json:"edges"`
	Initial  models.Stage                    `json:"initial"`
	Rejected models.Stage                    `json:"rejected"`
	Accepted models.Stage                    `json:"accepted"`
}

func (s *Server) stages(w http.ResponseWriter, _ *http.Request) {
	g := s.engine.Graph()
	resp := stagesResponse{
		Stages:   g.Stages(),
		Terminal: g.TerminalStages(),
		Edges:    make(map[models.Stage][]models.Stage),
		Initial:  g.Initial(),
		Rejected: g.Rejected(),
		Accepted: g.Accepted(),
	}
	for _, st := range resp.Stages {
		if next := g.AllowedNext(st); len(next) > 0 {
			resp.Edges[st] = next
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) createCandidate(w http.ResponseWriter, r *http.Request) {
	var app intake.Application
	if err := decode(w, r, &app); err != nil {
		s.writeError(w, r, err)
		return
	}
	c, err := s.intake.CreateCandidate(r.Context(), app)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, viewOf(c))
}

func (s *Server) getCandidate(w http.ResponseWriter, r *http.Request) {
	c, err := s.engine.GetCandidate(r.Context(), chi.URLParam(r, "candidateID"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, viewOf(c))
}

func (s *Server) transition(w http.ResponseWriter, r *http.Request) {
	var req transitionRequest
	if err := decode(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	if req.ToStage == "" {
		s.writeError(w, r, errors.NewValidationError("toStage is required"))
		return
	}
	res, err := s.engine.Transition(r.Context(), chi.URLParam(r, "candidateID"), req.ToStage, req.Reason)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, transitionResponse{Candidate: viewOf(res.Candidate), From: res.From, To: res.To})
}

func (s *Server) reject(w http.ResponseWriter, r *http.Request) {
	var req rejectRequest
	if err := decodeOptional(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	res, err := s.engine.Reject(r.Context(), chi.URLParam(r, "candidateID"), req.Reason)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, transitionResponse{Candidate: viewOf(res.Candidate), From: res.From, To: res.To})
}

func (s *Server) override(w http.ResponseWriter, r *http.Request) {
	var req overrideRequest
	if err := decode(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	c, err := s.status.Override(r.Context(), chi.URLParam(r, "candidateID"), req.Field, req.Value)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, viewOf(c))
}

func (s *Server) timeline(w http.ResponseWriter, r *http.Request) {
	limit := defaultTimelineLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			s.writeError(w, r, errors.NewValidationError("limit must be a positive integer"))
			return
		}
		limit = n
	}
	evs, err := s.engine.Timeline(r.Context(), chi.URLParam(r, "candidateID"), limit)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if evs == nil {
		evs = []models.Event{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"events": evs})
}

func (s *Server) createDraft(w http.ResponseWriter, r *http.Request) {
	var fields models.OfferFields
	if err := decodeOptional(w, r, &fields); err != nil {
		s.writeError(w, r, err)
		return
	}
	o, err := s.offers.CreateDraft(r.Context(), chi.URLParam(r, "candidateID"), fields)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, o)
}

func (s *Server) getOffer(w http.ResponseWriter, r *http.Request) {
	o, err := s.offers.GetOffer(r.Context(), chi.URLParam(r, "offerID"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, o)
}

func (s *Server) updateDraft(w http.ResponseWriter, r *http.Request) {
	var fields models.OfferFields
	if err := decode(w, r, &fields); err != nil {
		s.writeError(w, r, err)
		return
	}
	o, err := s.offers.UpdateDraft(r.Context(), chi.URLParam(r, "offerID"), fields)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, o)
}

func (s *Server) sendOffer(w http.ResponseWriter, r *http.Request) {
	o, err := s.offers.SendOffer(r.Context(), chi.URLParam(r, "offerID"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, o)
}

func (s *Server) lockOffer(w http.ResponseWriter, r *http.Request) {
	o, err := s.offers.LockOffer(r.Context(), chi.URLParam(r, "offerID"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, o)
}

func (s *Server) respond(w http.ResponseWriter, r *http.Request) {
	var req respondRequest
	if err := decode(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	if req.Accepted == nil {
		s.writeError(w, r, errors.NewValidationError("accepted is required"))
		return
	}
	o, err := s.offers.RespondToOffer(r.Context(), chi.URLParam(r, "offerID"), *req.Accepted)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, o)
}
