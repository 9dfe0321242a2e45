package api

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"recruiting-pipeline/internal/common/errors"
	"recruiting-pipeline/internal/common/logger"
	"recruiting-pipeline/internal/models"
	"recruiting-pipeline/internal/pipeline/engine"
	"recruiting-pipeline/internal/pipeline/events"
	"recruiting-pipeline/internal/pipeline/intake"
	"recruiting-pipeline/internal/pipeline/offers"
	"recruiting-pipeline/internal/pipeline/stagegraph"
	"recruiting-pipeline/internal/pipeline/status"
	"recruiting-pipeline/internal/store/memory"
)

type pinger struct{ err error }

func (p pinger) Ping(context.Context) error { return p.err }

type testServer struct {
	handler http.Handler
	store   *memory.Store
}

func newTestServer(t *testing.T, ready map[string]Pinger) *testServer {
	t.Helper()
	st := memory.New()
	log := logger.NewTestLogger(t)
	rec := events.NewRecorder(st, events.Options{}, log)
	graph := stagegraph.Default()

	eng := engine.New(engine.Config{StoreTimeout: time.Second}, engine.Deps{
		Graph: graph, Candidates: st, Offers: st, Recorder: rec, Logger: log,
	})
	return &testServer{
		handler: NewRouter(Deps{
			Engine: eng,
			Offers: offers.NewService(st, st, rec, nil, offers.Config{StoreTimeout: time.Second}, log),
			Status: status.NewWriter(st, rec, time.Second, log),
			Intake: intake.NewService(st, rec, nil, graph.Initial(), time.Second, log),
			Ready:  ready,
			Logger: log,
		}),
		store: st,
	}
}

func (s *testServer) do(t *testing.T, method, path, body string) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rr := httptest.NewRecorder()
	s.handler.ServeHTTP(rr, req)

	var out map[string]interface{}
	if strings.HasPrefix(rr.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &out))
	}
	return rr, out
}

func errorCode(body map[string]interface{}) string {
	e, _ := body["error"].(map[string]interface{})
	code, _ := e["code"].(string)
	return code
}

func (s *testServer) createCandidate(t *testing.T) string {
	t.Helper()
	rr, body := s.do(t, http.MethodPost, "/api/candidates",
		`{"name":"Grace Hopper","email":"grace@example.com","role":"Engineer","preScore":60,"postScore":75}`)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	assert.Equal(t, "applied", body["stage"])
	assert.Equal(t, 15.0, body["delta"])
	return body["id"].(string)
}

func TestCandidateLifecycle(t *testing.T) {
	s := newTestServer(t, nil)
	id := s.createCandidate(t)

	for _, stage := range []string{"screening", "interview", "offer"} {
		rr, body := s.do(t, http.MethodPost, "/api/candidates/"+id+"/transitions", `{"toStage":"`+stage+`"}`)
		require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
		assert.Equal(t, stage, body["to"])
	}

	rr, offer := s.do(t, http.MethodPost, "/api/candidates/"+id+"/offers", `{"salary":150000,"notes":"hybrid"}`)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	offerID := offer["id"].(string)
	assert.Equal(t, "draft", offer["status"])

	rr, offer = s.do(t, http.MethodPatch, "/api/offers/"+offerID, `{"content":"Welcome aboard"}`)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.Equal(t, "Welcome aboard", offer["content"])

	rr, offer = s.do(t, http.MethodPost, "/api/offers/"+offerID+"/send", "")
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.Equal(t, "sent", offer["status"])

	rr, offer = s.do(t, http.MethodPost, "/api/offers/"+offerID+"/respond", `{"accepted":true}`)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.Equal(t, "accepted", offer["status"])

	rr, offer = s.do(t, http.MethodPost, "/api/offers/"+offerID+"/lock", "")
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.Equal(t, true, offer["locked"])

	rr, _ = s.do(t, http.MethodPost, "/api/candidates/"+id+"/transitions", `{"toStage":"offer_accepted"}`)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	rr, body := s.do(t, http.MethodGet, "/api/candidates/"+id+"/timeline?limit=3", "")
	require.Equal(t, http.StatusOK, rr.Code)
	evs := body["events"].([]interface{})
	require.Len(t, evs, 3)
	assert.Equal(t, models.EventOnboardingStarted, evs[0].(map[string]interface{})["eventType"])

	rr, body = s.do(t, http.MethodGet, "/api/candidates/"+id, "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "offer_accepted", body["stage"])
}

func TestTransitionErrors(t *testing.T) {
	s := newTestServer(t, nil)
	id := s.createCandidate(t)

	tests := []struct {
		name   string
		path   string
		body   string
		status int
		code   errors.ErrorCode
	}{
		{"unknown stage", "/api/candidates/" + id + "/transitions", `{"toStage":"hired"}`, http.StatusBadRequest, errors.ErrCodeInvalidStage},
		{"illegal edge", "/api/candidates/" + id + "/transitions", `{"toStage":"offer"}`, http.StatusConflict, errors.ErrCodeIllegalTransition},
		{"missing candidate", "/api/candidates/nope/transitions", `{"toStage":"screening"}`, http.StatusNotFound, errors.ErrCodeNotFound},
		{"unknown field", "/api/candidates/" + id + "/transitions", `{"toStage":"screening","force":true}`, http.StatusBadRequest, errors.ErrCodeValidationFailed},
		{"missing target", "/api/candidates/" + id + "/transitions", `{}`, http.StatusBadRequest, errors.ErrCodeValidationFailed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr, body := s.do(t, http.MethodPost, tt.path, tt.body)
			assert.Equal(t, tt.status, rr.Code)
			assert.Equal(t, string(tt.code), errorCode(body))
		})
	}
}

func TestRejectThenTerminal(t *testing.T) {
	s := newTestServer(t, nil)
	id := s.createCandidate(t)

	rr, body := s.do(t, http.MethodPost, "/api/candidates/"+id+"/reject", `{"reason":"position filled"}`)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.Equal(t, "rejected", body["to"])
	assert.Equal(t, "applied", body["from"])

	rr, body = s.do(t, http.MethodPost, "/api/candidates/"+id+"/reject", "")
	assert.Equal(t, http.StatusConflict, rr.Code)
	assert.Equal(t, string(errors.ErrCodeTerminalStateViolation), errorCode(body))
}

func TestOverride(t *testing.T) {
	s := newTestServer(t, nil)
	id := s.createCandidate(t)

	rr, body := s.do(t, http.MethodPost, "/api/candidates/"+id+"/overrides", `{"field":"reference","value":"passed"}`)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	ref := body["reference"].(map[string]interface{})
	assert.Equal(t, "passed", ref["status"])
	assert.Equal(t, "manual", ref["source"])
	assert.Equal(t, true, ref["locked"])

	rr, body = s.do(t, http.MethodPost, "/api/candidates/"+id+"/overrides", `{"field":"salary","value":"x"}`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, string(errors.ErrCodeValidationFailed), errorCode(body))
}

func TestOfferConflicts(t *testing.T) {
	s := newTestServer(t, nil)
	id := s.createCandidate(t)

	rr, offer := s.do(t, http.MethodPost, "/api/candidates/"+id+"/offers", "")
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	offerID := offer["id"].(string)

	rr, body := s.do(t, http.MethodPost, "/api/candidates/"+id+"/offers", `{}`)
	assert.Equal(t, http.StatusConflict, rr.Code)
	assert.Equal(t, string(errors.ErrCodeDuplicateDraft), errorCode(body))

	rr, body = s.do(t, http.MethodPost, "/api/offers/"+offerID+"/respond", `{"accepted":true}`)
	assert.Equal(t, http.StatusConflict, rr.Code)
	assert.Equal(t, string(errors.ErrCodeInvalidOfferState), errorCode(body))

	rr, body = s.do(t, http.MethodPost, "/api/offers/"+offerID+"/respond", `{}`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, string(errors.ErrCodeValidationFailed), errorCode(body))

	rr, _ = s.do(t, http.MethodPost, "/api/offers/"+offerID+"/lock", "")
	require.Equal(t, http.StatusOK, rr.Code)

	rr, body = s.do(t, http.MethodPatch, "/api/offers/"+offerID, `{"notes":"late change"}`)
	assert.Equal(t, http.StatusConflict, rr.Code)
	assert.Equal(t, string(errors.ErrCodeLocked), errorCode(body))

	rr, body = s.do(t, http.MethodPost, "/api/offers/"+offerID+"/send", "")
	assert.Equal(t, http.StatusConflict, rr.Code)
	assert.Equal(t, string(errors.ErrCodeLocked), errorCode(body))

	// the locked offer is closed, so a fresh draft can replace it
	rr, next := s.do(t, http.MethodPost, "/api/candidates/"+id+"/offers", `{"notes":"revised"}`)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	assert.NotEqual(t, offerID, next["id"])

	rr, body = s.do(t, http.MethodGet, "/api/offers/missing", "")
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Equal(t, string(errors.ErrCodeNotFound), errorCode(body))
}

func TestOptionalBodies_ChunkedEmpty(t *testing.T) {
	s := newTestServer(t, nil)

	for _, suffix := range []string{"/offers", "/reject"} {
		t.Run(suffix, func(t *testing.T) {
			id := s.createCandidate(t)
			req := httptest.NewRequest(http.MethodPost, "/api/candidates/"+id+suffix, strings.NewReader(""))
			req.ContentLength = -1
			req.TransferEncoding = []string{"chunked"}
			rr := httptest.NewRecorder()
			s.handler.ServeHTTP(rr, req)

			assert.Contains(t, []int{http.StatusOK, http.StatusCreated}, rr.Code, rr.Body.String())
		})
	}

	id := s.createCandidate(t)
	rr, body := s.do(t, http.MethodPost, "/api/candidates/"+id+"/reject", `{"reason":`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, string(errors.ErrCodeValidationFailed), errorCode(body))
}

func TestCreateCandidate_Invalid(t *testing.T) {
	s := newTestServer(t, nil)

	rr, body := s.do(t, http.MethodPost, "/api/candidates", `{"email":"x@example.com"}`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, string(errors.ErrCodeValidationFailed), errorCode(body))

	rr, _ = s.do(t, http.MethodPost, "/api/candidates", `not json`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestTimeline_BadLimit(t *testing.T) {
	s := newTestServer(t, nil)
	id := s.createCandidate(t)

	rr, _ := s.do(t, http.MethodGet, "/api/candidates/"+id+"/timeline?limit=zero", "")
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestStages(t *testing.T) {
	s := newTestServer(t, nil)

	rr, body := s.do(t, http.MethodGet, "/api/stages", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "applied", body["initial"])
	assert.Equal(t, "rejected", body["rejected"])
	assert.ElementsMatch(t, []interface{}{"offer_accepted", "rejected"}, body["terminal"])
	edges := body["edges"].(map[string]interface{})
	assert.NotContains(t, edges, "rejected")
	assert.Contains(t, edges["applied"], "screening")
}

func TestHealthAndReadiness(t *testing.T) {
	s := newTestServer(t, map[string]Pinger{"redis": pinger{}, "postgres": pinger{}})
	rr, _ := s.do(t, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rr.Code)

	rr, body := s.do(t, http.MethodGet, "/ready", "")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "ready", body["status"])

	down := newTestServer(t, map[string]Pinger{"redis": pinger{err: stderrors.New("connection refused")}})
	rr, body = down.do(t, http.MethodGet, "/ready", "")
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
	checks := body["checks"].(map[string]interface{})
	assert.Equal(t, "connection refused", checks["redis"])
}

func TestMetricsEndpoint(t *testing.T) {
	s := newTestServer(t, nil)
	rr := httptest.NewRecorder()
	s.handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "go_goroutines")
}

func TestStatusFor(t *testing.T) {
	assert.Equal(t, http.StatusGatewayTimeout, statusFor(errors.ErrCodeStoreTimeout))
	assert.Equal(t, http.StatusInternalServerError, statusFor(errors.ErrCodeExternalService))
	assert.Equal(t, http.StatusConflict, statusFor(errors.ErrCodeConcurrentModification))
}
