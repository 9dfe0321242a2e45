package api

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"net/http"

	"recruiting-pipeline/internal/common/errors"
)

const maxBodyBytes = 1 << 20

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

// statusFor maps an error code onto an HTTP status.
func statusFor(code errors.ErrorCode) int {
	switch code {
	case errors.ErrCodeNotFound:
		return http.StatusNotFound
	case errors.ErrCodeInvalidStage, errors.ErrCodeValidationFailed:
		return http.StatusBadRequest
	case errors.ErrCodeTerminalStateViolation,
		errors.ErrCodeIllegalTransition,
		errors.ErrCodeConcurrentModification,
		errors.ErrCodeDuplicateDraft,
		errors.ErrCodeInvalidOfferState,
		errors.ErrCodeLocked:
		return http.StatusConflict
	case errors.ErrCodeStoreTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	stdErr := errors.AsStandard(err)
	status := statusFor(stdErr.Code)

	fields := map[string]interface{}{
		"path":  r.URL.Path,
		"code":  string(stdErr.Code),
		"error": err.Error(),
	}
	if status >= http.StatusInternalServerError {
		s.log.Error("Request failed", fields)
	} else {
		s.log.Debug("Request refused", fields)
	}

	body := errorBody{Code: string(stdErr.Code), Message: stdErr.Message, Details: stdErr.Details}
	if status == http.StatusInternalServerError && stdErr.Code == errors.ErrCodeInternal {
		body.Details = ""
	}
	writeJSON(w, status, map[string]interface{}{"error": body})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// decode reads a single JSON object and rejects unknown fields.
func decode(w http.ResponseWriter, r *http.Request, v interface{}) error {
	return decodeBody(w, r, v, true)
}

// decodeOptional is decode for routes where an empty body, chunked or not, leaves v as is.
func decodeOptional(w http.ResponseWriter, r *http.Request, v interface{}) error {
	return decodeBody(w, r, v, false)
}

func decodeBody(w http.ResponseWriter, r *http.Request, v interface{}, required bool) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		if stderrors.Is(err, io.EOF) {
			if !required {
				return nil
			}
			return errors.NewValidationError("request body is required")
		}
		return errors.NewValidationError(fmt.Sprintf("invalid request body: %v", err))
	}
	if dec.More() {
		return errors.NewValidationError("request body must contain a single JSON object")
	}
	return nil
}
