package web

// errors.go provides unified error response handling for the web layer.
//
// Every /api response, success or failure, uses the same envelope:
//
//	{"success": true,  "data": ...}
//	{"success": false, "error": {"message": ..., "action": ..., "code": ...}}
//
// The error flow:
//  1. Handler encounters an error
//  2. Calls respondError(w, r, err, statusCode)
//  3. Error is mapped via core.MapError to get a user-friendly message
//  4. The technical error is logged with the request ID for correlation
//  5. The mapped message is written as JSON in the envelope above

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/dataunify/pipeline/internal/core"
	"github.com/go-chi/chi/v5/middleware"
)

// envelope is the response shape for every /api endpoint.
type envelope struct {
	Success bool       `json:"success"`
	Data    any        `json:"data,omitempty"`
	Error   *errorBody `json:"error,omitempty"`
}

type errorBody struct {
	Message string `json:"message"`
	Action  string `json:"action,omitempty"`
	Code    string `json:"code"`
}

// respondJSON writes a successful envelope response.
func respondJSON(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(envelope{Success: true, Data: data})
}

// respondError logs the technical error server-side and writes the
// mapped user-facing message as a JSON envelope.
func (s *Server) respondError(w http.ResponseWriter, r *http.Request, err error, statusCode int) {
	userMsg := core.MapError(err)
	requestID := middleware.GetReqID(r.Context())

	slog.Error("request error",
		"path", r.URL.Path,
		"method", r.Method,
		"status", statusCode,
		"error", err.Error(),
		"code", userMsg.Code,
		"request_id", requestID,
	)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(envelope{
		Success: false,
		Error: &errorBody{
			Message: userMsg.Message,
			Action:  userMsg.Action,
			Code:    userMsg.Code,
		},
	})
}

// errorStatus maps the §7 typed pipeline errors to their HTTP status,
// per §7's guidance that PreconditionFailed/UnknownDomain/
// NoRelationshipsFound and malformed config all surface as 400s rather
// than the generic 500 an unmapped error gets.
func errorStatus(err error) int {
	switch err.(type) {
	case *core.PreconditionFailedError, *core.UnknownDomainError, *core.NoRelationshipsFoundError, *core.ConfigError:
		return http.StatusBadRequest
	case *core.StageError:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}
