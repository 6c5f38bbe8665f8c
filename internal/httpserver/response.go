package httpserver

import (
	"encoding/json"
	"net/http"
	"strings"

	domain "authgate/backend/internal/domain/auth"
	"authgate/backend/internal/logging"
)

const (
	msgUnexpected   = "An unexpected error occurred"
	msgAuthFailed   = "Authentication failed"
	msgInvalidBody  = "Invalid JSON payload"
	msgBodyTooLarge = "Request body too large"
	msgValidation   = "Request validation failed"
	msgNotAllowed   = "Method not allowed"
)

type fieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

type errorResponse struct {
	Error   string       `json:"error"`
	Message string       `json:"message"`
	Details []fieldError `json:"details,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: http.StatusText(status), Message: message})
}

func writeValidationError(w http.ResponseWriter, message string, details []fieldError) {
	writeJSON(w, http.StatusBadRequest, errorResponse{
		Error:   http.StatusText(http.StatusBadRequest),
		Message: message,
		Details: details,
	})
}

func writeMethodNotAllowed(w http.ResponseWriter, allowed ...string) {
	w.Header().Set("Allow", strings.Join(allowed, ", "))
	writeError(w, http.StatusMethodNotAllowed, msgNotAllowed)
}

// statusFor is the single mapping from failure kind to HTTP status.
func statusFor(kind domain.Kind) int {
	switch kind {
	case domain.KindInvalidPassword:
		return http.StatusBadRequest
	case domain.KindEmailAlreadyExists:
		return http.StatusConflict
	case domain.KindInvalidCredentials,
		domain.KindTokenMissing,
		domain.KindTokenExpired,
		domain.KindTokenInvalid,
		domain.KindUserNotFound:
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

// writeAuthError renders err for a client. Internal causes are logged and
// replaced by a generic message.
func (s *Server) writeAuthError(w http.ResponseWriter, r *http.Request, err error) {
	authErr := domain.AsError(err)
	status := statusFor(authErr.Kind)

	switch {
	case status == http.StatusInternalServerError:
		logging.LogError(r.Context(), s.logger, "request failed", err)
		writeError(w, status, msgUnexpected)
	case authErr.Kind == domain.KindInvalidPassword:
		details := make([]fieldError, 0, len(authErr.Details))
		for _, problem := range authErr.Details {
			details = append(details, fieldError{Field: "password", Message: problem})
		}
		writeValidationError(w, authErr.Message, details)
	default:
		writeError(w, status, authErr.Message)
	}
}
