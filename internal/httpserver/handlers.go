package httpserver

import (
	"errors"
	"net/http"

	domain "authgate/backend/internal/domain/auth"
	"authgate/backend/internal/metrics"
	authusecase "authgate/backend/internal/usecase/auth"
)

func (s *Server) registerRoutes() {
	s.router.Handle("/health", http.HandlerFunc(s.handleHealth))
	s.router.Handle("/auth/register", http.HandlerFunc(s.handleRegister))
	s.router.Handle("/auth/login", http.HandlerFunc(s.handleLogin))
	s.router.Handle("/auth/me", s.gate.Required(http.HandlerFunc(s.handleMe)))
	s.router.Handle("/auth/session", s.gate.Optional(http.HandlerFunc(s.handleSession)))
	if s.serveMetrics && s.metrics != nil {
		s.router.Handle("/metrics", s.metrics.Handler())
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// readRequest decodes and validates the body, writing the failure response
// itself. It reports whether the handler should continue.
func (s *Server) readRequest(w http.ResponseWriter, r *http.Request, v *requestValidator, dst any) bool {
	details, err := decodeBody(w, r, v, dst)
	switch {
	case errors.Is(err, errBodyTooLarge):
		writeError(w, http.StatusRequestEntityTooLarge, msgBodyTooLarge)
		return false
	case err != nil:
		writeError(w, http.StatusBadRequest, msgInvalidBody)
		return false
	case len(details) > 0:
		writeValidationError(w, msgValidation, details)
		return false
	}
	return true
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeMethodNotAllowed(w, http.MethodPost)
		return
	}

	var payload registerRequest
	if !s.readRequest(w, r, s.registerSchema, &payload) {
		s.metrics.Registration(metrics.RegistrationInvalidRequest)
		return
	}

	principal, err := s.accounts.Register(r.Context(), authusecase.RegisterInput{
		Name:     payload.Name,
		Email:    payload.Email,
		Password: payload.Password,
	})
	if err != nil {
		s.metrics.Registration(registrationResult(err))
		s.writeAuthError(w, r, err)
		return
	}

	s.metrics.Registration(metrics.RegistrationCreated)
	writeJSON(w, http.StatusCreated, map[string]any{"user": principal})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeMethodNotAllowed(w, http.MethodPost)
		return
	}

	var payload loginRequest
	if !s.readRequest(w, r, s.loginSchema, &payload) {
		s.metrics.LoginAttempt(metrics.LoginInvalidRequest)
		return
	}

	result, err := s.accounts.Login(r.Context(), domain.Credentials{
		Email:    payload.Email,
		Password: payload.Password,
	})
	if err != nil {
		if domain.KindOf(err) == domain.KindInvalidCredentials {
			s.metrics.LoginAttempt(metrics.LoginInvalidCredentials)
		} else {
			s.metrics.LoginAttempt(metrics.LoginError)
		}
		s.writeAuthError(w, r, err)
		return
	}

	s.metrics.LoginAttempt(metrics.LoginSuccess)
	writeJSON(w, http.StatusOK, map[string]any{
		"token": result.Token,
		"user":  result.Principal,
	})
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeMethodNotAllowed(w, http.MethodGet)
		return
	}
	principal, ok := PrincipalFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, domain.ErrTokenMissing.Message)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"user": principal})
}

func (s *Server) handleSession(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeMethodNotAllowed(w, http.MethodGet)
		return
	}
	body := map[string]any{"authenticated": false}
	if principal, ok := PrincipalFromContext(r.Context()); ok {
		body["authenticated"] = true
		body["user"] = principal
	}
	writeJSON(w, http.StatusOK, body)
}

func registrationResult(err error) string {
	switch domain.KindOf(err) {
	case domain.KindInvalidPassword:
		return metrics.RegistrationInvalidPassword
	case domain.KindEmailAlreadyExists:
		return metrics.RegistrationDuplicateEmail
	default:
		return metrics.RegistrationError
	}
}
