package httpserver

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/watchhub/watchlist-api/internal/domain"
	"github.com/watchhub/watchlist-api/internal/ratelimit"
)

const maxRequestBody = 1 << 20 // 1 MiB

type errorResponse struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload != nil {
		if err := json.NewEncoder(w).Encode(payload); err != nil {
			s.logger.Printf("failed to encode response: %v", err)
		}
	}
}

func (s *Server) respondError(w http.ResponseWriter, status int, code, message string) {
	s.respondJSON(w, status, errorResponse{
		Code:    code,
		Message: message,
	})
}

func (s *Server) respondDecodeError(w http.ResponseWriter, err error) {
	var syntaxError *json.SyntaxError
	var typeError *json.UnmarshalTypeError
	switch {
	case errors.As(err, &syntaxError):
		s.respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", "Malformed JSON payload")
	case errors.As(err, &typeError):
		s.respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", fmt.Sprintf("Invalid value for field %s", typeError.Field))
	case errors.Is(err, io.EOF):
		s.respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", "Request body cannot be empty")
	default:
		s.respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", "Unable to parse request body")
	}
}

func decodeJSONBody(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBody)
	defer r.Body.Close()
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}

// identity resolves the caller. A missing Authorization header yields a nil
// identity; a present but invalid token writes 401 and returns ok=false.
func (s *Server) identity(w http.ResponseWriter, r *http.Request) (*domain.Identity, bool) {
	id, err := s.verifier.FromRequest(r)
	if err != nil {
		s.respondError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Missing or invalid authentication information")
		return nil, false
	}
	return id, true
}

// throttle enforces the quota for one endpoint class. It writes 429 and
// returns false when the caller is over budget.
func (s *Server) throttle(w http.ResponseWriter, scope ratelimit.Scope, caller string) bool {
	if !s.limiter.Allow(scope, caller) {
		s.respondError(w, http.StatusTooManyRequests, "RATE_LIMITED", "Request was throttled, try again later")
		return false
	}
	return true
}

// callerKey scopes throttling to the authenticated user, or to the remote
// origin for anonymous callers.
func callerKey(id *domain.Identity, r *http.Request) string {
	if id != nil {
		return "user:" + id.UserID
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	return "ip:" + host
}

func idParam(r *http.Request) string {
	return chi.URLParam(r, "id")
}
