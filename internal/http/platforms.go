package httpserver

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/watchhub/watchlist-api/internal/auth"
	"github.com/watchhub/watchlist-api/internal/domain"
	"github.com/watchhub/watchlist-api/internal/repository"
)

type platformRequest struct {
	Name    string `json:"name"`
	About   string `json:"about"`
	Website string `json:"website"`
}

type platformResponse struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	About     string          `json:"about"`
	Website   string          `json:"website"`
	Titles    []titleResponse `json:"titles"`
	CreatedAt time.Time       `json:"createdAt"`
	UpdatedAt time.Time       `json:"updatedAt"`
}

func (s *Server) handleListPlatforms(w http.ResponseWriter, r *http.Request) {
	platforms, err := s.repo.Platforms.ListWithTitles(r.Context())
	if err != nil {
		s.logger.Printf("list platforms error: %v", err)
		s.respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to list platforms")
		return
	}

	items := make([]platformResponse, 0, len(platforms))
	for _, platform := range platforms {
		items = append(items, toPlatformResponse(platform))
	}
	s.respondJSON(w, http.StatusOK, items)
}

func (s *Server) handleCreatePlatform(w http.ResponseWriter, r *http.Request) {
	id, ok := s.identity(w, r)
	if !ok {
		return
	}
	if !auth.Allows(id, auth.Resource{}, auth.WritePlatform) {
		s.respondError(w, http.StatusForbidden, "FORBIDDEN", "Administrator role required")
		return
	}

	req, ok := s.decodePlatformRequest(w, r)
	if !ok {
		return
	}

	platform, err := s.repo.Platforms.Create(r.Context(), repository.PlatformParams{
		Name:    strings.TrimSpace(req.Name),
		About:   strings.TrimSpace(req.About),
		Website: strings.TrimSpace(req.Website),
	})
	if err != nil {
		s.logger.Printf("create platform error: %v", err)
		s.respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to create platform")
		return
	}
	s.respondJSON(w, http.StatusCreated, toPlatformResponse(platform))
}

func (s *Server) handleGetPlatform(w http.ResponseWriter, r *http.Request) {
	platform, err := s.repo.Platforms.GetWithTitles(r.Context(), idParam(r))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			s.respondError(w, http.StatusNotFound, "NOT_FOUND", "Stream platform not found")
			return
		}
		s.logger.Printf("get platform error: %v", err)
		s.respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to fetch platform")
		return
	}
	s.respondJSON(w, http.StatusOK, toPlatformResponse(platform))
}

func (s *Server) handleUpdatePlatform(w http.ResponseWriter, r *http.Request) {
	id, ok := s.identity(w, r)
	if !ok {
		return
	}
	if !auth.Allows(id, auth.Resource{}, auth.WritePlatform) {
		s.respondError(w, http.StatusForbidden, "FORBIDDEN", "Administrator role required")
		return
	}

	req, ok := s.decodePlatformRequest(w, r)
	if !ok {
		return
	}

	platform, err := s.repo.Platforms.Update(r.Context(), idParam(r), repository.PlatformParams{
		Name:    strings.TrimSpace(req.Name),
		About:   strings.TrimSpace(req.About),
		Website: strings.TrimSpace(req.Website),
	})
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			s.respondError(w, http.StatusNotFound, "NOT_FOUND", "Stream platform not found")
			return
		}
		s.logger.Printf("update platform error: %v", err)
		s.respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to update platform")
		return
	}
	s.respondJSON(w, http.StatusOK, toPlatformResponse(platform))
}

func (s *Server) handleDeletePlatform(w http.ResponseWriter, r *http.Request) {
	id, ok := s.identity(w, r)
	if !ok {
		return
	}
	if !auth.Allows(id, auth.Resource{}, auth.WritePlatform) {
		s.respondError(w, http.StatusForbidden, "FORBIDDEN", "Administrator role required")
		return
	}

	if err := s.repo.Platforms.Delete(r.Context(), idParam(r)); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			s.respondError(w, http.StatusNotFound, "NOT_FOUND", "Stream platform not found")
			return
		}
		s.logger.Printf("delete platform error: %v", err)
		s.respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to delete platform")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) decodePlatformRequest(w http.ResponseWriter, r *http.Request) (platformRequest, bool) {
	var req platformRequest
	if err := decodeJSONBody(w, r, &req); err != nil {
		s.respondDecodeError(w, err)
		return platformRequest{}, false
	}
	if strings.TrimSpace(req.Name) == "" {
		s.respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", "name is required")
		return platformRequest{}, false
	}
	return req, true
}

func toPlatformResponse(platform domain.Platform) platformResponse {
	titles := make([]titleResponse, 0, len(platform.Titles))
	for _, title := range platform.Titles {
		titles = append(titles, toTitleResponse(title))
	}
	return platformResponse{
		ID:        platform.ID,
		Name:      platform.Name,
		About:     platform.About,
		Website:   platform.Website,
		Titles:    titles,
		CreatedAt: platform.CreatedAt,
		UpdatedAt: platform.UpdatedAt,
	}
}
