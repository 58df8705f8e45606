package httpserver

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/watchhub/watchlist-api/internal/auth"
	"github.com/watchhub/watchlist-api/internal/config"
	"github.com/watchhub/watchlist-api/internal/domain"
	"github.com/watchhub/watchlist-api/internal/repository"
)

type titleRequest struct {
	PlatformID string `json:"platformId"`
	Name       string `json:"name"`
	Synopsis   string `json:"synopsis"`
	Active     *bool  `json:"active"`
}

type titleResponse struct {
	ID            string    `json:"id"`
	PlatformID    string    `json:"platformId"`
	Platform      string    `json:"platform"`
	Name          string    `json:"name"`
	Synopsis      string    `json:"synopsis"`
	Active        bool      `json:"active"`
	AverageRating float64   `json:"avgRating"`
	RatingCount   int64     `json:"ratingCount"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

type titleListResponse struct {
	Items      []titleResponse `json:"items"`
	NextCursor *string         `json:"nextCursor,omitempty"`
}

func (s *Server) handleListTitles(w http.ResponseWriter, r *http.Request) {
	filters, err := buildTitleFilters(r.URL.Query(), s.cfg)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		return
	}

	result, err := s.repo.Titles.List(r.Context(), filters)
	if err != nil {
		s.logger.Printf("list titles error: %v", err)
		s.respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to list titles")
		return
	}

	items := make([]titleResponse, 0, len(result.Items))
	for _, title := range result.Items {
		items = append(items, toTitleResponse(title))
	}
	resp := titleListResponse{Items: items, NextCursor: result.NextCursor}
	s.respondJSON(w, http.StatusOK, resp)
}

func buildTitleFilters(query url.Values, cfg config.Config) (repository.TitleListFilters, error) {
	filters := repository.TitleListFilters{Limit: cfg.PageSizeDefault}

	if val := strings.TrimSpace(query.Get("platformId")); val != "" {
		filters.PlatformID = &val
	}
	if val := strings.TrimSpace(query.Get("active")); val != "" {
		active, err := strconv.ParseBool(val)
		if err != nil {
			return filters, fmt.Errorf("invalid active value")
		}
		filters.Active = &active
	}
	if val := strings.TrimSpace(query.Get("limit")); val != "" {
		limit, err := strconv.Atoi(val)
		if err != nil || limit <= 0 {
			return filters, fmt.Errorf("invalid limit value")
		}
		if limit > cfg.PageSizeMax {
			limit = cfg.PageSizeMax
		}
		filters.Limit = limit
	}
	if val := strings.TrimSpace(query.Get("cursor")); val != "" {
		cursor, err := repository.DecodeCursor(val)
		if err != nil {
			return filters, fmt.Errorf("invalid cursor")
		}
		filters.Cursor = cursor
	}
	return filters, nil
}

func (s *Server) handleCreateTitle(w http.ResponseWriter, r *http.Request) {
	id, ok := s.identity(w, r)
	if !ok {
		return
	}
	if !auth.Allows(id, auth.Resource{}, auth.WriteTitle) {
		s.respondError(w, http.StatusForbidden, "FORBIDDEN", "Administrator role required")
		return
	}

	params, ok := s.decodeTitleRequest(w, r)
	if !ok {
		return
	}

	title, err := s.repo.Titles.Create(r.Context(), params)
	if err != nil {
		if errors.Is(err, repository.ErrPlatformNotFound) {
			s.respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", "platformId does not reference an existing platform")
			return
		}
		s.logger.Printf("create title error: %v", err)
		s.respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to create title")
		return
	}
	s.respondJSON(w, http.StatusCreated, toTitleResponse(title))
}

func (s *Server) handleGetTitle(w http.ResponseWriter, r *http.Request) {
	title, err := s.repo.Titles.GetByID(r.Context(), idParam(r))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			s.respondError(w, http.StatusNotFound, "NOT_FOUND", "Title not found")
			return
		}
		s.logger.Printf("get title error: %v", err)
		s.respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to fetch title")
		return
	}
	s.respondJSON(w, http.StatusOK, toTitleResponse(title))
}

func (s *Server) handleUpdateTitle(w http.ResponseWriter, r *http.Request) {
	id, ok := s.identity(w, r)
	if !ok {
		return
	}
	if !auth.Allows(id, auth.Resource{}, auth.WriteTitle) {
		s.respondError(w, http.StatusForbidden, "FORBIDDEN", "Administrator role required")
		return
	}

	params, ok := s.decodeTitleRequest(w, r)
	if !ok {
		return
	}

	title, err := s.repo.Titles.Update(r.Context(), idParam(r), params)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			s.respondError(w, http.StatusNotFound, "NOT_FOUND", "Title not found")
		case errors.Is(err, repository.ErrPlatformNotFound):
			s.respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", "platformId does not reference an existing platform")
		default:
			s.logger.Printf("update title error: %v", err)
			s.respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to update title")
		}
		return
	}
	s.respondJSON(w, http.StatusOK, toTitleResponse(title))
}

func (s *Server) handleDeleteTitle(w http.ResponseWriter, r *http.Request) {
	id, ok := s.identity(w, r)
	if !ok {
		return
	}
	if !auth.Allows(id, auth.Resource{}, auth.WriteTitle) {
		s.respondError(w, http.StatusForbidden, "FORBIDDEN", "Administrator role required")
		return
	}

	if err := s.repo.Titles.Delete(r.Context(), idParam(r)); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			s.respondError(w, http.StatusNotFound, "NOT_FOUND", "Title not found")
			return
		}
		s.logger.Printf("delete title error: %v", err)
		s.respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to delete title")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) decodeTitleRequest(w http.ResponseWriter, r *http.Request) (repository.TitleParams, bool) {
	var req titleRequest
	if err := decodeJSONBody(w, r, &req); err != nil {
		s.respondDecodeError(w, err)
		return repository.TitleParams{}, false
	}
	if strings.TrimSpace(req.PlatformID) == "" || strings.TrimSpace(req.Name) == "" {
		s.respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", "platformId and name are required")
		return repository.TitleParams{}, false
	}

	active := true
	if req.Active != nil {
		active = *req.Active
	}
	return repository.TitleParams{
		PlatformID: strings.TrimSpace(req.PlatformID),
		Name:       strings.TrimSpace(req.Name),
		Synopsis:   strings.TrimSpace(req.Synopsis),
		Active:     active,
	}, true
}

func toTitleResponse(title domain.Title) titleResponse {
	return titleResponse{
		ID:            title.ID,
		PlatformID:    title.PlatformID,
		Platform:      title.PlatformName,
		Name:          title.Name,
		Synopsis:      title.Synopsis,
		Active:        title.Active,
		AverageRating: title.AverageRating,
		RatingCount:   title.RatingCount,
		CreatedAt:     title.CreatedAt,
		UpdatedAt:     title.UpdatedAt,
	}
}
