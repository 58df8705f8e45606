package httpserver

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/watchhub/watchlist-api/internal/auth"
	"github.com/watchhub/watchlist-api/internal/domain"
	"github.com/watchhub/watchlist-api/internal/ratelimit"
	"github.com/watchhub/watchlist-api/internal/repository"
)

type reviewRequest struct {
	Rating *int   `json:"rating"`
	Body   string `json:"body"`
	Active *bool  `json:"active"`
}

type reviewResponse struct {
	ID        string    `json:"id"`
	TitleID   string    `json:"titleId"`
	Author    string    `json:"author"`
	Rating    int       `json:"rating"`
	Body      string    `json:"body"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type reviewListResponse struct {
	Items []reviewResponse `json:"items"`
}

// handleCreateReview submits a review for a title and folds the rating into
// the title's running aggregate. Requires an authenticated identity and is
// throttled per user.
func (s *Server) handleCreateReview(w http.ResponseWriter, r *http.Request) {
	id, ok := s.identity(w, r)
	if !ok {
		return
	}
	if !auth.Allows(id, auth.Resource{}, auth.CreateReview) {
		s.respondError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required to create a review")
		return
	}
	if !s.throttle(w, ratelimit.ScopeReviewCreate, callerKey(id, r)) {
		return
	}

	req, ok := s.decodeReviewRequest(w, r)
	if !ok {
		return
	}

	active := true
	if req.Active != nil {
		active = *req.Active
	}
	review, err := s.repo.Reviews.Create(r.Context(), repository.ReviewCreateParams{
		TitleID:        idParam(r),
		AuthorID:       id.UserID,
		AuthorUsername: id.Username,
		Rating:         *req.Rating,
		Body:           req.Body,
		Active:         active,
	})
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			s.respondError(w, http.StatusNotFound, "NOT_FOUND", "Title not found")
		case errors.Is(err, repository.ErrDuplicateReview):
			s.respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", "You have already reviewed this title")
		default:
			s.logger.Printf("create review error: %v", err)
			s.respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to create review")
		}
		return
	}
	s.respondJSON(w, http.StatusCreated, toReviewResponse(review))
}

func (s *Server) handleListTitleReviews(w http.ResponseWriter, r *http.Request) {
	id, ok := s.identity(w, r)
	if !ok {
		return
	}
	caller := callerKey(id, r)
	if !s.throttle(w, ratelimit.ScopeReviewList, caller) {
		return
	}
	if id == nil && !s.throttle(w, ratelimit.ScopeAnon, caller) {
		return
	}

	var filters repository.ReviewListFilters
	if val := strings.TrimSpace(r.URL.Query().Get("username")); val != "" {
		filters.AuthorUsername = &val
	}
	if val := strings.TrimSpace(r.URL.Query().Get("active")); val != "" {
		active := strings.EqualFold(val, "true")
		filters.Active = &active
	}

	reviews, err := s.repo.Reviews.ListByTitle(r.Context(), idParam(r), filters)
	if err != nil {
		s.logger.Printf("list title reviews error: %v", err)
		s.respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to list reviews")
		return
	}
	s.respondJSON(w, http.StatusOK, toReviewListResponse(reviews))
}

func (s *Server) handleListUserReviews(w http.ResponseWriter, r *http.Request) {
	reviews, err := s.repo.Reviews.ListByAuthor(r.Context(), r.URL.Query().Get("username"))
	if err != nil {
		s.logger.Printf("list user reviews error: %v", err)
		s.respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to list reviews")
		return
	}
	s.respondJSON(w, http.StatusOK, toReviewListResponse(reviews))
}

func (s *Server) handleGetReview(w http.ResponseWriter, r *http.Request) {
	id, ok := s.identity(w, r)
	if !ok {
		return
	}
	if !s.throttle(w, ratelimit.ScopeReviewDetail, callerKey(id, r)) {
		return
	}

	review, err := s.repo.Reviews.GetByID(r.Context(), idParam(r))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			s.respondError(w, http.StatusNotFound, "NOT_FOUND", "Review not found")
			return
		}
		s.logger.Printf("get review error: %v", err)
		s.respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to fetch review")
		return
	}
	s.respondJSON(w, http.StatusOK, toReviewResponse(review))
}

func (s *Server) handleUpdateReview(w http.ResponseWriter, r *http.Request) {
	id, ok := s.identity(w, r)
	if !ok {
		return
	}
	if !s.throttle(w, ratelimit.ScopeReviewDetail, callerKey(id, r)) {
		return
	}

	review, ok := s.reviewForWrite(w, r, id)
	if !ok {
		return
	}

	req, ok := s.decodeReviewRequest(w, r)
	if !ok {
		return
	}

	active := review.Active
	if req.Active != nil {
		active = *req.Active
	}
	updated, err := s.repo.Reviews.Update(r.Context(), review.ID, repository.ReviewUpdateParams{
		Rating: *req.Rating,
		Body:   req.Body,
		Active: active,
	})
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			s.respondError(w, http.StatusNotFound, "NOT_FOUND", "Review not found")
			return
		}
		s.logger.Printf("update review error: %v", err)
		s.respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to update review")
		return
	}
	s.respondJSON(w, http.StatusOK, toReviewResponse(updated))
}

func (s *Server) handleDeleteReview(w http.ResponseWriter, r *http.Request) {
	id, ok := s.identity(w, r)
	if !ok {
		return
	}
	if !s.throttle(w, ratelimit.ScopeReviewDetail, callerKey(id, r)) {
		return
	}

	review, ok := s.reviewForWrite(w, r, id)
	if !ok {
		return
	}

	if err := s.repo.Reviews.Delete(r.Context(), review.ID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			s.respondError(w, http.StatusNotFound, "NOT_FOUND", "Review not found")
			return
		}
		s.logger.Printf("delete review error: %v", err)
		s.respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to delete review")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// reviewForWrite fetches the review and enforces the owner-only write rule.
func (s *Server) reviewForWrite(w http.ResponseWriter, r *http.Request, id *domain.Identity) (domain.Review, bool) {
	review, err := s.repo.Reviews.GetByID(r.Context(), idParam(r))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			s.respondError(w, http.StatusNotFound, "NOT_FOUND", "Review not found")
			return domain.Review{}, false
		}
		s.logger.Printf("fetch review error: %v", err)
		s.respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to fetch review")
		return domain.Review{}, false
	}

	if !auth.Allows(id, auth.Resource{OwnerID: review.AuthorID}, auth.WriteReview) {
		if id == nil {
			s.respondError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required to modify a review")
		} else {
			s.respondError(w, http.StatusForbidden, "FORBIDDEN", "Only the review author may modify it")
		}
		return domain.Review{}, false
	}
	return review, true
}

func (s *Server) decodeReviewRequest(w http.ResponseWriter, r *http.Request) (reviewRequest, bool) {
	var req reviewRequest
	if err := decodeJSONBody(w, r, &req); err != nil {
		s.respondDecodeError(w, err)
		return reviewRequest{}, false
	}
	if req.Rating == nil || *req.Rating < 1 || *req.Rating > 5 {
		s.respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", "rating must be an integer between 1 and 5")
		return reviewRequest{}, false
	}
	return req, true
}

func toReviewResponse(review domain.Review) reviewResponse {
	return reviewResponse{
		ID:        review.ID,
		TitleID:   review.TitleID,
		Author:    review.AuthorUsername,
		Rating:    review.Rating,
		Body:      review.Body,
		Active:    review.Active,
		CreatedAt: review.CreatedAt,
		UpdatedAt: review.UpdatedAt,
	}
}

func toReviewListResponse(reviews []domain.Review) reviewListResponse {
	items := make([]reviewResponse, 0, len(reviews))
	for _, review := range reviews {
		items = append(items, toReviewResponse(review))
	}
	return reviewListResponse{Items: items}
}
