package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/watchhub/watchlist-api/internal/domain"
)

// ReviewsRepository provides persistence helpers for title reviews and owns
// the title rating aggregation.
type ReviewsRepository struct {
	pool *pgxpool.Pool
}

const reviewColumns = `
    id,
    title_id,
    author_id,
    author_username,
    rating,
    body,
    active,
    created_at,
    updated_at
`

// ReviewCreateParams bundles the payload required to create a review.
type ReviewCreateParams struct {
	TitleID        string
	AuthorID       string
	AuthorUsername string
	Rating         int
	Body           string
	Active         bool
}

// ReviewUpdateParams bundles the writable fields of an existing review.
// Editing a review never touches the title aggregate.
type ReviewUpdateParams struct {
	Rating int
	Body   string
	Active bool
}

// ReviewListFilters narrows review listings.
type ReviewListFilters struct {
	AuthorUsername *string
	Active         *bool
}

// Create inserts a review and updates the owning title's aggregate rating in
// one transaction. The title row is locked first so concurrent submissions
// for the same title serialize, and the (title_id, author_id) unique
// constraint guarantees at most one review per author even across crashes.
//
// The running average intentionally reproduces the legacy formula
// avg = (avg + rating) / 2 rather than a true mean.
func (r *ReviewsRepository) Create(ctx context.Context, params ReviewCreateParams) (domain.Review, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return domain.Review{}, fmt.Errorf("begin review tx: %w", err)
	}
	defer tx.Rollback(ctx)

	var (
		ratingCount   int64
		averageRating float64
	)
	err = tx.QueryRow(ctx, `
        SELECT rating_count, average_rating
        FROM titles
        WHERE id = $1
        FOR UPDATE
    `, params.TitleID).Scan(&ratingCount, &averageRating)
	if err != nil {
		if err == pgx.ErrNoRows {
			return domain.Review{}, ErrNotFound
		}
		return domain.Review{}, err
	}

	query := `
        INSERT INTO reviews (title_id, author_id, author_username, rating, body, active)
        VALUES ($1,$2,$3,$4,$5,$6)
        RETURNING` + reviewColumns

	review, err := scanReview(tx.QueryRow(ctx, query,
		params.TitleID, params.AuthorID, params.AuthorUsername, params.Rating, params.Body, params.Active))
	if err != nil {
		if isPgError(err, pgUniqueViolation) {
			return domain.Review{}, ErrDuplicateReview
		}
		return domain.Review{}, err
	}

	if ratingCount == 0 {
		averageRating = float64(params.Rating)
	} else {
		averageRating = (averageRating + float64(params.Rating)) / 2
	}
	ratingCount++

	_, err = tx.Exec(ctx, `
        UPDATE titles
        SET average_rating = $2, rating_count = $3, updated_at = now()
        WHERE id = $1
    `, params.TitleID, averageRating, ratingCount)
	if err != nil {
		return domain.Review{}, fmt.Errorf("update title aggregate: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return domain.Review{}, fmt.Errorf("commit review tx: %w", err)
	}
	return review, nil
}

// GetByID fetches a review by its identifier.
func (r *ReviewsRepository) GetByID(ctx context.Context, id string) (domain.Review, error) {
	query := `SELECT` + reviewColumns + `FROM reviews WHERE id = $1`
	review, err := scanReview(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if err == pgx.ErrNoRows {
			return domain.Review{}, ErrNotFound
		}
		return domain.Review{}, err
	}
	return review, nil
}

// ListByTitle returns the reviews of one title, optionally filtered by
// author username and active flag.
func (r *ReviewsRepository) ListByTitle(ctx context.Context, titleID string, filters ReviewListFilters) ([]domain.Review, error) {
	where := []string{"title_id = $1"}
	args := []interface{}{titleID}

	if filters.AuthorUsername != nil && strings.TrimSpace(*filters.AuthorUsername) != "" {
		args = append(args, strings.TrimSpace(*filters.AuthorUsername))
		where = append(where, fmt.Sprintf("author_username = $%d", len(args)))
	}
	if filters.Active != nil {
		args = append(args, *filters.Active)
		where = append(where, fmt.Sprintf("active = $%d", len(args)))
	}

	query := `SELECT` + reviewColumns + `FROM reviews WHERE ` +
		strings.Join(where, " AND ") + ` ORDER BY created_at DESC, id DESC`

	return r.queryReviews(ctx, query, args...)
}

// ListByAuthor returns all reviews written by the given username. An empty
// username matches nothing.
func (r *ReviewsRepository) ListByAuthor(ctx context.Context, username string) ([]domain.Review, error) {
	if strings.TrimSpace(username) == "" {
		return []domain.Review{}, nil
	}
	query := `SELECT` + reviewColumns + `FROM reviews WHERE author_username = $1 ORDER BY created_at DESC, id DESC`
	return r.queryReviews(ctx, query, strings.TrimSpace(username))
}

// Update replaces the writable fields of a review. The title aggregate is
// left as-is.
func (r *ReviewsRepository) Update(ctx context.Context, id string, params ReviewUpdateParams) (domain.Review, error) {
	query := `
        UPDATE reviews
        SET rating = $2, body = $3, active = $4, updated_at = now()
        WHERE id = $1
        RETURNING` + reviewColumns

	review, err := scanReview(r.pool.QueryRow(ctx, query, id, params.Rating, params.Body, params.Active))
	if err != nil {
		if err == pgx.ErrNoRows {
			return domain.Review{}, ErrNotFound
		}
		return domain.Review{}, err
	}
	return review, nil
}

// Delete removes a review. The title aggregate is not decremented; that
// matches the legacy behavior.
func (r *ReviewsRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM reviews WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *ReviewsRepository) queryReviews(ctx context.Context, query string, args ...interface{}) ([]domain.Review, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	reviews := make([]domain.Review, 0)
	for rows.Next() {
		review, err := scanReview(rows)
		if err != nil {
			return nil, err
		}
		reviews = append(reviews, review)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return reviews, nil
}

func scanReview(row pgx.Row) (domain.Review, error) {
	var review domain.Review
	err := row.Scan(
		&review.ID,
		&review.TitleID,
		&review.AuthorID,
		&review.AuthorUsername,
		&review.Rating,
		&review.Body,
		&review.Active,
		&review.CreatedAt,
		&review.UpdatedAt,
	)
	if err != nil {
		return domain.Review{}, err
	}
	return review, nil
}
