package repository

import (
	"errors"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/watchhub/watchlist-api/internal/store"
)

// ErrNotFound indicates the requested entity does not exist.
var ErrNotFound = errors.New("repository: not found")

// ErrDuplicateReview indicates the author already reviewed the title.
var ErrDuplicateReview = errors.New("repository: duplicate review for title and author")

// ErrPlatformNotFound indicates a title referenced a missing platform.
var ErrPlatformNotFound = errors.New("repository: platform not found")

// Postgres error codes surfaced by the catalog schema.
const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

// Repository aggregates all domain-specific repositories.
type Repository struct {
	Platforms *PlatformsRepository
	Titles    *TitlesRepository
	Reviews   *ReviewsRepository
}

// New constructs a Repository backed by the provided store.
func New(st *store.Store) *Repository {
	return NewWithPool(st.Pool())
}

// NewWithPool allows constructing repositories directly from a pgx pool.
func NewWithPool(pool *pgxpool.Pool) *Repository {
	return &Repository{
		Platforms: &PlatformsRepository{pool: pool},
		Titles:    &TitlesRepository{pool: pool},
		Reviews:   &ReviewsRepository{pool: pool},
	}
}
