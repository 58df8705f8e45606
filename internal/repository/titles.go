package repository

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/watchhub/watchlist-api/internal/domain"
)

// TitlesRepository provides persistence helpers for watchable titles.
type TitlesRepository struct {
	pool *pgxpool.Pool
}

// titleColumns always reads through the platforms join so the owning
// platform's name is inlined on every title.
const titleColumns = `
    t.id,
    t.platform_id,
    p.name AS platform_name,
    t.name,
    t.synopsis,
    t.active,
    t.average_rating,
    t.rating_count,
    t.created_at,
    t.updated_at
`

const titleFrom = ` FROM titles t JOIN platforms p ON p.id = t.platform_id `

// TitleParams bundles the writable fields of a title.
type TitleParams struct {
	PlatformID string
	Name       string
	Synopsis   string
	Active     bool
}

// TitleListFilters encapsulates filter and pagination options.
type TitleListFilters struct {
	PlatformID *string
	Active     *bool
	Limit      int
	Cursor     *Cursor
}

// Cursor allows stable pagination by created_at/id.
type Cursor struct {
	CreatedAt time.Time `json:"createdAt"`
	ID        string    `json:"id"`
}

// TitleListResult returns the paginated payload.
type TitleListResult struct {
	Items      []domain.Title
	NextCursor *string
}

// Create inserts a new title row and returns the stored entity with the
// platform name joined in.
func (r *TitlesRepository) Create(ctx context.Context, params TitleParams) (domain.Title, error) {
	var id string
	err := r.pool.QueryRow(ctx, `
        INSERT INTO titles (platform_id, name, synopsis, active)
        VALUES ($1,$2,$3,$4)
        RETURNING id
    `, params.PlatformID, params.Name, params.Synopsis, params.Active).Scan(&id)
	if err != nil {
		if isPgError(err, pgForeignKeyViolation) {
			return domain.Title{}, ErrPlatformNotFound
		}
		return domain.Title{}, err
	}
	return r.GetByID(ctx, id)
}

// GetByID fetches a title by its identifier.
func (r *TitlesRepository) GetByID(ctx context.Context, id string) (domain.Title, error) {
	query := `SELECT` + titleColumns + titleFrom + `WHERE t.id = $1`
	title, err := scanTitle(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if err == pgx.ErrNoRows {
			return domain.Title{}, ErrNotFound
		}
		return domain.Title{}, err
	}
	return title, nil
}

// Update replaces the writable fields of a title. Derived rating columns are
// never touched here.
func (r *TitlesRepository) Update(ctx context.Context, id string, params TitleParams) (domain.Title, error) {
	tag, err := r.pool.Exec(ctx, `
        UPDATE titles
        SET platform_id = $2, name = $3, synopsis = $4, active = $5, updated_at = now()
        WHERE id = $1
    `, id, params.PlatformID, params.Name, params.Synopsis, params.Active)
	if err != nil {
		if isPgError(err, pgForeignKeyViolation) {
			return domain.Title{}, ErrPlatformNotFound
		}
		return domain.Title{}, err
	}
	if tag.RowsAffected() == 0 {
		return domain.Title{}, ErrNotFound
	}
	return r.GetByID(ctx, id)
}

// Delete removes a title; its reviews cascade in the schema.
func (r *TitlesRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM titles WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// List returns titles that match the provided filters.
func (r *TitlesRepository) List(ctx context.Context, filters TitleListFilters) (TitleListResult, error) {
	if filters.Limit <= 0 {
		filters.Limit = 20
	} else if filters.Limit > 100 {
		filters.Limit = 100
	}

	where := make([]string, 0)
	args := make([]interface{}, 0)
	arg := func(value interface{}) string {
		args = append(args, value)
		return fmt.Sprintf("$%d", len(args))
	}

	if filters.PlatformID != nil && strings.TrimSpace(*filters.PlatformID) != "" {
		where = append(where, fmt.Sprintf("t.platform_id = %s", arg(strings.TrimSpace(*filters.PlatformID))))
	}
	if filters.Active != nil {
		where = append(where, fmt.Sprintf("t.active = %s", arg(*filters.Active)))
	}
	if filters.Cursor != nil {
		cursorCreated := arg(filters.Cursor.CreatedAt)
		cursorID := arg(filters.Cursor.ID)
		where = append(where, fmt.Sprintf("(t.created_at, t.id) < (%s, %s)", cursorCreated, cursorID))
	}

	queryBuilder := strings.Builder{}
	queryBuilder.WriteString("SELECT ")
	queryBuilder.WriteString(titleColumns)
	queryBuilder.WriteString(titleFrom)

	if len(where) > 0 {
		queryBuilder.WriteString(" WHERE ")
		queryBuilder.WriteString(strings.Join(where, " AND "))
	}

	queryBuilder.WriteString(" ORDER BY t.created_at DESC, t.id DESC")
	queryBuilder.WriteString(fmt.Sprintf(" LIMIT %d", filters.Limit))

	rows, err := r.pool.Query(ctx, queryBuilder.String(), args...)
	if err != nil {
		return TitleListResult{}, err
	}
	defer rows.Close()

	items := make([]domain.Title, 0)
	for rows.Next() {
		title, err := scanTitle(rows)
		if err != nil {
			return TitleListResult{}, err
		}
		items = append(items, title)
	}
	if err := rows.Err(); err != nil {
		return TitleListResult{}, err
	}

	var nextCursor *string
	if len(items) == filters.Limit {
		last := items[len(items)-1]
		token, err := encodeCursor(Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
		if err != nil {
			return TitleListResult{}, err
		}
		nextCursor = &token
	}

	return TitleListResult{Items: items, NextCursor: nextCursor}, nil
}

func scanTitle(row pgx.Row) (domain.Title, error) {
	var title domain.Title
	err := row.Scan(
		&title.ID,
		&title.PlatformID,
		&title.PlatformName,
		&title.Name,
		&title.Synopsis,
		&title.Active,
		&title.AverageRating,
		&title.RatingCount,
		&title.CreatedAt,
		&title.UpdatedAt,
	)
	if err != nil {
		return domain.Title{}, err
	}
	return title, nil
}

func encodeCursor(c Cursor) (string, error) {
	payload, err := json.Marshal(c)
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(payload), nil
}

// DecodeCursor parses a cursor token into a Cursor.
func DecodeCursor(token string) (*Cursor, error) {
	if token == "" {
		return nil, nil
	}
	data, err := base64.StdEncoding.DecodeString(token)
	if err != nil {
		return nil, fmt.Errorf("invalid cursor: %w", err)
	}
	var cursor Cursor
	if err := json.Unmarshal(data, &cursor); err != nil {
		return nil, fmt.Errorf("invalid cursor payload: %w", err)
	}
	return &cursor, nil
}

func isPgError(err error, code string) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == code
}
