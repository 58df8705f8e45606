package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/watchhub/watchlist-api/internal/domain"
)

// PlatformsRepository provides persistence helpers for stream platforms.
type PlatformsRepository struct {
	pool *pgxpool.Pool
}

const platformColumns = `
    id,
    name,
    about,
    website,
    created_at,
    updated_at
`

// PlatformParams bundles the writable fields of a platform.
type PlatformParams struct {
	Name    string
	About   string
	Website string
}

// Create inserts a new platform row and returns the stored entity.
func (r *PlatformsRepository) Create(ctx context.Context, params PlatformParams) (domain.Platform, error) {
	query := `
        INSERT INTO platforms (name, about, website)
        VALUES ($1,$2,$3)
        RETURNING` + platformColumns

	row := r.pool.QueryRow(ctx, query, params.Name, params.About, params.Website)
	return scanPlatform(row)
}

// GetByID fetches a platform by its identifier, without its titles.
func (r *PlatformsRepository) GetByID(ctx context.Context, id string) (domain.Platform, error) {
	query := `SELECT` + platformColumns + `FROM platforms WHERE id = $1`
	platform, err := scanPlatform(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if err == pgx.ErrNoRows {
			return domain.Platform{}, ErrNotFound
		}
		return domain.Platform{}, err
	}
	return platform, nil
}

// GetWithTitles fetches a platform and its owned titles in two explicit
// queries.
func (r *PlatformsRepository) GetWithTitles(ctx context.Context, id string) (domain.Platform, error) {
	platform, err := r.GetByID(ctx, id)
	if err != nil {
		return domain.Platform{}, err
	}
	titles, err := r.titlesForPlatforms(ctx, []string{platform.ID})
	if err != nil {
		return domain.Platform{}, err
	}
	platform.Titles = titles[platform.ID]
	if platform.Titles == nil {
		platform.Titles = []domain.Title{}
	}
	return platform, nil
}

// List returns all platforms ordered by creation time, without titles.
func (r *PlatformsRepository) List(ctx context.Context) ([]domain.Platform, error) {
	query := `SELECT` + platformColumns + `FROM platforms ORDER BY created_at DESC, id DESC`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	platforms := make([]domain.Platform, 0)
	for rows.Next() {
		platform, err := scanPlatform(rows)
		if err != nil {
			return nil, err
		}
		platforms = append(platforms, platform)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return platforms, nil
}

// ListWithTitles returns all platforms with their titles nested. The join is
// done at read time with one extra query over the titles table.
func (r *PlatformsRepository) ListWithTitles(ctx context.Context) ([]domain.Platform, error) {
	platforms, err := r.List(ctx)
	if err != nil {
		return nil, err
	}
	if len(platforms) == 0 {
		return platforms, nil
	}

	ids := make([]string, 0, len(platforms))
	for _, p := range platforms {
		ids = append(ids, p.ID)
	}
	grouped, err := r.titlesForPlatforms(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range platforms {
		platforms[i].Titles = grouped[platforms[i].ID]
		if platforms[i].Titles == nil {
			platforms[i].Titles = []domain.Title{}
		}
	}
	return platforms, nil
}

// Update replaces the writable fields of a platform.
func (r *PlatformsRepository) Update(ctx context.Context, id string, params PlatformParams) (domain.Platform, error) {
	query := `
        UPDATE platforms
        SET name = $2, about = $3, website = $4, updated_at = now()
        WHERE id = $1
        RETURNING` + platformColumns

	platform, err := scanPlatform(r.pool.QueryRow(ctx, query, id, params.Name, params.About, params.Website))
	if err != nil {
		if err == pgx.ErrNoRows {
			return domain.Platform{}, ErrNotFound
		}
		return domain.Platform{}, err
	}
	return platform, nil
}

// Delete removes a platform; titles and their reviews cascade in the schema.
func (r *PlatformsRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM platforms WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PlatformsRepository) titlesForPlatforms(ctx context.Context, ids []string) (map[string][]domain.Title, error) {
	query := `SELECT` + titleColumns + `
        FROM titles t
        JOIN platforms p ON p.id = t.platform_id
        WHERE t.platform_id = ANY($1)
        ORDER BY t.created_at DESC, t.id DESC`

	rows, err := r.pool.Query(ctx, query, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	grouped := make(map[string][]domain.Title)
	for rows.Next() {
		title, err := scanTitle(rows)
		if err != nil {
			return nil, err
		}
		grouped[title.PlatformID] = append(grouped[title.PlatformID], title)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return grouped, nil
}

func scanPlatform(row pgx.Row) (domain.Platform, error) {
	var platform domain.Platform
	err := row.Scan(
		&platform.ID,
		&platform.Name,
		&platform.About,
		&platform.Website,
		&platform.CreatedAt,
		&platform.UpdatedAt,
	)
	if err != nil {
		return domain.Platform{}, err
	}
	return platform, nil
}
