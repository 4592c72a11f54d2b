package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Clark-Hu/cinerank/internal/domain"
)

// TitlesRepository provides persistence helpers for the local title catalog.
type TitlesRepository struct {
	pool *pgxpool.Pool
}

const titleColumns = `id::text, kind, external_id, name, description, genre, image_url, backdrop_url, created_at`

// Create inserts a new title row and returns the stored entity.
func (r *TitlesRepository) Create(ctx context.Context, params domain.NewTitle) (domain.Title, error) {
	query := fmt.Sprintf(`
        INSERT INTO titles (kind, external_id, name, description, genre, image_url, backdrop_url)
        VALUES ($1,$2,$3,$4,$5,$6,$7)
        RETURNING %s
    `, titleColumns)

	row := r.pool.QueryRow(ctx, query, string(params.Kind), params.ExternalID, params.Name,
		params.Description, params.Genre, params.ImageURL, params.BackdropURL)
	title, err := scanTitle(row)
	if err != nil {
		return domain.Title{}, translateError(err)
	}
	return title, nil
}

// EnsureExternal materializes an upstream title, refreshing its metadata when
// it already exists. The returned flag is true when a new row was inserted.
func (r *TitlesRepository) EnsureExternal(ctx context.Context, params domain.NewTitle) (domain.Title, bool, error) {
	if params.ExternalID == nil || params.Kind == domain.KindLocal {
		return domain.Title{}, false, fmt.Errorf("%w: external title requires kind and external id", domain.ErrInvalidInput)
	}
	query := fmt.Sprintf(`
        INSERT INTO titles (kind, external_id, name, description, genre, image_url, backdrop_url)
        VALUES ($1,$2,$3,$4,$5,$6,$7)
        ON CONFLICT (kind, external_id)
        DO UPDATE SET name = EXCLUDED.name,
                      description = EXCLUDED.description,
                      genre = EXCLUDED.genre,
                      image_url = COALESCE(EXCLUDED.image_url, titles.image_url),
                      backdrop_url = COALESCE(EXCLUDED.backdrop_url, titles.backdrop_url)
        RETURNING %s, (xmax = 0) AS inserted
    `, titleColumns)

	var inserted bool
	row := r.pool.QueryRow(ctx, query, string(params.Kind), params.ExternalID, params.Name,
		params.Description, params.Genre, params.ImageURL, params.BackdropURL)
	title, err := scanTitle(row, &inserted)
	if err != nil {
		return domain.Title{}, false, translateError(err)
	}
	return title, inserted, nil
}

// Get fetches a title by its internal identifier.
func (r *TitlesRepository) Get(ctx context.Context, id string) (domain.Title, error) {
	if !validID(id) {
		return domain.Title{}, ErrNotFound
	}
	query := fmt.Sprintf(`SELECT %s FROM titles WHERE id = $1`, titleColumns)
	title, err := scanTitle(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		return domain.Title{}, translateError(err)
	}
	return title, nil
}

// FindByExternal fetches a materialized upstream title.
func (r *TitlesRepository) FindByExternal(ctx context.Context, kind domain.Kind, externalID int64) (domain.Title, error) {
	query := fmt.Sprintf(`SELECT %s FROM titles WHERE kind = $1 AND external_id = $2`, titleColumns)
	title, err := scanTitle(r.pool.QueryRow(ctx, query, string(kind), externalID))
	if err != nil {
		return domain.Title{}, translateError(err)
	}
	return title, nil
}

// Count returns the number of titles in the catalog.
func (r *TitlesRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM titles`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count titles: %w", err)
	}
	return n, nil
}

func scanTitle(row pgx.Row, extra ...any) (domain.Title, error) {
	var (
		title domain.Title
		kind  string
	)
	dest := []any{
		&title.ID,
		&kind,
		&title.ExternalID,
		&title.Name,
		&title.Description,
		&title.Genre,
		&title.ImageURL,
		&title.BackdropURL,
		&title.CreatedAt,
	}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return domain.Title{}, err
	}
	title.Kind = domain.Kind(kind)
	return title, nil
}
