package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Clark-Hu/cinerank/internal/domain"
)

// StatsRepository serves the read-only projections behind the dashboard.
type StatsRepository struct {
	pool *pgxpool.Pool
}

// TopTitles returns the n most voted titles, ties broken by catalog order.
func (r *StatsRepository) TopTitles(ctx context.Context, n int) ([]domain.TitleVotes, error) {
	const query = `
        SELECT t.id::text, t.name, t.genre, t.image_url, COUNT(v.title_id)::int8 AS votes
        FROM titles t
        LEFT JOIN votes v ON v.title_id = t.id
        GROUP BY t.id
        ORDER BY votes DESC, t.seq ASC
        LIMIT $1
    `
	return r.queryTitleVotes(ctx, query, n)
}

// CatalogPage lists the local catalog ordered by vote count.
func (r *StatsRepository) CatalogPage(ctx context.Context, page, limit int) (domain.TitlePage, error) {
	const query = `
        SELECT t.id::text, t.name, t.genre, t.image_url, COUNT(v.title_id)::int8 AS votes
        FROM titles t
        LEFT JOIN votes v ON v.title_id = t.id
        GROUP BY t.id
        ORDER BY votes DESC, t.seq ASC
        LIMIT $1 OFFSET $2
    `
	items, err := r.queryTitleVotes(ctx, query, limit, (page-1)*limit)
	if err != nil {
		return domain.TitlePage{}, err
	}
	var total int64
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM titles`).Scan(&total); err != nil {
		return domain.TitlePage{}, fmt.Errorf("count titles: %w", err)
	}
	return domain.TitlePage{Items: items, Page: page, Limit: limit, TotalCount: total}, nil
}

// VotesByDay counts votes per UTC calendar day cast at or after since.
// Days without votes are omitted.
func (r *StatsRepository) VotesByDay(ctx context.Context, since time.Time) ([]domain.DayVotes, error) {
	const query = `
        SELECT to_char(created_at AT TIME ZONE 'UTC', 'YYYY-MM-DD') AS day, COUNT(*)::int8
        FROM votes
        WHERE created_at >= $1
        GROUP BY day
        ORDER BY day
    `
	rows, err := r.pool.Query(ctx, query, since.UTC())
	if err != nil {
		return nil, fmt.Errorf("votes by day: %w", err)
	}
	defer rows.Close()

	days := make([]domain.DayVotes, 0)
	for rows.Next() {
		var d domain.DayVotes
		if err := rows.Scan(&d.Day, &d.Votes); err != nil {
			return nil, err
		}
		days = append(days, d)
	}
	return days, rows.Err()
}

// GenreVotes sums vote counts over titles sharing a genre label.
func (r *StatsRepository) GenreVotes(ctx context.Context) ([]domain.GenreVotes, error) {
	const query = `
        SELECT t.genre, COUNT(v.title_id)::int8 AS votes
        FROM titles t
        LEFT JOIN votes v ON v.title_id = t.id
        GROUP BY t.genre
        ORDER BY votes DESC, t.genre ASC
    `
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("genre votes: %w", err)
	}
	defer rows.Close()

	genres := make([]domain.GenreVotes, 0)
	for rows.Next() {
		var g domain.GenreVotes
		if err := rows.Scan(&g.Genre, &g.Votes); err != nil {
			return nil, err
		}
		genres = append(genres, g)
	}
	return genres, rows.Err()
}

// Totals returns the global counters in one snapshot.
func (r *StatsRepository) Totals(ctx context.Context) (domain.Totals, error) {
	const query = `
        SELECT (SELECT COUNT(*) FROM titles)::int8,
               COUNT(*)::int8,
               COUNT(DISTINCT user_id)::int8
        FROM votes
    `
	var t domain.Totals
	if err := r.pool.QueryRow(ctx, query).Scan(&t.Titles, &t.Votes, &t.Voters); err != nil {
		return domain.Totals{}, fmt.Errorf("totals: %w", err)
	}
	return t, nil
}

func (r *StatsRepository) queryTitleVotes(ctx context.Context, query string, args ...any) ([]domain.TitleVotes, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query title votes: %w", err)
	}
	defer rows.Close()

	items := make([]domain.TitleVotes, 0)
	for rows.Next() {
		var tv domain.TitleVotes
		if err := rows.Scan(&tv.Title.ID, &tv.Title.Name, &tv.Title.Genre, &tv.Title.ImageURL, &tv.Votes); err != nil {
			return nil, err
		}
		items = append(items, tv)
	}
	return items, rows.Err()
}
