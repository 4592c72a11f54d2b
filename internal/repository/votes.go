package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Clark-Hu/cinerank/internal/domain"
	"github.com/Clark-Hu/cinerank/internal/store"
)

// VotesRepository is the durable vote store. Every mutation runs in a single
// transaction, so aggregates are never observed half-applied.
type VotesRepository struct {
	store *store.Store
	pool  *pgxpool.Pool
}

// SubmitVote inserts the voter's rating for a title or overwrites it in place,
// then recomputes the aggregate inside the same transaction.
func (r *VotesRepository) SubmitVote(ctx context.Context, voter domain.Voter, titleID string, rating int) (domain.Submission, error) {
	if !validID(titleID) {
		return domain.Submission{}, ErrNotFound
	}

	const upsertVote = `
        INSERT INTO votes (user_id, title_id, rating)
        VALUES ($1,$2,$3)
        ON CONFLICT (user_id, title_id)
        DO UPDATE SET rating = EXCLUDED.rating, updated_at = now()
        RETURNING rating, (xmax = 0) AS inserted
    `

	var sub domain.Submission
	err := r.store.RunInTx(ctx, func(tx pgx.Tx) error {
		if err := upsertVoter(ctx, tx, voter); err != nil {
			return err
		}
		if err := tx.QueryRow(ctx, upsertVote, voter.ID, titleID, rating).Scan(&sub.YourRating, &sub.Created); err != nil {
			return translateError(err)
		}
		avg, total, err := aggregate(ctx, tx, titleID)
		if err != nil {
			return err
		}
		sub.Average, sub.TotalVotes = avg, total
		return nil
	})
	if err != nil {
		return domain.Submission{}, err
	}
	return sub, nil
}

// InsertVote is the strict-unique path: a second vote from the same user for
// the same title fails with ErrConflict instead of replacing the first.
func (r *VotesRepository) InsertVote(ctx context.Context, voter domain.Voter, titleID string, rating int) (domain.Vote, error) {
	if !validID(titleID) {
		return domain.Vote{}, ErrNotFound
	}

	const insertVote = `
        INSERT INTO votes (user_id, title_id, rating)
        VALUES ($1,$2,$3)
        RETURNING user_id, title_id::text, rating, created_at, updated_at
    `

	var vote domain.Vote
	err := r.store.RunInTx(ctx, func(tx pgx.Tx) error {
		if err := upsertVoter(ctx, tx, voter); err != nil {
			return err
		}
		err := tx.QueryRow(ctx, insertVote, voter.ID, titleID, rating).Scan(
			&vote.UserID,
			&vote.TitleID,
			&vote.Rating,
			&vote.CreatedAt,
			&vote.UpdatedAt,
		)
		return translateError(err)
	})
	if err != nil {
		return domain.Vote{}, err
	}
	return vote, nil
}

// RetractVote removes the user's vote for a title.
func (r *VotesRepository) RetractVote(ctx context.Context, userID, titleID string) error {
	if !validID(titleID) {
		return ErrNotFound
	}
	tag, err := r.pool.Exec(ctx, `DELETE FROM votes WHERE user_id = $1 AND title_id = $2`, userID, titleID)
	if err != nil {
		return fmt.Errorf("retract vote: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Summary returns the aggregate for a title and, when requesterID is set, the
// requester's own rating. A single statement keeps count and average consistent.
func (r *VotesRepository) Summary(ctx context.Context, titleID, requesterID string) (domain.VoteSummary, error) {
	if !validID(titleID) {
		return domain.VoteSummary{}, ErrNotFound
	}
	const query = `
        SELECT COALESCE(AVG(v.rating), 0)::float8,
               COUNT(v.rating)::int8,
               MAX(v.rating) FILTER (WHERE v.user_id = $2)
        FROM titles t
        LEFT JOIN votes v ON v.title_id = t.id
        WHERE t.id = $1
        GROUP BY t.id
    `

	var (
		summary domain.VoteSummary
		mine    *int16
	)
	err := r.pool.QueryRow(ctx, query, titleID, requesterID).Scan(&summary.Average, &summary.TotalVotes, &mine)
	if err != nil {
		return domain.VoteSummary{}, translateError(err)
	}
	if mine != nil && requesterID != "" {
		v := int(*mine)
		summary.RequesterVote = &v
	}
	return summary, nil
}

// ListForUser returns the user's votes, most recently updated first.
func (r *VotesRepository) ListForUser(ctx context.Context, userID string) ([]domain.UserVote, error) {
	const query = `
        SELECT t.id::text, t.name, t.genre, t.image_url, v.rating, v.created_at, v.updated_at
        FROM votes v
        JOIN titles t ON t.id = v.title_id
        WHERE v.user_id = $1
        ORDER BY v.updated_at DESC, t.seq DESC
    `
	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("list votes for user: %w", err)
	}
	defer rows.Close()

	votes := make([]domain.UserVote, 0)
	for rows.Next() {
		var uv domain.UserVote
		if err := rows.Scan(&uv.Title.ID, &uv.Title.Name, &uv.Title.Genre, &uv.Title.ImageURL,
			&uv.Rating, &uv.CreatedAt, &uv.UpdatedAt); err != nil {
			return nil, err
		}
		votes = append(votes, uv)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return votes, nil
}

func upsertVoter(ctx context.Context, tx pgx.Tx, voter domain.Voter) error {
	const query = `
        INSERT INTO users (id, email)
        VALUES ($1, NULLIF($2, ''))
        ON CONFLICT (id) DO UPDATE SET email = COALESCE(EXCLUDED.email, users.email)
    `
	if _, err := tx.Exec(ctx, query, voter.ID, voter.Email); err != nil {
		return fmt.Errorf("upsert voter: %w", err)
	}
	return nil
}

func aggregate(ctx context.Context, tx pgx.Tx, titleID string) (float64, int64, error) {
	const query = `
        SELECT COALESCE(AVG(rating), 0)::float8, COUNT(*)::int8
        FROM votes
        WHERE title_id = $1
    `
	var (
		avg   float64
		total int64
	)
	if err := tx.QueryRow(ctx, query, titleID).Scan(&avg, &total); err != nil {
		return 0, 0, fmt.Errorf("aggregate votes: %w", err)
	}
	return avg, total, nil
}
