// Package votes owns the vote bookkeeping rules: one current rating per
// (user, title), replaced in place on resubmission, and aggregates derived
// from the current ratings only.
package votes

import (
	"context"

	"github.com/Clark-Hu/cinerank/internal/domain"
)

// Store is the vote store contract shared by the in-memory and PostgreSQL
// implementations. Implementations must make every mutation atomic and
// linearizable per (user, title).
type Store interface {
	SubmitVote(ctx context.Context, voter domain.Voter, titleID string, rating int) (domain.Submission, error)
	InsertVote(ctx context.Context, voter domain.Voter, titleID string, rating int) (domain.Vote, error)
	RetractVote(ctx context.Context, userID, titleID string) error
	Summary(ctx context.Context, titleID, requesterID string) (domain.VoteSummary, error)
	ListForUser(ctx context.Context, userID string) ([]domain.UserVote, error)
}

// Catalog is the local title catalog.
type Catalog interface {
	Create(ctx context.Context, params domain.NewTitle) (domain.Title, error)
	EnsureExternal(ctx context.Context, params domain.NewTitle) (domain.Title, bool, error)
	Get(ctx context.Context, id string) (domain.Title, error)
	FindByExternal(ctx context.Context, kind domain.Kind, externalID int64) (domain.Title, error)
	Count(ctx context.Context) (int64, error)
}
