package votes

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/Clark-Hu/cinerank/internal/domain"
	"github.com/Clark-Hu/cinerank/internal/logging"
	"github.com/Clark-Hu/cinerank/internal/metrics"
)

// Service applies the boundary rules around a Store: authentication and
// rating validation happen before any mutation, and unexpected store
// failures are logged and reported as ErrInternal.
type Service struct {
	store  Store
	logger zerolog.Logger
}

// NewService wires a Service over store.
func NewService(store Store, logger zerolog.Logger) *Service {
	return &Service{store: store, logger: logger.With().Str("component", "votes").Logger()}
}

// Submit records or replaces the voter's rating for titleID.
func (s *Service) Submit(ctx context.Context, voter *domain.Voter, titleID string, rating *float64) (domain.Submission, error) {
	if voter == nil || voter.ID == "" {
		metrics.RecordVote("submit", "rejected")
		return domain.Submission{}, domain.ErrUnauthenticated
	}
	value, err := domain.ValidateRating(rating)
	if err != nil {
		metrics.RecordVote("submit", "rejected")
		return domain.Submission{}, err
	}

	sub, err := s.store.SubmitVote(ctx, *voter, titleID, value)
	if err != nil {
		return domain.Submission{}, s.fail(ctx, "submit", titleID, voter.ID, err)
	}
	if sub.Created {
		metrics.RecordVote("submit", "created")
	} else {
		metrics.RecordVote("submit", "replaced")
	}
	return sub, nil
}

// Insert records a first vote; a repeated vote fails with ErrConflict.
func (s *Service) Insert(ctx context.Context, voter *domain.Voter, titleID string, rating *float64) (domain.Vote, error) {
	if voter == nil || voter.ID == "" {
		metrics.RecordVote("insert", "rejected")
		return domain.Vote{}, domain.ErrUnauthenticated
	}
	value, err := domain.ValidateRating(rating)
	if err != nil {
		metrics.RecordVote("insert", "rejected")
		return domain.Vote{}, err
	}

	vote, err := s.store.InsertVote(ctx, *voter, titleID, value)
	if err != nil {
		if errors.Is(err, domain.ErrConflict) {
			metrics.RecordVote("insert", "conflict")
		}
		return domain.Vote{}, s.fail(ctx, "insert", titleID, voter.ID, err)
	}
	metrics.RecordVote("insert", "created")
	return vote, nil
}

// Retract removes the voter's rating for titleID.
func (s *Service) Retract(ctx context.Context, voter *domain.Voter, titleID string) error {
	if voter == nil || voter.ID == "" {
		return domain.ErrUnauthenticated
	}
	if err := s.store.RetractVote(ctx, voter.ID, titleID); err != nil {
		return s.fail(ctx, "retract", titleID, voter.ID, err)
	}
	metrics.RecordVote("retract", "retracted")
	return nil
}

// Summary returns the aggregate for titleID; requester may be nil.
func (s *Service) Summary(ctx context.Context, titleID string, requester *domain.Voter) (domain.VoteSummary, error) {
	requesterID := ""
	if requester != nil {
		requesterID = requester.ID
	}
	summary, err := s.store.Summary(ctx, titleID, requesterID)
	if err != nil {
		return domain.VoteSummary{}, s.fail(ctx, "summary", titleID, requesterID, err)
	}
	return summary, nil
}

// History lists a user's votes, newest first.
func (s *Service) History(ctx context.Context, userID string) ([]domain.UserVote, error) {
	if userID == "" {
		return nil, fmt.Errorf("%w: user id is required", domain.ErrInvalidInput)
	}
	votes, err := s.store.ListForUser(ctx, userID)
	if err != nil {
		return nil, s.fail(ctx, "history", "", userID, err)
	}
	return votes, nil
}

// fail passes domain errors through and converts anything else into ErrInternal.
func (s *Service) fail(ctx context.Context, op, titleID, userID string, err error) error {
	switch {
	case errors.Is(err, domain.ErrNotFound),
		errors.Is(err, domain.ErrConflict),
		errors.Is(err, domain.ErrInvalidInput),
		errors.Is(err, domain.ErrUnauthenticated):
		return err
	}
	if errors.Is(err, context.Canceled) {
		return err
	}
	if op != "summary" && op != "history" {
		metrics.RecordVote(op, "failed")
	}
	logger := s.logger
	if id := logging.RequestIDFromContext(ctx); id != "" {
		logger = logger.With().Str("request_id", id).Logger()
	}
	logger.Error().Err(err).
		Str("op", op).
		Str("title_id", titleID).
		Str("user_id", userID).
		Msg("vote store failure")
	return fmt.Errorf("%w: %s", domain.ErrInternal, op)
}
