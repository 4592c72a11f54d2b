package votes

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Clark-Hu/cinerank/internal/domain"
)

type externalKey struct {
	kind domain.Kind
	id   int64
}

// tally keeps the running sum next to the per-user ratings so a replacement
// subtracts the old rating before adding the new one.
type tally struct {
	sum    int64
	byUser map[string]*domain.Vote
}

type titleEntry struct {
	title domain.Title
	seq   int
	votes tally
}

// MemoryStore is an in-process Store, Catalog and report source. A single
// RWMutex guards all state, so each operation is linearizable.
type MemoryStore struct {
	mu       sync.RWMutex
	now      func() time.Time
	titles   map[string]*titleEntry
	order    []*titleEntry
	external map[externalKey]*titleEntry
	voters   map[string]domain.Voter
}

// MemoryOption configures a MemoryStore.
type MemoryOption func(*MemoryStore)

// WithClock overrides the time source used for timestamps.
func WithClock(now func() time.Time) MemoryOption {
	return func(m *MemoryStore) { m.now = now }
}

// NewMemoryStore constructs an empty store.
func NewMemoryStore(opts ...MemoryOption) *MemoryStore {
	m := &MemoryStore{
		now:      time.Now,
		titles:   make(map[string]*titleEntry),
		external: make(map[externalKey]*titleEntry),
		voters:   make(map[string]domain.Voter),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// HealthCheck always succeeds.
func (m *MemoryStore) HealthCheck(context.Context) error { return nil }

// Create adds a title to the catalog.
func (m *MemoryStore) Create(ctx context.Context, params domain.NewTitle) (domain.Title, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if params.ExternalID != nil && params.Kind != domain.KindLocal {
		if _, ok := m.external[externalKey{params.Kind, *params.ExternalID}]; ok {
			return domain.Title{}, fmt.Errorf("%w: title %s/%d already exists", domain.ErrConflict, params.Kind, *params.ExternalID)
		}
	}
	return m.insertLocked(params).title, nil
}

// EnsureExternal materializes an upstream title, refreshing its metadata when present.
func (m *MemoryStore) EnsureExternal(ctx context.Context, params domain.NewTitle) (domain.Title, bool, error) {
	if params.ExternalID == nil || params.Kind == domain.KindLocal {
		return domain.Title{}, false, fmt.Errorf("%w: external title requires kind and external id", domain.ErrInvalidInput)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if e, ok := m.external[externalKey{params.Kind, *params.ExternalID}]; ok {
		e.title.Name = params.Name
		e.title.Description = params.Description
		e.title.Genre = params.Genre
		if params.ImageURL != nil {
			e.title.ImageURL = params.ImageURL
		}
		if params.BackdropURL != nil {
			e.title.BackdropURL = params.BackdropURL
		}
		return e.title, false, nil
	}
	return m.insertLocked(params).title, true, nil
}

func (m *MemoryStore) insertLocked(params domain.NewTitle) *titleEntry {
	e := &titleEntry{
		title: domain.Title{
			ID:          uuid.NewString(),
			Kind:        params.Kind,
			ExternalID:  params.ExternalID,
			Name:        params.Name,
			Description: params.Description,
			Genre:       params.Genre,
			ImageURL:    params.ImageURL,
			BackdropURL: params.BackdropURL,
			CreatedAt:   m.now().UTC(),
		},
		seq:   len(m.order),
		votes: tally{byUser: make(map[string]*domain.Vote)},
	}
	m.titles[e.title.ID] = e
	m.order = append(m.order, e)
	if params.ExternalID != nil && params.Kind != domain.KindLocal {
		m.external[externalKey{params.Kind, *params.ExternalID}] = e
	}
	return e
}

// Get fetches a title by internal id.
func (m *MemoryStore) Get(ctx context.Context, id string) (domain.Title, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.titles[id]
	if !ok {
		return domain.Title{}, domain.ErrNotFound
	}
	return e.title, nil
}

// FindByExternal fetches a materialized upstream title.
func (m *MemoryStore) FindByExternal(ctx context.Context, kind domain.Kind, externalID int64) (domain.Title, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.external[externalKey{kind, externalID}]
	if !ok {
		return domain.Title{}, domain.ErrNotFound
	}
	return e.title, nil
}

// Count returns the number of titles.
func (m *MemoryStore) Count(ctx context.Context) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return int64(len(m.order)), nil
}

// SubmitVote records or replaces the voter's rating for a title.
func (m *MemoryStore) SubmitVote(ctx context.Context, voter domain.Voter, titleID string, rating int) (domain.Submission, error) {
	if err := domain.CheckRating(rating); err != nil {
		return domain.Submission{}, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.titles[titleID]
	if !ok {
		return domain.Submission{}, domain.ErrNotFound
	}
	m.rememberVoterLocked(voter)

	now := m.now().UTC()
	created := false
	if v, ok := e.votes.byUser[voter.ID]; ok {
		e.votes.sum += int64(rating - v.Rating)
		v.Rating = rating
		v.UpdatedAt = now
	} else {
		e.votes.byUser[voter.ID] = &domain.Vote{
			UserID:    voter.ID,
			TitleID:   titleID,
			Rating:    rating,
			CreatedAt: now,
			UpdatedAt: now,
		}
		e.votes.sum += int64(rating)
		created = true
	}

	avg, total := e.votes.aggregate()
	return domain.Submission{Average: avg, TotalVotes: total, YourRating: rating, Created: created}, nil
}

// InsertVote records a first vote and fails with ErrConflict if one exists.
func (m *MemoryStore) InsertVote(ctx context.Context, voter domain.Voter, titleID string, rating int) (domain.Vote, error) {
	if err := domain.CheckRating(rating); err != nil {
		return domain.Vote{}, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.titles[titleID]
	if !ok {
		return domain.Vote{}, domain.ErrNotFound
	}
	if _, ok := e.votes.byUser[voter.ID]; ok {
		return domain.Vote{}, fmt.Errorf("%w: user %s already voted for %s", domain.ErrConflict, voter.ID, titleID)
	}
	m.rememberVoterLocked(voter)

	now := m.now().UTC()
	v := &domain.Vote{UserID: voter.ID, TitleID: titleID, Rating: rating, CreatedAt: now, UpdatedAt: now}
	e.votes.byUser[voter.ID] = v
	e.votes.sum += int64(rating)
	return *v, nil
}

// RetractVote removes the user's vote for a title.
func (m *MemoryStore) RetractVote(ctx context.Context, userID, titleID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.titles[titleID]
	if !ok {
		return domain.ErrNotFound
	}
	v, ok := e.votes.byUser[userID]
	if !ok {
		return domain.ErrNotFound
	}
	e.votes.sum -= int64(v.Rating)
	delete(e.votes.byUser, userID)
	return nil
}

// Summary returns the aggregate for a title and the requester's rating.
func (m *MemoryStore) Summary(ctx context.Context, titleID, requesterID string) (domain.VoteSummary, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	e, ok := m.titles[titleID]
	if !ok {
		return domain.VoteSummary{}, domain.ErrNotFound
	}
	avg, total := e.votes.aggregate()
	summary := domain.VoteSummary{Average: avg, TotalVotes: total}
	if requesterID != "" {
		if v, ok := e.votes.byUser[requesterID]; ok {
			r := v.Rating
			summary.RequesterVote = &r
		}
	}
	return summary, nil
}

// ListForUser returns the user's votes, most recently updated first.
func (m *MemoryStore) ListForUser(ctx context.Context, userID string) ([]domain.UserVote, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	type entry struct {
		vote domain.UserVote
		seq  int
	}
	entries := make([]entry, 0)
	for _, e := range m.order {
		if v, ok := e.votes.byUser[userID]; ok {
			entries = append(entries, entry{
				vote: domain.UserVote{Title: e.title.Ref(), Rating: v.Rating, CreatedAt: v.CreatedAt, UpdatedAt: v.UpdatedAt},
				seq:  e.seq,
			})
		}
	}
	sort.SliceStable(entries, func(i, j int) bool {
		if !entries[i].vote.UpdatedAt.Equal(entries[j].vote.UpdatedAt) {
			return entries[i].vote.UpdatedAt.After(entries[j].vote.UpdatedAt)
		}
		return entries[i].seq > entries[j].seq
	})

	out := make([]domain.UserVote, len(entries))
	for i, e := range entries {
		out[i] = e.vote
	}
	return out, nil
}

func (m *MemoryStore) rememberVoterLocked(voter domain.Voter) {
	if prev, ok := m.voters[voter.ID]; ok && voter.Email == "" {
		voter.Email = prev.Email
	}
	m.voters[voter.ID] = voter
}

func (t *tally) aggregate() (float64, int64) {
	n := int64(len(t.byUser))
	if n == 0 {
		return 0, 0
	}
	return float64(t.sum) / float64(n), n
}
