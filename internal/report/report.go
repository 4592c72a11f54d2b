// Package report builds the read-only rollups served by the dashboard and
// the ranking endpoints.
package report

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/Clark-Hu/cinerank/internal/domain"
)

const (
	// TopN is the size of the top titles ranking.
	TopN = 10
	// WindowDays is the length of the votes-per-day series.
	WindowDays = 30

	DefaultPageLimit = 10
	MaxPageLimit     = 50
)

// Source provides the aggregate projections over the vote store.
type Source interface {
	TopTitles(ctx context.Context, n int) ([]domain.TitleVotes, error)
	CatalogPage(ctx context.Context, page, limit int) (domain.TitlePage, error)
	VotesByDay(ctx context.Context, since time.Time) ([]domain.DayVotes, error)
	GenreVotes(ctx context.Context) ([]domain.GenreVotes, error)
	Totals(ctx context.Context) (domain.Totals, error)
}

// Dashboard is the combined rollup.
type Dashboard struct {
	TopTitles  []domain.TitleVotes
	VotesByDay []domain.DayVotes
	Genres     []domain.GenreVotes
	Totals     domain.Totals
}

// Service composes Source projections, optionally behind a Cache.
type Service struct {
	source Source
	cache  Cache
	ttl    time.Duration
	now    func() time.Time
	logger zerolog.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithCache caches dashboards for ttl.
func WithCache(cache Cache, ttl time.Duration) Option {
	return func(s *Service) {
		s.cache = cache
		s.ttl = ttl
	}
}

// WithClock overrides the clock used to anchor the daily window.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithLogger sets the logger used for cache failures.
func WithLogger(logger zerolog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

// NewService constructs a Service over source.
func NewService(source Source, opts ...Option) *Service {
	s := &Service{
		source: source,
		cache:  NopCache{},
		now:    time.Now,
		logger: zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With().Str("component", "report").Logger()
	return s
}

// Dashboard returns the rollups, served from cache when possible.
func (s *Service) Dashboard(ctx context.Context) (Dashboard, error) {
	gen, cacheable := s.generation(ctx)
	if cacheable {
		if d, ok := s.cached(ctx, gen); ok {
			return d, nil
		}
	}

	today := startOfDay(s.now())
	since := today.AddDate(0, 0, -(WindowDays - 1))

	var d Dashboard
	var days []domain.DayVotes
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		top, err := s.source.TopTitles(gctx, TopN)
		if err != nil {
			return fmt.Errorf("top titles: %w", err)
		}
		d.TopTitles = top
		return nil
	})
	g.Go(func() error {
		counts, err := s.source.VotesByDay(gctx, since)
		if err != nil {
			return fmt.Errorf("votes by day: %w", err)
		}
		days = counts
		return nil
	})
	g.Go(func() error {
		genres, err := s.source.GenreVotes(gctx)
		if err != nil {
			return fmt.Errorf("genre votes: %w", err)
		}
		d.Genres = genres
		return nil
	})
	g.Go(func() error {
		totals, err := s.source.Totals(gctx)
		if err != nil {
			return fmt.Errorf("totals: %w", err)
		}
		d.Totals = totals
		return nil
	})
	if err := g.Wait(); err != nil {
		return Dashboard{}, err
	}
	d.VotesByDay = FillDays(days, today, WindowDays)

	if cacheable {
		s.store(ctx, gen, d)
	}
	return d, nil
}

// Invalidate retires the cached dashboard after a vote mutation by moving to
// the next generation.
func (s *Service) Invalidate(ctx context.Context) {
	if s.ttl <= 0 {
		return
	}
	if _, err := s.cache.Incr(ctx, generationKey); err != nil {
		s.logger.Warn().Err(err).Msg("dashboard cache invalidation failed")
	}
}

// TopTitles returns the n most voted titles; n outside 1..MaxPageLimit uses TopN.
func (s *Service) TopTitles(ctx context.Context, n int) ([]domain.TitleVotes, error) {
	if n < 1 || n > MaxPageLimit {
		n = TopN
	}
	return s.source.TopTitles(ctx, n)
}

// Catalog returns one page of the local catalog ordered by vote count.
func (s *Service) Catalog(ctx context.Context, page, limit int) (domain.TitlePage, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = DefaultPageLimit
	}
	if limit > MaxPageLimit {
		limit = MaxPageLimit
	}
	return s.source.CatalogPage(ctx, page, limit)
}

// FillDays expands sparse per-day counts into a chronological series of n
// UTC days ending at today, with zero for days without votes.
func FillDays(counts []domain.DayVotes, today time.Time, n int) []domain.DayVotes {
	byDay := make(map[string]int64, len(counts))
	for _, c := range counts {
		byDay[c.Day] += c.Votes
	}
	today = startOfDay(today)
	out := make([]domain.DayVotes, n)
	for i := 0; i < n; i++ {
		day := today.AddDate(0, 0, i-(n-1)).Format(time.DateOnly)
		out[i] = domain.DayVotes{Day: day, Votes: byDay[day]}
	}
	return out
}

func startOfDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
