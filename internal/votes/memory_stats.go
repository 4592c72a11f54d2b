package votes

import (
	"context"
	"sort"
	"time"

	"github.com/Clark-Hu/cinerank/internal/domain"
)

// TopTitles returns the n most voted titles, ties broken by insertion order.
func (m *MemoryStore) TopTitles(ctx context.Context, n int) ([]domain.TitleVotes, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ranked := m.rankedLocked()
	if n >= 0 && n < len(ranked) {
		ranked = ranked[:n]
	}
	return ranked, nil
}

// CatalogPage lists the catalog ordered by vote count.
func (m *MemoryStore) CatalogPage(ctx context.Context, page, limit int) (domain.TitlePage, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 1
	}
	ranked := m.rankedLocked()
	start := (page - 1) * limit
	if start > len(ranked) {
		start = len(ranked)
	}
	end := start + limit
	if end > len(ranked) {
		end = len(ranked)
	}
	return domain.TitlePage{
		Items:      ranked[start:end],
		Page:       page,
		Limit:      limit,
		TotalCount: int64(len(ranked)),
	}, nil
}

// VotesByDay counts votes per UTC day created at or after since.
func (m *MemoryStore) VotesByDay(ctx context.Context, since time.Time) ([]domain.DayVotes, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	counts := make(map[string]int64)
	for _, e := range m.order {
		for _, v := range e.votes.byUser {
			if v.CreatedAt.Before(since) {
				continue
			}
			counts[v.CreatedAt.UTC().Format(time.DateOnly)]++
		}
	}
	days := make([]domain.DayVotes, 0, len(counts))
	for day, n := range counts {
		days = append(days, domain.DayVotes{Day: day, Votes: n})
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Day < days[j].Day })
	return days, nil
}

// GenreVotes sums vote counts over titles sharing a genre label.
func (m *MemoryStore) GenreVotes(ctx context.Context) ([]domain.GenreVotes, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	index := make(map[string]int)
	genres := make([]domain.GenreVotes, 0)
	for _, e := range m.order {
		i, ok := index[e.title.Genre]
		if !ok {
			i = len(genres)
			index[e.title.Genre] = i
			genres = append(genres, domain.GenreVotes{Genre: e.title.Genre})
		}
		genres[i].Votes += int64(len(e.votes.byUser))
	}
	sort.SliceStable(genres, func(i, j int) bool {
		if genres[i].Votes != genres[j].Votes {
			return genres[i].Votes > genres[j].Votes
		}
		return genres[i].Genre < genres[j].Genre
	})
	return genres, nil
}

// Totals returns titles, votes and distinct voters.
func (m *MemoryStore) Totals(ctx context.Context) (domain.Totals, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	voters := make(map[string]struct{})
	var votes int64
	for _, e := range m.order {
		votes += int64(len(e.votes.byUser))
		for uid := range e.votes.byUser {
			voters[uid] = struct{}{}
		}
	}
	return domain.Totals{Titles: int64(len(m.order)), Votes: votes, Voters: int64(len(voters))}, nil
}

func (m *MemoryStore) rankedLocked() []domain.TitleVotes {
	ranked := make([]domain.TitleVotes, len(m.order))
	for i, e := range m.order {
		ranked[i] = domain.TitleVotes{Title: e.title.Ref(), Votes: int64(len(e.votes.byUser))}
	}
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].Votes > ranked[j].Votes })
	return ranked
}
