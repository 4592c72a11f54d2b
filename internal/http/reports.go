package httpserver

import (
	"net/http"

	"github.com/Clark-Hu/cinerank/internal/domain"
	"github.com/Clark-Hu/cinerank/internal/report"
)

type rankedTitleResponse struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	Genre     string  `json:"genre"`
	ImageURL  *string `json:"imageUrl"`
	VoteCount int64   `json:"voteCount"`
}

type paginationResponse struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	TotalCount int64 `json:"totalCount"`
	TotalPages int   `json:"totalPages"`
}

type catalogListResponse struct {
	Titles     []rankedTitleResponse `json:"titles"`
	Pagination paginationResponse    `json:"pagination"`
}

type dashboardResponse struct {
	TopTitles         []namedCount      `json:"topTitles"`
	VotesEvolution    []dayCount        `json:"votesEvolution"`
	GenreDistribution []genreCount      `json:"genreDistribution"`
	TotalStats        totalStatsPayload `json:"totalStats"`
}

type namedCount struct {
	Name  string `json:"name"`
	Votes int64  `json:"votes"`
}

type dayCount struct {
	Date  string `json:"date"`
	Votes int64  `json:"votes"`
}

type genreCount struct {
	Name  string `json:"name"`
	Value int64  `json:"value"`
}

type totalStatsPayload struct {
	TotalTitles int64 `json:"totalTitles"`
	TotalVotes  int64 `json:"totalVotes"`
	TotalUsers  int64 `json:"totalUsers"`
}

func (s *Server) handleTopTitles(w http.ResponseWriter, r *http.Request) {
	top, err := s.reports.TopTitles(r.Context(), report.TopN)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, toRankedTitles(top))
}

func (s *Server) handleCatalog(w http.ResponseWriter, r *http.Request) {
	q, err := buildPageQuery(r.URL.Query())
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	page, err := s.reports.Catalog(r.Context(), q.Page, q.Limit)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, catalogListResponse{
		Titles: toRankedTitles(page.Items),
		Pagination: paginationResponse{
			Page:       page.Page,
			Limit:      page.Limit,
			TotalCount: page.TotalCount,
			TotalPages: page.TotalPages(),
		},
	})
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	d, err := s.reports.Dashboard(r.Context())
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	resp := dashboardResponse{
		TopTitles:         make([]namedCount, 0, len(d.TopTitles)),
		VotesEvolution:    make([]dayCount, 0, len(d.VotesByDay)),
		GenreDistribution: make([]genreCount, 0, len(d.Genres)),
		TotalStats: totalStatsPayload{
			TotalTitles: d.Totals.Titles,
			TotalVotes:  d.Totals.Votes,
			TotalUsers:  d.Totals.Voters,
		},
	}
	for _, t := range d.TopTitles {
		resp.TopTitles = append(resp.TopTitles, namedCount{Name: t.Title.Name, Votes: t.Votes})
	}
	for _, day := range d.VotesByDay {
		resp.VotesEvolution = append(resp.VotesEvolution, dayCount{Date: day.Day, Votes: day.Votes})
	}
	for _, g := range d.Genres {
		resp.GenreDistribution = append(resp.GenreDistribution, genreCount{Name: g.Genre, Value: g.Votes})
	}
	s.respondJSON(w, http.StatusOK, resp)
}

func toRankedTitles(items []domain.TitleVotes) []rankedTitleResponse {
	out := make([]rankedTitleResponse, 0, len(items))
	for _, it := range items {
		out = append(out, rankedTitleResponse{
			ID:        it.Title.ID,
			Name:      it.Title.Name,
			Genre:     it.Title.Genre,
			ImageURL:  it.Title.ImageURL,
			VoteCount: it.Votes,
		})
	}
	return out
}
