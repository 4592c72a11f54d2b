package httpserver

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/Clark-Hu/cinerank/internal/auth"
	"github.com/Clark-Hu/cinerank/internal/domain"
	"github.com/Clark-Hu/cinerank/internal/votes"
)

type titleDetailResponse struct {
	ID            string   `json:"id"`
	TitleID       *string  `json:"titleId,omitempty"`
	Type          string   `json:"type,omitempty"`
	Title         string   `json:"title"`
	Overview      string   `json:"overview"`
	PosterPath    *string  `json:"posterPath"`
	BackdropPath  *string  `json:"backdropPath"`
	ReleaseDate   string   `json:"releaseDate,omitempty"`
	ReleaseYear   int      `json:"releaseYear,omitempty"`
	TMDBRating    *float64 `json:"tmdbRating,omitempty"`
	TMDBVoteCount *int64   `json:"tmdbVoteCount,omitempty"`
	UserRating    float64  `json:"userRating"`
	TotalVotes    int64    `json:"totalVotes"`
	UserVote      *int     `json:"userVote"`
	Runtime       *int     `json:"runtime,omitempty"`
	Seasons       *int     `json:"seasons,omitempty"`
	Genres        []string `json:"genres"`
}

type voteSummaryResponse struct {
	TitleID       *string `json:"titleId"`
	AverageRating float64 `json:"averageRating"`
	TotalVotes    int64   `json:"totalVotes"`
	UserVote      *int    `json:"userVote"`
}

func (s *Server) handleTitleDetail(w http.ResponseWriter, r *http.Request) {
	resolved, err := s.resolver.Lookup(r.Context(), titleParam(r))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	summary, err := s.summaryFor(r.Context(), resolved)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	resp := titleDetailResponse{
		UserRating: roundToOneDecimal(summary.Average),
		TotalVotes: summary.TotalVotes,
		UserVote:   summary.RequesterVote,
		Genres:     []string{},
	}
	if local := resolved.Local; local != nil {
		resp.ID = local.ID
		resp.TitleID = &local.ID
		resp.Type = string(local.Kind)
		resp.Title = local.Name
		resp.Overview = local.Description
		resp.PosterPath = local.ImageURL
		resp.BackdropPath = local.BackdropURL
		if local.Genre != "" {
			resp.Genres = []string{local.Genre}
		}
	}
	if up := resolved.Upstream; up != nil {
		rating := roundToOneDecimal(up.Rating)
		count := up.VoteCount
		resp.ID = strconv.FormatInt(up.ID, 10)
		resp.Type = string(up.Kind)
		resp.Title = up.Name
		resp.Overview = up.Overview
		resp.PosterPath = up.PosterURL
		resp.BackdropPath = up.BackdropURL
		resp.ReleaseDate = up.ReleaseDate
		resp.ReleaseYear = up.ReleaseYear()
		resp.TMDBRating = &rating
		resp.TMDBVoteCount = &count
		resp.Runtime = up.Runtime
		resp.Seasons = up.Seasons
		if len(up.Genres) > 0 {
			resp.Genres = up.Genres
		}
	}
	s.respondJSON(w, http.StatusOK, resp)
}

func (s *Server) handleTitleVotes(w http.ResponseWriter, r *http.Request) {
	resolved, err := s.resolver.Lookup(r.Context(), titleParam(r))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	summary, err := s.summaryFor(r.Context(), resolved)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	resp := voteSummaryResponse{
		AverageRating: roundToOneDecimal(summary.Average),
		TotalVotes:    summary.TotalVotes,
		UserVote:      summary.RequesterVote,
	}
	if resolved.Local != nil {
		resp.TitleID = &resolved.Local.ID
	}
	s.respondJSON(w, http.StatusOK, resp)
}

// summaryFor returns the vote summary of a resolved title. An upstream title
// that was never voted on has an empty summary.
func (s *Server) summaryFor(ctx context.Context, resolved votes.Resolved) (domain.VoteSummary, error) {
	if resolved.Local == nil {
		return domain.VoteSummary{}, nil
	}
	return s.votes.Summary(ctx, resolved.Local.ID, auth.FromContext(ctx))
}

func titleParam(r *http.Request) string {
	return strings.TrimSpace(chi.URLParam(r, "id"))
}
