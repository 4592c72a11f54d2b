package httpserver

import (
	"fmt"
	"net/http"

	"github.com/Clark-Hu/cinerank/internal/catalog"
	"github.com/Clark-Hu/cinerank/internal/domain"
	"github.com/Clark-Hu/cinerank/internal/i18n"
)

type catalogTitleResponse struct {
	ID           int64    `json:"id"`
	Type         string   `json:"type"`
	Title        string   `json:"title"`
	Overview     string   `json:"overview"`
	PosterPath   *string  `json:"posterPath"`
	BackdropPath *string  `json:"backdropPath"`
	ReleaseDate  string   `json:"releaseDate,omitempty"`
	ReleaseYear  int      `json:"releaseYear,omitempty"`
	Rating       float64  `json:"rating"`
	VoteCount    int64    `json:"voteCount"`
	Genre        string   `json:"genre"`
	Genres       []string `json:"genres"`
}

type catalogPageResponse struct {
	Results      []catalogTitleResponse `json:"results"`
	Page         int                    `json:"page"`
	TotalPages   int                    `json:"totalPages"`
	TotalResults int                    `json:"totalResults"`
}

func (s *Server) handleBrowse(w http.ResponseWriter, r *http.Request) {
	q, err := buildBrowseQuery(r.URL.Query())
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	var page catalog.Page
	if q.Genre == "" || q.Genre == "all" {
		category, err := catalog.ParseCategory(q.Type)
		if err != nil {
			s.respondError(w, r, err)
			return
		}
		page, err = s.catalog.ListByCategory(r.Context(), category, q.Page)
		if err != nil {
			s.respondError(w, r, err)
			return
		}
	} else {
		genreID, ok := i18n.GenreSlug(q.Genre)
		if !ok {
			s.respondError(w, r, fmt.Errorf("%w: unknown genre %q", domain.ErrInvalidInput, q.Genre))
			return
		}
		page, err = s.catalog.ListByGenre(r.Context(), genreID, q.Page)
		if err != nil {
			s.respondError(w, r, err)
			return
		}
	}
	s.respondJSON(w, http.StatusOK, toCatalogPageResponse(page))
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	q, err := buildSearchQuery(r.URL.Query())
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	page, err := s.catalog.Search(r.Context(), q.Q, q.Page)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, toCatalogPageResponse(page))
}

func toCatalogPageResponse(page catalog.Page) catalogPageResponse {
	results := make([]catalogTitleResponse, 0, len(page.Results))
	for _, t := range page.Results {
		results = append(results, toCatalogTitleResponse(t))
	}
	return catalogPageResponse{
		Results:      results,
		Page:         page.Page,
		TotalPages:   page.TotalPages,
		TotalResults: page.TotalResults,
	}
}

func toCatalogTitleResponse(t catalog.Title) catalogTitleResponse {
	genres := t.Genres
	if genres == nil {
		genres = []string{}
	}
	return catalogTitleResponse{
		ID:           t.ID,
		Type:         string(t.Kind),
		Title:        t.Name,
		Overview:     t.Overview,
		PosterPath:   t.PosterURL,
		BackdropPath: t.BackdropURL,
		ReleaseDate:  t.ReleaseDate,
		ReleaseYear:  t.ReleaseYear(),
		Rating:       roundToOneDecimal(t.Rating),
		VoteCount:    t.VoteCount,
		Genre:        t.Genre,
		Genres:       genres,
	}
}
