package httpserver

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/Clark-Hu/cinerank/internal/auth"
	"github.com/Clark-Hu/cinerank/internal/domain"
)

type voteRequest struct {
	Rating *float64 `json:"rating"`
}

type insertVoteRequest struct {
	TitleID string   `json:"titleId" validate:"required,max=64"`
	Rating  *float64 `json:"rating"`
}

type submitVoteResponse struct {
	Success       bool    `json:"success"`
	TitleID       string  `json:"titleId"`
	UserVote      int     `json:"userVote"`
	AverageRating float64 `json:"averageRating"`
	TotalVotes    int64   `json:"totalVotes"`
}

type voteResponse struct {
	UserID    string    `json:"userId"`
	TitleID   string    `json:"titleId"`
	Rating    int       `json:"rating"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type insertVoteResponse struct {
	Success bool         `json:"success"`
	Vote    voteResponse `json:"vote"`
}

type titleRefResponse struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Genre    string  `json:"genre"`
	ImageURL *string `json:"imageUrl"`
}

type userVoteResponse struct {
	TitleID   string           `json:"titleId"`
	Rating    int              `json:"rating"`
	CreatedAt time.Time        `json:"createdAt"`
	UpdatedAt time.Time        `json:"updatedAt"`
	Title     titleRefResponse `json:"title"`
}

func (s *Server) handleSubmitVote(w http.ResponseWriter, r *http.Request) {
	voter := auth.FromContext(r.Context())
	if voter == nil {
		s.respondError(w, r, domain.ErrUnauthenticated)
		return
	}

	var req voteRequest
	if err := decodeJSONBody(w, r, &req); err != nil {
		s.respondError(w, r, err)
		return
	}
	if _, err := domain.ValidateRating(req.Rating); err != nil {
		s.respondError(w, r, err)
		return
	}

	title, err := s.resolver.Materialize(r.Context(), titleParam(r))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	sub, err := s.votes.Submit(r.Context(), voter, title.ID, req.Rating)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.reports.Invalidate(r.Context())

	status := http.StatusOK
	if sub.Created {
		status = http.StatusCreated
	}
	s.respondJSON(w, status, submitVoteResponse{
		Success:       true,
		TitleID:       title.ID,
		UserVote:      sub.YourRating,
		AverageRating: roundToOneDecimal(sub.Average),
		TotalVotes:    sub.TotalVotes,
	})
}

func (s *Server) handleRetractVote(w http.ResponseWriter, r *http.Request) {
	voter := auth.FromContext(r.Context())
	if voter == nil {
		s.respondError(w, r, domain.ErrUnauthenticated)
		return
	}

	resolved, err := s.resolver.Lookup(r.Context(), titleParam(r))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	if resolved.Local == nil {
		s.respondError(w, r, domain.ErrNotFound)
		return
	}
	if err := s.votes.Retract(r.Context(), voter, resolved.Local.ID); err != nil {
		s.respondError(w, r, err)
		return
	}
	s.reports.Invalidate(r.Context())
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleInsertVote(w http.ResponseWriter, r *http.Request) {
	voter := auth.FromContext(r.Context())
	if voter == nil {
		s.respondError(w, r, domain.ErrUnauthenticated)
		return
	}

	var req insertVoteRequest
	if err := decodeJSONBody(w, r, &req); err != nil {
		s.respondError(w, r, err)
		return
	}
	req.TitleID = strings.TrimSpace(req.TitleID)
	if err := validateStruct(req); err != nil {
		s.respondError(w, r, err)
		return
	}
	if _, err := domain.ValidateRating(req.Rating); err != nil {
		s.respondError(w, r, err)
		return
	}

	title, err := s.resolver.Materialize(r.Context(), req.TitleID)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	vote, err := s.votes.Insert(r.Context(), voter, title.ID, req.Rating)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.reports.Invalidate(r.Context())

	s.respondJSON(w, http.StatusCreated, insertVoteResponse{
		Success: true,
		Vote: voteResponse{
			UserID:    vote.UserID,
			TitleID:   vote.TitleID,
			Rating:    vote.Rating,
			CreatedAt: vote.CreatedAt,
			UpdatedAt: vote.UpdatedAt,
		},
	})
}

func (s *Server) handleUserVotes(w http.ResponseWriter, r *http.Request) {
	userID := strings.TrimSpace(chi.URLParam(r, "id"))
	if userID == "" || len(userID) > 128 {
		s.respondError(w, r, fmt.Errorf("%w: invalid user id", domain.ErrInvalidInput))
		return
	}
	history, err := s.votes.History(r.Context(), userID)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	resp := make([]userVoteResponse, 0, len(history))
	for _, v := range history {
		resp = append(resp, userVoteResponse{
			TitleID:   v.Title.ID,
			Rating:    v.Rating,
			CreatedAt: v.CreatedAt,
			UpdatedAt: v.UpdatedAt,
			Title:     toTitleRefResponse(v.Title),
		})
	}
	s.respondJSON(w, http.StatusOK, resp)
}

func toTitleRefResponse(t domain.TitleRef) titleRefResponse {
	return titleRefResponse{ID: t.ID, Name: t.Name, Genre: t.Genre, ImageURL: t.ImageURL}
}
