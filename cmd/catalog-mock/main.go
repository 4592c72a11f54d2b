// Command catalog-mock serves a fixed upstream catalog with the same paths
// and payload shapes as the real metadata service, for local runs and tests.
package main

import (
	"flag"
	"net/http"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/Clark-Hu/cinerank/internal/logging"
)

type record struct {
	ID           int64   `json:"id"`
	MediaType    string  `json:"media_type,omitempty"`
	Title        string  `json:"title,omitempty"`
	Name         string  `json:"name,omitempty"`
	Overview     string  `json:"overview"`
	PosterPath   *string `json:"poster_path"`
	BackdropPath *string `json:"backdrop_path"`
	ReleaseDate  string  `json:"release_date,omitempty"`
	FirstAirDate string  `json:"first_air_date,omitempty"`
	VoteAverage  float64 `json:"vote_average"`
	VoteCount    int64   `json:"vote_count"`
	Popularity   float64 `json:"popularity"`
	GenreIDs     []int   `json:"genre_ids"`
	Runtime      *int    `json:"runtime,omitempty"`
}

type fixture struct {
	Movies []record `json:"movies"`
	Series []record `json:"series"`
}

type listing struct {
	Page         int      `json:"page"`
	Results      []record `json:"results"`
	TotalPages   int      `json:"total_pages"`
	TotalResults int      `json:"total_results"`
}

const pageSize = 20

func main() {
	var (
		port    = flag.String("port", "9099", "port to listen on")
		data    = flag.String("data", "cmd/catalog-mock/catalog.json", "path to mock data file")
		verbose = flag.Bool("log", false, "enable request logging")
	)
	flag.Parse()

	logging.Init(logging.Config{Level: "info", Format: "console"})
	logger := logging.WithComponent("catalog-mock")

	file, err := os.ReadFile(*data)
	if err != nil {
		logger.Fatal().Err(err).Msg("read mock data")
	}
	var payload fixture
	if err := json.Unmarshal(file, &payload); err != nil {
		logger.Fatal().Err(err).Msg("parse mock data")
	}

	addr := ":" + *port
	logger.Info().Str("addr", addr).Int("movies", len(payload.Movies)).Int("series", len(payload.Series)).Msg("mock catalog listening")
	if err := http.ListenAndServe(addr, newRouter(payload, *verbose, logger)); err != nil {
		logger.Fatal().Err(err).Msg("server error")
	}
}

func newRouter(payload fixture, verbose bool, logger zerolog.Logger) http.Handler {
	r := chi.NewRouter()
	if verbose {
		r.Use(func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
				logger.Info().Str("method", req.Method).Str("uri", req.URL.RequestURI()).Msg("request")
				next.ServeHTTP(w, req)
			})
		})
	}
	r.Use(middleware.Recoverer)

	r.Route("/3", func(r chi.Router) {
		r.Get("/movie/{id:[0-9]+}", detail(payload.Movies))
		r.Get("/tv/{id:[0-9]+}", detail(payload.Series))
		r.Get("/movie/{category}", ranked(payload.Movies))
		r.Get("/tv/{category}", ranked(payload.Series))
		r.Get("/discover/movie", discover(payload.Movies))
		r.Get("/discover/tv", discover(payload.Series))
		r.Get("/search/multi", search(payload))
	})
	return r
}

func detail(records []record) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, _ := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
		for _, rec := range records {
			if rec.ID == id {
				writeJSON(w, http.StatusOK, rec)
				return
			}
		}
		writeJSON(w, http.StatusNotFound, map[string]any{"status_code": 34, "status_message": "The resource you requested could not be found."})
	}
}

func ranked(records []record) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sorted := append([]record(nil), records...)
		switch chi.URLParam(r, "category") {
		case "popular":
			sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Popularity > sorted[j].Popularity })
		case "top_rated":
			sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].VoteAverage > sorted[j].VoteAverage })
		default:
			writeJSON(w, http.StatusNotFound, map[string]any{"status_code": 34})
			return
		}
		writeJSON(w, http.StatusOK, paginate(sorted, r))
	}
}

func discover(records []record) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		genre, _ := strconv.Atoi(r.URL.Query().Get("with_genres"))
		matched := make([]record, 0)
		for _, rec := range records {
			for _, g := range rec.GenreIDs {
				if g == genre {
					matched = append(matched, rec)
					break
				}
			}
		}
		sort.SliceStable(matched, func(i, j int) bool { return matched[i].Popularity > matched[j].Popularity })
		writeJSON(w, http.StatusOK, paginate(matched, r))
	}
}

func search(payload fixture) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := strings.ToLower(strings.TrimSpace(r.URL.Query().Get("query")))
		matched := make([]record, 0)
		for _, rec := range payload.Movies {
			if q != "" && strings.Contains(strings.ToLower(rec.Title), q) {
				rec.MediaType = "movie"
				matched = append(matched, rec)
			}
		}
		for _, rec := range payload.Series {
			if q != "" && strings.Contains(strings.ToLower(rec.Name), q) {
				rec.MediaType = "tv"
				matched = append(matched, rec)
			}
		}
		writeJSON(w, http.StatusOK, paginate(matched, r))
	}
}

func paginate(records []record, r *http.Request) listing {
	page, err := strconv.Atoi(r.URL.Query().Get("page"))
	if err != nil || page < 1 {
		page = 1
	}
	start := min((page-1)*pageSize, len(records))
	end := min(start+pageSize, len(records))
	return listing{
		Page:         page,
		Results:      records[start:end],
		TotalPages:   max(1, (len(records)+pageSize-1)/pageSize),
		TotalResults: len(records),
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
