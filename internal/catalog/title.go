package catalog

import (
	"strings"

	"github.com/Clark-Hu/cinerank/internal/domain"
)

// Title is a normalized upstream record. Kind states explicitly whether it is
// a movie or a series.
type Title struct {
	Kind        domain.Kind
	ID          int64
	Name        string
	Overview    string
	PosterURL   *string
	BackdropURL *string
	ReleaseDate string
	Rating      float64
	VoteCount   int64
	GenreIDs    []int
	Genres      []string
	Genre       string
	Runtime     *int
	Seasons     *int
}

// NewTitle converts the record into the fields stored when it is materialized
// in the local catalog.
func (t Title) NewTitle() domain.NewTitle {
	id := t.ID
	return domain.NewTitle{
		Kind:        t.Kind,
		ExternalID:  &id,
		Name:        t.Name,
		Description: t.Overview,
		Genre:       t.Genre,
		ImageURL:    t.PosterURL,
		BackdropURL: t.BackdropURL,
	}
}

// ReleaseYear extracts the year from ReleaseDate, or 0.
func (t Title) ReleaseYear() int {
	if len(t.ReleaseDate) < 4 {
		return 0
	}
	year := 0
	for _, r := range t.ReleaseDate[:4] {
		if r < '0' || r > '9' {
			return 0
		}
		year = year*10 + int(r-'0')
	}
	return year
}

// Page is one page of upstream results.
type Page struct {
	Results      []Title
	Page         int
	TotalPages   int
	TotalResults int
}

type listPayload struct {
	Page         int             `json:"page"`
	Results      []recordPayload `json:"results"`
	TotalPages   int             `json:"total_pages"`
	TotalResults int             `json:"total_results"`
}

type genrePayload struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

type recordPayload struct {
	ID              int64          `json:"id"`
	MediaType       string         `json:"media_type"`
	Title           string         `json:"title"`
	Name            string         `json:"name"`
	Overview        string         `json:"overview"`
	PosterPath      *string        `json:"poster_path"`
	BackdropPath    *string        `json:"backdrop_path"`
	ReleaseDate     string         `json:"release_date"`
	FirstAirDate    string         `json:"first_air_date"`
	VoteAverage     float64        `json:"vote_average"`
	VoteCount       int64          `json:"vote_count"`
	GenreIDs        []int          `json:"genre_ids"`
	Genres          []genrePayload `json:"genres"`
	Runtime         *int           `json:"runtime"`
	EpisodeRunTime  []int          `json:"episode_run_time"`
	NumberOfSeasons *int           `json:"number_of_seasons"`
}

func (c *HTTPClient) convert(kind domain.Kind, rec recordPayload) Title {
	return convertRecord(kind, rec, c.genres, c.imageURL)
}

// convertRecord picks name and date fields by kind and resolves genre labels.
func convertRecord(kind domain.Kind, rec recordPayload, genres GenreLabeler, imageBase string) Title {
	t := Title{
		Kind:        kind,
		ID:          rec.ID,
		Overview:    rec.Overview,
		PosterURL:   imageURL(imageBase, rec.PosterPath),
		BackdropURL: imageURL(imageBase, rec.BackdropPath),
		Rating:      rec.VoteAverage,
		VoteCount:   rec.VoteCount,
	}

	if kind == domain.KindSeries {
		t.Name = rec.Name
		t.ReleaseDate = rec.FirstAirDate
		t.Seasons = rec.NumberOfSeasons
		if len(rec.EpisodeRunTime) > 0 {
			rt := rec.EpisodeRunTime[0]
			t.Runtime = &rt
		}
	} else {
		t.Name = rec.Title
		t.ReleaseDate = rec.ReleaseDate
		t.Runtime = rec.Runtime
	}

	ids := rec.GenreIDs
	if len(ids) == 0 {
		for _, g := range rec.Genres {
			ids = append(ids, g.ID)
		}
	}
	t.GenreIDs = ids
	t.Genres = make([]string, 0, len(ids))
	for _, id := range ids {
		t.Genres = append(t.Genres, genres.Label(id))
	}
	if len(t.Genres) > 0 {
		t.Genre = t.Genres[0]
	} else {
		t.Genre = genres.Label(0)
	}
	return t
}

func imageURL(base string, path *string) *string {
	if path == nil || strings.TrimSpace(*path) == "" {
		return nil
	}
	p := *path
	if strings.HasPrefix(p, "http://") || strings.HasPrefix(p, "https://") {
		return &p
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	full := base + p
	return &full
}
