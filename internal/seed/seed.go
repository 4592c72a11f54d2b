// Package seed holds the fixed starter catalog.
package seed

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/Clark-Hu/cinerank/internal/domain"
)

// Catalog is the subset of the title catalog needed to seed it.
type Catalog interface {
	Count(ctx context.Context) (int64, error)
	Create(ctx context.Context, params domain.NewTitle) (domain.Title, error)
}

// Labeler renders an upstream genre code in the display locale.
type Labeler interface {
	Label(code int) string
}

// Upstream genre codes used by the starter catalog.
const (
	genreAction  = 28
	genreComedy  = 35
	genreCrime   = 80
	genreDrama   = 18
	genreFantasy = 14
	genreHorror  = 27
	genreSciFi   = 878
)

// Starter is one starter catalog entry. GenreID is an upstream genre code,
// labeled at load time in the display locale.
type Starter struct {
	Name        string
	Description string
	GenreID     int
	ImageURL    *string
}

func image(url string) *string { return &url }

// Starters is the starter catalog in insertion order.
var Starters = []Starter{
	{
		Name:        "Breaking Bad",
		Description: "A high school chemistry teacher turned methamphetamine producer partners with a former student to secure his family's financial future.",
		GenreID:     genreDrama,
		ImageURL:    image("https://images.unsplash.com/photo-1596727147705-61a532a659bd?w=400&h=600&fit=crop"),
	},
	{
		Name:        "The Godfather",
		Description: "The aging patriarch of an organized crime dynasty transfers control of his clandestine empire to his reluctant son.",
		GenreID:     genreDrama,
		ImageURL:    image("https://images.unsplash.com/photo-1489599735522-40047885dc90?w=400&h=600&fit=crop"),
	},
	{
		Name:        "Inception",
		Description: "A skilled thief is given the chance to have his criminal history erased as payment for implanting an idea in a CEO's mind.",
		GenreID:     genreSciFi,
		ImageURL:    image("https://images.unsplash.com/photo-1440404653325-ab127d49abc1?w=400&h=600&fit=crop"),
	},
	{
		Name:        "The Dark Knight",
		Description: "Batman faces his greatest challenge when the Joker wreaks havoc and chaos on the people of Gotham.",
		GenreID:     genreAction,
		ImageURL:    image("https://images.unsplash.com/photo-1635863138275-d9864d528cd5?w=400&h=600&fit=crop"),
	},
	{
		Name:        "Game of Thrones",
		Description: "Nine noble families fight for control over the lands of Westeros, while an ancient enemy returns after millennia.",
		GenreID:     genreFantasy,
		ImageURL:    image("https://images.unsplash.com/photo-1518709268805-4e9042af2176?w=400&h=600&fit=crop"),
	},
	{
		Name:        "Stranger Things",
		Description: "When a young boy disappears, his mother, a police chief and his friends must confront terrifying supernatural forces.",
		GenreID:     genreHorror,
		ImageURL:    image("https://images.unsplash.com/photo-1507924538820-ede94a04019d?w=400&h=600&fit=crop"),
	},
	{
		Name:        "Pulp Fiction",
		Description: "The lives of two mob hitmen, a boxer, a gangster and his wife intertwine in four tales of violence and redemption.",
		GenreID:     genreCrime,
		ImageURL:    image("https://images.unsplash.com/photo-1542204165-65bf26472b9b?w=400&h=600&fit=crop"),
	},
	{
		Name:        "The Office",
		Description: "A mockumentary on a group of typical office workers, where the workday consists of ego clashes and inappropriate behavior.",
		GenreID:     genreComedy,
		ImageURL:    image("https://images.unsplash.com/photo-1497032628192-86f99bcd76bc?w=400&h=600&fit=crop"),
	},
	{
		Name:        "Avatar",
		Description: "A paraplegic Marine dispatched to the moon Pandora on a unique mission becomes torn between following orders and protecting an alien civilization.",
		GenreID:     genreSciFi,
		ImageURL:    image("https://images.unsplash.com/photo-1506905925346-21bda4d32df4?w=400&h=600&fit=crop"),
	},
	{
		Name:        "Friends",
		Description: "Follows the personal and professional lives of six twenty to thirty-something-year-old friends living in Manhattan.",
		GenreID:     genreComedy,
		ImageURL:    image("https://images.unsplash.com/photo-1522202176988-66273c2fd55f?w=400&h=600&fit=crop"),
	},
}

// Titles labels the starter catalog with genres.
func Titles(genres Labeler) []domain.NewTitle {
	titles := make([]domain.NewTitle, 0, len(Starters))
	for _, st := range Starters {
		titles = append(titles, domain.NewTitle{
			Kind:        domain.KindLocal,
			Name:        st.Name,
			Description: st.Description,
			Genre:       genres.Label(st.GenreID),
			ImageURL:    st.ImageURL,
		})
	}
	return titles
}

// Load inserts the starter titles when the catalog is empty and reports how
// many rows it created. A non-empty catalog is left untouched.
func Load(ctx context.Context, catalog Catalog, genres Labeler, logger zerolog.Logger) (int, error) {
	n, err := catalog.Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("count titles: %w", err)
	}
	if n > 0 {
		logger.Info().Int64("titles", n).Msg("catalog already populated, skipping seed")
		return 0, nil
	}
	titles := Titles(genres)
	for i, params := range titles {
		if _, err := catalog.Create(ctx, params); err != nil {
			return i, fmt.Errorf("seed %q: %w", params.Name, err)
		}
	}
	logger.Info().Int("titles", len(titles)).Msg("catalog seeded")
	return len(titles), nil
}
