// Package i18n holds the display-locale tables: genre labels and user-facing
// error messages.
package i18n

import (
	"strings"

	"golang.org/x/text/language"
)

var (
	PortugueseBR = language.BrazilianPortuguese
	EnglishUS    = language.AmericanEnglish
)

var matcher = language.NewMatcher([]language.Tag{PortugueseBR, EnglishUS})

// Match resolves a locale string to one of the supported tags. Unknown or
// malformed locales fall back to Brazilian Portuguese.
func Match(locale string) language.Tag {
	tags, _, err := language.ParseAcceptLanguage(locale)
	if err != nil || len(tags) == 0 {
		return PortugueseBR
	}
	_, idx, conf := matcher.Match(tags...)
	if conf == language.No {
		return PortugueseBR
	}
	if idx == 1 {
		return EnglishUS
	}
	return PortugueseBR
}

// Genres translates upstream numeric genre codes into display labels.
type Genres struct {
	tag     language.Tag
	labels  map[int]string
	unknown string
}

// NewGenres returns the translator for locale.
func NewGenres(locale string) Genres {
	tag := Match(locale)
	if tag == EnglishUS {
		return Genres{tag: tag, labels: genresEN, unknown: "Unknown"}
	}
	return Genres{tag: tag, labels: genresPT, unknown: "Desconhecido"}
}

// Label returns the display label for code, or the unknown sentinel.
func (g Genres) Label(code int) string {
	if label, ok := g.labels[code]; ok {
		return label
	}
	return g.Unknown()
}

// Unknown is the sentinel label for codes outside the table.
func (g Genres) Unknown() string {
	if g.unknown == "" {
		return "Desconhecido"
	}
	return g.unknown
}

// Tag is the resolved locale.
func (g Genres) Tag() language.Tag {
	return g.tag
}

// GenreSlug resolves a browse filter slug such as "horror" to a genre code.
func GenreSlug(slug string) (int, bool) {
	code, ok := genreSlugs[strings.ToLower(strings.TrimSpace(slug))]
	return code, ok
}

var genreSlugs = map[string]int{
	"action":    28,
	"adventure": 12,
	"animation": 16,
	"comedy":    35,
	"crime":     80,
	"drama":     18,
	"fantasy":   14,
	"horror":    27,
	"mystery":   9648,
	"romance":   10749,
	"thriller":  53,
	"scifi":     878,
	"family":    10751,
	"war":       10752,
}

var genresPT = map[int]string{
	28:    "Ação",
	12:    "Aventura",
	16:    "Animação",
	35:    "Comédia",
	80:    "Crime",
	99:    "Documentário",
	18:    "Drama",
	10751: "Família",
	14:    "Fantasia",
	36:    "História",
	27:    "Terror",
	10402: "Música",
	9648:  "Mistério",
	10749: "Romance",
	878:   "Ficção Científica",
	10770: "Cinema TV",
	53:    "Thriller",
	10752: "Guerra",
	37:    "Western",
	10759: "Ação & Aventura",
	10762: "Kids",
	10763: "News",
	10764: "Reality",
	10765: "Sci-Fi & Fantasy",
	10766: "Soap",
	10767: "Talk",
	10768: "War & Politics",
}

var genresEN = map[int]string{
	28:    "Action",
	12:    "Adventure",
	16:    "Animation",
	35:    "Comedy",
	80:    "Crime",
	99:    "Documentary",
	18:    "Drama",
	10751: "Family",
	14:    "Fantasy",
	36:    "History",
	27:    "Horror",
	10402: "Music",
	9648:  "Mystery",
	10749: "Romance",
	878:   "Science Fiction",
	10770: "TV Movie",
	53:    "Thriller",
	10752: "War",
	37:    "Western",
	10759: "Action & Adventure",
	10762: "Kids",
	10763: "News",
	10764: "Reality",
	10765: "Sci-Fi & Fantasy",
	10766: "Soap",
	10767: "Talk",
	10768: "War & Politics",
}
