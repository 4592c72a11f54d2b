package domain

import "time"

// Kind tags where a title came from in the upstream catalog.
type Kind string

const (
	// KindLocal marks titles that exist only in the local catalog (seeded).
	KindLocal  Kind = ""
	KindMovie  Kind = "movie"
	KindSeries Kind = "series"
)

// Valid reports whether k is one of the known kinds.
func (k Kind) Valid() bool {
	switch k {
	case KindLocal, KindMovie, KindSeries:
		return true
	}
	return false
}

// Title is a votable entity as stored in the local catalog.
type Title struct {
	ID          string
	Kind        Kind
	ExternalID  *int64
	Name        string
	Description string
	Genre       string
	ImageURL    *string
	BackdropURL *string
	CreatedAt   time.Time
}

// TitleRef is the compact projection of a title used in listings.
type TitleRef struct {
	ID       string
	Name     string
	Genre    string
	ImageURL *string
}

// Ref returns the listing projection of t.
func (t Title) Ref() TitleRef {
	return TitleRef{ID: t.ID, Name: t.Name, Genre: t.Genre, ImageURL: t.ImageURL}
}

// NewTitle carries the fields required to add a title to the catalog.
type NewTitle struct {
	Kind        Kind
	ExternalID  *int64
	Name        string
	Description string
	Genre       string
	ImageURL    *string
	BackdropURL *string
}

// TitleVotes pairs a title with the number of votes it has received.
type TitleVotes struct {
	Title TitleRef
	Votes int64
}

// TitlePage is one page of the local catalog ordered by vote count.
type TitlePage struct {
	Items      []TitleVotes
	Page       int
	Limit      int
	TotalCount int64
}

// TotalPages derives the page count from TotalCount and Limit.
func (p TitlePage) TotalPages() int {
	if p.Limit <= 0 {
		return 0
	}
	return int((p.TotalCount + int64(p.Limit) - 1) / int64(p.Limit))
}
