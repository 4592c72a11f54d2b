package domain

import (
	"fmt"
	"math"
	"time"
)

const (
	MinRating = 1
	MaxRating = 5
)

// Voter is the authenticated principal casting a vote.
type Voter struct {
	ID    string
	Email string
}

// Vote is one user's current rating for one title.
type Vote struct {
	UserID    string
	TitleID   string
	Rating    int
	CreatedAt time.Time
	UpdatedAt time.Time
}

// VoteSummary is the derived aggregate for a title.
type VoteSummary struct {
	Average       float64
	TotalVotes    int64
	RequesterVote *int
}

// Submission is the outcome of a replace-in-place vote.
type Submission struct {
	Average    float64
	TotalVotes int64
	YourRating int
	Created    bool
}

// UserVote is an entry of a user's vote history.
type UserVote struct {
	Title     TitleRef
	Rating    int
	CreatedAt time.Time
	UpdatedAt time.Time
}

// DayVotes is the number of votes cast on a UTC calendar day (YYYY-MM-DD).
type DayVotes struct {
	Day   string
	Votes int64
}

// GenreVotes is the total number of votes over titles sharing a genre label.
type GenreVotes struct {
	Genre string
	Votes int64
}

// Totals holds the global catalog counters.
type Totals struct {
	Titles int64
	Votes  int64
	Voters int64
}

// ValidateRating accepts only integral values in [MinRating, MaxRating].
// A nil rating is treated as absent.
func ValidateRating(rating *float64) (int, error) {
	if rating == nil {
		return 0, fmt.Errorf("%w: rating is required", ErrInvalidRating)
	}
	v := *rating
	if math.IsNaN(v) || math.IsInf(v, 0) || v != math.Trunc(v) {
		return 0, fmt.Errorf("%w: rating must be an integer", ErrInvalidRating)
	}
	if v < MinRating || v > MaxRating {
		return 0, fmt.Errorf("%w: rating must be between %d and %d", ErrInvalidRating, MinRating, MaxRating)
	}
	return int(v), nil
}

// CheckRating validates an already integral rating.
func CheckRating(rating int) error {
	if rating < MinRating || rating > MaxRating {
		return fmt.Errorf("%w: rating must be between %d and %d", ErrInvalidRating, MinRating, MaxRating)
	}
	return nil
}
