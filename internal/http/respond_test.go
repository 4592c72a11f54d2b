package httpserver

import (
	"errors"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"strings"
	"testing"

	"github.com/Clark-Hu/cinerank/internal/domain"
)

func TestRoundToOneDecimal(t *testing.T) {
	tests := []struct {
		name  string
		value float64
		want  float64
	}{
		{"zero", 0, 0},
		{"round-up", 3.75, 3.8},
		{"round-down", 2.74, 2.7},
		{"exact", 4.5, 4.5},
		{"thirds", 11.0 / 3.0, 3.7},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := roundToOneDecimal(tt.value)
			if math.Abs(got-tt.want) > 0.0001 {
				t.Fatalf("roundToOneDecimal(%v) = %v, want %v", tt.value, got, tt.want)
			}
		})
	}
}

func TestClassify(t *testing.T) {
	cases := []struct {
		err    error
		status int
		code   string
	}{
		{domain.ErrInvalidRating, http.StatusBadRequest, "INVALID_INPUT"},
		{domain.ErrUnauthenticated, http.StatusUnauthorized, "UNAUTHENTICATED"},
		{fmt.Errorf("get title: %w", domain.ErrNotFound), http.StatusNotFound, "NOT_FOUND"},
		{domain.ErrConflict, http.StatusConflict, "CONFLICT"},
		{domain.ErrUpstreamUnavailable, http.StatusInternalServerError, "UPSTREAM_UNAVAILABLE"},
		{domain.ErrInternal, http.StatusInternalServerError, "INTERNAL"},
		{errors.New("unexpected"), http.StatusInternalServerError, "INTERNAL"},
	}
	for _, c := range cases {
		status, code := classify(c.err)
		if status != c.status || code != c.code {
			t.Fatalf("classify(%v) = %d %s, want %d %s", c.err, status, code, c.status, c.code)
		}
	}
}

func TestBuildBrowseQuery(t *testing.T) {
	values, _ := url.ParseQuery("type= Top_Rated &genre=Horror&page=3")

	q, err := buildBrowseQuery(values)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if q.Type != "top_rated" || q.Genre != "horror" || q.Page != 3 {
		t.Fatalf("unexpected query: %+v", q)
	}

	defaults, err := buildBrowseQuery(url.Values{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if defaults.Page != 1 {
		t.Fatalf("default page = %d, want 1", defaults.Page)
	}
}

func TestBuildBrowseQuery_Invalid(t *testing.T) {
	for _, raw := range []string{"page=abc", "page=0", "type=upcoming", "page=9999"} {
		values, _ := url.ParseQuery(raw)
		if _, err := buildBrowseQuery(values); !errors.Is(err, domain.ErrInvalidInput) {
			t.Fatalf("buildBrowseQuery(%q) err = %v, want invalid input", raw, err)
		}
	}
}

func TestBuildPageQueryReportsField(t *testing.T) {
	values, _ := url.ParseQuery("limit=51")
	_, err := buildPageQuery(values)
	if !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
	if want := "limit must satisfy max=50"; !strings.Contains(err.Error(), want) {
		t.Fatalf("error %q does not mention %q", err, want)
	}
}
