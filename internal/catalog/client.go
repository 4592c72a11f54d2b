package catalog

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/go-querystring/query"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/Clark-Hu/cinerank/internal/domain"
	"github.com/Clark-Hu/cinerank/internal/metrics"
)

const maxResponseBody = 4 << 20 // 4 MiB

// Category selects a curated upstream listing.
type Category string

const (
	CategoryPopular  Category = "popular"
	CategoryTopRated Category = "top_rated"
)

// ParseCategory validates a category name; empty means popular.
func ParseCategory(raw string) (Category, error) {
	switch c := Category(strings.ToLower(strings.TrimSpace(raw))); c {
	case "":
		return CategoryPopular, nil
	case CategoryPopular, CategoryTopRated:
		return c, nil
	default:
		return "", fmt.Errorf("%w: unknown category %q", domain.ErrInvalidInput, raw)
	}
}

// GenreLabeler turns genre codes into display labels.
type GenreLabeler interface {
	Label(code int) string
}

// Client defines the contract for querying the upstream catalog service.
type Client interface {
	GetByID(ctx context.Context, id int64) (Title, error)
	Search(ctx context.Context, q string, page int) (Page, error)
	ListByCategory(ctx context.Context, category Category, page int) (Page, error)
	ListByGenre(ctx context.Context, genreID int, page int) (Page, error)
}

// Options configures an HTTPClient.
type Options struct {
	BaseURL      string
	Token        string
	ImageBaseURL string
	Locale       string
	Timeout      time.Duration
	Genres       GenreLabeler
	Logger       zerolog.Logger
	Breaker      BreakerSettings
}

// HTTPClient implements Client over HTTP.
type HTTPClient struct {
	baseURL  *url.URL
	token    string
	imageURL string
	locale   string
	timeout  time.Duration
	genres   GenreLabeler
	client   *http.Client
	breaker  *breaker
	logger   zerolog.Logger
}

// NewHTTPClient constructs a new HTTP-backed catalog client.
func NewHTTPClient(opts Options) (*HTTPClient, error) {
	parsed, err := url.Parse(strings.TrimRight(opts.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse catalog url: %w", err)
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		return nil, fmt.Errorf("catalog url %q must be absolute", opts.BaseURL)
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 5 * time.Second
	}
	if opts.Genres == nil {
		return nil, errors.New("catalog genre labeler is required")
	}
	logger := opts.Logger.With().Str("component", "catalog").Logger()

	return &HTTPClient{
		baseURL:  parsed,
		token:    opts.Token,
		imageURL: strings.TrimRight(opts.ImageBaseURL, "/"),
		locale:   opts.Locale,
		timeout:  opts.Timeout,
		genres:   opts.Genres,
		client: &http.Client{
			Timeout: opts.Timeout,
			Transport: &http.Transport{
				Proxy: http.ProxyFromEnvironment,
				DialContext: (&net.Dialer{
					Timeout:   opts.Timeout,
					KeepAlive: 30 * time.Second,
				}).DialContext,
				TLSHandshakeTimeout:   opts.Timeout,
				ResponseHeaderTimeout: opts.Timeout,
				ExpectContinueTimeout: 1 * time.Second,
				MaxIdleConnsPerHost:   10,
			},
		},
		breaker: newBreaker("catalog", opts.Breaker, logger),
		logger:  logger,
	}, nil
}

type pageParams struct {
	Page int `url:"page,omitempty"`
}

type searchParams struct {
	Query        string `url:"query"`
	Page         int    `url:"page,omitempty"`
	IncludeAdult bool   `url:"include_adult"`
}

type discoverParams struct {
	WithGenres int    `url:"with_genres"`
	Page       int    `url:"page,omitempty"`
	SortBy     string `url:"sort_by,omitempty"`
}

// GetByID fetches a title by upstream id. Movies are tried first, then series;
// ErrNotFound is returned only when both kinds report the id as missing.
func (c *HTTPClient) GetByID(ctx context.Context, id int64) (Title, error) {
	if id <= 0 {
		return Title{}, fmt.Errorf("%w: upstream id must be positive", domain.ErrInvalidInput)
	}

	var rec recordPayload
	err := c.fetch(ctx, "movie_detail", "/movie/"+strconv.FormatInt(id, 10), nil, &rec)
	if err == nil {
		return c.convert(domain.KindMovie, rec), nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return Title{}, err
	}

	rec = recordPayload{}
	err = c.fetch(ctx, "tv_detail", "/tv/"+strconv.FormatInt(id, 10), nil, &rec)
	if err != nil {
		return Title{}, err
	}
	return c.convert(domain.KindSeries, rec), nil
}

// Search runs a multi search. Results tagged as people are dropped.
func (c *HTTPClient) Search(ctx context.Context, q string, page int) (Page, error) {
	q = strings.TrimSpace(q)
	if q == "" {
		return Page{}, fmt.Errorf("%w: query is required", domain.ErrInvalidInput)
	}

	var payload listPayload
	if err := c.fetch(ctx, "search", "/search/multi", searchParams{Query: q, Page: normalizePage(page)}, &payload); err != nil {
		return Page{}, listingError(err)
	}

	results := make([]Title, 0, len(payload.Results))
	for _, rec := range payload.Results {
		kind, ok := kindFromMediaType(rec.MediaType)
		if !ok {
			continue
		}
		results = append(results, c.convert(kind, rec))
	}
	return Page{
		Results:      results,
		Page:         payload.Page,
		TotalPages:   payload.TotalPages,
		TotalResults: payload.TotalResults,
	}, nil
}

// ListByCategory merges the movie and series listings for category.
func (c *HTTPClient) ListByCategory(ctx context.Context, category Category, page int) (Page, error) {
	if _, err := ParseCategory(string(category)); err != nil {
		return Page{}, err
	}
	params := pageParams{Page: normalizePage(page)}
	return c.merged(ctx,
		request{endpoint: "movie_" + string(category), path: "/movie/" + string(category), params: params},
		request{endpoint: "tv_" + string(category), path: "/tv/" + string(category), params: params},
	)
}

// ListByGenre merges movie and series discovery results for a genre code.
func (c *HTTPClient) ListByGenre(ctx context.Context, genreID int, page int) (Page, error) {
	if genreID <= 0 {
		return Page{}, fmt.Errorf("%w: genre id must be positive", domain.ErrInvalidInput)
	}
	p := normalizePage(page)
	return c.merged(ctx,
		request{endpoint: "discover_movie", path: "/discover/movie", params: discoverParams{WithGenres: genreID, Page: p, SortBy: "popularity.desc"}},
		request{endpoint: "discover_tv", path: "/discover/tv", params: discoverParams{WithGenres: seriesGenre(genreID), Page: p, SortBy: "popularity.desc"}},
	)
}

type request struct {
	endpoint string
	path     string
	params   any
}

// merged fetches page N of the movie and series listings concurrently and
// returns all of both, ordered by upstream rating.
func (c *HTTPClient) merged(ctx context.Context, movies, series request) (Page, error) {
	var moviePage, seriesPage listPayload

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return c.fetch(gctx, movies.endpoint, movies.path, movies.params, &moviePage)
	})
	g.Go(func() error {
		return c.fetch(gctx, series.endpoint, series.path, series.params, &seriesPage)
	})
	if err := g.Wait(); err != nil {
		return Page{}, listingError(err)
	}

	results := make([]Title, 0, len(moviePage.Results)+len(seriesPage.Results))
	for _, rec := range moviePage.Results {
		results = append(results, c.convert(domain.KindMovie, rec))
	}
	for _, rec := range seriesPage.Results {
		results = append(results, c.convert(domain.KindSeries, rec))
	}
	sort.SliceStable(results, func(i, j int) bool { return results[i].Rating > results[j].Rating })

	return Page{
		Results:      results,
		Page:         max(moviePage.Page, seriesPage.Page),
		TotalPages:   max(moviePage.TotalPages, seriesPage.TotalPages),
		TotalResults: moviePage.TotalResults + seriesPage.TotalResults,
	}, nil
}

// fetch performs a GET through the circuit breaker and decodes the JSON body into dst.
func (c *HTTPClient) fetch(ctx context.Context, endpoint, path string, params any, dst any) error {
	start := time.Now()
	body, err := c.breaker.execute(func() ([]byte, error) {
		return c.get(ctx, path, params)
	})
	outcome := "ok"
	switch {
	case err == nil:
	case errors.Is(err, domain.ErrNotFound):
		outcome = "not_found"
	case errors.Is(err, context.Canceled):
		outcome = "canceled"
	default:
		outcome = "error"
	}
	metrics.RecordCatalogRequest(endpoint, outcome, time.Since(start))
	if err != nil {
		if outcome == "error" {
			c.logger.Warn().Err(err).Str("endpoint", endpoint).Str("path", path).Msg("catalog request failed")
		}
		return err
	}

	if err := json.Unmarshal(body, dst); err != nil {
		c.logger.Warn().Err(err).Str("endpoint", endpoint).Msg("decode catalog response")
		return fmt.Errorf("%w: decode %s response: %v", domain.ErrUpstreamUnavailable, endpoint, err)
	}
	return nil
}

func (c *HTTPClient) get(ctx context.Context, path string, params any) ([]byte, error) {
	endpoint, err := c.buildURL(path, params)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		if errors.Is(ctx.Err(), context.Canceled) {
			return nil, fmt.Errorf("catalog request %s: %w", path, context.Canceled)
		}
		return nil, fmt.Errorf("%w: %v", domain.ErrUpstreamUnavailable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
		body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
		if err != nil {
			return nil, fmt.Errorf("%w: read body: %v", domain.ErrUpstreamUnavailable, err)
		}
		return body, nil
	case resp.StatusCode == http.StatusNotFound:
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxResponseBody))
		return nil, domain.ErrNotFound
	default:
		return nil, fmt.Errorf("%w: upstream returned %d", domain.ErrUpstreamUnavailable, resp.StatusCode)
	}
}

// buildURL resolves path against the base URL and appends the encoded params
// plus the display language.
func (c *HTTPClient) buildURL(path string, params any) (string, error) {
	u := *c.baseURL
	u.Path = c.baseURL.Path + path

	q := url.Values{}
	if params != nil {
		v, err := query.Values(params)
		if err != nil {
			return "", fmt.Errorf("encode query parameters: %w", err)
		}
		q = v
	}
	if c.locale != "" {
		q.Set("language", c.locale)
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// listingError reports a missing listing endpoint as an upstream failure;
// only single-title lookups can legitimately be not found.
func listingError(err error) error {
	if errors.Is(err, domain.ErrNotFound) {
		return fmt.Errorf("%w: listing endpoint not found", domain.ErrUpstreamUnavailable)
	}
	return err
}

func kindFromMediaType(mediaType string) (domain.Kind, bool) {
	switch mediaType {
	case "movie":
		return domain.KindMovie, true
	case "tv":
		return domain.KindSeries, true
	default:
		return "", false
	}
}

// seriesGenre maps movie genre codes onto their series counterparts where the
// upstream uses a different code for series.
func seriesGenre(movieGenre int) int {
	switch movieGenre {
	case 28, 12:
		return 10759
	case 878, 14:
		return 10765
	case 10752:
		return 10768
	default:
		return movieGenre
	}
}

func normalizePage(page int) int {
	if page < 1 {
		return 1
	}
	return page
}
