package httpserver

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Clark-Hu/cinerank/internal/auth"
	"github.com/Clark-Hu/cinerank/internal/catalog"
	"github.com/Clark-Hu/cinerank/internal/config"
	"github.com/Clark-Hu/cinerank/internal/domain"
	"github.com/Clark-Hu/cinerank/internal/report"
	"github.com/Clark-Hu/cinerank/internal/votes"
)

const testSecret = "handler-test-secret"

// fakeCatalog serves canned upstream records.
type fakeCatalog struct {
	titles       map[int64]catalog.Title
	err          error
	lastGenre    int
	lastCategory catalog.Category
	lastQuery    string
}

func newFakeCatalog() *fakeCatalog {
	seasons := 5
	return &fakeCatalog{titles: map[int64]catalog.Title{
		1396: {
			Kind: domain.KindSeries, ID: 1396, Name: "Breaking Bad", Overview: "Walter White.",
			ReleaseDate: "2008-01-20", Seasons: &seasons,
			Rating: 8.91, VoteCount: 15000, Genre: "Drama", Genres: []string{"Drama", "Crime"},
		},
		27205: {
			Kind: domain.KindMovie, ID: 27205, Name: "A Origem", Rating: 8.4, VoteCount: 37000,
			Genre: "Ficção científica", Genres: []string{"Ficção científica"},
		},
	}}
}

func (f *fakeCatalog) GetByID(_ context.Context, id int64) (catalog.Title, error) {
	if f.err != nil {
		return catalog.Title{}, f.err
	}
	t, ok := f.titles[id]
	if !ok {
		return catalog.Title{}, domain.ErrNotFound
	}
	return t, nil
}

func (f *fakeCatalog) page() catalog.Page {
	results := []catalog.Title{f.titles[1396], f.titles[27205]}
	return catalog.Page{Results: results, Page: 1, TotalPages: 1, TotalResults: len(results)}
}

func (f *fakeCatalog) Search(_ context.Context, q string, _ int) (catalog.Page, error) {
	f.lastQuery = q
	return f.page(), f.err
}

func (f *fakeCatalog) ListByCategory(_ context.Context, category catalog.Category, _ int) (catalog.Page, error) {
	f.lastCategory = category
	return f.page(), f.err
}

func (f *fakeCatalog) ListByGenre(_ context.Context, genreID int, _ int) (catalog.Page, error) {
	f.lastGenre = genreID
	return f.page(), f.err
}

type handlerEnv struct {
	srv     *Server
	store   *votes.MemoryStore
	catalog *fakeCatalog
	tokens  *auth.Manager
}

func buildTestServer(tb testing.TB, mutate ...func(*config.Config)) *handlerEnv {
	tb.Helper()
	cfg := config.Config{
		Port:               "0",
		DisplayLocale:      "pt-BR",
		CORSAllowedOrigins: []string{"*"},
		ReadTimeoutSecs:    15,
		WriteTimeoutSecs:   15,
		IdleTimeoutSecs:    60,
	}
	for _, m := range mutate {
		m(&cfg)
	}

	store := votes.NewMemoryStore()
	upstream := newFakeCatalog()
	tokens, err := auth.NewManager(testSecret)
	if err != nil {
		tb.Fatalf("auth manager: %v", err)
	}
	srv := New(cfg, Deps{
		Health:   store,
		Votes:    votes.NewService(store, zerolog.Nop()),
		Resolver: votes.NewResolver(store, upstream),
		Catalog:  upstream,
		Reports:  report.NewService(store),
		Auth:     tokens,
		Logger:   zerolog.Nop(),
	})
	return &handlerEnv{srv: srv, store: store, catalog: upstream, tokens: tokens}
}

func (e *handlerEnv) createTitle(tb testing.TB, name, genre string) domain.Title {
	tb.Helper()
	title, err := e.store.Create(context.Background(), domain.NewTitle{Name: name, Genre: genre})
	if err != nil {
		tb.Fatalf("create title: %v", err)
	}
	return title
}

func (e *handlerEnv) token(tb testing.TB, userID string) string {
	tb.Helper()
	token, err := e.tokens.Issue(domain.Voter{ID: userID}, time.Hour)
	if err != nil {
		tb.Fatalf("issue token: %v", err)
	}
	return token
}

// do sends a request through the full router; userID "" means anonymous.
func (e *handlerEnv) do(tb testing.TB, method, path, body, userID string) *httptest.ResponseRecorder {
	tb.Helper()
	var reader *bytes.Reader
	if body != "" {
		reader = bytes.NewReader([]byte(body))
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	if userID != "" {
		req.Header.Set("Authorization", "Bearer "+e.token(tb, userID))
	}
	rec := httptest.NewRecorder()
	e.srv.Handler().ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func TestSubmitVoteRequiresAuthentication(t *testing.T) {
	env := buildTestServer(t)
	title := env.createTitle(t, "Breaking Bad", "Drama")

	rec := env.do(t, http.MethodPost, "/titles/"+title.ID+"/vote", `{"rating":5}`, "")
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	errResp := decodeBody[errorResponse](t, rec)
	assert.Equal(t, "UNAUTHENTICATED", errResp.Code)

	summary, err := env.store.Summary(context.Background(), title.ID, "")
	require.NoError(t, err)
	assert.Zero(t, summary.TotalVotes)
}

func TestInvalidTokenIsRejected(t *testing.T) {
	env := buildTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/votes/top", nil)
	req.Header.Set("Authorization", "Bearer forged")
	rec := httptest.NewRecorder()
	env.srv.Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestSubmitVoteReplacesPreviousRating(t *testing.T) {
	env := buildTestServer(t)
	title := env.createTitle(t, "Breaking Bad", "Drama")
	path := "/titles/" + title.ID + "/vote"

	rec := env.do(t, http.MethodPost, path, `{"rating":5}`, "user-1")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = env.do(t, http.MethodPost, path, `{"rating":2}`, "user-1")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	resp := decodeBody[submitVoteResponse](t, rec)
	assert.True(t, resp.Success)
	assert.Equal(t, 2, resp.UserVote)
	assert.Equal(t, 2.0, resp.AverageRating)
	assert.EqualValues(t, 1, resp.TotalVotes)

	rec = env.do(t, http.MethodPost, path, `{"rating":3}`, "user-2")
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = env.do(t, http.MethodGet, "/titles/"+title.ID+"/votes", "", "user-2")
	require.Equal(t, http.StatusOK, rec.Code)
	summary := decodeBody[voteSummaryResponse](t, rec)
	assert.Equal(t, 2.5, summary.AverageRating)
	assert.EqualValues(t, 2, summary.TotalVotes)
	require.NotNil(t, summary.UserVote)
	assert.Equal(t, 3, *summary.UserVote)

	rec = env.do(t, http.MethodGet, "/titles/"+title.ID+"/votes", "", "")
	summary = decodeBody[voteSummaryResponse](t, rec)
	assert.Nil(t, summary.UserVote)
}

func TestSubmitVoteValidation(t *testing.T) {
	env := buildTestServer(t)
	title := env.createTitle(t, "Friends", "Comedy")
	path := "/titles/" + title.ID + "/vote"

	for name, body := range map[string]string{
		"zero":          `{"rating":0}`,
		"too high":      `{"rating":6}`,
		"fractional":    `{"rating":3.5}`,
		"string":        `{"rating":"4"}`,
		"missing":       `{}`,
		"null":          `{"rating":null}`,
		"unknown field": `{"rating":4,"stars":4}`,
		"malformed":     `{"rating":`,
		"empty":         ``,
	} {
		t.Run(name, func(t *testing.T) {
			rec := env.do(t, http.MethodPost, path, body, "user-1")
			require.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
			assert.Equal(t, "INVALID_INPUT", decodeBody[errorResponse](t, rec).Code)
		})
	}

	summary, err := env.store.Summary(context.Background(), title.ID, "user-1")
	require.NoError(t, err)
	assert.Zero(t, summary.TotalVotes)
}

func TestSubmitVoteOnUpstreamTitleMaterializesOnce(t *testing.T) {
	env := buildTestServer(t)

	rec := env.do(t, http.MethodPost, "/titles/1396/vote", `{"rating":4}`, "user-1")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	first := decodeBody[submitVoteResponse](t, rec)

	rec = env.do(t, http.MethodPost, "/titles/1396/vote", `{"rating":5}`, "user-2")
	require.Equal(t, http.StatusCreated, rec.Code)
	second := decodeBody[submitVoteResponse](t, rec)
	assert.Equal(t, first.TitleID, second.TitleID)
	assert.Equal(t, 4.5, second.AverageRating)

	n, err := env.store.Count(context.Background())
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	rec = env.do(t, http.MethodGet, "/titles/1396", "", "user-1")
	require.Equal(t, http.StatusOK, rec.Code)
	detail := decodeBody[titleDetailResponse](t, rec)
	assert.Equal(t, "1396", detail.ID)
	require.NotNil(t, detail.TitleID)
	assert.Equal(t, first.TitleID, *detail.TitleID)
	assert.Equal(t, "series", detail.Type)
	assert.Equal(t, 4.5, detail.UserRating)
	assert.EqualValues(t, 2, detail.TotalVotes)
	require.NotNil(t, detail.UserVote)
	assert.Equal(t, 4, *detail.UserVote)
	require.NotNil(t, detail.TMDBRating)
	assert.Equal(t, 8.9, *detail.TMDBRating)
	assert.Equal(t, []string{"Drama", "Crime"}, detail.Genres)
	assert.Equal(t, 2008, detail.ReleaseYear)
	require.NotNil(t, detail.Seasons)
	assert.Equal(t, 5, *detail.Seasons)
}

func TestTitleDetailWithoutVotes(t *testing.T) {
	env := buildTestServer(t)

	rec := env.do(t, http.MethodGet, "/titles/27205", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	detail := decodeBody[titleDetailResponse](t, rec)
	assert.Nil(t, detail.TitleID)
	assert.Zero(t, detail.TotalVotes)
	assert.Nil(t, detail.UserVote)
	assert.Contains(t, rec.Body.String(), `"userRating":0,`)

	n, err := env.store.Count(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n, "reads must not materialize titles")

	local := env.createTitle(t, "Avatar", "Sci-Fi")
	rec = env.do(t, http.MethodGet, "/titles/"+local.ID, "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	detail = decodeBody[titleDetailResponse](t, rec)
	assert.Equal(t, local.ID, detail.ID)
	assert.Equal(t, []string{"Sci-Fi"}, detail.Genres)

	rec = env.do(t, http.MethodGet, "/titles/"+local.ID+"/votes", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"averageRating":0,`)
	assert.Contains(t, rec.Body.String(), `"totalVotes":0`)
	assert.Nil(t, detail.TMDBRating)
}

func TestTitleErrors(t *testing.T) {
	env := buildTestServer(t)

	rec := env.do(t, http.MethodGet, "/titles/999", "", "")
	require.Equal(t, http.StatusNotFound, rec.Code)
	errResp := decodeBody[errorResponse](t, rec)
	assert.Equal(t, "NOT_FOUND", errResp.Code)
	assert.Equal(t, "Título não encontrado", errResp.Error)

	rec = env.do(t, http.MethodGet, "/titles/not-an-id", "", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, http.MethodPost, "/titles/00000000-0000-0000-0000-000000000000/vote", `{"rating":3}`, "user-1")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	env.catalog.err = fmt.Errorf("%w: connection refused", domain.ErrUpstreamUnavailable)
	rec = env.do(t, http.MethodGet, "/titles/1396", "", "")
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	errResp = decodeBody[errorResponse](t, rec)
	assert.Equal(t, "UPSTREAM_UNAVAILABLE", errResp.Code)
	assert.NotContains(t, rec.Body.String(), "connection refused")
}

func TestInsertVoteConflict(t *testing.T) {
	env := buildTestServer(t)
	title := env.createTitle(t, "Pulp Fiction", "Crime")
	body := fmt.Sprintf(`{"titleId":%q,"rating":4}`, title.ID)

	rec := env.do(t, http.MethodPost, "/votes", body, "user-1")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	resp := decodeBody[insertVoteResponse](t, rec)
	assert.Equal(t, title.ID, resp.Vote.TitleID)
	assert.Equal(t, "user-1", resp.Vote.UserID)

	rec = env.do(t, http.MethodPost, "/votes", body, "user-1")
	require.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "CONFLICT", decodeBody[errorResponse](t, rec).Code)

	rec = env.do(t, http.MethodPost, "/votes", `{"rating":4}`, "user-1")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRetractVote(t *testing.T) {
	env := buildTestServer(t)
	title := env.createTitle(t, "The Office", "Comedy")
	path := "/titles/" + title.ID + "/vote"

	require.Equal(t, http.StatusCreated, env.do(t, http.MethodPost, path, `{"rating":4}`, "user-1").Code)
	assert.Equal(t, http.StatusUnauthorized, env.do(t, http.MethodDelete, path, "", "").Code)
	assert.Equal(t, http.StatusNoContent, env.do(t, http.MethodDelete, path, "", "user-1").Code)
	assert.Equal(t, http.StatusNotFound, env.do(t, http.MethodDelete, path, "", "user-1").Code)
	assert.Equal(t, http.StatusNotFound, env.do(t, http.MethodDelete, "/titles/27205/vote", "", "user-1").Code)
}

func TestUserVotesNewestFirst(t *testing.T) {
	env := buildTestServer(t)
	a := env.createTitle(t, "Inception", "Sci-Fi")
	b := env.createTitle(t, "Avatar", "Sci-Fi")

	require.Equal(t, http.StatusCreated, env.do(t, http.MethodPost, "/titles/"+a.ID+"/vote", `{"rating":3}`, "user-1").Code)
	time.Sleep(2 * time.Millisecond)
	require.Equal(t, http.StatusCreated, env.do(t, http.MethodPost, "/titles/"+b.ID+"/vote", `{"rating":5}`, "user-1").Code)

	rec := env.do(t, http.MethodGet, "/users/user-1/votes", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	history := decodeBody[[]userVoteResponse](t, rec)
	require.Len(t, history, 2)
	assert.Equal(t, "Avatar", history[0].Title.Name)
	assert.Equal(t, "Inception", history[1].Title.Name)

	rec = env.do(t, http.MethodGet, "/users/nobody/votes", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())
}

func TestDashboardGenreDistribution(t *testing.T) {
	env := buildTestServer(t)
	bb := env.createTitle(t, "Breaking Bad", "Drama")
	gf := env.createTitle(t, "The Godfather", "Drama")
	env.createTitle(t, "Friends", "Comedy")

	for i := 0; i < 2; i++ {
		require.Equal(t, http.StatusCreated, env.do(t, http.MethodPost, "/titles/"+bb.ID+"/vote", `{"rating":5}`, fmt.Sprintf("bb-%d", i)).Code)
	}
	for i := 0; i < 6; i++ {
		require.Equal(t, http.StatusCreated, env.do(t, http.MethodPost, "/titles/"+gf.ID+"/vote", `{"rating":4}`, fmt.Sprintf("gf-%d", i)).Code)
	}

	rec := env.do(t, http.MethodGet, "/dashboard", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	d := decodeBody[dashboardResponse](t, rec)

	assert.Contains(t, d.GenreDistribution, genreCount{Name: "Drama", Value: 8})
	assert.Contains(t, d.GenreDistribution, genreCount{Name: "Comedy", Value: 0})
	assert.Equal(t, totalStatsPayload{TotalTitles: 3, TotalVotes: 8, TotalUsers: 8}, d.TotalStats)
	assert.Equal(t, namedCount{Name: "The Godfather", Votes: 6}, d.TopTitles[0])
	require.Len(t, d.VotesEvolution, report.WindowDays)
	assert.EqualValues(t, 8, d.VotesEvolution[report.WindowDays-1].Votes)
	assert.Equal(t, time.Now().UTC().Format(time.DateOnly), d.VotesEvolution[report.WindowDays-1].Date)
}

func TestCatalogAndTopTitles(t *testing.T) {
	env := buildTestServer(t)
	for i := 0; i < 12; i++ {
		env.createTitle(t, fmt.Sprintf("Title %02d", i), "Drama")
	}

	rec := env.do(t, http.MethodGet, "/catalog?page=2&limit=5", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	list := decodeBody[catalogListResponse](t, rec)
	assert.Len(t, list.Titles, 5)
	assert.Equal(t, paginationResponse{Page: 2, Limit: 5, TotalCount: 12, TotalPages: 3}, list.Pagination)

	for _, query := range []string{"limit=100", "page=0", "page=abc"} {
		rec = env.do(t, http.MethodGet, "/catalog?"+query, "", "")
		assert.Equal(t, http.StatusBadRequest, rec.Code, query)
	}

	rec = env.do(t, http.MethodGet, "/votes/top", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	top := decodeBody[[]rankedTitleResponse](t, rec)
	assert.Len(t, top, report.TopN)
}

func TestBrowseAndSearch(t *testing.T) {
	env := buildTestServer(t)

	rec := env.do(t, http.MethodGet, "/titles?type=top_rated", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, catalog.CategoryTopRated, env.catalog.lastCategory)
	page := decodeBody[catalogPageResponse](t, rec)
	require.Len(t, page.Results, 2)
	assert.Equal(t, "series", page.Results[0].Type)
	assert.Equal(t, 8.9, page.Results[0].Rating)
	assert.Equal(t, 2008, page.Results[0].ReleaseYear)
	assert.Zero(t, page.Results[1].ReleaseYear)

	rec = env.do(t, http.MethodGet, "/titles?genre=horror", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 27, env.catalog.lastGenre)

	rec = env.do(t, http.MethodGet, "/titles?genre=all", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, catalog.CategoryPopular, env.catalog.lastCategory)

	for _, query := range []string{"genre=bogus", "type=weird", "page=0", "page=501"} {
		rec = env.do(t, http.MethodGet, "/titles?"+query, "", "")
		assert.Equal(t, http.StatusBadRequest, rec.Code, query)
	}

	rec = env.do(t, http.MethodGet, "/search?q=+breaking+", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "breaking", env.catalog.lastQuery)

	rec = env.do(t, http.MethodGet, "/search", "", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	env.catalog.err = domain.ErrUpstreamUnavailable
	rec = env.do(t, http.MethodGet, "/titles", "", "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestVoteRateLimit(t *testing.T) {
	env := buildTestServer(t, func(cfg *config.Config) { cfg.VoteRateLimitPerMin = 2 })
	title := env.createTitle(t, "Stranger Things", "Horror")
	path := "/titles/" + title.ID + "/vote"

	assert.Equal(t, http.StatusCreated, env.do(t, http.MethodPost, path, `{"rating":4}`, "user-1").Code)
	assert.Equal(t, http.StatusOK, env.do(t, http.MethodPost, path, `{"rating":5}`, "user-1").Code)
	rec := env.do(t, http.MethodPost, path, `{"rating":3}`, "user-1")
	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "RATE_LIMITED", decodeBody[errorResponse](t, rec).Code)

	assert.Equal(t, http.StatusCreated, env.do(t, http.MethodPost, path, `{"rating":3}`, "user-2").Code)
	assert.Equal(t, http.StatusOK, env.do(t, http.MethodGet, "/titles/"+title.ID+"/votes", "", "user-1").Code)
}

func TestHealthz(t *testing.T) {
	env := buildTestServer(t)
	rec := env.do(t, http.MethodGet, "/healthz", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())

	rec = env.do(t, http.MethodGet, "/metrics", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "cinerank_"))
}

func attachIDParam(req *http.Request, id string) *http.Request {
	ctx := chi.NewRouteContext()
	ctx.URLParams.Add("id", id)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, ctx))
}

func TestUnknownRoutesUseErrorEnvelope(t *testing.T) {
	env := buildTestServer(t)
	title := env.createTitle(t, "Friends", "Comedy")

	cases := []struct {
		method string
		path   string
		status int
		code   string
	}{
		{http.MethodGet, "/nope", http.StatusNotFound, "ROUTE_NOT_FOUND"},
		{http.MethodGet, "/titles/" + title.ID + "/unknown", http.StatusNotFound, "ROUTE_NOT_FOUND"},
		{http.MethodPut, "/titles/" + title.ID + "/vote", http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED"},
		{http.MethodPatch, "/votes", http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED"},
		{http.MethodPost, "/dashboard", http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED"},
	}
	for _, tc := range cases {
		t.Run(tc.method+" "+tc.path, func(t *testing.T) {
			rec := env.do(t, tc.method, tc.path, "", "")
			require.Equal(t, tc.status, rec.Code, rec.Body.String())
			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
			errResp := decodeBody[errorResponse](t, rec)
			assert.Equal(t, tc.code, errResp.Code)
			assert.NotEmpty(t, errResp.Error)
		})
	}
}
