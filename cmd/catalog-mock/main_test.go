package main

import (
	"context"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Clark-Hu/cinerank/internal/catalog"
	"github.com/Clark-Hu/cinerank/internal/domain"
	"github.com/Clark-Hu/cinerank/internal/i18n"
)

func newMockClient(t *testing.T) *catalog.HTTPClient {
	t.Helper()
	raw, err := os.ReadFile("catalog.json")
	require.NoError(t, err)
	var payload fixture
	require.NoError(t, json.Unmarshal(raw, &payload))

	srv := httptest.NewServer(newRouter(payload, false, zerolog.Nop()))
	t.Cleanup(srv.Close)

	client, err := catalog.NewHTTPClient(catalog.Options{
		BaseURL:      srv.URL + "/3",
		Token:        "mock",
		ImageBaseURL: "https://image.example/w500",
		Locale:       "pt-BR",
		Timeout:      2 * time.Second,
		Genres:       i18n.NewGenres("pt-BR"),
		Logger:       zerolog.Nop(),
	})
	require.NoError(t, err)
	return client
}

func TestMockServesDetailWithFallback(t *testing.T) {
	client := newMockClient(t)
	ctx := context.Background()

	movie, err := client.GetByID(ctx, 238)
	require.NoError(t, err)
	assert.Equal(t, domain.KindMovie, movie.Kind)
	assert.Equal(t, "Drama", movie.Genre)

	series, err := client.GetByID(ctx, 1396)
	require.NoError(t, err)
	assert.Equal(t, domain.KindSeries, series.Kind)
	assert.Equal(t, "Breaking Bad", series.Name)

	_, err = client.GetByID(ctx, 42)
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestMockListingsAndSearch(t *testing.T) {
	client := newMockClient(t)
	ctx := context.Background()

	top, err := client.ListByCategory(ctx, catalog.CategoryTopRated, 1)
	require.NoError(t, err)
	require.Len(t, top.Results, 10)
	assert.Equal(t, "Breaking Bad", top.Results[0].Name)

	comedy, err := client.ListByGenre(ctx, 35, 1)
	require.NoError(t, err)
	assert.Len(t, comedy.Results, 2)

	found, err := client.Search(ctx, "the", 1)
	require.NoError(t, err)
	assert.NotEmpty(t, found.Results)
}
