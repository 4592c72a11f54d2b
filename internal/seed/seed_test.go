package seed

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Clark-Hu/cinerank/internal/domain"
	"github.com/Clark-Hu/cinerank/internal/i18n"
	"github.com/Clark-Hu/cinerank/internal/votes"
)

func TestLoadSeedsEmptyCatalogOnce(t *testing.T) {
	ctx := context.Background()
	store := votes.NewMemoryStore()

	created, err := Load(ctx, store, i18n.NewGenres("pt-BR"), zerolog.Nop())
	require.NoError(t, err)
	assert.Equal(t, 10, created)

	created, err = Load(ctx, store, i18n.NewGenres("pt-BR"), zerolog.Nop())
	require.NoError(t, err)
	assert.Zero(t, created)

	n, err := store.Count(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 10, n)

	page, err := store.CatalogPage(ctx, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, "Breaking Bad", page.Items[0].Title.Name)
	assert.Equal(t, "Friends", page.Items[9].Title.Name)
}

func TestTitlesAreLocal(t *testing.T) {
	genres := map[string]int{}
	for _, title := range Titles(i18n.NewGenres("en-US")) {
		assert.Equal(t, domain.KindLocal, title.Kind, title.Name)
		assert.Nil(t, title.ExternalID, title.Name)
		require.NotNil(t, title.ImageURL, title.Name)
		genres[title.Genre]++
	}
	assert.Equal(t, 2, genres["Drama"])
	assert.Equal(t, 2, genres["Comedy"])
	assert.Equal(t, 2, genres["Science Fiction"])
}

func TestTitlesFollowDisplayLocale(t *testing.T) {
	pt := i18n.NewGenres("pt-BR")
	titles := Titles(pt)
	require.Len(t, titles, len(Starters))

	for i, title := range titles {
		assert.Equal(t, pt.Label(Starters[i].GenreID), title.Genre, title.Name)
		assert.NotEqual(t, pt.Unknown(), title.Genre, title.Name)
	}
	assert.Equal(t, "Ação", titles[3].Genre)
	assert.Equal(t, "Ficção Científica", titles[2].Genre)
}
