package votes

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Clark-Hu/cinerank/internal/catalog"
	"github.com/Clark-Hu/cinerank/internal/domain"
)

type fakeGateway struct {
	titles map[int64]catalog.Title
	calls  int
}

func (f *fakeGateway) GetByID(ctx context.Context, id int64) (catalog.Title, error) {
	f.calls++
	t, ok := f.titles[id]
	if !ok {
		return catalog.Title{}, domain.ErrNotFound
	}
	return t, nil
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{titles: map[int64]catalog.Title{
		1396: {Kind: domain.KindSeries, ID: 1396, Name: "Breaking Bad", Genre: "Drama", Overview: "A chemistry teacher."},
		27205: {Kind: domain.KindMovie, ID: 27205, Name: "A Origem", Genre: "Ficção científica"},
	}}
}

func TestParseID(t *testing.T) {
	cases := []struct {
		raw      string
		local    string
		upstream int64
		wantErr  bool
	}{
		{raw: "1396", upstream: 1396},
		{raw: " 42 ", upstream: 42},
		{raw: "6F9619FF-8B86-D011-B42D-00CF4FC964FF", local: "6f9619ff-8b86-d011-b42d-00cf4fc964ff"},
		{raw: "", wantErr: true},
		{raw: "0", wantErr: true},
		{raw: "-5", wantErr: true},
		{raw: "abc", wantErr: true},
		{raw: "12abc", wantErr: true},
	}
	for _, tc := range cases {
		t.Run(tc.raw, func(t *testing.T) {
			local, upstream, err := ParseID(tc.raw)
			if tc.wantErr {
				require.ErrorIs(t, err, domain.ErrInvalidInput)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.local, local)
			assert.Equal(t, tc.upstream, upstream)
		})
	}
}

func TestResolverLookupDoesNotCreate(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryStore()
	gw := newFakeGateway()
	r := NewResolver(m, gw)

	res, err := r.Lookup(ctx, "1396")
	require.NoError(t, err)
	require.NotNil(t, res.Upstream)
	assert.Nil(t, res.Local)
	assert.Equal(t, "Breaking Bad", res.Upstream.Name)

	n, err := m.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestResolverMaterializeOnce(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryStore()
	r := NewResolver(m, newFakeGateway())

	first, err := r.Materialize(ctx, "1396")
	require.NoError(t, err)
	assert.Equal(t, domain.KindSeries, first.Kind)
	assert.Equal(t, "Drama", first.Genre)

	second, err := r.Materialize(ctx, "1396")
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)

	res, err := r.Lookup(ctx, "1396")
	require.NoError(t, err)
	require.NotNil(t, res.Local)
	assert.Equal(t, first.ID, res.Local.ID)

	byUUID, err := r.Lookup(ctx, first.ID)
	require.NoError(t, err)
	assert.Nil(t, byUUID.Upstream)
	assert.Equal(t, first.ID, byUUID.Local.ID)
}

func TestResolverNotFound(t *testing.T) {
	ctx := context.Background()
	r := NewResolver(NewMemoryStore(), newFakeGateway())

	_, err := r.Lookup(ctx, "999")
	require.ErrorIs(t, err, domain.ErrNotFound)

	_, err = r.Materialize(ctx, "00000000-0000-0000-0000-000000000000")
	require.ErrorIs(t, err, domain.ErrNotFound)

	_, err = r.Lookup(ctx, "not-an-id")
	require.ErrorIs(t, err, domain.ErrInvalidInput)
}
