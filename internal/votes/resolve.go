package votes

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/Clark-Hu/cinerank/internal/catalog"
	"github.com/Clark-Hu/cinerank/internal/domain"
)

// Gateway is the part of the catalog client the resolver needs.
type Gateway interface {
	GetByID(ctx context.Context, id int64) (catalog.Title, error)
}

// Resolved is the outcome of translating a public title id.
type Resolved struct {
	// Local is the catalog row, nil when an upstream title was never voted on.
	Local *domain.Title
	// Upstream is set when the id named an upstream record.
	Upstream *catalog.Title
}

// Resolver translates public title ids into internal ones. UUIDs name local
// titles; positive integers name upstream records, which are materialized
// locally only when a vote is written.
type Resolver struct {
	titles  Catalog
	gateway Gateway
}

// NewResolver constructs a Resolver.
func NewResolver(titles Catalog, gateway Gateway) *Resolver {
	return &Resolver{titles: titles, gateway: gateway}
}

// ParseID classifies raw as a local UUID or an upstream numeric id.
func ParseID(raw string) (local string, upstream int64, err error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", 0, fmt.Errorf("%w: title id is required", domain.ErrInvalidInput)
	}
	if id, err := uuid.Parse(raw); err == nil {
		return id.String(), 0, nil
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || n <= 0 {
		return "", 0, fmt.Errorf("%w: malformed title id %q", domain.ErrInvalidInput, raw)
	}
	return "", n, nil
}

// Lookup resolves raw without creating anything.
func (r *Resolver) Lookup(ctx context.Context, raw string) (Resolved, error) {
	local, upstream, err := ParseID(raw)
	if err != nil {
		return Resolved{}, err
	}
	if local != "" {
		title, err := r.titles.Get(ctx, local)
		if err != nil {
			return Resolved{}, err
		}
		return Resolved{Local: &title}, nil
	}

	remote, err := r.gateway.GetByID(ctx, upstream)
	if err != nil {
		return Resolved{}, err
	}
	res := Resolved{Upstream: &remote}
	title, err := r.titles.FindByExternal(ctx, remote.Kind, remote.ID)
	switch {
	case err == nil:
		res.Local = &title
	case errors.Is(err, domain.ErrNotFound):
	default:
		return Resolved{}, err
	}
	return res, nil
}

// Materialize resolves raw to a local title, creating the row for an upstream
// record on first use.
func (r *Resolver) Materialize(ctx context.Context, raw string) (domain.Title, error) {
	local, upstream, err := ParseID(raw)
	if err != nil {
		return domain.Title{}, err
	}
	if local != "" {
		return r.titles.Get(ctx, local)
	}

	remote, err := r.gateway.GetByID(ctx, upstream)
	if err != nil {
		return domain.Title{}, err
	}
	title, _, err := r.titles.EnsureExternal(ctx, remote.NewTitle())
	if err != nil {
		return domain.Title{}, fmt.Errorf("materialize title %d: %w", upstream, err)
	}
	return title, nil
}
