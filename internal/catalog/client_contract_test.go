package catalog

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/Clark-Hu/cinerank/internal/i18n"
	"github.com/Clark-Hu/cinerank/internal/logging"
)

// TestHTTPClientSmoke checks the client against a live catalog service when
// CATALOG_URL and CATALOG_TOKEN are provided.
func TestHTTPClientSmoke(t *testing.T) {
	baseURL := os.Getenv("CATALOG_URL")
	token := os.Getenv("CATALOG_TOKEN")
	if baseURL == "" || token == "" {
		t.Skip("CATALOG_URL/CATALOG_TOKEN not provided")
	}
	client, err := NewHTTPClient(Options{
		BaseURL: baseURL,
		Token:   token,
		Locale:  "pt-BR",
		Timeout: 3 * time.Second,
		Genres:  i18n.NewGenres("pt-BR"),
		Logger:  logging.Nop(),
	})
	if err != nil {
		t.Fatalf("create http client: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	page, err := client.ListByCategory(ctx, CategoryPopular, 1)
	if err != nil {
		t.Fatalf("list popular: %v", err)
	}
	if len(page.Results) == 0 {
		t.Fatalf("expected at least one popular title")
	}
	if _, err := client.GetByID(ctx, page.Results[0].ID); err != nil {
		t.Fatalf("get by id %d: %v", page.Results[0].ID, err)
	}
}
