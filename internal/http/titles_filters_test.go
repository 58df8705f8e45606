package httpserver

import (
	"net/url"
	"testing"

	"github.com/watchhub/watchlist-api/internal/config"
)

func filterConfig() config.Config {
	return config.Config{PageSizeDefault: 20, PageSizeMax: 100}
}

func TestBuildTitleFilters(t *testing.T) {
	values, _ := url.ParseQuery("platformId= p-1 &active=true&limit=50")

	filters, err := buildTitleFilters(values, filterConfig())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if filters.PlatformID == nil || *filters.PlatformID != "p-1" {
		t.Fatalf("platformId not trimmed: %+v", filters.PlatformID)
	}
	if filters.Active == nil || !*filters.Active {
		t.Fatalf("active parse failed: %+v", filters.Active)
	}
	if filters.Limit != 50 {
		t.Fatalf("limit not parsed: %d", filters.Limit)
	}
}

func TestBuildTitleFilters_Defaults(t *testing.T) {
	filters, err := buildTitleFilters(url.Values{}, filterConfig())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if filters.Limit != 20 {
		t.Fatalf("default limit = %d, want 20", filters.Limit)
	}
	if filters.PlatformID != nil || filters.Active != nil || filters.Cursor != nil {
		t.Fatalf("empty query should leave filters unset: %+v", filters)
	}
}

func TestBuildTitleFilters_LimitClamp(t *testing.T) {
	values, _ := url.ParseQuery("limit=5000")
	filters, err := buildTitleFilters(values, filterConfig())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if filters.Limit != 100 {
		t.Fatalf("limit = %d, want clamp to 100", filters.Limit)
	}
}

func TestBuildTitleFilters_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		query string
	}{
		{"bad active", "active=maybe"},
		{"bad limit", "limit=abc"},
		{"negative limit", "limit=-1"},
		{"zero limit", "limit=0"},
		{"bad cursor", "cursor=!!!"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			values, _ := url.ParseQuery(tt.query)
			if _, err := buildTitleFilters(values, filterConfig()); err == nil {
				t.Fatalf("expected error for %q", tt.query)
			}
		})
	}
}
