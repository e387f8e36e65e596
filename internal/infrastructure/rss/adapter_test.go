package rss

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"dealscout/internal/domain"
)

const sampleFeed = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
  <channel>
    <title>Local Deals</title>
    <item>
      <title><![CDATA[50% off Sale!]]></title>
      <link>https://deals.example/1</link>
      <description><![CDATA[Half price on <b>everything</b>]]></description>
      <guid>deal-1</guid>
    </item>
    <item>
      <title>Weekend discount</title>
      <link>https://deals.example/2</link>
      <description>Up to 30% off</description>
      <guid>deal-2</guid>
    </item>
    <item>
      <title>No guid item</title>
      <link>https://deals.example/3</link>
      <description>Clearance corner</description>
    </item>
  </channel>
</rss>`

func TestParseFeed(t *testing.T) {
	t.Parallel()

	items, err := parseFeed(strings.NewReader(sampleFeed))
	if err != nil {
		t.Fatalf("parseFeed error: %v", err)
	}

	if len(items) != 3 {
		t.Fatalf("expected 3 items, got %d", len(items))
	}
	if items[0].Title != "50% off Sale!" {
		t.Fatalf("unexpected CDATA title: %q", items[0].Title)
	}
	if items[1].GUID != "deal-2" {
		t.Fatalf("unexpected guid: %q", items[1].GUID)
	}
}

func TestFetch(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/rss+xml")
		_, _ = w.Write([]byte(sampleFeed))
	}))
	defer server.Close()

	adapter := New("local-deals", server.URL, server.Client())
	candidates, err := adapter.Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch error: %v", err)
	}

	if len(candidates) != 3 {
		t.Fatalf("expected 3 candidates, got %d", len(candidates))
	}

	first := candidates[0]
	if first.Source != domain.SourceRSS {
		t.Fatalf("unexpected source: %s", first.Source)
	}
	if first.NativeID != "deal-1" {
		t.Fatalf("expected guid as native id, got %q", first.NativeID)
	}
	if !strings.Contains(first.RawContent, "50% off Sale!") {
		t.Fatalf("raw content missing title: %q", first.RawContent)
	}

	// Item without guid falls back to its link.
	if candidates[2].NativeID != "https://deals.example/3" {
		t.Fatalf("expected link fallback, got %q", candidates[2].NativeID)
	}
}

func TestFetchServerError(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	adapter := New("broken", server.URL, server.Client())
	candidates, err := adapter.Fetch(context.Background())
	if err == nil {
		t.Fatal("expected error for 502 response")
	}
	if len(candidates) != 0 {
		t.Fatalf("expected no candidates on failure, got %d", len(candidates))
	}
}

func TestFetchMalformedXML(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("<rss><channel><item></rss"))
	}))
	defer server.Close()

	adapter := New("malformed", server.URL, server.Client())
	if _, err := adapter.Fetch(context.Background()); err == nil {
		t.Fatal("expected parse error")
	}
}
