package rss

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"dealscout/internal/domain"
	"dealscout/internal/source"
)

const maxItems = 20

// feed mirrors the subset of an RSS 2.0 document the pipeline cares about.
// encoding/xml folds CDATA sections into the character data, so values like
// <title><![CDATA[50% off]]></title> decode cleanly.
type feed struct {
	Channel struct {
		Title string `xml:"title"`
		Items []item `xml:"item"`
	} `xml:"channel"`
}

type item struct {
	Title       string `xml:"title"`
	Link        string `xml:"link"`
	Description string `xml:"description"`
	GUID        string `xml:"guid"`
}

// Adapter fetches one RSS feed and turns its items into candidates.
type Adapter struct {
	name   string
	url    string
	client *http.Client
}

var _ source.Adapter = (*Adapter)(nil)

// New builds an adapter for one feed. The name participates in the dedup
// key, so it must stay stable across restarts.
func New(name, url string, client *http.Client) *Adapter {
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	return &Adapter{name: name, url: url, client: client}
}

func (a *Adapter) Name() string {
	return fmt.Sprintf("rss/%s", a.name)
}

func (a *Adapter) Key() string {
	return fmt.Sprintf("rss:%s", a.url)
}

func (a *Adapter) Type() domain.SourceType {
	return domain.SourceRSS
}

// Fetch downloads and parses the feed, returning up to maxItems candidates.
func (a *Adapter) Fetch(ctx context.Context) ([]domain.Candidate, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", "dealscout/1.0")

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request feed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("feed returned %s", resp.Status)
	}

	items, err := parseFeed(resp.Body)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	candidates := make([]domain.Candidate, 0, len(items))
	for _, it := range items {
		if len(candidates) >= maxItems {
			break
		}
		nativeID := strings.TrimSpace(it.GUID)
		if nativeID == "" {
			nativeID = strings.TrimSpace(it.Link)
		}
		if nativeID == "" {
			continue
		}

		raw := strings.TrimSpace(it.Title)
		if desc := strings.TrimSpace(it.Description); desc != "" {
			if raw != "" {
				raw += "\n"
			}
			raw += desc
		}

		candidates = append(candidates, domain.Candidate{
			Source:       domain.SourceRSS,
			Channel:      a.name,
			NativeID:     nativeID,
			URL:          strings.TrimSpace(it.Link),
			RawContent:   raw,
			DiscoveredAt: now,
		})
	}

	return candidates, nil
}

func parseFeed(r io.Reader) ([]item, error) {
	var doc feed
	if err := xml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("parse feed: %w", err)
	}
	return doc.Channel.Items, nil
}
