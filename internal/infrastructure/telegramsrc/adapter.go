package telegramsrc

import (
	"context"
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"dealscout/internal/domain"
	"dealscout/internal/source"
)

const (
	previewBaseURL  = "https://t.me/s"
	messageSelector = ".tgme_widget_message"
	textSelector    = ".tgme_widget_message_text"
	postAttr        = "data-post"
	maxMessages     = 20
)

var whitespaceExpr = regexp.MustCompile(`\s+`)

// Adapter scrapes the public t.me/s/<channel> preview page. No bot token
// and no API access involved; whatever the preview shows is what we get.
type Adapter struct {
	channel string
	baseURL string
	client  *http.Client
}

var _ source.Adapter = (*Adapter)(nil)

// New builds an adapter for one public channel slug.
func New(channel string, client *http.Client) *Adapter {
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	return &Adapter{channel: channel, baseURL: previewBaseURL, client: client}
}

// WithBaseURL overrides the preview host, used by tests.
func (a *Adapter) WithBaseURL(base string) *Adapter {
	a.baseURL = strings.TrimSuffix(base, "/")
	return a
}

func (a *Adapter) Name() string {
	return fmt.Sprintf("telegram/%s", a.channel)
}

func (a *Adapter) Key() string {
	return fmt.Sprintf("telegram:%s", a.channel)
}

func (a *Adapter) Type() domain.SourceType {
	return domain.SourceTelegram
}

// Fetch downloads the preview page and extracts up to maxMessages message
// bodies. Any failure returns an empty list with the error; partial results
// are never mixed with errors.
func (a *Adapter) Fetch(ctx context.Context) ([]domain.Candidate, error) {
	pageURL := fmt.Sprintf("%s/%s", a.baseURL, a.channel)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", "dealscout/1.0")

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request preview: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("telegram returned %s", resp.Status)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse preview: %w", err)
	}

	return a.extractMessages(doc), nil
}

func (a *Adapter) extractMessages(doc *goquery.Document) []domain.Candidate {
	now := time.Now().UTC()
	var candidates []domain.Candidate

	doc.Find(messageSelector).EachWithBreak(func(i int, msg *goquery.Selection) bool {
		if len(candidates) >= maxMessages {
			return false
		}

		post, ok := msg.Attr(postAttr)
		if !ok || post == "" {
			return true
		}
		nativeID := post
		if idx := strings.LastIndex(post, "/"); idx >= 0 {
			nativeID = post[idx+1:]
		}

		text := collapseWhitespace(msg.Find(textSelector).First().Text())
		if text == "" {
			return true
		}

		candidates = append(candidates, domain.Candidate{
			Source:       domain.SourceTelegram,
			Channel:      a.channel,
			NativeID:     nativeID,
			URL:          fmt.Sprintf("https://t.me/%s/%s", a.channel, nativeID),
			RawContent:   text,
			DiscoveredAt: now,
		})
		return true
	})

	return candidates
}

func collapseWhitespace(text string) string {
	return strings.TrimSpace(whitespaceExpr.ReplaceAllString(text, " "))
}
