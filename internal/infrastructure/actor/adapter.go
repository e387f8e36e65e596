package actor

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"dealscout/internal/domain"
	"dealscout/internal/source"
)

const maxItems = 20

// Config describes the remote scraping actor integration.
type Config struct {
	BaseURL      string
	Token        string
	ActorID      string
	Keywords     []string
	PollInterval time.Duration
	PollTimeout  time.Duration
}

// Adapter triggers a remote scraping job and collects its dataset. The run
// is polled until it reports success instead of sleeping a fixed interval,
// so a slow job either finishes or times out explicitly.
type Adapter struct {
	cfg    Config
	client *http.Client
}

var _ source.Adapter = (*Adapter)(nil)

// New builds an adapter from config. With an empty token the adapter stays
// registered but fetches nothing: the capability is simply disabled.
func New(cfg Config, client *http.Client) *Adapter {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 5 * time.Second
	}
	if cfg.PollTimeout <= 0 {
		cfg.PollTimeout = 2 * time.Minute
	}
	cfg.BaseURL = strings.TrimSuffix(cfg.BaseURL, "/")
	return &Adapter{cfg: cfg, client: client}
}

func (a *Adapter) Name() string {
	return fmt.Sprintf("actor/%s", a.cfg.ActorID)
}

func (a *Adapter) Key() string {
	return fmt.Sprintf("actor:%s", a.cfg.ActorID)
}

func (a *Adapter) Type() domain.SourceType {
	return domain.SourceActor
}

type runEnvelope struct {
	Data struct {
		ID               string `json:"id"`
		Status           string `json:"status"`
		DefaultDatasetID string `json:"defaultDatasetId"`
	} `json:"data"`
}

type datasetItem struct {
	ID      string `json:"id"`
	Caption string `json:"caption"`
	URL     string `json:"url"`
}

// Fetch triggers one actor run, waits for completion, and maps the dataset
// into candidates.
func (a *Adapter) Fetch(ctx context.Context) ([]domain.Candidate, error) {
	if a.cfg.Token == "" {
		return nil, nil
	}

	run, err := a.startRun(ctx)
	if err != nil {
		return nil, fmt.Errorf("start run: %w", err)
	}

	datasetID, err := a.waitForRun(ctx, run)
	if err != nil {
		return nil, fmt.Errorf("wait for run %s: %w", run.Data.ID, err)
	}

	items, err := a.fetchDataset(ctx, datasetID)
	if err != nil {
		return nil, fmt.Errorf("fetch dataset %s: %w", datasetID, err)
	}

	now := time.Now().UTC()
	candidates := make([]domain.Candidate, 0, len(items))
	for _, it := range items {
		if len(candidates) >= maxItems {
			break
		}
		if it.ID == "" || it.Caption == "" {
			continue
		}
		candidates = append(candidates, domain.Candidate{
			Source:       domain.SourceActor,
			Channel:      a.cfg.ActorID,
			NativeID:     it.ID,
			URL:          it.URL,
			RawContent:   it.Caption,
			DiscoveredAt: now,
		})
	}
	return candidates, nil
}

func (a *Adapter) startRun(ctx context.Context) (*runEnvelope, error) {
	input := map[string]any{"search": a.cfg.Keywords, "resultsLimit": maxItems}
	body, err := json.Marshal(input)
	if err != nil {
		return nil, fmt.Errorf("marshal input: %w", err)
	}

	endpoint := fmt.Sprintf("%s/v2/acts/%s/runs?token=%s", a.cfg.BaseURL, a.cfg.ActorID, a.cfg.Token)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	var run runEnvelope
	if err := a.doJSON(req, &run); err != nil {
		return nil, err
	}
	if run.Data.ID == "" {
		return nil, fmt.Errorf("run response missing id")
	}
	return &run, nil
}

// waitForRun polls run status until it succeeds, fails, or PollTimeout
// expires.
func (a *Adapter) waitForRun(ctx context.Context, run *runEnvelope) (string, error) {
	deadline := time.Now().Add(a.cfg.PollTimeout)
	status := run.Data.Status
	datasetID := run.Data.DefaultDatasetID

	for {
		switch status {
		case "SUCCEEDED":
			if datasetID == "" {
				return "", fmt.Errorf("run succeeded without dataset")
			}
			return datasetID, nil
		case "FAILED", "ABORTED", "TIMED-OUT":
			return "", fmt.Errorf("run ended with status %s", status)
		}

		if time.Now().After(deadline) {
			return "", fmt.Errorf("run still %s after %s", status, a.cfg.PollTimeout)
		}

		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(a.cfg.PollInterval):
		}

		endpoint := fmt.Sprintf("%s/v2/actor-runs/%s?token=%s", a.cfg.BaseURL, run.Data.ID, a.cfg.Token)
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return "", fmt.Errorf("build status request: %w", err)
		}

		var current runEnvelope
		if err := a.doJSON(req, &current); err != nil {
			return "", err
		}
		status = current.Data.Status
		if current.Data.DefaultDatasetID != "" {
			datasetID = current.Data.DefaultDatasetID
		}
	}
}

func (a *Adapter) fetchDataset(ctx context.Context, datasetID string) ([]datasetItem, error) {
	endpoint := fmt.Sprintf("%s/v2/datasets/%s/items?token=%s", a.cfg.BaseURL, datasetID, a.cfg.Token)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build dataset request: %w", err)
	}

	var items []datasetItem
	if err := a.doJSON(req, &items); err != nil {
		return nil, err
	}
	return items, nil
}

func (a *Adapter) doJSON(req *http.Request, v any) error {
	resp, err := a.client.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusMultipleChoices {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("actor api %s: %s", resp.Status, strings.TrimSpace(string(payload)))
	}

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
