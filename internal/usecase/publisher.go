package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"dealscout/internal/domain"
	"dealscout/internal/ports"
)

const (
	saleValidityWindow = 7 * 24 * time.Hour
	excerptLimit       = 200
	defaultCategory    = "other"
)

// categoryAliases maps free-text category guesses from the classifier to
// the closed catalog vocabulary. Unmapped guesses land in "other".
var categoryAliases = map[string]string{
	"food":        "food",
	"restaurant":  "food",
	"restaurants": "food",
	"grocery":     "food",
	"groceries":   "food",
	"cafe":        "food",
	"fashion":     "fashion",
	"clothing":    "fashion",
	"clothes":     "fashion",
	"apparel":     "fashion",
	"shoes":       "fashion",
	"electronics": "electronics",
	"tech":        "electronics",
	"technology":  "electronics",
	"gadgets":     "electronics",
	"computers":   "electronics",
	"phones":      "electronics",
	"home":        "home",
	"furniture":   "home",
	"household":   "home",
	"garden":      "home",
	"beauty":      "beauty",
	"cosmetics":   "beauty",
	"skincare":    "beauty",
	"sports":      "sports",
	"fitness":     "sports",
	"gym":         "sports",
	"kids":        "kids",
	"toys":        "kids",
	"baby":        "kids",
	"children":    "kids",
	"travel":      "travel",
	"vacation":    "travel",
	"hotels":      "travel",
	"flights":     "travel",
}

// NormalizeCategory maps a classifier category guess onto the closed
// catalog vocabulary.
func NormalizeCategory(guess string) string {
	key := strings.ToLower(strings.TrimSpace(guess))
	if mapped, ok := categoryAliases[key]; ok {
		return mapped
	}
	return defaultCategory
}

// Publisher turns an auto-published candidate into a persisted catalog
// listing, resolving or creating the merchant it belongs to.
type Publisher struct {
	catalog ports.CatalogRepository
	logger  *slog.Logger
	now     func() time.Time
}

// NewPublisher wires the persistence collaborator.
func NewPublisher(catalog ports.CatalogRepository, logger *slog.Logger) *Publisher {
	return &Publisher{catalog: catalog, logger: logger, now: time.Now}
}

// Publish resolves a store and persists one Sale for the candidate.
// A failure here is isolated to this candidate; callers continue the batch.
func (p *Publisher) Publish(ctx context.Context, cand domain.Candidate, ext domain.Extraction) error {
	if p.catalog == nil {
		return fmt.Errorf("publisher has no catalog repository")
	}

	store, err := p.resolveStore(ctx, ext.StoreName)
	if err != nil {
		return fmt.Errorf("resolve store: %w", err)
	}

	sale := p.buildSale(cand, ext, store)
	if err := p.catalog.InsertSale(ctx, sale); err != nil {
		return fmt.Errorf("insert sale: %w", err)
	}

	if p.logger != nil {
		p.logger.Info("sale published",
			"title", sale.Title,
			"store", store.Name,
			"category", sale.Category,
			"confidence", ext.Confidence)
	}
	return nil
}

func (p *Publisher) resolveStore(ctx context.Context, name string) (*domain.Store, error) {
	if trimmed := strings.TrimSpace(name); trimmed != "" {
		store, err := p.catalog.FindStoreByName(ctx, trimmed)
		if err != nil {
			return nil, fmt.Errorf("lookup %q: %w", trimmed, err)
		}
		if store != nil {
			return store, nil
		}
	}
	return p.catalog.EnsureSentinelStore(ctx)
}

func (p *Publisher) buildSale(cand domain.Candidate, ext domain.Extraction, store *domain.Store) domain.Sale {
	now := p.now().UTC()

	title := strings.TrimSpace(ext.Title)
	if title == "" {
		title = excerpt(cand.RawContent, excerptLimit)
	}
	description := strings.TrimSpace(ext.Description)
	if description == "" {
		description = excerpt(cand.RawContent, excerptLimit)
	}

	return domain.Sale{
		Title:              title,
		Description:        description,
		Category:           NormalizeCategory(ext.Category),
		DiscountPercentage: ext.DiscountPercentage,
		OriginalPrice:      ext.OriginalPrice,
		SalePrice:          ext.SalePrice,
		Currency:           "ILS",
		StoreID:            store.ID,
		Latitude:           store.Latitude,
		Longitude:          store.Longitude,
		Location:           store.Address,
		StartDate:          now,
		EndDate:            now.Add(saleValidityWindow),
		Status:             "active",
		Source:             "auto-discovered",
		SourceURL:          cand.URL,
		SourceType:         string(cand.Source),
		AutoDiscovered:     true,
		AIMetadata: domain.AIMetadata{
			Excerpt:      excerpt(cand.RawContent, excerptLimit),
			Confidence:   ext.Confidence,
			ClassifiedAt: now,
		},
	}
}

func excerpt(raw string, limit int) string {
	raw = strings.TrimSpace(raw)
	if utf8.RuneCountInString(raw) <= limit {
		return raw
	}
	runes := []rune(raw)
	return string(runes[:limit]) + "…"
}
