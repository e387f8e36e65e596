package usecase

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dealscout/internal/domain"
)

func TestPublishReusesExactNameStore(t *testing.T) {
	t.Parallel()

	catalog := newFakeCatalog()
	existing := catalog.addStore(domain.Store{
		Name:      "SuperSal Dizengoff",
		Latitude:  32.08,
		Longitude: 34.78,
		Address:   "Dizengoff 50, Tel Aviv",
	})

	pub := NewPublisher(catalog, nil)
	err := pub.Publish(context.Background(),
		testCandidate("5", "מבצע בסופר"),
		domain.Extraction{Title: "Grocery Sale", StoreName: "SuperSal Dizengoff", Confidence: 0.8})
	require.NoError(t, err)

	require.Len(t, catalog.sales, 1)
	sale := catalog.sales[0]
	assert.Equal(t, existing.ID, sale.StoreID)
	assert.Equal(t, existing.Latitude, sale.Latitude)
	assert.Equal(t, existing.Longitude, sale.Longitude)
	assert.Zero(t, catalog.sentinelCreates, "a resolved store must not create the sentinel")
}

func TestPublishSentinelStoreCreatedOnce(t *testing.T) {
	t.Parallel()

	catalog := newFakeCatalog()
	pub := NewPublisher(catalog, nil)

	for _, id := range []string{"1", "2", "3"} {
		err := pub.Publish(context.Background(),
			testCandidate(id, "sale "+id),
			domain.Extraction{Title: "Sale " + id, Confidence: 0.9})
		require.NoError(t, err)
	}

	assert.Equal(t, 1, catalog.sentinelCreates)
	require.Len(t, catalog.sales, 3)
	storeID := catalog.sales[0].StoreID
	for _, sale := range catalog.sales {
		assert.Equal(t, storeID, sale.StoreID)
	}
}

func TestPublishBuildsSaleFields(t *testing.T) {
	t.Parallel()

	catalog := newFakeCatalog()
	pub := NewPublisher(catalog, nil)
	fixed := time.Date(2026, time.March, 1, 12, 0, 0, 0, time.UTC)
	pub.now = func() time.Time { return fixed }

	cand := testCandidate("42", "חיסול מלאי! הכל ב-50% הנחה")
	ext := domain.Extraction{
		Title:              "Stock Clearance",
		Description:        "Everything half price",
		Category:           "Clothing",
		DiscountPercentage: 50,
		Confidence:         0.88,
	}
	require.NoError(t, pub.Publish(context.Background(), cand, ext))

	require.Len(t, catalog.sales, 1)
	sale := catalog.sales[0]
	assert.Equal(t, "fashion", sale.Category)
	assert.Equal(t, fixed, sale.StartDate)
	assert.Equal(t, fixed.Add(7*24*time.Hour), sale.EndDate)
	assert.Equal(t, "active", sale.Status)
	assert.Equal(t, cand.URL, sale.SourceURL)
	assert.Equal(t, 0.88, sale.AIMetadata.Confidence)
	assert.Contains(t, sale.AIMetadata.Excerpt, "חיסול מלאי")
}

func TestPublishFallsBackToExcerptTitle(t *testing.T) {
	t.Parallel()

	catalog := newFakeCatalog()
	pub := NewPublisher(catalog, nil)

	long := strings.Repeat("deal ", 100)
	err := pub.Publish(context.Background(),
		testCandidate("9", long),
		domain.Extraction{Confidence: 0.8})
	require.NoError(t, err)

	require.Len(t, catalog.sales, 1)
	title := catalog.sales[0].Title
	assert.NotEmpty(t, title)
	assert.LessOrEqual(t, len([]rune(title)), excerptLimit+1)
}

func TestNormalizeCategory(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"Clothing":     "fashion",
		"restaurants":  "food",
		"TECH":         "electronics",
		"toys":         "kids",
		"crypto stuff": "other",
		"":             "other",
	}
	for guess, want := range cases {
		assert.Equal(t, want, NormalizeCategory(guess), "guess %q", guess)
	}
}
