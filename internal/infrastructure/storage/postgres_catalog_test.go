package storage

import (
	"context"
	"encoding/json"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dealscout/internal/domain"
)

var storeSelectExpr = regexp.QuoteMeta(
	"SELECT id, name, description, address, city, country, latitude, longitude, category, is_verified FROM stores")

func storeRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "name", "description", "address", "city", "country",
		"latitude", "longitude", "category", "is_verified",
	})
}

func TestFindStoreByName(t *testing.T) {
	t.Parallel()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(storeSelectExpr).
		WithArgs("SuperSal Dizengoff").
		WillReturnRows(storeRows().AddRow(
			int64(7), "SuperSal Dizengoff", "", "Dizengoff 50", "Tel Aviv", "IL",
			32.08, 34.78, "food", true))

	repo := NewPostgresCatalog(db)
	store, err := repo.FindStoreByName(context.Background(), "SuperSal Dizengoff")
	require.NoError(t, err)
	require.NotNil(t, store)
	assert.Equal(t, int64(7), store.ID)
	assert.Equal(t, 32.08, store.Latitude)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestFindStoreByNameAbsent(t *testing.T) {
	t.Parallel()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(storeSelectExpr).
		WithArgs("Nowhere").
		WillReturnRows(storeRows())

	repo := NewPostgresCatalog(db)
	store, err := repo.FindStoreByName(context.Background(), "Nowhere")
	require.NoError(t, err)
	assert.Nil(t, store)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEnsureSentinelStoreCreatesThenReuses(t *testing.T) {
	t.Parallel()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	sentinelRow := func() *sqlmock.Rows {
		return storeRows().AddRow(
			int64(1), domain.SentinelStoreName, "", "", "", "",
			0.0, 0.0, "other", false)
	}

	// First call: absent, insert, re-select.
	mock.ExpectQuery(storeSelectExpr).WithArgs(domain.SentinelStoreName).WillReturnRows(storeRows())
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO stores")).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectQuery(storeSelectExpr).WithArgs(domain.SentinelStoreName).WillReturnRows(sentinelRow())

	// Second call: found immediately, no insert.
	mock.ExpectQuery(storeSelectExpr).WithArgs(domain.SentinelStoreName).WillReturnRows(sentinelRow())

	repo := NewPostgresCatalog(db)
	first, err := repo.EnsureSentinelStore(context.Background())
	require.NoError(t, err)
	second, err := repo.EnsureSentinelStore(context.Background())
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestInsertSale(t *testing.T) {
	t.Parallel()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO sales")).
		WillReturnResult(sqlmock.NewResult(1, 1))

	now := time.Now().UTC()
	repo := NewPostgresCatalog(db)
	err = repo.InsertSale(context.Background(), domain.Sale{
		Title:          "Test Sale",
		Category:       "food",
		StoreID:        7,
		StartDate:      now,
		EndDate:        now.Add(7 * 24 * time.Hour),
		Status:         "active",
		Source:         "auto-discovered",
		SourceType:     "telegram",
		AutoDiscovered: true,
		AIMetadata:     domain.AIMetadata{Excerpt: "מבצע", Confidence: 0.9, ClassifiedAt: now},
	})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEnqueueAndListReviews(t *testing.T) {
	t.Parallel()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	item := domain.ReviewItem{
		ID:        "11111111-2222-3333-4444-555555555555",
		DedupKey:  "rss:feed:guid-1",
		Candidate: domain.Candidate{Source: domain.SourceRSS, Channel: "feed", NativeID: "guid-1", RawContent: "30% off"},
		Extraction: domain.Extraction{
			Title:      "Maybe a deal",
			Confidence: 0.5,
		},
		CreatedAt: time.Now().UTC(),
	}

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO review_queue")).
		WillReturnResult(sqlmock.NewResult(1, 1))

	payload, err := json.Marshal(reviewPayload{Candidate: item.Candidate, Extraction: item.Extraction})
	require.NoError(t, err)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, dedup_key, payload, created_at FROM review_queue")).
		WillReturnRows(sqlmock.NewRows([]string{"id", "dedup_key", "payload", "created_at"}).
			AddRow(item.ID, item.DedupKey, payload, item.CreatedAt))

	repo := NewPostgresCatalog(db)
	require.NoError(t, repo.EnqueueReview(context.Background(), item))

	items, err := repo.PendingReviews(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, item.DedupKey, items[0].DedupKey)
	assert.Equal(t, "Maybe a deal", items[0].Extraction.Title)
	assert.Equal(t, 0.5, items[0].Extraction.Confidence)

	require.NoError(t, mock.ExpectationsWereMet())
}
