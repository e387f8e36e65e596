package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/lib/pq"

	"dealscout/internal/domain"
	"dealscout/internal/ports"
)

var storeColumns = []string{
	"id", "name", "description", "address", "city", "country",
	"latitude", "longitude", "category", "is_verified",
}

// PostgresCatalog persists stores, sales, and the review queue.
type PostgresCatalog struct {
	db *sql.DB
	sb sq.StatementBuilderType
}

var _ ports.CatalogRepository = (*PostgresCatalog)(nil)

// NewPostgresCatalog wires a sql.DB implementation.
func NewPostgresCatalog(db *sql.DB) *PostgresCatalog {
	return &PostgresCatalog{
		db: db,
		sb: sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

// FindStoreByName resolves an exact-name match; (nil, nil) when absent.
func (r *PostgresCatalog) FindStoreByName(ctx context.Context, name string) (*domain.Store, error) {
	query, args, err := r.sb.Select(storeColumns...).
		From("stores").
		Where(sq.Eq{"name": name}).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	store, err := scanStore(r.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query store %q: %w", name, err)
	}
	return store, nil
}

// EnsureSentinelStore gets or creates the "Discovered Sales" record.
// Lookup-before-insert plus ON CONFLICT DO NOTHING keeps it idempotent
// even across concurrent processes.
func (r *PostgresCatalog) EnsureSentinelStore(ctx context.Context) (*domain.Store, error) {
	store, err := r.FindStoreByName(ctx, domain.SentinelStoreName)
	if err != nil {
		return nil, err
	}
	if store != nil {
		return store, nil
	}

	query, args, err := r.sb.Insert("stores").
		Columns("name", "description", "category", "is_verified").
		Values(domain.SentinelStoreName, "Automatically discovered sales without a resolved merchant", "other", false).
		Suffix("ON CONFLICT (name) DO NOTHING").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build insert: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return nil, fmt.Errorf("insert sentinel store: %w", err)
	}

	store, err = r.FindStoreByName(ctx, domain.SentinelStoreName)
	if err != nil {
		return nil, err
	}
	if store == nil {
		return nil, fmt.Errorf("sentinel store missing after insert")
	}
	return store, nil
}

// InsertSale persists one catalog listing.
func (r *PostgresCatalog) InsertSale(ctx context.Context, sale domain.Sale) error {
	metadata, err := json.Marshal(sale.AIMetadata)
	if err != nil {
		return fmt.Errorf("marshal ai metadata: %w", err)
	}

	query, args, err := r.sb.Insert("sales").
		Columns("title", "description", "category", "discount_percentage",
			"original_price", "sale_price", "currency", "images", "store_id",
			"latitude", "longitude", "location", "start_date", "end_date",
			"status", "source", "source_url", "source_type", "auto_discovered",
			"ai_metadata").
		Values(sale.Title, sale.Description, sale.Category, sale.DiscountPercentage,
			sale.OriginalPrice, sale.SalePrice, sale.Currency, pq.Array(sale.Images), sale.StoreID,
			sale.Latitude, sale.Longitude, sale.Location, sale.StartDate, sale.EndDate,
			sale.Status, sale.Source, sale.SourceURL, sale.SourceType, sale.AutoDiscovered,
			metadata).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert sale: %w", err)
	}
	return nil
}

type reviewPayload struct {
	Candidate  domain.Candidate  `json:"candidate"`
	Extraction domain.Extraction `json:"extraction"`
}

// EnqueueReview parks a candidate for a human decision.
func (r *PostgresCatalog) EnqueueReview(ctx context.Context, item domain.ReviewItem) error {
	payload, err := json.Marshal(reviewPayload{Candidate: item.Candidate, Extraction: item.Extraction})
	if err != nil {
		return fmt.Errorf("marshal review payload: %w", err)
	}

	query, args, err := r.sb.Insert("review_queue").
		Columns("id", "dedup_key", "payload", "created_at").
		Values(item.ID, item.DedupKey, payload, item.CreatedAt).
		Suffix("ON CONFLICT (dedup_key) DO NOTHING").
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert review item: %w", err)
	}
	return nil
}

// PendingReviews lists the oldest parked candidates.
func (r *PostgresCatalog) PendingReviews(ctx context.Context, limit int) ([]domain.ReviewItem, error) {
	if limit <= 0 {
		limit = 50
	}

	query, args, err := r.sb.Select("id", "dedup_key", "payload", "created_at").
		From("review_queue").
		OrderBy("created_at ASC").
		Limit(uint64(limit)).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query review queue: %w", err)
	}
	defer rows.Close()

	var items []domain.ReviewItem
	for rows.Next() {
		var (
			item domain.ReviewItem
			raw  []byte
		)
		if err := rows.Scan(&item.ID, &item.DedupKey, &raw, &item.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan review item: %w", err)
		}
		var payload reviewPayload
		if err := json.Unmarshal(raw, &payload); err != nil {
			return nil, fmt.Errorf("decode review payload %s: %w", item.ID, err)
		}
		item.Candidate = payload.Candidate
		item.Extraction = payload.Extraction
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}
	return items, nil
}

func scanStore(row *sql.Row) (*domain.Store, error) {
	var store domain.Store
	err := row.Scan(&store.ID, &store.Name, &store.Description, &store.Address,
		&store.City, &store.Country, &store.Latitude, &store.Longitude,
		&store.Category, &store.IsVerified)
	if err != nil {
		return nil, err
	}
	return &store, nil
}
