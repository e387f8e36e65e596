package ports

import (
	"context"
	"time"

	"dealscout/internal/domain"
)

// SeenLedger records dedup keys of candidates accepted into the pipeline.
// MarkSeen returns true only on the first sighting of a key; later calls
// (this cycle or any later one) return false.
type SeenLedger interface {
	MarkSeen(ctx context.Context, key string) (bool, error)
}

// CandidateQueue buffers accepted candidates awaiting classification.
// Insertion-ordered; Drain removes up to max items from the head.
type CandidateQueue interface {
	Push(c domain.Candidate)
	Drain(max int) []domain.Candidate
	Len() int
}

// Classifier wraps the external extraction model. Implementations never
// fail: any transport, parse, or credential problem yields an Extraction
// with Confidence zero.
type Classifier interface {
	Classify(ctx context.Context, input domain.ClassifierInput) domain.Extraction
}

// CatalogRepository is the persistence collaborator the publisher and the
// review sink write through.
type CatalogRepository interface {
	// FindStoreByName resolves an exact-name match, (nil, nil) when absent.
	FindStoreByName(ctx context.Context, name string) (*domain.Store, error)
	// EnsureSentinelStore gets or creates the "Discovered Sales" store.
	// Repeated calls always return the same record.
	EnsureSentinelStore(ctx context.Context) (*domain.Store, error)
	InsertSale(ctx context.Context, sale domain.Sale) error
	EnqueueReview(ctx context.Context, item domain.ReviewItem) error
	PendingReviews(ctx context.Context, limit int) ([]domain.ReviewItem, error)
}

// Scheduler controls when pipeline cycles execute.
type Scheduler interface {
	Start(ctx context.Context, job func(time.Time)) error
	Stop(ctx context.Context) error
}
