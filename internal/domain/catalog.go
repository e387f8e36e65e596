package domain

import "time"

// SentinelStoreName is the idempotent fallback merchant used whenever an
// extraction carries no resolvable store name.
const SentinelStoreName = "Discovered Sales"

// Store is the merchant record a published sale hangs off.
type Store struct {
	ID          int64
	Name        string
	Description string
	Address     string
	City        string
	Country     string
	Latitude    float64
	Longitude   float64
	Category    string
	IsVerified  bool
}

// AIMetadata preserves provenance of an auto-published listing.
type AIMetadata struct {
	Excerpt      string    `json:"excerpt"`
	Confidence   float64   `json:"confidence"`
	ClassifiedAt time.Time `json:"classifiedAt"`
}

// Sale is the catalog listing persisted for an auto-published candidate.
type Sale struct {
	ID                 int64
	Title              string
	Description        string
	Category           string
	DiscountPercentage float64
	OriginalPrice      float64
	SalePrice          float64
	Currency           string
	Images             []string
	StoreID            int64
	Latitude           float64
	Longitude          float64
	Location           string
	StartDate          time.Time
	EndDate            time.Time
	Status             string
	Source             string
	SourceURL          string
	SourceType         string
	AutoDiscovered     bool
	AIMetadata         AIMetadata
}

// ReviewItem is a candidate parked for a human decision.
type ReviewItem struct {
	ID         string
	DedupKey   string
	Candidate  Candidate
	Extraction Extraction
	CreatedAt  time.Time
}

// CycleSummary is emitted once per pipeline run, however degraded the run was.
type CycleSummary struct {
	StartedAt  time.Time
	Duration   time.Duration
	Fetched    map[SourceType]int
	Filtered   int
	Duplicates int
	Enqueued   int
	Classified int
	Published  int
	Queued     int
	Rejected   int
	Errors     []string
}

// NewCycleSummary returns a summary with the per-source counters initialized.
func NewCycleSummary(start time.Time) CycleSummary {
	return CycleSummary{
		StartedAt: start,
		Fetched:   map[SourceType]int{},
	}
}
