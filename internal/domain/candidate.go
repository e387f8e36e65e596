package domain

import (
	"fmt"
	"time"
)

// SourceType identifies which kind of upstream a candidate came from.
type SourceType string

const (
	SourceTelegram SourceType = "telegram"
	SourceRSS      SourceType = "rss"
	SourceActor    SourceType = "actor"
)

// Candidate is a raw sale posting pulled from an external source,
// before any classification happened.
type Candidate struct {
	Source       SourceType
	Channel      string
	NativeID     string
	URL          string
	RawContent   string
	DiscoveredAt time.Time
}

// DedupKey is the composite identity used by the seen-ledger. Two postings
// with the same key are the same posting, regardless of cycle.
func (c Candidate) DedupKey() string {
	return fmt.Sprintf("%s:%s:%s", c.Source, c.Channel, c.NativeID)
}

// ClassifierInput is the union of payload shapes the extraction model accepts.
// Exactly one of Text, URL, or ImageBase64 is expected to be set.
type ClassifierInput struct {
	Text        string
	URL         string
	ImageBase64 string
	ImageMIME   string
}

// Extraction is what the classifier believes about a candidate. All fields
// except Confidence are optional; Confidence is clamped to [0,1] on decode.
type Extraction struct {
	Title              string  `json:"title"`
	Description        string  `json:"description"`
	DiscountPercentage float64 `json:"discountPercentage"`
	OriginalPrice      float64 `json:"originalPrice"`
	SalePrice          float64 `json:"salePrice"`
	Category           string  `json:"category"`
	StoreName          string  `json:"storeName"`
	StoreAddress       string  `json:"storeAddress"`
	Confidence         float64 `json:"confidence"`
	RawText            string  `json:"rawText"`
}

// Decision is the terminal triage outcome for a candidate. A candidate is
// decided exactly once; its dedup key prevents re-triage on later cycles.
type Decision int

const (
	DecisionRejected Decision = iota
	DecisionQueuedForReview
	DecisionAutoPublished
)

func (d Decision) String() string {
	switch d {
	case DecisionAutoPublished:
		return "auto-published"
	case DecisionQueuedForReview:
		return "queued-for-review"
	default:
		return "rejected"
	}
}
