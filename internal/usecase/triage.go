package usecase

import "dealscout/internal/domain"

// Thresholds are the injected confidence cut-offs for triage.
type Thresholds struct {
	// AutoPublish is the minimum confidence (inclusive) to publish without
	// human review.
	AutoPublish float64
	// ReviewFloor is the minimum confidence (inclusive) to park a candidate
	// for review instead of rejecting it.
	ReviewFloor float64
}

// DefaultThresholds returns the stock triage configuration.
func DefaultThresholds() Thresholds {
	return Thresholds{AutoPublish: 0.75, ReviewFloor: 0.4}
}

// Decide maps a classifier confidence to a terminal triage decision.
// Pure function, no side effects; both boundaries are inclusive of the
// higher tier.
func Decide(confidence float64, t Thresholds) domain.Decision {
	switch {
	case confidence >= t.AutoPublish:
		return domain.DecisionAutoPublished
	case confidence >= t.ReviewFloor:
		return domain.DecisionQueuedForReview
	default:
		return domain.DecisionRejected
	}
}
