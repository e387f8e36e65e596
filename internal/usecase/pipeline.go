package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"dealscout/internal/domain"
	"dealscout/internal/ports"
	"dealscout/internal/source"
)

const (
	defaultBatchSize    = 10
	defaultFetchTimeout = 30 * time.Second
)

// ErrCycleRunning is returned when a cycle is triggered while another one
// has not finished yet. Cycles never overlap.
var ErrCycleRunning = errors.New("discovery cycle already running")

// PipelineDeps wires all driven adapters into the discovery pipeline.
type PipelineDeps struct {
	Sources      *source.Registry
	Ledger       ports.SeenLedger
	Queue        ports.CandidateQueue
	Classifier   ports.Classifier
	Publisher    *Publisher
	Catalog      ports.CatalogRepository
	Thresholds   Thresholds
	BatchSize    int
	FetchTimeout time.Duration
	Logger       *slog.Logger
}

// Pipeline runs the discovery cycle: fan out to sources, pre-filter, dedup,
// enqueue, drain a bounded batch, classify, triage, publish.
type Pipeline struct {
	sources      *source.Registry
	ledger       ports.SeenLedger
	queue        ports.CandidateQueue
	classifier   ports.Classifier
	publisher    *Publisher
	catalog      ports.CatalogRepository
	thresholds   Thresholds
	batchSize    int
	fetchTimeout time.Duration
	logger       *slog.Logger

	running   atomic.Bool
	processed atomic.Int64
}

// NewPipeline constructs the orchestration component.
func NewPipeline(deps PipelineDeps) *Pipeline {
	if deps.BatchSize <= 0 {
		deps.BatchSize = defaultBatchSize
	}
	if deps.FetchTimeout <= 0 {
		deps.FetchTimeout = defaultFetchTimeout
	}
	return &Pipeline{
		sources:      deps.Sources,
		ledger:       deps.Ledger,
		queue:        deps.Queue,
		classifier:   deps.Classifier,
		publisher:    deps.Publisher,
		catalog:      deps.Catalog,
		thresholds:   deps.Thresholds,
		batchSize:    deps.BatchSize,
		fetchTimeout: deps.FetchTimeout,
		logger:       deps.Logger,
	}
}

// TriageThresholds exposes the injected confidence cut-offs.
func (p *Pipeline) TriageThresholds() Thresholds {
	return p.thresholds
}

// ProcessedCount reports how many candidates were classified since start.
func (p *Pipeline) ProcessedCount() int64 {
	return p.processed.Load()
}

// QueueSize reports how many accepted candidates await classification.
func (p *Pipeline) QueueSize() int {
	if p.queue == nil {
		return 0
	}
	return p.queue.Len()
}

type fetchResult struct {
	adapter source.Adapter
	items   []domain.Candidate
	err     error
}

// RunCycle executes one full discovery cycle and returns its summary.
// The timer and the manual admin trigger both land here. Only the overlap
// guard produces an error; everything else degrades into summary errors.
func (p *Pipeline) RunCycle(ctx context.Context) (domain.CycleSummary, error) {
	if !p.running.CompareAndSwap(false, true) {
		return domain.CycleSummary{}, ErrCycleRunning
	}
	defer p.running.Store(false)

	start := time.Now()
	summary := domain.NewCycleSummary(start)

	p.fanOut(ctx, &summary)
	p.classifyBatch(ctx, &summary)

	summary.Duration = time.Since(start)
	if p.logger != nil {
		p.logger.Info("cycle complete",
			"duration", summary.Duration.Round(time.Millisecond),
			"fetched_telegram", summary.Fetched[domain.SourceTelegram],
			"fetched_rss", summary.Fetched[domain.SourceRSS],
			"fetched_actor", summary.Fetched[domain.SourceActor],
			"enqueued", summary.Enqueued,
			"duplicates", summary.Duplicates,
			"classified", summary.Classified,
			"published", summary.Published,
			"queued", summary.Queued,
			"rejected", summary.Rejected,
			"errors", len(summary.Errors))
	}
	return summary, nil
}

// fanOut fetches all sources concurrently and feeds survivors into the
// queue. A failing adapter contributes a summary error, nothing more: the
// cycle keeps whatever subset succeeded.
func (p *Pipeline) fanOut(ctx context.Context, summary *domain.CycleSummary) {
	if p.sources == nil {
		return
	}

	adapters := p.sources.Snapshot()
	results := make(chan fetchResult, len(adapters))

	var wg sync.WaitGroup
	for _, a := range adapters {
		wg.Add(1)
		go func(a source.Adapter) {
			defer wg.Done()
			fctx, cancel := context.WithTimeout(ctx, p.fetchTimeout)
			defer cancel()
			items, err := a.Fetch(fctx)
			results <- fetchResult{adapter: a, items: items, err: err}
		}(a)
	}
	wg.Wait()
	close(results)

	for res := range results {
		if res.err != nil {
			p.recordError(summary, fmt.Sprintf("fetch %s: %v", res.adapter.Name(), res.err))
			continue
		}
		summary.Fetched[res.adapter.Type()] += len(res.items)
		for _, cand := range res.items {
			p.accept(ctx, cand, summary)
		}
	}
}

// accept applies the pre-filter and the dedup ledger, then enqueues.
// The ledger is written before classification: a crash between the two
// drops the candidate instead of risking a duplicate publish later.
func (p *Pipeline) accept(ctx context.Context, cand domain.Candidate, summary *domain.CycleSummary) {
	if !MatchesSaleKeywords(cand.RawContent) {
		summary.Filtered++
		return
	}

	first, err := p.ledger.MarkSeen(ctx, cand.DedupKey())
	if err != nil {
		p.recordError(summary, fmt.Sprintf("ledger %s: %v", cand.DedupKey(), err))
		return
	}
	if !first {
		summary.Duplicates++
		return
	}

	p.queue.Push(cand)
	summary.Enqueued++
}

// classifyBatch drains one bounded batch and routes each candidate through
// triage. Classification is sequential on purpose: it caps external model
// cost and keeps us under provider rate limits.
func (p *Pipeline) classifyBatch(ctx context.Context, summary *domain.CycleSummary) {
	batch := p.queue.Drain(p.batchSize)
	for _, cand := range batch {
		ext := p.classify(ctx, cand)
		summary.Classified++
		p.processed.Add(1)

		switch Decide(ext.Confidence, p.thresholds) {
		case domain.DecisionAutoPublished:
			if err := p.publisher.Publish(ctx, cand, ext); err != nil {
				p.recordError(summary, fmt.Sprintf("publish %s: %v", cand.DedupKey(), err))
				continue
			}
			summary.Published++
		case domain.DecisionQueuedForReview:
			summary.Queued++
			p.sinkReview(ctx, cand, ext, summary)
		default:
			summary.Rejected++
			if p.logger != nil {
				p.logger.Debug("candidate rejected",
					"key", cand.DedupKey(), "confidence", ext.Confidence)
			}
		}
	}
}

func (p *Pipeline) classify(ctx context.Context, cand domain.Candidate) domain.Extraction {
	if p.classifier == nil {
		return domain.Extraction{}
	}
	return p.classifier.Classify(ctx, classifierInput(cand))
}

func (p *Pipeline) sinkReview(ctx context.Context, cand domain.Candidate, ext domain.Extraction, summary *domain.CycleSummary) {
	if p.catalog == nil {
		if p.logger != nil {
			p.logger.Info("candidate queued for review (no durable sink)",
				"key", cand.DedupKey(), "confidence", ext.Confidence)
		}
		return
	}

	item := domain.ReviewItem{
		ID:         uuid.NewString(),
		DedupKey:   cand.DedupKey(),
		Candidate:  cand,
		Extraction: ext,
		CreatedAt:  time.Now().UTC(),
	}
	if err := p.catalog.EnqueueReview(ctx, item); err != nil {
		p.recordError(summary, fmt.Sprintf("review sink %s: %v", cand.DedupKey(), err))
	}
}

func (p *Pipeline) recordError(summary *domain.CycleSummary, msg string) {
	summary.Errors = append(summary.Errors, msg)
	if p.logger != nil {
		p.logger.Warn("cycle error", "error", msg)
	}
}

func classifierInput(cand domain.Candidate) domain.ClassifierInput {
	if cand.RawContent != "" {
		return domain.ClassifierInput{Text: cand.RawContent}
	}
	return domain.ClassifierInput{URL: cand.URL}
}
