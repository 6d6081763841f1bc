// Package ingest drives the periodic ingestion cycles: fan-out to the
// source adapters, analysis, chunking, storage and the knowledge base
// rebuild that closes every cycle.
package ingest

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/curatorhq/curator/internal/analyze"
	"github.com/curatorhq/curator/internal/chunk"
	"github.com/curatorhq/curator/internal/ingest/adapters"
	"github.com/curatorhq/curator/internal/model"
	"github.com/curatorhq/curator/internal/store"
	"github.com/curatorhq/curator/internal/worker"
)

// State is the scheduler's lifecycle state
type State string

const (
	StateIdle        State = "idle"
	StateRunning     State = "running"     // cycle fan-out in progress
	StateAggregating State = "aggregating" // knowledge base rebuild
)

// Assembler rebuilds the knowledge base after each cycle
type Assembler interface {
	Rebuild() *model.KnowledgeBase
}

// Scheduler owns the ingestion loop. One logical timer per enabled source;
// adapter failures are isolated into the cycle report, never propagated.
type Scheduler struct {
	registry  *adapters.Registry
	store     *store.Store
	analyzer  *analyze.Analyzer
	chunker   *chunk.Chunker
	assembler Assembler

	defaultEvery   time.Duration
	adapterTimeout time.Duration
	tick           time.Duration
	adapterWorkers int

	mu          sync.Mutex
	sources     []model.Source
	state       State
	lastCycle   *model.CycleReport
	lastSuccess map[string]time.Time
	nextRun     map[string]time.Time

	stopCh   chan struct{}
	stopOnce sync.Once

	// OnCycle, when set before Run, is invoked after every cycle with its
	// report. Used for snapshot persistence and verbose diagnostics.
	OnCycle func(*model.CycleReport)

	now func() time.Time
}

// New creates a scheduler
func New(
	registry *adapters.Registry,
	st *store.Store,
	analyzer *analyze.Analyzer,
	chunker *chunk.Chunker,
	assembler Assembler,
	cfg model.SchedulerConfig,
	conc model.ConcurrencyConfig,
	sources []model.Source,
) *Scheduler {
	defaultEvery := cfg.DefaultEvery
	if defaultEvery <= 0 {
		defaultEvery = 30 * time.Minute
	}
	adapterTimeout := cfg.AdapterTimeout
	if adapterTimeout <= 0 {
		adapterTimeout = 2 * time.Minute
	}
	tick := cfg.TickGranularity
	if tick <= 0 {
		tick = 15 * time.Second
	}
	adapterWorkers := conc.AdapterWorkers
	if adapterWorkers <= 0 {
		adapterWorkers = len(sources)
	}

	return &Scheduler{
		registry:       registry,
		store:          st,
		analyzer:       analyzer,
		chunker:        chunker,
		assembler:      assembler,
		defaultEvery:   defaultEvery,
		adapterTimeout: adapterTimeout,
		tick:           tick,
		adapterWorkers: adapterWorkers,
		sources:        sources,
		state:          StateIdle,
		lastSuccess:    make(map[string]time.Time),
		nextRun:        make(map[string]time.Time),
		stopCh:         make(chan struct{}),
		now:            time.Now,
	}
}

// Run drives periodic cycles until the context ends or Stop is called.
// The stop signal is honored between cycles: an in-flight cycle finishes
// rather than being hard-cancelled.
func (s *Scheduler) Run(ctx context.Context) {
	// First cycle runs immediately
	s.mu.Lock()
	for _, src := range s.sources {
		if src.Enabled {
			s.nextRun[src.Name] = s.now()
		}
	}
	s.mu.Unlock()

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.stopCh:
			return
		case <-time.After(s.tick):
		}

		due := s.dueSources()
		if len(due) == 0 {
			continue
		}

		s.RunCycle(ctx, due)

		s.mu.Lock()
		for _, src := range due {
			every := src.Every
			if every <= 0 {
				every = s.defaultEvery
			}
			s.nextRun[src.Name] = s.now().Add(every)
		}
		s.mu.Unlock()
	}
}

// Stop requests a cooperative stop; it takes effect before the next tick
func (s *Scheduler) Stop() {
	s.stopOnce.Do(func() {
		close(s.stopCh)
	})
}

// State returns the current lifecycle state
func (s *Scheduler) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// LastCycle returns the most recent cycle report, nil before the first
func (s *Scheduler) LastCycle() *model.CycleReport {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastCycle
}

// LastSuccess returns the last error-free cycle time per source
func (s *Scheduler) LastSuccess() map[string]time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make(map[string]time.Time, len(s.lastSuccess))
	for name, t := range s.lastSuccess {
		out[name] = t
	}
	return out
}

// SetPipeline swaps the analyzer and chunker used by subsequent cycles,
// as part of an explicit reconfiguration
func (s *Scheduler) SetPipeline(analyzer *analyze.Analyzer, chunker *chunk.Chunker) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.analyzer = analyzer
	s.chunker = chunker
}

// UpdateSources replaces the source configuration. Takes effect from the
// next cycle; new sources run on their next due time.
func (s *Scheduler) UpdateSources(sources []model.Source) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.sources = sources
	for _, src := range sources {
		if src.Enabled {
			if _, ok := s.nextRun[src.Name]; !ok {
				s.nextRun[src.Name] = s.now()
			}
		}
	}
}

func (s *Scheduler) dueSources() []model.Source {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	var due []model.Source
	for _, src := range s.sources {
		if !src.Enabled {
			continue
		}
		if next, ok := s.nextRun[src.Name]; ok && !next.After(now) {
			due = append(due, src)
		}
	}
	return due
}

// fetchJob wraps one adapter invocation for the worker pool
type fetchJob struct {
	adapter adapters.Adapter
	source  model.Source
	timeout time.Duration
}

// fetchResult carries a job's items back to the cycle
type fetchResult struct {
	source model.Source
	items  []model.RawItem
	err    error
}

// GetError returns the adapter-level error, if any
func (r *fetchResult) GetError() error { return r.err }

// Execute fetches with the per-adapter deadline. Partial results survive a
// timeout: whatever the adapter emitted before the deadline comes back.
func (j *fetchJob) Execute(ctx context.Context) worker.Result {
	ctx, cancel := context.WithTimeout(ctx, j.timeout)
	defer cancel()

	items, err := j.adapter.Fetch(ctx, j.source)
	return &fetchResult{source: j.source, items: items, err: err}
}

// RunCycle runs one ingestion cycle over the given sources: concurrent
// adapter fan-out, then sequential analyze/chunk/store per item, then
// exactly one knowledge base rebuild. Exported so one-shot ingestion and
// tests can drive cycles directly.
func (s *Scheduler) RunCycle(ctx context.Context, sources []model.Source) *model.CycleReport {
	s.setState(StateRunning)

	report := &model.CycleReport{Started: s.now()}
	for _, src := range sources {
		report.Sources = append(report.Sources, src.Name)
	}

	pool := worker.NewPool(s.adapterWorkers)
	pool.Start()

	failed := make(map[string]bool)
	for _, src := range sources {
		adapter, ok := s.registry.ForKind(src.Kind)
		if !ok {
			report.RecordError(src.Name, fmt.Errorf("no adapter for kind %q", src.Kind), s.now())
			failed[src.Name] = true
			continue
		}
		pool.Submit(&fetchJob{adapter: adapter, source: src, timeout: s.adapterTimeout})
	}

	results := pool.Wait()

	s.mu.Lock()
	analyzer, chunker := s.analyzer, s.chunker
	s.mu.Unlock()

storing:
	for _, result := range results {
		res := result.(*fetchResult)
		if res.err != nil {
			report.RecordError(res.source.Name, res.err, s.now())
			failed[res.source.Name] = true
		}

		// Items preserve the adapter's own emission order; partial results
		// from a timed-out adapter are still stored.
		for _, raw := range res.items {
			report.Fetched++
			status, err := s.storeItem(raw, res.source, analyzer, chunker)
			switch {
			case err != nil:
				// Storage gave out: remaining writes are lost for this
				// cycle, but the knowledge base still rebuilds on whatever
				// was stored.
				report.RecordError(res.source.Name, err, s.now())
				report.PartialFailure = true
				failed[res.source.Name] = true
				break storing
			case status == store.PutStored:
				report.Stored++
			case status == store.PutUpdated:
				report.Updated++
			case status == store.PutDuplicate:
				report.Duplicates++
			case status == "":
				report.Skipped++
			}
		}
	}

	s.setState(StateAggregating)
	s.assembler.Rebuild()

	report.Finished = s.now()

	s.mu.Lock()
	s.state = StateIdle
	s.lastCycle = report
	for _, src := range sources {
		if !failed[src.Name] {
			s.lastSuccess[src.Name] = report.Finished
		}
	}
	s.mu.Unlock()

	if s.OnCycle != nil {
		s.OnCycle(report)
	}
	return report
}

// storeItem turns a raw item into a stored, analyzed, chunked ContentItem.
// Malformed items (empty body) are skipped with an empty status.
func (s *Scheduler) storeItem(raw model.RawItem, src model.Source, analyzer *analyze.Analyzer, chunker *chunk.Chunker) (store.PutStatus, error) {
	if strings.TrimSpace(raw.Body) == "" {
		return "", nil
	}

	item := model.ContentItem{
		ID:          uuid.New().String(),
		Title:       raw.Title,
		Body:        raw.Body,
		Kind:        itemKind(raw, src),
		SourceName:  src.Name,
		URL:         raw.URL,
		Author:      raw.Author,
		PublishedAt: raw.PublishedAt,
		CollectedAt: s.now(),
	}
	analyzer.Enrich(&item)

	status, id, err := s.store.Put(item, false)
	if err != nil {
		return status, err
	}

	if status == store.PutStored || status == store.PutUpdated {
		// Chunks belong to whichever item holds the content after the put
		item.ID = id
		s.store.SetChunks(id, chunker.Split(item))
	}
	return status, nil
}

// itemKind resolves the stored kind from the adapter's hint, falling back
// to a default per source kind
func itemKind(raw model.RawItem, src model.Source) model.ContentKind {
	if raw.KindHint != "" {
		return raw.KindHint
	}
	switch src.Kind {
	case model.SourceKindSocial:
		return model.KindPost
	default:
		return model.KindArticle
	}
}

func (s *Scheduler) setState(state State) {
	s.mu.Lock()
	s.state = state
	s.mu.Unlock()
}
