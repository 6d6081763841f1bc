// Package pipeline wires the content-intelligence service together: store,
// analyzer, chunker, retriever, scheduler and knowledge base assembler
// behind one explicitly constructed instance. There is no process-wide
// state; tests build as many independent services as they like.
package pipeline

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/curatorhq/curator/internal/analyze"
	"github.com/curatorhq/curator/internal/cache"
	"github.com/curatorhq/curator/internal/chunk"
	"github.com/curatorhq/curator/internal/ingest"
	"github.com/curatorhq/curator/internal/ingest/adapters"
	"github.com/curatorhq/curator/internal/kb"
	"github.com/curatorhq/curator/internal/model"
	"github.com/curatorhq/curator/internal/retrieve"
	"github.com/curatorhq/curator/internal/store"
	"github.com/curatorhq/curator/internal/worker"
)

// Service owns the configuration and every component handle. It is the
// in-process API surface consumed by the CLI and by downstream systems.
type Service struct {
	mu        sync.RWMutex
	cfg       *model.Config
	store     *store.Store
	retriever *retrieve.Retriever
	assembler *kb.Assembler
	scheduler *ingest.Scheduler
}

// NewService constructs a service from the given configuration
func NewService(cfg *model.Config) *Service {
	st := store.New()
	analyzer := analyze.New(cfg.Analysis)
	chunker := chunk.New(cfg.Chunking.MaxWords, analyzer.Keywords)
	assembler := kb.New(st)

	limiter := worker.NewLimiter(cfg.Concurrency.RequestsPerSec, cfg.Concurrency.RequestBurst)

	var fetchCache cache.Cache
	if cfg.Cache.Enabled {
		if cfg.Cache.Dir != "" {
			fetchCache = cache.NewLayeredCache(cfg.Cache.MemoryTTL, cfg.Cache.Dir, cfg.Cache.DiskTTL)
		} else {
			fetchCache = cache.NewMemoryCache(cfg.Cache.MemoryTTL, cfg.Cache.MemoryTTL)
		}
	}

	registry := adapters.NewRegistry()
	registry.Register(adapters.NewWebAdapter(cfg.HTTP, cfg.Concurrency, fetchCache, limiter))
	registry.Register(adapters.NewFeedAdapter(cfg.HTTP.UserAgent, cfg.HTTP.Timeout, limiter.Wait))
	registry.Register(adapters.NewSocialAdapter(cfg.HTTP, limiter.Wait))

	scheduler := ingest.New(
		registry, st, analyzer, chunker, assembler,
		cfg.Scheduler, cfg.Concurrency, cfg.Sources,
	)

	return &Service{
		cfg:       cfg,
		store:     st,
		retriever: retrieve.New(st, cfg.Retrieval),
		assembler: assembler,
		scheduler: scheduler,
	}
}

// Run starts the ingestion loop and blocks until the context ends or Stop
// is called. The store snapshot, when configured, is loaded first and saved
// after every cycle.
func (s *Service) Run(ctx context.Context) error {
	s.mu.RLock()
	snapshotPath := s.cfg.Store.SnapshotPath
	s.mu.RUnlock()

	if snapshotPath != "" {
		if err := s.store.Load(snapshotPath); err != nil {
			return fmt.Errorf("load snapshot: %w", err)
		}
		// Rebuild so the accessor serves the restored corpus immediately
		s.assembler.Rebuild()
	}

	inner := s.scheduler.OnCycle
	s.scheduler.OnCycle = func(report *model.CycleReport) {
		if snapshotPath != "" {
			// A failed save costs durability, not the cycle; it still has
			// to show up in the diagnostics.
			if err := s.store.Save(snapshotPath); err != nil {
				report.RecordError("snapshot", err, time.Now())
			}
		}
		if inner != nil {
			inner(report)
		}
	}

	s.scheduler.Run(ctx)
	return nil
}

// RunOnce runs a single ingestion cycle over every enabled source
func (s *Service) RunOnce(ctx context.Context) *model.CycleReport {
	s.mu.RLock()
	var enabled []model.Source
	for _, src := range s.cfg.Sources {
		if src.Enabled {
			enabled = append(enabled, src)
		}
	}
	s.mu.RUnlock()

	return s.scheduler.RunCycle(ctx, enabled)
}

// Stop requests a cooperative scheduler stop between cycles
func (s *Service) Stop() {
	s.scheduler.Stop()
}

// OnCycle installs a callback invoked after every ingestion cycle. Must be
// set before Run.
func (s *Service) OnCycle(fn func(*model.CycleReport)) {
	s.scheduler.OnCycle = fn
}

// Retrieve ranks stored content against a free-text query. See the
// retriever for scope and topK semantics.
func (s *Service) Retrieve(query, scope string, topK int) model.QueryResult {
	s.mu.RLock()
	retriever := s.retriever
	s.mu.RUnlock()
	return retriever.Retrieve(query, scope, topK)
}

// Snapshot returns the current knowledge base and its build timestamp
func (s *Service) Snapshot() *model.KnowledgeBase {
	return s.assembler.Snapshot()
}

// RebuildKnowledgeBase forces a fresh knowledge base build, outside the
// per-cycle rebuild cadence
func (s *Service) RebuildKnowledgeBase() *model.KnowledgeBase {
	return s.assembler.Rebuild()
}

// Stats returns the store's aggregate counts
func (s *Service) Stats() model.StoreStats {
	return s.store.Stats()
}

// LastCycle returns the most recent cycle diagnostics, nil before the first
func (s *Service) LastCycle() *model.CycleReport {
	return s.scheduler.LastCycle()
}

// Store exposes the content store for ingestion-adjacent tooling
func (s *Service) Store() *store.Store {
	return s.store
}

// Reconfigure applies a new configuration to the analysis, chunking,
// retrieval and scheduling layers. Sources change from the next cycle;
// already-stored items are not re-analyzed.
func (s *Service) Reconfigure(cfg *model.Config) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cfg = cfg

	analyzer := analyze.New(cfg.Analysis)
	chunker := chunk.New(cfg.Chunking.MaxWords, analyzer.Keywords)
	s.scheduler.SetPipeline(analyzer, chunker)
	s.scheduler.UpdateSources(cfg.Sources)
	s.retriever = retrieve.New(s.store, cfg.Retrieval)
}
