package ingest

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/curatorhq/curator/internal/analyze"
	"github.com/curatorhq/curator/internal/chunk"
	"github.com/curatorhq/curator/internal/ingest/adapters"
	"github.com/curatorhq/curator/internal/model"
	"github.com/curatorhq/curator/internal/store"
)

// stubAdapter is a canned-response adapter. With block set it holds until
// the context deadline and then reports its items as a partial result.
type stubAdapter struct {
	kind  model.SourceKind
	items []model.RawItem
	err   error
	block bool
}

func (a *stubAdapter) Name() string           { return "stub-" + string(a.kind) }
func (a *stubAdapter) Kind() model.SourceKind { return a.kind }

func (a *stubAdapter) Fetch(ctx context.Context, src model.Source) ([]model.RawItem, error) {
	if a.block {
		<-ctx.Done()
		return a.items, ctx.Err()
	}
	return a.items, a.err
}

type countingAssembler struct {
	mu    sync.Mutex
	calls int
}

func (c *countingAssembler) Rebuild() *model.KnowledgeBase {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls++
	return &model.KnowledgeBase{}
}

func (c *countingAssembler) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls
}

func newTestScheduler(registry *adapters.Registry, st *store.Store, assembler Assembler, sources []model.Source) *Scheduler {
	return New(
		registry,
		st,
		analyze.New(model.AnalysisConfig{TopKeywords: 10}),
		chunk.New(100, nil),
		assembler,
		model.SchedulerConfig{
			DefaultEvery:    time.Minute,
			AdapterTimeout:  100 * time.Millisecond,
			TickGranularity: 10 * time.Millisecond,
		},
		model.ConcurrencyConfig{AdapterWorkers: 4},
		sources,
	)
}

func rawItem(title, url string) model.RawItem {
	return model.RawItem{
		Title: title,
		Body:  "a body with enough words to store for " + title,
		URL:   url,
	}
}

func TestRunCycle_IsolatesAdapterFailure(t *testing.T) {
	registry := adapters.NewRegistry()
	registry.Register(&stubAdapter{
		kind:  model.SourceKindWeb,
		items: []model.RawItem{rawItem("web one", "https://a.example/1")},
	})
	registry.Register(&stubAdapter{
		kind:  model.SourceKindFeed,
		items: []model.RawItem{rawItem("feed one", "https://b.example/1")},
	})
	registry.Register(&stubAdapter{
		kind:  model.SourceKindSocial,
		items: []model.RawItem{rawItem("late post", "https://c.example/1")},
		block: true, // exceeds the adapter deadline
	})

	st := store.New()
	assembler := &countingAssembler{}
	sources := []model.Source{
		{Name: "site", Kind: model.SourceKindWeb, Enabled: true},
		{Name: "blog", Kind: model.SourceKindFeed, Enabled: true},
		{Name: "chatter", Kind: model.SourceKindSocial, Enabled: true},
	}
	s := newTestScheduler(registry, st, assembler, sources)

	report := s.RunCycle(context.Background(), sources)

	if len(report.Errors) != 1 || report.Errors[0].Source != "chatter" {
		t.Fatalf("expected one error from chatter, got %+v", report.Errors)
	}
	if report.PartialFailure {
		t.Error("an adapter timeout must not mark the cycle as a partial storage failure")
	}
	// Partial results from the timed-out adapter still count
	if report.Fetched != 3 || report.Stored != 3 {
		t.Errorf("fetched=%d stored=%d, want 3/3", report.Fetched, report.Stored)
	}
	if st.Len() != 3 {
		t.Errorf("store holds %d items, want 3", st.Len())
	}
	if assembler.count() != 1 {
		t.Errorf("assembler rebuilt %d times, want exactly 1", assembler.count())
	}
	if s.State() != StateIdle {
		t.Errorf("state = %q after cycle, want %q", s.State(), StateIdle)
	}

	success := s.LastSuccess()
	if _, ok := success["site"]; !ok {
		t.Error("healthy source missing from last-success map")
	}
	if _, ok := success["chatter"]; ok {
		t.Error("failed source recorded as successful")
	}
}

func TestRunCycle_CountsDuplicatesAcrossCycles(t *testing.T) {
	registry := adapters.NewRegistry()
	registry.Register(&stubAdapter{
		kind:  model.SourceKindWeb,
		items: []model.RawItem{rawItem("same page", "https://a.example/same")},
	})

	st := store.New()
	sources := []model.Source{{Name: "site", Kind: model.SourceKindWeb, Enabled: true}}
	s := newTestScheduler(registry, st, &countingAssembler{}, sources)

	first := s.RunCycle(context.Background(), sources)
	second := s.RunCycle(context.Background(), sources)

	if first.Stored != 1 || first.Duplicates != 0 {
		t.Errorf("first cycle: stored=%d duplicates=%d", first.Stored, first.Duplicates)
	}
	if second.Stored != 0 || second.Duplicates != 1 {
		t.Errorf("second cycle: stored=%d duplicates=%d", second.Stored, second.Duplicates)
	}
	if st.Len() != 1 {
		t.Errorf("store holds %d items, want 1", st.Len())
	}
}

func TestRunCycle_DeduplicatesWithinCycle(t *testing.T) {
	registry := adapters.NewRegistry()
	registry.Register(&stubAdapter{
		kind: model.SourceKindWeb,
		items: []model.RawItem{
			rawItem("one", "https://a.example/1"),
			rawItem("two", "https://a.example/2"),
			{Title: "one again", Body: "a later emission of the same page", URL: "https://a.example/1"},
			rawItem("three", "https://a.example/3"),
			rawItem("four", "https://a.example/4"),
		},
	})

	st := store.New()
	sources := []model.Source{{Name: "site", Kind: model.SourceKindWeb, Enabled: true}}
	s := newTestScheduler(registry, st, &countingAssembler{}, sources)

	report := s.RunCycle(context.Background(), sources)

	if report.Fetched != 5 || report.Stored != 4 || report.Duplicates != 1 {
		t.Errorf("fetched=%d stored=%d duplicates=%d, want 5/4/1",
			report.Fetched, report.Stored, report.Duplicates)
	}
	if st.Len() != 4 {
		t.Errorf("store holds %d items, want 4", st.Len())
	}
	if stats := st.Stats(); stats.TotalItems != 4 {
		t.Errorf("stats.TotalItems = %d, want 4", stats.TotalItems)
	}
}

func TestRunCycle_SkipsEmptyBodies(t *testing.T) {
	registry := adapters.NewRegistry()
	registry.Register(&stubAdapter{
		kind: model.SourceKindWeb,
		items: []model.RawItem{
			{Title: "empty", Body: "   ", URL: "https://a.example/empty"},
			rawItem("real", "https://a.example/real"),
		},
	})

	st := store.New()
	sources := []model.Source{{Name: "site", Kind: model.SourceKindWeb, Enabled: true}}
	s := newTestScheduler(registry, st, &countingAssembler{}, sources)

	report := s.RunCycle(context.Background(), sources)

	if report.Skipped != 1 || report.Stored != 1 {
		t.Errorf("skipped=%d stored=%d, want 1/1", report.Skipped, report.Stored)
	}
	if len(report.Errors) != 0 {
		t.Errorf("malformed items must not produce errors: %+v", report.Errors)
	}
}

func TestRunCycle_StoredItemsAreAnalyzedAndChunked(t *testing.T) {
	registry := adapters.NewRegistry()
	registry.Register(&stubAdapter{
		kind: model.SourceKindWeb,
		items: []model.RawItem{{
			Title: "How to run LinkedIn ads",
			Body:  "A step by step guide to advertising campaigns with measurable analytics results.",
			URL:   "https://a.example/guide",
		}},
	})

	st := store.New()
	sources := []model.Source{{Name: "site", Kind: model.SourceKindWeb, Enabled: true}}
	s := newTestScheduler(registry, st, &countingAssembler{}, sources)

	s.RunCycle(context.Background(), sources)

	items := st.Query(store.Filter{})
	if len(items) != 1 {
		t.Fatalf("expected one stored item, got %d", len(items))
	}
	item := items[0]
	if !item.Analyzed {
		t.Error("stored item not analyzed")
	}
	if item.Kind != model.KindArticle {
		t.Errorf("kind = %q, want article fallback", item.Kind)
	}
	if item.CollectedAt.IsZero() {
		t.Error("collection time not set")
	}
	if chunks := st.Chunks(item.ID); len(chunks) == 0 {
		t.Error("stored item has no chunks")
	}
}

func TestRunCycle_UnknownKindIsReported(t *testing.T) {
	st := store.New()
	sources := []model.Source{{Name: "odd", Kind: "carrier-pigeon", Enabled: true}}
	s := newTestScheduler(adapters.NewRegistry(), st, &countingAssembler{}, sources)

	report := s.RunCycle(context.Background(), sources)

	if len(report.Errors) != 1 || report.Errors[0].Source != "odd" {
		t.Errorf("expected a config error for the unknown kind, got %+v", report.Errors)
	}
	if _, ok := s.LastSuccess()["odd"]; ok {
		t.Error("source with no adapter recorded as successful")
	}
}

func TestRunCycle_SocialKindFallback(t *testing.T) {
	registry := adapters.NewRegistry()
	registry.Register(&stubAdapter{
		kind:  model.SourceKindSocial,
		items: []model.RawItem{rawItem("a post", "https://c.example/p/1")},
	})

	st := store.New()
	sources := []model.Source{{Name: "chatter", Kind: model.SourceKindSocial, Enabled: true}}
	s := newTestScheduler(registry, st, &countingAssembler{}, sources)

	s.RunCycle(context.Background(), sources)

	items := st.Query(store.Filter{})
	if len(items) != 1 || items[0].Kind != model.KindPost {
		t.Errorf("expected a post, got %+v", items)
	}
}

func TestRunCycle_AdapterErrorWithNoItems(t *testing.T) {
	registry := adapters.NewRegistry()
	registry.Register(&stubAdapter{
		kind: model.SourceKindFeed,
		err:  errors.New("connection refused"),
	})

	st := store.New()
	assembler := &countingAssembler{}
	sources := []model.Source{{Name: "blog", Kind: model.SourceKindFeed, Enabled: true}}
	s := newTestScheduler(registry, st, assembler, sources)

	report := s.RunCycle(context.Background(), sources)

	if len(report.Errors) != 1 {
		t.Fatalf("expected one error, got %+v", report.Errors)
	}
	if st.Len() != 0 {
		t.Errorf("nothing should have been stored, got %d items", st.Len())
	}
	// The knowledge base still rebuilds even on an all-failed cycle
	if assembler.count() != 1 {
		t.Errorf("assembler rebuilt %d times, want 1", assembler.count())
	}
}

func TestRun_StopEndsLoop(t *testing.T) {
	registry := adapters.NewRegistry()
	registry.Register(&stubAdapter{kind: model.SourceKindWeb})

	sources := []model.Source{{Name: "site", Kind: model.SourceKindWeb, Enabled: true}}
	s := newTestScheduler(registry, store.New(), &countingAssembler{}, sources)

	done := make(chan struct{})
	go func() {
		s.Run(context.Background())
		close(done)
	}()

	time.Sleep(30 * time.Millisecond)
	s.Stop()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after Stop")
	}
	// Stop is idempotent
	s.Stop()
}

func TestRun_HonorsContextCancel(t *testing.T) {
	s := newTestScheduler(adapters.NewRegistry(), store.New(), &countingAssembler{}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Run(ctx)
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after context cancellation")
	}
}

func TestUpdateSources_NewSourceBecomesDue(t *testing.T) {
	registry := adapters.NewRegistry()
	registry.Register(&stubAdapter{
		kind:  model.SourceKindWeb,
		items: []model.RawItem{rawItem("page", "https://a.example/1")},
	})

	s := newTestScheduler(registry, store.New(), &countingAssembler{}, nil)

	s.UpdateSources([]model.Source{{Name: "site", Kind: model.SourceKindWeb, Enabled: true}})

	due := s.dueSources()
	if len(due) != 1 || due[0].Name != "site" {
		t.Errorf("expected the new source due immediately, got %+v", due)
	}
}

func TestDueSources_SkipsDisabled(t *testing.T) {
	s := newTestScheduler(adapters.NewRegistry(), store.New(), &countingAssembler{}, nil)

	s.UpdateSources([]model.Source{
		{Name: "on", Kind: model.SourceKindWeb, Enabled: true},
		{Name: "off", Kind: model.SourceKindWeb, Enabled: false},
	})

	due := s.dueSources()
	if len(due) != 1 || due[0].Name != "on" {
		t.Errorf("disabled source should never be due, got %+v", due)
	}
}
