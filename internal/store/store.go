// Package store holds the content corpus: raw and analyzed items plus their
// chunks. It is the only mutable shared resource in the system; every other
// component treats it as the source of truth.
package store

import (
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/curatorhq/curator/internal/model"
)

// PutStatus reports the outcome of a put. A duplicate is a normal outcome,
// not an error.
type PutStatus string

const (
	PutStored    PutStatus = "stored"
	PutUpdated   PutStatus = "updated"
	PutDuplicate PutStatus = "duplicate-url"
)

// Store is an in-memory content store with URL dedup. Safe for concurrent
// use; the single lock makes each put (dedup check included) atomic.
type Store struct {
	mu     sync.RWMutex
	items  map[string]model.ContentItem // by ID
	byURL  map[string]string            // URL -> ID, only for items with a URL
	chunks map[string][]model.Chunk     // item ID -> chunks
}

// New creates an empty store
func New() *Store {
	return &Store{
		items:  make(map[string]model.ContentItem),
		byURL:  make(map[string]string),
		chunks: make(map[string][]model.Chunk),
	}
}

// Put stores an item. When another item already holds the same URL the put
// is rejected as PutDuplicate unless update is set, in which case the
// existing item is merged: non-empty incoming fields overwrite, tags are
// unioned. Items without a URL are never deduplicated.
// The returned ID names the item that holds the content afterwards: the
// incoming item's on a store, the existing item's on an update or duplicate.
func (s *Store) Put(item model.ContentItem, update bool) (PutStatus, string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if item.URL != "" {
		if existingID, ok := s.byURL[item.URL]; ok {
			if !update {
				return PutDuplicate, existingID, nil
			}
			merged := mergeItems(s.items[existingID], item)
			s.items[existingID] = merged
			return PutUpdated, existingID, nil
		}
	}

	s.items[item.ID] = item
	if item.URL != "" {
		s.byURL[item.URL] = item.ID
	}
	return PutStored, item.ID, nil
}

// Get returns the item with the given ID or model.ErrNotFound
func (s *Store) Get(id string) (model.ContentItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	item, ok := s.items[id]
	if !ok {
		return model.ContentItem{}, model.ErrNotFound
	}
	return item, nil
}

// Filter narrows a query. Zero values mean "no constraint"; the populated
// fields apply conjunctively.
type Filter struct {
	Kind   model.ContentKind
	Source string
	From   time.Time
	To     time.Time
	Tags   []string // every listed tag must be present
}

// Query returns the items matching the filter, ordered by collectedAt
// descending with ID ascending as the deterministic tie-break.
func (s *Store) Query(f Filter) []model.ContentItem {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []model.ContentItem
	for _, item := range s.items {
		if matches(item, f) {
			out = append(out, item)
		}
	}

	sort.Slice(out, func(i, j int) bool {
		if !out[i].CollectedAt.Equal(out[j].CollectedAt) {
			return out[i].CollectedAt.After(out[j].CollectedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// SetChunks replaces the chunk set of an item. Chunks are regenerated
// wholesale whenever the parent body changes, so this is replace-not-append.
func (s *Store) SetChunks(itemID string, chunks []model.Chunk) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(chunks) == 0 {
		delete(s.chunks, itemID)
		return
	}
	s.chunks[itemID] = chunks
}

// Chunks returns the chunks of an item in order
func (s *Store) Chunks(itemID string) []model.Chunk {
	s.mu.RLock()
	defer s.mu.RUnlock()

	chunks := s.chunks[itemID]
	out := make([]model.Chunk, len(chunks))
	copy(out, chunks)
	return out
}

// Stats aggregates counts by kind, source and collection day plus the
// corpus-wide keyword frequency table. Seeds the knowledge base assembler.
func (s *Store) Stats() model.StoreStats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := model.StoreStats{
		TotalItems: len(s.items),
		ByKind:     make(map[model.ContentKind]int),
		BySource:   make(map[string]int),
		ByDay:      make(map[string]int),
	}

	keywordCounts := make(map[string]int)
	for _, item := range s.items {
		stats.ByKind[item.Kind]++
		stats.BySource[item.SourceName]++
		stats.ByDay[item.CollectedAt.UTC().Format("2006-01-02")]++
		for _, kw := range item.Keywords {
			keywordCounts[kw]++
		}
	}

	stats.Keywords = sortedCounts(keywordCounts)
	return stats
}

// Len returns the number of stored items
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

// mergeItems merges incoming into existing: non-empty scalar fields
// overwrite, tags are unioned, derived fields follow the incoming item when
// it has been analyzed.
func mergeItems(existing, incoming model.ContentItem) model.ContentItem {
	merged := existing

	if incoming.Title != "" {
		merged.Title = incoming.Title
	}
	if incoming.Body != "" {
		merged.Body = incoming.Body
	}
	if incoming.Kind != "" {
		merged.Kind = incoming.Kind
	}
	if incoming.SourceName != "" {
		merged.SourceName = incoming.SourceName
	}
	if incoming.Author != "" {
		merged.Author = incoming.Author
	}
	if !incoming.PublishedAt.IsZero() {
		merged.PublishedAt = incoming.PublishedAt
	}
	if !incoming.CollectedAt.IsZero() {
		merged.CollectedAt = incoming.CollectedAt
	}
	merged.Tags = unionTags(existing.Tags, incoming.Tags)

	if incoming.Analyzed {
		merged.Topics = incoming.Topics
		merged.Sentiment = incoming.Sentiment
		merged.Keywords = incoming.Keywords
		merged.Complexity = incoming.Complexity
		merged.Actionable = incoming.Actionable
		merged.RelevanceScore = incoming.RelevanceScore
		merged.Summary = incoming.Summary
		merged.Analyzed = true
	}

	return merged
}

func unionTags(a, b []string) []string {
	if len(a) == 0 && len(b) == 0 {
		return nil
	}

	seen := make(map[string]bool, len(a)+len(b))
	var out []string
	for _, tag := range append(append([]string{}, a...), b...) {
		key := strings.ToLower(tag)
		if !seen[key] {
			seen[key] = true
			out = append(out, tag)
		}
	}
	return out
}

func matches(item model.ContentItem, f Filter) bool {
	if f.Kind != "" && item.Kind != f.Kind {
		return false
	}
	if f.Source != "" && !strings.EqualFold(item.SourceName, f.Source) {
		return false
	}
	if !f.From.IsZero() && item.CollectedAt.Before(f.From) {
		return false
	}
	if !f.To.IsZero() && item.CollectedAt.After(f.To) {
		return false
	}
	for _, want := range f.Tags {
		found := false
		for _, tag := range item.Tags {
			if strings.EqualFold(tag, want) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

func sortedCounts(counts map[string]int) []model.TermCount {
	out := make([]model.TermCount, 0, len(counts))
	for term, count := range counts {
		out = append(out, model.TermCount{Term: term, Count: count})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Term < out[j].Term
	})
	return out
}
