// Package kb builds the aggregate knowledge base: concept and keyword
// frequency tables, topic clusters and trending terms derived from the
// content store. The snapshot is fully reproducible from the store and is
// rebuilt from scratch on every pass.
package kb

import (
	"sort"
	"sync/atomic"
	"time"

	"github.com/curatorhq/curator/internal/model"
	"github.com/curatorhq/curator/internal/store"
)

// trendingWindow bounds how far back an item counts toward trending topics
const trendingWindow = 7 * 24 * time.Hour

// maxTrending caps the trending list
const maxTrending = 10

// Assembler rebuilds knowledge base snapshots from the store. The current
// snapshot is swapped in whole; readers never observe a partial build.
type Assembler struct {
	store   *store.Store
	current atomic.Pointer[model.KnowledgeBase]

	// now is injectable so the trending window is testable
	now func() time.Time
}

// New creates an assembler over the given store
func New(st *store.Store) *Assembler {
	return &Assembler{
		store: st,
		now:   time.Now,
	}
}

// Rebuild constructs a fresh snapshot off to the side and swaps it in
func (a *Assembler) Rebuild() *model.KnowledgeBase {
	snapshot := a.build()
	a.current.Store(snapshot)
	return snapshot
}

// Snapshot returns the current knowledge base. Before the first rebuild it
// returns an empty snapshot with a zero BuiltAt.
func (a *Assembler) Snapshot() *model.KnowledgeBase {
	if snap := a.current.Load(); snap != nil {
		return snap
	}
	return &model.KnowledgeBase{}
}

func (a *Assembler) build() *model.KnowledgeBase {
	items := a.store.Query(store.Filter{})
	stats := a.store.Stats()

	topicCounts := make(map[string]int)
	trendingCounts := make(map[string]int)
	clusters := make(map[string][]string)
	cutoff := a.now().Add(-trendingWindow)

	for _, item := range items {
		for _, topic := range item.Topics {
			topicCounts[topic]++
			clusters[topic] = append(clusters[topic], item.ID)
			if item.CollectedAt.After(cutoff) {
				trendingCounts[topic]++
			}
		}
	}

	kb := &model.KnowledgeBase{
		Concepts:  termTable(topicCounts),
		Keywords:  stats.Keywords,
		Trending:  topTerms(trendingCounts, maxTrending),
		ItemCount: stats.TotalItems,
		BuiltAt:   a.now().UTC(),
	}

	topics := make([]string, 0, len(clusters))
	for topic := range clusters {
		topics = append(topics, topic)
	}
	sort.Strings(topics)
	for _, topic := range topics {
		ids := clusters[topic]
		sort.Strings(ids) // item IDs carry no order of their own
		kb.Clusters = append(kb.Clusters, model.TopicCluster{Topic: topic, ItemIDs: ids})
	}

	return kb
}

func termTable(counts map[string]int) []model.TermCount {
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

func topTerms(counts map[string]int, limit int) []string {
	table := termTable(counts)
	if len(table) > limit {
		table = table[:limit]
	}
	terms := make([]string, len(table))
	for i, row := range table {
		terms[i] = row.Term
	}
	return terms
}
