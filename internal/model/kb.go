package model

import "time"

// TermCount is one row of a frequency table
type TermCount struct {
	Term  string `json:"term"`
	Count int    `json:"count"`
}

// TopicCluster groups the IDs of items sharing a topic
type TopicCluster struct {
	Topic   string   `json:"topic"`
	ItemIDs []string `json:"item_ids"`
}

// KnowledgeBase is a derived, replaceable snapshot of the store's contents.
// It is never the source of truth; the assembler rebuilds it from scratch
// and swaps it in whole.
type KnowledgeBase struct {
	Concepts  []TermCount    `json:"concepts"` // topic frequency across the corpus
	Keywords  []TermCount    `json:"keywords"` // keyword frequency across the corpus
	Clusters  []TopicCluster `json:"clusters"`
	Trending  []string       `json:"trending"` // topics dominating the last week
	ItemCount int            `json:"item_count"`
	BuiltAt   time.Time      `json:"built_at"`
}

// StoreStats are the aggregate counts exposed by the content store
type StoreStats struct {
	TotalItems int                 `json:"total_items"`
	ByKind     map[ContentKind]int `json:"by_kind"`
	BySource   map[string]int      `json:"by_source"`
	ByDay      map[string]int      `json:"by_day"` // collection date, YYYY-MM-DD
	Keywords   []TermCount         `json:"keywords"`
}
