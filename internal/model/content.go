package model

import "time"

// SourceKind identifies the adapter family a source is polled with
type SourceKind string

const (
	SourceKindWeb    SourceKind = "web"    // Plain web pages
	SourceKindFeed   SourceKind = "feed"   // RSS/Atom/JSON feeds
	SourceKindSocial SourceKind = "social" // Social post endpoints
)

// Source is the configuration for one polled source.
// It is owned by the scheduler and mutated only through Reconfigure.
type Source struct {
	Name    string        `yaml:"name" json:"name" mapstructure:"name"`
	Kind    SourceKind    `yaml:"kind" json:"kind" mapstructure:"kind"`
	Enabled bool          `yaml:"enabled" json:"enabled" mapstructure:"enabled"`
	Targets []string      `yaml:"targets" json:"targets" mapstructure:"targets"` // URLs, feed URLs, or endpoint URLs
	Terms   []string      `yaml:"terms" json:"terms" mapstructure:"terms"`       // search terms; social posts matching none are dropped
	Every   time.Duration `yaml:"every" json:"every" mapstructure:"every"`       // poll frequency; 0 uses the scheduler default
}

// ContentKind categorizes a content item
type ContentKind string

const (
	KindArticle    ContentKind = "article"
	KindPost       ContentKind = "post"
	KindTweet      ContentKind = "tweet"
	KindVideo      ContentKind = "video"
	KindDocument   ContentKind = "document"
	KindTranscript ContentKind = "transcript"
)

// Sentiment is the coarse tone label assigned by the analyzer
type Sentiment string

const (
	SentimentPositive Sentiment = "positive"
	SentimentNeutral  Sentiment = "neutral"
	SentimentNegative Sentiment = "negative"
)

// Complexity is the reading-difficulty label assigned by the analyzer
type Complexity string

const (
	ComplexityLow    Complexity = "low"
	ComplexityMedium Complexity = "medium"
	ComplexityHigh   Complexity = "high"
)

// RawItem is what a source adapter emits before the item enters the store.
// PublishedAt may be zero when the source does not expose a date.
type RawItem struct {
	Title       string      `json:"title"`
	Body        string      `json:"body"`
	URL         string      `json:"url,omitempty"`
	Author      string      `json:"author,omitempty"`
	PublishedAt time.Time   `json:"published_at,omitempty"`
	KindHint    ContentKind `json:"kind_hint,omitempty"`
}

// ContentItem is the central stored entity. The derived fields are empty
// until the analyzer has run; Analyzed marks the boundary.
type ContentItem struct {
	ID          string      `json:"id"` // assigned at ingestion, never derived from content
	Title       string      `json:"title"`
	Body        string      `json:"body"`
	Kind        ContentKind `json:"kind"`
	SourceName  string      `json:"source_name"`
	URL         string      `json:"url,omitempty"` // dedup key when present
	Author      string      `json:"author,omitempty"`
	PublishedAt time.Time   `json:"published_at,omitempty"`
	CollectedAt time.Time   `json:"collected_at"`
	Tags        []string    `json:"tags,omitempty"`

	// Derived fields, populated by the analyzer
	Topics         []string   `json:"topics,omitempty"`
	Sentiment      Sentiment  `json:"sentiment,omitempty"`
	Keywords       []string   `json:"keywords,omitempty"`
	Complexity     Complexity `json:"complexity,omitempty"`
	Actionable     bool       `json:"actionable,omitempty"`
	RelevanceScore float64    `json:"relevance_score,omitempty"`
	Summary        string     `json:"summary,omitempty"`
	Analyzed       bool       `json:"analyzed"`
}

// Chunk is a bounded slice of a ContentItem body. Chunks reference their
// parent by ID and are regenerated wholesale when the parent body changes.
type Chunk struct {
	ID           string   `json:"id"`
	SourceItemID string   `json:"source_item_id"`
	Index        int      `json:"index"` // position within the parent, 0-based
	Text         string   `json:"text"`
	WordCount    int      `json:"word_count"`
	Keywords     []string `json:"keywords,omitempty"`
}

// ScoredItem is one ranked retrieval hit
type ScoredItem struct {
	Item    ContentItem `json:"item"`
	Score   int         `json:"score"`
	Excerpt string      `json:"excerpt,omitempty"` // best-matching chunk text
}

// QueryResult is the transient output of one retrieval call
type QueryResult struct {
	Query      string       `json:"query"`
	Scope      string       `json:"scope,omitempty"`
	FullCorpus bool         `json:"full_corpus"` // digest mode: everything in scope, unscored
	Results    []ScoredItem `json:"results"`
}
