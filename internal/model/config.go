package model

import "time"

// Config is the complete runtime configuration.
// Hierarchy (highest to lowest priority): CLI flags, CURATOR_* environment
// variables, ~/.curator/config.yaml, defaults.
type Config struct {
	Sources     []Source          `yaml:"sources" mapstructure:"sources"`
	HTTP        HTTPConfig        `yaml:"http" mapstructure:"http"`
	Concurrency ConcurrencyConfig `yaml:"concurrency" mapstructure:"concurrency"`
	Cache       CacheConfig       `yaml:"cache" mapstructure:"cache"`
	Analysis    AnalysisConfig    `yaml:"analysis" mapstructure:"analysis"`
	Chunking    ChunkConfig       `yaml:"chunking" mapstructure:"chunking"`
	Retrieval   RetrievalConfig   `yaml:"retrieval" mapstructure:"retrieval"`
	Scheduler   SchedulerConfig   `yaml:"scheduler" mapstructure:"scheduler"`
	Store       StoreConfig       `yaml:"store" mapstructure:"store"`
}

// HTTPConfig controls outbound fetches
type HTTPConfig struct {
	Timeout      time.Duration `yaml:"timeout" mapstructure:"timeout"`
	UserAgent    string        `yaml:"user_agent" mapstructure:"user_agent"`
	MaxBodyBytes int64         `yaml:"max_body_bytes" mapstructure:"max_body_bytes"`
	HTTPProxy    string        `yaml:"http_proxy,omitempty" mapstructure:"http_proxy"`
	HTTPSProxy   string        `yaml:"https_proxy,omitempty" mapstructure:"https_proxy"`
	NoProxy      string        `yaml:"no_proxy,omitempty" mapstructure:"no_proxy"`
}

// ConcurrencyConfig bounds the fan-out of a cycle
type ConcurrencyConfig struct {
	AdapterWorkers int     `yaml:"adapter_workers" mapstructure:"adapter_workers"` // adapters running at once
	FetchWorkers   int     `yaml:"fetch_workers" mapstructure:"fetch_workers"`     // concurrent fetches inside one adapter
	RequestsPerSec float64 `yaml:"requests_per_sec" mapstructure:"requests_per_sec"`
	RequestBurst   int     `yaml:"request_burst" mapstructure:"request_burst"`
}

// CacheConfig controls the web adapter's fetch cache
type CacheConfig struct {
	Enabled   bool          `yaml:"enabled" mapstructure:"enabled"`
	Dir       string        `yaml:"dir" mapstructure:"dir"`
	MemoryTTL time.Duration `yaml:"memory_ttl" mapstructure:"memory_ttl"`
	DiskTTL   time.Duration `yaml:"disk_ttl" mapstructure:"disk_ttl"`
}

// AnalysisConfig tunes the content analyzer
type AnalysisConfig struct {
	TrustedSources  []string `yaml:"trusted_sources" mapstructure:"trusted_sources"`
	HighValueTopics []string `yaml:"high_value_topics" mapstructure:"high_value_topics"`
	TopKeywords     int      `yaml:"top_keywords" mapstructure:"top_keywords"`
}

// ChunkConfig tunes the chunker
type ChunkConfig struct {
	MaxWords int `yaml:"max_words" mapstructure:"max_words"`
}

// RetrievalConfig tunes the query-time scorer
type RetrievalConfig struct {
	TopK             int      `yaml:"top_k" mapstructure:"top_k"`
	Vocabulary       []string `yaml:"vocabulary" mapstructure:"vocabulary"` // domain terms worth +20 on a shared match
	SubstantialBytes int      `yaml:"substantial_bytes" mapstructure:"substantial_bytes"`
}

// SchedulerConfig controls cycle timing
type SchedulerConfig struct {
	DefaultEvery    time.Duration `yaml:"default_every" mapstructure:"default_every"`     // for sources with Every == 0
	AdapterTimeout  time.Duration `yaml:"adapter_timeout" mapstructure:"adapter_timeout"` // deadline per adapter invocation
	TickGranularity time.Duration `yaml:"tick_granularity" mapstructure:"tick_granularity"`
}

// StoreConfig controls store persistence
type StoreConfig struct {
	SnapshotPath string `yaml:"snapshot_path" mapstructure:"snapshot_path"` // empty disables persistence
}

// DefaultConfig returns the built-in defaults
func DefaultConfig() *Config {
	return &Config{
		Sources: []Source{},
		HTTP: HTTPConfig{
			Timeout:      30 * time.Second,
			UserAgent:    "Curator/0.1 (+https://github.com/curatorhq/curator)",
			MaxBodyBytes: 2_000_000,
		},
		Concurrency: ConcurrencyConfig{
			AdapterWorkers: 8,
			FetchWorkers:   4,
			RequestsPerSec: 2,
			RequestBurst:   5,
		},
		Cache: CacheConfig{
			Enabled:   true,
			Dir:       "",
			MemoryTTL: 15 * time.Minute,
			DiskTTL:   6 * time.Hour,
		},
		Analysis: AnalysisConfig{
			TrustedSources:  []string{},
			HighValueTopics: []string{},
			TopKeywords:     10,
		},
		Chunking: ChunkConfig{
			MaxWords: 400,
		},
		Retrieval: RetrievalConfig{
			TopK:             5,
			Vocabulary:       DefaultVocabulary(),
			SubstantialBytes: 500,
		},
		Scheduler: SchedulerConfig{
			DefaultEvery:    30 * time.Minute,
			AdapterTimeout:  2 * time.Minute,
			TickGranularity: 15 * time.Second,
		},
		Store: StoreConfig{
			SnapshotPath: "",
		},
	}
}

// DefaultVocabulary is the built-in domain term list used for query/body
// co-occurrence scoring. Overridable via retrieval.vocabulary.
func DefaultVocabulary() []string {
	return []string{
		"linkedin", "geomarketing", "campaign", "advertising", "audience",
		"content", "engagement", "branding", "conversion", "analytics",
		"strategy", "newsletter", "social",
	}
}
