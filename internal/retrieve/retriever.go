// Package retrieve ranks stored content against a free-text query. The
// retriever is stateless per call; the store it reads is its only input.
package retrieve

import (
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/curatorhq/curator/internal/model"
	"github.com/curatorhq/curator/internal/store"
)

// Scoring weights, per match field
const (
	weightTitle       = 100
	weightSourceName  = 80
	weightSummary     = 60
	weightBody        = 40
	weightVocabulary  = 20
	weightSubstantial = 10
)

// ScopeAll requests the whole corpus rather than a single source
const ScopeAll = "all"

// summaryTriggers flip a query into full-corpus digest mode. The scope
// "all" with an empty query is treated as the same mode: both are requests
// for everything, not a targeted search.
var summaryTriggers = []string{
	"summarize", "summary", "synthesis", "overview", "digest",
	"resumen", "síntesis", "sintesis",
}

// Retriever scores candidates from the store against free-text queries
type Retriever struct {
	store       *store.Store
	vocabulary  []string
	topK        int
	substantial int
}

// New creates a retriever over the given store
func New(st *store.Store, cfg model.RetrievalConfig) *Retriever {
	topK := cfg.TopK
	if topK <= 0 {
		topK = 5
	}
	substantial := cfg.SubstantialBytes
	if substantial <= 0 {
		substantial = 500
	}

	vocab := make([]string, 0, len(cfg.Vocabulary))
	for _, term := range cfg.Vocabulary {
		vocab = append(vocab, strings.ToLower(term))
	}

	return &Retriever{
		store:       st,
		vocabulary:  vocab,
		topK:        topK,
		substantial: substantial,
	}
}

// Retrieve ranks the candidate set against the query. scope narrows
// candidates to one source name ("" or "all" means everything); topK <= 0
// uses the configured default. A summary-intent query, or an empty query,
// bypasses scoring and returns the whole candidate set ordered by
// collection time.
func (r *Retriever) Retrieve(query, scope string, topK int) model.QueryResult {
	if topK <= 0 {
		topK = r.topK
	}

	filter := store.Filter{}
	if scope != "" && !strings.EqualFold(scope, ScopeAll) {
		filter.Source = scope
	}
	candidates := r.store.Query(filter) // already collectedAt desc, ID asc

	result := model.QueryResult{
		Query: query,
		Scope: scope,
	}

	if isFullCorpus(query) {
		result.FullCorpus = true
		result.Results = make([]model.ScoredItem, 0, len(candidates))
		for _, item := range candidates {
			result.Results = append(result.Results, model.ScoredItem{
				Item:    item,
				Excerpt: r.excerpt(item, ""),
			})
		}
		return result
	}

	lowerQuery := strings.ToLower(query)

	scored := make([]model.ScoredItem, 0, len(candidates))
	for _, item := range candidates {
		score := r.score(lowerQuery, item)
		if score == 0 {
			continue
		}
		scored = append(scored, model.ScoredItem{
			Item:    item,
			Score:   score,
			Excerpt: r.excerpt(item, lowerQuery),
		})
	}

	// Score desc, then collectedAt desc, then ID asc. Candidates arrive in
	// the latter order already, and the sort is stable.
	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})

	if len(scored) > topK {
		scored = scored[:topK]
	}
	result.Results = scored
	return result
}

// score computes the match score of one candidate against a lowered query
func (r *Retriever) score(lowerQuery string, item model.ContentItem) int {
	lowerBody := strings.ToLower(item.Body)

	score := 0
	if lowerQuery != "" {
		if strings.Contains(strings.ToLower(item.Title), lowerQuery) {
			score += weightTitle
		}
		if strings.Contains(strings.ToLower(item.SourceName), lowerQuery) {
			score += weightSourceName
		}
		if strings.Contains(strings.ToLower(item.Summary), lowerQuery) {
			score += weightSummary
		}
		if strings.Contains(lowerBody, lowerQuery) {
			score += weightBody
		}
	}

	for _, term := range r.vocabulary {
		if strings.Contains(lowerQuery, term) && strings.Contains(lowerBody, term) {
			score += weightVocabulary
		}
	}

	// The length bonus only applies to items that matched something else,
	// otherwise every long item would score above zero.
	if score > 0 && len(item.Body) > r.substantial {
		score += weightSubstantial
	}

	return score
}

// excerpt picks the best chunk of an item for display: the first chunk
// containing the query, else the first chunk, else a truncated body.
func (r *Retriever) excerpt(item model.ContentItem, lowerQuery string) string {
	chunks := r.store.Chunks(item.ID)
	if len(chunks) == 0 {
		return truncate(item.Body, 240)
	}

	if lowerQuery != "" {
		for _, chunk := range chunks {
			if strings.Contains(strings.ToLower(chunk.Text), lowerQuery) {
				return chunk.Text
			}
		}
	}
	return chunks[0].Text
}

// truncate cuts s to at most n bytes without splitting a rune
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}

// isFullCorpus reports whether the query asks for the whole corpus rather
// than a targeted search
func isFullCorpus(query string) bool {
	trimmed := strings.TrimSpace(query)
	if trimmed == "" {
		return true
	}

	lower := strings.ToLower(trimmed)
	for _, trigger := range summaryTriggers {
		if strings.Contains(lower, trigger) {
			return true
		}
	}
	return false
}
