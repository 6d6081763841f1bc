// Package analyze derives topics, sentiment, keywords, complexity,
// actionability and a relevance score from raw content. Every sub-algorithm
// is a pure table-driven heuristic; the tables are pluggable so a future
// embedding-based scorer can replace them without touching the store or
// scheduler contracts.
package analyze

import (
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/curatorhq/curator/internal/model"
)

// TopicRules maps a topic label to the trigger phrases that assign it
type TopicRules map[string][]string

// DefaultTopicRules returns the built-in topic table
func DefaultTopicRules() TopicRules {
	return TopicRules{
		"social-media": {
			"linkedin", "twitter", "instagram", "facebook", "tiktok",
			"social media", "social network",
		},
		"advertising": {
			"ads", "ad campaign", "advertising", "ppc", "paid media",
			"sponsored", "adwords",
		},
		"geomarketing": {
			"geomarketing", "geotargeting", "local search", "location-based",
			"store visits", "foot traffic",
		},
		"content-marketing": {
			"content marketing", "content strategy", "blog post", "editorial",
			"storytelling", "copywriting", "newsletter",
		},
		"seo": {
			"seo", "search engine", "organic traffic", "backlink", "ranking",
			"serp",
		},
		"analytics": {
			"analytics", "metrics", "conversion rate", "kpi", "dashboard",
			"attribution",
		},
		"artificial-intelligence": {
			"artificial intelligence", "machine learning", "generative",
			"llm", "chatbot", "automation",
		},
	}
}

// Counting is by substring, so these lists hold stems only: "success"
// also counts "successful", "fail" also counts "failure".
var defaultPositiveWords = []string{
	"great", "good", "success", "growth", "winning", "improve",
	"effective", "best", "excellent", "love", "opportunity",
	"innovative", "strong",
}

var defaultNegativeWords = []string{
	"bad", "fail", "decline", "problem", "risk", "worst", "loss",
	"poor", "difficult", "crisis", "weak", "threat", "mistake",
}

// Stop words longer than the four-character floor that still carry no signal
var defaultStopWords = []string{
	"about", "above", "after", "again", "before", "being", "because",
	"between", "could", "during", "every", "first", "other", "should",
	"since", "still", "their", "there", "these", "things", "those",
	"through", "under", "where", "which", "while", "would", "really",
	"going", "using",
}

var defaultActionMarkers = []string{
	"how to", "step", "guide", "method", "checklist", "tutorial",
	"framework", "template", "tips",
}

// Analyzer enriches content items. It is stateless apart from its tables
// and safe for concurrent use.
type Analyzer struct {
	topics        TopicRules
	positive      []string
	negative      []string
	stopWords     map[string]struct{}
	actionMarkers []string
	trusted       map[string]struct{}
	highValue     map[string]struct{}
	topKeywords   int

	// now is injectable so recency scoring is testable
	now func() time.Time
}

// New creates an analyzer from the analysis configuration
func New(cfg model.AnalysisConfig) *Analyzer {
	topN := cfg.TopKeywords
	if topN <= 0 {
		topN = 10
	}

	stop := make(map[string]struct{}, len(defaultStopWords))
	for _, w := range defaultStopWords {
		stop[w] = struct{}{}
	}

	trusted := make(map[string]struct{}, len(cfg.TrustedSources))
	for _, s := range cfg.TrustedSources {
		trusted[strings.ToLower(s)] = struct{}{}
	}

	highValue := make(map[string]struct{}, len(cfg.HighValueTopics))
	for _, t := range cfg.HighValueTopics {
		highValue[strings.ToLower(t)] = struct{}{}
	}

	return &Analyzer{
		topics:        DefaultTopicRules(),
		positive:      defaultPositiveWords,
		negative:      defaultNegativeWords,
		stopWords:     stop,
		actionMarkers: defaultActionMarkers,
		trusted:       trusted,
		highValue:     highValue,
		topKeywords:   topN,
		now:           time.Now,
	}
}

// Enrich populates the derived fields of an item in place
func (a *Analyzer) Enrich(item *model.ContentItem) {
	text := item.Title + " " + item.Body

	item.Topics = a.Topics(text)
	item.Sentiment = a.Sentiment(text)
	item.Keywords = a.Keywords(item.Body)
	item.Complexity = a.Complexity(item.Body)
	item.Actionable = a.Actionable(item.Body)
	item.Summary = a.Summarize(item.Body)
	item.RelevanceScore = a.Relevance(item)
	item.Analyzed = true
}

// Topics assigns every topic whose trigger table matches the text.
// Matching is case-insensitive substring containment.
func (a *Analyzer) Topics(text string) []string {
	lower := strings.ToLower(text)

	var matched []string
	for topic, triggers := range a.topics {
		for _, trigger := range triggers {
			if strings.Contains(lower, trigger) {
				matched = append(matched, topic)
				break
			}
		}
	}

	sort.Strings(matched)
	return matched
}

// Sentiment counts positive and negative word occurrences; the strictly
// larger count wins, any tie (including zero/zero) is neutral.
func (a *Analyzer) Sentiment(text string) model.Sentiment {
	lower := strings.ToLower(text)

	pos := 0
	for _, w := range a.positive {
		pos += strings.Count(lower, w)
	}

	neg := 0
	for _, w := range a.negative {
		neg += strings.Count(lower, w)
	}

	switch {
	case pos > neg:
		return model.SentimentPositive
	case neg > pos:
		return model.SentimentNegative
	default:
		return model.SentimentNeutral
	}
}

// Keywords tokenizes on whitespace, drops short and stop-listed tokens, and
// returns the top-N tokens by frequency. Ties keep first-occurrence order.
func (a *Analyzer) Keywords(text string) []string {
	counts := make(map[string]int)
	firstSeen := make(map[string]int)

	for i, raw := range strings.Fields(strings.ToLower(text)) {
		token := strings.Trim(raw, ".,;:!?\"'()[]{}«»…")
		if len(token) < 5 {
			continue
		}
		if _, stop := a.stopWords[token]; stop {
			continue
		}
		if _, seen := counts[token]; !seen {
			firstSeen[token] = i
		}
		counts[token]++
	}

	tokens := make([]string, 0, len(counts))
	for token := range counts {
		tokens = append(tokens, token)
	}

	sort.Slice(tokens, func(i, j int) bool {
		if counts[tokens[i]] != counts[tokens[j]] {
			return counts[tokens[i]] > counts[tokens[j]]
		}
		return firstSeen[tokens[i]] < firstSeen[tokens[j]]
	})

	if len(tokens) > a.topKeywords {
		tokens = tokens[:a.topKeywords]
	}
	return tokens
}

// Complexity classifies by average words per sentence:
// under 15 low, under 25 medium, otherwise high. No sentences means low.
func (a *Analyzer) Complexity(body string) model.Complexity {
	sentences := splitSentences(body)
	if len(sentences) == 0 {
		return model.ComplexityLow
	}

	words := 0
	for _, s := range sentences {
		words += len(strings.Fields(s))
	}

	avg := float64(words) / float64(len(sentences))
	switch {
	case avg < 15:
		return model.ComplexityLow
	case avg < 25:
		return model.ComplexityMedium
	default:
		return model.ComplexityHigh
	}
}

// Actionable reports whether the body carries any instructional marker
func (a *Analyzer) Actionable(body string) bool {
	lower := strings.ToLower(body)
	for _, marker := range a.actionMarkers {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}

// Summarize derives a short description: the first two sentences, capped
// at 240 characters. Used by the retriever as a mid-weight match field.
func (a *Analyzer) Summarize(body string) string {
	sentences := splitSentences(body)
	if len(sentences) == 0 {
		return ""
	}
	if len(sentences) > 2 {
		sentences = sentences[:2]
	}

	summary := strings.Join(sentences, " ")
	return strings.TrimSpace(truncate(summary, 240))
}

// Relevance computes the 0..1 relevance score: base 0.5 plus additive
// bonuses, capped at 1.0. The recency bonuses are mutually exclusive with
// the largest applicable one winning, so the score is monotonic in recency.
func (a *Analyzer) Relevance(item *model.ContentItem) float64 {
	score := 0.5

	if !item.PublishedAt.IsZero() {
		age := a.now().Sub(item.PublishedAt)
		switch {
		case age <= 24*time.Hour:
			score += 0.3
		case age <= 7*24*time.Hour:
			score += 0.2
		case age <= 30*24*time.Hour:
			score += 0.1
		}
	}

	if _, ok := a.trusted[strings.ToLower(item.SourceName)]; ok {
		score += 0.2
	}

	if item.Actionable {
		score += 0.15
	}

	for _, topic := range item.Topics {
		if _, ok := a.highValue[strings.ToLower(topic)]; ok {
			score += 0.1
			break
		}
	}

	if score > 1.0 {
		score = 1.0
	}
	return score
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

// splitSentences splits text on terminators, keeping only fragments that
// contain at least one word
func splitSentences(text string) []string {
	var sentences []string
	var current strings.Builder

	flush := func() {
		s := strings.TrimSpace(current.String())
		if len(strings.Fields(s)) > 0 {
			sentences = append(sentences, s)
		}
		current.Reset()
	}

	for _, r := range text {
		current.WriteRune(r)
		if r == '.' || r == '!' || r == '?' {
			flush()
		}
	}
	flush()

	return sentences
}
