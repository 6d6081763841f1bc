package retrieve

import (
	"fmt"
	"reflect"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/curatorhq/curator/internal/model"
	"github.com/curatorhq/curator/internal/store"
)

func seededStore(t *testing.T, items ...model.ContentItem) *store.Store {
	t.Helper()
	s := store.New()
	for _, item := range items {
		if _, _, err := s.Put(item, false); err != nil {
			t.Fatal(err)
		}
	}
	return s
}

func testRetriever(s *store.Store) *Retriever {
	return New(s, model.RetrievalConfig{
		TopK:             5,
		SubstantialBytes: 500,
		Vocabulary:       []string{"linkedin", "geomarketing", "campaign"},
	})
}

func TestRetrieve_RanksAndExcludes(t *testing.T) {
	at := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	s := seededStore(t,
		model.ContentItem{ID: "ads", Title: "Paid social", Body: "LinkedIn ads", CollectedAt: at},
		model.ContentItem{ID: "geo", Title: "Local reach", Body: "geomarketing campaign", CollectedAt: at},
		model.ContentItem{ID: "soup", Title: "Dinner", Body: "unrelated recipe text", CollectedAt: at},
	)
	r := testRetriever(s)

	got := r.Retrieve("LinkedIn", "", 0)

	if got.FullCorpus {
		t.Fatal("a targeted query must not flip full-corpus mode")
	}
	if len(got.Results) != 1 {
		t.Fatalf("expected one result, got %d", len(got.Results))
	}
	if got.Results[0].Item.ID != "ads" {
		t.Errorf("expected the ads item first, got %q", got.Results[0].Item.ID)
	}
	// body match + shared vocabulary term
	if got.Results[0].Score != weightBody+weightVocabulary {
		t.Errorf("unexpected score %d", got.Results[0].Score)
	}
}

func TestRetrieve_FieldWeightsOrderResults(t *testing.T) {
	at := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	s := seededStore(t,
		model.ContentItem{ID: "body-hit", Title: "x", Body: "deep dive on attribution", CollectedAt: at},
		model.ContentItem{ID: "title-hit", Title: "Attribution models", Body: "y", CollectedAt: at},
		model.ContentItem{ID: "summary-hit", Title: "x", Body: "y", Summary: "attribution basics", CollectedAt: at},
	)
	r := testRetriever(s)

	got := r.Retrieve("attribution", "", 0)
	if len(got.Results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(got.Results))
	}

	order := []string{got.Results[0].Item.ID, got.Results[1].Item.ID, got.Results[2].Item.ID}
	want := []string{"title-hit", "summary-hit", "body-hit"}
	if !reflect.DeepEqual(order, want) {
		t.Errorf("order = %v, want %v", order, want)
	}
}

func TestRetrieve_Deterministic(t *testing.T) {
	at := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	items := make([]model.ContentItem, 0, 8)
	for i := 0; i < 8; i++ {
		items = append(items, model.ContentItem{
			ID:          fmt.Sprintf("item-%d", i),
			Body:        "campaign metrics overview text",
			Title:       "campaign notes",
			CollectedAt: at.Add(time.Duration(i%3) * time.Hour),
		})
	}
	s := seededStore(t, items...)
	r := testRetriever(s)

	first := r.Retrieve("campaign", "", 0)
	second := r.Retrieve("campaign", "", 0)
	if !reflect.DeepEqual(first, second) {
		t.Error("identical queries over an unchanged store returned different results")
	}
}

func TestRetrieve_TieBreakOrdering(t *testing.T) {
	at := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	// All three score identically; newer collection wins, then lower ID.
	s := seededStore(t,
		model.ContentItem{ID: "b", Body: "campaign", CollectedAt: at},
		model.ContentItem{ID: "a", Body: "campaign", CollectedAt: at},
		model.ContentItem{ID: "c", Body: "campaign", CollectedAt: at.Add(time.Hour)},
	)
	r := testRetriever(s)

	got := r.Retrieve("campaign", "", 0)
	if len(got.Results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(got.Results))
	}
	order := []string{got.Results[0].Item.ID, got.Results[1].Item.ID, got.Results[2].Item.ID}
	if !reflect.DeepEqual(order, []string{"c", "a", "b"}) {
		t.Errorf("tie-break order = %v, want [c a b]", order)
	}
}

func TestRetrieve_TopKCap(t *testing.T) {
	at := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	items := make([]model.ContentItem, 0, 10)
	for i := 0; i < 10; i++ {
		items = append(items, model.ContentItem{
			ID:          fmt.Sprintf("item-%02d", i),
			Body:        "campaign",
			CollectedAt: at,
		})
	}
	s := seededStore(t, items...)
	r := testRetriever(s)

	if got := r.Retrieve("campaign", "", 3); len(got.Results) != 3 {
		t.Errorf("expected topK=3 results, got %d", len(got.Results))
	}
	// topK <= 0 falls back to the configured default
	if got := r.Retrieve("campaign", "", 0); len(got.Results) != 5 {
		t.Errorf("expected default topK results, got %d", len(got.Results))
	}
}

func TestRetrieve_SummaryIntentReturnsEverything(t *testing.T) {
	at := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	s := seededStore(t,
		model.ContentItem{ID: "1", Body: "alpha", CollectedAt: at},
		model.ContentItem{ID: "2", Body: "beta", CollectedAt: at.Add(time.Hour)},
		model.ContentItem{ID: "3", Body: "gamma", CollectedAt: at.Add(2 * time.Hour)},
	)
	r := testRetriever(s)

	for _, query := range []string{"give me a summary of this week", "síntesis", ""} {
		got := r.Retrieve(query, "", 0)
		if !got.FullCorpus {
			t.Errorf("query %q should be full-corpus", query)
			continue
		}
		if len(got.Results) != 3 {
			t.Errorf("query %q returned %d of 3 items", query, len(got.Results))
		}
		// Full corpus keeps the store's collection-time ordering
		if got.Results[0].Item.ID != "3" {
			t.Errorf("query %q: expected newest first, got %q", query, got.Results[0].Item.ID)
		}
	}
}

func TestRetrieve_ScopeNarrowsToSource(t *testing.T) {
	at := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	s := seededStore(t,
		model.ContentItem{ID: "1", Body: "campaign", SourceName: "blog", CollectedAt: at},
		model.ContentItem{ID: "2", Body: "campaign", SourceName: "feed", CollectedAt: at},
	)
	r := testRetriever(s)

	got := r.Retrieve("campaign", "blog", 0)
	if len(got.Results) != 1 || got.Results[0].Item.ID != "1" {
		t.Errorf("scope did not narrow candidates: %v", got.Results)
	}

	if got := r.Retrieve("campaign", ScopeAll, 0); len(got.Results) != 2 {
		t.Errorf("scope %q should include everything, got %d results", ScopeAll, len(got.Results))
	}
}

func TestRetrieve_SubstantialBonusNeedsMatch(t *testing.T) {
	longBody := ""
	for i := 0; i < 200; i++ {
		longBody += "filler "
	}

	at := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	s := seededStore(t,
		model.ContentItem{ID: "long-miss", Body: longBody, CollectedAt: at},
		model.ContentItem{ID: "long-hit", Body: longBody + " campaign", CollectedAt: at},
		model.ContentItem{ID: "short-hit", Body: "campaign", CollectedAt: at},
	)
	r := testRetriever(s)

	got := r.Retrieve("campaign", "", 0)
	if len(got.Results) != 2 {
		t.Fatalf("expected the unmatched long item excluded, got %d results", len(got.Results))
	}
	if got.Results[0].Item.ID != "long-hit" {
		t.Errorf("expected the substantial match first, got %q", got.Results[0].Item.ID)
	}
	delta := got.Results[0].Score - got.Results[1].Score
	if delta != weightSubstantial {
		t.Errorf("substantial bonus delta = %d, want %d", delta, weightSubstantial)
	}
}

func TestRetrieve_ExcerptPrefersMatchingChunk(t *testing.T) {
	at := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	s := seededStore(t,
		model.ContentItem{ID: "x", Body: "intro text then campaign details", CollectedAt: at},
	)
	s.SetChunks("x", []model.Chunk{
		{ID: "c1", SourceItemID: "x", Index: 0, Text: "intro text then"},
		{ID: "c2", SourceItemID: "x", Index: 1, Text: "campaign details"},
	})
	r := testRetriever(s)

	got := r.Retrieve("campaign", "", 0)
	if len(got.Results) != 1 {
		t.Fatal("expected one result")
	}
	if got.Results[0].Excerpt != "campaign details" {
		t.Errorf("excerpt = %q, want the matching chunk", got.Results[0].Excerpt)
	}
}

func TestRetrieve_ExcerptRuneSafe(t *testing.T) {
	at := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	// No chunks, so the excerpt is a truncated body. The 11-byte prefix puts
	// the 240-byte cap in the middle of a 2-byte rune.
	s := seededStore(t,
		model.ContentItem{ID: "x", Body: "campaña is" + strings.Repeat("é", 200), CollectedAt: at},
	)
	r := testRetriever(s)

	got := r.Retrieve("campaña", "", 0)
	if len(got.Results) != 1 {
		t.Fatal("expected one result")
	}
	excerpt := got.Results[0].Excerpt
	if !utf8.ValidString(excerpt) {
		t.Errorf("excerpt contains invalid UTF-8: %q", excerpt)
	}
	if len(excerpt) > 240 {
		t.Errorf("excerpt exceeds the cap: %d bytes", len(excerpt))
	}
}

func TestRetrieve_EmptyStore(t *testing.T) {
	r := testRetriever(store.New())

	if got := r.Retrieve("anything", "", 0); len(got.Results) != 0 {
		t.Errorf("expected no results from an empty store, got %d", len(got.Results))
	}
	if got := r.Retrieve("", "", 0); !got.FullCorpus || len(got.Results) != 0 {
		t.Errorf("empty query on empty store: %+v", got)
	}
}
