// Package chunk splits content bodies into bounded word windows so the
// retriever can match and excerpt at sub-document granularity.
package chunk

import (
	"strings"

	"github.com/google/uuid"

	"github.com/curatorhq/curator/internal/model"
)

// DefaultMaxWords bounds a chunk when no size is configured
const DefaultMaxWords = 400

// KeywordFunc extracts ranked keywords from a chunk's text. The chunker
// reuses the analyzer's keyword algorithm through this hook.
type KeywordFunc func(text string) []string

// Chunker splits item bodies into fixed-size, non-overlapping word windows
type Chunker struct {
	maxWords int
	keywords KeywordFunc
}

// New creates a chunker. maxWords <= 0 falls back to DefaultMaxWords and a
// nil keyword function leaves chunk keywords empty.
func New(maxWords int, keywords KeywordFunc) *Chunker {
	if maxWords <= 0 {
		maxWords = DefaultMaxWords
	}
	return &Chunker{
		maxWords: maxWords,
		keywords: keywords,
	}
}

// Split chunks an item's body by walking its token sequence in fixed-size
// windows; the final chunk may be shorter. Joining the chunk texts in order
// reproduces the body's token sequence exactly. An empty body yields no
// chunks.
func (c *Chunker) Split(item model.ContentItem) []model.Chunk {
	tokens := strings.Fields(item.Body)
	if len(tokens) == 0 {
		return nil
	}

	chunks := make([]model.Chunk, 0, (len(tokens)+c.maxWords-1)/c.maxWords)
	for start := 0; start < len(tokens); start += c.maxWords {
		end := start + c.maxWords
		if end > len(tokens) {
			end = len(tokens)
		}

		text := strings.Join(tokens[start:end], " ")
		chunk := model.Chunk{
			ID:           uuid.New().String(),
			SourceItemID: item.ID,
			Index:        len(chunks),
			Text:         text,
			WordCount:    end - start,
		}
		if c.keywords != nil {
			chunk.Keywords = c.keywords(text)
		}
		chunks = append(chunks, chunk)
	}

	return chunks
}
