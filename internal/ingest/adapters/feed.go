package adapters

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/mmcdole/gofeed"

	"github.com/curatorhq/curator/internal/model"
)

// FeedAdapter pulls items from RSS, Atom and JSON feeds. Each target is a
// feed URL; every entry of a feed becomes one raw item, in the feed's own
// order.
type FeedAdapter struct {
	parser  *gofeed.Parser
	limiter limiterFunc
}

// limiterFunc lets the feed adapter share the per-domain rate budget with
// the other adapters without depending on a concrete limiter
type limiterFunc func(ctx context.Context, url string) error

// NewFeedAdapter creates a feed adapter. userAgent is sent with every feed
// request; wait may be nil to disable rate limiting.
func NewFeedAdapter(userAgent string, timeout time.Duration, wait limiterFunc) *FeedAdapter {
	parser := gofeed.NewParser()
	parser.UserAgent = userAgent
	parser.Client = &http.Client{Timeout: timeout}

	return &FeedAdapter{
		parser:  parser,
		limiter: wait,
	}
}

// Name returns the adapter name
func (a *FeedAdapter) Name() string { return "feed" }

// Kind returns the source kind this adapter serves
func (a *FeedAdapter) Kind() model.SourceKind { return model.SourceKindFeed }

// Fetch parses every target feed. A broken feed does not abort the rest.
func (a *FeedAdapter) Fetch(ctx context.Context, src model.Source) ([]model.RawItem, error) {
	var out []model.RawItem
	var errs []error

	for _, target := range src.Targets {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}

		if a.limiter != nil {
			if err := a.limiter(ctx, target); err != nil {
				errs = append(errs, fmt.Errorf("%s: rate limit: %w", target, err))
				continue
			}
		}

		feed, err := a.parser.ParseURLWithContext(target, ctx)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: parse feed: %w", target, err))
			continue
		}

		for _, entry := range feed.Items {
			out = append(out, feedItem(entry))
		}
	}

	return out, errors.Join(errs...)
}

// feedItem converts one feed entry to a raw item, preferring full content
// over the teaser description
func feedItem(entry *gofeed.Item) model.RawItem {
	body := entry.Content
	if body == "" {
		body = entry.Description
	}

	item := model.RawItem{
		Title:    entry.Title,
		Body:     body,
		URL:      entry.Link,
		KindHint: model.KindArticle,
	}

	if entry.Author != nil {
		item.Author = entry.Author.Name
	}
	if entry.PublishedParsed != nil {
		item.PublishedAt = *entry.PublishedParsed
	} else if entry.UpdatedParsed != nil {
		item.PublishedAt = *entry.UpdatedParsed
	}

	return item
}
