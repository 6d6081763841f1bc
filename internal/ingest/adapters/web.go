package adapters

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"

	"golang.org/x/net/html"

	"github.com/curatorhq/curator/internal/cache"
	"github.com/curatorhq/curator/internal/model"
	"github.com/curatorhq/curator/internal/util"
	"github.com/curatorhq/curator/internal/worker"
)

// WebAdapter fetches plain web pages. Each target URL becomes one item:
// the page title plus its visible text. Fetches respect robots.txt, are
// rate-limited per domain and cached between cycles.
type WebAdapter struct {
	httpClient   *http.Client
	userAgent    string
	maxBytes     int64
	fetchWorkers int
	robots       *util.RobotsChecker
	limiter      *worker.Limiter
	cache        cache.Cache // nil disables caching
}

// cachedPage is the fetch cache entry for one URL
type cachedPage struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

// NewWebAdapter creates a web adapter. limiter may be shared with the
// other adapters; nil creates a private one.
func NewWebAdapter(httpCfg model.HTTPConfig, conc model.ConcurrencyConfig, fetchCache cache.Cache, limiter *worker.Limiter) *WebAdapter {
	fetchWorkers := conc.FetchWorkers
	if fetchWorkers <= 0 {
		fetchWorkers = 4
	}
	if limiter == nil {
		limiter = worker.NewLimiter(conc.RequestsPerSec, conc.RequestBurst)
	}

	return &WebAdapter{
		httpClient: &http.Client{
			Timeout: httpCfg.Timeout,
			Transport: &http.Transport{
				Proxy: util.NewProxyFunc(httpCfg.HTTPProxy, httpCfg.HTTPSProxy, httpCfg.NoProxy),
			},
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 3 {
					return fmt.Errorf("stopped after 3 redirects")
				}
				return nil
			},
		},
		userAgent:    httpCfg.UserAgent,
		maxBytes:     httpCfg.MaxBodyBytes,
		fetchWorkers: fetchWorkers,
		robots:       util.NewRobotsChecker(httpCfg.UserAgent, httpCfg.Timeout),
		limiter:      limiter,
		cache:        fetchCache,
	}
}

// Name returns the adapter name
func (a *WebAdapter) Name() string { return "web" }

// Kind returns the source kind this adapter serves
func (a *WebAdapter) Kind() model.SourceKind { return model.SourceKindWeb }

// Fetch pulls every target page, at most fetchWorkers at a time. Target
// failures do not abort the rest; the joined error accompanies whatever
// items were fetched.
func (a *WebAdapter) Fetch(ctx context.Context, src model.Source) ([]model.RawItem, error) {
	items := make([]model.RawItem, len(src.Targets))
	errs := make([]error, len(src.Targets))
	found := make([]bool, len(src.Targets))

	var wg sync.WaitGroup
	semaphore := make(chan struct{}, a.fetchWorkers)

	for i, target := range src.Targets {
		wg.Add(1)
		go func(idx int, url string) {
			defer wg.Done()

			select {
			case <-ctx.Done():
				errs[idx] = ctx.Err()
				return
			case semaphore <- struct{}{}:
			}
			defer func() { <-semaphore }()

			item, err := a.fetchPage(ctx, url)
			if err != nil {
				errs[idx] = fmt.Errorf("%s: %w", url, err)
				return
			}
			items[idx] = item
			found[idx] = true
		}(i, target)
	}
	wg.Wait()

	// Keep the target order for the items that made it
	out := make([]model.RawItem, 0, len(src.Targets))
	for i := range items {
		if found[i] {
			out = append(out, items[i])
		}
	}

	return out, errors.Join(errs...)
}

// fetchPage retrieves one page, serving it from the cache when possible
func (a *WebAdapter) fetchPage(ctx context.Context, url string) (model.RawItem, error) {
	if a.cache != nil {
		if data, ok := a.cache.Get(cache.Key(url)); ok {
			var page cachedPage
			if err := json.Unmarshal(data, &page); err == nil {
				return a.rawItem(url, page), nil
			}
		}
	}

	allowed, crawlDelay, err := a.robots.CanFetch(ctx, url)
	if err != nil {
		return model.RawItem{}, fmt.Errorf("robots check: %w", err)
	}
	if !allowed {
		return model.RawItem{}, fmt.Errorf("disallowed by robots.txt")
	}

	if err := a.limiter.WaitWithDelay(ctx, url, crawlDelay); err != nil {
		return model.RawItem{}, fmt.Errorf("rate limit: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return model.RawItem{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", a.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return model.RawItem{}, fmt.Errorf("fetch: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return model.RawItem{}, fmt.Errorf("unexpected status: %d %s", resp.StatusCode, resp.Status)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, a.maxBytes))
	if err != nil {
		return model.RawItem{}, fmt.Errorf("read body: %w", err)
	}

	title, text, err := extractPage(string(body))
	if err != nil {
		return model.RawItem{}, fmt.Errorf("parse html: %w", err)
	}

	page := cachedPage{Title: title, Body: text}
	if a.cache != nil {
		if data, err := json.Marshal(page); err == nil {
			_ = a.cache.Set(cache.Key(url), data, 0)
		}
	}

	return a.rawItem(url, page), nil
}

func (a *WebAdapter) rawItem(url string, page cachedPage) model.RawItem {
	title := page.Title
	if title == "" {
		title = url
	}
	return model.RawItem{
		Title:    title,
		Body:     page.Body,
		URL:      url,
		KindHint: model.KindArticle,
	}
}

// extractPage parses HTML and returns the document title and its visible
// text, skipping script, style and similar non-content subtrees
func extractPage(htmlContent string) (title, text string, err error) {
	doc, err := html.Parse(strings.NewReader(htmlContent))
	if err != nil {
		return "", "", err
	}

	var buf strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "script", "style", "noscript", "iframe":
				return
			case "title":
				if title == "" && n.FirstChild != nil && n.FirstChild.Type == html.TextNode {
					title = strings.TrimSpace(n.FirstChild.Data)
				}
				return
			}
		}

		if n.Type == html.TextNode {
			if t := strings.TrimSpace(n.Data); t != "" {
				buf.WriteString(t)
				buf.WriteString(" ")
			}
		}

		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	return title, strings.TrimSpace(buf.String()), nil
}
