package adapters

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/curatorhq/curator/internal/model"
)

// SocialAdapter pulls posts from JSON endpoints. Each target is an endpoint
// URL returning a JSON array of posts; every post becomes one raw item, in
// the endpoint's own order.
type SocialAdapter struct {
	httpClient *http.Client
	userAgent  string
	maxBytes   int64
	limiter    limiterFunc
}

// socialPost is the wire shape one endpoint entry is decoded from
type socialPost struct {
	Title    string    `json:"title"`
	Text     string    `json:"text"`
	Author   string    `json:"author"`
	URL      string    `json:"url"`
	PostedAt time.Time `json:"posted_at"`
	Kind     string    `json:"kind"` // optional; "tweet" or "post"
}

// NewSocialAdapter creates a social adapter
func NewSocialAdapter(httpCfg model.HTTPConfig, wait limiterFunc) *SocialAdapter {
	return &SocialAdapter{
		httpClient: &http.Client{Timeout: httpCfg.Timeout},
		userAgent:  httpCfg.UserAgent,
		maxBytes:   httpCfg.MaxBodyBytes,
		limiter:    wait,
	}
}

// Name returns the adapter name
func (a *SocialAdapter) Name() string { return "social" }

// Kind returns the source kind this adapter serves
func (a *SocialAdapter) Kind() model.SourceKind { return model.SourceKindSocial }

// Fetch pulls every target endpoint, keeping only the posts that mention at
// least one of the source's search terms. A failing endpoint does not abort
// the rest.
func (a *SocialAdapter) Fetch(ctx context.Context, src model.Source) ([]model.RawItem, error) {
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

		posts, err := a.fetchPosts(ctx, target)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", target, err))
			continue
		}

		for _, post := range posts {
			if !matchesTerms(post, src.Terms) {
				continue
			}
			out = append(out, rawPost(post))
		}
	}

	return out, errors.Join(errs...)
}

func (a *SocialAdapter) fetchPosts(ctx context.Context, endpoint string) ([]socialPost, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", a.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("unexpected status: %d %s", resp.StatusCode, resp.Status)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, a.maxBytes))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}

	var posts []socialPost
	if err := json.Unmarshal(body, &posts); err != nil {
		return nil, fmt.Errorf("decode posts: %w", err)
	}
	return posts, nil
}

func rawPost(post socialPost) model.RawItem {
	kind := model.KindPost
	if post.Kind == string(model.KindTweet) {
		kind = model.KindTweet
	}

	title := post.Title
	if title == "" {
		// Posts rarely carry titles; fall back to a body prefix
		title = truncate(post.Text, 80)
	}

	return model.RawItem{
		Title:       title,
		Body:        post.Text,
		URL:         post.URL,
		Author:      post.Author,
		PublishedAt: post.PostedAt,
		KindHint:    kind,
	}
}

// matchesTerms reports whether a post mentions any of the search terms,
// case-insensitively. No configured terms means every post matches.
func matchesTerms(post socialPost, terms []string) bool {
	if len(terms) == 0 {
		return true
	}

	text := strings.ToLower(post.Title + " " + post.Text)
	for _, term := range terms {
		if term != "" && strings.Contains(text, strings.ToLower(term)) {
			return true
		}
	}
	return false
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
