package fetcher

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/mmcdole/gofeed"
	log "github.com/sirupsen/logrus"
)

const defaultUserAgent = "blaggregator/1.0 (+https://github.com/blaggregator)"

// Item is a single feed entry as returned by a crawl.
type Item struct {
	Url       string
	Title     string
	Content   string
	Published time.Time
}

// Result is the outcome of fetching a feed URL. When the URL pointed at
// an HTML page instead of a feed, SuggestedFeeds carries the alternate
// feed links discovered on that page and Items is empty.
type Result struct {
	Title          string
	Link           string
	Items          []Item
	SuggestedFeeds []string
}

// FetchFunc fetches and parses a feed URL. The server and crawler take it
// as a dependency so tests can substitute a stub.
type FetchFunc func(ctx context.Context, feedUrl string) (*Result, error)

// Fetcher fetches feeds over HTTP with retries.
type Fetcher struct {
	client    *http.Client
	userAgent string
}

func New() *Fetcher {
	return &Fetcher{
		client:    &http.Client{Timeout: 30 * time.Second},
		userAgent: defaultUserAgent,
	}
}

// Fetch downloads and parses the feed at feedUrl. Transient HTTP failures
// are retried with exponential backoff.
func (f *Fetcher) Fetch(ctx context.Context, feedUrl string) (*Result, error) {
	feedUrl = NormalizeUrl(feedUrl)

	var body []byte
	operation := func() error {
		var err error
		body, err = f.get(ctx, feedUrl)
		return err
	}

	policy := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), 3), ctx)
	if err := backoff.Retry(operation, policy); err != nil {
		return nil, fmt.Errorf("fetch error for %s: %w", feedUrl, err)
	}

	feed, err := gofeed.NewParser().ParseString(string(body))
	if err != nil {
		// Not a feed. See if the page links to one.
		suggestions := discoverFeedLinks(feedUrl, string(body))
		if len(suggestions) == 0 {
			return nil, fmt.Errorf("parse error for %s: %w", feedUrl, err)
		}

		log.WithFields(log.Fields{
			"url":         feedUrl,
			"suggestions": suggestions,
		}).Info("URL is not a feed, found alternates")

		return &Result{SuggestedFeeds: suggestions}, nil
	}

	items := make([]Item, 0, len(feed.Items))
	for _, entry := range feed.Items {
		item := Item{
			Url:     entry.Link,
			Title:   entry.Title,
			Content: entry.Content,
		}
		if item.Content == "" {
			item.Content = entry.Description
		}
		if entry.PublishedParsed != nil {
			item.Published = *entry.PublishedParsed
		} else if entry.UpdatedParsed != nil {
			item.Published = *entry.UpdatedParsed
		}
		items = append(items, item)
	}

	return &Result{
		Title: feed.Title,
		Link:  feed.Link,
		Items: items,
	}, nil
}

func (f *Fetcher) get(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, backoff.Permanent(err)
	}
	req.Header.Set("User-Agent", f.userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 500 {
		return nil, fmt.Errorf("server error: %s", resp.Status)
	}
	if resp.StatusCode >= 400 {
		return nil, backoff.Permanent(fmt.Errorf("client error: %s", resp.Status))
	}

	return io.ReadAll(io.LimitReader(resp.Body, 10<<20))
}

var linkTagPattern = regexp.MustCompile(`(?is)<link\b[^>]*>`)
var attrPattern = regexp.MustCompile(`(?is)(rel|type|href)\s*=\s*["']([^"']*)["']`)

// discoverFeedLinks scans an HTML page for <link rel="alternate"> tags
// pointing at RSS or Atom feeds. Best-effort: a single-tag regexp scan is
// enough here, no full HTML parse needed.
func discoverFeedLinks(pageUrl string, body string) []string {
	base, err := url.Parse(pageUrl)
	if err != nil {
		return nil
	}

	var found []string
	for _, tag := range linkTagPattern.FindAllString(body, -1) {
		attrs := map[string]string{}
		for _, m := range attrPattern.FindAllStringSubmatch(tag, -1) {
			attrs[strings.ToLower(m[1])] = m[2]
		}

		if !strings.EqualFold(attrs["rel"], "alternate") {
			continue
		}
		mediaType := strings.ToLower(attrs["type"])
		if !strings.Contains(mediaType, "rss") && !strings.Contains(mediaType, "atom") {
			continue
		}
		href := attrs["href"]
		if href == "" {
			continue
		}

		ref, err := url.Parse(href)
		if err != nil {
			continue
		}
		found = append(found, base.ResolveReference(ref).String())
	}

	return found
}
