package fetcher

import (
	"net/url"
	"strings"
)

// Well-known feed path suffixes. Two feed URLs that differ only by one of
// these point at the same blog.
var feedSuffixes = map[string]bool{
	"rss":       true,
	"rss.xml":   true,
	"rss2.xml":  true,
	"atom":      true,
	"atom.xml":  true,
	"feed":      true,
	"feed.xml":  true,
	"feed.atom": true,
	"index.xml": true,
}

// NormalizeUrl trims the raw URL and prepends http:// when no scheme was
// given.
func NormalizeUrl(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	if !strings.Contains(raw, "://") {
		return "http://" + raw
	}
	return raw
}

// CanonicalKey reduces a feed URL to a key identifying the blog it
// belongs to: scheme, www prefix, trailing slashes and well-known feed
// suffixes are stripped. E.g. https://jvns.ca/rss and
// http://www.jvns.ca/atom.xml both map to "jvns.ca".
func CanonicalKey(feedUrl string) string {
	u, err := url.Parse(NormalizeUrl(feedUrl))
	if err != nil || u.Host == "" {
		return strings.ToLower(strings.TrimSpace(feedUrl))
	}

	host := strings.TrimPrefix(strings.ToLower(u.Host), "www.")

	path := strings.Trim(u.Path, "/")
	if path != "" {
		segments := strings.Split(path, "/")
		if feedSuffixes[strings.ToLower(segments[len(segments)-1])] {
			segments = segments[:len(segments)-1]
		}
		path = strings.Join(segments, "/")
	}

	if path == "" {
		return host
	}
	return host + "/" + strings.ToLower(path)
}
