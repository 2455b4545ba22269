package fetcher_test

import (
	"testing"

	"blaggregator/fetcher"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeUrl(t *testing.T) {
	tests := []struct {
		name     string
		url      string
		expected string
	}{
		{
			name:     "empty string",
			url:      "",
			expected: "",
		},
		{
			name:     "already has scheme",
			url:      "https://jvns.ca/atom.xml",
			expected: "https://jvns.ca/atom.xml",
		},
		{
			name:     "no scheme",
			url:      "jvns.ca/atom.xml",
			expected: "http://jvns.ca/atom.xml",
		},
		{
			name:     "surrounding whitespace",
			url:      "  jvns.ca/atom.xml ",
			expected: "http://jvns.ca/atom.xml",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, fetcher.NormalizeUrl(tt.url))
		})
	}
}

func TestCanonicalKey(t *testing.T) {
	tests := []struct {
		name     string
		url      string
		expected string
	}{
		{
			name:     "atom feed",
			url:      "https://jvns.ca/atom.xml",
			expected: "jvns.ca",
		},
		{
			name:     "rss feed of the same blog",
			url:      "https://jvns.ca/rss",
			expected: "jvns.ca",
		},
		{
			name:     "scheme-less url",
			url:      "jvns.ca/atom.xml",
			expected: "jvns.ca",
		},
		{
			name:     "www prefix",
			url:      "http://www.jvns.ca/rss",
			expected: "jvns.ca",
		},
		{
			name:     "tag feed stays distinct",
			url:      "https://jvns.ca/tags/blaggregator.xml",
			expected: "jvns.ca/tags/blaggregator.xml",
		},
		{
			name:     "nested feed suffix",
			url:      "https://example.com/blog/feed.xml",
			expected: "example.com/blog",
		},
		{
			name:     "bare host",
			url:      "https://jvns.ca/",
			expected: "jvns.ca",
		},
		{
			name:     "host is case insensitive",
			url:      "https://JVNS.CA/atom.xml",
			expected: "jvns.ca",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, fetcher.CanonicalKey(tt.url))
		})
	}
}
