package fetcher_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"blaggregator/fetcher"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const atomFixture = `<?xml version="1.0" encoding="utf-8"?>
<feed xmlns="http://www.w3.org/2005/Atom">
  <title>Example blog</title>
  <link href="https://example.com/"></link>
  <updated>2016-11-03T12:00:00Z</updated>
  <entry>
    <title>What happens when you run a rkt container?</title>
    <link href="https://example.com/rkt/"></link>
    <id>https://example.com/rkt/</id>
    <updated>2016-11-03T00:00:00Z</updated>
    <content type="html">Containers!</content>
  </entry>
  <entry>
    <title>Service discovery at Stripe</title>
    <link href="https://example.com/stripe/"></link>
    <id>https://example.com/stripe/</id>
    <updated>2016-10-31T00:00:00Z</updated>
    <content type="html">Consul.</content>
  </entry>
</feed>`

const htmlFixture = `<!DOCTYPE html>
<html>
<head>
  <title>Example blog</title>
  <link rel="stylesheet" href="/style.css">
  <link rel="alternate" type="application/atom+xml" href="/atom.xml">
  <link rel="alternate" type="application/rss+xml" href="https://example.com/rss">
</head>
<body>Hello!</body>
</html>`

func TestFetchParsesFeed(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/atom+xml")
		w.Write([]byte(atomFixture))
	}))
	defer ts.Close()

	result, err := fetcher.New().Fetch(context.Background(), ts.URL)
	require.NoError(t, err)

	assert.Equal(t, "Example blog", result.Title)
	assert.Empty(t, result.SuggestedFeeds)
	require.Len(t, result.Items, 2)

	assert.Equal(t, "What happens when you run a rkt container?", result.Items[0].Title)
	assert.Equal(t, "https://example.com/rkt/", result.Items[0].Url)
	assert.Equal(t, "Containers!", result.Items[0].Content)
	assert.False(t, result.Items[0].Published.IsZero())
}

func TestFetchSuggestsAlternateFeeds(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(htmlFixture))
	}))
	defer ts.Close()

	result, err := fetcher.New().Fetch(context.Background(), ts.URL)
	require.NoError(t, err)

	assert.Empty(t, result.Items)
	assert.Equal(t, []string{ts.URL + "/atom.xml", "https://example.com/rss"}, result.SuggestedFeeds)
}

func TestFetchFailsOnNonFeedWithoutAlternates(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		w.Write([]byte("not a feed"))
	}))
	defer ts.Close()

	_, err := fetcher.New().Fetch(context.Background(), ts.URL)
	assert.Error(t, err)
}

func TestFetchDoesNotRetryClientErrors(t *testing.T) {
	var requests int
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		w.WriteHeader(http.StatusNotFound)
	}))
	defer ts.Close()

	_, err := fetcher.New().Fetch(context.Background(), ts.URL)
	assert.Error(t, err)
	assert.Equal(t, 1, requests)
}

func TestLanguageTagger(t *testing.T) {
	t.Run("single language tags everything as-is", func(t *testing.T) {
		tagger := fetcher.NewLanguageTagger([]string{"en"})
		assert.Equal(t, "en", tagger.Tag("The quick brown fox jumps over the lazy dog"))
	})

	t.Run("detects among configured languages", func(t *testing.T) {
		tagger := fetcher.NewLanguageTagger([]string{"en", "de"})
		assert.Equal(t, "en", tagger.Tag("The quick brown fox jumps over the lazy dog and runs away"))
		assert.Equal(t, "de", tagger.Tag("Der schnelle braune Fuchs springt über den faulen Hund und rennt weg"))
	})

	t.Run("empty text is not tagged", func(t *testing.T) {
		tagger := fetcher.NewLanguageTagger([]string{"en", "de"})
		assert.Equal(t, "", tagger.Tag(""))
	})
}
