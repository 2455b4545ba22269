package feeds_test

import (
	"fmt"
	"testing"
	"time"

	"blaggregator/feeds"
	"blaggregator/models"

	"github.com/mmcdole/gofeed"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func makePosts(n int) []models.Post {
	base := time.Date(2016, 11, 3, 12, 0, 0, 0, time.UTC)
	posts := make([]models.Post, 0, n)
	for i := 0; i < n; i++ {
		// Shuffled-looking but deterministic timestamps
		offset := time.Duration((i*7919)%100000) * time.Minute
		posts = append(posts, models.Post{
			Id:       int64(i + 1),
			Title:    fmt.Sprintf("Post %d", i),
			Url:      fmt.Sprintf("https://example.com/posts/%d/", i),
			PostedAt: base.Add(-offset),
		})
	}
	return posts
}

func TestSelect(t *testing.T) {
	tests := []struct {
		name string
		n    int
		max  int
	}{
		{name: "no posts", n: 0, max: 10},
		{name: "fewer posts than max", n: 5, max: 10},
		{name: "exactly max posts", n: 10, max: 10},
		{name: "more posts than max", n: 50, max: 10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			posts := makePosts(tt.n)
			selected := feeds.Select(posts, tt.max)

			assert.Equal(t, min(tt.n, tt.max), len(selected))

			// Newest first
			for i := 1; i < len(selected); i++ {
				assert.False(t, selected[i-1].PostedAt.Before(selected[i].PostedAt))
			}

			if len(selected) == 0 || len(selected) == len(posts) {
				return
			}

			// Every excluded post is at most as recent as every included one
			included := make(map[int64]bool, len(selected))
			cutoff := selected[len(selected)-1].PostedAt
			for _, post := range selected {
				included[post.Id] = true
			}
			for _, post := range posts {
				if !included[post.Id] {
					assert.False(t, post.PostedAt.After(cutoff))
				}
			}
		})
	}
}

func TestSelectDoesNotMutateInput(t *testing.T) {
	posts := makePosts(10)
	first := posts[0]

	feeds.Select(posts, 3)

	assert.Equal(t, first, posts[0])
}

func TestBuildAtom(t *testing.T) {
	posts := feeds.Select(makePosts(3), 10)

	atom, err := feeds.BuildAtom("example.com", posts)
	require.NoError(t, err)

	feed, err := gofeed.NewParser().ParseString(atom)
	require.NoError(t, err)

	require.Len(t, feed.Items, 3)
	for i, entry := range feed.Items {
		assert.Equal(t, posts[i].Title, entry.Title)
		assert.Equal(t, posts[i].Url, entry.Link)
		require.NotNil(t, entry.UpdatedParsed)
		assert.True(t, entry.UpdatedParsed.Equal(posts[i].PostedAt))
	}
}

func TestBuildAtomEmpty(t *testing.T) {
	atom, err := feeds.BuildAtom("example.com", nil)
	require.NoError(t, err)

	feed, err := gofeed.NewParser().ParseString(atom)
	require.NoError(t, err)
	assert.Empty(t, feed.Items)
}
