// Package feeds implements the aggregated feed policy and its Atom
// rendering.
package feeds

import (
	"fmt"
	"sort"
	"time"

	"blaggregator/models"

	"github.com/gorilla/feeds"
	"github.com/samber/lo"
)

// Select orders posts by posted time, newest first, and truncates the
// result to max entries. The returned slice always holds exactly the
// min(len(posts), max) most recent posts.
func Select(posts []models.Post, max int) []models.Post {
	selected := make([]models.Post, len(posts))
	copy(selected, posts)

	sort.SliceStable(selected, func(i, j int) bool {
		if selected[i].PostedAt.Equal(selected[j].PostedAt) {
			return selected[i].Id > selected[j].Id
		}
		return selected[i].PostedAt.After(selected[j].PostedAt)
	})

	if max >= 0 && len(selected) > max {
		selected = selected[:max]
	}

	return selected
}

// BuildAtom renders posts as an Atom document for the aggregated feed.
func BuildAtom(hostname string, posts []models.Post) (string, error) {
	updated := time.Now()
	if len(posts) > 0 {
		updated = posts[0].PostedAt
	}

	feed := &feeds.Feed{
		Title:       "Blaggregator",
		Link:        &feeds.Link{Href: fmt.Sprintf("https://%s/atom.xml", hostname)},
		Description: "Syndicated posts from all registered blogs",
		Updated:     updated,
	}

	feed.Items = lo.Map(posts, func(post models.Post, _ int) *feeds.Item {
		id := post.Url
		if id == "" {
			id = fmt.Sprintf("https://%s/post/%d/", hostname, post.Id)
		}
		return &feeds.Item{
			Id:      id,
			Title:   post.Title,
			Link:    &feeds.Link{Href: post.Url},
			Content: post.Content,
			Updated: post.PostedAt,
			Created: post.PostedAt,
		}
	})

	return feed.ToAtom()
}
