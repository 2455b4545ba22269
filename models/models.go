package models

import "time"

// User is an account that can log in to the web UI.
type User struct {
	Id           int64     `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
}

// Hacker is the member profile attached to a user. The token grants
// access to the private aggregated Atom feed.
type Hacker struct {
	Id        int64  `json:"id"`
	UserId    int64  `json:"userId"`
	Token     string `json:"-"`
	AvatarUrl string `json:"avatarUrl"`
}

// Blog is a registered feed owned by a user.
type Blog struct {
	Id int64 `json:"id"`

	UserId int64 `json:"userId"`

	// FeedUrl is the URL that gets crawled.
	FeedUrl string `json:"feedUrl"`

	// CanonicalKey dedupes multiple feed URLs of the same blog,
	// e.g. /rss and /atom.xml.
	CanonicalKey string `json:"-"`

	// Url is the human-facing site URL reported by the feed.
	Url string `json:"url"`

	Title  string `json:"title"`
	Stream string `json:"stream"`

	CreatedAt     time.Time  `json:"createdAt"`
	LastCrawledAt *time.Time `json:"lastCrawledAt,omitempty"`
}

// Post is a single entry crawled from a blog's feed.
type Post struct {
	Id       int64  `json:"id"`
	BlogId   int64  `json:"blogId"`
	Url      string `json:"url"`
	Title    string `json:"title"`
	Content  string `json:"content"`
	Language string `json:"language,omitempty"`

	// PostedAt falls back to the crawl time when the feed entry
	// carries no date.
	PostedAt  time.Time `json:"postedAt"`
	CrawledAt time.Time `json:"crawledAt"`
}
