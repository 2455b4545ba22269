package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"blaggregator/models"

	sqlbuilder "github.com/huandu/go-sqlbuilder"
	log "github.com/sirupsen/logrus"
)

// CreatePost inserts a post if it has not been seen before. Posts are
// identified by (blog, url, title) so re-crawls are idempotent.
func (db *DB) CreatePost(ctx context.Context, post models.Post) error {
	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()

	log.WithFields(log.Fields{
		"blogId":   post.BlogId,
		"url":      post.Url,
		"title":    post.Title,
		"postedAt": post.PostedAt.Format(time.RFC3339),
	}).Info("Creating post")

	if post.CrawledAt.IsZero() {
		post.CrawledAt = time.Now()
	}
	if post.PostedAt.IsZero() {
		post.PostedAt = post.CrawledAt
	}

	ib := sqlbuilder.NewInsertBuilder()
	ib.InsertIgnoreInto("posts").
		Cols("blog_id", "url", "title", "content", "language", "posted_at", "crawled_at").
		Values(post.BlogId, post.Url, post.Title, post.Content, post.Language,
			post.PostedAt.Unix(), post.CrawledAt.Unix())
	query, args := ib.BuildWithFlavor(sqlbuilder.SQLite)

	_, err := db.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("insert post error: %w", err)
	}
	return nil
}

// RecentPosts returns the most recently posted entries across all blogs,
// newest first.
func (db *DB) RecentPosts(ctx context.Context, limit int) ([]models.Post, error) {
	sb := sqlbuilder.NewSelectBuilder()
	sb.Select("id", "blog_id", "url", "title", "content", "language", "posted_at", "crawled_at").
		From("posts").
		OrderBy("posted_at DESC", "id DESC").
		Limit(limit)
	query, args := sb.BuildWithFlavor(sqlbuilder.SQLite)

	rows, err := db.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query error: %w", err)
	}
	defer rows.Close()

	return scanPosts(rows)
}

func (db *DB) CountPosts(ctx context.Context) (int64, error) {
	var count int64
	err := db.db.QueryRowContext(ctx, "SELECT count(*) FROM posts").Scan(&count)
	return count, err
}

// GetLatestPostTimestamp returns the posted time of the newest post, or
// the zero time when there are no posts.
func (db *DB) GetLatestPostTimestamp(ctx context.Context) (time.Time, error) {
	var postedAt int64
	err := db.db.QueryRowContext(ctx, "SELECT posted_at FROM posts ORDER BY posted_at DESC LIMIT 1").Scan(&postedAt)
	if err == sql.ErrNoRows {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("query error: %w", err)
	}
	return time.Unix(postedAt, 0), nil
}

func scanPosts(rows *sql.Rows) ([]models.Post, error) {
	var posts []models.Post
	for rows.Next() {
		var post models.Post
		var postedAt, crawledAt int64
		if err := rows.Scan(
			&post.Id, &post.BlogId, &post.Url, &post.Title,
			&post.Content, &post.Language, &postedAt, &crawledAt,
		); err != nil {
			return nil, fmt.Errorf("scan error: %w", err)
		}
		post.PostedAt = time.Unix(postedAt, 0)
		post.CrawledAt = time.Unix(crawledAt, 0)
		posts = append(posts, post)
	}
	return posts, rows.Err()
}
