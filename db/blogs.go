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

const blogColumns = "id, user_id, feed_url, canonical_key, url, title, stream, created_at, last_crawled_at"

func (db *DB) CreateBlog(ctx context.Context, blog models.Blog) (models.Blog, error) {
	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()

	createdAt := time.Now()
	if blog.Stream == "" {
		blog.Stream = "BLOGGING"
	}

	log.WithFields(log.Fields{
		"userId":  blog.UserId,
		"feedUrl": blog.FeedUrl,
	}).Info("Creating blog")

	ib := sqlbuilder.NewInsertBuilder()
	ib.InsertInto("blogs").
		Cols("user_id", "feed_url", "canonical_key", "url", "title", "stream", "created_at").
		Values(blog.UserId, blog.FeedUrl, blog.CanonicalKey, blog.Url, blog.Title, blog.Stream, createdAt.Unix())
	query, args := ib.BuildWithFlavor(sqlbuilder.SQLite)

	res, err := db.db.ExecContext(ctx, query, args...)
	if err != nil {
		return models.Blog{}, fmt.Errorf("insert blog error: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return models.Blog{}, fmt.Errorf("insert blog id error: %w", err)
	}

	blog.Id = id
	blog.CreatedAt = createdAt
	return blog, nil
}

func (db *DB) GetBlogById(ctx context.Context, id int64) (models.Blog, error) {
	sb := sqlbuilder.NewSelectBuilder()
	sb.Select(blogColumns).From("blogs").Where(sb.Equal("id", id))
	query, args := sb.BuildWithFlavor(sqlbuilder.SQLite)

	rows, err := db.db.QueryContext(ctx, query, args...)
	if err != nil {
		return models.Blog{}, fmt.Errorf("query error: %w", err)
	}
	defer rows.Close()

	blogs, err := scanBlogs(rows)
	if err != nil {
		return models.Blog{}, err
	}
	if len(blogs) == 0 {
		return models.Blog{}, ErrNotFound
	}
	return blogs[0], nil
}

// GetBlogByKey looks up a user's blog by its canonical dedupe key.
func (db *DB) GetBlogByKey(ctx context.Context, userId int64, canonicalKey string) (models.Blog, error) {
	sb := sqlbuilder.NewSelectBuilder()
	sb.Select(blogColumns).From("blogs").
		Where(sb.Equal("user_id", userId)).
		Where(sb.Equal("canonical_key", canonicalKey))
	query, args := sb.BuildWithFlavor(sqlbuilder.SQLite)

	rows, err := db.db.QueryContext(ctx, query, args...)
	if err != nil {
		return models.Blog{}, fmt.Errorf("query error: %w", err)
	}
	defer rows.Close()

	blogs, err := scanBlogs(rows)
	if err != nil {
		return models.Blog{}, err
	}
	if len(blogs) == 0 {
		return models.Blog{}, ErrNotFound
	}
	return blogs[0], nil
}

// ListBlogs returns all blogs, or a single user's blogs if userId is
// non-zero.
func (db *DB) ListBlogs(ctx context.Context, userId int64) ([]models.Blog, error) {
	sb := sqlbuilder.NewSelectBuilder()
	sb.Select(blogColumns).From("blogs")
	if userId != 0 {
		sb.Where(sb.Equal("user_id", userId))
	}
	sb.OrderBy("id").Asc()
	query, args := sb.BuildWithFlavor(sqlbuilder.SQLite)

	rows, err := db.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query error: %w", err)
	}
	defer rows.Close()

	return scanBlogs(rows)
}

func (db *DB) UpdateBlog(ctx context.Context, id int64, feedUrl string, canonicalKey string, stream string) error {
	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()

	ub := sqlbuilder.NewUpdateBuilder()
	ub.Update("blogs").
		Set(
			ub.Assign("feed_url", feedUrl),
			ub.Assign("canonical_key", canonicalKey),
			ub.Assign("stream", stream),
		).
		Where(ub.Equal("id", id))
	query, args := ub.BuildWithFlavor(sqlbuilder.SQLite)

	_, err := db.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update blog error: %w", err)
	}
	return nil
}

func (db *DB) DeleteBlog(ctx context.Context, id int64) error {
	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()

	log.WithFields(log.Fields{"id": id}).Info("Deleting blog")

	_, err := db.db.ExecContext(ctx, "DELETE FROM blogs WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete blog error: %w", err)
	}
	return nil
}

// TouchBlogCrawled records a completed crawl pass for the blog.
func (db *DB) TouchBlogCrawled(ctx context.Context, id int64, crawledAt time.Time) error {
	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()

	ub := sqlbuilder.NewUpdateBuilder()
	ub.Update("blogs").
		Set(ub.Assign("last_crawled_at", crawledAt.Unix())).
		Where(ub.Equal("id", id))
	query, args := ub.BuildWithFlavor(sqlbuilder.SQLite)

	_, err := db.db.ExecContext(ctx, query, args...)
	return err
}

func (db *DB) CountBlogs(ctx context.Context) (int64, error) {
	var count int64
	err := db.db.QueryRowContext(ctx, "SELECT count(*) FROM blogs").Scan(&count)
	return count, err
}

func scanBlogs(rows *sql.Rows) ([]models.Blog, error) {
	var blogs []models.Blog
	for rows.Next() {
		var blog models.Blog
		var createdAt int64
		var lastCrawledAt sql.NullInt64
		if err := rows.Scan(
			&blog.Id, &blog.UserId, &blog.FeedUrl, &blog.CanonicalKey,
			&blog.Url, &blog.Title, &blog.Stream, &createdAt, &lastCrawledAt,
		); err != nil {
			return nil, fmt.Errorf("scan error: %w", err)
		}
		blog.CreatedAt = time.Unix(createdAt, 0)
		if lastCrawledAt.Valid {
			t := time.Unix(lastCrawledAt.Int64, 0)
			blog.LastCrawledAt = &t
		}
		blogs = append(blogs, blog)
	}
	return blogs, rows.Err()
}
