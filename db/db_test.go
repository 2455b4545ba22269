package db_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"blaggregator/db"
	"blaggregator/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDB(t *testing.T) *db.DB {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "test.db")
	require.NoError(t, db.Migrate(dbPath))

	database, err := db.New(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })

	return database
}

func TestUserAndHackerLifecycle(t *testing.T) {
	database := newTestDB(t)
	ctx := context.Background()

	user, err := database.CreateUser(ctx, "test", "hash")
	require.NoError(t, err)
	assert.NotZero(t, user.Id)

	hacker, err := database.CreateHacker(ctx, user.Id)
	require.NoError(t, err)
	assert.NotEmpty(t, hacker.Token)

	byName, err := database.GetUserByUsername(ctx, "test")
	require.NoError(t, err)
	assert.Equal(t, user.Id, byName.Id)

	byToken, err := database.GetHackerByToken(ctx, hacker.Token)
	require.NoError(t, err)
	assert.Equal(t, hacker.Id, byToken.Id)

	require.NoError(t, database.UpdateHackerAvatar(ctx, hacker.Id, "https://example.com/avatar.png"))
	updated, err := database.GetHackerById(ctx, hacker.Id)
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/avatar.png", updated.AvatarUrl)
}

func TestGetHackerByTokenRejectsEmptyToken(t *testing.T) {
	database := newTestDB(t)
	ctx := context.Background()

	user, err := database.CreateUser(ctx, "test", "hash")
	require.NoError(t, err)
	_, err = database.CreateHacker(ctx, user.Id)
	require.NoError(t, err)

	_, err = database.GetHackerByToken(ctx, "")
	assert.ErrorIs(t, err, db.ErrNotFound)

	_, err = database.GetHackerByToken(ctx, "BOGUS-TOKEN")
	assert.ErrorIs(t, err, db.ErrNotFound)
}

func TestBlogLifecycle(t *testing.T) {
	database := newTestDB(t)
	ctx := context.Background()

	user, err := database.CreateUser(ctx, "test", "hash")
	require.NoError(t, err)

	blog, err := database.CreateBlog(ctx, models.Blog{
		UserId:       user.Id,
		FeedUrl:      "https://jvns.ca/atom.xml",
		CanonicalKey: "jvns.ca",
	})
	require.NoError(t, err)
	assert.Equal(t, "BLOGGING", blog.Stream)

	byKey, err := database.GetBlogByKey(ctx, user.Id, "jvns.ca")
	require.NoError(t, err)
	assert.Equal(t, blog.Id, byKey.Id)

	// Same canonical key twice violates the uniqueness constraint
	_, err = database.CreateBlog(ctx, models.Blog{
		UserId:       user.Id,
		FeedUrl:      "https://jvns.ca/rss",
		CanonicalKey: "jvns.ca",
	})
	assert.Error(t, err)

	require.NoError(t, database.UpdateBlog(ctx, blog.Id, "https://jvns.ca/rss", "jvns.ca", "SILENT"))
	updated, err := database.GetBlogById(ctx, blog.Id)
	require.NoError(t, err)
	assert.Equal(t, "https://jvns.ca/rss", updated.FeedUrl)
	assert.Equal(t, "SILENT", updated.Stream)

	crawledAt := time.Now()
	require.NoError(t, database.TouchBlogCrawled(ctx, blog.Id, crawledAt))
	touched, err := database.GetBlogById(ctx, blog.Id)
	require.NoError(t, err)
	require.NotNil(t, touched.LastCrawledAt)
	assert.Equal(t, crawledAt.Unix(), touched.LastCrawledAt.Unix())

	require.NoError(t, database.DeleteBlog(ctx, blog.Id))
	_, err = database.GetBlogById(ctx, blog.Id)
	assert.ErrorIs(t, err, db.ErrNotFound)
}

func TestPostsAreIdempotentAndOrdered(t *testing.T) {
	database := newTestDB(t)
	ctx := context.Background()

	user, err := database.CreateUser(ctx, "test", "hash")
	require.NoError(t, err)
	blog, err := database.CreateBlog(ctx, models.Blog{
		UserId:       user.Id,
		FeedUrl:      "https://jvns.ca/atom.xml",
		CanonicalKey: "jvns.ca",
	})
	require.NoError(t, err)

	base := time.Date(2016, 11, 3, 12, 0, 0, 0, time.UTC)
	posts := []models.Post{
		{BlogId: blog.Id, Url: "https://jvns.ca/a/", Title: "Oldest", PostedAt: base.Add(-48 * time.Hour)},
		{BlogId: blog.Id, Url: "https://jvns.ca/b/", Title: "Newest", PostedAt: base},
		{BlogId: blog.Id, Url: "https://jvns.ca/c/", Title: "Middle", PostedAt: base.Add(-24 * time.Hour)},
	}
	for _, post := range posts {
		require.NoError(t, database.CreatePost(ctx, post))
	}

	// Re-crawling the same posts does not duplicate them
	for _, post := range posts {
		require.NoError(t, database.CreatePost(ctx, post))
	}

	count, err := database.CountPosts(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)

	recent, err := database.RecentPosts(ctx, 2)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, "Newest", recent[0].Title)
	assert.Equal(t, "Middle", recent[1].Title)

	latest, err := database.GetLatestPostTimestamp(ctx)
	require.NoError(t, err)
	assert.Equal(t, base.Unix(), latest.Unix())

	// Deleting the blog cascades to its posts
	require.NoError(t, database.DeleteBlog(ctx, blog.Id))
	count, err = database.CountPosts(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), count)
}
