package server

import (
	"fmt"
	"strconv"

	"blaggregator/feeds"
	"blaggregator/fetcher"
	"blaggregator/models"

	"github.com/gofiber/fiber/v2"
	log "github.com/sirupsen/logrus"
)

// atomFeed serves the aggregated Atom feed. Access is gated by the
// per-hacker token only; a login session is not enough.
func (s *server) atomFeed(c *fiber.Ctx) error {
	token := c.Query("token")

	hacker, err := s.cfg.DB.GetHackerByToken(c.UserContext(), token)
	if err != nil {
		return c.SendStatus(fiber.StatusNotFound)
	}

	posts, err := s.cfg.DB.RecentPosts(c.UserContext(), s.cfg.MaxFeedEntries)
	if err != nil {
		log.WithFields(log.Fields{"error": err}).Error("Error reading posts for feed")
		return c.SendStatus(fiber.StatusInternalServerError)
	}

	selected := feeds.Select(posts, s.cfg.MaxFeedEntries)
	atom, err := feeds.BuildAtom(s.cfg.Hostname, selected)
	if err != nil {
		log.WithFields(log.Fields{"error": err}).Error("Error rendering feed")
		return c.SendStatus(fiber.StatusInternalServerError)
	}

	log.WithFields(log.Fields{
		"hacker":  hacker.Id,
		"entries": len(selected),
	}).Info("Serving aggregated feed")

	c.Set(fiber.HeaderContentType, "application/atom+xml; charset=utf-8")
	return c.SendString(atom)
}

func (s *server) newPosts(c *fiber.Ctx) error {
	posts, err := s.cfg.DB.RecentPosts(c.UserContext(), s.cfg.MaxFeedEntries)
	if err != nil {
		log.WithFields(log.Fields{"error": err}).Error("Error reading recent posts")
		return c.SendStatus(fiber.StatusInternalServerError)
	}

	return c.Render("new", fiber.Map{
		"Posts": posts,
		"Flash": s.popFlash(c),
	})
}

func (s *server) addBlogForm(c *fiber.Ctx) error {
	return c.Render("add_blog", fiber.Map{
		"Flash": s.popFlash(c),
	})
}

func (s *server) addBlog(c *fiber.Ctx) error {
	userId, _ := s.currentUserId(c)

	feedUrl := c.FormValue("feed_url")
	if feedUrl == "" {
		return c.Render("add_blog", fiber.Map{
			"Error": "No feed URL provided",
		})
	}

	normalized := fetcher.NormalizeUrl(feedUrl)
	key := fetcher.CanonicalKey(normalized)

	// Same blog registered twice (e.g. /rss after /atom.xml) is a no-op
	if _, err := s.cfg.DB.GetBlogByKey(c.UserContext(), userId, key); err == nil {
		s.flash(c, "You have already added this blog.")
		return c.Redirect("/new/", fiber.StatusFound)
	}

	result, err := s.cfg.Fetch(c.UserContext(), normalized)
	if err != nil {
		log.WithFields(log.Fields{
			"feedUrl": normalized,
			"error":   err,
		}).Warn("Error fetching feed for new blog")
		return c.Render("add_blog", fiber.Map{
			"Error": fmt.Sprintf("Could not fetch a feed from %s", normalized),
		})
	}

	if len(result.Items) == 0 && len(result.SuggestedFeeds) > 0 {
		message := "Please use your blog's feed url."
		for _, suggestion := range result.SuggestedFeeds {
			message += " It may be this -- " + suggestion
		}
		s.flash(c, message)
		return c.Redirect("/add_blog/", fiber.StatusFound)
	}

	blog, err := s.cfg.DB.CreateBlog(c.UserContext(), models.Blog{
		UserId:       userId,
		FeedUrl:      normalized,
		CanonicalKey: key,
		Url:          result.Link,
		Title:        result.Title,
	})
	if err != nil {
		log.WithFields(log.Fields{"error": err}).Error("Error creating blog")
		return c.SendStatus(fiber.StatusInternalServerError)
	}

	for _, item := range result.Items {
		post := models.Post{
			BlogId:   blog.Id,
			Url:      item.Url,
			Title:    item.Title,
			Content:  item.Content,
			PostedAt: item.Published,
		}
		if err := s.cfg.DB.CreatePost(c.UserContext(), post); err != nil {
			log.WithFields(log.Fields{"error": err}).Error("Error storing post")
		}
	}

	s.flash(c, "Your blog has been added.")
	return c.Redirect("/new/", fiber.StatusFound)
}

// ownBlog loads a blog and checks it belongs to the logged-in user.
// Unknown ids and other users' blogs are both reported as not found.
func (s *server) ownBlog(c *fiber.Ctx) (models.Blog, bool) {
	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil {
		return models.Blog{}, false
	}

	blog, err := s.cfg.DB.GetBlogById(c.UserContext(), id)
	if err != nil {
		return models.Blog{}, false
	}

	userId, _ := s.currentUserId(c)
	if blog.UserId != userId {
		return models.Blog{}, false
	}

	return blog, true
}

func (s *server) deleteBlog(c *fiber.Ctx) error {
	blog, ok := s.ownBlog(c)
	if !ok {
		return c.SendStatus(fiber.StatusNotFound)
	}

	if err := s.cfg.DB.DeleteBlog(c.UserContext(), blog.Id); err != nil {
		log.WithFields(log.Fields{"error": err}).Error("Error deleting blog")
		return c.SendStatus(fiber.StatusInternalServerError)
	}

	s.flash(c, "Your blog has been deleted.")
	return c.Redirect("/new/", fiber.StatusFound)
}

func (s *server) editBlogForm(c *fiber.Ctx) error {
	blog, ok := s.ownBlog(c)
	if !ok {
		return c.SendStatus(fiber.StatusNotFound)
	}

	return c.Render("edit_blog", fiber.Map{
		"Blog": blog,
	})
}

func (s *server) editBlog(c *fiber.Ctx) error {
	blog, ok := s.ownBlog(c)
	if !ok {
		return c.SendStatus(fiber.StatusNotFound)
	}

	feedUrl := c.FormValue("feed_url")
	if feedUrl == "" {
		return c.Render("edit_blog", fiber.Map{
			"Blog":  blog,
			"Error": "No feed URL provided",
		})
	}

	stream := c.FormValue("stream", blog.Stream)
	normalized := fetcher.NormalizeUrl(feedUrl)
	key := fetcher.CanonicalKey(normalized)

	if err := s.cfg.DB.UpdateBlog(c.UserContext(), blog.Id, normalized, key, stream); err != nil {
		log.WithFields(log.Fields{"error": err}).Error("Error updating blog")
		return c.SendStatus(fiber.StatusInternalServerError)
	}

	s.flash(c, "Your blog has been updated.")
	return c.Redirect("/new/", fiber.StatusFound)
}

// updatedAvatar refreshes a hacker's profile from the member directory and
// responds with the new avatar URL.
func (s *server) updatedAvatar(c *fiber.Ctx) error {
	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil {
		return c.SendStatus(fiber.StatusNotFound)
	}

	hacker, err := s.cfg.DB.GetHackerById(c.UserContext(), id)
	if err != nil {
		return c.SendStatus(fiber.StatusNotFound)
	}

	if s.cfg.UpdateProfile != nil {
		if err := s.cfg.UpdateProfile(c.UserContext(), hacker); err != nil {
			log.WithFields(log.Fields{
				"hacker": hacker.Id,
				"error":  err,
			}).Error("Error updating profile")
		}
	}

	hacker, err = s.cfg.DB.GetHackerById(c.UserContext(), id)
	if err != nil {
		return c.SendStatus(fiber.StatusNotFound)
	}

	return c.SendString(hacker.AvatarUrl)
}
