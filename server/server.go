package server

import (
	"context"
	"embed"
	"io/fs"
	"net/http"
	"time"

	"blaggregator/db"
	"blaggregator/fetcher"
	"blaggregator/models"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/fiber/v2/middleware/session"
	"github.com/gofiber/template/html/v2"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
)

//go:embed views/*.html
var viewsFS embed.FS

// ProfileUpdater refreshes a hacker's profile (avatar etc.) from the
// member directory and writes the result to the database.
type ProfileUpdater func(ctx context.Context, hacker models.Hacker) error

type Config struct {

	// The hostname to use for feed links
	Hostname string

	// The database to read and write records from
	DB *db.DB

	// Maximum number of entries served in the aggregated Atom feed
	MaxFeedEntries int

	// Fetch resolves a feed URL when a blog is added
	Fetch fetcher.FetchFunc

	// UpdateProfile refreshes a hacker profile on demand
	UpdateProfile ProfileUpdater
}

type server struct {
	cfg   *Config
	store *session.Store
}

// Server returns a fiber.App instance serving the blaggregator web UI and
// the aggregated Atom feed.
func Server(config *Config) *fiber.App {
	views, err := fs.Sub(viewsFS, "views")
	if err != nil {
		panic(err)
	}
	engine := html.NewFileSystem(http.FS(views), ".html")

	app := fiber.New(fiber.Config{
		Views: engine,
	})

	// Middleware to track the latency of each request
	app.Use(func(c *fiber.Ctx) error {
		// start timer
		start := time.Now()

		// next routes
		err := c.Next()

		// stop timer
		stop := time.Now()

		log.WithFields(log.Fields{
			"method":  c.Method(),
			"route":   c.Route().Path,
			"latency": stop.Sub(start),
		}).Info("Request")
		return err
	})

	app.Use(requestid.New(requestid.ConfigDefault))
	app.Use(compress.New())

	s := &server{
		cfg: config,
		store: session.New(session.Config{
			KeyLookup: "cookie:blaggregator_session",
		}),
	}

	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	app.Get("/atom.xml", s.atomFeed)

	app.Get("/login/", s.loginForm)
	app.Post("/login/", s.login)
	app.Get("/logout/", s.logout)

	app.Get("/", func(c *fiber.Ctx) error {
		return c.Redirect("/new/", fiber.StatusFound)
	})
	app.Get("/new/", s.requireLogin, s.newPosts)
	app.Get("/add_blog/", s.requireLogin, s.addBlogForm)
	app.Post("/add_blog/", s.requireLogin, s.addBlog)
	app.Get("/delete_blog/:id/", s.requireLogin, s.deleteBlog)
	app.Get("/edit_blog/:id/", s.requireLogin, s.editBlogForm)
	app.Post("/edit_blog/:id/", s.requireLogin, s.editBlog)
	app.Get("/updated_avatar/:id/", s.requireLogin, s.updatedAvatar)

	return app
}
