package server

import (
	"net/url"
	"strings"

	"github.com/gofiber/fiber/v2"
	log "github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
)

const sessionUserKey = "user_id"

// currentUserId returns the logged-in user's id, if any.
func (s *server) currentUserId(c *fiber.Ctx) (int64, bool) {
	sess, err := s.store.Get(c)
	if err != nil {
		return 0, false
	}
	id, ok := sess.Get(sessionUserKey).(int64)
	return id, ok
}

// requireLogin redirects anonymous requests to the login page, preserving
// the requested path in the next parameter.
func (s *server) requireLogin(c *fiber.Ctx) error {
	if _, ok := s.currentUserId(c); !ok {
		return c.Redirect("/login/?next="+url.QueryEscape(c.Path()), fiber.StatusFound)
	}
	return c.Next()
}

func (s *server) loginForm(c *fiber.Ctx) error {
	return c.Render("login", fiber.Map{
		"Next": c.Query("next", "/new/"),
	})
}

func (s *server) login(c *fiber.Ctx) error {
	username := c.FormValue("username")
	password := c.FormValue("password")

	user, err := s.cfg.DB.GetUserByUsername(c.UserContext(), username)
	if err != nil || bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		log.WithFields(log.Fields{"username": username}).Warn("Failed login attempt")
		return c.Render("login", fiber.Map{
			"Error": "Invalid username or password",
			"Next":  c.FormValue("next", "/new/"),
		})
	}

	sess, err := s.store.Get(c)
	if err != nil {
		return err
	}
	sess.Set(sessionUserKey, user.Id)
	if err := sess.Save(); err != nil {
		return err
	}

	next := c.FormValue("next", "/new/")
	// Only redirect within the site
	if !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") {
		next = "/new/"
	}
	return c.Redirect(next, fiber.StatusFound)
}

func (s *server) logout(c *fiber.Ctx) error {
	sess, err := s.store.Get(c)
	if err == nil {
		if err := sess.Destroy(); err != nil {
			log.WithFields(log.Fields{"error": err}).Warn("Failed to destroy session")
		}
	}
	return c.Redirect("/login/", fiber.StatusFound)
}

// flash stores a one-shot message in the session, shown on the next
// rendered page.
func (s *server) flash(c *fiber.Ctx, message string) {
	sess, err := s.store.Get(c)
	if err != nil {
		return
	}
	sess.Set("flash", message)
	if err := sess.Save(); err != nil {
		log.WithFields(log.Fields{"error": err}).Warn("Failed to save flash message")
	}
}

// popFlash returns and clears the pending flash message.
func (s *server) popFlash(c *fiber.Ctx) string {
	sess, err := s.store.Get(c)
	if err != nil {
		return ""
	}
	message, ok := sess.Get("flash").(string)
	if !ok {
		return ""
	}
	sess.Delete("flash")
	if err := sess.Save(); err != nil {
		log.WithFields(log.Fields{"error": err}).Warn("Failed to clear flash message")
	}
	return message
}
