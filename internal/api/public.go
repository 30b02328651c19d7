package api

import (
	"github.com/gofiber/fiber/v2"

	"portfolio-backend/internal/content"
	"portfolio-backend/internal/schema"
)

func (s *Server) registerPublicRoutes(app *fiber.App) {
	api := app.Group("/api")

	api.Get("/profile", s.GetProfile)
	api.Get("/posts", s.ListPosts)
	api.Get("/posts/:slug", s.GetPost)
	api.Get("/categories", s.ListCategories)
	api.Get("/series", s.ListSeries)
	api.Get("/series/:id/posts", s.ListSeriesPosts)
	api.Get("/projects", s.ListProjects)
	api.Get("/tech-stack", s.ListTechStack)
	api.Get("/social-links", s.ListSocialLinks)
	api.Get("/guestbook", s.ListGuestbook)
	api.Post("/guestbook", s.SignGuestbook)
	api.Post("/visitors/hit", s.Hit)
}

func (s *Server) GetProfile(c *fiber.Ctx) error {
	profile, err := s.content.GetProfile(c.Context())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": profile})
}

// ListPosts handles GET /api/posts?page=&per_page=
func (s *Server) ListPosts(c *fiber.Ctx) error {
	page, perPage := parsePage(c)
	posts, err := s.content.PublishedPosts(c.Context(), perPage, (page-1)*perPage)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"data": nonNil(posts),
		"meta": fiber.Map{"page": page, "per_page": perPage},
	})
}

func (s *Server) GetPost(c *fiber.Ctx) error {
	post, err := s.content.PostBySlug(c.Context(), c.Params("slug"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": post})
}

func (s *Server) ListCategories(c *fiber.Ctx) error {
	items, err := s.content.Categories.List(c.Context())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": nonNil(items)})
}

func (s *Server) ListSeries(c *fiber.Ctx) error {
	items, err := s.content.Series.List(c.Context())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": nonNil(items)})
}

func (s *Server) ListSeriesPosts(c *fiber.Ctx) error {
	posts, err := s.content.SeriesPosts(c.Context(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": nonNil(posts)})
}

// ListProjects handles GET /api/projects?featured=true
func (s *Server) ListProjects(c *fiber.Ctx) error {
	projects, err := s.content.ListProjects(c.Context(), c.QueryBool("featured"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": nonNil(projects)})
}

func (s *Server) ListTechStack(c *fiber.Ctx) error {
	items, err := s.content.ListTechStack(c.Context())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": nonNil(items)})
}

func (s *Server) ListSocialLinks(c *fiber.Ctx) error {
	links, err := s.content.ListSocialLinks(c.Context())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": nonNil(links)})
}

func (s *Server) ListGuestbook(c *fiber.Ctx) error {
	entries, err := s.content.ApprovedGuestbook(c.Context())
	if err != nil {
		return err
	}
	out := make([]content.PublicGuestbookEntry, len(entries))
	for i, e := range entries {
		out[i] = e.Public()
	}
	return c.JSON(fiber.Map{"data": out})
}

// SignGuestbook handles POST /api/guestbook. Only name, email and message
// are accepted; approval is the operator's call.
func (s *Server) SignGuestbook(c *fiber.Ctx) error {
	var body map[string]any
	if err := c.BodyParser(&body); err != nil {
		return invalidPayload("Invalid JSON body")
	}
	if _, ok := body["approved"]; ok {
		return ValidationError([]ErrorDetail{{Field: "approved", Rule: "read_only", Message: "approved is set by the operator"}})
	}

	def := s.registry.Get(schema.CollectionGuestbook)
	if def == nil {
		return UnknownCollectionError(schema.CollectionGuestbook)
	}
	data, details := validateDocument(def, body, true)
	if len(details) > 0 {
		return ValidationError(details)
	}

	name, _ := data["name"].(string)
	email, _ := data["email"].(string)
	message, _ := data["message"].(string)
	entry, err := s.content.SignGuestbook(c.Context(), content.GuestbookEntry{Name: name, Email: email, Message: message})
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": entry.Public()})
}

func (s *Server) Hit(c *fiber.Ctx) error {
	count, err := s.content.Hit(c.Context())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"count": count}})
}

// nonNil keeps empty lists rendering as [] rather than null.
func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
