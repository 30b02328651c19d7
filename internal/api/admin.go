package api

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"portfolio-backend/internal/baas"
	"portfolio-backend/internal/ordering"
	"portfolio-backend/internal/schema"
)

func (s *Server) registerAdminRoutes(app *fiber.App, middleware ...fiber.Handler) {
	admin := app.Group("/api/_admin", middleware...)

	admin.Get("/collections", s.ListCollections)
	admin.Get("/collections/:collection", s.GetCollection)

	docs := admin.Group("/collections/:collection/documents")
	docs.Get("/", s.ListDocuments)
	docs.Post("/", s.CreateDocument)
	docs.Get("/:id", s.GetDocument)
	docs.Patch("/:id", s.UpdateDocument)
	docs.Delete("/:id", s.DeleteDocument)
	docs.Post("/:id/move", s.MoveDocument)
	docs.Post("/:id/compact", s.CompactGroup)

	admin.Post("/guestbook/:id/approve", s.ApproveGuestbook)
	admin.Post("/provision", s.Provision)
}

func (s *Server) ListCollections(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"data": s.registry.All()})
}

func (s *Server) GetCollection(c *fiber.Ctx) error {
	def, err := s.resolveCollection(c)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": def})
}

// ListDocuments handles GET /api/_admin/collections/:collection/documents
func (s *Server) ListDocuments(c *fiber.Ctx) error {
	def, err := s.resolveCollection(c)
	if err != nil {
		return err
	}
	plan, err := parseListQuery(c, def)
	if err != nil {
		return err
	}

	docs, err := s.docs.ListDocuments(c.Context(), def.ID, plan.Queries...)
	if err != nil {
		return err
	}
	rows := make([]map[string]any, len(docs))
	for i, d := range docs {
		rows[i] = d.Fields()
	}
	return c.JSON(fiber.Map{
		"data": rows,
		"meta": fiber.Map{"page": plan.Page, "per_page": plan.PerPage},
	})
}

func (s *Server) GetDocument(c *fiber.Ctx) error {
	def, err := s.resolveCollection(c)
	if err != nil {
		return err
	}
	id := c.Params("id")
	doc, err := s.docs.GetDocument(c.Context(), def.ID, id)
	if baas.IsNotFound(err) {
		return NotFoundError(def.ID, id)
	}
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": doc.Fields()})
}

// CreateDocument handles POST .../documents. A "$id" in the body picks the
// document id. Ordered collections append new documents to their group
// unless a position is given.
func (s *Server) CreateDocument(c *fiber.Ctx) error {
	def, err := s.resolveCollection(c)
	if err != nil {
		return err
	}
	var body map[string]any
	if err := c.BodyParser(&body); err != nil {
		return invalidPayload("Invalid JSON body")
	}
	id, _ := body[schema.FieldID].(string)
	delete(body, schema.FieldID)

	data, details := validateDocument(def, body, true)
	if len(details) > 0 {
		return ValidationError(details)
	}

	if def.Ordering != nil {
		if _, given := body[def.Ordering.Field]; !given {
			next, err := s.content.NextPosition(c.Context(), def.ID, data)
			if err != nil {
				return err
			}
			if next > 0 {
				data[def.Ordering.Field] = next
			}
		}
	}

	doc, err := s.docs.CreateDocument(c.Context(), def.ID, baas.ResolveID(id), data)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": doc.Fields()})
}

func (s *Server) UpdateDocument(c *fiber.Ctx) error {
	def, err := s.resolveCollection(c)
	if err != nil {
		return err
	}
	var body map[string]any
	if err := c.BodyParser(&body); err != nil {
		return invalidPayload("Invalid JSON body")
	}
	data, details := validateDocument(def, body, false)
	if len(details) > 0 {
		return ValidationError(details)
	}

	id := c.Params("id")
	doc, err := s.docs.UpdateDocument(c.Context(), def.ID, id, data)
	if baas.IsNotFound(err) {
		return NotFoundError(def.ID, id)
	}
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": doc.Fields()})
}

func (s *Server) DeleteDocument(c *fiber.Ctx) error {
	def, err := s.resolveCollection(c)
	if err != nil {
		return err
	}
	id := c.Params("id")
	err = s.docs.DeleteDocument(c.Context(), def.ID, id)
	if baas.IsNotFound(err) {
		return NotFoundError(def.ID, id)
	}
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"id": id}})
}

// MoveDocument handles POST .../documents/:id/move {"direction":"up"|"down"}.
func (s *Server) MoveDocument(c *fiber.Ctx) error {
	def, err := s.resolveCollection(c)
	if err != nil {
		return err
	}
	var body struct {
		Direction string `json:"direction"`
	}
	if err := c.BodyParser(&body); err != nil {
		return invalidPayload("Invalid JSON body")
	}
	dir, err := ordering.ParseDirection(body.Direction)
	if err != nil {
		return err
	}

	plan, err := s.content.Move(c.Context(), def.ID, c.Params("id"), dir)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"updates": nonNil(plan)}})
}

func (s *Server) CompactGroup(c *fiber.Ctx) error {
	def, err := s.resolveCollection(c)
	if err != nil {
		return err
	}
	plan, err := s.content.Compact(c.Context(), def.ID, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"updates": nonNil(plan)}})
}

func (s *Server) ApproveGuestbook(c *fiber.Ctx) error {
	id := c.Params("id")
	entry, err := s.content.ApproveGuestbook(c.Context(), id)
	if baas.IsNotFound(err) {
		return NotFoundError(schema.CollectionGuestbook, id)
	}
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": entry})
}

// Provision handles POST /api/_admin/provision: re-runs provisioning over
// every registered definition.
func (s *Server) Provision(c *fiber.Ctx) error {
	if s.provisioner == nil {
		return NewAppError("NOT_CONFIGURED", fiber.StatusNotImplemented, "Provisioning is not available")
	}
	report, err := s.provisioner.Run(c.Context(), s.registry.All()...)
	if err != nil {
		s.log.Error("provisioning from admin API failed", zap.Error(err))
		return err
	}
	return c.JSON(fiber.Map{"data": report})
}

func (s *Server) resolveCollection(c *fiber.Ctx) (*schema.Definition, error) {
	id := c.Params("collection")
	def := s.registry.Get(id)
	if def == nil {
		return nil, UnknownCollectionError(id)
	}
	return def, nil
}
