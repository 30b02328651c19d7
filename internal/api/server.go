// Package api serves the portfolio over HTTP: public read routes for the
// site, the guestbook and visitor counter, operator login and an admin API
// for content management.
package api

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"go.uber.org/zap"

	"portfolio-backend/internal/auth"
	"portfolio-backend/internal/baas"
	"portfolio-backend/internal/content"
	"portfolio-backend/internal/provision"
	"portfolio-backend/internal/schema"
)

// Deps are the collaborators the API serves from. Content defaults to a
// service over Docs and Registry. A nil Provisioner disables the
// provisioning endpoint.
type Deps struct {
	Docs        baas.Documents
	Registry    *schema.Registry
	Content     *content.Service
	Provisioner *provision.Provisioner
	Operator    auth.Operator
	Logger      *zap.Logger
}

type Server struct {
	docs        baas.Documents
	registry    *schema.Registry
	content     *content.Service
	provisioner *provision.Provisioner
	operator    auth.Operator
	log         *zap.Logger
}

// New builds the Fiber app with every route registered.
func New(d Deps) *fiber.App {
	s := &Server{
		docs:        d.Docs,
		registry:    d.Registry,
		content:     d.Content,
		provisioner: d.Provisioner,
		operator:    d.Operator,
		log:         d.Logger,
	}
	if s.log == nil {
		s.log = zap.NewNop()
	}
	if s.content == nil {
		s.content = content.NewService(d.Docs, d.Registry, content.WithLogger(s.log))
	}

	app := fiber.New(fiber.Config{
		ErrorHandler:          errorHandler(s.log),
		DisableStartupMessage: true,
	})
	app.Use(recover.New(recover.Config{
		EnableStackTrace: true,
	}))
	app.Use(requestLogger(s.log))

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	s.registerPublicRoutes(app)
	app.Post("/api/auth/login", s.Login)
	s.registerAdminRoutes(app, auth.Middleware(d.Operator.Secret), auth.RequireAdmin())
	return app
}

// requestLogger logs one line per request after the error handler has
// rendered the response.
func requestLogger(log *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		if chainErr := c.Next(); chainErr != nil {
			if err := c.App().ErrorHandler(c, chainErr); err != nil {
				_ = c.SendStatus(fiber.StatusInternalServerError)
			}
		}
		log.Info("request",
			zap.String("method", c.Method()),
			zap.String("path", c.Path()),
			zap.Int("status", c.Response().StatusCode()),
			zap.Duration("latency", time.Since(start)),
		)
		return nil
	}
}

func (s *Server) Login(c *fiber.Ctx) error {
	var body struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.BodyParser(&body); err != nil {
		return invalidPayload("Invalid request body")
	}
	if body.Email == "" || body.Password == "" {
		return NewAppError("UNAUTHORIZED", fiber.StatusUnauthorized, "Email and password are required")
	}

	token, err := s.operator.Login(body.Email, body.Password)
	if err != nil {
		s.log.Warn("operator login failed", zap.String("email", body.Email))
		return err
	}
	return c.JSON(fiber.Map{"data": token})
}
