// Package server exposes the packaging service over a small HTTP API.
package server

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"streamlit-packager/internal/app"
)

// Config sets what the API builds and how started containers are
// probed.
type Config struct {
	// Source is the application served by GET /plan and used by builds
	// that name no source of their own.
	Source app.SourceRequest
	// SourceRoot confines the source and recipe paths a build request may
	// name. Empty rejects request paths; repository URLs stay allowed.
	SourceRoot string
	// AllowedImages lists image name prefixes POST /containers may start.
	// Empty allows any image.
	AllowedImages []string
	OutputDir     string
	ProbeHost     string
	Wait          time.Duration
}

// New returns the fiber application with every route registered.
func New(service app.Service, cfg Config) *fiber.App {
	router := fiber.New(fiber.Config{
		DisableStartupMessage: true,
		ErrorHandler:          errorHandler,
	})
	router.Use(func(c *fiber.Ctx) error {
		c.SetUserContext(log.Logger.WithContext(c.UserContext()))
		return c.Next()
	})

	h := newHandler(service, cfg)
	router.Get("/healthz", h.Health)

	v1 := router.Group("/api/v1")
	v1.Get("/plan", h.Plan)
	v1.Post("/builds", h.Build)

	containers := v1.Group("/containers")
	containers.Get("/", h.ListContainers)
	containers.Post("/", h.StartContainer)
	containers.Delete("/:id", h.StopContainer)
	containers.Get("/:id/logs", h.ContainerLogs)
	return router
}
