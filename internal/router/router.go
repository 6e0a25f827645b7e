package router

import (
	"github.com/gofiber/fiber/v3"
	recoverer "github.com/gofiber/fiber/v3/middleware/recover"

	"github.com/meetox80/zstio-tv-sub000/internal/handler"
	"github.com/meetox80/zstio-tv-sub000/internal/middleware"
)

// Handlers holds all handler instances needed by the router.
type Handlers struct {
	Proposal   *handler.ProposalHandler
	Vote       *handler.VoteHandler
	Moderation *handler.ModerationHandler
	Health     *handler.HealthHandler
}

// Setup configures the middleware stack and all API routes on the given Fiber app.
func Setup(app *fiber.App, h *Handlers, corsOrigins string) {
	// Middleware stack (order matters)
	app.Use(recoverer.New())
	app.Use(handler.MetricsMiddleware())
	app.Use(middleware.NewRequestLogger())
	app.Use(middleware.NewCORS(corsOrigins))

	// Probes and metrics (outside the API group)
	app.Get("/health/live", h.Health.Live)
	app.Get("/health/ready", h.Health.Ready)
	app.Get("/metrics", handler.MetricsHandler())

	api := app.Group("/api")

	// Public song routes
	api.Get("/songs", h.Proposal.List)
	api.Post("/songs/propose", h.Proposal.Propose)
	api.Post("/songs/:id/vote", h.Vote.Cast)

	// Moderation routes, gated
	mod := api.Group("/moderation", h.Moderation.RequireModerator)
	mod.Post("/proposals/:id/approve", h.Moderation.Approve)
	mod.Delete("/songs/:id", h.Moderation.Reject)
}
