package handler

import (
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v3"

	"github.com/meetox80/zstio-tv-sub000/internal/middleware"
	"github.com/meetox80/zstio-tv-sub000/internal/model"
	"github.com/meetox80/zstio-tv-sub000/internal/service"
)

type ModerationHandler struct {
	svc  *service.ModerationService
	gate service.Gate
}

func NewModerationHandler(svc *service.ModerationService, gate service.Gate) *ModerationHandler {
	return &ModerationHandler{svc: svc, gate: gate}
}

// RequireModerator guards the moderation route group. On success the
// moderator's identity is stashed in locals for audit logging.
func (h *ModerationHandler) RequireModerator(c fiber.Ctx) error {
	token := strings.TrimPrefix(c.Get("Authorization"), "Bearer ")
	if token == "" {
		return middleware.ErrorResponse(c, fiber.StatusUnauthorized, "UNAUTHORIZED",
			"Moderator credentials required.")
	}
	identity, allowed := h.gate.RequireModerator(token)
	if !allowed {
		return middleware.ErrorResponse(c, fiber.StatusForbidden, "FORBIDDEN",
			"Moderator credentials rejected.")
	}
	c.Locals("moderator", identity)
	return c.Next()
}

// Approve handles POST /api/moderation/proposals/:id/approve
func (h *ModerationHandler) Approve(c fiber.Ctx) error {
	proposalID, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil || proposalID < 1 {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_FIELD", "proposal id must be a positive integer")
	}

	song, err := h.svc.Approve(c.Context(), proposalID)
	if err != nil {
		return serviceError(c, err)
	}

	middleware.Logger.Info().
		Str("moderator", moderatorName(c)).
		Int64("proposal_id", proposalID).
		Int64("song_id", song.ID).
		Int("migrated_votes", song.Upvotes+song.Downvotes).
		Msg("proposal approved")

	return c.JSON(model.ApproveResponse{Success: true, Song: song})
}

// Reject handles DELETE /api/moderation/songs/:id. The id may name a
// pending proposal or an approved song; the response reports which table
// it was removed from.
func (h *ModerationHandler) Reject(c fiber.Ctx) error {
	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil || id < 1 {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_FIELD", "id must be a positive integer")
	}

	deletedFrom, err := h.svc.Reject(c.Context(), id)
	if err != nil {
		return serviceError(c, err)
	}

	middleware.Logger.Info().
		Str("moderator", moderatorName(c)).
		Int64("id", id).
		Str("deleted_from", deletedFrom).
		Msg("song rejected")

	return c.JSON(model.RejectResponse{Success: true, DeletedFrom: deletedFrom})
}

func moderatorName(c fiber.Ctx) string {
	if name, ok := c.Locals("moderator").(string); ok {
		return name
	}
	return "unknown"
}
