package handler

import (
	"strconv"

	"github.com/gofiber/fiber/v3"

	"github.com/meetox80/zstio-tv-sub000/internal/middleware"
	"github.com/meetox80/zstio-tv-sub000/internal/model"
	"github.com/meetox80/zstio-tv-sub000/internal/service"
)

type VoteHandler struct {
	svc *service.VoteService
}

func NewVoteHandler(svc *service.VoteService) *VoteHandler {
	return &VoteHandler{svc: svc}
}

// Cast handles POST /api/songs/:id/vote
func (h *VoteHandler) Cast(c fiber.Ctx) error {
	songID, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil || songID < 1 {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_FIELD", "song id must be a positive integer")
	}

	var req model.VoteRequest
	if err := c.Bind().JSON(&req); err != nil {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_BODY", "Invalid request body")
	}

	direction, errMsg := middleware.ValidateDirection(req.Direction)
	if errMsg != "" {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_FIELD", errMsg)
	}

	fp := identity(c, req.ClientToken)

	resp, err := h.svc.Cast(c.Context(), songID, fp, direction == model.DirectionUp)
	if err != nil {
		return serviceError(c, err)
	}
	Metrics.VotesTotal.WithLabelValues(direction).Inc()

	resp.IdentityToken = fp
	return c.JSON(resp)
}
