package handler

import (
	"github.com/gofiber/fiber/v3"

	"github.com/meetox80/zstio-tv-sub000/internal/middleware"
	"github.com/meetox80/zstio-tv-sub000/internal/model"
	"github.com/meetox80/zstio-tv-sub000/internal/service"
	"github.com/meetox80/zstio-tv-sub000/pkg/fingerprint"
)

type ProposalHandler struct {
	proposals *service.ProposalService
	votes     *service.VoteService
}

func NewProposalHandler(proposals *service.ProposalService, votes *service.VoteService) *ProposalHandler {
	return &ProposalHandler{proposals: proposals, votes: votes}
}

// identity resolves the caller's fingerprint token: a well-formed client
// token (body field or X-Client-Token header) wins, otherwise one is
// derived from the connection.
func identity(c fiber.Ctx, bodyToken string) string {
	token := bodyToken
	if token == "" {
		token = c.Get("X-Client-Token")
	}
	return fingerprint.Resolve(token, c.IP(), c.Get("User-Agent"))
}

// Propose handles POST /api/songs/propose
func (h *ProposalHandler) Propose(c fiber.Ctx) error {
	var req model.ProposeRequest
	if err := c.Bind().JSON(&req); err != nil {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_BODY", "Invalid request body")
	}

	track, errMsg := middleware.ValidateTrack(req.Track)
	if errMsg != "" {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_FIELD", errMsg)
	}

	fp := identity(c, req.ClientToken)

	p, err := h.proposals.Propose(c.Context(), track, fp, req.CaptchaToken, c.IP())
	if err != nil {
		Metrics.ProposalsTotal.WithLabelValues("rejected").Inc()
		return serviceError(c, err)
	}
	Metrics.ProposalsTotal.WithLabelValues("accepted").Inc()

	return c.Status(fiber.StatusCreated).JSON(model.ProposeResponse{
		Success:       true,
		Proposal:      p,
		IdentityToken: fp,
	})
}

// List handles GET /api/songs. With ?pending=true it lists proposals
// awaiting review; otherwise the approved catalog ordered by score.
func (h *ProposalHandler) List(c fiber.Ctx) error {
	page := fiber.Query[int](c, "page", 1)
	limit := fiber.Query[int](c, "limit", 0)
	fp := identity(c, "")

	if fiber.Query[bool](c, "pending") {
		items, pagination, err := h.proposals.List(c.Context(), page, limit)
		if err != nil {
			return serviceError(c, err)
		}
		return c.JSON(model.ProposalListResponse{
			Items:         items,
			Pagination:    pagination,
			IdentityToken: fp,
		})
	}

	resp, err := h.votes.ListSongs(c.Context(), page, limit)
	if err != nil {
		return serviceError(c, err)
	}
	resp.IdentityToken = fp
	return c.JSON(resp)
}
