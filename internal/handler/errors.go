package handler

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v3"

	"github.com/meetox80/zstio-tv-sub000/internal/middleware"
	"github.com/meetox80/zstio-tv-sub000/internal/service"
)

// serviceError maps domain rejections to machine-readable API errors.
// Anything unrecognized is a transient failure: logged with detail by the
// caller, surfaced generically here.
func serviceError(c fiber.Ctx, err error) error {
	var rl *service.RateLimitedError
	if errors.As(err, &rl) {
		operation := "propose"
		if strings.HasSuffix(c.Path(), "/vote") {
			operation = "vote"
		}
		Metrics.RateLimitedTotal.WithLabelValues(operation).Inc()
		return middleware.RateLimitedResponse(c, rl.RetryAfter)
	}

	switch {
	case errors.Is(err, service.ErrCaptchaFailed):
		return middleware.ErrorResponse(c, fiber.StatusForbidden, "CAPTCHA_FAILED",
			"Human verification failed. Solve the challenge and try again.")
	case errors.Is(err, service.ErrAlreadyProposed):
		return middleware.ErrorResponse(c, fiber.StatusConflict, "ALREADY_PROPOSED",
			"This track has already been proposed and is awaiting review.")
	case errors.Is(err, service.ErrAlreadyApproved):
		return middleware.ErrorResponse(c, fiber.StatusConflict, "ALREADY_APPROVED",
			"This track is already in the approved catalog.")
	case errors.Is(err, service.ErrAlreadyVoted):
		return middleware.ErrorResponse(c, fiber.StatusConflict, "ALREADY_VOTED",
			"You already voted this way on this song.")
	case errors.Is(err, service.ErrNotApproved):
		return middleware.ErrorResponse(c, fiber.StatusNotFound, "NOT_APPROVED",
			"Votes can only be cast on approved songs.")
	case errors.Is(err, service.ErrNotFound):
		return middleware.ErrorResponse(c, fiber.StatusNotFound, "NOT_FOUND",
			"No proposal or song with this id.")
	}

	middleware.Logger.Error().Err(err).Str("path", c.Path()).Msg("internal error")
	return middleware.ErrorResponse(c, fiber.StatusInternalServerError, "INTERNAL_ERROR",
		"Something went wrong. Try again later.")
}
