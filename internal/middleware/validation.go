package middleware

import (
	"regexp"
	"strings"

	"github.com/gofiber/fiber/v3"

	"github.com/meetox80/zstio-tv-sub000/internal/model"
)

// Field length limits matching database schema expectations.
const (
	MaxTrackIDLen  = 64
	MaxTitleLen    = 200
	MaxArtistLen   = 200
	MaxAlbumLen    = 200
	MaxAlbumArtLen = 512
	MaxURILen      = 128
	MaxDurationMs  = 2 * 60 * 60 * 1000 // nothing longer than two hours
)

var (
	// trackIDRe matches Spotify-style base62 track ids.
	trackIDRe = regexp.MustCompile(`^[A-Za-z0-9]+$`)
	// uriRe matches track URIs like "spotify:track:<id>".
	uriRe = regexp.MustCompile(`^[a-z]+:track:[A-Za-z0-9]+$`)
)

// ErrorResponse is a helper that returns a standard API error response.
func ErrorResponse(c fiber.Ctx, status int, code, message string) error {
	return c.Status(status).JSON(fiber.Map{
		"error": fiber.Map{
			"code":    code,
			"message": message,
		},
	})
}

// RateLimitedResponse renders a 429 with the machine-readable retry delay.
func RateLimitedResponse(c fiber.Ctx, retryAfter int) error {
	return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
		"error": fiber.Map{
			"code":       "RATE_LIMITED",
			"message":    "Too many requests. Try again later.",
			"retryAfter": retryAfter,
		},
	})
}

// ValidateTrack checks the structural validity of a proposed track and
// returns the normalized input, or a message describing the first problem.
func ValidateTrack(in model.TrackInput) (model.TrackInput, string) {
	in.TrackID = strings.TrimSpace(in.TrackID)
	in.Title = strings.TrimSpace(in.Title)
	in.Artist = strings.TrimSpace(in.Artist)
	in.Album = strings.TrimSpace(in.Album)
	in.AlbumArt = strings.TrimSpace(in.AlbumArt)
	in.URI = strings.TrimSpace(in.URI)

	switch {
	case in.TrackID == "":
		return in, "trackId is required"
	case len(in.TrackID) > MaxTrackIDLen:
		return in, "trackId is too long"
	case !trackIDRe.MatchString(in.TrackID):
		return in, "trackId contains invalid characters"
	case in.Title == "":
		return in, "title is required"
	case len(in.Title) > MaxTitleLen:
		return in, "title is too long"
	case in.Artist == "":
		return in, "artist is required"
	case len(in.Artist) > MaxArtistLen:
		return in, "artist is too long"
	case len(in.Album) > MaxAlbumLen:
		return in, "album is too long"
	case len(in.AlbumArt) > MaxAlbumArtLen:
		return in, "albumArt is too long"
	case in.DurationMs < 0 || in.DurationMs > MaxDurationMs:
		return in, "durationMs is out of range"
	case in.URI != "" && (len(in.URI) > MaxURILen || !uriRe.MatchString(in.URI)):
		return in, "uri is malformed"
	}
	return in, ""
}

// ValidateDirection normalizes a vote direction string.
func ValidateDirection(dir string) (string, string) {
	dir = strings.ToLower(strings.TrimSpace(dir))
	if dir != model.DirectionUp && dir != model.DirectionDown {
		return "", "direction must be \"up\" or \"down\""
	}
	return dir, ""
}
