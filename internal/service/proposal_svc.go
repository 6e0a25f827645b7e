package service

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/meetox80/zstio-tv-sub000/internal/model"
	"github.com/meetox80/zstio-tv-sub000/internal/ratelimit"
	"github.com/meetox80/zstio-tv-sub000/internal/repository"
)

// Listing page bounds.
const (
	DefaultPageLimit = 20
	MaxPageLimit     = 100
)

// ProposalStore is the slice of the proposal store the submission flow
// depends on.
type ProposalStore interface {
	Create(ctx context.Context, track model.TrackInput, fp string) (*model.Proposal, error)
	FindByTrackID(ctx context.Context, trackID string) (*model.Proposal, error)
	List(ctx context.Context, page, limit int) ([]model.Proposal, int, error)
}

type ProposalService struct {
	proposals ProposalStore
	songs     SongCatalog
	captcha   CaptchaVerifier
	limiter   *ratelimit.Limiter
	stats     *StatsService
	cooldown  time.Duration
}

func NewProposalService(
	proposals ProposalStore,
	songs SongCatalog,
	captcha CaptchaVerifier,
	limiter *ratelimit.Limiter,
	stats *StatsService,
	cooldown time.Duration,
) *ProposalService {
	return &ProposalService{
		proposals: proposals,
		songs:     songs,
		captcha:   captcha,
		limiter:   limiter,
		stats:     stats,
		cooldown:  cooldown,
	}
}

// Propose runs the submission gate in order: human verification, cooldown,
// dedupe against both tables, insert. Every check precedes the write so a
// rejection never leaves partial state. track is assumed structurally valid
// (the transport layer validates before calling).
func (s *ProposalService) Propose(ctx context.Context, track model.TrackInput, fp, captchaToken, clientIP string) (*model.Proposal, error) {
	if !s.captcha.VerifyHuman(ctx, captchaToken, clientIP) {
		return nil, ErrCaptchaFailed
	}

	if res := s.limiter.Check(ctx, "propose:"+fp, s.cooldown); !res.Allowed {
		return nil, &RateLimitedError{RetryAfter: res.RetryAfter}
	}

	if _, err := s.proposals.FindByTrackID(ctx, track.TrackID); err == nil {
		return nil, ErrAlreadyProposed
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}
	if _, err := s.songs.FindByTrackID(ctx, track.TrackID); err == nil {
		return nil, ErrAlreadyApproved
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}

	p, err := s.proposals.Create(ctx, track, fp)
	if err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			// Lost a race with an identical submission.
			return nil, ErrAlreadyProposed
		}
		return nil, err
	}

	s.stats.IncrementCounter(StatRequest)
	return p, nil
}

// List returns one page of pending proposals.
func (s *ProposalService) List(ctx context.Context, page, limit int) ([]model.Proposal, model.Pagination, error) {
	page, limit = clampPage(page, limit)
	items, total, err := s.proposals.List(ctx, page, limit)
	if err != nil {
		return nil, model.Pagination{}, err
	}
	if items == nil {
		items = []model.Proposal{}
	}
	return items, buildPagination(page, limit, total), nil
}

// clampPage normalizes user-supplied paging parameters.
func clampPage(page, limit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = DefaultPageLimit
	}
	if limit > MaxPageLimit {
		limit = MaxPageLimit
	}
	return page, limit
}

func buildPagination(page, limit, total int) model.Pagination {
	totalPages := (total + limit - 1) / limit
	if totalPages < 1 {
		totalPages = 1
	}
	return model.Pagination{Page: page, Limit: limit, Total: total, TotalPages: totalPages}
}
