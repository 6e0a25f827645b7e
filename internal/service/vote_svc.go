package service

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/meetox80/zstio-tv-sub000/internal/model"
	"github.com/meetox80/zstio-tv-sub000/internal/ratelimit"
	"github.com/meetox80/zstio-tv-sub000/internal/repository"
)

// VoteLedger is the slice of the vote store the casting flow depends on.
type VoteLedger interface {
	Find(ctx context.Context, songID int64, fp string) (*model.Vote, error)
	Insert(ctx context.Context, songID int64, fp string, isUpvote bool) (up, down int, err error)
	Switch(ctx context.Context, voteID, songID int64, toUpvote bool) (up, down int, err error)
}

// SongCatalog is the approved-catalog read surface the services depend on.
type SongCatalog interface {
	FindByID(ctx context.Context, id int64) (*model.ApprovedSong, error)
	FindByTrackID(ctx context.Context, trackID string) (*model.ApprovedSong, error)
	List(ctx context.Context, page, limit int) ([]model.ApprovedSong, int, error)
}

type VoteService struct {
	votes    VoteLedger
	songs    SongCatalog
	limiter  *ratelimit.Limiter
	stats    *StatsService
	cache    *CacheService
	cooldown time.Duration
}

func NewVoteService(
	votes VoteLedger,
	songs SongCatalog,
	limiter *ratelimit.Limiter,
	stats *StatsService,
	cache *CacheService,
	cooldown time.Duration,
) *VoteService {
	return &VoteService{
		votes:    votes,
		songs:    songs,
		limiter:  limiter,
		stats:    stats,
		cache:    cache,
		cooldown: cooldown,
	}
}

// Cast records an identity's vote on an approved song. A repeat vote in the
// same direction is rejected; a vote in the other direction switches the
// existing one. Only first-time votes burn the identity's cooldown -
// switching an opinion is always allowed.
func (s *VoteService) Cast(ctx context.Context, songID int64, fp string, isUpvote bool) (*model.VoteResponse, error) {
	if _, err := s.songs.FindByID(ctx, songID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotApproved
		}
		return nil, err
	}

	var (
		up, down int
		changed  bool
	)

	existing, err := s.votes.Find(ctx, songID, fp)
	switch {
	case err == nil:
		if existing.IsUpvote == isUpvote {
			return nil, ErrAlreadyVoted
		}
		up, down, err = s.votes.Switch(ctx, existing.ID, songID, isUpvote)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				// A concurrent request flipped the vote first.
				return nil, ErrAlreadyVoted
			}
			return nil, err
		}
		changed = true

	case errors.Is(err, pgx.ErrNoRows):
		if res := s.limiter.Check(ctx, "vote:"+fp, s.cooldown); !res.Allowed {
			return nil, &RateLimitedError{RetryAfter: res.RetryAfter}
		}
		up, down, err = s.votes.Insert(ctx, songID, fp, isUpvote)
		if err != nil {
			if errors.Is(err, repository.ErrDuplicate) {
				// Lost a race with this identity's own first vote.
				return nil, ErrAlreadyVoted
			}
			return nil, err
		}

	default:
		return nil, err
	}

	if err := s.cache.InvalidateSongLists(ctx); err != nil {
		log.Printf("cache: invalidate song lists: %v", err)
	}
	s.stats.IncrementCounter(StatRequest)

	return &model.VoteResponse{
		Success:   true,
		Changed:   changed,
		Upvotes:   up,
		Downvotes: down,
	}, nil
}

// ListSongs returns one page of the approved catalog. Cache-aside: check
// Redis first, fall back to the database, then populate the cache. The
// cached value carries no caller identity; the transport layer attaches
// the identity token per request.
func (s *VoteService) ListSongs(ctx context.Context, page, limit int) (*model.SongListResponse, error) {
	page, limit = clampPage(page, limit)

	if cached, err := s.cache.GetSongList(ctx, page, limit); err != nil {
		log.Printf("cache: song list get: %v", err)
	} else if cached != nil {
		var resp model.SongListResponse
		if err := json.Unmarshal(cached, &resp); err == nil {
			return &resp, nil
		}
	}

	items, total, err := s.songs.List(ctx, page, limit)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []model.ApprovedSong{}
	}

	resp := &model.SongListResponse{
		Items:      items,
		Pagination: buildPagination(page, limit, total),
	}
	if err := s.cache.SetSongList(ctx, page, limit, resp); err != nil {
		log.Printf("cache: song list set: %v", err)
	}
	return resp, nil
}
