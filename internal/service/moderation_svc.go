package service

import (
	"context"
	"crypto/subtle"
	"errors"
	"log"

	"github.com/jackc/pgx/v5"

	"github.com/meetox80/zstio-tv-sub000/internal/model"
	"github.com/meetox80/zstio-tv-sub000/internal/repository"
)

// Gate is the opaque moderator-permission check. How moderators are
// modelled (sessions, permission bits) is someone else's concern; this
// core only ever asks "may this caller moderate, and as whom".
type Gate interface {
	RequireModerator(token string) (identity string, allowed bool)
}

// TokenGate authorizes moderators by static bearer token.
type TokenGate struct {
	tokens map[string]string
}

func NewTokenGate(tokens map[string]string) *TokenGate {
	return &TokenGate{tokens: tokens}
}

func (g *TokenGate) RequireModerator(token string) (string, bool) {
	if token == "" {
		return "", false
	}
	// Compare against every configured token so timing reveals nothing
	// about near-misses.
	identity, allowed := "", false
	for candidate, name := range g.tokens {
		if subtle.ConstantTimeCompare([]byte(candidate), []byte(token)) == 1 {
			identity, allowed = name, true
		}
	}
	return identity, allowed
}

type ModerationService struct {
	approvals *repository.ApprovalRepo
	cache     *CacheService
}

func NewModerationService(approvals *repository.ApprovalRepo, cache *CacheService) *ModerationService {
	return &ModerationService{approvals: approvals, cache: cache}
}

// Approve promotes a proposal into the approved catalog, carrying its
// votes across. The permission check has already happened at the gate.
func (s *ModerationService) Approve(ctx context.Context, proposalID int64) (*model.ApprovedSong, error) {
	song, err := s.approvals.Approve(ctx, proposalID)
	if err != nil {
		switch {
		case errors.Is(err, pgx.ErrNoRows):
			return nil, ErrNotFound
		case errors.Is(err, repository.ErrDuplicate):
			return nil, ErrAlreadyApproved
		}
		return nil, err
	}

	if err := s.cache.InvalidateSongLists(ctx); err != nil {
		log.Printf("cache: invalidate song lists: %v", err)
	}
	return song, nil
}

// Reject removes an id from whichever table holds it, votes included, and
// reports which one that was.
func (s *ModerationService) Reject(ctx context.Context, id int64) (deletedFrom string, err error) {
	deletedFrom, err = s.approvals.Reject(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", ErrNotFound
		}
		return "", err
	}

	if err := s.cache.InvalidateSongLists(ctx); err != nil {
		log.Printf("cache: invalidate song lists: %v", err)
	}
	return deletedFrom, nil
}
