package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/meetox80/zstio-tv-sub000/internal/model"
)

var errMigrationMismatch = errors.New("repository: migrated vote count does not match tallied votes")

// Tables a reject call can resolve against, reported back to the caller.
const (
	DeletedFromApproved  = "approved"
	DeletedFromProposals = "proposals"
)

// ApprovalRepo owns the proposal -> approved-catalog transition.
type ApprovalRepo struct {
	pool *pgxpool.Pool
}

func NewApprovalRepo(pool *pgxpool.Pool) *ApprovalRepo {
	return &ApprovalRepo{pool: pool}
}

// Approve promotes a proposal into the approved catalog in one transaction:
// the proposal row is locked, its accumulated votes are tallied into the
// new song's counters, every vote row is re-pointed at the song, and the
// proposal is deleted. No intermediate state is observable; a failed step
// rolls the whole promotion back.
//
// Returns pgx.ErrNoRows when the proposal has vanished and ErrDuplicate
// when the track already entered the catalog through another path.
func (r *ApprovalRepo) Approve(ctx context.Context, proposalID int64) (*model.ApprovedSong, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	var p model.Proposal
	err = tx.QueryRow(ctx, `
		SELECT id, track_id, title, artist, album, album_art, duration_ms, uri
		FROM proposals
		WHERE id = $1
		FOR UPDATE`,
		proposalID,
	).Scan(&p.ID, &p.TrackID, &p.Title, &p.Artist, &p.Album, &p.AlbumArt, &p.DurationMs, &p.URI)
	if err != nil {
		return nil, err
	}

	// Snapshot of the proposal's votes at the moment of approval. The
	// proposal row lock keeps new proposal-side votes out until commit.
	var up, down int
	err = tx.QueryRow(ctx, `
		SELECT COUNT(*) FILTER (WHERE is_upvote), COUNT(*) FILTER (WHERE NOT is_upvote)
		FROM votes
		WHERE proposal_id = $1`,
		p.ID).Scan(&up, &down)
	if err != nil {
		return nil, err
	}

	s := model.ApprovedSong{
		TrackID:    p.TrackID,
		Title:      p.Title,
		Artist:     p.Artist,
		Album:      p.Album,
		AlbumArt:   p.AlbumArt,
		DurationMs: p.DurationMs,
		URI:        p.URI,
		Upvotes:    up,
		Downvotes:  down,
	}
	err = tx.QueryRow(ctx, `
		INSERT INTO approved_songs (track_id, title, artist, album, album_art, duration_ms, uri, upvotes, downvotes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at`,
		s.TrackID, s.Title, s.Artist, s.Album, s.AlbumArt, s.DurationMs, s.URI, s.Upvotes, s.Downvotes,
	).Scan(&s.ID, &s.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicate
		}
		return nil, err
	}

	// Vote migration: flip each row's target in place. An UPDATE can
	// neither drop nor duplicate rows, so the migrated set is exactly the
	// tallied one.
	tag, err := tx.Exec(ctx, `
		UPDATE votes SET approved_song_id = $1, proposal_id = NULL
		WHERE proposal_id = $2`,
		s.ID, p.ID)
	if err != nil {
		return nil, err
	}
	if migrated := int(tag.RowsAffected()); migrated != up+down {
		// Cannot happen under the proposal lock; refuse to commit a
		// mismatched counter seed.
		return nil, errMigrationMismatch
	}

	_, err = tx.Exec(ctx, `DELETE FROM proposals WHERE id = $1`, p.ID)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return &s, nil
}

// Reject deletes an id that may live in either table. The approved catalog
// is tried first; a miss there is not an error, just the signal to try the
// proposals table. Votes cascade-delete with their parent row either way.
func (r *ApprovalRepo) Reject(ctx context.Context, id int64) (string, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM approved_songs WHERE id = $1`, id)
	if err != nil {
		return "", err
	}
	if tag.RowsAffected() > 0 {
		return DeletedFromApproved, nil
	}

	tag, err = r.pool.Exec(ctx, `DELETE FROM proposals WHERE id = $1`, id)
	if err != nil {
		return "", err
	}
	if tag.RowsAffected() > 0 {
		return DeletedFromProposals, nil
	}

	return "", pgx.ErrNoRows
}
