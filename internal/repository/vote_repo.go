package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/meetox80/zstio-tv-sub000/internal/model"
)

type VoteRepo struct {
	pool *pgxpool.Pool
}

func NewVoteRepo(pool *pgxpool.Pool) *VoteRepo {
	return &VoteRepo{pool: pool}
}

// Find returns the identity's vote on an approved song, or pgx.ErrNoRows.
func (r *VoteRepo) Find(ctx context.Context, songID int64, fp string) (*model.Vote, error) {
	var v model.Vote
	err := r.pool.QueryRow(ctx, `
		SELECT id, proposal_id, approved_song_id, fingerprint, is_upvote, created_at
		FROM votes
		WHERE approved_song_id = $1 AND fingerprint = $2`,
		songID, fp,
	).Scan(&v.ID, &v.ProposalID, &v.ApprovedSongID, &v.Fingerprint, &v.IsUpvote, &v.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// Insert records a first-time vote and bumps the matching counter in one
// transaction. A pure increment never underflows, so no prior read is
// needed; a race between two requests from the same identity trips the
// unique index and comes back as ErrDuplicate.
func (r *VoteRepo) Insert(ctx context.Context, songID int64, fp string, isUpvote bool) (up, down int, err error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return 0, 0, err
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		INSERT INTO votes (approved_song_id, fingerprint, is_upvote)
		VALUES ($1, $2, $3)`,
		songID, fp, isUpvote)
	if err != nil {
		if isUniqueViolation(err) {
			return 0, 0, ErrDuplicate
		}
		return 0, 0, err
	}

	column := "downvotes"
	if isUpvote {
		column = "upvotes"
	}
	err = tx.QueryRow(ctx, `
		UPDATE approved_songs SET `+column+` = `+column+` + 1
		WHERE id = $1
		RETURNING upvotes, downvotes`,
		songID).Scan(&up, &down)
	if err != nil {
		return 0, 0, err
	}

	return up, down, tx.Commit(ctx)
}

// Switch flips an existing vote's direction and moves one count between the
// song's counters. The counters are read under a row lock inside the same
// transaction that writes them, so interleaved switches cannot drive a
// counter below zero.
func (r *VoteRepo) Switch(ctx context.Context, voteID, songID int64, toUpvote bool) (up, down int, err error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return 0, 0, err
	}
	defer tx.Rollback(ctx)

	err = tx.QueryRow(ctx, `
		SELECT upvotes, downvotes FROM approved_songs
		WHERE id = $1
		FOR UPDATE`,
		songID).Scan(&up, &down)
	if err != nil {
		return 0, 0, err
	}

	tag, err := tx.Exec(ctx, `
		UPDATE votes SET is_upvote = $1
		WHERE id = $2 AND is_upvote <> $1`,
		toUpvote, voteID)
	if err != nil {
		return 0, 0, err
	}
	if tag.RowsAffected() == 0 {
		// Another request already flipped it; nothing left to adjust.
		return 0, 0, pgx.ErrNoRows
	}

	up, down = SwitchCounters(up, down, toUpvote)
	_, err = tx.Exec(ctx, `
		UPDATE approved_songs SET upvotes = $1, downvotes = $2
		WHERE id = $3`,
		up, down, songID)
	if err != nil {
		return 0, 0, err
	}

	return up, down, tx.Commit(ctx)
}

// SwitchCounters applies a direction switch to a song's counters: the old
// direction loses one (floored at zero) and the new direction gains one.
func SwitchCounters(up, down int, toUpvote bool) (int, int) {
	if toUpvote {
		up++
		if down > 0 {
			down--
		}
	} else {
		down++
		if up > 0 {
			up--
		}
	}
	return up, down
}
