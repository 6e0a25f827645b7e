package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/meetox80/zstio-tv-sub000/internal/model"
)

// ErrDuplicate is returned when an insert collides with a uniqueness
// constraint (same track proposed twice, same identity voting twice).
var ErrDuplicate = errors.New("repository: duplicate row")

// isUniqueViolation reports whether err is a Postgres unique_violation.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

type ProposalRepo struct {
	pool *pgxpool.Pool
}

func NewProposalRepo(pool *pgxpool.Pool) *ProposalRepo {
	return &ProposalRepo{pool: pool}
}

// Create inserts a proposal together with the proposer's implicit upvote.
// Both rows commit atomically so an approved song seeded from this proposal
// never observes the proposal without its first vote.
func (r *ProposalRepo) Create(ctx context.Context, track model.TrackInput, fp string) (*model.Proposal, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	p := model.Proposal{
		TrackID:     track.TrackID,
		Title:       track.Title,
		Artist:      track.Artist,
		Album:       track.Album,
		AlbumArt:    track.AlbumArt,
		DurationMs:  track.DurationMs,
		URI:         track.URI,
		Fingerprint: fp,
	}

	err = tx.QueryRow(ctx, `
		INSERT INTO proposals (track_id, title, artist, album, album_art, duration_ms, uri, fingerprint)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at`,
		p.TrackID, p.Title, p.Artist, p.Album, p.AlbumArt, p.DurationMs, p.URI, p.Fingerprint,
	).Scan(&p.ID, &p.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicate
		}
		return nil, err
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO votes (proposal_id, fingerprint, is_upvote)
		VALUES ($1, $2, true)`,
		p.ID, fp)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return &p, nil
}

// FindByTrackID returns the pending proposal for a track, or pgx.ErrNoRows.
func (r *ProposalRepo) FindByTrackID(ctx context.Context, trackID string) (*model.Proposal, error) {
	return r.findOne(ctx, `WHERE track_id = $1`, trackID)
}

// FindByID returns a proposal by primary key, or pgx.ErrNoRows.
func (r *ProposalRepo) FindByID(ctx context.Context, id int64) (*model.Proposal, error) {
	return r.findOne(ctx, `WHERE id = $1`, id)
}

func (r *ProposalRepo) findOne(ctx context.Context, where string, arg any) (*model.Proposal, error) {
	var p model.Proposal
	err := r.pool.QueryRow(ctx, `
		SELECT id, track_id, title, artist, album, album_art, duration_ms, uri, fingerprint, created_at
		FROM proposals `+where,
		arg,
	).Scan(&p.ID, &p.TrackID, &p.Title, &p.Artist, &p.Album, &p.AlbumArt, &p.DurationMs, &p.URI, &p.Fingerprint, &p.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// List returns one page of pending proposals, newest first, with the total
// pending count.
func (r *ProposalRepo) List(ctx context.Context, page, limit int) ([]model.Proposal, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM proposals`).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.pool.Query(ctx, `
		SELECT id, track_id, title, artist, album, album_art, duration_ms, uri, fingerprint, created_at
		FROM proposals
		ORDER BY created_at DESC, id DESC
		LIMIT $1 OFFSET $2`,
		limit, (page-1)*limit)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var items []model.Proposal
	for rows.Next() {
		var p model.Proposal
		err := rows.Scan(&p.ID, &p.TrackID, &p.Title, &p.Artist, &p.Album, &p.AlbumArt,
			&p.DurationMs, &p.URI, &p.Fingerprint, &p.CreatedAt)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, p)
	}
	return items, total, rows.Err()
}

// Delete removes a proposal outright; its votes cascade with it. Returns
// pgx.ErrNoRows when the id does not exist.
func (r *ProposalRepo) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM proposals WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}
