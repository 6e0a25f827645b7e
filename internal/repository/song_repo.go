package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/meetox80/zstio-tv-sub000/internal/model"
)

type SongRepo struct {
	pool *pgxpool.Pool
}

func NewSongRepo(pool *pgxpool.Pool) *SongRepo {
	return &SongRepo{pool: pool}
}

const songColumns = `id, track_id, title, artist, album, album_art, duration_ms, uri, upvotes, downvotes, created_at`

func scanSong(row pgx.Row) (*model.ApprovedSong, error) {
	var s model.ApprovedSong
	err := row.Scan(&s.ID, &s.TrackID, &s.Title, &s.Artist, &s.Album, &s.AlbumArt,
		&s.DurationMs, &s.URI, &s.Upvotes, &s.Downvotes, &s.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// FindByID returns an approved song by primary key, or pgx.ErrNoRows.
func (r *SongRepo) FindByID(ctx context.Context, id int64) (*model.ApprovedSong, error) {
	return scanSong(r.pool.QueryRow(ctx,
		`SELECT `+songColumns+` FROM approved_songs WHERE id = $1`, id))
}

// FindByTrackID returns the approved song for a track, or pgx.ErrNoRows.
func (r *SongRepo) FindByTrackID(ctx context.Context, trackID string) (*model.ApprovedSong, error) {
	return scanSong(r.pool.QueryRow(ctx,
		`SELECT `+songColumns+` FROM approved_songs WHERE track_id = $1`, trackID))
}

// List returns one page of the approved catalog ordered by net vote score,
// with the total catalog size.
func (r *SongRepo) List(ctx context.Context, page, limit int) ([]model.ApprovedSong, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM approved_songs`).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.pool.Query(ctx, `
		SELECT `+songColumns+`
		FROM approved_songs
		ORDER BY (upvotes - downvotes) DESC, created_at, id
		LIMIT $1 OFFSET $2`,
		limit, (page-1)*limit)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var items []model.ApprovedSong
	for rows.Next() {
		s, err := scanSong(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, *s)
	}
	return items, total, rows.Err()
}

// Delete removes an approved song; its votes cascade-delete with it.
// Returns pgx.ErrNoRows when the id does not exist.
func (r *SongRepo) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM approved_songs WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}
