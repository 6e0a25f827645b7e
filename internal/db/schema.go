package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Migrate creates all tables and indexes. Safe to call on every startup -
// the DDL uses IF NOT EXISTS throughout.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	if _, err := pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

const schema = `
-- Pending proposals. At most one per track; tracks already in the approved
-- catalog are rejected before insert by the submission flow.
CREATE TABLE IF NOT EXISTS proposals (
    id           BIGSERIAL PRIMARY KEY,
    track_id     TEXT NOT NULL UNIQUE,
    title        TEXT NOT NULL,
    artist       TEXT NOT NULL,
    album        TEXT NOT NULL DEFAULT '',
    album_art    TEXT NOT NULL DEFAULT '',
    duration_ms  INTEGER NOT NULL DEFAULT 0,
    uri          TEXT NOT NULL DEFAULT '',
    fingerprint  TEXT NOT NULL,
    created_at   TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

-- Approved catalog. upvotes/downvotes are denormalized aggregates over the
-- votes table; they are written only inside vote/approval transactions.
CREATE TABLE IF NOT EXISTS approved_songs (
    id           BIGSERIAL PRIMARY KEY,
    track_id     TEXT NOT NULL UNIQUE,
    title        TEXT NOT NULL,
    artist       TEXT NOT NULL,
    album        TEXT NOT NULL DEFAULT '',
    album_art    TEXT NOT NULL DEFAULT '',
    duration_ms  INTEGER NOT NULL DEFAULT 0,
    uri          TEXT NOT NULL DEFAULT '',
    upvotes      INTEGER NOT NULL DEFAULT 0 CHECK (upvotes >= 0),
    downvotes    INTEGER NOT NULL DEFAULT 0 CHECK (downvotes >= 0),
    created_at   TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

-- Vote ledger. A vote targets exactly one of a proposal or an approved
-- song; approval migrates rows from the former to the latter in place.
CREATE TABLE IF NOT EXISTS votes (
    id               BIGSERIAL PRIMARY KEY,
    proposal_id      BIGINT REFERENCES proposals(id) ON DELETE CASCADE,
    approved_song_id BIGINT REFERENCES approved_songs(id) ON DELETE CASCADE,
    fingerprint      TEXT NOT NULL,
    is_upvote        BOOLEAN NOT NULL,
    created_at       TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    CHECK ((proposal_id IS NULL) <> (approved_song_id IS NULL))
);

-- One vote per identity per target.
CREATE UNIQUE INDEX IF NOT EXISTS votes_song_fingerprint_idx
    ON votes (approved_song_id, fingerprint) WHERE approved_song_id IS NOT NULL;
CREATE UNIQUE INDEX IF NOT EXISTS votes_proposal_fingerprint_idx
    ON votes (proposal_id, fingerprint) WHERE proposal_id IS NOT NULL;

CREATE INDEX IF NOT EXISTS proposals_created_at_idx ON proposals (created_at);
CREATE INDEX IF NOT EXISTS approved_songs_score_idx ON approved_songs ((upvotes - downvotes) DESC, created_at);
`
