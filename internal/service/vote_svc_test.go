package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/meetox80/zstio-tv-sub000/internal/model"
	"github.com/meetox80/zstio-tv-sub000/internal/ratelimit"
	"github.com/meetox80/zstio-tv-sub000/internal/repository"
)

// fakeVoteLedger holds at most one vote, enough to drive the casting flow.
type fakeVoteLedger struct {
	existing  *model.Vote
	songID    int64
	up, down  int
	inserts   int
	switches  int
	insertErr error
	switchErr error
}

func (f *fakeVoteLedger) Find(_ context.Context, songID int64, fp string) (*model.Vote, error) {
	if f.existing != nil && f.songID == songID && f.existing.Fingerprint == fp {
		return f.existing, nil
	}
	return nil, pgx.ErrNoRows
}

func (f *fakeVoteLedger) Insert(_ context.Context, songID int64, fp string, isUpvote bool) (int, int, error) {
	f.inserts++
	if f.insertErr != nil {
		return 0, 0, f.insertErr
	}
	if isUpvote {
		f.up++
	} else {
		f.down++
	}
	f.existing = &model.Vote{ID: 1, Fingerprint: fp, IsUpvote: isUpvote}
	f.songID = songID
	return f.up, f.down, nil
}

func (f *fakeVoteLedger) Switch(_ context.Context, _, _ int64, toUpvote bool) (int, int, error) {
	f.switches++
	if f.switchErr != nil {
		return 0, 0, f.switchErr
	}
	f.up, f.down = repository.SwitchCounters(f.up, f.down, toUpvote)
	f.existing.IsUpvote = toUpvote
	return f.up, f.down, nil
}

type fakeSongCatalog struct {
	songs map[int64]*model.ApprovedSong
}

func (f *fakeSongCatalog) FindByID(_ context.Context, id int64) (*model.ApprovedSong, error) {
	if s, ok := f.songs[id]; ok {
		return s, nil
	}
	return nil, pgx.ErrNoRows
}

func (f *fakeSongCatalog) FindByTrackID(_ context.Context, trackID string) (*model.ApprovedSong, error) {
	for _, s := range f.songs {
		if s.TrackID == trackID {
			return s, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (f *fakeSongCatalog) List(context.Context, int, int) ([]model.ApprovedSong, int, error) {
	return nil, 0, nil
}

func newVoteFixture(ledger *fakeVoteLedger, catalog *fakeSongCatalog) *VoteService {
	return NewVoteService(ledger, catalog, ratelimit.New(nil), NewStatsService(nil), NewCacheService(""), time.Minute)
}

func oneSongCatalog(id int64) *fakeSongCatalog {
	return &fakeSongCatalog{songs: map[int64]*model.ApprovedSong{
		id: {ID: id, TrackID: "4uLU6hMCjMI75M1A2tKUQC", Title: "Song"},
	}}
}

func TestCast_UnknownSongRejected(t *testing.T) {
	ledger := &fakeVoteLedger{}
	svc := newVoteFixture(ledger, &fakeSongCatalog{songs: map[int64]*model.ApprovedSong{}})

	_, err := svc.Cast(context.Background(), 42, "aaaaaaaaaaaaaaaa", true)
	if !errors.Is(err, ErrNotApproved) {
		t.Fatalf("Cast on unknown song = %v, want ErrNotApproved", err)
	}
	if ledger.inserts != 0 || ledger.switches != 0 {
		t.Error("no vote write should happen for an unknown song")
	}
}

func TestCast_SameDirectionRejected(t *testing.T) {
	ledger := &fakeVoteLedger{
		existing: &model.Vote{ID: 1, Fingerprint: "aaaaaaaaaaaaaaaa", IsUpvote: true},
		songID:   1,
		up:       5,
		down:     2,
	}
	svc := newVoteFixture(ledger, oneSongCatalog(1))

	_, err := svc.Cast(context.Background(), 1, "aaaaaaaaaaaaaaaa", true)
	if !errors.Is(err, ErrAlreadyVoted) {
		t.Fatalf("repeat same-direction vote = %v, want ErrAlreadyVoted", err)
	}
	if ledger.inserts != 0 || ledger.switches != 0 {
		t.Error("repeat vote must not touch the ledger")
	}
	if ledger.up != 5 || ledger.down != 2 {
		t.Errorf("counters = (%d, %d), want unchanged (5, 2)", ledger.up, ledger.down)
	}
}

func TestCast_OppositeDirectionSwitchesDespiteCooldown(t *testing.T) {
	ledger := &fakeVoteLedger{}
	svc := newVoteFixture(ledger, oneSongCatalog(1))

	// First vote burns the identity's cooldown.
	if _, err := svc.Cast(context.Background(), 1, "aaaaaaaaaaaaaaaa", true); err != nil {
		t.Fatalf("first vote: %v", err)
	}

	// Immediately changing the opinion must still be allowed.
	resp, err := svc.Cast(context.Background(), 1, "aaaaaaaaaaaaaaaa", false)
	if err != nil {
		t.Fatalf("switch inside cooldown window: %v", err)
	}
	if !resp.Changed {
		t.Error("switch should report Changed")
	}
	if ledger.switches != 1 {
		t.Errorf("switches = %d, want 1", ledger.switches)
	}
	if resp.Upvotes != 0 || resp.Downvotes != 1 {
		t.Errorf("counters = (%d, %d), want (0, 1)", resp.Upvotes, resp.Downvotes)
	}
}

func TestCast_FirstVoteCooldownEnforced(t *testing.T) {
	ledger := &fakeVoteLedger{}
	catalog := &fakeSongCatalog{songs: map[int64]*model.ApprovedSong{
		1: {ID: 1, TrackID: "track1"},
		2: {ID: 2, TrackID: "track2"},
	}}
	svc := newVoteFixture(ledger, catalog)

	if _, err := svc.Cast(context.Background(), 1, "aaaaaaaaaaaaaaaa", true); err != nil {
		t.Fatalf("first vote: %v", err)
	}

	// A first-time vote on another song inside the window is denied before
	// the ledger is touched.
	_, err := svc.Cast(context.Background(), 2, "aaaaaaaaaaaaaaaa", true)
	var rle *RateLimitedError
	if !errors.As(err, &rle) {
		t.Fatalf("second first-time vote = %v, want RateLimitedError", err)
	}
	if rle.RetryAfter < 1 {
		t.Errorf("RetryAfter = %d, want >= 1", rle.RetryAfter)
	}
	if ledger.inserts != 1 {
		t.Errorf("inserts = %d, want 1", ledger.inserts)
	}
}

func TestCast_InsertRaceMapsToAlreadyVoted(t *testing.T) {
	ledger := &fakeVoteLedger{insertErr: repository.ErrDuplicate}
	svc := newVoteFixture(ledger, oneSongCatalog(1))

	_, err := svc.Cast(context.Background(), 1, "aaaaaaaaaaaaaaaa", true)
	if !errors.Is(err, ErrAlreadyVoted) {
		t.Fatalf("duplicate insert = %v, want ErrAlreadyVoted", err)
	}
}

func TestCast_SwitchRaceMapsToAlreadyVoted(t *testing.T) {
	ledger := &fakeVoteLedger{
		existing:  &model.Vote{ID: 1, Fingerprint: "aaaaaaaaaaaaaaaa", IsUpvote: true},
		songID:    1,
		switchErr: pgx.ErrNoRows,
	}
	svc := newVoteFixture(ledger, oneSongCatalog(1))

	_, err := svc.Cast(context.Background(), 1, "aaaaaaaaaaaaaaaa", false)
	if !errors.Is(err, ErrAlreadyVoted) {
		t.Fatalf("lost switch race = %v, want ErrAlreadyVoted", err)
	}
}
