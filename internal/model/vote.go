package model

import "time"

// Vote directions accepted on the wire.
const (
	DirectionUp   = "up"
	DirectionDown = "down"
)

// Vote is a single identity's vote on a proposal or an approved song.
// Exactly one of ProposalID / ApprovedSongID is set.
type Vote struct {
	ID             int64     `json:"id"`
	ProposalID     *int64    `json:"proposalId,omitempty"`
	ApprovedSongID *int64    `json:"approvedSongId,omitempty"`
	Fingerprint    string    `json:"-"`
	IsUpvote       bool      `json:"isUpvote"`
	CreatedAt      time.Time `json:"createdAt"`
}

// VoteRequest is the API request body for casting a vote.
type VoteRequest struct {
	Direction   string `json:"direction"`
	ClientToken string `json:"clientToken,omitempty"`
}

// VoteResponse is returned after a vote is recorded.
type VoteResponse struct {
	Success bool `json:"success"`
	// Changed is true when an existing vote switched direction rather
	// than a new vote being inserted.
	Changed       bool   `json:"changed"`
	Upvotes       int    `json:"upvotes"`
	Downvotes     int    `json:"downvotes"`
	IdentityToken string `json:"identityToken"`
}
