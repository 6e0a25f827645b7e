package model

import "time"

// Proposal is a pending song suggestion awaiting moderation.
type Proposal struct {
	ID          int64     `json:"id"`
	TrackID     string    `json:"trackId"`
	Title       string    `json:"title"`
	Artist      string    `json:"artist"`
	Album       string    `json:"album,omitempty"`
	AlbumArt    string    `json:"albumArt,omitempty"`
	DurationMs  int       `json:"durationMs"`
	URI         string    `json:"uri,omitempty"`
	Fingerprint string    `json:"-"`
	CreatedAt   time.Time `json:"createdAt"`
}

// TrackInput is the track metadata supplied with a proposal.
type TrackInput struct {
	TrackID    string `json:"trackId"`
	Title      string `json:"title"`
	Artist     string `json:"artist"`
	Album      string `json:"album,omitempty"`
	AlbumArt   string `json:"albumArt,omitempty"`
	DurationMs int    `json:"durationMs"`
	URI        string `json:"uri,omitempty"`
}

// ProposeRequest is the API request body for submitting a proposal.
type ProposeRequest struct {
	Track        TrackInput `json:"track"`
	CaptchaToken string     `json:"captchaToken,omitempty"`
	ClientToken  string     `json:"clientToken,omitempty"`
}

// ProposeResponse is returned after a successful submission.
type ProposeResponse struct {
	Success       bool      `json:"success"`
	Proposal      *Proposal `json:"proposal"`
	IdentityToken string    `json:"identityToken"`
}

// Pagination describes one page of a list response.
type Pagination struct {
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	Total      int `json:"total"`
	TotalPages int `json:"totalPages"`
}

// ProposalListResponse is the response for pending-proposal listings.
type ProposalListResponse struct {
	Items         []Proposal `json:"items"`
	Pagination    Pagination `json:"pagination"`
	IdentityToken string     `json:"identityToken"`
}
