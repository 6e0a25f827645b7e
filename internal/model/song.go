package model

import "time"

// ApprovedSong is a track promoted into the approved catalog by a
// moderator. Upvotes and Downvotes are denormalized counters kept in sync
// with the votes table by the casting and approval transactions.
type ApprovedSong struct {
	ID         int64     `json:"id"`
	TrackID    string    `json:"trackId"`
	Title      string    `json:"title"`
	Artist     string    `json:"artist"`
	Album      string    `json:"album,omitempty"`
	AlbumArt   string    `json:"albumArt,omitempty"`
	DurationMs int       `json:"durationMs"`
	URI        string    `json:"uri,omitempty"`
	Upvotes    int       `json:"upvotes"`
	Downvotes  int       `json:"downvotes"`
	CreatedAt  time.Time `json:"createdAt"`
}

// SongListResponse is the response for approved-catalog listings.
type SongListResponse struct {
	Items         []ApprovedSong `json:"items"`
	Pagination    Pagination     `json:"pagination"`
	IdentityToken string         `json:"identityToken,omitempty"`
}

// ApproveResponse is returned after a proposal is promoted.
type ApproveResponse struct {
	Success bool          `json:"success"`
	Song    *ApprovedSong `json:"approvedSong"`
}

// RejectResponse reports which table the rejected id was deleted from.
type RejectResponse struct {
	Success     bool   `json:"success"`
	DeletedFrom string `json:"deletedFrom"` // "approved" or "proposals"
}
