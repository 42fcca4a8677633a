package domain

import "time"

// CurrentTokenID is the primary key of the single session token row.
const CurrentTokenID = "current"

// SessionToken is the persisted bearer credential of the local profile.
// There is at most one row; logging in replaces it and logging out or an
// authentication failure deletes it.
//
// Fields:
//   - ID: always CurrentTokenID.
//   - Token: opaque bearer token issued by the API.
//   - CreatedAt / UpdatedAt: timestamps managed by GORM.
type SessionToken struct {
	ID        string    `gorm:"type:varchar(16);primaryKey"`
	Token     string    `gorm:"type:text;not null"`
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

// TableName returns the database table name for SessionToken.
func (SessionToken) TableName() string { return "session_tokens" }

// VoteRecord keeps the settled outcome of a vote on one emotion of one log
// entry so the view can be rebuilt after a restart. Pending votes are never
// stored.
//
// Fields:
//   - EntryKey: client-side entry identifier (see viewmodel.EntryKeyOf).
//   - Label: the voted emotion label.
//   - FeedbackID: server feedback record the vote was sent against.
//   - State: "accepted" or "failed".
//   - Vote: the thumbs-up/down value that was sent.
type VoteRecord struct {
	EntryKey   string    `json:"entry_key"   gorm:"type:varchar(128);primaryKey"`
	Label      string    `json:"label"       gorm:"type:varchar(32);primaryKey"`
	FeedbackID int64     `json:"feedback_id" gorm:"not null;index"`
	State      string    `json:"state"       gorm:"type:varchar(16);not null;check:state IN ('accepted','failed')"`
	Vote       bool      `json:"vote"        gorm:"not null"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// TableName returns the database table name for VoteRecord.
func (VoteRecord) TableName() string { return "vote_records" }

// EntryBinding remembers which feedback record a log entry was submitted
// as, so voting stays available for entries detected in earlier runs.
type EntryBinding struct {
	EntryKey   string    `json:"entry_key"   gorm:"type:varchar(128);primaryKey"`
	FeedbackID int64     `json:"feedback_id" gorm:"not null"`
	CreatedAt  time.Time `json:"created_at"`
}

// TableName returns the database table name for EntryBinding.
func (EntryBinding) TableName() string { return "entry_bindings" }

// VoteStats aggregates the vote outcomes stored for this profile. Accurate
// and Inaccurate split the accepted votes by their thumbs-up/down value.
type VoteStats struct {
	Total      int64      `json:"total"`
	Accepted   int64      `json:"accepted"`
	Failed     int64      `json:"failed"`
	Accurate   int64      `json:"accurate"`
	Inaccurate int64      `json:"inaccurate"`
	LastVoteAt *time.Time `json:"last_vote_at,omitempty"`
}
