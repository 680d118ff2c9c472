package models

import (
	"time"
)

// Comment is a stored comment row, with author data embedded from users
type Comment struct {
	ID              string    `json:"id" db:"id"`
	ProfileID       string    `json:"profile_id" db:"profile_id"`
	AuthorSteamID64 string    `json:"author_steam_id_64" db:"author_steam_id_64"`
	AuthorName      string    `json:"author_name,omitempty" db:"-"`
	AuthorAvatarURL string    `json:"author_avatar_url,omitempty" db:"-"`
	Content         string    `json:"content" db:"content"`
	ParentID        *string   `json:"parent_id" db:"parent_id"`
	CreatedAt       time.Time `json:"created_at" db:"created_at"`
}

// VoteKind is the kind of a comment vote
type VoteKind string

const (
	VoteLike    VoteKind = "like"
	VoteDislike VoteKind = "dislike"
)

// ValidVoteKinds defines allowed comment vote kinds
var ValidVoteKinds = map[VoteKind]bool{
	VoteLike:    true,
	VoteDislike: true,
}

// CommentVote is the single vote of one identity on one comment
type CommentVote struct {
	CommentID      string   `json:"comment_id" db:"comment_id"`
	VoterSteamID64 string   `json:"user_id" db:"voter_steam_id_64"`
	Kind           VoteKind `json:"vote_type" db:"vote_type"`
}

// CommentAuthor is the author block of a threaded comment
type CommentAuthor struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Avatar string `json:"avatar,omitempty"`
}

// CommentNode is one comment in an assembled thread
type CommentNode struct {
	ID         string         `json:"id"`
	ProfileID  string         `json:"profile_id"`
	Author     CommentAuthor  `json:"author"`
	Content    string         `json:"content"`
	CreatedAt  time.Time      `json:"created_at"`
	Likes      int            `json:"likes"`
	Dislikes   int            `json:"dislikes"`
	ViewerVote *VoteKind      `json:"user_vote,omitempty"`
	Replies    []*CommentNode `json:"replies"`
}

// VoteOutcome is the aggregate state of a comment after a vote
type VoteOutcome struct {
	CommentID  string    `json:"comment_id"`
	Likes      int       `json:"likes"`
	Dislikes   int       `json:"dislikes"`
	ViewerVote *VoteKind `json:"user_vote"`
}

// MaxCommentLength is the maximum allowed characters in a comment body
const MaxCommentLength = 2000
