package models

import (
	"encoding/json"
	"time"
)

// CommentTag classifies a comment within a discussion.
type CommentTag string

const (
	TagQuestion     CommentTag = "Question"
	TagHint         CommentTag = "Hint"
	TagExpertAnswer CommentTag = "Expert Answer"
)

// ParseCommentTag validates a tag, defaulting an empty value to Question.
func ParseCommentTag(s string) (CommentTag, bool) {
	switch CommentTag(s) {
	case "":
		return TagQuestion, true
	case TagQuestion, TagHint, TagExpertAnswer:
		return CommentTag(s), true
	default:
		return "", false
	}
}

// Comment is a node in a post's discussion tree.
type Comment struct {
	ID          uint       `gorm:"primaryKey"`
	PostID      uint       `gorm:"not null;index"`
	ParentID    *uint      `gorm:"index"`
	Parent      *Comment   `gorm:"foreignKey:ParentID;constraint:OnDelete:CASCADE"`
	UserID      *uint      `gorm:"index"`
	User        *User      `gorm:"foreignKey:UserID;constraint:OnDelete:SET NULL"`
	Text        string     `gorm:"type:text;not null"`
	Tag         CommentTag `gorm:"size:20;not null;default:Question"`
	Upvotes     int        `gorm:"not null;default:0"`
	Downvotes   int        `gorm:"not null;default:0"`
	IsAnonymous bool       `gorm:"not null;default:false"`
	CreatedAt   time.Time  `gorm:"index"`
	UpdatedAt   time.Time

	// Replies holds the ids of direct children. It is derived, never stored.
	Replies []uint `gorm:"-"`
}

// Points is the net score of the comment.
func (c *Comment) Points() int {
	return c.Upvotes - c.Downvotes
}

// IsAuthor reports whether userID wrote the comment.
func (c *Comment) IsAuthor(userID uint) bool {
	return c.UserID != nil && *c.UserID == userID
}

func (c Comment) MarshalJSON() ([]byte, error) {
	replies := c.Replies
	if replies == nil {
		replies = []uint{}
	}
	return json.Marshal(struct {
		ID          uint       `json:"id"`
		Post        uint       `json:"post"`
		Parent      *uint      `json:"parent"`
		Text        string     `json:"text"`
		Tag         CommentTag `json:"tag"`
		Author      *Author    `json:"author"`
		Upvotes     int        `json:"upvotes"`
		Downvotes   int        `json:"downvotes"`
		Points      int        `json:"points"`
		IsAnonymous bool       `json:"is_anonymous"`
		Replies     []uint     `json:"replies"`
		CreatedAt   time.Time  `json:"created_at"`
	}{
		ID:          c.ID,
		Post:        c.PostID,
		Parent:      c.ParentID,
		Text:        c.Text,
		Tag:         c.Tag,
		Author:      AuthorOf(c.User, c.IsAnonymous),
		Upvotes:     c.Upvotes,
		Downvotes:   c.Downvotes,
		Points:      c.Points(),
		IsAnonymous: c.IsAnonymous,
		Replies:     replies,
		CreatedAt:   c.CreatedAt,
	})
}

// VoteResult is returned by the upvote and downvote operations.
type VoteResult struct {
	ID        uint `json:"id"`
	Upvotes   int  `json:"upvotes"`
	Downvotes int  `json:"downvotes"`
	Points    int  `json:"points"`
}

// VoteTarget names the kind of entity being voted on.
type VoteTarget string

const (
	VotePost    VoteTarget = "post"
	VoteComment VoteTarget = "comment"
)

// VoteDirection is either up or down.
type VoteDirection string

const (
	VoteUp   VoteDirection = "up"
	VoteDown VoteDirection = "down"
)

// Column returns the counter column touched by the direction.
func (d VoteDirection) Column() string {
	if d == VoteDown {
		return "downvotes"
	}
	return "upvotes"
}
