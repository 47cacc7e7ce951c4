package models

import (
	"encoding/json"
	"strings"
	"time"
)

// Post is a mystery object submitted for identification.
type Post struct {
	ID          uint      `gorm:"primaryKey"`
	Title       string    `gorm:"size:200;not null"`
	Description string    `gorm:"type:text;not null"`
	Image       string    `gorm:"size:512"`
	ImageURL    string    `gorm:"size:1024"`
	Video       string    `gorm:"size:512"`
	VideoURL    string    `gorm:"size:1024"`
	Audio       string    `gorm:"size:512"`
	AudioURL    string    `gorm:"size:1024"`
	Tags        []string  `gorm:"type:text;serializer:json"`
	UserID      *uint     `gorm:"index"`
	User        *User     `gorm:"foreignKey:UserID;constraint:OnDelete:SET NULL"`
	Upvotes     int       `gorm:"not null;default:0"`
	Downvotes   int       `gorm:"not null;default:0"`
	// EurekaCommentID points at the comment that resolved the mystery.
	EurekaCommentID *uint     `gorm:"column:eureka_comment_id"`
	IsAnonymous     bool      `gorm:"not null;default:false"`
	IsDeleted       bool      `gorm:"not null;default:false;index"`
	Comments        []Comment `gorm:"foreignKey:PostID;constraint:OnDelete:CASCADE"`
	CreatedAt       time.Time `gorm:"index"`
	UpdatedAt       time.Time
}

// Points is the net score of the post.
func (p *Post) Points() int {
	return p.Upvotes - p.Downvotes
}

// IsAuthor reports whether userID authored the post.
func (p *Post) IsAuthor(userID uint) bool {
	return p.UserID != nil && *p.UserID == userID
}

// postView is the wire shape of a Post.
type postView struct {
	ID            uint      `json:"id"`
	Title         string    `json:"title"`
	Description   string    `json:"description"`
	Image         string    `json:"image"`
	ImageURL      string    `json:"image_url"`
	Video         string    `json:"video"`
	VideoURL      string    `json:"video_url"`
	Audio         string    `json:"audio"`
	AudioURL      string    `json:"audio_url"`
	Tags          []string  `json:"tags"`
	Author        *Author   `json:"author"`
	Upvotes       int       `json:"upvotes"`
	Downvotes     int       `json:"downvotes"`
	Points        int       `json:"points"`
	EurekaComment *uint     `json:"eureka_comment"`
	IsAnonymous   bool      `json:"is_anonymous"`
	CreatedAt     time.Time `json:"created_at"`
}

func viewOfPost(p *Post) postView {
	tags := p.Tags
	if tags == nil {
		tags = []string{}
	}
	return postView{
		ID:            p.ID,
		Title:         p.Title,
		Description:   p.Description,
		Image:         p.Image,
		ImageURL:      p.ImageURL,
		Video:         p.Video,
		VideoURL:      p.VideoURL,
		Audio:         p.Audio,
		AudioURL:      p.AudioURL,
		Tags:          tags,
		Author:        AuthorOf(p.User, p.IsAnonymous),
		Upvotes:       p.Upvotes,
		Downvotes:     p.Downvotes,
		Points:        p.Points(),
		EurekaComment: p.EurekaCommentID,
		IsAnonymous:   p.IsAnonymous,
		CreatedAt:     p.CreatedAt,
	}
}

// MarshalJSON emits the post without its comments. Points are derived and the
// author is hidden for anonymous posts.
func (p Post) MarshalJSON() ([]byte, error) {
	return json.Marshal(viewOfPost(&p))
}

// PostDetail is a post together with all of its comments in creation order.
type PostDetail struct {
	Post     *Post
	Comments []Comment
}

func (d PostDetail) MarshalJSON() ([]byte, error) {
	comments := d.Comments
	if comments == nil {
		comments = []Comment{}
	}
	return json.Marshal(struct {
		postView
		Comments []Comment `json:"comments"`
	}{viewOfPost(d.Post), comments})
}

// NormalizeTags trims every tag, drops empty ones and removes duplicates while
// keeping first-seen order.
func NormalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]struct{}, len(tags))
	for _, t := range tags {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}
