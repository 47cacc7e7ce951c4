// Package models contains data structures for the application's domain models.
package models

import (
	"time"
)

// User is an account that can author posts and comments.
type User struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Username  string    `gorm:"uniqueIndex;size:30;not null" json:"username"`
	Email     string    `gorm:"uniqueIndex;not null" json:"email"`
	Password  string    `gorm:"not null" json:"-"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Profile   *Profile  `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"profile,omitempty"`
}

// Author is the public view of a User embedded in posts and comments.
type Author struct {
	ID       uint   `json:"id"`
	Username string `json:"username"`
}

// AuthorOf returns the public author view, or nil when the content is detached
// or anonymous.
func AuthorOf(u *User, anonymous bool) *Author {
	if u == nil || anonymous {
		return nil
	}
	return &Author{ID: u.ID, Username: u.Username}
}

// Profile holds the editable public details of a User.
type Profile struct {
	ID         uint      `gorm:"primaryKey" json:"-"`
	UserID     uint      `gorm:"uniqueIndex;not null" json:"-"`
	Bio        string    `gorm:"size:500" json:"bio"`
	Profession string    `gorm:"size:100" json:"profession"`
	Picture    string    `json:"picture"`
	PictureURL string    `json:"picture_url"`
	CreatedAt  time.Time `json:"-"`
	UpdatedAt  time.Time `json:"-"`
}

// ProfileResponse is the serialized profile, including the owner's username.
type ProfileResponse struct {
	UserID     uint   `json:"user_id"`
	Username   string `json:"username"`
	Bio        string `json:"bio"`
	Profession string `json:"profession"`
	Picture    string `json:"picture"`
	PictureURL string `json:"picture_url"`
}

// NewProfileResponse combines a profile with its owner.
func NewProfileResponse(u *User, p *Profile) ProfileResponse {
	resp := ProfileResponse{UserID: u.ID, Username: u.Username}
	if p != nil {
		resp.Bio = p.Bio
		resp.Profession = p.Profession
		resp.Picture = p.Picture
		resp.PictureURL = p.PictureURL
	}
	return resp
}
