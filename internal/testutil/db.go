// Package testutil provides shared test doubles and fixtures.
package testutil

import (
	"fmt"
	"strings"
	"sync/atomic"
	"testing"

	"namethatobject/internal/database"
	"namethatobject/internal/models"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var dbSeq atomic.Int64

// NewSQLiteDB returns a migrated in-memory database private to the test.
// Foreign keys are enforced and a single connection is used, so code running
// in a transaction must only touch the transaction handle.
func NewSQLiteDB(t *testing.T) *gorm.DB {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s_%d?mode=memory&cache=shared&_foreign_keys=on", name, dbSeq.Add(1))

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Discard,
		TranslateError: true,
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, database.Migrate(db))
	return db
}

// CreateUser inserts a user with a profile and a bcrypt hash of "s3cret-pass".
func CreateUser(t *testing.T, db *gorm.DB, username string) *models.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret-pass"), bcrypt.MinCost)
	require.NoError(t, err)

	user := &models.User{Username: username, Email: username + "@example.com", Password: string(hash)}
	require.NoError(t, db.Omit("Profile").Create(user).Error)
	require.NoError(t, db.Create(&models.Profile{UserID: user.ID}).Error)
	return user
}

// CreatePost inserts a live post authored by user.
func CreatePost(t *testing.T, db *gorm.DB, user *models.User, title string) *models.Post {
	t.Helper()
	post := &models.Post{Title: title, Description: "what is this " + title, Tags: []string{}}
	if user != nil {
		post.UserID = &user.ID
	}
	require.NoError(t, db.Omit("User", "Comments").Create(post).Error)
	return post
}

// CreateComment inserts a comment on post, optionally replying to parent.
func CreateComment(t *testing.T, db *gorm.DB, user *models.User, post *models.Post, parent *models.Comment, text string) *models.Comment {
	t.Helper()
	c := &models.Comment{PostID: post.ID, Text: text, Tag: models.TagQuestion}
	if user != nil {
		c.UserID = &user.ID
	}
	if parent != nil {
		c.ParentID = &parent.ID
	}
	require.NoError(t, db.Omit("User", "Parent").Create(c).Error)
	return c
}

// UintPtr returns a pointer to v.
func UintPtr(v uint) *uint { return &v }
