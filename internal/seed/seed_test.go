package seed

import (
	"context"
	"testing"

	"namethatobject/internal/models"
	"namethatobject/internal/testutil"
	"namethatobject/internal/validation"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func newTestSeeder(t *testing.T) *Seeder {
	t.Helper()
	s := NewSeeder(testutil.NewSQLiteDB(t), 42)
	s.hashCost = bcrypt.MinCost
	return s
}

func TestSeeder_Run(t *testing.T) {
	s := newTestSeeder(t)
	ctx := context.Background()

	sum, err := s.Run(ctx, Options{NumUsers: 4, NumPosts: 12, MaxComments: 6})
	require.NoError(t, err)
	assert.Equal(t, 4, sum.Users)
	assert.Equal(t, 12, sum.Posts)

	var users []models.User
	require.NoError(t, s.db.Find(&users).Error)
	require.Len(t, users, 4)
	for _, u := range users {
		assert.NoError(t, validation.ValidateUsername(u.Username), u.Username)
		var profiles int64
		require.NoError(t, s.db.Model(&models.Profile{}).Where("user_id = ?", u.ID).Count(&profiles).Error)
		assert.Equal(t, int64(1), profiles)
	}

	var comments []models.Comment
	require.NoError(t, s.db.Find(&comments).Error)
	assert.Len(t, comments, sum.Comments)
	byID := make(map[uint]models.Comment, len(comments))
	for _, c := range comments {
		byID[c.ID] = c
	}
	for _, c := range comments {
		if c.ParentID != nil {
			assert.Equal(t, c.PostID, byID[*c.ParentID].PostID, "reply %d crosses posts", c.ID)
		}
	}

	var posts []models.Post
	require.NoError(t, s.db.Find(&posts).Error)
	for _, p := range posts {
		assert.NotEmpty(t, p.Tags)
		assert.Contains(t, p.ImageURL, "https://picsum.photos/")
		if p.EurekaCommentID != nil {
			assert.Equal(t, p.ID, byID[*p.EurekaCommentID].PostID)
		}
	}
}

func TestSeeder_ClearAll(t *testing.T) {
	s := newTestSeeder(t)
	ctx := context.Background()

	_, err := s.Run(ctx, Options{NumUsers: 2, NumPosts: 3, MaxComments: 2})
	require.NoError(t, err)
	require.NoError(t, s.ClearAll(ctx))

	var users, posts int64
	require.NoError(t, s.db.Model(&models.User{}).Count(&users).Error)
	require.NoError(t, s.db.Model(&models.Post{}).Count(&posts).Error)
	assert.Zero(t, users)
	assert.Zero(t, posts)
}

func TestSeeder_RequiresUsers(t *testing.T) {
	s := newTestSeeder(t)
	_, err := s.Run(context.Background(), Options{NumPosts: 1})
	assert.Error(t, err)
}
