// Package seed populates the database with demo data for development.
package seed

import (
	"context"
	"fmt"
	"strings"
	"time"

	"namethatobject/internal/models"
	"namethatobject/internal/storage"

	"github.com/brianvoe/gofakeit/v6"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// DemoPassword is the password of every seeded user.
const DemoPassword = "mystery-solver"

// Options configuration for the seeder
type Options struct {
	NumUsers    int
	NumPosts    int
	MaxComments int
	ShouldClean bool
}

// Summary reports what a run created.
type Summary struct {
	Users    int
	Posts    int
	Comments int
}

var commentTags = []models.CommentTag{models.TagQuestion, models.TagHint, models.TagExpertAnswer}

// Seeder writes fake users, posts and comment threads.
type Seeder struct {
	db       *gorm.DB
	faker    *gofakeit.Faker
	hashCost int
}

// NewSeeder returns a seeder. A zero seed picks a random one.
func NewSeeder(db *gorm.DB, seed int64) *Seeder {
	return &Seeder{db: db, faker: gofakeit.New(seed), hashCost: bcrypt.DefaultCost}
}

// ClearAll removes every comment, post, profile and user.
func (s *Seeder) ClearAll(ctx context.Context) error {
	db := s.db.WithContext(ctx).Session(&gorm.Session{AllowGlobalUpdate: true})
	for _, model := range []any{&models.Comment{}, &models.Post{}, &models.Profile{}, &models.User{}} {
		if err := db.Delete(model).Error; err != nil {
			return fmt.Errorf("clear %T: %w", model, err)
		}
	}
	return nil
}

// Run seeds the database in one transaction.
func (s *Seeder) Run(ctx context.Context, opts Options) (Summary, error) {
	var sum Summary
	if opts.NumUsers <= 0 {
		return sum, fmt.Errorf("at least one user is required")
	}
	if opts.ShouldClean {
		if err := s.ClearAll(ctx); err != nil {
			return sum, err
		}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(DemoPassword), s.hashCost)
	if err != nil {
		return sum, err
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		users, err := s.createUsers(tx, opts.NumUsers, string(hash))
		if err != nil {
			return err
		}
		sum.Users = len(users)

		for i := 0; i < opts.NumPosts; i++ {
			post, err := s.createPost(tx, users[s.faker.Number(0, len(users)-1)])
			if err != nil {
				return err
			}
			sum.Posts++

			n, err := s.createThread(tx, post, users, opts.MaxComments)
			if err != nil {
				return err
			}
			sum.Comments += n
		}
		return nil
	})
	return sum, err
}

func (s *Seeder) createUsers(tx *gorm.DB, n int, hash string) ([]*models.User, error) {
	users := make([]*models.User, 0, n)
	for i := 0; i < n; i++ {
		name := s.username(i)
		user := &models.User{Username: name, Email: name + "@example.com", Password: hash}
		if err := tx.Omit("Profile").Create(user).Error; err != nil {
			return nil, fmt.Errorf("create user %s: %w", name, err)
		}
		profile := &models.Profile{
			UserID:     user.ID,
			Bio:        s.faker.Sentence(8),
			Profession: truncate(s.faker.JobTitle(), 100),
		}
		if err := tx.Create(profile).Error; err != nil {
			return nil, fmt.Errorf("create profile for %s: %w", name, err)
		}
		users = append(users, user)
	}
	return users, nil
}

// username derives a valid, unique username from a fake one.
func (s *Seeder) username(i int) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s.faker.Username()) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	suffix := fmt.Sprintf("%d", i+1)
	base := truncate(b.String(), 30-len(suffix)-1)
	if base == "" {
		base = "user"
	}
	return base + "_" + suffix
}

func (s *Seeder) createPost(tx *gorm.DB, author *models.User) (*models.Post, error) {
	tags := make([]string, 0, 4)
	for j := s.faker.Number(1, 4); j > 0; j-- {
		tags = append(tags, s.faker.Noun())
	}

	image := fmt.Sprintf("https://picsum.photos/seed/%s/800/600", s.faker.UUID())
	age := time.Duration(s.faker.Number(0, 90*24*60)) * time.Minute
	post := &models.Post{
		Title:       truncate(fmt.Sprintf("What is this %s %s?", s.faker.Adjective(), s.faker.Noun()), 200),
		Description: s.faker.Paragraph(1, 3, 12, " "),
		Image:       image,
		ImageURL:    storage.PublicURL("", image),
		Tags:        models.NormalizeTags(tags),
		UserID:      &author.ID,
		Upvotes:     s.faker.Number(0, 40),
		Downvotes:   s.faker.Number(0, 10),
		CreatedAt:   time.Now().Add(-age),
	}
	if err := tx.Omit("User", "Comments").Create(post).Error; err != nil {
		return nil, fmt.Errorf("create post: %w", err)
	}
	return post, nil
}

// createThread adds up to max comments to post, about half of them replies,
// and sometimes marks one as the eureka comment.
func (s *Seeder) createThread(tx *gorm.DB, post *models.Post, users []*models.User, max int) (int, error) {
	if max <= 0 {
		return 0, nil
	}
	n := s.faker.Number(0, max)
	created := make([]*models.Comment, 0, n)
	for i := 0; i < n; i++ {
		author := users[s.faker.Number(0, len(users)-1)]
		comment := &models.Comment{
			PostID:    post.ID,
			UserID:    &author.ID,
			Text:      s.faker.Sentence(s.faker.Number(4, 20)),
			Tag:       commentTags[s.faker.Number(0, len(commentTags)-1)],
			Upvotes:   s.faker.Number(0, 15),
			Downvotes: s.faker.Number(0, 5),
			CreatedAt: post.CreatedAt.Add(time.Duration(i+1) * time.Minute),
		}
		if len(created) > 0 && s.faker.Bool() {
			comment.ParentID = &created[s.faker.Number(0, len(created)-1)].ID
		}
		if err := tx.Omit("User", "Parent").Create(comment).Error; err != nil {
			return 0, fmt.Errorf("create comment: %w", err)
		}
		created = append(created, comment)
	}

	if len(created) > 0 && s.faker.Bool() {
		eureka := created[s.faker.Number(0, len(created)-1)].ID
		err := tx.Model(post).UpdateColumn("eureka_comment_id", eureka).Error
		if err != nil {
			return 0, fmt.Errorf("mark eureka comment: %w", err)
		}
		post.EurekaCommentID = &eureka
	}
	return len(created), nil
}

func truncate(s string, max int) string {
	if max <= 0 {
		return ""
	}
	if len(s) > max {
		return s[:max]
	}
	return s
}
