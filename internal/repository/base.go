// Package repository provides data access layer implementations for the application.
package repository

import (
	"context"
	"errors"
	"strings"

	"namethatobject/internal/models"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// Repos groups the repositories bound to one connection or transaction.
type Repos struct {
	Users    UserRepository
	Profiles ProfileRepository
	Posts    PostRepository
	Comments CommentRepository
}

// Transactor runs fn with repositories bound to a single transaction.
// Returning an error from fn rolls everything back.
type Transactor interface {
	InTx(ctx context.Context, fn func(Repos) error) error
}

// Store owns the primary database handle and hands out repositories.
type Store struct {
	db *gorm.DB
	Repos
}

// NewStore returns a Store whose embedded repositories run outside any transaction.
func NewStore(db *gorm.DB) *Store {
	return &Store{db: db, Repos: reposFor(db)}
}

func reposFor(db *gorm.DB) Repos {
	return Repos{
		Users:    NewUserRepository(db),
		Profiles: NewProfileRepository(db),
		Posts:    NewPostRepository(db),
		Comments: NewCommentRepository(db),
	}
}

// InTx implements Transactor on top of gorm transactions.
func (s *Store) InTx(ctx context.Context, fn func(Repos) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(reposFor(tx))
	})
}

// DB exposes the underlying handle for health checks.
func (s *Store) DB() *gorm.DB {
	return s.db
}

// isUniqueViolation recognises duplicate-key failures from postgres and sqlite.
func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// translate maps driver errors onto AppErrors. AppErrors pass through.
func translate(err error, resource string, id interface{}) error {
	if err == nil {
		return nil
	}
	var appErr *models.AppError
	if errors.As(err, &appErr) {
		return err
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.NewNotFoundError(resource, id)
	}
	if isUniqueViolation(err) {
		return models.NewValidationError(resource + " already exists")
	}
	return models.NewInternalError(err)
}

// likePattern builds a case-insensitive LIKE pattern with wildcards escaped.
func likePattern(q string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(strings.ToLower(q)) + "%"
}
