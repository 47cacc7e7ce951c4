// Package service holds the business rules of the API on top of the repositories.
package service

import (
	"context"

	"namethatobject/internal/models"
	"namethatobject/internal/repository"
	"namethatobject/internal/storage"
	"namethatobject/internal/thread"
)

// withReplies fills the Replies of every comment from the parent links.
func withReplies(comments []models.Comment) []models.Comment {
	return thread.Build(comments).Comments()
}

// publicURL resolves ref through media, or leaves bare refs relative when no
// store is configured.
func publicURL(media storage.Store, ref string) string {
	if media == nil {
		return storage.PublicURL("", ref)
	}
	return media.PublicURL(ref)
}

// errAccountGone answers requests whose token outlived its account.
var errAccountGone = models.NewUnauthorizedError("Account no longer exists")

// requireAccount loads the acting user. A missing user means the token
// outlived its account, which is answered as unauthorized.
func requireAccount(ctx context.Context, users repository.UserRepository, id uint) (*models.User, error) {
	user, err := users.GetByID(ctx, id)
	if models.IsCode(err, models.CodeNotFound) {
		return nil, errAccountGone
	}
	return user, err
}
