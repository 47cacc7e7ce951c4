package service

import (
	"context"

	"namethatobject/internal/models"
	"namethatobject/internal/repository"
	"namethatobject/internal/thread"
	"namethatobject/internal/validation"

	"gorm.io/gorm/clause"
)

type CommentService struct {
	repos repository.Repos
	tx    repository.Transactor
}

type CreateCommentInput struct {
	UserID   uint
	PostID   uint
	ParentID *uint
	Text     string
	Tag      string
}

func NewCommentService(repos repository.Repos, tx repository.Transactor) *CommentService {
	return &CommentService{repos: repos, tx: tx}
}

func (s *CommentService) CreateComment(ctx context.Context, in CreateCommentInput) (*models.Comment, error) {
	if in.PostID == 0 {
		return nil, models.NewValidationError("post is required")
	}
	if err := validation.ValidateText("text", in.Text, validation.MaxCommentLength); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	tag, ok := models.ParseCommentTag(in.Tag)
	if !ok {
		return nil, models.NewValidationError("tag must be one of Question, Hint, Expert Answer")
	}

	userID := in.UserID
	comment := &models.Comment{
		PostID:   in.PostID,
		ParentID: in.ParentID,
		UserID:   &userID,
		Text:     in.Text,
		Tag:      tag,
	}
	// The shared lock on the post conflicts with DeletePost's update lock,
	// so a post is never hidden with a comment committed under it.
	err := s.tx.InTx(ctx, func(r repository.Repos) error {
		if _, err := requireAccount(ctx, r.Users, in.UserID); err != nil {
			return err
		}
		if _, err := r.Posts.Lock(ctx, in.PostID, clause.LockingStrengthShare); err != nil {
			return err
		}
		if in.ParentID != nil {
			parent, err := r.Comments.GetByID(ctx, *in.ParentID)
			if err != nil {
				return err
			}
			if parent.PostID != in.PostID {
				return models.NewValidationError("Parent comment belongs to a different post")
			}
		}
		return r.Comments.Create(ctx, comment)
	})
	if err != nil {
		return nil, err
	}
	return s.repos.Comments.GetByID(ctx, comment.ID)
}

// GetComment returns a comment of a live post with its direct replies.
func (s *CommentService) GetComment(ctx context.Context, id uint) (*models.Comment, error) {
	comment, err := s.repos.Comments.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if _, err := s.repos.Posts.GetByID(ctx, comment.PostID); err != nil {
		if models.IsCode(err, models.CodeNotFound) {
			return nil, models.NewNotFoundError("Comment", id)
		}
		return nil, err
	}
	siblings, err := s.repos.Comments.ListByPost(ctx, comment.PostID)
	if err != nil {
		return nil, err
	}
	comment.Replies = thread.Build(siblings).Replies(id)
	return comment, nil
}

// ListComments returns comments in creation order with their replies filled
// in. A nil postID lists the comments of every live post.
func (s *CommentService) ListComments(ctx context.Context, postID *uint) ([]models.Comment, error) {
	var (
		comments []models.Comment
		err      error
	)
	if postID != nil {
		if _, err = s.repos.Posts.GetByID(ctx, *postID); err != nil {
			return nil, err
		}
		comments, err = s.repos.Comments.ListByPost(ctx, *postID)
	} else {
		comments, err = s.repos.Comments.ListAll(ctx)
	}
	if err != nil {
		return nil, err
	}
	return withReplies(comments), nil
}

// DeleteComment removes a comment and its whole reply subtree. The author is
// the only one allowed to delete, and a subtree holding the post's eureka
// comment cannot be deleted.
func (s *CommentService) DeleteComment(ctx context.Context, id, requesterID uint) error {
	comment, err := s.repos.Comments.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if !comment.IsAuthor(requesterID) {
		return models.NewForbiddenError("You can only delete your own comments")
	}

	return s.tx.InTx(ctx, func(r repository.Repos) error {
		post, err := r.Posts.Lock(ctx, comment.PostID, clause.LockingStrengthUpdate)
		if err != nil {
			return err
		}
		all, err := r.Comments.ListByPost(ctx, comment.PostID)
		if err != nil {
			return err
		}
		idx := thread.Build(all)
		if post.EurekaCommentID != nil && idx.Contains(id, *post.EurekaCommentID) {
			return models.NewForbiddenError("Cannot delete the eureka comment or a thread containing it")
		}
		return r.Comments.DeleteIDs(ctx, idx.Subtree(id))
	})
}
