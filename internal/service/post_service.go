package service

import (
	"context"
	"errors"
	"io"
	"strings"

	"namethatobject/internal/models"
	"namethatobject/internal/repository"
	"namethatobject/internal/storage"
	"namethatobject/internal/validation"

	"gorm.io/gorm/clause"
)

type PostService struct {
	repos repository.Repos
	tx    repository.Transactor
	media storage.Store
}

// Attachment is a media file for a post. Either Body carries an upload, or
// Ref names an already hosted file.
type Attachment struct {
	Kind     storage.Kind
	Filename string
	Body     io.Reader
	Ref      string
}

type CreatePostInput struct {
	UserID      uint
	Title       string
	Description string
	Tags        []string
	Media       []Attachment
}

type ListPostsInput struct {
	Search string
	Author string
	Limit  int
	Offset int
}

// UpdatePostInput carries the mutable fields of a post. Nil pointers leave a
// field untouched. SetEureka with a nil EurekaCommentID clears the marker.
type UpdatePostInput struct {
	UserID          uint
	PostID          uint
	Title           *string
	Description     *string
	Tags            *[]string
	SetEureka       bool
	EurekaCommentID *uint
}

func NewPostService(repos repository.Repos, tx repository.Transactor, media storage.Store) *PostService {
	return &PostService{repos: repos, tx: tx, media: media}
}

func (s *PostService) CreatePost(ctx context.Context, in CreatePostInput) (*models.PostDetail, error) {
	if err := validation.ValidateText("title", in.Title, validation.MaxTitleLength); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	if strings.TrimSpace(in.Description) == "" {
		return nil, models.NewValidationError("description is required")
	}
	tags := models.NormalizeTags(in.Tags)
	if err := validation.ValidateTags(tags); err != nil {
		return nil, models.NewValidationError(err.Error())
	}

	userID := in.UserID
	post := &models.Post{
		Title:       strings.TrimSpace(in.Title),
		Description: in.Description,
		Tags:        tags,
		UserID:      &userID,
	}
	for _, a := range in.Media {
		if err := s.attach(ctx, post, a); err != nil {
			return nil, err
		}
	}

	err := s.tx.InTx(ctx, func(r repository.Repos) error {
		if _, err := requireAccount(ctx, r.Users, in.UserID); err != nil {
			return err
		}
		return r.Posts.Create(ctx, post)
	})
	if err != nil {
		return nil, err
	}
	return s.GetPost(ctx, post.ID)
}

// attach stores or references a media file and records its public URL.
func (s *PostService) attach(ctx context.Context, post *models.Post, a Attachment) error {
	ref := strings.TrimSpace(a.Ref)
	if a.Body != nil {
		if s.media == nil {
			return models.NewInternalError(errors.New("media storage not configured"))
		}
		saved, err := s.media.Save(ctx, a.Kind, a.Filename, a.Body)
		if err != nil {
			return mediaError(a.Kind, err)
		}
		ref = saved
	}
	if ref == "" {
		return nil
	}

	url := publicURL(s.media, ref)
	switch a.Kind {
	case storage.KindImage:
		post.Image, post.ImageURL = ref, url
	case storage.KindVideo:
		post.Video, post.VideoURL = ref, url
	case storage.KindAudio:
		post.Audio, post.AudioURL = ref, url
	default:
		return models.NewValidationError("unsupported media kind " + string(a.Kind))
	}
	return nil
}

func mediaError(kind storage.Kind, err error) error {
	switch {
	case errors.Is(err, storage.ErrTooLarge):
		return models.NewValidationError(string(kind) + " file is too large")
	case errors.Is(err, storage.ErrInvalidMedia):
		return models.NewValidationError(err.Error())
	default:
		return models.NewInternalError(err)
	}
}

func (s *PostService) ListPosts(ctx context.Context, in ListPostsInput) ([]models.Post, error) {
	return s.repos.Posts.List(ctx, repository.PostFilter{
		Search: strings.TrimSpace(in.Search),
		Author: strings.TrimSpace(in.Author),
		Limit:  in.Limit,
		Offset: in.Offset,
	})
}

// GetPost returns a live post with all of its comments in creation order.
func (s *PostService) GetPost(ctx context.Context, id uint) (*models.PostDetail, error) {
	post, err := s.repos.Posts.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	comments, err := s.repos.Comments.ListByPost(ctx, id)
	if err != nil {
		return nil, err
	}
	return &models.PostDetail{Post: post, Comments: withReplies(comments)}, nil
}

// UpdatePost edits the mutable fields of a post under a row lock.
func (s *PostService) UpdatePost(ctx context.Context, in UpdatePostInput) (*models.PostDetail, error) {
	err := s.tx.InTx(ctx, func(r repository.Repos) error {
		post, err := r.Posts.Lock(ctx, in.PostID, clause.LockingStrengthUpdate)
		if err != nil {
			return err
		}
		if !post.IsAuthor(in.UserID) {
			return models.NewForbiddenError("You can only edit your own posts")
		}

		var columns []string
		if in.Title != nil {
			if err := validation.ValidateText("title", *in.Title, validation.MaxTitleLength); err != nil {
				return models.NewValidationError(err.Error())
			}
			post.Title = strings.TrimSpace(*in.Title)
			columns = append(columns, "title")
		}
		if in.Description != nil {
			if strings.TrimSpace(*in.Description) == "" {
				return models.NewValidationError("description is required")
			}
			post.Description = *in.Description
			columns = append(columns, "description")
		}
		if in.Tags != nil {
			tags := models.NormalizeTags(*in.Tags)
			if err := validation.ValidateTags(tags); err != nil {
				return models.NewValidationError(err.Error())
			}
			post.Tags = tags
			columns = append(columns, "tags")
		}
		if in.SetEureka {
			if err := checkEureka(ctx, r.Comments, post.ID, in.EurekaCommentID); err != nil {
				return err
			}
			post.EurekaCommentID = in.EurekaCommentID
			columns = append(columns, "eureka_comment_id")
		}

		return r.Posts.Update(ctx, post, columns...)
	})
	if err != nil {
		return nil, err
	}
	return s.GetPost(ctx, in.PostID)
}

// checkEureka verifies that commentID, when set, is a comment on postID.
func checkEureka(ctx context.Context, comments repository.CommentRepository, postID uint, commentID *uint) error {
	if commentID == nil {
		return nil
	}
	comment, err := comments.GetByID(ctx, *commentID)
	if err != nil {
		if models.IsCode(err, models.CodeNotFound) {
			return models.NewValidationError("eureka_comment must reference an existing comment")
		}
		return err
	}
	if comment.PostID != postID {
		return models.NewValidationError("eureka_comment must be a comment on this post")
	}
	return nil
}

// DeletePost soft-deletes a post. Posts that already have comments stay up.
// The post row stays locked from the comment count to the update, so a
// comment cannot slip in between.
func (s *PostService) DeletePost(ctx context.Context, id, requesterID uint) error {
	return s.tx.InTx(ctx, func(r repository.Repos) error {
		post, err := r.Posts.Lock(ctx, id, clause.LockingStrengthUpdate)
		if err != nil {
			return err
		}
		if !post.IsAuthor(requesterID) {
			return models.NewForbiddenError("You can only delete your own posts")
		}
		counts, err := r.Comments.CountByPost(ctx, []uint{id})
		if err != nil {
			return err
		}
		if counts[id] > 0 {
			return models.NewConflictError("Cannot delete a post that has comments")
		}
		return r.Posts.SoftDelete(ctx, id)
	})
}
