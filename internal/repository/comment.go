package repository

import (
	"context"

	"namethatobject/internal/models"
	"namethatobject/internal/observability"

	"gorm.io/gorm"
)

// CommentRepository defines interface for comment operations
type CommentRepository interface {
	Create(ctx context.Context, comment *models.Comment) error
	GetByID(ctx context.Context, id uint) (*models.Comment, error)
	ListByPost(ctx context.Context, postID uint) ([]models.Comment, error)
	ListAll(ctx context.Context) ([]models.Comment, error)
	CountByPost(ctx context.Context, postIDs []uint) (map[uint]int64, error)
	DeleteIDs(ctx context.Context, ids []uint) error
	Vote(ctx context.Context, id uint, dir models.VoteDirection) (*models.VoteResult, error)
	AnonymizeByUser(ctx context.Context, userID uint) error
	DetachAuthor(ctx context.Context, userID uint) error
}

type commentRepository struct {
	db  *gorm.DB
	log *observability.RepoLogger
}

// NewCommentRepository creates a new CommentRepository
func NewCommentRepository(db *gorm.DB) CommentRepository {
	return &commentRepository{db: db, log: observability.NewRepoLogger("comments")}
}

func (r *commentRepository) Create(ctx context.Context, comment *models.Comment) error {
	err := r.db.WithContext(ctx).Omit("User", "Parent").Create(comment).Error
	return translate(err, "Comment", comment.ID)
}

func (r *commentRepository) GetByID(ctx context.Context, id uint) (*models.Comment, error) {
	var comment models.Comment
	if err := r.db.WithContext(ctx).Preload("User").First(&comment, id).Error; err != nil {
		return nil, translate(err, "Comment", id)
	}
	return &comment, nil
}

// ListByPost returns the comments of a post in creation order.
func (r *commentRepository) ListByPost(ctx context.Context, postID uint) ([]models.Comment, error) {
	var comments []models.Comment
	err := r.db.WithContext(ctx).Preload("User").
		Where("post_id = ?", postID).
		Order("created_at ASC").Order("id ASC").
		Find(&comments).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return comments, nil
}

// ListAll returns every comment on a live post in creation order.
func (r *commentRepository) ListAll(ctx context.Context) ([]models.Comment, error) {
	var comments []models.Comment
	err := r.db.WithContext(ctx).Preload("User").
		Joins("JOIN posts ON posts.id = comments.post_id AND posts.is_deleted = ?", false).
		Order("comments.created_at ASC").Order("comments.id ASC").
		Find(&comments).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return comments, nil
}

// CountByPost returns the number of comments per post. Posts without
// comments are absent from the map.
func (r *commentRepository) CountByPost(ctx context.Context, postIDs []uint) (map[uint]int64, error) {
	out := make(map[uint]int64, len(postIDs))
	if len(postIDs) == 0 {
		return out, nil
	}
	var rows []struct {
		PostID uint
		Total  int64
	}
	err := r.db.WithContext(ctx).Model(&models.Comment{}).
		Select("post_id, COUNT(*) AS total").
		Where("post_id IN ?", postIDs).
		Group("post_id").
		Scan(&rows).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	for _, row := range rows {
		out[row.PostID] = row.Total
	}
	return out, nil
}

// DeleteIDs removes the given comments in a single statement.
func (r *commentRepository) DeleteIDs(ctx context.Context, ids []uint) error {
	if len(ids) == 0 {
		return nil
	}
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Delete(&models.Comment{}).Error; err != nil {
		r.log.LogError(ctx, err, "delete")
		return models.NewInternalError(err)
	}
	r.log.LogDelete(ctx, map[string]any{"comment_ids": ids})
	return nil
}

// Vote increments one counter with a single UPDATE and reads both counters back.
// Comments of soft-deleted posts are not found.
func (r *commentRepository) Vote(ctx context.Context, id uint, dir models.VoteDirection) (*models.VoteResult, error) {
	col := dir.Column()
	livePosts := r.db.WithContext(ctx).Model(&models.Post{}).Select("id").Where("is_deleted = ?", false)
	res := r.db.WithContext(ctx).Model(&models.Comment{}).
		Where("id = ? AND post_id IN (?)", id, livePosts).
		UpdateColumn(col, gorm.Expr(col+" + ?", 1))
	if res.Error != nil {
		return nil, models.NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, models.NewNotFoundError("Comment", id)
	}

	var out models.VoteResult
	err := r.db.WithContext(ctx).Model(&models.Comment{}).
		Select("id", "upvotes", "downvotes").
		Where("id = ?", id).
		Scan(&out).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	out.Points = out.Upvotes - out.Downvotes
	return &out, nil
}

func (r *commentRepository) AnonymizeByUser(ctx context.Context, userID uint) error {
	err := r.db.WithContext(ctx).Model(&models.Comment{}).
		Where("user_id = ?", userID).
		UpdateColumn("is_anonymous", true).Error
	if err != nil {
		return models.NewInternalError(err)
	}
	r.log.LogUpdate(ctx, map[string]any{"user_id": userID, "is_anonymous": true})
	return nil
}

func (r *commentRepository) DetachAuthor(ctx context.Context, userID uint) error {
	err := r.db.WithContext(ctx).Model(&models.Comment{}).
		Where("user_id = ?", userID).
		UpdateColumn("user_id", nil).Error
	if err != nil {
		return models.NewInternalError(err)
	}
	return nil
}
