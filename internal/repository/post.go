package repository

import (
	"context"

	"namethatobject/internal/models"
	"namethatobject/internal/observability"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PostFilter narrows List results. Zero values disable a filter.
type PostFilter struct {
	Search string
	Author string
	Limit  int
	Offset int
}

// PostRepository defines the interface for post data operations.
// Soft-deleted posts are invisible to every read.
type PostRepository interface {
	Create(ctx context.Context, post *models.Post) error
	GetByID(ctx context.Context, id uint) (*models.Post, error)
	Lock(ctx context.Context, id uint, strength string) (*models.Post, error)
	List(ctx context.Context, filter PostFilter) ([]models.Post, error)
	Update(ctx context.Context, post *models.Post, columns ...string) error
	SoftDelete(ctx context.Context, id uint) error
	Vote(ctx context.Context, id uint, dir models.VoteDirection) (*models.VoteResult, error)
	ListIDsByUser(ctx context.Context, userID uint) ([]uint, error)
	MarkAnonymous(ctx context.Context, ids []uint) error
	SoftDeleteMany(ctx context.Context, ids []uint) error
	DetachAuthor(ctx context.Context, userID uint) error
}

// postRepository implements PostRepository
type postRepository struct {
	db  *gorm.DB
	log *observability.RepoLogger
}

// NewPostRepository creates a new post repository
func NewPostRepository(db *gorm.DB) PostRepository {
	return &postRepository{db: db, log: observability.NewRepoLogger("posts")}
}

func (r *postRepository) live(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Model(&models.Post{}).Where("posts.is_deleted = ?", false)
}

func (r *postRepository) Create(ctx context.Context, post *models.Post) error {
	err := r.db.WithContext(ctx).Omit("User", "Comments").Create(post).Error
	return translate(err, "Post", post.Title)
}

func (r *postRepository) GetByID(ctx context.Context, id uint) (*models.Post, error) {
	var post models.Post
	if err := r.live(ctx).Preload("User").First(&post, id).Error; err != nil {
		return nil, translate(err, "Post", id)
	}
	return &post, nil
}

// Lock reads a live post under a row lock held until the transaction ends.
// strength is clause.LockingStrengthUpdate or clause.LockingStrengthShare. SQLite
// has no row locks and relies on its single writer instead.
func (r *postRepository) Lock(ctx context.Context, id uint, strength string) (*models.Post, error) {
	var post models.Post
	err := r.live(ctx).Clauses(clause.Locking{Strength: strength}).
		Where("posts.id = ?", id).
		Take(&post).Error
	if err != nil {
		return nil, translate(err, "Post", id)
	}
	return &post, nil
}

func (r *postRepository) List(ctx context.Context, filter PostFilter) ([]models.Post, error) {
	q := r.live(ctx).Preload("User")

	if filter.Search != "" {
		like := likePattern(filter.Search)
		q = q.Where(`(LOWER(posts.title) LIKE ? ESCAPE '\' OR LOWER(posts.description) LIKE ? ESCAPE '\')`, like, like)
	}
	if filter.Author != "" {
		q = q.Joins("JOIN users ON users.id = posts.user_id").
			Where("users.username = ? AND posts.is_anonymous = ?", filter.Author, false)
	}
	if filter.Limit > 0 {
		q = q.Limit(filter.Limit)
	}
	if filter.Offset > 0 {
		q = q.Offset(filter.Offset)
	}

	var posts []models.Post
	if err := q.Order("posts.created_at DESC").Order("posts.id DESC").Find(&posts).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return posts, nil
}

// Update writes the named columns of post, including zero and nil values.
func (r *postRepository) Update(ctx context.Context, post *models.Post, columns ...string) error {
	if len(columns) == 0 {
		return nil
	}
	res := r.db.WithContext(ctx).Model(post).
		Where("is_deleted = ?", false).
		Select(columns).
		Updates(post)
	if res.Error != nil {
		return models.NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError("Post", post.ID)
	}
	r.log.LogUpdate(ctx, map[string]any{"post_id": post.ID, "columns": columns})
	return nil
}

func (r *postRepository) SoftDelete(ctx context.Context, id uint) error {
	res := r.live(ctx).Where("posts.id = ?", id).UpdateColumn("is_deleted", true)
	if res.Error != nil {
		return models.NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError("Post", id)
	}
	r.log.LogDelete(ctx, map[string]any{"post_id": id, "soft": true})
	return nil
}

// Vote increments one counter with a single UPDATE and reads both counters back.
// It must run inside a transaction for the read to match the write.
func (r *postRepository) Vote(ctx context.Context, id uint, dir models.VoteDirection) (*models.VoteResult, error) {
	col := dir.Column()
	res := r.db.WithContext(ctx).Model(&models.Post{}).
		Where("id = ? AND is_deleted = ?", id, false).
		UpdateColumn(col, gorm.Expr(col+" + ?", 1))
	if res.Error != nil {
		return nil, models.NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, models.NewNotFoundError("Post", id)
	}

	var out models.VoteResult
	err := r.db.WithContext(ctx).Model(&models.Post{}).
		Select("id", "upvotes", "downvotes").
		Where("id = ?", id).
		Scan(&out).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	out.Points = out.Upvotes - out.Downvotes
	return &out, nil
}

func (r *postRepository) ListIDsByUser(ctx context.Context, userID uint) ([]uint, error) {
	var ids []uint
	err := r.live(ctx).Where("posts.user_id = ?", userID).Order("posts.id").Pluck("posts.id", &ids).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return ids, nil
}

func (r *postRepository) MarkAnonymous(ctx context.Context, ids []uint) error {
	if len(ids) == 0 {
		return nil
	}
	err := r.db.WithContext(ctx).Model(&models.Post{}).Where("id IN ?", ids).UpdateColumn("is_anonymous", true).Error
	if err != nil {
		return models.NewInternalError(err)
	}
	r.log.LogUpdate(ctx, map[string]any{"post_ids": ids, "is_anonymous": true})
	return nil
}

func (r *postRepository) SoftDeleteMany(ctx context.Context, ids []uint) error {
	if len(ids) == 0 {
		return nil
	}
	err := r.db.WithContext(ctx).Model(&models.Post{}).Where("id IN ?", ids).UpdateColumn("is_deleted", true).Error
	if err != nil {
		return models.NewInternalError(err)
	}
	r.log.LogDelete(ctx, map[string]any{"post_ids": ids, "soft": true})
	return nil
}

// DetachAuthor clears the author reference on every post by userID, deleted or not.
func (r *postRepository) DetachAuthor(ctx context.Context, userID uint) error {
	err := r.db.WithContext(ctx).Model(&models.Post{}).Where("user_id = ?", userID).UpdateColumn("user_id", nil).Error
	if err != nil {
		return models.NewInternalError(err)
	}
	return nil
}
