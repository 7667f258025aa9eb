package repository

import (
	"gorm.io/gorm"

	"github.com/0xredpill/site_go_server/internal/model"
)

// SortOrder 顶层评论排序方式
type SortOrder string

const (
	SortNewest SortOrder = "newest"
	SortOldest SortOrder = "oldest"
)

type CommentRepository struct {
	db *gorm.DB
}

func NewCommentRepository(db *gorm.DB) *CommentRepository {
	return &CommentRepository{db: db}
}

// Create 创建评论
func (r *CommentRepository) Create(comment *model.Comment) error {
	return r.db.Create(comment).Error
}

// GetByID 根据 ID 获取评论
func (r *CommentRepository) GetByID(id int64) (*model.Comment, error) {
	var comment model.Comment
	err := r.db.Where("id = ?", id).First(&comment).Error
	if err != nil {
		return nil, err
	}
	return &comment, nil
}

// GetByIDWithUser 获取评论及用户信息
func (r *CommentRepository) GetByIDWithUser(id int64) (*model.Comment, error) {
	var comment model.Comment
	err := r.db.Preload("User").Where("id = ?", id).First(&comment).Error
	if err != nil {
		return nil, err
	}
	return &comment, nil
}

// ListTopLevel 获取文章的顶层评论，按创建时间排序（newest 倒序 / oldest 正序）
func (r *CommentRepository) ListTopLevel(postSlug string, order SortOrder) ([]*model.Comment, error) {
	orderExpr := "created_at DESC"
	if order == SortOldest {
		orderExpr = "created_at ASC"
	}

	var comments []*model.Comment
	err := r.db.Preload("User").
		Where("post_slug = ? AND parent_id IS NULL", postSlug).
		Order(orderExpr).
		Find(&comments).Error
	return comments, err
}

// ListReplies 获取某条顶层评论的回复，始终按创建时间正序
func (r *CommentRepository) ListReplies(parentID int64) ([]*model.Comment, error) {
	var replies []*model.Comment
	err := r.db.Preload("User").
		Where("parent_id = ?", parentID).
		Order("created_at ASC").
		Find(&replies).Error
	return replies, err
}

// ListRepliesByParentIDs 批量获取回复，始终按创建时间正序
func (r *CommentRepository) ListRepliesByParentIDs(parentIDs []int64) ([]*model.Comment, error) {
	if len(parentIDs) == 0 {
		return nil, nil
	}

	var replies []*model.Comment
	err := r.db.Preload("User").
		Where("parent_id IN ?", parentIDs).
		Order("created_at ASC").
		Find(&replies).Error
	return replies, err
}

// DeleteOwned 删除评论，仅当 user_id 匹配时生效。
// 返回受影响行数；0 行表示评论不存在或不属于该用户（不作区分）。
func (r *CommentRepository) DeleteOwned(commentID, userID int64) (int64, error) {
	result := r.db.Where("id = ? AND user_id = ?", commentID, userID).Delete(&model.Comment{})
	return result.RowsAffected, result.Error
}

// DeleteByParentID 删除子回复
func (r *CommentRepository) DeleteByParentID(parentID int64) (int64, error) {
	result := r.db.Where("parent_id = ?", parentID).Delete(&model.Comment{})
	return result.RowsAffected, result.Error
}

// UpdateLikes 写回整个 liked_by 集合和计数，仅以 id 为条件（最后写入者胜）
func (r *CommentRepository) UpdateLikes(commentID int64, likesCount int, likedBy model.Int64Set) error {
	return r.db.Model(&model.Comment{}).
		Where("id = ?", commentID).
		Updates(map[string]interface{}{
			"likes_count": likesCount,
			"liked_by":    likedBy,
		}).Error
}

// FindOrphanReplyIDs 查找父评论已不存在的回复 ID
func (r *CommentRepository) FindOrphanReplyIDs() ([]int64, error) {
	var ids []int64
	err := r.db.Model(&model.Comment{}).
		Where("parent_id IS NOT NULL AND parent_id NOT IN (?)",
			r.db.Model(&model.Comment{}).Select("id")).
		Pluck("id", &ids).Error
	return ids, err
}

// DeleteByIDs 按 ID 批量删除
func (r *CommentRepository) DeleteByIDs(ids []int64) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	result := r.db.Where("id IN ?", ids).Delete(&model.Comment{})
	return result.RowsAffected, result.Error
}

// CountByPostSlug 获取文章的评论总数（含回复）
func (r *CommentRepository) CountByPostSlug(postSlug string) (int64, error) {
	var count int64
	err := r.db.Model(&model.Comment{}).Where("post_slug = ?", postSlug).Count(&count).Error
	return count, err
}
