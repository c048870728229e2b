package repo

import (
	"context"

	"gorm.io/gorm"

	"github.com/Skotchmaster/blog_api/internal/models"
)

func (r *GormRepo) ListComments(ctx context.Context, postID uint, offset, limit int) (int64, []models.Comment, error) {
	var total int64
	if err := r.DB.WithContext(ctx).Model(&models.Comment{}).Where("post_id = ?", postID).Count(&total).Error; err != nil {
		return 0, nil, err
	}

	items := make([]models.Comment, 0, limit)
	if err := r.DB.WithContext(ctx).
		Preload("Author", publicAuthor).
		Where("post_id = ?", postID).
		Order("created_at ASC").Order("id ASC").
		Offset(offset).Limit(limit).
		Find(&items).Error; err != nil {
		return 0, nil, err
	}
	return total, items, nil
}

func (r *GormRepo) CommentByID(ctx context.Context, id uint) (*models.Comment, error) {
	var comment models.Comment
	if err := r.DB.WithContext(ctx).Preload("Author", publicAuthor).First(&comment, id).Error; err != nil {
		return nil, err
	}
	return &comment, nil
}

func (r *GormRepo) CreateComment(ctx context.Context, comment *models.Comment) error {
	return r.DB.WithContext(ctx).Omit("Post", "Author").Create(comment).Error
}

func (r *GormRepo) UpdateComment(ctx context.Context, id uint, body string) error {
	res := r.DB.WithContext(ctx).Model(&models.Comment{ID: id}).Update("body", body)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *GormRepo) DeleteComment(ctx context.Context, id uint) error {
	res := r.DB.WithContext(ctx).Delete(&models.Comment{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
