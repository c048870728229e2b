package repo

import (
	"context"

	"gorm.io/gorm"

	"github.com/Skotchmaster/blog_api/internal/models"
)

func (r *GormRepo) ListTags(ctx context.Context) ([]models.Tag, error) {
	tags := []models.Tag{}
	if err := r.DB.WithContext(ctx).Order("name ASC").Find(&tags).Error; err != nil {
		return nil, err
	}
	return tags, nil
}

func (r *GormRepo) TagByID(ctx context.Context, id uint) (*models.Tag, error) {
	var tag models.Tag
	if err := r.DB.WithContext(ctx).First(&tag, id).Error; err != nil {
		return nil, err
	}
	return &tag, nil
}

// TagsByIDs returns the tags that exist among ids, ordered by name.
func (r *GormRepo) TagsByIDs(ctx context.Context, ids []uint) ([]models.Tag, error) {
	tags := []models.Tag{}
	if len(ids) == 0 {
		return tags, nil
	}
	if err := r.DB.WithContext(ctx).Where("id IN ?", ids).Order("name ASC").Find(&tags).Error; err != nil {
		return nil, err
	}
	return tags, nil
}

func (r *GormRepo) CreateTag(ctx context.Context, tag *models.Tag) error {
	return r.DB.WithContext(ctx).Create(tag).Error
}

func (r *GormRepo) UpdateTag(ctx context.Context, tag *models.Tag) error {
	res := r.DB.WithContext(ctx).Model(&models.Tag{ID: tag.ID}).
		Select("name", "slug").
		Updates(models.Tag{Name: tag.Name, Slug: tag.Slug})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *GormRepo) DeleteTag(ctx context.Context, id uint) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec("DELETE FROM post_tags WHERE tag_id = ?", id).Error; err != nil {
			return err
		}
		res := tx.Delete(&models.Tag{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}
