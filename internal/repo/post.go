package repo

import (
	"context"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/Skotchmaster/blog_api/internal/models"
)

type PostFilter struct {
	Offset int
	Limit  int

	// TagSlugs keeps posts carrying at least one of the tags.
	TagSlugs []string

	// Query matches title and description, case-insensitively.
	Query string

	// Drafts selects unpublished posts instead of published ones.
	Drafts   bool
	AuthorID uint
}

func (r *GormRepo) postQuery(ctx context.Context) *gorm.DB {
	return r.DB.WithContext(ctx).
		Preload("Author", publicAuthor).
		Preload("Tags", func(db *gorm.DB) *gorm.DB { return db.Order("tags.name ASC") })
}

func applyPostFilter(db *gorm.DB, f PostFilter) *gorm.DB {
	if f.Drafts {
		db = db.Where("posts.published_at IS NULL")
	} else {
		db = db.Where("posts.published_at IS NOT NULL")
	}
	if f.AuthorID != 0 {
		db = db.Where("posts.author_id = ?", f.AuthorID)
	}
	if len(f.TagSlugs) > 0 {
		tagged := db.Session(&gorm.Session{NewDB: true}).
			Table("post_tags").
			Select("post_tags.post_id").
			Joins("JOIN tags ON tags.id = post_tags.tag_id").
			Where("tags.slug IN ?", f.TagSlugs)
		db = db.Where("posts.id IN (?)", tagged)
	}
	if q := strings.TrimSpace(f.Query); q != "" {
		like := "%" + strings.ToLower(q) + "%"
		db = db.Where("LOWER(posts.title) LIKE ? OR LOWER(posts.description) LIKE ?", like, like)
	}
	return db
}

func (r *GormRepo) ListPosts(ctx context.Context, f PostFilter) (int64, []models.Post, error) {
	var total int64
	if err := applyPostFilter(r.DB.WithContext(ctx).Model(&models.Post{}), f).Count(&total).Error; err != nil {
		return 0, nil, err
	}

	items := make([]models.Post, 0, f.Limit)
	if err := applyPostFilter(r.postQuery(ctx).Model(&models.Post{}), f).
		Order("posts.created_at DESC").Order("posts.id DESC").
		Offset(f.Offset).Limit(f.Limit).
		Find(&items).Error; err != nil {
		return 0, nil, err
	}

	if err := r.fillCommentCounts(ctx, items); err != nil {
		return 0, nil, err
	}
	return total, items, nil
}

func (r *GormRepo) PostByID(ctx context.Context, id uint) (*models.Post, error) {
	var post models.Post
	if err := r.postQuery(ctx).First(&post, id).Error; err != nil {
		return nil, err
	}
	posts := []models.Post{post}
	if err := r.fillCommentCounts(ctx, posts); err != nil {
		return nil, err
	}
	return &posts[0], nil
}

func (r *GormRepo) fillCommentCounts(ctx context.Context, posts []models.Post) error {
	if len(posts) == 0 {
		return nil
	}
	ids := make([]uint, len(posts))
	for i := range posts {
		ids[i] = posts[i].ID
	}

	var rows []struct {
		PostID uint
		Count  int64
	}
	if err := r.DB.WithContext(ctx).Model(&models.Comment{}).
		Select("post_id, COUNT(*) AS count").
		Where("post_id IN ?", ids).
		Group("post_id").
		Scan(&rows).Error; err != nil {
		return err
	}

	counts := make(map[uint]int64, len(rows))
	for _, row := range rows {
		counts[row.PostID] = row.Count
	}
	for i := range posts {
		posts[i].CommentsCount = counts[posts[i].ID]
	}
	return nil
}

// CreatePost inserts p and links it to tags.
func (r *GormRepo) CreatePost(ctx context.Context, p *models.Post, tags []models.Tag) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Tags", "Author").Create(p).Error; err != nil {
			return err
		}
		if len(tags) == 0 {
			return nil
		}
		return tx.Model(p).Association("Tags").Replace(tags)
	})
}

// UpdatePost overwrites the editable fields of p and its tag set.
func (r *GormRepo) UpdatePost(ctx context.Context, p *models.Post, tags []models.Tag) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Post{ID: p.ID}).
			Select("title", "description", "body", "reading_time", "updated_at").
			Updates(models.Post{
				Title:       p.Title,
				Description: p.Description,
				Body:        p.Body,
				ReadingTime: p.ReadingTime,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		assoc := tx.Model(&models.Post{ID: p.ID}).Association("Tags")
		if len(tags) == 0 {
			return assoc.Clear()
		}
		return assoc.Replace(tags)
	})
}

// SetPublished sets or clears the publication time. A nil at hides the post.
func (r *GormRepo) SetPublished(ctx context.Context, id uint, at *time.Time) error {
	res := r.DB.WithContext(ctx).Model(&models.Post{}).Where("id = ?", id).Update("published_at", at)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *GormRepo) DeletePost(ctx context.Context, id uint) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("post_id = ?", id).Delete(&models.Comment{}).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.Post{ID: id}).Association("Tags").Clear(); err != nil {
			return err
		}
		res := tx.Delete(&models.Post{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}

// PublishedPostsByIDs loads published posts in the order of ids. Unknown or hidden ids
// are skipped.
func (r *GormRepo) PublishedPostsByIDs(ctx context.Context, ids []uint) ([]models.Post, error) {
	if len(ids) == 0 {
		return []models.Post{}, nil
	}
	var found []models.Post
	if err := r.postQuery(ctx).
		Where("posts.id IN ? AND posts.published_at IS NOT NULL", ids).
		Find(&found).Error; err != nil {
		return nil, err
	}
	if err := r.fillCommentCounts(ctx, found); err != nil {
		return nil, err
	}

	byID := make(map[uint]models.Post, len(found))
	for _, p := range found {
		byID[p.ID] = p
	}
	out := make([]models.Post, 0, len(found))
	for _, id := range ids {
		if p, ok := byID[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}
