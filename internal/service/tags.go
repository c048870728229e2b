package service

import (
	"context"
	"errors"
	"strings"
	"unicode"

	"gorm.io/gorm"

	"github.com/Skotchmaster/blog_api/internal/apperr"
	"github.com/Skotchmaster/blog_api/internal/logging"
	"github.com/Skotchmaster/blog_api/internal/models"
	"github.com/Skotchmaster/blog_api/internal/repo"
)

var errTagNotFound = apperr.NotFound("Tag not found")

type TagService struct {
	Repo *repo.GormRepo
}

// Slugify lowercases name and joins its letter and digit runs with dashes.
func Slugify(name string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(name) {
		if r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)) {
			if dash && b.Len() > 0 {
				b.WriteByte('-')
			}
			b.WriteRune(r)
			dash = false
			continue
		}
		dash = true
	}
	return b.String()
}

func tagFrom(name, slug string) (models.Tag, error) {
	if slug == "" {
		slug = Slugify(name)
	}
	if slug == "" {
		return models.Tag{}, apperr.Validation(map[string]string{"slug": "Required"})
	}
	return models.Tag{Name: name, Slug: slug}, nil
}

func (s *TagService) List(ctx context.Context) ([]models.Tag, error) {
	return s.Repo.ListTags(ctx)
}

func (s *TagService) Get(ctx context.Context, id uint) (*models.Tag, error) {
	tag, err := s.Repo.TagByID(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errTagNotFound
	}
	return tag, err
}

func (s *TagService) Create(ctx context.Context, name, slug string) (*models.Tag, error) {
	tag, err := tagFrom(name, slug)
	if err != nil {
		return nil, err
	}
	if err := s.Repo.CreateTag(ctx, &tag); err != nil {
		return nil, err
	}
	logging.FromContext(ctx).Info("tag_created", "tag_id", tag.ID, "slug", tag.Slug)
	return &tag, nil
}

func (s *TagService) Update(ctx context.Context, id uint, name, slug string) (*models.Tag, error) {
	tag, err := tagFrom(name, slug)
	if err != nil {
		return nil, err
	}
	tag.ID = id
	if err := s.Repo.UpdateTag(ctx, &tag); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errTagNotFound
		}
		return nil, err
	}
	return &tag, nil
}

func (s *TagService) Delete(ctx context.Context, id uint) error {
	if err := s.Repo.DeleteTag(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return errTagNotFound
		}
		return err
	}
	logging.FromContext(ctx).Info("tag_deleted", "tag_id", id)
	return nil
}
