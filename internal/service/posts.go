package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/Skotchmaster/blog_api/internal/apperr"
	"github.com/Skotchmaster/blog_api/internal/es"
	"github.com/Skotchmaster/blog_api/internal/logging"
	"github.com/Skotchmaster/blog_api/internal/models"
	"github.com/Skotchmaster/blog_api/internal/mykafka"
	"github.com/Skotchmaster/blog_api/internal/repo"
	"github.com/Skotchmaster/blog_api/internal/util"
)

const wordsPerMinute = 200

const indexTimeout = 3 * time.Second

var errPostNotFound = apperr.NotFound("Post not found")

// PostIndexer keeps the search index in step with published posts. *es.PostIndex
// implements it.
type PostIndexer interface {
	IndexPost(ctx context.Context, doc es.PostDocument) error
	DeletePost(ctx context.Context, id uint) error
}

type PostService struct {
	Repo   *repo.GormRepo
	Events mykafka.Publisher
	Index  PostIndexer
	Now    func() time.Time
}

type PostInput struct {
	Title       string
	Description string
	Body        string
	TagIDs      []uint
}

type ListPostsInput struct {
	Page        int
	PageSize    int
	TagSlugs    []string
	Query       string
	Unpublished bool
	AuthorID    uint
}

// ReadingTime is the whole number of minutes needed to read body, at least one.
func ReadingTime(body string) int {
	words := len(strings.Fields(body))
	minutes := int(math.Ceil(float64(words) / wordsPerMinute))
	if minutes < 1 {
		return 1
	}
	return minutes
}

func (s *PostService) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

// CanView reports whether viewer may see p. Drafts are visible to their author and to
// holders of UPDATE.
func CanView(p *models.Post, viewer *models.User) bool {
	if p.Published() {
		return true
	}
	if viewer == nil {
		return false
	}
	return viewer.ID == p.AuthorID || viewer.Can(models.PermUpdate)
}

func (s *PostService) List(ctx context.Context, in ListPostsInput, viewer *models.User) (util.Page[models.Post], error) {
	if in.Unpublished && (viewer == nil || !viewer.Can(models.PermUpdate)) {
		return util.Page[models.Post]{}, apperr.Forbidden("Listing unpublished posts requires the UPDATE permission")
	}

	from, limit := util.Calculate(in.Page, in.PageSize)
	total, items, err := s.Repo.ListPosts(ctx, repo.PostFilter{
		Offset:   from,
		Limit:    limit,
		TagSlugs: in.TagSlugs,
		Query:    in.Query,
		Drafts:   in.Unpublished,
		AuthorID: in.AuthorID,
	})
	if err != nil {
		return util.Page[models.Post]{}, err
	}
	return util.Page[models.Post]{Data: items, Meta: util.NewMeta(in.Page, in.PageSize, total)}, nil
}

// Get returns the post when viewer may see it. Invisible drafts look like missing posts.
func (s *PostService) Get(ctx context.Context, id uint, viewer *models.User) (*models.Post, error) {
	post, err := s.Repo.PostByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errPostNotFound
		}
		return nil, err
	}
	if !CanView(post, viewer) {
		return nil, errPostNotFound
	}
	return post, nil
}

func (s *PostService) resolveTags(ctx context.Context, ids []uint) ([]models.Tag, error) {
	unique := make([]uint, 0, len(ids))
	seen := make(map[uint]struct{}, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; !ok {
			seen[id] = struct{}{}
			unique = append(unique, id)
		}
	}

	tags, err := s.Repo.TagsByIDs(ctx, unique)
	if err != nil {
		return nil, err
	}
	if len(tags) != len(unique) {
		return nil, apperr.Validation(map[string]string{"tags": "Unknown tag"})
	}
	return tags, nil
}

func (s *PostService) Create(ctx context.Context, author *models.User, in PostInput) (*models.Post, error) {
	l := logging.FromContext(ctx).With("svc", "posts.create")

	tags, err := s.resolveTags(ctx, in.TagIDs)
	if err != nil {
		return nil, err
	}

	post := &models.Post{
		Title:       in.Title,
		Description: in.Description,
		Body:        in.Body,
		ReadingTime: ReadingTime(in.Body),
		AuthorID:    author.ID,
	}
	if err := s.Repo.CreatePost(ctx, post, tags); err != nil {
		return nil, err
	}

	l.Info("post_created", "post_id", post.ID, "author_id", author.ID)
	mykafka.Emit(ctx, s.Events, mykafka.TopicPosts, mykafka.Event{Type: mykafka.PostCreated, ID: post.ID, ActorID: author.ID})
	return s.Repo.PostByID(ctx, post.ID)
}

func (s *PostService) Update(ctx context.Context, actor *models.User, id uint, in PostInput) (*models.Post, error) {
	tags, err := s.resolveTags(ctx, in.TagIDs)
	if err != nil {
		return nil, err
	}

	post := &models.Post{
		ID:          id,
		Title:       in.Title,
		Description: in.Description,
		Body:        in.Body,
		ReadingTime: ReadingTime(in.Body),
	}
	if err := s.Repo.UpdatePost(ctx, post, tags); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errPostNotFound
		}
		return nil, err
	}

	updated, err := s.Repo.PostByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if updated.Published() {
		s.index(ctx, updated)
	}

	logging.FromContext(ctx).Info("post_updated", "post_id", id, "actor_id", actor.ID)
	mykafka.Emit(ctx, s.Events, mykafka.TopicPosts, mykafka.Event{Type: mykafka.PostUpdated, ID: id, ActorID: actor.ID})
	return updated, nil
}

// Publish stamps the publication time. Publishing an already published post keeps the
// original time.
func (s *PostService) Publish(ctx context.Context, actor *models.User, id uint) (*models.Post, error) {
	post, err := s.Repo.PostByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errPostNotFound
		}
		return nil, err
	}
	if !post.Published() {
		at := s.now()
		if err := s.Repo.SetPublished(ctx, id, &at); err != nil {
			return nil, err
		}
		post.PublishedAt = &at
	}
	s.index(ctx, post)

	logging.FromContext(ctx).Info("post_published", "post_id", id, "actor_id", actor.ID)
	mykafka.Emit(ctx, s.Events, mykafka.TopicPosts, mykafka.Event{Type: mykafka.PostPublished, ID: id, ActorID: actor.ID})
	return post, nil
}

func (s *PostService) Hide(ctx context.Context, actor *models.User, id uint) (*models.Post, error) {
	if err := s.Repo.SetPublished(ctx, id, nil); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errPostNotFound
		}
		return nil, err
	}
	unindex(ctx, s.Index, id)

	logging.FromContext(ctx).Info("post_hidden", "post_id", id, "actor_id", actor.ID)
	mykafka.Emit(ctx, s.Events, mykafka.TopicPosts, mykafka.Event{Type: mykafka.PostHidden, ID: id, ActorID: actor.ID})
	return s.Repo.PostByID(ctx, id)
}

func (s *PostService) Delete(ctx context.Context, actor *models.User, id uint) error {
	if err := s.Repo.DeletePost(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return errPostNotFound
		}
		return err
	}
	unindex(ctx, s.Index, id)

	logging.FromContext(ctx).Info("post_deleted", "post_id", id, "actor_id", actor.ID)
	mykafka.Emit(ctx, s.Events, mykafka.TopicPosts, mykafka.Event{Type: mykafka.PostDeleted, ID: id, ActorID: actor.ID})
	return nil
}

func (s *PostService) index(ctx context.Context, p *models.Post) {
	if s.Index == nil {
		return
	}
	ictx, cancel := context.WithTimeout(ctx, indexTimeout)
	defer cancel()
	if err := s.Index.IndexPost(ictx, es.NewPostDocument(p)); err != nil {
		logging.FromContext(ctx).Error("post_index_failed", "post_id", p.ID, "error", err)
	}
}

func unindex(ctx context.Context, idx PostIndexer, id uint) {
	if idx == nil {
		return
	}
	ictx, cancel := context.WithTimeout(ctx, indexTimeout)
	defer cancel()
	if err := idx.DeletePost(ictx, id); err != nil {
		logging.FromContext(ctx).Error("post_unindex_failed", "post_id", id, "error", fmt.Errorf("remove from index: %w", err))
	}
}
