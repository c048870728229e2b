package service

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/Skotchmaster/blog_api/internal/apperr"
	"github.com/Skotchmaster/blog_api/internal/logging"
	"github.com/Skotchmaster/blog_api/internal/models"
	"github.com/Skotchmaster/blog_api/internal/mykafka"
	"github.com/Skotchmaster/blog_api/internal/repo"
	"github.com/Skotchmaster/blog_api/internal/util"
)

var errCommentNotFound = apperr.NotFound("Comment not found")

type CommentService struct {
	Repo   *repo.GormRepo
	Posts  *PostService
	Events mykafka.Publisher
}

func (s *CommentService) List(ctx context.Context, postID uint, page, size int, viewer *models.User) (util.Page[models.Comment], error) {
	if _, err := s.Posts.Get(ctx, postID, viewer); err != nil {
		return util.Page[models.Comment]{}, err
	}
	from, limit := util.Calculate(page, size)
	total, items, err := s.Repo.ListComments(ctx, postID, from, limit)
	if err != nil {
		return util.Page[models.Comment]{}, err
	}
	return util.Page[models.Comment]{Data: items, Meta: util.NewMeta(page, size, total)}, nil
}

// Create adds a comment to a published post.
func (s *CommentService) Create(ctx context.Context, author *models.User, postID uint, body string) (*models.Comment, error) {
	post, err := s.Posts.Get(ctx, postID, author)
	if err != nil {
		return nil, err
	}
	if !post.Published() {
		return nil, apperr.Forbidden("Unpublished posts do not accept comments")
	}

	comment := &models.Comment{Body: body, PostID: postID, AuthorID: author.ID}
	if err := s.Repo.CreateComment(ctx, comment); err != nil {
		return nil, err
	}

	logging.FromContext(ctx).Info("comment_created", "comment_id", comment.ID, "post_id", postID, "author_id", author.ID)
	mykafka.Emit(ctx, s.Events, mykafka.TopicComments, mykafka.Event{
		Type: mykafka.CommentCreated, ID: comment.ID, ActorID: author.ID,
		Data: map[string]any{"postId": postID},
	})
	return s.Repo.CommentByID(ctx, comment.ID)
}

// owned loads the comment and checks actor is its author or holds p.
func (s *CommentService) owned(ctx context.Context, actor *models.User, id uint, p models.PermissionType) (*models.Comment, error) {
	comment, err := s.Repo.CommentByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errCommentNotFound
		}
		return nil, err
	}
	if comment.AuthorID != actor.ID && !actor.Can(p) {
		logging.FromContext(ctx).Warn("comment_access_denied", "comment_id", id, "actor_id", actor.ID, "permission", p)
		return nil, apperr.Forbidden("")
	}
	return comment, nil
}

func (s *CommentService) Update(ctx context.Context, actor *models.User, id uint, body string) (*models.Comment, error) {
	if _, err := s.owned(ctx, actor, id, models.PermUpdate); err != nil {
		return nil, err
	}
	if err := s.Repo.UpdateComment(ctx, id, body); err != nil {
		return nil, err
	}
	mykafka.Emit(ctx, s.Events, mykafka.TopicComments, mykafka.Event{Type: mykafka.CommentUpdated, ID: id, ActorID: actor.ID})
	return s.Repo.CommentByID(ctx, id)
}

func (s *CommentService) Delete(ctx context.Context, actor *models.User, id uint) error {
	comment, err := s.owned(ctx, actor, id, models.PermDelete)
	if err != nil {
		return err
	}
	if err := s.Repo.DeleteComment(ctx, id); err != nil {
		return err
	}
	mykafka.Emit(ctx, s.Events, mykafka.TopicComments, mykafka.Event{
		Type: mykafka.CommentDeleted, ID: id, ActorID: actor.ID,
		Data: map[string]any{"postId": comment.PostID},
	})
	return nil
}
