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
)

var errUserNotFound = apperr.NotFound("User not found")

func userNotFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return errUserNotFound
	}
	return err
}

type UserService struct {
	Repo   *repo.GormRepo
	Events mykafka.Publisher
	Index  PostIndexer
}

func (s *UserService) Get(ctx context.Context, id uint) (*models.User, error) {
	user, err := s.Repo.UserByID(ctx, id)
	if err != nil {
		return nil, userNotFound(err)
	}
	return user, nil
}

func (s *UserService) Update(ctx context.Context, actor *models.User, id uint, patch repo.UserPatch) (*models.User, error) {
	user, err := s.Repo.UpdateUser(ctx, id, patch)
	if err != nil {
		return nil, userNotFound(err)
	}
	logging.FromContext(ctx).Info("user_updated", "user_id", id, "actor_id", actor.ID)
	mykafka.Emit(ctx, s.Events, mykafka.TopicUsers, mykafka.Event{Type: mykafka.UserUpdated, ID: id, ActorID: actor.ID})
	return user, nil
}

func (s *UserService) Delete(ctx context.Context, actor *models.User, id uint) error {
	postIDs, err := s.Repo.DeleteUser(ctx, id)
	if err != nil {
		return userNotFound(err)
	}
	for _, pid := range postIDs {
		unindex(ctx, s.Index, pid)
	}
	logging.FromContext(ctx).Info("user_deleted", "user_id", id, "actor_id", actor.ID, "posts_removed", len(postIDs))
	mykafka.Emit(ctx, s.Events, mykafka.TopicUsers, mykafka.Event{Type: mykafka.UserDeleted, ID: id, ActorID: actor.ID})
	return nil
}
