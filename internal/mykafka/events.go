package mykafka

import (
	"context"
	"strconv"
	"time"

	"github.com/Skotchmaster/blog_api/internal/logging"
)

const (
	TopicPosts    = "post_events"
	TopicUsers    = "user_events"
	TopicComments = "comment_events"
)

// Event types.
const (
	PostCreated    = "post_created"
	PostUpdated    = "post_updated"
	PostPublished  = "post_published"
	PostHidden     = "post_hidden"
	PostDeleted    = "post_deleted"
	UserSignedUp   = "user_signed_up"
	UserUpdated    = "user_updated"
	UserDeleted    = "user_deleted"
	CommentCreated = "comment_created"
	CommentUpdated = "comment_updated"
	CommentDeleted = "comment_deleted"
)

type Event struct {
	Type    string    `json:"type"`
	ID      uint      `json:"id"`
	ActorID uint      `json:"actorId,omitempty"`
	At      time.Time `json:"at"`
	Data    any       `json:"data,omitempty"`
}

// Emit publishes ev keyed by its entity id. Failures are logged, never returned.
func Emit(ctx context.Context, p Publisher, topic string, ev Event) {
	if p == nil {
		return
	}
	if ev.At.IsZero() {
		ev.At = time.Now().UTC()
	}
	if err := p.PublishEvent(ctx, topic, strconv.FormatUint(uint64(ev.ID), 10), ev); err != nil {
		logging.FromContext(ctx).Error("event_publish_failed", "topic", topic, "type", ev.Type, "error", err)
	}
}
