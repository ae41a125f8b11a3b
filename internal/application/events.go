package application

import (
	"context"
	"time"

	"github.com/oksasatya/go-user-management/internal/domain/entity"
)

const (
	EventUserRegistered = "user.registered"
	EventUserBlocked    = "user.blocked"
)

// UserEvent is published after a state change of a user record.
type UserEvent struct {
	Type       string            `json:"type"`
	User       entity.PublicUser `json:"user"`
	OccurredAt time.Time         `json:"occurred_at"`
}

// EventPublisher delivers user events to an external broker.
type EventPublisher interface {
	Publish(ctx context.Context, evt UserEvent) error
}

// UserSearcher queries a secondary user index.
type UserSearcher interface {
	Search(ctx context.Context, query string, size int) ([]entity.PublicUser, error)
}
