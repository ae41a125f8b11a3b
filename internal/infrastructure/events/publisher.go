// Package events ships user lifecycle events to the message broker.
package events

import (
	"context"
	"time"

	"github.com/oksasatya/go-user-management/internal/application"
)

const publishTimeout = 2 * time.Second

// JSONPublisher is satisfied by *helpers.RabbitPublisher.
type JSONPublisher interface {
	PublishJSON(ctx context.Context, msgType string, body any) error
}

// Publisher implements application.EventPublisher on top of a queue.
type Publisher struct {
	queue JSONPublisher
}

func NewPublisher(queue JSONPublisher) *Publisher {
	return &Publisher{queue: queue}
}

func (p *Publisher) Publish(ctx context.Context, evt application.UserEvent) error {
	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()
	return p.queue.PublishJSON(ctx, evt.Type, evt)
}

var _ application.EventPublisher = (*Publisher)(nil)
