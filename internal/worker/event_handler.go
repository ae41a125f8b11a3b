// Package worker consumes user lifecycle events off the queue.
package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/oksasatya/go-user-management/internal/application"
	"github.com/oksasatya/go-user-management/internal/domain/entity"
	"github.com/oksasatya/go-user-management/pkg/mailer"
	"github.com/oksasatya/go-user-management/pkg/mailer/templates"
)

// ErrMalformed marks a message that can never be processed and must not be requeued.
var ErrMalformed = errors.New("malformed event")

// Indexer is satisfied by *search.UserIndex.
type Indexer interface {
	Put(ctx context.Context, u entity.PublicUser) error
}

// Sender is satisfied by *mailer.Mailgun.
type Sender interface {
	SendJob(ctx context.Context, job mailer.EmailJob) error
}

// EventHandler indexes users and sends notification mail. Index and Mail may be nil.
type EventHandler struct {
	Index       Indexer
	Mail        Sender
	CompanyName string
	LoginURL    string
	Logger      *logrus.Logger
}

// Handle processes one message body. Errors other than ErrMalformed are worth a retry.
func (h *EventHandler) Handle(ctx context.Context, body []byte) error {
	var evt application.UserEvent
	if err := json.Unmarshal(body, &evt); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if evt.User.ID == "" {
		return fmt.Errorf("%w: missing user id", ErrMalformed)
	}

	var tpl string
	switch evt.Type {
	case application.EventUserRegistered:
		tpl = templates.Welcome
	case application.EventUserBlocked:
		tpl = templates.AccountBlocked
	default:
		return fmt.Errorf("%w: unknown type %q", ErrMalformed, evt.Type)
	}

	log := h.Logger.WithFields(logrus.Fields{"event": evt.Type, "user_id": evt.User.ID})

	if h.Index != nil {
		if err := h.Index.Put(ctx, evt.User); err != nil {
			return fmt.Errorf("index user: %w", err)
		}
		log.Debug("user indexed")
	}

	if h.Mail != nil && evt.User.Email != "" {
		job := mailer.EmailJob{
			To:       evt.User.Email,
			Template: tpl,
			Data: templates.NewEmailData(tpl, evt.User.FullName, evt.User.Email,
				templates.WithTime(evt.OccurredAt),
				templates.WithCompany(h.CompanyName),
				templates.WithLoginURL(h.LoginURL)),
		}
		if err := h.Mail.SendJob(ctx, job); err != nil {
			return fmt.Errorf("send %s: %w", tpl, err)
		}
		log.Info("notification sent")
	}
	return nil
}
