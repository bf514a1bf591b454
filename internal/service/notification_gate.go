package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/d60-Lab/relation-engine/internal/model"
	"github.com/d60-Lab/relation-engine/internal/repository"
	"github.com/d60-Lab/relation-engine/pkg/logger"
)

// Event is one notification candidate. PrimaryRef is usually the acting
// account, SecondaryRef the object acted on (request, match).
type Event struct {
	Recipient    string
	Type         model.NotificationType
	Message      string
	PrimaryRef   string
	SecondaryRef string
	ContextID    string
}

// NotificationGate filters events through the recipient's preferences and
// persists the ones that pass. Suppression is not an error.
type NotificationGate struct {
	store *repository.Store
	now   func() time.Time
}

func NewNotificationGate(store *repository.Store) *NotificationGate {
	return &NotificationGate{store: store, now: time.Now}
}

// Notify runs Notify inside its own transaction.
func (g *NotificationGate) Notify(ctx context.Context, ev Event) (*model.Notification, error) {
	var out *model.Notification
	err := g.store.Transaction(ctx, func(tx *repository.Store) error {
		n, err := g.NotifyTx(ctx, tx, ev)
		out = n
		return err
	})
	return out, err
}

// NotifyTx persists through tx so the notification commits with the state change that caused it.
func (g *NotificationGate) NotifyTx(ctx context.Context, tx *repository.Store, ev Event) (*model.Notification, error) {
	ctx, span := tracer.Start(ctx, "NotificationGate.Notify")
	defer span.End()
	span.SetAttributes(attribute.String("notification.type", string(ev.Type)))

	pref, err := tx.Preferences.GetOrCreate(ctx, ev.Recipient)
	if err != nil {
		return nil, err
	}
	if !pref.Allows(ev.Type) {
		logger.Debug("notification suppressed by preference",
			zap.String("recipient", ev.Recipient), zap.String("type", string(ev.Type)))
		span.SetAttributes(attribute.Bool("notification.suppressed", true))
		return nil, nil
	}
	n := &model.Notification{
		RecipientID:    ev.Recipient,
		Type:           ev.Type,
		Message:        ev.Message,
		PrimaryRefID:   ev.PrimaryRef,
		SecondaryRefID: ev.SecondaryRef,
		ContextID:      ev.ContextID,
		CreatedAt:      g.now(),
	}
	if err := tx.Notifications.Create(ctx, n); err != nil {
		return nil, err
	}
	return n, nil
}

func (g *NotificationGate) Preferences(ctx context.Context, userID string) (*model.NotificationPreference, error) {
	return g.store.Preferences.GetOrCreate(ctx, userID)
}

func (g *NotificationGate) UpdatePreferences(ctx context.Context, userID string, patch model.PreferencePatch) (*model.NotificationPreference, error) {
	var out *model.NotificationPreference
	err := g.store.Transaction(ctx, func(tx *repository.Store) error {
		p, err := tx.Preferences.Update(ctx, userID, patch)
		out = p
		return err
	})
	return out, err
}

func (g *NotificationGate) List(ctx context.Context, userID string, unreadOnly bool, page, pageSize int) ([]*model.Notification, error) {
	offset, limit := paginate(page, pageSize)
	return g.store.Notifications.List(ctx, userID, unreadOnly, offset, limit)
}

func (g *NotificationGate) UnreadCount(ctx context.Context, userID string) (int64, error) {
	return g.store.Notifications.CountUnread(ctx, userID)
}

// MarkRead flips the read flag; only the recipient may do it.
func (g *NotificationGate) MarkRead(ctx context.Context, userID, notificationID string) error {
	n, err := g.store.Notifications.Get(ctx, notificationID)
	if err != nil {
		return mapNotFound(err, "notification", notificationID)
	}
	if n.RecipientID != userID {
		return fmt.Errorf("%w: notification %s belongs to another account", ErrForbidden, notificationID)
	}
	if n.Read {
		return nil
	}
	return g.store.Notifications.MarkRead(ctx, notificationID, g.now())
}

func (g *NotificationGate) MarkAllRead(ctx context.Context, userID string) (int64, error) {
	return g.store.Notifications.MarkAllRead(ctx, userID, g.now())
}

// isRepoNotFound is shared by callers that treat a missing row as "no".
func isRepoNotFound(err error) bool { return errors.Is(err, repository.ErrNotFound) }
