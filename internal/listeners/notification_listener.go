package listeners

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"equipment-system/internal/events"
	"equipment-system/internal/services"
	"equipment-system/pkg/eventbus"
)

// NotificationListener сохраняет уведомления процессов в ленту.
type NotificationListener struct {
	notificationService services.NotificationServiceInterface
	logger              *zap.Logger
}

func NewNotificationListener(
	notificationService services.NotificationServiceInterface,
	logger *zap.Logger,
) *NotificationListener {
	return &NotificationListener{
		notificationService: notificationService,
		logger:              logger,
	}
}

func (l *NotificationListener) Register(bus *eventbus.Bus) {
	bus.Subscribe(events.NotificationCreated, l.handleNotification)
	l.logger.Info("NotificationListener подписан на событие", zap.String("event", events.NotificationCreated))
}

func (l *NotificationListener) handleNotification(ctx context.Context, e eventbus.Event) error {
	event, ok := e.(events.NotificationEvent)
	if !ok {
		return fmt.Errorf("неожиданный тип события %T", e)
	}
	if err := l.notificationService.Save(ctx, event); err != nil {
		return fmt.Errorf("не удалось сохранить уведомление '%s': %w", event.Title, err)
	}
	l.logger.Debug("Уведомление сохранено", zap.String("type", event.Type), zap.String("title", event.Title))
	return nil
}
