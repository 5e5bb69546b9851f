package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"equipment-system/internal/dto"
	"equipment-system/internal/entities"
	"equipment-system/internal/events"
	"equipment-system/internal/repositories"
	"equipment-system/pkg/constants"
	apperrors "equipment-system/pkg/errors"
)

const (
	defaultFeedLimit = 50
	cursorTTL        = 90 * 24 * time.Hour
)

// NotificationServiceInterface - лента уведомлений. Доставка (почта, мессенджеры) сюда не входит.
type NotificationServiceInterface interface {
	Save(ctx context.Context, event events.NotificationEvent) error
	GetFeed(ctx context.Context, user string, limit uint64) (*dto.NotificationFeedDTO, error)
	MarkSeen(ctx context.Context, payload dto.MarkNotificationsSeenDTO) (*dto.NotificationFeedDTO, error)
}

type NotificationService struct {
	notificationRepository repositories.NotificationRepositoryInterface
	cache                  repositories.CacheRepositoryInterface
	logger                 *zap.Logger
}

func NewNotificationService(
	notificationRepository repositories.NotificationRepositoryInterface,
	cache repositories.CacheRepositoryInterface,
	logger *zap.Logger,
) NotificationServiceInterface {
	return &NotificationService{
		notificationRepository: notificationRepository,
		cache:                  cache,
		logger:                 logger,
	}
}

func (s *NotificationService) Save(ctx context.Context, event events.NotificationEvent) error {
	_, err := s.notificationRepository.CreateNotification(ctx, entities.Notification{
		Type:      event.Type,
		Title:     event.Title,
		Message:   event.Message,
		RefID:     event.RefID,
		CreatedAt: event.CreatedAt,
	})
	return err
}

// lastSeen читает курсор пользователя. Нет курсора - показываем всё.
func (s *NotificationService) lastSeen(ctx context.Context, user string) (*time.Time, error) {
	raw, err := s.cache.Get(ctx, fmt.Sprintf(constants.CacheKeyNotificationCursor, user))
	if errors.Is(err, apperrors.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	seen, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		s.logger.Warn("Повреждён курсор уведомлений, сбрасываем", zap.String("user", user), zap.String("value", raw))
		return nil, nil
	}
	return &seen, nil
}

func (s *NotificationService) GetFeed(ctx context.Context, user string, limit uint64) (*dto.NotificationFeedDTO, error) {
	if user == "" {
		return nil, apperrors.NewDomainError(apperrors.ErrBadRequest, "Не указан пользователь")
	}
	if limit == 0 {
		limit = defaultFeedLimit
	}

	since, err := s.lastSeen(ctx, user)
	if err != nil {
		return nil, err
	}
	counts, err := s.notificationRepository.CountByTypeSince(ctx, since)
	if err != nil {
		return nil, err
	}
	items, err := s.notificationRepository.GetNotifications(ctx, since, limit)
	if err != nil {
		return nil, err
	}

	feed := &dto.NotificationFeedDTO{
		Unread: map[string]int{
			constants.NotificationInvoice:     0,
			constants.NotificationMaintenance: 0,
			constants.NotificationTransfer:    0,
		},
		Items: make([]dto.NotificationDTO, 0, len(items)),
	}
	if since != nil {
		formatted := since.Format(time.RFC3339)
		feed.LastSeen = &formatted
	}
	for kind, n := range counts {
		feed.Unread[kind] = n
		feed.UnreadTotal += n
	}
	for _, n := range items {
		feed.Items = append(feed.Items, dto.NotificationDTO{
			ID:        n.ID,
			Type:      n.Type,
			Title:     n.Title,
			Message:   n.Message,
			RefID:     n.RefID,
			CreatedAt: n.CreatedAt.Format(timestampLayout),
		})
	}
	return feed, nil
}

// MarkSeen сдвигает курсор пользователя и возвращает обновлённую ленту.
func (s *NotificationService) MarkSeen(ctx context.Context, payload dto.MarkNotificationsSeenDTO) (*dto.NotificationFeedDTO, error) {
	seenAt := time.Now().UTC()
	if payload.SeenAt != nil {
		seenAt = payload.SeenAt.UTC()
	}
	key := fmt.Sprintf(constants.CacheKeyNotificationCursor, payload.User)
	if err := s.cache.Set(ctx, key, seenAt.Format(time.RFC3339Nano), cursorTTL); err != nil {
		return nil, err
	}
	return s.GetFeed(ctx, payload.User, defaultFeedLimit)
}
