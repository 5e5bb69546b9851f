package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"equipment-system/internal/dto"
	"equipment-system/internal/events"
	"equipment-system/pkg/constants"
	apperrors "equipment-system/pkg/errors"
)

func TestNotificationFeed(t *testing.T) {
	env := newServiceEnv()
	ctx := context.Background()
	base := time.Now().Add(-time.Hour)

	saved := []events.NotificationEvent{
		events.NewNotification(constants.NotificationInvoice, "Поступление", "3 ед.", 1),
		events.NewNotification(constants.NotificationTransfer, "Перемещение", "2 ед.", 2),
		events.NewNotification(constants.NotificationTransfer, "Перемещение завершено", "2 ед.", 2),
	}
	for i := range saved {
		saved[i].CreatedAt = base.Add(time.Duration(i) * time.Minute)
		require.NoError(t, env.notifications.Save(ctx, saved[i]))
	}

	feed, err := env.notifications.GetFeed(ctx, "admin", 0)
	require.NoError(t, err)
	assert.Nil(t, feed.LastSeen)
	assert.Equal(t, 3, feed.UnreadTotal)
	assert.Equal(t, map[string]int{
		constants.NotificationInvoice:     1,
		constants.NotificationMaintenance: 0,
		constants.NotificationTransfer:    2,
	}, feed.Unread)
	require.Len(t, feed.Items, 3)
	assert.Equal(t, "Перемещение завершено", feed.Items[0].Title, "новые сверху")

	seenAt := base.Add(90 * time.Second)
	feed, err = env.notifications.MarkSeen(ctx, dto.MarkNotificationsSeenDTO{User: "admin", SeenAt: &seenAt})
	require.NoError(t, err)
	require.NotNil(t, feed.LastSeen)
	assert.Equal(t, 1, feed.UnreadTotal)
	assert.Equal(t, 1, feed.Unread[constants.NotificationTransfer])
	assert.Equal(t, 0, feed.Unread[constants.NotificationInvoice])

	// курсор у каждого пользователя свой
	other, err := env.notifications.GetFeed(ctx, "manager", 10)
	require.NoError(t, err)
	assert.Equal(t, 3, other.UnreadTotal)

	_, err = env.notifications.GetFeed(ctx, "", 10)
	assert.ErrorIs(t, err, apperrors.ErrBadRequest)
}

func TestNotificationFeed_BrokenCursor(t *testing.T) {
	env := newServiceEnv()
	ctx := context.Background()

	require.NoError(t, env.notifications.Save(ctx, events.NewNotification(constants.NotificationMaintenance, "Ремонт", "#1", 1)))
	env.cache.data["notifications:cursor:admin"] = "вчера"

	feed, err := env.notifications.GetFeed(ctx, "admin", 10)
	require.NoError(t, err)
	assert.Nil(t, feed.LastSeen)
	assert.Equal(t, 1, feed.Unread[constants.NotificationMaintenance])
}
