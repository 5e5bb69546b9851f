package listeners

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"equipment-system/internal/dto"
	"equipment-system/internal/events"
	"equipment-system/pkg/constants"
	"equipment-system/pkg/eventbus"
)

type recordingNotificationService struct {
	mu    sync.Mutex
	saved []events.NotificationEvent
	err   error
}

func (s *recordingNotificationService) Save(_ context.Context, event events.NotificationEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.saved = append(s.saved, event)
	return nil
}

func (s *recordingNotificationService) GetFeed(context.Context, string, uint64) (*dto.NotificationFeedDTO, error) {
	return nil, nil
}

func (s *recordingNotificationService) MarkSeen(context.Context, dto.MarkNotificationsSeenDTO) (*dto.NotificationFeedDTO, error) {
	return nil, nil
}

type otherEvent struct{}

func (otherEvent) Name() string { return "equipment.other" }

func TestNotificationListener_SavesPublishedEvents(t *testing.T) {
	service := &recordingNotificationService{}
	bus := eventbus.New(zap.NewNop())
	NewNotificationListener(service, zap.NewNop()).Register(bus)

	bus.Publish(context.Background(), events.NewNotification(constants.NotificationTransfer, "Перемещение", "2 ед.", 7))
	bus.Publish(context.Background(), otherEvent{})
	bus.Wait()

	require.Len(t, service.saved, 1)
	assert.Equal(t, constants.NotificationTransfer, service.saved[0].Type)
	require.NotNil(t, service.saved[0].RefID)
	assert.Equal(t, uint64(7), *service.saved[0].RefID)
}

func TestNotificationListener_ReportsErrors(t *testing.T) {
	listener := NewNotificationListener(&recordingNotificationService{err: errors.New("db down")}, zap.NewNop())

	err := listener.handleNotification(context.Background(), events.NewNotification(constants.NotificationInvoice, "Поступление", "", 1))
	assert.ErrorContains(t, err, "db down")

	err = listener.handleNotification(context.Background(), otherEvent{})
	assert.Error(t, err)
}
