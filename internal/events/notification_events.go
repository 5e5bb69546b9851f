package events

import "time"

const NotificationCreated = "equipment.notification.created"

// NotificationEvent - сообщение для ленты уведомлений. Публикуется только после коммита транзакции.
type NotificationEvent struct {
	Type      string
	Title     string
	Message   string
	RefID     *uint64
	CreatedAt time.Time
}

// Name - реализуем интерфейс eventbus.Event
func (e NotificationEvent) Name() string {
	return NotificationCreated
}

func NewNotification(kind, title, message string, refID uint64) NotificationEvent {
	return NotificationEvent{
		Type:      kind,
		Title:     title,
		Message:   message,
		RefID:     &refID,
		CreatedAt: time.Now(),
	}
}
