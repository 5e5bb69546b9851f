package dto

import "time"

type NotificationDTO struct {
	ID        uint64  `json:"id"`
	Type      string  `json:"type"`
	Title     string  `json:"title"`
	Message   string  `json:"message"`
	RefID     *uint64 `json:"ref_id"`
	CreatedAt string  `json:"created_at"`
}

// NotificationFeedDTO - лента уведомлений пользователя с количеством непрочитанных по типам.
type NotificationFeedDTO struct {
	LastSeen    *string           `json:"last_seen"`
	Unread      map[string]int    `json:"unread"`
	UnreadTotal int               `json:"unread_total"`
	Items       []NotificationDTO `json:"items"`
}

type MarkNotificationsSeenDTO struct {
	User   string     `json:"user" validate:"required,max=255"`
	SeenAt *time.Time `json:"seen_at,omitempty"`
}
