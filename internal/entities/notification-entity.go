package entities

import "time"

type Notification struct {
	ID        uint64
	Type      string
	Title     string
	Message   string
	RefID     *uint64
	CreatedAt time.Time
}
