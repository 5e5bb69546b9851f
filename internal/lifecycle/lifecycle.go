// Package lifecycle описывает статусы единицы оборудования и допустимые переходы между ними.
package lifecycle

import (
	"fmt"
	"time"

	apperrors "equipment-system/pkg/errors"
)

type Status string

const (
	StatusInStock         Status = "IN_STOCK"
	StatusActive          Status = "ACTIVE"
	StatusTemporaryUrgent Status = "TEMPORARY_URGENT"
	StatusInProgress      Status = "IN_PROGRESS"
	StatusReady           Status = "READY"
	StatusFailed          Status = "FAILED"
	StatusMoving          Status = "MOVING"
	StatusDisposed        Status = "DISPOSED"
)

var allStatuses = []Status{
	StatusInStock, StatusActive, StatusTemporaryUrgent, StatusInProgress,
	StatusReady, StatusFailed, StatusMoving, StatusDisposed,
}

func Statuses() []Status {
	out := make([]Status, len(allStatuses))
	copy(out, allStatuses)
	return out
}

func ParseStatus(s string) (Status, bool) {
	for _, st := range allStatuses {
		if string(st) == s {
			return st, true
		}
	}
	return "", false
}

// Event - причина смены статуса.
type Event string

const (
	// EventReceived открывает историю единицы при приходе на склад и переходом не является.
	EventReceived             Event = "received"
	EventImportComplete       Event = "import_complete"
	EventUrgentRaised         Event = "urgent_raised"
	EventUrgentCleared        Event = "urgent_cleared"
	EventMaintenanceStarted   Event = "maintenance_started"
	EventMaintenanceSucceeded Event = "maintenance_succeeded"
	EventMaintenanceFailed    Event = "maintenance_failed"
	EventApproved             Event = "approved"
	EventTransferRequested    Event = "transfer_requested"
	EventTransferCompleted    Event = "transfer_completed"
	EventDisposalRequested    Event = "disposal_requested"
)

type edge struct {
	from  Status
	event Event
}

var transitions = map[edge][]Status{
	{StatusInStock, EventImportComplete}:             {StatusActive},
	{StatusActive, EventUrgentRaised}:                {StatusTemporaryUrgent},
	{StatusTemporaryUrgent, EventUrgentCleared}:      {StatusActive},
	{StatusTemporaryUrgent, EventMaintenanceStarted}: {StatusInProgress},
	{StatusInProgress, EventMaintenanceSucceeded}:    {StatusReady},
	{StatusInProgress, EventMaintenanceFailed}:       {StatusFailed},
	{StatusReady, EventApproved}:                     {StatusActive},
	{StatusFailed, EventApproved}:                    {StatusActive, StatusDisposed},
	{StatusActive, EventTransferRequested}:           {StatusMoving},
	{StatusInStock, EventTransferRequested}:          {StatusMoving},
	{StatusMoving, EventTransferCompleted}:           {StatusActive, StatusInStock},
	{StatusInStock, EventDisposalRequested}:          {StatusDisposed},
	{StatusActive, EventDisposalRequested}:           {StatusDisposed},
	{StatusTemporaryUrgent, EventDisposalRequested}:  {StatusDisposed},
	{StatusReady, EventDisposalRequested}:            {StatusDisposed},
	{StatusFailed, EventDisposalRequested}:           {StatusDisposed},
}

// Allowed сообщает, разрешён ли переход from --event--> to.
func Allowed(from Status, event Event, to Status) bool {
	for _, target := range transitions[edge{from, event}] {
		if target == to {
			return true
		}
	}
	return false
}

// CanApply сообщает, есть ли у статуса хоть один переход по событию.
func CanApply(from Status, event Event) bool {
	return len(transitions[edge{from, event}]) > 0
}

// Transition проверяет переход и возвращает ErrInvalidTransition, если его нет в таблице.
func Transition(from Status, event Event, to Status) error {
	if Allowed(from, event, to) {
		return nil
	}
	return apperrors.NewDomainError(apperrors.ErrInvalidTransition,
		"Нельзя перевести оборудование из статуса %s в %s (%s)", from, to, event)
}

// Next возвращает единственный целевой статус события или ошибку,
// если переход не определён или неоднозначен.
func Next(from Status, event Event) (Status, error) {
	targets := transitions[edge{from, event}]
	if len(targets) != 1 {
		return "", apperrors.NewDomainError(apperrors.ErrInvalidTransition,
			"Событие %s недопустимо для оборудования в статусе %s", event, from)
	}
	return targets[0], nil
}

func (s Status) String() string { return string(s) }

// Label - название статуса для уведомлений.
func (s Status) Label() string {
	switch s {
	case StatusInStock:
		return "На складе"
	case StatusActive:
		return "В работе"
	case StatusTemporaryUrgent:
		return "Требует ремонта"
	case StatusInProgress:
		return "В ремонте"
	case StatusReady:
		return "Отремонтировано"
	case StatusFailed:
		return "Ремонт не удался"
	case StatusMoving:
		return "Перемещается"
	case StatusDisposed:
		return "Списано"
	}
	return fmt.Sprintf("Неизвестный статус (%s)", string(s))
}

// InWarranty: дата on попадает в [start, start+years] включительно.
func InWarranty(start *time.Time, years int, on time.Time) bool {
	if start == nil || years <= 0 {
		return false
	}
	s := truncate(*start)
	d := truncate(on)
	end := s.AddDate(years, 0, 0)
	return !d.Before(s) && !d.After(end)
}

func truncate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
