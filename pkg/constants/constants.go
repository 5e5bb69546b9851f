// pkg/constants/constants.go
package constants

import "time"

//============== IMPORT ==============

const (
	// MaxImportQuantity - сколько единиц можно принять за один вызов импорта.
	MaxImportQuantity = 50
	// ImportTaxPercent - фиксированная надбавка к сумме накладной.
	ImportTaxPercent = 8
)

//============== WORKFLOWS ==============

// Процессы, которые держат блокировку единицы оборудования.
const (
	WorkflowMaintenance = "maintenance"
	WorkflowTransfer    = "transfer"
	WorkflowDisposal    = "disposal"
)

// Статусы заявок на ремонт.
const (
	MaintenancePending          = "PENDING"
	MaintenanceInProgress       = "IN_PROGRESS"
	MaintenanceAwaitingApproval = "AWAITING_APPROVAL"
	MaintenanceClosed           = "CLOSED"
	MaintenanceCancelled        = "CANCELLED"
)

// Результат закрытого ремонта.
const (
	ResultRepaired       = "REPAIRED"
	ResultFailedReturned = "FAILED_RETURNED"
	ResultFailedDisposed = "FAILED_DISPOSED"
	ResultCancelled      = "CANCELLED"
)

// Решение оператора при согласовании неудачного ремонта.
const (
	DecisionReturn  = "RETURN"
	DecisionDispose = "DISPOSE"
)

// Статусы перемещения между филиалами.
const (
	TransferMoving    = "MOVING"
	TransferCompleted = "COMPLETED"
)

// IsOpenMaintenance - заявка ещё держит единицу оборудования.
func IsOpenMaintenance(status string) bool {
	switch status {
	case MaintenancePending, MaintenanceInProgress, MaintenanceAwaitingApproval:
		return true
	}
	return false
}

//============== INVOICES ==============

const (
	InvoiceKindImport = "IMPORT"
)

//============== NOTIFICATIONS ==============

const (
	NotificationInvoice     = "invoice"
	NotificationMaintenance = "maintenance"
	NotificationTransfer    = "transfer"
)

//============== CACHE KEYS ==============

const (
	// Формат: notifications:cursor:<user> -> RFC3339 время последнего просмотра
	CacheKeyNotificationCursor = "notifications:cursor:%s"
)

//============== MAINTENANCE PLAN ==============

type Frequency string

const (
	FrequencyMonth      Frequency = "1_month"
	FrequencyThreeMonth Frequency = "3_months"
	FrequencySixMonth   Frequency = "6_months"
	FrequencyYear       Frequency = "1_year"
)

var frequencyMonths = map[Frequency]int{
	FrequencyMonth:      1,
	FrequencyThreeMonth: 3,
	FrequencySixMonth:   6,
	FrequencyYear:       12,
}

func ParseFrequency(s string) (Frequency, bool) {
	f := Frequency(s)
	_, ok := frequencyMonths[f]
	return f, ok
}

// Next возвращает дату следующего обслуживания после from.
func (f Frequency) Next(from time.Time) time.Time {
	return from.AddDate(0, frequencyMonths[f], 0)
}
