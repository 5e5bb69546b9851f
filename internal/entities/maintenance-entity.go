package entities

import (
	"time"

	"github.com/shopspring/decimal"

	"equipment-system/pkg/constants"
	"equipment-system/pkg/types"
)

type MaintenanceRecord struct {
	ID          uint64
	UnitID      uint64
	Status      string
	RequestedBy *string
	Technician  *string
	DateStart   *time.Time
	DateEnd     *time.Time
	Cost        *decimal.Decimal
	Note        *string
	Result      *string
	ApprovedBy  *string

	types.BaseEntity
}

type MaintenancePlan struct {
	ID                  uint64
	UnitID              uint64
	Frequency           constants.Frequency
	NextMaintenanceDate time.Time
	LastMaintenanceDate *time.Time
	Note                *string
	CreatedBy           *string

	types.BaseEntity
}
