package dto

import (
	"github.com/aarondl/null/v8"
	"github.com/shopspring/decimal"

	"equipment-system/pkg/types"
)

// ----- Заявки на ремонт -----

type CreateMaintenanceRequestDTO struct {
	UnitID      uint64      `json:"unit_id" validate:"required,gt=0"`
	RequestedBy string      `json:"requested_by" validate:"required,max=255"`
	Note        null.String `json:"note,omitempty" validate:"omitempty,max=2000"`
}

type StartMaintenanceDTO struct {
	DateStart  types.Date `json:"date_start" validate:"required"`
	Technician string     `json:"technician" validate:"required,max=255"`
}

type CompleteMaintenanceDTO struct {
	DateEnd   types.Date   `json:"date_end" validate:"required"`
	Succeeded *bool        `json:"succeeded" validate:"required"`
	Cost      types.Number `json:"cost,omitempty"`
	Note      null.String  `json:"note,omitempty" validate:"omitempty,max=2000"`
}

type ApproveMaintenanceDTO struct {
	ApprovedBy     string       `json:"approved_by" validate:"required,max=255"`
	Decision       string       `json:"decision" validate:"approval_decision"`
	ValueRecovered types.Number `json:"value_recovered,omitempty"`
}

type MaintenanceRecordDTO struct {
	ID          uint64           `json:"id"`
	UnitID      uint64           `json:"unit_id"`
	Status      string           `json:"status"`
	RequestedBy *string          `json:"requested_by"`
	Technician  *string          `json:"technician"`
	DateStart   *types.Date      `json:"date_start"`
	DateEnd     *types.Date      `json:"date_end"`
	Cost        *decimal.Decimal `json:"cost"`
	Note        *string          `json:"note"`
	Result      *string          `json:"result"`
	ApprovedBy  *string          `json:"approved_by"`
	CreatedAt   string           `json:"created_at"`
	UpdatedAt   string           `json:"updated_at"`
}

// ----- План обслуживания -----

type CreateMaintenancePlanDTO struct {
	UnitID              uint64      `json:"unit_id" validate:"required,gt=0"`
	Frequency           string      `json:"frequency" validate:"required,maintenance_frequency"`
	NextMaintenanceDate types.Date  `json:"next_maintenance_date" validate:"required"`
	Note                null.String `json:"note,omitempty" validate:"omitempty,max=2000"`
	CreatedBy           string      `json:"created_by" validate:"omitempty,max=255"`
}

type UpdateMaintenancePlanDTO struct {
	Frequency           null.String `json:"frequency,omitempty" validate:"omitempty,maintenance_frequency"`
	NextMaintenanceDate *types.Date `json:"next_maintenance_date,omitempty"`
	Note                null.String `json:"note,omitempty" validate:"omitempty,max=2000"`
}

type MaintenancePlanDTO struct {
	ID                  uint64      `json:"id"`
	UnitID              uint64      `json:"unit_id"`
	Frequency           string      `json:"frequency"`
	NextMaintenanceDate types.Date  `json:"next_maintenance_date"`
	LastMaintenanceDate *types.Date `json:"last_maintenance_date"`
	Note                *string     `json:"note"`
	CreatedBy           *string     `json:"created_by"`
	CreatedAt           string      `json:"created_at"`
	UpdatedAt           string      `json:"updated_at"`
}
