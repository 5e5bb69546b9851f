package dto

import (
	"github.com/aarondl/null/v8"

	"equipment-system/pkg/types"
)

type CreateTransferDTO struct {
	FromBranchID  uint64      `json:"from_branch_id" validate:"required,gt=0"`
	ToBranchID    uint64      `json:"to_branch_id" validate:"required,gt=0,nefield=FromBranchID"`
	UnitIDs       []uint64    `json:"unit_ids" validate:"required,min=1,dive,gt=0"`
	RequestedBy   string      `json:"requested_by" validate:"required,max=255"`
	MoveStartDate types.Date  `json:"move_start_date,omitempty"`
	Note          null.String `json:"note,omitempty" validate:"omitempty,max=2000"`
}

type CompleteTransferDTO struct {
	MoveReceiveDate types.Date `json:"move_receive_date" validate:"required"`
	ReceivedBy      string     `json:"received_by" validate:"required,max=255"`
}

type TransferDTO struct {
	ID              uint64            `json:"id"`
	FromBranchID    uint64            `json:"from_branch_id"`
	ToBranchID      uint64            `json:"to_branch_id"`
	Status          string            `json:"status"`
	RequestedBy     string            `json:"requested_by"`
	ReceivedBy      *string           `json:"received_by"`
	MoveStartDate   types.Date        `json:"move_start_date"`
	MoveReceiveDate *types.Date       `json:"move_receive_date"`
	Note            *string           `json:"note"`
	Units           []TransferUnitDTO `json:"units"`
	CreatedAt       string            `json:"created_at"`
}

type TransferUnitDTO struct {
	UnitID         uint64 `json:"unit_id"`
	PreviousStatus string `json:"previous_status"`
}
