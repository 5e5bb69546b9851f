package dto

import (
	"github.com/aarondl/null/v8"
	"github.com/shopspring/decimal"

	"equipment-system/pkg/types"
)

// CreateDisposalDTO - value_recovered[i] относится к unit_ids[i].
type CreateDisposalDTO struct {
	UnitIDs        []uint64       `json:"unit_ids" validate:"required,min=1,dive,gt=0"`
	ValueRecovered []types.Number `json:"value_recovered" validate:"required,min=1"`
	CreatedBy      string         `json:"created_by" validate:"required,max=255"`
	Note           null.String    `json:"note,omitempty" validate:"omitempty,max=2000"`
}

type DisposalDTO struct {
	ID           uint64            `json:"id"`
	CostOriginal decimal.Decimal   `json:"cost_original"`
	TotalValue   decimal.Decimal   `json:"total_value"`
	CreatedBy    string            `json:"created_by"`
	Note         *string           `json:"note"`
	Units        []DisposalUnitDTO `json:"units"`
	CreatedAt    string            `json:"created_at"`
}

type DisposalUnitDTO struct {
	UnitID         uint64          `json:"unit_id"`
	CostOriginal   decimal.Decimal `json:"cost_original"`
	ValueRecovered decimal.Decimal `json:"value_recovered"`
}
