package dto

import (
	"github.com/aarondl/null/v8"
	"github.com/shopspring/decimal"

	"equipment-system/pkg/types"
)

type UnitDTO struct {
	ID                uint64          `json:"id"`
	CatalogID         string          `json:"catalog_id"`
	CatalogName       string          `json:"catalog_name"`
	Group             ShortCodeDTO    `json:"group"`
	Type              ShortCodeDTO    `json:"type"`
	Vendor            ShortCodeDTO    `json:"vendor"`
	Branch            ShortBranchDTO  `json:"branch"`
	Status            string          `json:"status"`
	StatusLabel       string          `json:"status_label"`
	WarrantyStartDate types.Date      `json:"warranty_start_date"`
	WarrantyDuration  int             `json:"warranty_duration"`
	WarrantyEndDate   types.Date      `json:"warranty_end_date"`
	InWarranty        bool            `json:"in_warranty"`
	ImportPrice       decimal.Decimal `json:"import_price"`
	InvoiceID         *uint64         `json:"invoice_id"`
	History           []UnitEventDTO  `json:"history,omitempty"`
	CreatedAt         string          `json:"created_at"`
	UpdatedAt         string          `json:"updated_at"`
}

type UnitEventDTO struct {
	Event      string  `json:"event"`
	FromStatus *string `json:"from_status"`
	ToStatus   string  `json:"to_status"`
	RefKind    *string `json:"ref_kind"`
	RefID      *uint64 `json:"ref_id"`
	Actor      *string `json:"actor"`
	CreatedAt  string  `json:"created_at"`
}

// ImportUnitsDTO - приход оборудования по накладной. Количество и цена могут прийти строкой.
type ImportUnitsDTO struct {
	CatalogID         string       `json:"catalog_id" validate:"required,max=32"`
	BranchID          uint64       `json:"branch_id" validate:"required,gt=0"`
	VendorID          string       `json:"vendor_id" validate:"required,max=8"`
	Quantity          types.Number `json:"quantity" validate:"required"`
	UnitPrice         types.Number `json:"unit_price" validate:"required"`
	WarrantyStartDate types.Date   `json:"warranty_start_date" validate:"required"`
	WarrantyDuration  null.Int     `json:"warranty_duration,omitempty" validate:"omitempty,min=0,max=50"`
	CreatedBy         string       `json:"created_by" validate:"omitempty,max=255"`
}

type ImportResultDTO struct {
	Invoice  InvoiceDTO `json:"invoice"`
	UnitIDs  []uint64   `json:"unit_ids"`
	Quantity int        `json:"quantity"`
	Warnings []string   `json:"warnings,omitempty"`
}

type ActivateUnitsDTO struct {
	UnitIDs []uint64 `json:"unit_ids" validate:"required,min=1,dive,gt=0"`
	Actor   string   `json:"actor" validate:"omitempty,max=255"`
}
