package dto

import "github.com/shopspring/decimal"

type InvoiceDTO struct {
	ID        uint64           `json:"id"`
	Kind      string           `json:"kind"`
	BranchID  *uint64          `json:"branch_id"`
	VendorID  *string          `json:"vendor_id"`
	Subtotal  decimal.Decimal  `json:"subtotal"`
	Tax       decimal.Decimal  `json:"tax"`
	Total     decimal.Decimal  `json:"total"`
	CreatedBy *string          `json:"created_by"`
	CreatedAt string           `json:"created_at"`
	Lines     []InvoiceLineDTO `json:"lines,omitempty"`
}

type InvoiceLineDTO struct {
	CatalogID string          `json:"catalog_id"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Amount    decimal.Decimal `json:"amount"`
}
