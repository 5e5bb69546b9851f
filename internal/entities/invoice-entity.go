package entities

import (
	"time"

	"github.com/shopspring/decimal"
)

type Invoice struct {
	ID        uint64
	Kind      string
	BranchID  *uint64
	VendorID  *string
	Subtotal  decimal.Decimal
	Tax       decimal.Decimal
	Total     decimal.Decimal
	CreatedBy *string
	CreatedAt time.Time
	Lines     []InvoiceLine
}

type InvoiceLine struct {
	ID        uint64
	InvoiceID uint64
	CatalogID string
	Quantity  int
	UnitPrice decimal.Decimal
	Amount    decimal.Decimal
}
