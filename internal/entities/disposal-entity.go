package entities

import (
	"time"

	"github.com/shopspring/decimal"
)

// Disposal - акт списания, одновременно служит накладной.
type Disposal struct {
	ID           uint64
	CostOriginal decimal.Decimal
	TotalValue   decimal.Decimal
	CreatedBy    string
	Note         *string
	CreatedAt    time.Time
	Units        []DisposalUnit
}

type DisposalUnit struct {
	UnitID         uint64
	CostOriginal   decimal.Decimal
	ValueRecovered decimal.Decimal
}
