package entities

import (
	"time"

	"github.com/shopspring/decimal"

	"equipment-system/internal/lifecycle"
	"equipment-system/pkg/types"
)

// Unit - физическая единица оборудования в филиале.
type Unit struct {
	ID                uint64
	CatalogID         string
	BranchID          uint64
	Status            lifecycle.Status
	WarrantyStartDate time.Time
	WarrantyDuration  int
	ImportPrice       decimal.Decimal
	InvoiceID         *uint64

	types.BaseEntity

	// Денормализованные данные модели для чтения
	CatalogName string `db:"-"`
	TypeID      string `db:"-"`
	TypeName    string `db:"-"`
	GroupID     string `db:"-"`
	GroupName   string `db:"-"`
	VendorID    string `db:"-"`
	VendorName  string `db:"-"`
	BranchName  string `db:"-"`
}

// InWarranty - попадает ли дата в гарантийный период единицы.
func (u *Unit) InWarranty(on time.Time) bool {
	start := u.WarrantyStartDate
	return lifecycle.InWarranty(&start, u.WarrantyDuration, on)
}

// UnitEvent - запись истории смены статусов.
type UnitEvent struct {
	ID         uint64
	UnitID     uint64
	Event      lifecycle.Event
	FromStatus *lifecycle.Status
	ToStatus   lifecycle.Status
	RefKind    *string
	RefID      *uint64
	Actor      *string
	CreatedAt  time.Time
}

// WorkflowLock - открытый процесс, который удерживает единицу.
type WorkflowLock struct {
	UnitID    uint64
	Workflow  string
	RefID     uint64
	CreatedAt time.Time
}
