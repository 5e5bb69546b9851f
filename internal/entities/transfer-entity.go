package entities

import (
	"time"

	"equipment-system/internal/lifecycle"
	"equipment-system/pkg/types"
)

// Transfer - одна запись на всю партию перемещаемых единиц.
type Transfer struct {
	ID              uint64
	FromBranchID    uint64
	ToBranchID      uint64
	Status          string
	RequestedBy     string
	ReceivedBy      *string
	MoveStartDate   time.Time
	MoveReceiveDate *time.Time
	Note            *string
	Units           []TransferUnit

	types.BaseEntity
}

type TransferUnit struct {
	UnitID         uint64
	PreviousStatus lifecycle.Status
}

func (t *Transfer) UnitIDs() []uint64 {
	ids := make([]uint64, 0, len(t.Units))
	for _, u := range t.Units {
		ids = append(ids, u.UnitID)
	}
	return ids
}
