package entities

import (
	"equipment-system/pkg/types"
)

type Vendor struct {
	ID          string
	Name        string
	Origin      *string
	Description *string

	types.BaseEntity
}
