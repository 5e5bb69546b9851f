package entities

import (
	"equipment-system/pkg/types"
)

type Branch struct {
	ID      uint64
	Name    string
	Address *string

	types.BaseEntity
}
