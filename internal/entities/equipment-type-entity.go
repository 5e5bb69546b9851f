package entities

import (
	"equipment-system/pkg/types"
)

// EquipmentGroup - верхний уровень классификатора. ID - сгенерированный код (например "CA").
type EquipmentGroup struct {
	ID          string
	Name        string
	Description *string
	Image       *string

	types.BaseEntity
}

// EquipmentType - подкатегория группы. ID = код группы + порядковый номер ("CA01").
type EquipmentType struct {
	ID          string
	GroupID     string
	Name        string
	Description *string

	types.BaseEntity

	Group *EquipmentGroup `db:"-"`
}

// Code - часть ID без кода группы.
func (t *EquipmentType) Code() string {
	if len(t.ID) > len(t.GroupID) && t.ID[:len(t.GroupID)] == t.GroupID {
		return t.ID[len(t.GroupID):]
	}
	return t.ID
}
