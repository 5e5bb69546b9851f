package entities

import (
	"equipment-system/pkg/types"
)

// CatalogLine - модель оборудования. ID выводится из кодов группы, типа и поставщика.
type CatalogLine struct {
	ID               string
	TypeID           string
	VendorID         string
	Name             string
	Description      *string
	WarrantyDuration int
	Image            *string

	types.BaseEntity

	// Поля для связанных данных (не колонки в таблице)
	GroupID    string           `db:"-"`
	GroupName  string           `db:"-"`
	TypeName   string           `db:"-"`
	VendorName string           `db:"-"`
	Attributes []AttributeValue `db:"-"`
}
