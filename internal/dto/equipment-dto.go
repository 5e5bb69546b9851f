package dto

import "github.com/aarondl/null/v8"

// CreateEquipmentDTO - новая модель оборудования. Код модели клиент не передаёт: он вычисляется на сервере.
type CreateEquipmentDTO struct {
	TypeID           string            `json:"type_id" validate:"required,max=12"`
	VendorID         string            `json:"vendor_id" validate:"required,max=8"`
	Name             string            `json:"name" validate:"required,min=2,max=255"`
	Description      null.String       `json:"description,omitempty" validate:"omitempty,max=5000"`
	WarrantyDuration int               `json:"warranty_duration" validate:"min=0,max=50"`
	Image            null.String       `json:"image,omitempty"`
	AttributeValues  map[uint64]string `json:"attribute_values,omitempty" validate:"omitempty,dive,required,max=1000"`
}

type UpdateEquipmentDTO struct {
	TypeID           null.String       `json:"type_id,omitempty" validate:"omitempty,max=12"`
	VendorID         null.String       `json:"vendor_id,omitempty" validate:"omitempty,max=8"`
	Name             null.String       `json:"name,omitempty" validate:"omitempty,min=2,max=255"`
	Description      null.String       `json:"description,omitempty" validate:"omitempty,max=5000"`
	WarrantyDuration null.Int          `json:"warranty_duration,omitempty" validate:"omitempty,min=0,max=50"`
	Image            null.String       `json:"image,omitempty"`
	AttributeValues  map[uint64]string `json:"attribute_values,omitempty" validate:"omitempty,dive,required,max=1000"`
}

type EquipmentDTO struct {
	ID               string              `json:"id"`
	Name             string              `json:"name"`
	Description      *string             `json:"description"`
	WarrantyDuration int                 `json:"warranty_duration"`
	Image            *string             `json:"image"`
	Group            ShortCodeDTO        `json:"group"`
	Type             ShortCodeDTO        `json:"type"`
	Vendor           ShortCodeDTO        `json:"vendor"`
	Attributes       []AttributeValueDTO `json:"attributes"`
	CreatedAt        string              `json:"created_at"`
	UpdatedAt        string              `json:"updated_at"`
}

type CatalogCodeDTO struct {
	Code      string `json:"code"`
	Available bool   `json:"available"`
}
