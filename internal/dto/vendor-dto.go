package dto

import "github.com/aarondl/null/v8"

type CreateVendorDTO struct {
	Name        string      `json:"name" validate:"required,min=2,max=255"`
	Origin      null.String `json:"origin,omitempty" validate:"omitempty,max=255"`
	Description null.String `json:"description,omitempty" validate:"omitempty,max=2000"`
}

type VendorDTO struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Origin      *string `json:"origin"`
	Description *string `json:"description"`
	CreatedAt   string  `json:"created_at"`
	UpdatedAt   string  `json:"updated_at"`
}
