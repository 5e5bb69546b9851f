package dto

import "github.com/aarondl/null/v8"

type CreateBranchDTO struct {
	Name    string      `json:"name" validate:"required,min=2,max=255"`
	Address null.String `json:"address,omitempty" validate:"omitempty,max=1000"`
}

type BranchDTO struct {
	ID        uint64  `json:"id"`
	Name      string  `json:"name"`
	Address   *string `json:"address"`
	CreatedAt string  `json:"created_at"`
	UpdatedAt string  `json:"updated_at"`
}
