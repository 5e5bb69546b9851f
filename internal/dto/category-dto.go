package dto

import "github.com/aarondl/null/v8"

// ----- Группы -----

type CreateGroupDTO struct {
	Name        string      `json:"name" form:"name" validate:"required,min=2,max=255"`
	Description null.String `json:"description,omitempty" form:"description" validate:"omitempty,max=2000"`
	Image       null.String `json:"image,omitempty" form:"image"`
}

type UpdateGroupDTO struct {
	Name        null.String `json:"name,omitempty" validate:"omitempty,min=2,max=255"`
	Description null.String `json:"description,omitempty" validate:"omitempty,max=2000"`
	Image       null.String `json:"image,omitempty"`
}

type GroupDTO struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description *string   `json:"description"`
	Image       *string   `json:"image"`
	Types       []TypeDTO `json:"types,omitempty"`
	CreatedAt   string    `json:"created_at"`
	UpdatedAt   string    `json:"updated_at"`
}

// ----- Типы -----

type CreateTypeDTO struct {
	GroupID     string      `json:"group_id" validate:"required,max=8"`
	Name        string      `json:"name" validate:"required,min=2,max=255"`
	Description null.String `json:"description,omitempty" validate:"omitempty,max=2000"`
}

type TypeDTO struct {
	ID          string         `json:"id"`
	Code        string         `json:"code"`
	Name        string         `json:"name"`
	Description *string        `json:"description"`
	Group       ShortCodeDTO   `json:"group"`
	Attributes  []AttributeDTO `json:"attributes,omitempty"`
	CreatedAt   string         `json:"created_at"`
	UpdatedAt   string         `json:"updated_at"`
}
