package dto

type CreateAttributeDTO struct {
	Name string `json:"name" validate:"required,min=1,max=255"`
}

type AttributeDTO struct {
	ID   uint64 `json:"id"`
	Name string `json:"name"`
}

type BindAttributesDTO struct {
	AttributeIDs []uint64 `json:"attribute_ids" validate:"required,min=1,dive,gt=0"`
}

type AttributeValueDTO struct {
	AttributeID uint64 `json:"attribute_id"`
	Name        string `json:"name"`
	Value       string `json:"value"`
}

type SetAttributeValueDTO struct {
	Value string `json:"value" validate:"required,max=1000"`
}
