package dto

type ShortBranchDTO struct {
	ID   uint64 `json:"id"`
	Name string `json:"name"`
}

// ShortCodeDTO - краткая ссылка на справочник с кодом вместо числового id.
type ShortCodeDTO struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}
