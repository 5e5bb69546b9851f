package entities

import "time"

type Attribute struct {
	ID        uint64
	Name      string
	CreatedAt time.Time
}

// AttributeValue - значение характеристики у модели оборудования.
type AttributeValue struct {
	AttributeID uint64
	Name        string
	Value       string
}
