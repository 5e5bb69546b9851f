package types

import (
	"bytes"
	"encoding/json"
)

// Number хранит числовое поле запроса как есть: JSON-число или строку.
// Разбор и проверка значения остаются на стороне сервиса.
type Number struct {
	raw   string
	isSet bool
}

func NewNumber(raw string) Number {
	return Number{raw: raw, isSet: true}
}

func (n *Number) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*n = Number{}
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*n = NewNumber(s)
		return nil
	}
	*n = NewNumber(string(data))
	return nil
}

func (n Number) MarshalJSON() ([]byte, error) {
	if !n.isSet {
		return []byte("null"), nil
	}
	return json.Marshal(n.raw)
}

// UnmarshalParam позволяет echo привязывать значение из формы и query.
func (n *Number) UnmarshalParam(param string) error {
	*n = NewNumber(param)
	return nil
}

func (n Number) String() string { return n.raw }

func (n Number) IsEmpty() bool { return !n.isSet || n.raw == "" }
