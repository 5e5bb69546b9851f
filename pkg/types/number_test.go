package types

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNumber_AcceptsNumbersAndStrings(t *testing.T) {
	var payload struct {
		Quantity Number `json:"quantity"`
		Price    Number `json:"price"`
		Missing  Number `json:"missing"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"quantity": 75, "price": "1000000.50", "missing": null}`), &payload))

	assert.Equal(t, "75", payload.Quantity.String())
	assert.Equal(t, "1000000.50", payload.Price.String())
	assert.True(t, payload.Missing.IsEmpty())
}

func TestNumber_KeepsGarbageForLaterValidation(t *testing.T) {
	var payload struct {
		Quantity Number `json:"quantity"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"quantity": "пять"}`), &payload))
	assert.Equal(t, "пять", payload.Quantity.String())
	assert.False(t, payload.Quantity.IsEmpty())
}
