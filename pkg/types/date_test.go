package types

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDate_UnmarshalJSON(t *testing.T) {
	var payload struct {
		Start Date  `json:"start"`
		End   *Date `json:"end"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"start":"2025-03-01","end":"2025-03-04T10:00:00Z"}`), &payload))
	assert.Equal(t, time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC), payload.Start.Time)
	require.NotNil(t, payload.End)
	assert.Equal(t, time.Date(2025, 3, 4, 0, 0, 0, 0, time.UTC), payload.End.Time)

	assert.Error(t, json.Unmarshal([]byte(`{"start":"01.03.2025"}`), &payload))
}

func TestDate_MarshalJSON(t *testing.T) {
	out, err := json.Marshal(NewDate(time.Date(2024, 12, 31, 23, 0, 0, 0, time.UTC)))
	require.NoError(t, err)
	assert.Equal(t, `"2024-12-31"`, string(out))
}
