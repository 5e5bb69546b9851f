package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFilter_ForCount(t *testing.T) {
	filter := Filter{
		Sort:           map[string]string{"id": "asc"},
		Filter:         map[string]interface{}{"status": "ACTIVE"},
		Limit:          5,
		WithPagination: true,
	}
	count := filter.ForCount()

	assert.False(t, count.WithPagination)
	assert.Nil(t, count.Sort)
	assert.Equal(t, "ACTIVE", count.Filter["status"])
	assert.True(t, filter.WithPagination)
}
