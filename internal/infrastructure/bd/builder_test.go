package bd

import (
	"testing"

	sq "github.com/Masterminds/squirrel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"equipment-system/pkg/types"
)

func TestApplyListParams(t *testing.T) {
	allowed := map[string]string{"status": "u.status", "branch_id": "u.branch_id"}
	filter := types.Filter{
		Filter:         map[string]interface{}{"status": "ACTIVE,IN_STOCK", "unknown": "x"},
		Sort:           map[string]string{"branch_id": "desc"},
		Limit:          10,
		Offset:         20,
		WithPagination: true,
	}

	builder := sq.Select("u.id").From("equipment_units u").PlaceholderFormat(sq.Dollar)
	query, args, err := ApplyListParams(builder, filter, allowed).ToSql()
	require.NoError(t, err)

	assert.Equal(t, "SELECT u.id FROM equipment_units u WHERE u.status IN ($1,$2) ORDER BY u.branch_id DESC LIMIT 10 OFFSET 20", query)
	assert.Equal(t, []interface{}{"ACTIVE", "IN_STOCK"}, args)
}
