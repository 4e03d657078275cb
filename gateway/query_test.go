// ABOUTME: Tests for the select query builder
// ABOUTME: Verifies PostgREST parameter encoding and single-row decoding
package gateway

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueryParams(t *testing.T) {
	id := uuid.MustParse("8c2c7f0e-8f0b-4c1e-9d3c-2f5e4b1a0c11")
	q := From("contacts").
		Embed("company", "companies", "organization_id").
		Eq("organization_id", id).
		Order("created_at", false)

	params := q.Params()
	assert.Equal(t, "*,company:companies!organization_id(*)", params.Get("select"))
	assert.Equal(t, "eq."+id.String(), params.Get("organization_id"))
	assert.Equal(t, "created_at.desc", params.Get("order"))
	assert.Equal(t, "contacts", q.Table())
	assert.False(t, q.IsSingle())
}

func TestQueryColumnsAndMultipleOrders(t *testing.T) {
	q := From("companies").Columns("id", "name").Order("name", true).Order("created_at", false)

	params := q.Params()
	assert.Equal(t, "id,name", params.Get("select"))
	assert.Equal(t, "name.asc,created_at.desc", params.Get("order"))
	assert.Contains(t, q.String(), "companies?")
}

func TestDecodeRowsSingle(t *testing.T) {
	type row struct {
		Name string `json:"name"`
	}

	var one row
	require.NoError(t, decodeRows([]byte(`[{"name":"a"}]`), From("t").Single(), &one))
	assert.Equal(t, "a", one.Name)

	err := decodeRows([]byte(`[]`), From("t").Single(), &one)
	assert.ErrorIs(t, err, ErrNotFound)

	err = decodeRows([]byte(`[{"name":"a"},{"name":"b"}]`), From("t").Single(), &one)
	assert.ErrorIs(t, err, ErrNotFound)

	var many []row
	require.NoError(t, decodeRows([]byte(`[{"name":"a"},{"name":"b"}]`), From("t"), &many))
	assert.Len(t, many, 2)
}
