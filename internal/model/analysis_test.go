package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDiscountToggles_Enabled(t *testing.T) {
	t.Parallel()

	var none DiscountToggles
	assert.True(t, none.Enabled("Acme", "d1"))

	d := DiscountToggles{"Acme": {"d1": false, "d2": true}}
	assert.False(t, d.Enabled("Acme", "d1"))
	assert.True(t, d.Enabled("Acme", "d2"))
	assert.True(t, d.Enabled("Acme", "d3"))
	assert.True(t, d.Enabled("Zenith", "d1"))
}

func TestDiscountToggles_With(t *testing.T) {
	t.Parallel()

	d := DiscountToggles{"Acme": {"d1": true}}
	next := d.With("Acme", "d1", false).With("Zenith", "d2", false)

	assert.True(t, d.Enabled("Acme", "d1"), "original is unchanged")
	assert.False(t, next.Enabled("Acme", "d1"))
	assert.False(t, next.Enabled("Zenith", "d2"))
}

func TestHiddenRows(t *testing.T) {
	t.Parallel()

	h := NewHiddenRows("b", "a")
	assert.True(t, h.Has("a"))
	assert.False(t, h.Has("c"))
	assert.Equal(t, []string{"a", "b"}, h.IDs())

	shown := h.With("a", false)
	assert.False(t, shown.Has("a"))
	assert.True(t, h.Has("a"), "original is unchanged")
	assert.Equal(t, []string{"a", "b", "c"}, h.With("c", true).IDs())
}

func TestHiddenRows_JSON(t *testing.T) {
	t.Parallel()

	data, err := json.Marshal(NewHiddenRows("row_2", "row_1"))
	require.NoError(t, err)
	assert.JSONEq(t, `["row_1","row_2"]`, string(data))

	var decoded HiddenRows
	require.NoError(t, json.Unmarshal([]byte(`["x"]`), &decoded))
	assert.True(t, decoded.Has("x"))

	a := Analysis{ID: "a1", HiddenRows: NewHiddenRows("r")}
	data, err = json.Marshal(a)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"hiddenRows":["r"]`)
}

func TestPlaybookRule_AppliesToVendor(t *testing.T) {
	t.Parallel()

	assert.True(t, PlaybookRule{VendorName: GlobalVendor}.AppliesToVendor("Acme"))
	assert.True(t, PlaybookRule{VendorName: "Acme"}.AppliesToVendor("Acme"))
	assert.False(t, PlaybookRule{VendorName: "Acme"}.AppliesToVendor("acme"))
}

func TestCellContext_Field(t *testing.T) {
	t.Parallel()

	c := CellContext{Label: "Training", SectionName: SectionService, Display: "$100"}
	assert.Equal(t, "Training", c.Field(FieldLabel))
	assert.Equal(t, SectionService, c.Field(FieldSection))
	assert.Equal(t, "$100", c.Field(FieldDisplay))
	assert.Equal(t, "", c.Field("other"))
}
