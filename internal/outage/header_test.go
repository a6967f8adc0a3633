package outage

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewHeaderMap(t *testing.T) {
	h := NewHeaderMap(RowOf(" Site ", "Fragment Date", 42, nil, "TEC", "DT", "Site"))

	i, ok := h.Index(ColumnSite)
	assert.True(t, ok)
	assert.Equal(t, 6, i, "right-most duplicate wins")

	i, ok = h.Index(ColumnTech)
	assert.True(t, ok)
	assert.Equal(t, 4, i)

	_, ok = h.Index("42")
	assert.False(t, ok, "numeric header cells are ignored")

	assert.Empty(t, h.Missing())
}

func TestHeaderMap_Missing(t *testing.T) {
	h := NewHeaderMap(RowOf("Site", "TEC"))
	assert.Equal(t, []string{ColumnFragmentDate, ColumnDowntime}, h.Missing())
}

func TestHeaderMap_Cell(t *testing.T) {
	h := NewHeaderMap(RowOf("Site", "TEC", "DT"))

	row := RowOf("ABC", "2G")
	assert.Equal(t, "ABC", h.Cell(row, ColumnSite).String())
	assert.Equal(t, KindEmpty, h.Cell(row, ColumnDowntime).Kind, "short row reads as empty")
	assert.Equal(t, KindEmpty, h.Cell(row, ColumnFragmentDate).Kind, "missing column reads as empty")
}
