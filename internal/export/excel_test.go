package export

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"housing-registry/internal/reports"
)

func sampleResult() reports.Result {
	return reports.Result{
		Detail: []reports.Row{
			{"district": "Central District", "address": "Lenina 10", "debt": 300.0},
			{"district": "Northern District", "address": "Mira 5", "debt": 500.0},
		},
		Groups: []reports.GroupRow{
			{Key: "Central District", Values: map[string]float64{"total_debt": 300, "debtor_count": 1}},
			{Key: "Northern District", Values: map[string]float64{"total_debt": 500, "debtor_count": 1}},
		},
		Totals: map[string]float64{"total_debt": 800, "debtor_count": 2},
	}
}

func TestWriteWorkbook(t *testing.T) {
	data, err := WriteWorkbook(sampleResult(), []string{"district", "address", "debt"})
	require.NoError(t, err)
	require.NotEmpty(t, data)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	assert.ElementsMatch(t, []string{"Detail", "Groups", "Totals"}, f.GetSheetList())

	v, err := f.GetCellValue("Detail", "A1")
	require.NoError(t, err)
	assert.Equal(t, "district", v)

	v, err = f.GetCellValue("Detail", "C2")
	require.NoError(t, err)
	assert.Equal(t, "300", v)

	v, err = f.GetCellValue("Groups", "A2")
	require.NoError(t, err)
	assert.Equal(t, "Central District", v)

	v, err = f.GetCellValue("Totals", "A1")
	require.NoError(t, err)
	assert.Equal(t, "metric", v)
}

func TestWriteWorkbook_EmptyResult(t *testing.T) {
	res := reports.Result{Detail: []reports.Row{}, Groups: []reports.GroupRow{}, Totals: map[string]float64{}}

	data, err := WriteWorkbook(res, []string{"district", "address"})
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	v, err := f.GetCellValue("Detail", "A1")
	require.NoError(t, err)
	assert.Equal(t, "district", v)

	v, err = f.GetCellValue("Detail", "A2")
	require.NoError(t, err)
	assert.Empty(t, v)
}
