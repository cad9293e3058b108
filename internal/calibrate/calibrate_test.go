package calibrate

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v2"

	"github.com/meridian-grc/riskflow/internal/scoring"
)

func createDatasetXLSX(t *testing.T, rows [][]string) string {
	t.Helper()
	f := xlsx.NewFile()
	sheet, err := f.AddSheet("customers")
	require.NoError(t, err)
	for _, rowData := range rows {
		row := sheet.AddRow()
		for _, cellData := range rowData {
			cell := row.AddCell()
			cell.SetString(cellData)
		}
	}
	path := filepath.Join(t.TempDir(), "customer_risk_scoring.xlsx")
	require.NoError(t, f.Save(path))
	return path
}

var datasetHeader = []string{"customer_id", "txn_count", "avg_txn_amount", "high_risk_country", "flagged"}

func TestLoadDataset_ReadsRows(t *testing.T) {
	path := createDatasetXLSX(t, [][]string{
		datasetHeader,
		{"C001", "2", "12", "0", "0"},
		{"C002", "72", "4500", "1", "1"},
		{"C003", "30", "800", "0", ""},
	})

	customers, err := LoadDataset(path)
	require.NoError(t, err)
	require.Len(t, customers, 3)
	assert.Equal(t, "C001", customers[0].CustomerID)
	assert.Equal(t, 72.0, customers[1].TxnCount)
	assert.True(t, customers[1].Flagged)
	assert.False(t, customers[2].Flagged)
}

func TestLoadDataset_MissingColumn(t *testing.T) {
	path := createDatasetXLSX(t, [][]string{
		{"customer_id", "txn_count"},
		{"C001", "2"},
	})

	_, err := LoadDataset(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "avg_txn_amount")
}

func TestLoadDataset_SkipsBlankIDs(t *testing.T) {
	path := createDatasetXLSX(t, [][]string{
		datasetHeader,
		{"C001", "10", "100", "0", "0"},
		{"", "99", "9999", "1", "1"},
	})

	customers, err := LoadDataset(path)
	require.NoError(t, err)
	assert.Len(t, customers, 1)
}

func TestCalibrate_DerivesReferenceBounds(t *testing.T) {
	customers := []Customer{
		{CustomerID: "C001", TxnCount: 2, AvgTxnAmount: 12},
		{CustomerID: "C002", TxnCount: 72, AvgTxnAmount: 4500, HighRiskCountry: 1, Flagged: true},
		{CustomerID: "C003", TxnCount: 30, AvgTxnAmount: 800},
	}

	rep := Calibrate(customers, scoring.DefaultConfig())

	assert.Equal(t, 3, rep.Customers)
	assert.Equal(t, 2.0, rep.TxnCountMin)
	assert.Equal(t, 72.0, rep.TxnCountMax)
	assert.Equal(t, 12.0, rep.AvgTxnAmountMin)
	assert.Equal(t, 4500.0, rep.AvgTxnAmountMax)
	assert.Empty(t, rep.FlaggedBelowHigh, "flagged extreme customer must score HIGH or CRITICAL")
}

func TestCalibrate_ReportsFlaggedCustomersBelowHigh(t *testing.T) {
	customers := []Customer{
		{CustomerID: "C001", TxnCount: 2, AvgTxnAmount: 12},
		{CustomerID: "C002", TxnCount: 72, AvgTxnAmount: 4500},
		// Flagged but unremarkable on every feature: cannot reach HIGH.
		{CustomerID: "C003", TxnCount: 5, AvgTxnAmount: 60, Flagged: true},
	}

	rep := Calibrate(customers, scoring.DefaultConfig())

	assert.Equal(t, []string{"C003"}, rep.FlaggedBelowHigh)
}

func TestReportApply_ReplacesOnlyBounds(t *testing.T) {
	rep := Report{TxnCountMin: 1, TxnCountMax: 10, AvgTxnAmountMin: 5, AvgTxnAmountMax: 500}
	cfg := rep.Apply(scoring.DefaultConfig())

	assert.Equal(t, 1.0, cfg.TxnCountMin)
	assert.Equal(t, 10.0, cfg.TxnCountMax)
	assert.InDelta(t, 1.0, cfg.WeightSum(), 1e-9)
	assert.Len(t, cfg.Thresholds, 4)
}
