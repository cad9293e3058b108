// Package calibrate recomputes scoring normalization bounds from the
// reference customer dataset and checks that the tier thresholds still catch
// every flagged customer.
package calibrate

import (
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/meridian-grc/riskflow/internal/model"
	"github.com/meridian-grc/riskflow/internal/scoring"
)

// Customer is one row of the reference dataset.
type Customer struct {
	CustomerID      string
	TxnCount        float64
	AvgTxnAmount    float64
	HighRiskCountry int
	Flagged         bool
}

// Report summarizes a calibration pass.
type Report struct {
	Customers int

	TxnCountMin     float64
	TxnCountMax     float64
	AvgTxnAmountMin float64
	AvgTxnAmountMax float64

	// FlaggedBelowHigh lists flagged customers whose recalibrated score
	// lands below the HIGH tier. A non-empty list means the thresholds need
	// attention before the model ships.
	FlaggedBelowHigh []string
}

// Apply returns base with its normalization bounds replaced by the
// recalibrated ones. Weights and thresholds are untouched.
func (r Report) Apply(base scoring.Config) scoring.Config {
	base.TxnCountMin = r.TxnCountMin
	base.TxnCountMax = r.TxnCountMax
	base.AvgTxnAmountMin = r.AvgTxnAmountMin
	base.AvgTxnAmountMax = r.AvgTxnAmountMax
	return base
}

var requiredColumns = []string{"customer_id", "txn_count", "avg_txn_amount", "high_risk_country"}

// LoadDataset reads the reference dataset from the first sheet of an XLSX
// workbook. The header row maps columns by name; a "flagged" column is
// optional.
func LoadDataset(path string) ([]Customer, error) {
	f, err := xlsx.OpenFile(path)
	if err != nil {
		return nil, eris.Wrap(err, "calibrate: open dataset")
	}
	if len(f.Sheets) == 0 {
		return nil, eris.New("calibrate: workbook has no sheets")
	}
	sheet := f.Sheets[0]
	if len(sheet.Rows) < 2 {
		return nil, eris.New("calibrate: dataset has no data rows")
	}

	cols := map[string]int{}
	for i, cell := range sheet.Rows[0].Cells {
		cols[strings.ToLower(strings.TrimSpace(cell.String()))] = i
	}
	for _, name := range requiredColumns {
		if _, ok := cols[name]; !ok {
			return nil, eris.Errorf("calibrate: dataset missing column %q", name)
		}
	}

	var customers []Customer
	for _, row := range sheet.Rows[1:] {
		cell := func(name string) string {
			idx, ok := cols[name]
			if !ok || idx >= len(row.Cells) {
				return ""
			}
			return strings.TrimSpace(row.Cells[idx].String())
		}
		if cell("customer_id") == "" {
			continue
		}

		txn, err := strconv.ParseFloat(cell("txn_count"), 64)
		if err != nil {
			return nil, eris.Wrapf(err, "calibrate: bad txn_count for %s", cell("customer_id"))
		}
		amt, err := strconv.ParseFloat(cell("avg_txn_amount"), 64)
		if err != nil {
			return nil, eris.Wrapf(err, "calibrate: bad avg_txn_amount for %s", cell("customer_id"))
		}
		hrc, err := strconv.Atoi(cell("high_risk_country"))
		if err != nil {
			return nil, eris.Wrapf(err, "calibrate: bad high_risk_country for %s", cell("customer_id"))
		}

		flagged := false
		if raw := cell("flagged"); raw != "" {
			flagged = raw == "1" || strings.EqualFold(raw, "true") || strings.EqualFold(raw, "yes")
		}

		customers = append(customers, Customer{
			CustomerID:      cell("customer_id"),
			TxnCount:        txn,
			AvgTxnAmount:    amt,
			HighRiskCountry: hrc,
			Flagged:         flagged,
		})
	}
	if len(customers) == 0 {
		return nil, eris.New("calibrate: dataset has no usable rows")
	}
	return customers, nil
}

// Calibrate derives normalization bounds from the dataset and rescores every
// flagged customer against the derived bounds.
func Calibrate(customers []Customer, cfg scoring.Config) Report {
	rep := Report{
		Customers:       len(customers),
		TxnCountMin:     customers[0].TxnCount,
		TxnCountMax:     customers[0].TxnCount,
		AvgTxnAmountMin: customers[0].AvgTxnAmount,
		AvgTxnAmountMax: customers[0].AvgTxnAmount,
	}
	for _, c := range customers[1:] {
		rep.TxnCountMin = min(rep.TxnCountMin, c.TxnCount)
		rep.TxnCountMax = max(rep.TxnCountMax, c.TxnCount)
		rep.AvgTxnAmountMin = min(rep.AvgTxnAmountMin, c.AvgTxnAmount)
		rep.AvgTxnAmountMax = max(rep.AvgTxnAmountMax, c.AvgTxnAmount)
	}

	derived := rep.Apply(cfg)
	for _, c := range customers {
		if !c.Flagged {
			continue
		}
		txn := int(c.TxnCount)
		hrc := c.HighRiskCountry
		amt := c.AvgTxnAmount
		res := scoring.Compute(&model.CustomerFeatures{
			TxnCount:        &txn,
			AvgTxnAmount:    &amt,
			HighRiskCountry: &hrc,
		}, derived)
		if res.Tier != model.TierHigh && res.Tier != model.TierCritical {
			rep.FlaggedBelowHigh = append(rep.FlaggedBelowHigh, c.CustomerID)
		}
	}
	return rep
}
