package model

import "fmt"

// ReviewRequest is the structured input payload for one risk-review run.
// Feature fields use pointers so absence is distinguishable from zero.
type ReviewRequest struct {
	Intent           string            `json:"intent" yaml:"intent"`
	CustomerID       string            `json:"customer_id" yaml:"customer_id"`
	Notes            string            `json:"notes,omitempty" yaml:"notes,omitempty"`
	ReasonCode       string            `json:"reason_code,omitempty" yaml:"reason_code,omitempty"`
	CustomerFeatures *CustomerFeatures `json:"customer_features,omitempty" yaml:"customer_features,omitempty"`
}

// CustomerFeatures holds the scoring model inputs. Field names mirror the
// reference dataset columns.
type CustomerFeatures struct {
	TxnCount        *int     `json:"txn_count" yaml:"txn_count"`
	AvgTxnAmount    *float64 `json:"avg_txn_amount" yaml:"avg_txn_amount"`
	HighRiskCountry *int     `json:"high_risk_country" yaml:"high_risk_country"`
}

// ReasonCodes is the closed set of accepted case-origination reason codes.
// An unrecognized code is recorded as a warning but does not fail intake.
var ReasonCodes = map[string]bool{
	"KYC_PERIODIC_REVIEW":        true,
	"ALERT_TRANSACTION_SPIKE":    true,
	"SANCTIONS_SCREENING_HIT":    true,
	"PEP_REASSESSMENT":           true,
	"MANUAL_SUPPRESSION_REQUEST": true,
}

// ValidationError marks malformed or incomplete input. It routes the run to
// NEED_INFO and is recoverable by resubmission.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid request: %s: %s", e.Field, e.Reason)
}
