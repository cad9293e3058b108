package model

import (
	"os"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// Scenario is a named canned request payload used for demos and smoke runs.
type Scenario struct {
	Name        string        `yaml:"name"`
	Description string        `yaml:"description"`
	Request     ReviewRequest `yaml:"request"`
}

func intPtr(v int) *int           { return &v }
func floatPtr(v float64) *float64 { return &v }

// BuiltinScenarios returns the canned cases covering each routing outcome.
func BuiltinScenarios() []Scenario {
	return []Scenario{
		{
			Name:        "low-risk-rescore",
			Description: "Quiet account, rescored and auto-approved.",
			Request: ReviewRequest{
				Intent:     "rescore",
				CustomerID: "CUST-20241107-7842",
				ReasonCode: "KYC_PERIODIC_REVIEW",
				CustomerFeatures: &CustomerFeatures{
					TxnCount:        intPtr(5),
					AvgTxnAmount:    floatPtr(50),
					HighRiskCountry: intPtr(0),
				},
			},
		},
		{
			Name:        "critical-escalation",
			Description: "High velocity, high value, high-risk jurisdiction.",
			Request: ReviewRequest{
				Intent:     "rescore",
				CustomerID: "CUST-20240219-0063",
				ReasonCode: "ALERT_TRANSACTION_SPIKE",
				CustomerFeatures: &CustomerFeatures{
					TxnCount:        intPtr(70),
					AvgTxnAmount:    floatPtr(4000),
					HighRiskCountry: intPtr(1),
				},
			},
		},
		{
			Name:        "suppress-dual-control",
			Description: "Flag suppression at elevated risk; dual-control review.",
			Request: ReviewRequest{
				Intent:     "suppress_flag",
				CustomerID: "C014",
				ReasonCode: "MANUAL_SUPPRESSION_REQUEST",
				Notes:      "Customer disputes the alert; requesting suppression.",
				CustomerFeatures: &CustomerFeatures{
					TxnCount:        intPtr(38),
					AvgTxnAmount:    floatPtr(2200),
					HighRiskCountry: intPtr(0),
				},
			},
		},
		{
			Name:        "missing-features",
			Description: "No feature block supplied; cannot score.",
			Request: ReviewRequest{
				Intent:     "rescore",
				CustomerID: "CUST-20240502-1181",
				ReasonCode: "KYC_PERIODIC_REVIEW",
			},
		},
		{
			Name:        "pii-laden-notes",
			Description: "Analyst notes carrying raw PII that must be scrubbed.",
			Request: ReviewRequest{
				Intent:     "explain_score",
				CustomerID: "CUST-20230811-3327",
				ReasonCode: "PEP_REASSESSMENT",
				Notes:      "Reached at 555-867-5309, jdoe@example.com; SSN on file 123-45-6789.",
				CustomerFeatures: &CustomerFeatures{
					TxnCount:        intPtr(22),
					AvgTxnAmount:    floatPtr(900),
					HighRiskCountry: intPtr(0),
				},
			},
		},
		{
			Name:        "moderation-flagged",
			Description: "Notes tripping the content denylist.",
			Request: ReviewRequest{
				Intent:     "rescore",
				CustomerID: "CUST-20220130-5510",
				ReasonCode: "SANCTIONS_SCREENING_HIT",
				Notes:      "Analyst suspects the invoices were fabricated by the client.",
				CustomerFeatures: &CustomerFeatures{
					TxnCount:        intPtr(14),
					AvgTxnAmount:    floatPtr(300),
					HighRiskCountry: intPtr(0),
				},
			},
		},
	}
}

// LoadScenarios reads additional scenarios from a YAML file.
func LoadScenarios(path string) ([]Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "model: read scenario file %s", path)
	}
	var scenarios []Scenario
	if err := yaml.Unmarshal(data, &scenarios); err != nil {
		return nil, eris.Wrap(err, "model: parse scenario file")
	}
	return scenarios, nil
}

// FindScenario returns the scenario with the given name, or false.
func FindScenario(scenarios []Scenario, name string) (Scenario, bool) {
	for _, s := range scenarios {
		if s.Name == name {
			return s, true
		}
	}
	return Scenario{}, false
}
