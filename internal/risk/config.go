// Package risk provides the risk-analysis side of accounts-payable
// reconciliation: duplicate detection, vendor risk scoring, price anomaly
// detection, and the aggregation of those signals into one assessment.
//
// Every detector is purely functional: it takes the invoice plus
// caller-materialized history and produces a new result, so the package is
// safe to use concurrently across documents with no shared state.
package risk

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// RiskLevel classifies an aggregate risk score
type RiskLevel string

const (
	RiskLow      RiskLevel = "low"
	RiskMedium   RiskLevel = "medium"
	RiskHigh     RiskLevel = "high"
	RiskCritical RiskLevel = "critical"
)

// String returns the string representation of RiskLevel
func (rl RiskLevel) String() string {
	return string(rl)
}

// RiskWeights defines the relative importance of the fused risk components
type RiskWeights struct {
	DuplicateWeight float64 `json:"duplicate_weight"`
	VendorWeight    float64 `json:"vendor_weight"`
	PriceWeight     float64 `json:"price_weight"`
	AmountWeight    float64 `json:"amount_weight"`
}

// Validate checks if the risk weights are valid
func (rw *RiskWeights) Validate() error {
	total := rw.DuplicateWeight + rw.VendorWeight + rw.PriceWeight + rw.AmountWeight
	if total < 0.9 || total > 1.1 {
		return fmt.Errorf("risk weights should sum to approximately 1.0, got %f", total)
	}
	return nil
}

// RiskConfig holds the tunable policy values for risk analysis. As with the
// matching configuration, the defaults are the signed-off business policy
// and every value can be adjusted per deployment.
type RiskConfig struct {
	// DuplicateWindowDays is the rolling window for fuzzy duplicate scans
	DuplicateWindowDays int `json:"duplicate_window_days"`

	// DuplicateAmountTolerancePercent is the relative amount tolerance for
	// fuzzy duplicate detection (0.0 to 100.0)
	DuplicateAmountTolerancePercent float64 `json:"duplicate_amount_tolerance_percent"`

	// UnknownVendorRisk is the default risk score for vendors with no
	// profile on record. Absence of history is itself a risk signal.
	UnknownVendorRisk float64 `json:"unknown_vendor_risk"`

	// NewVendorDays is the onboarding window inside which a vendor is
	// penalized as new
	NewVendorDays int `json:"new_vendor_days"`

	// MinAnomalyHistory is the minimum number of historical invoices
	// required before any anomaly determination is made
	MinAnomalyHistory int `json:"min_anomaly_history"`

	// AnomalyStdDevFactor is how many standard deviations above the
	// historical mean an amount must sit to count as anomalous
	AnomalyStdDevFactor float64 `json:"anomaly_stddev_factor"`

	// AnomalyMinRatio is the minimum amount-to-mean ratio for an anomaly,
	// guarding against tiny-spread histories flagging everything
	AnomalyMinRatio float64 `json:"anomaly_min_ratio"`

	// AmountReferenceThreshold is the reference amount above which raw
	// invoice size starts contributing risk
	AmountReferenceThreshold decimal.Decimal `json:"amount_reference_threshold"`

	// ManualReviewThreshold is the aggregate risk score at which manual
	// review becomes mandatory
	ManualReviewThreshold float64 `json:"manual_review_threshold"`

	// LowRiskCeiling, MediumRiskCeiling, HighRiskCeiling bound the risk
	// level classification
	LowRiskCeiling    float64 `json:"low_risk_ceiling"`
	MediumRiskCeiling float64 `json:"medium_risk_ceiling"`
	HighRiskCeiling   float64 `json:"high_risk_ceiling"`

	// Weights holds the fusion weights for the aggregate score
	Weights RiskWeights `json:"weights"`
}

// DefaultRiskConfig returns a configuration with the signed-off defaults
func DefaultRiskConfig() *RiskConfig {
	return &RiskConfig{
		DuplicateWindowDays:             30,
		DuplicateAmountTolerancePercent: 2.0,
		UnknownVendorRisk:               0.85,
		NewVendorDays:                   90,
		MinAnomalyHistory:               3,
		AnomalyStdDevFactor:             2.0,
		AnomalyMinRatio:                 1.5,
		AmountReferenceThreshold:        decimal.NewFromInt(10000),
		ManualReviewThreshold:           0.70,
		LowRiskCeiling:                  0.25,
		MediumRiskCeiling:               0.50,
		HighRiskCeiling:                 0.75,
		Weights: RiskWeights{
			DuplicateWeight: 0.30,
			VendorWeight:    0.30,
			PriceWeight:     0.25,
			AmountWeight:    0.15,
		},
	}
}

// Validate checks if the risk configuration is valid
func (rc *RiskConfig) Validate() error {
	if rc.DuplicateWindowDays < 0 {
		return fmt.Errorf("duplicate window days cannot be negative: %d", rc.DuplicateWindowDays)
	}

	if rc.DuplicateAmountTolerancePercent < 0.0 || rc.DuplicateAmountTolerancePercent > 100.0 {
		return fmt.Errorf("duplicate amount tolerance percent must be between 0.0 and 100.0: %f",
			rc.DuplicateAmountTolerancePercent)
	}

	if rc.UnknownVendorRisk < 0.0 || rc.UnknownVendorRisk > 1.0 {
		return fmt.Errorf("unknown vendor risk must be between 0.0 and 1.0: %f", rc.UnknownVendorRisk)
	}

	if rc.MinAnomalyHistory < 1 {
		return fmt.Errorf("minimum anomaly history must be positive: %d", rc.MinAnomalyHistory)
	}

	if rc.AnomalyStdDevFactor <= 0 {
		return fmt.Errorf("anomaly standard deviation factor must be positive: %f", rc.AnomalyStdDevFactor)
	}

	if !(rc.LowRiskCeiling < rc.MediumRiskCeiling && rc.MediumRiskCeiling < rc.HighRiskCeiling) {
		return fmt.Errorf("risk level ceilings must be strictly increasing: %f, %f, %f",
			rc.LowRiskCeiling, rc.MediumRiskCeiling, rc.HighRiskCeiling)
	}

	if rc.ManualReviewThreshold < 0.0 || rc.ManualReviewThreshold > 1.0 {
		return fmt.Errorf("manual review threshold must be between 0.0 and 1.0: %f", rc.ManualReviewThreshold)
	}

	if err := rc.Weights.Validate(); err != nil {
		return err
	}

	return nil
}

// Clone creates a deep copy of the risk configuration
func (rc *RiskConfig) Clone() *RiskConfig {
	if rc == nil {
		return nil
	}

	clone := *rc
	return &clone
}

// DuplicateAmountTolerance returns the fuzzy duplicate tolerance as a ratio
func (rc *RiskConfig) DuplicateAmountTolerance() float64 {
	return rc.DuplicateAmountTolerancePercent / 100.0
}

// LevelForScore maps a risk score in [0,1] onto a RiskLevel
func (rc *RiskConfig) LevelForScore(score float64) RiskLevel {
	switch {
	case score < rc.LowRiskCeiling:
		return RiskLow
	case score < rc.MediumRiskCeiling:
		return RiskMedium
	case score < rc.HighRiskCeiling:
		return RiskHigh
	default:
		return RiskCritical
	}
}
