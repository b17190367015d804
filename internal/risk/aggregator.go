package risk

import (
	"fmt"

	"ap-reconciliation-service/internal/models"
)

// Risk flag identifiers contributed to an assessment
const (
	FlagDuplicateInvoice       = "duplicate_invoice"
	FlagConfirmedDuplicate     = "confirmed_duplicate"
	FlagVendorSuspended        = "vendor_suspended"
	FlagVendorBlocked          = "vendor_blocked"
	FlagHighVendorRisk         = "high_vendor_risk"
	FlagFraudHistory           = "fraud_history"
	FlagPriceAnomaly           = "price_anomaly"
	FlagAmountExceedsThreshold = "amount_exceeds_threshold"
)

// confirmedDuplicateConfidence is the confidence at which a duplicate stops
// being a review item and becomes grounds for rejection.
const confirmedDuplicateConfidence = 0.90

// RiskAssessment is the fused outcome of all risk detectors for one invoice
type RiskAssessment struct {
	RiskScore            float64   `json:"risk_score"`
	RiskLevel            RiskLevel `json:"risk_level"`
	Flags                []string  `json:"flags,omitempty"`
	RecommendedAction    string    `json:"recommended_action"`
	RequiresManualReview bool      `json:"requires_manual_review"`

	// Component scores kept for explainability
	DuplicateRisk float64 `json:"duplicate_risk"`
	VendorRisk    float64 `json:"vendor_risk"`
	PriceRisk     float64 `json:"price_risk"`
	AmountRisk    float64 `json:"amount_risk"`
}

// HasFlag reports whether the assessment carries the given flag
func (ra *RiskAssessment) HasFlag(flag string) bool {
	for _, f := range ra.Flags {
		if f == flag {
			return true
		}
	}
	return false
}

// RiskAggregator fuses duplicate, vendor, price, and amount risk into one
// assessment
type RiskAggregator struct {
	Config *RiskConfig
}

// NewRiskAggregator creates a new risk aggregator with the specified
// configuration
func NewRiskAggregator(config *RiskConfig) *RiskAggregator {
	if config == nil {
		config = DefaultRiskConfig()
	}

	return &RiskAggregator{
		Config: config,
	}
}

// Assess fuses the detector outputs for one invoice into a single risk
// assessment. Absent detector payloads contribute zero risk rather than
// failing the assessment.
func (ra *RiskAggregator) Assess(invoice *models.Invoice, vendorRisk *VendorRiskInfo, duplicateInfo *DuplicateInfo, anomalyInfo *AnomalyInfo) (*RiskAssessment, error) {
	if invoice == nil {
		return nil, fmt.Errorf("invoice must not be nil")
	}

	assessment := &RiskAssessment{}

	if duplicateInfo != nil {
		assessment.DuplicateRisk = duplicateInfo.Confidence
		assessment.Flags = append(assessment.Flags, FlagDuplicateInvoice)
		if duplicateInfo.Confidence >= confirmedDuplicateConfidence {
			assessment.Flags = append(assessment.Flags, FlagConfirmedDuplicate)
		}
	}

	if vendorRisk != nil {
		assessment.VendorRisk = vendorRisk.RiskScore
		switch vendorRisk.Status {
		case models.VendorStatusSuspended:
			assessment.Flags = append(assessment.Flags, FlagVendorSuspended)
		case models.VendorStatusBlocked:
			assessment.Flags = append(assessment.Flags, FlagVendorBlocked)
		}
		if vendorRisk.RiskScore >= ra.Config.HighRiskCeiling {
			assessment.Flags = append(assessment.Flags, FlagHighVendorRisk)
		}
		if vendorRisk.FraudFlagCount > 0 {
			assessment.Flags = append(assessment.Flags, FlagFraudHistory)
		}
	}

	if anomalyInfo != nil && anomalyInfo.IsAnomaly {
		assessment.PriceRisk = anomalyInfo.RiskScore
		assessment.Flags = append(assessment.Flags, FlagPriceAnomaly)
	}

	priorFlags := 0
	if vendorRisk != nil {
		priorFlags = vendorRisk.FraudFlagCount
	}
	detector := NewPriceAnomalyDetector(ra.Config)
	assessment.AmountRisk = detector.CalculateAmountRisk(invoice.Total, priorFlags, ra.Config.AmountReferenceThreshold)
	if assessment.AmountRisk > 0 {
		assessment.Flags = append(assessment.Flags, FlagAmountExceedsThreshold)
	}

	weights := ra.Config.Weights
	assessment.RiskScore = weights.DuplicateWeight*assessment.DuplicateRisk +
		weights.VendorWeight*assessment.VendorRisk +
		weights.PriceWeight*assessment.PriceRisk +
		weights.AmountWeight*assessment.AmountRisk

	assessment.RiskLevel = ra.Config.LevelForScore(assessment.RiskScore)
	assessment.RequiresManualReview = assessment.RiskScore >= ra.Config.ManualReviewThreshold
	assessment.RecommendedAction = ra.recommendAction(assessment)

	return assessment, nil
}

// recommendAction maps the fused assessment onto one suggested next step
func (ra *RiskAggregator) recommendAction(assessment *RiskAssessment) string {
	switch {
	case assessment.HasFlag(FlagVendorBlocked), assessment.HasFlag(FlagConfirmedDuplicate):
		return "reject"
	case assessment.RiskLevel == RiskCritical:
		return "escalate"
	case assessment.RiskLevel == RiskHigh:
		return "investigate"
	case assessment.RiskLevel == RiskMedium:
		return "review"
	default:
		return "approve"
	}
}
