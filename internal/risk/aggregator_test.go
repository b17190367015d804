package risk

import (
	"math"
	"testing"
	"time"

	"ap-reconciliation-service/internal/models"
)

func TestAssessCleanInvoice(t *testing.T) {
	aggregator := NewRiskAggregator(nil)
	date := time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC)

	vendorRisk := &VendorRiskInfo{
		VendorID:   "V-100",
		VendorName: "Acme Corporation",
		Status:     models.VendorStatusActive,
		RiskScore:  0.11,
		RiskLevel:  RiskLow,
	}

	assessment, err := aggregator.Assess(candidateInvoice("INV-613", date, 1000.00), vendorRisk, nil, nil)
	if err != nil {
		t.Fatalf("Assess failed: %v", err)
	}

	// Only the 0.30-weighted vendor component contributes
	if math.Abs(assessment.RiskScore-0.033) > 1e-9 {
		t.Errorf("RiskScore = %v, want 0.033", assessment.RiskScore)
	}
	if assessment.RiskLevel != RiskLow {
		t.Errorf("RiskLevel = %s, want %s", assessment.RiskLevel, RiskLow)
	}
	if len(assessment.Flags) != 0 {
		t.Errorf("Flags = %v, want none", assessment.Flags)
	}
	if assessment.RequiresManualReview {
		t.Error("A clean invoice does not require manual review")
	}
	if assessment.RecommendedAction != "approve" {
		t.Errorf("RecommendedAction = %q, want approve", assessment.RecommendedAction)
	}
}

func TestAssessConfirmedDuplicate(t *testing.T) {
	aggregator := NewRiskAggregator(nil)
	date := time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC)

	duplicate := &DuplicateInfo{
		MatchedInvoiceNumber: "INV-612",
		MatchType:            DuplicateExactInvoiceNumber,
		Confidence:           1.0,
	}

	assessment, err := aggregator.Assess(candidateInvoice("INV-612", date, 1000.00), nil, duplicate, nil)
	if err != nil {
		t.Fatalf("Assess failed: %v", err)
	}

	if !assessment.HasFlag(FlagDuplicateInvoice) {
		t.Error("Expected duplicate_invoice flag")
	}
	if !assessment.HasFlag(FlagConfirmedDuplicate) {
		t.Error("Confidence 1.0 should raise the confirmed_duplicate flag")
	}
	if assessment.RecommendedAction != "reject" {
		t.Errorf("RecommendedAction = %q, want reject", assessment.RecommendedAction)
	}
	if assessment.DuplicateRisk != 1.0 {
		t.Errorf("DuplicateRisk = %v, want 1.0", assessment.DuplicateRisk)
	}
}

func TestAssessUnconfirmedDuplicate(t *testing.T) {
	aggregator := NewRiskAggregator(nil)
	date := time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC)

	duplicate := &DuplicateInfo{
		MatchedInvoiceNumber: "INV-601",
		MatchType:            DuplicateFuzzyAmountDate,
		Confidence:           0.80,
	}

	assessment, err := aggregator.Assess(candidateInvoice("INV-613", date, 1000.00), nil, duplicate, nil)
	if err != nil {
		t.Fatalf("Assess failed: %v", err)
	}

	if !assessment.HasFlag(FlagDuplicateInvoice) {
		t.Error("Expected duplicate_invoice flag")
	}
	if assessment.HasFlag(FlagConfirmedDuplicate) {
		t.Error("Confidence 0.80 stays below the confirmed duplicate bar")
	}
}

func TestAssessVendorStatusFlags(t *testing.T) {
	aggregator := NewRiskAggregator(nil)
	date := time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name      string
		status    models.VendorStatus
		riskScore float64
		wantFlag  string
		action    string
	}{
		// 0.30 * 0.90 fused lands in the medium band
		{"suspended vendor", models.VendorStatusSuspended, 0.90, FlagVendorSuspended, "review"},
		{"blocked vendor", models.VendorStatusBlocked, 0.45, FlagVendorBlocked, "reject"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			vendorRisk := &VendorRiskInfo{
				VendorID:  "V-100",
				Status:    tt.status,
				RiskScore: tt.riskScore,
			}

			assessment, err := aggregator.Assess(candidateInvoice("INV-613", date, 1000.00), vendorRisk, nil, nil)
			if err != nil {
				t.Fatalf("Assess failed: %v", err)
			}
			if !assessment.HasFlag(tt.wantFlag) {
				t.Errorf("Expected %s flag, got %v", tt.wantFlag, assessment.Flags)
			}
			if assessment.RecommendedAction != tt.action {
				t.Errorf("RecommendedAction = %q, want %q", assessment.RecommendedAction, tt.action)
			}
		})
	}
}

func TestAssessHighVendorRiskFlag(t *testing.T) {
	aggregator := NewRiskAggregator(nil)
	date := time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC)

	vendorRisk := &VendorRiskInfo{
		VendorID:       "V-100",
		Status:         models.VendorStatusActive,
		RiskScore:      0.85,
		RiskLevel:      RiskCritical,
		FraudFlagCount: 2,
	}

	assessment, err := aggregator.Assess(candidateInvoice("INV-613", date, 1000.00), vendorRisk, nil, nil)
	if err != nil {
		t.Fatalf("Assess failed: %v", err)
	}

	if !assessment.HasFlag(FlagHighVendorRisk) {
		t.Error("Expected high_vendor_risk flag at score 0.85")
	}
	if !assessment.HasFlag(FlagFraudHistory) {
		t.Error("Expected fraud_history flag for a vendor with prior flags")
	}
}

func TestAssessPriceAnomalyAndAmountRisk(t *testing.T) {
	aggregator := NewRiskAggregator(nil)
	date := time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC)

	anomaly := &AnomalyInfo{
		Ratio:     4.4,
		RiskScore: 0.68,
		IsAnomaly: true,
	}

	assessment, err := aggregator.Assess(candidateInvoice("INV-613", date, 25000.00), nil, nil, anomaly)
	if err != nil {
		t.Fatalf("Assess failed: %v", err)
	}

	if !assessment.HasFlag(FlagPriceAnomaly) {
		t.Error("Expected price_anomaly flag")
	}
	if !assessment.HasFlag(FlagAmountExceedsThreshold) {
		t.Error("A 25000 invoice exceeds the reference threshold")
	}
	if math.Abs(assessment.AmountRisk-0.375) > 1e-9 {
		t.Errorf("AmountRisk = %v, want 0.375", assessment.AmountRisk)
	}

	// 0.25*0.68 price plus 0.15*0.375 amount
	want := 0.25*0.68 + 0.15*0.375
	if math.Abs(assessment.RiskScore-want) > 1e-9 {
		t.Errorf("RiskScore = %v, want %v", assessment.RiskScore, want)
	}
}

func TestAssessManualReviewThreshold(t *testing.T) {
	aggregator := NewRiskAggregator(nil)
	date := time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC)

	duplicate := &DuplicateInfo{Confidence: 1.0, MatchType: DuplicateExactInvoiceNumber}
	vendorRisk := &VendorRiskInfo{Status: models.VendorStatusActive, RiskScore: 0.85, RiskLevel: RiskCritical}
	anomaly := &AnomalyInfo{RiskScore: 0.68, IsAnomaly: true}

	assessment, err := aggregator.Assess(candidateInvoice("INV-613", date, 25000.00), vendorRisk, duplicate, anomaly)
	if err != nil {
		t.Fatalf("Assess failed: %v", err)
	}

	// 0.30 + 0.255 + 0.17 + 0.15*0.375
	if !assessment.RequiresManualReview {
		t.Errorf("RiskScore = %v, expected manual review above 0.70", assessment.RiskScore)
	}
	if assessment.RecommendedAction != "reject" {
		t.Errorf("RecommendedAction = %q, want reject", assessment.RecommendedAction)
	}
}

func TestAssessNilInvoice(t *testing.T) {
	aggregator := NewRiskAggregator(nil)
	if _, err := aggregator.Assess(nil, nil, nil, nil); err == nil {
		t.Error("Expected error for nil invoice")
	}
}

func TestHasFlag(t *testing.T) {
	assessment := &RiskAssessment{Flags: []string{FlagDuplicateInvoice, FlagPriceAnomaly}}

	if !assessment.HasFlag(FlagDuplicateInvoice) {
		t.Error("Expected duplicate_invoice to be present")
	}
	if assessment.HasFlag(FlagVendorBlocked) {
		t.Error("vendor_blocked should be absent")
	}
}
