package decision

import (
	"testing"

	"ap-reconciliation-service/internal/matcher"
	"ap-reconciliation-service/internal/models"
	"ap-reconciliation-service/internal/risk"

	"github.com/shopspring/decimal"
)

func createMatchResult(score float64, matched bool) *matcher.MatchResult {
	return &matcher.MatchResult{
		Invoice: &models.Invoice{
			InvoiceNumber: "INV-2025-001",
			VendorID:      "V-100",
			Total:         decimal.NewFromFloat(1100.00),
		},
		MatchType:    matcher.MatchExact,
		OverallScore: score,
		Matched:      matched,
	}
}

func createAssessment(score float64, level risk.RiskLevel, flags ...string) *risk.RiskAssessment {
	return &risk.RiskAssessment{
		RiskScore: score,
		RiskLevel: level,
		Flags:     flags,
	}
}

func TestDecideAutoApproved(t *testing.T) {
	engine := NewEngine(nil)

	decision, err := engine.Decide(createMatchResult(0.97, true), createAssessment(0.05, risk.RiskLow))
	if err != nil {
		t.Fatalf("Decide failed: %v", err)
	}

	if decision.Outcome != OutcomeAutoApproved {
		t.Errorf("Outcome = %s, want %s", decision.Outcome, OutcomeAutoApproved)
	}
	if len(decision.RecommendedActions) == 0 {
		t.Error("Every decision must carry at least one action")
	}
	if decision.MatchScore != 0.97 || decision.RiskScore != 0.05 {
		t.Error("Decision must carry the input scores unchanged")
	}
}

func TestDecideRiskOverridesMatchQuality(t *testing.T) {
	engine := NewEngine(nil)

	// Perfect match but risk at the auto-approval ceiling
	decision, err := engine.Decide(createMatchResult(1.0, true), createAssessment(0.45, risk.RiskMedium))
	if err != nil {
		t.Fatalf("Decide failed: %v", err)
	}

	if decision.Outcome != OutcomeRequiresReview {
		t.Errorf("Outcome = %s, want %s", decision.Outcome, OutcomeRequiresReview)
	}
}

func TestDecideAutoApprovalGate(t *testing.T) {
	engine := NewEngine(nil)

	tests := []struct {
		name       string
		match      *matcher.MatchResult
		assessment *risk.RiskAssessment
		want       Outcome
	}{
		{
			"score below minimum",
			createMatchResult(0.80, true),
			createAssessment(0.05, risk.RiskLow),
			OutcomeRequiresReview,
		},
		{
			"unmatched invoice",
			createMatchResult(0.97, false),
			createAssessment(0.05, risk.RiskLow),
			OutcomeRequiresReview,
		},
		{
			"manual review requested by risk",
			createMatchResult(0.97, true),
			&risk.RiskAssessment{RiskScore: 0.05, RiskLevel: risk.RiskLow, RequiresManualReview: true},
			OutcomeRequiresReview,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			decision, err := engine.Decide(tt.match, tt.assessment)
			if err != nil {
				t.Fatalf("Decide failed: %v", err)
			}
			if decision.Outcome != tt.want {
				t.Errorf("Outcome = %s, want %s", decision.Outcome, tt.want)
			}
		})
	}
}

func TestDecideAmountCeilingBlocksAutoApproval(t *testing.T) {
	engine := NewEngine(nil)

	match := createMatchResult(0.97, true)
	match.Invoice.Total = decimal.NewFromFloat(25000.00)

	decision, err := engine.Decide(match, createAssessment(0.05, risk.RiskLow))
	if err != nil {
		t.Fatalf("Decide failed: %v", err)
	}
	if decision.Outcome != OutcomeRequiresReview {
		t.Errorf("Outcome = %s, want %s above the auto-approval ceiling", decision.Outcome, OutcomeRequiresReview)
	}
}

func TestDecideRejectedForBlockedVendor(t *testing.T) {
	engine := NewEngine(nil)

	decision, err := engine.Decide(createMatchResult(0.97, true),
		createAssessment(0.30, risk.RiskMedium, risk.FlagVendorBlocked))
	if err != nil {
		t.Fatalf("Decide failed: %v", err)
	}

	if decision.Outcome != OutcomeRejected {
		t.Errorf("Outcome = %s, want %s", decision.Outcome, OutcomeRejected)
	}
}

func TestDecideRejectedForConfirmedDuplicate(t *testing.T) {
	engine := NewEngine(nil)

	decision, err := engine.Decide(createMatchResult(0.97, true),
		createAssessment(0.35, risk.RiskMedium, risk.FlagDuplicateInvoice, risk.FlagConfirmedDuplicate))
	if err != nil {
		t.Fatalf("Decide failed: %v", err)
	}

	if decision.Outcome != OutcomeRejected {
		t.Errorf("Outcome = %s, want %s", decision.Outcome, OutcomeRejected)
	}
}

func TestDecideEscalatedForCriticalRisk(t *testing.T) {
	engine := NewEngine(nil)

	decision, err := engine.Decide(createMatchResult(0.97, true), createAssessment(0.80, risk.RiskCritical))
	if err != nil {
		t.Fatalf("Decide failed: %v", err)
	}

	if decision.Outcome != OutcomeEscalated {
		t.Errorf("Outcome = %s, want %s", decision.Outcome, OutcomeEscalated)
	}
}

func TestDecideEscalatedForCriticalDiscrepancyWithHighRisk(t *testing.T) {
	engine := NewEngine(nil)

	match := createMatchResult(0.90, true)
	match.Discrepancies = []matcher.Discrepancy{{
		Type:        matcher.DiscrepancyCurrencyMismatch,
		Severity:    matcher.SeverityCritical,
		Description: "invoice currency EUR does not match purchase order currency USD",
	}}

	decision, err := engine.Decide(match, createAssessment(0.72, risk.RiskHigh))
	if err != nil {
		t.Fatalf("Decide failed: %v", err)
	}

	if decision.Outcome != OutcomeEscalated {
		t.Errorf("Outcome = %s, want %s", decision.Outcome, OutcomeEscalated)
	}
}

func TestDecideInvestigation(t *testing.T) {
	engine := NewEngine(nil)

	tests := []struct {
		name       string
		match      *matcher.MatchResult
		assessment *risk.RiskAssessment
	}{
		{
			"critical discrepancy alone",
			func() *matcher.MatchResult {
				m := createMatchResult(0.90, true)
				m.Discrepancies = []matcher.Discrepancy{{
					Type:     matcher.DiscrepancyCurrencyMismatch,
					Severity: matcher.SeverityCritical,
				}}
				return m
			}(),
			createAssessment(0.10, risk.RiskLow),
		},
		{
			"elevated risk alone",
			createMatchResult(0.97, true),
			createAssessment(0.72, risk.RiskHigh),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			decision, err := engine.Decide(tt.match, tt.assessment)
			if err != nil {
				t.Fatalf("Decide failed: %v", err)
			}
			if decision.Outcome != OutcomeRequiresInvestigation {
				t.Errorf("Outcome = %s, want %s", decision.Outcome, OutcomeRequiresInvestigation)
			}
			if len(decision.RecommendedActions) == 0 {
				t.Error("Investigation decisions must explain what to investigate")
			}
		})
	}
}

func TestDecideNilInputs(t *testing.T) {
	engine := NewEngine(nil)

	if _, err := engine.Decide(nil, createAssessment(0.1, risk.RiskLow)); err == nil {
		t.Error("Expected error for nil match result")
	}
	if _, err := engine.Decide(createMatchResult(0.9, true), nil); err == nil {
		t.Error("Expected error for nil assessment")
	}
}

func TestConfigValidate(t *testing.T) {
	if err := DefaultConfig().Validate(); err != nil {
		t.Errorf("Default config should be valid: %v", err)
	}

	config := DefaultConfig()
	config.AutoApproveCeiling = decimal.NewFromInt(-1)
	if err := config.Validate(); err == nil {
		t.Error("Expected error for negative ceiling")
	}

	config = DefaultConfig()
	config.AutoApproveMinScore = 1.5
	if err := config.Validate(); err == nil {
		t.Error("Expected error for out-of-range minimum score")
	}
}

func TestOutcomeString(t *testing.T) {
	if OutcomeAutoApproved.String() != "auto_approved" {
		t.Errorf("String = %q", OutcomeAutoApproved.String())
	}
	if OutcomeRequiresInvestigation.String() != "requires_investigation" {
		t.Errorf("String = %q", OutcomeRequiresInvestigation.String())
	}
}
