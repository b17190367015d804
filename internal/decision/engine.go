// Package decision maps combined match and risk signals onto the final
// accounts-payable workflow decision.
package decision

import (
	"fmt"

	"ap-reconciliation-service/internal/matcher"
	"ap-reconciliation-service/internal/risk"

	"github.com/shopspring/decimal"
)

// Outcome is the final workflow decision for an invoice
type Outcome string

const (
	OutcomeAutoApproved          Outcome = "auto_approved"
	OutcomeRequiresReview        Outcome = "requires_review"
	OutcomeRequiresInvestigation Outcome = "requires_investigation"
	OutcomeEscalated             Outcome = "escalated"
	OutcomeRejected              Outcome = "rejected"
)

// String returns the string representation of Outcome
func (o Outcome) String() string {
	return string(o)
}

// Decision is the final workflow outcome derived from a match result and a
// risk assessment. It never mutates either input.
type Decision struct {
	Outcome            Outcome           `json:"outcome"`
	RecommendedActions []string          `json:"recommended_actions"`
	MatchScore         float64           `json:"match_score"`
	MatchType          matcher.MatchType `json:"match_type"`
	RiskScore          float64           `json:"risk_score"`
	RiskLevel          risk.RiskLevel    `json:"risk_level"`
}

// Config holds the decision policy thresholds
type Config struct {
	// AutoApproveCeiling is the maximum invoice total eligible for
	// auto-approval
	AutoApproveCeiling decimal.Decimal `json:"auto_approve_ceiling"`

	// AutoApproveMinScore is the minimum overall match score for
	// auto-approval
	AutoApproveMinScore float64 `json:"auto_approve_min_score"`

	// AutoApproveMaxRisk is the risk score at or above which auto-approval
	// is never granted, regardless of match quality
	AutoApproveMaxRisk float64 `json:"auto_approve_max_risk"`

	// InvestigationRiskThreshold is the risk score at which an invoice
	// moves from review to investigation
	InvestigationRiskThreshold float64 `json:"investigation_risk_threshold"`
}

// DefaultConfig returns the signed-off decision policy defaults
func DefaultConfig() *Config {
	return &Config{
		AutoApproveCeiling:         decimal.NewFromInt(10000),
		AutoApproveMinScore:        0.85,
		AutoApproveMaxRisk:         0.40,
		InvestigationRiskThreshold: 0.70,
	}
}

// Validate checks if the decision configuration is valid
func (c *Config) Validate() error {
	if c.AutoApproveCeiling.IsNegative() {
		return fmt.Errorf("auto-approve ceiling cannot be negative: %s", c.AutoApproveCeiling)
	}

	for name, v := range map[string]float64{
		"auto-approve minimum score":   c.AutoApproveMinScore,
		"auto-approve maximum risk":    c.AutoApproveMaxRisk,
		"investigation risk threshold": c.InvestigationRiskThreshold,
	} {
		if v < 0.0 || v > 1.0 {
			return fmt.Errorf("%s must be between 0.0 and 1.0: %f", name, v)
		}
	}

	return nil
}

// Engine combines a match result and a risk assessment into a decision
type Engine struct {
	Config *Config
}

// NewEngine creates a decision engine with the specified configuration
func NewEngine(config *Config) *Engine {
	if config == nil {
		config = DefaultConfig()
	}

	return &Engine{
		Config: config,
	}
}

// Decide maps (matchResult, riskAssessment) onto the final workflow
// decision. Risk always overrides match quality: a perfect match score
// cannot auto-approve an invoice whose risk sits at or above the ceiling.
func (e *Engine) Decide(matchResult *matcher.MatchResult, assessment *risk.RiskAssessment) (*Decision, error) {
	if matchResult == nil {
		return nil, fmt.Errorf("match result must not be nil")
	}
	if assessment == nil {
		return nil, fmt.Errorf("risk assessment must not be nil")
	}

	d := &Decision{
		MatchScore: matchResult.OverallScore,
		MatchType:  matchResult.MatchType,
		RiskScore:  assessment.RiskScore,
		RiskLevel:  assessment.RiskLevel,
	}

	critical := matchResult.HasCriticalDiscrepancy()

	switch {
	case assessment.HasFlag(risk.FlagVendorBlocked):
		d.Outcome = OutcomeRejected
		d.RecommendedActions = append(d.RecommendedActions,
			"Reject invoice: vendor is blocked from payment",
			"Notify procurement of attempted submission by a blocked vendor")

	case assessment.HasFlag(risk.FlagConfirmedDuplicate):
		d.Outcome = OutcomeRejected
		d.RecommendedActions = append(d.RecommendedActions,
			"Reject invoice: confirmed duplicate of a recorded invoice",
			"Return the invoice to the vendor referencing the prior submission")

	case assessment.RiskLevel == risk.RiskCritical:
		d.Outcome = OutcomeEscalated
		d.RecommendedActions = append(d.RecommendedActions,
			"Escalate to the AP supervisor: critical risk level")

	case critical && assessment.RiskScore >= e.Config.InvestigationRiskThreshold:
		d.Outcome = OutcomeEscalated
		d.RecommendedActions = append(d.RecommendedActions,
			"Escalate: critical discrepancy combined with high risk")

	case critical || assessment.RiskScore >= e.Config.InvestigationRiskThreshold:
		d.Outcome = OutcomeRequiresInvestigation
		if critical {
			d.RecommendedActions = append(d.RecommendedActions,
				"Investigate critical discrepancies before any approval")
		}
		if assessment.RiskScore >= e.Config.InvestigationRiskThreshold {
			d.RecommendedActions = append(d.RecommendedActions,
				"Investigate elevated risk signals before any approval")
		}

	case e.autoApprovable(matchResult, assessment):
		d.Outcome = OutcomeAutoApproved
		d.RecommendedActions = append(d.RecommendedActions,
			"Approve for payment and schedule per payment terms")

	default:
		d.Outcome = OutcomeRequiresReview
		d.RecommendedActions = append(d.RecommendedActions, e.reviewActions(matchResult, assessment)...)
	}

	// Every decision carries at least one action for the workflow queue
	if len(d.RecommendedActions) == 0 {
		d.RecommendedActions = append(d.RecommendedActions, "Route to manual review")
	}

	return d, nil
}

// autoApprovable checks the full auto-approval gate: strong match, low
// risk, amount under the ceiling, and nothing critical outstanding
func (e *Engine) autoApprovable(matchResult *matcher.MatchResult, assessment *risk.RiskAssessment) bool {
	if matchResult.OverallScore < e.Config.AutoApproveMinScore {
		return false
	}
	if assessment.RiskScore >= e.Config.AutoApproveMaxRisk {
		return false
	}
	if assessment.RequiresManualReview {
		return false
	}
	if matchResult.HasCriticalDiscrepancy() {
		return false
	}
	if matchResult.Invoice != nil && matchResult.Invoice.Total.GreaterThan(e.Config.AutoApproveCeiling) {
		return false
	}
	return matchResult.Matched
}

// reviewActions explains why the invoice landed in manual review
func (e *Engine) reviewActions(matchResult *matcher.MatchResult, assessment *risk.RiskAssessment) []string {
	var actions []string

	if matchResult.OverallScore < e.Config.AutoApproveMinScore {
		actions = append(actions, fmt.Sprintf(
			"Review match quality: overall score %.2f below auto-approval minimum %.2f",
			matchResult.OverallScore, e.Config.AutoApproveMinScore))
	}

	if matchResult.Invoice != nil && matchResult.Invoice.Total.GreaterThan(e.Config.AutoApproveCeiling) {
		actions = append(actions, fmt.Sprintf(
			"Review amount: invoice total %s exceeds auto-approval ceiling %s",
			matchResult.Invoice.Total.String(), e.Config.AutoApproveCeiling.String()))
	}

	if assessment.RiskScore >= e.Config.AutoApproveMaxRisk {
		actions = append(actions, fmt.Sprintf(
			"Review risk: aggregate risk score %.2f at or above auto-approval ceiling %.2f",
			assessment.RiskScore, e.Config.AutoApproveMaxRisk))
	}

	for _, disc := range matchResult.Discrepancies {
		if disc.Severity == matcher.SeverityHigh {
			actions = append(actions, fmt.Sprintf("Resolve discrepancy: %s", disc.Description))
		}
	}

	if len(actions) == 0 {
		actions = append(actions, "Route to manual review")
	}

	return actions
}
