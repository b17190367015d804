// Package reporter renders invoice evaluation results for terminal display
// and programmatic consumption.
//
// Supported output formats:
//   - Console: human-readable sections for terminal display
//   - JSON: structured data for downstream tooling
package reporter

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"ap-reconciliation-service/internal/engine"
	"ap-reconciliation-service/internal/matcher"
)

// OutputFormat represents the supported report output formats
type OutputFormat string

const (
	FormatConsole OutputFormat = "console"
	FormatJSON    OutputFormat = "json"
)

// IsValid checks if the output format is supported
func (f OutputFormat) IsValid() bool {
	switch f {
	case FormatConsole, FormatJSON:
		return true
	default:
		return false
	}
}

// ReportConfig holds configuration options for report generation
type ReportConfig struct {
	Format OutputFormat `json:"format"`

	IncludeFactorScores  bool `json:"include_factor_scores"`
	IncludeLineItems     bool `json:"include_line_items"`
	IncludeDiscrepancies bool `json:"include_discrepancies"`
	IncludeRiskDetail    bool `json:"include_risk_detail"`
}

// DefaultReportConfig returns a default report configuration
func DefaultReportConfig() *ReportConfig {
	return &ReportConfig{
		Format:               FormatConsole,
		IncludeFactorScores:  true,
		IncludeLineItems:     false,
		IncludeDiscrepancies: true,
		IncludeRiskDetail:    true,
	}
}

// Validate validates the report configuration
func (c *ReportConfig) Validate() error {
	if !c.Format.IsValid() {
		return fmt.Errorf("invalid output format: %s", c.Format)
	}
	return nil
}

// EvaluationReporter renders evaluation results
type EvaluationReporter struct {
	config *ReportConfig
}

// NewEvaluationReporter creates a reporter with the given configuration
func NewEvaluationReporter(config *ReportConfig) (*EvaluationReporter, error) {
	if config == nil {
		config = DefaultReportConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &EvaluationReporter{config: config}, nil
}

// WriteReport renders the evaluation result to the writer in the
// configured format
func (r *EvaluationReporter) WriteReport(w io.Writer, result *engine.EvaluationResult) error {
	if result == nil {
		return fmt.Errorf("evaluation result cannot be nil")
	}

	switch r.config.Format {
	case FormatJSON:
		return r.writeJSON(w, result)
	default:
		return r.writeConsole(w, result)
	}
}

func (r *EvaluationReporter) writeJSON(w io.Writer, result *engine.EvaluationResult) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(result)
}

func (r *EvaluationReporter) writeConsole(w io.Writer, result *engine.EvaluationResult) error {
	var b strings.Builder

	b.WriteString("Invoice Evaluation Report\n")
	b.WriteString(strings.Repeat("=", 60) + "\n")
	if result.Invoice != nil {
		fmt.Fprintf(&b, "Invoice:      %s\n", result.Invoice.InvoiceNumber)
		fmt.Fprintf(&b, "Vendor:       %s\n", result.Invoice.VendorName)
		fmt.Fprintf(&b, "Total:        %s %s\n", result.Invoice.Total.StringFixed(2), result.Invoice.NormalizedCurrency())
	}
	fmt.Fprintf(&b, "Evaluation:   %s\n", result.EvaluationID)
	fmt.Fprintf(&b, "Evaluated at: %s\n", result.EvaluatedAt.Format("2006-01-02 15:04:05"))

	if !result.Succeeded {
		fmt.Fprintf(&b, "\nEvaluation failed: %s\n", result.Error)
		_, err := io.WriteString(w, b.String())
		return err
	}

	r.writeMatchSection(&b, result.Match)
	r.writeRiskSection(&b, result)
	r.writeDecisionSection(&b, result)

	_, err := io.WriteString(w, b.String())
	return err
}

func (r *EvaluationReporter) writeMatchSection(b *strings.Builder, match *matcher.MatchResult) {
	b.WriteString("\nPurchase Order Match\n")
	b.WriteString(strings.Repeat("-", 60) + "\n")

	if match == nil || match.PurchaseOrder == nil {
		b.WriteString("No purchase order matched.\n")
		if match != nil {
			for _, reason := range match.Reasons {
				fmt.Fprintf(b, "  - %s\n", reason)
			}
		}
		return
	}

	fmt.Fprintf(b, "Purchase order: %s\n", match.PurchaseOrder.PONumber)
	fmt.Fprintf(b, "Match type:     %s\n", match.MatchType)
	fmt.Fprintf(b, "Overall score:  %.3f\n", match.OverallScore)
	fmt.Fprintf(b, "Amount delta:   %s\n", match.AmountDifference.StringFixed(2))

	if r.config.IncludeFactorScores {
		fmt.Fprintf(b, "Factors:        vendor=%.3f amount=%.3f line_items=%.3f date=%.3f\n",
			match.Factors.Vendor, match.Factors.Amount, match.Factors.LineItems, match.Factors.Date)
	}

	if r.config.IncludeLineItems && match.LineItems != nil {
		fmt.Fprintf(b, "Line items:     score=%.3f matched=%d unmatched_invoice=%d unmatched_po=%d\n",
			match.LineItems.Score, len(match.LineItems.Pairs),
			len(match.LineItems.UnmatchedInvoiceItems), len(match.LineItems.UnmatchedPOItems))
		for _, pair := range match.LineItems.Pairs {
			fmt.Fprintf(b, "  [%d->%d] score=%.3f %s\n",
				pair.InvoiceIndex, pair.POIndex, pair.Score, pair.InvoiceItem.Description)
		}
	}

	if r.config.IncludeDiscrepancies && len(match.Discrepancies) > 0 {
		b.WriteString("Discrepancies:\n")
		for _, d := range match.Discrepancies {
			fmt.Fprintf(b, "  [%s] %s: %s\n", d.Severity, d.Type, d.Description)
		}
	}
}

func (r *EvaluationReporter) writeRiskSection(b *strings.Builder, result *engine.EvaluationResult) {
	if result.Risk == nil {
		return
	}

	b.WriteString("\nRisk Assessment\n")
	b.WriteString(strings.Repeat("-", 60) + "\n")
	fmt.Fprintf(b, "Risk score:     %.3f (%s)\n", result.Risk.RiskScore, result.Risk.RiskLevel)
	if len(result.Risk.Flags) > 0 {
		fmt.Fprintf(b, "Flags:          %s\n", strings.Join(result.Risk.Flags, ", "))
	}
	fmt.Fprintf(b, "Manual review:  %t\n", result.Risk.RequiresManualReview)

	if !r.config.IncludeRiskDetail {
		return
	}

	fmt.Fprintf(b, "Components:     duplicate=%.3f vendor=%.3f price=%.3f amount=%.3f\n",
		result.Risk.DuplicateRisk, result.Risk.VendorRisk, result.Risk.PriceRisk, result.Risk.AmountRisk)

	if result.Duplicate != nil {
		fmt.Fprintf(b, "Duplicate:      %s (confidence %.2f)\n",
			result.Duplicate.Description, result.Duplicate.Confidence)
	}
	if result.VendorRisk != nil {
		fmt.Fprintf(b, "Vendor:         %s status=%s score=%.3f (%s)\n",
			result.VendorRisk.VendorName, result.VendorRisk.Status,
			result.VendorRisk.RiskScore, result.VendorRisk.RiskLevel)
	}
	if result.Anomaly != nil && result.Anomaly.IsAnomaly {
		fmt.Fprintf(b, "Price anomaly:  %s\n", result.Anomaly.Description)
	}
}

func (r *EvaluationReporter) writeDecisionSection(b *strings.Builder, result *engine.EvaluationResult) {
	if result.Decision == nil {
		return
	}

	b.WriteString("\nDecision\n")
	b.WriteString(strings.Repeat("-", 60) + "\n")
	fmt.Fprintf(b, "Outcome:        %s\n", result.Decision.Outcome)
	b.WriteString("Recommended actions:\n")
	for _, action := range result.Decision.RecommendedActions {
		fmt.Fprintf(b, "  - %s\n", action)
	}
}
