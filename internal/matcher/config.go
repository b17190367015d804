// Package matcher provides the invoice-to-purchase-order matching engine.
//
// This package implements the scoring side of accounts-payable
// reconciliation, handling the real-world imperfections of vendor
// documents:
//   - Vendor names that differ in abbreviation, suffix, or extra words
//   - Totals that drift within rounding or partial-shipment tolerances
//   - Invoices issued days or weeks after their purchase order
//   - Line items with reworded descriptions or repackaged quantities
//
// The engine scores one invoice against one purchase order in four factors
// (vendor, amount, line items, date), fuses them into a weighted overall
// score, classifies the match quality, and enumerates concrete
// discrepancies alongside the score.
//
// Example usage:
//
//	config := matcher.DefaultMatchingConfig()
//	config.AmountTolerancePercent = 2.5
//
//	scorer := matcher.NewMatchScorer(config)
//	result, err := scorer.ScoreMatch(invoice, purchaseOrder)
package matcher

import (
	"fmt"
)

// MatchType represents the quality classification of an invoice/PO match.
type MatchType string

const (
	// MatchExact represents a near-perfect match with no critical
	// discrepancies. These matches are candidates for auto-approval.
	MatchExact MatchType = "exact"

	// MatchFuzzy represents a high-confidence match with minor variation.
	MatchFuzzy MatchType = "fuzzy"

	// MatchPartial represents a mid-range match that needs review.
	MatchPartial MatchType = "partial"

	// MatchNone indicates the invoice does not plausibly belong to the PO.
	MatchNone MatchType = "none"
)

// String returns the string representation of MatchType
func (mt MatchType) String() string {
	return string(mt)
}

// MatchingWeights defines the relative importance of the four match factors.
// Vendor, amount, and line items are primary and equally weighted; the date
// factor is minor.
type MatchingWeights struct {
	VendorWeight    float64 `json:"vendor_weight"`
	AmountWeight    float64 `json:"amount_weight"`
	LineItemsWeight float64 `json:"line_items_weight"`
	DateWeight      float64 `json:"date_weight"`
}

// Validate checks if the matching weights are valid
func (mw *MatchingWeights) Validate() error {
	for name, w := range map[string]float64{
		"vendor":     mw.VendorWeight,
		"amount":     mw.AmountWeight,
		"line items": mw.LineItemsWeight,
		"date":       mw.DateWeight,
	} {
		if w < 0.0 || w > 1.0 {
			return fmt.Errorf("%s weight must be between 0.0 and 1.0: %f", name, w)
		}
	}

	total := mw.VendorWeight + mw.AmountWeight + mw.LineItemsWeight + mw.DateWeight
	if total < 0.9 || total > 1.1 {
		return fmt.Errorf("weights should sum to approximately 1.0, got %f", total)
	}

	return nil
}

// MatchingConfig holds configuration parameters for invoice/PO matching.
// The tolerance and weight values are business policy, not physics: the
// defaults reproduce the behavior the reconciliation team has signed off
// on, and every value can be tuned per deployment.
//
// Use the provided factory functions for common scenarios:
//   - DefaultMatchingConfig(): balanced approach for most use cases
//   - StrictMatchingConfig(): tight tolerances for critical reconciliation
//   - RelaxedMatchingConfig(): loose tolerances for exploratory matching
type MatchingConfig struct {
	// AmountTolerancePercent defines the relative tolerance for total
	// comparison (0.0 to 100.0). Within this tolerance the amount factor
	// stays in the acceptable band.
	AmountTolerancePercent float64 `json:"amount_tolerance_percent"`

	// AcceptableLeadDays is the number of days after PO creation during
	// which an invoice is considered normally timed.
	AcceptableLeadDays int `json:"acceptable_lead_days"`

	// MaxLeadDays is the point at which the date factor reaches zero.
	MaxLeadDays int `json:"max_lead_days"`

	// EarlyInvoicePenalty is subtracted from the date factor whenever the
	// invoice predates its purchase order. An invoice issued before the PO
	// it bills against is inherently suspicious.
	EarlyInvoicePenalty float64 `json:"early_invoice_penalty"`

	// VendorAcceptThreshold is the vendor-similarity score below which a
	// vendor discrepancy is raised.
	VendorAcceptThreshold float64 `json:"vendor_accept_threshold"`

	// LineItemPairThreshold is the minimum per-pair score for a line-item
	// pairing to count as matched.
	LineItemPairThreshold float64 `json:"line_item_pair_threshold"`

	// MinConfidenceScore defines the minimum overall score for the invoice
	// to be considered matched at all.
	MinConfidenceScore float64 `json:"min_confidence_score"`

	// ExactMatchThreshold is the overall score at or above which a match
	// with no critical discrepancies classifies as exact.
	ExactMatchThreshold float64 `json:"exact_match_threshold"`

	// FuzzyMatchThreshold is the overall score at or above which a match
	// classifies as fuzzy.
	FuzzyMatchThreshold float64 `json:"fuzzy_match_threshold"`

	// Weights holds the relative factor weights for the overall score.
	Weights MatchingWeights `json:"weights"`
}

// DefaultMatchingConfig returns a configuration with the signed-off defaults
func DefaultMatchingConfig() *MatchingConfig {
	return &MatchingConfig{
		AmountTolerancePercent: 5.0,
		AcceptableLeadDays:     30,
		MaxLeadDays:            90,
		EarlyInvoicePenalty:    0.25,
		VendorAcceptThreshold:  0.75,
		LineItemPairThreshold:  0.50,
		MinConfidenceScore:     0.60,
		ExactMatchThreshold:    0.95,
		FuzzyMatchThreshold:    0.85,
		Weights: MatchingWeights{
			VendorWeight:    0.30,
			AmountWeight:    0.30,
			LineItemsWeight: 0.30,
			DateWeight:      0.10,
		},
	}
}

// StrictMatchingConfig returns a configuration for strict matching
func StrictMatchingConfig() *MatchingConfig {
	return &MatchingConfig{
		AmountTolerancePercent: 1.0,
		AcceptableLeadDays:     14,
		MaxLeadDays:            45,
		EarlyInvoicePenalty:    0.40,
		VendorAcceptThreshold:  0.90,
		LineItemPairThreshold:  0.70,
		MinConfidenceScore:     0.80,
		ExactMatchThreshold:    0.97,
		FuzzyMatchThreshold:    0.90,
		Weights: MatchingWeights{
			VendorWeight:    0.30,
			AmountWeight:    0.30,
			LineItemsWeight: 0.30,
			DateWeight:      0.10,
		},
	}
}

// RelaxedMatchingConfig returns a configuration for exploratory matching
func RelaxedMatchingConfig() *MatchingConfig {
	return &MatchingConfig{
		AmountTolerancePercent: 10.0,
		AcceptableLeadDays:     45,
		MaxLeadDays:            180,
		EarlyInvoicePenalty:    0.15,
		VendorAcceptThreshold:  0.60,
		LineItemPairThreshold:  0.40,
		MinConfidenceScore:     0.45,
		ExactMatchThreshold:    0.95,
		FuzzyMatchThreshold:    0.80,
		Weights: MatchingWeights{
			VendorWeight:    0.30,
			AmountWeight:    0.30,
			LineItemsWeight: 0.30,
			DateWeight:      0.10,
		},
	}
}

// Validate checks if the matching configuration is valid
func (mc *MatchingConfig) Validate() error {
	if mc.AmountTolerancePercent < 0.0 || mc.AmountTolerancePercent > 100.0 {
		return fmt.Errorf("amount tolerance percent must be between 0.0 and 100.0: %f", mc.AmountTolerancePercent)
	}

	if mc.AcceptableLeadDays < 0 {
		return fmt.Errorf("acceptable lead days cannot be negative: %d", mc.AcceptableLeadDays)
	}

	if mc.MaxLeadDays < mc.AcceptableLeadDays {
		return fmt.Errorf("max lead days (%d) cannot be less than acceptable lead days (%d)",
			mc.MaxLeadDays, mc.AcceptableLeadDays)
	}

	if mc.EarlyInvoicePenalty < 0.0 || mc.EarlyInvoicePenalty > 1.0 {
		return fmt.Errorf("early invoice penalty must be between 0.0 and 1.0: %f", mc.EarlyInvoicePenalty)
	}

	for name, v := range map[string]float64{
		"vendor accept threshold":  mc.VendorAcceptThreshold,
		"line item pair threshold": mc.LineItemPairThreshold,
		"minimum confidence score": mc.MinConfidenceScore,
		"exact match threshold":    mc.ExactMatchThreshold,
		"fuzzy match threshold":    mc.FuzzyMatchThreshold,
	} {
		if v < 0.0 || v > 1.0 {
			return fmt.Errorf("%s must be between 0.0 and 1.0: %f", name, v)
		}
	}

	if mc.FuzzyMatchThreshold > mc.ExactMatchThreshold {
		return fmt.Errorf("fuzzy match threshold (%f) cannot exceed exact match threshold (%f)",
			mc.FuzzyMatchThreshold, mc.ExactMatchThreshold)
	}

	if err := mc.Weights.Validate(); err != nil {
		return fmt.Errorf("invalid weights: %w", err)
	}

	return nil
}

// Clone creates a deep copy of the matching configuration
func (mc *MatchingConfig) Clone() *MatchingConfig {
	if mc == nil {
		return nil
	}

	clone := *mc
	return &clone
}

// AmountTolerance returns the relative amount tolerance as a ratio in [0,1]
func (mc *MatchingConfig) AmountTolerance() float64 {
	return mc.AmountTolerancePercent / 100.0
}

// String returns a human-readable description of the configuration
func (mc *MatchingConfig) String() string {
	return fmt.Sprintf("MatchingConfig{AmountTolerance: %.2f%%, LeadDays: %d/%d, MinConfidence: %.2f, Weights: %.2f/%.2f/%.2f/%.2f}",
		mc.AmountTolerancePercent, mc.AcceptableLeadDays, mc.MaxLeadDays, mc.MinConfidenceScore,
		mc.Weights.VendorWeight, mc.Weights.AmountWeight, mc.Weights.LineItemsWeight, mc.Weights.DateWeight)
}
