package matcher

import (
	"fmt"
	"time"

	"ap-reconciliation-service/internal/models"

	"github.com/shopspring/decimal"
)

// MatchScorer scores how well an invoice matches a purchase order
type MatchScorer struct {
	Config *MatchingConfig
}

// FactorScores holds the per-factor scores behind an overall match score
type FactorScores struct {
	Vendor    float64 `json:"vendor"`
	Amount    float64 `json:"amount"`
	LineItems float64 `json:"line_items"`
	Date      float64 `json:"date"`
}

// MatchResult represents the result of matching an invoice against a purchase order
type MatchResult struct {
	Invoice          *models.Invoice       `json:"-"`
	PurchaseOrder    *models.PurchaseOrder `json:"-"`
	MatchType        MatchType             `json:"match_type"`
	OverallScore     float64               `json:"overall_score"`
	Factors          FactorScores          `json:"factors"`
	LineItems        *LineItemMatchResult  `json:"line_items,omitempty"`
	Discrepancies    []Discrepancy         `json:"discrepancies,omitempty"`
	Matched          bool                  `json:"matched"`
	ApprovalRequired bool                  `json:"approval_required"`
	AmountDifference decimal.Decimal       `json:"amount_difference"`
	Reasons          []string              `json:"reasons,omitempty"`
}

// HasCriticalDiscrepancy reports whether any detected discrepancy is critical
func (mr *MatchResult) HasCriticalDiscrepancy() bool {
	for _, d := range mr.Discrepancies {
		if d.Severity == SeverityCritical {
			return true
		}
	}
	return false
}

// NewMatchScorer creates a new match scorer with the specified configuration
func NewMatchScorer(config *MatchingConfig) *MatchScorer {
	if config == nil {
		config = DefaultMatchingConfig()
	}

	return &MatchScorer{
		Config: config,
	}
}

// ScoreMatch scores one invoice against one purchase order. The result
// carries the overall weighted score, the per-factor breakdown, the
// line-item pairing, and the discrepancy list for the same pair.
func (ms *MatchScorer) ScoreMatch(invoice *models.Invoice, po *models.PurchaseOrder) (*MatchResult, error) {
	if invoice == nil {
		return nil, fmt.Errorf("invoice must not be nil")
	}
	if po == nil {
		return nil, fmt.Errorf("purchase order must not be nil")
	}
	if err := invoice.Validate(); err != nil {
		return nil, fmt.Errorf("invalid invoice: %w", err)
	}
	if err := po.Validate(); err != nil {
		return nil, fmt.Errorf("invalid purchase order: %w", err)
	}

	result := &MatchResult{
		Invoice:       invoice,
		PurchaseOrder: po,
	}

	poVendorName := po.VendorName
	if poVendorName == "" {
		poVendorName = po.VendorID
	}

	result.Factors.Vendor = NameSimilarity(invoice.VendorName, poVendorName)
	result.Factors.Amount = ms.AmountScore(invoice.Total, po.Total)
	result.Factors.Date = ms.DateScore(invoice.InvoiceDate, po.CreatedDate)
	result.LineItems = ms.MatchLineItems(invoice.LineItems, po.LineItems)
	result.Factors.LineItems = result.LineItems.Score

	result.AmountDifference = invoice.Total.Sub(po.Total)

	weights := ms.Config.Weights
	result.OverallScore = weights.VendorWeight*result.Factors.Vendor +
		weights.AmountWeight*result.Factors.Amount +
		weights.LineItemsWeight*result.Factors.LineItems +
		weights.DateWeight*result.Factors.Date

	result.Discrepancies = ms.detectDiscrepancies(invoice, po, result)
	result.MatchType = ms.determineMatchType(result)
	result.Matched = result.OverallScore >= ms.Config.MinConfidenceScore && result.MatchType != MatchNone
	result.ApprovalRequired = result.MatchType != MatchExact || result.HasCriticalDiscrepancy()
	result.Reasons = ms.generateMatchReasons(result)

	return result, nil
}

// AmountScore scores two monetary totals by relative difference. Equal
// totals score 1.0; the score stays at or above 0.85 inside the configured
// tolerance and drops below it immediately beyond.
func (ms *MatchScorer) AmountScore(a, b decimal.Decimal) float64 {
	if a.Equal(b) {
		return 1.0
	}

	relDiff := models.RelativeDifference(a, b)
	tolerance := ms.Config.AmountTolerance()

	if tolerance <= 0 {
		return 0.0
	}

	if relDiff <= tolerance {
		// Linear descent from 1.0 to 0.85 across the tolerance band
		return 1.0 - 0.15*(relDiff/tolerance)
	}

	// Steeper descent from 0.85 to zero at a 50% divergence
	const zeroAt = 0.50
	if relDiff >= zeroAt {
		return 0.0
	}
	return 0.85 * (1.0 - (relDiff-tolerance)/(zeroAt-tolerance))
}

// DateScore scores the invoice date against the PO creation date. Invoices
// inside the acceptable lead window keep a score of 0.90 or better. An
// invoice dated before its PO takes a flat penalty on top of the distance
// decay, so even a one-day-early invoice cannot score 1.0.
func (ms *MatchScorer) DateScore(invoiceDate, poDate time.Time) float64 {
	days := models.DaysBetween(invoiceDate, poDate)

	if days < 0 {
		score := ms.leadTimeScore(-days) - ms.Config.EarlyInvoicePenalty
		if score < 0.0 {
			return 0.0
		}
		return score
	}

	return ms.leadTimeScore(days)
}

// leadTimeScore decays with the absolute day offset: gently inside the
// acceptable window, steeply out to the maximum lead window, zero beyond
func (ms *MatchScorer) leadTimeScore(days int) float64 {
	acceptable := ms.Config.AcceptableLeadDays
	maxLead := ms.Config.MaxLeadDays

	switch {
	case days == 0:
		return 1.0
	case days <= acceptable:
		return 1.0 - 0.1*float64(days)/float64(acceptable)
	case days <= maxLead:
		return 0.9 * (1.0 - float64(days-acceptable)/float64(maxLead-acceptable))
	default:
		return 0.0
	}
}

// determineMatchType classifies match quality from the overall score and
// the detected discrepancies
func (ms *MatchScorer) determineMatchType(result *MatchResult) MatchType {
	score := result.OverallScore

	if score >= ms.Config.ExactMatchThreshold && !result.HasCriticalDiscrepancy() {
		return MatchExact
	}

	if score >= ms.Config.FuzzyMatchThreshold {
		return MatchFuzzy
	}

	if score >= ms.Config.MinConfidenceScore {
		return MatchPartial
	}

	return MatchNone
}

// generateMatchReasons generates human-readable reasons for the match outcome
func (ms *MatchScorer) generateMatchReasons(result *MatchResult) []string {
	var reasons []string

	if result.Factors.Vendor == 1.0 {
		reasons = append(reasons, "Exact vendor name match")
	} else if result.Factors.Vendor >= ms.Config.VendorAcceptThreshold {
		reasons = append(reasons, "Close vendor name match")
	} else {
		reasons = append(reasons, "Vendor name differs")
	}

	if result.Factors.Amount == 1.0 {
		reasons = append(reasons, "Exact total match")
	} else if result.Factors.Amount >= 0.85 {
		reasons = append(reasons, "Total within tolerance")
	} else {
		reasons = append(reasons, "Total differs beyond tolerance")
	}

	if result.LineItems != nil && len(result.LineItems.Pairs) > 0 {
		reasons = append(reasons, fmt.Sprintf("%d of %d line items matched",
			len(result.LineItems.Pairs), len(result.Invoice.LineItems)))
	}

	if result.Factors.Date >= 0.9 {
		reasons = append(reasons, "Invoice date within expected lead time")
	} else if models.DaysBetween(result.Invoice.InvoiceDate, result.PurchaseOrder.CreatedDate) < 0 {
		reasons = append(reasons, "Invoice dated before purchase order")
	} else {
		reasons = append(reasons, "Invoice date outside expected lead time")
	}

	return reasons
}
