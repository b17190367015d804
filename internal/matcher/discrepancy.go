package matcher

import (
	"fmt"

	"ap-reconciliation-service/internal/models"
)

// DiscrepancyType tags the kind of mismatch found between invoice and PO
type DiscrepancyType string

const (
	DiscrepancyVendorMismatch   DiscrepancyType = "vendor_mismatch"
	DiscrepancyAmountMismatch   DiscrepancyType = "amount_mismatch"
	DiscrepancyDateMismatch     DiscrepancyType = "date_mismatch"
	DiscrepancyCurrencyMismatch DiscrepancyType = "currency_mismatch"
	DiscrepancyLineItemMismatch DiscrepancyType = "line_item_mismatch"
)

// Severity grades how serious a discrepancy is
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// Discrepancy is one concrete, explainable mismatch between an invoice and
// its purchase order
type Discrepancy struct {
	Type        DiscrepancyType `json:"type"`
	Severity    Severity        `json:"severity"`
	Description string          `json:"description"`
	Difference  string          `json:"difference,omitempty"`
}

// DiscrepancyDetector re-examines an invoice/PO pair and reports facts
// rather than scores. It shares the comparison primitives of the match
// scorer but its output is a typed mismatch list.
type DiscrepancyDetector struct {
	Config *MatchingConfig
}

// NewDiscrepancyDetector creates a new discrepancy detector with the
// specified configuration
func NewDiscrepancyDetector(config *MatchingConfig) *DiscrepancyDetector {
	if config == nil {
		config = DefaultMatchingConfig()
	}

	return &DiscrepancyDetector{
		Config: config,
	}
}

// Detect enumerates the discrepancies between an invoice and a purchase order
func (dd *DiscrepancyDetector) Detect(invoice *models.Invoice, po *models.PurchaseOrder) ([]Discrepancy, error) {
	if invoice == nil {
		return nil, fmt.Errorf("invoice must not be nil")
	}
	if po == nil {
		return nil, fmt.Errorf("purchase order must not be nil")
	}

	scorer := NewMatchScorer(dd.Config)

	poVendorName := po.VendorName
	if poVendorName == "" {
		poVendorName = po.VendorID
	}

	vendorScore := NameSimilarity(invoice.VendorName, poVendorName)
	lineItems := scorer.MatchLineItems(invoice.LineItems, po.LineItems)

	return buildDiscrepancies(dd.Config, invoice, po, vendorScore, lineItems), nil
}

// detectDiscrepancies fills the discrepancy list for a scored match,
// reusing the factor computation already done by ScoreMatch
func (ms *MatchScorer) detectDiscrepancies(invoice *models.Invoice, po *models.PurchaseOrder, result *MatchResult) []Discrepancy {
	return buildDiscrepancies(ms.Config, invoice, po, result.Factors.Vendor, result.LineItems)
}

func buildDiscrepancies(cfg *MatchingConfig, invoice *models.Invoice, po *models.PurchaseOrder, vendorScore float64, lineItems *LineItemMatchResult) []Discrepancy {
	var discrepancies []Discrepancy

	// Vendor: confidence below the acceptance threshold, severity scaled
	// by how far below
	if vendorScore < cfg.VendorAcceptThreshold {
		severity := SeverityMedium
		if vendorScore < cfg.VendorAcceptThreshold/2 {
			severity = SeverityHigh
		}
		discrepancies = append(discrepancies, Discrepancy{
			Type:     DiscrepancyVendorMismatch,
			Severity: severity,
			Description: fmt.Sprintf("invoice vendor '%s' does not match PO vendor '%s' (similarity %.2f)",
				invoice.VendorName, po.VendorName, vendorScore),
			Difference: fmt.Sprintf("similarity %.2f below threshold %.2f", vendorScore, cfg.VendorAcceptThreshold),
		})
	}

	// Amount: beyond tolerance, with explicit direction
	relDiff := models.RelativeDifference(invoice.Total, po.Total)
	if relDiff > cfg.AmountTolerance() {
		direction := "OVER"
		if invoice.Total.LessThan(po.Total) {
			direction = "UNDER"
		}
		severity := SeverityMedium
		if relDiff > 3*cfg.AmountTolerance() {
			severity = SeverityHigh
		}
		diff := invoice.Total.Sub(po.Total).Abs()
		discrepancies = append(discrepancies, Discrepancy{
			Type:     DiscrepancyAmountMismatch,
			Severity: severity,
			Description: fmt.Sprintf("invoice total %s is %s the PO total %s by %s (%.1f%%)",
				invoice.Total.String(), direction, po.Total.String(), diff.String(), relDiff*100),
			Difference: fmt.Sprintf("%s %s (%.1f%%)", direction, diff.String(), relDiff*100),
		})
	}

	// Date: invoice predating its PO, or arriving outside the lead window
	days := models.DaysBetween(invoice.InvoiceDate, po.CreatedDate)
	if days < 0 {
		discrepancies = append(discrepancies, Discrepancy{
			Type:     DiscrepancyDateMismatch,
			Severity: SeverityHigh,
			Description: fmt.Sprintf("invoice dated %s is %d day(s) before PO created %s",
				invoice.InvoiceDate.Format("2006-01-02"), -days, po.CreatedDate.Format("2006-01-02")),
			Difference: fmt.Sprintf("%d day(s) before PO", -days),
		})
	} else if days > cfg.MaxLeadDays {
		discrepancies = append(discrepancies, Discrepancy{
			Type:     DiscrepancyDateMismatch,
			Severity: SeverityMedium,
			Description: fmt.Sprintf("invoice dated %s is %d day(s) after PO created %s, beyond the %d-day window",
				invoice.InvoiceDate.Format("2006-01-02"), days, po.CreatedDate.Format("2006-01-02"), cfg.MaxLeadDays),
			Difference: fmt.Sprintf("%d day(s) after PO", days),
		})
	}

	// Currency: never silently tolerated, regardless of amounts
	if invoice.NormalizedCurrency() != po.NormalizedCurrency() {
		discrepancies = append(discrepancies, Discrepancy{
			Type:     DiscrepancyCurrencyMismatch,
			Severity: SeverityCritical,
			Description: fmt.Sprintf("invoice currency %s does not match PO currency %s",
				invoice.NormalizedCurrency(), po.NormalizedCurrency()),
			Difference: fmt.Sprintf("%s vs %s", invoice.NormalizedCurrency(), po.NormalizedCurrency()),
		})
	}

	// Line items: billed items that map to no ordered item
	if lineItems != nil && len(invoice.LineItems) > 0 && len(lineItems.UnmatchedInvoiceItems) > 0 {
		severity := SeverityLow
		if len(lineItems.UnmatchedInvoiceItems) > len(invoice.LineItems)/2 {
			severity = SeverityMedium
		}
		discrepancies = append(discrepancies, Discrepancy{
			Type:     DiscrepancyLineItemMismatch,
			Severity: severity,
			Description: fmt.Sprintf("%d of %d invoice line item(s) have no matching PO line item",
				len(lineItems.UnmatchedInvoiceItems), len(invoice.LineItems)),
			Difference: fmt.Sprintf("%d unmatched item(s)", len(lineItems.UnmatchedInvoiceItems)),
		})
	}

	return discrepancies
}
