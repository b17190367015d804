package risk

import (
	"fmt"

	"ap-reconciliation-service/internal/models"

	"github.com/shopspring/decimal"
)

// DuplicateMatchType tags how a duplicate was identified
type DuplicateMatchType string

const (
	// DuplicateExactInvoiceNumber means the normalized invoice numbers collide
	DuplicateExactInvoiceNumber DuplicateMatchType = "exact_invoice_number"
	// DuplicateFuzzyAmountDate means a prior invoice with a near-identical
	// amount exists inside the rolling window
	DuplicateFuzzyAmountDate DuplicateMatchType = "fuzzy_amount_date"
)

// DuplicateInfo describes the most confident duplicate found in history
type DuplicateInfo struct {
	MatchedInvoiceNumber string             `json:"matched_invoice_number"`
	MatchType            DuplicateMatchType `json:"match_type"`
	Confidence           float64            `json:"confidence"`
	DaysApart            int                `json:"days_apart"`
	AmountDifference     decimal.Decimal    `json:"amount_difference"`
	Description          string             `json:"description"`
}

// DuplicateDetector scans a vendor's recorded invoices for resubmissions of
// the candidate invoice
type DuplicateDetector struct {
	Config *RiskConfig
}

// NewDuplicateDetector creates a new duplicate detector with the specified
// configuration
func NewDuplicateDetector(config *RiskConfig) *DuplicateDetector {
	if config == nil {
		config = DefaultRiskConfig()
	}

	return &DuplicateDetector{
		Config: config,
	}
}

// Detect checks the candidate invoice against the vendor's history. An
// exact invoice-number collision short-circuits the scan with confidence
// 1.0; otherwise the whole history is scanned for the best fuzzy
// amount-and-date hit. Only the most confident duplicate is returned.
func (dd *DuplicateDetector) Detect(invoice *models.Invoice, history []models.InvoiceRecord) (bool, *DuplicateInfo, error) {
	if invoice == nil {
		return false, nil, fmt.Errorf("invoice must not be nil")
	}

	candidateNumber := models.NormalizeInvoiceNumber(invoice.InvoiceNumber)

	// Exact pass: identical invoice number is a duplicate regardless of
	// amount or date
	for i := range history {
		record := &history[i]
		if candidateNumber != "" && models.NormalizeInvoiceNumber(record.InvoiceNumber) == candidateNumber {
			days := models.DaysBetween(invoice.InvoiceDate, record.InvoiceDate)
			if days < 0 {
				days = -days
			}
			return true, &DuplicateInfo{
				MatchedInvoiceNumber: record.InvoiceNumber,
				MatchType:            DuplicateExactInvoiceNumber,
				Confidence:           1.0,
				DaysApart:            days,
				AmountDifference:     invoice.Total.Sub(record.TotalAmount),
				Description: fmt.Sprintf("invoice number %s already recorded as %s",
					invoice.InvoiceNumber, record.InvoiceNumber),
			}, nil
		}
	}

	// Fuzzy pass: near-identical amount inside the rolling window
	var best *DuplicateInfo
	tolerance := dd.Config.DuplicateAmountTolerance()
	window := dd.Config.DuplicateWindowDays

	for i := range history {
		record := &history[i]

		days := models.DaysBetween(invoice.InvoiceDate, record.InvoiceDate)
		if days < 0 {
			days = -days
		}
		if days > window {
			continue
		}

		relDiff := models.RelativeDifference(invoice.Total, record.TotalAmount)
		if relDiff > tolerance {
			continue
		}

		confidence := fuzzyDuplicateConfidence(relDiff, tolerance, days, window)
		if best == nil || confidence > best.Confidence {
			best = &DuplicateInfo{
				MatchedInvoiceNumber: record.InvoiceNumber,
				MatchType:            DuplicateFuzzyAmountDate,
				Confidence:           confidence,
				DaysApart:            days,
				AmountDifference:     invoice.Total.Sub(record.TotalAmount),
				Description: fmt.Sprintf("invoice total %s is within %.1f%% of invoice %s recorded %d day(s) apart",
					invoice.Total.String(), relDiff*100, record.InvoiceNumber, days),
			}
		}
	}

	if best == nil {
		return false, nil, nil
	}
	return true, best, nil
}

// fuzzyDuplicateConfidence starts at the 0.75 floor and climbs with amount
// and date proximity
func fuzzyDuplicateConfidence(relDiff, tolerance float64, days, window int) float64 {
	confidence := 0.75

	if tolerance > 0 {
		confidence += 0.15 * (1.0 - relDiff/tolerance)
	}
	if window > 0 {
		confidence += 0.10 * (1.0 - float64(days)/float64(window))
	}

	if confidence > 1.0 {
		return 1.0
	}
	return confidence
}
