package risk

import (
	"fmt"
	"math"

	"ap-reconciliation-service/internal/models"

	"github.com/shopspring/decimal"
)

// AnomalyInfo describes a price anomaly relative to the vendor's history
type AnomalyInfo struct {
	CurrentAmount decimal.Decimal `json:"current_amount"`
	AverageAmount decimal.Decimal `json:"average_amount"`
	StdDev        decimal.Decimal `json:"std_dev"`
	Ratio         float64         `json:"ratio"`
	RiskScore     float64         `json:"risk_score"`
	IsAnomaly     bool            `json:"is_anomaly"`
	Description   string          `json:"description"`
}

// PriceAnomalyDetector compares a candidate invoice amount against the
// statistical distribution of the vendor's historical invoice amounts
type PriceAnomalyDetector struct {
	Config *RiskConfig
}

// NewPriceAnomalyDetector creates a new price anomaly detector with the
// specified configuration
func NewPriceAnomalyDetector(config *RiskConfig) *PriceAnomalyDetector {
	if config == nil {
		config = DefaultRiskConfig()
	}

	return &PriceAnomalyDetector{
		Config: config,
	}
}

// Detect flags the invoice amount as anomalous when it deviates materially
// above the vendor's historical mean. With fewer prior invoices than the
// configured minimum no determination is possible and the result is a clean
// zero, not a false positive.
func (pd *PriceAnomalyDetector) Detect(invoice *models.Invoice, history []models.InvoiceRecord) (float64, *AnomalyInfo, error) {
	if invoice == nil {
		return 0.0, nil, fmt.Errorf("invoice must not be nil")
	}

	if len(history) < pd.Config.MinAnomalyHistory {
		return 0.0, nil, nil
	}

	mean, stdDev := amountDistribution(history)
	if mean <= 0 {
		return 0.0, nil, nil
	}

	amount := invoice.Total.InexactFloat64()
	ratio := amount / mean

	cutoff := mean + pd.Config.AnomalyStdDevFactor*stdDev
	if amount <= cutoff || ratio < pd.Config.AnomalyMinRatio {
		return 0.0, nil, nil
	}

	// Scale risk with how far the amount sits above the historical mean
	score := (ratio - 1.0) / 5.0
	if score > 1.0 {
		score = 1.0
	}

	info := &AnomalyInfo{
		CurrentAmount: invoice.Total,
		AverageAmount: decimal.NewFromFloat(mean).Round(2),
		StdDev:        decimal.NewFromFloat(stdDev).Round(2),
		Ratio:         ratio,
		RiskScore:     score,
		IsAnomaly:     true,
		Description: fmt.Sprintf("invoice total %s is %.1fx the historical average %.2f across %d invoice(s)",
			invoice.Total.String(), ratio, mean, len(history)),
	}

	return score, info, nil
}

// CalculateAmountRisk scores the raw size of an amount against a reference
// threshold, with prior fraud flags adding to the result. Amounts at or
// below the threshold carry no size risk.
func (pd *PriceAnomalyDetector) CalculateAmountRisk(amount decimal.Decimal, priorFlagCount int, referenceThreshold decimal.Decimal) float64 {
	if referenceThreshold.IsZero() || amount.LessThanOrEqual(referenceThreshold) {
		return 0.0
	}

	ratio := amount.Div(referenceThreshold).InexactFloat64()
	score := 0.25*(ratio-1.0) + 0.05*float64(minCapped(priorFlagCount, 5))

	if score > 1.0 {
		return 1.0
	}
	if score < 0.0 {
		return 0.0
	}
	return score
}

// amountDistribution returns the mean and population standard deviation of
// the historical invoice amounts
func amountDistribution(history []models.InvoiceRecord) (float64, float64) {
	if len(history) == 0 {
		return 0.0, 0.0
	}

	var sum float64
	for i := range history {
		sum += history[i].TotalAmount.InexactFloat64()
	}
	mean := sum / float64(len(history))

	var variance float64
	for i := range history {
		d := history[i].TotalAmount.InexactFloat64() - mean
		variance += d * d
	}
	variance /= float64(len(history))

	return mean, math.Sqrt(variance)
}
