package risk

import (
	"fmt"
	"time"

	"ap-reconciliation-service/internal/models"
)

// VendorRiskInfo is the explained outcome of vendor risk analysis
type VendorRiskInfo struct {
	VendorID       string              `json:"vendor_id"`
	VendorName     string              `json:"vendor_name"`
	Status         models.VendorStatus `json:"status,omitempty"`
	RiskScore      float64             `json:"risk_score"`
	RiskLevel      RiskLevel           `json:"risk_level"`
	FraudFlagCount int                 `json:"fraud_flag_count,omitempty"`
	Factors        []string            `json:"factors,omitempty"`
}

// VendorRiskAnalyzer converts a vendor's historical profile into a risk
// score and level
type VendorRiskAnalyzer struct {
	Config *RiskConfig
}

// NewVendorRiskAnalyzer creates a new vendor risk analyzer with the
// specified configuration
func NewVendorRiskAnalyzer(config *RiskConfig) *VendorRiskAnalyzer {
	if config == nil {
		config = DefaultRiskConfig()
	}

	return &VendorRiskAnalyzer{
		Config: config,
	}
}

// Analyze scores the vendor's risk as of the given reference time. A vendor
// with no profile on record defaults to high risk: absence of history is
// itself a risk signal.
func (va *VendorRiskAnalyzer) Analyze(vendor *models.Vendor, asOf time.Time) (float64, *VendorRiskInfo) {
	if vendor == nil || vendor.RiskProfile == nil {
		info := &VendorRiskInfo{
			VendorName: "Unknown",
			RiskScore:  va.Config.UnknownVendorRisk,
			RiskLevel:  va.Config.LevelForScore(va.Config.UnknownVendorRisk),
			Factors:    []string{"no vendor profile on record"},
		}
		if vendor != nil {
			info.VendorID = vendor.VendorID
		}
		return info.RiskScore, info
	}

	profile := vendor.RiskProfile
	info := &VendorRiskInfo{
		VendorID:       vendor.VendorID,
		VendorName:     vendor.Name,
		Status:         vendor.Status,
		FraudFlagCount: profile.FraudFlagCount,
	}

	// Stored base score carries half the weight; behavioral signals add on
	score := 0.5 * profile.RiskScore
	info.Factors = append(info.Factors, fmt.Sprintf("base risk score %.2f", profile.RiskScore))

	latePenalty := 0.2 * (1.0 - profile.OnTimePaymentRate)
	if latePenalty > 0 {
		score += latePenalty
		info.Factors = append(info.Factors,
			fmt.Sprintf("on-time payment rate %.0f%%", profile.OnTimePaymentRate*100))
	}

	switch vendor.Status {
	case models.VendorStatusSuspended:
		score += 0.20
		info.Factors = append(info.Factors, "vendor is suspended")
	case models.VendorStatusBlocked:
		score += 0.35
		info.Factors = append(info.Factors, "vendor is blocked")
	}

	if !vendor.OnboardedDate.IsZero() && !asOf.IsZero() {
		age := models.DaysBetween(asOf, vendor.OnboardedDate)
		if age >= 0 && age < va.Config.NewVendorDays {
			score += 0.10
			info.Factors = append(info.Factors,
				fmt.Sprintf("vendor onboarded %d day(s) ago", age))
		}
	}

	if profile.FraudHistory {
		fraudPenalty := 0.30 + 0.05*float64(minCapped(profile.FraudFlagCount, 4))
		score += fraudPenalty
		info.Factors = append(info.Factors,
			fmt.Sprintf("fraud history with %d flag(s)", profile.FraudFlagCount))
	}

	if score > 1.0 {
		score = 1.0
	}
	if score < 0.0 {
		score = 0.0
	}

	info.RiskScore = score
	info.RiskLevel = va.Config.LevelForScore(score)

	return score, info
}

// GetRiskLevel maps a risk score onto a level using the configured ceilings
func (va *VendorRiskAnalyzer) GetRiskLevel(score float64) RiskLevel {
	return va.Config.LevelForScore(score)
}

func minCapped(n, cap int) int {
	if n > cap {
		return cap
	}
	return n
}
