// Package config builds engine and parser configurations from CLI inputs
package config

import (
	"fmt"

	"ap-reconciliation-service/internal/decision"
	"ap-reconciliation-service/internal/engine"
	"ap-reconciliation-service/internal/matcher"
	"ap-reconciliation-service/internal/parsers"
	"ap-reconciliation-service/internal/reporter"
	"ap-reconciliation-service/internal/risk"
)

// MatchingProfile selects one of the preset matching configurations
type MatchingProfile string

const (
	ProfileDefault MatchingProfile = "default"
	ProfileStrict  MatchingProfile = "strict"
	ProfileRelaxed MatchingProfile = "relaxed"
)

// CreateMatchingConfig builds a matching configuration from the selected
// profile and flag overrides. A zero override leaves the profile value
// untouched.
func CreateMatchingConfig(profile MatchingProfile, amountTolerance float64, acceptableLeadDays, maxLeadDays int) (*matcher.MatchingConfig, error) {
	var cfg *matcher.MatchingConfig
	switch profile {
	case ProfileDefault, "":
		cfg = matcher.DefaultMatchingConfig()
	case ProfileStrict:
		cfg = matcher.StrictMatchingConfig()
	case ProfileRelaxed:
		cfg = matcher.RelaxedMatchingConfig()
	default:
		return nil, fmt.Errorf("unknown matching profile '%s'. Valid profiles: default, strict, relaxed", profile)
	}

	if amountTolerance > 0 {
		cfg.AmountTolerancePercent = amountTolerance
	}
	if acceptableLeadDays > 0 {
		cfg.AcceptableLeadDays = acceptableLeadDays
	}
	if maxLeadDays > 0 {
		cfg.MaxLeadDays = maxLeadDays
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid matching configuration: %w", err)
	}
	return cfg, nil
}

// CreateRiskConfig builds a risk configuration from flag overrides
func CreateRiskConfig(duplicateWindowDays int, duplicateTolerance float64) (*risk.RiskConfig, error) {
	cfg := risk.DefaultRiskConfig()
	if duplicateWindowDays > 0 {
		cfg.DuplicateWindowDays = duplicateWindowDays
	}
	if duplicateTolerance > 0 {
		cfg.DuplicateAmountTolerancePercent = duplicateTolerance
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid risk configuration: %w", err)
	}
	return cfg, nil
}

// CreateEngineConfig assembles the full engine configuration
func CreateEngineConfig(matching *matcher.MatchingConfig, riskCfg *risk.RiskConfig) *engine.Config {
	return &engine.Config{
		Matching: matching,
		Risk:     riskCfg,
		Decision: decision.DefaultConfig(),
	}
}

// CreateHistoryParserConfig creates the historical invoice CSV parser
// configuration
func CreateHistoryParserConfig() *parsers.HistoryParserConfig {
	return parsers.DefaultHistoryParserConfig()
}

// CreateReportConfig creates a report configuration for the requested
// output format
func CreateReportConfig(outputFormat string, includeLineItems bool) (*reporter.ReportConfig, error) {
	cfg := reporter.DefaultReportConfig()
	cfg.Format = reporter.OutputFormat(outputFormat)
	cfg.IncludeLineItems = includeLineItems

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
