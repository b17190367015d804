package matcher

import "testing"

func TestDefaultMatchingConfigIsValid(t *testing.T) {
	for name, cfg := range map[string]*MatchingConfig{
		"default": DefaultMatchingConfig(),
		"strict":  StrictMatchingConfig(),
		"relaxed": RelaxedMatchingConfig(),
	} {
		if err := cfg.Validate(); err != nil {
			t.Errorf("%s config should validate: %v", name, err)
		}
	}
}

func TestMatchingConfigValidation(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*MatchingConfig)
	}{
		{"negative tolerance", func(c *MatchingConfig) { c.AmountTolerancePercent = -1 }},
		{"tolerance above 100", func(c *MatchingConfig) { c.AmountTolerancePercent = 150 }},
		{"negative lead days", func(c *MatchingConfig) { c.AcceptableLeadDays = -1 }},
		{"max below acceptable", func(c *MatchingConfig) { c.MaxLeadDays = c.AcceptableLeadDays - 1 }},
		{"confidence out of range", func(c *MatchingConfig) { c.MinConfidenceScore = 1.5 }},
		{"thresholds out of order", func(c *MatchingConfig) {
			c.ExactMatchThreshold = 0.80
			c.FuzzyMatchThreshold = 0.90
		}},
		{"weights off balance", func(c *MatchingConfig) { c.Weights.VendorWeight = 0.9 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultMatchingConfig()
			tt.modify(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("Expected validation to fail")
			}
		})
	}
}

func TestMatchingConfigClone(t *testing.T) {
	cfg := DefaultMatchingConfig()
	clone := cfg.Clone()

	clone.AmountTolerancePercent = 42.0
	if cfg.AmountTolerancePercent == 42.0 {
		t.Error("Clone should not share state with the original")
	}
}

func TestAmountToleranceRatio(t *testing.T) {
	cfg := DefaultMatchingConfig()
	cfg.AmountTolerancePercent = 2.5

	if got := cfg.AmountTolerance(); got != 0.025 {
		t.Errorf("AmountTolerance() = %v, want 0.025", got)
	}
}

func TestMatchTypeStrings(t *testing.T) {
	tests := []struct {
		matchType MatchType
		expected  string
	}{
		{MatchExact, "exact"},
		{MatchFuzzy, "fuzzy"},
		{MatchPartial, "partial"},
		{MatchNone, "none"},
	}

	for _, tt := range tests {
		if got := tt.matchType.String(); got != tt.expected {
			t.Errorf("MatchType.String() = %q, want %q", got, tt.expected)
		}
	}
}
