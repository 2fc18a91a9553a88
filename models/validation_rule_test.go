package models

import (
	"testing"
	"time"
)

func fp(f float64) *float64 { return &f }

func TestRuleConfigScanRoundTrip(t *testing.T) {
	original := RuleConfig{
		Min:              fp(100),
		Max:              fp(2000),
		WarningThreshold: fp(1500),
		Strict:           true,
		Reason:           "state premium cap",
	}

	raw, err := original.Value()
	if err != nil {
		t.Fatalf("Value: %v", err)
	}

	var scanned RuleConfig
	if err := scanned.Scan(raw); err != nil {
		t.Fatalf("Scan: %v", err)
	}

	if *scanned.Min != 100 || *scanned.Max != 2000 || *scanned.WarningThreshold != 1500 {
		t.Errorf("numeric bounds lost: %+v", scanned)
	}
	if !scanned.Strict || scanned.Reason != "state premium cap" {
		t.Errorf("flags lost: %+v", scanned)
	}
}

func TestRuleConfigScanCategorical(t *testing.T) {
	raw := `{"allowed_values":["pro-rata","actuarial"],"prohibited_values":["rule of 78s"],"strict":false}`

	var cfg RuleConfig
	if err := cfg.Scan(raw); err != nil {
		t.Fatalf("Scan: %v", err)
	}

	if len(cfg.AllowedValues) != 2 || cfg.AllowedValues[0] != "pro-rata" {
		t.Errorf("allowed values = %v", cfg.AllowedValues)
	}
	if len(cfg.ProhibitedValues) != 1 || cfg.ProhibitedValues[0] != "rule of 78s" {
		t.Errorf("prohibited values = %v", cfg.ProhibitedValues)
	}
	if cfg.Min != nil || cfg.Strict {
		t.Errorf("unexpected fields set: %+v", cfg)
	}
}

func TestRuleConfigScanNil(t *testing.T) {
	var cfg RuleConfig
	if err := cfg.Scan(nil); err != nil {
		t.Fatalf("Scan(nil): %v", err)
	}
	if cfg.Min != nil || cfg.AllowedValues != nil {
		t.Errorf("nil scan mutated config: %+v", cfg)
	}
}

func TestValidationRuleEffectiveAt(t *testing.T) {
	effective := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
	expiration := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	bounded := &ValidationRule{EffectiveDate: effective, ExpirationDate: &expiration}
	open := &ValidationRule{EffectiveDate: effective}

	tests := []struct {
		name string
		rule *ValidationRule
		date time.Time
		want bool
	}{
		{"before effective", bounded, effective.AddDate(0, 0, -1), false},
		{"at effective date", bounded, effective, true},
		{"inside window", bounded, effective.AddDate(0, 6, 0), true},
		{"at expiration date", bounded, expiration, false},
		{"after expiration", bounded, expiration.AddDate(0, 1, 0), false},
		{"open-ended far future", open, effective.AddDate(10, 0, 0), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.rule.EffectiveAt(tt.date); got != tt.want {
				t.Errorf("EffectiveAt(%s) = %v, want %v", tt.date.Format("2006-01-02"), got, tt.want)
			}
		})
	}
}
