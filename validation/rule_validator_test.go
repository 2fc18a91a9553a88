package validation

import (
	"context"
	"testing"

	"gapguard-backend/models"
)

func TestRuleValidatorPremium(t *testing.T) {
	v := NewRuleValidator()

	tests := []struct {
		name  string
		value interface{}
		want  ToolStatus
	}{
		{"typical amount passes", 599.0, StatusPass},
		{"at minimum passes", 100.0, StatusPass},
		{"at maximum passes", 2000.0, StatusPass},
		{"below typical range warns", 45.0, StatusWarning},
		{"above typical range warns", 3200.0, StatusWarning},
		{"formatted string parses", "$1,250.50", StatusPass},
		{"integer value parses", 750, StatusPass},
		{"non-numeric fails", "seven hundred", StatusFail},
		{"missing value skipped", nil, StatusSkipped},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := v.Execute(context.Background(), &ToolContext{
				FieldName: models.FieldGapPremium,
				Value:     tt.value,
			})
			if got.Status != tt.want {
				t.Errorf("status = %s, want %s (message: %s)", got.Status, tt.want, got.Message)
			}
		})
	}
}

func TestRuleValidatorCancellationFee(t *testing.T) {
	v := NewRuleValidator()

	tests := []struct {
		name  string
		value interface{}
		want  ToolStatus
	}{
		{"small fee passes", 25.0, StatusPass},
		{"zero fee passes", 0.0, StatusPass},
		{"at ceiling passes", 100.0, StatusPass},
		{"above ceiling warns", 150.0, StatusWarning},
		{"negative fee fails", -10.0, StatusFail},
		{"non-numeric fails", "waived", StatusFail},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := v.Execute(context.Background(), &ToolContext{
				FieldName: models.FieldCancellationFee,
				Value:     tt.value,
			})
			if got.Status != tt.want {
				t.Errorf("status = %s, want %s (message: %s)", got.Status, tt.want, got.Message)
			}
		})
	}
}

func TestRuleValidatorRefundMethod(t *testing.T) {
	v := NewRuleValidator()

	tests := []struct {
		name  string
		value interface{}
		want  ToolStatus
	}{
		{"pro-rata passes", "pro-rata", StatusPass},
		{"case and whitespace normalized", "  Pro-Rata ", StatusPass},
		{"rule of 78s passes", "Rule of 78s", StatusPass},
		{"actuarial passes", "actuarial", StatusPass},
		{"unknown method warns", "reverse sliding scale", StatusWarning},
		{"non-string fails", 42.0, StatusFail},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := v.Execute(context.Background(), &ToolContext{
				FieldName: models.FieldRefundMethod,
				Value:     tt.value,
			})
			if got.Status != tt.want {
				t.Errorf("status = %s, want %s (message: %s)", got.Status, tt.want, got.Message)
			}
		})
	}
}

func TestRuleValidatorSkipsOtherFields(t *testing.T) {
	v := NewRuleValidator()

	got := v.Execute(context.Background(), &ToolContext{
		FieldName: "dealer_name",
		Value:     "Acme Motors",
	})

	if got.Status != StatusSkipped {
		t.Fatalf("expected skipped for inapplicable field, got %s", got.Status)
	}
}
