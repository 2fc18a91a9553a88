package validation

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"gapguard-backend/models"

	"github.com/google/uuid"
)

func testClock() time.Time { return date(2024, 6, 1) }

func mapping(contractID uuid.UUID, jurisdiction string, primary bool) *models.ContractJurisdiction {
	return &models.ContractJurisdiction{
		ID:             uuid.New(),
		ContractID:     contractID,
		JurisdictionID: jurisdiction,
		IsPrimary:      primary,
	}
}

func newStateValidator(mappings []*models.ContractJurisdiction, rules []*models.ValidationRule) *StateRuleValidator {
	resolver := NewRuleResolver(
		&fakeJurisdictionSource{mappings: mappings},
		&fakeRuleSource{rules: rules},
	)
	return NewStateRuleValidator(resolver).WithClock(testClock)
}

func TestStateValidatorFederalFallbackWhenUnmapped(t *testing.T) {
	contractID := uuid.New()
	federal := numericRule(models.FederalJurisdictionID, models.CategoryGapPremium, 100, 2000, false, date(2020, 1, 1))
	v := newStateValidator(nil, []*models.ValidationRule{federal})

	got := v.Execute(context.Background(), &ToolContext{
		FieldName:  models.FieldGapPremium,
		Value:      500.0,
		ContractID: contractID,
	})

	if got.Status != StatusPass {
		t.Fatalf("expected pass under federal rule, got %s: %s", got.Status, got.Message)
	}
	if got.Details["jurisdiction"] != models.FederalJurisdictionID {
		t.Errorf("expected federal jurisdiction in details, got %v", got.Details["jurisdiction"])
	}
}

func TestStateValidatorSkipsWhenNoRulesConfigured(t *testing.T) {
	v := newStateValidator(nil, nil)

	got := v.Execute(context.Background(), &ToolContext{
		FieldName:  models.FieldGapPremium,
		Value:      500.0,
		ContractID: uuid.New(),
	})

	if got.Status != StatusSkipped {
		t.Fatalf("expected skipped, got %s", got.Status)
	}
	if !strings.Contains(got.Message, "no rules configured") {
		t.Errorf("unexpected message: %q", got.Message)
	}
}

func TestStateValidatorSkipsMissingValue(t *testing.T) {
	v := newStateValidator(nil, nil)

	got := v.Execute(context.Background(), &ToolContext{
		FieldName:  models.FieldGapPremium,
		ContractID: uuid.New(),
	})

	if got.Status != StatusSkipped {
		t.Fatalf("expected skipped for nil value, got %s", got.Status)
	}
}

func TestStateValidatorNumericStrictness(t *testing.T) {
	contractID := uuid.New()

	tests := []struct {
		name   string
		strict bool
		value  interface{}
		want   ToolStatus
	}{
		{"strict out of range fails", true, 2500.0, StatusFail},
		{"lenient out of range warns", false, 2500.0, StatusWarning},
		{"below minimum strict fails", true, 50.0, StatusFail},
		{"in range passes", true, 800.0, StatusPass},
		{"string amount parses", true, "$800.00", StatusPass},
		{"malformed amount fails", false, "about 800", StatusFail},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rule := numericRule("US-CA", models.CategoryGapPremium, 100, 2000, tt.strict, date(2020, 1, 1))
			v := newStateValidator(
				[]*models.ContractJurisdiction{mapping(contractID, "US-CA", true)},
				[]*models.ValidationRule{rule},
			)

			got := v.Execute(context.Background(), &ToolContext{
				FieldName:  models.FieldGapPremium,
				Value:      tt.value,
				ContractID: contractID,
			})

			if got.Status != tt.want {
				t.Errorf("status = %s, want %s (message: %s)", got.Status, tt.want, got.Message)
			}
		})
	}
}

func TestStateValidatorWarningThreshold(t *testing.T) {
	contractID := uuid.New()
	rule := numericRule("US-CA", models.CategoryGapPremium, 100, 2000, true, date(2020, 1, 1))
	rule.Config.WarningThreshold = fptr(1500)

	v := newStateValidator(
		[]*models.ContractJurisdiction{mapping(contractID, "US-CA", true)},
		[]*models.ValidationRule{rule},
	)

	tests := []struct {
		name  string
		value float64
		want  ToolStatus
	}{
		{"below threshold passes", 1200, StatusPass},
		{"above threshold but in range warns", 1800, StatusWarning},
		{"above max fails", 2100, StatusFail},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := v.Execute(context.Background(), &ToolContext{
				FieldName:  models.FieldGapPremium,
				Value:      tt.value,
				ContractID: contractID,
			})
			if got.Status != tt.want {
				t.Errorf("status = %s, want %s", got.Status, tt.want)
			}
		})
	}
}

func TestStateValidatorCategoricalStrictness(t *testing.T) {
	contractID := uuid.New()

	tests := []struct {
		name   string
		strict bool
		value  string
		want   ToolStatus
	}{
		{"prohibited strict fails", true, "Rule of 78s", StatusFail},
		{"prohibited lenient warns", false, "Rule of 78s", StatusWarning},
		{"allowed value passes", true, "Pro-Rata", StatusPass},
		{"not in allowed list strict fails", true, "flat", StatusFail},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rule := &models.ValidationRule{
				ID:             uuid.New(),
				JurisdictionID: "US-NY",
				Category:       models.CategoryRefundMethod,
				Config: models.RuleConfig{
					AllowedValues:    []string{"pro-rata", "actuarial"},
					ProhibitedValues: []string{"rule of 78s"},
					Strict:           tt.strict,
				},
				EffectiveDate: date(2020, 1, 1),
				IsActive:      true,
			}
			v := newStateValidator(
				[]*models.ContractJurisdiction{mapping(contractID, "US-NY", true)},
				[]*models.ValidationRule{rule},
			)

			got := v.Execute(context.Background(), &ToolContext{
				FieldName:  models.FieldRefundMethod,
				Value:      tt.value,
				ContractID: contractID,
			})

			if got.Status != tt.want {
				t.Errorf("status = %s, want %s (message: %s)", got.Status, tt.want, got.Message)
			}
		})
	}
}

func TestStateValidatorFederalFallbackWhenPrimaryHasNoRule(t *testing.T) {
	contractID := uuid.New()
	federal := numericRule(models.FederalJurisdictionID, models.CategoryCancellationFee, 0, 75, false, date(2020, 1, 1))

	v := newStateValidator(
		[]*models.ContractJurisdiction{mapping(contractID, "US-MT", true)},
		[]*models.ValidationRule{federal},
	)

	got := v.Execute(context.Background(), &ToolContext{
		FieldName:  models.FieldCancellationFee,
		Value:      50.0,
		ContractID: contractID,
	})

	if got.Status != StatusPass {
		t.Fatalf("expected pass via federal fallback, got %s: %s", got.Status, got.Message)
	}
	if got.Details["jurisdiction"] != models.FederalJurisdictionID {
		t.Errorf("expected federal rule applied, got %v", got.Details["jurisdiction"])
	}
}

func TestStateValidatorMultiStateEscalation(t *testing.T) {
	contractID := uuid.New()
	primaryMapping := mapping(contractID, "US-CA", true)
	secondaryMapping := mapping(contractID, "US-NY", false)

	t.Run("secondary failure escalates primary pass to warning", func(t *testing.T) {
		caRule := numericRule("US-CA", models.CategoryGapPremium, 100, 2000, true, date(2020, 1, 1))
		nyRule := numericRule("US-NY", models.CategoryGapPremium, 100, 1000, true, date(2020, 1, 1))

		v := newStateValidator(
			[]*models.ContractJurisdiction{primaryMapping, secondaryMapping},
			[]*models.ValidationRule{caRule, nyRule},
		)

		got := v.Execute(context.Background(), &ToolContext{
			FieldName:  models.FieldGapPremium,
			Value:      1500.0, // passes CA [100,2000], violates NY [100,1000]
			ContractID: contractID,
		})

		if got.Status != StatusWarning {
			t.Fatalf("expected warning, got %s: %s", got.Status, got.Message)
		}
		if !strings.Contains(got.Message, "conflicts with other states") {
			t.Errorf("message not annotated: %q", got.Message)
		}
		conflicts, ok := got.Details["multi_state_conflicts"].([]StateConflict)
		if !ok || len(conflicts) != 1 {
			t.Fatalf("expected one conflict in details, got %v", got.Details["multi_state_conflicts"])
		}
		if conflicts[0].JurisdictionID != "US-NY" || conflicts[0].FieldName != models.FieldGapPremium {
			t.Errorf("unexpected conflict: %+v", conflicts[0])
		}
	})

	t.Run("primary failure is never changed by secondaries", func(t *testing.T) {
		caRule := numericRule("US-CA", models.CategoryGapPremium, 100, 1000, true, date(2020, 1, 1))
		nyRule := numericRule("US-NY", models.CategoryGapPremium, 100, 5000, true, date(2020, 1, 1))

		v := newStateValidator(
			[]*models.ContractJurisdiction{primaryMapping, secondaryMapping},
			[]*models.ValidationRule{caRule, nyRule},
		)

		got := v.Execute(context.Background(), &ToolContext{
			FieldName:  models.FieldGapPremium,
			Value:      1500.0, // violates CA, passes NY
			ContractID: contractID,
		})

		if got.Status != StatusFail {
			t.Fatalf("expected fail, got %s", got.Status)
		}
		if _, present := got.Details["multi_state_conflicts"]; present {
			t.Error("failing primary must not carry conflict details")
		}
	})

	t.Run("unanimous secondary pass leaves primary untouched", func(t *testing.T) {
		caRule := numericRule("US-CA", models.CategoryGapPremium, 100, 2000, true, date(2020, 1, 1))
		nyRule := numericRule("US-NY", models.CategoryGapPremium, 100, 2000, true, date(2020, 1, 1))

		v := newStateValidator(
			[]*models.ContractJurisdiction{primaryMapping, secondaryMapping},
			[]*models.ValidationRule{caRule, nyRule},
		)

		got := v.Execute(context.Background(), &ToolContext{
			FieldName:  models.FieldGapPremium,
			Value:      500.0,
			ContractID: contractID,
		})

		if got.Status != StatusPass {
			t.Fatalf("expected pass, got %s: %s", got.Status, got.Message)
		}
	})

	t.Run("secondary without a rule contributes nothing", func(t *testing.T) {
		caRule := numericRule("US-CA", models.CategoryGapPremium, 100, 2000, true, date(2020, 1, 1))

		v := newStateValidator(
			[]*models.ContractJurisdiction{primaryMapping, secondaryMapping},
			[]*models.ValidationRule{caRule},
		)

		got := v.Execute(context.Background(), &ToolContext{
			FieldName:  models.FieldGapPremium,
			Value:      500.0,
			ContractID: contractID,
		})

		if got.Status != StatusPass {
			t.Fatalf("expected pass, got %s", got.Status)
		}
	})
}

func TestStateValidatorUnflaggedPrimaryUsesFirstRow(t *testing.T) {
	contractID := uuid.New()
	first := mapping(contractID, "US-CA", false)
	second := mapping(contractID, "US-NY", false)

	caRule := numericRule("US-CA", models.CategoryGapPremium, 100, 2000, true, date(2020, 1, 1))
	nyRule := numericRule("US-NY", models.CategoryGapPremium, 100, 1000, true, date(2020, 1, 1))

	v := newStateValidator(
		[]*models.ContractJurisdiction{first, second},
		[]*models.ValidationRule{caRule, nyRule},
	)

	got := v.Execute(context.Background(), &ToolContext{
		FieldName:  models.FieldGapPremium,
		Value:      1500.0,
		ContractID: contractID,
	})

	// CA is treated as primary (first row), so the NY violation surfaces as a
	// conflict warning rather than a failure.
	if got.Status != StatusWarning {
		t.Fatalf("expected warning, got %s: %s", got.Status, got.Message)
	}
}

func TestStateValidatorLookupFailureIsErrorStatus(t *testing.T) {
	resolver := NewRuleResolver(
		&fakeJurisdictionSource{err: errors.New("connection refused")},
		&fakeRuleSource{},
	)
	v := NewStateRuleValidator(resolver).WithClock(testClock)

	got := v.Execute(context.Background(), &ToolContext{
		FieldName:  models.FieldGapPremium,
		Value:      500.0,
		ContractID: uuid.New(),
	})

	if got.Status != StatusError {
		t.Fatalf("expected error status, got %s", got.Status)
	}
	if !strings.Contains(got.Message, "connection refused") {
		t.Errorf("lookup failure not surfaced: %q", got.Message)
	}
}

func TestStateValidatorUnknownFieldSkipped(t *testing.T) {
	v := newStateValidator(nil, nil)

	got := v.Execute(context.Background(), &ToolContext{
		FieldName:  "vin_number",
		Value:      "1HGBH41JXMN109186",
		ContractID: uuid.New(),
	})

	if got.Status != StatusSkipped {
		t.Fatalf("expected skipped for unmapped field, got %s", got.Status)
	}
}
