package validation

import (
	"context"
	"fmt"

	"gapguard-backend/models"
)

// Static business-rule bounds applied when no jurisdiction rules are in play
const (
	typicalPremiumMin = 100.0
	typicalPremiumMax = 2000.0
	typicalFeeCeiling = 100.0
)

// knownRefundMethods is the normalized set of refund calculation methods seen
// in GAP contracts
var knownRefundMethods = map[string]bool{
	"pro-rata":    true,
	"pro rata":    true,
	"prorata":     true,
	"rule of 78s": true,
	"rule of 78":  true,
	"actuarial":   true,
	"flat":        true,
	"none":        true,
	"n/a":         true,
}

// RuleValidator checks extracted fields against fixed, non-jurisdictional
// business rules: typical numeric ranges for premiums and fees, and a known
// set of refund calculation methods. It is the fallback checker used when
// jurisdiction-specific rules are not wired in.
type RuleValidator struct{}

// NewRuleValidator creates a new static rule validator
func NewRuleValidator() *RuleValidator {
	return &RuleValidator{}
}

// Name returns the tool name
func (v *RuleValidator) Name() string { return "rule_validator" }

// Description returns the tool description
func (v *RuleValidator) Description() string {
	return "Checks extracted fields against static business rules (typical ranges, known refund methods)"
}

// ApplicableFields returns the fields this tool checks
func (v *RuleValidator) ApplicableFields() []string {
	return []string{
		models.FieldGapPremium,
		models.FieldCancellationFee,
		models.FieldRefundMethod,
	}
}

// Execute runs the static checks under the shared guard
func (v *RuleValidator) Execute(ctx context.Context, tc *ToolContext) *ToolResult {
	return runGuarded(ctx, v, tc, v.validate)
}

func (v *RuleValidator) validate(_ context.Context, tc *ToolContext) (*ToolResult, error) {
	switch tc.FieldName {
	case models.FieldGapPremium:
		return v.checkPremium(tc), nil
	case models.FieldCancellationFee:
		return v.checkFee(tc), nil
	case models.FieldRefundMethod:
		return v.checkRefundMethod(tc), nil
	default:
		return &ToolResult{
			Status:  StatusSkipped,
			Message: fmt.Sprintf("no static rule for field %s", tc.FieldName),
		}, nil
	}
}

func (v *RuleValidator) checkPremium(tc *ToolContext) *ToolResult {
	amount, err := numericValue(tc.Value)
	if err != nil {
		// Malformed input is a hard finding about the extraction, not a
		// validator malfunction.
		return &ToolResult{
			Status:  StatusFail,
			Message: fmt.Sprintf("gap premium is not numeric: %v", err),
		}
	}

	if amount < typicalPremiumMin || amount > typicalPremiumMax {
		return &ToolResult{
			Status: StatusWarning,
			Message: fmt.Sprintf("gap premium $%.2f is outside the typical range [$%.0f, $%.0f]",
				amount, typicalPremiumMin, typicalPremiumMax),
			Details: map[string]interface{}{
				"value": amount,
				"min":   typicalPremiumMin,
				"max":   typicalPremiumMax,
			},
		}
	}

	return &ToolResult{
		Status:  StatusPass,
		Message: fmt.Sprintf("gap premium $%.2f is within the typical range", amount),
	}
}

func (v *RuleValidator) checkFee(tc *ToolContext) *ToolResult {
	amount, err := numericValue(tc.Value)
	if err != nil {
		return &ToolResult{
			Status:  StatusFail,
			Message: fmt.Sprintf("cancellation fee is not numeric: %v", err),
		}
	}

	if amount < 0 {
		return &ToolResult{
			Status:  StatusFail,
			Message: fmt.Sprintf("cancellation fee $%.2f is negative", amount),
			Details: map[string]interface{}{"value": amount},
		}
	}

	if amount > typicalFeeCeiling {
		return &ToolResult{
			Status:  StatusWarning,
			Message: fmt.Sprintf("cancellation fee $%.2f exceeds the typical ceiling of $%.0f", amount, typicalFeeCeiling),
			Details: map[string]interface{}{
				"value":   amount,
				"ceiling": typicalFeeCeiling,
			},
		}
	}

	return &ToolResult{
		Status:  StatusPass,
		Message: fmt.Sprintf("cancellation fee $%.2f is within the typical range", amount),
	}
}

func (v *RuleValidator) checkRefundMethod(tc *ToolContext) *ToolResult {
	text, ok := tc.Value.(string)
	if !ok {
		return &ToolResult{
			Status:  StatusFail,
			Message: fmt.Sprintf("refund calculation method must be text, got %T", tc.Value),
		}
	}

	normalized := normalizeCategorical(text)
	if !knownRefundMethods[normalized] {
		return &ToolResult{
			Status:  StatusWarning,
			Message: fmt.Sprintf("unrecognized refund calculation method %q", text),
			Details: map[string]interface{}{"value": normalized},
		}
	}

	return &ToolResult{
		Status:  StatusPass,
		Message: fmt.Sprintf("refund calculation method %q is recognized", text),
	}
}
