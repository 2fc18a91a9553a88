package validation

import (
	"context"
	"fmt"

	"gapguard-backend/models"
)

// Confidence plausibility bounds (scores are 0-100)
const (
	suspiciousConfidenceHigh = 100.0
	suspiciousConfidenceLow  = 50.0
)

// ConsistencyValidator runs cross-field checks over the full extraction:
// the cancellation fee must not exceed the gap premium, and the confidence
// scores across the extracted fields must be plausible as a set. Each check
// is bound to one field so every run yields a single result: fee-vs-premium
// runs with the cancellation fee, confidence plausibility with the premium.
type ConsistencyValidator struct{}

// NewConsistencyValidator creates a new cross-field consistency validator
func NewConsistencyValidator() *ConsistencyValidator {
	return &ConsistencyValidator{}
}

// Name returns the tool name
func (v *ConsistencyValidator) Name() string { return "consistency_validator" }

// Description returns the tool description
func (v *ConsistencyValidator) Description() string {
	return "Cross-field checks: fee versus premium, and confidence-score plausibility"
}

// ApplicableFields returns the fields whose runs carry a cross-field check
func (v *ConsistencyValidator) ApplicableFields() []string {
	return []string{
		models.FieldCancellationFee,
		models.FieldGapPremium,
	}
}

// Execute runs the cross-field checks under the shared guard
func (v *ConsistencyValidator) Execute(ctx context.Context, tc *ToolContext) *ToolResult {
	return runGuarded(ctx, v, tc, v.validate)
}

func (v *ConsistencyValidator) validate(_ context.Context, tc *ToolContext) (*ToolResult, error) {
	switch tc.FieldName {
	case models.FieldCancellationFee:
		return v.checkFeeAgainstPremium(tc), nil
	case models.FieldGapPremium:
		return v.checkConfidencePlausibility(tc), nil
	default:
		return &ToolResult{
			Status:  StatusSkipped,
			Message: fmt.Sprintf("no cross-field check for field %s", tc.FieldName),
		}, nil
	}
}

func (v *ConsistencyValidator) checkFeeAgainstPremium(tc *ToolContext) *ToolResult {
	fee, err := numericValue(tc.Value)
	if err != nil {
		return &ToolResult{
			Status:  StatusSkipped,
			Message: fmt.Sprintf("cannot compare: cancellation fee is not numeric: %v", err),
		}
	}

	premiumField, ok := tc.AllFields[models.FieldGapPremium]
	if !ok || premiumField.Value == nil {
		return &ToolResult{
			Status:  StatusSkipped,
			Message: "cannot compare: no gap premium extracted",
		}
	}

	premium, err := numericValue(premiumField.Value)
	if err != nil {
		return &ToolResult{
			Status:  StatusSkipped,
			Message: fmt.Sprintf("cannot compare: gap premium is not numeric: %v", err),
		}
	}

	if fee > premium {
		return &ToolResult{
			Status:  StatusWarning,
			Message: fmt.Sprintf("cancellation fee $%.2f exceeds the gap premium $%.2f", fee, premium),
			Details: map[string]interface{}{
				"cancellation_fee":      fee,
				"gap_insurance_premium": premium,
			},
		}
	}

	return &ToolResult{
		Status:  StatusPass,
		Message: fmt.Sprintf("cancellation fee $%.2f does not exceed the gap premium $%.2f", fee, premium),
	}
}

func (v *ConsistencyValidator) checkConfidencePlausibility(tc *ToolContext) *ToolResult {
	var scores []float64
	for _, name := range models.ExtractedFieldNames {
		field, ok := tc.AllFields[name]
		if !ok || field.Value == nil {
			continue
		}
		scores = append(scores, field.Confidence)
	}

	if len(scores) < 2 {
		return &ToolResult{
			Status:  StatusPass,
			Message: "not enough confidence scores to assess plausibility",
		}
	}

	allMax := true
	allLow := true
	for _, s := range scores {
		if s != suspiciousConfidenceHigh {
			allMax = false
		}
		if s >= suspiciousConfidenceLow {
			allLow = false
		}
	}

	if allMax {
		return &ToolResult{
			Status:  StatusWarning,
			Message: fmt.Sprintf("all %d confidence scores are exactly 100, which is suspicious", len(scores)),
			Details: map[string]interface{}{"scores": scores},
		}
	}

	if allLow {
		return &ToolResult{
			Status:  StatusWarning,
			Message: fmt.Sprintf("all %d confidence scores are below 50, extraction may be unreliable", len(scores)),
			Details: map[string]interface{}{"scores": scores},
		}
	}

	return &ToolResult{
		Status:  StatusPass,
		Message: "confidence scores are plausible",
	}
}
