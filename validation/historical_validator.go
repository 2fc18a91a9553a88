package validation

import (
	"context"
	"fmt"
	"math"

	"gapguard-backend/models"

	"github.com/montanaflynn/stats"
)

const (
	// minHistoricalSamples is the smallest approved population that supports
	// a statistically meaningful comparison
	minHistoricalSamples = 10

	// outlierStdDevs is the outlier threshold in standard deviations from the
	// historical mean
	outlierStdDevs = 2.0
)

// HistoricalSource is the read interface over approved extraction values.
// Implemented by repository.ExtractionRepository.
type HistoricalSource interface {
	// ApprovedFieldValues returns every numeric value of the named field
	// across extractions whose status is approved.
	ApprovedFieldValues(ctx context.Context, fieldName string) ([]float64, error)
}

// HistoricalValidator flags values that are statistical outliers against the
// population of human-approved extractions. A population with zero variance
// flags any differing new value: when every approved value has been identical,
// the new value is the first deviation ever observed.
type HistoricalValidator struct {
	source HistoricalSource
}

// NewHistoricalValidator creates a new historical outlier validator
func NewHistoricalValidator(source HistoricalSource) *HistoricalValidator {
	return &HistoricalValidator{source: source}
}

// Name returns the tool name
func (v *HistoricalValidator) Name() string { return "historical_validator" }

// Description returns the tool description
func (v *HistoricalValidator) Description() string {
	return "Flags values more than two standard deviations from the mean of approved historical data"
}

// ApplicableFields returns the numeric fields this tool checks
func (v *HistoricalValidator) ApplicableFields() []string {
	return []string{
		models.FieldGapPremium,
		models.FieldCancellationFee,
	}
}

// Execute runs the outlier check under the shared guard
func (v *HistoricalValidator) Execute(ctx context.Context, tc *ToolContext) *ToolResult {
	return runGuarded(ctx, v, tc, v.validate)
}

func (v *HistoricalValidator) validate(ctx context.Context, tc *ToolContext) (*ToolResult, error) {
	value, err := numericValue(tc.Value)
	if err != nil {
		return &ToolResult{
			Status:  StatusFail,
			Message: fmt.Sprintf("%s is not numeric: %v", tc.FieldName, err),
		}, nil
	}

	samples, err := v.source.ApprovedFieldValues(ctx, tc.FieldName)
	if err != nil {
		return nil, fmt.Errorf("historical data lookup failed: %w", err)
	}

	if len(samples) < minHistoricalSamples {
		return &ToolResult{
			Status: StatusSkipped,
			Message: fmt.Sprintf("only %d approved samples for %s, need at least %d",
				len(samples), tc.FieldName, minHistoricalSamples),
			Details: map[string]interface{}{"sample_count": len(samples)},
		}, nil
	}

	mean, err := stats.Mean(samples)
	if err != nil {
		return nil, fmt.Errorf("failed to compute mean: %w", err)
	}
	stdDev, err := stats.StandardDeviationSample(samples)
	if err != nil {
		return nil, fmt.Errorf("failed to compute standard deviation: %w", err)
	}

	deviation := math.Abs(value - mean)
	threshold := outlierStdDevs * stdDev

	details := map[string]interface{}{
		"mean":         mean,
		"std_dev":      stdDev,
		"deviation":    deviation,
		"threshold":    threshold,
		"sample_count": len(samples),
	}

	if deviation > threshold {
		return &ToolResult{
			Status: StatusWarning,
			Message: fmt.Sprintf("%s $%.2f is a statistical outlier: deviates $%.2f from the approved mean $%.2f (threshold $%.2f)",
				tc.FieldName, value, deviation, mean, threshold),
			Details: details,
		}, nil
	}

	return &ToolResult{
		Status: StatusPass,
		Message: fmt.Sprintf("%s $%.2f is consistent with %d approved samples",
			tc.FieldName, value, len(samples)),
		Details: details,
	}, nil
}
