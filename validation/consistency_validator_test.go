package validation

import (
	"context"
	"testing"

	"gapguard-backend/models"
)

func feeContext(fee, premium interface{}) *ToolContext {
	fields := models.ExtractedFields{
		models.FieldCancellationFee: {Value: fee, Confidence: 90},
	}
	if premium != nil {
		fields[models.FieldGapPremium] = models.FieldExtraction{Value: premium, Confidence: 85}
	}
	return &ToolContext{
		FieldName: models.FieldCancellationFee,
		Value:     fee,
		AllFields: fields,
	}
}

func confidenceContext(scores map[string]float64) *ToolContext {
	fields := make(models.ExtractedFields, len(scores))
	for name, score := range scores {
		fields[name] = models.FieldExtraction{Value: 1.0, Confidence: score}
	}
	return &ToolContext{
		FieldName:  models.FieldGapPremium,
		Value:      1.0,
		Confidence: scores[models.FieldGapPremium],
		AllFields:  fields,
	}
}

func TestConsistencyFeeAgainstPremium(t *testing.T) {
	v := NewConsistencyValidator()

	tests := []struct {
		name    string
		fee     interface{}
		premium interface{}
		want    ToolStatus
	}{
		{"fee below premium passes", 30.0, 50.0, StatusPass},
		{"fee equal to premium passes", 50.0, 50.0, StatusPass},
		{"fee above premium warns", 80.0, 50.0, StatusWarning},
		{"string amounts compared", "$80.00", "$50.00", StatusWarning},
		{"missing premium skipped", 80.0, nil, StatusSkipped},
		{"non-numeric premium skipped", 80.0, "included", StatusSkipped},
		{"non-numeric fee skipped", "waived", 50.0, StatusSkipped},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := v.Execute(context.Background(), feeContext(tt.fee, tt.premium))
			if got.Status != tt.want {
				t.Errorf("status = %s, want %s (message: %s)", got.Status, tt.want, got.Message)
			}
		})
	}
}

func TestConsistencyConfidencePlausibility(t *testing.T) {
	v := NewConsistencyValidator()

	tests := []struct {
		name   string
		scores map[string]float64
		want   ToolStatus
	}{
		{
			"mixed scores pass",
			map[string]float64{
				models.FieldGapPremium:      92,
				models.FieldRefundMethod:    78,
				models.FieldCancellationFee: 85,
			},
			StatusPass,
		},
		{
			"all exactly 100 warns",
			map[string]float64{
				models.FieldGapPremium:      100,
				models.FieldRefundMethod:    100,
				models.FieldCancellationFee: 100,
			},
			StatusWarning,
		},
		{
			"all below 50 warns",
			map[string]float64{
				models.FieldGapPremium:      42,
				models.FieldRefundMethod:    30,
				models.FieldCancellationFee: 18,
			},
			StatusWarning,
		},
		{
			"one score at 50 keeps the set plausible",
			map[string]float64{
				models.FieldGapPremium:      42,
				models.FieldRefundMethod:    50,
				models.FieldCancellationFee: 18,
			},
			StatusPass,
		},
		{
			"single score never warns",
			map[string]float64{models.FieldGapPremium: 100},
			StatusPass,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := v.Execute(context.Background(), confidenceContext(tt.scores))
			if got.Status != tt.want {
				t.Errorf("status = %s, want %s (message: %s)", got.Status, tt.want, got.Message)
			}
		})
	}
}

func TestConsistencySkipsUncheckedField(t *testing.T) {
	v := NewConsistencyValidator()

	got := v.Execute(context.Background(), &ToolContext{
		FieldName: models.FieldRefundMethod,
		Value:     "pro-rata",
	})

	if got.Status != StatusSkipped {
		t.Fatalf("expected skipped, got %s", got.Status)
	}
}

func TestConsistencyIgnoresUnextractedFields(t *testing.T) {
	v := NewConsistencyValidator()

	// All extracted scores are 100, but a field with a nil value must not
	// count toward the score set.
	fields := models.ExtractedFields{
		models.FieldGapPremium:      {Value: 500.0, Confidence: 100},
		models.FieldCancellationFee: {Value: 50.0, Confidence: 100},
		models.FieldRefundMethod:    {Value: nil, Confidence: 0},
	}

	got := v.Execute(context.Background(), &ToolContext{
		FieldName: models.FieldGapPremium,
		Value:     500.0,
		AllFields: fields,
	})

	if got.Status != StatusWarning {
		t.Fatalf("expected warning for uniformly perfect scores, got %s: %s", got.Status, got.Message)
	}
}
