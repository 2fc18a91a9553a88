package validation

import (
	"context"
	"errors"
	"strings"
	"testing"

	"gapguard-backend/models"
)

type fakeHistoricalSource struct {
	values map[string][]float64
	err    error
}

func (f *fakeHistoricalSource) ApprovedFieldValues(ctx context.Context, fieldName string) ([]float64, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.values[fieldName], nil
}

// Ten samples with mean 500 and a sample standard deviation of exactly 50,
// giving an outlier threshold of 100.
func referencePopulation() []float64 {
	return []float64{425, 425, 500, 500, 500, 500, 500, 500, 575, 575}
}

func historicalContext(value interface{}) *ToolContext {
	return &ToolContext{
		FieldName: models.FieldGapPremium,
		Value:     value,
	}
}

func TestHistoricalValidatorSampleGate(t *testing.T) {
	tests := []struct {
		name    string
		samples int
		want    ToolStatus
	}{
		{"nine samples skipped", 9, StatusSkipped},
		{"ten samples evaluated", 10, StatusPass},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			samples := referencePopulation()[:tt.samples]
			v := NewHistoricalValidator(&fakeHistoricalSource{
				values: map[string][]float64{models.FieldGapPremium: samples},
			})

			got := v.Execute(context.Background(), historicalContext(500.0))
			if got.Status != tt.want {
				t.Errorf("status = %s, want %s (message: %s)", got.Status, tt.want, got.Message)
			}
			if tt.want == StatusSkipped && got.Details["sample_count"] != tt.samples {
				t.Errorf("sample_count = %v, want %d", got.Details["sample_count"], tt.samples)
			}
		})
	}
}

func TestHistoricalValidatorOutlierBoundary(t *testing.T) {
	v := NewHistoricalValidator(&fakeHistoricalSource{
		values: map[string][]float64{models.FieldGapPremium: referencePopulation()},
	})

	tests := []struct {
		name  string
		value float64
		want  ToolStatus
	}{
		{"at the mean passes", 500, StatusPass},
		{"exactly at threshold passes", 600, StatusPass},
		{"just over threshold warns", 600.01, StatusWarning},
		{"far below mean warns", 250, StatusWarning},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := v.Execute(context.Background(), historicalContext(tt.value))
			if got.Status != tt.want {
				t.Errorf("value %.2f: status = %s, want %s (message: %s)",
					tt.value, got.Status, tt.want, got.Message)
			}
		})
	}
}

func TestHistoricalValidatorZeroVariance(t *testing.T) {
	uniform := make([]float64, 12)
	for i := range uniform {
		uniform[i] = 500
	}
	v := NewHistoricalValidator(&fakeHistoricalSource{
		values: map[string][]float64{models.FieldGapPremium: uniform},
	})

	if got := v.Execute(context.Background(), historicalContext(500.0)); got.Status != StatusPass {
		t.Errorf("identical value: status = %s, want %s", got.Status, StatusPass)
	}
	if got := v.Execute(context.Background(), historicalContext(500.01)); got.Status != StatusWarning {
		t.Errorf("any deviation from uniform history: status = %s, want %s", got.Status, StatusWarning)
	}
}

func TestHistoricalValidatorNonNumericValue(t *testing.T) {
	v := NewHistoricalValidator(&fakeHistoricalSource{
		values: map[string][]float64{models.FieldGapPremium: referencePopulation()},
	})

	got := v.Execute(context.Background(), historicalContext("unknown"))
	if got.Status != StatusFail {
		t.Fatalf("status = %s, want %s", got.Status, StatusFail)
	}
}

func TestHistoricalValidatorLookupFailure(t *testing.T) {
	v := NewHistoricalValidator(&fakeHistoricalSource{err: errors.New("connection reset")})

	got := v.Execute(context.Background(), historicalContext(500.0))
	if got.Status != StatusError {
		t.Fatalf("status = %s, want %s", got.Status, StatusError)
	}
	if !strings.Contains(got.Message, "connection reset") {
		t.Errorf("lookup failure not surfaced: %q", got.Message)
	}
}

func TestHistoricalValidatorDetails(t *testing.T) {
	v := NewHistoricalValidator(&fakeHistoricalSource{
		values: map[string][]float64{models.FieldGapPremium: referencePopulation()},
	})

	got := v.Execute(context.Background(), historicalContext(620.0))
	if got.Status != StatusWarning {
		t.Fatalf("status = %s, want %s", got.Status, StatusWarning)
	}
	if got.Details["mean"] != 500.0 {
		t.Errorf("mean = %v, want 500", got.Details["mean"])
	}
	if got.Details["std_dev"] != 50.0 {
		t.Errorf("std_dev = %v, want 50", got.Details["std_dev"])
	}
	if got.Details["deviation"] != 120.0 {
		t.Errorf("deviation = %v, want 120", got.Details["deviation"])
	}
	if got.Details["sample_count"] != 10 {
		t.Errorf("sample_count = %v, want 10", got.Details["sample_count"])
	}
}
