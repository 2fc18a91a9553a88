package validation

import (
	"context"
	"strings"
	"testing"

	"gapguard-backend/models"

	"github.com/google/uuid"
)

// scriptedTool returns a fixed status for every field it runs against.
type scriptedTool struct {
	name   string
	status ToolStatus
}

func (s *scriptedTool) Name() string               { return s.name }
func (s *scriptedTool) Description() string        { return "scripted" }
func (s *scriptedTool) ApplicableFields() []string { return nil }

func (s *scriptedTool) Execute(ctx context.Context, tc *ToolContext) *ToolResult {
	return &ToolResult{
		Status:    s.status,
		FieldName: tc.FieldName,
		ToolName:  s.name,
		Message:   s.name + " says " + string(s.status),
	}
}

func fullFields() models.ExtractedFields {
	return models.ExtractedFields{
		models.FieldGapPremium:      {Value: 500.0, Confidence: 92},
		models.FieldRefundMethod:    {Value: "pro-rata", Confidence: 88},
		models.FieldCancellationFee: {Value: 50.0, Confidence: 85},
	}
}

func TestOrchestratorStatusAggregation(t *testing.T) {
	tests := []struct {
		name     string
		statuses []ToolStatus
		want     ToolStatus
	}{
		{"all pass", []ToolStatus{StatusPass, StatusPass}, StatusPass},
		{"warning outranks pass", []ToolStatus{StatusPass, StatusWarning}, StatusWarning},
		{"fail outranks warning", []ToolStatus{StatusWarning, StatusFail}, StatusFail},
		{"error counts as fail", []ToolStatus{StatusPass, StatusError}, StatusFail},
		{"skips do not dilute", []ToolStatus{StatusSkipped, StatusWarning}, StatusWarning},
		{"all skipped is a pass", []ToolStatus{StatusSkipped, StatusSkipped}, StatusPass},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tools := make([]Tool, len(tt.statuses))
			for i, status := range tt.statuses {
				tools[i] = &scriptedTool{name: string(rune('a' + i)), status: status}
			}

			o := NewOrchestrator(tools...)
			verdict, err := o.Validate(context.Background(), uuid.New(), uuid.New(), fullFields(), "")
			if err != nil {
				t.Fatalf("Validate: %v", err)
			}
			if verdict.OverallStatus != tt.want {
				t.Errorf("overall = %s, want %s", verdict.OverallStatus, tt.want)
			}
		})
	}
}

func TestOrchestratorExcludesSkipped(t *testing.T) {
	o := NewOrchestrator(
		&scriptedTool{name: "checker", status: StatusPass},
		&scriptedTool{name: "skipper", status: StatusSkipped},
	)

	verdict, err := o.Validate(context.Background(), uuid.New(), uuid.New(), fullFields(), "")
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}

	if len(verdict.FieldResults) != len(models.ExtractedFieldNames) {
		t.Fatalf("got %d results, want %d (skips excluded)",
			len(verdict.FieldResults), len(models.ExtractedFieldNames))
	}
	for _, r := range verdict.FieldResults {
		if r.ToolName != "checker" {
			t.Errorf("skipped result leaked into verdict: %+v", r)
		}
	}
}

func TestOrchestratorResultOrdering(t *testing.T) {
	o := NewOrchestrator(
		&scriptedTool{name: "first", status: StatusPass},
		&scriptedTool{name: "second", status: StatusPass},
	)

	verdict, err := o.Validate(context.Background(), uuid.New(), uuid.New(), fullFields(), "")
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}

	// Field-major order, tool order within each field.
	want := []struct{ field, tool string }{
		{models.FieldGapPremium, "first"},
		{models.FieldGapPremium, "second"},
		{models.FieldRefundMethod, "first"},
		{models.FieldRefundMethod, "second"},
		{models.FieldCancellationFee, "first"},
		{models.FieldCancellationFee, "second"},
	}

	if len(verdict.FieldResults) != len(want) {
		t.Fatalf("got %d results, want %d", len(verdict.FieldResults), len(want))
	}
	for i, w := range want {
		r := verdict.FieldResults[i]
		if r.FieldName != w.field || r.ToolName != w.tool {
			t.Errorf("result %d = %s/%s, want %s/%s", i, r.FieldName, r.ToolName, w.field, w.tool)
		}
	}
}

func TestOrchestratorCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	o := NewOrchestrator(&scriptedTool{name: "checker", status: StatusPass})

	verdict, err := o.Validate(ctx, uuid.New(), uuid.New(), fullFields(), "")
	if err == nil {
		t.Fatal("expected context error")
	}
	if verdict != nil {
		t.Errorf("expected no partial verdict, got %+v", verdict)
	}
}

func TestOrchestratorSummary(t *testing.T) {
	t.Run("pass summary counts checks", func(t *testing.T) {
		o := NewOrchestrator(&scriptedTool{name: "checker", status: StatusPass})

		verdict, err := o.Validate(context.Background(), uuid.New(), uuid.New(), fullFields(), "")
		if err != nil {
			t.Fatalf("Validate: %v", err)
		}
		if !strings.Contains(verdict.Summary, "3 passed, 0 warnings, 0 failed") {
			t.Errorf("unexpected summary: %q", verdict.Summary)
		}
	})

	t.Run("warning summary carries messages", func(t *testing.T) {
		o := NewOrchestrator(
			&scriptedTool{name: "checker", status: StatusPass},
			&scriptedTool{name: "worrier", status: StatusWarning},
		)

		verdict, err := o.Validate(context.Background(), uuid.New(), uuid.New(), fullFields(), "")
		if err != nil {
			t.Fatalf("Validate: %v", err)
		}
		if !strings.Contains(verdict.Summary, "passed with warnings") {
			t.Errorf("unexpected summary: %q", verdict.Summary)
		}
		if !strings.Contains(verdict.Summary, "worrier says warning") {
			t.Errorf("warning messages missing from summary: %q", verdict.Summary)
		}
	})

	t.Run("fail summary names the failures", func(t *testing.T) {
		o := NewOrchestrator(&scriptedTool{name: "rejector", status: StatusFail})

		verdict, err := o.Validate(context.Background(), uuid.New(), uuid.New(), fullFields(), "")
		if err != nil {
			t.Fatalf("Validate: %v", err)
		}
		if !strings.HasPrefix(verdict.Summary, "Validation failed") {
			t.Errorf("unexpected summary: %q", verdict.Summary)
		}
		if !strings.Contains(verdict.Summary, "rejector says fail") {
			t.Errorf("failure messages missing from summary: %q", verdict.Summary)
		}
	})
}

func TestOrchestratorMissingFieldStillRuns(t *testing.T) {
	// A field absent from the extraction reaches the tools with a nil value;
	// tools that honor the skip contract drop it, scripted ones still report.
	fields := models.ExtractedFields{
		models.FieldGapPremium: {Value: 500.0, Confidence: 92},
	}

	o := NewOrchestrator(NewRuleValidator())

	verdict, err := o.Validate(context.Background(), uuid.New(), uuid.New(), fields, "")
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}

	if len(verdict.FieldResults) != 1 {
		t.Fatalf("got %d results, want 1 (absent fields skipped)", len(verdict.FieldResults))
	}
	if verdict.FieldResults[0].FieldName != models.FieldGapPremium {
		t.Errorf("unexpected field: %s", verdict.FieldResults[0].FieldName)
	}
}

func TestVerdictOutcome(t *testing.T) {
	verdict := &Verdict{
		OverallStatus: StatusWarning,
		FieldResults: []*ToolResult{
			{
				Status:    StatusWarning,
				FieldName: models.FieldGapPremium,
				ToolName:  "historical_validator",
				Message:   "outlier",
				Details:   map[string]interface{}{"mean": 500.0},
			},
		},
		Summary: "Validation passed with warnings",
	}

	outcome := verdict.Outcome()

	if outcome.OverallStatus != "warning" {
		t.Errorf("overall = %q, want warning", outcome.OverallStatus)
	}
	if outcome.Summary != verdict.Summary {
		t.Errorf("summary not carried over")
	}
	if len(outcome.FieldResults) != 1 {
		t.Fatalf("got %d field results, want 1", len(outcome.FieldResults))
	}
	fr := outcome.FieldResults[0]
	if fr["status"] != "warning" || fr["field_name"] != models.FieldGapPremium {
		t.Errorf("unexpected flattened result: %v", fr)
	}
	details, ok := fr["details"].(map[string]interface{})
	if !ok || details["mean"] != 500.0 {
		t.Errorf("details not preserved: %v", fr["details"])
	}
}
