// Package validation implements the field validation pipeline: a fixed set of
// independent checker tools run against every LLM-extracted contract field,
// a jurisdiction-aware rule resolver, and an orchestrator that aggregates all
// tool results into one verdict per extraction.
package validation

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"gapguard-backend/models"

	"github.com/google/uuid"
)

// ToolStatus is the outcome of a single check
type ToolStatus string

const (
	StatusPass    ToolStatus = "pass"
	StatusWarning ToolStatus = "warning"
	StatusFail    ToolStatus = "fail"
	StatusSkipped ToolStatus = "skipped"
	StatusError   ToolStatus = "error"
)

// ToolContext carries everything a tool needs to check one field of one
// extraction. It is built per check and never persisted.
type ToolContext struct {
	FieldName  string
	Value      interface{} // numeric or string, nil when not extracted
	Confidence float64     // 0-100
	AllFields  models.ExtractedFields
	ContractID uuid.UUID
}

// ToolResult is the outcome of running one tool against one field
type ToolResult struct {
	Status               ToolStatus             `json:"status"`
	FieldName            string                 `json:"field_name"`
	Message              string                 `json:"message"`
	ToolName             string                 `json:"tool_name"`
	Details              map[string]interface{} `json:"details,omitempty"`
	ConfidenceAdjustment *float64               `json:"confidence_adjustment,omitempty"`
}

// Tool is a single independent field checker. ApplicableFields returning nil
// means the tool applies to every field.
type Tool interface {
	Name() string
	Description() string
	ApplicableFields() []string
	Execute(ctx context.Context, tc *ToolContext) *ToolResult
}

// validateFunc is a tool's core check, run inside the guard. A returned error
// becomes an error-status result rather than propagating.
type validateFunc func(ctx context.Context, tc *ToolContext) (*ToolResult, error)

// runGuarded wraps a tool's core validate call with the shared pipeline
// policy: skip fields outside the tool's applicability list, skip fields with
// no extracted value, and contain panics and errors as error-status results
// so a single tool's bug never aborts the pipeline. The tool and field names
// are stamped on whatever comes back.
func runGuarded(ctx context.Context, tool Tool, tc *ToolContext, validate validateFunc) (result *ToolResult) {
	defer func() {
		if r := recover(); r != nil {
			result = &ToolResult{
				Status:    StatusError,
				FieldName: tc.FieldName,
				ToolName:  tool.Name(),
				Message:   fmt.Sprintf("validator panicked: %v", r),
			}
		}
	}()

	if fields := tool.ApplicableFields(); fields != nil && !containsField(fields, tc.FieldName) {
		return &ToolResult{
			Status:    StatusSkipped,
			FieldName: tc.FieldName,
			ToolName:  tool.Name(),
			Message:   fmt.Sprintf("field %s not applicable to this tool", tc.FieldName),
		}
	}

	if tc.Value == nil {
		return &ToolResult{
			Status:    StatusSkipped,
			FieldName: tc.FieldName,
			ToolName:  tool.Name(),
			Message:   "no value extracted for field",
		}
	}

	result, err := validate(ctx, tc)
	if err != nil {
		return &ToolResult{
			Status:    StatusError,
			FieldName: tc.FieldName,
			ToolName:  tool.Name(),
			Message:   fmt.Sprintf("validator error: %v", err),
		}
	}

	if result.ToolName == "" {
		result.ToolName = tool.Name()
	}
	if result.FieldName == "" {
		result.FieldName = tc.FieldName
	}
	return result
}

func containsField(fields []string, name string) bool {
	for _, f := range fields {
		if f == name {
			return true
		}
	}
	return false
}

// numericValue coerces an extracted value to float64. String values are
// tolerated because the LLM sometimes returns amounts as text ("$495.00").
func numericValue(value interface{}) (float64, error) {
	switch v := value.(type) {
	case float64:
		return v, nil
	case float32:
		return float64(v), nil
	case int:
		return float64(v), nil
	case int64:
		return float64(v), nil
	case string:
		cleaned := strings.TrimSpace(v)
		cleaned = strings.TrimPrefix(cleaned, "$")
		cleaned = strings.ReplaceAll(cleaned, ",", "")
		n, err := strconv.ParseFloat(cleaned, 64)
		if err != nil {
			return 0, fmt.Errorf("cannot parse %q as a number", v)
		}
		return n, nil
	default:
		return 0, fmt.Errorf("value of type %T is not numeric", value)
	}
}

// normalizeCategorical lowercases and trims a categorical value for comparison
func normalizeCategorical(value string) string {
	return strings.ToLower(strings.TrimSpace(value))
}
