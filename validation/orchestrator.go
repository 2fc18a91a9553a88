package validation

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"gapguard-backend/models"

	"github.com/google/uuid"
)

// Verdict is the aggregated validation result for one extraction: the overall
// status, every non-skipped per-field diagnostic, and a generated summary.
type Verdict struct {
	OverallStatus ToolStatus    `json:"overall_status"`
	FieldResults  []*ToolResult `json:"field_results"`
	Summary       string        `json:"summary"`
}

// Outcome converts the verdict into the persistable form stored alongside
// the extraction
func (v *Verdict) Outcome() models.ValidationOutcome {
	outcome := models.ValidationOutcome{
		OverallStatus: string(v.OverallStatus),
		Summary:       v.Summary,
		FieldResults:  make([]map[string]interface{}, 0, len(v.FieldResults)),
	}
	for _, r := range v.FieldResults {
		// Round-trip through JSON to flatten the result into the stored map
		raw, err := json.Marshal(r)
		if err != nil {
			continue
		}
		var m map[string]interface{}
		if err := json.Unmarshal(raw, &m); err != nil {
			continue
		}
		outcome.FieldResults = append(outcome.FieldResults, m)
	}
	return outcome
}

// Orchestrator runs every tool against every extracted field and aggregates
// the results into one verdict. Checks are independent reads with no shared
// mutable state, so they fan out concurrently and join before aggregation.
type Orchestrator struct {
	tools  []Tool
	fields []string
}

// NewOrchestrator creates an orchestrator over an ordered tool list. The
// default pipeline wires the state-aware rule validator, the historical
// validator, and the consistency validator, in that order.
func NewOrchestrator(tools ...Tool) *Orchestrator {
	return &Orchestrator{
		tools:  tools,
		fields: models.ExtractedFieldNames,
	}
}

// Validate runs the full field-by-tool check matrix for one extraction and
// aggregates the results. The verdict is all-or-nothing: if the context is
// cancelled, partial results are discarded and the error returned. The
// document text is accepted for interface completeness but unused here.
func (o *Orchestrator) Validate(
	ctx context.Context,
	contractID uuid.UUID,
	extractionID uuid.UUID,
	fields models.ExtractedFields,
	documentText string,
) (*Verdict, error) {
	_ = documentText

	// Pre-indexed result slice keeps output order deterministic
	// (field-major, tool order within a field) without locking.
	results := make([]*ToolResult, len(o.fields)*len(o.tools))

	var wg sync.WaitGroup
	for i, fieldName := range o.fields {
		field := fields[fieldName] // zero value when absent: nil value, confidence 0

		for j, tool := range o.tools {
			tc := &ToolContext{
				FieldName:  fieldName,
				Value:      field.Value,
				Confidence: field.Confidence,
				AllFields:  fields,
				ContractID: contractID,
			}

			wg.Add(1)
			go func(idx int, tool Tool, tc *ToolContext) {
				defer wg.Done()
				results[idx] = tool.Execute(ctx, tc)
			}(i*len(o.tools)+j, tool, tc)
		}
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// Skipped results are no-ops: excluded from the verdict and from the
	// overall status computation.
	kept := make([]*ToolResult, 0, len(results))
	for _, r := range results {
		if r == nil || r.Status == StatusSkipped {
			continue
		}
		kept = append(kept, r)
	}

	verdict := &Verdict{
		OverallStatus: aggregateStatus(kept),
		FieldResults:  kept,
	}
	verdict.Summary = summarize(kept, verdict.OverallStatus)

	return verdict, nil
}

// aggregateStatus computes the overall status by priority: any fail or error
// fails the extraction (an error means a validator malfunctioned, and an
// unverifiable field must not silently pass), else any warning warns, else
// pass.
func aggregateStatus(results []*ToolResult) ToolStatus {
	overall := StatusPass
	for _, r := range results {
		switch r.Status {
		case StatusFail, StatusError:
			return StatusFail
		case StatusWarning:
			overall = StatusWarning
		}
	}
	return overall
}

// summarize produces the human-readable one-liner attached to the verdict
func summarize(results []*ToolResult, overall ToolStatus) string {
	var passes, warnings, fails, errs int
	for _, r := range results {
		switch r.Status {
		case StatusPass:
			passes++
		case StatusWarning:
			warnings++
		case StatusFail:
			fails++
		case StatusError:
			errs++
		}
	}

	counts := fmt.Sprintf("%d passed, %d warnings, %d failed", passes, warnings, fails)
	if errs > 0 {
		counts += fmt.Sprintf(", %d validator errors", errs)
	}

	switch overall {
	case StatusFail:
		problems := collectMessages(results, StatusFail, StatusError)
		return fmt.Sprintf("Validation failed (%s): %s", counts, problems)
	case StatusWarning:
		problems := collectMessages(results, StatusWarning)
		return fmt.Sprintf("Validation passed with warnings (%s): %s", counts, problems)
	default:
		return fmt.Sprintf("All checks passed (%s)", counts)
	}
}

func collectMessages(results []*ToolResult, statuses ...ToolStatus) string {
	var messages []string
	for _, r := range results {
		for _, s := range statuses {
			if r.Status == s {
				messages = append(messages, r.Message)
				break
			}
		}
	}
	return strings.Join(messages, "; ")
}
