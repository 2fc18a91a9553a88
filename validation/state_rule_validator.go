package validation

import (
	"context"
	"fmt"
	"time"

	"gapguard-backend/models"
)

// fieldCategories maps extraction field names to the rule category that
// governs them
var fieldCategories = map[string]models.RuleCategory{
	models.FieldGapPremium:      models.CategoryGapPremium,
	models.FieldCancellationFee: models.CategoryCancellationFee,
	models.FieldRefundMethod:    models.CategoryRefundMethod,
}

// StateConflict records a secondary jurisdiction whose rule disagrees with
// the primary jurisdiction's verdict on the same field value
type StateConflict struct {
	JurisdictionID string `json:"jurisdiction_id"`
	FieldName      string `json:"field_name"`
	Message        string `json:"message"`
}

// StateRuleValidator checks extracted fields against the versioned rules of
// the contract's jurisdictions. The primary jurisdiction's ruling decides
// pass/fail; rules of secondary jurisdictions are applied to the same value
// and any problem they find escalates a passing primary result to a warning
// for human review. Contracts with no jurisdiction mapping fall back to the
// federal default rule set.
//
// Unlike the other tools it implements Execute without the shared guard:
// its applicability is a database question (which jurisdictions and rules
// exist for this contract), not a static field list.
type StateRuleValidator struct {
	resolver *RuleResolver
	now      func() time.Time
}

// NewStateRuleValidator creates a new jurisdiction-aware rule validator
func NewStateRuleValidator(resolver *RuleResolver) *StateRuleValidator {
	return &StateRuleValidator{
		resolver: resolver,
		now:      time.Now,
	}
}

// WithClock overrides the evaluation-date clock for testing
func (v *StateRuleValidator) WithClock(now func() time.Time) *StateRuleValidator {
	v.now = now
	return v
}

// Name returns the tool name
func (v *StateRuleValidator) Name() string { return "state_rule_validator" }

// Description returns the tool description
func (v *StateRuleValidator) Description() string {
	return "Checks extracted fields against jurisdiction-specific validation rules with multi-state conflict detection"
}

// ApplicableFields returns nil: applicability is decided per contract by
// jurisdiction lookup, not by field name
func (v *StateRuleValidator) ApplicableFields() []string { return nil }

// Execute resolves the contract's jurisdictions and applies the governing
// rule. Panics and lookup failures are contained as error-status results.
func (v *StateRuleValidator) Execute(ctx context.Context, tc *ToolContext) (result *ToolResult) {
	defer func() {
		if r := recover(); r != nil {
			result = &ToolResult{
				Status:    StatusError,
				FieldName: tc.FieldName,
				ToolName:  v.Name(),
				Message:   fmt.Sprintf("validator panicked: %v", r),
			}
		}
	}()

	category, ok := fieldCategories[tc.FieldName]
	if !ok {
		return v.skipped(tc, fmt.Sprintf("no rule category for field %s", tc.FieldName))
	}
	if tc.Value == nil {
		return v.skipped(tc, "no value extracted for field")
	}

	asOf := v.now()

	mappings, err := v.resolver.ResolveJurisdictions(ctx, tc.ContractID, asOf)
	if err != nil {
		return v.errored(tc, fmt.Errorf("jurisdiction lookup failed: %w", err))
	}

	// No mappings: apply the federal rule directly, no conflict checking.
	if len(mappings) == 0 {
		rule, err := v.resolver.ResolveRule(ctx, models.FederalJurisdictionID, category, asOf)
		if err != nil {
			return v.errored(tc, fmt.Errorf("federal rule lookup failed: %w", err))
		}
		if rule == nil {
			return v.skipped(tc, "no rules configured for field")
		}
		return v.applyRule(tc, rule)
	}

	primary := Primary(mappings)

	rule, err := v.resolver.ResolveRule(ctx, primary.JurisdictionID, category, asOf)
	if err != nil {
		return v.errored(tc, fmt.Errorf("rule lookup failed for %s: %w", primary.JurisdictionID, err))
	}
	if rule == nil {
		rule, err = v.resolver.ResolveRule(ctx, models.FederalJurisdictionID, category, asOf)
		if err != nil {
			return v.errored(tc, fmt.Errorf("federal rule lookup failed: %w", err))
		}
	}
	if rule == nil {
		return v.skipped(tc, "no rules configured for field")
	}

	result = v.applyRule(tc, rule)

	if len(mappings) > 1 {
		conflicts := v.detectConflicts(ctx, tc, category, primary, mappings, asOf)
		if len(conflicts) > 0 && result.Status == StatusPass {
			// The primary ruling stays authoritative; secondary problems
			// only escalate a pass to a warning for human review.
			result.Status = StatusWarning
			result.Message += " (conflicts with other states)"
			if result.Details == nil {
				result.Details = make(map[string]interface{})
			}
			result.Details["multi_state_conflicts"] = conflicts
		}
	}

	return result
}

// detectConflicts applies every non-primary jurisdiction's rule to the same
// field value and collects the ones that fail or warn. Secondary lookups do
// not fall back to the federal rule set: that fallback would mirror the
// primary's own and always agree with it.
func (v *StateRuleValidator) detectConflicts(
	ctx context.Context,
	tc *ToolContext,
	category models.RuleCategory,
	primary *models.ContractJurisdiction,
	mappings []*models.ContractJurisdiction,
	asOf time.Time,
) []StateConflict {
	var conflicts []StateConflict

	for _, m := range mappings {
		if m.ID == primary.ID {
			continue
		}

		rule, err := v.resolver.ResolveRule(ctx, m.JurisdictionID, category, asOf)
		if err != nil || rule == nil {
			continue
		}

		secondary := v.applyRule(tc, rule)
		if secondary.Status == StatusFail || secondary.Status == StatusWarning {
			conflicts = append(conflicts, StateConflict{
				JurisdictionID: m.JurisdictionID,
				FieldName:      tc.FieldName,
				Message:        secondary.Message,
			})
		}
	}

	return conflicts
}

// applyRule evaluates a single rule's configuration against the field value
func (v *StateRuleValidator) applyRule(tc *ToolContext, rule *models.ValidationRule) *ToolResult {
	if rule.Category.IsNumeric() {
		return v.applyNumericRule(tc, rule)
	}
	return v.applyCategoricalRule(tc, rule)
}

func (v *StateRuleValidator) applyNumericRule(tc *ToolContext, rule *models.ValidationRule) *ToolResult {
	cfg := rule.Config

	amount, err := numericValue(tc.Value)
	if err != nil {
		return &ToolResult{
			Status:    StatusFail,
			FieldName: tc.FieldName,
			ToolName:  v.Name(),
			Message:   fmt.Sprintf("%s is not numeric: %v", tc.FieldName, err),
			Details:   map[string]interface{}{"jurisdiction": rule.JurisdictionID},
		}
	}

	belowMin := cfg.Min != nil && amount < *cfg.Min
	aboveMax := cfg.Max != nil && amount > *cfg.Max

	if belowMin || aboveMax {
		status := StatusWarning
		if cfg.Strict {
			status = StatusFail
		}
		msg := fmt.Sprintf("%s $%.2f violates %s limits [%s, %s]",
			tc.FieldName, amount, rule.JurisdictionID, boundText(cfg.Min), boundText(cfg.Max))
		if cfg.Reason != "" {
			msg += ": " + cfg.Reason
		}
		return &ToolResult{
			Status:    status,
			FieldName: tc.FieldName,
			ToolName:  v.Name(),
			Message:   msg,
			Details: map[string]interface{}{
				"jurisdiction": rule.JurisdictionID,
				"value":        amount,
				"min":          cfg.Min,
				"max":          cfg.Max,
				"strict":       cfg.Strict,
			},
		}
	}

	if cfg.WarningThreshold != nil && amount > *cfg.WarningThreshold {
		return &ToolResult{
			Status:    StatusWarning,
			FieldName: tc.FieldName,
			ToolName:  v.Name(),
			Message: fmt.Sprintf("%s $%.2f exceeds the %s warning threshold of $%.2f",
				tc.FieldName, amount, rule.JurisdictionID, *cfg.WarningThreshold),
			Details: map[string]interface{}{
				"jurisdiction":      rule.JurisdictionID,
				"value":             amount,
				"warning_threshold": *cfg.WarningThreshold,
			},
		}
	}

	return &ToolResult{
		Status:    StatusPass,
		FieldName: tc.FieldName,
		ToolName:  v.Name(),
		Message:   fmt.Sprintf("%s $%.2f complies with %s rules", tc.FieldName, amount, rule.JurisdictionID),
		Details:   map[string]interface{}{"jurisdiction": rule.JurisdictionID},
	}
}

func (v *StateRuleValidator) applyCategoricalRule(tc *ToolContext, rule *models.ValidationRule) *ToolResult {
	cfg := rule.Config
	normalized := normalizeCategorical(fmt.Sprintf("%v", tc.Value))

	violation := func(verb string) *ToolResult {
		status := StatusWarning
		if cfg.Strict {
			status = StatusFail
		}
		msg := fmt.Sprintf("%s %q is %s in %s", tc.FieldName, normalized, verb, rule.JurisdictionID)
		if cfg.Reason != "" {
			msg += ": " + cfg.Reason
		}
		return &ToolResult{
			Status:    status,
			FieldName: tc.FieldName,
			ToolName:  v.Name(),
			Message:   msg,
			Details: map[string]interface{}{
				"jurisdiction": rule.JurisdictionID,
				"value":        normalized,
				"strict":       cfg.Strict,
			},
		}
	}

	for _, prohibited := range cfg.ProhibitedValues {
		if normalized == normalizeCategorical(prohibited) {
			return violation("prohibited")
		}
	}

	if len(cfg.AllowedValues) > 0 {
		allowed := false
		for _, a := range cfg.AllowedValues {
			if normalized == normalizeCategorical(a) {
				allowed = true
				break
			}
		}
		if !allowed {
			return violation("not among the allowed values")
		}
	}

	return &ToolResult{
		Status:    StatusPass,
		FieldName: tc.FieldName,
		ToolName:  v.Name(),
		Message:   fmt.Sprintf("%s %q complies with %s rules", tc.FieldName, normalized, rule.JurisdictionID),
		Details:   map[string]interface{}{"jurisdiction": rule.JurisdictionID},
	}
}

func (v *StateRuleValidator) skipped(tc *ToolContext, message string) *ToolResult {
	return &ToolResult{
		Status:    StatusSkipped,
		FieldName: tc.FieldName,
		ToolName:  v.Name(),
		Message:   message,
	}
}

func (v *StateRuleValidator) errored(tc *ToolContext, err error) *ToolResult {
	return &ToolResult{
		Status:    StatusError,
		FieldName: tc.FieldName,
		ToolName:  v.Name(),
		Message:   err.Error(),
	}
}

func boundText(bound *float64) string {
	if bound == nil {
		return "-"
	}
	return fmt.Sprintf("$%.2f", *bound)
}
