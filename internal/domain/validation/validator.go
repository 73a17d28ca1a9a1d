// Package validation runs trigger-specific business pre-checks before the
// state machine is consulted. Validator failures carry human-readable
// messages and are distinct from the machine's topology/guard rejections.
package validation

import (
	"fmt"
	"strings"
	"time"

	"github.com/donellmccoy/lod-tracker/internal/domain/entity"
	"github.com/donellmccoy/lod-tracker/internal/domain/rules"
	"github.com/donellmccoy/lod-tracker/internal/domain/workflow"
)

// Result aggregates every rule violated by a single trigger attempt. It is
// transient and never persisted.
type Result struct {
	Valid  bool     `json:"valid"`
	Errors []string `json:"errors,omitempty"`
}

// Validator performs per-trigger pre-checks over read-only case data
type Validator struct {
	rules *rules.Evaluator
}

// NewValidator creates a validator backed by the given rule evaluator
func NewValidator(evaluator *rules.Evaluator) *Validator {
	return &Validator{rules: evaluator}
}

// Validate collects all business-rule violations for firing the trigger
// against the case as of now. History is needed for appeal-deadline checks.
func (v *Validator) Validate(c *entity.Case, trigger workflow.Trigger, history []*entity.TransitionHistoryEntry, now time.Time) Result {
	var errs []string

	switch trigger {
	case workflow.TriggerProcessInitiated:
		if workflow.State(c.CurrentState) != workflow.StateStart {
			errs = append(errs, "Process can only be initiated from Start state")
		}

	case workflow.TriggerConditionReported:
		if strings.TrimSpace(c.MemberID) == "" {
			errs = append(errs, "a member must be identified before a condition can be reported")
		}

	case workflow.TriggerOfficerAppointed:
		if strings.TrimSpace(c.InvestigatingOfficerID) == "" {
			errs = append(errs, "an investigating officer must be assigned before appointment")
		}

	case workflow.TriggerInvestigationComplete:
		if !v.rules.CanProceedFromInvestigation(c) {
			errs = append(errs, "the required toxicology report must be complete before the investigation can close")
		}

	case workflow.TriggerAppealRequested, workflow.TriggerAppealFiled:
		if !v.rules.IsAppealEligible(c, history, now) {
			errs = append(errs, fmt.Sprintf(
				"the appeal window of %d days from notification has passed or the case was never notified",
				v.rules.AppealWindowDays(c)))
		}

	case workflow.TriggerNoAppealRequested:
		if workflow.State(c.CurrentState) != workflow.StateNotification {
			errs = append(errs, "a case can only be closed without appeal from the Notification state")
		}
	}

	return Result{Valid: len(errs) == 0, Errors: errs}
}
