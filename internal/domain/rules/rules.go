// Package rules contains the pure business rules for LOD case gating:
// review-necessity thresholds, toxicology gating, and appeal-deadline
// arithmetic. Functions here are deterministic and perform no I/O.
package rules

import (
	"time"

	"github.com/donellmccoy/lod-tracker/internal/domain/entity"
	"github.com/donellmccoy/lod-tracker/internal/domain/workflow"
)

// Config holds the tunable thresholds and appeal windows
type Config struct {
	// Legal review is required strictly above these bounds
	LegalSeverityThreshold int
	LegalCostThreshold     float64

	// Wing review is required strictly above these bounds
	WingSeverityThreshold int
	WingCostThreshold     float64

	// AppealWindowDays applies to informal cases and formal non-death cases
	AppealWindowDays int

	// DeathAppealWindowDays applies to formal death cases
	DeathAppealWindowDays int
}

// DefaultConfig returns the standard thresholds
func DefaultConfig() Config {
	return Config{
		LegalSeverityThreshold: 5,
		LegalCostThreshold:     50000,
		WingSeverityThreshold:  7,
		WingCostThreshold:      100000,
		AppealWindowDays:       30,
		DeathAppealWindowDays:  180,
	}
}

// Evaluator evaluates business rules against case snapshots
type Evaluator struct {
	cfg Config
}

// NewEvaluator creates an evaluator with the given thresholds
func NewEvaluator(cfg Config) *Evaluator {
	return &Evaluator{cfg: cfg}
}

// RequiresLegalReview reports whether an informal case must detour through
// legal review: injury severity or estimated cost strictly above threshold.
func (e *Evaluator) RequiresLegalReview(c *entity.Case) bool {
	if !c.IsInformal() {
		return false
	}
	if c.InjurySeverity != nil && *c.InjurySeverity > e.cfg.LegalSeverityThreshold {
		return true
	}
	if c.EstimatedCost != nil && *c.EstimatedCost > e.cfg.LegalCostThreshold {
		return true
	}
	return false
}

// RequiresWingReview reports whether an informal case must detour through
// wing commander review
func (e *Evaluator) RequiresWingReview(c *entity.Case) bool {
	if !c.IsInformal() {
		return false
	}
	if c.InjurySeverity != nil && *c.InjurySeverity > e.cfg.WingSeverityThreshold {
		return true
	}
	if c.EstimatedCost != nil && *c.EstimatedCost > e.cfg.WingCostThreshold {
		return true
	}
	return false
}

// CanProceedFromInvestigation reports whether a formal investigation may
// close: toxicology, when required, must be complete first
func (e *Evaluator) CanProceedFromInvestigation(c *entity.Case) bool {
	if !c.ToxicologyRequired {
		return true
	}
	return c.ToxicologyComplete
}

// AppealWindowDays returns the appeal window applicable to the case
func (e *Evaluator) AppealWindowDays(c *entity.Case) int {
	if c.IsFormal() && c.IsDeathCase {
		return e.cfg.DeathAppealWindowDays
	}
	return e.cfg.AppealWindowDays
}

// IsAppealEligible reports whether the case may still be appealed as of the
// given date. The window is measured in whole days from the most recent
// transition into Notification; the boundary day itself is still eligible.
// A case that was never notified cannot be appealed.
func (e *Evaluator) IsAppealEligible(c *entity.Case, history []*entity.TransitionHistoryEntry, asOf time.Time) bool {
	notified := mostRecentNotification(history)
	if notified == nil {
		return false
	}

	daysSince := int(asOf.Sub(notified.Timestamp).Hours() / 24)
	return daysSince <= e.AppealWindowDays(c)
}

// ApplyDerivedFlags recomputes the informal review flags from the current
// severity and cost. Formal flags are operator-set, so this is a no-op for
// formal cases.
func (e *Evaluator) ApplyDerivedFlags(c *entity.Case) {
	if !c.IsInformal() {
		return
	}
	c.RequiresLegalReview = e.RequiresLegalReview(c)
	c.RequiresWingReview = e.RequiresWingReview(c)
}

// mostRecentNotification returns the latest history entry that entered the
// Notification state. The graphs only enter Notification once, but if a
// future topology re-enters it the latest notification governs the window.
func mostRecentNotification(history []*entity.TransitionHistoryEntry) *entity.TransitionHistoryEntry {
	for i := len(history) - 1; i >= 0; i-- {
		if history[i].ToState == workflow.StateNotification.String() {
			return history[i]
		}
	}
	return nil
}
