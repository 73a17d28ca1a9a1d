package entity

import "time"

// Variant constants select which workflow graph and gating rules apply to a case.
const (
	VariantInformal = "INFORMAL"
	VariantFormal   = "FORMAL"
)

// ValidVariant returns true if v is a recognized case variant.
func ValidVariant(v string) bool {
	return v == VariantInformal || v == VariantFormal
}

// Case represents a Line of Duty determination tracked through the approval
// workflow. Variant and CaseNumber are immutable after creation; CurrentState
// is the only position field and is owned by the orchestration service.
type Case struct {
	ID           string `json:"id"`
	CaseNumber   string `json:"case_number"`
	Variant      string `json:"variant"`
	CurrentState string `json:"current_state"`

	MemberID   string `json:"member_id,omitempty"`
	MemberName string `json:"member_name,omitempty"`

	// Informal review flags, derived from severity and cost.
	RequiresLegalReview bool     `json:"requires_legal_review"`
	RequiresWingReview  bool     `json:"requires_wing_review"`
	InjurySeverity      *int     `json:"injury_severity,omitempty"`
	EstimatedCost       *float64 `json:"estimated_cost,omitempty"`

	// Formal investigation fields, operator-set.
	IsDeathCase                 bool       `json:"is_death_case"`
	ToxicologyRequired          bool       `json:"toxicology_required"`
	ToxicologyComplete          bool       `json:"toxicology_complete"`
	InvestigatingOfficerID      string     `json:"investigating_officer_id,omitempty"`
	InvestigatingOfficerName    string     `json:"investigating_officer_name,omitempty"`
	InvestigationStartDate      *time.Time `json:"investigation_start_date,omitempty"`
	InvestigationCompletionDate *time.Time `json:"investigation_completion_date,omitempty"`
	DeterminationResult         string     `json:"determination_result,omitempty"`

	// AppealFiled may only become true on entry into the Appeal state.
	AppealFiled bool `json:"appeal_filed"`

	// Version is the optimistic-concurrency token, bumped on every persisted
	// mutation. A stale version on write means another process transitioned
	// the case first.
	Version int64 `json:"version"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// IsInformal returns true if the case follows the informal workflow.
func (c *Case) IsInformal() bool {
	return c.Variant == VariantInformal
}

// IsFormal returns true if the case follows the formal workflow.
func (c *Case) IsFormal() bool {
	return c.Variant == VariantFormal
}
