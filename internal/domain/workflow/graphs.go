package workflow

import (
	"fmt"
	"time"

	"github.com/donellmccoy/lod-tracker/internal/domain/entity"
)

// The two variant graphs are fixed at startup. Guards read the review flags
// stored on the case; the rules evaluator keeps those flags current.

var (
	informalMachine = BuildInformalMachine()
	formalMachine   = BuildFormalMachine()
)

// MachineFor returns the shared machine for the case's variant
func MachineFor(variant string) (*Machine, error) {
	switch variant {
	case entity.VariantInformal:
		return informalMachine, nil
	case entity.VariantFormal:
		return formalMachine, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownVariant, variant)
	}
}

// BuildInformalMachine creates the machine for the informal LOD workflow.
// Legal and wing review are optional detours gated by the derived review
// flags; guards for the same decision point partition, never overlap.
func BuildInformalMachine() *Machine {
	builder := NewBuilder(entity.VariantInformal)

	builder.Configure(StateStart).
		Permit(TriggerProcessInitiated, StateMemberReports)

	builder.Configure(StateMemberReports).
		Permit(TriggerConditionReported, StateLodInitiation)

	builder.Configure(StateLodInitiation).
		Permit(TriggerInitiationComplete, StateMedicalAssessment)

	builder.Configure(StateMedicalAssessment).
		Permit(TriggerAssessmentDone, StateCommanderReview)

	builder.Configure(StateCommanderReview).
		PermitIf(TriggerReviewFinished, StateOptionalLegal, requiresLegalReview).
		PermitIf(TriggerSkipToAdjudication, StateBoardAdjudication, not(requiresLegalReview))

	builder.Configure(StateOptionalLegal).
		PermitIf(TriggerLegalDone, StateOptionalWing, requiresWingReview).
		PermitIf(TriggerSkipWingReview, StateBoardAdjudication, not(requiresWingReview))

	builder.Configure(StateOptionalWing).
		Permit(TriggerWingDone, StateBoardAdjudication)

	builder.Configure(StateBoardAdjudication).
		Permit(TriggerAdjudicationComplete, StateDetermination)

	builder.Configure(StateDetermination).
		Permit(TriggerDeterminationFinalized, StateNotification)

	builder.Configure(StateNotification).
		Permit(TriggerAppealFiled, StateAppeal).
		Permit(TriggerNotificationComplete, StateEnd)

	builder.Configure(StateAppeal).
		OnEntry(markAppealFiled).
		Permit(TriggerAppealResolved, StateEnd)

	// END is terminal - no outgoing transitions

	return builder.Build(StateStart)
}

// BuildFormalMachine creates the machine for the formal LOD workflow used
// when questionable circumstances require a full investigation.
func BuildFormalMachine() *Machine {
	builder := NewBuilder(entity.VariantFormal)

	builder.Configure(StateStart).
		Permit(TriggerProcessInitiated, StateMemberReports)

	builder.Configure(StateMemberReports).
		Permit(TriggerConditionReported, StateFormalInitiation)

	builder.Configure(StateFormalInitiation).
		Permit(TriggerQuestionableDetected, StateAppointingOfficer)

	builder.Configure(StateAppointingOfficer).
		Permit(TriggerOfficerAppointed, StateInvestigation)

	builder.Configure(StateInvestigation).
		OnEntry(stampInvestigationStart).
		Permit(TriggerInvestigationComplete, StateWingLegalReview)

	builder.Configure(StateWingLegalReview).
		OnEntry(stampInvestigationCompletion).
		Permit(TriggerLegalReviewComplete, StateWingCommanderReview)

	builder.Configure(StateWingCommanderReview).
		Permit(TriggerWingReviewComplete, StateBoardAdjudication)

	builder.Configure(StateBoardAdjudication).
		Permit(TriggerAdjudicationComplete, StateDetermination)

	builder.Configure(StateDetermination).
		Permit(TriggerDeterminationFinalized, StateNotification)

	builder.Configure(StateNotification).
		Permit(TriggerAppealRequested, StateAppeal).
		Permit(TriggerNoAppealRequested, StateEnd)

	builder.Configure(StateAppeal).
		OnEntry(markAppealFiled).
		Permit(TriggerAppealResolved, StateEnd)

	// END is terminal - no outgoing transitions

	return builder.Build(StateStart)
}

func requiresLegalReview(c *entity.Case) bool {
	return c.RequiresLegalReview
}

func requiresWingReview(c *entity.Case) bool {
	return c.RequiresWingReview
}

func not(guard GuardFunc) GuardFunc {
	return func(c *entity.Case) bool { return !guard(c) }
}

// stampInvestigationStart records when the investigation opened. The date is
// only set once; re-entering Investigation must not rewrite it.
func stampInvestigationStart(c *entity.Case, at time.Time) {
	if c.InvestigationStartDate == nil {
		t := at
		c.InvestigationStartDate = &t
	}
}

func stampInvestigationCompletion(c *entity.Case, at time.Time) {
	t := at
	c.InvestigationCompletionDate = &t
}

func markAppealFiled(c *entity.Case, _ time.Time) {
	c.AppealFiled = true
}
