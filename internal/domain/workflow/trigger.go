package workflow

// Trigger represents an event that can cause a state transition
type Trigger string

const (
	TriggerProcessInitiated       Trigger = "PROCESS_INITIATED"
	TriggerConditionReported      Trigger = "CONDITION_REPORTED"
	TriggerInitiationComplete     Trigger = "INITIATION_COMPLETE"
	TriggerAssessmentDone         Trigger = "ASSESSMENT_DONE"
	TriggerReviewFinished         Trigger = "REVIEW_FINISHED"
	TriggerSkipToAdjudication     Trigger = "SKIP_TO_ADJUDICATION"
	TriggerLegalDone              Trigger = "LEGAL_DONE"
	TriggerSkipWingReview         Trigger = "SKIP_WING_REVIEW"
	TriggerWingDone               Trigger = "WING_DONE"
	TriggerQuestionableDetected   Trigger = "QUESTIONABLE_DETECTED"
	TriggerOfficerAppointed       Trigger = "OFFICER_APPOINTED"
	TriggerInvestigationComplete  Trigger = "INVESTIGATION_COMPLETE"
	TriggerLegalReviewComplete    Trigger = "LEGAL_REVIEW_COMPLETE"
	TriggerWingReviewComplete     Trigger = "WING_REVIEW_COMPLETE"
	TriggerAdjudicationComplete   Trigger = "ADJUDICATION_COMPLETE"
	TriggerDeterminationFinalized Trigger = "DETERMINATION_FINALIZED"
	TriggerAppealFiled            Trigger = "APPEAL_FILED"
	TriggerAppealRequested        Trigger = "APPEAL_REQUESTED"
	TriggerNoAppealRequested      Trigger = "NO_APPEAL_REQUESTED"
	TriggerNotificationComplete   Trigger = "NOTIFICATION_COMPLETE"
	TriggerAppealResolved         Trigger = "APPEAL_RESOLVED"
)

// String returns the string representation of the trigger
func (t Trigger) String() string {
	return string(t)
}
