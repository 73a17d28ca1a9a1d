package workflow

// State represents a workflow state in the LOD determination lifecycle
type State string

const (
	StateStart             State = "START"
	StateMemberReports     State = "MEMBER_REPORTS"
	StateLodInitiation     State = "LOD_INITIATION"
	StateMedicalAssessment State = "MEDICAL_ASSESSMENT"
	StateCommanderReview   State = "COMMANDER_REVIEW"
	StateOptionalLegal     State = "OPTIONAL_LEGAL"
	StateOptionalWing      State = "OPTIONAL_WING"

	StateFormalInitiation    State = "FORMAL_INITIATION"
	StateAppointingOfficer   State = "APPOINTING_OFFICER"
	StateInvestigation       State = "INVESTIGATION"
	StateWingLegalReview     State = "WING_LEGAL_REVIEW"
	StateWingCommanderReview State = "WING_COMMANDER_REVIEW"

	StateBoardAdjudication State = "BOARD_ADJUDICATION"
	StateDetermination     State = "DETERMINATION"
	StateNotification      State = "NOTIFICATION"
	StateAppeal            State = "APPEAL"
	StateEnd               State = "END"
)

var informalStates = map[State]bool{
	StateStart:             true,
	StateMemberReports:     true,
	StateLodInitiation:     true,
	StateMedicalAssessment: true,
	StateCommanderReview:   true,
	StateOptionalLegal:     true,
	StateOptionalWing:      true,
	StateBoardAdjudication: true,
	StateDetermination:     true,
	StateNotification:      true,
	StateAppeal:            true,
	StateEnd:               true,
}

var formalStates = map[State]bool{
	StateStart:               true,
	StateMemberReports:       true,
	StateFormalInitiation:    true,
	StateAppointingOfficer:   true,
	StateInvestigation:       true,
	StateWingLegalReview:     true,
	StateWingCommanderReview: true,
	StateBoardAdjudication:   true,
	StateDetermination:       true,
	StateNotification:        true,
	StateAppeal:              true,
	StateEnd:                 true,
}

// IsTerminal returns true if the state has no outgoing transitions in either graph
func (s State) IsTerminal() bool {
	return s == StateEnd
}

// String returns the string representation of the state
func (s State) String() string {
	return string(s)
}

// IsValid returns true if the state belongs to at least one variant's graph
func (s State) IsValid() bool {
	return informalStates[s] || formalStates[s]
}
