package workflow

import "github.com/donellmccoy/lod-tracker/internal/domain/entity"

// Authority is the role responsible for acting while a case sits in a state.
// Authorities are resolved by the router for audit attribution and are never
// user-supplied.
type Authority string

const (
	AuthorityNone                 Authority = "None"
	AuthorityMember               Authority = "Member"
	AuthorityUnitCommander        Authority = "UnitCommander"
	AuthorityMedicalOfficer       Authority = "MedicalOfficer"
	AuthorityLegalAdvisor         Authority = "LegalAdvisor"
	AuthorityWingCommander        Authority = "WingCommander"
	AuthorityAppointingAuthority  Authority = "AppointingAuthority"
	AuthorityInvestigatingOfficer Authority = "InvestigatingOfficer"
	AuthorityWingJudgeAdvocate    Authority = "WingJudgeAdvocate"
	AuthorityReviewingBoard       Authority = "ReviewingBoard"
	AuthorityApprovalAuthority    Authority = "ApprovalAuthority"
	AuthorityCaseManager          Authority = "CaseManager"
	AuthorityAppealBoard          Authority = "AppealBoard"
)

// String returns the string representation of the authority
func (a Authority) String() string {
	return string(a)
}

var informalAuthorities = map[State]Authority{
	StateStart:             AuthorityNone,
	StateMemberReports:     AuthorityMember,
	StateLodInitiation:     AuthorityUnitCommander,
	StateMedicalAssessment: AuthorityMedicalOfficer,
	StateCommanderReview:   AuthorityUnitCommander,
	StateOptionalLegal:     AuthorityLegalAdvisor,
	StateOptionalWing:      AuthorityWingCommander,
	StateBoardAdjudication: AuthorityReviewingBoard,
	StateDetermination:     AuthorityApprovalAuthority,
	StateNotification:      AuthorityCaseManager,
	StateAppeal:            AuthorityAppealBoard,
	StateEnd:               AuthorityNone,
}

var formalAuthorities = map[State]Authority{
	StateStart:               AuthorityNone,
	StateMemberReports:       AuthorityMember,
	StateFormalInitiation:    AuthorityUnitCommander,
	StateAppointingOfficer:   AuthorityAppointingAuthority,
	StateInvestigation:       AuthorityInvestigatingOfficer,
	StateWingLegalReview:     AuthorityWingJudgeAdvocate,
	StateWingCommanderReview: AuthorityWingCommander,
	StateBoardAdjudication:   AuthorityReviewingBoard,
	StateDetermination:       AuthorityApprovalAuthority,
	StateNotification:        AuthorityCaseManager,
	StateAppeal:              AuthorityAppealBoard,
	StateEnd:                 AuthorityNone,
}

// AuthorityFor resolves the responsible authority for a state under the given
// variant. Unknown states and unknown variants map to None.
func AuthorityFor(variant string, state State) Authority {
	var table map[State]Authority
	switch variant {
	case entity.VariantInformal:
		table = informalAuthorities
	case entity.VariantFormal:
		table = formalAuthorities
	default:
		return AuthorityNone
	}

	authority, ok := table[state]
	if !ok {
		return AuthorityNone
	}
	return authority
}
