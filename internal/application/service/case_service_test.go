package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/donellmccoy/lod-tracker/internal/application/port"
	"github.com/donellmccoy/lod-tracker/internal/domain/entity"
	"github.com/donellmccoy/lod-tracker/internal/domain/rules"
	"github.com/donellmccoy/lod-tracker/internal/domain/validation"
	"github.com/donellmccoy/lod-tracker/internal/domain/workflow"
)

// In-memory fakes

type fakeCaseRepo struct {
	cases   map[string]*entity.Case
	saveErr error
}

func newFakeCaseRepo() *fakeCaseRepo {
	return &fakeCaseRepo{cases: make(map[string]*entity.Case)}
}

func cloneCase(c *entity.Case) *entity.Case {
	copied := *c
	return &copied
}

func (r *fakeCaseRepo) Create(ctx context.Context, c *entity.Case) error {
	for _, existing := range r.cases {
		if existing.CaseNumber == c.CaseNumber {
			return port.ErrDuplicateCaseNumber
		}
	}
	c.Version = 1
	r.cases[c.ID] = cloneCase(c)
	return nil
}

func (r *fakeCaseRepo) GetByID(ctx context.Context, id string) (*entity.Case, error) {
	c, exists := r.cases[id]
	if !exists {
		return nil, nil
	}
	return cloneCase(c), nil
}

func (r *fakeCaseRepo) GetByCaseNumber(ctx context.Context, caseNumber string) (*entity.Case, error) {
	for _, c := range r.cases {
		if c.CaseNumber == caseNumber {
			return cloneCase(c), nil
		}
	}
	return nil, nil
}

func (r *fakeCaseRepo) Save(ctx context.Context, c *entity.Case, expectedVersion int64) error {
	if r.saveErr != nil {
		return r.saveErr
	}
	stored, exists := r.cases[c.ID]
	if !exists || stored.Version != expectedVersion {
		return port.ErrConcurrencyConflict
	}
	c.Version = expectedVersion + 1
	r.cases[c.ID] = cloneCase(c)
	return nil
}

func (r *fakeCaseRepo) List(ctx context.Context, limit, offset int) ([]*entity.Case, error) {
	result := make([]*entity.Case, 0, len(r.cases))
	for _, c := range r.cases {
		result = append(result, cloneCase(c))
	}
	return result, nil
}

type fakeHistoryRepo struct {
	entries   []*entity.TransitionHistoryEntry
	appendErr error
}

func (r *fakeHistoryRepo) Append(ctx context.Context, e *entity.TransitionHistoryEntry) error {
	if r.appendErr != nil {
		return r.appendErr
	}
	e.ID = int64(len(r.entries) + 1)
	r.entries = append(r.entries, e)
	return nil
}

func (r *fakeHistoryRepo) GetByCaseID(ctx context.Context, caseID string) ([]*entity.TransitionHistoryEntry, error) {
	var result []*entity.TransitionHistoryEntry
	for _, e := range r.entries {
		if e.CaseID == caseID {
			result = append(result, e)
		}
	}
	return result, nil
}

type fakeTxManager struct{}

func (m *fakeTxManager) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type fakeNotifier struct {
	events    []*port.NotificationEvent
	notifyErr error
}

func (n *fakeNotifier) Notify(ctx context.Context, event *port.NotificationEvent) error {
	if n.notifyErr != nil {
		return n.notifyErr
	}
	n.events = append(n.events, event)
	return nil
}

type testEnv struct {
	service  CaseService
	caseRepo *fakeCaseRepo
	history  *fakeHistoryRepo
	notifier *fakeNotifier
	now      time.Time
}

func newTestEnv() *testEnv {
	env := &testEnv{
		caseRepo: newFakeCaseRepo(),
		history:  &fakeHistoryRepo{},
		notifier: &fakeNotifier{},
		now:      time.Date(2026, 6, 1, 10, 0, 0, 0, time.UTC),
	}

	evaluator := rules.NewEvaluator(rules.DefaultConfig())
	env.service = NewCaseService(
		env.caseRepo,
		env.history,
		&fakeTxManager{},
		env.notifier,
		evaluator,
		validation.NewValidator(evaluator),
		zap.NewNop(),
		WithClock(func() time.Time { return env.now }),
	)
	return env
}

func (env *testEnv) createCase(t *testing.T, input CreateCaseInput) *entity.Case {
	t.Helper()
	c, err := env.service.CreateCase(context.Background(), input)
	if err != nil {
		t.Fatalf("CreateCase() failed: %v", err)
	}
	return c
}

func (env *testEnv) fire(t *testing.T, id string, triggers ...workflow.Trigger) *FireResult {
	t.Helper()
	var result *FireResult
	for _, trigger := range triggers {
		var err error
		result, err = env.service.FireTrigger(context.Background(), id, trigger, "")
		if err != nil {
			t.Fatalf("FireTrigger(%s) failed: %v", trigger, err)
		}
	}
	return result
}

func TestCreateCase(t *testing.T) {
	env := newTestEnv()

	c := env.createCase(t, CreateCaseInput{
		Variant:    entity.VariantInformal,
		CaseNumber: "LOD-2026-001",
		MemberID:   "m-001",
		MemberName: "A. Member",
	})

	if c.ID == "" {
		t.Error("CreateCase() should assign an id")
	}
	if c.CurrentState != workflow.StateStart.String() {
		t.Errorf("CurrentState = %v, want %v", c.CurrentState, workflow.StateStart)
	}
	if c.Version != 1 {
		t.Errorf("Version = %d, want 1", c.Version)
	}
}

func TestCreateCase_ValidationErrors(t *testing.T) {
	env := newTestEnv()

	_, err := env.service.CreateCase(context.Background(), CreateCaseInput{
		Variant:     "EXPEDITED",
		CaseNumber:  "  ",
		IsDeathCase: false,
	})

	var vErr *ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("CreateCase() error = %v, want *ValidationError", err)
	}
	if len(vErr.Errors) != 2 {
		t.Errorf("ValidationError carried %d errors, want 2: %v", len(vErr.Errors), vErr.Errors)
	}
}

func TestCreateCase_DeathRequiresFormal(t *testing.T) {
	env := newTestEnv()

	_, err := env.service.CreateCase(context.Background(), CreateCaseInput{
		Variant:     entity.VariantInformal,
		CaseNumber:  "LOD-2026-002",
		IsDeathCase: true,
	})

	var vErr *ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("CreateCase() error = %v, want *ValidationError", err)
	}
}

func TestCreateCase_DuplicateCaseNumber(t *testing.T) {
	env := newTestEnv()
	env.createCase(t, CreateCaseInput{Variant: entity.VariantInformal, CaseNumber: "LOD-2026-001"})

	_, err := env.service.CreateCase(context.Background(), CreateCaseInput{
		Variant:    entity.VariantFormal,
		CaseNumber: "LOD-2026-001",
	})
	if !errors.Is(err, port.ErrDuplicateCaseNumber) {
		t.Errorf("CreateCase() error = %v, want ErrDuplicateCaseNumber", err)
	}
}

// Full informal walk with both review detours and an appeal: eleven
// transitions ending in the terminal state, all audited.
func TestFireTrigger_InformalFullWalk(t *testing.T) {
	env := newTestEnv()
	c := env.createCase(t, CreateCaseInput{
		Variant:    entity.VariantInformal,
		CaseNumber: "LOD-2026-010",
		MemberID:   "m-010",
	})

	severity := 8
	if _, err := env.service.UpdateCaseDetails(context.Background(), c.ID, CaseDetailsPatch{
		InjurySeverity: &severity,
	}); err != nil {
		t.Fatalf("UpdateCaseDetails() failed: %v", err)
	}

	result := env.fire(t, c.ID,
		workflow.TriggerProcessInitiated,
		workflow.TriggerConditionReported,
		workflow.TriggerInitiationComplete,
		workflow.TriggerAssessmentDone,
		workflow.TriggerReviewFinished,
		workflow.TriggerLegalDone,
		workflow.TriggerWingDone,
		workflow.TriggerAdjudicationComplete,
		workflow.TriggerDeterminationFinalized,
		workflow.TriggerAppealFiled,
		workflow.TriggerAppealResolved,
	)

	if result.ToState != workflow.StateEnd {
		t.Errorf("final state = %v, want %v", result.ToState, workflow.StateEnd)
	}
	if !result.Case.AppealFiled {
		t.Error("appeal entry action should have marked the case")
	}

	history, err := env.service.GetCaseHistory(context.Background(), c.ID)
	if err != nil {
		t.Fatalf("GetCaseHistory() failed: %v", err)
	}
	if len(history) != 11 {
		t.Errorf("history has %d entries, want 11", len(history))
	}
}

// Every audited transition must chain: each entry's FromState equals the
// previous entry's ToState, and replaying the ledger lands on the stored state.
func TestFireTrigger_HistoryReplaysToCurrentState(t *testing.T) {
	env := newTestEnv()
	c := env.createCase(t, CreateCaseInput{
		Variant:    entity.VariantInformal,
		CaseNumber: "LOD-2026-011",
		MemberID:   "m-011",
	})

	env.fire(t, c.ID,
		workflow.TriggerProcessInitiated,
		workflow.TriggerConditionReported,
		workflow.TriggerInitiationComplete,
		workflow.TriggerAssessmentDone,
		workflow.TriggerSkipToAdjudication,
	)

	history, _ := env.service.GetCaseHistory(context.Background(), c.ID)
	if len(history) == 0 {
		t.Fatal("expected history entries")
	}

	state := workflow.StateStart.String()
	for i, e := range history {
		if e.FromState != state {
			t.Fatalf("entry %d FromState = %v, want %v", i, e.FromState, state)
		}
		state = e.ToState
	}

	stored, _ := env.service.GetCase(context.Background(), c.ID)
	if stored.CurrentState != state {
		t.Errorf("replayed state = %v, stored state = %v", state, stored.CurrentState)
	}
}

func TestFireTrigger_ToxicologyGate(t *testing.T) {
	env := newTestEnv()
	c := env.createCase(t, CreateCaseInput{
		Variant:     entity.VariantFormal,
		CaseNumber:  "LOD-2026-020",
		MemberID:    "m-020",
		IsDeathCase: true,
	})

	toxRequired := true
	officerID := "io-1"
	if _, err := env.service.UpdateCaseDetails(context.Background(), c.ID, CaseDetailsPatch{
		ToxicologyRequired:     &toxRequired,
		InvestigatingOfficerID: &officerID,
	}); err != nil {
		t.Fatalf("UpdateCaseDetails() failed: %v", err)
	}

	env.fire(t, c.ID,
		workflow.TriggerProcessInitiated,
		workflow.TriggerConditionReported,
		workflow.TriggerQuestionableDetected,
		workflow.TriggerOfficerAppointed,
	)

	// Investigation cannot close while the toxicology report is outstanding
	_, err := env.service.FireTrigger(context.Background(), c.ID, workflow.TriggerInvestigationComplete, "")
	var vErr *ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("FireTrigger() error = %v, want *ValidationError", err)
	}

	toxComplete := true
	if _, err := env.service.UpdateCaseDetails(context.Background(), c.ID, CaseDetailsPatch{
		ToxicologyComplete: &toxComplete,
	}); err != nil {
		t.Fatalf("UpdateCaseDetails() failed: %v", err)
	}

	result := env.fire(t, c.ID, workflow.TriggerInvestigationComplete)
	if result.ToState != workflow.StateWingLegalReview {
		t.Errorf("ToState = %v, want %v", result.ToState, workflow.StateWingLegalReview)
	}
	if result.Case.InvestigationStartDate == nil {
		t.Error("InvestigationStartDate should be stamped on entering Investigation")
	}
	if result.Case.InvestigationCompletionDate == nil {
		t.Error("InvestigationCompletionDate should be stamped on leaving Investigation")
	}
}

func TestFireTrigger_InvalidTransitionLeavesNoTrace(t *testing.T) {
	env := newTestEnv()
	c := env.createCase(t, CreateCaseInput{
		Variant:    entity.VariantInformal,
		CaseNumber: "LOD-2026-030",
		MemberID:   "m-030",
	})

	_, err := env.service.FireTrigger(context.Background(), c.ID, workflow.TriggerAdjudicationComplete, "")
	if !errors.Is(err, workflow.ErrInvalidTransition) {
		t.Fatalf("FireTrigger() error = %v, want ErrInvalidTransition", err)
	}

	stored, _ := env.service.GetCase(context.Background(), c.ID)
	if stored.CurrentState != workflow.StateStart.String() {
		t.Errorf("rejected fire moved the case to %v", stored.CurrentState)
	}
	if len(env.history.entries) != 0 {
		t.Errorf("rejected fire wrote %d history entries", len(env.history.entries))
	}
}

func TestFireTrigger_ValidationShortCircuitsEngine(t *testing.T) {
	env := newTestEnv()
	c := env.createCase(t, CreateCaseInput{
		Variant:    entity.VariantInformal,
		CaseNumber: "LOD-2026-031",
	})
	env.fire(t, c.ID, workflow.TriggerProcessInitiated)

	// No member identified: the validator rejects before the machine runs
	_, err := env.service.FireTrigger(context.Background(), c.ID, workflow.TriggerConditionReported, "")
	var vErr *ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("FireTrigger() error = %v, want *ValidationError", err)
	}
	if !errors.Is(err, ErrTransitionValidationFailed) {
		t.Errorf("ValidationError should unwrap to ErrTransitionValidationFailed, got %v", err)
	}

	stored, _ := env.service.GetCase(context.Background(), c.ID)
	if stored.CurrentState != workflow.StateMemberReports.String() {
		t.Errorf("validation failure moved the case to %v", stored.CurrentState)
	}
}

func TestFireTrigger_AppealWindowExpired(t *testing.T) {
	env := newTestEnv()
	c := env.createCase(t, CreateCaseInput{
		Variant:    entity.VariantInformal,
		CaseNumber: "LOD-2026-032",
		MemberID:   "m-032",
	})

	env.fire(t, c.ID,
		workflow.TriggerProcessInitiated,
		workflow.TriggerConditionReported,
		workflow.TriggerInitiationComplete,
		workflow.TriggerAssessmentDone,
		workflow.TriggerSkipToAdjudication,
		workflow.TriggerAdjudicationComplete,
		workflow.TriggerDeterminationFinalized,
	)

	// 31 days after notification the appeal path is closed
	env.now = env.now.AddDate(0, 0, 31)
	_, err := env.service.FireTrigger(context.Background(), c.ID, workflow.TriggerAppealFiled, "")
	var vErr *ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("FireTrigger() error = %v, want *ValidationError", err)
	}

	// Closing without appeal still works
	result := env.fire(t, c.ID, workflow.TriggerNotificationComplete)
	if result.ToState != workflow.StateEnd {
		t.Errorf("ToState = %v, want %v", result.ToState, workflow.StateEnd)
	}
}

func TestFireTrigger_ConcurrencyConflict(t *testing.T) {
	env := newTestEnv()
	c := env.createCase(t, CreateCaseInput{
		Variant:    entity.VariantInformal,
		CaseNumber: "LOD-2026-040",
		MemberID:   "m-040",
	})

	env.caseRepo.saveErr = port.ErrConcurrencyConflict
	_, err := env.service.FireTrigger(context.Background(), c.ID, workflow.TriggerProcessInitiated, "")
	if !errors.Is(err, port.ErrConcurrencyConflict) {
		t.Fatalf("FireTrigger() error = %v, want ErrConcurrencyConflict", err)
	}
	if len(env.notifier.events) != 0 {
		t.Error("failed transition should not notify")
	}
}

func TestFireTrigger_NotifierFailureIsNonFatal(t *testing.T) {
	env := newTestEnv()
	env.notifier.notifyErr = errors.New("webhook unreachable")

	c := env.createCase(t, CreateCaseInput{
		Variant:    entity.VariantInformal,
		CaseNumber: "LOD-2026-041",
		MemberID:   "m-041",
	})

	result, err := env.service.FireTrigger(context.Background(), c.ID, workflow.TriggerProcessInitiated, "")
	if err != nil {
		t.Fatalf("FireTrigger() should succeed despite notifier failure: %v", err)
	}
	if result.ToState != workflow.StateMemberReports {
		t.Errorf("ToState = %v, want %v", result.ToState, workflow.StateMemberReports)
	}
}

func TestFireTrigger_NotificationEvent(t *testing.T) {
	env := newTestEnv()
	c := env.createCase(t, CreateCaseInput{
		Variant:    entity.VariantInformal,
		CaseNumber: "LOD-2026-042",
		MemberID:   "m-042",
	})

	env.fire(t, c.ID, workflow.TriggerProcessInitiated)

	if len(env.notifier.events) != 1 {
		t.Fatalf("notifier received %d events, want 1", len(env.notifier.events))
	}
	event := env.notifier.events[0]
	if event.Recipient != "m-042" {
		t.Errorf("Recipient = %v, want the member id", event.Recipient)
	}
	if event.FromState != workflow.StateStart.String() || event.ToState != workflow.StateMemberReports.String() {
		t.Errorf("event states = %v -> %v", event.FromState, event.ToState)
	}
	if event.Authority != workflow.AuthorityMember.String() {
		t.Errorf("Authority = %v, want %v", event.Authority, workflow.AuthorityMember)
	}
}

func TestFireTrigger_CaseNotFound(t *testing.T) {
	env := newTestEnv()

	_, err := env.service.FireTrigger(context.Background(), "missing", workflow.TriggerProcessInitiated, "")
	if !errors.Is(err, ErrCaseNotFound) {
		t.Errorf("FireTrigger() error = %v, want ErrCaseNotFound", err)
	}
}

func TestGetPermittedTriggers(t *testing.T) {
	env := newTestEnv()
	c := env.createCase(t, CreateCaseInput{
		Variant:    entity.VariantInformal,
		CaseNumber: "LOD-2026-050",
		MemberID:   "m-050",
	})

	env.fire(t, c.ID,
		workflow.TriggerProcessInitiated,
		workflow.TriggerConditionReported,
		workflow.TriggerInitiationComplete,
		workflow.TriggerAssessmentDone,
		workflow.TriggerSkipToAdjudication,
		workflow.TriggerAdjudicationComplete,
		workflow.TriggerDeterminationFinalized,
	)

	triggers, err := env.service.GetPermittedTriggers(context.Background(), c.ID)
	if err != nil {
		t.Fatalf("GetPermittedTriggers() failed: %v", err)
	}
	if len(triggers) != 2 {
		t.Fatalf("got %d triggers, want 2: %v", len(triggers), triggers)
	}
	if triggers[0] != workflow.TriggerAppealFiled || triggers[1] != workflow.TriggerNotificationComplete {
		t.Errorf("triggers = %v", triggers)
	}
}

// Missing cases yield an empty trigger set, not an error
func TestGetPermittedTriggers_MissingCase(t *testing.T) {
	env := newTestEnv()

	triggers, err := env.service.GetPermittedTriggers(context.Background(), "missing")
	if err != nil {
		t.Fatalf("GetPermittedTriggers() failed: %v", err)
	}
	if triggers == nil || len(triggers) != 0 {
		t.Errorf("triggers = %v, want empty non-nil slice", triggers)
	}
}

func TestValidateTransition(t *testing.T) {
	env := newTestEnv()
	c := env.createCase(t, CreateCaseInput{
		Variant:    entity.VariantFormal,
		CaseNumber: "LOD-2026-060",
	})

	result, err := env.service.ValidateTransition(context.Background(), c.ID, workflow.TriggerOfficerAppointed)
	if err != nil {
		t.Fatalf("ValidateTransition() failed: %v", err)
	}
	if result.Valid {
		t.Error("ValidateTransition() should report the missing investigating officer")
	}
}

func TestUpdateCaseDetails_DerivesReviewFlags(t *testing.T) {
	env := newTestEnv()
	c := env.createCase(t, CreateCaseInput{
		Variant:    entity.VariantInformal,
		CaseNumber: "LOD-2026-070",
	})

	cost := 120000.0
	updated, err := env.service.UpdateCaseDetails(context.Background(), c.ID, CaseDetailsPatch{
		EstimatedCost: &cost,
	})
	if err != nil {
		t.Fatalf("UpdateCaseDetails() failed: %v", err)
	}
	if !updated.RequiresLegalReview || !updated.RequiresWingReview {
		t.Error("cost above both thresholds should set both review flags")
	}
	if updated.Version != 2 {
		t.Errorf("Version = %d, want 2 after save", updated.Version)
	}
}

func TestUpdateCaseDetails_RejectsInvalidSeverity(t *testing.T) {
	env := newTestEnv()
	c := env.createCase(t, CreateCaseInput{
		Variant:    entity.VariantInformal,
		CaseNumber: "LOD-2026-071",
	})

	severity := 11
	_, err := env.service.UpdateCaseDetails(context.Background(), c.ID, CaseDetailsPatch{
		InjurySeverity: &severity,
	})
	var vErr *ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("UpdateCaseDetails() error = %v, want *ValidationError", err)
	}
}

func TestUpdateCaseDetails_FormalFieldsRejectedOnInformal(t *testing.T) {
	env := newTestEnv()
	c := env.createCase(t, CreateCaseInput{
		Variant:    entity.VariantInformal,
		CaseNumber: "LOD-2026-072",
	})

	toxRequired := true
	_, err := env.service.UpdateCaseDetails(context.Background(), c.ID, CaseDetailsPatch{
		ToxicologyRequired: &toxRequired,
	})
	var vErr *ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("UpdateCaseDetails() error = %v, want *ValidationError", err)
	}
}

func TestGetCase_NotFound(t *testing.T) {
	env := newTestEnv()

	_, err := env.service.GetCase(context.Background(), "missing")
	if !errors.Is(err, ErrCaseNotFound) {
		t.Errorf("GetCase() error = %v, want ErrCaseNotFound", err)
	}
}

func TestGetCurrentAuthority(t *testing.T) {
	env := newTestEnv()

	got := env.service.GetCurrentAuthority(entity.VariantFormal, workflow.StateInvestigation)
	if got != workflow.AuthorityInvestigatingOfficer {
		t.Errorf("GetCurrentAuthority() = %v, want %v", got, workflow.AuthorityInvestigatingOfficer)
	}
}
