package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/donellmccoy/lod-tracker/internal/application/port"
	"github.com/donellmccoy/lod-tracker/internal/domain/entity"
	"github.com/donellmccoy/lod-tracker/internal/domain/rules"
	"github.com/donellmccoy/lod-tracker/internal/domain/validation"
	"github.com/donellmccoy/lod-tracker/internal/domain/workflow"
	"github.com/donellmccoy/lod-tracker/internal/metrics"
)

// CreateCaseInput carries the immutable facts needed to open a case
type CreateCaseInput struct {
	Variant     string `json:"variant"`
	CaseNumber  string `json:"case_number"`
	MemberID    string `json:"member_id"`
	MemberName  string `json:"member_name"`
	IsDeathCase bool   `json:"is_death_case"`
}

// CaseDetailsPatch updates operator-set case fields. Nil fields are left
// unchanged. CurrentState, Variant, CaseNumber and AppealFiled are not
// patchable; state moves only through FireTrigger.
type CaseDetailsPatch struct {
	MemberID                 *string  `json:"member_id,omitempty"`
	MemberName               *string  `json:"member_name,omitempty"`
	InjurySeverity           *int     `json:"injury_severity,omitempty"`
	EstimatedCost            *float64 `json:"estimated_cost,omitempty"`
	ToxicologyRequired       *bool    `json:"toxicology_required,omitempty"`
	ToxicologyComplete       *bool    `json:"toxicology_complete,omitempty"`
	InvestigatingOfficerID   *string  `json:"investigating_officer_id,omitempty"`
	InvestigatingOfficerName *string  `json:"investigating_officer_name,omitempty"`
	DeterminationResult      *string  `json:"determination_result,omitempty"`
}

// FireResult reports an executed transition
type FireResult struct {
	Case      *entity.Case                   `json:"case"`
	FromState workflow.State                 `json:"from_state"`
	ToState   workflow.State                 `json:"to_state"`
	Authority workflow.Authority             `json:"authority"`
	Entry     *entity.TransitionHistoryEntry `json:"entry"`
}

// CaseService is the orchestration facade over the rule evaluator, transition
// validator, state machines, store and notifier. It is the sole owner of
// CurrentState mutation and the only writer of history entries.
type CaseService interface {
	CreateCase(ctx context.Context, input CreateCaseInput) (*entity.Case, error)
	GetCase(ctx context.Context, id string) (*entity.Case, error)
	ListCases(ctx context.Context, limit, offset int) ([]*entity.Case, error)
	UpdateCaseDetails(ctx context.Context, id string, patch CaseDetailsPatch) (*entity.Case, error)
	FireTrigger(ctx context.Context, id string, trigger workflow.Trigger, notes string) (*FireResult, error)
	GetPermittedTriggers(ctx context.Context, id string) ([]workflow.Trigger, error)
	ValidateTransition(ctx context.Context, id string, trigger workflow.Trigger) (validation.Result, error)
	GetCaseHistory(ctx context.Context, id string) ([]*entity.TransitionHistoryEntry, error)
	GetCurrentAuthority(variant string, state workflow.State) workflow.Authority
}

type caseServiceImpl struct {
	caseRepo    port.CaseRepository
	historyRepo port.HistoryRepository
	txManager   port.TransactionManager
	notifier    port.Notifier
	evaluator   *rules.Evaluator
	validator   *validation.Validator
	logger      *zap.Logger
	collector   *metrics.Collector
	now         func() time.Time
}

// Option configures the case service
type Option func(*caseServiceImpl)

// WithClock overrides the time source, mainly for tests
func WithClock(now func() time.Time) Option {
	return func(s *caseServiceImpl) {
		s.now = now
	}
}

// WithMetrics attaches a metrics collector
func WithMetrics(collector *metrics.Collector) Option {
	return func(s *caseServiceImpl) {
		s.collector = collector
	}
}

// NewCaseService creates the orchestration service
func NewCaseService(
	caseRepo port.CaseRepository,
	historyRepo port.HistoryRepository,
	txManager port.TransactionManager,
	notifier port.Notifier,
	evaluator *rules.Evaluator,
	validator *validation.Validator,
	logger *zap.Logger,
	opts ...Option,
) CaseService {
	s := &caseServiceImpl{
		caseRepo:    caseRepo,
		historyRepo: historyRepo,
		txManager:   txManager,
		notifier:    notifier,
		evaluator:   evaluator,
		validator:   validator,
		logger:      logger,
		now:         time.Now,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// CreateCase opens a new case in the Start state of its variant's graph
func (s *caseServiceImpl) CreateCase(ctx context.Context, input CreateCaseInput) (*entity.Case, error) {
	var errs []string
	if !entity.ValidVariant(input.Variant) {
		errs = append(errs, fmt.Sprintf("unknown variant %q", input.Variant))
	}
	if strings.TrimSpace(input.CaseNumber) == "" {
		errs = append(errs, "case number is required")
	}
	if input.IsDeathCase && input.Variant == entity.VariantInformal {
		errs = append(errs, "death cases must follow the formal process")
	}
	if len(errs) > 0 {
		return nil, &ValidationError{Errors: errs}
	}

	existing, err := s.caseRepo.GetByCaseNumber(ctx, input.CaseNumber)
	if err != nil {
		return nil, fmt.Errorf("failed to check case number: %w", err)
	}
	if existing != nil {
		return nil, port.ErrDuplicateCaseNumber
	}

	now := s.now().UTC()
	c := &entity.Case{
		ID:           uuid.NewString(),
		CaseNumber:   input.CaseNumber,
		Variant:      input.Variant,
		CurrentState: workflow.StateStart.String(),
		MemberID:     input.MemberID,
		MemberName:   input.MemberName,
		IsDeathCase:  input.IsDeathCase,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	s.evaluator.ApplyDerivedFlags(c)

	if err := s.caseRepo.Create(ctx, c); err != nil {
		s.logger.Error("Failed to create case",
			zap.String("case_number", input.CaseNumber), zap.Error(err))
		return nil, err
	}

	s.logger.Info("Case created",
		zap.String("case_id", c.ID),
		zap.String("case_number", c.CaseNumber),
		zap.String("variant", c.Variant))
	return c, nil
}

// GetCase retrieves a case by id
func (s *caseServiceImpl) GetCase(ctx context.Context, id string) (*entity.Case, error) {
	return s.loadCase(ctx, id)
}

// ListCases retrieves a page of cases
func (s *caseServiceImpl) ListCases(ctx context.Context, limit, offset int) ([]*entity.Case, error) {
	return s.caseRepo.List(ctx, limit, offset)
}

// UpdateCaseDetails applies operator edits to variant-specific flags,
// recomputes the derived review flags and bumps the concurrency token
func (s *caseServiceImpl) UpdateCaseDetails(ctx context.Context, id string, patch CaseDetailsPatch) (*entity.Case, error) {
	c, err := s.loadCase(ctx, id)
	if err != nil {
		return nil, err
	}

	if errs := applyPatch(c, patch); len(errs) > 0 {
		return nil, &ValidationError{Errors: errs}
	}
	s.evaluator.ApplyDerivedFlags(c)

	expectedVersion := c.Version
	c.UpdatedAt = s.now().UTC()
	if err := s.caseRepo.Save(ctx, c, expectedVersion); err != nil {
		s.logger.Error("Failed to update case details",
			zap.String("case_id", id), zap.Error(err))
		return nil, err
	}

	s.logger.Info("Case details updated", zap.String("case_id", id))
	return c, nil
}

// FireTrigger validates and executes a transition: pre-checks, guarded fire,
// transactional persist + ledger append, then best-effort notification.
func (s *caseServiceImpl) FireTrigger(ctx context.Context, id string, trigger workflow.Trigger, notes string) (*FireResult, error) {
	c, err := s.loadCase(ctx, id)
	if err != nil {
		return nil, err
	}

	machine, err := workflow.MachineFor(c.Variant)
	if err != nil {
		return nil, err
	}

	history, err := s.historyRepo.GetByCaseID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load history: %w", err)
	}

	now := s.now().UTC()

	// Business pre-checks run first; the machine is never consulted when
	// they fail.
	if result := s.validator.Validate(c, trigger, history, now); !result.Valid {
		s.recordTransition(c.Variant, trigger, metrics.OutcomeValidationFailed)
		return nil, &ValidationError{Errors: result.Errors}
	}

	fromState := workflow.State(c.CurrentState)
	expectedVersion := c.Version

	newState, err := machine.Fire(c, trigger, now)
	if err != nil {
		s.recordTransition(c.Variant, trigger, metrics.OutcomeRejected)
		return nil, err
	}

	c.CurrentState = newState.String()
	c.UpdatedAt = now

	authority := workflow.AuthorityFor(c.Variant, newState)
	entry := &entity.TransitionHistoryEntry{
		CaseID:    c.ID,
		FromState: fromState.String(),
		ToState:   newState.String(),
		Trigger:   trigger.String(),
		Authority: authority.String(),
		Notes:     notes,
		Timestamp: now,
	}

	// State mutation and ledger append are one logical unit
	err = s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		if err := s.caseRepo.Save(txCtx, c, expectedVersion); err != nil {
			return err
		}
		return s.historyRepo.Append(txCtx, entry)
	})
	if err != nil {
		s.recordTransition(c.Variant, trigger, metrics.OutcomeConflict)
		s.logger.Error("Failed to persist transition",
			zap.String("case_id", id),
			zap.String("trigger", trigger.String()),
			zap.Error(err))
		return nil, err
	}

	s.recordTransition(c.Variant, trigger, metrics.OutcomeFired)
	s.logger.Info("Transition executed",
		zap.String("case_id", c.ID),
		zap.String("case_number", c.CaseNumber),
		zap.String("from", fromState.String()),
		zap.String("to", newState.String()),
		zap.String("trigger", trigger.String()),
		zap.String("authority", authority.String()))

	s.dispatchNotification(ctx, c, entry, authority)

	return &FireResult{
		Case:      c,
		FromState: fromState,
		ToState:   newState,
		Authority: authority,
		Entry:     entry,
	}, nil
}

// GetPermittedTriggers returns the triggers currently available to the case.
// A missing case yields an empty set rather than an error; dashboards poll
// this without first checking case existence.
func (s *caseServiceImpl) GetPermittedTriggers(ctx context.Context, id string) ([]workflow.Trigger, error) {
	c, err := s.caseRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return []workflow.Trigger{}, nil
	}

	machine, err := workflow.MachineFor(c.Variant)
	if err != nil {
		return nil, err
	}
	return machine.PermittedTriggers(c), nil
}

// ValidateTransition runs the business pre-checks without firing
func (s *caseServiceImpl) ValidateTransition(ctx context.Context, id string, trigger workflow.Trigger) (validation.Result, error) {
	c, err := s.loadCase(ctx, id)
	if err != nil {
		return validation.Result{}, err
	}

	history, err := s.historyRepo.GetByCaseID(ctx, id)
	if err != nil {
		return validation.Result{}, fmt.Errorf("failed to load history: %w", err)
	}

	return s.validator.Validate(c, trigger, history, s.now().UTC()), nil
}

// GetCaseHistory returns the case's transition ledger in order
func (s *caseServiceImpl) GetCaseHistory(ctx context.Context, id string) ([]*entity.TransitionHistoryEntry, error) {
	if _, err := s.loadCase(ctx, id); err != nil {
		return nil, err
	}
	return s.historyRepo.GetByCaseID(ctx, id)
}

// GetCurrentAuthority resolves the responsible authority for a state
func (s *caseServiceImpl) GetCurrentAuthority(variant string, state workflow.State) workflow.Authority {
	return workflow.AuthorityFor(variant, state)
}

func (s *caseServiceImpl) loadCase(ctx context.Context, id string) (*entity.Case, error) {
	c, err := s.caseRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, ErrCaseNotFound
	}
	return c, nil
}

// dispatchNotification delivers the transition notice. Failures are logged
// and counted, never returned: notification is outside the transactional
// unit and must not roll back or fail the workflow.
func (s *caseServiceImpl) dispatchNotification(ctx context.Context, c *entity.Case, entry *entity.TransitionHistoryEntry, authority workflow.Authority) {
	if s.notifier == nil {
		return
	}

	recipient := c.MemberID
	if recipient == "" {
		recipient = authority.String()
	}

	event := &port.NotificationEvent{
		CaseID:     c.ID,
		CaseNumber: c.CaseNumber,
		Variant:    c.Variant,
		Recipient:  recipient,
		FromState:  entry.FromState,
		ToState:    entry.ToState,
		Trigger:    entry.Trigger,
		Authority:  entry.Authority,
		Message:    fmt.Sprintf("Case %s moved from %s to %s", c.CaseNumber, entry.FromState, entry.ToState),
		OccurredAt: entry.Timestamp,
	}

	if err := s.notifier.Notify(ctx, event); err != nil {
		if s.collector != nil {
			s.collector.RecordNotificationFailure()
		}
		s.logger.Warn("Notification delivery failed",
			zap.String("case_id", c.ID),
			zap.String("recipient", recipient),
			zap.Error(err))
	}
}

func (s *caseServiceImpl) recordTransition(variant string, trigger workflow.Trigger, outcome string) {
	if s.collector != nil {
		s.collector.RecordTransition(variant, trigger.String(), outcome)
	}
}

// applyPatch copies patch fields onto the case, enforcing the data-model
// invariants. It returns the full list of violations.
func applyPatch(c *entity.Case, patch CaseDetailsPatch) []string {
	var errs []string

	if patch.InjurySeverity != nil && (*patch.InjurySeverity < 1 || *patch.InjurySeverity > 10) {
		errs = append(errs, "injury severity must be between 1 and 10")
	}
	if patch.EstimatedCost != nil && *patch.EstimatedCost < 0 {
		errs = append(errs, "estimated cost must not be negative")
	}
	if c.IsInformal() {
		if patch.ToxicologyRequired != nil || patch.ToxicologyComplete != nil {
			errs = append(errs, "toxicology fields only apply to formal cases")
		}
		if patch.InvestigatingOfficerID != nil || patch.InvestigatingOfficerName != nil {
			errs = append(errs, "investigating officer fields only apply to formal cases")
		}
		if patch.DeterminationResult != nil {
			errs = append(errs, "determination result only applies to formal cases")
		}
	}
	if len(errs) > 0 {
		return errs
	}

	if patch.MemberID != nil {
		c.MemberID = *patch.MemberID
	}
	if patch.MemberName != nil {
		c.MemberName = *patch.MemberName
	}
	if patch.InjurySeverity != nil {
		v := *patch.InjurySeverity
		c.InjurySeverity = &v
	}
	if patch.EstimatedCost != nil {
		v := *patch.EstimatedCost
		c.EstimatedCost = &v
	}
	if patch.ToxicologyRequired != nil {
		c.ToxicologyRequired = *patch.ToxicologyRequired
	}
	if patch.ToxicologyComplete != nil {
		c.ToxicologyComplete = *patch.ToxicologyComplete
	}
	if patch.InvestigatingOfficerID != nil {
		c.InvestigatingOfficerID = *patch.InvestigatingOfficerID
	}
	if patch.InvestigatingOfficerName != nil {
		c.InvestigatingOfficerName = *patch.InvestigatingOfficerName
	}
	if patch.DeterminationResult != nil {
		c.DeterminationResult = *patch.DeterminationResult
	}

	return nil
}
