package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/donellmccoy/lod-tracker/internal/application/port"
	"github.com/donellmccoy/lod-tracker/internal/domain/entity"
)

const caseColumns = `id, case_number, variant, current_state, member_id, member_name,
	requires_legal_review, requires_wing_review, injury_severity, estimated_cost,
	is_death_case, toxicology_required, toxicology_complete,
	investigating_officer_id, investigating_officer_name,
	investigation_start_date, investigation_completion_date, determination_result,
	appeal_filed, version, created_at, updated_at`

// CaseRepository implements port.CaseRepository over SQLite
type CaseRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewCaseRepository creates a new case repository
func NewCaseRepository(db *sql.DB, logger *zap.Logger) port.CaseRepository {
	return &CaseRepository{db: db, logger: logger}
}

// Create inserts a new case with version 1
func (r *CaseRepository) Create(ctx context.Context, c *entity.Case) error {
	query := `
		INSERT INTO cases (` + caseColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	c.Version = 1
	_, err := executorFrom(ctx, r.db).ExecContext(ctx, query,
		c.ID, c.CaseNumber, c.Variant, c.CurrentState, c.MemberID, c.MemberName,
		c.RequiresLegalReview, c.RequiresWingReview,
		c.InjurySeverity, c.EstimatedCost,
		c.IsDeathCase, c.ToxicologyRequired, c.ToxicologyComplete,
		c.InvestigatingOfficerID, c.InvestigatingOfficerName,
		c.InvestigationStartDate, c.InvestigationCompletionDate,
		c.DeterminationResult, c.AppealFiled, c.Version, c.CreatedAt, c.UpdatedAt,
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return port.ErrDuplicateCaseNumber
		}
		r.logger.Error("Failed to create case", zap.String("case_number", c.CaseNumber), zap.Error(err))
		return fmt.Errorf("failed to create case: %w", err)
	}

	return nil
}

// GetByID retrieves a case by id, returning (nil, nil) when absent
func (r *CaseRepository) GetByID(ctx context.Context, id string) (*entity.Case, error) {
	query := `SELECT ` + caseColumns + ` FROM cases WHERE id = ?`
	return r.scanOne(ctx, query, id)
}

// GetByCaseNumber retrieves a case by its human-assigned number
func (r *CaseRepository) GetByCaseNumber(ctx context.Context, caseNumber string) (*entity.Case, error) {
	query := `SELECT ` + caseColumns + ` FROM cases WHERE case_number = ?`
	return r.scanOne(ctx, query, caseNumber)
}

// Save writes the case conditioned on the stored version still matching
// expectedVersion; the version column and c.Version are bumped on success.
// Zero rows updated means another writer got there first.
func (r *CaseRepository) Save(ctx context.Context, c *entity.Case, expectedVersion int64) error {
	query := `
		UPDATE cases SET
			current_state = ?, member_id = ?, member_name = ?,
			requires_legal_review = ?, requires_wing_review = ?,
			injury_severity = ?, estimated_cost = ?,
			toxicology_required = ?, toxicology_complete = ?,
			investigating_officer_id = ?, investigating_officer_name = ?,
			investigation_start_date = ?, investigation_completion_date = ?,
			determination_result = ?, appeal_filed = ?,
			version = version + 1, updated_at = ?
		WHERE id = ? AND version = ?
	`

	result, err := executorFrom(ctx, r.db).ExecContext(ctx, query,
		c.CurrentState, c.MemberID, c.MemberName,
		c.RequiresLegalReview, c.RequiresWingReview,
		c.InjurySeverity, c.EstimatedCost,
		c.ToxicologyRequired, c.ToxicologyComplete,
		c.InvestigatingOfficerID, c.InvestigatingOfficerName,
		c.InvestigationStartDate, c.InvestigationCompletionDate,
		c.DeterminationResult, c.AppealFiled,
		c.UpdatedAt, c.ID, expectedVersion,
	)
	if err != nil {
		r.logger.Error("Failed to save case", zap.String("case_id", c.ID), zap.Error(err))
		return fmt.Errorf("failed to save case: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return port.ErrConcurrencyConflict
	}

	c.Version = expectedVersion + 1
	return nil
}

// List retrieves a page of cases ordered by creation time
func (r *CaseRepository) List(ctx context.Context, limit, offset int) ([]*entity.Case, error) {
	query := `SELECT ` + caseColumns + ` FROM cases ORDER BY created_at DESC LIMIT ? OFFSET ?`

	rows, err := executorFrom(ctx, r.db).QueryContext(ctx, query, limit, offset)
	if err != nil {
		r.logger.Error("Failed to list cases", zap.Error(err))
		return nil, fmt.Errorf("failed to list cases: %w", err)
	}
	defer rows.Close()

	var cases []*entity.Case
	for rows.Next() {
		c, err := scanCase(rows)
		if err != nil {
			return nil, err
		}
		cases = append(cases, c)
	}

	return cases, rows.Err()
}

func (r *CaseRepository) scanOne(ctx context.Context, query string, arg interface{}) (*entity.Case, error) {
	row := executorFrom(ctx, r.db).QueryRowContext(ctx, query, arg)

	c, err := scanCase(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get case", zap.Error(err))
		return nil, fmt.Errorf("failed to get case: %w", err)
	}
	return c, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanCase(row rowScanner) (*entity.Case, error) {
	var c entity.Case
	var severity sql.NullInt64
	var cost sql.NullFloat64
	var startDate, completionDate sql.NullTime

	err := row.Scan(
		&c.ID, &c.CaseNumber, &c.Variant, &c.CurrentState, &c.MemberID, &c.MemberName,
		&c.RequiresLegalReview, &c.RequiresWingReview, &severity, &cost,
		&c.IsDeathCase, &c.ToxicologyRequired, &c.ToxicologyComplete,
		&c.InvestigatingOfficerID, &c.InvestigatingOfficerName,
		&startDate, &completionDate, &c.DeterminationResult,
		&c.AppealFiled, &c.Version, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if severity.Valid {
		v := int(severity.Int64)
		c.InjurySeverity = &v
	}
	if cost.Valid {
		v := cost.Float64
		c.EstimatedCost = &v
	}
	if startDate.Valid {
		t := startDate.Time
		c.InvestigationStartDate = &t
	}
	if completionDate.Valid {
		t := completionDate.Time
		c.InvestigationCompletionDate = &t
	}

	return &c, nil
}


// Verify interface compliance
var _ port.CaseRepository = (*CaseRepository)(nil)
