package repository

import (
	"context"
	"database/sql"
	"fmt"

	"go.uber.org/zap"

	"github.com/donellmccoy/lod-tracker/internal/application/port"
	"github.com/donellmccoy/lod-tracker/internal/domain/entity"
)

// HistoryRepository implements port.HistoryRepository over SQLite. The
// ledger is insert-only; there is no update or delete path.
type HistoryRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewHistoryRepository creates a new history repository
func NewHistoryRepository(db *sql.DB, logger *zap.Logger) port.HistoryRepository {
	return &HistoryRepository{db: db, logger: logger}
}

// Append records one executed transition
func (r *HistoryRepository) Append(ctx context.Context, e *entity.TransitionHistoryEntry) error {
	query := `
		INSERT INTO case_transition_history (
			case_id, from_state, to_state, trigger_name, authority, notes, timestamp
		) VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	result, err := executorFrom(ctx, r.db).ExecContext(ctx, query,
		e.CaseID, e.FromState, e.ToState, e.Trigger, e.Authority, e.Notes, e.Timestamp,
	)
	if err != nil {
		r.logger.Error("Failed to append history entry",
			zap.String("case_id", e.CaseID), zap.Error(err))
		return fmt.Errorf("failed to append history: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	e.ID = id
	return nil
}

// GetByCaseID retrieves the full ledger for a case in transition order
func (r *HistoryRepository) GetByCaseID(ctx context.Context, caseID string) ([]*entity.TransitionHistoryEntry, error) {
	query := `
		SELECT id, case_id, from_state, to_state, trigger_name, authority, notes, timestamp
		FROM case_transition_history
		WHERE case_id = ?
		ORDER BY timestamp ASC, id ASC
	`

	rows, err := executorFrom(ctx, r.db).QueryContext(ctx, query, caseID)
	if err != nil {
		r.logger.Error("Failed to get history", zap.String("case_id", caseID), zap.Error(err))
		return nil, fmt.Errorf("failed to get history: %w", err)
	}
	defer rows.Close()

	var entries []*entity.TransitionHistoryEntry
	for rows.Next() {
		var e entity.TransitionHistoryEntry
		err := rows.Scan(
			&e.ID, &e.CaseID, &e.FromState, &e.ToState,
			&e.Trigger, &e.Authority, &e.Notes, &e.Timestamp,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan history entry: %w", err)
		}
		entries = append(entries, &e)
	}

	return entries, rows.Err()
}

// Verify interface compliance
var _ port.HistoryRepository = (*HistoryRepository)(nil)
