package port

import (
	"context"
	"errors"

	"github.com/donellmccoy/lod-tracker/internal/domain/entity"
)

var (
	// ErrConcurrencyConflict is returned by Save when the expected version no
	// longer matches the stored case: another process transitioned it first.
	// Callers must reload and re-validate, never retry blindly.
	ErrConcurrencyConflict = errors.New("concurrency conflict: case was modified by another process")

	// ErrDuplicateCaseNumber is returned by Create when the human-assigned
	// case number is already taken
	ErrDuplicateCaseNumber = errors.New("case number already exists")
)

// CaseRepository defines persistence operations for Case. GetByID and
// GetByCaseNumber return (nil, nil) when no case matches.
type CaseRepository interface {
	Create(ctx context.Context, c *entity.Case) error
	GetByID(ctx context.Context, id string) (*entity.Case, error)
	GetByCaseNumber(ctx context.Context, caseNumber string) (*entity.Case, error)

	// Save persists the case conditioned on expectedVersion being the stored
	// version; on success the version is bumped both in the store and on c.
	Save(ctx context.Context, c *entity.Case, expectedVersion int64) error

	List(ctx context.Context, limit, offset int) ([]*entity.Case, error)
}

// HistoryRepository defines persistence operations for the append-only
// transition ledger. Entries are never updated or deleted.
type HistoryRepository interface {
	Append(ctx context.Context, e *entity.TransitionHistoryEntry) error
	GetByCaseID(ctx context.Context, caseID string) ([]*entity.TransitionHistoryEntry, error)
}

// TransactionManager executes a function within a single transaction so that
// case mutation and history append commit or roll back together
type TransactionManager interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
