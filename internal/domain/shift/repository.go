package shift

import (
	"context"
	"time"
)

// Repository defines the operations for persisting and retrieving shift
// records and their accruals.
type Repository interface {
	// Append assigns the next free id, writes a new pending record and
	// returns the assigned id.
	Append(ctx context.Context, in Input) (int, error)

	// ListForEmployee filters by employee name, optionally by pending status
	// and, when daysBack > 0, by the reference date being no older than
	// daysBack days before today.
	ListForEmployee(ctx context.Context, employeeName string, daysBack int, onlyPending bool) ([]*Record, error)

	// FindEditable returns the record only when it belongs to the employee,
	// is still pending and within the editability window. Every other case,
	// including a foreign or unknown id, is the same not-found error.
	FindEditable(ctx context.Context, employeeName string, shiftID, maxDays int) (*Record, error)

	ListPendingForManager(ctx context.Context, managerName string) ([]*Record, error)

	// UpdateDetails re-validates editability immediately before writing and
	// reports false when the record is no longer editable.
	UpdateDetails(ctx context.Context, shiftID int, employeeName string, in Input, maxDays int) (bool, error)

	// Decide re-reads the current status immediately before writing. When the
	// record already left pending it returns the unchanged record and false.
	// On approval one accrual row is appended synchronously.
	Decide(ctx context.Context, shiftID int, status Status, managerName, comment string, decidedAt time.Time) (*Record, bool, error)
}
