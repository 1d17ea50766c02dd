package storage

import (
	"context"
	"fmt"

	"osdashboard/internal/domain"
)

// Gateway persists qualifying work orders and their detail lines.
// Implementations run every write in its own transaction and roll back on
// any error.
type Gateway interface {
	UpsertQualifying(ctx context.Context, orders []domain.WorkOrder) (int, error)
	ReplaceDetails(ctx context.Context, orderNumber int64, lines []domain.DetailLine) error
	ReadAllWorkOrders(ctx context.Context) ([]domain.WorkOrder, error)
	ReadAllDetails(ctx context.Context) ([]domain.DetailLine, error)
	FindOrdersMissingDetails(ctx context.Context) ([]int64, error)
	DeleteWorkOrder(ctx context.Context, orderNumber int64) error
	Close() error
}

// PersistenceError wraps any failure of a gateway operation.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// Wrap returns nil for a nil err, otherwise a *PersistenceError.
func Wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	return &PersistenceError{Op: op, Err: err}
}
