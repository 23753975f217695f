package assessment

import (
	"context"

	"github.com/google/uuid"
)

// ListOrder selects the sort direction for ListByPatient. Trend charts read
// oldest first, recent panels newest first; both are explicit, never inferred.
type ListOrder string

const (
	OrderAsc  ListOrder = "asc"
	OrderDesc ListOrder = "desc"
)

type Repository interface {
	Create(ctx context.Context, a *Assessment) error
	GetByID(ctx context.Context, id uuid.UUID) (*Assessment, error)
	Update(ctx context.Context, a *Assessment) error
	Delete(ctx context.Context, id uuid.UUID) error
	ListByPatient(ctx context.Context, patientID uuid.UUID, indexType IndexType, order ListOrder, limit, offset int) ([]*Assessment, int, error)
}
