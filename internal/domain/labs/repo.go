package labs

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	CreateOrder(ctx context.Context, o *LabOrder) error
	GetOrderByID(ctx context.Context, id uuid.UUID) (*LabOrder, error)
	// GetOrderByIDForUpdate locks the order row for the rest of the
	// transaction so per-order mutations serialize.
	GetOrderByIDForUpdate(ctx context.Context, id uuid.UUID) (*LabOrder, error)
	UpdateOrderStatus(ctx context.Context, orderID uuid.UUID, status OrderStatus, cancelReason *string) error
	DeleteOrder(ctx context.Context, id uuid.UUID) error
	ListOrdersByPatient(ctx context.Context, patientID uuid.UUID, status OrderStatus, limit, offset int) ([]*LabOrder, int, error)

	ListItems(ctx context.Context, orderID uuid.UUID) ([]*LabOrderItem, error)
	AddItem(ctx context.Context, item *LabOrderItem) error
	RemoveItem(ctx context.Context, orderID, testID uuid.UUID) error
	GetItemByID(ctx context.Context, itemID uuid.UUID) (*LabOrderItem, error)
	SetItemStatus(ctx context.Context, itemID uuid.UUID, status ItemStatus) error

	UpsertResult(ctx context.Context, r *LabResult) error
}
