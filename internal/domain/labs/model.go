package labs

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// OrderStatus is the derived fulfillment state of a lab order. Every value
// except StatusCancelled is computed from the order's items; cancelled is an
// explicit user action and sticky.
type OrderStatus string

const (
	StatusPending           OrderStatus = "pending"
	StatusPartiallyReported OrderStatus = "partially_reported"
	StatusCompleted         OrderStatus = "completed"
	StatusCancelled         OrderStatus = "cancelled"
)

// ItemStatus tracks a single orderable test within an order.
type ItemStatus string

const (
	ItemOrdered       ItemStatus = "ordered"
	ItemResultEntered ItemStatus = "result_entered"
	ItemCancelled     ItemStatus = "cancelled"
)

var validFlags = map[string]bool{"H": true, "L": true, "N": true, "A": true}

// LabOrder aggregates the test items requested for a patient in one sitting.
type LabOrder struct {
	ID           uuid.UUID   `json:"id" db:"id"`
	PatientID    uuid.UUID   `json:"patient_id" db:"patient_id"`
	AuthorID     uuid.UUID   `json:"author_id" db:"author_id"`
	VisitID      *uuid.UUID  `json:"visit_id,omitempty" db:"visit_id"`
	Status       OrderStatus `json:"status" db:"status"`
	Notes        *string     `json:"notes,omitempty" db:"notes"`
	CancelReason *string     `json:"cancel_reason,omitempty" db:"cancel_reason"`
	OrderedAt    time.Time   `json:"ordered_at" db:"ordered_at"`
	CreatedAt    time.Time   `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time   `json:"updated_at" db:"updated_at"`

	Items []*LabOrderItem `json:"items,omitempty" db:"-"`
}

// LabOrderItem links an order to one catalog test. An order never contains
// the same test twice.
type LabOrderItem struct {
	ID        uuid.UUID  `json:"id" db:"id"`
	OrderID   uuid.UUID  `json:"order_id" db:"order_id"`
	TestID    uuid.UUID  `json:"test_id" db:"test_id"`
	Status    ItemStatus `json:"status" db:"status"`
	CreatedAt time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt time.Time  `json:"updated_at" db:"updated_at"`

	// Denormalized from the catalog for display.
	TestCode *string `json:"test_code,omitempty" db:"-"`
	TestName *string `json:"test_name,omitempty" db:"-"`

	Result *LabResult `json:"result,omitempty" db:"-"`
}

// LabResult is the single result attached to an item. A second submission
// for the same item overwrites this row, it never creates another.
type LabResult struct {
	ID         uuid.UUID       `json:"id" db:"id"`
	ItemID     uuid.UUID       `json:"item_id" db:"item_id"`
	Value      *float64        `json:"value,omitempty" db:"value"`
	Unit       *string         `json:"unit,omitempty" db:"unit"`
	ResultJSON json.RawMessage `json:"result_json,omitempty" db:"result_json"`
	Flag       *string         `json:"flag,omitempty" db:"flag"`
	Comments   *string         `json:"comments,omitempty" db:"comments"`
	CreatedAt  time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at" db:"updated_at"`
}

// DeriveOrderStatus reduces an order's items to the order-level status. It is
// the single place this derivation lives; callers recompute after every item
// or result mutation instead of adjusting status at individual call sites.
// The sticky cancelled state is handled by callers, not here.
func DeriveOrderStatus(items []*LabOrderItem) OrderStatus {
	withResults := 0
	for _, it := range items {
		if it.Status == ItemResultEntered {
			withResults++
		}
	}
	switch {
	case withResults == 0:
		return StatusPending
	case withResults < len(items):
		return StatusPartiallyReported
	default:
		return StatusCompleted
	}
}
