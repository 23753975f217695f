package catalog

import (
	"time"

	"github.com/google/uuid"
)

// LabTest is a reference catalog entry for an orderable laboratory test.
// Reference ranges are informational; result values are never validated
// against them.
type LabTest struct {
	ID            uuid.UUID `json:"id" db:"id"`
	Code          string    `json:"code" db:"code"`
	Name          string    `json:"name" db:"name"`
	Category      string    `json:"category" db:"category"`
	Unit          *string   `json:"unit,omitempty" db:"unit"`
	ReferenceLow  *float64  `json:"reference_low,omitempty" db:"reference_low"`
	ReferenceHigh *float64  `json:"reference_high,omitempty" db:"reference_high"`
	Active        bool      `json:"active" db:"active"`
	CreatedAt     time.Time `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time `json:"updated_at" db:"updated_at"`
}
