package assessment

import (
	"time"

	"github.com/google/uuid"
)

// IndexType identifies which clinical index an assessment records.
type IndexType string

const (
	IndexDAS28    IndexType = "das28"
	IndexCDAI     IndexType = "cdai"
	IndexSDAI     IndexType = "sdai"
	IndexBASDAI   IndexType = "basdai"
	IndexASDASCRP IndexType = "asdas_crp"
	IndexHAQDI    IndexType = "haq_di"
	IndexDAPSA    IndexType = "dapsa"
	IndexVAS      IndexType = "vas"
	IndexBMI      IndexType = "bmi"
	IndexEULAR    IndexType = "eular_response"
)

var validIndexTypes = map[IndexType]bool{
	IndexDAS28: true, IndexCDAI: true, IndexSDAI: true, IndexBASDAI: true,
	IndexASDASCRP: true, IndexHAQDI: true, IndexDAPSA: true,
	IndexVAS: true, IndexBMI: true, IndexEULAR: true,
}

// Assessment is one recorded index result for a patient. Inputs are stored
// alongside the computed score and category so historical rows survive later
// threshold changes; score and category are snapshots written once at save
// time and never recomputed on read. A nil score means the formula's
// preconditions were not met (undefined result), not a failed write.
type Assessment struct {
	ID         uuid.UUID `json:"id" db:"id"`
	PatientID  uuid.UUID `json:"patient_id" db:"patient_id"`
	AuthorID   uuid.UUID `json:"author_id" db:"author_id"`
	IndexType  IndexType `json:"index_type" db:"index_type"`
	AssessedAt time.Time `json:"assessed_at" db:"assessed_at"`

	// Joint selections. The id sets are kept for audit and redisplay; the
	// counts are derived from them at write time, never entered directly.
	TenderJoints  []string `json:"tender_joints,omitempty" db:"tender_joints"`
	SwollenJoints []string `json:"swollen_joints,omitempty" db:"swollen_joints"`
	TenderCount   *int     `json:"tender_count,omitempty" db:"tender_count"`
	SwollenCount  *int     `json:"swollen_count,omitempty" db:"swollen_count"`

	// Lab and examination inputs, per index.
	DAS28Variant    *string  `json:"das28_variant,omitempty" db:"das28_variant"`
	ESR             *float64 `json:"esr,omitempty" db:"esr"`
	CRP             *float64 `json:"crp,omitempty" db:"crp"`
	GlobalHealth    *float64 `json:"global_health,omitempty" db:"global_health"`
	PatientGlobal   *float64 `json:"patient_global,omitempty" db:"patient_global"`
	PhysicianGlobal *float64 `json:"physician_global,omitempty" db:"physician_global"`
	Pain            *float64 `json:"pain,omitempty" db:"pain"`

	// BASDAI questionnaire items (0-10 each).
	BASDAIQ1 *float64 `json:"basdai_q1,omitempty" db:"basdai_q1"`
	BASDAIQ2 *float64 `json:"basdai_q2,omitempty" db:"basdai_q2"`
	BASDAIQ3 *float64 `json:"basdai_q3,omitempty" db:"basdai_q3"`
	BASDAIQ4 *float64 `json:"basdai_q4,omitempty" db:"basdai_q4"`
	BASDAIQ5 *float64 `json:"basdai_q5,omitempty" db:"basdai_q5"`
	BASDAIQ6 *float64 `json:"basdai_q6,omitempty" db:"basdai_q6"`

	// ASDAS-CRP inputs.
	BackPain         *float64 `json:"back_pain,omitempty" db:"back_pain"`
	MorningStiffness *float64 `json:"morning_stiffness,omitempty" db:"morning_stiffness"`
	PeripheralPain   *float64 `json:"peripheral_pain,omitempty" db:"peripheral_pain"`

	// HAQ-DI domain scores (exactly 8, 0-3 each).
	HAQItems []float64 `json:"haq_items,omitempty" db:"haq_items"`

	// Anthropometrics and single-scale inputs.
	WeightKg *float64 `json:"weight_kg,omitempty" db:"weight_kg"`
	HeightM  *float64 `json:"height_m,omitempty" db:"height_m"`
	VASValue *float64 `json:"vas_value,omitempty" db:"vas_value"`

	// EULAR response inputs.
	BaselineScore *float64 `json:"baseline_score,omitempty" db:"baseline_score"`
	FollowupScore *float64 `json:"followup_score,omitempty" db:"followup_score"`

	// Snapshot outputs.
	Score    *float64 `json:"score" db:"score"`
	Category *string  `json:"category,omitempty" db:"category"`
	Delta    *float64 `json:"delta,omitempty" db:"delta"`
	Response *string  `json:"response,omitempty" db:"response"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// Input carries the raw formula inputs for a create or full update. Any
// score-like field a client submits is ignored; scores are always computed
// here from the raw inputs.
type Input struct {
	IndexType  IndexType  `json:"index_type"`
	AssessedAt *time.Time `json:"assessed_at,omitempty"`

	TenderJoints  []string `json:"tender_joints,omitempty"`
	SwollenJoints []string `json:"swollen_joints,omitempty"`

	DAS28Variant    *string  `json:"das28_variant,omitempty"`
	ESR             *float64 `json:"esr,omitempty"`
	CRP             *float64 `json:"crp,omitempty"`
	GlobalHealth    *float64 `json:"global_health,omitempty"`
	PatientGlobal   *float64 `json:"patient_global,omitempty"`
	PhysicianGlobal *float64 `json:"physician_global,omitempty"`
	Pain            *float64 `json:"pain,omitempty"`

	BASDAIQ1 *float64 `json:"basdai_q1,omitempty"`
	BASDAIQ2 *float64 `json:"basdai_q2,omitempty"`
	BASDAIQ3 *float64 `json:"basdai_q3,omitempty"`
	BASDAIQ4 *float64 `json:"basdai_q4,omitempty"`
	BASDAIQ5 *float64 `json:"basdai_q5,omitempty"`
	BASDAIQ6 *float64 `json:"basdai_q6,omitempty"`

	BackPain         *float64 `json:"back_pain,omitempty"`
	MorningStiffness *float64 `json:"morning_stiffness,omitempty"`
	PeripheralPain   *float64 `json:"peripheral_pain,omitempty"`

	HAQItems []float64 `json:"haq_items,omitempty"`

	WeightKg *float64 `json:"weight_kg,omitempty"`
	HeightM  *float64 `json:"height_m,omitempty"`
	VASValue *float64 `json:"vas_value,omitempty"`

	BaselineScore *float64 `json:"baseline_score,omitempty"`
	FollowupScore *float64 `json:"followup_score,omitempty"`
}
