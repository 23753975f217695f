package assessment

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/rheumatrack/rheumatrack/internal/platform/db"
)

type repoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository {
	return &repoPG{pool: pool}
}

func (r *repoPG) conn(ctx context.Context) db.Querier {
	if q := db.QuerierFromContext(ctx); q != nil {
		return q
	}
	return r.pool
}

const assessmentCols = `id, patient_id, author_id, index_type, assessed_at,
	tender_joints, swollen_joints, tender_count, swollen_count,
	das28_variant, esr, crp, global_health, patient_global, physician_global, pain,
	basdai_q1, basdai_q2, basdai_q3, basdai_q4, basdai_q5, basdai_q6,
	back_pain, morning_stiffness, peripheral_pain, haq_items,
	weight_kg, height_m, vas_value, baseline_score, followup_score,
	score, category, delta, response, created_at, updated_at`

func (r *repoPG) scanAssessment(row pgx.Row) (*Assessment, error) {
	var a Assessment
	err := row.Scan(&a.ID, &a.PatientID, &a.AuthorID, &a.IndexType, &a.AssessedAt,
		&a.TenderJoints, &a.SwollenJoints, &a.TenderCount, &a.SwollenCount,
		&a.DAS28Variant, &a.ESR, &a.CRP, &a.GlobalHealth, &a.PatientGlobal, &a.PhysicianGlobal, &a.Pain,
		&a.BASDAIQ1, &a.BASDAIQ2, &a.BASDAIQ3, &a.BASDAIQ4, &a.BASDAIQ5, &a.BASDAIQ6,
		&a.BackPain, &a.MorningStiffness, &a.PeripheralPain, &a.HAQItems,
		&a.WeightKg, &a.HeightM, &a.VASValue, &a.BaselineScore, &a.FollowupScore,
		&a.Score, &a.Category, &a.Delta, &a.Response, &a.CreatedAt, &a.UpdatedAt)
	return &a, err
}

func (r *repoPG) Create(ctx context.Context, a *Assessment) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO assessment (id, patient_id, author_id, index_type, assessed_at,
			tender_joints, swollen_joints, tender_count, swollen_count,
			das28_variant, esr, crp, global_health, patient_global, physician_global, pain,
			basdai_q1, basdai_q2, basdai_q3, basdai_q4, basdai_q5, basdai_q6,
			back_pain, morning_stiffness, peripheral_pain, haq_items,
			weight_kg, height_m, vas_value, baseline_score, followup_score,
			score, category, delta, response)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,
			$21,$22,$23,$24,$25,$26,$27,$28,$29,$30,$31,$32,$33,$34,$35)`,
		a.ID, a.PatientID, a.AuthorID, a.IndexType, a.AssessedAt,
		a.TenderJoints, a.SwollenJoints, a.TenderCount, a.SwollenCount,
		a.DAS28Variant, a.ESR, a.CRP, a.GlobalHealth, a.PatientGlobal, a.PhysicianGlobal, a.Pain,
		a.BASDAIQ1, a.BASDAIQ2, a.BASDAIQ3, a.BASDAIQ4, a.BASDAIQ5, a.BASDAIQ6,
		a.BackPain, a.MorningStiffness, a.PeripheralPain, a.HAQItems,
		a.WeightKg, a.HeightM, a.VASValue, a.BaselineScore, a.FollowupScore,
		a.Score, a.Category, a.Delta, a.Response)
	return err
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Assessment, error) {
	return r.scanAssessment(r.conn(ctx).QueryRow(ctx, `SELECT `+assessmentCols+` FROM assessment WHERE id = $1`, id))
}

func (r *repoPG) Update(ctx context.Context, a *Assessment) error {
	_, err := r.conn(ctx).Exec(ctx, `
		UPDATE assessment SET author_id=$2, assessed_at=$3,
			tender_joints=$4, swollen_joints=$5, tender_count=$6, swollen_count=$7,
			das28_variant=$8, esr=$9, crp=$10, global_health=$11, patient_global=$12,
			physician_global=$13, pain=$14,
			basdai_q1=$15, basdai_q2=$16, basdai_q3=$17, basdai_q4=$18, basdai_q5=$19, basdai_q6=$20,
			back_pain=$21, morning_stiffness=$22, peripheral_pain=$23, haq_items=$24,
			weight_kg=$25, height_m=$26, vas_value=$27, baseline_score=$28, followup_score=$29,
			score=$30, category=$31, delta=$32, response=$33, updated_at=NOW()
		WHERE id = $1`,
		a.ID, a.AuthorID, a.AssessedAt,
		a.TenderJoints, a.SwollenJoints, a.TenderCount, a.SwollenCount,
		a.DAS28Variant, a.ESR, a.CRP, a.GlobalHealth, a.PatientGlobal,
		a.PhysicianGlobal, a.Pain,
		a.BASDAIQ1, a.BASDAIQ2, a.BASDAIQ3, a.BASDAIQ4, a.BASDAIQ5, a.BASDAIQ6,
		a.BackPain, a.MorningStiffness, a.PeripheralPain, a.HAQItems,
		a.WeightKg, a.HeightM, a.VASValue, a.BaselineScore, a.FollowupScore,
		a.Score, a.Category, a.Delta, a.Response)
	return err
}

func (r *repoPG) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.conn(ctx).Exec(ctx, `DELETE FROM assessment WHERE id = $1`, id)
	return err
}

func (r *repoPG) ListByPatient(ctx context.Context, patientID uuid.UUID, indexType IndexType, order ListOrder, limit, offset int) ([]*Assessment, int, error) {
	query := `SELECT ` + assessmentCols + ` FROM assessment WHERE patient_id = $1`
	countQuery := `SELECT COUNT(*) FROM assessment WHERE patient_id = $1`
	args := []interface{}{patientID}
	idx := 2

	if indexType != "" {
		query += fmt.Sprintf(` AND index_type = $%d`, idx)
		countQuery += fmt.Sprintf(` AND index_type = $%d`, idx)
		args = append(args, indexType)
		idx++
	}

	var total int
	if err := r.conn(ctx).QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	dir := "DESC"
	if order == OrderAsc {
		dir = "ASC"
	}
	query += fmt.Sprintf(` ORDER BY assessed_at %s, id %s LIMIT $%d OFFSET $%d`, dir, dir, idx, idx+1)
	args = append(args, limit, offset)

	rows, err := r.conn(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var items []*Assessment
	for rows.Next() {
		a, err := r.scanAssessment(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, a)
	}
	return items, total, rows.Err()
}
