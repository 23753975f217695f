package catalog

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/rheumatrack/rheumatrack/internal/platform/db"
)

type labTestRepoPG struct{ pool *pgxpool.Pool }

func NewLabTestRepoPG(pool *pgxpool.Pool) LabTestRepository {
	return &labTestRepoPG{pool: pool}
}

func (r *labTestRepoPG) conn(ctx context.Context) db.Querier {
	if q := db.QuerierFromContext(ctx); q != nil {
		return q
	}
	return r.pool
}

const labTestCols = `id, code, name, category, unit, reference_low, reference_high, active, created_at, updated_at`

func (r *labTestRepoPG) scanLabTest(row pgx.Row) (*LabTest, error) {
	var t LabTest
	err := row.Scan(&t.ID, &t.Code, &t.Name, &t.Category, &t.Unit,
		&t.ReferenceLow, &t.ReferenceHigh, &t.Active, &t.CreatedAt, &t.UpdatedAt)
	return &t, err
}

func (r *labTestRepoPG) Create(ctx context.Context, t *LabTest) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO lab_test (id, code, name, category, unit, reference_low, reference_high, active)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
		t.ID, t.Code, t.Name, t.Category, t.Unit, t.ReferenceLow, t.ReferenceHigh, t.Active)
	return err
}

func (r *labTestRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*LabTest, error) {
	return r.scanLabTest(r.conn(ctx).QueryRow(ctx, `SELECT `+labTestCols+` FROM lab_test WHERE id = $1`, id))
}

func (r *labTestRepoPG) GetByCode(ctx context.Context, code string) (*LabTest, error) {
	return r.scanLabTest(r.conn(ctx).QueryRow(ctx, `SELECT `+labTestCols+` FROM lab_test WHERE code = $1`, code))
}

func (r *labTestRepoPG) GetByIDs(ctx context.Context, ids []uuid.UUID) ([]*LabTest, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	rows, err := r.conn(ctx).Query(ctx, `SELECT `+labTestCols+` FROM lab_test WHERE id = ANY($1)`, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var tests []*LabTest
	for rows.Next() {
		t, err := r.scanLabTest(rows)
		if err != nil {
			return nil, err
		}
		tests = append(tests, t)
	}
	return tests, rows.Err()
}

func (r *labTestRepoPG) List(ctx context.Context, category string, activeOnly bool, limit, offset int) ([]*LabTest, int, error) {
	query := `SELECT ` + labTestCols + ` FROM lab_test WHERE 1=1`
	countQuery := `SELECT COUNT(*) FROM lab_test WHERE 1=1`
	var args []interface{}
	idx := 1

	if category != "" {
		query += fmt.Sprintf(` AND category = $%d`, idx)
		countQuery += fmt.Sprintf(` AND category = $%d`, idx)
		args = append(args, category)
		idx++
	}
	if activeOnly {
		query += ` AND active`
		countQuery += ` AND active`
	}

	var total int
	if err := r.conn(ctx).QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query += fmt.Sprintf(` ORDER BY code LIMIT $%d OFFSET $%d`, idx, idx+1)
	args = append(args, limit, offset)

	rows, err := r.conn(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var tests []*LabTest
	for rows.Next() {
		t, err := r.scanLabTest(rows)
		if err != nil {
			return nil, 0, err
		}
		tests = append(tests, t)
	}
	return tests, total, rows.Err()
}

func (r *labTestRepoPG) Update(ctx context.Context, t *LabTest) error {
	_, err := r.conn(ctx).Exec(ctx, `
		UPDATE lab_test SET name=$2, category=$3, unit=$4,
			reference_low=$5, reference_high=$6, active=$7, updated_at=NOW()
		WHERE id = $1`,
		t.ID, t.Name, t.Category, t.Unit, t.ReferenceLow, t.ReferenceHigh, t.Active)
	return err
}
