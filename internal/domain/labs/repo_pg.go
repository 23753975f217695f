package labs

import (
	"context"
	"fmt"
	"time"

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

const orderCols = `id, patient_id, author_id, visit_id, status, notes, cancel_reason, ordered_at, created_at, updated_at`

func (r *repoPG) scanOrder(row pgx.Row) (*LabOrder, error) {
	var o LabOrder
	err := row.Scan(&o.ID, &o.PatientID, &o.AuthorID, &o.VisitID, &o.Status,
		&o.Notes, &o.CancelReason, &o.OrderedAt, &o.CreatedAt, &o.UpdatedAt)
	return &o, err
}

func (r *repoPG) CreateOrder(ctx context.Context, o *LabOrder) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO lab_order (id, patient_id, author_id, visit_id, status, notes, ordered_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7)`,
		o.ID, o.PatientID, o.AuthorID, o.VisitID, o.Status, o.Notes, o.OrderedAt)
	return err
}

func (r *repoPG) GetOrderByID(ctx context.Context, id uuid.UUID) (*LabOrder, error) {
	return r.scanOrder(r.conn(ctx).QueryRow(ctx, `SELECT `+orderCols+` FROM lab_order WHERE id = $1`, id))
}

func (r *repoPG) GetOrderByIDForUpdate(ctx context.Context, id uuid.UUID) (*LabOrder, error) {
	return r.scanOrder(r.conn(ctx).QueryRow(ctx, `SELECT `+orderCols+` FROM lab_order WHERE id = $1 FOR UPDATE`, id))
}

func (r *repoPG) UpdateOrderStatus(ctx context.Context, orderID uuid.UUID, status OrderStatus, cancelReason *string) error {
	_, err := r.conn(ctx).Exec(ctx, `
		UPDATE lab_order SET status=$2, cancel_reason=COALESCE($3, cancel_reason), updated_at=NOW()
		WHERE id = $1`, orderID, status, cancelReason)
	return err
}

func (r *repoPG) DeleteOrder(ctx context.Context, id uuid.UUID) error {
	_, err := r.conn(ctx).Exec(ctx, `DELETE FROM lab_order WHERE id = $1`, id)
	return err
}

func (r *repoPG) ListOrdersByPatient(ctx context.Context, patientID uuid.UUID, status OrderStatus, limit, offset int) ([]*LabOrder, int, error) {
	query := `SELECT ` + orderCols + ` FROM lab_order WHERE patient_id = $1`
	countQuery := `SELECT COUNT(*) FROM lab_order WHERE patient_id = $1`
	args := []interface{}{patientID}
	idx := 2

	if status != "" {
		query += fmt.Sprintf(` AND status = $%d`, idx)
		countQuery += fmt.Sprintf(` AND status = $%d`, idx)
		args = append(args, status)
		idx++
	}

	var total int
	if err := r.conn(ctx).QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query += fmt.Sprintf(` ORDER BY ordered_at DESC, id DESC LIMIT $%d OFFSET $%d`, idx, idx+1)
	args = append(args, limit, offset)

	rows, err := r.conn(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var orders []*LabOrder
	for rows.Next() {
		o, err := r.scanOrder(rows)
		if err != nil {
			return nil, 0, err
		}
		orders = append(orders, o)
	}
	return orders, total, rows.Err()
}

// ListItems returns the order's items, each joined with its catalog entry and
// (when present) its result.
func (r *repoPG) ListItems(ctx context.Context, orderID uuid.UUID) ([]*LabOrderItem, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT i.id, i.order_id, i.test_id, i.status, i.created_at, i.updated_at,
			t.code, t.name,
			res.id, res.item_id, res.value, res.unit, res.result_json, res.flag, res.comments,
			res.created_at, res.updated_at
		FROM lab_order_item i
		JOIN lab_test t ON t.id = i.test_id
		LEFT JOIN lab_result res ON res.item_id = i.id
		WHERE i.order_id = $1
		ORDER BY i.created_at, i.id`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []*LabOrderItem
	for rows.Next() {
		var it LabOrderItem
		var res LabResult
		var resID, resItemID *uuid.UUID
		var resCreated, resUpdated *time.Time
		err := rows.Scan(&it.ID, &it.OrderID, &it.TestID, &it.Status, &it.CreatedAt, &it.UpdatedAt,
			&it.TestCode, &it.TestName,
			&resID, &resItemID, &res.Value, &res.Unit, &res.ResultJSON, &res.Flag, &res.Comments,
			&resCreated, &resUpdated)
		if err != nil {
			return nil, err
		}
		if resID != nil {
			res.ID = *resID
			res.ItemID = *resItemID
			res.CreatedAt = *resCreated
			res.UpdatedAt = *resUpdated
			it.Result = &res
		}
		items = append(items, &it)
	}
	return items, rows.Err()
}

func (r *repoPG) AddItem(ctx context.Context, item *LabOrderItem) error {
	if item.ID == uuid.Nil {
		item.ID = uuid.New()
	}
	// Duplicate (order, test) pairs are silently ignored; addItems is an
	// idempotent union.
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO lab_order_item (id, order_id, test_id, status)
		VALUES ($1,$2,$3,$4)
		ON CONFLICT (order_id, test_id) DO NOTHING`,
		item.ID, item.OrderID, item.TestID, item.Status)
	return err
}

func (r *repoPG) RemoveItem(ctx context.Context, orderID, testID uuid.UUID) error {
	_, err := r.conn(ctx).Exec(ctx, `
		DELETE FROM lab_order_item WHERE order_id = $1 AND test_id = $2`, orderID, testID)
	return err
}

func (r *repoPG) GetItemByID(ctx context.Context, itemID uuid.UUID) (*LabOrderItem, error) {
	var it LabOrderItem
	err := r.conn(ctx).QueryRow(ctx, `
		SELECT id, order_id, test_id, status, created_at, updated_at
		FROM lab_order_item WHERE id = $1`, itemID).
		Scan(&it.ID, &it.OrderID, &it.TestID, &it.Status, &it.CreatedAt, &it.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &it, nil
}

func (r *repoPG) SetItemStatus(ctx context.Context, itemID uuid.UUID, status ItemStatus) error {
	_, err := r.conn(ctx).Exec(ctx, `
		UPDATE lab_order_item SET status=$2, updated_at=NOW() WHERE id = $1`, itemID, status)
	return err
}

func (r *repoPG) UpsertResult(ctx context.Context, res *LabResult) error {
	if res.ID == uuid.Nil {
		res.ID = uuid.New()
	}
	// One result per item; resubmission overwrites in place.
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO lab_result (id, item_id, value, unit, result_json, flag, comments)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
		ON CONFLICT (item_id) DO UPDATE SET
			value=EXCLUDED.value, unit=EXCLUDED.unit, result_json=EXCLUDED.result_json,
			flag=EXCLUDED.flag, comments=EXCLUDED.comments, updated_at=NOW()`,
		res.ID, res.ItemID, res.Value, res.Unit, res.ResultJSON, res.Flag, res.Comments)
	return err
}
