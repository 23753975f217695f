package labs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/rheumatrack/rheumatrack/internal/domain/catalog"
	"github.com/rheumatrack/rheumatrack/internal/platform/db"
)

var (
	ErrNotFound        = errors.New("lab order not found")
	ErrValidation      = errors.New("invalid lab order input")
	ErrOrderHasResults = errors.New("order has entered results; cancel it instead of deleting")
	ErrOrderCancelled  = errors.New("order is cancelled")
)

type Service struct {
	repo    Repository
	catalog *catalog.Service
	pool    *pgxpool.Pool
}

// NewService wires the lab workflow. pool may be nil in tests; transactional
// boundaries then degrade to plain sequential calls against the mock.
func NewService(repo Repository, cat *catalog.Service, pool *pgxpool.Pool) *Service {
	return &Service{repo: repo, catalog: cat, pool: pool}
}

// inTx runs fn inside a transaction when a pool is present. Mutating flows
// start by locking the order row (getOwnedLocked), so concurrent writers for
// one order serialize before they list items and re-derive the status; a
// later writer always sees the earlier writer's committed results.
func (s *Service) inTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if s.pool == nil {
		return fn(ctx)
	}
	return db.RunInTx(ctx, s.pool, fn)
}

type CreateOrderInput struct {
	TestIDs   []uuid.UUID `json:"test_ids"`
	VisitID   *uuid.UUID  `json:"visit_id,omitempty"`
	Notes     *string     `json:"notes,omitempty"`
	OrderedAt *time.Time  `json:"ordered_at,omitempty"`
}

// ResultInput carries a result payload: either a scalar (value, unit) pair or
// a structured result_json document, never both.
type ResultInput struct {
	Value      *float64        `json:"value,omitempty"`
	Unit       *string         `json:"unit,omitempty"`
	ResultJSON json.RawMessage `json:"result_json,omitempty"`
	Flag       *string         `json:"flag,omitempty"`
	Comments   *string         `json:"comments,omitempty"`
}

func (in *ResultInput) validate() error {
	scalar := in.Value != nil
	structured := len(in.ResultJSON) > 0 && string(in.ResultJSON) != "null"
	switch {
	case scalar && structured:
		return fmt.Errorf("%w: provide value/unit or result_json, not both", ErrValidation)
	case !scalar && !structured:
		return fmt.Errorf("%w: result requires value/unit or result_json", ErrValidation)
	case scalar && in.Unit == nil:
		return fmt.Errorf("%w: unit is required with a scalar value", ErrValidation)
	}
	if structured && !json.Valid(in.ResultJSON) {
		return fmt.Errorf("%w: result_json is not valid JSON", ErrValidation)
	}
	if in.Flag != nil && !validFlags[*in.Flag] {
		return fmt.Errorf("%w: flag must be one of H, L, N, A", ErrValidation)
	}
	return nil
}

// CreateOrder opens a new pending order with the given catalog tests.
// Duplicate test ids in the input collapse to one item each.
func (s *Service) CreateOrder(ctx context.Context, patientID, authorID uuid.UUID, in *CreateOrderInput) (*LabOrder, error) {
	if patientID == uuid.Nil {
		return nil, fmt.Errorf("%w: patient id is required", ErrValidation)
	}
	if authorID == uuid.Nil {
		return nil, fmt.Errorf("%w: author id is required", ErrValidation)
	}
	if len(in.TestIDs) == 0 {
		return nil, fmt.Errorf("%w: at least one test is required", ErrValidation)
	}

	testIDs := dedupe(in.TestIDs)
	if err := s.resolveTests(ctx, testIDs); err != nil {
		return nil, err
	}

	order := &LabOrder{
		PatientID: patientID,
		AuthorID:  authorID,
		VisitID:   in.VisitID,
		Status:    StatusPending,
		Notes:     in.Notes,
		OrderedAt: time.Now().UTC(),
	}
	if in.OrderedAt != nil {
		order.OrderedAt = *in.OrderedAt
	}

	err := s.inTx(ctx, func(ctx context.Context) error {
		if err := s.repo.CreateOrder(ctx, order); err != nil {
			return err
		}
		for _, testID := range testIDs {
			item := &LabOrderItem{OrderID: order.ID, TestID: testID, Status: ItemOrdered}
			if err := s.repo.AddItem(ctx, item); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.GetOrder(ctx, patientID, order.ID)
}

// GetOrder loads an order with its items and results, ownership-checked.
func (s *Service) GetOrder(ctx context.Context, patientID, orderID uuid.UUID) (*LabOrder, error) {
	order, err := s.getOwned(ctx, patientID, orderID)
	if err != nil {
		return nil, err
	}
	items, err := s.repo.ListItems(ctx, orderID)
	if err != nil {
		return nil, err
	}
	order.Items = items
	return order, nil
}

func (s *Service) ListForPatient(ctx context.Context, patientID uuid.UUID, status OrderStatus, limit, offset int) ([]*LabOrder, int, error) {
	return s.repo.ListOrdersByPatient(ctx, patientID, status, limit, offset)
}

// AddItems unions testIDs into the order. Tests already on the order are
// silently ignored, which makes naive retry safe.
func (s *Service) AddItems(ctx context.Context, patientID, orderID uuid.UUID, testIDs []uuid.UUID) (*LabOrder, error) {
	if len(testIDs) == 0 {
		return nil, fmt.Errorf("%w: at least one test is required", ErrValidation)
	}
	testIDs = dedupe(testIDs)
	if err := s.resolveTests(ctx, testIDs); err != nil {
		return nil, err
	}

	err := s.inTx(ctx, func(ctx context.Context) error {
		order, err := s.getOwnedLocked(ctx, patientID, orderID)
		if err != nil {
			return err
		}
		if order.Status == StatusCancelled {
			return ErrOrderCancelled
		}
		for _, testID := range testIDs {
			item := &LabOrderItem{OrderID: orderID, TestID: testID, Status: ItemOrdered}
			if err := s.repo.AddItem(ctx, item); err != nil {
				return err
			}
		}
		return s.rederiveStatus(ctx, orderID)
	})
	if err != nil {
		return nil, err
	}
	return s.GetOrder(ctx, patientID, orderID)
}

// RemoveItems drops the given tests from the order. Items that already carry
// a result are skipped, not errored, so entered clinical data is never lost
// through a removal.
func (s *Service) RemoveItems(ctx context.Context, patientID, orderID uuid.UUID, testIDs []uuid.UUID) (*LabOrder, error) {
	if len(testIDs) == 0 {
		return nil, fmt.Errorf("%w: at least one test is required", ErrValidation)
	}

	err := s.inTx(ctx, func(ctx context.Context) error {
		order, err := s.getOwnedLocked(ctx, patientID, orderID)
		if err != nil {
			return err
		}
		if order.Status == StatusCancelled {
			return ErrOrderCancelled
		}
		items, err := s.repo.ListItems(ctx, orderID)
		if err != nil {
			return err
		}
		hasResult := make(map[uuid.UUID]bool, len(items))
		for _, it := range items {
			if it.Result != nil {
				hasResult[it.TestID] = true
			}
		}
		for _, testID := range dedupe(testIDs) {
			if hasResult[testID] {
				continue
			}
			if err := s.repo.RemoveItem(ctx, orderID, testID); err != nil {
				return err
			}
		}
		return s.rederiveStatus(ctx, orderID)
	})
	if err != nil {
		return nil, err
	}
	return s.GetOrder(ctx, patientID, orderID)
}

// DeleteOrder destroys an order and its items. It refuses when any item has a
// result; cancellation is the path that preserves entered data.
func (s *Service) DeleteOrder(ctx context.Context, patientID, orderID uuid.UUID) error {
	return s.inTx(ctx, func(ctx context.Context) error {
		if _, err := s.getOwnedLocked(ctx, patientID, orderID); err != nil {
			return err
		}
		items, err := s.repo.ListItems(ctx, orderID)
		if err != nil {
			return err
		}
		for _, it := range items {
			if it.Result != nil {
				return ErrOrderHasResults
			}
		}
		return s.repo.DeleteOrder(ctx, orderID)
	})
}

// CancelOrder marks the order cancelled unconditionally. Results already
// entered stay in place; the state is terminal and wins over derivation.
func (s *Service) CancelOrder(ctx context.Context, patientID, orderID uuid.UUID, reason *string) (*LabOrder, error) {
	err := s.inTx(ctx, func(ctx context.Context) error {
		if _, err := s.getOwnedLocked(ctx, patientID, orderID); err != nil {
			return err
		}
		return s.repo.UpdateOrderStatus(ctx, orderID, StatusCancelled, reason)
	})
	if err != nil {
		return nil, err
	}
	return s.GetOrder(ctx, patientID, orderID)
}

// UpsertResult writes the result for one item, flips the item to
// result_entered and re-derives the order status. Submitting twice for the
// same item overwrites the first result and leaves the derived status alone.
func (s *Service) UpsertResult(ctx context.Context, patientID, orderID, itemID uuid.UUID, in *ResultInput) (*LabOrder, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	err := s.inTx(ctx, func(ctx context.Context) error {
		order, err := s.getOwnedLocked(ctx, patientID, orderID)
		if err != nil {
			return err
		}
		if order.Status == StatusCancelled {
			return ErrOrderCancelled
		}
		item, err := s.repo.GetItemByID(ctx, itemID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return ErrNotFound
			}
			return err
		}
		if item.OrderID != orderID {
			return ErrNotFound
		}

		res := &LabResult{
			ItemID:     itemID,
			Value:      in.Value,
			Unit:       in.Unit,
			ResultJSON: in.ResultJSON,
			Flag:       in.Flag,
			Comments:   in.Comments,
		}
		if err := s.repo.UpsertResult(ctx, res); err != nil {
			return err
		}
		if err := s.repo.SetItemStatus(ctx, itemID, ItemResultEntered); err != nil {
			return err
		}
		return s.rederiveStatus(ctx, orderID)
	})
	if err != nil {
		return nil, err
	}
	return s.GetOrder(ctx, patientID, orderID)
}

// rederiveStatus recomputes the order status from its items. Cancelled orders
// are left alone; the check lives in the callers that refuse mutations on
// cancelled orders, and the derivation never resurrects one.
func (s *Service) rederiveStatus(ctx context.Context, orderID uuid.UUID) error {
	order, err := s.repo.GetOrderByID(ctx, orderID)
	if err != nil {
		return err
	}
	if order.Status == StatusCancelled {
		return nil
	}
	items, err := s.repo.ListItems(ctx, orderID)
	if err != nil {
		return err
	}
	derived := DeriveOrderStatus(items)
	if derived == order.Status {
		return nil
	}
	return s.repo.UpdateOrderStatus(ctx, orderID, derived, nil)
}

func (s *Service) getOwned(ctx context.Context, patientID, orderID uuid.UUID) (*LabOrder, error) {
	order, err := s.repo.GetOrderByID(ctx, orderID)
	return checkOwned(order, err, patientID)
}

// getOwnedLocked reads the order with a row lock. Every item and result
// mutation goes through here first so that per-order writers queue up before
// ListItems runs and the derived status can never regress to a stale value.
func (s *Service) getOwnedLocked(ctx context.Context, patientID, orderID uuid.UUID) (*LabOrder, error) {
	order, err := s.repo.GetOrderByIDForUpdate(ctx, orderID)
	return checkOwned(order, err, patientID)
}

func checkOwned(order *LabOrder, err error, patientID uuid.UUID) (*LabOrder, error) {
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if order.PatientID != patientID {
		return nil, ErrNotFound
	}
	return order, nil
}

// resolveTests validates order inputs against the catalog. Unknown and
// inactive tests are both caller errors, not server faults.
func (s *Service) resolveTests(ctx context.Context, testIDs []uuid.UUID) error {
	if _, err := s.catalog.ResolveTestIDs(ctx, testIDs); err != nil {
		if errors.Is(err, catalog.ErrNotFound) || errors.Is(err, catalog.ErrInactive) {
			return fmt.Errorf("%w: %v", ErrValidation, err)
		}
		return err
	}
	return nil
}

func dedupe(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]bool, len(ids))
	var out []uuid.UUID
	for _, id := range ids {
		if id == uuid.Nil || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}
