package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

var (
	ErrNotFound = errors.New("lab test not found")
	ErrInactive = errors.New("lab test is inactive")
)

type Service struct {
	tests LabTestRepository
}

func NewService(tests LabTestRepository) *Service {
	return &Service{tests: tests}
}

func (s *Service) GetLabTest(ctx context.Context, id uuid.UUID) (*LabTest, error) {
	t, err := s.tests.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return t, nil
}

func (s *Service) GetLabTestByCode(ctx context.Context, code string) (*LabTest, error) {
	t, err := s.tests.GetByCode(ctx, code)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return t, nil
}

func (s *Service) ListLabTests(ctx context.Context, category string, activeOnly bool, limit, offset int) ([]*LabTest, int, error) {
	return s.tests.List(ctx, category, activeOnly, limit, offset)
}

// ResolveTestIDs loads the catalog entries for the given ids and fails when
// any id is unknown or refers to an inactive test. Order creation goes
// through here so orders can only reference orderable tests.
func (s *Service) ResolveTestIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*LabTest, error) {
	tests, err := s.tests.GetByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[uuid.UUID]*LabTest, len(tests))
	for _, t := range tests {
		byID[t.ID] = t
	}
	for _, id := range ids {
		t, ok := byID[id]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		if !t.Active {
			return nil, fmt.Errorf("%w: %s", ErrInactive, t.Code)
		}
	}
	return byID, nil
}
