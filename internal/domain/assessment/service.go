package assessment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

var (
	ErrNotFound   = errors.New("assessment not found")
	ErrValidation = errors.New("invalid assessment input")
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Create records a new assessment for patientID. The score, category and
// joint counts are computed here from the raw inputs before the row is
// written; assessed_at defaults to now when the caller does not supply one.
func (s *Service) Create(ctx context.Context, patientID, authorID uuid.UUID, in *Input) (*Assessment, error) {
	if patientID == uuid.Nil {
		return nil, fmt.Errorf("%w: patient id is required", ErrValidation)
	}
	if authorID == uuid.Nil {
		return nil, fmt.Errorf("%w: author id is required", ErrValidation)
	}
	if !validIndexTypes[in.IndexType] {
		return nil, fmt.Errorf("%w: unknown index_type %q", ErrValidation, in.IndexType)
	}

	a := fromInput(in)
	a.PatientID = patientID
	a.AuthorID = authorID
	if in.AssessedAt != nil {
		a.AssessedAt = *in.AssessedAt
	} else {
		a.AssessedAt = time.Now().UTC()
	}

	if err := computeOutputs(a); err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

// Update replaces all formula inputs of an existing assessment and recomputes
// the snapshot fields. The author is reattributed to the current caller. The
// assessment must belong to patientID; a mismatch reads as not-found so ids
// cannot be probed across patients.
func (s *Service) Update(ctx context.Context, patientID, id, authorID uuid.UUID, in *Input) (*Assessment, error) {
	existing, err := s.getOwned(ctx, patientID, id)
	if err != nil {
		return nil, err
	}
	if in.IndexType != "" && in.IndexType != existing.IndexType {
		return nil, fmt.Errorf("%w: index_type cannot change on update", ErrValidation)
	}

	a := fromInput(in)
	a.ID = existing.ID
	a.PatientID = existing.PatientID
	a.AuthorID = authorID
	a.IndexType = existing.IndexType
	a.CreatedAt = existing.CreatedAt
	if in.AssessedAt != nil {
		a.AssessedAt = *in.AssessedAt
	} else {
		a.AssessedAt = existing.AssessedAt
	}

	if err := computeOutputs(a); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

// Delete destroys an assessment. There is no soft delete or versioning.
func (s *Service) Delete(ctx context.Context, patientID, id uuid.UUID) error {
	if _, err := s.getOwned(ctx, patientID, id); err != nil {
		return err
	}
	return s.repo.Delete(ctx, id)
}

func (s *Service) Get(ctx context.Context, patientID, id uuid.UUID) (*Assessment, error) {
	return s.getOwned(ctx, patientID, id)
}

func (s *Service) ListForPatient(ctx context.Context, patientID uuid.UUID, indexType IndexType, order ListOrder, limit, offset int) ([]*Assessment, int, error) {
	if indexType != "" && !validIndexTypes[indexType] {
		return nil, 0, fmt.Errorf("%w: unknown index_type %q", ErrValidation, indexType)
	}
	if order != OrderAsc && order != OrderDesc {
		order = OrderDesc
	}
	return s.repo.ListByPatient(ctx, patientID, indexType, order, limit, offset)
}

func (s *Service) getOwned(ctx context.Context, patientID, id uuid.UUID) (*Assessment, error) {
	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if a.PatientID != patientID {
		return nil, ErrNotFound
	}
	return a, nil
}

// fromInput copies the raw inputs onto a fresh Assessment. Output fields are
// deliberately not copied from anywhere; computeOutputs fills them.
func fromInput(in *Input) *Assessment {
	return &Assessment{
		IndexType:        in.IndexType,
		TenderJoints:     in.TenderJoints,
		SwollenJoints:    in.SwollenJoints,
		DAS28Variant:     in.DAS28Variant,
		ESR:              in.ESR,
		CRP:              in.CRP,
		GlobalHealth:     in.GlobalHealth,
		PatientGlobal:    in.PatientGlobal,
		PhysicianGlobal:  in.PhysicianGlobal,
		Pain:             in.Pain,
		BASDAIQ1:         in.BASDAIQ1,
		BASDAIQ2:         in.BASDAIQ2,
		BASDAIQ3:         in.BASDAIQ3,
		BASDAIQ4:         in.BASDAIQ4,
		BASDAIQ5:         in.BASDAIQ5,
		BASDAIQ6:         in.BASDAIQ6,
		BackPain:         in.BackPain,
		MorningStiffness: in.MorningStiffness,
		PeripheralPain:   in.PeripheralPain,
		HAQItems:         in.HAQItems,
		WeightKg:         in.WeightKg,
		HeightM:          in.HeightM,
		VASValue:         in.VASValue,
		BaselineScore:    in.BaselineScore,
		FollowupScore:    in.FollowupScore,
	}
}
