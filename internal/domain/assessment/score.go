package assessment

import (
	"fmt"

	"github.com/rheumatrack/rheumatrack/internal/scoring"
)

// computeOutputs derives the snapshot fields (joint counts, score, category,
// delta, response) from the raw inputs on a. Client-submitted scores never
// reach this path; whatever a caller sent is discarded and recomputed here.
// An unmet formula precondition leaves Score nil (undefined), which is a
// valid persisted state. A malformed input set returns ErrValidation.
func computeOutputs(a *Assessment) error {
	a.Score = nil
	a.Category = nil
	a.Delta = nil
	a.Response = nil
	a.TenderCount = nil
	a.SwollenCount = nil

	switch a.IndexType {
	case IndexDAS28:
		variant, err := das28Variant(a.DAS28Variant)
		if err != nil {
			return err
		}
		tjc, sjc := setCounts(a)
		var score float64
		var ok bool
		if variant == scoring.VariantESR {
			score, ok = scoring.DAS28ESR(tjc, sjc, val(a.ESR), val(a.GlobalHealth))
		} else {
			score, ok = scoring.DAS28CRP(tjc, sjc, val(a.CRP), val(a.GlobalHealth))
		}
		if ok {
			a.Score = &score
			setCategory(a, scoring.DAS28Band(variant, score))
		}

	case IndexCDAI:
		tjc, sjc := setCounts(a)
		score := scoring.CDAI(tjc, sjc, val(a.PatientGlobal), val(a.PhysicianGlobal))
		a.Score = &score
		setCategory(a, scoring.CDAIBand(score))

	case IndexSDAI:
		tjc, sjc := setCounts(a)
		score := scoring.SDAI(tjc, sjc, val(a.PatientGlobal), val(a.PhysicianGlobal), val(a.CRP))
		a.Score = &score
		setCategory(a, scoring.SDAIBand(score))

	case IndexBASDAI:
		score := scoring.BASDAI(
			val(a.BASDAIQ1), val(a.BASDAIQ2), val(a.BASDAIQ3),
			val(a.BASDAIQ4), val(a.BASDAIQ5), val(a.BASDAIQ6))
		a.Score = &score

	case IndexASDASCRP:
		score := scoring.ASDASCRP(
			val(a.BackPain), val(a.MorningStiffness), val(a.PeripheralPain),
			val(a.PatientGlobal), val(a.CRP))
		a.Score = &score

	case IndexHAQDI:
		if len(a.HAQItems) != scoring.HAQItemCount {
			return fmt.Errorf("%w: haq_items must contain exactly %d entries, got %d",
				ErrValidation, scoring.HAQItemCount, len(a.HAQItems))
		}
		if score, ok := scoring.HAQDI(a.HAQItems); ok {
			a.Score = &score
		}

	case IndexDAPSA:
		tjc, sjc := setCounts(a)
		score := scoring.DAPSA(tjc, sjc, val(a.Pain), val(a.PatientGlobal), val(a.CRP))
		a.Score = &score

	case IndexVAS:
		score := scoring.VAS(val(a.VASValue))
		a.Score = &score

	case IndexBMI:
		if score, ok := scoring.BMI(val(a.WeightKg), val(a.HeightM)); ok {
			a.Score = &score
			setCategory(a, scoring.BMIBand(score))
		}

	case IndexEULAR:
		if a.BaselineScore == nil || a.FollowupScore == nil {
			return fmt.Errorf("%w: eular_response requires baseline_score and followup_score", ErrValidation)
		}
		delta := scoring.Round2(*a.BaselineScore - *a.FollowupScore)
		resp := string(scoring.EULARResponse(*a.BaselineScore, *a.FollowupScore))
		a.Delta = &delta
		a.Response = &resp

	default:
		return fmt.Errorf("%w: unknown index_type %q", ErrValidation, a.IndexType)
	}

	return nil
}

func das28Variant(v *string) (scoring.DAS28Variant, error) {
	if v == nil {
		return "", fmt.Errorf("%w: das28_variant is required", ErrValidation)
	}
	switch scoring.DAS28Variant(*v) {
	case scoring.VariantESR:
		return scoring.VariantESR, nil
	case scoring.VariantCRP:
		return scoring.VariantCRP, nil
	}
	return "", fmt.Errorf("%w: das28_variant must be %q or %q", ErrValidation, scoring.VariantESR, scoring.VariantCRP)
}

// setCounts derives and stores the tender/swollen counts from the selected
// joint-id sets. Duplicate ids count once.
func setCounts(a *Assessment) (int, int) {
	tjc := scoring.JointCount(a.TenderJoints)
	sjc := scoring.JointCount(a.SwollenJoints)
	a.TenderCount = &tjc
	a.SwollenCount = &sjc
	return tjc, sjc
}

func setCategory(a *Assessment, band scoring.Band) {
	if band == scoring.BandUndefined {
		return
	}
	cat := string(band)
	a.Category = &cat
}

func val(p *float64) float64 {
	if p == nil {
		return 0
	}
	return *p
}
