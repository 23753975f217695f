package scoring

// Band is an ordinal disease-activity (or anthropometric) category derived
// from a score by fixed thresholds. Historical records store the band that
// was current at write time; bands are never recomputed on read.
type Band string

const (
	BandUndefined   Band = ""
	BandRemission   Band = "Remission"
	BandLow         Band = "Low"
	BandModerate    Band = "Moderate"
	BandHigh        Band = "High"
	BandUnderweight Band = "Underweight"
	BandNormal      Band = "Normal"
	BandOverweight  Band = "Overweight"
	BandObese       Band = "Obese"
)

// DAS28Variant selects the ESR or CRP sub-formula of DAS28. The two variants
// carry independent band thresholds.
type DAS28Variant string

const (
	VariantESR DAS28Variant = "esr"
	VariantCRP DAS28Variant = "crp"
)

// DAS28Band maps a DAS28 score to its activity band. Thresholds are
// variant-specific; intervals are inclusive on the lower bound.
func DAS28Band(variant DAS28Variant, score float64) Band {
	switch variant {
	case VariantCRP:
		switch {
		case score < 2.4:
			return BandRemission
		case score <= 2.9:
			return BandLow
		case score <= 4.6:
			return BandModerate
		default:
			return BandHigh
		}
	default: // ESR
		switch {
		case score < 2.6:
			return BandRemission
		case score <= 3.2:
			return BandLow
		case score <= 5.1:
			return BandModerate
		default:
			return BandHigh
		}
	}
}

// CDAIBand maps a CDAI score to its activity band.
func CDAIBand(score float64) Band {
	switch {
	case score <= 2.8:
		return BandRemission
	case score <= 10:
		return BandLow
	case score <= 22:
		return BandModerate
	default:
		return BandHigh
	}
}

// SDAIBand maps an SDAI score to its activity band.
func SDAIBand(score float64) Band {
	switch {
	case score <= 3.3:
		return BandRemission
	case score <= 11:
		return BandLow
	case score <= 26:
		return BandModerate
	default:
		return BandHigh
	}
}

// BMIBand maps a BMI value to the WHO weight category.
func BMIBand(score float64) Band {
	switch {
	case score < 18.5:
		return BandUnderweight
	case score < 25.0:
		return BandNormal
	case score < 30.0:
		return BandOverweight
	default:
		return BandObese
	}
}
