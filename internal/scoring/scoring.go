// Package scoring implements the composite disease-activity indices used in
// rheumatology practice (DAS28, CDAI, SDAI, BASDAI, ASDAS-CRP, HAQ-DI, DAPSA,
// BMI) as pure functions. Scores are computed once at record time and stored;
// nothing in this package performs I/O.
package scoring

import "math"

// epsilon floors logarithm inputs so near-zero lab values cannot produce a
// domain error. This is an intentional policy, not defensive slack.
const epsilon = 1e-6

// HAQItemCount is the fixed number of HAQ-DI domain scores (dressing, arising,
// eating, walking, hygiene, reach, grip, activities), each graded 0-3.
const HAQItemCount = 8

func safeLog(x float64) float64 {
	return math.Log(math.Max(x, epsilon))
}

func clamp(x, lo, hi float64) float64 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}

// Round1 rounds to one decimal place.
func Round1(x float64) float64 { return math.Round(x*10) / 10 }

// Round2 rounds to two decimal places.
func Round2(x float64) float64 { return math.Round(x*100) / 100 }

// JointCount returns the number of distinct joint identifiers in ids.
// Tender and swollen joint counts are always derived from the selected-joint
// sets, never accepted as raw numbers; duplicates must not double-count.
func JointCount(ids []string) int {
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if id == "" {
			continue
		}
		seen[id] = struct{}{}
	}
	return len(seen)
}

// DAS28ESR computes the 28-joint Disease Activity Score with ESR:
//
//	0.56*sqrt(tjc) + 0.28*sqrt(sjc) + 0.70*ln(esr) + 0.014*gh
//
// gh is the patient global health VAS on a 0-100 scale. The score is
// undefined (ok=false) when esr <= 0.
func DAS28ESR(tjc, sjc int, esr, gh float64) (float64, bool) {
	if esr <= 0 {
		return 0, false
	}
	tjc, sjc = clampJoints(tjc, 28), clampJoints(sjc, 28)
	gh = clamp(gh, 0, 100)
	s := 0.56*math.Sqrt(float64(tjc)) + 0.28*math.Sqrt(float64(sjc)) + 0.70*safeLog(esr) + 0.014*gh
	return Round2(s), true
}

// DAS28CRP computes the 28-joint Disease Activity Score with CRP:
//
//	0.56*sqrt(tjc) + 0.28*sqrt(sjc) + 0.36*ln(crp+1) + 0.014*gh + 0.96
//
// The score is undefined (ok=false) when crp < 0.
func DAS28CRP(tjc, sjc int, crp, gh float64) (float64, bool) {
	if crp < 0 {
		return 0, false
	}
	tjc, sjc = clampJoints(tjc, 28), clampJoints(sjc, 28)
	gh = clamp(gh, 0, 100)
	s := 0.56*math.Sqrt(float64(tjc)) + 0.28*math.Sqrt(float64(sjc)) + 0.36*safeLog(crp+1) + 0.014*gh + 0.96
	return Round2(s), true
}

// CDAI is the Clinical Disease Activity Index: tjc28 + sjc28 + ptg + phg,
// where ptg and phg are patient and physician global VAS on 0-10.
func CDAI(tjc28, sjc28 int, ptg, phg float64) float64 {
	tjc28, sjc28 = clampJoints(tjc28, 28), clampJoints(sjc28, 28)
	return Round1(float64(tjc28) + float64(sjc28) + clamp(ptg, 0, 10) + clamp(phg, 0, 10))
}

// SDAI is the Simplified Disease Activity Index: CDAI components plus CRP
// in mg/dL. A negative crp is treated as zero.
func SDAI(tjc28, sjc28 int, ptg, phg, crp float64) float64 {
	tjc28, sjc28 = clampJoints(tjc28, 28), clampJoints(sjc28, 28)
	return Round1(float64(tjc28) + float64(sjc28) + clamp(ptg, 0, 10) + clamp(phg, 0, 10) + math.Max(crp, 0))
}

// BASDAI combines the six Bath AS Disease Activity questions (0-10 each):
// ((q1+q2+q3+q4)/4 + (q5+q6)/2) / 2.
func BASDAI(q1, q2, q3, q4, q5, q6 float64) float64 {
	q1, q2, q3 = clamp(q1, 0, 10), clamp(q2, 0, 10), clamp(q3, 0, 10)
	q4, q5, q6 = clamp(q4, 0, 10), clamp(q5, 0, 10), clamp(q6, 0, 10)
	return Round2(((q1+q2+q3+q4)/4 + (q5+q6)/2) / 2)
}

// ASDASCRP is the AS Disease Activity Score with CRP:
//
//	0.121*backPain + 0.058*duration + 0.110*peripheral + 0.073*ptg + 0.579*ln(crp+1)
//
// A negative crp is treated as zero before the logarithm.
func ASDASCRP(backPain, duration, peripheral, ptg, crp float64) float64 {
	backPain, duration = clamp(backPain, 0, 10), clamp(duration, 0, 10)
	peripheral, ptg = clamp(peripheral, 0, 10), clamp(ptg, 0, 10)
	s := 0.121*backPain + 0.058*duration + 0.110*peripheral + 0.073*ptg + 0.579*safeLog(math.Max(crp, 0)+1)
	return Round2(s)
}

// DAPSA is the Disease Activity in Psoriatic Arthritis score:
// tjc68 + sjc66 + pain + ptg + crp.
func DAPSA(tjc68, sjc66 int, pain, ptg, crp float64) float64 {
	tjc68 = clampJoints(tjc68, 68)
	sjc66 = clampJoints(sjc66, 66)
	return Round1(float64(tjc68) + float64(sjc66) + clamp(pain, 0, 10) + clamp(ptg, 0, 10) + math.Max(crp, 0))
}

// HAQDI is the mean of the HAQ-DI domain scores. The score is undefined
// (ok=false) unless exactly HAQItemCount items are supplied.
func HAQDI(items []float64) (float64, bool) {
	if len(items) != HAQItemCount {
		return 0, false
	}
	var sum float64
	for _, it := range items {
		sum += clamp(it, 0, 3)
	}
	return Round2(sum / float64(len(items))), true
}

// BMI computes body mass index from weight in kg and height in metres,
// rounded to one decimal. Undefined (ok=false) when heightM <= 0.
func BMI(weightKg, heightM float64) (float64, bool) {
	if heightM <= 0 {
		return 0, false
	}
	if weightKg < 0 {
		weightKg = 0
	}
	return Round1(weightKg / (heightM * heightM)), true
}

// VAS passes a 0-10 visual analogue reading through clamping and rounding so
// stored values share the same shape as computed scores.
func VAS(value float64) float64 {
	return Round1(clamp(value, 0, 10))
}

func clampJoints(n, max int) int {
	if n < 0 {
		return 0
	}
	if n > max {
		return max
	}
	return n
}
