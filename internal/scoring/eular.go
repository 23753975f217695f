package scoring

// Response is the EULAR treatment-response classification of a baseline /
// follow-up DAS28 pair.
type Response string

const (
	ResponseGood     Response = "Good"
	ResponseModerate Response = "Moderate"
	ResponseNone     Response = "None"
)

// EULARResponse classifies treatment response from a baseline and follow-up
// DAS28 score. The branches are order-sensitive: the absolute follow-up value
// picks the row, the improvement delta picks the column.
func EULARResponse(baseline, followup float64) Response {
	delta := baseline - followup
	switch {
	case followup <= 3.2:
		if delta > 1.2 {
			return ResponseGood
		}
		if delta > 0.6 {
			return ResponseModerate
		}
		return ResponseNone
	case followup > 5.1:
		if delta > 1.2 {
			return ResponseModerate
		}
		return ResponseNone
	default: // 3.2 < followup <= 5.1
		if delta > 0.6 {
			return ResponseModerate
		}
		return ResponseNone
	}
}
