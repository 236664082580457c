package scoring

import "fmt"

// bandThresholds maps the fraction of correct answers onto the IELTS band
// scale. Thresholds are inclusive lower bounds, checked in descending order;
// the first match wins, which makes the mapping monotonic by construction.
var bandThresholds = []struct {
	MinPct float64
	Band   float64
}{
	{0.95, 9.0},
	{0.90, 8.5},
	{0.85, 8.0},
	{0.80, 7.5},
	{0.75, 7.0},
	{0.70, 6.5},
	{0.60, 6.0},
	{0.50, 5.5},
	{0.40, 5.0},
	{0.30, 4.5},
}

// BandFloor is returned when the percentage falls below every threshold.
const BandFloor = 4.0

// RawToBand converts a raw correct-answer count into an IELTS band score.
// total must be positive; a zero-question test is a caller error, not a
// representable band.
func RawToBand(raw, total int) (float64, error) {
	if total <= 0 {
		return 0, fmt.Errorf("total questions must be positive, got %d", total)
	}
	if raw < 0 || raw > total {
		return 0, fmt.Errorf("raw score %d is out of range 0-%d", raw, total)
	}

	pct := float64(raw) / float64(total)
	for _, t := range bandThresholds {
		if pct >= t.MinPct {
			return t.Band, nil
		}
	}
	return BandFloor, nil
}
