// Package strength holds the pure strength-training formulas used by the analytics.
package strength

// Set is a single performed set.
type Set struct {
	Kilos float64 `json:"kilos"`
	Reps  int     `json:"reps"`
}

// Epley1RM estimates the one-rep max with the Epley formula: kilos * (1 + reps/30).
// A single rep is its own max.
func Epley1RM(kilos float64, reps int) float64 {
	if reps <= 0 || kilos <= 0 {
		return 0
	}
	if reps == 1 {
		return kilos
	}
	return kilos * (1 + float64(reps)/30)
}

// Estimate10RM inverts Epley for ten reps.
func Estimate10RM(oneRM float64) float64 {
	if oneRM <= 0 {
		return 0
	}
	return oneRM / (1 + 10.0/30)
}

// SessionVolume is the sum of kilos * reps over all sets.
func SessionVolume(sets []Set) float64 {
	var volume float64
	for _, s := range sets {
		if s.Reps <= 0 || s.Kilos <= 0 {
			continue
		}
		volume += s.Kilos * float64(s.Reps)
	}
	return volume
}

// BestSet returns the set with the highest estimated 1RM and that estimate.
func BestSet(sets []Set) (Set, float64) {
	var best Set
	var bestEstimate float64
	for _, s := range sets {
		if e := Epley1RM(s.Kilos, s.Reps); e > bestEstimate {
			best, bestEstimate = s, e
		}
	}
	return best, bestEstimate
}
