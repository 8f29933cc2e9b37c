package study

// UpdateMastery moves a mastery level toward recent performance with a
// bounded exponential moving average:
//
//	new = clamp(old + alpha*(outcome*100 - old), 0, 100)
//
// where outcome is 1 for a correct answer and 0 for an incorrect one. A single
// answer never resets the level; repeated answers converge it.
func UpdateMastery(old float64, correct bool, alpha float64) float64 {
	outcome := 0.0
	if correct {
		outcome = 100.0
	}
	return clampFloat(old+alpha*(outcome-old), 0, 100)
}
