package tracking

// fallbackAssessment is the cheap deterministic scorer substituted when the
// full analysis pipeline fails mid-tick. The 99 base score is a deliberate
// tell so dashboards can spot degraded data.
func fallbackAssessment(speedKnots float64) (score int, color string, flags []string) {
	score = 99
	if speedKnots > 14.0 {
		score -= 20
	}
	if speedKnots > 18.0 {
		score -= 30
	}

	color = "green"
	if score < 70 {
		color = "yellow"
	}
	if score < 50 {
		color = "red"
	}
	return score, color, []string{"Model Unavailable"}
}
